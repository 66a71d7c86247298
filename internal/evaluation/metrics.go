package evaluation

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/stat"
)

var (
	// ErrMetricUnavailable is returned when a metric is undefined for the
	// given labels, such as ROC-AUC on a single-class or empty test split.
	ErrMetricUnavailable = errors.New("metric unavailable")
	// ErrLengthMismatch is returned when label and prediction slices differ in length
	ErrLengthMismatch = errors.New("length mismatch")
)

// Accuracy returns the fraction of predictions equal to the true label.
func Accuracy(yTrue, yPred []int) (float64, error) {
	if len(yTrue) != len(yPred) {
		return 0, fmt.Errorf("%w: %d labels, %d predictions", ErrLengthMismatch, len(yTrue), len(yPred))
	}
	if len(yTrue) == 0 {
		return 0, fmt.Errorf("%w: accuracy of an empty split", ErrMetricUnavailable)
	}

	correct := 0
	for i := range yTrue {
		if yTrue[i] == yPred[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(yTrue)), nil
}

// ROCAUC returns the area under the ROC curve of scores against the true
// labels. Tied scores form a single ROC point.
func ROCAUC(yTrue []int, scores []float64) (float64, error) {
	if len(yTrue) != len(scores) {
		return 0, fmt.Errorf("%w: %d labels, %d scores", ErrLengthMismatch, len(yTrue), len(scores))
	}

	y := make([]float64, len(scores))
	copy(y, scores)
	classes := make([]bool, len(yTrue))
	positives := 0
	for i, label := range yTrue {
		classes[i] = label == 1
		if classes[i] {
			positives++
		}
	}
	if positives == 0 || positives == len(yTrue) {
		return 0, fmt.Errorf("%w: ROC-AUC needs both classes in the test split", ErrMetricUnavailable)
	}

	stat.SortWeightedLabeled(y, classes, nil)
	tpr, fpr, _ := stat.ROC(nil, y, classes, nil)
	return integrate.Trapezoidal(fpr, tpr), nil
}

// ConfusionMatrix counts outcomes with rows as the true class and columns
// as the predicted class.
type ConfusionMatrix [2][2]int

// Confusion tallies a confusion matrix
func Confusion(yTrue, yPred []int) (ConfusionMatrix, error) {
	var cm ConfusionMatrix
	if len(yTrue) != len(yPred) {
		return cm, fmt.Errorf("%w: %d labels, %d predictions", ErrLengthMismatch, len(yTrue), len(yPred))
	}
	for i := range yTrue {
		t, p := yTrue[i], yPred[i]
		if t < 0 || t > 1 || p < 0 || p > 1 {
			return cm, fmt.Errorf("row %d: labels must be 0 or 1", i)
		}
		cm[t][p]++
	}
	return cm, nil
}

// Total returns the number of counted samples
func (c ConfusionMatrix) Total() int {
	return c[0][0] + c[0][1] + c[1][0] + c[1][1]
}

// Max returns the largest cell
func (c ConfusionMatrix) Max() int {
	return max(c[0][0], c[0][1], c[1][0], c[1][1])
}

// TrueNegatives, FalsePositives, FalseNegatives and TruePositives name the cells.
func (c ConfusionMatrix) TrueNegatives() int  { return c[0][0] }
func (c ConfusionMatrix) FalsePositives() int { return c[0][1] }
func (c ConfusionMatrix) FalseNegatives() int { return c[1][0] }
func (c ConfusionMatrix) TruePositives() int  { return c[1][1] }
