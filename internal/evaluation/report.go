package evaluation

import (
	"errors"
	"fmt"
)

// Report holds the held-out metrics of one trained model.
type Report struct {
	Accuracy float64 `json:"accuracy"`
	// ROCAUC is nil when the test split holds a single class.
	ROCAUC    *float64        `json:"roc_auc"`
	Confusion ConfusionMatrix `json:"confusion_matrix"`
	TestSize  int             `json:"test_size"`
}

// Evaluate builds a report from true labels, predicted labels and
// positive-class scores of the same rows.
func Evaluate(yTrue, yPred []int, scores []float64) (*Report, error) {
	accuracy, err := Accuracy(yTrue, yPred)
	if err != nil {
		return nil, err
	}

	cm, err := Confusion(yTrue, yPred)
	if err != nil {
		return nil, err
	}

	report := &Report{
		Accuracy:  accuracy,
		Confusion: cm,
		TestSize:  len(yTrue),
	}

	auc, err := ROCAUC(yTrue, scores)
	switch {
	case err == nil:
		report.ROCAUC = &auc
	case !errors.Is(err, ErrMetricUnavailable):
		return nil, err
	}
	return report, nil
}

// ROCAUCAvailable reports whether ROC-AUC could be computed
func (r *Report) ROCAUCAvailable() bool {
	return r.ROCAUC != nil
}

// FormatAccuracy renders accuracy with two decimals
func (r *Report) FormatAccuracy() string {
	return fmt.Sprintf("%.2f", r.Accuracy)
}

// FormatROCAUC renders ROC-AUC with two decimals, or n/a
func (r *Report) FormatROCAUC() string {
	if r.ROCAUC == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", *r.ROCAUC)
}
