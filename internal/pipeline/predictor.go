package pipeline

import (
	"errors"
	"fmt"

	"predmaint/internal/forest"
	"predmaint/internal/preprocessing"
)

// Prediction texts shown to the user.
const (
	FailureText = "Equipment failure"
	NormalText  = "Equipment operating normally"
)

// ErrModelNotTrained is returned when no model exists yet
var ErrModelNotTrained = errors.New("model has not been trained")

// Prediction is the outcome for one reading.
type Prediction struct {
	Label       int     `json:"label"`
	Probability float64 `json:"probability"`
	Text        string  `json:"text"`
}

// FormatProbability renders the failure probability with two decimals
func (p Prediction) FormatProbability() string {
	return fmt.Sprintf("%.2f", p.Probability)
}

// Predictor scores single readings with a fitted forest and the scaler
// fitted during preprocessing.
type Predictor struct {
	forest *forest.Forest
	scaler *preprocessing.StandardScaler
}

// NewPredictor pairs a fitted forest with its fitted scaler
func NewPredictor(f *forest.Forest, scaler *preprocessing.StandardScaler) (*Predictor, error) {
	if f == nil || !f.Fitted() || !scaler.Fitted() {
		return nil, ErrModelNotTrained
	}
	return &Predictor{forest: f, scaler: scaler}, nil
}

// Predict encodes and scales r, then returns the class and P(failure).
func (p *Predictor) Predict(r preprocessing.Reading) (Prediction, error) {
	if p == nil {
		return Prediction{}, ErrModelNotTrained
	}

	row, err := preprocessing.TransformReading(r, p.scaler)
	if err != nil {
		return Prediction{}, err
	}

	prob, err := p.forest.PredictProba(row)
	if err != nil {
		return Prediction{}, err
	}

	label := forest.Label(prob)
	text := NormalText
	if label == 1 {
		text = FailureText
	}
	return Prediction{Label: label, Probability: prob, Text: text}, nil
}
