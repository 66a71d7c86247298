package preprocessing

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"predmaint/internal/dataset"
)

// FeatureNames is the column order of every feature vector: the encoded type
// followed by the standardized sensor readings.
var FeatureNames = append([]string{dataset.ColType}, dataset.NumericColumns...)

// Reading is one machine state as entered for prediction.
type Reading struct {
	Type               string  `json:"type"`
	AirTemperature     float64 `json:"air_temperature"`
	ProcessTemperature float64 `json:"process_temperature"`
	RotationalSpeed    float64 `json:"rotational_speed"`
	Torque             float64 `json:"torque"`
	ToolWear           float64 `json:"tool_wear"`
}

// DefaultReading holds the prediction form defaults.
func DefaultReading() Reading {
	return Reading{
		Type:               "L",
		AirTemperature:     300.0,
		ProcessTemperature: 310.0,
		RotationalSpeed:    1500.0,
		Torque:             40.0,
		ToolWear:           100.0,
	}
}

// ReadingOf extracts the feature fields of a raw record.
func ReadingOf(rec dataset.RawRecord) Reading {
	return Reading{
		Type:               rec.Type,
		AirTemperature:     rec.AirTemperature,
		ProcessTemperature: rec.ProcessTemperature,
		RotationalSpeed:    rec.RotationalSpeed,
		Torque:             rec.Torque,
		ToolWear:           rec.ToolWear,
	}
}

// Numeric returns the sensor readings in dataset.NumericColumns order.
func (r Reading) Numeric() []float64 {
	return []float64{r.AirTemperature, r.ProcessTemperature, r.RotationalSpeed, r.Torque, r.ToolWear}
}

// Dataset is the cleaned, encoded and standardized table.
type Dataset struct {
	// Features has one row per record and len(FeatureNames) columns.
	Features *mat.Dense
	Target   []int
}

// Rows returns the number of records
func (d *Dataset) Rows() int {
	r, _ := d.Features.Dims()
	return r
}

// Row returns feature row i. The slice aliases the matrix.
func (d *Dataset) Row(i int) []float64 {
	return d.Features.RawRowView(i)
}

// Preprocess drops the identifier and failure-mode columns, encodes Type and
// standardizes the sensor readings with a scaler fitted on this table.
func Preprocess(table *dataset.Table) (*Dataset, *StandardScaler, error) {
	n := table.Len()
	if n == 0 {
		return nil, nil, dataset.ErrEmptyDataset
	}

	columns := make([][]float64, len(dataset.NumericColumns))
	for j := range columns {
		columns[j] = make([]float64, n)
	}
	for i, rec := range table.Records {
		if _, err := EncodeType(rec.Type); err != nil {
			return nil, nil, &dataset.CellError{
				Row:    i + 1,
				Column: dataset.ColType,
				Value:  rec.Type,
				Reason: "type must be one of L, M, H",
				Err:    err,
			}
		}
		for j, v := range rec.Numeric() {
			columns[j][i] = v
		}
	}

	scaler := NewStandardScaler()
	if err := scaler.Fit(columns); err != nil {
		return nil, nil, fmt.Errorf("failed to fit scaler: %w", err)
	}

	features := mat.NewDense(n, len(FeatureNames), nil)
	for i, rec := range table.Records {
		row, err := TransformReading(ReadingOf(rec), scaler)
		if err != nil {
			return nil, nil, err
		}
		features.SetRow(i, row)
	}

	return &Dataset{Features: features, Target: table.Targets()}, scaler, nil
}

// TransformReading turns one reading into a feature vector with an already
// fitted scaler.
func TransformReading(r Reading, scaler *StandardScaler) ([]float64, error) {
	if !scaler.Fitted() {
		return nil, ErrNotFitted
	}

	code, err := EncodeType(r.Type)
	if err != nil {
		return nil, err
	}

	row := make([]float64, 0, len(FeatureNames))
	row = append(row, code)
	for j, v := range r.Numeric() {
		row = append(row, scaler.TransformValue(j, v))
	}
	return row, nil
}
