package dataset

// Column names of the machine-sensor dataset.
const (
	ColUDI                = "UDI"
	ColProductID          = "Product ID"
	ColType               = "Type"
	ColAirTemperature     = "Air temperature [K]"
	ColProcessTemperature = "Process temperature [K]"
	ColRotationalSpeed    = "Rotational speed [rpm]"
	ColTorque             = "Torque [Nm]"
	ColToolWear           = "Tool wear [min]"
	ColMachineFailure     = "Machine failure"
	ColTWF                = "TWF"
	ColHDF                = "HDF"
	ColPWF                = "PWF"
	ColOSF                = "OSF"
	ColRNF                = "RNF"
)

// Columns lists every required column in file order.
var Columns = []string{
	ColUDI, ColProductID, ColType,
	ColAirTemperature, ColProcessTemperature, ColRotationalSpeed, ColTorque, ColToolWear,
	ColMachineFailure,
	ColTWF, ColHDF, ColPWF, ColOSF, ColRNF,
}

// NumericColumns are the sensor readings that get standardized, in feature order.
var NumericColumns = []string{
	ColAirTemperature, ColProcessTemperature, ColRotationalSpeed, ColTorque, ColToolWear,
}

// FailureModeColumns are the per-mode indicator flags. They leak the target
// and are never used as features.
var FailureModeColumns = []string{ColTWF, ColHDF, ColPWF, ColOSF, ColRNF}

// DroppedColumns are removed before training: identifiers and failure modes.
var DroppedColumns = append([]string{ColUDI, ColProductID}, FailureModeColumns...)

// RawRecord is one row of the uploaded file.
type RawRecord struct {
	UDI       string
	ProductID string
	Type      string

	AirTemperature     float64
	ProcessTemperature float64
	RotationalSpeed    float64
	Torque             float64
	ToolWear           float64

	MachineFailure int

	// FailureModes holds TWF, HDF, PWF, OSF and RNF verbatim.
	FailureModes [5]string
}

// Numeric returns the five sensor readings in NumericColumns order.
func (r RawRecord) Numeric() []float64 {
	return []float64{r.AirTemperature, r.ProcessTemperature, r.RotationalSpeed, r.Torque, r.ToolWear}
}

// Table is a validated, row-aligned dataset.
type Table struct {
	Records []RawRecord
}

// Len returns the number of rows
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Records)
}

// Targets returns the Machine failure column
func (t *Table) Targets() []int {
	y := make([]int, len(t.Records))
	for i, rec := range t.Records {
		y[i] = rec.MachineFailure
	}
	return y
}
