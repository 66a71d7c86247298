package dataset

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmptyDataset is returned for a file without data rows
	ErrEmptyDataset = errors.New("dataset has no rows")
	// ErrTooFewRows is returned when the rows cannot be split into train and test parts
	ErrTooFewRows = errors.New("dataset needs at least two rows")
	// ErrUnsupportedFormat is returned for extensions other than .csv and .xlsx
	ErrUnsupportedFormat = errors.New("unsupported file format")
)

// SchemaError reports required columns absent from the header.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("missing required columns: %s", strings.Join(e.Missing, ", "))
}

// CellError reports a value that cannot be used. Row is the 1-based data row.
type CellError struct {
	Row    int
	Column string
	Value  string
	Reason string
	Err    error
}

func (e *CellError) Error() string {
	return fmt.Sprintf("row %d, column %q: %s (value %q)", e.Row, e.Column, e.Reason, e.Value)
}

func (e *CellError) Unwrap() error {
	return e.Err
}
