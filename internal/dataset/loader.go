package dataset

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/xuri/excelize/v2"
)

// loadOptions read every cell as text; numeric parsing happens in fromDataFrame
// so bad cells are reported with their row instead of turning into NaN.
var loadOptions = []dataframe.LoadOption{
	dataframe.HasHeader(true),
	dataframe.DetectTypes(false),
	dataframe.DefaultType(series.String),
}

// Load reads a dataset, choosing the parser from the file extension.
func Load(filename string, r io.Reader) (*Table, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv", "":
		return LoadCSV(r)
	case ".xlsx":
		return LoadXLSX(r)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(filename))
	}
}

// utf8BOM is written by Excel's "CSV UTF-8" format ahead of the header.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// LoadCSV reads a comma separated file with a header row. A leading UTF-8
// byte order mark is skipped.
func LoadCSV(r io.Reader) (*Table, error) {
	br := bufio.NewReader(r)
	if prefix, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(prefix, utf8BOM) {
		if _, err := br.Discard(len(utf8BOM)); err != nil {
			return nil, fmt.Errorf("failed to read dataset: %w", err)
		}
	}
	return fromDataFrame(dataframe.ReadCSV(br, loadOptions...))
}

// LoadXLSX reads the first worksheet of an Excel workbook.
func LoadXLSX(r io.Reader) (*Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyDataset
	}

	// Raw values; formatted text would round readings to the cell's number format.
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, ErrEmptyDataset
	}

	// GetRows drops trailing empty cells; pad so every row matches the header.
	width := len(rows[0])
	records := make([][]string, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		if len(row) < width {
			padded := make([]string, width)
			copy(padded, row)
			row = padded
		}
		records = append(records, row[:width])
	}

	return fromDataFrame(dataframe.LoadRecords(records, loadOptions...))
}

func fromDataFrame(df dataframe.DataFrame) (*Table, error) {
	if df.Err != nil {
		if strings.Contains(df.Err.Error(), "empty DataFrame") {
			return nil, ErrEmptyDataset
		}
		return nil, fmt.Errorf("failed to parse dataset: %w", df.Err)
	}

	if missing := missingColumns(df.Names()); len(missing) > 0 {
		return nil, &SchemaError{Missing: missing}
	}

	switch n := df.Nrow(); {
	case n == 0:
		return nil, ErrEmptyDataset
	case n < 2:
		return nil, ErrTooFewRows
	}

	cols := make(map[string][]string, len(Columns))
	for _, name := range Columns {
		cols[name] = df.Col(name).Records()
	}

	records := make([]RawRecord, df.Nrow())
	for i := range records {
		row := i + 1
		rec := RawRecord{
			UDI:       cols[ColUDI][i],
			ProductID: cols[ColProductID][i],
			Type:      cols[ColType][i],
		}

		numeric := []*float64{
			&rec.AirTemperature, &rec.ProcessTemperature, &rec.RotationalSpeed, &rec.Torque, &rec.ToolWear,
		}
		for j, name := range NumericColumns {
			v, err := parseFloat(cols[name][i])
			if err != nil {
				return nil, &CellError{Row: row, Column: name, Value: cols[name][i], Reason: err.Error()}
			}
			*numeric[j] = v
		}

		target, err := parseLabel(cols[ColMachineFailure][i])
		if err != nil {
			return nil, &CellError{Row: row, Column: ColMachineFailure, Value: cols[ColMachineFailure][i], Reason: err.Error()}
		}
		rec.MachineFailure = target

		for j, name := range FailureModeColumns {
			rec.FailureModes[j] = cols[name][i]
		}
		records[i] = rec
	}

	return &Table{Records: records}, nil
}

func missingColumns(names []string) []string {
	present := make(map[string]struct{}, len(names))
	for _, n := range names {
		present[n] = struct{}{}
	}

	var missing []string
	for _, c := range Columns {
		if _, ok := present[c]; !ok {
			missing = append(missing, c)
		}
	}
	return missing
}

func parseFloat(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("not a number")
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("not a finite number")
	}
	return v, nil
}

func parseLabel(s string) (int, error) {
	v, err := parseFloat(s)
	if err != nil {
		return 0, err
	}
	switch v {
	case 0:
		return 0, nil
	case 1:
		return 1, nil
	}
	return 0, fmt.Errorf("target must be 0 or 1")
}
