package dataset

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const header = "UDI,Product ID,Type,Air temperature [K],Process temperature [K],Rotational speed [rpm],Torque [Nm],Tool wear [min],Machine failure,TWF,HDF,PWF,OSF,RNF\n"

func TestLoadCSV_RoundTrip(t *testing.T) {
	records := Synthesize(SynthesizeOptions{Rows: 50, FailureRatio: 0.3, Seed: 42})

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, records))

	table, err := LoadCSV(&buf)
	require.NoError(t, err)
	assert.Equal(t, records, table.Records)
	assert.Equal(t, 50, table.Len())
}

func TestLoadXLSX_RoundTrip(t *testing.T) {
	records := Synthesize(SynthesizeOptions{Rows: 20, FailureRatio: 0.3, Seed: 7, Separable: true})

	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, records))

	table, err := Load("machines.xlsx", &buf)
	require.NoError(t, err)
	assert.Equal(t, records, table.Records)
}

func TestLoadCSV_ByteOrderMark(t *testing.T) {
	input := "\ufeff" + header +
		"1,L47181,L,298.1,308.6,1551,42.8,0,0,0,0,0,0,0\n" +
		"2,M14860,M,298.2,308.7,1408,46.3,3,1,0,0,0,0,0\n"

	table, err := LoadCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Equal(t, 2, table.Len())
	assert.Equal(t, "1", table.Records[0].UDI)
	assert.Equal(t, []int{0, 1}, table.Targets())
}

func TestLoadXLSX_FormattedNumbersKeepPrecision(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	rows := [][]interface{}{
		{1, "L47181", "L", 298.1, 308.6, 1551, 42.8, 0, 0, 0, 0, 0, 0, 0},
		{2, "M14860", "M", 298.2, 308.7, 1408, 46.3, 3, 1, 0, 0, 0, 0, 0},
	}
	names := make([]interface{}, len(Columns))
	for i, c := range Columns {
		names[i] = c
	}
	require.NoError(t, f.SetSheetRow(sheet, "A1", &names))
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	// Integer display format on the temperature and torque columns.
	style, err := f.NewStyle(&excelize.Style{NumFmt: 1})
	require.NoError(t, err)
	require.NoError(t, f.SetCellStyle(sheet, "D2", "G3", style))

	var buf bytes.Buffer
	_, err = f.WriteTo(&buf)
	require.NoError(t, err)

	table, err := LoadXLSX(&buf)
	require.NoError(t, err)
	require.Equal(t, 2, table.Len())
	assert.Equal(t, []float64{298.1, 308.6, 1551, 42.8, 0}, table.Records[0].Numeric())
	assert.Equal(t, []float64{298.2, 308.7, 1408, 46.3, 3}, table.Records[1].Numeric())
	assert.Equal(t, []int{0, 1}, table.Targets())
}

func TestLoadCSV_Errors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantErr  error
		checkErr func(*testing.T, error)
	}{
		{
			name:    "header only",
			input:   header,
			wantErr: ErrEmptyDataset,
		},
		{
			name:    "single row",
			input:   header + "1,L47181,L,298.1,308.6,1551,42.8,0,0,0,0,0,0,0\n",
			wantErr: ErrTooFewRows,
		},
		{
			name:  "missing columns",
			input: "UDI,Type,Air temperature [K]\n1,L,298.1\n2,M,298.2\n",
			checkErr: func(t *testing.T, err error) {
				var schemaErr *SchemaError
				require.ErrorAs(t, err, &schemaErr)
				assert.Contains(t, schemaErr.Missing, ColTorque)
				assert.Contains(t, schemaErr.Missing, ColMachineFailure)
				assert.NotContains(t, schemaErr.Missing, ColType)
				assert.Len(t, schemaErr.Missing, 11)
			},
		},
		{
			name: "non numeric torque",
			input: header +
				"1,L47181,L,298.1,308.6,1551,42.8,0,0,0,0,0,0,0\n" +
				"2,L47182,L,298.2,308.7,1408,high,3,0,0,0,0,0,0\n",
			checkErr: func(t *testing.T, err error) {
				var cellErr *CellError
				require.ErrorAs(t, err, &cellErr)
				assert.Equal(t, 2, cellErr.Row)
				assert.Equal(t, ColTorque, cellErr.Column)
				assert.Equal(t, "high", cellErr.Value)
			},
		},
		{
			name: "missing value becomes error",
			input: header +
				"1,L47181,L,NA,308.6,1551,42.8,0,0,0,0,0,0,0\n" +
				"2,L47182,L,298.2,308.7,1408,46.3,3,0,0,0,0,0,0\n",
			checkErr: func(t *testing.T, err error) {
				var cellErr *CellError
				require.ErrorAs(t, err, &cellErr)
				assert.Equal(t, 1, cellErr.Row)
				assert.Equal(t, ColAirTemperature, cellErr.Column)
			},
		},
		{
			name: "target outside 0 and 1",
			input: header +
				"1,L47181,L,298.1,308.6,1551,42.8,0,2,0,0,0,0,0\n" +
				"2,L47182,L,298.2,308.7,1408,46.3,3,0,0,0,0,0,0\n",
			checkErr: func(t *testing.T, err error) {
				var cellErr *CellError
				require.ErrorAs(t, err, &cellErr)
				assert.Equal(t, ColMachineFailure, cellErr.Column)
			},
		},
		{
			name:  "ragged rows",
			input: header + "1,L47181,L\n",
			checkErr: func(t *testing.T, err error) {
				assert.Error(t, err)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadCSV(strings.NewReader(tt.input))
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			if tt.checkErr != nil {
				tt.checkErr(t, err)
			}
		})
	}
}

func TestLoadCSV_ExtraAndReorderedColumns(t *testing.T) {
	input := "Note,Machine failure,Type,UDI,Product ID,Air temperature [K],Process temperature [K],Rotational speed [rpm],Torque [Nm],Tool wear [min],TWF,HDF,PWF,OSF,RNF\n" +
		"x,1,H,1,H29424,302.5,310.8,1321,62.7,210,0,0,1,0,0\n" +
		"y,0,M,2,M14860,298.1,308.6,1551,42.8,0,0,0,0,0,0\n"

	table, err := LoadCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Equal(t, 2, table.Len())

	first := table.Records[0]
	assert.Equal(t, "H", first.Type)
	assert.Equal(t, 1, first.MachineFailure)
	assert.Equal(t, []float64{302.5, 310.8, 1321, 62.7, 210}, first.Numeric())
	assert.Equal(t, [5]string{"0", "0", "1", "0", "0"}, first.FailureModes)
	assert.Equal(t, []int{1, 0}, table.Targets())
}

func TestLoad_UnsupportedFormat(t *testing.T) {
	_, err := Load("readings.json", strings.NewReader("{}"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestSynthesize(t *testing.T) {
	opts := SynthesizeOptions{Rows: 100, FailureRatio: 0.3, Seed: 42, Separable: true}
	a := Synthesize(opts)
	b := Synthesize(opts)
	assert.Equal(t, a, b)

	failures := 0
	for _, rec := range a {
		failures += rec.MachineFailure
		if rec.MachineFailure == 1 {
			assert.Equal(t, "H", rec.Type)
			assert.Greater(t, rec.Torque, 59.0)
		} else {
			assert.Equal(t, "L", rec.Type)
			assert.Less(t, rec.Torque, 36.0)
		}
	}
	assert.Equal(t, 30, failures)

	other := Synthesize(SynthesizeOptions{Rows: 100, FailureRatio: 0.3, Seed: 43, Separable: true})
	assert.NotEqual(t, a, other)
}
