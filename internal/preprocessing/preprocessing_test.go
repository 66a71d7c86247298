package preprocessing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"predmaint/internal/dataset"
)

func TestEncodeType_Bijection(t *testing.T) {
	seen := make(map[float64]string)
	for _, category := range TypeCategories {
		code, err := EncodeType(category)
		require.NoError(t, err)

		_, dup := seen[code]
		assert.False(t, dup, "code %v assigned twice", code)
		seen[code] = category

		back, err := DecodeType(code)
		require.NoError(t, err)
		assert.Equal(t, category, back)
	}
	assert.Len(t, seen, 3)

	expected := map[string]float64{"L": 0, "M": 1, "H": 2}
	for category, want := range expected {
		got, err := EncodeType(category)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestEncodeType_Rejects(t *testing.T) {
	tests := []string{"", "l", "X", "LM", "Low", "0", "NaN", " L", "M ", " H "}
	for _, input := range tests {
		t.Run(input, func(t *testing.T) {
			_, err := EncodeType(input)
			assert.ErrorIs(t, err, ErrUnknownType)
		})
	}

	for _, code := range []float64{-1, 3, 0.5} {
		_, err := DecodeType(code)
		assert.ErrorIs(t, err, ErrUnknownType)
	}
}

func TestStandardScaler(t *testing.T) {
	s := NewStandardScaler()
	_, err := s.Transform([]float64{1, 2})
	assert.ErrorIs(t, err, ErrNotFitted)

	require.NoError(t, s.Fit([][]float64{
		{1, 2, 3, 4},
		{5, 5, 5, 5},
	}))
	assert.True(t, s.Fitted())
	assert.Equal(t, []float64{2.5, 5}, s.Mean)
	assert.InDelta(t, math.Sqrt(1.25), s.Scale[0], 1e-12)
	assert.Equal(t, 1.0, s.Scale[1], "constant column keeps unit scale")

	out, err := s.Transform([]float64{2.5, 7})
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 2}, out)

	_, err = s.Transform([]float64{1})
	assert.Error(t, err)

	assert.ErrorIs(t, s.Fit([][]float64{{1, 2}}), ErrAlreadyFitted)
}

func TestPreprocess(t *testing.T) {
	records := dataset.Synthesize(dataset.SynthesizeOptions{Rows: 200, FailureRatio: 0.3, Seed: 1})
	table := &dataset.Table{Records: records}

	ds, scaler, err := Preprocess(table)
	require.NoError(t, err)

	rows, cols := ds.Features.Dims()
	assert.Equal(t, 200, rows)
	assert.Equal(t, len(FeatureNames), cols)
	assert.Equal(t, table.Targets(), ds.Target)
	assert.Equal(t, []string{"Type", "Air temperature [K]", "Process temperature [K]", "Rotational speed [rpm]", "Torque [Nm]", "Tool wear [min]"}, FeatureNames)

	// standardized columns have zero mean and unit population variance
	for j := 1; j < cols; j++ {
		col := make([]float64, rows)
		for i := range col {
			col[i] = ds.Features.At(i, j)
		}
		var sum, sq float64
		for _, v := range col {
			sum += v
		}
		mean := sum / float64(rows)
		for _, v := range col {
			sq += (v - mean) * (v - mean)
		}
		assert.InDelta(t, 0, mean, 1e-9)
		assert.InDelta(t, 1, sq/float64(rows), 1e-9)
	}

	// Type column carries the raw codes
	for i, rec := range records {
		code, _ := EncodeType(rec.Type)
		assert.Equal(t, code, ds.Features.At(i, 0))
	}
	assert.Len(t, scaler.Mean, len(dataset.NumericColumns))
}

func TestPreprocess_BatchMatchesSingleRecord(t *testing.T) {
	records := dataset.Synthesize(dataset.SynthesizeOptions{Rows: 120, FailureRatio: 0.25, Seed: 99})
	ds, scaler, err := Preprocess(&dataset.Table{Records: records})
	require.NoError(t, err)

	for _, i := range []int{0, 17, 63, 119} {
		single, err := TransformReading(ReadingOf(records[i]), scaler)
		require.NoError(t, err)
		// exact equality, not tolerance
		assert.Equal(t, ds.Row(i), single, "row %d", i)
	}
}

func TestPreprocess_RejectsUnknownType(t *testing.T) {
	records := dataset.Synthesize(dataset.SynthesizeOptions{Rows: 10, FailureRatio: 0.3, Seed: 3})
	records[4].Type = "X"

	_, _, err := Preprocess(&dataset.Table{Records: records})
	require.Error(t, err)

	var cellErr *dataset.CellError
	require.ErrorAs(t, err, &cellErr)
	assert.Equal(t, 5, cellErr.Row)
	assert.Equal(t, dataset.ColType, cellErr.Column)
	assert.ErrorIs(t, err, ErrUnknownType)
}

func TestTransformReading(t *testing.T) {
	_, err := TransformReading(DefaultReading(), NewStandardScaler())
	assert.ErrorIs(t, err, ErrNotFitted)

	scaler := NewStandardScaler()
	require.NoError(t, scaler.Fit([][]float64{{299, 301}, {309, 311}, {1400, 1600}, {30, 50}, {0, 200}}))

	row, err := TransformReading(DefaultReading(), scaler)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 0, 0, 0, 0}, row)

	bad := DefaultReading()
	bad.Type = "Z"
	_, err = TransformReading(bad, scaler)
	assert.ErrorIs(t, err, ErrUnknownType)
}
