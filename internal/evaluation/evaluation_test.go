package evaluation

import (
	"bytes"
	"encoding/xml"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccuracy(t *testing.T) {
	tests := []struct {
		name    string
		yTrue   []int
		yPred   []int
		want    float64
		wantErr error
	}{
		{name: "all correct", yTrue: []int{0, 1, 1}, yPred: []int{0, 1, 1}, want: 1},
		{name: "half correct", yTrue: []int{0, 1, 1, 0}, yPred: []int{1, 1, 0, 0}, want: 0.5},
		{name: "empty", yTrue: []int{}, yPred: []int{}, wantErr: ErrMetricUnavailable},
		{name: "mismatch", yTrue: []int{0}, yPred: []int{0, 1}, wantErr: ErrLengthMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Accuracy(tt.yTrue, tt.yPred)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestROCAUC(t *testing.T) {
	tests := []struct {
		name    string
		yTrue   []int
		scores  []float64
		want    float64
		wantErr error
	}{
		{
			name:   "perfect ranking",
			yTrue:  []int{0, 0, 1, 1},
			scores: []float64{0.1, 0.2, 0.8, 0.9},
			want:   1,
		},
		{
			name:   "inverted ranking",
			yTrue:  []int{1, 1, 0, 0},
			scores: []float64{0.1, 0.2, 0.8, 0.9},
			want:   0,
		},
		{
			// 7 of 8 positive/negative pairs ordered correctly
			name:   "unsorted mixed",
			yTrue:  []int{1, 0, 1, 1, 0, 1},
			scores: []float64{8, 0, 7.5, 3, 5, 6},
			want:   0.875,
		},
		{
			name:   "all tied",
			yTrue:  []int{0, 1, 0, 1},
			scores: []float64{0.5, 0.5, 0.5, 0.5},
			want:   0.5,
		},
		{
			name:    "single class",
			yTrue:   []int{0, 0, 0},
			scores:  []float64{0.1, 0.4, 0.3},
			wantErr: ErrMetricUnavailable,
		},
		{
			name:    "empty",
			yTrue:   []int{},
			scores:  []float64{},
			wantErr: ErrMetricUnavailable,
		},
		{
			name:    "length mismatch",
			yTrue:   []int{0, 1},
			scores:  []float64{0.1},
			wantErr: ErrLengthMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scores := append([]float64(nil), tt.scores...)
			got, err := ROCAUC(tt.yTrue, scores)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-12)
			assert.Equal(t, tt.scores, scores, "input scores must not be reordered")
		})
	}
}

func TestConfusion(t *testing.T) {
	yTrue := []int{0, 0, 0, 1, 1, 1, 1}
	yPred := []int{0, 1, 0, 1, 0, 1, 1}

	cm, err := Confusion(yTrue, yPred)
	require.NoError(t, err)
	assert.Equal(t, ConfusionMatrix{{2, 1}, {1, 3}}, cm)
	assert.Equal(t, len(yTrue), cm.Total())
	assert.Equal(t, 2, cm.TrueNegatives())
	assert.Equal(t, 1, cm.FalsePositives())
	assert.Equal(t, 1, cm.FalseNegatives())
	assert.Equal(t, 3, cm.TruePositives())
	assert.Equal(t, 3, cm.Max())

	_, err = Confusion([]int{0, 2}, []int{0, 1})
	assert.Error(t, err)
}

func TestEvaluate(t *testing.T) {
	report, err := Evaluate([]int{0, 1, 1, 0}, []int{0, 1, 0, 0}, []float64{0.2, 0.9, 0.4, 0.1})
	require.NoError(t, err)
	assert.Equal(t, 0.75, report.Accuracy)
	assert.Equal(t, 4, report.TestSize)
	assert.Equal(t, report.TestSize, report.Confusion.Total())
	require.True(t, report.ROCAUCAvailable())
	assert.Equal(t, "0.75", report.FormatAccuracy())
	assert.Equal(t, "1.00", report.FormatROCAUC())

	single, err := Evaluate([]int{0, 0}, []int{0, 1}, []float64{0.1, 0.7})
	require.NoError(t, err)
	assert.False(t, single.ROCAUCAvailable())
	assert.Equal(t, "n/a", single.FormatROCAUC())
	assert.Equal(t, "0.50", single.FormatAccuracy())

	_, err = Evaluate(nil, nil, nil)
	assert.ErrorIs(t, err, ErrMetricUnavailable)
}

func TestRenderHeatmapSVG(t *testing.T) {
	var buf bytes.Buffer
	cm := ConfusionMatrix{{1930, 2}, {38, 30}}
	require.NoError(t, RenderHeatmapSVG(&buf, cm, "Confusion matrix"))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "<svg"))
	for _, want := range []string{">1930<", ">2<", ">38<", ">30<", "Confusion matrix", "Predicted", "Actual"} {
		assert.Contains(t, out, want)
	}
	// the largest cell gets the darkest color, an empty scale the lightest
	assert.Contains(t, out, `fill="#08306b"`)
	assert.Equal(t, "#f7fbff", blend(0))
	assert.Equal(t, "#08306b", blend(1))

	// well-formed XML
	dec := xml.NewDecoder(strings.NewReader(out))
	for {
		_, err := dec.Token()
		if err != nil {
			assert.Equal(t, "EOF", err.Error())
			break
		}
	}
}

func TestRenderHeatmapSVG_EscapesTitle(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderHeatmapSVG(&buf, ConfusionMatrix{}, "<script>"))
	assert.NotContains(t, buf.String(), "<script>")
}
