package evaluation

import (
	"fmt"
	"html/template"
	"io"
	"math"
)

const (
	cellSize   = 120
	marginLeft = 110
	marginTop  = 60
)

// Endpoints of the blue color scale.
var (
	lowColor  = [3]float64{0xf7, 0xfb, 0xff}
	highColor = [3]float64{0x08, 0x30, 0x6b}
)

var heatmapTemplate = template.Must(template.New("heatmap").Parse(`<svg xmlns="http://www.w3.org/2000/svg" width="{{.Width}}" height="{{.Height}}" viewBox="0 0 {{.Width}} {{.Height}}" font-family="sans-serif">
<text x="{{.TitleX}}" y="28" text-anchor="middle" font-size="16">{{.Title}}</text>
{{- range .Cells}}
<rect x="{{.X}}" y="{{.Y}}" width="{{.Size}}" height="{{.Size}}" fill="{{.Fill}}" stroke="#ffffff"/>
<text x="{{.TextX}}" y="{{.TextY}}" text-anchor="middle" dominant-baseline="middle" font-size="22" fill="{{.TextFill}}">{{.Count}}</text>
{{- end}}
{{- range .Labels}}
<text x="{{.X}}" y="{{.Y}}" text-anchor="{{.Anchor}}" font-size="13">{{.Text}}</text>
{{- end}}
<text x="{{.TitleX}}" y="{{.AxisY}}" text-anchor="middle" font-size="13">Predicted</text>
<text x="18" y="{{.AxisX}}" text-anchor="middle" font-size="13" transform="rotate(-90 18 {{.AxisX}})">Actual</text>
</svg>
`))

type heatmapCell struct {
	X, Y, Size     int
	TextX, TextY   int
	Fill, TextFill string
	Count          int
}

type heatmapLabel struct {
	X, Y   int
	Anchor string
	Text   string
}

// RenderHeatmapSVG draws the annotated confusion matrix as an SVG image.
// Darker cells hold larger counts.
func RenderHeatmapSVG(w io.Writer, cm ConfusionMatrix, title string) error {
	peak := cm.Max()
	cells := make([]heatmapCell, 0, 4)
	for actual := 0; actual < 2; actual++ {
		for predicted := 0; predicted < 2; predicted++ {
			count := cm[actual][predicted]
			intensity := 0.0
			if peak > 0 {
				intensity = float64(count) / float64(peak)
			}
			textFill := "#08306b"
			if intensity > 0.5 {
				textFill = "#ffffff"
			}
			x := marginLeft + predicted*cellSize
			y := marginTop + actual*cellSize
			cells = append(cells, heatmapCell{
				X: x, Y: y, Size: cellSize,
				TextX: x + cellSize/2, TextY: y + cellSize/2,
				Fill:     blend(intensity),
				TextFill: textFill,
				Count:    count,
			})
		}
	}

	labels := []heatmapLabel{
		{X: marginLeft + cellSize/2, Y: marginTop + 2*cellSize + 20, Anchor: "middle", Text: "0"},
		{X: marginLeft + cellSize + cellSize/2, Y: marginTop + 2*cellSize + 20, Anchor: "middle", Text: "1"},
		{X: marginLeft - 10, Y: marginTop + cellSize/2, Anchor: "end", Text: "0"},
		{X: marginLeft - 10, Y: marginTop + cellSize + cellSize/2, Anchor: "end", Text: "1"},
	}

	width := marginLeft + 2*cellSize + 30
	height := marginTop + 2*cellSize + 60
	return heatmapTemplate.Execute(w, struct {
		Width, Height int
		TitleX        int
		AxisX, AxisY  int
		Title         string
		Cells         []heatmapCell
		Labels        []heatmapLabel
	}{
		Width:  width,
		Height: height,
		TitleX: marginLeft + cellSize,
		AxisX:  marginTop + cellSize,
		AxisY:  marginTop + 2*cellSize + 45,
		Title:  title,
		Cells:  cells,
		Labels: labels,
	})
}

// blend interpolates the color scale at t in [0, 1].
func blend(t float64) string {
	t = math.Max(0, math.Min(1, t))
	var c [3]int
	for i := range c {
		c[i] = int(math.Round(lowColor[i] + (highColor[i]-lowColor[i])*t))
	}
	return fmt.Sprintf("#%02x%02x%02x", c[0], c[1], c[2])
}
