package charts

import (
	"fmt"
	"io"
	"strings"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

const (
	svgBarWidth   = 24
	svgBarSpacing = 12
	svgMinWidth   = 480
)

var (
	darkBackground = drawing.ColorFromHex("222222")
	lightText      = drawing.ColorFromHex("dee2e6")
)

// RenderSVG draws spec as a static vertical bar chart. Grouped series are
// flattened into one bar per (category, series) pair.
func RenderSVG(w io.Writer, spec ChartSpec) error {
	if spec.Empty() {
		return renderBlank(w, spec)
	}

	bars := flattenBars(spec)
	lo, hi := 0.0, 0.0
	for _, b := range bars {
		lo = min(lo, b.Value)
		hi = max(hi, b.Value)
	}
	if hi == lo {
		hi = lo + 1
	}

	width := max(svgMinWidth, len(bars)*(svgBarWidth+svgBarSpacing)+96)

	graph := chart.BarChart{
		Title:      spec.Title,
		TitleStyle: chart.Style{FontColor: lightText},
		Width:      width,
		Height:     spec.Layout.Height,
		BarWidth:   svgBarWidth,
		BarSpacing: svgBarSpacing,
		Background: chart.Style{
			FillColor: darkBackground,
			Padding: chart.Box{
				Top:    spec.Layout.Margin.Top + 20,
				Left:   spec.Layout.Margin.Left + 8,
				Right:  spec.Layout.Margin.Right + 8,
				Bottom: spec.Layout.Margin.Bottom,
			},
		},
		Canvas: chart.Style{FillColor: darkBackground},
		XAxis:  chart.Style{FontColor: lightText, TextRotationDegrees: rotationFor(len(bars))},
		YAxis: chart.YAxis{
			Style: chart.Style{FontColor: lightText},
			Range: &chart.ContinuousRange{Min: lo, Max: hi},
		},
		Bars: bars,
	}

	if err := graph.Render(chart.SVG, w); err != nil {
		return fmt.Errorf("render %s chart: %w", spec.ID, err)
	}
	return nil
}

func flattenBars(spec ChartSpec) []chart.Value {
	grouped := len(spec.Series) > 1 || spec.BarMode == BarModeGroup
	bars := make([]chart.Value, 0)
	for _, s := range spec.Series {
		color := drawing.ColorFromHex(strings.TrimPrefix(s.Color, "#"))
		for _, p := range s.Points {
			label := p.Label
			if grouped {
				label = p.Label + " · " + s.Name
			}
			bars = append(bars, chart.Value{
				Label: label,
				Value: p.Value,
				Style: chart.Style{FillColor: color, StrokeColor: color},
			})
		}
	}
	return bars
}

func rotationFor(bars int) float64 {
	if bars > 12 {
		return 90
	}
	return 0
}

func renderBlank(w io.Writer, spec ChartSpec) error {
	_, err := fmt.Fprintf(w,
		`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d"><rect width="100%%" height="100%%" fill="#222222"/></svg>`,
		svgMinWidth, spec.Layout.Height)
	return err
}
