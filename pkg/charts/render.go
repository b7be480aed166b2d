package charts

import (
	"io"
	"math"
	"strings"

	"github.com/pkg/errors"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

type Format string

const (
	PNG Format = "png"
	SVG Format = "svg"
)

func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case PNG:
		return PNG, nil
	case SVG:
		return SVG, nil
	}
	return "", errors.Errorf("unknown image format %q", s)
}

func (f Format) ContentType() string {
	if f == SVG {
		return "image/svg+xml"
	}
	return "image/png"
}

// ChartRenderer draws a Chart as an image.
type ChartRenderer interface {
	Render(w io.Writer, c Chart, f Format) error
}

type GoChartRenderer struct {
	Width  int
	Height int
}

func NewGoChartRenderer(width, height int) *GoChartRenderer {
	return &GoChartRenderer{Width: width, Height: height}
}

func traceStyle(t Trace) chart.Style {
	style := chart.Style{
		StrokeColor: drawing.ColorFromHex(strings.TrimPrefix(t.Color, "#")),
		StrokeWidth: 2,
	}
	if t.Dashed {
		style.StrokeDashArray = []float64{8, 4}
	}
	return style
}

func (r *GoChartRenderer) Render(w io.Writer, c Chart, f Format) error {
	if len(c.Traces) == 0 {
		return errors.Wrapf(ErrEmptySeries, "rendering %s", c.Name)
	}

	series := []chart.Series{}
	for _, t := range c.Traces {
		if len(t.X) < 2 {
			return errors.Wrapf(ErrEmptySeries, "rendering %s trace %s", c.Name, t.Name)
		}
		series = append(series, chart.ContinuousSeries{
			Name:    t.Name,
			XValues: t.X,
			YValues: t.Y,
			Style:   traceStyle(t),
		})
	}

	if c.ZeroLine {
		x := c.Traces[0].X
		series = append(series, chart.ContinuousSeries{
			Name:    "0",
			XValues: []float64{x[0], x[len(x)-1]},
			YValues: []float64{0, 0},
			Style: chart.Style{
				StrokeColor:     drawing.ColorBlack,
				StrokeWidth:     1.5,
				StrokeDashArray: []float64{4, 4},
			},
		})
	}

	ymin, ymax := c.YMin, c.YMax
	if !c.FixedY {
		ymin, ymax = valueRange(c)
	}

	ch := chart.Chart{
		Title:      c.Title,
		Width:      r.Width,
		Height:     r.Height,
		Background: chart.Style{Padding: chart.Box{Top: 48, Left: 16, Right: 16, Bottom: 16}},
		XAxis:      chart.XAxis{Name: c.XLabel},
		YAxis:      chart.YAxis{Name: c.YLabel, Range: &chart.ContinuousRange{Min: ymin, Max: ymax}},
		Series:     series,
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}

	var rp chart.RendererProvider = chart.PNG
	if f == SVG {
		rp = chart.SVG
	}
	return errors.Wrapf(ch.Render(rp, w), "rendering %s chart", c.Name)
}

// valueRange spans all traces with a 5% margin, and zero when the chart has a
// zero line.
func valueRange(c Chart) (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	if c.ZeroLine {
		lo, hi = 0, 0
	}
	for _, t := range c.Traces {
		for _, y := range t.Y {
			lo = math.Min(lo, y)
			hi = math.Max(hi, y)
		}
	}
	if hi-lo < 1e-9 {
		return lo - 1, hi + 1
	}
	margin := (hi - lo) * 0.05
	return lo - margin, hi + margin
}
