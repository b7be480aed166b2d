package charts

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"f1telemetryhub/pkg/model"
	"f1telemetryhub/pkg/telemetry"
)

var ErrEmptySeries = errors.New("telemetry series has fewer than two samples")

type Channel string

const (
	Speed    Channel = "speed"
	Throttle Channel = "throttle"
	Brake    Channel = "brake"
	Gear     Channel = "gear"
)

// Channels lists the telemetry channels in report order.
var Channels = []Channel{Speed, Throttle, Brake, Gear}

const (
	DeltaName  = "delta"
	deltaColor = "#E10600"
)

func ParseChannel(s string) (Channel, error) {
	c := Channel(strings.ToLower(s))
	for _, ch := range Channels {
		if ch == c {
			return c, nil
		}
	}
	return "", errors.Errorf("unknown channel %q", s)
}

// Label is the default axis label of the channel.
func (c Channel) Label() string {
	switch c {
	case Speed:
		return "Speed (km/h)"
	case Throttle:
		return "Throttle (%)"
	case Brake:
		return "Brake"
	case Gear:
		return "Gear"
	}
	return string(c)
}

func (c Channel) value(s model.Sample) float64 {
	switch c {
	case Speed:
		return s.Speed
	case Throttle:
		return s.Throttle
	case Brake:
		return s.Brake
	case Gear:
		return float64(s.Gear)
	}
	return 0
}

// bounds is the fixed value range of the channel, if it has one.
func (c Channel) bounds() (float64, float64, bool) {
	switch c {
	case Throttle, Brake:
		return 0, 100, true
	case Gear:
		return 0, 8, true
	}
	return 0, 0, false
}

type Trace struct {
	Name   string
	Color  string
	Dashed bool
	X      []float64
	Y      []float64
}

// Chart is a renderer independent line chart.
type Chart struct {
	Name     string
	Title    string
	XLabel   string
	YLabel   string
	Traces   []Trace
	ZeroLine bool
	YMin     float64
	YMax     float64
	FixedY   bool
}

func trace(series model.TelemetrySeries, c Channel, name, color string) Trace {
	t := Trace{
		Name:  name,
		Color: color,
		X:     series.Distances(),
		Y:     make([]float64, series.Len()),
	}
	for i, s := range series.Samples {
		t.Y[i] = c.value(s)
	}
	return t
}

// PlotChannel overlays one channel of two laps against distance. An empty
// label uses the channel's default.
func PlotChannel(seriesA, seriesB model.TelemetrySeries, c Channel, label, nameA, nameB, colorA, colorB string) (Chart, error) {
	if seriesA.Len() < 2 || seriesB.Len() < 2 {
		return Chart{}, errors.Wrapf(ErrEmptySeries, "%s chart", c)
	}
	if label == "" {
		label = c.Label()
	}

	a := trace(seriesA, c, nameA, colorA)
	b := trace(seriesB, c, nameB, colorB)
	// team mates share a colour
	b.Dashed = strings.EqualFold(colorA, colorB)

	chart := Chart{
		Name:   string(c),
		Title:  fmt.Sprintf("%s: %s vs %s", label, nameA, nameB),
		XLabel: "Distance (m)",
		YLabel: label,
		Traces: []Trace{a, b},
	}
	chart.YMin, chart.YMax, chart.FixedY = c.bounds()
	return chart, nil
}

// PlotDeltaTime draws the gap of lap B to lap A against A's distance.
func PlotDeltaTime(seriesA, seriesB model.TelemetrySeries, nameA, nameB string) (Chart, error) {
	if seriesA.Len() < 2 || seriesB.Len() < 2 {
		return Chart{}, errors.Wrap(ErrEmptySeries, "delta chart")
	}
	curve, err := telemetry.DeltaTime(seriesA, seriesB)
	if err != nil {
		return Chart{}, err
	}

	return Chart{
		Name:   DeltaName,
		Title:  fmt.Sprintf("Delta time: %s to %s", nameB, nameA),
		XLabel: "Distance (m)",
		YLabel: fmt.Sprintf("Gap to %s (s)", nameA),
		Traces: []Trace{{
			Name:  fmt.Sprintf("%s - %s", nameB, nameA),
			Color: deltaColor,
			X:     curve.Distance,
			Y:     curve.Delta,
		}},
		ZeroLine: true,
	}, nil
}

// Driver is one side of a comparison as shown on the charts.
type Driver struct {
	Name   string
	Color  string
	Series model.TelemetrySeries
}

// Compose builds the four channel charts followed by the delta chart.
func Compose(a, b Driver) ([]Chart, error) {
	out := make([]Chart, 0, len(Channels)+1)
	for _, c := range Channels {
		chart, err := PlotChannel(a.Series, b.Series, c, c.Label(), a.Name, b.Name, a.Color, b.Color)
		if err != nil {
			return nil, err
		}
		out = append(out, chart)
	}
	delta, err := PlotDeltaTime(a.Series, b.Series, a.Name, b.Name)
	if err != nil {
		return nil, err
	}
	return append(out, delta), nil
}

// Find returns the chart called name.
func Find(charts []Chart, name string) (Chart, bool) {
	for _, c := range charts {
		if c.Name == name {
			return c, true
		}
	}
	return Chart{}, false
}
