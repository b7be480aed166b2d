package layout

import (
	"encoding/xml"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/llgcode/draw2d"
	"github.com/llgcode/draw2d/draw2dimg"
	"github.com/llgcode/draw2d/draw2dkit"
	"github.com/llgcode/draw2d/draw2dsvg"
	"github.com/pkg/errors"

	"f1telemetryhub/pkg/charts"
	"f1telemetryhub/pkg/model"
	"f1telemetryhub/pkg/telemetry"
)

const (
	mapSize   = 800.0
	margin    = 40.0
	lineWidth = 10.0
)

var (
	background = color.RGBA{0x15, 0x15, 0x1e, 0xff}
	even       = color.RGBA{0x88, 0x88, 0x88, 0xff}
)

// trackSize maps provider coordinates onto a mapSize canvas, keeping the
// aspect ratio. The longer side of the track is laid out horizontally.
type trackSize struct {
	minX, minY float64
	scale      float64
	rotate     bool
	rect       image.Rectangle
}

func getTrackSize(positions []model.Position) trackSize {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range positions {
		minX = math.Min(minX, p.X)
		maxX = math.Max(maxX, p.X)
		minY = math.Min(minY, p.Y)
		maxY = math.Max(maxY, p.Y)
	}

	width, height := maxX-minX, maxY-minY
	rotate := false
	if width < height {
		rotate = true
		width, height = height, width
	}
	if width <= 0 {
		width = 1
	}
	scale := (mapSize - 2*margin) / width
	rect := image.Rect(0, 0, int(mapSize), int(height*scale+2*margin))
	return trackSize{minX: minX, minY: minY, scale: scale, rotate: rotate, rect: rect}
}

// point converts a position to canvas coordinates with the Y axis pointing up.
func (ts trackSize) point(p model.Position) (float64, float64) {
	x, y := (p.X-ts.minX)*ts.scale, (p.Y-ts.minY)*ts.scale
	if ts.rotate {
		x, y = y, x
	}
	return x + margin, float64(ts.rect.Max.Y) - (y + margin)
}

// BuildDominanceMap draws the reference lap's racing line, each minisector in
// the colour of the driver who was faster through it. ref gives the distance
// of every position, matched by date.
func BuildDominanceMap(w io.Writer, positions []model.Position, ref model.TelemetrySeries, minisectors []telemetry.Minisector, colorA, colorB string, f charts.Format) error {
	if len(positions) < 2 || ref.Len() < 2 || len(minisectors) == 0 {
		return errors.Wrap(telemetry.ErrNoTelemetry, "dominance map")
	}

	ts := getTrackSize(positions)
	colors := segmentColors(positions, ref, minisectors, parseHex(colorA), parseHex(colorB))

	switch f {
	case charts.SVG:
		dest := draw2dsvg.NewSvg()
		gc := draw2dsvg.NewGraphicContext(dest)
		drawImage(gc, ts, positions, colors)
		if _, err := io.WriteString(w, xml.Header); err != nil {
			return err
		}
		enc := xml.NewEncoder(w)
		enc.Indent("", "\t")
		return errors.Wrap(enc.Encode(dest), "encoding svg")
	default:
		dest := image.NewRGBA(ts.rect)
		gc := draw2dimg.NewGraphicContext(dest)
		drawImage(gc, ts, positions, colors)
		return errors.Wrap(png.Encode(w, dest), "encoding png")
	}
}

func drawImage(gc draw2d.GraphicContext, ts trackSize, positions []model.Position, colors []color.Color) {
	gc.SetFillColor(background)
	draw2dkit.Rectangle(gc, 0, 0, float64(ts.rect.Max.X), float64(ts.rect.Max.Y))
	gc.Fill()

	gc.SetLineWidth(lineWidth)
	gc.SetLineCap(draw2d.RoundCap)
	gc.SetLineJoin(draw2d.RoundJoin)

	// consecutive segments of the same colour share one path
	start := 1
	for i := 2; i <= len(positions); i++ {
		if i < len(positions) && colors[i] == colors[start] {
			continue
		}
		gc.Save()
		gc.SetStrokeColor(colors[start])
		gc.BeginPath()
		gc.MoveTo(ts.point(positions[start-1]))
		for j := start; j < i; j++ {
			gc.LineTo(ts.point(positions[j]))
		}
		gc.Stroke()
		gc.Restore()
		start = i
	}
}

// segmentColors returns, for each position, the colour of the segment that
// ends at it.
func segmentColors(positions []model.Position, ref model.TelemetrySeries, minisectors []telemetry.Minisector, colorA, colorB color.Color) []color.Color {
	colors := make([]color.Color, len(positions))
	for i, p := range positions {
		d := distanceAt(ref, p.Date)
		m := minisectors[len(minisectors)-1]
		k := sort.Search(len(minisectors), func(k int) bool { return minisectors[k].End >= d })
		if k < len(minisectors) {
			m = minisectors[k]
		}
		switch {
		case m.Gain < 0:
			colors[i] = colorB
		case m.Gain > 0:
			colors[i] = colorA
		default:
			colors[i] = even
		}
	}
	return colors
}

func distanceAt(ref model.TelemetrySeries, at time.Time) float64 {
	s := ref.Samples
	i := sort.Search(len(s), func(i int) bool { return !s[i].Date.Before(at) })
	switch {
	case i == 0:
		return s[0].Distance
	case i == len(s):
		return s[len(s)-1].Distance
	}
	prev, next := s[i-1], s[i]
	span := next.Date.Sub(prev.Date)
	if span <= 0 {
		return next.Distance
	}
	frac := float64(at.Sub(prev.Date)) / float64(span)
	return prev.Distance + (next.Distance-prev.Distance)*frac
}

func parseHex(hex string) color.Color {
	hex = strings.TrimPrefix(hex, "#")
	v, err := strconv.ParseUint(hex, 16, 32)
	if len(hex) != 6 || err != nil {
		return even
	}
	return color.RGBA{uint8(v >> 16), uint8(v >> 8), uint8(v), 0xff}
}
