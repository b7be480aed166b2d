package telemetry

import (
	"sort"
	"time"

	"github.com/pkg/errors"

	"f1telemetryhub/pkg/model"
)

// DeltaCurve is the gap of a comparison lap to a reference lap, in seconds,
// indexed by the reference lap's distance. Positive means the comparison lap
// is behind.
type DeltaCurve struct {
	Distance []float64
	Delta    []float64
}

func (dc DeltaCurve) Len() int {
	return len(dc.Distance)
}

// Final is the gap at the end of the curve.
func (dc DeltaCurve) Final() float64 {
	if len(dc.Delta) == 0 {
		return 0
	}
	return dc.Delta[len(dc.Delta)-1]
}

func DeltaTime(ref, cmp model.TelemetrySeries) (DeltaCurve, error) {
	if ref.Len() < 2 || cmp.Len() < 2 {
		return DeltaCurve{}, errors.Wrap(ErrNoTelemetry, "delta time needs two samples per lap")
	}

	cmpDist := cmp.Distances()
	cmpTime := elapsedSeconds(cmp)

	dc := DeltaCurve{
		Distance: make([]float64, ref.Len()),
		Delta:    make([]float64, ref.Len()),
	}
	for i, s := range ref.Samples {
		dc.Distance[i] = s.Distance
		dc.Delta[i] = interpolate(cmpDist, cmpTime, s.Distance) - s.Elapsed.Seconds()
	}
	return dc, nil
}

func elapsedSeconds(ts model.TelemetrySeries) []float64 {
	out := make([]float64, ts.Len())
	for i, s := range ts.Samples {
		out[i] = s.Elapsed.Seconds()
	}
	return out
}

// interpolate evaluates the piecewise linear function through (xs, ys) at x.
// xs must be non-decreasing; x outside the range is clamped to the ends.
func interpolate(xs, ys []float64, x float64) float64 {
	n := len(xs)
	if x <= xs[0] {
		return ys[0]
	}
	if x >= xs[n-1] {
		return ys[n-1]
	}
	i := sort.SearchFloat64s(xs, x)
	if xs[i] == x {
		return ys[i]
	}
	x0, x1 := xs[i-1], xs[i]
	if x1 == x0 {
		return ys[i]
	}
	return ys[i-1] + (ys[i]-ys[i-1])*(x-x0)/(x1-x0)
}

// Minisector is one equal-length slice of a lap. Gain is the comparison
// lap's time in the slice minus the reference lap's.
type Minisector struct {
	Index int
	Start float64
	End   float64
	Gain  time.Duration
}

func (m Minisector) ComparisonFaster() bool {
	return m.Gain < 0
}

// Minisectors splits the common distance of both laps into n slices.
func Minisectors(ref, cmp model.TelemetrySeries, n int) ([]Minisector, error) {
	if n <= 0 {
		return nil, errors.Errorf("invalid minisector count %d", n)
	}
	if ref.Len() < 2 || cmp.Len() < 2 {
		return nil, errors.Wrap(ErrNoTelemetry, "minisectors need two samples per lap")
	}

	refDist, refTime := ref.Distances(), elapsedSeconds(ref)
	cmpDist, cmpTime := cmp.Distances(), elapsedSeconds(cmp)

	total := refDist[len(refDist)-1]
	if last := cmpDist[len(cmpDist)-1]; last < total {
		total = last
	}
	if total <= 0 {
		return nil, errors.Wrap(ErrNoTelemetry, "laps cover no distance")
	}

	step := total / float64(n)
	out := make([]Minisector, n)
	for i := range out {
		start, end := float64(i)*step, float64(i+1)*step
		refSpent := interpolate(refDist, refTime, end) - interpolate(refDist, refTime, start)
		cmpSpent := interpolate(cmpDist, cmpTime, end) - interpolate(cmpDist, cmpTime, start)
		out[i] = Minisector{
			Index: i,
			Start: start,
			End:   end,
			Gain:  time.Duration((cmpSpent - refSpent) * float64(time.Second)),
		}
	}
	return out, nil
}
