package telemetry

import (
	"context"
	"math"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pkg/errors"

	"f1telemetryhub/pkg/fixtures"
	"f1telemetryhub/pkg/loader"
	"f1telemetryhub/pkg/model"
	"f1telemetryhub/pkg/provider"
)

func loadFixtureSession(t *testing.T) (*provider.Client, *model.Session) {
	t.Helper()
	server := httptest.NewServer(provider.MockHandler(fixtures.FS()))
	t.Cleanup(server.Close)
	client := provider.NewClient(server.URL, 5*time.Second, nil)

	session, err := loader.New(client, 2023, 2025, nil).Load(context.Background(), fixtures.Year, fixtures.EventBahrain, model.Q)
	if err != nil {
		t.Fatal(err)
	}
	return client, session
}

func mustLap(t *testing.T, s *model.Session, code string, n int) model.Lap {
	t.Helper()
	l, ok := s.Lap(code, n)
	if !ok {
		t.Fatalf("missing %s lap %d", code, n)
	}
	return l
}

func TestExtract(t *testing.T) {
	client, session := loadFixtureSession(t)
	lap := mustLap(t, session, "VER", 5)

	series, err := Extract(context.Background(), client, session, lap)
	if err != nil {
		t.Fatal(err)
	}
	if series.Driver != "VER" || series.Lap != 5 {
		t.Errorf("unexpected series identity %s %d", series.Driver, series.Lap)
	}
	if series.Samples[0].Distance != 0 || series.Samples[0].Elapsed != 0 {
		t.Errorf("first sample should be at the lap start, got %+v", series.Samples[0])
	}
	end := lap.DateStart.Add(lap.LapTime.Value)
	for i, s := range series.Samples {
		if !s.Date.Before(end) {
			t.Fatalf("sample %d at %v is past the lap end %v", i, s.Date, end)
		}
		if i > 0 && s.Distance <= series.Samples[i-1].Distance {
			t.Fatalf("distance not increasing at %d", i)
		}
	}
	// roughly 260 km/h for 105 s
	if d := series.Samples[series.Len()-1].Distance; d < 6000 || d > 9000 {
		t.Errorf("unexpected lap distance %.0f m", d)
	}
}

func TestExtract_SameDriverLapsAreIndependent(t *testing.T) {
	client, session := loadFixtureSession(t)

	five, err := Extract(context.Background(), client, session, mustLap(t, session, "VER", 5))
	if err != nil {
		t.Fatal(err)
	}
	sixLap := mustLap(t, session, "VER", 6)
	six, err := Extract(context.Background(), client, session, sixLap)
	if err != nil {
		t.Fatal(err)
	}

	dates := map[time.Time]bool{}
	for _, s := range five.Samples {
		dates[s.Date] = true
	}
	for _, s := range six.Samples {
		if dates[s.Date] {
			t.Fatalf("sample at %v appears in both laps", s.Date)
		}
		if s.Date.Before(sixLap.DateStart) {
			t.Fatalf("lap 6 contains a sample from before its start: %v", s.Date)
		}
	}

	before := six.Samples[0]
	five.Samples[0].Speed = -1
	if six.Samples[0] != before {
		t.Error("series share their samples")
	}

	// lap 6 has no lap time, so it ends where lap 7 starts
	next := mustLap(t, session, "VER", 7)
	if last := six.Samples[six.Len()-1]; !last.Date.Before(next.DateStart) {
		t.Errorf("lap 6 runs into lap 7: %v", last.Date)
	}
}

func TestWindow_NoEnd(t *testing.T) {
	session := &model.Session{Laps: []model.Lap{{Driver: "AAA", Number: 1, DateStart: time.Now()}}}
	if _, _, err := Window(session, session.Laps[0]); !errors.Is(err, ErrNoTelemetry) {
		t.Errorf("expected ErrNoTelemetry, got %v", err)
	}
	if _, _, err := Window(session, model.Lap{Driver: "AAA", Number: 2}); !errors.Is(err, ErrNoTelemetry) {
		t.Errorf("expected ErrNoTelemetry, got %v", err)
	}
}

type staticSource []model.Sample

func (s staticSource) CarData(ctx context.Context, sessionKey, driverNumber int, from, to time.Time) ([]model.Sample, error) {
	return s, nil
}

func TestExtract_TrimsWindow(t *testing.T) {
	start := time.Date(2024, 3, 1, 15, 0, 0, 0, time.UTC)
	lap := model.Lap{Driver: "AAA", Number: 1, DateStart: start, LapTime: model.NewTiming(2)}
	session := &model.Session{Laps: []model.Lap{lap}}

	src := staticSource{
		{Date: start.Add(-time.Second), Speed: 100},
		{Date: start, Speed: 100},
		{Date: start.Add(time.Second), Speed: 100},
		{Date: start.Add(2 * time.Second), Speed: 100},
	}
	series, err := Extract(context.Background(), src, session, lap)
	if err != nil {
		t.Fatal(err)
	}
	if series.Len() != 2 {
		t.Errorf("expected 2 samples inside the lap, got %d", series.Len())
	}

	if _, err := Extract(context.Background(), src[:1], session, lap); !errors.Is(err, ErrNoTelemetry) {
		t.Errorf("expected ErrNoTelemetry, got %v", err)
	}
}

func constantSeries(speed float64, n int) model.TelemetrySeries {
	start := time.Date(2024, 3, 1, 15, 0, 0, 0, time.UTC)
	samples := make([]model.Sample, n)
	for i := range samples {
		samples[i] = model.Sample{
			Date:    start.Add(time.Duration(i) * time.Second),
			Elapsed: time.Duration(i) * time.Second,
			Speed:   speed,
		}
	}
	AddDistance(samples)
	return model.TelemetrySeries{Samples: samples}
}

func TestAddDistance(t *testing.T) {
	series := constantSeries(36, 11)
	if got := series.Samples[10].Distance; math.Abs(got-100) > 1e-9 {
		t.Errorf("distance after 10 s at 36 km/h = %f, want 100", got)
	}
}

func TestDeltaTime(t *testing.T) {
	ref := constantSeries(36, 11)

	same, err := DeltaTime(ref, constantSeries(36, 11))
	if err != nil {
		t.Fatal(err)
	}
	for i, d := range same.Delta {
		if math.Abs(d) > 1e-9 {
			t.Fatalf("identical laps differ by %f at %d", d, i)
		}
	}

	slower, err := DeltaTime(ref, constantSeries(18, 11))
	if err != nil {
		t.Fatal(err)
	}
	if slower.Len() != ref.Len() {
		t.Fatalf("curve has %d points, want %d", slower.Len(), ref.Len())
	}
	// at 40 m the reference took 4 s and the comparison 8 s
	if d := slower.Delta[4]; math.Abs(d-4) > 1e-9 {
		t.Errorf("delta at 40 m = %f, want 4", d)
	}

	if _, err := DeltaTime(ref, model.TelemetrySeries{}); !errors.Is(err, ErrNoTelemetry) {
		t.Errorf("expected ErrNoTelemetry, got %v", err)
	}
}

func TestMinisectors(t *testing.T) {
	ref := constantSeries(36, 11)
	cmp := constantSeries(18, 11)

	ms, err := Minisectors(ref, cmp, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(ms) != 5 {
		t.Fatalf("expected 5 minisectors, got %d", len(ms))
	}
	for _, m := range ms {
		if m.ComparisonFaster() {
			t.Errorf("minisector %d: slower lap reported faster", m.Index)
		}
		if diff := m.Gain - time.Second; diff > time.Millisecond || diff < -time.Millisecond {
			t.Errorf("minisector %d gain = %v, want 1s", m.Index, m.Gain)
		}
	}

	if _, err := Minisectors(ref, cmp, 0); err == nil {
		t.Error("expected an error for zero minisectors")
	}
}

func TestInterpolate(t *testing.T) {
	xs := []float64{0, 10, 20}
	ys := []float64{0, 1, 3}
	tests := map[float64]float64{-5: 0, 0: 0, 5: 0.5, 10: 1, 15: 2, 25: 3}
	for x, want := range tests {
		if got := interpolate(xs, ys, x); math.Abs(got-want) > 1e-12 {
			t.Errorf("interpolate(%v) = %v, want %v", x, got, want)
		}
	}
}
