package dashboard

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"f1telemetryhub/pkg/charts"
	"f1telemetryhub/pkg/helper"
	"f1telemetryhub/pkg/model"
	"f1telemetryhub/pkg/sectors"
	"f1telemetryhub/pkg/telemetry"
)

var errNoSession = errors.New("no session loaded")

// TelemetrySource is what the dashboard needs from the provider besides the
// session itself.
type TelemetrySource interface {
	telemetry.CarDataSource
	telemetry.PositionSource
}

// Analysis is everything derived from one selection of one session.
type Analysis struct {
	Session    *model.Session
	Selection  Selection
	DriverA    model.Driver
	DriverB    model.Driver
	Comparison sectors.Comparison
	SeriesA    model.TelemetrySeries
	SeriesB    model.TelemetrySeries
	Charts     []charts.Chart
	// TelemetryErr is set when the charts could not be built; the sector
	// comparison is still valid.
	TelemetryErr error
}

func (a *Analysis) ReportName() string {
	return a.DriverA.Code + " vs " + a.DriverB.Code
}

func driverOf(s *model.Session, code string) model.Driver {
	if d, ok := s.Driver(code); ok {
		return d
	}
	return model.Driver{Code: code, FullName: code, TeamColour: helper.TeamColour("")}
}

// Analyse builds the analysis of the view's current selection. Charts are
// recomputed only when the selection changed since the last call.
func Analyse(ctx context.Context, src TelemetrySource, v *View) (*Analysis, error) {
	snap := v.Snapshot()
	if snap.Session == nil {
		return nil, errNoSession
	}
	if a := v.cachedAnalysis(snap.Selection, snap.Session); a != nil {
		return a, nil
	}

	a, err := AnalyseSelection(ctx, src, snap.Session, snap.Selection)
	if err != nil {
		return nil, err
	}
	v.storeAnalysis(snap.Selection, snap.Session, a)
	return a, nil
}

// AnalyseSelection compares two laps of s. A telemetry failure does not fail
// the analysis; it is kept in TelemetryErr.
func AnalyseSelection(ctx context.Context, src TelemetrySource, s *model.Session, sel Selection) (*Analysis, error) {
	comparison, err := sectors.Compute(s, sel.DriverA, sel.DriverB, sel.LapA, sel.LapB)
	if err != nil {
		return nil, err
	}

	a := &Analysis{
		Session:    s,
		Selection:  sel,
		DriverA:    driverOf(s, sel.DriverA),
		DriverB:    driverOf(s, sel.DriverB),
		Comparison: comparison,
	}

	lapA, _ := s.Lap(sel.DriverA, sel.LapA)
	lapB, _ := s.Lap(sel.DriverB, sel.LapB)

	a.SeriesA, err = telemetry.Extract(ctx, src, s, lapA)
	if err == nil {
		a.SeriesB, err = telemetry.Extract(ctx, src, s, lapB)
	}
	if err == nil {
		a.Charts, err = charts.Compose(
			charts.Driver{Name: a.DriverA.Code, Color: a.DriverA.TeamColour, Series: a.SeriesA},
			charts.Driver{Name: a.DriverB.Code, Color: a.DriverB.TeamColour, Series: a.SeriesB},
		)
	}
	if err != nil {
		logrus.WithError(err).WithField("selection", fmt.Sprintf("%+v", sel)).Warn("telemetry unavailable")
		a.TelemetryErr = err
	}
	return a, nil
}
