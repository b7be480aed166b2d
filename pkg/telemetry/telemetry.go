package telemetry

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"f1telemetryhub/pkg/model"
)

var ErrNoTelemetry = errors.New("no telemetry for lap")

type CarDataSource interface {
	CarData(ctx context.Context, sessionKey, driverNumber int, from, to time.Time) ([]model.Sample, error)
}

type PositionSource interface {
	Location(ctx context.Context, sessionKey, driverNumber int, from, to time.Time) ([]model.Position, error)
}

// Window returns the [from, to) span of a lap: its start plus its lap time, or
// the start of the driver's next lap when the lap time is missing.
func Window(session *model.Session, lap model.Lap) (time.Time, time.Time, error) {
	if lap.DateStart.IsZero() {
		return time.Time{}, time.Time{}, errors.Wrapf(ErrNoTelemetry, "%s lap %d has no start time", lap.Driver, lap.Number)
	}
	if lap.LapTime.Valid && lap.LapTime.Value > 0 {
		return lap.DateStart, lap.DateStart.Add(lap.LapTime.Value), nil
	}
	if next, ok := session.NextLap(lap); ok && next.DateStart.After(lap.DateStart) {
		return lap.DateStart, next.DateStart, nil
	}
	return time.Time{}, time.Time{}, errors.Wrapf(ErrNoTelemetry, "%s lap %d has no end", lap.Driver, lap.Number)
}

// Extract fetches the car samples of one lap and adds elapsed time and
// distance. The returned series owns its samples.
func Extract(ctx context.Context, src CarDataSource, session *model.Session, lap model.Lap) (model.TelemetrySeries, error) {
	from, to, err := Window(session, lap)
	if err != nil {
		return model.TelemetrySeries{}, err
	}

	raw, err := src.CarData(ctx, session.Key, lap.DriverNumber, from, to)
	if err != nil {
		return model.TelemetrySeries{}, errors.Wrapf(err, "fetching car data of %s lap %d", lap.Driver, lap.Number)
	}

	samples := make([]model.Sample, 0, len(raw))
	for _, s := range raw {
		// the next lap starts at to
		if s.Date.Before(from) || !s.Date.Before(to) {
			continue
		}
		s.Elapsed = s.Date.Sub(from)
		samples = append(samples, s)
	}
	if len(samples) < 2 {
		return model.TelemetrySeries{}, errors.Wrapf(ErrNoTelemetry, "%s lap %d has %d samples", lap.Driver, lap.Number, len(samples))
	}
	AddDistance(samples)

	logrus.WithFields(logrus.Fields{
		"driver":  lap.Driver,
		"lap":     lap.Number,
		"samples": len(samples),
	}).Debug("telemetry extracted")

	return model.TelemetrySeries{Driver: lap.Driver, Lap: lap.Number, Samples: samples}, nil
}

// AddDistance integrates speed over time: the first sample is at 0 m and each
// following one adds speed/3.6 * dt.
func AddDistance(samples []model.Sample) {
	for i := range samples {
		if i == 0 {
			samples[i].Distance = 0
			continue
		}
		dt := samples[i].Date.Sub(samples[i-1].Date).Seconds()
		samples[i].Distance = samples[i-1].Distance + samples[i].Speed/3.6*dt
	}
}

// Positions fetches the car positions of one lap, ordered by date.
func Positions(ctx context.Context, src PositionSource, session *model.Session, lap model.Lap) ([]model.Position, error) {
	from, to, err := Window(session, lap)
	if err != nil {
		return nil, err
	}
	raw, err := src.Location(ctx, session.Key, lap.DriverNumber, from, to)
	if err != nil {
		return nil, errors.Wrapf(err, "fetching positions of %s lap %d", lap.Driver, lap.Number)
	}
	positions := make([]model.Position, 0, len(raw))
	for _, p := range raw {
		if p.Date.Before(from) || !p.Date.Before(to) {
			continue
		}
		positions = append(positions, p)
	}
	if len(positions) < 2 {
		return nil, errors.Wrapf(ErrNoTelemetry, "%s lap %d has no positions", lap.Driver, lap.Number)
	}
	return positions, nil
}
