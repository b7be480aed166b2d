package provider

import (
	"context"
	"time"

	"f1telemetryhub/pkg/model"
)

const DefaultBaseURL = "https://api.openf1.org/v1"

// SessionProvider is the external telemetry provider capability: schedules,
// sessions, drivers, lap records and raw car samples.
type SessionProvider interface {
	Schedule(ctx context.Context, year int) ([]model.Event, error)
	Sessions(ctx context.Context, meetingKey int) ([]Session, error)
	Drivers(ctx context.Context, sessionKey int) ([]model.Driver, error)
	Laps(ctx context.Context, sessionKey int) ([]model.Lap, error)
	CarData(ctx context.Context, sessionKey, driverNumber int, from, to time.Time) ([]model.Sample, error)
	Location(ctx context.Context, sessionKey, driverNumber int, from, to time.Time) ([]model.Position, error)
}

// Session is a provider session entry of a meeting.
type Session struct {
	Key        int       `json:"session_key"`
	Name       string    `json:"session_name"`
	Type       string    `json:"session_type"`
	MeetingKey int       `json:"meeting_key"`
	DateStart  time.Time `json:"date_start"`
	DateEnd    time.Time `json:"date_end"`
}

type lapRecord struct {
	DriverNumber int          `json:"driver_number"`
	LapNumber    int          `json:"lap_number"`
	DateStart    time.Time    `json:"date_start"`
	LapDuration  model.Timing `json:"lap_duration"`
	Sector1      model.Timing `json:"duration_sector_1"`
	Sector2      model.Timing `json:"duration_sector_2"`
	Sector3      model.Timing `json:"duration_sector_3"`
	PitOut       bool         `json:"is_pit_out_lap"`
}

func (lr lapRecord) toLap() model.Lap {
	return model.Lap{
		DriverNumber: lr.DriverNumber,
		Number:       lr.LapNumber,
		DateStart:    lr.DateStart,
		LapTime:      lr.LapDuration,
		Sectors:      [3]model.Timing{lr.Sector1, lr.Sector2, lr.Sector3},
		PitOut:       lr.PitOut,
	}
}
