// Package fixtures builds a small deterministic provider data set: one 2024
// season with a testing meeting and two grands prix, three drivers, a handful
// of laps and the car and location samples for each lap. It backs the
// mock-provider command and the tests.
package fixtures

import (
	"encoding/json"
	"math"
	"testing/fstest"
	"time"
)

const (
	Year = 2024

	MeetingTesting = 1228
	MeetingBahrain = 1229
	MeetingJeddah  = 1230

	SessionBahrainQ = 9466
	SessionBahrainR = 9472
	SessionJeddahQ  = 9475

	// EventBahrain and EventJeddah are schedule indices (testing is 0).
	EventBahrain = 1
	EventJeddah  = 2

	sampleStep   = 250 * time.Millisecond
	positionStep = 500 * time.Millisecond
	trackRadius  = 850.0
)

var sessionStart = time.Date(2024, 3, 1, 15, 0, 0, 0, time.UTC)

type driver struct {
	number   int
	code     string
	fullName string
	team     string
	colour   string
	pace     float64
}

var drivers = []driver{
	{1, "VER", "Max VERSTAPPEN", "Red Bull Racing", "3671C6", 0},
	{16, "LEC", "Charles LECLERC", "Ferrari", "E8002D", 1.5},
	{11, "PER", "Sergio PEREZ", "Red Bull Racing", "3671C6", -2},
}

type lap struct {
	driver  int
	number  int
	offset  time.Duration
	length  time.Duration
	timed   bool
	sectors [3]*float64
	pitOut  bool
}

func s(v float64) *float64 { return &v }

// Laps of the Bahrain qualifying session. VER 5 and LEC 7 are the reference
// comparison; VER 6 has no lap time and no third sector.
var laps = []lap{
	{driver: 1, number: 5, offset: 0, length: 105300 * time.Millisecond, timed: true, sectors: [3]*float64{s(30.1), s(40.2), s(35.0)}},
	{driver: 1, number: 6, offset: 105300 * time.Millisecond, length: 106 * time.Second, sectors: [3]*float64{s(29.95), s(40.1), nil}},
	{driver: 1, number: 7, offset: 211300 * time.Millisecond, length: 120 * time.Second, timed: true, sectors: [3]*float64{s(40.0), s(45.0), s(35.0)}, pitOut: true},
	{driver: 16, number: 7, offset: 30 * time.Second, length: 105200 * time.Millisecond, timed: true, sectors: [3]*float64{s(29.9), s(40.5), s(34.8)}},
	{driver: 16, number: 8, offset: 135200 * time.Millisecond, length: 105100 * time.Millisecond, timed: true, sectors: [3]*float64{s(29.9), s(40.2), s(35.0)}},
	{driver: 11, number: 3, offset: 60 * time.Second, length: 106500 * time.Millisecond, timed: true, sectors: [3]*float64{s(30.5), s(40.7), s(35.3)}},
}

// FS returns the provider fixtures keyed by resource file name.
func FS() fstest.MapFS {
	return fstest.MapFS{
		"meetings.json": file(meetings()),
		"sessions.json": file(sessions()),
		"drivers.json":  file(driverEntries()),
		"laps.json":     file(lapEntries()),
		"car_data.json": file(carData()),
		"location.json": file(locations()),
	}
}

func file(v any) *fstest.MapFile {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return &fstest.MapFile{Data: b}
}

func ts(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func meetings() []map[string]any {
	return []map[string]any{
		{"meeting_key": MeetingBahrain, "meeting_name": "Bahrain Grand Prix", "meeting_official_name": "FORMULA 1 GULF AIR BAHRAIN GRAND PRIX 2024", "country_name": "Bahrain", "location": "Sakhir", "circuit_short_name": "Sakhir", "year": Year, "date_start": "2024-02-29T11:30:00+00:00"},
		{"meeting_key": MeetingTesting, "meeting_name": "Pre-Season Testing", "meeting_official_name": "FORMULA 1 ARAMCO PRE-SEASON TESTING 2024", "country_name": "Bahrain", "location": "Sakhir", "circuit_short_name": "Sakhir", "year": Year, "date_start": "2024-02-21T07:00:00+00:00"},
		{"meeting_key": MeetingJeddah, "meeting_name": "Saudi Arabian Grand Prix", "meeting_official_name": "FORMULA 1 STC SAUDI ARABIAN GRAND PRIX 2024", "country_name": "Saudi Arabia", "location": "Jeddah", "circuit_short_name": "Jeddah", "year": Year, "date_start": "2024-03-07T13:30:00+00:00"},
	}
}

func sessions() []map[string]any {
	entry := func(key, meeting int, name, typ string) map[string]any {
		return map[string]any{"session_key": key, "meeting_key": meeting, "session_name": name, "session_type": typ, "year": Year, "date_start": ts(sessionStart), "date_end": ts(sessionStart.Add(time.Hour))}
	}
	return []map[string]any{
		entry(9460, MeetingTesting, "Day 1", "Practice"),
		entry(9463, MeetingBahrain, "Practice 1", "Practice"),
		entry(9464, MeetingBahrain, "Practice 2", "Practice"),
		entry(9465, MeetingBahrain, "Practice 3", "Practice"),
		entry(SessionBahrainQ, MeetingBahrain, "Qualifying", "Qualifying"),
		entry(SessionBahrainR, MeetingBahrain, "Race", "Race"),
		entry(SessionJeddahQ, MeetingJeddah, "Qualifying", "Qualifying"),
	}
}

func driverEntries() []map[string]any {
	entries := []map[string]any{}
	for _, key := range []int{SessionBahrainQ, SessionJeddahQ} {
		for _, d := range drivers {
			entries = append(entries, map[string]any{
				"session_key":   key,
				"driver_number": d.number,
				"name_acronym":  d.code,
				"full_name":     d.fullName,
				"team_name":     d.team,
				"team_colour":   d.colour,
			})
		}
	}
	return entries
}

func lapEntries() []map[string]any {
	entries := []map[string]any{}
	for _, l := range laps {
		e := map[string]any{
			"session_key":    SessionBahrainQ,
			"driver_number":  l.driver,
			"lap_number":     l.number,
			"date_start":     ts(sessionStart.Add(l.offset)),
			"is_pit_out_lap": l.pitOut,
		}
		if l.timed {
			e["lap_duration"] = l.length.Seconds()
		} else {
			e["lap_duration"] = nil
		}
		for i, v := range l.sectors {
			key := []string{"duration_sector_1", "duration_sector_2", "duration_sector_3"}[i]
			if v == nil {
				e[key] = nil
			} else {
				e[key] = *v
			}
		}
		entries = append(entries, e)
	}
	return entries
}

func paceOf(number int) float64 {
	for _, d := range drivers {
		if d.number == number {
			return d.pace
		}
	}
	return 0
}

// Speed returns the synthetic speed in km/h of a car t into its lap.
func Speed(t time.Duration, pace float64) float64 {
	x := t.Seconds()
	return 190 + pace + 110*math.Abs(math.Sin(2*math.Pi*x/35))
}

func carData() []map[string]any {
	entries := []map[string]any{}
	for _, l := range laps {
		pace := paceOf(l.driver)
		start := sessionStart.Add(l.offset)
		prev := Speed(0, pace)
		for t := time.Duration(0); t < l.length; t += sampleStep {
			speed := Speed(t, pace)
			throttle, brake := 100.0, 0.0
			if speed < prev {
				throttle, brake = 20, 100
			}
			gear := 1 + int(speed/45)
			if gear > 8 {
				gear = 8
			}
			entries = append(entries, map[string]any{
				"session_key":   SessionBahrainQ,
				"driver_number": l.driver,
				"date":          ts(start.Add(t)),
				"speed":         math.Round(speed),
				"throttle":      throttle,
				"brake":         brake,
				"n_gear":        gear,
				"rpm":           math.Round(8000 + speed*20),
				"drs":           0,
			})
			prev = speed
		}
	}
	return entries
}

func locations() []map[string]any {
	entries := []map[string]any{}
	for _, l := range laps {
		start := sessionStart.Add(l.offset)
		for t := time.Duration(0); t < l.length; t += positionStep {
			theta := 2 * math.Pi * float64(t) / float64(l.length)
			entries = append(entries, map[string]any{
				"session_key":   SessionBahrainQ,
				"driver_number": l.driver,
				"date":          ts(start.Add(t)),
				"x":             math.Round(trackRadius * math.Cos(theta)),
				"y":             math.Round(trackRadius * 0.6 * math.Sin(theta)),
				"z":             0,
			})
		}
	}
	return entries
}
