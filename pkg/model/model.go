package model

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
)

type SessionType string

const (
	FP1 SessionType = "FP1"
	FP2 SessionType = "FP2"
	FP3 SessionType = "FP3"
	Q   SessionType = "Q"
	R   SessionType = "R"
)

// SessionTypes lists the selectable session types in display order.
var SessionTypes = []SessionType{FP1, FP2, FP3, Q, R}

func ParseSessionType(s string) (SessionType, error) {
	st := SessionType(strings.ToUpper(strings.TrimSpace(s)))
	for _, t := range SessionTypes {
		if t == st {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown session type %q", s)
}

// ProviderName is the session name used by the telemetry provider.
func (st SessionType) ProviderName() string {
	switch st {
	case FP1:
		return "Practice 1"
	case FP2:
		return "Practice 2"
	case FP3:
		return "Practice 3"
	case Q:
		return "Qualifying"
	case R:
		return "Race"
	}
	return ""
}

// Timing is a lap or sector duration reported by the provider. Valid is false
// when the provider did not record it.
type Timing struct {
	Value time.Duration
	Valid bool
}

func NewTiming(seconds float64) Timing {
	return Timing{Value: time.Duration(math.Round(seconds*1000)) * time.Millisecond, Valid: true}
}

func (t Timing) Seconds() float64 {
	return t.Value.Seconds()
}

// Sub returns t - o. The result is invalid when either side is.
func (t Timing) Sub(o Timing) Timing {
	if !t.Valid || !o.Valid {
		return Timing{}
	}
	return Timing{Value: t.Value - o.Value, Valid: true}
}

func (t *Timing) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*t = Timing{}
		return nil
	}
	var seconds float64
	if err := json.Unmarshal(b, &seconds); err != nil {
		return err
	}
	*t = NewTiming(seconds)
	return nil
}

func (t Timing) MarshalJSON() ([]byte, error) {
	if !t.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(t.Seconds())
}

// Event is one entry of a season schedule.
type Event struct {
	Key          int       `json:"meeting_key"`
	Name         string    `json:"meeting_name"`
	OfficialName string    `json:"meeting_official_name"`
	Country      string    `json:"country_name"`
	Location     string    `json:"location"`
	Circuit      string    `json:"circuit_short_name"`
	Year         int       `json:"year"`
	DateStart    time.Time `json:"date_start"`
}

type Driver struct {
	Number     int    `json:"driver_number"`
	Code       string `json:"name_acronym"`
	FullName   string `json:"full_name"`
	TeamName   string `json:"team_name"`
	TeamColour string `json:"team_colour"`
}

// Label is the driver selector text, e.g. "Max VERSTAPPEN (VER)".
func (d Driver) Label() string {
	if d.FullName == "" {
		return d.Code
	}
	return fmt.Sprintf("%s (%s)", d.FullName, d.Code)
}

type Lap struct {
	Driver       string    `json:"driver"`
	DriverNumber int       `json:"driver_number"`
	Number       int       `json:"lap_number"`
	DateStart    time.Time `json:"date_start"`
	LapTime      Timing    `json:"lap_duration"`
	Sectors      [3]Timing `json:"sectors"`
	PitOut       bool      `json:"is_pit_out_lap"`
}

// SectorSum adds the three sector times. It is informational only and is
// invalid unless all three sectors are present.
func (l Lap) SectorSum() Timing {
	sum := Timing{Valid: true}
	for _, s := range l.Sectors {
		if !s.Valid {
			return Timing{}
		}
		sum.Value += s.Value
	}
	return sum
}

// Session is a loaded event session. It owns its laps and drivers.
type Session struct {
	Year       int         `json:"year"`
	EventIndex int         `json:"eventIndex"`
	Type       SessionType `json:"type"`
	Key        int         `json:"sessionKey"`
	EventName  string      `json:"eventName"`
	Drivers    []Driver    `json:"drivers"`
	Laps       []Lap       `json:"laps"`
}

func (s *Session) String() string {
	return fmt.Sprintf("%d %s %s", s.Year, s.EventName, s.Type)
}

// DriverCodes returns the codes of the drivers with at least one lap, sorted.
func (s *Session) DriverCodes() []string {
	seen := map[string]bool{}
	codes := []string{}
	for _, l := range s.Laps {
		if !seen[l.Driver] {
			seen[l.Driver] = true
			codes = append(codes, l.Driver)
		}
	}
	sort.Strings(codes)
	return codes
}

func (s *Session) Driver(code string) (Driver, bool) {
	for _, d := range s.Drivers {
		if d.Code == code {
			return d, true
		}
	}
	return Driver{}, false
}

func (s *Session) LapsFor(code string) []Lap {
	laps := []Lap{}
	for _, l := range s.Laps {
		if l.Driver == code {
			laps = append(laps, l)
		}
	}
	sort.Slice(laps, func(i, j int) bool {
		return laps[i].Number < laps[j].Number
	})
	return laps
}

func (s *Session) LapNumbers(code string) []int {
	laps := s.LapsFor(code)
	numbers := make([]int, len(laps))
	for i, l := range laps {
		numbers[i] = l.Number
	}
	return numbers
}

func (s *Session) Lap(code string, number int) (Lap, bool) {
	for _, l := range s.Laps {
		if l.Driver == code && l.Number == number {
			return l, true
		}
	}
	return Lap{}, false
}

// NextLap returns the lap the driver started after l, if any.
func (s *Session) NextLap(l Lap) (Lap, bool) {
	return s.Lap(l.Driver, l.Number+1)
}

// Sample is one car telemetry reading.
type Sample struct {
	Date     time.Time     `json:"date"`
	Elapsed  time.Duration `json:"elapsed"`
	Distance float64       `json:"distance"`
	Speed    float64       `json:"speed"`
	Throttle float64       `json:"throttle"`
	Brake    float64       `json:"brake"`
	Gear     int           `json:"n_gear"`
	RPM      float64       `json:"rpm"`
	DRS      int           `json:"drs"`
}

// TelemetrySeries holds the samples of one lap ordered by increasing distance.
type TelemetrySeries struct {
	Driver  string   `json:"driver"`
	Lap     int      `json:"lap"`
	Samples []Sample `json:"samples"`
}

func (ts TelemetrySeries) Len() int {
	return len(ts.Samples)
}

func (ts TelemetrySeries) Distances() []float64 {
	d := make([]float64, len(ts.Samples))
	for i, s := range ts.Samples {
		d[i] = s.Distance
	}
	return d
}

type Position struct {
	Date time.Time `json:"date"`
	X    float64   `json:"x"`
	Y    float64   `json:"y"`
	Z    float64   `json:"z"`
}
