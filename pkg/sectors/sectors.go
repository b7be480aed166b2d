package sectors

import (
	"fmt"

	"github.com/pkg/errors"

	"f1telemetryhub/pkg/helper"
	"f1telemetryhub/pkg/model"
)

const Count = 3

// LapNotFoundError is returned when a driver has no lap with the requested number.
type LapNotFoundError struct {
	Driver    string
	LapNumber int
}

func (e *LapNotFoundError) Error() string {
	return fmt.Sprintf("driver %s has no lap %d", e.Driver, e.LapNumber)
}

// Row is one sector of a comparison. Delta is B - A and is invalid when either
// time is missing.
type Row struct {
	Sector int
	A      model.Timing
	B      model.Timing
	Delta  model.Timing
}

type Comparison struct {
	DriverA string
	DriverB string
	LapA    int
	LapB    int
	Rows    [Count]Row
	LapTime Row
}

// Compute compares the sectors of driverA's lap lapA with driverB's lap lapB.
// Both laps come from session.
func Compute(session *model.Session, driverA, driverB string, lapA, lapB int) (Comparison, error) {
	if session == nil {
		return Comparison{}, errors.New("no session loaded")
	}
	a, ok := session.Lap(driverA, lapA)
	if !ok {
		return Comparison{}, &LapNotFoundError{Driver: driverA, LapNumber: lapA}
	}
	b, ok := session.Lap(driverB, lapB)
	if !ok {
		return Comparison{}, &LapNotFoundError{Driver: driverB, LapNumber: lapB}
	}

	c := Comparison{
		DriverA: driverA,
		DriverB: driverB,
		LapA:    lapA,
		LapB:    lapB,
		LapTime: row(0, a.LapTime, b.LapTime),
	}
	for i := 0; i < Count; i++ {
		c.Rows[i] = row(i+1, a.Sectors[i], b.Sectors[i])
	}
	return c, nil
}

func row(sector int, a, b model.Timing) Row {
	return Row{Sector: sector, A: a, B: b, Delta: b.Sub(a)}
}

type Faster string

const (
	FasterA       Faster = "A"
	FasterB       Faster = "B"
	FasterEven    Faster = "Even"
	FasterUnknown Faster = "Unknown"
)

func (f Faster) Class() string {
	switch f {
	case FasterA:
		return "faster-a"
	case FasterB:
		return "faster-b"
	case FasterEven:
		return "even"
	}
	return "unknown"
}

func (r Row) Faster() Faster {
	switch {
	case !r.Delta.Valid:
		return FasterUnknown
	case r.Delta.Value < 0:
		return FasterB
	case r.Delta.Value > 0:
		return FasterA
	}
	return FasterEven
}

// DisplayRow is the human readable variant of a Row.
type DisplayRow struct {
	Label  string
	A      string
	B      string
	Delta  string
	Faster Faster
	Driver string
	Class  string
}

func (c Comparison) display(r Row, label string, format func(model.Timing) string) DisplayRow {
	f := r.Faster()
	d := DisplayRow{
		Label:  label,
		A:      format(r.A),
		B:      format(r.B),
		Delta:  helper.Delta(r.Delta),
		Faster: f,
		Class:  f.Class(),
	}
	switch f {
	case FasterA:
		d.Driver = c.DriverA
	case FasterB:
		d.Driver = c.DriverB
	}
	return d
}

func (c Comparison) Display() []DisplayRow {
	rows := make([]DisplayRow, 0, Count)
	for _, r := range c.Rows {
		rows = append(rows, c.display(r, fmt.Sprintf("Sector %d", r.Sector), helper.SectorTime))
	}
	return rows
}

// LapTimes is the display row comparing the full lap times.
func (c Comparison) LapTimes() DisplayRow {
	return c.display(c.LapTime, "Lap", helper.LapTime)
}

func (c Comparison) HeaderA() string {
	return fmt.Sprintf("%s L%d", c.DriverA, c.LapA)
}

func (c Comparison) HeaderB() string {
	return fmt.Sprintf("%s L%d", c.DriverB, c.LapB)
}
