package loader

import (
	"fmt"

	"github.com/pkg/errors"

	"f1telemetryhub/pkg/model"
)

var (
	ErrInvalidYear        = errors.New("year outside the supported range")
	ErrInvalidEvent       = errors.New("no such event in the schedule")
	ErrInvalidSessionType = errors.New("unknown session type")
	ErrNoSession          = errors.New("event has no session of that type")
	ErrNoLaps             = errors.New("no laps recorded for the session")
)

// LoadFailure reports that a session could not be loaded. Reason is one of the
// sentinel errors above or a wrapped provider error.
type LoadFailure struct {
	Year        int
	EventIndex  int
	SessionType model.SessionType
	Reason      error
}

func (f *LoadFailure) Error() string {
	return fmt.Sprintf("loading %d event %d %s: %v", f.Year, f.EventIndex, f.SessionType, f.Reason)
}

func (f *LoadFailure) Cause() error {
	return f.Reason
}

func (f *LoadFailure) Unwrap() error {
	return f.Reason
}
