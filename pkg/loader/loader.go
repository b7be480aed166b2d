package loader

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"f1telemetryhub/pkg/model"
	"f1telemetryhub/pkg/provider"
	"f1telemetryhub/pkg/pubsub"
)

const loadSteps = 4

// Progress is one step of a session load, published on the topic carried by
// the load context.
type Progress struct {
	Step    int    `json:"step"`
	Total   int    `json:"total"`
	Message string `json:"message"`
	Done    bool   `json:"done"`
	Err     string `json:"error,omitempty"`
}

type topicKey struct{}

// WithTopic makes Load publish its progress on topic.
func WithTopic(ctx context.Context, topic string) context.Context {
	return context.WithValue(ctx, topicKey{}, topic)
}

type Loader struct {
	provider provider.SessionProvider
	minYear  int
	maxYear  int
	progress *pubsub.PubSub[Progress]
}

// New builds a loader for seasons minYear..maxYear. progress may be nil.
func New(p provider.SessionProvider, minYear, maxYear int, progress *pubsub.PubSub[Progress]) *Loader {
	return &Loader{
		provider: p,
		minYear:  minYear,
		maxYear:  maxYear,
		progress: progress,
	}
}

// Years lists the supported seasons, newest first.
func (l *Loader) Years() []int {
	years := make([]int, 0, l.maxYear-l.minYear+1)
	for y := l.maxYear; y >= l.minYear; y-- {
		years = append(years, y)
	}
	return years
}

func (l *Loader) Events(ctx context.Context, year int) ([]model.Event, error) {
	if year < l.minYear || year > l.maxYear {
		return nil, errors.Wrapf(ErrInvalidYear, "%d not in %d-%d", year, l.minYear, l.maxYear)
	}
	events, err := l.provider.Schedule(ctx, year)
	if err != nil {
		return nil, errors.Wrapf(err, "fetching %d schedule", year)
	}
	return events, nil
}

// LatestYear is the newest supported season with a published schedule. It
// falls back to the newest supported season when none is found or the
// provider cannot be reached.
func (l *Loader) LatestYear(ctx context.Context) int {
	years := l.Years()
	for _, y := range years {
		events, err := l.Events(ctx, y)
		if err != nil {
			logrus.WithError(err).WithField("year", y).Warn("could not fetch schedule")
			break
		}
		if len(events) > 0 {
			return y
		}
	}
	return years[0]
}

// Load fetches the session identified by year, schedule index and type. Every
// failure is a *LoadFailure.
func (l *Loader) Load(ctx context.Context, year, eventIndex int, st model.SessionType) (*model.Session, error) {
	log := logrus.WithFields(logrus.Fields{
		"year":        year,
		"eventIndex":  eventIndex,
		"sessionType": st,
	})

	session, err := l.load(ctx, year, eventIndex, st)
	if err != nil {
		failure := &LoadFailure{Year: year, EventIndex: eventIndex, SessionType: st, Reason: err}
		log.WithError(err).Warn("session load failed")
		l.publish(ctx, Progress{Step: loadSteps, Total: loadSteps, Message: "failed", Done: true, Err: failure.Error()})
		return nil, failure
	}

	log.WithField("laps", len(session.Laps)).Info("session loaded")
	l.publish(ctx, Progress{Step: loadSteps, Total: loadSteps, Message: fmt.Sprintf("loaded %s", session), Done: true})
	return session, nil
}

func (l *Loader) load(ctx context.Context, year, eventIndex int, requested model.SessionType) (*model.Session, error) {
	st, err := model.ParseSessionType(string(requested))
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidSessionType, "%q", requested)
	}

	l.publish(ctx, Progress{Step: 1, Total: loadSteps, Message: fmt.Sprintf("fetching %d schedule", year)})
	events, err := l.Events(ctx, year)
	if err != nil {
		return nil, err
	}
	if eventIndex < 0 || eventIndex >= len(events) {
		return nil, errors.Wrapf(ErrInvalidEvent, "index %d of %d events", eventIndex, len(events))
	}
	event := events[eventIndex]

	l.publish(ctx, Progress{Step: 2, Total: loadSteps, Message: fmt.Sprintf("resolving %s %s", event.Name, st)})
	ps, err := l.resolve(ctx, event, st)
	if err != nil {
		return nil, err
	}

	l.publish(ctx, Progress{Step: 3, Total: loadSteps, Message: "fetching drivers"})
	drivers, err := l.provider.Drivers(ctx, ps.Key)
	if err != nil && !errors.Is(err, provider.ErrNotFound) {
		return nil, errors.Wrap(err, "fetching drivers")
	}

	l.publish(ctx, Progress{Step: 4, Total: loadSteps, Message: "fetching laps"})
	laps, err := l.provider.Laps(ctx, ps.Key)
	if errors.Is(err, provider.ErrNotFound) || (err == nil && len(laps) == 0) {
		return nil, errors.Wrapf(ErrNoLaps, "session %d", ps.Key)
	}
	if err != nil {
		return nil, errors.Wrap(err, "fetching laps")
	}

	return &model.Session{
		Year:       year,
		EventIndex: eventIndex,
		Type:       st,
		Key:        ps.Key,
		EventName:  event.Name,
		Drivers:    drivers,
		Laps:       attachDrivers(laps, drivers),
	}, nil
}

func (l *Loader) resolve(ctx context.Context, event model.Event, st model.SessionType) (provider.Session, error) {
	sessions, err := l.provider.Sessions(ctx, event.Key)
	if err != nil && !errors.Is(err, provider.ErrNotFound) {
		return provider.Session{}, errors.Wrapf(err, "fetching sessions of %s", event.Name)
	}
	for _, s := range sessions {
		if s.Name == st.ProviderName() {
			return s, nil
		}
	}
	return provider.Session{}, errors.Wrapf(ErrNoSession, "%s %s", event.Name, st)
}

// attachDrivers fills in the driver code of each lap.
func attachDrivers(laps []model.Lap, drivers []model.Driver) []model.Lap {
	codes := make(map[int]string, len(drivers))
	for _, d := range drivers {
		codes[d.Number] = d.Code
	}
	for i := range laps {
		code, ok := codes[laps[i].DriverNumber]
		if !ok {
			code = fmt.Sprint(laps[i].DriverNumber)
		}
		laps[i].Driver = code
	}
	return laps
}

func (l *Loader) publish(ctx context.Context, p Progress) {
	if l.progress == nil {
		return
	}
	topic, ok := ctx.Value(topicKey{}).(string)
	if !ok || topic == "" {
		return
	}
	l.progress.Publish(topic, p)
}
