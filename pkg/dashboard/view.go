package dashboard

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"f1telemetryhub/pkg/model"
	"f1telemetryhub/pkg/sectors"
)

const cookieName = "f1telemetryhub_view"

type Selection struct {
	DriverA string
	LapA    int
	DriverB string
	LapB    int
}

// View is the state of one browser page: the form choices, the loaded session
// and the driver/lap selection. A failed load leaves Session untouched.
type View struct {
	ID string

	mu          sync.Mutex
	year        int
	eventIndex  int
	sessionType model.SessionType
	session     *model.Session
	selection   Selection
	warning     string
	analysis    *Analysis
	lastSeen    time.Time
}

func newView(id string, year int) *View {
	return &View{ID: id, year: year, sessionType: model.Q, lastSeen: time.Now()}
}

// Snapshot is a consistent copy of a view's state.
type Snapshot struct {
	Year        int
	EventIndex  int
	SessionType model.SessionType
	Session     *model.Session
	Selection   Selection
	Warning     string
}

func (v *View) Snapshot() Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()
	return Snapshot{
		Year:        v.year,
		EventIndex:  v.eventIndex,
		SessionType: v.sessionType,
		Session:     v.session,
		Selection:   v.selection,
		Warning:     v.warning,
	}
}

func (v *View) SetForm(year, eventIndex int, st model.SessionType) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.year, v.eventIndex, v.sessionType = year, eventIndex, st
}

func (v *View) SetWarning(msg string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.warning = msg
}

// TakeWarning returns the pending warning and clears it.
func (v *View) TakeWarning() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	msg := v.warning
	v.warning = ""
	return msg
}

// SetSession replaces the loaded session and resets the selection to the
// first two drivers and their first laps.
func (v *View) SetSession(s *model.Session) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.session = s
	v.analysis = nil
	v.selection = defaultSelection(s)
}

func defaultSelection(s *model.Session) Selection {
	codes := s.DriverCodes()
	if len(codes) == 0 {
		return Selection{}
	}
	sel := Selection{DriverA: codes[0], DriverB: codes[0]}
	if len(codes) > 1 {
		sel.DriverB = codes[1]
	}
	sel.LapA = firstLap(s, sel.DriverA)
	sel.LapB = firstLap(s, sel.DriverB)
	return sel
}

func firstLap(s *model.Session, code string) int {
	if laps := s.LapNumbers(code); len(laps) > 0 {
		return laps[0]
	}
	return 0
}

// Select applies a new driver/lap selection. A lap that does not belong to a
// newly picked driver falls back to that driver's first lap; an unknown lap
// for an unchanged driver is a *sectors.LapNotFoundError and the previous
// selection is kept.
func (v *View) Select(sel Selection) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.session == nil {
		return errNoSession
	}

	next := sel
	var err error
	next.LapA, err = v.constrain(sel.DriverA, sel.LapA, v.selection.DriverA)
	if err != nil {
		return err
	}
	next.LapB, err = v.constrain(sel.DriverB, sel.LapB, v.selection.DriverB)
	if err != nil {
		return err
	}

	if next != v.selection {
		v.selection = next
		v.analysis = nil
	}
	return nil
}

func (v *View) constrain(driver string, lap int, previous string) (int, error) {
	if _, ok := v.session.Lap(driver, lap); ok {
		return lap, nil
	}
	if driver != previous {
		if first := firstLap(v.session, driver); first > 0 {
			return first, nil
		}
	}
	return 0, &sectors.LapNotFoundError{Driver: driver, LapNumber: lap}
}

// cachedAnalysis returns the analysis of the current selection, if computed.
func (v *View) cachedAnalysis(sel Selection, s *model.Session) *Analysis {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.analysis != nil && v.selection == sel && v.session == s {
		return v.analysis
	}
	return nil
}

func (v *View) storeAnalysis(sel Selection, s *model.Session, a *Analysis) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.selection == sel && v.session == s {
		v.analysis = a
	}
}

// Views keeps one View per browser, identified by a cookie.
type Views struct {
	mu          sync.Mutex
	views       map[string]*View
	defaultYear int
}

func NewViews(defaultYear int) *Views {
	return &Views{views: map[string]*View{}, defaultYear: defaultYear}
}

func (vs *Views) Lookup(id string) (*View, bool) {
	vs.mu.Lock()
	defer vs.mu.Unlock()
	v, ok := vs.views[id]
	return v, ok
}

func (v *View) touch() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.lastSeen = time.Now()
}

func (v *View) idleSince() time.Time {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.lastSeen
}

// FromRequest returns the view named by the request cookie, without creating
// one.
func (vs *Views) FromRequest(r *http.Request) (*View, bool) {
	c, err := r.Cookie(cookieName)
	if err != nil {
		return nil, false
	}
	v, ok := vs.Lookup(c.Value)
	if ok {
		v.touch()
	}
	return v, ok
}

// Get returns the request's view, creating it and setting the cookie when
// the browser has none.
func (vs *Views) Get(w http.ResponseWriter, r *http.Request) *View {
	if v, ok := vs.FromRequest(r); ok {
		return v
	}

	vs.mu.Lock()
	defer vs.mu.Unlock()
	v := newView(uuid.NewString(), vs.defaultYear)
	vs.views[v.ID] = v
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    v.ID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return v
}

// Prune drops the views not used for longer than maxIdle and returns how many
// were dropped.
func (vs *Views) Prune(maxIdle time.Duration) int {
	vs.mu.Lock()
	defer vs.mu.Unlock()
	cutoff := time.Now().Add(-maxIdle)
	n := 0
	for id, v := range vs.views {
		if v.idleSince().Before(cutoff) {
			delete(vs.views, id)
			n++
		}
	}
	return n
}
