package dashboard

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pkg/errors"

	"f1telemetryhub/pkg/model"
	"f1telemetryhub/pkg/sectors"
)

func testSession() *model.Session {
	start := time.Date(2024, 3, 1, 15, 0, 0, 0, time.UTC)
	return &model.Session{
		Year: 2024, Type: model.Q, EventName: "Bahrain Grand Prix",
		Laps: []model.Lap{
			{Driver: "VER", Number: 6, DateStart: start.Add(time.Minute)},
			{Driver: "VER", Number: 5, DateStart: start},
			{Driver: "LEC", Number: 8, DateStart: start.Add(time.Minute)},
			{Driver: "LEC", Number: 7, DateStart: start},
		},
	}
}

func TestView_SetSessionDefaults(t *testing.T) {
	v := newView("id", 2024)
	v.SetSession(testSession())

	got := v.Snapshot().Selection
	want := Selection{DriverA: "LEC", LapA: 7, DriverB: "VER", LapB: 5}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestView_Select(t *testing.T) {
	v := newView("id", 2024)
	if err := v.Select(Selection{DriverA: "VER", LapA: 5}); !errors.Is(err, errNoSession) {
		t.Fatalf("expected errNoSession, got %v", err)
	}
	v.SetSession(testSession())

	// a newly picked driver without the requested lap falls back to its first lap
	if err := v.Select(Selection{DriverA: "VER", LapA: 8, DriverB: "LEC", LapB: 8}); err != nil {
		t.Fatal(err)
	}
	want := Selection{DriverA: "VER", LapA: 5, DriverB: "LEC", LapB: 8}
	if got := v.Snapshot().Selection; got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}

	// an unknown lap for an unchanged driver is an error and keeps the selection
	err := v.Select(Selection{DriverA: "VER", LapA: 9, DriverB: "LEC", LapB: 7})
	var notFound *sectors.LapNotFoundError
	if !errors.As(err, &notFound) || notFound.Driver != "VER" || notFound.LapNumber != 9 {
		t.Fatalf("expected LapNotFoundError for VER 9, got %v", err)
	}
	if got := v.Snapshot().Selection; got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestViews_Get(t *testing.T) {
	vs := NewViews(2025)

	rec := httptest.NewRecorder()
	v := vs.Get(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if v.Snapshot().Year != 2025 {
		t.Errorf("unexpected default year %d", v.Snapshot().Year)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != cookieName || cookies[0].Value != v.ID {
		t.Fatalf("unexpected cookies %v", cookies)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	rec = httptest.NewRecorder()
	if again := vs.Get(rec, req); again != v {
		t.Error("expected the same view for the same cookie")
	}
	if len(rec.Result().Cookies()) != 0 {
		t.Error("no cookie should be set for a known view")
	}
}

func TestViews_Prune(t *testing.T) {
	vs := NewViews(2024)
	stale := vs.Get(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	fresh := vs.Get(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	stale.mu.Lock()
	stale.lastSeen = time.Now().Add(-2 * time.Hour)
	stale.mu.Unlock()

	if n := vs.Prune(time.Hour); n != 1 {
		t.Fatalf("expected 1 view dropped, got %d", n)
	}
	if _, ok := vs.Lookup(stale.ID); ok {
		t.Error("stale view should be gone")
	}
	if _, ok := vs.Lookup(fresh.ID); !ok {
		t.Error("fresh view should stay")
	}
}
