package dashboard

import (
	"bytes"
	"context"
	"encoding/json"
	"image/png"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/ledongthuc/pdf"
	"github.com/pkg/errors"

	"f1telemetryhub/pkg/charts"
	"f1telemetryhub/pkg/fixtures"
	"f1telemetryhub/pkg/loader"
	"f1telemetryhub/pkg/provider"
	"f1telemetryhub/pkg/pubsub"
	"f1telemetryhub/pkg/telemetry"
	"f1telemetryhub/pkg/webserver"
)

type testDashboard struct {
	d      *Dashboard
	server *httptest.Server
	client *http.Client
}

func newTestDashboard(t *testing.T) *testDashboard {
	t.Helper()
	upstream := httptest.NewServer(provider.MockHandler(fixtures.FS()))
	t.Cleanup(upstream.Close)

	client := provider.NewClient(upstream.URL, 5*time.Second, nil)
	progress := pubsub.NewPubSub[loader.Progress]()
	l := loader.New(client, 2023, 2025, progress)
	d := New(context.Background(), l, client, charts.NewGoChartRenderer(800, 400), progress)

	m := webserver.NewManager("")
	d.Register(m)
	server := httptest.NewServer(m.Router())
	t.Cleanup(server.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatal(err)
	}
	return &testDashboard{d: d, server: server, client: &http.Client{Jar: jar}}
}

func (td *testDashboard) get(t *testing.T, path string) (*http.Response, []byte) {
	t.Helper()
	resp, err := td.client.Get(td.server.URL + path)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp, body
}

func (td *testDashboard) post(t *testing.T, path string, form url.Values) string {
	t.Helper()
	resp, err := td.client.PostForm(td.server.URL+path, form)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("POST %s: status %d", path, resp.StatusCode)
	}
	return string(body)
}

func (td *testDashboard) loadBahrainQ(t *testing.T) string {
	t.Helper()
	return td.post(t, "/session", url.Values{"year": {"2024"}, "event": {"1"}, "type": {"Q"}})
}

func (td *testDashboard) selectLaps(t *testing.T, driverA, lapA, driverB, lapB string) string {
	t.Helper()
	return td.post(t, "/selection", url.Values{
		"driverA": {driverA}, "lapA": {lapA},
		"driverB": {driverB}, "lapB": {lapB},
	})
}

func TestDashboard_NoSession(t *testing.T) {
	td := newTestDashboard(t)

	resp, body := td.get(t, "/")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), "Please load a session to continue.") {
		t.Error("expected the empty state message")
	}
	if !strings.Contains(string(body), "Saudi Arabian Grand Prix") {
		t.Error("expected the schedule in the event selector")
	}

	for _, path := range []string{"/sectors.txt", "/sectors.xlsx", "/report.pdf", "/charts/speed.png", "/map.svg"} {
		if resp, _ := td.get(t, path); resp.StatusCode != http.StatusConflict {
			t.Errorf("%s: expected 409, got %d", path, resp.StatusCode)
		}
	}
}

func TestDashboard_Events(t *testing.T) {
	td := newTestDashboard(t)

	resp, body := td.get(t, "/events?year=2024")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	var events []struct {
		Index int    `json:"index"`
		Name  string `json:"name"`
	}
	if err := json.Unmarshal(body, &events); err != nil {
		t.Fatal(err)
	}
	if len(events) != 3 || events[fixtures.EventBahrain].Name != "Bahrain Grand Prix" {
		t.Errorf("unexpected events %+v", events)
	}

	if resp, _ := td.get(t, "/events?year=1999"); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for an unsupported year, got %d", resp.StatusCode)
	}
}

func TestDashboard_LoadAndCompare(t *testing.T) {
	td := newTestDashboard(t)

	page := td.loadBahrainQ(t)
	if !strings.Contains(page, "2024 Bahrain Grand Prix Q") {
		t.Fatal("expected the loaded session heading")
	}
	if !strings.Contains(page, "Charles LECLERC (LEC)") {
		t.Error("expected driver labels")
	}

	page = td.selectLaps(t, "VER", "5", "LEC", "7")
	if !strings.Contains(page, "VER L5") || !strings.Contains(page, "LEC L7") {
		t.Error("expected the comparison headers")
	}
	if !strings.Contains(page, "/charts/speed.svg") || !strings.Contains(page, "/report.pdf") {
		t.Error("expected charts and the report link")
	}

	resp, body := td.get(t, "/sectors.txt")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("sectors.txt status %d", resp.StatusCode)
	}
	for _, want := range []string{"Sector 1", "30.100", "29.900", "-0.200"} {
		if !strings.Contains(string(body), want) {
			t.Errorf("sector table missing %q:\n%s", want, body)
		}
	}

	resp, body = td.get(t, "/charts/speed.png")
	if resp.StatusCode != http.StatusOK || resp.Header.Get("Content-Type") != "image/png" {
		t.Fatalf("chart: status %d type %q", resp.StatusCode, resp.Header.Get("Content-Type"))
	}
	img, err := png.Decode(bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds().Dx() != 800 {
		t.Errorf("unexpected chart width %d", img.Bounds().Dx())
	}

	resp, body = td.get(t, "/map.svg")
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), "<svg") {
		t.Errorf("map: status %d", resp.StatusCode)
	}

	resp, body = td.get(t, "/sectors.xlsx")
	if resp.StatusCode != http.StatusOK || !bytes.HasPrefix(body, []byte("PK")) {
		t.Errorf("xlsx: status %d", resp.StatusCode)
	}

	resp, body = td.get(t, "/report.pdf")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("report status %d", resp.StatusCode)
	}
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, "F1_Telemetry_VER_vs_LEC.pdf") {
		t.Errorf("unexpected Content-Disposition %q", cd)
	}
	r, err := pdf.NewReader(bytes.NewReader(body), int64(len(body)))
	if err != nil {
		t.Fatal(err)
	}
	if n := r.NumPage(); n != 5 {
		t.Errorf("expected 5 report pages, got %d", n)
	}
}

func TestDashboard_UnknownChart(t *testing.T) {
	td := newTestDashboard(t)
	td.loadBahrainQ(t)
	td.selectLaps(t, "VER", "5", "LEC", "7")

	if resp, _ := td.get(t, "/charts/rpm.png"); resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %d", resp.StatusCode)
	}
}

func TestDashboard_LoadFailureKeepsSession(t *testing.T) {
	td := newTestDashboard(t)
	td.loadBahrainQ(t)

	// testing has no qualifying
	page := td.post(t, "/session", url.Values{"year": {"2024"}, "event": {"0"}, "type": {"Q"}})
	if !strings.Contains(page, "Could not load session") {
		t.Error("expected a load warning")
	}
	if !strings.Contains(page, "2024 Bahrain Grand Prix Q") {
		t.Error("expected the previous session to stay loaded")
	}

	// the warning is shown once
	_, body := td.get(t, "/")
	if strings.Contains(string(body), "Could not load session") {
		t.Error("warning should be cleared after display")
	}
}

func TestDashboard_SelectionLapNotFound(t *testing.T) {
	td := newTestDashboard(t)
	td.loadBahrainQ(t)
	td.selectLaps(t, "VER", "5", "LEC", "7")

	page := td.selectLaps(t, "VER", "99", "LEC", "7")
	if !strings.Contains(page, "driver VER has no lap 99") {
		t.Error("expected a lap not found warning")
	}
	if !strings.Contains(page, "VER L5") {
		t.Error("expected the previous selection to stay")
	}
}

func TestDashboard_ProgressSocket(t *testing.T) {
	td := newTestDashboard(t)
	td.get(t, "/")

	u, _ := url.Parse(td.server.URL)
	cookies := td.client.Jar.Cookies(u)
	if len(cookies) != 1 {
		t.Fatalf("expected the view cookie, got %v", cookies)
	}
	header := http.Header{}
	header.Set("Cookie", cookies[0].String())

	wsURL := "ws" + strings.TrimPrefix(td.server.URL, "http") + "/ws/progress"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, header)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	id := cookies[0].Value
	deadline := time.Now().Add(2 * time.Second)
	for td.d.progress.Subscribers(id) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("progress socket never subscribed")
		}
		time.Sleep(10 * time.Millisecond)
	}

	td.loadBahrainQ(t)

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var last loader.Progress
	for !last.Done {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			t.Fatal(err)
		}
		if last, err = progressCaster.From(msg); err != nil {
			t.Fatal(err)
		}
	}
	if last.Err != "" || last.Step != last.Total {
		t.Errorf("unexpected final progress %+v", last)
	}
}

func TestDashboard_SessionTypeForm(t *testing.T) {
	td := newTestDashboard(t)

	page := td.post(t, "/session", url.Values{"year": {"2024"}, "event": {"1"}, "type": {"q"}})
	if !strings.Contains(page, "2024 Bahrain Grand Prix Q") {
		t.Error("expected a lower case session type to load")
	}

	page = td.post(t, "/session", url.Values{"year": {"2024"}, "event": {"1"}, "type": {"SQ"}})
	if !strings.Contains(page, "unknown session type") {
		t.Error("expected an unknown session type warning")
	}
	if !strings.Contains(page, "2024 Bahrain Grand Prix Q") {
		t.Error("expected the previous session to stay loaded")
	}
}

func TestDashboard_ProgressSocketNeedsView(t *testing.T) {
	td := newTestDashboard(t)

	wsURL := "ws" + strings.TrimPrefix(td.server.URL, "http") + "/ws/progress"
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err == nil {
		t.Fatal("expected the handshake to be refused")
	}
	if resp == nil || resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %v", resp)
	}
	if n := len(td.d.views.views); n != 0 {
		t.Errorf("expected no view to be created, got %d", n)
	}
}

func TestWriteError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"no session", errNoSession, http.StatusConflict},
		{"provider has no samples", errors.Wrap(provider.ErrNotFound, "car_data"), http.StatusNotFound},
		{"no telemetry", errors.Wrap(telemetry.ErrNoTelemetry, "VER 6"), http.StatusNotFound},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeError(rec, tt.err)
			if rec.Code != tt.want {
				t.Errorf("expected %d, got %d", tt.want, rec.Code)
			}
		})
	}
}
