package dashboard

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"f1telemetryhub/pkg/charts"
	"f1telemetryhub/pkg/layout"
	"f1telemetryhub/pkg/loader"
	"f1telemetryhub/pkg/model"
	"f1telemetryhub/pkg/provider"
	"f1telemetryhub/pkg/pubsub"
	"f1telemetryhub/pkg/report"
	"f1telemetryhub/pkg/sectors"
	"f1telemetryhub/pkg/telemetry"
	"f1telemetryhub/pkg/webserver"
)

//go:embed static
var staticFiles embed.FS

const minisectorCount = 25

type Dashboard struct {
	loader   *loader.Loader
	source   TelemetrySource
	renderer charts.ChartRenderer
	views    *Views
	progress *pubsub.PubSub[loader.Progress]
}

// New builds the dashboard. New views start on the newest season with a
// published schedule.
func New(ctx context.Context, l *loader.Loader, src TelemetrySource, r charts.ChartRenderer, progress *pubsub.PubSub[loader.Progress]) *Dashboard {
	return &Dashboard{
		loader:   l,
		source:   src,
		renderer: r,
		views:    NewViews(l.LatestYear(ctx)),
		progress: progress,
	}
}

func (d *Dashboard) Views() *Views {
	return d.views
}

// PruneViews drops views idle for longer than maxIdle every interval until
// ctx is done.
func (d *Dashboard) PruneViews(ctx context.Context, interval, maxIdle time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			if n := d.views.Prune(maxIdle); n > 0 {
				logrus.WithField("views", n).Debug("idle views dropped")
			}
		case <-ctx.Done():
			return
		}
	}
}

func (d *Dashboard) Register(m *webserver.Manager) {
	static, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err)
	}
	m.Static("/static/", static)

	r := m.Router()
	r.HandleFunc("/", d.pageHandler).Methods(http.MethodGet)
	r.HandleFunc("/events", d.eventsHandler).Methods(http.MethodGet)
	r.HandleFunc("/session", d.sessionHandler).Methods(http.MethodPost)
	r.HandleFunc("/selection", d.selectionHandler).Methods(http.MethodPost)
	r.HandleFunc("/charts/{name}.{format:png|svg}", d.chartHandler).Methods(http.MethodGet)
	r.HandleFunc("/map.{format:png|svg}", d.mapHandler).Methods(http.MethodGet)
	r.HandleFunc("/sectors.txt", d.sectorsTextHandler).Methods(http.MethodGet)
	r.HandleFunc("/sectors.xlsx", d.sectorsXLSXHandler).Methods(http.MethodGet)
	r.HandleFunc("/report.pdf", d.reportHandler).Methods(http.MethodGet)
	r.HandleFunc("/ws/progress", d.progressHandler)
}

func formInt(r *http.Request, key string) (int, error) {
	v, err := strconv.Atoi(r.FormValue(key))
	if err != nil {
		return 0, errors.Errorf("invalid %s %q", key, r.FormValue(key))
	}
	return v, nil
}

func (d *Dashboard) eventsHandler(w http.ResponseWriter, r *http.Request) {
	year, err := formInt(r, "year")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	events, err := d.loader.Events(r.Context(), year)
	if errors.Is(err, loader.ErrInvalidYear) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	} else if err != nil {
		logrus.WithError(err).Error("could not fetch schedule")
		http.Error(w, "could not fetch schedule", http.StatusBadGateway)
		return
	}

	type option struct {
		Index int    `json:"index"`
		Name  string `json:"name"`
	}
	options := make([]option, len(events))
	for i, e := range events {
		options[i] = option{Index: i, Name: e.Name}
	}
	writeJSON(w, options)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.WithError(err).Error("could not encode response")
	}
}

// sessionHandler loads the chosen session. A failure becomes the page warning
// and the previously loaded session stays.
func (d *Dashboard) sessionHandler(w http.ResponseWriter, r *http.Request) {
	v := d.views.Get(w, r)

	year, yerr := formInt(r, "year")
	eventIndex, eerr := formInt(r, "event")
	st, terr := model.ParseSessionType(r.FormValue("type"))
	if terr != nil {
		terr = errors.Wrapf(loader.ErrInvalidSessionType, "%q", r.FormValue("type"))
	}
	if err := firstErr(yerr, eerr, terr); err != nil {
		v.SetWarning(fmt.Sprintf("Could not load session: %v", err))
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	v.SetForm(year, eventIndex, st)

	ctx := loader.WithTopic(r.Context(), v.ID)
	session, err := d.loader.Load(ctx, year, eventIndex, st)
	if err != nil {
		v.SetWarning(fmt.Sprintf("Could not load session: %v", err))
	} else {
		v.SetSession(session)
		v.SetWarning("")
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func (d *Dashboard) selectionHandler(w http.ResponseWriter, r *http.Request) {
	v := d.views.Get(w, r)

	lapA, _ := strconv.Atoi(r.FormValue("lapA"))
	lapB, _ := strconv.Atoi(r.FormValue("lapB"))
	err := v.Select(Selection{
		DriverA: r.FormValue("driverA"),
		LapA:    lapA,
		DriverB: r.FormValue("driverB"),
		LapB:    lapB,
	})
	if err != nil {
		v.SetWarning(err.Error())
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// analysis resolves the view's analysis or writes the error response.
func (d *Dashboard) analysis(w http.ResponseWriter, r *http.Request) (*Analysis, bool) {
	v := d.views.Get(w, r)
	a, err := Analyse(r.Context(), d.source, v)
	if err != nil {
		writeError(w, err)
		return nil, false
	}
	return a, true
}

func writeError(w http.ResponseWriter, err error) {
	var notFound *sectors.LapNotFoundError
	switch {
	case errors.Is(err, errNoSession):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.As(err, &notFound), errors.Is(err, telemetry.ErrNoTelemetry), errors.Is(err, charts.ErrEmptySeries),
		errors.Is(err, provider.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		logrus.WithError(err).Error("dashboard request failed")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (d *Dashboard) chartHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	format, _ := charts.ParseFormat(vars["format"])

	a, ok := d.analysis(w, r)
	if !ok {
		return
	}
	if a.TelemetryErr != nil {
		writeError(w, a.TelemetryErr)
		return
	}
	c, found := charts.Find(a.Charts, vars["name"])
	if !found {
		http.NotFound(w, r)
		return
	}

	var b bytes.Buffer
	if err := d.renderer.Render(&b, c, format); err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Cache-Control", "no-store")
	_, _ = b.WriteTo(w)
}

func (d *Dashboard) mapHandler(w http.ResponseWriter, r *http.Request) {
	format, _ := charts.ParseFormat(mux.Vars(r)["format"])

	a, ok := d.analysis(w, r)
	if !ok {
		return
	}
	if a.TelemetryErr != nil {
		writeError(w, a.TelemetryErr)
		return
	}

	b, err := d.dominanceMap(r.Context(), a, format)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Cache-Control", "no-store")
	_, _ = b.WriteTo(w)
}

func (d *Dashboard) dominanceMap(ctx context.Context, a *Analysis, format charts.Format) (*bytes.Buffer, error) {
	lapA, _ := a.Session.Lap(a.Selection.DriverA, a.Selection.LapA)
	positions, err := telemetry.Positions(ctx, d.source, a.Session, lapA)
	if err != nil {
		return nil, err
	}
	minisectors, err := telemetry.Minisectors(a.SeriesA, a.SeriesB, minisectorCount)
	if err != nil {
		return nil, err
	}
	var b bytes.Buffer
	err = layout.BuildDominanceMap(&b, positions, a.SeriesA, minisectors, a.DriverA.TeamColour, a.DriverB.TeamColour, format)
	return &b, err
}

func (d *Dashboard) sectorsTextHandler(w http.ResponseWriter, r *http.Request) {
	a, ok := d.analysis(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	sectors.RenderTable(w, a.Comparison)
}

func (d *Dashboard) sectorsXLSXHandler(w http.ResponseWriter, r *http.Request) {
	a, ok := d.analysis(w, r)
	if !ok {
		return
	}
	var b bytes.Buffer
	if err := sectors.WriteXLSX(&b, a.Comparison); err != nil {
		writeError(w, err)
		return
	}
	name := fmt.Sprintf("F1_Sectors_%s_vs_%s.xlsx", a.DriverA.Code, a.DriverB.Code)
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", "attachment; filename="+name)
	_, _ = b.WriteTo(w)
}

func (d *Dashboard) reportHandler(w http.ResponseWriter, r *http.Request) {
	a, ok := d.analysis(w, r)
	if !ok {
		return
	}
	if a.TelemetryErr != nil {
		writeError(w, a.TelemetryErr)
		return
	}

	var b bytes.Buffer
	meta := report.Meta{Title: a.ReportName(), Session: a.Session.String(), Created: time.Now()}
	if err := report.Write(&b, a.Charts, d.renderer, meta); err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename="+report.FileName(a.DriverA.Code, a.DriverB.Code))
	_, _ = b.WriteTo(w)
}
