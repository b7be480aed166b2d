package dashboard

import (
	"html/template"
	"net/http"
	"strconv"

	"github.com/sirupsen/logrus"

	"f1telemetryhub/pkg/charts"
	"f1telemetryhub/pkg/model"
	"f1telemetryhub/pkg/sectors"
)

type option struct {
	Value    string
	Label    string
	Selected bool
}

type driverLaps struct {
	Code string
	Laps []int
}

type pageData struct {
	Years        []option
	Events       []option
	SessionTypes []option
	Warning      string
	Session      string
	Loaded       bool

	DriversA []option
	DriversB []option
	LapsA    []option
	LapsB    []option
	AllLaps  []driverLaps

	HeaderA  string
	HeaderB  string
	Rows     []sectors.DisplayRow
	LapTimes sectors.DisplayRow
	Charts   []string

	TelemetryWarning string
}

func (d *Dashboard) pageHandler(w http.ResponseWriter, r *http.Request) {
	v := d.views.Get(w, r)
	snap := v.Snapshot()
	data := pageData{Warning: v.TakeWarning()}

	for _, y := range d.loader.Years() {
		data.Years = append(data.Years, intOption(y, itoa(y), y == snap.Year))
	}
	if events, err := d.loader.Events(r.Context(), snap.Year); err != nil {
		logrus.WithError(err).WithField("year", snap.Year).Warn("could not fetch schedule")
		if data.Warning == "" {
			data.Warning = "Could not fetch the event schedule."
		}
	} else {
		for i, e := range events {
			data.Events = append(data.Events, intOption(i, e.Name, i == snap.EventIndex))
		}
	}
	for _, st := range model.SessionTypes {
		data.SessionTypes = append(data.SessionTypes, option{Value: string(st), Label: string(st), Selected: st == snap.SessionType})
	}

	if snap.Session != nil {
		d.fillSession(r, v, snap, &data)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplate.Execute(w, data); err != nil {
		logrus.WithError(err).Error("could not render page")
	}
}

func (d *Dashboard) fillSession(r *http.Request, v *View, snap Snapshot, data *pageData) {
	s := snap.Session
	data.Loaded = true
	data.Session = s.String()

	for _, code := range s.DriverCodes() {
		label := driverOf(s, code).Label()
		data.DriversA = append(data.DriversA, option{Value: code, Label: label, Selected: code == snap.Selection.DriverA})
		data.DriversB = append(data.DriversB, option{Value: code, Label: label, Selected: code == snap.Selection.DriverB})
		data.AllLaps = append(data.AllLaps, driverLaps{Code: code, Laps: s.LapNumbers(code)})
	}
	for _, n := range s.LapNumbers(snap.Selection.DriverA) {
		data.LapsA = append(data.LapsA, intOption(n, itoa(n), n == snap.Selection.LapA))
	}
	for _, n := range s.LapNumbers(snap.Selection.DriverB) {
		data.LapsB = append(data.LapsB, intOption(n, itoa(n), n == snap.Selection.LapB))
	}

	a, err := Analyse(r.Context(), d.source, v)
	if err != nil {
		if data.Warning == "" {
			data.Warning = err.Error()
		}
		return
	}
	data.HeaderA = a.Comparison.HeaderA()
	data.HeaderB = a.Comparison.HeaderB()
	data.Rows = a.Comparison.Display()
	data.LapTimes = a.Comparison.LapTimes()
	if a.TelemetryErr != nil {
		data.TelemetryWarning = "Telemetry is not available for this selection: " + a.TelemetryErr.Error()
		return
	}
	for _, c := range a.Charts {
		data.Charts = append(data.Charts, c.Name)
	}
}

func intOption(v int, label string, selected bool) option {
	return option{Value: itoa(v), Label: label, Selected: selected}
}

var pageTemplate = template.Must(template.New("page").Funcs(template.FuncMap{
	"chartTitle": chartTitle,
}).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>F1 Telemetry Hub</title>
  <link rel="stylesheet" href="/static/app.css">
</head>
<body>
<aside>
  <h1>F1 Telemetry Hub</h1>
  <form id="load-form" method="post" action="/session">
    <label>Year
      <select name="year" id="year">{{ range .Years }}<option value="{{ .Value }}"{{ if .Selected }} selected{{ end }}>{{ .Label }}</option>{{ end }}</select>
    </label>
    <label>Event
      <select name="event" id="event">{{ range .Events }}<option value="{{ .Value }}"{{ if .Selected }} selected{{ end }}>{{ .Label }}</option>{{ end }}</select>
    </label>
    <label>Session
      <select name="type">{{ range .SessionTypes }}<option value="{{ .Value }}"{{ if .Selected }} selected{{ end }}>{{ .Label }}</option>{{ end }}</select>
    </label>
    <button type="submit">Load Session</button>
  </form>
  <div id="progress" hidden><progress max="4" value="0"></progress><span></span></div>
  {{ if .Loaded }}
  <form id="selection-form" method="post" action="/selection">
    <label>Driver A
      <select name="driverA" data-laps="lapA">{{ range .DriversA }}<option value="{{ .Value }}"{{ if .Selected }} selected{{ end }}>{{ .Label }}</option>{{ end }}</select>
    </label>
    <label>Lap A
      <select name="lapA" id="lapA">{{ range .LapsA }}<option value="{{ .Value }}"{{ if .Selected }} selected{{ end }}>{{ .Label }}</option>{{ end }}</select>
    </label>
    <label>Driver B
      <select name="driverB" data-laps="lapB">{{ range .DriversB }}<option value="{{ .Value }}"{{ if .Selected }} selected{{ end }}>{{ .Label }}</option>{{ end }}</select>
    </label>
    <label>Lap B
      <select name="lapB" id="lapB">{{ range .LapsB }}<option value="{{ .Value }}"{{ if .Selected }} selected{{ end }}>{{ .Label }}</option>{{ end }}</select>
    </label>
    <button type="submit">Compare</button>
  </form>
  <script id="laps" type="application/json">{{ .AllLaps }}</script>
  {{ end }}
</aside>
<main>
  {{ if .Warning }}<p class="warning">{{ .Warning }}</p>{{ end }}
  {{ if not .Loaded }}
  <p class="empty">Please load a session to continue.</p>
  {{ else }}
  <h2>{{ .Session }}</h2>
  {{ if .Rows }}
  <table class="sectors">
    <thead><tr><th></th><th>{{ .HeaderA }}</th><th>{{ .HeaderB }}</th><th>Delta</th><th>Faster</th></tr></thead>
    <tbody>
    {{ range .Rows }}<tr><td>{{ .Label }}</td><td>{{ .A }}</td><td>{{ .B }}</td><td class="{{ .Class }}">{{ .Delta }}</td><td>{{ .Driver }}</td></tr>
    {{ end }}</tbody>
    <tfoot><tr><td>{{ .LapTimes.Label }}</td><td>{{ .LapTimes.A }}</td><td>{{ .LapTimes.B }}</td><td class="{{ .LapTimes.Class }}">{{ .LapTimes.Delta }}</td><td>{{ .LapTimes.Driver }}</td></tr></tfoot>
  </table>
  <nav class="exports">
    <a href="/sectors.txt">Sector table</a>
    <a href="/sectors.xlsx">Excel</a>
    {{ if .Charts }}<a href="/report.pdf">Download PDF report</a>{{ end }}
  </nav>
  {{ end }}
  {{ if .TelemetryWarning }}<p class="warning">{{ .TelemetryWarning }}</p>{{ end }}
  {{ range .Charts }}
  <figure><img src="/charts/{{ . }}.svg" alt="{{ chartTitle . }}"><figcaption>{{ chartTitle . }}</figcaption></figure>
  {{ end }}
  {{ if .Charts }}<figure><img src="/map.svg" alt="Track dominance"><figcaption>Track dominance</figcaption></figure>{{ end }}
  {{ end }}
</main>
<script src="/static/progress.js"></script>
</body>
</html>
`))

func chartTitle(name string) string {
	if name == charts.DeltaName {
		return "Delta time"
	}
	return charts.Channel(name).Label()
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
