package main

import (
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"f1telemetryhub/pkg/cache"
	"f1telemetryhub/pkg/charts"
	"f1telemetryhub/pkg/dashboard"
	"f1telemetryhub/pkg/model"
	"f1telemetryhub/pkg/report"
	"f1telemetryhub/pkg/sectors"
)

type comparisonFlags struct {
	year    int
	event   int
	session string
	driverA string
	driverB string
	lapA    int
	lapB    int
}

func (f *comparisonFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.year, "year", 0, "season")
	cmd.Flags().IntVar(&f.event, "event", 0, "event index in the season schedule")
	cmd.Flags().StringVar(&f.session, "session", string(model.Q), "session type (FP1, FP2, FP3, Q, R)")
	cmd.Flags().StringVar(&f.driverA, "a", "", "first driver code")
	cmd.Flags().StringVar(&f.driverB, "b", "", "second driver code")
	cmd.Flags().IntVar(&f.lapA, "lap-a", 0, "lap of the first driver")
	cmd.Flags().IntVar(&f.lapB, "lap-b", 0, "lap of the second driver")
	_ = cmd.MarkFlagRequired("year")
	_ = cmd.MarkFlagRequired("a")
	_ = cmd.MarkFlagRequired("b")
	_ = cmd.MarkFlagRequired("lap-a")
	_ = cmd.MarkFlagRequired("lap-b")
}

func (f *comparisonFlags) selection() dashboard.Selection {
	return dashboard.Selection{DriverA: f.driverA, LapA: f.lapA, DriverB: f.driverB, LapB: f.lapB}
}

// load fetches the session and analyses the selected laps.
func (f *comparisonFlags) load(cmd *cobra.Command) (*dashboard.Analysis, error) {
	st, err := model.ParseSessionType(f.session)
	if err != nil {
		return nil, err
	}
	l, client, closeCache, err := newLoader()
	if err != nil {
		return nil, err
	}
	defer closeCache()

	session, err := l.Load(cmd.Context(), f.year, f.event, st)
	if err != nil {
		return nil, err
	}
	return dashboard.AnalyseSelection(cmd.Context(), client, session, f.selection())
}

var eventsYear int

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "List the events of a season",
	RunE: func(cmd *cobra.Command, args []string) error {
		l, _, closeCache, err := newLoader()
		if err != nil {
			return err
		}
		defer closeCache()

		events, err := l.Events(cmd.Context(), eventsYear)
		if err != nil {
			return err
		}
		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.SetStyle(table.StyleRounded)
		t.AppendHeader(table.Row{"#", "Event", "Country", "Circuit", "Start"})
		for i, e := range events {
			t.AppendRow(table.Row{i, e.Name, e.Country, e.Circuit, e.DateStart.Format("2006-01-02")})
		}
		t.Render()
		return nil
	},
}

var (
	compareFlags comparisonFlags
	compareXLSX  string
)

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Print the sector comparison of two laps",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := compareFlags.load(cmd)
		if err != nil {
			return err
		}
		fmt.Println(a.Session)
		sectors.RenderTable(os.Stdout, a.Comparison)
		if compareXLSX == "" {
			return nil
		}

		f, err := os.Create(compareXLSX)
		if err != nil {
			return errors.Wrap(err, "creating workbook")
		}
		defer f.Close()
		return sectors.WriteXLSX(f, a.Comparison)
	},
}

var (
	reportFlags  comparisonFlags
	reportOutput string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Write the PDF report of two laps",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := reportFlags.load(cmd)
		if err != nil {
			return err
		}
		if a.TelemetryErr != nil {
			return a.TelemetryErr
		}

		name := reportOutput
		if name == "" {
			name = report.FileName(a.DriverA.Code, a.DriverB.Code)
		}
		f, err := os.Create(name)
		if err != nil {
			return errors.Wrap(err, "creating report")
		}
		defer f.Close()

		meta := report.Meta{Title: a.ReportName(), Session: a.Session.String(), Created: time.Now()}
		renderer := charts.NewGoChartRenderer(cfg.Charts.Width, cfg.Charts.Height)
		if err := report.Write(f, a.Charts, renderer, meta); err != nil {
			return err
		}
		fmt.Printf("report written to %s\n", name)
		return nil
	},
}

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the provider response cache",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache usage",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := cache.Open(cfg.Cache.Path)
		if err != nil {
			return err
		}
		defer store.Close()

		stats, err := store.Stats()
		if err != nil {
			return err
		}
		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.SetStyle(table.StyleRounded)
		t.AppendRow(table.Row{"Path", cfg.Cache.Path})
		t.AppendRow(table.Row{"Entries", humanize.Comma(int64(stats.Entries))})
		t.AppendRow(table.Row{"Size", humanize.Bytes(uint64(stats.Bytes))})
		if stats.Entries > 0 {
			t.AppendRow(table.Row{"Oldest", humanize.Time(stats.Oldest)})
			t.AppendRow(table.Row{"Newest", humanize.Time(stats.Newest)})
		}
		t.Render()
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every cached response",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := cache.Open(cfg.Cache.Path)
		if err != nil {
			return err
		}
		defer store.Close()
		return store.Clear()
	},
}

func init() {
	eventsCmd.Flags().IntVar(&eventsYear, "year", 0, "season")
	_ = eventsCmd.MarkFlagRequired("year")

	compareFlags.register(compareCmd)
	compareCmd.Flags().StringVar(&compareXLSX, "xlsx", "", "also write the comparison to this workbook")

	reportFlags.register(reportCmd)
	reportCmd.Flags().StringVarP(&reportOutput, "output", "o", "", "report file, F1_Telemetry_<A>_vs_<B>.pdf by default")

	cacheCmd.AddCommand(cacheStatsCmd, cacheClearCmd)
}
