package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"f1telemetryhub/pkg/cache"
	"f1telemetryhub/pkg/charts"
	"f1telemetryhub/pkg/config"
	"f1telemetryhub/pkg/dashboard"
	"f1telemetryhub/pkg/loader"
	"f1telemetryhub/pkg/provider"
	"f1telemetryhub/pkg/pubsub"
	"f1telemetryhub/pkg/webserver"
)

const (
	viewPruneInterval = time.Hour
	viewMaxIdle       = 24 * time.Hour
)

var (
	configPath string
	cfg        *config.Config
)

var rootCmd = &cobra.Command{
	Use:           "f1telemetryhub",
	Short:         "F1 telemetry dashboard",
	Long:          `Compare two drivers' laps of a Formula 1 session: sector times, telemetry traces, delta time and a PDF report.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Read(configPath)
		if err != nil {
			return err
		}
		level, err := logrus.ParseLevel(cfg.LogLevel)
		if err != nil {
			return err
		}
		logrus.SetLevel(level)
		return nil
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web dashboard",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		client, closeCache, err := newProviderClient()
		if err != nil {
			return err
		}
		defer closeCache()

		progress := pubsub.NewPubSub[loader.Progress]()
		l := loader.New(client, cfg.Seasons.MinYear, cfg.Seasons.MaxYear, progress)
		renderer := charts.NewGoChartRenderer(cfg.Charts.Width, cfg.Charts.Height)
		d := dashboard.New(ctx, l, client, renderer, progress)
		go d.PruneViews(ctx, viewPruneInterval, viewMaxIdle)

		m := webserver.NewManager(cfg.HTTP.Address)
		d.Register(m)
		m.Debug()

		logrus.WithField("address", m.Addr()).Info("dashboard listening")
		return m.Serve(ctx)
	},
}

// newProviderClient builds the provider client with the response cache when
// it is enabled. The returned func closes the cache.
func newProviderClient() (*provider.Client, func(), error) {
	if !cfg.Cache.Enabled {
		return provider.NewClient(cfg.Provider.URL, cfg.Provider.Timeout, nil), func() {}, nil
	}
	store, err := cache.Open(cfg.Cache.Path)
	if err != nil {
		return nil, nil, err
	}
	closeStore := func() {
		if err := store.Close(); err != nil {
			logrus.WithError(err).Warn("closing cache")
		}
	}
	return provider.NewClient(cfg.Provider.URL, cfg.Provider.Timeout, store), closeStore, nil
}

func newLoader() (*loader.Loader, *provider.Client, func(), error) {
	client, closeCache, err := newProviderClient()
	if err != nil {
		return nil, nil, nil, err
	}
	return loader.New(client, cfg.Seasons.MinYear, cfg.Seasons.MaxYear, nil), client, closeCache, nil
}

func main() {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "configuration file")
	rootCmd.AddCommand(serveCmd, eventsCmd, compareCmd, reportCmd, cacheCmd, mockProviderCmd)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		logrus.WithError(err).Error("command failed")
		os.Exit(1)
	}
}
