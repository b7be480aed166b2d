package main

import (
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"f1telemetryhub/pkg/fixtures"
	"f1telemetryhub/pkg/provider"
	"f1telemetryhub/pkg/webserver"
)

var (
	mockDir  string
	mockAddr string
)

// mockProviderCmd serves provider responses from JSON files, the bundled
// demo season by default, so the dashboard can run without network access.
var mockProviderCmd = &cobra.Command{
	Use:   "mock-provider",
	Short: "Serve a local telemetry provider from fixture files",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		var fsys fs.FS = fixtures.FS()
		if mockDir != "" {
			fsys = os.DirFS(mockDir)
		}

		m := webserver.NewManager(mockAddr)
		m.Router().PathPrefix("/").Handler(provider.MockHandler(fsys))

		logrus.WithFields(logrus.Fields{"address": m.Addr(), "dir": mockDir}).Info("mock provider listening")
		return m.Serve(ctx)
	},
}

func init() {
	mockProviderCmd.Flags().StringVar(&mockDir, "dir", "", "directory with <resource>.json files")
	mockProviderCmd.Flags().StringVar(&mockAddr, "addr", ":8090", "listen address")
}
