package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRead_MissingFileUsesDefaults(t *testing.T) {
	conf, err := Read(filepath.Join(t.TempDir(), "missing.yml"))
	if err != nil {
		t.Fatal(err)
	}
	if conf.Seasons.MinYear != 2023 || conf.Seasons.MaxYear != 2025 {
		t.Errorf("unexpected seasons %+v", conf.Seasons)
	}
	if conf.HTTP.Address != ":8080" {
		t.Errorf("unexpected address %q", conf.HTTP.Address)
	}
}

func TestRead_File(t *testing.T) {
	path := writeConfig(t, `
http:
  address: ":9000"
provider:
  url: http://localhost:8090/v1
  timeout: 5s
seasons:
  min_year: 2024
  max_year: 2024
log_level: debug
`)
	conf, err := Read(path)
	if err != nil {
		t.Fatal(err)
	}
	if conf.HTTP.Address != ":9000" || conf.Provider.Timeout != 5*time.Second || conf.LogLevel != "debug" {
		t.Errorf("unexpected config %+v", conf)
	}
	if conf.Charts.Width != 1200 {
		t.Errorf("expected default chart width to survive, got %d", conf.Charts.Width)
	}
}

func TestRead_EnvOverrides(t *testing.T) {
	t.Setenv("WEBSERVER_ADDRESS", ":7070")
	t.Setenv("PROVIDER_URL", "http://mock/v1")
	t.Setenv("CACHE_PATH", "/tmp/cache.db")

	conf, err := Read(writeConfig(t, "http:\n  address: \":9000\"\n"))
	if err != nil {
		t.Fatal(err)
	}
	if conf.HTTP.Address != ":7070" || conf.Provider.URL != "http://mock/v1" || conf.Cache.Path != "/tmp/cache.db" {
		t.Errorf("env not applied: %+v", conf)
	}
}

func TestValidate(t *testing.T) {
	tests := map[string]func(c *Config){
		"inverted years": func(c *Config) { c.Seasons.MinYear, c.Seasons.MaxYear = 2025, 2023 },
		"empty url":      func(c *Config) { c.Provider.URL = " " },
		"zero timeout":   func(c *Config) { c.Provider.Timeout = 0 },
		"no chart size":  func(c *Config) { c.Charts.Width = 0 },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			c := Default()
			mutate(c)
			if err := c.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}

	if err := Default().Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestRead_BadYAML(t *testing.T) {
	if _, err := Read(writeConfig(t, "http: [")); err == nil {
		t.Error("expected decode error")
	}
}
