package config

import (
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	"f1telemetryhub/pkg/cache"
	"f1telemetryhub/pkg/provider"
)

const DefaultPath = "./config.yml"

type HTTP struct {
	Address string `yaml:"address"`
}

type Provider struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

type Cache struct {
	Path    string `yaml:"path"`
	Enabled bool   `yaml:"enabled"`
}

type Seasons struct {
	MinYear int `yaml:"min_year"`
	MaxYear int `yaml:"max_year"`
}

type Charts struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

type Config struct {
	HTTP     HTTP     `yaml:"http"`
	Provider Provider `yaml:"provider"`
	Cache    Cache    `yaml:"cache"`
	Seasons  Seasons  `yaml:"seasons"`
	Charts   Charts   `yaml:"charts"`
	LogLevel string   `yaml:"log_level"`
}

func Default() *Config {
	return &Config{
		HTTP:     HTTP{Address: ":8080"},
		Provider: Provider{URL: provider.DefaultBaseURL, Timeout: 30 * time.Second},
		Cache:    Cache{Path: cache.DefaultPath, Enabled: true},
		Seasons:  Seasons{MinYear: 2023, MaxYear: 2025},
		Charts:   Charts{Width: 1200, Height: 500},
		LogLevel: "info",
	}
}

// Read loads the YAML file at path over the defaults. A missing file is not an
// error. Environment variables win over both.
func Read(path string) (*Config, error) {
	conf := Default()

	f, err := os.Open(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, errors.Wrapf(err, "opening config %s", path)
	default:
		defer f.Close()
		if err := yaml.NewDecoder(f).Decode(conf); err != nil {
			return nil, errors.Wrapf(err, "decoding config %s", path)
		}
	}

	conf.applyEnv()

	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("WEBSERVER_ADDRESS"); v != "" {
		c.HTTP.Address = v
	}
	if v := os.Getenv("PROVIDER_URL"); v != "" {
		c.Provider.URL = v
	}
	if v := os.Getenv("CACHE_PATH"); v != "" {
		c.Cache.Path = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Provider.URL) == "" {
		return errors.New("provider url must not be empty")
	}
	if c.Provider.Timeout <= 0 {
		return errors.Errorf("provider timeout must be positive, got %s", c.Provider.Timeout)
	}
	if c.Seasons.MinYear <= 0 || c.Seasons.MaxYear < c.Seasons.MinYear {
		return errors.Errorf("invalid season range %d-%d", c.Seasons.MinYear, c.Seasons.MaxYear)
	}
	if c.Charts.Width <= 0 || c.Charts.Height <= 0 {
		return errors.Errorf("invalid chart size %dx%d", c.Charts.Width, c.Charts.Height)
	}
	if c.Cache.Enabled && c.Cache.Path == "" {
		return errors.New("cache path must not be empty when the cache is enabled")
	}
	return nil
}
