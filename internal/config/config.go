package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Source configures the market data upstream.
type Source struct {
	Endpoint              string `yaml:"endpoint" json:"endpoint"`
	RequestTimeoutSec     int    `yaml:"request_timeout_sec" json:"request_timeout_sec"`
	MinRequestIntervalSec int    `yaml:"min_request_interval_sec" json:"min_request_interval_sec"`
	MaxRequestsPerMinute  int    `yaml:"max_requests_per_minute" json:"max_requests_per_minute"`
	Burst                 int    `yaml:"burst" json:"burst"`
}

type UI struct {
	PollIntervalMs  int    `yaml:"poll_interval_ms" json:"poll_interval_ms"`
	FetchTimeoutSec int    `yaml:"fetch_timeout_sec" json:"fetch_timeout_sec"`
	LogFile         string `yaml:"log_file" json:"log_file"`
}

type Config struct {
	Source Source `yaml:"source" json:"source"`
	UI     UI     `yaml:"ui" json:"ui"`
}

func Default() Config {
	return Config{
		Source: Source{
			Endpoint:              "https://api.coincap.io/v2",
			RequestTimeoutSec:     10,
			MinRequestIntervalSec: 10, // a failing upstream stays due on every poll tick
			Burst:                 1,
		},
		UI: UI{
			PollIntervalMs:  1000,
			FetchTimeoutSec: 15,
		},
	}
}

// Load reads a YAML (or JSON) config from path on top of the defaults.
// An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	u, err := url.Parse(c.Source.Endpoint)
	switch {
	case c.Source.Endpoint == "":
		errs = append(errs, errors.New("source.endpoint is empty"))
	case err != nil:
		errs = append(errs, fmt.Errorf("source.endpoint: %w", err))
	case u.Scheme != "http" && u.Scheme != "https":
		errs = append(errs, fmt.Errorf("source.endpoint: unsupported scheme %q", u.Scheme))
	}
	if c.Source.RequestTimeoutSec <= 0 {
		errs = append(errs, errors.New("source.request_timeout_sec must be positive"))
	}
	if c.Source.MinRequestIntervalSec < 0 {
		errs = append(errs, errors.New("source.min_request_interval_sec must not be negative"))
	}
	if c.Source.MaxRequestsPerMinute < 0 {
		errs = append(errs, errors.New("source.max_requests_per_minute must not be negative"))
	}
	if c.Source.Burst < 0 {
		errs = append(errs, errors.New("source.burst must not be negative"))
	}
	if c.UI.PollIntervalMs <= 0 {
		errs = append(errs, errors.New("ui.poll_interval_ms must be positive"))
	}
	if c.UI.FetchTimeoutSec <= 0 {
		errs = append(errs, errors.New("ui.fetch_timeout_sec must be positive"))
	}
	return errors.Join(errs...)
}

func (s Source) RequestTimeout() time.Duration {
	return time.Duration(s.RequestTimeoutSec) * time.Second
}

func (s Source) MinRequestInterval() time.Duration {
	return time.Duration(s.MinRequestIntervalSec) * time.Second
}

func (u UI) PollInterval() time.Duration {
	return time.Duration(u.PollIntervalMs) * time.Millisecond
}

func (u UI) FetchTimeout() time.Duration {
	return time.Duration(u.FetchTimeoutSec) * time.Second
}
