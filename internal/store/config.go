package store

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultBaseURL    = "http://localhost:8000"
	DefaultListenAddr = "127.0.0.1:8080"
	DefaultLocale     = "en-IN"
)

// Environment overrides. They win over the YAML file.
const (
	EnvAPIURL         = "ANALYZER_API_URL"
	EnvListenAddr     = "ANALYZER_LISTEN_ADDR"
	EnvRequestTimeout = "ANALYZER_REQUEST_TIMEOUT"
	EnvPollInterval   = "ANALYZER_POLL_INTERVAL"
)

// Config is resolved once at startup and never mutated afterwards.
type Config struct {
	API struct {
		BaseURL string `yaml:"base_url"`
		// RequestTimeout of zero leaves requests unbounded.
		RequestTimeout time.Duration `yaml:"request_timeout"`
		Logging        bool          `yaml:"logging"`
	} `yaml:"api"`
	Server struct {
		ListenAddr     string `yaml:"listen_addr"`
		RefreshSeconds int    `yaml:"refresh_seconds"`
	} `yaml:"server"`
	Positions struct {
		// PollInterval of zero disables auto-refresh.
		PollInterval time.Duration `yaml:"poll_interval"`
	} `yaml:"positions"`
	UI struct {
		Locale string `yaml:"locale"`
	} `yaml:"ui"`
}

func (c *Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid api.base_url '%s': %w", c.API.BaseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("api.base_url must be an http or https URL, got '%s'", c.API.BaseURL)
	}
	if u.Host == "" {
		return fmt.Errorf("api.base_url has no host: '%s'", c.API.BaseURL)
	}
	if c.API.RequestTimeout < 0 {
		return fmt.Errorf("api.request_timeout must not be negative, got %s", c.API.RequestTimeout)
	}
	if c.Positions.PollInterval < 0 {
		return fmt.Errorf("positions.poll_interval must not be negative, got %s", c.Positions.PollInterval)
	}
	if c.Server.ListenAddr == "" {
		return errors.New("server.listen_addr cannot be empty")
	}
	if c.Server.RefreshSeconds < 0 {
		return fmt.Errorf("server.refresh_seconds must not be negative, got %d", c.Server.RefreshSeconds)
	}
	return nil
}

// LoadConfig reads path if it exists, applies environment overrides and
// defaults, and validates the result. A missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	var c Config

	b, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, err
	default:
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	if err := c.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &c, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvAPIURL); ok && strings.TrimSpace(v) != "" {
		c.API.BaseURL = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvListenAddr); ok && v != "" {
		c.Server.ListenAddr = v
	}
	if v, ok := lookup(EnvRequestTimeout); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvRequestTimeout, err)
		}
		c.API.RequestTimeout = d
	}
	if v, ok := lookup(EnvPollInterval); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvPollInterval, err)
		}
		c.Positions.PollInterval = d
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.API.BaseURL == "" {
		c.API.BaseURL = DefaultBaseURL
	}
	c.API.BaseURL = strings.TrimRight(c.API.BaseURL, "/")
	if c.Server.ListenAddr == "" {
		c.Server.ListenAddr = DefaultListenAddr
	}
	if c.Server.RefreshSeconds == 0 {
		c.Server.RefreshSeconds = 1
	}
	if c.UI.Locale == "" {
		c.UI.Locale = DefaultLocale
	}
}
