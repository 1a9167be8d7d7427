// Package config loads pubscope settings from ~/.pubscope/config.yaml, a project-local
// overlay, .env files and PUBSCOPE_* environment variables.
package config

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rshade/pubscope/internal/cache"
	"github.com/rshade/pubscope/internal/logging"
)

// Defaults.
const (
	DefaultBaseURL   = "https://publications.icecube.aq"
	DefaultMount     = "#terminal"
	DefaultPageSize  = 20
	DefaultDebounce  = 250 * time.Millisecond
	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = 10.0
	DefaultLogLevel  = "info"
	DefaultLogFormat = "console"

	configFileName = "config.yaml"
	outputTypeFile = "file"
)

// Config is the full pubscope configuration.
type Config struct {
	API     APIConfig     `yaml:"api"     envPrefix:"API_"`
	View    ViewConfig    `yaml:"view"    envPrefix:"VIEW_"`
	Cache   CacheConfig   `yaml:"cache"   envPrefix:"CACHE_"`
	Logging LoggingConfig `yaml:"logging" envPrefix:"LOG_"`
	Theme   ThemeConfig   `yaml:"theme"   envPrefix:"THEME_"`
}

// APIConfig locates and throttles the publications API.
type APIConfig struct {
	BaseURL   string   `yaml:"base_url"   env:"BASE_URL"`
	Timeout   Duration `yaml:"timeout"    env:"TIMEOUT"`
	RateLimit float64  `yaml:"rate_limit" env:"RATE_LIMIT"`
	UserAgent string   `yaml:"user_agent,omitempty" env:"USER_AGENT"`
}

// ViewConfig holds the widget initialization inputs.
type ViewConfig struct {
	Mount     string   `yaml:"mount"      env:"MOUNT"`
	PageSize  int      `yaml:"page_size"  env:"PAGE_SIZE"`
	Debounce  Duration `yaml:"debounce"   env:"DEBOUNCE"`
	ShowDates bool     `yaml:"show_dates" env:"SHOW_DATES"`
	// Filters override the server defaults, in the order written.
	Filters FilterOverrides `yaml:"filters,omitempty"`
}

// CacheConfig controls the on-disk vocabulary cache.
type CacheConfig struct {
	Enabled    bool   `yaml:"enabled"     env:"ENABLED"`
	Directory  string `yaml:"directory,omitempty" env:"DIR"`
	TTLSeconds int    `yaml:"ttl_seconds" env:"TTL_SECONDS"`
}

// LoggingConfig selects log level, format and destination.
type LoggingConfig struct {
	Level  string `yaml:"level"  env:"LEVEL"`
	Format string `yaml:"format" env:"FORMAT"`
	File   string `yaml:"file,omitempty" env:"FILE"`
	Caller bool   `yaml:"caller,omitempty" env:"CALLER"`
}

// ThemeConfig holds terminal colours as hex ("#7D56F4") or ANSI ("212") strings.
type ThemeConfig struct {
	Accent   string `yaml:"accent"   env:"ACCENT"`
	Muted    string `yaml:"muted"    env:"MUTED"`
	Error    string `yaml:"error"    env:"ERROR"`
	Selected string `yaml:"selected" env:"SELECTED"`
	Border   string `yaml:"border"   env:"BORDER"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:   DefaultBaseURL,
			Timeout:   Duration(DefaultTimeout),
			RateLimit: DefaultRateLimit,
		},
		View: ViewConfig{
			Mount:    DefaultMount,
			PageSize: DefaultPageSize,
			Debounce: Duration(DefaultDebounce),
		},
		Cache: CacheConfig{
			Enabled:    true,
			TTLSeconds: cache.DefaultTTLSeconds,
		},
		Logging: LoggingConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		Theme: ThemeConfig{
			Accent:   "#7D56F4",
			Muted:    "241",
			Error:    "#FF5F87",
			Selected: "#04B575",
			Border:   "238",
		},
	}
}

// New returns the effective configuration: defaults, then the global config file, then the
// environment. Problems are logged and the remaining layers still apply.
func New() *Config {
	cfg, err := Load(context.Background(), "")
	if err != nil {
		logger := logging.FromContext(context.Background())
		logger.Warn().Str("component", "config").Err(err).Msg("using default configuration")
		cfg = Default()
		_ = ApplyEnv(cfg)
	}
	return cfg
}

// Load reads path (the global config file when empty) over the defaults, then applies the
// project overlay when one is resolved, then .env files and the environment.
func Load(ctx context.Context, path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		p, err := ConfigFilePath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	if err := cfg.mergeFile(path); err != nil {
		return nil, err
	}

	if dir := GetResolvedProjectDir(); dir != "" {
		overlay := filepath.Join(dir, configFileName)
		if _, err := os.Stat(overlay); err == nil {
			if mergeErr := ShallowMergeYAML(cfg, overlay); mergeErr != nil {
				logger := logging.FromContext(ctx)
				logger.Warn().
					Str("component", "config").
					Str("operation", "merge_project_config").
					Err(mergeErr).
					Str("overlay_path", overlay).
					Msg("failed to merge project config, ignoring it")
			}
		}
	}

	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// mergeFile decodes path onto cfg. A missing file is not an error.
func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config %s: %w", path, err)
	}
	return nil
}

// Save writes the configuration as YAML to path, creating parent directories.
func (c *Config) Save(path string) error {
	data, err := c.YAML()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config %s: %w", path, err)
	}
	return nil
}

// YAML renders the configuration.
func (c *Config) YAML() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshaling config: %w", err)
	}
	return data, nil
}

// Validate checks values that would otherwise fail later at mount time.
func (c *Config) Validate() error {
	var errs []error

	u, err := url.Parse(c.API.BaseURL)
	switch {
	case err != nil:
		errs = append(errs, fmt.Errorf("api.base_url: %w", err))
	case u.Scheme != "http" && u.Scheme != "https", u.Host == "":
		errs = append(errs, fmt.Errorf("api.base_url %q must be an absolute http(s) URL", c.API.BaseURL))
	}
	if c.API.Timeout < 0 {
		errs = append(errs, errors.New("api.timeout cannot be negative"))
	}
	if c.API.RateLimit < 0 {
		errs = append(errs, errors.New("api.rate_limit cannot be negative"))
	}

	if !strings.HasPrefix(c.View.Mount, "#") {
		errs = append(errs, fmt.Errorf("view.mount %q must start with '#'", c.View.Mount))
	}
	if c.View.PageSize < 1 {
		errs = append(errs, fmt.Errorf("view.page_size must be >= 1, got %d", c.View.PageSize))
	}
	if c.View.Debounce < 0 {
		errs = append(errs, errors.New("view.debounce cannot be negative"))
	}

	if c.Cache.Enabled {
		if err := cache.ValidateTTL(c.Cache.TTLSeconds); err != nil {
			errs = append(errs, fmt.Errorf("cache.ttl_seconds: %w", err))
		}
	}

	switch c.Logging.Format {
	case "", logging.FormatJSON, logging.FormatConsole:
	default:
		errs = append(errs, fmt.Errorf("logging.format %q must be json or console", c.Logging.Format))
	}

	return errors.Join(errs...)
}

// CacheDirectory returns the configured cache directory or <config dir>/cache.
func (c *Config) CacheDirectory() (string, error) {
	if c.Cache.Directory != "" {
		return c.Cache.Directory, nil
	}
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "cache"), nil
}
