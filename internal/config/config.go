// Package config loads the YAML configuration of the mosaic builder.
//
// Every field has a default, so an empty or missing file yields a usable
// configuration. Command-line flags override file values after loading.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ironsheep/avatar-mosaic/internal/grid"
	"github.com/ironsheep/avatar-mosaic/internal/imaging"
	"github.com/ironsheep/avatar-mosaic/internal/stackexchange"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is wrapped by every validation error.
var ErrInvalidConfig = errors.New("invalid config")

// BackgroundAuto selects the dominant color of the placed avatars as the
// canvas background.
const BackgroundAuto = "auto"

// Config is the full application configuration.
type Config struct {
	IDsFile string `yaml:"ids_file"`

	// Output is the PNG path. {cols} and {rows} expand to the grid size;
	// "-" writes to stdout.
	Output string `yaml:"output"`

	// Seed drives the shuffle. Zero picks a seed from the clock.
	Seed uint64 `yaml:"seed"`

	// Workers bounds the concurrent avatar downloads.
	Workers int `yaml:"workers"`

	Grid    GridConfig    `yaml:"grid"`
	API     APIConfig     `yaml:"api"`
	Cache   CacheConfig   `yaml:"cache"`
	Metrics MetricsConfig `yaml:"metrics"`
	Log     LogConfig     `yaml:"log"`
}

// GridConfig is grid.Settings plus a textual background.
type GridConfig struct {
	grid.Settings `yaml:",inline"`

	// Background is a hex color, "auto", or empty for transparent.
	Background string `yaml:"background"`
}

// APIConfig configures the Stack Exchange client.
type APIConfig struct {
	BaseURL   string        `yaml:"base_url"`
	Site      string        `yaml:"site"`
	BatchSize int           `yaml:"batch_size"`
	Timeout   time.Duration `yaml:"timeout"`
	Key       string        `yaml:"key"`
}

// CacheConfig configures the avatar cache. An empty RedisAddr keeps avatars
// in memory for the current run only.
type CacheConfig struct {
	RedisAddr string        `yaml:"redis_addr"`
	TTL       time.Duration `yaml:"ttl"`
	Prefix    string        `yaml:"prefix"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		IDsFile: "TopUserIds.txt",
		Output:  "combined-{cols}x{rows}.png",
		Workers: 4,
		Grid: GridConfig{
			Settings: grid.Settings{
				Columns:       16,
				Rows:          8,
				CellWidth:     128,
				CellHeight:    128,
				Gap:           5,
				CornerRadiusX: 10,
				CornerRadiusY: 10,
			},
			Background: "#000000",
		},
		API: APIConfig{
			BaseURL:   stackexchange.DefaultBaseURL,
			Site:      stackexchange.DefaultSite,
			BatchSize: 50,
			Timeout:   30 * time.Second,
		},
		Cache: CacheConfig{
			TTL:    24 * time.Hour,
			Prefix: "avatar-mosaic:",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads the YAML file at path over the defaults and validates the
// result. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}
	if err := Parse(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Parse decodes YAML into cfg, leaving fields absent from data untouched.
// Unknown keys are rejected.
func Parse(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	return nil
}

// Validate checks every field.
func (c Config) Validate() error {
	if strings.TrimSpace(c.IDsFile) == "" {
		return fmt.Errorf("%w: ids_file must be set", ErrInvalidConfig)
	}
	if strings.TrimSpace(c.Output) == "" {
		return fmt.Errorf("%w: output must be set", ErrInvalidConfig)
	}
	if c.Workers < 1 {
		return fmt.Errorf("%w: workers must be at least 1, got %d", ErrInvalidConfig, c.Workers)
	}
	if err := c.Grid.Settings.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if _, _, err := c.Grid.Resolve(); err != nil {
		return err
	}
	if c.API.BatchSize < 1 || c.API.BatchSize > stackexchange.MaxBatchSize {
		return fmt.Errorf("%w: api.batch_size must be in [1, %d], got %d", ErrInvalidConfig, stackexchange.MaxBatchSize, c.API.BatchSize)
	}
	if u, err := url.Parse(c.API.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: api.base_url %q is not an absolute URL", ErrInvalidConfig, c.API.BaseURL)
	}
	if c.API.Site == "" {
		return fmt.Errorf("%w: api.site must be set", ErrInvalidConfig)
	}
	if c.API.Timeout < 0 {
		return fmt.Errorf("%w: api.timeout must not be negative", ErrInvalidConfig)
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("%w: cache.ttl must not be negative", ErrInvalidConfig)
	}
	return nil
}

// Resolve turns the textual background into grid settings. auto reports that
// the background must be computed from the images; the returned settings
// then have no background yet.
func (g GridConfig) Resolve() (s grid.Settings, auto bool, err error) {
	s = g.Settings
	s.Background = nil

	switch bg := strings.TrimSpace(g.Background); {
	case bg == "":
	case strings.EqualFold(bg, BackgroundAuto):
		auto = true
	default:
		c, err := imaging.ParseHexColor(bg)
		if err != nil {
			return grid.Settings{}, false, fmt.Errorf("%w: grid.background: %w", ErrInvalidConfig, err)
		}
		s.Background = &c
	}
	return s, auto, nil
}

// OutputPath expands the {cols} and {rows} placeholders of Output.
func (c Config) OutputPath() string {
	return strings.NewReplacer(
		"{cols}", strconv.Itoa(c.Grid.Columns),
		"{rows}", strconv.Itoa(c.Grid.Rows),
	).Replace(c.Output)
}
