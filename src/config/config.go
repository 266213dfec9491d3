// Package config loads the Talk2Trade client configuration.
// Precedence: built-in defaults < YAML file < environment (.env included) < CLI flags.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"talk2trade/src/models"
	"talk2trade/src/services/storage/repositories"

	"github.com/joho/godotenv"
)

const appDir = "talk2trade"

// Config holds all client configuration.
type Config struct {
	Backend BackendConfig `yaml:"backend"`
	Audio   AudioConfig   `yaml:"audio"`
	UI      UIConfig      `yaml:"ui"`
	Logging LoggingConfig `yaml:"logging"`
}

// BackendConfig configures the Talk2Trade HTTP backend.
type BackendConfig struct {
	BaseURL        string        `yaml:"base_url"`
	Timeout        time.Duration `yaml:"timeout"`
	RefreshMarkets bool          `yaml:"refresh_markets"` // sent with every chat request
}

// AudioConfig configures the external capture command. The command must write
// WAV audio to stdout until interrupted.
type AudioConfig struct {
	Command    string        `yaml:"command"`
	Args       []string      `yaml:"args"`
	StartGrace time.Duration `yaml:"start_grace"` // process must survive this long to count as started
	StopGrace  time.Duration `yaml:"stop_grace"`  // wait after interrupt before killing
	ChunkSize  int           `yaml:"chunk_size"`
}

// UIConfig configures the terminal interface.
type UIConfig struct {
	GlamourStyle  string `yaml:"glamour_style"`   // auto, dark, light, notty
	MaxInputUnits int    `yaml:"max_input_units"` // input height cap
	RowUnits      int    `yaml:"row_units"`       // units per text row
}

// LoggingConfig configures zap.
type LoggingConfig struct {
	Level       string `yaml:"level"`    // debug, info, warn, error
	Encoding    string `yaml:"encoding"` // console, json
	File        string `yaml:"file"`     // empty logs to stderr
	Development bool   `yaml:"development"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Backend: BackendConfig{
			BaseURL:        "http://localhost:5001",
			Timeout:        90 * time.Second,
			RefreshMarkets: true,
		},
		Audio: AudioConfig{
			Command:    "arecord",
			Args:       []string{"-q", "-f", "cd", "-t", "wav", "-"},
			StartGrace: 300 * time.Millisecond,
			StopGrace:  2 * time.Second,
			ChunkSize:  4096,
		},
		UI: UIConfig{
			GlamourStyle:  "auto",
			MaxInputUnits: 120,
			RowUnits:      20,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Encoding: "console",
			File:     filepath.Join(Dir(), appDir+".log"),
		},
	}
}

// Dir returns the per-user configuration directory.
func Dir() string {
	base, err := os.UserConfigDir()
	if err != nil || base == "" {
		base = ".config"
	}
	return filepath.Join(base, appDir)
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	return filepath.Join(Dir(), "config.yaml")
}

// LoadDotEnv loads .env files into the process environment. Missing files
// are ignored; existing variables are never overwritten.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// Load reads the YAML file at path on top of the defaults and applies
// environment overrides. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		path = DefaultPath()
	}
	if _, err := repositories.NewYAMLRepository(path).Load(cfg); err != nil {
		return nil, err
	}
	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes cfg to path.
func (c *Config) Save(path string) error {
	if path == "" {
		path = DefaultPath()
	}
	return repositories.NewYAMLRepository(path).Save(c)
}

// applyEnvOverrides applies TALK2TRADE_* variables.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("TALK2TRADE_BASE_URL"); v != "" {
		c.Backend.BaseURL = v
	}
	if v := os.Getenv("TALK2TRADE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Backend.Timeout = d
		}
	}
	if v := os.Getenv("TALK2TRADE_REFRESH_MARKETS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Backend.RefreshMarkets = b
		}
	}
	if fields := strings.Fields(os.Getenv("TALK2TRADE_RECORDER")); len(fields) > 0 {
		c.Audio.Command = fields[0]
		c.Audio.Args = fields[1:]
	}
	if v := os.Getenv("TALK2TRADE_GLAMOUR_STYLE"); v != "" {
		c.UI.GlamourStyle = v
	}
	if v := os.Getenv("TALK2TRADE_LOG_LEVEL"); v != "" {
		c.Logging.Level = strings.ToLower(v)
	}
	if v := os.Getenv("TALK2TRADE_LOG_FILE"); v != "" {
		c.Logging.File = v
	}
}

// Validate checks the configuration for values the client cannot run with.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Backend.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return &models.ValidationError{Field: "backend.base_url", Message: fmt.Sprintf("must be an http(s) URL, got %q", c.Backend.BaseURL)}
	}
	if c.Backend.Timeout <= 0 {
		return &models.ValidationError{Field: "backend.timeout", Message: "must be positive"}
	}
	if strings.TrimSpace(c.Audio.Command) == "" {
		return &models.ValidationError{Field: "audio.command", Message: "must not be empty"}
	}
	if c.Audio.ChunkSize <= 0 {
		return &models.ValidationError{Field: "audio.chunk_size", Message: "must be positive"}
	}
	if c.UI.RowUnits <= 0 || c.UI.MaxInputUnits < c.UI.RowUnits {
		return &models.ValidationError{Field: "ui.max_input_units", Message: "must be at least one row"}
	}
	switch c.Logging.Encoding {
	case "console", "json":
	default:
		return &models.ValidationError{Field: "logging.encoding", Message: "must be console or json"}
	}
	return nil
}
