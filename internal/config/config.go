// Package config loads taskplanner settings from defaults, an optional
// YAML file in the data directory, an optional .env file and the
// process environment, in that order of increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/praveenpatidar171/Task-Planner-extension/internal/gemini"
	"github.com/praveenpatidar171/Task-Planner-extension/internal/session"
)

// Environment variable names.
const (
	EnvAPIKey       = "GEMINI_API_KEY"
	EnvModel        = "TASKPLANNER_MODEL"
	EnvEndpoint     = "TASKPLANNER_ENDPOINT"
	EnvTimeout      = "TASKPLANNER_TIMEOUT"
	EnvDataDir      = "TASKPLANNER_DATA_DIR"
	EnvHistoryLimit = "TASKPLANNER_HISTORY_LIMIT"
	EnvJournal      = "TASKPLANNER_JOURNAL"
	EnvLogLevel     = "TASKPLANNER_LOG_LEVEL"
)

// FileName is the YAML config file looked up inside the data directory.
const FileName = "config.yaml"

// Config holds every runtime setting.
type Config struct {
	APIKey         string        `yaml:"api_key"`
	Model          string        `yaml:"model"`
	Endpoint       string        `yaml:"endpoint"`
	Timeout        time.Duration `yaml:"timeout"`
	DataDir        string        `yaml:"-"`
	HistoryLimit   int           `yaml:"history_limit"`
	JournalEnabled bool          `yaml:"journal"`
	LogLevel       string        `yaml:"log_level"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	home, _ := os.UserHomeDir()
	return Config{
		Model:          gemini.DefaultModel,
		Timeout:        gemini.DefaultTimeout,
		DataDir:        filepath.Join(home, ".taskplanner"),
		HistoryLimit:   session.DefaultCapacity,
		JournalEnabled: true,
		LogLevel:       "info",
	}
}

// Options controls where Load looks for its inputs.
type Options struct {
	// EnvFile is the .env file to read. Empty means ".env" in the
	// working directory. A missing file is not an error.
	EnvFile string
	// Getenv replaces os.Getenv.
	Getenv func(string) string
}

// Load builds a Config. Values in the .env file never override variables
// already present in the environment.
func Load(opts Options) (Config, error) {
	cfg := DefaultConfig()

	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	dotenv, err := godotenv.Read(envFile)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, fmt.Errorf("reading %s: %w", envFile, err)
	}

	getenv := opts.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	lookup := func(key string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return strings.TrimSpace(dotenv[key])
	}

	if v := lookup(EnvDataDir); v != "" {
		cfg.DataDir = v
	}
	if err := cfg.readFile(filepath.Join(cfg.DataDir, FileName)); err != nil {
		return cfg, err
	}
	if err := cfg.applyEnv(lookup); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) string) error {
	if v := lookup(EnvAPIKey); v != "" {
		c.APIKey = v
	}
	if v := lookup(EnvModel); v != "" {
		c.Model = v
	}
	if v := lookup(EnvEndpoint); v != "" {
		c.Endpoint = v
	}
	if v := lookup(EnvTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvTimeout, err)
		}
		c.Timeout = d
	}
	if v := lookup(EnvHistoryLimit); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvHistoryLimit, err)
		}
		c.HistoryLimit = n
	}
	if v := lookup(EnvJournal); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvJournal, err)
		}
		c.JournalEnabled = b
	}
	if v := lookup(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	return nil
}

// Validate checks ranges and enumerations.
func (c Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	if c.HistoryLimit < 1 || c.HistoryLimit > session.DefaultCapacity {
		return fmt.Errorf("history limit must be between 1 and %d, got %d",
			session.DefaultCapacity, c.HistoryLimit)
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// NewLogger returns a text slog logger at the configured level.
func (c Config) NewLogger(w io.Writer) *slog.Logger {
	level, err := parseLevel(c.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q", s)
	}
	return level, nil
}
