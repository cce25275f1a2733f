// Package config loads quizprep settings from an optional YAML file and
// QUIZPREP_* environment variables. Command-line flags are applied on top
// by the caller.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/abhisek/quizprep/internal/finding"
	"github.com/abhisek/quizprep/internal/symbols"
)

// Config holds all quizprep configuration.
type Config struct {
	// Workers bounds parallel record validation. 0 means one per CPU.
	Workers int `yaml:"workers"`

	// DB is the run history database path. Empty means the default path.
	DB string `yaml:"db"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	// FailOn is the lowest severity that makes validate exit non-zero.
	FailOn string `yaml:"fail_on"`

	// Format is the report format: text or json.
	Format string `yaml:"format"`

	// MetricsFile, when set, receives Prometheus metrics after each run.
	MetricsFile string `yaml:"metrics_file"`

	// HistoryKeep is how many saved runs to keep. 0 keeps all.
	HistoryKeep int `yaml:"history_keep"`

	// Symbols extends (or overrides) the built-in symbol map.
	Symbols []symbols.Entry `yaml:"symbols"`
}

// Report formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		LogLevel: "warn",
		FailOn:   string(finding.Critical),
		Format:   FormatText,
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/quizprep/config.yaml, falling back
// to ~/.config/quizprep/config.yaml.
func DefaultPath() (string, error) {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "quizprep", "config.yaml"), nil
}

// Load reads path (when non-empty) over the defaults, then applies the
// environment. A missing file at the default path is not an error; pass
// required=true when the user named the file explicitly.
func Load(path string, required bool) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := parse(data, &cfg); err != nil {
				return cfg, fmt.Errorf("config %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist) && !required:
		default:
			return cfg, fmt.Errorf("read config: %w", err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func parse(data []byte, cfg *Config) error {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil {
		if err == io.EOF {
			return nil
		}
		return fmt.Errorf("parse yaml: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if w := os.Getenv("QUIZPREP_WORKERS"); w != "" {
		n, err := strconv.Atoi(w)
		if err != nil {
			return fmt.Errorf("QUIZPREP_WORKERS: %w", err)
		}
		cfg.Workers = n
	}
	if p := os.Getenv("QUIZPREP_DB"); p != "" {
		cfg.DB = p
	}
	if l := os.Getenv("QUIZPREP_LOG_LEVEL"); l != "" {
		cfg.LogLevel = l
	}
	if f := os.Getenv("QUIZPREP_FAIL_ON"); f != "" {
		cfg.FailOn = f
	}
	if f := os.Getenv("QUIZPREP_FORMAT"); f != "" {
		cfg.Format = f
	}
	return nil
}

// Validate checks value ranges and enums.
func (c Config) Validate() error {
	if c.Workers < 0 {
		return fmt.Errorf("workers must be >= 0, got %d", c.Workers)
	}
	if c.HistoryKeep < 0 {
		return fmt.Errorf("history_keep must be >= 0, got %d", c.HistoryKeep)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q (want debug, info, warn or error)", c.LogLevel)
	}
	if _, err := finding.ParseSeverity(c.FailOn); err != nil {
		return fmt.Errorf("fail_on: %w", err)
	}
	switch c.Format {
	case FormatText, FormatJSON:
	default:
		return fmt.Errorf("unknown format %q (want text or json)", c.Format)
	}
	return nil
}

// SymbolMap returns the built-in symbol map extended with c.Symbols.
func (c Config) SymbolMap() (*symbols.Map, error) {
	if len(c.Symbols) == 0 {
		return symbols.Default(), nil
	}
	m, err := symbols.Default().With(c.Symbols...)
	if err != nil {
		return nil, fmt.Errorf("symbols: %w", err)
	}
	return m, nil
}

// FailOnSeverity returns FailOn as a Severity. Call after Validate.
func (c Config) FailOnSeverity() finding.Severity {
	s, _ := finding.ParseSeverity(c.FailOn)
	return s
}
