// Package config loads mine's settings.
//
// Sources, later wins:
//  1. built-in defaults
//  2. YAML file ($MINE_CONFIG, --config, or ./mine.yaml when present)
//  3. environment variables (MINE_DB_PATH, MINE_LOG_LEVEL, ...)
//  4. command-line flags, applied by the cli package
//
// The merged result is checked against an embedded CUE schema.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/roach88/mine/internal/store"
)

// ErrInvalid is returned when the merged configuration fails validation.
var ErrInvalid = errors.New("invalid configuration")

// EnvConfigPath names the environment variable holding a config file path.
const EnvConfigPath = "MINE_CONFIG"

// DefaultConfigFile is read from the working directory when it exists.
const DefaultConfigFile = "mine.yaml"

//go:embed schema.cue
var schemaSource string

// Config is the full set of settings.
type Config struct {
	Database DatabaseConfig `yaml:"database" json:"database"`
	Log      LogConfig      `yaml:"log" json:"log"`
}

// DatabaseConfig holds the path and engine flags of the embedded store.
type DatabaseConfig struct {
	Path        string        `yaml:"path" json:"path" env:"MINE_DB_PATH"`
	JournalMode string        `yaml:"journal_mode" json:"journal_mode" env:"MINE_DB_JOURNAL_MODE"`
	Synchronous string        `yaml:"synchronous" json:"synchronous" env:"MINE_DB_SYNCHRONOUS"`
	BusyTimeout time.Duration `yaml:"busy_timeout" json:"busy_timeout" env:"MINE_DB_BUSY_TIMEOUT"`
	ForeignKeys bool          `yaml:"foreign_keys" json:"foreign_keys" env:"MINE_DB_FOREIGN_KEYS"`
	ReadOnly    bool          `yaml:"read_only" json:"read_only" env:"MINE_DB_READ_ONLY"`
}

// LogConfig controls the slog handler installed by the CLI.
type LogConfig struct {
	Level string `yaml:"level" json:"level" env:"MINE_LOG_LEVEL"`
}

// Default returns the built-in defaults.
func Default() *Config {
	opts := store.DefaultOptions("mine.db")
	return &Config{
		Database: DatabaseConfig{
			Path:        opts.Path,
			JournalMode: opts.JournalMode,
			Synchronous: opts.Synchronous,
			BusyTimeout: opts.BusyTimeout,
			ForeignKeys: opts.ForeignKeys,
			ReadOnly:    opts.ReadOnly,
		},
		Log: LogConfig{Level: "info"},
	}
}

// FindPath returns the config file to read: explicit if set, then
// $MINE_CONFIG, then ./mine.yaml if it exists. Empty means none.
func FindPath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p
	}
	if _, err := os.Stat(DefaultConfigFile); err == nil {
		return DefaultConfigFile
	}
	return ""
}

// Load builds a Config from defaults, the file at path (skipped when path
// is empty) and the environment, then validates it.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.readFile(path); err != nil {
			return nil, err
		}
	}

	if err := ParseEnv(cfg); err != nil {
		return nil, err
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// readFile overlays the YAML file onto c. Unknown keys are rejected so a
// typo does not silently fall back to a default.
func (c *Config) readFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

func (c *Config) normalize() {
	c.Database.Path = strings.TrimSpace(c.Database.Path)
	c.Database.JournalMode = strings.ToUpper(strings.TrimSpace(c.Database.JournalMode))
	c.Database.Synchronous = strings.ToUpper(strings.TrimSpace(c.Database.Synchronous))
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
}

// Validate checks c against the embedded CUE schema.
func (c *Config) Validate() error {
	c.normalize()

	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue")).LookupPath(cue.ParsePath("#Config"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}

	v := schema.Unify(ctx.Encode(c.document()))
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.TrimSpace(cueerrors.Details(err, nil)))
	}
	return nil
}

// document is the shape the CUE schema describes. Durations are given in
// milliseconds, the unit SQLite's busy_timeout takes.
func (c *Config) document() map[string]any {
	return map[string]any{
		"database": map[string]any{
			"path":         c.Database.Path,
			"journal_mode": c.Database.JournalMode,
			"synchronous":  c.Database.Synchronous,
			"busy_timeout": c.Database.BusyTimeout.Milliseconds(),
			"foreign_keys": c.Database.ForeignKeys,
			"read_only":    c.Database.ReadOnly,
		},
		"log": map[string]any{
			"level": c.Log.Level,
		},
	}
}

// StoreOptions converts the database section into connection flags.
func (c *Config) StoreOptions() store.Options {
	return store.Options{
		Path:        c.Database.Path,
		JournalMode: c.Database.JournalMode,
		Synchronous: c.Database.Synchronous,
		BusyTimeout: c.Database.BusyTimeout,
		ForeignKeys: c.Database.ForeignKeys,
		ReadOnly:    c.Database.ReadOnly,
	}
}

// SlogLevel maps Log.Level onto a slog level. Unknown values mean info.
func (c *Config) SlogLevel() slog.Level {
	switch c.Log.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
