package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mine.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "mine.db", cfg.Database.Path)
	assert.Equal(t, "WAL", cfg.Database.JournalMode)
	assert.Equal(t, 5*time.Second, cfg.Database.BusyTimeout)
	assert.True(t, cfg.Database.ForeignKeys)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_NoFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
database:
  path: /tmp/items.db
  journal_mode: delete
  busy_timeout: 250ms
log:
  level: DEBUG
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/items.db", cfg.Database.Path)
	assert.Equal(t, "DELETE", cfg.Database.JournalMode)
	assert.Equal(t, "NORMAL", cfg.Database.Synchronous)
	assert.Equal(t, 250*time.Millisecond, cfg.Database.BusyTimeout)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_UnknownKeyRejected(t *testing.T) {
	path := writeConfig(t, `
database:
  pathh: typo.db
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config")
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
database:
  path: from-file.db
`)
	t.Setenv("MINE_DB_PATH", "from-env.db")
	t.Setenv("MINE_DB_READ_ONLY", "true")
	t.Setenv("MINE_LOG_LEVEL", "warn")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env.db", cfg.Database.Path)
	assert.True(t, cfg.Database.ReadOnly)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoad_BadEnvValue(t *testing.T) {
	t.Setenv("MINE_DB_BUSY_TIMEOUT", "soon")
	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse env")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty path", func(c *Config) { c.Database.Path = "" }},
		{"unknown journal mode", func(c *Config) { c.Database.JournalMode = "sideways" }},
		{"unknown synchronous", func(c *Config) { c.Database.Synchronous = "sometimes" }},
		{"negative busy timeout", func(c *Config) { c.Database.BusyTimeout = -time.Second }},
		{"unknown log level", func(c *Config) { c.Log.Level = "chatty" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestValidate_EmptyEngineFlagsAllowed(t *testing.T) {
	cfg := Default()
	cfg.Database.JournalMode = ""
	cfg.Database.Synchronous = ""
	assert.NoError(t, cfg.Validate())
}

func TestFindPath(t *testing.T) {
	t.Setenv(EnvConfigPath, "")
	assert.Equal(t, "explicit.yaml", FindPath("explicit.yaml"))

	t.Setenv(EnvConfigPath, "/etc/mine.yaml")
	assert.Equal(t, "/etc/mine.yaml", FindPath(""))

	t.Setenv(EnvConfigPath, "")
	t.Chdir(t.TempDir())
	assert.Equal(t, "", FindPath(""))
	require.NoError(t, os.WriteFile(DefaultConfigFile, []byte("{}"), 0o644))
	assert.Equal(t, DefaultConfigFile, FindPath(""))
}

func TestStoreOptions(t *testing.T) {
	cfg := Default()
	cfg.Database.Path = ":memory:"
	cfg.Database.ReadOnly = true

	opts := cfg.StoreOptions()
	assert.Equal(t, ":memory:", opts.Path)
	assert.Equal(t, "WAL", opts.JournalMode)
	assert.Equal(t, 5*time.Second, opts.BusyTimeout)
	assert.True(t, opts.ReadOnly)
}

func TestSlogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
		"":      slog.LevelInfo,
	}
	for level, want := range tests {
		cfg := &Config{Log: LogConfig{Level: level}}
		assert.Equal(t, want, cfg.SlogLevel(), level)
	}
}
