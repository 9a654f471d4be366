package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Resolve()
	require.NoError(t, cfg.Validate())

	assert.False(t, cfg.Tracker.Strict)
	assert.False(t, cfg.Tracker.Bidirectional)
	assert.True(t, cfg.Tracker.EnforceOrder)
	assert.True(t, cfg.Interfaces.Web)
	assert.Equal(t, filepath.Join(cfg.DataDir, "parttrack.db"), cfg.Database)
	assert.Equal(t, filepath.Join(cfg.DataDir, "cleanup_audit.log"), cfg.AuditLog)
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad log mode", func(c *Config) { c.Log.Mode = "loud" }},
		{"empty addr", func(c *Config) { c.HTTP.Addr = "" }},
		{"zero shutdown", func(c *Config) { c.HTTP.ShutdownTimeout = 0 }},
		{"empty data dir", func(c *Config) { c.DataDir = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid config")
		})
	}
}

func TestLoadFromFile_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "parttrack.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
data_dir: /srv/parttrack
tracker:
  strict: true
  bidirectional: true
http:
  addr: ":9000"
  shutdown_timeout: 3s
`), 0o644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "/srv/parttrack", cfg.DataDir)
	assert.True(t, cfg.Tracker.Strict)
	assert.True(t, cfg.Tracker.Bidirectional)
	assert.True(t, cfg.Tracker.EnforceOrder, "unset fields keep their defaults")
	assert.Equal(t, ":9000", cfg.HTTP.Addr)
	assert.Equal(t, 3*time.Second, cfg.HTTP.ShutdownTimeout)
	assert.Equal(t, 15*time.Second, cfg.HTTP.ReadTimeout)
}

func TestLoadFromFile_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "parttrack.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"data_dir": "/tmp/pt", "log": {"mode": "development"}}`), 0o644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/pt", cfg.DataDir)
	assert.Equal(t, "development", cfg.Log.Mode)
}

func TestLoadFromFile_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadFromFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	toml := filepath.Join(dir, "parttrack.toml")
	require.NoError(t, os.WriteFile(toml, []byte("x = 1"), 0o644))
	_, err = LoadFromFile(toml)
	assert.Error(t, err)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PARTTRACK_DATA_DIR", "/env/data")
	t.Setenv("PARTTRACK_DB", "/env/data/x.db")
	t.Setenv("PARTTRACK_STRICT", "yes")
	t.Setenv("PARTTRACK_ENFORCE_ORDER", "0")
	t.Setenv("PARTTRACK_WEB_ENABLED", "false")
	t.Setenv("PARTTRACK_HTTP_SHUTDOWN_TIMEOUT", "2s")

	cfg := DefaultConfig()
	require.NoError(t, LoadFromEnv(cfg))

	assert.Equal(t, "/env/data", cfg.DataDir)
	assert.Equal(t, "/env/data/x.db", cfg.Database)
	assert.True(t, cfg.Tracker.Strict)
	assert.False(t, cfg.Tracker.EnforceOrder)
	assert.False(t, cfg.Interfaces.Web)
	assert.Equal(t, 2*time.Second, cfg.HTTP.ShutdownTimeout)
}

func TestLoadFromEnv_BadBool(t *testing.T) {
	t.Setenv("PARTTRACK_STRICT", "maybe")

	err := LoadFromEnv(DefaultConfig())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PARTTRACK_STRICT")
}

func TestLoad_FileThenEnv(t *testing.T) {
	// Run from an empty directory so no stray .env is picked up.
	chdir(t, t.TempDir())

	path := filepath.Join(t.TempDir(), "parttrack.yaml")
	require.NoError(t, os.WriteFile(path, []byte("data_dir: /from/file\n"), 0o644))
	t.Setenv("PARTTRACK_HTTP_ADDR", ":7000")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/from/file", cfg.DataDir)
	assert.Equal(t, ":7000", cfg.HTTP.Addr)
	assert.Equal(t, filepath.Join("/from/file", "parttrack.db"), cfg.Database)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("PARTTRACK_LOG_MODE=development\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("PARTTRACK_LOG_MODE") })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "development", cfg.Log.Mode)
}

func TestLoad_MalformedDotEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("BAD-KEY=1\n"), 0o644))

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load .env")
}

func TestLoad_NoDotEnv(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().HTTP.Addr, cfg.HTTP.Addr)
}

func TestEnsureDirectories(t *testing.T) {
	root := t.TempDir()
	cfg := DefaultConfig()
	cfg.DataDir = filepath.Join(root, "a")
	cfg.Database = filepath.Join(root, "b", "x.db")
	cfg.Resolve()

	require.NoError(t, cfg.EnsureDirectories())
	for _, dir := range []string{cfg.DataDir, filepath.Dir(cfg.Database)} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent of testing.T.Chdir, added in Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(old) })
}
