package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	t.Setenv("CONFIG_FILE", "")
	for _, key := range []string{"HOST", "PORT", "GIN_MODE", "MODEL_DIR", "WORKERS", "CACHE_SIZE", "LOG_LEVEL", "MAX_UPLOAD_BYTES", "SHUTDOWN_GRACE", "ALLOWED_ORIGINS"} {
		t.Setenv(envPrefix+key, "")
	}
	// Keep a stray .env in the working directory out of the way.
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:5000", cfg.Addr())
	assert.Equal(t, int64(16<<20), cfg.Server.MaxUploadBytes)
	assert.Equal(t, ".", cfg.Models.Dir)
	assert.Equal(t, 1024, cfg.Cache.Size)
	assert.Equal(t, runtime.NumCPU(), cfg.Batch.Workers)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownGrace)
}

func TestLoadYAML(t *testing.T) {
	path, err := filepath.Abs("testdata/config.yaml")
	require.NoError(t, err)
	clearEnv(t)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:8080", cfg.Addr())
	assert.Equal(t, "debug", cfg.Server.GinMode)
	assert.Equal(t, []string{"https://example.com"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 3*time.Second, cfg.Server.ShutdownGrace)
	assert.Equal(t, "/srv/models", cfg.Models.Dir)
	assert.Equal(t, "/srv/models/tree_v2.json", cfg.Models.Path("tree_model"))
	assert.Equal(t, 2, cfg.Batch.Workers)
	assert.Zero(t, cfg.Cache.Size)
	assert.Equal(t, "console", cfg.Logging.Log().Format)
	// Unset keys keep their defaults.
	assert.Equal(t, 100, cfg.Logging.MaxSizeMB)
}

func TestEnvOverridesYAML(t *testing.T) {
	path, err := filepath.Abs("testdata/config.yaml")
	require.NoError(t, err)
	clearEnv(t)
	t.Setenv("CONFIG_FILE", path)
	t.Setenv(envPrefix+"PORT", "9090")
	t.Setenv(envPrefix+"MODEL_DIR", "/opt/models")
	t.Setenv(envPrefix+"ALLOWED_ORIGINS", "https://a.test, https://b.test")
	t.Setenv(envPrefix+"SHUTDOWN_GRACE", "1m")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "/opt/models", cfg.Models.Dir)
	assert.Equal(t, []string{"https://a.test", "https://b.test"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, time.Minute, cfg.Server.ShutdownGrace)
}

func TestDotEnv(t *testing.T) {
	clearEnv(t)
	require.NoError(t, os.WriteFile(".env", []byte("HOUSEPREDICT_CACHE_SIZE=7\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv(envPrefix + "CACHE_SIZE") })
	// godotenv does not override variables that are already set.
	os.Unsetenv(envPrefix + "CACHE_SIZE")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Cache.Size)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		file string
	}{
		{name: "bad port", env: map[string]string{"PORT": "http"}},
		{name: "port range", env: map[string]string{"PORT": "70000"}},
		{name: "negative cache", env: map[string]string{"CACHE_SIZE": "-1"}},
		{name: "log level", env: map[string]string{"LOG_LEVEL": "chatty"}},
		{name: "gin mode", env: map[string]string{"GIN_MODE": "turbo"}},
		{name: "upload limit", env: map[string]string{"MAX_UPLOAD_BYTES": "0"}},
		{name: "missing file", file: "does-not-exist.yaml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(envPrefix+k, v)
			}
			_, err := Load(tt.file)
			assert.Error(t, err)
		})
	}
}

func TestInvalidYAML(t *testing.T) {
	clearEnv(t)
	require.NoError(t, os.WriteFile("bad.yaml", []byte("server: [unclosed"), 0o600))
	_, err := Load("bad.yaml")
	assert.Error(t, err)
}
