package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notedit/pkg/errors"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{EnvAPIURL, EnvRequestTimeout, EnvListenAddr, EnvNotesPath, EnvRateLimitRPS, EnvRateLimitBurst} {
		t.Setenv(key, "")
	}
	// keep godotenv from picking up a developer's .env
	t.Chdir(t.TempDir())
}

func TestLoadFrom_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)

	assert.Equal(t, DefaultAPIURL, cfg.APIURL)
	assert.Equal(t, DefaultRequestTimeout, cfg.RequestTimeout.Duration)
	assert.Equal(t, DefaultListenAddr, cfg.ListenAddr)
	assert.Equal(t, DefaultRateLimitRPS, cfg.RateLimitRPS)
}

func TestLoadFrom_FileThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"apiUrl":"http://file.test/notes","requestTimeout":"5s","rateLimitRps":3}`), 0o644))

	t.Setenv(EnvRequestTimeout, "2s")
	t.Setenv(EnvRateLimitBurst, "7")

	cfg, err := LoadFrom(path)
	require.NoError(t, err)

	assert.Equal(t, "http://file.test/notes", cfg.APIURL)
	assert.Equal(t, 2*time.Second, cfg.RequestTimeout.Duration)
	assert.Equal(t, 3, cfg.RateLimitRPS)
	assert.Equal(t, 7, cfg.RateLimitBurst)
}

func TestLoadFrom_DotEnv(t *testing.T) {
	clearEnv(t)
	require.NoError(t, os.WriteFile(".env", []byte("NOTEDIT_API_URL=http://dotenv.test/notes\n"), 0o644))
	// godotenv does not override variables that already exist
	require.NoError(t, os.Unsetenv(EnvAPIURL))

	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)

	assert.Equal(t, "http://dotenv.test/notes", cfg.APIURL)
}

func TestLoadFrom_Invalid(t *testing.T) {
	clearEnv(t)

	t.Run("bad json", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.json")
		require.NoError(t, os.WriteFile(path, []byte(`{`), 0o644))

		_, err := LoadFrom(path)
		assert.ErrorIs(t, err, errors.ErrConfigLoadFailed)
	})

	t.Run("bad timeout", func(t *testing.T) {
		t.Setenv(EnvRequestTimeout, "soon")

		_, err := LoadFrom(filepath.Join(t.TempDir(), "missing.json"))
		assert.ErrorIs(t, err, errors.ErrConfigLoadFailed)
	})

	t.Run("negative rate", func(t *testing.T) {
		t.Setenv(EnvRateLimitRPS, "-1")

		_, err := LoadFrom(filepath.Join(t.TempDir(), "missing.json"))
		assert.ErrorIs(t, err, errors.ErrConfigLoadFailed)
	})
}

func TestSave_RoundTrip(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "config.json")

	cfg := Default()
	cfg.path = path
	cfg.APIURL = "http://saved.test/notes"
	cfg.RequestTimeout = Duration{90 * time.Second}
	require.NoError(t, cfg.Save())

	loaded, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, "http://saved.test/notes", loaded.APIURL)
	assert.Equal(t, 90*time.Second, loaded.RequestTimeout.Duration)
	assert.Equal(t, path, loaded.Path())
}

func TestGetConfigFilePath_EnvOverride(t *testing.T) {
	t.Setenv(EnvConfigFile, "/tmp/custom.json")
	assert.Equal(t, "/tmp/custom.json", GetConfigFilePath())
}
