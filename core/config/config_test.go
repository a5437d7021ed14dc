package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 30, cfg.Run.RemoteTimeoutSeconds)
	assert.False(t, cfg.Run.DryRun)
	assert.Equal(t, 15, cfg.Fetch.TimeoutSeconds)
	assert.Equal(t, 5, cfg.Fetch.MaxRedirects)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.True(t, cfg.Storage.UseSSL)
}

func TestLoadConfig_Environment(t *testing.T) {
	t.Setenv("RUN_SETTINGS_URL", "https://example.com/settings.xml")
	t.Setenv("RUN_DRY_RUN", "true")
	t.Setenv("SERVER_PORT", "9090")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "https://example.com/settings.xml", cfg.Run.SettingsURL)
	assert.True(t, cfg.Run.DryRun)
	assert.Equal(t, "9090", cfg.Server.Port)
}

func TestLoadConfig_EnvFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("RUN_CONFIG=Main\nLOG_LEVEL=debug\n"), 0o644))
	t.Cleanup(func() {
		os.Unsetenv("RUN_CONFIG")
		os.Unsetenv("LOG_LEVEL")
	})

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "Main", cfg.Run.Config)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestBindValues_Keys(t *testing.T) {
	type section struct {
		Retries int `mapstructure:"retries" default:"3"`
	}
	type sample struct {
		Name     string  `mapstructure:"name" default:"keymaster"`
		Internal string  `mapstructure:"-" default:"hidden"`
		Untagged string  `default:"ignored"`
		Section  section `mapstructure:"section"`
	}

	v := viper.New()
	bindValues(v, sample{}, "")

	assert.ElementsMatch(t, []string{"name", "section.retries"}, v.AllKeys())
	assert.Equal(t, "keymaster", v.GetString("name"))
	assert.Equal(t, 3, v.GetInt("section.retries"))
}
