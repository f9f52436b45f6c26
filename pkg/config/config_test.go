package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Port     string `yaml:"port" toml:"port"`
	Timezone string `yaml:"timezone" toml:"timezone"`
	Debug    bool   `yaml:"debug" toml:"debug"`
	Refresh  int    `yaml:"refresh" toml:"refresh"`
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "config.yml", "port: \"9090\"\ntimezone: America/Chicago\nrefresh: 30\n")

	cfg := testConfig{Port: "8080"}
	require.NoError(t, New(nil).Load(&cfg, path))

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "America/Chicago", cfg.Timezone)
	assert.Equal(t, 30, cfg.Refresh)
}

func TestLoadTOML(t *testing.T) {
	path := writeFile(t, "config.toml", "port = \"7070\"\ndebug = true\n")

	var cfg testConfig
	require.NoError(t, New(nil).Load(&cfg, path))

	assert.Equal(t, "7070", cfg.Port)
	assert.True(t, cfg.Debug)
}

func TestLoadMissingFileKeepsDefaults(t *testing.T) {
	cfg := testConfig{Port: "8080", Refresh: 60}
	require.NoError(t, New(nil).Load(&cfg, "does-not-exist.yml"))

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 60, cfg.Refresh)
}

func TestEnvOverride(t *testing.T) {
	path := writeFile(t, "config.yml", "port: \"9090\"\n")
	t.Setenv("UPCOMING_PORT", "6060")
	t.Setenv("UPCOMING_REFRESH", "15")

	var cfg testConfig
	require.NoError(t, New(&Settings{ENVPrefix: "UPCOMING"}).Load(&cfg, path))

	assert.Equal(t, "6060", cfg.Port, "env beats file")
	assert.Equal(t, 15, cfg.Refresh)
}

func TestEnvOverrideBadInt(t *testing.T) {
	t.Setenv("UPCOMING_REFRESH", "not-a-number")

	var cfg testConfig
	err := New(&Settings{ENVPrefix: "UPCOMING"}).Load(&cfg)
	assert.Error(t, err)
}
