package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigDefaults(t *testing.T) {
	config, err := NewConfig("nonexistent.yaml")
	require.NoError(t, err)
	assert.NotNil(t, config)

	assert.Equal(t, "agroadvisor", config.AppName)
	assert.Equal(t, "1.0.0", config.AppVersion)
	assert.Equal(t, "8080", config.Port)
	assert.Equal(t, "data", config.DataDir)
	assert.Equal(t, "instance/geo_cache.json", config.GeoCacheFile)
	assert.Equal(t, "maps-co", config.Geocoder.Provider)
	assert.Equal(t, "https://archive-api.open-meteo.com/v1/archive", config.Weather.ArchiveURL)
	assert.Equal(t, 10, config.HTTP.TimeoutSeconds)
	assert.Equal(t, 4, config.HTTP.MaxRetries)
}

func TestNewConfigEnvironmentOverride(t *testing.T) {
	t.Setenv("APP_NAME", "test-app")
	t.Setenv("PORT", "9090")
	t.Setenv("GEOCODER_PROVIDER", "nominatim")
	t.Setenv("HTTP_MAX_RETRIES", "2")

	config, err := NewConfig("nonexistent.yaml")
	require.NoError(t, err)

	assert.Equal(t, "test-app", config.AppName)
	assert.Equal(t, "9090", config.Port)
	assert.Equal(t, "nominatim", config.Geocoder.Provider)
	assert.Equal(t, 2, config.HTTP.MaxRetries)
}

func TestNewConfigYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	data := []byte("app_name: yaml-app\ngeocoder:\n  provider: nominatim\n")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	config, err := NewConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "yaml-app", config.AppName)
	assert.Equal(t, "nominatim", config.Geocoder.Provider)
}

func TestNewConfigBadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(":\n\t- bad"), 0o644))

	_, err := NewConfig(path)
	assert.Error(t, err)
}
