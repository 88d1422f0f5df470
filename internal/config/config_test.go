package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "data/va_county/va.shp", cfg.Data.BoundaryPath)
	assert.Equal(t, "NAME", cfg.Data.BoundaryKey)
	assert.Equal(t, "data/all_services_binarized.csv", cfg.Data.CountyPath)
	assert.Equal(t, "County", cfg.Data.CountyKey)
	assert.Equal(t, "data/va_services.csv", cfg.Data.CityPath)
	assert.Equal(t, "city", cfg.Data.CityKey)
	assert.Equal(t, "Not Available", cfg.Marker.NullStatus)
	assert.Equal(t, "builtin", cfg.Places.Driver)
	assert.Equal(t, 16, cfg.Cache.MaxEntries)
	assert.Equal(t, time.Duration(0), cfg.Cache.TTL)
	assert.Equal(t, 8501, cfg.Server.Port)
	assert.InDelta(t, 20.0, cfg.Server.RateLimit, 0.001)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "Virginia Services Availability Map", cfg.Map.Title)
	assert.InDelta(t, 37.5, cfg.Map.CenterLat, 0.001)
	assert.InDelta(t, -78.5, cfg.Map.CenterLon, 0.001)
	assert.Equal(t, 7, cfg.Map.Zoom)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
data:
  boundary_path: tiger/tl_2024_us_county.zip
  state_fp: "51"
places:
  driver: sqlite
  path: places.db
cache:
  ttl: 5m
log:
  level: debug
  format: console
server:
  port: 9090
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "tiger/tl_2024_us_county.zip", cfg.Data.BoundaryPath)
	assert.Equal(t, "51", cfg.Data.StateFP)
	assert.Equal(t, "sqlite", cfg.Places.Driver)
	assert.Equal(t, "places.db", cfg.Places.Path)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	// Defaults still apply for unset values
	assert.Equal(t, "County", cfg.Data.CountyKey)
	assert.Equal(t, 16, cfg.Cache.MaxEntries)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
places:
  driver: sqlite
  path: places.db
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("VASERVICES_PLACES_DRIVER", "csv")
	t.Setenv("VASERVICES_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "csv", cfg.Places.Driver)
	assert.Equal(t, "places.db", cfg.Places.Path)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	t.Setenv("VASERVICES_SERVER_PORT", "3000")
	t.Setenv("VASERVICES_MARKER_NULL_STATUS", "No data")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "No data", cfg.Marker.NullStatus)
}

func TestLoadMalformedYAML(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("server: [port"), 0644))

	_, err := Load()
	assert.Error(t, err)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults returns a Config with all defaults populated for validation tests.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Data.BoundaryPath = "data/va_county/va.shp"
	cfg.Places.Driver = "builtin"
	cfg.Cache.MaxEntries = 16
	cfg.Server.Port = 8501
	cfg.Server.RateLimit = 20
	return cfg
}

func TestValidateServe_ValidPort(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.Port = 9090

	assert.NoError(t, cfg.Validate("serve"))
}

func TestValidateServe_InvalidPort(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.Port = 0

	err := cfg.Validate("serve")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "server.port must be > 0")
}

func TestValidateServe_NegativeRateLimit(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.RateLimit = -1

	err := cfg.Validate("serve")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "server.rate_limit")
}

func TestValidateRender_IgnoresPort(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.Port = 0

	assert.NoError(t, cfg.Validate("render"))
}

func TestValidatePlaces_RequiresStore(t *testing.T) {
	cfg := validDefaults()

	err := cfg.Validate("places")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "sqlite or postgres")

	cfg.Places.Driver = "csv"
	cfg.Places.Path = "cities.csv"
	assert.Error(t, cfg.Validate("places"))

	cfg.Places.Driver = "sqlite"
	cfg.Places.Path = "places.db"
	assert.NoError(t, cfg.Validate("places"))
}

func TestValidatePlacesDriver(t *testing.T) {
	cfg := validDefaults()

	cfg.Places.Driver = "csv"
	err := cfg.Validate("render")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "places.path is required")

	cfg.Places.Driver = "postgres"
	err = cfg.Validate("render")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "places.database_url is required")

	cfg.Places.DatabaseURL = "postgres://localhost/places"
	assert.NoError(t, cfg.Validate("render"))

	cfg.Places.Driver = "mongo"
	err = cfg.Validate("render")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown places.driver")
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := validDefaults()
	cfg.Data.BoundaryPath = ""
	cfg.Cache.MaxEntries = 0
	cfg.Server.Port = -1

	err := cfg.Validate("serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.port must be > 0")
	assert.Contains(t, err.Error(), "data.boundary_path is required")
	assert.Contains(t, err.Error(), "cache.max_entries must be > 0")
}

func TestValidateUnknownMode(t *testing.T) {
	cfg := validDefaults()
	err := cfg.Validate("unknown")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}
