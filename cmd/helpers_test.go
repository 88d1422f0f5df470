package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sells-group/vaservices/internal/boundary/boundarytest"
	"github.com/sells-group/vaservices/internal/config"
)

const (
	testCounties = "County,School Services,Adult Services,Behavioral Health\n" +
		"Fairfax,1,0,1\n" +
		"Albemarle,0,,1\n" +
		"Washington DC,1,1,1\n"
	testCities = "city,ss,as,bhs\n" +
		"lynchburg,0,1,\n" +
		"charlottesville,1,1,1\n"
)

// testConfig writes a small data set to a temp dir and returns a config
// pointing at it.
func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()

	shpPath := boundarytest.Write(t, dir, boundarytest.Virginia("Fairfax", "Loudoun", "Albemarle"))
	countyPath := filepath.Join(dir, "counties.csv")
	cityPath := filepath.Join(dir, "cities.csv")
	require.NoError(t, os.WriteFile(countyPath, []byte(testCounties), 0o644))
	require.NoError(t, os.WriteFile(cityPath, []byte(testCities), 0o644))

	return &config.Config{
		Data: config.DataConfig{
			BoundaryPath: shpPath,
			BoundaryKey:  "NAME",
			CountyPath:   countyPath,
			CountyKey:    "County",
			CityPath:     cityPath,
			CityKey:      "city",
		},
		Marker: config.MarkerConfig{NullStatus: "Not Available"},
		Places: config.PlacesConfig{Driver: "builtin"},
		Cache:  config.CacheConfig{MaxEntries: 4},
		Server: config.ServerConfig{Port: 8501, AllowedOrigins: []string{"*"}},
		Map: config.MapConfig{
			Title:     "Virginia Services Availability Map",
			CenterLat: 37.5,
			CenterLon: -78.5,
			Zoom:      7,
		},
		Log: config.LogConfig{Level: "info", Format: "console"},
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func placesSQLite(t *testing.T) config.PlacesConfig {
	t.Helper()
	return config.PlacesConfig{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "places.db")}
}
