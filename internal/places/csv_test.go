package places

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/vaservices/internal/model"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadCSV(t *testing.T) {
	path := writeFile(t, "cities.csv", "City,Lat,Lon\nBlacksburg,37.2296,-80.4139\n,1,1\nNorfolk, 36.8508 ,-76.2859\n")

	entries, err := LoadCSV(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, Entry{City: "Blacksburg", Point: model.Point{Lat: 37.2296, Lon: -80.4139}}, entries[0])
	assert.Equal(t, 36.8508, entries[1].Point.Lat)
}

func TestLoadCSV_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		target  error
	}{
		{"missing column", "city,lat\nroanoke,37.2\n", model.ErrUnparsableFile},
		{"bad number", "city,lat,lon\nroanoke,north,-79.9\n", model.ErrTypeCoercion},
		{"out of range", "city,lat,lon\nroanoke,37.2,-279.9\n", model.ErrTypeCoercion},
		{"empty", "", model.ErrUnparsableFile},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadCSV(context.Background(), writeFile(t, "cities.csv", tt.content))
			require.Error(t, err)
			assert.True(t, eris.Is(err, tt.target), err.Error())
		})
	}
}

func TestLoadCSV_MissingFile(t *testing.T) {
	_, err := LoadCSV(context.Background(), filepath.Join(t.TempDir(), "cities.csv"))
	require.Error(t, err)
	assert.True(t, eris.Is(err, model.ErrMissingFile))
}
