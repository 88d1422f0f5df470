package places

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/vaservices/internal/config"
)

func TestOpen_Builtin(t *testing.T) {
	loc, closeFn, err := Open(context.Background(), config.PlacesConfig{Driver: "builtin"})
	require.NoError(t, err)
	defer closeFn() //nolint:errcheck

	_, err = loc.Locate(context.Background(), "roanoke")
	assert.NoError(t, err)
}

func TestOpen_CSV(t *testing.T) {
	path := writeFile(t, "cities.csv", "city,lat,lon\nnorfolk,36.8508,-76.2859\n")

	loc, _, err := Open(context.Background(), config.PlacesConfig{Driver: "csv", Path: path})
	require.NoError(t, err)

	pt, err := loc.Locate(context.Background(), "Norfolk")
	require.NoError(t, err)
	assert.Equal(t, -76.2859, pt.Lon)

	_, err = loc.Locate(context.Background(), "roanoke")
	assert.Error(t, err)
}

func TestOpen_SQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "places.db")
	ctx := context.Background()

	store, err := OpenStore(ctx, config.PlacesConfig{Driver: "sqlite", Path: path})
	require.NoError(t, err)
	require.NoError(t, store.Migrate(ctx))
	_, err = store.Upsert(ctx, DefaultTable().Entries())
	require.NoError(t, err)
	require.NoError(t, store.Close())

	loc, closeFn, err := Open(ctx, config.PlacesConfig{Driver: "sqlite", Path: path})
	require.NoError(t, err)
	defer closeFn() //nolint:errcheck

	pt, err := loc.Locate(ctx, "Lexington")
	require.NoError(t, err)
	assert.Equal(t, 37.7840, pt.Lat)
}

func TestOpenStore_NotAStore(t *testing.T) {
	_, err := OpenStore(context.Background(), config.PlacesConfig{Driver: "csv"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "has no store")
}
