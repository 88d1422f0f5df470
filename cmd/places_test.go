package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/vaservices/internal/model"
	"github.com/sells-group/vaservices/internal/places"
)

func TestImportPlaces_SQLite(t *testing.T) {
	ctx := context.Background()
	c := testConfig(t)
	c.Places = placesSQLite(t)

	file := writeFile(t, "cities.csv", "city,lat,lon\nBlacksburg,37.2296,-80.4139\nNorfolk,36.8508,-76.2859\n")
	n, err := importPlaces(ctx, c, file)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	loc, closeFn, err := places.Open(ctx, c.Places)
	require.NoError(t, err)
	defer closeFn() //nolint:errcheck

	var buf bytes.Buffer
	require.NoError(t, locatePlaces(ctx, &buf, loc, []string{"blacksburg", "NORFOLK"}))
	assert.Equal(t, "blacksburg\t37.2296\t-80.4139\nNORFOLK\t36.8508\t-76.2859\n", buf.String())
}

func TestImportPlaces_RequiresStore(t *testing.T) {
	c := testConfig(t)

	_, err := importPlaces(context.Background(), c, "cities.csv")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sqlite or postgres")
}

func TestImportPlaces_MissingFile(t *testing.T) {
	c := testConfig(t)
	c.Places = placesSQLite(t)

	_, err := importPlaces(context.Background(), c, filepath.Join(t.TempDir(), "cities.csv"))
	require.Error(t, err)
	assert.True(t, eris.Is(err, model.ErrMissingFile))
}

func TestLocatePlaces_Unknown(t *testing.T) {
	var buf bytes.Buffer
	err := locatePlaces(context.Background(), &buf, places.DefaultTable(), []string{"roanoke", "blacksburg"})
	require.Error(t, err)
	assert.True(t, eris.Is(err, model.ErrMissingJoinKey))
	assert.Contains(t, buf.String(), "roanoke")
}
