// Package boundarytest writes small county shapefiles for tests.
package boundarytest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/require"
)

// County is one record of a test shapefile.
type County struct {
	Name    string
	StateFP string
	Rings   [][]shp.Point // nil writes a unit square offset by the record index
}

// Square returns a clockwise closed ring with its lower-left corner at
// (x, y), which the shapefile format treats as an outer ring.
func Square(x, y, size float64) []shp.Point {
	return []shp.Point{
		{X: x, Y: y},
		{X: x, Y: y + size},
		{X: x + size, Y: y + size},
		{X: x + size, Y: y},
		{X: x, Y: y},
	}
}

// Hole returns a counter-clockwise closed ring, the shapefile convention for
// an interior ring.
func Hole(x, y, size float64) []shp.Point {
	return []shp.Point{
		{X: x, Y: y},
		{X: x + size, Y: y},
		{X: x + size, Y: y + size},
		{X: x, Y: y + size},
		{X: x, Y: y},
	}
}

// Virginia returns a few counties laid out as adjacent squares.
func Virginia(names ...string) []County {
	counties := make([]County, len(names))
	for i, n := range names {
		counties[i] = County{Name: n, StateFP: "51"}
	}
	return counties
}

// Write creates va.shp (plus .shx and .dbf) in dir with NAME and STATEFP
// fields and returns the .shp path.
func Write(t testing.TB, dir string, counties []County) string {
	t.Helper()

	path := filepath.Join(dir, "va.shp")
	w, err := shp.Create(path, shp.POLYGON)
	require.NoError(t, err)

	require.NoError(t, w.SetFields([]shp.Field{
		shp.StringField("NAME", 64),
		shp.StringField("STATEFP", 2),
	}))

	for i, c := range counties {
		rings := c.Rings
		if rings == nil {
			rings = [][]shp.Point{Square(-80+float64(i), 37, 1)}
		}
		poly := shp.Polygon(*shp.NewPolyLine(rings))
		n := w.Write(&poly)
		require.NoError(t, w.WriteAttribute(int(n), 0, c.Name))
		require.NoError(t, w.WriteAttribute(int(n), 1, c.StateFP))
	}
	w.Close()

	// go-shp v0.1.1 creates the table as "<base>dbf" without the dot.
	base := strings.TrimSuffix(path, ".shp")
	require.NoError(t, os.Rename(base+"dbf", base+".dbf"))

	return path
}
