package boundary

import (
	"archive/zip"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/vaservices/internal/boundary/boundarytest"
	"github.com/sells-group/vaservices/internal/model"
)

func TestLoad_Shapefile(t *testing.T) {
	path := boundarytest.Write(t, t.TempDir(), boundarytest.Virginia("Fairfax", "Loudoun", "Arlington"))

	regions, err := Load(path, Options{})
	require.NoError(t, err)
	require.Len(t, regions, 3)

	assert.Equal(t, "Fairfax", regions[0].Name)
	assert.Equal(t, "Loudoun", regions[1].Name)
	assert.Equal(t, "Arlington", regions[2].Name)
	assert.Equal(t, "51", regions[0].Attributes["STATEFP"])
	require.NotNil(t, regions[0].Geometry)
	assert.Equal(t, 1, regions[0].Geometry.NumPolygons())
	assert.Equal(t, 4326, regions[0].Geometry.SRID())
}

func TestLoad_KeyFieldCaseInsensitive(t *testing.T) {
	path := boundarytest.Write(t, t.TempDir(), boundarytest.Virginia("Fairfax"))

	regions, err := Load(path, Options{KeyField: "name"})
	require.NoError(t, err)
	require.Len(t, regions, 1)
	assert.Equal(t, "Fairfax", regions[0].Name)
}

func TestLoad_MissingKeyField(t *testing.T) {
	path := boundarytest.Write(t, t.TempDir(), boundarytest.Virginia("Fairfax"))

	_, err := Load(path, Options{KeyField: "COUNTY"})
	require.Error(t, err)
	assert.True(t, eris.Is(err, model.ErrUnparsableFile))
	assert.Contains(t, err.Error(), "COUNTY")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "va.shp"), Options{})
	require.Error(t, err)
	assert.True(t, eris.Is(err, model.ErrMissingFile))
}

func TestLoad_Unparsable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "va.shp")
	require.NoError(t, os.WriteFile(path, []byte("not a shapefile"), 0o644))

	_, err := Load(path, Options{})
	require.Error(t, err)
	assert.True(t, eris.Is(err, model.ErrUnparsableFile))
}

func TestLoad_StateFilter(t *testing.T) {
	counties := []boundarytest.County{
		{Name: "Fairfax", StateFP: "51"},
		{Name: "Montgomery", StateFP: "24"},
		{Name: "Roanoke", StateFP: "51"},
	}
	path := boundarytest.Write(t, t.TempDir(), counties)

	regions, err := Load(path, Options{StateFP: "51"})
	require.NoError(t, err)
	require.Len(t, regions, 2)
	assert.Equal(t, "Fairfax", regions[0].Name)
	assert.Equal(t, "Roanoke", regions[1].Name)
}

func TestLoad_HoleAttachedToOuterRing(t *testing.T) {
	counties := []boundarytest.County{{
		Name:    "Fairfax",
		StateFP: "51",
		Rings: [][]shp.Point{
			boundarytest.Square(-78, 38, 4),
			boundarytest.Hole(-77, 39, 1), // Fairfax City
			boundarytest.Square(-70, 38, 1),
		},
	}}
	path := boundarytest.Write(t, t.TempDir(), counties)

	regions, err := Load(path, Options{})
	require.NoError(t, err)
	require.Len(t, regions, 1)

	mp := regions[0].Geometry
	require.Equal(t, 2, mp.NumPolygons())
	assert.Equal(t, 2, mp.Polygon(0).NumLinearRings())
	assert.Equal(t, 1, mp.Polygon(1).NumLinearRings())
}

func TestLoad_KeepsRegionWithoutGeometry(t *testing.T) {
	counties := []boundarytest.County{
		{Name: "Fairfax", StateFP: "51"},
		{Name: "Loudoun", StateFP: "51", Rings: [][]shp.Point{
			{{X: -77, Y: 39}, {X: -76, Y: 39}, {X: -77, Y: 39}},
		}},
		{Name: "Arlington", StateFP: "51"},
	}
	path := boundarytest.Write(t, t.TempDir(), counties)

	regions, err := Load(path, Options{})
	require.NoError(t, err)
	require.Len(t, regions, 3)

	assert.Equal(t, "Loudoun", regions[1].Name)
	assert.Nil(t, regions[1].Geometry)
	assert.Equal(t, "51", regions[1].Attributes["STATEFP"])
	assert.NotNil(t, regions[2].Geometry)

	data, err := FeatureCollection(regions, nil)
	require.NoError(t, err)
	var fc struct {
		Features []struct {
			Geometry json.RawMessage `json:"geometry"`
		} `json:"features"`
	}
	require.NoError(t, json.Unmarshal(data, &fc))
	require.Len(t, fc.Features, 3)
	assert.Equal(t, "null", string(fc.Features[1].Geometry))
}

func TestLoad_ZIP(t *testing.T) {
	dir := t.TempDir()
	shpPath := boundarytest.Write(t, dir, boundarytest.Virginia("Fairfax", "Loudoun"))

	zipPath := filepath.Join(t.TempDir(), "tl_2024_us_county.zip")
	zf, err := os.Create(zipPath)
	require.NoError(t, err)
	zw := zip.NewWriter(zf)
	base := shpPath[:len(shpPath)-len(filepath.Ext(shpPath))]
	for _, ext := range []string{".shp", ".shx", ".dbf"} {
		src, err := os.Open(base + ext)
		require.NoError(t, err)
		w, err := zw.Create("tl_2024_us_county" + ext)
		require.NoError(t, err)
		_, err = io.Copy(w, src)
		require.NoError(t, err)
		require.NoError(t, src.Close())
	}
	require.NoError(t, zw.Close())
	require.NoError(t, zf.Close())

	regions, err := Load(zipPath, Options{StateFP: "51"})
	require.NoError(t, err)
	require.Len(t, regions, 2)
	assert.Equal(t, "Loudoun", regions[1].Name)
}

func TestLoad_ZIPWithoutShapefile(t *testing.T) {
	zipPath := filepath.Join(t.TempDir(), "empty.zip")
	zf, err := os.Create(zipPath)
	require.NoError(t, err)
	zw := zip.NewWriter(zf)
	w, err := zw.Create("readme.txt")
	require.NoError(t, err)
	_, _ = w.Write([]byte("no shapes here"))
	require.NoError(t, zw.Close())
	require.NoError(t, zf.Close())

	_, err = Load(zipPath, Options{})
	require.Error(t, err)
	assert.True(t, eris.Is(err, model.ErrUnparsableFile))
}

func TestCompanions(t *testing.T) {
	assert.Equal(t, []string{"data/va.dbf", "data/va.shx"}, Companions("data/va.shp"))
	assert.Equal(t, []string{"data/VA.dbf", "data/VA.shx"}, Companions("data/VA.SHP"))
	assert.Nil(t, Companions("data/tl_2024_us_county.zip"))
}

func TestToMultiPolygon_NonPolygon(t *testing.T) {
	assert.Nil(t, toMultiPolygon(&shp.Point{X: -78, Y: 37}))
	assert.Nil(t, toMultiPolygon(nil))
	assert.Nil(t, toMultiPolygon(&shp.Polygon{}))
}

func TestToMultiPolygon_DegenerateRing(t *testing.T) {
	poly := shp.Polygon(*shp.NewPolyLine([][]shp.Point{
		{{X: 0, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 0}},
	}))
	assert.Nil(t, toMultiPolygon(&poly))
}

func TestSignedArea(t *testing.T) {
	flat := func(pts []shp.Point) []float64 {
		var out []float64
		for _, p := range pts {
			out = append(out, p.X, p.Y)
		}
		return out
	}
	assert.InDelta(t, -4.0, signedArea(flat(boundarytest.Square(0, 0, 2))), 1e-9)
	assert.InDelta(t, 4.0, signedArea(flat(boundarytest.Hole(0, 0, 2))), 1e-9)
}

func TestFeatureCollection(t *testing.T) {
	path := boundarytest.Write(t, t.TempDir(), boundarytest.Virginia("Fairfax", "Loudoun"))
	regions, err := Load(path, Options{})
	require.NoError(t, err)

	data, err := FeatureCollection(regions, func(i int, r model.Region) map[string]any {
		return map[string]any{"name": r.Name, "index": i}
	})
	require.NoError(t, err)

	var fc struct {
		Type     string    `json:"type"`
		BBox     []float64 `json:"bbox"`
		Features []struct {
			Type     string `json:"type"`
			ID       string `json:"id"`
			Geometry struct {
				Type string `json:"type"`
			} `json:"geometry"`
			Properties map[string]any `json:"properties"`
		} `json:"features"`
	}
	require.NoError(t, json.Unmarshal(data, &fc))

	assert.Equal(t, "FeatureCollection", fc.Type)
	assert.Equal(t, []float64{-80, 37, -78, 38}, fc.BBox)
	require.Len(t, fc.Features, 2)
	assert.Equal(t, "Fairfax", fc.Features[0].ID)
	assert.Equal(t, "MultiPolygon", fc.Features[0].Geometry.Type)
	assert.Equal(t, "Loudoun", fc.Features[1].Properties["name"])
	assert.EqualValues(t, 1, fc.Features[1].Properties["index"])
}

func TestFeatureCollection_Deterministic(t *testing.T) {
	path := boundarytest.Write(t, t.TempDir(), boundarytest.Virginia("Fairfax", "Loudoun"))
	regions, err := Load(path, Options{})
	require.NoError(t, err)

	a, err := FeatureCollection(regions, nil)
	require.NoError(t, err)
	b, err := FeatureCollection(regions, nil)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestExtent(t *testing.T) {
	path := boundarytest.Write(t, t.TempDir(), boundarytest.Virginia("Fairfax", "Loudoun"))
	regions, err := Load(path, Options{})
	require.NoError(t, err)

	ext := Extent(regions)
	require.NotNil(t, ext)
	assert.InDelta(t, -80.0, ext.Min(0), 1e-9)
	assert.InDelta(t, 37.0, ext.Min(1), 1e-9)
	assert.InDelta(t, -78.0, ext.Max(0), 1e-9)
	assert.InDelta(t, 38.0, ext.Max(1), 1e-9)

	assert.Nil(t, Extent(nil))
	assert.Nil(t, Extent([]model.Region{{Name: "Loudoun"}}))
}
