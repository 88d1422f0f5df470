package boundary

import (
	"encoding/json"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/sells-group/vaservices/internal/model"
)

// PropertiesFunc returns the GeoJSON properties for the i-th region.
type PropertiesFunc func(i int, r model.Region) map[string]any

// FeatureCollection encodes regions as a GeoJSON FeatureCollection with a
// bbox member covering every geometry. Regions without geometry are encoded
// with a null geometry. Output is deterministic for identical input.
func FeatureCollection(regions []model.Region, props PropertiesFunc) ([]byte, error) {
	fc := geojson.FeatureCollection{
		BBox:     Extent(regions),
		Features: make([]*geojson.Feature, 0, len(regions)),
	}
	for i, r := range regions {
		f := &geojson.Feature{ID: r.Name}
		if r.Geometry != nil {
			f.Geometry = r.Geometry
		}
		if props != nil {
			f.Properties = props(i, r)
		} else {
			f.Properties = map[string]any{"name": r.Name}
		}
		fc.Features = append(fc.Features, f)
	}

	data, err := json.Marshal(&fc)
	if err != nil {
		return nil, eris.Wrap(err, "boundary: encode geojson")
	}
	return data, nil
}

// Extent returns the bounding box of all region geometries, or nil when no
// region has geometry.
func Extent(regions []model.Region) *geom.Bounds {
	var b *geom.Bounds
	for _, r := range regions {
		if r.Geometry == nil || r.Geometry.Empty() {
			continue
		}
		if b == nil {
			b = geom.NewBounds(geom.XY)
		}
		b.Extend(r.Geometry)
	}
	return b
}
