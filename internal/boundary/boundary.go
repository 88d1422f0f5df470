// Package boundary loads county boundary shapefiles into named regions.
package boundary

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/sells-group/vaservices/internal/fetcher"
	"github.com/sells-group/vaservices/internal/model"
)

// DefaultKeyField is the DBF field holding the county name in TIGER files.
const DefaultKeyField = "NAME"

// Options configures Load.
type Options struct {
	KeyField string // DBF field used as the region name; default NAME
	StateFP  string // keep only records whose STATEFP equals this, when set
}

// Load reads a .shp file, or a .zip archive containing one, and returns one
// Region per record in file order. Records whose shape is null, not a polygon,
// or made only of degenerate rings keep a nil Geometry.
func Load(path string, opts Options) ([]model.Region, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, eris.Wrapf(model.ErrMissingFile, "boundary: %s", path)
	}

	if strings.EqualFold(filepath.Ext(path), ".zip") {
		return loadZIP(path, opts)
	}
	return loadShapefile(path, opts)
}

// Companions returns the sidecar files a .shp path is read together with.
// Other paths have none.
func Companions(path string) []string {
	ext := filepath.Ext(path)
	if !strings.EqualFold(ext, ".shp") {
		return nil
	}
	base := strings.TrimSuffix(path, ext)
	return []string{base + ".dbf", base + ".shx"}
}

func loadZIP(path string, opts Options) ([]model.Region, error) {
	dir, err := os.MkdirTemp("", "boundary-*")
	if err != nil {
		return nil, eris.Wrap(err, "boundary: create temp dir")
	}
	defer os.RemoveAll(dir) //nolint:errcheck

	extracted, err := fetcher.ExtractZIP(path, dir)
	if err != nil {
		return nil, eris.Wrapf(model.ErrUnparsableFile, "boundary: %s: %v", path, err)
	}
	shpPath, err := fetcher.FindByExt(extracted, ".shp")
	if err != nil {
		return nil, eris.Wrapf(model.ErrUnparsableFile, "boundary: %s: %v", path, err)
	}
	return loadShapefile(shpPath, opts)
}

func loadShapefile(path string, opts Options) ([]model.Region, error) {
	keyField := opts.KeyField
	if keyField == "" {
		keyField = DefaultKeyField
	}

	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrapf(model.ErrUnparsableFile, "boundary: open %s: %v", path, err)
	}
	defer func() { _ = reader.Close() }()

	fields := reader.Fields()
	names := make([]string, len(fields))
	fieldIdx := make(map[string]int, len(fields))
	for i, f := range fields {
		name := strings.TrimRight(f.String(), "\x00")
		names[i] = name
		fieldIdx[strings.ToLower(name)] = i
	}

	keyIdx, ok := fieldIdx[strings.ToLower(keyField)]
	if !ok {
		return nil, eris.Wrapf(model.ErrUnparsableFile, "boundary: %s has no %s field", path, keyField)
	}
	stateIdx, hasState := fieldIdx["statefp"]
	filterState := opts.StateFP != "" && hasState

	var regions []model.Region
	var empty, filtered int

	for reader.Next() {
		_, shape := reader.Shape()

		if filterState && cleanAttr(reader.Attribute(stateIdx)) != opts.StateFP {
			filtered++
			continue
		}

		mp := toMultiPolygon(shape)
		if mp == nil {
			empty++
		}

		attrs := make(map[string]string, len(names))
		for i, name := range names {
			attrs[name] = cleanAttr(reader.Attribute(i))
		}

		regions = append(regions, model.Region{
			Name:       cleanAttr(reader.Attribute(keyIdx)),
			Attributes: attrs,
			Geometry:   mp,
		})
	}
	if err := reader.Err(); err != nil {
		return nil, eris.Wrapf(model.ErrUnparsableFile, "boundary: read %s: %v", path, err)
	}

	zap.L().Debug("boundary: shapefile loaded",
		zap.String("path", path),
		zap.Int("regions", len(regions)),
		zap.Int("without_geometry", empty),
		zap.Int("filtered", filtered),
	)

	return regions, nil
}

func cleanAttr(v string) string {
	return strings.TrimSpace(strings.TrimRight(v, "\x00"))
}

// toMultiPolygon converts a shapefile Polygon into a MultiPolygon. Shapefile
// outer rings wind clockwise and holes counter-clockwise; each hole is
// attached to the outer ring preceding it.
func toMultiPolygon(shape shp.Shape) *geom.MultiPolygon {
	p, ok := shape.(*shp.Polygon)
	if !ok || p == nil || p.NumParts == 0 || len(p.Points) == 0 {
		return nil
	}

	mp := geom.NewMultiPolygon(geom.XY).SetSRID(4326)
	var current *geom.Polygon

	flush := func() {
		if current == nil {
			return
		}
		if err := mp.Push(current); err != nil {
			zap.L().Debug("boundary: skipping malformed polygon", zap.Error(err))
		}
		current = nil
	}

	for i := int32(0); i < p.NumParts; i++ {
		start := p.Parts[i]
		end := int32(len(p.Points))
		if i+1 < p.NumParts {
			end = p.Parts[i+1]
		}
		if start < 0 || end > int32(len(p.Points)) || end-start < 4 {
			zap.L().Debug("boundary: skipping degenerate ring", zap.Int32("part", i))
			continue
		}

		flat := make([]float64, 0, 2*(end-start))
		for j := start; j < end; j++ {
			flat = append(flat, p.Points[j].X, p.Points[j].Y)
		}
		ring := geom.NewLinearRingFlat(geom.XY, flat)

		if signedArea(flat) > 0 && current != nil {
			if err := current.Push(ring); err != nil {
				zap.L().Debug("boundary: skipping malformed hole", zap.Int32("part", i), zap.Error(err))
			}
			continue
		}

		flush()
		current = geom.NewPolygon(geom.XY)
		if err := current.Push(ring); err != nil {
			zap.L().Debug("boundary: skipping malformed ring", zap.Int32("part", i), zap.Error(err))
			current = nil
		}
	}
	flush()

	if mp.NumPolygons() == 0 {
		return nil
	}
	return mp
}

// signedArea returns the shoelace area of a closed ring; positive when the
// ring winds counter-clockwise.
func signedArea(flat []float64) float64 {
	var sum float64
	n := len(flat) / 2
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += flat[2*i]*flat[2*j+1] - flat[2*j]*flat[2*i+1]
	}
	return sum / 2
}
