package places

import (
	"context"
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/vaservices/internal/fetcher"
	"github.com/sells-group/vaservices/internal/model"
)

// LoadCSV reads a city,lat,lon table (CSV, TSV or XLSX). Rows with an empty
// city are skipped.
func LoadCSV(ctx context.Context, path string) ([]Entry, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, eris.Wrapf(model.ErrMissingFile, "places: %s", path)
	}

	table, err := fetcher.ReadTable(ctx, path)
	if err != nil {
		return nil, eris.Wrapf(model.ErrUnparsableFile, "places: %v", err)
	}

	cols := make(map[string]int, 3)
	for _, name := range []string{"city", "lat", "lon"} {
		j := columnFold(table, name)
		if j < 0 {
			return nil, eris.Wrapf(model.ErrUnparsableFile, "places: %s has no %q column", path, name)
		}
		cols[name] = j
	}

	entries := make([]Entry, 0, len(table.Rows))
	for i := range table.Rows {
		city := strings.TrimSpace(table.Cell(i, cols["city"]))
		if city == "" {
			continue
		}
		lat, err := parseCoord(table.Cell(i, cols["lat"]), 90)
		if err != nil {
			return nil, eris.Wrapf(err, "places: %s row %d lat", path, i+1)
		}
		lon, err := parseCoord(table.Cell(i, cols["lon"]), 180)
		if err != nil {
			return nil, eris.Wrapf(err, "places: %s row %d lon", path, i+1)
		}
		entries = append(entries, Entry{City: city, Point: model.Point{Lat: lat, Lon: lon}})
	}

	zap.L().Debug("places: table loaded", zap.String("path", path), zap.Int("entries", len(entries)))
	return entries, nil
}

func columnFold(t *fetcher.Table, name string) int {
	for j, h := range t.Header {
		if strings.EqualFold(h, name) {
			return j
		}
	}
	return -1
}

func parseCoord(cell string, limit float64) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
	if err != nil {
		return 0, eris.Wrapf(model.ErrTypeCoercion, "value %q is not a number", cell)
	}
	if v < -limit || v > limit {
		return 0, eris.Wrapf(model.ErrTypeCoercion, "value %q is out of range", cell)
	}
	return v, nil
}
