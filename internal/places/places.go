// Package places resolves Virginia city names to coordinates. Lookups are
// case-insensitive on the trimmed name.
package places

import (
	"context"
	"sort"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/vaservices/internal/model"
)

// Entry is one named location.
type Entry struct {
	City  string
	Point model.Point
}

// Store is a persistent locator that can be loaded with entries.
type Store interface {
	Locate(ctx context.Context, city string) (model.Point, error)
	Migrate(ctx context.Context) error
	Upsert(ctx context.Context, entries []Entry) (int64, error)
	Close() error
}

// Normalize returns the lookup key for a city name.
func Normalize(city string) string {
	return strings.ToLower(strings.TrimSpace(city))
}

// Table is an in-memory locator.
type Table struct {
	points map[string]model.Point
}

// NewTable builds a Table. Later entries replace earlier ones with the same
// normalized name.
func NewTable(entries []Entry) *Table {
	t := &Table{points: make(map[string]model.Point, len(entries))}
	for _, e := range entries {
		t.points[Normalize(e.City)] = e.Point
	}
	return t
}

// DefaultTable returns the built-in coordinates for the cities in the
// bundled service data.
func DefaultTable() *Table {
	return NewTable([]Entry{
		{City: "charlottesville", Point: model.Point{Lat: 38.0293, Lon: -78.4767}},
		{City: "roanoke", Point: model.Point{Lat: 37.2710, Lon: -79.9414}},
		{City: "lynchburg", Point: model.Point{Lat: 37.4138, Lon: -79.1422}},
		{City: "lexington", Point: model.Point{Lat: 37.7840, Lon: -79.4428}},
	})
}

// Locate returns the coordinates for city.
func (t *Table) Locate(_ context.Context, city string) (model.Point, error) {
	pt, ok := t.points[Normalize(city)]
	if !ok {
		return model.Point{}, eris.Wrapf(model.ErrMissingJoinKey, "places: no coordinates for %q", city)
	}
	return pt, nil
}

// Entries returns the table contents sorted by city.
func (t *Table) Entries() []Entry {
	out := make([]Entry, 0, len(t.points))
	for city, pt := range t.points {
		out = append(out, Entry{City: city, Point: pt})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].City < out[j].City })
	return out
}

// Unique normalizes city names and drops duplicates, keeping the last entry
// for each city. The result is sorted by city.
func Unique(entries []Entry) []Entry {
	return NewTable(entries).Entries()
}

// Len returns the number of cities in the table.
func (t *Table) Len() int { return len(t.points) }
