package servicemap

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sells-group/vaservices/internal/model"
)

// Locator resolves a city name to coordinates. Unknown cities return an
// error wrapping model.ErrMissingJoinKey.
type Locator interface {
	Locate(ctx context.Context, city string) (model.Point, error)
}

// ParseNullStatus maps a config string onto the status shown for a missing
// flag. Only Not Available and No data are allowed.
func ParseNullStatus(s string) (model.Category, error) {
	c, ok := model.ParseCategory(s)
	if !ok || c == model.CategoryAvailable {
		return "", eris.Errorf("servicemap: null status %q must be %q or %q",
			s, model.CategoryNotAvailable, model.CategoryNoData)
	}
	return c, nil
}

// MarkerOptions configures Markers.
type MarkerOptions struct {
	// NullStatus is the status shown for a missing flag. The zero value
	// shows Not Available.
	NullStatus model.Category
}

// Markers builds one marker per attribute row, in row order. Popup lines
// follow catalog order. A city the locator cannot place fails the whole
// call.
func Markers(ctx context.Context, attrs []model.AttributeRecord, loc Locator, catalog Catalog, opts MarkerOptions) ([]model.Marker, error) {
	nullStatus := opts.NullStatus
	if nullStatus == "" {
		nullStatus = model.CategoryNotAvailable
	}
	title := cases.Title(language.English)

	markers := make([]model.Marker, 0, len(attrs))
	for _, a := range attrs {
		pt, err := loc.Locate(ctx, a.Key)
		if err != nil {
			return nil, eris.Wrapf(err, "servicemap: marker for row %d", a.Row)
		}

		lines := make([]string, len(catalog.Services))
		for i, s := range catalog.Services {
			lines[i] = fmt.Sprintf("%s: %s", s.Label, popupStatus(a.Flag(s.Field), nullStatus))
		}

		markers = append(markers, model.Marker{
			City:  a.Key,
			Title: title.String(a.Key),
			Point: pt,
			Lines: lines,
		})
	}
	return markers, nil
}

func popupStatus(flag *int, nullStatus model.Category) model.Category {
	if flag == nil {
		return nullStatus
	}
	return Classify(flag)
}
