package servicemap

import (
	"fmt"

	"github.com/rotisserie/eris"

	"github.com/sells-group/vaservices/internal/model"
)

// Legend colors per category.
const (
	ColorAvailable    = "#007bff"
	ColorNotAvailable = "#FFC300"
	ColorNoData       = "#000080"
)

// Classify maps a flag to its category: nil is No data, 1 is Available,
// anything else is Not Available. Loaders only admit 0 and 1.
func Classify(flag *int) model.Category {
	switch {
	case flag == nil:
		return model.CategoryNoData
	case *flag == 1:
		return model.CategoryAvailable
	default:
		return model.CategoryNotAvailable
	}
}

// CategoryColor returns the legend color for c.
func CategoryColor(c model.Category) string {
	switch c {
	case model.CategoryAvailable:
		return ColorAvailable
	case model.CategoryNotAvailable:
		return ColorNotAvailable
	default:
		return ColorNoData
	}
}

// Choropleth classifies every joined record for one service. The field must
// be in the catalog.
func Choropleth(joined []model.JoinedRecord, catalog Catalog, field string) ([]model.Feature, error) {
	if _, ok := catalog.Lookup(field); !ok {
		return nil, eris.Wrapf(model.ErrUnknownService, "servicemap: %q", field)
	}

	features := make([]model.Feature, len(joined))
	for i, j := range joined {
		cat := Classify(j.Flag(field))
		features[i] = model.Feature{
			Region:   j.Region,
			Category: cat,
			Label:    fmt.Sprintf("%s: %s", j.Region.Name, cat),
		}
	}
	return features, nil
}

// Summarize counts features per category. Every category is present.
func Summarize(features []model.Feature) map[model.Category]int {
	counts := make(map[model.Category]int, len(model.Categories))
	for _, c := range model.Categories {
		counts[c] = 0
	}
	for _, f := range features {
		counts[f.Category]++
	}
	return counts
}
