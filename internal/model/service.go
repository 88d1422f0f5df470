package model

import "strings"

// Category is the display class of a service flag.
type Category string

const (
	CategoryAvailable    Category = "Available"
	CategoryNotAvailable Category = "Not Available"
	CategoryNoData       Category = "No data"
)

// Categories lists every category in legend order.
var Categories = []Category{CategoryAvailable, CategoryNotAvailable, CategoryNoData}

// ParseCategory maps a config string onto a Category. Matching ignores case
// and surrounding whitespace.
func ParseCategory(s string) (Category, bool) {
	for _, c := range Categories {
		if strings.EqualFold(strings.TrimSpace(s), string(c)) {
			return c, true
		}
	}
	return "", false
}

// Service names one flag column and the label shown for it.
type Service struct {
	Field string `json:"field" yaml:"field"`
	Label string `json:"label" yaml:"label"`
}

// Feature is a classified county ready for the choropleth.
type Feature struct {
	Region   Region   `json:"region"`
	Category Category `json:"category"`
	Label    string   `json:"label"`
}

// Marker is a classified city ready for the marker map.
type Marker struct {
	City  string   `json:"city"`
	Title string   `json:"title"`
	Point Point    `json:"point"`
	Lines []string `json:"lines"`
}

// Popup returns the popup body, one line per service.
func (m Marker) Popup() string {
	return strings.Join(m.Lines, "\n")
}
