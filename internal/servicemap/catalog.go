package servicemap

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/vaservices/internal/model"
)

// Catalog is an ordered list of services. Order is display order: dropdown
// entries for the choropleth and popup lines for markers.
type Catalog struct {
	Services []model.Service `yaml:"services" json:"services"`
}

// DefaultChoroplethCatalog returns the county table's service columns.
func DefaultChoroplethCatalog() Catalog {
	return Catalog{Services: []model.Service{
		{Field: "School Services", Label: "School Services"},
		{Field: "Adult Services", Label: "Adult Services"},
		{Field: "Behavioral Health", Label: "Behavioral Health"},
	}}
}

// DefaultMarkerCatalog returns the city table's service columns.
func DefaultMarkerCatalog() Catalog {
	return Catalog{Services: []model.Service{
		{Field: "ss", Label: "Support Services"},
		{Field: "as", Label: "Accommodation Services"},
		{Field: "bhs", Label: "Behavioral Health Services"},
	}}
}

// LoadCatalog reads a YAML catalog:
//
//	services:
//	  - field: ss
//	    label: Support Services
//
// A missing label defaults to the field name.
func LoadCatalog(path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, eris.Wrapf(model.ErrMissingFile, "servicemap: catalog %s", path)
	}

	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Catalog{}, eris.Wrapf(model.ErrUnparsableFile, "servicemap: catalog %s: %v", path, err)
	}

	if len(c.Services) == 0 {
		return Catalog{}, eris.Wrapf(model.ErrUnparsableFile, "servicemap: catalog %s lists no services", path)
	}
	seen := make(map[string]bool, len(c.Services))
	for i, s := range c.Services {
		if s.Field == "" {
			return Catalog{}, eris.Wrapf(model.ErrUnparsableFile, "servicemap: catalog %s entry %d has no field", path, i)
		}
		if seen[s.Field] {
			return Catalog{}, eris.Wrapf(model.ErrUnparsableFile, "servicemap: catalog %s repeats field %q", path, s.Field)
		}
		seen[s.Field] = true
		if s.Label == "" {
			c.Services[i].Label = s.Field
		}
	}

	return c, nil
}

// Lookup returns the service with the given field.
func (c Catalog) Lookup(field string) (model.Service, bool) {
	for _, s := range c.Services {
		if s.Field == field {
			return s, true
		}
	}
	return model.Service{}, false
}

// Fields returns the field names in catalog order.
func (c Catalog) Fields() []string {
	fields := make([]string, len(c.Services))
	for i, s := range c.Services {
		fields[i] = s.Field
	}
	return fields
}
