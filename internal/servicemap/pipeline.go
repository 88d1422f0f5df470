package servicemap

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/vaservices/internal/boundary"
	"github.com/sells-group/vaservices/internal/datacache"
	"github.com/sells-group/vaservices/internal/model"
	"github.com/sells-group/vaservices/internal/servicedata"
)

// Sources names the input files and join keys.
type Sources struct {
	BoundaryPath string
	Boundary     boundary.Options
	CountyPath   string
	CountyKey    string
	CityPath     string
	CityKey      string
}

// PipelineOptions configures a Pipeline.
type PipelineOptions struct {
	Sources           Sources
	ChoroplethCatalog Catalog
	MarkerCatalog     Catalog
	Marker            MarkerOptions
	CacheEntries      int
	CacheTTL          time.Duration
}

// ChoroplethView is the classified county map for one service.
type ChoroplethView struct {
	Service   model.Service
	Features  []model.Feature
	Summary   map[model.Category]int
	Unmatched []string // attribute keys that name no county
}

// CacheStats reports the dataset caches.
type CacheStats struct {
	Boundaries datacache.Stats `json:"boundaries"`
	Counties   datacache.Stats `json:"counties"`
	Cities     datacache.Stats `json:"cities"`
}

// Pipeline loads, joins and classifies the input datasets. Parsed files are
// cached until they change on disk, so repeated calls on unchanged inputs
// return identical views.
type Pipeline struct {
	opts     PipelineOptions
	locator  Locator
	regions  *datacache.Cache[[]model.Region]
	counties *datacache.Cache[[]model.AttributeRecord]
	cities   *datacache.Cache[[]model.AttributeRecord]
}

// NewPipeline creates a Pipeline. Empty catalogs fall back to the defaults.
func NewPipeline(opts PipelineOptions, locator Locator) *Pipeline {
	if len(opts.ChoroplethCatalog.Services) == 0 {
		opts.ChoroplethCatalog = DefaultChoroplethCatalog()
	}
	if len(opts.MarkerCatalog.Services) == 0 {
		opts.MarkerCatalog = DefaultMarkerCatalog()
	}
	entries := opts.CacheEntries
	if entries <= 0 {
		entries = 1
	}
	return &Pipeline{
		opts:     opts,
		locator:  locator,
		regions:  datacache.New[[]model.Region](entries, opts.CacheTTL),
		counties: datacache.New[[]model.AttributeRecord](entries, opts.CacheTTL),
		cities:   datacache.New[[]model.AttributeRecord](entries, opts.CacheTTL),
	}
}

// ChoroplethCatalog returns the services selectable on the county map.
func (p *Pipeline) ChoroplethCatalog() Catalog { return p.opts.ChoroplethCatalog }

// MarkerCatalog returns the services listed in marker popups.
func (p *Pipeline) MarkerCatalog() Catalog { return p.opts.MarkerCatalog }

// Regions returns the county boundaries. An edit to the shapefile's .dbf or
// .shx also triggers a reload.
func (p *Pipeline) Regions(_ context.Context) ([]model.Region, error) {
	src := p.opts.Sources
	return p.regions.Get(src.BoundaryPath, func(path string) ([]model.Region, error) {
		return boundary.Load(path, src.Boundary)
	}, boundary.Companions(src.BoundaryPath)...)
}

// Choropleth classifies every county for the service with the given field.
func (p *Pipeline) Choropleth(ctx context.Context, field string) (*ChoroplethView, error) {
	svc, ok := p.opts.ChoroplethCatalog.Lookup(field)
	if !ok {
		return nil, eris.Wrapf(model.ErrUnknownService, "servicemap: %q", field)
	}

	regions, err := p.Regions(ctx)
	if err != nil {
		return nil, err
	}

	src := p.opts.Sources
	attrs, err := p.counties.Get(src.CountyPath, func(path string) ([]model.AttributeRecord, error) {
		return servicedata.Load(ctx, path, servicedata.Options{
			KeyColumn:   src.CountyKey,
			FlagColumns: p.opts.ChoroplethCatalog.Fields(),
		})
	})
	if err != nil {
		return nil, err
	}

	features, err := Choropleth(Join(regions, attrs), p.opts.ChoroplethCatalog, svc.Field)
	if err != nil {
		return nil, err
	}

	view := &ChoroplethView{
		Service:   svc,
		Features:  features,
		Summary:   Summarize(features),
		Unmatched: UnmatchedKeys(regions, attrs),
	}
	zap.L().Debug("servicemap: choropleth built",
		zap.String("service", svc.Field),
		zap.Int("features", len(features)),
		zap.Int("unmatched", len(view.Unmatched)),
	)
	return view, nil
}

// Markers builds the city markers.
func (p *Pipeline) Markers(ctx context.Context) ([]model.Marker, error) {
	src := p.opts.Sources
	attrs, err := p.cities.Get(src.CityPath, func(path string) ([]model.AttributeRecord, error) {
		return servicedata.Load(ctx, path, servicedata.Options{
			KeyColumn:   src.CityKey,
			FlagColumns: p.opts.MarkerCatalog.Fields(),
		})
	})
	if err != nil {
		return nil, err
	}

	return Markers(ctx, attrs, p.locator, p.opts.MarkerCatalog, p.opts.Marker)
}

// PurgeCaches drops every cached dataset so the next request reloads from disk.
func (p *Pipeline) PurgeCaches() {
	p.regions.Purge()
	p.counties.Purge()
	p.cities.Purge()
	zap.L().Info("servicemap: dataset caches purged")
}

// CacheStats returns statistics for the dataset caches.
func (p *Pipeline) CacheStats() CacheStats {
	return CacheStats{
		Boundaries: p.regions.Stats(),
		Counties:   p.counties.Stats(),
		Cities:     p.cities.Stats(),
	}
}
