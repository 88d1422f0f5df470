package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/vaservices/internal/boundary"
	"github.com/sells-group/vaservices/internal/config"
	"github.com/sells-group/vaservices/internal/places"
	"github.com/sells-group/vaservices/internal/servicemap"
)

// pipelineEnv holds the map pipeline and the locator resources it uses.
type pipelineEnv struct {
	Pipeline     *servicemap.Pipeline
	closeLocator func() error
}

// Close releases resources held by the pipeline environment.
func (pe *pipelineEnv) Close() {
	if pe.closeLocator != nil {
		if err := pe.closeLocator(); err != nil {
			zap.L().Warn("close places store", zap.Error(err))
		}
	}
}

// initPipeline validates c for mode, loads the service catalogs, opens the
// places locator and builds the Pipeline. Callers should defer env.Close().
func initPipeline(ctx context.Context, c *config.Config, mode string) (*pipelineEnv, error) {
	if err := c.Validate(mode); err != nil {
		return nil, err
	}

	opts, err := pipelineOptions(c)
	if err != nil {
		return nil, err
	}

	loc, closeFn, err := places.Open(ctx, c.Places)
	if err != nil {
		return nil, eris.Wrap(err, "open places")
	}

	zap.L().Debug("pipeline initialized",
		zap.String("boundary", c.Data.BoundaryPath),
		zap.String("counties", c.Data.CountyPath),
		zap.String("cities", c.Data.CityPath),
		zap.String("places_driver", c.Places.Driver),
	)

	return &pipelineEnv{
		Pipeline:     servicemap.NewPipeline(opts, loc),
		closeLocator: closeFn,
	}, nil
}

// pipelineOptions maps the config onto servicemap options, loading catalog
// files when configured.
func pipelineOptions(c *config.Config) (servicemap.PipelineOptions, error) {
	opts := servicemap.PipelineOptions{
		Sources: servicemap.Sources{
			BoundaryPath: c.Data.BoundaryPath,
			Boundary: boundary.Options{
				KeyField: c.Data.BoundaryKey,
				StateFP:  c.Data.StateFP,
			},
			CountyPath: c.Data.CountyPath,
			CountyKey:  c.Data.CountyKey,
			CityPath:   c.Data.CityPath,
			CityKey:    c.Data.CityKey,
		},
		CacheEntries: c.Cache.MaxEntries,
		CacheTTL:     c.Cache.TTL,
	}

	if c.Marker.NullStatus != "" {
		status, err := servicemap.ParseNullStatus(c.Marker.NullStatus)
		if err != nil {
			return opts, eris.Wrap(err, "config: marker.null_status")
		}
		opts.Marker.NullStatus = status
	}

	if path := c.Data.ChoroplethCatalog; path != "" {
		catalog, err := servicemap.LoadCatalog(path)
		if err != nil {
			return opts, err
		}
		opts.ChoroplethCatalog = catalog
	}
	if path := c.Data.MarkerCatalog; path != "" {
		catalog, err := servicemap.LoadCatalog(path)
		if err != nil {
			return opts, err
		}
		opts.MarkerCatalog = catalog
	}

	return opts, nil
}
