package places

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/vaservices/internal/config"
	"github.com/sells-group/vaservices/internal/servicemap"
)

// Open returns the locator selected by cfg.Driver and a function releasing
// its resources.
func Open(ctx context.Context, cfg config.PlacesConfig) (servicemap.Locator, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Driver {
	case "", "builtin":
		return DefaultTable(), noop, nil
	case "csv":
		entries, err := LoadCSV(ctx, cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		table := NewTable(entries)
		zap.L().Info("places: csv table ready", zap.String("path", cfg.Path), zap.Int("cities", table.Len()))
		return table, noop, nil
	default:
		store, err := OpenStore(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	}
}

// OpenStore opens the database-backed store selected by cfg.Driver.
func OpenStore(ctx context.Context, cfg config.PlacesConfig) (Store, error) {
	switch cfg.Driver {
	case "sqlite":
		return NewSQLite(cfg.Path)
	case "postgres":
		return NewPostgres(ctx, cfg.DatabaseURL)
	default:
		return nil, eris.Errorf("places: driver %q has no store", cfg.Driver)
	}
}
