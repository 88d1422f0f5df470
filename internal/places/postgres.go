package places

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/vaservices/internal/db"
	"github.com/sells-group/vaservices/internal/model"
	"github.com/sells-group/vaservices/internal/resilience"
)

// PostgresStore keeps places in Postgres through a pgx pool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
	retry   resilience.RetryConfig
}

// NewPostgres connects to Postgres and verifies the connection.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	cfg.MaxConns = 4
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	retry := resilience.DefaultRetryConfig()
	ping := retry
	ping.MaxAttempts = 5
	ping.OnRetry = resilience.RetryLogger("postgres ping")
	if err := resilience.Do(ctx, ping, pool.Ping); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close, retry: retry}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS places (
	city       TEXT PRIMARY KEY,
	lat        DOUBLE PRECISION NOT NULL,
	lon        DOUBLE PRECISION NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

var placesUpsert = db.UpsertConfig{
	Table:        "places",
	Columns:      []string{"city", "lat", "lon"},
	ConflictKeys: []string{"city"},
}

// SQLSTATEs raised while the server is overloaded or restarting.
var busyCodes = map[string]bool{
	"53300": true, // too_many_connections
	"57P03": true, // cannot_connect_now
	"40001": true, // serialization_failure
}

// markBusy marks server-busy errors as transient so Locate retries them.
func markBusy(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && busyCodes[pgErr.Code] {
		return resilience.MarkTransient(err)
	}
	return err
}

// Migrate creates the places table.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

// Close releases the pool.
func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

// Upsert bulk-loads entries, replacing coordinates of existing cities. When
// a city appears more than once the last entry wins.
func (s *PostgresStore) Upsert(ctx context.Context, entries []Entry) (int64, error) {
	entries = Unique(entries)
	rows := make([][]any, len(entries))
	for i, e := range entries {
		rows[i] = []any{e.City, e.Point.Lat, e.Point.Lon}
	}
	n, err := db.BulkUpsert(ctx, s.pool, placesUpsert, rows)
	return n, eris.Wrap(err, "postgres: upsert places")
}

// Locate returns the coordinates for city. Transient connection failures
// are retried.
func (s *PostgresStore) Locate(ctx context.Context, city string) (model.Point, error) {
	key := Normalize(city)
	pt, err := resilience.DoVal(ctx, s.retry, func(ctx context.Context) (model.Point, error) {
		var pt model.Point
		err := s.pool.QueryRow(ctx, `SELECT lat, lon FROM places WHERE city = $1`, key).Scan(&pt.Lat, &pt.Lon)
		return pt, markBusy(err)
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Point{}, eris.Wrapf(model.ErrMissingJoinKey, "postgres: no coordinates for %q", city)
	}
	if err != nil {
		return model.Point{}, eris.Wrapf(err, "postgres: locate %q", city)
	}
	return pt, nil
}
