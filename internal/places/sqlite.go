package places

import (
	"context"
	"database/sql"
	"errors"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/vaservices/internal/model"
)

// SQLiteStore keeps places in a SQLite database using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS places (
	city       TEXT PRIMARY KEY,
	lat        REAL NOT NULL,
	lon        REAL NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);
`

// Migrate creates the places table.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Upsert inserts or replaces entries in one transaction. When a city appears
// more than once the last entry wins.
func (s *SQLiteStore) Upsert(ctx context.Context, entries []Entry) (int64, error) {
	entries = Unique(entries)
	if len(entries) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO places (city, lat, lon, updated_at) VALUES (?, ?, ?, datetime('now'))
		ON CONFLICT(city) DO UPDATE SET lat = excluded.lat, lon = excluded.lon, updated_at = excluded.updated_at`)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare upsert")
	}
	defer stmt.Close() //nolint:errcheck

	var n int64
	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx, e.City, e.Point.Lat, e.Point.Lon); err != nil {
			return 0, eris.Wrapf(err, "sqlite: upsert place %q", e.City)
		}
		n++
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit")
	}
	return n, nil
}

// Locate returns the coordinates for city.
func (s *SQLiteStore) Locate(ctx context.Context, city string) (model.Point, error) {
	var pt model.Point
	err := s.db.QueryRowContext(ctx,
		`SELECT lat, lon FROM places WHERE city = ?`, Normalize(city),
	).Scan(&pt.Lat, &pt.Lon)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Point{}, eris.Wrapf(model.ErrMissingJoinKey, "sqlite: no coordinates for %q", city)
	}
	if err != nil {
		return model.Point{}, eris.Wrapf(err, "sqlite: locate %q", city)
	}
	return pt, nil
}
