package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/okian/hirepulse/internal/domain/model"
	"github.com/okian/hirepulse/pkg/metrics"

	_ "modernc.org/sqlite"
)

const driverSQLite = "sqlite"

const schema = `
CREATE TABLE IF NOT EXISTS datasets (
	id           TEXT PRIMARY KEY,
	name         TEXT NOT NULL,
	imported_at  TIMESTAMP NOT NULL,
	candidates   INTEGER NOT NULL,
	requisitions INTEGER NOT NULL,
	events       INTEGER NOT NULL,
	users        INTEGER NOT NULL,
	payload      BLOB NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_datasets_imported_at ON datasets (imported_at, id);
`

// SQLiteStore persists datasets in a SQLite file. Collections are stored as
// a JSON payload next to denormalized counts so List never decodes payloads.
type SQLiteStore struct {
	db   *sql.DB
	opts options
}

// NewSQLiteStore opens (or creates) the database at path and ensures the schema.
// Use ":memory:" for a throwaway database.
func NewSQLiteStore(ctx context.Context, path string, opts ...Option) (*SQLiteStore, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// SQLite allows one writer; a single connection also keeps ":memory:" shared.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	s := &SQLiteStore{db: db, opts: o}
	metrics.UpdateDatasetCount(s.Count(ctx))
	return s, nil
}

// Put implements Store.
func (s *SQLiteStore) Put(ctx context.Context, ds *model.Dataset) error {
	defer observe(driverSQLite, "put", time.Now())

	s.opts.stamp(ds)
	payload, err := json.Marshal(ds)
	if err != nil {
		return fmt.Errorf("encode dataset %s: %w", ds.ID, err)
	}
	sum := ds.Summary()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO datasets (id, name, imported_at, candidates, requisitions, events, users, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			imported_at = excluded.imported_at,
			candidates = excluded.candidates,
			requisitions = excluded.requisitions,
			events = excluded.events,
			users = excluded.users,
			payload = excluded.payload`,
		sum.ID, sum.Name, sum.ImportedAt.UTC(), sum.Candidates, sum.Requisitions, sum.Events, sum.Users, payload,
	)
	if err != nil {
		return s.wrap("put", err)
	}
	metrics.UpdateDatasetCount(s.Count(ctx))
	return nil
}

// Get implements Store.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*model.Dataset, error) {
	defer observe(driverSQLite, "get", time.Now())

	var payload []byte
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM datasets WHERE id = ?`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, s.wrap("get", err)
	}

	var ds model.Dataset
	if err := json.Unmarshal(payload, &ds); err != nil {
		return nil, fmt.Errorf("decode dataset %s: %w", id, err)
	}
	return &ds, nil
}

// List implements Store.
func (s *SQLiteStore) List(ctx context.Context) ([]model.DatasetSummary, error) {
	defer observe(driverSQLite, "list", time.Now())

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, imported_at, candidates, requisitions, events, users
		FROM datasets`)
	if err != nil {
		return nil, s.wrap("list", err)
	}
	defer rows.Close()

	out := []model.DatasetSummary{}
	for rows.Next() {
		var sum model.DatasetSummary
		if err := rows.Scan(&sum.ID, &sum.Name, &sum.ImportedAt, &sum.Candidates, &sum.Requisitions, &sum.Events, &sum.Users); err != nil {
			return nil, s.wrap("list", err)
		}
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, s.wrap("list", err)
	}
	sortSummaries(out)
	return out, nil
}

// Delete implements Store.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	defer observe(driverSQLite, "delete", time.Now())

	res, err := s.db.ExecContext(ctx, `DELETE FROM datasets WHERE id = ?`, id)
	if err != nil {
		return s.wrap("delete", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return s.wrap("delete", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	metrics.UpdateDatasetCount(s.Count(ctx))
	return nil
}

// Count implements Store. Errors count as zero.
func (s *SQLiteStore) Count(ctx context.Context) int {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM datasets`).Scan(&n); err != nil {
		return 0
	}
	return n
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) wrap(op string, err error) error {
	if errors.Is(err, sql.ErrConnDone) {
		return fmt.Errorf("sqlite %s: %w", op, ErrClosed)
	}
	return fmt.Errorf("sqlite %s: %w", op, err)
}
