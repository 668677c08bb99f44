// Package sqlite provides a SQLite implementation of storage.HistoryStore,
// the default persistence for single-user desktop deployments. It uses the
// pure-Go modernc.org/sqlite driver and builds queries with squirrel.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	sq "github.com/Masterminds/squirrel"
	msqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/rhuss/simple-translate/pkg/storage"
)

// Store is a SQLite-backed HistoryStore.
type Store struct {
	db *sql.DB
	sq sq.StatementBuilderType
}

// Ensure Store implements storage.HistoryStore at compile time.
var _ storage.HistoryStore = (*Store)(nil)

// New opens (creating if needed) the database at cfg.Path, applies pragmas,
// and runs pending migrations.
func New(ctx context.Context, cfg Config) (*Store, error) {
	cfg.defaults()
	if cfg.Path == "" {
		return nil, errors.New("sqlite: path is required")
	}

	if cfg.Path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o700); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite: %w", err)
	}
	// One connection serializes writers and keeps an in-memory database
	// alive for the lifetime of the store.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		fmt.Sprintf("PRAGMA busy_timeout = %d", cfg.BusyTimeout.Milliseconds()),
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			db.Close()
			return nil, fmt.Errorf("pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db, sq: sq.StatementBuilder}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Save inserts a record.
func (s *Store) Save(ctx context.Context, rec *storage.Record) error {
	query, args, err := s.sq.Insert("history").
		Columns(storage.Columns...).
		Values(rec.ID, rec.SourceLanguage, rec.TargetLanguage,
			rec.SourceText, rec.TranslatedText, rec.Model, toMillis(rec.CreatedAt)).
		ToSql()
	if err != nil {
		return fmt.Errorf("building insert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		if isConstraintViolation(err) {
			return storage.ErrConflict
		}
		return fmt.Errorf("inserting record: %w", err)
	}
	return nil
}

// Get retrieves a record by ID.
func (s *Store) Get(ctx context.Context, id string) (*storage.Record, error) {
	query, args, err := s.sq.Select(storage.Columns...).
		From("history").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building select: %w", err)
	}

	rec, err := scanRecord(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying record: %w", err)
	}
	return rec, nil
}

// List returns a page of records.
func (s *Store) List(ctx context.Context, opts storage.ListOptions) (*storage.RecordList, error) {
	limit := opts.EffectiveLimit()

	var cursor *storage.Record
	if id, _ := opts.Cursor(); id != "" {
		c, err := s.Get(ctx, id)
		if errors.Is(err, storage.ErrNotFound) {
			return storage.NewRecordList(nil, limit), nil
		}
		if err != nil {
			return nil, err
		}
		cursor = c
	}

	q := storage.ListQuery(s.sq.Select(storage.Columns...).From("history"), opts, cursor,
		func(t time.Time) any { return toMillis(t) })
	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building list: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing records: %w", err)
	}
	defer rows.Close()

	var recs []*storage.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing records: %w", err)
	}

	return storage.NewRecordList(recs, limit), nil
}

// Delete removes a record.
func (s *Store) Delete(ctx context.Context, id string) error {
	query, args, err := s.sq.Delete("history").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("building delete: %w", err)
	}

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("deleting record: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting record: %w", err)
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// HealthCheck verifies the database is reachable.
func (s *Store) HealthCheck(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*storage.Record, error) {
	var rec storage.Record
	var created int64
	if err := row.Scan(&rec.ID, &rec.SourceLanguage, &rec.TargetLanguage,
		&rec.SourceText, &rec.TranslatedText, &rec.Model, &created); err != nil {
		return nil, err
	}
	rec.CreatedAt = time.UnixMilli(created).UTC()
	return &rec, nil
}

func toMillis(t time.Time) int64 {
	return t.UnixMilli()
}

// isConstraintViolation reports a primary key or unique constraint failure.
func isConstraintViolation(err error) bool {
	var se *msqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() {
	case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_UNIQUE:
		return true
	}
	return false
}
