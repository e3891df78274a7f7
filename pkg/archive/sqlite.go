package archive

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	errs "github.com/matzehuels/chunkmaze/pkg/errors"
)

// SQLiteStore archives runs in an embedded SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens or creates the database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, errs.New(errs.ErrCodeInvalidConfig, "empty sqlite path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			seed INTEGER NOT NULL,
			round INTEGER NOT NULL,
			budget INTEGER NOT NULL,
			chunks INTEGER NOT NULL,
			created_at INTEGER NOT NULL,
			layout BLOB NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS runs_created ON runs(created_at DESC);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// Seeds are stored as their int64 bit pattern.
func (s *SQLiteStore) Put(ctx context.Context, r Run) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO runs (id, seed, round, budget, chunks, created_at, layout) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.ID, int64(r.Seed), r.Round, r.Budget, r.Chunks, r.CreatedAt.UnixNano(), r.Layout)
	if err != nil {
		return fmt.Errorf("archive run %s: %w", r.ID, err)
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, seed, round, budget, chunks, created_at, layout FROM runs WHERE id = ?`, id)
	r, err := scanRun(row.Scan, true)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, notFound(id)
	}
	return r, err
}

func (s *SQLiteStore) List(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, seed, round, budget, chunks, created_at FROM runs ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		r, err := scanRun(rows.Scan, false)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func scanRun(scan func(dest ...any) error, withLayout bool) (Run, error) {
	var (
		r       Run
		seed    int64
		created int64
	)
	dest := []any{&r.ID, &seed, &r.Round, &r.Budget, &r.Chunks, &created}
	if withLayout {
		dest = append(dest, &r.Layout)
	}
	if err := scan(dest...); err != nil {
		return Run{}, err
	}
	r.Seed = uint64(seed)
	r.CreatedAt = time.Unix(0, created).UTC()
	return r, nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }
