// Package store persists profiles, change history, templates, and
// backups in SQLite. All write paths that touch more than one row run
// inside a transaction; the single-active-profile invariant is enforced
// here, not in the services.
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/hugo-lorenzo-mato/aideconf/internal/core"
	"github.com/hugo-lorenzo-mato/aideconf/internal/fsutil"
	"github.com/hugo-lorenzo-mato/aideconf/internal/template"
)

//go:embed migrations/001_initial_schema.sql
var migrationV1 string

// Store wraps the SQLite database.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New opens (or creates) the database at dbPath, runs migrations, and
// seeds the built-in templates.
func New(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := fsutil.EnsureDir(dir); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("running migrations: %w (close error: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	if err := s.seedBuiltinTemplates(context.Background()); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("seeding templates: %w (close error: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("seeding templates: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Store) migrate() error {
	var version int
	err := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&version)
	if err != nil {
		// Table doesn't exist yet, run initial migration
		version = 0
	}
	if version < 1 {
		if _, err := s.db.Exec(migrationV1); err != nil {
			return fmt.Errorf("applying migration v1: %w", err)
		}
	}
	return nil
}

// seedBuiltinTemplates inserts the embedded catalogue, skipping names
// already present so a reopened database keeps user edits to usage
// counters.
func (s *Store) seedBuiltinTemplates(ctx context.Context) error {
	for _, t := range template.BuiltinTemplates() {
		var exists int
		err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM templates WHERE name = ?", t.Name).Scan(&exists)
		if err != nil {
			return err
		}
		if exists > 0 {
			continue
		}
		if err := s.insertTemplate(ctx, s.db, t); err != nil {
			return err
		}
	}
	return nil
}

// execer covers *sql.DB and *sql.Tx for helpers shared between the
// transactional and plain paths.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

func storageErr(op string, err error) *core.DomainError {
	return core.ErrStorage(op).WithCause(err)
}
