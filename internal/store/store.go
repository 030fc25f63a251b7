package store

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

//go:embed schema.sql
var schemaSQL string

// ErrRunNotFound is returned when a run id has no record.
var ErrRunNotFound = errors.New("run not found")

// migration upgrades a database from version-1 to version. Statements
// must be idempotent: fresh databases already have them from schema.sql.
type migration struct {
	version int
	name    string
	stmt    string
}

var migrations = []migration{
	{1, "runs.created_seq index", `CREATE INDEX IF NOT EXISTS idx_runs_created_seq ON runs(created_seq)`},
}

// currentSchemaVersion is the user_version of a fully migrated database.
var currentSchemaVersion = migrations[len(migrations)-1].version

// Store is the SQLite solve log: one row per run plus its initial grid,
// snapshot, and the edits and diffs of every paint step.
type Store struct {
	db     *sql.DB
	logger zerolog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for schema and migration messages.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// Open creates or opens the solve log at path and brings its schema up to
// date. Opening an existing log again is harmless.
//
// The connection runs in WAL mode with NORMAL sync, a 5s busy timeout and
// foreign keys enforced; runs and their rows are deleted together.
func Open(path string, opts ...Option) (*Store, error) {
	s := &Store{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(s)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// one writer; more connections only buy SQLITE_BUSY
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}
	s.db = db
	if err := s.applySchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	s.logger.Debug().Str("path", path).Int("schema", currentSchemaVersion).Msg("solve log opened")
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying handle. Tests use it to corrupt logs on purpose.
func (s *Store) DB() *sql.DB {
	return s.db
}

func applyPragmas(db *sql.DB) error {
	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

// applySchema creates missing tables, then runs every migration newer
// than the stored user_version.
func (s *Store) applySchema() error {
	if _, err := s.db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	var version int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}

	for _, m := range migrations {
		if m.version <= version {
			continue
		}
		if _, err := s.db.Exec(m.stmt); err != nil {
			return fmt.Errorf("migrate to v%d (%s): %w", m.version, m.name, err)
		}
		s.logger.Debug().Int("version", m.version).Str("migration", m.name).Msg("schema migrated")
	}

	if version != currentSchemaVersion {
		if _, err := s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
			return fmt.Errorf("set user_version: %w", err)
		}
	}
	return nil
}

// verifyPragma checks that a pragma is set to the expected value.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	if err := s.db.QueryRow("PRAGMA " + name).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
