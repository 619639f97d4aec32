package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Store persists the tracker's entities: users, API keys, plants, watering
// events, growth logs, and image references. It is the only component that
// touches the database; every domain query it runs is scoped by the owning
// user's ID.
type Store struct {
	db      *sqlx.DB
	dialect dialect
}

// Open connects to the database identified by dsn and runs migrations.
//
//   - "" opens an in-memory SQLite database (tests, scratch use).
//   - "postgres://..." or "postgresql://..." opens PostgreSQL via pgx.
//   - anything else is treated as a SQLite file path.
func Open(dsn string) (*Store, error) {
	var (
		driver  string
		d       dialect
		connStr string
	)

	switch {
	case dsn == "":
		driver, d = "sqlite", dialectSQLite
		connStr = ":memory:?_journal_mode=WAL"
	case strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://"):
		driver, d = "pgx", dialectPostgres
		connStr = dsn
	default:
		driver, d = "sqlite", dialectSQLite
		connStr = dsn + "?_journal_mode=WAL&_busy_timeout=5000"
	}

	db, err := sqlx.Connect(driver, connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if d == dialectSQLite {
		db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes

		// Foreign keys are off by default in SQLite; cascade deletes
		// depend on them.
		if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			return nil, fmt.Errorf("enable foreign keys: %w", err)
		}
	}

	s := &Store{db: db, dialect: d}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the database connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// rebind translates ?-style placeholders to the connected driver's format.
func (s *Store) rebind(query string) string {
	return s.db.Rebind(query)
}

// newID returns a fresh globally-unique opaque identifier. UUIDv7 keeps
// insertion order roughly sortable, which is friendly to b-tree indexes.
func newID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// now returns the current UTC time truncated to microseconds, the common
// precision across both supported engines.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// isUniqueViolation reports whether err is a unique-constraint violation.
// Both engines only surface this through the error text.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key")
}
