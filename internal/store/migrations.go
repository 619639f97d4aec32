package store

import (
	"fmt"
	"strings"
)

// dialect selects the SQL type names that differ between the supported
// engines. Calendar dates are stored as ISO-8601 TEXT in both so that date
// values round-trip byte-identically regardless of engine.
type dialect int

const (
	dialectSQLite dialect = iota
	dialectPostgres
)

func (d dialect) timestampType() string {
	if d == dialectPostgres {
		return "TIMESTAMPTZ"
	}
	return "DATETIME"
}

func (d dialect) boolType() string {
	if d == dialectPostgres {
		return "BOOLEAN"
	}
	return "INTEGER"
}

func (d dialect) floatType() string {
	if d == dialectPostgres {
		return "DOUBLE PRECISION"
	}
	return "REAL"
}

func (s *Store) migrate() error {
	ts := s.dialect.timestampType()
	boolean := s.dialect.boolType()
	float := s.dialect.floatType()

	migrations := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			email TEXT UNIQUE,
			created_at %s NOT NULL
		)`, ts),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS api_keys (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			key_hash TEXT UNIQUE NOT NULL,
			key_prefix TEXT NOT NULL,
			is_active %s NOT NULL,
			created_at %s NOT NULL,
			last_used %s
		)`, boolean, ts, ts),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS plants (
			id TEXT PRIMARY KEY,
			owner_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			species TEXT NOT NULL DEFAULT '',
			location TEXT NOT NULL DEFAULT '',
			acquired_on TEXT,
			watering_frequency_days INTEGER NOT NULL,
			last_watered TEXT,
			notes TEXT NOT NULL DEFAULT '',
			created_at %s NOT NULL,
			updated_at %s NOT NULL
		)`, ts, ts),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS watering_events (
			id TEXT PRIMARY KEY,
			owner_id TEXT NOT NULL,
			plant_id TEXT NOT NULL REFERENCES plants(id) ON DELETE CASCADE,
			watered_on TEXT NOT NULL,
			notes TEXT NOT NULL DEFAULT '',
			created_at %s NOT NULL
		)`, ts),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS growth_logs (
			id TEXT PRIMARY KEY,
			owner_id TEXT NOT NULL,
			plant_id TEXT NOT NULL REFERENCES plants(id) ON DELETE CASCADE,
			logged_on TEXT NOT NULL,
			measurement_kind TEXT NOT NULL,
			measurement_unit TEXT NOT NULL,
			value %s NOT NULL,
			notes TEXT NOT NULL DEFAULT '',
			created_at %s NOT NULL
		)`, float, ts),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS plant_images (
			id TEXT PRIMARY KEY,
			owner_id TEXT NOT NULL,
			plant_id TEXT NOT NULL REFERENCES plants(id) ON DELETE CASCADE,
			filename TEXT NOT NULL,
			caption TEXT NOT NULL DEFAULT '',
			taken_on TEXT NOT NULL,
			created_at %s NOT NULL
		)`, ts),

		`CREATE INDEX IF NOT EXISTS idx_api_keys_hash ON api_keys(key_hash)`,
		`CREATE INDEX IF NOT EXISTS idx_api_keys_user ON api_keys(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_plants_owner ON plants(owner_id)`,
		`CREATE INDEX IF NOT EXISTS idx_watering_events_plant ON watering_events(plant_id)`,
		`CREATE INDEX IF NOT EXISTS idx_growth_logs_plant ON growth_logs(plant_id)`,
		`CREATE INDEX IF NOT EXISTS idx_plant_images_plant ON plant_images(plant_id)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			// ALTER TABLE ADD COLUMN fails if the column already exists;
			// treat "duplicate column" as a no-op for idempotent migrations.
			if strings.Contains(err.Error(), "duplicate column") {
				continue
			}
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}
	return nil
}
