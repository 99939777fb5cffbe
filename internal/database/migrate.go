package database

import (
	"database/sql"
	"fmt"

	"go.uber.org/zap"
)

// A migration is a single versioned schema step. Applied versions are
// recorded in the schema_migrations table so each step runs exactly once per
// database, at startup rather than on the data path.
type migration struct {
	version int
	name    string
	apply   func(tx *sql.Tx) error
}

// migrations must stay append-only: never renumber or edit a released step.
var migrations = []migration{
	{1, "base schema", migrateBaseSchema},
	{2, "screenshot visibility flags", migrateScreenshotVisibility},
	{3, "single active promo code index", migratePromoCodeIndex},
}

// Migrate brings the database schema up to date. It is idempotent: running it
// again (even within the same process) applies nothing and returns nil.
func (s *Service) Migrate() error {
	err := s.Write(func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			CREATE TABLE IF NOT EXISTS schema_migrations (
				version INTEGER PRIMARY KEY,
				name TEXT NOT NULL,
				applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
			);`)
		return err
	})
	if err != nil {
		return fmt.Errorf("could not create schema_migrations table: %w", err)
	}

	for _, m := range migrations {
		var applied bool
		err := s.db.QueryRow(`SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = ?);`, m.version).Scan(&applied)
		if err != nil {
			return fmt.Errorf("could not check migration %d: %w", m.version, err)
		}
		if applied {
			continue
		}

		err = s.Write(func(tx *sql.Tx) error {
			if err := m.apply(tx); err != nil {
				return err
			}
			_, err := tx.Exec(`INSERT INTO schema_migrations (version, name) VALUES (?, ?);`, m.version, m.name)
			return err
		})
		if err != nil {
			return fmt.Errorf("migration %d (%s) failed: %w", m.version, m.name, err)
		}
		s.log.Info("applied migration", zap.Int("version", m.version), zap.String("name", m.name))
	}

	return nil
}

func migrateBaseSchema(tx *sql.Tx) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS events (
			id INTEGER PRIMARY KEY,
			type TEXT NOT NULL,
			source TEXT,
			device TEXT NOT NULL DEFAULT 'desktop',
			browser TEXT NOT NULL DEFAULT 'unknown',
			country TEXT,
			session_id TEXT,
			metadata TEXT NOT NULL DEFAULT '{}',
			created_at DATETIME NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_events_type_created ON events (type, created_at);`,
		`CREATE TABLE IF NOT EXISTS leads (
			id INTEGER PRIMARY KEY,
			email TEXT NOT NULL,
			phone TEXT,
			promo_code TEXT,
			source TEXT,
			device TEXT,
			browser TEXT,
			country TEXT,
			status TEXT NOT NULL DEFAULT 'new',
			created_at DATETIME NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS testimonials (
			id INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			text TEXT NOT NULL,
			date TEXT,
			source TEXT,
			image_url TEXT,
			rating INTEGER NOT NULL DEFAULT 5,
			is_active INTEGER NOT NULL DEFAULT 0,
			sort_order INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE TABLE IF NOT EXISTS winning_screenshots (
			id INTEGER PRIMARY KEY,
			name TEXT NOT NULL DEFAULT '',
			message TEXT NOT NULL DEFAULT '',
			amount TEXT NOT NULL DEFAULT '',
			time TEXT NOT NULL DEFAULT '',
			image_url TEXT,
			type TEXT NOT NULL DEFAULT 'winning',
			is_active INTEGER NOT NULL DEFAULT 1,
			sort_order INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE TABLE IF NOT EXISTS videos (
			id INTEGER PRIMARY KEY,
			title TEXT NOT NULL,
			url TEXT NOT NULL,
			thumbnail_url TEXT,
			is_active INTEGER NOT NULL DEFAULT 1,
			is_tutorial INTEGER NOT NULL DEFAULT 0,
			sort_order INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE TABLE IF NOT EXISTS promo_codes (
			id INTEGER PRIMARY KEY,
			code TEXT NOT NULL,
			is_active INTEGER NOT NULL DEFAULT 0
		);`,
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS push_subscriptions (
			id INTEGER PRIMARY KEY,
			endpoint TEXT NOT NULL UNIQUE,
			p256dh TEXT NOT NULL,
			auth TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS admins (
			id INTEGER PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			password_hash TEXT,
			name TEXT NOT NULL,
			role TEXT NOT NULL DEFAULT 'admin',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);`,
	}

	for _, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// migrateScreenshotVisibility adds the four per-field visibility flags to the
// screenshots table. Earlier deployments patched these columns in lazily on
// the request path; here they are a regular migration step. Each column is
// guarded by a table_info lookup so the step is safe to re-run against a
// database that already has some or all of them.
func migrateScreenshotVisibility(tx *sql.Tx) error {
	for _, column := range []string{"show_name", "show_message", "show_amount", "show_time"} {
		if err := addColumnIfMissing(tx, "winning_screenshots", column, "INTEGER NOT NULL DEFAULT 1"); err != nil {
			return err
		}
	}
	return nil
}

// migratePromoCodeIndex makes the "exactly one active promo code" rule a real
// database constraint instead of a convention: a partial unique index rejects
// a second row with is_active=1.
func migratePromoCodeIndex(tx *sql.Tx) error {
	_, err := tx.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS uq_promo_codes_active ON promo_codes (is_active) WHERE is_active = 1;`)
	return err
}

// addColumnIfMissing issues an ALTER TABLE ADD COLUMN only when the column is
// absent, so duplicate application cannot fail or corrupt state.
func addColumnIfMissing(tx *sql.Tx, table, column, definition string) error {
	exists, err := columnExists(tx, table, column)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	_, err = tx.Exec(fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s;", table, column, definition))
	return err
}

func columnExists(tx *sql.Tx, table, column string) (bool, error) {
	rows, err := tx.Query(fmt.Sprintf("PRAGMA table_info(%s);", table))
	if err != nil {
		return false, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid        int
			name       string
			typ        string
			notNull    int
			defaultVal sql.NullString
			pk         int
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &defaultVal, &pk); err != nil {
			return false, err
		}
		if name == column {
			return true, nil
		}
	}
	return false, rows.Err()
}
