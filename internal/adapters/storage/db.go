package storage

import (
	"database/sql"
	"fmt"
	"log/slog"
)

// migration is a single schema step. Steps must be idempotent so a database
// without version tracking can be adopted in place.
type migration struct {
	version int
	apply   func(db *sql.DB) error
}

var migrations = []migration{
	{version: 1, apply: migrateBaseline},
}

// LatestSchemaVersion returns the highest known migration version.
func LatestSchemaVersion() int {
	return migrations[len(migrations)-1].version
}

// SchemaVersion returns the current schema version, 0 for an untracked database.
// PRE: db is a valid database connection
// POST: Returns the recorded version without modifying the database
func SchemaVersion(db *sql.DB) (int, error) {
	var exists int
	err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'`).Scan(&exists)
	if err != nil {
		return 0, fmt.Errorf("failed to check schema_version table: %w", err)
	}
	if exists == 0 {
		return 0, nil
	}
	var version int
	err = db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_version`).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return version, nil
}

// MigrateDB brings the database schema up to the latest version.
// PRE: db is a valid database connection, dbPath names it for logging
// POST: WAL mode and foreign keys enabled, all pending migrations applied
func MigrateDB(db *sql.DB, dbPath string) error {
	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	// Enable foreign key enforcement
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at TEXT NOT NULL DEFAULT (datetime('now'))
	)`); err != nil {
		return fmt.Errorf("failed to create schema_version table: %w", err)
	}

	current, err := SchemaVersion(db)
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		if err := m.apply(db); err != nil {
			return fmt.Errorf("migration %d failed: %w", m.version, err)
		}
		if _, err := db.Exec(`INSERT INTO schema_version (version) VALUES (?)`, m.version); err != nil {
			return fmt.Errorf("failed to record migration %d: %w", m.version, err)
		}
		slog.Info("schema_migrated", "db", dbPath, "version", m.version)
	}

	return nil
}

// migrateBaseline creates the full schema.
func migrateBaseline(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS gym (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		timezone TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS account (
		id TEXT PRIMARY KEY,
		gym_id TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL DEFAULT '',
		role TEXT NOT NULL,
		created_at TEXT NOT NULL,
		failed_logins INTEGER NOT NULL DEFAULT 0,
		locked_until TEXT,
		password_change_required INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS member (
		id TEXT PRIMARY KEY,
		gym_id TEXT NOT NULL,
		account_id TEXT,
		plan_id TEXT,
		lead_id TEXT,
		email TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		phone TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		joined_at TEXT
	);

	CREATE TABLE IF NOT EXISTS lead (
		id TEXT PRIMARY KEY,
		gym_id TEXT NOT NULL,
		name TEXT NOT NULL,
		email TEXT NOT NULL DEFAULT '',
		phone TEXT NOT NULL DEFAULT '',
		source TEXT NOT NULL,
		status TEXT NOT NULL,
		note TEXT NOT NULL DEFAULT '',
		contacted_at TEXT,
		closed_at TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT
	);

	CREATE TABLE IF NOT EXISTS trainer (
		id TEXT PRIMARY KEY,
		gym_id TEXT NOT NULL,
		account_id TEXT,
		name TEXT NOT NULL,
		specialty TEXT NOT NULL,
		hourly_rate_cents INTEGER NOT NULL DEFAULT 0,
		bio TEXT NOT NULL DEFAULT '',
		active INTEGER NOT NULL DEFAULT 1
	);

	CREATE TABLE IF NOT EXISTS membership_plan (
		id TEXT PRIMARY KEY,
		gym_id TEXT NOT NULL,
		name TEXT NOT NULL,
		fee_cents INTEGER NOT NULL DEFAULT 0,
		billing_period TEXT NOT NULL,
		class_allowance INTEGER NOT NULL DEFAULT -1,
		archived INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS product (
		id TEXT PRIMARY KEY,
		gym_id TEXT NOT NULL,
		name TEXT NOT NULL,
		price_cents INTEGER NOT NULL DEFAULT 0,
		stock INTEGER NOT NULL DEFAULT 0,
		archived INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS shop_order (
		id TEXT PRIMARY KEY,
		gym_id TEXT NOT NULL,
		member_id TEXT NOT NULL,
		status TEXT NOT NULL,
		total_cents INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		updated_at TEXT,
		FOREIGN KEY (member_id) REFERENCES member(id)
	);

	CREATE TABLE IF NOT EXISTS shop_order_item (
		id TEXT PRIMARY KEY,
		order_id TEXT NOT NULL,
		product_id TEXT NOT NULL,
		product_name TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		unit_price_cents INTEGER NOT NULL,
		FOREIGN KEY (order_id) REFERENCES shop_order(id)
	);

	CREATE TABLE IF NOT EXISTS exercise (
		id TEXT PRIMARY KEY,
		gym_id TEXT NOT NULL DEFAULT '',
		name TEXT NOT NULL,
		muscle_group TEXT NOT NULL,
		equipment TEXT NOT NULL DEFAULT '',
		instructions TEXT NOT NULL DEFAULT '',
		archived INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS workout_plan (
		id TEXT PRIMARY KEY,
		gym_id TEXT NOT NULL,
		name TEXT NOT NULL,
		difficulty TEXT NOT NULL,
		archived INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS plan_day (
		id TEXT PRIMARY KEY,
		plan_id TEXT NOT NULL,
		name TEXT NOT NULL,
		position INTEGER NOT NULL,
		FOREIGN KEY (plan_id) REFERENCES workout_plan(id)
	);

	CREATE TABLE IF NOT EXISTS plan_slot (
		id TEXT PRIMARY KEY,
		day_id TEXT NOT NULL,
		exercise_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		target_sets INTEGER NOT NULL,
		target_reps INTEGER NOT NULL,
		rest_seconds INTEGER NOT NULL DEFAULT 0,
		FOREIGN KEY (day_id) REFERENCES plan_day(id),
		FOREIGN KEY (exercise_id) REFERENCES exercise(id)
	);

	CREATE TABLE IF NOT EXISTS workout_session (
		id TEXT PRIMARY KEY,
		gym_id TEXT NOT NULL,
		member_id TEXT NOT NULL,
		plan_id TEXT NOT NULL,
		day_id TEXT NOT NULL,
		start_time TEXT NOT NULL,
		completed INTEGER NOT NULL DEFAULT 0,
		total_seconds INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		FOREIGN KEY (member_id) REFERENCES member(id)
	);

	CREATE TABLE IF NOT EXISTS exercise_log (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		exercise_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		status TEXT NOT NULL,
		start_time TEXT,
		end_time TEXT,
		duration_seconds INTEGER NOT NULL DEFAULT 0,
		FOREIGN KEY (session_id) REFERENCES workout_session(id)
	);

	CREATE TABLE IF NOT EXISTS timer_snapshot (
		device_id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		total_seconds INTEGER NOT NULL DEFAULT 0,
		exercise_seconds INTEGER NOT NULL DEFAULT 0,
		current_index INTEGER NOT NULL DEFAULT 0,
		exercise_active INTEGER NOT NULL DEFAULT 0,
		captured_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS audit_event (
		id TEXT PRIMARY KEY,
		gym_id TEXT NOT NULL DEFAULT '',
		timestamp TEXT NOT NULL,
		category TEXT NOT NULL,
		action TEXT NOT NULL,
		severity TEXT NOT NULL,
		actor_id TEXT NOT NULL DEFAULT '',
		actor_email TEXT NOT NULL DEFAULT '',
		actor_role TEXT NOT NULL DEFAULT '',
		resource_id TEXT NOT NULL DEFAULT '',
		resource_type TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		ip_address TEXT NOT NULL DEFAULT '',
		user_agent TEXT NOT NULL DEFAULT '',
		metadata TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS outbox (
		id TEXT PRIMARY KEY,
		action_type TEXT NOT NULL,
		payload TEXT NOT NULL,
		status TEXT NOT NULL,
		attempts INTEGER NOT NULL DEFAULT 0,
		max_attempts INTEGER NOT NULL DEFAULT 5,
		last_attempted_at TEXT,
		created_at TEXT NOT NULL,
		external_id TEXT,
		error_message TEXT
	);
	`

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}
