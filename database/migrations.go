package database

import (
	"database/sql"
	"fmt"
	"log"
	"strings"
)

func RunMigrations(db *sql.DB) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			user_id INTEGER NOT NULL,
			username TEXT NOT NULL,
			role TEXT NOT NULL,
			token_enc TEXT,
			created_at DATETIME NOT NULL,
			last_seen_at DATETIME NOT NULL,
			expires_at DATETIME NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS admin_logs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			action TEXT NOT NULL,
			details TEXT,
			username TEXT,
			ip_address TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS staged_meter_readings (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			room_id INTEGER NOT NULL UNIQUE,
			value INTEGER NOT NULL,
			source TEXT NOT NULL,
			read_at DATETIME NOT NULL,
			received_at DATETIME NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS auto_billing_configs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			room_ids TEXT NOT NULL,
			schedule TEXT NOT NULL,
			tariff TEXT NOT NULL,
			common_charges TEXT,
			is_active INTEGER DEFAULT 1,
			last_run DATETIME,
			last_error TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE INDEX IF NOT EXISTS idx_sessions_expires ON sessions(expires_at)`,
		`CREATE INDEX IF NOT EXISTS idx_admin_logs_created ON admin_logs(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_auto_billing_active ON auto_billing_configs(is_active)`,
	}

	for i, migration := range migrations {
		if _, err := db.Exec(migration); err != nil {
			if !strings.Contains(err.Error(), "already exists") {
				return fmt.Errorf("migration %d: %w", i+1, err)
			}
		}
	}

	log.Println("Base tables and indexes created/verified")

	if err := addColumnIfMissing(db, "sessions", "language", `TEXT DEFAULT 'vi'`); err != nil {
		log.Printf("WARNING: sessions.language migration: %v", err)
	}

	if err := createTriggers(db); err != nil {
		log.Printf("Note: Triggers creation: %v", err)
	}

	log.Println("All migrations completed successfully")
	return nil
}

// addColumnIfMissing checks the stored table DDL before altering it.
func addColumnIfMissing(db *sql.DB, table, column, definition string) error {
	var ddl string
	err := db.QueryRow(`SELECT sql FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&ddl)
	if err != nil {
		return err
	}
	if strings.Contains(ddl, column) {
		return nil
	}

	log.Printf("Adding %s column to %s table...", column, table)
	_, err = db.Exec(fmt.Sprintf(`ALTER TABLE %s ADD COLUMN %s %s`, table, column, definition))
	if err != nil && !strings.Contains(err.Error(), "duplicate column") {
		return fmt.Errorf("failed to add %s column: %w", column, err)
	}
	return nil
}

func createTriggers(db *sql.DB) error {
	triggers := []string{
		`CREATE TRIGGER IF NOT EXISTS update_auto_billing_timestamp
		AFTER UPDATE ON auto_billing_configs
		FOR EACH ROW
		BEGIN
			UPDATE auto_billing_configs
			SET updated_at = CURRENT_TIMESTAMP
			WHERE id = NEW.id;
		END`,
	}

	for _, trigger := range triggers {
		if _, err := db.Exec(trigger); err != nil && !strings.Contains(err.Error(), "already exists") {
			return err
		}
	}
	return nil
}
