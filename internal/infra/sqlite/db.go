// Package sqlite provides the embedded persistence layer for reloop.
// One database file holds all core stores: inventory, transaction ledger,
// proof ledger, impact report documents, and the account directory.
// Handles are passed explicitly — there is no package-level singleton.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// DB wraps the SQLite handle and implements the domain store interfaces.
type DB struct {
	db *sql.DB
}

// Open creates (or opens) the reloop database inside dir and applies all
// schema migrations.
func Open(dir string) (*DB, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	path := filepath.Join(dir, "reloop.db")

	handle, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	db := &DB{db: handle}
	if err := db.migrate(); err != nil {
		handle.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// Close releases the underlying handle.
func (db *DB) Close() error { return db.db.Close() }

// migrate applies all schema statements. Each string is a single SQL
// statement (SQLite executes one at a time).
func (db *DB) migrate() error {
	for _, stmt := range Migrations() {
		if _, err := db.db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:min(40, len(stmt))], err)
		}
	}
	return nil
}

// Migrations returns the schema migration statements for all core stores.
func Migrations() []string {
	return []string{
		// Account directory (registration/login live outside the core;
		// the coordinator only resolves display names)
		`CREATE TABLE IF NOT EXISTS accounts (
			account_id   INTEGER PRIMARY KEY AUTOINCREMENT,
			company_name TEXT NOT NULL,
			role         TEXT NOT NULL DEFAULT 'Trader',
			location     TEXT NOT NULL DEFAULT '',
			created_at   TEXT NOT NULL DEFAULT (datetime('now'))
		)`,

		// Inventory of listed materials
		`CREATE TABLE IF NOT EXISTS materials (
			material_id       INTEGER PRIMARY KEY AUTOINCREMENT,
			owner_id          INTEGER NOT NULL,
			material_name     TEXT NOT NULL,
			category          TEXT NOT NULL DEFAULT 'Other',
			quantity_grams    INTEGER NOT NULL CHECK(quantity_grams > 0),
			price_cents_per_kg INTEGER NOT NULL CHECK(price_cents_per_kg > 0),
			status            TEXT NOT NULL DEFAULT 'Available',
			image_ref         TEXT DEFAULT '',
			listed_at         TEXT NOT NULL DEFAULT (datetime('now'))
		)`,
		`CREATE INDEX IF NOT EXISTS idx_materials_status ON materials(status)`,
		`CREATE INDEX IF NOT EXISTS idx_materials_owner ON materials(owner_id)`,

		// Canonical transaction ledger
		`CREATE TABLE IF NOT EXISTS transactions (
			transaction_id INTEGER PRIMARY KEY AUTOINCREMENT,
			buyer_id       INTEGER NOT NULL,
			seller_id      INTEGER NOT NULL,
			material_id    INTEGER NOT NULL,
			total_cents    INTEGER NOT NULL,
			created_at     TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_buyer ON transactions(buyer_id)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_material ON transactions(material_id)`,

		// Impact report documents. The metrics body is an opaque JSON
		// document keyed by transaction id — document-store semantics on
		// the embedded engine.
		`CREATE TABLE IF NOT EXISTS impact_reports (
			transaction_id INTEGER PRIMARY KEY,
			body_json      TEXT NOT NULL,
			generated_at   TEXT NOT NULL
		)`,

		// Append-only hash-chained proof ledger. The UNIQUE constraint on
		// transaction_id makes retries idempotent; seq orders the chain.
		`CREATE TABLE IF NOT EXISTS proof_ledger (
			seq            INTEGER PRIMARY KEY AUTOINCREMENT,
			transaction_id INTEGER NOT NULL UNIQUE,
			prev_hash      TEXT NOT NULL,
			curr_hash      TEXT NOT NULL,
			recorded_at    TEXT NOT NULL DEFAULT (datetime('now'))
		)`,
	}
}
