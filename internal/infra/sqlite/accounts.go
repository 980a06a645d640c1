// Account directory operations. Registration and login live outside the
// core; the coordinator only resolves display names for proof payloads.
package sqlite

import (
	"database/sql"

	"github.com/reloop-exchange/reloop/internal/domain"
)

// ─── Account Operations ─────────────────────────────────────────────────────

// InsertAccount creates an account and returns its id.
func (db *DB) InsertAccount(companyName, role, location string) (int64, error) {
	res, err := db.db.Exec(`
		INSERT INTO accounts (company_name, role, location)
		VALUES (?, ?, ?)
	`, companyName, role, location)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// DisplayName returns the company name for an account.
// Returns domain.ErrAccountNotFound for unknown ids.
func (db *DB) DisplayName(id int64) (string, error) {
	var name string
	err := db.db.QueryRow(`
		SELECT company_name FROM accounts WHERE account_id = ?
	`, id).Scan(&name)
	if err == sql.ErrNoRows {
		return "", domain.ErrAccountNotFound
	}
	return name, err
}
