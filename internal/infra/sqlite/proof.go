// Proof ledger operations. Entries are append-only and hash-chained:
// each new entry links to the current chain head. The uniqueness
// constraint on transaction_id makes retries idempotent.
package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/reloop-exchange/reloop/internal/domain"
)

// ─── Proof Ledger Operations ────────────────────────────────────────────────

// AppendProof links a new entry to the chain head and inserts it.
// The head read is a correlated subquery inside the INSERT itself: one
// write statement, so concurrent appends serialize on the write lock
// (honoring busy_timeout) instead of failing a read-to-write upgrade,
// and the chain cannot fork.
// Returns domain.ErrProofExists when the transaction already has an entry.
func (db *DB) AppendProof(transactionID int64, currHash string) (*domain.ProofChainEntry, error) {
	res, err := db.db.Exec(`
		INSERT OR IGNORE INTO proof_ledger (transaction_id, prev_hash, curr_hash, recorded_at)
		VALUES (?, COALESCE((SELECT curr_hash FROM proof_ledger ORDER BY seq DESC LIMIT 1), ?), ?, ?)
	`, transactionID, domain.GenesisHash, currHash, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("insert: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return nil, domain.ErrProofExists
	}
	return db.GetProof(transactionID)
}

// GetProof returns the proof entry for a transaction, or nil when
// the proof is still pending. Absence is a valid, representable state.
func (db *DB) GetProof(transactionID int64) (*domain.ProofChainEntry, error) {
	var e domain.ProofChainEntry
	var recordedStr string
	err := db.db.QueryRow(`
		SELECT transaction_id, prev_hash, curr_hash, recorded_at
		FROM proof_ledger WHERE transaction_id = ?
	`, transactionID).Scan(&e.TransactionID, &e.PrevHash, &e.CurrHash, &recordedStr)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	e.RecordedAt, _ = time.Parse(time.RFC3339, recordedStr)
	return &e, nil
}

// Head returns the current chain head hash, domain.GenesisHash when the
// ledger is empty.
func (db *DB) Head() (string, error) {
	var head string
	err := db.db.QueryRow(`SELECT curr_hash FROM proof_ledger ORDER BY seq DESC LIMIT 1`).Scan(&head)
	if err == sql.ErrNoRows {
		return domain.GenesisHash, nil
	}
	return head, err
}

// ListProofs returns all chain entries in append order.
func (db *DB) ListProofs() ([]domain.ProofChainEntry, error) {
	rows, err := db.db.Query(`
		SELECT transaction_id, prev_hash, curr_hash, recorded_at
		FROM proof_ledger ORDER BY seq ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.ProofChainEntry
	for rows.Next() {
		var e domain.ProofChainEntry
		var recordedStr string
		if err := rows.Scan(&e.TransactionID, &e.PrevHash, &e.CurrHash, &recordedStr); err != nil {
			return nil, err
		}
		e.RecordedAt, _ = time.Parse(time.RFC3339, recordedStr)
		result = append(result, e)
	}
	return result, rows.Err()
}
