// Transaction ledger operations, including the atomic purchase unit that
// forms the consistency boundary of the buy flow.
package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/reloop-exchange/reloop/internal/domain"
)

// ─── Transaction Operations ─────────────────────────────────────────────────

// InsertTransaction creates a transaction record and returns the assigned id.
func (db *DB) InsertTransaction(rec domain.TransactionRecord) (int64, error) {
	res, err := db.db.Exec(`
		INSERT INTO transactions (buyer_id, seller_id, material_id, total_cents, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, rec.BuyerID, rec.SellerID, rec.MaterialID, rec.TotalCents, rec.CreatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetTransaction retrieves a transaction record.
// Returns domain.ErrTransactionNotFound when no row exists.
func (db *DB) GetTransaction(id int64) (*domain.TransactionRecord, error) {
	var rec domain.TransactionRecord
	var createdStr string
	err := db.db.QueryRow(`
		SELECT transaction_id, buyer_id, seller_id, material_id, total_cents, created_at
		FROM transactions WHERE transaction_id = ?
	`, id).Scan(&rec.ID, &rec.BuyerID, &rec.SellerID, &rec.MaterialID, &rec.TotalCents, &createdStr)
	if err == sql.ErrNoRows {
		return nil, domain.ErrTransactionNotFound
	}
	if err != nil {
		return nil, err
	}
	rec.CreatedAt, _ = time.Parse(time.RFC3339, createdStr)
	return &rec, nil
}

// RecordPurchase commits the transaction insert and the Available → Sold
// status flip as one atomic unit. Past this call the transaction is
// canonical and irrevocable; downstream extensions never roll it back.
// A lost CAS aborts the whole unit with domain.ErrMaterialUnavailable,
// leaving no record behind.
func (db *DB) RecordPurchase(materialID, buyerID, sellerID, totalCents int64, at time.Time) (int64, error) {
	tx, err := db.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
		UPDATE materials SET status = ? WHERE material_id = ? AND status = ?
	`, string(domain.StatusSold), materialID, string(domain.StatusAvailable))
	if err != nil {
		return 0, fmt.Errorf("mark sold: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return 0, domain.ErrMaterialUnavailable
	}

	res, err = tx.Exec(`
		INSERT INTO transactions (buyer_id, seller_id, material_id, total_cents, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, buyerID, sellerID, materialID, totalCents, at.UTC().Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("insert transaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return id, nil
}

// ListUnproven returns ids of transactions that have no proof ledger
// entry yet — the queryable "proof pending" state the reconciliation
// sweep feeds on.
func (db *DB) ListUnproven(limit int) ([]int64, error) {
	rows, err := db.db.Query(`
		SELECT t.transaction_id FROM transactions t
		LEFT JOIN proof_ledger p ON p.transaction_id = t.transaction_id
		WHERE p.transaction_id IS NULL
		ORDER BY t.transaction_id ASC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
