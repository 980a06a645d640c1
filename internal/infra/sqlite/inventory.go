// Inventory store operations: material listings and the Available → Sold
// compare-and-set that guards against double-sells.
package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/reloop-exchange/reloop/internal/domain"
)

// timeLayout matches SQLite's datetime('now') output.
const timeLayout = "2006-01-02 15:04:05"

// ─── Material Operations ────────────────────────────────────────────────────

// InsertMaterial creates a new listing and returns its id.
func (db *DB) InsertMaterial(m domain.Material) (int64, error) {
	res, err := db.db.Exec(`
		INSERT INTO materials (owner_id, material_name, category, quantity_grams, price_cents_per_kg, status, image_ref)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, m.OwnerID, m.Name, string(m.Category), m.QuantityGrams, m.PriceCentsPerKg, string(domain.StatusAvailable), m.ImageRef)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetMaterial retrieves a material by id.
// Returns domain.ErrMaterialUnavailable when no row exists.
func (db *DB) GetMaterial(id int64) (*domain.Material, error) {
	var m domain.Material
	var category, status, listedStr string
	err := db.db.QueryRow(`
		SELECT material_id, owner_id, material_name, category, quantity_grams, price_cents_per_kg, status, image_ref, listed_at
		FROM materials WHERE material_id = ?
	`, id).Scan(&m.ID, &m.OwnerID, &m.Name, &category, &m.QuantityGrams, &m.PriceCentsPerKg, &status, &m.ImageRef, &listedStr)
	if err == sql.ErrNoRows {
		return nil, domain.ErrMaterialUnavailable
	}
	if err != nil {
		return nil, err
	}
	m.Category = domain.Category(category)
	m.Status = domain.MaterialStatus(status)
	m.ListedAt, _ = time.Parse(timeLayout, listedStr)
	return &m, nil
}

// TryMarkSold atomically flips a material's status Available → Sold.
// The guarded UPDATE is the CAS: only one concurrent purchaser can
// observe a row change; everyone else gets false.
func (db *DB) TryMarkSold(id int64) (bool, error) {
	res, err := db.db.Exec(`
		UPDATE materials SET status = ? WHERE material_id = ? AND status = ?
	`, string(domain.StatusSold), id, string(domain.StatusAvailable))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n == 1, nil
}

// ListAvailable returns materials still open for purchase, newest first.
func (db *DB) ListAvailable() ([]domain.Material, error) {
	rows, err := db.db.Query(`
		SELECT material_id, owner_id, material_name, category, quantity_grams, price_cents_per_kg, status, image_ref, listed_at
		FROM materials WHERE status = ? ORDER BY material_id DESC
	`, string(domain.StatusAvailable))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Material
	for rows.Next() {
		var m domain.Material
		var category, status, listedStr string
		if err := rows.Scan(&m.ID, &m.OwnerID, &m.Name, &category, &m.QuantityGrams, &m.PriceCentsPerKg, &status, &m.ImageRef, &listedStr); err != nil {
			return nil, err
		}
		m.Category = domain.Category(category)
		m.Status = domain.MaterialStatus(status)
		m.ListedAt, _ = time.Parse(timeLayout, listedStr)
		result = append(result, m)
	}
	return result, rows.Err()
}
