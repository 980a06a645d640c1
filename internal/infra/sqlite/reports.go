// Impact report document store. Reports are stored as opaque JSON bodies
// keyed by transaction id — the write path never joins against the
// relational tables, so a report failure cannot touch the ledger.
package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/reloop-exchange/reloop/internal/domain"
)

// ─── Impact Report Operations ───────────────────────────────────────────────

// InsertReport stores a report document. At most one report exists per
// transaction; a second insert for the same id is rejected.
func (db *DB) InsertReport(report domain.ImpactReport) error {
	body, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	_, err = db.db.Exec(`
		INSERT INTO impact_reports (transaction_id, body_json, generated_at)
		VALUES (?, ?, ?)
	`, report.TransactionID, string(body), report.GeneratedAt.UTC().Format(time.RFC3339))
	return err
}

// GetReport returns the report document for a transaction, or nil when
// none was generated.
func (db *DB) GetReport(transactionID int64) (*domain.ImpactReport, error) {
	var body string
	err := db.db.QueryRow(`
		SELECT body_json FROM impact_reports WHERE transaction_id = ?
	`, transactionID).Scan(&body)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var report domain.ImpactReport
	if err := json.Unmarshal([]byte(body), &report); err != nil {
		return nil, fmt.Errorf("unmarshal report: %w", err)
	}
	return &report, nil
}
