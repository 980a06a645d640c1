package purchase

import (
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/reloop-exchange/reloop/internal/domain"
)

// ─── Certificate Assembler ──────────────────────────────────────────────────

// Assembler joins the transaction ledger, inventory, accounts, impact
// report store, and proof ledger into a human-presentable compliance
// record. Read-only; invoked independently of the purchase flow.
type Assembler struct {
	stores Stores
}

// NewAssembler creates a certificate assembler over the same store bundle
// the coordinator uses.
func NewAssembler(stores Stores) *Assembler {
	return &Assembler{stores: stores}
}

// Assemble builds the certificate for a transaction. The transaction,
// material, and account lookups are required; the impact report and proof
// entry are optional — an absent proof renders the pending sentinel,
// since proof confirmation may still be in flight.
func (a *Assembler) Assemble(transactionID int64) (*domain.CertificateView, error) {
	rec, err := a.stores.Ledger.GetTransaction(transactionID)
	if err != nil {
		return nil, err
	}
	mat, err := a.stores.Inventory.GetMaterial(rec.MaterialID)
	if err != nil {
		return nil, fmt.Errorf("material for transaction %d: %w", transactionID, err)
	}
	buyerName, err := a.stores.Accounts.DisplayName(rec.BuyerID)
	if err != nil {
		return nil, fmt.Errorf("buyer for transaction %d: %w", transactionID, err)
	}
	sellerName, err := a.stores.Accounts.DisplayName(rec.SellerID)
	if err != nil {
		return nil, fmt.Errorf("seller for transaction %d: %w", transactionID, err)
	}

	view := &domain.CertificateView{
		CertificateID: uuid.NewString(),
		TransactionID: rec.ID,
		BuyerName:     buyerName,
		SellerName:    sellerName,
		MaterialName:  mat.Name,
		Category:      mat.Category,
		QuantityKg:    mat.QuantityKg(),
		TotalCents:    rec.TotalCents,
		PurchasedAt:   rec.CreatedAt,
		ProofHash:     domain.PendingProofHash,
	}

	// Absence degrades silently; a failing store is logged so it stays
	// visible.
	report, err := a.stores.Reports.GetReport(transactionID)
	switch {
	case err != nil:
		log.Printf("certificate %d: impact report read: %v", transactionID, err)
	case report != nil:
		metrics := report.Metrics
		view.Impact = &metrics
	}

	entry, err := a.stores.Proofs.GetProof(transactionID)
	switch {
	case err != nil:
		log.Printf("certificate %d: proof read: %v", transactionID, err)
	case entry != nil:
		view.ProofHash = entry.CurrHash
		view.ProofRecorded = true
	}

	return view, nil
}
