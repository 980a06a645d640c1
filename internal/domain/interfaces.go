package domain

import (
	"context"
	"time"
)

// ─── Store Interfaces ───────────────────────────────────────────────────────
// These interfaces define boundaries between layers.
// Infrastructure implements them; application layer depends on them.
// Store handles are passed explicitly — no process-wide singletons.

// AccountDirectory resolves account identities. The rest of the account
// surface (registration, login) lives outside the core.
type AccountDirectory interface {
	// DisplayName returns the company name for an account.
	// Returns ErrAccountNotFound for unknown ids.
	DisplayName(id int64) (string, error)
}

// InventoryStore is the relational store of materials.
type InventoryStore interface {
	// GetMaterial returns a material by id, or ErrMaterialUnavailable.
	GetMaterial(id int64) (*Material, error)

	// TryMarkSold atomically flips Available → Sold. Returns false when
	// the material was absent or already sold (CAS lost).
	TryMarkSold(id int64) (bool, error)

	ListAvailable() ([]Material, error)
}

// TransactionLedger is the authoritative relational store of purchases.
type TransactionLedger interface {
	// InsertTransaction creates a record and returns its assigned id.
	InsertTransaction(rec TransactionRecord) (int64, error)

	// GetTransaction returns a record, or ErrTransactionNotFound.
	GetTransaction(id int64) (*TransactionRecord, error)

	// ListUnproven returns ids of transactions that have no proof ledger
	// entry yet, oldest first. Feeds the reconciliation sweep.
	ListUnproven(limit int) ([]int64, error)
}

// PurchaseUnit is the consistency boundary: the transaction insert and the
// material status flip commit as one atomic unit. A lost CAS surfaces as
// ErrMaterialUnavailable and leaves no record behind.
type PurchaseUnit interface {
	RecordPurchase(materialID, buyerID, sellerID, totalCents int64, at time.Time) (int64, error)
}

// ImpactReportStore is the document store of derived sustainability
// metrics. Writes are fire-and-forget from the coordinator's point of
// view.
type ImpactReportStore interface {
	InsertReport(report ImpactReport) error

	// GetReport returns the report, or nil when none was generated.
	GetReport(transactionID int64) (*ImpactReport, error)
}

// ProofLedger is the append-only, hash-chained proof store.
type ProofLedger interface {
	// AppendProof links a new entry to the chain head and inserts it.
	// Returns ErrProofExists when the transaction already has an entry.
	AppendProof(transactionID int64, currHash string) (*ProofChainEntry, error)

	// GetProof returns the entry, or nil when the proof is pending.
	GetProof(transactionID int64) (*ProofChainEntry, error)

	// Head returns the current chain head hash (GenesisHash when empty).
	Head() (string, error)

	ListProofs() ([]ProofChainEntry, error)
}

// ProofBackend submits a proof payload and returns its hash. Submissions
// must respect the context deadline; a remote backend may block for a
// network round trip plus confirmation wait.
type ProofBackend interface {
	Submit(ctx context.Context, payload ProofPayload) (string, error)
}
