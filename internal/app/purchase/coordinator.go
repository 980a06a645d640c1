// Package purchase orchestrates the buy flow across the three stores.
//
// The coordinator:
//  1. Validates the material, buyer, and self-purchase policy
//  2. Derives the total in integer minor units
//  3. Commits the transaction + status flip as one atomic unit (the
//     consistency boundary — past this point the purchase is canonical)
//  4. Writes the impact report document, best-effort, in the background
//  5. Submits the proof payload and appends the chain entry, best-effort,
//     waiting at most a grace window before reporting Pending
package purchase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/reloop-exchange/reloop/internal/domain"
	"github.com/reloop-exchange/reloop/internal/infra/observability"
)

// ProofWriter obtains a proof hash and records the chain entry.
// Idempotent per transaction id.
type ProofWriter interface {
	Append(ctx context.Context, transactionID int64, payload domain.ProofPayload) (string, error)
}

// Stores bundles the collaborators the coordinator drives. Handles are
// injected per instance — no package-level state.
type Stores struct {
	Inventory domain.InventoryStore
	Unit      domain.PurchaseUnit
	Ledger    domain.TransactionLedger
	Reports   domain.ImpactReportStore
	Proofs    domain.ProofLedger
	Accounts  domain.AccountDirectory
}

// Config controls coordinator behavior.
type Config struct {
	ProofGraceWindow time.Duration // how long Purchase waits for proof confirmation (default: 2s)
	RetryBatch       int           // max transactions per reconciliation sweep (default: 50)
}

// DefaultConfig returns safe coordinator defaults.
func DefaultConfig() Config {
	return Config{
		ProofGraceWindow: 2 * time.Second,
		RetryBatch:       50,
	}
}

// Coordinator drives one purchase intent into a consistent set of records
// across the inventory, transaction ledger, impact report store, and
// proof ledger.
type Coordinator struct {
	config Config
	stores Stores
	writer ProofWriter
	wg     sync.WaitGroup
}

// New creates a purchase coordinator.
func New(cfg Config, stores Stores, writer ProofWriter) *Coordinator {
	if cfg.ProofGraceWindow <= 0 {
		cfg.ProofGraceWindow = 2 * time.Second
	}
	if cfg.RetryBatch <= 0 {
		cfg.RetryBatch = 50
	}
	return &Coordinator{config: cfg, stores: stores, writer: writer}
}

// Purchase executes the buy flow for one material and buyer.
//
// Failures at or before the consistency boundary reach the caller with no
// side effects left behind. Past the boundary the transaction id is
// always returned; the impact report and proof extensions are isolated,
// logged, and reflected only in the ProofStatus.
func (c *Coordinator) Purchase(ctx context.Context, materialID, buyerID int64) (domain.PurchaseResult, error) {
	mat, err := c.stores.Inventory.GetMaterial(materialID)
	if err != nil {
		if errors.Is(err, domain.ErrMaterialUnavailable) {
			observability.PurchasesTotal.WithLabelValues("unavailable").Inc()
		} else {
			observability.PurchasesTotal.WithLabelValues("error").Inc()
		}
		return domain.PurchaseResult{}, err
	}
	if mat.Status != domain.StatusAvailable {
		observability.PurchasesTotal.WithLabelValues("unavailable").Inc()
		return domain.PurchaseResult{}, domain.ErrMaterialUnavailable
	}
	if buyerID == mat.OwnerID {
		observability.PurchasesTotal.WithLabelValues("rejected").Inc()
		return domain.PurchaseResult{}, domain.ErrSelfPurchase
	}

	buyerName, err := c.stores.Accounts.DisplayName(buyerID)
	if err != nil {
		observability.PurchasesTotal.WithLabelValues("rejected").Inc()
		return domain.PurchaseResult{}, fmt.Errorf("resolve buyer: %w", err)
	}
	sellerName, err := c.stores.Accounts.DisplayName(mat.OwnerID)
	if err != nil {
		observability.PurchasesTotal.WithLabelValues("rejected").Inc()
		return domain.PurchaseResult{}, fmt.Errorf("resolve seller: %w", err)
	}

	total := domain.TotalCents(mat.QuantityGrams, mat.PriceCentsPerKg)

	// Consistency boundary: transaction insert + Available → Sold flip
	// commit atomically. A lost CAS surfaces as ErrMaterialUnavailable.
	txnID, err := c.stores.Unit.RecordPurchase(mat.ID, buyerID, mat.OwnerID, total, time.Now())
	if err != nil {
		// A lost CAS is a losing racer, not a system fault.
		if errors.Is(err, domain.ErrMaterialUnavailable) {
			observability.PurchasesTotal.WithLabelValues("unavailable").Inc()
			return domain.PurchaseResult{}, err
		}
		observability.PurchasesTotal.WithLabelValues("error").Inc()
		return domain.PurchaseResult{}, fmt.Errorf("record purchase: %w", err)
	}
	observability.PurchasesTotal.WithLabelValues("completed").Inc()
	observability.PurchaseAmountCents.Observe(float64(total))

	// Best-effort extension A: impact report document.
	c.wg.Add(1)
	go c.writeImpactReport(txnID, mat.Category, mat.QuantityKg())

	// Best-effort extension B: proof chain. The goroutine keeps running
	// past the grace window; the entry lands eventually or the
	// reconciliation sweep picks the transaction up.
	payload := domain.ProofPayload{
		Buyer:       buyerName,
		Seller:      sellerName,
		Material:    mat.Name,
		AmountCents: total,
	}
	statusCh := make(chan domain.ProofStatus, 1)
	c.wg.Add(1)
	go c.appendProof(txnID, payload, statusCh)

	select {
	case status := <-statusCh:
		return domain.PurchaseResult{TransactionID: txnID, Proof: status}, nil
	case <-time.After(c.config.ProofGraceWindow):
		return domain.PurchaseResult{TransactionID: txnID, Proof: domain.ProofPending}, nil
	case <-ctx.Done():
		// The transaction is already canonical; only the wait is cut short.
		return domain.PurchaseResult{TransactionID: txnID, Proof: domain.ProofPending}, nil
	}
}

// writeImpactReport computes and stores the impact document. Failures are
// logged and swallowed — they never affect the purchase result.
func (c *Coordinator) writeImpactReport(txnID int64, category domain.Category, quantityKg float64) {
	defer c.wg.Done()

	report, err := domain.NewImpactReport(txnID, category, quantityKg, time.Now().UTC())
	if err != nil {
		observability.ImpactReportFailures.Inc()
		log.Printf("impact report for transaction %d: %v", txnID, err)
		return
	}
	if err := c.stores.Reports.InsertReport(report); err != nil {
		observability.ImpactReportFailures.Inc()
		log.Printf("impact report for transaction %d: %v", txnID, err)
	}
}

// appendProof submits the payload and records the chain entry, reporting
// the outcome on statusCh. Runs detached from the request context: the
// caller may have returned Pending already.
func (c *Coordinator) appendProof(txnID int64, payload domain.ProofPayload, statusCh chan<- domain.ProofStatus) {
	defer c.wg.Done()

	start := time.Now()
	_, err := c.writer.Append(context.Background(), txnID, payload)
	observability.ProofSubmitSeconds.Observe(time.Since(start).Seconds())

	if err != nil {
		observability.ProofSubmissionsTotal.WithLabelValues("failed").Inc()
		log.Printf("proof for transaction %d: %v", txnID, err)
		statusCh <- domain.ProofFailed
		return
	}
	observability.ProofSubmissionsTotal.WithLabelValues("confirmed").Inc()
	statusCh <- domain.ProofConfirmed
}

// RetryPending re-submits proofs for transactions that have none — the
// out-of-band reconciliation for Pending purchases. Returns how many
// entries were recorded.
func (c *Coordinator) RetryPending(ctx context.Context) (int, error) {
	ids, err := c.stores.Ledger.ListUnproven(c.config.RetryBatch)
	if err != nil {
		return 0, fmt.Errorf("list unproven: %w", err)
	}

	var recorded int
	for _, txnID := range ids {
		payload, err := c.payloadFor(txnID)
		if err != nil {
			log.Printf("reconcile transaction %d: %v", txnID, err)
			continue
		}
		if _, err := c.writer.Append(ctx, txnID, payload); err != nil {
			observability.ProofSubmissionsTotal.WithLabelValues("failed").Inc()
			log.Printf("reconcile transaction %d: %v", txnID, err)
			continue
		}
		observability.ProofSubmissionsTotal.WithLabelValues("confirmed").Inc()
		recorded++
	}
	return recorded, nil
}

// payloadFor rebuilds the canonical proof payload for a recorded
// transaction. The inputs are immutable, so the rebuilt payload matches
// the one a non-failed first attempt would have submitted.
func (c *Coordinator) payloadFor(txnID int64) (domain.ProofPayload, error) {
	rec, err := c.stores.Ledger.GetTransaction(txnID)
	if err != nil {
		return domain.ProofPayload{}, err
	}
	mat, err := c.stores.Inventory.GetMaterial(rec.MaterialID)
	if err != nil {
		return domain.ProofPayload{}, err
	}
	buyerName, err := c.stores.Accounts.DisplayName(rec.BuyerID)
	if err != nil {
		return domain.ProofPayload{}, err
	}
	sellerName, err := c.stores.Accounts.DisplayName(rec.SellerID)
	if err != nil {
		return domain.ProofPayload{}, err
	}
	return domain.ProofPayload{
		Buyer:       buyerName,
		Seller:      sellerName,
		Material:    mat.Name,
		AmountCents: rec.TotalCents,
	}, nil
}

// Close waits for in-flight best-effort extensions to finish.
func (c *Coordinator) Close() {
	c.wg.Wait()
}
