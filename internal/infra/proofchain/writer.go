package proofchain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/reloop-exchange/reloop/internal/domain"
	"github.com/reloop-exchange/reloop/internal/infra/observability"
)

// ─── Proof Chain Writer ─────────────────────────────────────────────────────

// Writer submits proof payloads and appends the resulting hash to the
// chained proof ledger. Append is idempotent per transaction id: a retry
// after a timeout returns the already-recorded hash instead of forging a
// second entry.
type Writer struct {
	ledger  domain.ProofLedger
	backend domain.ProofBackend
	timeout time.Duration
}

// NewWriter creates a writer over the given ledger and backend.
// timeout bounds a single backend submission.
func NewWriter(ledger domain.ProofLedger, backend domain.ProofBackend, timeout time.Duration) *Writer {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Writer{ledger: ledger, backend: backend, timeout: timeout}
}

// Append obtains a proof hash for the transaction and records the chain
// entry. Safe to call again for the same transaction after a transient
// failure.
func (w *Writer) Append(ctx context.Context, transactionID int64, payload domain.ProofPayload) (string, error) {
	// A prior attempt may have recorded the entry already.
	if existing, err := w.ledger.GetProof(transactionID); err != nil {
		return "", fmt.Errorf("check existing proof: %w", err)
	} else if existing != nil {
		return existing.CurrHash, nil
	}

	subCtx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	hash, err := w.backend.Submit(subCtx, payload)
	if err != nil {
		return "", fmt.Errorf("submit proof: %w", err)
	}

	if _, err := w.ledger.AppendProof(transactionID, hash); err != nil {
		if errors.Is(err, domain.ErrProofExists) {
			// Lost an append race with a concurrent retry; the recorded
			// entry wins.
			existing, getErr := w.ledger.GetProof(transactionID)
			if getErr != nil {
				return "", fmt.Errorf("read recorded proof: %w", getErr)
			}
			return existing.CurrHash, nil
		}
		return "", fmt.Errorf("append proof: %w", err)
	}
	observability.ProofChainLength.Inc()
	return hash, nil
}

// ─── Chain Verification ─────────────────────────────────────────────────────

// VerifyChain walks entries in append order and checks the hash linkage:
// the first entry links to GENESIS, every later entry to its
// predecessor's curr_hash. Returns domain.ErrChainBroken on the first
// bad link.
func VerifyChain(entries []domain.ProofChainEntry) error {
	prev := domain.GenesisHash
	for i, e := range entries {
		if e.PrevHash != prev {
			return fmt.Errorf("%w: entry %d (transaction %d) links to %q, head was %q",
				domain.ErrChainBroken, i, e.TransactionID, e.PrevHash, prev)
		}
		if e.CurrHash == "" {
			return fmt.Errorf("%w: entry %d (transaction %d) has empty hash",
				domain.ErrChainBroken, i, e.TransactionID)
		}
		prev = e.CurrHash
	}
	return nil
}
