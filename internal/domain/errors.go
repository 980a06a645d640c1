package domain

import "errors"

// ─── Sentinel Errors ────────────────────────────────────────────────────────
// Domain errors are pure — no infrastructure dependency.

var (
	// Purchase errors — fatal at or before the consistency boundary.
	ErrMaterialUnavailable = errors.New("material not found or already sold")
	ErrSelfPurchase        = errors.New("buyer cannot purchase their own listing")
	ErrAccountNotFound     = errors.New("account not found")

	// Ledger errors
	ErrTransactionNotFound = errors.New("transaction not found")

	// Impact errors
	ErrInvalidQuantity = errors.New("quantity must be positive")

	// Proof errors
	ErrProofExists      = errors.New("proof already recorded for transaction")
	ErrProofBackendDown = errors.New("proof backend is unreachable")
	ErrChainBroken      = errors.New("proof chain linkage is broken")
)
