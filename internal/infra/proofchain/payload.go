// Package proofchain computes and records tamper-evident proof hashes for
// purchase transactions. A pluggable backend either submits the payload to
// an external ledger node or hashes it locally; either way the resulting
// hash is appended to the hash-chained proof ledger.
package proofchain

import (
	"fmt"

	"github.com/reloop-exchange/reloop/internal/domain"
)

// EncodePayload renders the canonical proof input. Field order is fixed
// and the encoding has no map iteration or timestamps, so the same
// logical transaction always produces identical bytes.
func EncodePayload(p domain.ProofPayload) []byte {
	return []byte(fmt.Sprintf("buyer=%s|seller=%s|material=%s|amount_cents=%d",
		p.Buyer, p.Seller, p.Material, p.AmountCents))
}
