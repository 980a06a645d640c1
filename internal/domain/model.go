// Package domain contains pure business types with ZERO infrastructure imports.
// This is the innermost ring of clean architecture — it depends on nothing.
package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// ─── Material Types ─────────────────────────────────────────────────────────

// Category classifies a listed material for impact accounting.
type Category string

const (
	CategoryIndustrial Category = "Industrial"
	CategoryMetal      Category = "Metal"
	CategoryTextile    Category = "Textile"
	CategoryOther      Category = "Other"
)

// ParseCategory maps free-form input to a known category.
// Unknown values fall back to Other, matching the default impact factor.
func ParseCategory(s string) Category {
	switch Category(s) {
	case CategoryIndustrial, CategoryMetal, CategoryTextile:
		return Category(s)
	default:
		return CategoryOther
	}
}

// MaterialStatus is the lifecycle state of a listing.
type MaterialStatus string

const (
	StatusAvailable MaterialStatus = "Available"
	StatusSold      MaterialStatus = "Sold"
)

// Material is a listed batch of recyclable material.
// Status moves Available → Sold exactly once, only through a purchase.
type Material struct {
	ID              int64          `json:"id"`
	OwnerID         int64          `json:"owner_id"`
	Name            string         `json:"name"`
	Category        Category       `json:"category"`
	QuantityGrams   int64          `json:"quantity_grams"`
	PriceCentsPerKg int64          `json:"price_cents_per_kg"`
	Status          MaterialStatus `json:"status"`
	ImageRef        string         `json:"image_ref,omitempty"`
	ListedAt        time.Time      `json:"listed_at"`
}

// QuantityKg returns the listed quantity in kilograms.
func (m Material) QuantityKg() float64 {
	return float64(m.QuantityGrams) / 1000.0
}

// ─── Transaction Types ──────────────────────────────────────────────────────

// TransactionRecord is the canonical, immutable record of a purchase.
// The ID is assigned by the transaction ledger on insert.
type TransactionRecord struct {
	ID         int64     `json:"id"`
	BuyerID    int64     `json:"buyer_id"`
	SellerID   int64     `json:"seller_id"`
	MaterialID int64     `json:"material_id"`
	TotalCents int64     `json:"total_cents"`
	CreatedAt  time.Time `json:"created_at"`
}

// TotalCents derives the purchase total in currency minor units.
// Quantities are held in grams and prices in cents per kilogram so the
// product stays in integer arithmetic; the division back to cents rounds
// half up.
func TotalCents(quantityGrams, priceCentsPerKg int64) int64 {
	return (quantityGrams*priceCentsPerKg + 500) / 1000
}

// FormatCents renders a minor-unit amount as a decimal string.
func FormatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

// ─── Impact Types ───────────────────────────────────────────────────────────

// ImpactMetrics are the derived sustainability numbers for one purchase.
type ImpactMetrics struct {
	CarbonEmissionsPreventedKg float64 `json:"carbon_emissions_prevented_kg"`
	EnergyConservedKwh         float64 `json:"energy_conserved_kwh"`
	LandfillSpaceSavedM3       float64 `json:"landfill_space_saved_m3"`
}

// ImpactReport is the document stored per transaction. At most one exists
// for a given transaction; reports are never mutated after creation.
type ImpactReport struct {
	TransactionID    int64         `json:"transaction_id"`
	MaterialCategory Category      `json:"material_category"`
	QuantityKg       float64       `json:"quantity_recycled_kg"`
	Metrics          ImpactMetrics `json:"sustainability_metrics"`
	GeneratedAt      time.Time     `json:"generated_at"`
}

// ─── Proof Chain Types ──────────────────────────────────────────────────────

// GenesisHash is the prev_hash of the first entry in the proof chain.
const GenesisHash = "GENESIS"

// ProofChainEntry is one link in the append-only proof ledger.
// PrevHash is the CurrHash of the preceding entry (GenesisHash for the
// first). At most one entry exists per transaction; absence means the
// proof is still pending.
type ProofChainEntry struct {
	TransactionID int64     `json:"transaction_id"`
	PrevHash      string    `json:"prev_hash"`
	CurrHash      string    `json:"curr_hash"`
	RecordedAt    time.Time `json:"recorded_at"`
}

// ProofStatus reflects the outcome of the best-effort proof extension.
type ProofStatus int

const (
	ProofPending   ProofStatus = iota // Submitted or queued, not yet recorded
	ProofConfirmed                    // Entry recorded in the proof ledger
	ProofFailed                       // Submission failed; eligible for retry
)

// String returns a human-readable status label.
func (s ProofStatus) String() string {
	switch s {
	case ProofPending:
		return "PENDING"
	case ProofConfirmed:
		return "CONFIRMED"
	case ProofFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// ProofPayload is the canonical content submitted to the proof backend.
// Field order is fixed; encoding it must be deterministic so identical
// logical transactions always yield the same proof input.
type ProofPayload struct {
	Buyer       string `json:"buyer"`
	Seller      string `json:"seller"`
	Material    string `json:"material"`
	AmountCents int64  `json:"amount_cents"`
}

// ─── Purchase Result ────────────────────────────────────────────────────────

// PurchaseResult is returned to the caller of Purchase. TransactionID is
// always set on success; Proof reflects the best-effort extension only.
type PurchaseResult struct {
	TransactionID int64       `json:"transaction_id"`
	Proof         ProofStatus `json:"proof_status"`
}

// ─── Certificate Types ──────────────────────────────────────────────────────

// PendingProofHash is rendered in place of a proof hash when the ledger
// entry has not been recorded yet.
const PendingProofHash = "PENDING - not yet recorded"

// CertificateView is the assembled, human-presentable compliance record
// for one transaction. Impact is nil when no report was generated.
type CertificateView struct {
	CertificateID string         `json:"certificate_id"`
	TransactionID int64          `json:"transaction_id"`
	BuyerName     string         `json:"buyer_name"`
	SellerName    string         `json:"seller_name"`
	MaterialName  string         `json:"material_name"`
	Category      Category       `json:"category"`
	QuantityKg    float64        `json:"quantity_kg"`
	TotalCents    int64          `json:"total_cents"`
	PurchasedAt   time.Time      `json:"purchased_at"`
	ProofHash     string         `json:"proof_hash"`
	ProofRecorded bool           `json:"proof_recorded"`
	Impact        *ImpactMetrics `json:"impact,omitempty"`
}

// ─── Utilities ──────────────────────────────────────────────────────────────

// SHA256Hex computes SHA-256 hash and returns hex string.
func SHA256Hex(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
