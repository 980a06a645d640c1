package domain

import "time"

// ─── Impact Calculator ──────────────────────────────────────────────────────
// Pure, deterministic derivation of sustainability metrics. No I/O, no
// failure mode beyond input validation.

// CO2 prevented per kilogram recycled, by category.
const (
	CarbonFactorIndustrial = 0.8
	CarbonFactorMetal      = 1.5
	CarbonFactorTextile    = 0.3
	CarbonFactorDefault    = 0.5

	// Flat factors applied to every category.
	EnergyFactorKwhPerKg  = 0.2
	LandfillFactorM3PerKg = 0.01
)

// CarbonFactor returns the CO2-prevented factor for a category.
func CarbonFactor(c Category) float64 {
	switch c {
	case CategoryIndustrial:
		return CarbonFactorIndustrial
	case CategoryMetal:
		return CarbonFactorMetal
	case CategoryTextile:
		return CarbonFactorTextile
	default:
		return CarbonFactorDefault
	}
}

// ComputeImpact derives the sustainability metrics for a recycled
// quantity. Rejects non-positive quantities with ErrInvalidQuantity.
func ComputeImpact(c Category, quantityKg float64) (ImpactMetrics, error) {
	if quantityKg <= 0 {
		return ImpactMetrics{}, ErrInvalidQuantity
	}
	return ImpactMetrics{
		CarbonEmissionsPreventedKg: quantityKg * CarbonFactor(c),
		EnergyConservedKwh:         quantityKg * EnergyFactorKwhPerKg,
		LandfillSpaceSavedM3:       quantityKg * LandfillFactorM3PerKg,
	}, nil
}

// NewImpactReport builds the document stored for one transaction.
func NewImpactReport(transactionID int64, c Category, quantityKg float64, at time.Time) (ImpactReport, error) {
	metrics, err := ComputeImpact(c, quantityKg)
	if err != nil {
		return ImpactReport{}, err
	}
	return ImpactReport{
		TransactionID:    transactionID,
		MaterialCategory: c,
		QuantityKg:       quantityKg,
		Metrics:          metrics,
		GeneratedAt:      at,
	}, nil
}
