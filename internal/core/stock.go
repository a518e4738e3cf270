package core

import "culturecore/pkg/domain"

// defaultLowStockUnits is the unit-count fallback applied when a nomenclature
// carries no usable threshold configuration.
const defaultLowStockUnits = 5

// IsLowStock decides whether a batch is low on stock given its nomenclature's
// threshold configuration. Exhausted or expired batches are a distinct state
// and never report as low stock.
func IsLowStock(b domain.Batch, n domain.Nomenclature) bool {
	if b.Quantity <= 0 || b.Status == domain.BatchStatusExpired {
		return false
	}
	threshold := 0.0
	if n.MinStockThreshold != nil {
		threshold = *n.MinStockThreshold
	}
	if threshold <= 0 {
		return b.Quantity <= defaultLowStockUnits
	}
	switch n.MinStockThresholdType {
	case domain.ThresholdVolume:
		total, ok := batchTotalVolume(b)
		if !ok {
			// No per-unit volume data; fall back to the quantity rule.
			return b.Quantity <= threshold
		}
		return total <= threshold
	case domain.ThresholdPercent:
		if b.InitialQuantity <= 0 {
			return false
		}
		percentLeft := b.Quantity / b.InitialQuantity * 100
		return percentLeft <= threshold
	default:
		return b.Quantity <= threshold
	}
}

// batchTotalVolume computes the volume still available on a vialed or
// volumetric batch: full units plus the one partially consumed unit.
func batchTotalVolume(b domain.Batch) (float64, bool) {
	if b.UnitVolumeML == nil || *b.UnitVolumeML <= 0 {
		return 0, false
	}
	current := *b.UnitVolumeML
	if b.CurrentUnitVolumeML != nil {
		current = *b.CurrentUnitVolumeML
	}
	return (b.Quantity-1)**b.UnitVolumeML + current, true
}

// LowStockEntry pairs a low-stock batch with its catalog entry.
type LowStockEntry struct {
	Batch        domain.Batch        `json:"batch"`
	Nomenclature domain.Nomenclature `json:"nomenclature"`
}

// LowStockReport sweeps all available batches in the view and returns those
// below their configured threshold.
func LowStockReport(view domain.RuleView) []LowStockEntry {
	byID := make(map[string]domain.Nomenclature)
	for _, n := range view.ListNomenclatures() {
		byID[n.ID] = n
	}
	var out []LowStockEntry
	for _, b := range view.ListBatches() {
		n, ok := byID[b.NomenclatureID]
		if !ok {
			continue
		}
		if IsLowStock(b, n) {
			out = append(out, LowStockEntry{Batch: b, Nomenclature: n})
		}
	}
	return out
}
