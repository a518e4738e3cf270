package core

import (
	"math"
	"time"

	"culturecore/pkg/domain"
)

// Cell metrics are pure functions over the measured scalars. Every derived
// value is recomputed from concentration, volume, and viability so the
// reported numbers stay internally consistent. Quantities are kept in cells
// throughout; unit conversion happens only at presentation boundaries.

// TotalCells returns concentration multiplied by suspension volume.
func TotalCells(concentrationCellsPerML, volumeML float64) float64 {
	return concentrationCellsPerML * volumeML
}

// CellsPerVial divides total cells evenly across vials, rounded to whole
// cells. vialCount must be >= 1.
func CellsPerVial(totalCells float64, vialCount int) float64 {
	if vialCount < 1 {
		return 0
	}
	return math.Round(totalCells / float64(vialCount))
}

// CellsPerMLInVial is the per-vial concentration after aliquoting.
func CellsPerMLInVial(cellsPerVial, volumePerVialML float64) float64 {
	if volumePerVialML <= 0 {
		return 0
	}
	return cellsPerVial / volumePerVialML
}

// CellsPerCM2 is the seeding density over the container growth surface.
func CellsPerCM2(cellsPerContainer, surfaceAreaCM2 float64) float64 {
	if surfaceAreaCM2 <= 0 {
		return 0
	}
	return cellsPerContainer / surfaceAreaCM2
}

// PDL computes the population doubling level log2(final/initial). It is only
// defined when both counts are positive and the ratio exceeds one; otherwise
// ok is false and the value must be reported as unavailable, never as zero.
func PDL(initialCells, finalCells float64) (float64, bool) {
	if initialCells <= 0 || finalCells <= 0 {
		return 0, false
	}
	ratio := finalCells / initialCells
	if ratio <= 1 {
		return 0, false
	}
	return math.Log2(ratio), true
}

// ElapsedDays returns the non-negative span between seeding and the reference
// instant, in days.
func ElapsedDays(seededAt, ref time.Time) float64 {
	d := ref.Sub(seededAt)
	if d <= 0 {
		return 0
	}
	return d.Hours() / 24
}

// ProliferationRate is PDL per elapsed day; undefined when either is not
// positive.
func ProliferationRate(pdl, elapsedDays float64) (float64, bool) {
	if pdl <= 0 || elapsedDays <= 0 {
		return 0, false
	}
	return pdl / elapsedDays, true
}

// DoublingTime is elapsed days per population doubling; undefined when either
// input is not positive.
func DoublingTime(pdl, elapsedDays float64) (float64, bool) {
	if pdl <= 0 || elapsedDays <= 0 {
		return 0, false
	}
	return elapsedDays / pdl, true
}

// DeriveMetrics assembles the operation metrics from a measured suspension
// and the lot it came from. initialCells is the cell count the lot was seeded
// with (zero when unknown, which leaves growth metrics unavailable).
func DeriveMetrics(s domain.MeasuredSuspension, initialCells float64, seededAt, now time.Time) domain.OperationMetrics {
	total := TotalCells(s.ConcentrationCellsPerML, s.VolumeML)
	m := domain.OperationMetrics{
		ConcentrationCellsPerML: s.ConcentrationCellsPerML,
		VolumeML:                s.VolumeML,
		ViabilityPct:            s.ViabilityPct,
		TotalCells:              total,
	}
	elapsed := ElapsedDays(seededAt, now)
	if elapsed > 0 {
		m.ElapsedDays = &elapsed
	}
	pdl, ok := PDL(initialCells, total)
	if !ok {
		return m
	}
	m.PDL = &pdl
	if rate, ok := ProliferationRate(pdl, elapsed); ok {
		m.ProliferationRate = &rate
	}
	if dt, ok := DoublingTime(pdl, elapsed); ok {
		m.DoublingTimeDays = &dt
	}
	return m
}

// validateSuspension checks the measured scalars shared by passage and freeze.
func validateSuspension(s domain.MeasuredSuspension) error {
	if s.ConcentrationCellsPerML <= 0 {
		return domain.ValidationError{Field: "concentration_cells_per_ml", Reason: "must be positive"}
	}
	if s.VolumeML <= 0 {
		return domain.ValidationError{Field: "volume_ml", Reason: "must be positive"}
	}
	if s.ViabilityPct < 0 || s.ViabilityPct > 100 {
		return domain.ValidationError{Field: "viability_pct", Reason: "must be within 0-100"}
	}
	return nil
}
