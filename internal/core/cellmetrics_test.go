package core

import (
	"math"
	"testing"
	"time"

	"culturecore/pkg/domain"
)

func TestPDL(t *testing.T) {
	cases := []struct {
		name    string
		initial float64
		final   float64
		want    float64
		ok      bool
	}{
		{"quadrupled", 1e6, 4e6, 2, true},
		{"doubled", 2e6, 4e6, 1, true},
		{"no growth", 1e6, 1e6, 0, false},
		{"shrunk", 4e6, 1e6, 0, false},
		{"zero initial", 0, 4e6, 0, false},
		{"zero final", 1e6, 0, 0, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, ok := PDL(c.initial, c.final)
			if ok != c.ok {
				t.Fatalf("PDL(%v, %v) ok=%v want %v", c.initial, c.final, ok, c.ok)
			}
			if math.Abs(got-c.want) > 1e-9 {
				t.Fatalf("PDL(%v, %v)=%v want %v", c.initial, c.final, got, c.want)
			}
		})
	}
}

func TestVialMath(t *testing.T) {
	if got := TotalCells(1.2e6, 40); got != 4.8e7 {
		t.Fatalf("TotalCells=%v want 4.8e7", got)
	}
	if got := CellsPerVial(1e7, 3); got != 3333333 {
		t.Fatalf("CellsPerVial=%v want 3333333", got)
	}
	if got := CellsPerVial(1e7, 0); got != 0 {
		t.Fatalf("CellsPerVial with zero vials=%v want 0", got)
	}
	if got := CellsPerMLInVial(2e6, 2); got != 1e6 {
		t.Fatalf("CellsPerMLInVial=%v want 1e6", got)
	}
	if got := CellsPerMLInVial(2e6, 0); got != 0 {
		t.Fatalf("CellsPerMLInVial with zero volume=%v want 0", got)
	}
	if got := CellsPerCM2(7.5e5, 25); got != 3e4 {
		t.Fatalf("CellsPerCM2=%v want 3e4", got)
	}
	if got := CellsPerCM2(7.5e5, 0); got != 0 {
		t.Fatalf("CellsPerCM2 with zero area=%v want 0", got)
	}
}

func TestGrowthRates(t *testing.T) {
	if rate, ok := ProliferationRate(2, 2); !ok || rate != 1 {
		t.Fatalf("ProliferationRate=%v ok=%v want 1 true", rate, ok)
	}
	if dt, ok := DoublingTime(2, 4); !ok || dt != 2 {
		t.Fatalf("DoublingTime=%v ok=%v want 2 true", dt, ok)
	}
	if _, ok := ProliferationRate(0, 2); ok {
		t.Fatal("ProliferationRate defined for zero PDL")
	}
	if _, ok := DoublingTime(2, 0); ok {
		t.Fatal("DoublingTime defined for zero elapsed")
	}
}

func TestElapsedDays(t *testing.T) {
	seeded := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	if got := ElapsedDays(seeded, seeded.Add(48*time.Hour)); got != 2 {
		t.Fatalf("ElapsedDays=%v want 2", got)
	}
	if got := ElapsedDays(seeded, seeded.Add(-time.Hour)); got != 0 {
		t.Fatalf("ElapsedDays for reversed clock=%v want 0", got)
	}
}

func TestDeriveMetrics(t *testing.T) {
	seeded := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	now := seeded.Add(48 * time.Hour)
	s := domain.MeasuredSuspension{ConcentrationCellsPerML: 2e6, VolumeML: 2, ViabilityPct: 95}

	m := DeriveMetrics(s, 1e6, seeded, now)
	if m.TotalCells != 4e6 {
		t.Fatalf("TotalCells=%v want 4e6", m.TotalCells)
	}
	if m.PDL == nil || math.Abs(*m.PDL-2) > 1e-9 {
		t.Fatalf("PDL=%v want 2", m.PDL)
	}
	if m.ElapsedDays == nil || *m.ElapsedDays != 2 {
		t.Fatalf("ElapsedDays=%v want 2", m.ElapsedDays)
	}
	if m.ProliferationRate == nil || math.Abs(*m.ProliferationRate-1) > 1e-9 {
		t.Fatalf("ProliferationRate=%v want 1", m.ProliferationRate)
	}
	if m.DoublingTimeDays == nil || math.Abs(*m.DoublingTimeDays-1) > 1e-9 {
		t.Fatalf("DoublingTimeDays=%v want 1", m.DoublingTimeDays)
	}
}

func TestDeriveMetricsWithoutInitialCount(t *testing.T) {
	seeded := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := domain.MeasuredSuspension{ConcentrationCellsPerML: 2e6, VolumeML: 2, ViabilityPct: 90}

	m := DeriveMetrics(s, 0, seeded, seeded.Add(24*time.Hour))
	if m.PDL != nil || m.ProliferationRate != nil || m.DoublingTimeDays != nil {
		t.Fatalf("growth metrics must be unavailable without initial cells: %+v", m)
	}
	if m.ElapsedDays == nil || *m.ElapsedDays != 1 {
		t.Fatalf("ElapsedDays=%v want 1", m.ElapsedDays)
	}
}

func TestValidateSuspension(t *testing.T) {
	cases := []struct {
		name string
		s    domain.MeasuredSuspension
		ok   bool
	}{
		{"valid", domain.MeasuredSuspension{ConcentrationCellsPerML: 1e6, VolumeML: 5, ViabilityPct: 92}, true},
		{"zero concentration", domain.MeasuredSuspension{VolumeML: 5, ViabilityPct: 92}, false},
		{"zero volume", domain.MeasuredSuspension{ConcentrationCellsPerML: 1e6, ViabilityPct: 92}, false},
		{"viability above 100", domain.MeasuredSuspension{ConcentrationCellsPerML: 1e6, VolumeML: 5, ViabilityPct: 101}, false},
		{"negative viability", domain.MeasuredSuspension{ConcentrationCellsPerML: 1e6, VolumeML: 5, ViabilityPct: -1}, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := validateSuspension(c.s)
			if (err == nil) != c.ok {
				t.Fatalf("validateSuspension(%+v)=%v", c.s, err)
			}
		})
	}
}
