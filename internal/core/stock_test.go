package core

import (
	"context"
	"testing"

	"culturecore/pkg/domain"
)

func TestIsLowStockQuantityThreshold(t *testing.T) {
	n := domain.Nomenclature{MinStockThreshold: floatP(10), MinStockThresholdType: domain.ThresholdQty}
	cases := []struct {
		name string
		b    domain.Batch
		want bool
	}{
		{"at threshold", domain.Batch{Quantity: 10, Status: domain.BatchStatusAvailable}, true},
		{"above threshold", domain.Batch{Quantity: 11, Status: domain.BatchStatusAvailable}, false},
		{"exhausted is not low", domain.Batch{Quantity: 0, Status: domain.BatchStatusAvailable}, false},
		{"expired is not low", domain.Batch{Quantity: 3, Status: domain.BatchStatusExpired}, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := IsLowStock(c.b, n); got != c.want {
				t.Fatalf("IsLowStock(%+v)=%v want %v", c.b, got, c.want)
			}
		})
	}
}

func TestIsLowStockDefaultThreshold(t *testing.T) {
	n := domain.Nomenclature{}
	if !IsLowStock(domain.Batch{Quantity: 5, Status: domain.BatchStatusAvailable}, n) {
		t.Fatal("quantity at default threshold must report low")
	}
	if IsLowStock(domain.Batch{Quantity: 6, Status: domain.BatchStatusAvailable}, n) {
		t.Fatal("quantity above default threshold must not report low")
	}
}

func TestIsLowStockVolumeThreshold(t *testing.T) {
	// Two 12 mL units, one untouched: 24 mL remaining.
	b := domain.Batch{Quantity: 2, UnitVolumeML: floatP(12), Status: domain.BatchStatusAvailable}

	low := domain.Nomenclature{MinStockThreshold: floatP(25), MinStockThresholdType: domain.ThresholdVolume}
	if !IsLowStock(b, low) {
		t.Fatal("24 mL against a 25 mL threshold must report low")
	}
	ok := domain.Nomenclature{MinStockThreshold: floatP(20), MinStockThresholdType: domain.ThresholdVolume}
	if IsLowStock(b, ok) {
		t.Fatal("24 mL against a 20 mL threshold must not report low")
	}

	// Partially consumed open unit counts its remaining volume only.
	partial := b
	partial.CurrentUnitVolumeML = floatP(3)
	if !IsLowStock(partial, ok) {
		t.Fatal("15 mL against a 20 mL threshold must report low")
	}

	// Without per-unit volume data the quantity rule applies.
	unitless := domain.Batch{Quantity: 2, Status: domain.BatchStatusAvailable}
	if !IsLowStock(unitless, low) {
		t.Fatal("volume threshold without unit data falls back to quantity")
	}
}

func TestIsLowStockPercentThreshold(t *testing.T) {
	n := domain.Nomenclature{MinStockThreshold: floatP(20), MinStockThresholdType: domain.ThresholdPercent}
	if !IsLowStock(domain.Batch{Quantity: 2, InitialQuantity: 10, Status: domain.BatchStatusAvailable}, n) {
		t.Fatal("20% remaining at a 20% threshold must report low")
	}
	if IsLowStock(domain.Batch{Quantity: 3, InitialQuantity: 10, Status: domain.BatchStatusAvailable}, n) {
		t.Fatal("30% remaining must not report low")
	}
	if IsLowStock(domain.Batch{Quantity: 2, Status: domain.BatchStatusAvailable}, n) {
		t.Fatal("percent threshold without initial quantity must not report low")
	}
}

func TestLowStockReport(t *testing.T) {
	store := newSeededStore(t, func(tx domain.Transaction) error {
		low, err := tx.CreateNomenclature(domain.Nomenclature{Code: "FBS", Name: "Serum", MinStockThreshold: floatP(10), MinStockThresholdType: domain.ThresholdQty})
		if err != nil {
			return err
		}
		ok, err := tx.CreateNomenclature(domain.Nomenclature{Code: "DMEM", Name: "Base medium", MinStockThreshold: floatP(2), MinStockThresholdType: domain.ThresholdQty})
		if err != nil {
			return err
		}
		if _, err := tx.CreateBatch(domain.Batch{NomenclatureID: low.ID, LotNumber: "F-1", Quantity: 4, Status: domain.BatchStatusAvailable}); err != nil {
			return err
		}
		if _, err := tx.CreateBatch(domain.Batch{NomenclatureID: ok.ID, LotNumber: "D-1", Quantity: 9, Status: domain.BatchStatusAvailable}); err != nil {
			return err
		}
		return nil
	})

	var entries []LowStockEntry
	if err := store.View(context.Background(), func(view domain.TransactionView) error {
		entries = LowStockReport(view)
		return nil
	}); err != nil {
		t.Fatalf("view: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 low-stock entry, got %d", len(entries))
	}
	if entries[0].Nomenclature.Code != "FBS" || entries[0].Batch.LotNumber != "F-1" {
		t.Fatalf("unexpected entry: %+v", entries[0])
	}
}
