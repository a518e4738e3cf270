package core

import (
	"context"
	"testing"
	"time"

	"culturecore/pkg/domain"
)

func dateP(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestRankFEFOOrdersByExpiration(t *testing.T) {
	undated := Candidate{Source: domain.MediaSourceRef{Kind: domain.SourceBatch, ID: "b-undated"}, Name: "Undated"}
	late := Candidate{Source: domain.MediaSourceRef{Kind: domain.SourceBatch, ID: "b-late"}, Name: "Late", ExpirationDate: dateP(2026, 12, 1)}
	early := Candidate{Source: domain.MediaSourceRef{Kind: domain.SourceReadyMedium, ID: "m-early"}, Name: "Early", ExpirationDate: dateP(2026, 9, 1)}

	ranked := RankFEFO([]Candidate{undated, late, early})
	want := []string{"m-early", "b-late", "b-undated"}
	for i, id := range want {
		if ranked[i].Source.ID != id {
			t.Fatalf("rank[%d]=%s want %s", i, ranked[i].Source.ID, id)
		}
	}
}

func TestRankFEFOTieBreaks(t *testing.T) {
	exp := dateP(2026, 9, 1)
	a := Candidate{Source: domain.MediaSourceRef{ID: "z"}, Name: "Alpha", ExpirationDate: exp}
	b := Candidate{Source: domain.MediaSourceRef{ID: "a"}, Name: "Beta", ExpirationDate: exp}
	c := Candidate{Source: domain.MediaSourceRef{ID: "b"}, Name: "Alpha", ExpirationDate: exp}

	ranked := RankFEFO([]Candidate{b, a, c})
	// Same date: name ascending, then id ascending within the same name.
	want := []string{"b", "z", "a"}
	for i, id := range want {
		if ranked[i].Source.ID != id {
			t.Fatalf("rank[%d]=%s want %s", i, ranked[i].Source.ID, id)
		}
	}
}

func TestCheckSelection(t *testing.T) {
	first := domain.MediaSourceRef{Kind: domain.SourceReadyMedium, ID: "m1"}
	second := domain.MediaSourceRef{Kind: domain.SourceReadyMedium, ID: "m2"}
	ranked := []Candidate{
		{Source: first, ExpirationDate: dateP(2026, 9, 1)},
		{Source: second, ExpirationDate: dateP(2026, 10, 1)},
	}

	if dev := CheckSelection(nil, domain.UsageFeed, second); dev != nil {
		t.Fatalf("empty ranking must not deviate: %+v", dev)
	}
	if dev := CheckSelection(ranked, domain.UsageFeed, first); dev != nil {
		t.Fatalf("first pick must not deviate: %+v", dev)
	}
	dev := CheckSelection(ranked, domain.UsageFeed, second)
	if dev == nil {
		t.Fatal("expected deviation for non-first pick")
	}
	if dev.Usage != domain.UsageFeed || dev.Chosen != second || dev.Expected != first {
		t.Fatalf("unexpected deviation: %+v", dev)
	}
}

func TestResolveCandidatesFiltersPool(t *testing.T) {
	store := newSeededStore(t, func(tx domain.Transaction) error {
		n, err := tx.CreateNomenclature(domain.Nomenclature{Code: "TRYP", Name: "Trypsin", UsageTags: []domain.UsageTag{domain.UsagePassageDissociation}})
		if err != nil {
			return err
		}
		unit := 100.0
		if _, err := tx.CreateBatch(domain.Batch{NomenclatureID: n.ID, LotNumber: "T-1", Quantity: 2, UnitVolumeML: &unit, ExpirationDate: dateP(2026, 10, 1), Status: domain.BatchStatusAvailable}); err != nil {
			return err
		}
		if _, err := tx.CreateBatch(domain.Batch{NomenclatureID: n.ID, LotNumber: "T-empty", Quantity: 0, Status: domain.BatchStatusAvailable}); err != nil {
			return err
		}
		if _, err := tx.CreateReadyMedium(domain.ReadyMedium{Name: "Trypsin working", PhysicalState: domain.StateWorkingSolution, CurrentVolumeML: 50, Status: domain.MediumStatusActive, ExpirationDate: dateP(2026, 9, 1), UsageTags: []domain.UsageTag{domain.UsagePassageDissociation}}); err != nil {
			return err
		}
		if _, err := tx.CreateReadyMedium(domain.ReadyMedium{Name: "Expired stock", PhysicalState: domain.StateStockSolution, CurrentVolumeML: 80, Status: domain.MediumStatusExpired, UsageTags: []domain.UsageTag{domain.UsagePassageDissociation}}); err != nil {
			return err
		}
		if _, err := tx.CreateReadyMedium(domain.ReadyMedium{Name: "Feed medium", PhysicalState: domain.StateWorkingSolution, CurrentVolumeML: 500, Status: domain.MediumStatusActive, UsageTags: []domain.UsageTag{domain.UsageFeed}}); err != nil {
			return err
		}
		return nil
	})

	var got []Candidate
	if err := store.View(context.Background(), func(view domain.TransactionView) error {
		got = ResolveCandidates(view, domain.UsagePassageDissociation)
		return nil
	}); err != nil {
		t.Fatalf("view: %v", err)
	}

	if len(got) != 2 {
		t.Fatalf("expected 2 candidates, got %d: %+v", len(got), got)
	}
	if got[0].Name != "Trypsin working" || got[0].AvailableVolumeML != 50 {
		t.Fatalf("unexpected first candidate: %+v", got[0])
	}
	if got[1].Name != "Trypsin" || got[1].AvailableVolumeML != 200 || got[1].Quantity != 2 {
		t.Fatalf("unexpected second candidate: %+v", got[1])
	}
}
