package core

import (
	"testing"
	"time"

	"culturecore/pkg/domain"
)

func aliquot(name, id string, volume float64, mutate func(*domain.ReadyMedium)) domain.ReadyMedium {
	m := domain.ReadyMedium{
		Name:            name,
		PhysicalState:   domain.StateAliquot,
		CurrentVolumeML: volume,
		UnitVolumeML:    floatP(volume),
		Status:          domain.MediumStatusActive,
		SourceBatchID:   stringP("batch-1"),
	}
	m.ID = id
	if mutate != nil {
		mutate(&m)
	}
	return m
}

func TestGroupAliquotsSkipsSingletonsAndNonAliquots(t *testing.T) {
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	media := []domain.ReadyMedium{
		aliquot("FBS aliquot", "a1", 50, nil),
		aliquot("FBS aliquot", "a2", 50, nil),
		aliquot("Glutamine aliquot", "g1", 10, nil),
		{Name: "DMEM complete", PhysicalState: domain.StateWorkingSolution, CurrentVolumeML: 500, Status: domain.MediumStatusActive},
	}

	groups, singles := GroupAliquots(media, now)
	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(groups))
	}
	if len(singles) != 1 || singles[0].ID != "g1" {
		t.Fatalf("expected lone aliquot g1 in singles, got %+v", singles)
	}
	g := groups[0]
	if g.Count != 2 || g.ActiveCount != 2 || g.TotalRemainingML != 100 {
		t.Fatalf("unexpected group aggregates: %+v", g)
	}
	if g.ExpiryState != ExpiryOK || g.EarliestExpiry != nil {
		t.Fatalf("undated group must be OK: %+v", g)
	}
}

func TestGroupAliquotsSplitsByVolumeAndSource(t *testing.T) {
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	media := []domain.ReadyMedium{
		aliquot("FBS aliquot", "a1", 50, nil),
		aliquot("FBS aliquot", "a2", 45, func(m *domain.ReadyMedium) { m.UnitVolumeML = floatP(45) }),
		aliquot("FBS aliquot", "a3", 50, func(m *domain.ReadyMedium) { m.SourceBatchID = stringP("batch-2") }),
	}
	groups, singles := GroupAliquots(media, now)
	if len(groups) != 0 || len(singles) != 3 {
		t.Fatalf("different volume or source must not group: groups=%d singles=%d", len(groups), len(singles))
	}
}

func TestGroupAliquotsExpiryStates(t *testing.T) {
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	expired := now.Add(-time.Hour)
	soon := now.Add(3 * 24 * time.Hour)
	far := now.Add(30 * 24 * time.Hour)

	media := []domain.ReadyMedium{
		aliquot("Red", "r1", 10, func(m *domain.ReadyMedium) { m.ExpirationDate = &expired }),
		aliquot("Red", "r2", 10, func(m *domain.ReadyMedium) { m.ExpirationDate = &far }),
		aliquot("Yellow", "y1", 10, func(m *domain.ReadyMedium) { m.ExpirationDate = &soon }),
		aliquot("Yellow", "y2", 10, func(m *domain.ReadyMedium) { m.ExpirationDate = &far }),
		aliquot("Green", "g1", 10, func(m *domain.ReadyMedium) { m.ExpirationDate = &far }),
		aliquot("Green", "g2", 10, nil),
	}

	groups, _ := GroupAliquots(media, now)
	if len(groups) != 3 {
		t.Fatalf("expected 3 groups, got %d", len(groups))
	}
	states := map[string]ExpiryState{}
	for _, g := range groups {
		states[g.Name] = g.ExpiryState
	}
	if states["Red"] != ExpiryExpired || states["Yellow"] != ExpiryWarning || states["Green"] != ExpiryOK {
		t.Fatalf("unexpected expiry states: %+v", states)
	}

	SortGroupsByUrgency(groups)
	if groups[0].Name != "Red" || groups[1].Name != "Yellow" || groups[2].Name != "Green" {
		t.Fatalf("unexpected urgency order: %s %s %s", groups[0].Name, groups[1].Name, groups[2].Name)
	}
}

func TestPickFromGroup(t *testing.T) {
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	early := now.Add(24 * time.Hour)
	late := now.Add(48 * time.Hour)

	media := []domain.ReadyMedium{
		aliquot("FBS aliquot", "drained", 0, func(m *domain.ReadyMedium) { m.ExpirationDate = &early }),
		aliquot("FBS aliquot", "soonest", 50, func(m *domain.ReadyMedium) { m.ExpirationDate = &early }),
		aliquot("FBS aliquot", "later", 50, func(m *domain.ReadyMedium) { m.ExpirationDate = &late }),
	}
	groups, _ := GroupAliquots(media, now)
	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(groups))
	}
	// The report carries the pick so consumers drain the right member.
	if groups[0].NextPickID != "soonest" {
		t.Fatalf("NextPickID=%q want soonest", groups[0].NextPickID)
	}
	picked, ok := groups[0].PickFromGroup()
	if !ok || picked.ID != "soonest" {
		t.Fatalf("PickFromGroup=%+v ok=%v, want soonest", picked, ok)
	}

	empty := AliquotGroup{Members: []domain.ReadyMedium{aliquot("x", "x1", 0, nil)}}
	if _, ok := empty.PickFromGroup(); ok {
		t.Fatal("group with no usable member must not pick")
	}
}
