package core

import (
	"sort"
	"time"

	"culturecore/pkg/domain"
)

// aliquotExpiryWarningWindow is the lead time within which a not-yet-expired
// aliquot is surfaced as a warning.
const aliquotExpiryWarningWindow = 7 * 24 * time.Hour

// ExpiryState classifies the earliest-expiring member of an aliquot group.
type ExpiryState string

// Expiry states ordered worst first for group ranking.
const (
	ExpiryExpired ExpiryState = "expired"
	ExpiryWarning ExpiryState = "warning"
	ExpiryOK      ExpiryState = "ok"
)

// AliquotGroup aggregates interchangeable aliquots of the same source and
// volume. Groups exist only to reduce noise for true duplicates: a lone
// aliquot is never grouped.
type AliquotGroup struct {
	Name             string               `json:"name"`
	UnitVolumeML     float64              `json:"unit_volume_ml"`
	SourceBatchID    string               `json:"source_batch_id"`
	Members          []domain.ReadyMedium `json:"members"`
	Count            int                  `json:"count"`
	ActiveCount      int                  `json:"active_count"`
	TotalRemainingML float64              `json:"total_remaining_ml"`
	EarliestExpiry   *time.Time           `json:"earliest_expiry,omitempty"`
	ExpiryState      ExpiryState          `json:"expiry_state"`
	NextPickID       string               `json:"next_pick_id,omitempty"`
}

type aliquotKey struct {
	name   string
	volume float64
	source string
}

// GroupAliquots partitions ALIQUOT-state ready media into groups keyed by
// (name, per-unit volume, source batch). Singletons are returned separately
// and untouched.
func GroupAliquots(media []domain.ReadyMedium, now time.Time) (groups []AliquotGroup, singles []domain.ReadyMedium) {
	buckets := make(map[aliquotKey][]domain.ReadyMedium)
	var order []aliquotKey
	for _, m := range media {
		if m.PhysicalState != domain.StateAliquot {
			continue
		}
		key := aliquotKey{name: m.Name, source: deref(m.SourceBatchID)}
		if m.UnitVolumeML != nil {
			key.volume = *m.UnitVolumeML
		}
		if _, seen := buckets[key]; !seen {
			order = append(order, key)
		}
		buckets[key] = append(buckets[key], m)
	}
	for _, key := range order {
		members := buckets[key]
		if len(members) < 2 {
			singles = append(singles, members...)
			continue
		}
		groups = append(groups, buildAliquotGroup(key, members, now))
	}
	return groups, singles
}

func buildAliquotGroup(key aliquotKey, members []domain.ReadyMedium, now time.Time) AliquotGroup {
	g := AliquotGroup{
		Name:          key.name,
		UnitVolumeML:  key.volume,
		SourceBatchID: key.source,
		Members:       members,
		Count:         len(members),
		ExpiryState:   ExpiryOK,
	}
	for _, m := range members {
		if m.Status == domain.MediumStatusActive {
			g.ActiveCount++
		}
		g.TotalRemainingML += m.CurrentVolumeML
		if m.ExpirationDate == nil {
			continue
		}
		if g.EarliestExpiry == nil || m.ExpirationDate.Before(*g.EarliestExpiry) {
			g.EarliestExpiry = m.ExpirationDate
		}
	}
	if g.EarliestExpiry != nil {
		switch {
		case !g.EarliestExpiry.After(now):
			g.ExpiryState = ExpiryExpired
		case g.EarliestExpiry.Sub(now) <= aliquotExpiryWarningWindow:
			g.ExpiryState = ExpiryWarning
		}
	}
	if next, ok := g.PickFromGroup(); ok {
		g.NextPickID = next.ID
	}
	return g
}

// PickFromGroup resolves consumption of an aliquot group to one concrete
// member: the FEFO policy applied within the group.
func (g AliquotGroup) PickFromGroup() (domain.ReadyMedium, bool) {
	var pool []Candidate
	byID := make(map[string]domain.ReadyMedium, len(g.Members))
	for _, m := range g.Members {
		if m.Status != domain.MediumStatusActive || m.CurrentVolumeML <= 0 {
			continue
		}
		byID[m.ID] = m
		pool = append(pool, Candidate{
			Source:            domain.MediaSourceRef{Kind: domain.SourceReadyMedium, ID: m.ID},
			Name:              m.Name,
			ExpirationDate:    m.ExpirationDate,
			AvailableVolumeML: m.CurrentVolumeML,
		})
	}
	ranked := RankFEFO(pool)
	if len(ranked) == 0 {
		return domain.ReadyMedium{}, false
	}
	return byID[ranked[0].Source.ID], true
}

// SortGroupsByUrgency orders groups worst-expiry first, ties broken by the
// nearest expiration date then name.
func SortGroupsByUrgency(groups []AliquotGroup) {
	rank := map[ExpiryState]int{ExpiryExpired: 0, ExpiryWarning: 1, ExpiryOK: 2}
	sort.SliceStable(groups, func(i, j int) bool {
		a, b := groups[i], groups[j]
		if rank[a.ExpiryState] != rank[b.ExpiryState] {
			return rank[a.ExpiryState] < rank[b.ExpiryState]
		}
		switch {
		case a.EarliestExpiry == nil && b.EarliestExpiry == nil:
		case a.EarliestExpiry == nil:
			return false
		case b.EarliestExpiry == nil:
			return true
		case !a.EarliestExpiry.Equal(*b.EarliestExpiry):
			return a.EarliestExpiry.Before(*b.EarliestExpiry)
		}
		return a.Name < b.Name
	})
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
