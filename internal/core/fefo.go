package core

import (
	"sort"
	"time"

	"culturecore/pkg/domain"
)

// Candidate is one allocatable inventory source for a usage tag, typed as a
// ready medium or a batch through its source reference.
type Candidate struct {
	Source            domain.MediaSourceRef `json:"source"`
	Name              string                `json:"name"`
	ExpirationDate    *time.Time            `json:"expiration_date,omitempty"`
	AvailableVolumeML float64               `json:"available_volume_ml"`
	Quantity          float64               `json:"quantity"`
}

// RankFEFO orders candidates first-expired-first: ascending expiration date,
// undated entries last. Ties break by name then id so the ranking is stable
// across snapshots.
func RankFEFO(candidates []Candidate) []Candidate {
	ranked := append([]Candidate(nil), candidates...)
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		switch {
		case a.ExpirationDate == nil && b.ExpirationDate == nil:
		case a.ExpirationDate == nil:
			return false
		case b.ExpirationDate == nil:
			return true
		case !a.ExpirationDate.Equal(*b.ExpirationDate):
			return a.ExpirationDate.Before(*b.ExpirationDate)
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.Source.ID < b.Source.ID
	})
	return ranked
}

// CheckSelection flags the chosen source against the FEFO ranking. Selecting
// the first candidate is compliant; anything else returns an advisory
// deviation. Selection never mutates state.
func CheckSelection(ranked []Candidate, usage domain.UsageTag, chosen domain.MediaSourceRef) *domain.FEFODeviation {
	if len(ranked) == 0 || ranked[0].Source == chosen {
		return nil
	}
	return &domain.FEFODeviation{
		Usage:    usage,
		Chosen:   chosen,
		Expected: ranked[0].Source,
	}
}

// ResolveCandidates assembles the FEFO-ranked candidate pool for a usage tag
// from active ready media and available batches in one consistent snapshot.
func ResolveCandidates(view domain.RuleView, usage domain.UsageTag) []Candidate {
	var pool []Candidate
	for _, m := range view.ListReadyMedia() {
		if m.Status != domain.MediumStatusActive || m.CurrentVolumeML <= 0 {
			continue
		}
		if !hasTag(m.UsageTags, usage) {
			continue
		}
		pool = append(pool, Candidate{
			Source:            domain.MediaSourceRef{Kind: domain.SourceReadyMedium, ID: m.ID},
			Name:              m.Name,
			ExpirationDate:    m.ExpirationDate,
			AvailableVolumeML: m.CurrentVolumeML,
		})
	}
	byID := make(map[string]domain.Nomenclature)
	for _, n := range view.ListNomenclatures() {
		byID[n.ID] = n
	}
	for _, b := range view.ListBatches() {
		if b.Status != domain.BatchStatusAvailable || b.Quantity <= 0 {
			continue
		}
		n, ok := byID[b.NomenclatureID]
		if !ok || !hasTag(n.UsageTags, usage) {
			continue
		}
		c := Candidate{
			Source:         domain.MediaSourceRef{Kind: domain.SourceBatch, ID: b.ID},
			Name:           n.Name,
			ExpirationDate: b.ExpirationDate,
			Quantity:       b.Quantity,
		}
		if vol, ok := batchTotalVolume(b); ok {
			c.AvailableVolumeML = vol
		}
		pool = append(pool, c)
	}
	return RankFEFO(pool)
}

func hasTag(tags []domain.UsageTag, usage domain.UsageTag) bool {
	for _, t := range tags {
		if t == usage {
			return true
		}
	}
	return false
}
