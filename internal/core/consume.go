package core

import (
	"context"
	"fmt"
	"time"

	"culturecore/pkg/domain"
)

// AttachmentStore persists non-critical operation attachments such as
// observation photos. Attachment failures never roll back a committed
// operation.
type AttachmentStore interface {
	SaveAttachment(ctx context.Context, key, contentType string, data []byte) (string, error)
}

// AttachObservationPhoto stores a photo against a committed operation and
// returns the stored object key.
func (s *Service) AttachObservationPhoto(ctx context.Context, operationID, filename, contentType string, data []byte) (string, error) {
	if s.attach == nil {
		return "", domain.ValidationError{Field: "attachment", Reason: "attachment storage not configured"}
	}
	if filename == "" {
		return "", domain.ValidationError{Field: "filename", Reason: "required"}
	}
	found := false
	err := s.store.View(ctx, func(view domain.TransactionView) error {
		for _, op := range view.ListOperations() {
			if op.ID == operationID {
				found = true
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	if !found {
		return "", domain.ErrNotFound{Entity: EntityOperation, ID: operationID}
	}
	key := fmt.Sprintf("operations/%s/%s", operationID, filename)
	return s.attach.SaveAttachment(ctx, key, contentType, data)
}

// chargeSelection consumes volumeML from the selected inventory source inside
// the transaction. The selection is checked against the FEFO ranking of the
// current snapshot; a non-first pick yields an advisory deviation, never an
// error. Insufficient stock is a ConflictError: the caller must re-resolve
// candidates before retrying.
func chargeSelection(tx domain.Transaction, sel domain.MediaSelection, volumeML float64) (domain.ConsumptionRecord, *domain.FEFODeviation, error) {
	if volumeML <= 0 {
		return domain.ConsumptionRecord{}, nil, domain.ValidationError{Field: "volume_ml", Reason: "must be positive"}
	}
	if sel.Source.ID == "" {
		return domain.ConsumptionRecord{}, nil, domain.ValidationError{Field: "source.id", Reason: "required"}
	}
	ranked := ResolveCandidates(tx.Snapshot(), sel.Usage)
	deviation := CheckSelection(ranked, sel.Usage, sel.Source)
	switch sel.Source.Kind {
	case domain.SourceReadyMedium:
		rec, err := chargeReadyMedium(tx, sel.Source, volumeML)
		return rec, deviation, err
	case domain.SourceBatch:
		rec, err := chargeBatch(tx, sel.Source, volumeML)
		return rec, deviation, err
	default:
		return domain.ConsumptionRecord{}, nil, domain.ValidationError{Field: "source.kind", Reason: "unknown media source kind"}
	}
}

func chargeReadyMedium(tx domain.Transaction, src domain.MediaSourceRef, volumeML float64) (domain.ConsumptionRecord, error) {
	_, err := tx.UpdateReadyMedium(src.ID, func(m *domain.ReadyMedium) error {
		if m.Status != domain.MediumStatusActive {
			return domain.ConflictError{Entity: EntityReadyMedium, ID: m.ID, Reason: "medium is not active"}
		}
		if m.CurrentVolumeML < volumeML {
			return domain.ConflictError{Entity: EntityReadyMedium, ID: m.ID, Reason: "insufficient volume"}
		}
		m.CurrentVolumeML -= volumeML
		if m.CurrentVolumeML == 0 {
			m.Status = domain.MediumStatusUsed
		}
		return nil
	})
	if err != nil {
		return domain.ConsumptionRecord{}, err
	}
	v := volumeML
	return domain.ConsumptionRecord{Source: src, VolumeML: &v}, nil
}

// chargeBatch consumes from a batch. Batches with per-unit volume data are
// drained volumetrically across units, the open unit first; batches without
// it are unitary and one unit is consumed per operation regardless of the
// requested volume.
func chargeBatch(tx domain.Transaction, src domain.MediaSourceRef, volumeML float64) (domain.ConsumptionRecord, error) {
	volumetric := false
	_, err := tx.UpdateBatch(src.ID, func(b *domain.Batch) error {
		if b.Status != domain.BatchStatusAvailable || b.Quantity <= 0 {
			return domain.ConflictError{Entity: EntityBatch, ID: b.ID, Reason: "batch is not available"}
		}
		if b.UnitVolumeML == nil || *b.UnitVolumeML <= 0 {
			b.Quantity--
			if b.Quantity <= 0 {
				b.Quantity = 0
				b.Status = domain.BatchStatusUsed
			}
			return nil
		}
		volumetric = true
		unit := *b.UnitVolumeML
		current := unit
		if b.CurrentUnitVolumeML != nil {
			current = *b.CurrentUnitVolumeML
		}
		remaining := volumeML
		for remaining > 0 && b.Quantity > 0 {
			if current > remaining {
				current -= remaining
				remaining = 0
				break
			}
			remaining -= current
			b.Quantity--
			current = unit
		}
		if remaining > 0 {
			return domain.ConflictError{Entity: EntityBatch, ID: b.ID, Reason: "insufficient volume"}
		}
		if b.Quantity <= 0 {
			b.Quantity = 0
			b.Status = domain.BatchStatusUsed
			b.CurrentUnitVolumeML = nil
			return nil
		}
		b.CurrentUnitVolumeML = &current
		return nil
	})
	if err != nil {
		return domain.ConsumptionRecord{}, err
	}
	if volumetric {
		v := volumeML
		return domain.ConsumptionRecord{Source: src, VolumeML: &v}, nil
	}
	q := 1.0
	return domain.ConsumptionRecord{Source: src, Quantity: &q}, nil
}

// selectSourceContainers resolves and validates the containers an operation
// acts on: the lot must be active, every id must belong to it and be in
// culture, and ids must be unique. allSelected reports whether the selection
// covers the lot's complete in-culture set, which decides full versus partial
// split semantics.
func selectSourceContainers(view domain.TransactionView, lotID string, ids []string) (lot domain.Lot, selected []domain.Container, allSelected bool, err error) {
	lot, ok := view.FindLot(lotID)
	if !ok {
		return domain.Lot{}, nil, false, domain.ErrNotFound{Entity: EntityLot, ID: lotID}
	}
	if lot.Status != domain.LotStatusActive {
		return domain.Lot{}, nil, false, domain.ValidationError{Field: "lot_id", Reason: "lot is not active"}
	}
	if len(ids) == 0 {
		return domain.Lot{}, nil, false, domain.ValidationError{Field: "container_ids", Reason: "at least one container required"}
	}
	active := make(map[string]domain.Container)
	for _, c := range view.ListContainersForLot(lotID) {
		if c.Status == domain.ContainerStatusInCulture {
			active[c.ID] = c
		}
	}
	seen := make(map[string]struct{}, len(ids))
	selected = make([]domain.Container, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			return domain.Lot{}, nil, false, domain.ValidationError{Field: "container_ids", Reason: "duplicate container id " + id}
		}
		seen[id] = struct{}{}
		c, ok := active[id]
		if !ok {
			return domain.Lot{}, nil, false, domain.ValidationError{Field: "container_ids", Reason: "container " + id + " is not in culture for this lot"}
		}
		selected = append(selected, c)
	}
	return lot, selected, len(selected) == len(active), nil
}

// markContainersUsed consumes the source containers of a destructive
// operation.
func markContainersUsed(tx domain.Transaction, ids []string, to domain.ContainerStatus) error {
	for _, id := range ids {
		if _, err := tx.UpdateContainer(id, func(c *domain.Container) error {
			c.Status = to
			return nil
		}); err != nil {
			return err
		}
	}
	return nil
}

// closeLotIfDrained closes a lot that no longer has in-culture containers
// after a destructive operation.
func closeLotIfDrained(tx domain.Transaction, lotID string, now time.Time) (domain.Lot, error) {
	view := tx.Snapshot()
	for _, c := range view.ListContainersForLot(lotID) {
		if c.Status == domain.ContainerStatusInCulture {
			lot, _ := view.FindLot(lotID)
			return lot, nil
		}
	}
	return tx.UpdateLot(lotID, func(l *domain.Lot) error {
		if l.Status == domain.LotStatusActive {
			l.Status = domain.LotStatusClosed
			l.ClosedAt = &now
		}
		return nil
	})
}

func containerIDs(cs []domain.Container) []string {
	out := make([]string, 0, len(cs))
	for _, c := range cs {
		out = append(out, c.ID)
	}
	return out
}
