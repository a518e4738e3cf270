package core

import (
	"context"

	"culturecore/pkg/domain"
)

// Passage dissociates selected containers of a lot and seeds the measured
// suspension into a successor generation. The split is full when the
// selection covers every in-culture container of the source lot, which closes
// the lot; otherwise it is partial and the lot stays active. Consumed source
// containers are terminal either way.
func (s *Service) Passage(ctx context.Context, req domain.PassageRequest) (domain.OperationResult, Result, error) {
	var out domain.OperationResult
	var res Result
	err := s.instrument(ctx, "passage", func(ctx context.Context) error {
		if err := validateSuspension(req.Suspension); err != nil {
			return err
		}
		if err := validateDestination(req.Destination); err != nil {
			return err
		}
		if req.DissociationVolume <= 0 {
			return domain.ValidationError{Field: "dissociation_volume_ml", Reason: "must be positive"}
		}
		if req.WashVolume <= 0 {
			return domain.ValidationError{Field: "wash_volume_ml", Reason: "must be positive"}
		}
		if req.SeedVolumeML <= 0 {
			return domain.ValidationError{Field: "seed_volume_ml", Reason: "must be positive"}
		}
		release, err := s.locks.Acquire(req.LotID)
		if err != nil {
			return err
		}
		defer release()
		now := s.nowFn()
		res, err = s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			view := tx.Snapshot()
			lot, selected, allSelected, err := selectSourceContainers(view, req.LotID, req.ContainerIDs)
			if err != nil {
				return err
			}
			if err := validatePosition(view, req.Destination.PositionID); err != nil {
				return err
			}
			splitMode := domain.SplitPartial
			if allSelected {
				splitMode = domain.SplitFull
			}
			initial := 0.0
			if lot.InitialCells != nil {
				initial = *lot.InitialCells
			}
			metrics := DeriveMetrics(req.Suspension, initial, lot.SeededAt, now)

			var consumed []domain.ConsumptionRecord
			var deviations []domain.FEFODeviation
			charge := func(sel domain.MediaSelection, volumeML float64) error {
				rec, dev, err := chargeSelection(tx, sel, volumeML)
				if err != nil {
					return err
				}
				consumed = append(consumed, rec)
				if dev != nil {
					deviations = append(deviations, *dev)
				}
				return nil
			}
			if err := charge(req.Dissociation, req.DissociationVolume); err != nil {
				return err
			}
			if err := charge(req.Wash, req.WashVolume); err != nil {
				return err
			}
			if err := charge(req.SeedingMedium, req.SeedVolumeML); err != nil {
				return err
			}

			child, err := tx.CreateLot(Lot{
				CultureID:     lot.CultureID,
				ParentLotID:   &lot.ID,
				PassageNumber: lot.PassageNumber + 1,
				Status:        domain.LotStatusActive,
				SeededAt:      now,
				InitialCells:  &metrics.TotalCells,
			})
			if err != nil {
				return err
			}
			containers, err := seedContainers(tx, child.ID, req.Destination, metrics.TotalCells)
			if err != nil {
				return err
			}
			if err := markContainersUsed(tx, containerIDs(selected), domain.ContainerStatusUsed); err != nil {
				return err
			}
			source, err := closeLotIfDrained(tx, lot.ID, now)
			if err != nil {
				return err
			}
			op, err := tx.AppendOperation(Operation{
				Type:               domain.OpPassage,
				CultureID:          lot.CultureID,
				LotID:              &lot.ID,
				PerformedAt:        now,
				SplitMode:          splitMode,
				Metrics:            &metrics,
				Consumed:           consumed,
				FEFODeviations:     deviations,
				SourceContainerIDs: containerIDs(selected),
				ResultLotIDs:       []string{child.ID},
				ResultContainerIDs: containerIDs(containers),
			})
			if err != nil {
				return err
			}
			out = domain.OperationResult{
				Operation:   op,
				Lots:        []Lot{child, source},
				Containers:  containers,
				CommittedAt: now,
			}
			return nil
		})
		return err
	})
	return out, res, err
}
