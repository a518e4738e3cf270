package core

import (
	"context"

	"culturecore/pkg/domain"
)

// Freeze banks a lot's measured suspension into cryovials. The bank's master
// or working designation is resolved on the same snapshot that creates it, so
// a culture's first bank is always the master bank. Banks start QC-pending;
// their vials cannot be thawed until the bank is approved.
func (s *Service) Freeze(ctx context.Context, req domain.FreezeRequest) (domain.OperationResult, Result, error) {
	var out domain.OperationResult
	var res Result
	err := s.instrument(ctx, "freeze", func(ctx context.Context) error {
		if err := validateSuspension(req.Suspension); err != nil {
			return err
		}
		if req.VialCount < 1 {
			return domain.ValidationError{Field: "vial_count", Reason: "must be at least 1"}
		}
		if req.VolumePerVial <= 0 {
			return domain.ValidationError{Field: "volume_per_vial_ml", Reason: "must be positive"}
		}
		if float64(req.VialCount)*req.VolumePerVial > req.Suspension.VolumeML {
			return domain.ValidationError{Field: "vial_count", Reason: "requested vial volume exceeds suspension volume"}
		}
		if req.MediumVolumeML <= 0 {
			return domain.ValidationError{Field: "medium_volume_ml", Reason: "must be positive"}
		}
		if req.FreezingMethod == "" {
			return domain.ValidationError{Field: "freezing_method", Reason: "required"}
		}
		release, err := s.locks.Acquire(req.LotID)
		if err != nil {
			return err
		}
		defer release()
		now := s.nowFn()
		res, err = s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			view := tx.Snapshot()
			lot, selected, _, err := selectSourceContainers(view, req.LotID, req.ContainerIDs)
			if err != nil {
				return err
			}
			if _, ok := view.FindStoragePosition(req.PositionID); !ok {
				return domain.ErrNotFound{Entity: EntityStoragePosition, ID: req.PositionID}
			}
			initial := 0.0
			if lot.InitialCells != nil {
				initial = *lot.InitialCells
			}
			metrics := DeriveMetrics(req.Suspension, initial, lot.SeededAt, now)

			rec, dev, err := chargeSelection(tx, req.FreezingMedium, req.MediumVolumeML)
			if err != nil {
				return err
			}
			consumed := []domain.ConsumptionRecord{rec}
			var deviations []domain.FEFODeviation
			if dev != nil {
				deviations = append(deviations, *dev)
			}

			bank, err := tx.CreateBank(Bank{
				CultureID:      lot.CultureID,
				LotID:          lot.ID,
				Type:           ResolveBankType(view, lot.CultureID),
				Status:         domain.BankStatusQCPending,
				FrozenAt:       now,
				FreezingMethod: req.FreezingMethod,
				TotalCells:     metrics.TotalCells,
				VialCount:      req.VialCount,
			})
			if err != nil {
				return err
			}
			cellsPerVial := CellsPerVial(metrics.TotalCells, req.VialCount)
			cellsPerML := CellsPerMLInVial(cellsPerVial, req.VolumePerVial)
			vials := make([]CryoVial, 0, req.VialCount)
			for i := 0; i < req.VialCount; i++ {
				pos := req.PositionID
				vial, err := tx.CreateCryoVial(CryoVial{
					BankID:     bank.ID,
					Status:     domain.VialStatusInStock,
					CellsCount: cellsPerVial,
					CellsPerML: cellsPerML,
					VolumeML:   req.VolumePerVial,
					PositionID: &pos,
				})
				if err != nil {
					return err
				}
				vials = append(vials, vial)
			}
			if err := markContainersUsed(tx, containerIDs(selected), domain.ContainerStatusDispose); err != nil {
				return err
			}
			source, err := closeLotIfDrained(tx, lot.ID, now)
			if err != nil {
				return err
			}
			vialIDs := make([]string, 0, len(vials))
			for _, v := range vials {
				vialIDs = append(vialIDs, v.ID)
			}
			op, err := tx.AppendOperation(Operation{
				Type:               domain.OpFreeze,
				CultureID:          lot.CultureID,
				LotID:              &lot.ID,
				PerformedAt:        now,
				Metrics:            &metrics,
				Consumed:           consumed,
				FEFODeviations:     deviations,
				SourceContainerIDs: containerIDs(selected),
				ResultBankID:       &bank.ID,
				ResultVialIDs:      vialIDs,
			})
			if err != nil {
				return err
			}
			out = domain.OperationResult{
				Operation:   op,
				Lots:        []Lot{source},
				Bank:        &bank,
				Vials:       vials,
				CommittedAt: now,
			}
			return nil
		})
		return err
	})
	return out, res, err
}
