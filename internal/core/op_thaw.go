package core

import (
	"context"

	"culturecore/pkg/domain"
)

// Thaw revives vials from an approved bank. Each vial independently starts a
// new lot at passage number zero with a single freshly seeded container; the
// vial itself becomes terminally thawed.
func (s *Service) Thaw(ctx context.Context, req domain.ThawRequest) (domain.OperationResult, Result, error) {
	var out domain.OperationResult
	var res Result
	err := s.instrument(ctx, "thaw", func(ctx context.Context) error {
		if len(req.VialIDs) == 0 {
			return domain.ValidationError{Field: "vial_ids", Reason: "at least one vial required"}
		}
		if req.ContainerTypeCode == "" {
			return domain.ValidationError{Field: "container_type_code", Reason: "required"}
		}
		if req.SurfaceAreaCM2 < 0 {
			return domain.ValidationError{Field: "surface_area_cm2", Reason: "must not be negative"}
		}
		if req.MediumVolumePerVialML <= 0 {
			return domain.ValidationError{Field: "medium_volume_per_vial_ml", Reason: "must be positive"}
		}
		release, err := s.locks.Acquire(req.BankID)
		if err != nil {
			return err
		}
		defer release()
		now := s.nowFn()
		res, err = s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			view := tx.Snapshot()
			bank, ok := view.FindBank(req.BankID)
			if !ok {
				return domain.ErrNotFound{Entity: EntityBank, ID: req.BankID}
			}
			if bank.Status != domain.BankStatusApproved {
				return domain.ValidationError{Field: "bank_id", Reason: "bank is not approved"}
			}
			if err := validatePosition(view, req.PositionID); err != nil {
				return err
			}
			seen := make(map[string]struct{}, len(req.VialIDs))
			vials := make([]CryoVial, 0, len(req.VialIDs))
			for _, id := range req.VialIDs {
				if _, dup := seen[id]; dup {
					return domain.ValidationError{Field: "vial_ids", Reason: "duplicate vial id " + id}
				}
				seen[id] = struct{}{}
				v, ok := view.FindCryoVial(id)
				if !ok || v.BankID != bank.ID {
					return domain.ErrNotFound{Entity: EntityCryoVial, ID: id}
				}
				if v.Status != domain.VialStatusInStock {
					return domain.ValidationError{Field: "vial_ids", Reason: "vial " + id + " is not in stock"}
				}
				vials = append(vials, v)
			}

			rec, dev, err := chargeSelection(tx, req.ThawMedium, req.MediumVolumePerVialML*float64(len(vials)))
			if err != nil {
				return err
			}
			consumed := []domain.ConsumptionRecord{rec}
			var deviations []domain.FEFODeviation
			if dev != nil {
				deviations = append(deviations, *dev)
			}

			lots := make([]Lot, 0, len(vials))
			containers := make([]Container, 0, len(vials))
			thawed := make([]CryoVial, 0, len(vials))
			for _, v := range vials {
				vial := v
				cells := vial.CellsCount
				lot, err := tx.CreateLot(Lot{
					CultureID:     bank.CultureID,
					SourceVialID:  &vial.ID,
					PassageNumber: 0,
					Status:        domain.LotStatusActive,
					SeededAt:      now,
					InitialCells:  &cells,
				})
				if err != nil {
					return err
				}
				var density *float64
				if d := CellsPerCM2(cells, req.SurfaceAreaCM2); d > 0 {
					density = &d
				}
				c, err := tx.CreateContainer(Container{
					LotID:             lot.ID,
					TypeCode:          req.ContainerTypeCode,
					SurfaceAreaCM2:    req.SurfaceAreaCM2,
					SeedingDensityCM2: density,
					Status:            domain.ContainerStatusInCulture,
					PositionID:        req.PositionID,
				})
				if err != nil {
					return err
				}
				updatedVial, err := tx.UpdateCryoVial(vial.ID, func(v *CryoVial) error {
					v.Status = domain.VialStatusThawed
					return nil
				})
				if err != nil {
					return err
				}
				lots = append(lots, lot)
				containers = append(containers, c)
				thawed = append(thawed, updatedVial)
			}

			lotIDs := make([]string, 0, len(lots))
			for _, l := range lots {
				lotIDs = append(lotIDs, l.ID)
			}
			op, err := tx.AppendOperation(Operation{
				Type:               domain.OpThaw,
				CultureID:          bank.CultureID,
				PerformedAt:        now,
				Consumed:           consumed,
				FEFODeviations:     deviations,
				SourceVialIDs:      req.VialIDs,
				ResultLotIDs:       lotIDs,
				ResultContainerIDs: containerIDs(containers),
			})
			if err != nil {
				return err
			}
			out = domain.OperationResult{
				Operation:   op,
				Lots:        lots,
				Containers:  containers,
				Vials:       thawed,
				CommittedAt: now,
			}
			return nil
		})
		return err
	})
	return out, res, err
}
