package core

import (
	"context"

	"culturecore/pkg/domain"
)

// Feed exchanges medium on in-culture containers, charging the main medium
// and any additive components against inventory. Container state does not
// change.
func (s *Service) Feed(ctx context.Context, req domain.FeedRequest) (domain.OperationResult, Result, error) {
	var out domain.OperationResult
	var res Result
	err := s.instrument(ctx, "feed", func(ctx context.Context) error {
		if req.VolumePerContainerML <= 0 {
			return domain.ValidationError{Field: "volume_per_container_ml", Reason: "must be positive"}
		}
		for _, a := range req.Additives {
			if a.VolumePerContainerML <= 0 {
				return domain.ValidationError{Field: "additives.volume_per_container_ml", Reason: "must be positive"}
			}
		}
		release, err := s.locks.Acquire(req.LotID)
		if err != nil {
			return err
		}
		defer release()
		now := s.nowFn()
		res, err = s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			lot, selected, _, err := selectSourceContainers(tx.Snapshot(), req.LotID, req.ContainerIDs)
			if err != nil {
				return err
			}
			count := float64(len(selected))
			var consumed []domain.ConsumptionRecord
			var deviations []domain.FEFODeviation
			rec, dev, err := chargeSelection(tx, req.Medium, req.VolumePerContainerML*count)
			if err != nil {
				return err
			}
			consumed = append(consumed, rec)
			if dev != nil {
				deviations = append(deviations, *dev)
			}
			for _, a := range req.Additives {
				rec, dev, err := chargeSelection(tx, a.Selection, a.VolumePerContainerML*count)
				if err != nil {
					return err
				}
				consumed = append(consumed, rec)
				if dev != nil {
					deviations = append(deviations, *dev)
				}
			}
			op, err := tx.AppendOperation(Operation{
				Type:               domain.OpFeed,
				CultureID:          lot.CultureID,
				LotID:              &lot.ID,
				PerformedAt:        now,
				Consumed:           consumed,
				FEFODeviations:     deviations,
				SourceContainerIDs: containerIDs(selected),
			})
			if err != nil {
				return err
			}
			out = domain.OperationResult{Operation: op, Containers: selected, CommittedAt: now}
			return nil
		})
		return err
	})
	return out, res, err
}
