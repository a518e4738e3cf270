package core

import (
	"context"

	"culturecore/pkg/domain"
)

// Observe records confluence, morphology, and contamination readings for
// in-culture containers of a lot. It is the only lifecycle operation that
// consumes no inventory and changes no status.
func (s *Service) Observe(ctx context.Context, req domain.ObserveRequest) (domain.OperationResult, Result, error) {
	var out domain.OperationResult
	var res Result
	err := s.instrument(ctx, "observe", func(ctx context.Context) error {
		if len(req.Observations) == 0 {
			return domain.ValidationError{Field: "observations", Reason: "at least one observation required"}
		}
		for _, o := range req.Observations {
			if o.ConfluencePct < 0 || o.ConfluencePct > 100 {
				return domain.ValidationError{Field: "confluence_pct", Reason: "must be within 0-100"}
			}
			if o.Morphology == "" {
				return domain.ValidationError{Field: "morphology", Reason: "morphology tag is required"}
			}
		}
		release, err := s.locks.Acquire(req.LotID)
		if err != nil {
			return err
		}
		defer release()
		now := s.nowFn()
		res, err = s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			ids := make([]string, 0, len(req.Observations))
			for _, o := range req.Observations {
				ids = append(ids, o.ContainerID)
			}
			lot, _, _, err := selectSourceContainers(tx.Snapshot(), req.LotID, ids)
			if err != nil {
				return err
			}
			updated := make([]Container, 0, len(req.Observations))
			for _, o := range req.Observations {
				obs := o
				c, err := tx.UpdateContainer(o.ContainerID, func(c *Container) error {
					c.ConfluencePct = &obs.ConfluencePct
					c.Morphology = &obs.Morphology
					c.Contaminated = obs.Contaminated
					return nil
				})
				if err != nil {
					return err
				}
				updated = append(updated, c)
			}
			op, err := tx.AppendOperation(Operation{
				Type:               domain.OpObserve,
				CultureID:          lot.CultureID,
				LotID:              &lot.ID,
				PerformedAt:        now,
				SourceContainerIDs: ids,
			})
			if err != nil {
				return err
			}
			out = domain.OperationResult{Operation: op, Containers: updated, CommittedAt: now}
			return nil
		})
		return err
	})
	return out, res, err
}
