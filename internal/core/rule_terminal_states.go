package core

import (
	"context"
	"fmt"

	"culturecore/pkg/domain"
)

// NewTerminalStateRule returns the rule blocking transitions out of terminal
// states: used containers, thawed or disposed vials, and disposed lots never
// change again.
func NewTerminalStateRule() domain.Rule {
	return terminalStateRule{}
}

type terminalStateRule struct{}

func (terminalStateRule) Name() string { return "terminal_states" }

func (terminalStateRule) Evaluate(_ context.Context, _ domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, change := range changes {
		if change.Action != domain.ActionUpdate {
			continue
		}
		switch change.Entity {
		case domain.EntityContainer:
			before, okB := change.Before.(domain.Container)
			after, okA := change.After.(domain.Container)
			if !okB || !okA {
				continue
			}
			if before.Status == domain.ContainerStatusUsed && after.Status != before.Status {
				res.Violations = append(res.Violations, violationFor(change.Entity, before.ID,
					fmt.Sprintf("container %s is used and cannot transition to %s", before.ID, after.Status)))
			}
		case domain.EntityCryoVial:
			before, okB := change.Before.(domain.CryoVial)
			after, okA := change.After.(domain.CryoVial)
			if !okB || !okA {
				continue
			}
			terminal := before.Status == domain.VialStatusThawed || before.Status == domain.VialStatusDisposed
			if terminal && after.Status != before.Status {
				res.Violations = append(res.Violations, violationFor(change.Entity, before.ID,
					fmt.Sprintf("vial %s is %s and cannot transition to %s", before.ID, before.Status, after.Status)))
			}
		case domain.EntityLot:
			before, okB := change.Before.(domain.Lot)
			after, okA := change.After.(domain.Lot)
			if !okB || !okA {
				continue
			}
			if before.Status == domain.LotStatusDisposed && after.Status != before.Status {
				res.Violations = append(res.Violations, violationFor(change.Entity, before.ID,
					fmt.Sprintf("lot %s is disposed and cannot transition to %s", before.ID, after.Status)))
			}
			if before.Status == domain.LotStatusClosed && after.Status == domain.LotStatusDisposed {
				res.Violations = append(res.Violations, violationFor(change.Entity, before.ID,
					fmt.Sprintf("lot %s is closed; disposal is only reachable from active", before.ID)))
			}
		}
	}
	return res, nil
}

func violationFor(entity domain.EntityType, id, msg string) domain.Violation {
	return domain.Violation{
		Rule:     "terminal_states",
		Severity: domain.SeverityBlock,
		Message:  msg,
		Entity:   entity,
		EntityID: id,
	}
}
