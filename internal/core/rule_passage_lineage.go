package core

import (
	"context"
	"fmt"

	"culturecore/pkg/domain"
)

// NewPassageLineageRule returns the in-transaction rule enforcing passage
// number lineage: a lot derived by passage carries its parent's passage
// number plus one, and a lot started from a thawed vial starts at zero.
func NewPassageLineageRule() domain.Rule {
	return passageLineageRule{}
}

type passageLineageRule struct{}

func (passageLineageRule) Name() string { return "passage_lineage" }

func (passageLineageRule) Evaluate(_ context.Context, view domain.RuleView, _ []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, lot := range view.ListLots() {
		switch {
		case lot.ParentLotID != nil:
			parent, ok := view.FindLot(*lot.ParentLotID)
			if !ok {
				res.Violations = append(res.Violations, domain.Violation{
					Rule:     "passage_lineage",
					Severity: domain.SeverityBlock,
					Message:  fmt.Sprintf("lot %s references missing parent %s", lot.ID, *lot.ParentLotID),
					Entity:   domain.EntityLot,
					EntityID: lot.ID,
				})
				continue
			}
			if lot.PassageNumber != parent.PassageNumber+1 {
				res.Violations = append(res.Violations, domain.Violation{
					Rule:     "passage_lineage",
					Severity: domain.SeverityBlock,
					Message:  fmt.Sprintf("lot %s at passage %d must be parent passage %d plus one", lot.ID, lot.PassageNumber, parent.PassageNumber),
					Entity:   domain.EntityLot,
					EntityID: lot.ID,
				})
			}
		case lot.SourceVialID != nil:
			if lot.PassageNumber != 0 {
				res.Violations = append(res.Violations, domain.Violation{
					Rule:     "passage_lineage",
					Severity: domain.SeverityBlock,
					Message:  fmt.Sprintf("thawed lot %s must start at passage 0, has %d", lot.ID, lot.PassageNumber),
					Entity:   domain.EntityLot,
					EntityID: lot.ID,
				})
			}
		default:
			if lot.PassageNumber < 0 {
				res.Violations = append(res.Violations, domain.Violation{
					Rule:     "passage_lineage",
					Severity: domain.SeverityBlock,
					Message:  fmt.Sprintf("lot %s has negative passage number %d", lot.ID, lot.PassageNumber),
					Entity:   domain.EntityLot,
					EntityID: lot.ID,
				})
			}
		}
	}
	return res, nil
}
