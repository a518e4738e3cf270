package core

import (
	"context"
	"fmt"
	"sort"

	"culturecore/pkg/domain"
)

// NewBankOrderRule returns the rule enforcing master/working bank ordering
// per culture: the chronologically first bank is the master bank and every
// later bank is a working bank. Freshly created banks must be pending QC.
func NewBankOrderRule() domain.Rule {
	return bankOrderRule{}
}

type bankOrderRule struct{}

func (bankOrderRule) Name() string { return "bank_order" }

func (bankOrderRule) Evaluate(_ context.Context, view domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}

	for _, change := range changes {
		if change.Entity != domain.EntityBank || change.Action != domain.ActionCreate {
			continue
		}
		bank, ok := change.After.(domain.Bank)
		if !ok {
			continue
		}
		if bank.Status != domain.BankStatusQCPending {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "bank_order",
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("bank %s created with status %s, must start pending QC", bank.ID, bank.Status),
				Entity:   domain.EntityBank,
				EntityID: bank.ID,
			})
		}
	}

	byCulture := make(map[string][]domain.Bank)
	for _, b := range view.ListBanks() {
		byCulture[b.CultureID] = append(byCulture[b.CultureID], b)
	}
	for cultureID, banks := range byCulture {
		sort.Slice(banks, func(i, j int) bool {
			if !banks[i].CreatedAt.Equal(banks[j].CreatedAt) {
				return banks[i].CreatedAt.Before(banks[j].CreatedAt)
			}
			return banks[i].ID < banks[j].ID
		})
		for i, b := range banks {
			want := domain.BankTypeWorking
			if i == 0 {
				want = domain.BankTypeMaster
			}
			if b.Type != want {
				res.Violations = append(res.Violations, domain.Violation{
					Rule:     "bank_order",
					Severity: domain.SeverityBlock,
					Message:  fmt.Sprintf("culture %s bank %s has type %s, expected %s by creation order", cultureID, b.ID, b.Type, want),
					Entity:   domain.EntityBank,
					EntityID: b.ID,
				})
			}
		}
	}
	return res, nil
}
