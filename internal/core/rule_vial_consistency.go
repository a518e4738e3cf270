package core

import (
	"context"
	"fmt"
	"math"

	"culturecore/pkg/domain"
)

// NewVialConsistencyRule returns the rule enforcing that every bank's vials
// agree with the bank record: the vial count matches, and each vial carries
// total_cells divided by vial count rounded to whole cells. The aggregate is
// allowed a rounding slack of one cell per vial.
func NewVialConsistencyRule() domain.Rule {
	return vialConsistencyRule{}
}

type vialConsistencyRule struct{}

func (vialConsistencyRule) Name() string { return "vial_consistency" }

func (vialConsistencyRule) Evaluate(_ context.Context, view domain.RuleView, _ []domain.Change) (domain.Result, error) {
	vialsByBank := make(map[string][]domain.CryoVial)
	for _, v := range view.ListCryoVials() {
		vialsByBank[v.BankID] = append(vialsByBank[v.BankID], v)
	}

	res := domain.Result{}
	for _, bank := range view.ListBanks() {
		vials := vialsByBank[bank.ID]
		if len(vials) != bank.VialCount {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "vial_consistency",
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("bank %s declares %d vials, found %d", bank.ID, bank.VialCount, len(vials)),
				Entity:   domain.EntityBank,
				EntityID: bank.ID,
			})
			continue
		}
		if bank.VialCount == 0 {
			continue
		}
		expected := math.Round(bank.TotalCells / float64(bank.VialCount))
		var sum float64
		for _, v := range vials {
			sum += v.CellsCount
			if math.Abs(v.CellsCount-expected) > 1 {
				res.Violations = append(res.Violations, domain.Violation{
					Rule:     "vial_consistency",
					Severity: domain.SeverityBlock,
					Message:  fmt.Sprintf("vial %s carries %.0f cells, expected %.0f", v.ID, v.CellsCount, expected),
					Entity:   domain.EntityCryoVial,
					EntityID: v.ID,
				})
			}
		}
		if math.Abs(sum-bank.TotalCells) > float64(bank.VialCount) {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "vial_consistency",
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("bank %s vial cells sum %.0f diverges from total %.0f beyond rounding", bank.ID, sum, bank.TotalCells),
				Entity:   domain.EntityBank,
				EntityID: bank.ID,
			})
		}
	}
	return res, nil
}
