package core

import "culturecore/pkg/domain"

// ResolveBankType decides master versus working designation for the bank a
// freeze is about to create: master when the culture has no prior bank,
// working otherwise. It must be called on the same transaction snapshot that
// creates the bank row; stores serialize transactions, so two concurrent
// freezes cannot both observe zero banks.
func ResolveBankType(view domain.TransactionView, cultureID string) domain.BankType {
	if len(view.ListBanksForCulture(cultureID)) == 0 {
		return domain.BankTypeMaster
	}
	return domain.BankTypeWorking
}
