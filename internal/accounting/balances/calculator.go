package balances

import (
	"github.com/meridian-erp/meridian-erp/internal/accounting/accounts"
	"github.com/meridian-erp/meridian-erp/internal/accounting/shared"
)

// Signed converts raw debit/credit sums into a balance expressed on the
// account's normal side. Debit-normal accounts grow with debits,
// credit-normal accounts grow with credits.
func Signed(normal accounts.NormalBalance, debit, credit float64) float64 {
	if normal == accounts.NormalBalanceDebit {
		return shared.Round2(debit - credit)
	}
	return shared.Round2(credit - debit)
}
