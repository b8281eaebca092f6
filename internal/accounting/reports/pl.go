package reports

import (
	"sort"

	"github.com/meridian-erp/meridian-erp/internal/accounting/accounts"
	"github.com/meridian-erp/meridian-erp/internal/accounting/shared"
)

// ProfitAndLossAccount represents a revenue or expense account summary.
type ProfitAndLossAccount struct {
	Code   string
	Name   string
	Amount float64
}

// ProfitAndLossSection groups accounts by nature.
type ProfitAndLossSection struct {
	Label    string
	Accounts []ProfitAndLossAccount
	Total    float64
}

// ProfitAndLoss contains the structured output for the report.
type ProfitAndLoss struct {
	Revenue   ProfitAndLossSection
	Expense   ProfitAndLossSection
	NetIncome float64
}

// BuildProfitAndLoss aggregates accounts into revenue and expense sections.
// Revenue amounts are shown positive on their credit-normal side.
func BuildProfitAndLoss(balances []AccountBalance) ProfitAndLoss {
	revenue := ProfitAndLossSection{Label: "Revenue"}
	expense := ProfitAndLossSection{Label: "Expense"}

	for _, acc := range balances {
		amount := shared.Round2(acc.Debit - acc.Credit)
		row := ProfitAndLossAccount{Code: acc.Code, Name: acc.Name, Amount: amount}
		switch acc.Type {
		case accounts.AccountTypeRevenue:
			row.Amount = shared.Round2(-amount)
			revenue.Accounts = append(revenue.Accounts, row)
			revenue.Total += row.Amount
		case accounts.AccountTypeExpense:
			expense.Accounts = append(expense.Accounts, row)
			expense.Total += row.Amount
		}
	}

	sort.Slice(revenue.Accounts, func(i, j int) bool { return revenue.Accounts[i].Code < revenue.Accounts[j].Code })
	sort.Slice(expense.Accounts, func(i, j int) bool { return expense.Accounts[i].Code < expense.Accounts[j].Code })

	revenue.Total = shared.Round2(revenue.Total)
	expense.Total = shared.Round2(expense.Total)
	return ProfitAndLoss{
		Revenue:   revenue,
		Expense:   expense,
		NetIncome: shared.Round2(revenue.Total - expense.Total),
	}
}
