package reports

import (
	"math"
	"sort"

	"github.com/meridian-erp/meridian-erp/internal/accounting/accounts"
	"github.com/meridian-erp/meridian-erp/internal/accounting/shared"
)

// BalanceSheetAccount summarises an account for assets, liabilities, or equity.
type BalanceSheetAccount struct {
	Code    string
	Name    string
	Balance float64
}

// BalanceSheetSection contains the accounts and totals for a classification.
type BalanceSheetSection struct {
	Label    string
	Accounts []BalanceSheetAccount
	Total    float64
}

// BalanceSheet is the structured response for the balance sheet report.
// RetainedEarnings carries the period's net income into equity so the
// equation holds without a formal year close.
type BalanceSheet struct {
	Assets                    BalanceSheetSection
	Liabilities               BalanceSheetSection
	Equity                    BalanceSheetSection
	RetainedEarnings          float64
	TotalLiabilitiesAndEquity float64
}

// Drift is the absolute gap between assets and liabilities plus equity.
func (bs BalanceSheet) Drift() float64 {
	return shared.Round2(math.Abs(bs.Assets.Total - bs.TotalLiabilitiesAndEquity))
}

// Balanced reports whether the accounting equation holds within tolerance.
func (bs BalanceSheet) Balanced() bool {
	return bs.Drift() <= shared.BalanceTolerance
}

// BuildBalanceSheet aggregates balances into assets, liabilities, and equity
// sections. Each side is shown positive on its natural balance.
func BuildBalanceSheet(balances []AccountBalance) BalanceSheet {
	assets := BalanceSheetSection{Label: "Assets"}
	liabilities := BalanceSheetSection{Label: "Liabilities"}
	equity := BalanceSheetSection{Label: "Equity"}
	var netIncome float64

	for _, acc := range balances {
		row := BalanceSheetAccount{Code: acc.Code, Name: acc.Name, Balance: acc.Natural()}
		switch acc.Type {
		case accounts.AccountTypeAsset:
			assets.Accounts = append(assets.Accounts, row)
			assets.Total += row.Balance
		case accounts.AccountTypeLiability:
			liabilities.Accounts = append(liabilities.Accounts, row)
			liabilities.Total += row.Balance
		case accounts.AccountTypeEquity:
			equity.Accounts = append(equity.Accounts, row)
			equity.Total += row.Balance
		case accounts.AccountTypeRevenue:
			netIncome += acc.Natural()
		case accounts.AccountTypeExpense:
			netIncome -= acc.Natural()
		}
	}

	sort.Slice(assets.Accounts, func(i, j int) bool { return assets.Accounts[i].Code < assets.Accounts[j].Code })
	sort.Slice(liabilities.Accounts, func(i, j int) bool { return liabilities.Accounts[i].Code < liabilities.Accounts[j].Code })
	sort.Slice(equity.Accounts, func(i, j int) bool { return equity.Accounts[i].Code < equity.Accounts[j].Code })

	assets.Total = shared.Round2(assets.Total)
	liabilities.Total = shared.Round2(liabilities.Total)
	equity.Total = shared.Round2(equity.Total)
	netIncome = shared.Round2(netIncome)
	return BalanceSheet{
		Assets:                    assets,
		Liabilities:               liabilities,
		Equity:                    equity,
		RetainedEarnings:          netIncome,
		TotalLiabilitiesAndEquity: shared.Round2(liabilities.Total + equity.Total + netIncome),
	}
}
