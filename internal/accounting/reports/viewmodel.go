package reports

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var moneyPrinter = message.NewPrinter(language.English)

// FormatMoney renders an amount with thousands separators and two decimals.
func FormatMoney(v float64) string {
	return moneyPrinter.Sprintf("%.2f", v)
}

// TrialBalanceViewModel holds presentation data for the trial balance report.
type TrialBalanceViewModel struct {
	CompanyName string
	PeriodLabel string
	Report      TrialBalance
}

// ProfitAndLossViewModel holds presentation data for profit & loss.
type ProfitAndLossViewModel struct {
	CompanyName string
	PeriodLabel string
	Report      ProfitAndLoss
}

// BalanceSheetViewModel contains data for the balance sheet report.
type BalanceSheetViewModel struct {
	CompanyName string
	PeriodLabel string
	Report      BalanceSheet
}
