package reports

import (
	"testing"

	"github.com/meridian-erp/meridian-erp/internal/accounting/accounts"
	_ "github.com/meridian-erp/meridian-erp/testing"
)

func sampleBalances() []AccountBalance {
	return []AccountBalance{
		{Code: "1010", Name: "Cash", Type: accounts.AccountTypeAsset, NormalBalance: accounts.NormalBalanceDebit, Opening: 500, Debit: 1100, Credit: 400},
		{Code: "1100", Name: "Accounts Receivable", Type: accounts.AccountTypeAsset, NormalBalance: accounts.NormalBalanceDebit, Debit: 300, Credit: 100},
		{Code: "2100", Name: "Tax Payable", Type: accounts.AccountTypeLiability, NormalBalance: accounts.NormalBalanceCredit, Credit: 100},
		{Code: "3000", Name: "Owner Equity", Type: accounts.AccountTypeEquity, NormalBalance: accounts.NormalBalanceCredit, Opening: -500, Credit: 100},
		{Code: "4010", Name: "Sales Revenue", Type: accounts.AccountTypeRevenue, NormalBalance: accounts.NormalBalanceCredit, Credit: 1000},
		{Code: "5010", Name: "Rent Expense", Type: accounts.AccountTypeExpense, NormalBalance: accounts.NormalBalanceDebit, Debit: 200},
	}
}

func TestBuildTrialBalanceGroupsAndTotals(t *testing.T) {
	tb := BuildTrialBalance(sampleBalances())

	if len(tb.Groups) != 5 {
		t.Fatalf("expected 5 groups, got %d", len(tb.Groups))
	}
	if tb.Groups[0].Key != "1" || tb.Groups[4].Key != "5" {
		t.Fatalf("groups not sorted by key: %s..%s", tb.Groups[0].Key, tb.Groups[4].Key)
	}

	assets := tb.Groups[0]
	if len(assets.Accounts) != 2 {
		t.Fatalf("expected 2 asset rows, got %d", len(assets.Accounts))
	}
	if assets.Accounts[0].Code != "1010" || assets.Accounts[1].Code != "1100" {
		t.Fatal("asset rows not sorted by code")
	}
	if assets.Accounts[0].Closing != 1200 {
		t.Fatalf("cash closing = %v, want 1200", assets.Accounts[0].Closing)
	}
	if assets.Debit != 1400 || assets.Credit != 500 {
		t.Fatalf("asset group activity = %v/%v", assets.Debit, assets.Credit)
	}

	if tb.TotalDebit != 1600 || tb.TotalCredit != 1700 {
		t.Fatalf("grand totals = %v/%v", tb.TotalDebit, tb.TotalCredit)
	}
}

func TestTrialBalanceBalanced(t *testing.T) {
	tb := BuildTrialBalance([]AccountBalance{
		{Code: "1010", Debit: 100},
		{Code: "4010", Credit: 100},
	})
	if !tb.Balanced() {
		t.Fatal("equal totals should report balanced")
	}

	tb = BuildTrialBalance([]AccountBalance{
		{Code: "1010", Debit: 100},
		{Code: "4010", Credit: 90},
	})
	if tb.Balanced() {
		t.Fatal("unequal totals should report out of balance")
	}
}

func TestBuildProfitAndLoss(t *testing.T) {
	pl := BuildProfitAndLoss(sampleBalances())

	if len(pl.Revenue.Accounts) != 1 || len(pl.Expense.Accounts) != 1 {
		t.Fatalf("sections = %d revenue, %d expense", len(pl.Revenue.Accounts), len(pl.Expense.Accounts))
	}
	if pl.Revenue.Accounts[0].Amount != 1000 {
		t.Fatalf("revenue shown = %v, want 1000", pl.Revenue.Accounts[0].Amount)
	}
	if pl.Expense.Total != 200 {
		t.Fatalf("expense total = %v, want 200", pl.Expense.Total)
	}
	if pl.NetIncome != 800 {
		t.Fatalf("net income = %v, want 800", pl.NetIncome)
	}
}

func TestBuildProfitAndLossIgnoresBalanceSheetAccounts(t *testing.T) {
	pl := BuildProfitAndLoss([]AccountBalance{
		{Code: "1010", Type: accounts.AccountTypeAsset, Debit: 500},
		{Code: "2100", Type: accounts.AccountTypeLiability, Credit: 500},
	})
	if len(pl.Revenue.Accounts) != 0 || len(pl.Expense.Accounts) != 0 {
		t.Fatal("balance sheet accounts must not leak into the P&L")
	}
	if pl.NetIncome != 0 {
		t.Fatalf("net income = %v, want 0", pl.NetIncome)
	}
}

func TestBuildBalanceSheetEquationHolds(t *testing.T) {
	bs := BuildBalanceSheet(sampleBalances())

	if bs.Assets.Total != 1400 {
		t.Fatalf("assets = %v, want 1400", bs.Assets.Total)
	}
	if bs.Liabilities.Total != 100 {
		t.Fatalf("liabilities = %v, want 100", bs.Liabilities.Total)
	}
	// Equity opened debit-heavy (-500 on the debit side becomes 500 natural).
	if bs.Equity.Total != 600 {
		t.Fatalf("equity = %v, want 600", bs.Equity.Total)
	}
	if bs.RetainedEarnings != 800 {
		t.Fatalf("retained earnings = %v, want 800", bs.RetainedEarnings)
	}
	if bs.TotalLiabilitiesAndEquity != 1500 {
		t.Fatalf("liabilities+equity = %v, want 1500", bs.TotalLiabilitiesAndEquity)
	}
	if bs.Drift() != 100 {
		t.Fatalf("drift = %v, want 100", bs.Drift())
	}
	if bs.Balanced() {
		t.Fatal("a 100 drift is not within tolerance")
	}
}

func TestBuildBalanceSheetBalancedLedger(t *testing.T) {
	bs := BuildBalanceSheet([]AccountBalance{
		{Code: "1010", Type: accounts.AccountTypeAsset, NormalBalance: accounts.NormalBalanceDebit, Debit: 1000},
		{Code: "2000", Type: accounts.AccountTypeLiability, NormalBalance: accounts.NormalBalanceCredit, Credit: 300},
		{Code: "3000", Type: accounts.AccountTypeEquity, NormalBalance: accounts.NormalBalanceCredit, Credit: 200},
		{Code: "4010", Type: accounts.AccountTypeRevenue, NormalBalance: accounts.NormalBalanceCredit, Credit: 700},
		{Code: "5010", Type: accounts.AccountTypeExpense, NormalBalance: accounts.NormalBalanceDebit, Debit: 200},
	})
	if bs.RetainedEarnings != 500 {
		t.Fatalf("retained earnings = %v, want 500", bs.RetainedEarnings)
	}
	if !bs.Balanced() {
		t.Fatalf("ledger-consistent balances must balance, drift %v", bs.Drift())
	}
}
