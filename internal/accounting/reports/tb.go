package reports

import (
	"sort"
	"time"

	"github.com/meridian-erp/meridian-erp/internal/accounting/accounts"
	"github.com/meridian-erp/meridian-erp/internal/accounting/shared"
)

// AccountBalance models a ledger account with debit/credit activity
// aggregated over the reporting window.
type AccountBalance struct {
	Code          string
	Name          string
	Type          accounts.AccountType
	NormalBalance accounts.NormalBalance
	Opening       float64
	Debit         float64
	Credit        float64
}

// Closing computes the raw closing balance, debit-positive.
func (a AccountBalance) Closing() float64 {
	return shared.Round2(a.Opening + a.Debit - a.Credit)
}

// Natural expresses the closing balance on the account's normal side.
func (a AccountBalance) Natural() float64 {
	if a.NormalBalance == accounts.NormalBalanceCredit {
		return shared.Round2(-a.Closing())
	}
	return a.Closing()
}

// GroupKey buckets trial balance rows by leading code digit, so 1xxx assets
// group together and so on.
func (a AccountBalance) GroupKey() string {
	if len(a.Code) >= 1 {
		return a.Code[:1]
	}
	return a.Code
}

// Window bounds a report to an inclusive date range. Zero values mean
// unbounded on that side.
type Window struct {
	From time.Time
	To   time.Time
}

// TrialBalanceAccount is one row inside a trial balance group.
type TrialBalanceAccount struct {
	Code    string
	Name    string
	Opening float64
	Debit   float64
	Credit  float64
	Closing float64
}

// TrialBalanceGroup aggregates accounts sharing a group key.
type TrialBalanceGroup struct {
	Key      string
	Accounts []TrialBalanceAccount
	Opening  float64
	Debit    float64
	Credit   float64
	Closing  float64
}

// TrialBalance is the grouped report with grand totals.
type TrialBalance struct {
	Groups       []TrialBalanceGroup
	TotalDebit   float64
	TotalCredit  float64
	TotalOpening float64
	TotalClosing float64
}

// Balanced reports whether total debits equal total credits within tolerance.
func (tb TrialBalance) Balanced() bool {
	return shared.Balanced(tb.TotalDebit, tb.TotalCredit)
}

// BuildTrialBalance converts account balances into grouped trial balance data.
func BuildTrialBalance(balances []AccountBalance) TrialBalance {
	groups := make(map[string]*TrialBalanceGroup)
	keys := make([]string, 0)
	for _, acc := range balances {
		key := acc.GroupKey()
		grp, ok := groups[key]
		if !ok {
			grp = &TrialBalanceGroup{Key: key}
			groups[key] = grp
			keys = append(keys, key)
		}
		row := TrialBalanceAccount{
			Code:    acc.Code,
			Name:    acc.Name,
			Opening: acc.Opening,
			Debit:   acc.Debit,
			Credit:  acc.Credit,
			Closing: acc.Closing(),
		}
		grp.Accounts = append(grp.Accounts, row)
		grp.Opening += row.Opening
		grp.Debit += row.Debit
		grp.Credit += row.Credit
		grp.Closing += row.Closing
	}

	sort.Strings(keys)
	result := TrialBalance{}
	for _, key := range keys {
		grp := groups[key]
		sort.Slice(grp.Accounts, func(i, j int) bool {
			return grp.Accounts[i].Code < grp.Accounts[j].Code
		})
		result.Groups = append(result.Groups, *grp)
		result.TotalOpening += grp.Opening
		result.TotalDebit += grp.Debit
		result.TotalCredit += grp.Credit
		result.TotalClosing += grp.Closing
	}
	result.TotalOpening = shared.Round2(result.TotalOpening)
	result.TotalDebit = shared.Round2(result.TotalDebit)
	result.TotalCredit = shared.Round2(result.TotalCredit)
	result.TotalClosing = shared.Round2(result.TotalClosing)
	return result
}
