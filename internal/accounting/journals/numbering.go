package journals

import (
	"fmt"
	"time"
)

// typePrefixes maps reference types to entry number prefixes.
var typePrefixes = map[ReferenceType]string{
	ReferenceSale:           "SAL",
	ReferencePurchase:       "PUR",
	ReferencePayment:        "PAY",
	ReferenceExpense:        "EXP",
	ReferenceInventory:      "INV",
	ReferenceAdjustment:     "ADJ",
	ReferenceManual:         "JE",
	ReferenceOpeningBalance: "OPN",
	ReferencePeriodClosing:  "CLS",
}

// PrefixFor returns the entry number prefix for a reference type.
func PrefixFor(t ReferenceType) string {
	if p, ok := typePrefixes[t]; ok {
		return p
	}
	return "JE"
}

// FormatEntryNumber renders `{PREFIX}-{YYYYMMDD}-{seq}` with a zero-padded
// sequence. Sequences are strictly increasing per tenant/day/prefix; gaps
// from aborted transactions are tolerated, duplicates never are.
func FormatEntryNumber(prefix string, date time.Time, seq int64) string {
	return fmt.Sprintf("%s-%s-%04d", prefix, date.Format("20060102"), seq)
}
