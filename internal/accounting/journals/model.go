package journals

import (
	"time"

	"github.com/google/uuid"
)

// EntryStatus enumerates the journal entry lifecycle. Once posted, lines
// are immutable; correction happens only via reversal entries.
type EntryStatus string

const (
	EntryStatusPosted    EntryStatus = "POSTED"
	EntryStatusReversed  EntryStatus = "REVERSED"
	EntryStatusCancelled EntryStatus = "CANCELLED"
)

// ReferenceType identifies the business event behind an entry.
type ReferenceType string

const (
	ReferenceSale           ReferenceType = "SALE"
	ReferencePurchase       ReferenceType = "PURCHASE"
	ReferencePayment        ReferenceType = "PAYMENT"
	ReferenceExpense        ReferenceType = "EXPENSE"
	ReferenceInventory      ReferenceType = "INVENTORY"
	ReferenceAdjustment     ReferenceType = "ADJUSTMENT"
	ReferenceManual         ReferenceType = "MANUAL"
	ReferenceOpeningBalance ReferenceType = "OPENING_BALANCE"
	ReferencePeriodClosing  ReferenceType = "PERIOD_CLOSING"
)

// JournalEntry is one immutable, balanced ledger record.
type JournalEntry struct {
	ID              int64
	TenantID        uuid.UUID
	Number          string
	Date            time.Time
	ReferenceType   ReferenceType
	ReferenceID     uuid.UUID
	ReferenceNumber string
	Memo            string
	TotalDebit      float64
	TotalCredit     float64
	Status          EntryStatus
	// ReversalOf points a reversal at its original; ReversedBy the other way.
	ReversalOf *int64
	ReversedBy *int64
	CreatedBy  int64
	PostedAt   time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
	Lines      []JournalLine
}

// JournalLine stores a debit or credit amount against an account, with the
// account code and name snapshotted at post time.
type JournalLine struct {
	ID          int64
	JournalID   int64
	AccountID   int64
	AccountCode string
	AccountName string
	Debit       float64
	Credit      float64
	Description string
	CreatedAt   time.Time
}
