package accounts

import (
	"time"

	"github.com/google/uuid"
)

// AccountType enumerates CoA classifications.
type AccountType string

const (
	AccountTypeAsset     AccountType = "ASSET"
	AccountTypeLiability AccountType = "LIABILITY"
	AccountTypeEquity    AccountType = "EQUITY"
	AccountTypeRevenue   AccountType = "REVENUE"
	AccountTypeExpense   AccountType = "EXPENSE"
)

// Valid reports whether the type is a known classification.
func (t AccountType) Valid() bool {
	switch t {
	case AccountTypeAsset, AccountTypeLiability, AccountTypeEquity, AccountTypeRevenue, AccountTypeExpense:
		return true
	}
	return false
}

// NormalBalance determines which side increases an account's balance.
type NormalBalance string

const (
	NormalBalanceDebit  NormalBalance = "DEBIT"
	NormalBalanceCredit NormalBalance = "CREDIT"
)

// NormalBalanceFor returns the conventional side for an account type.
func NormalBalanceFor(t AccountType) NormalBalance {
	switch t {
	case AccountTypeAsset, AccountTypeExpense:
		return NormalBalanceDebit
	default:
		return NormalBalanceCredit
	}
}

// AccountOrigin records how an account came to exist.
type AccountOrigin string

const (
	OriginSystem        AccountOrigin = "SYSTEM"
	OriginAutoGenerated AccountOrigin = "AUTO_GENERATED"
	OriginManual        AccountOrigin = "MANUAL"
)

// LifecycleStatus is the tri-state account lifecycle. Deleted accounts stay
// resolvable for historical journal entries but are excluded from active queries.
type LifecycleStatus string

const (
	StatusActive   LifecycleStatus = "ACTIVE"
	StatusInactive LifecycleStatus = "INACTIVE"
	StatusDeleted  LifecycleStatus = "DELETED"
)

// MaxHierarchyDepth bounds parent/child nesting (levels 0 through 5).
const MaxHierarchyDepth = 5

// ReconStatus tracks reconciliation progress on an account.
type ReconStatus string

const (
	ReconNotStarted  ReconStatus = "NOT_STARTED"
	ReconInProgress  ReconStatus = "IN_PROGRESS"
	ReconReconciled  ReconStatus = "RECONCILED"
	ReconDiscrepancy ReconStatus = "DISCREPANCY"
)

// Reconciliation is the lock/watermark state embedded on an account.
type Reconciliation struct {
	Status            ReconStatus
	LockedBy          *int64
	LockedAt          *time.Time
	LockExpiresAt     *time.Time
	LockStartDate     *time.Time
	LockEndDate       *time.Time
	ReconciledUpTo    *time.Time
	DiscrepancyAmount float64
	DiscrepancyReason string
}

// Account models a chart of accounts node scoped to a tenant.
type Account struct {
	ID                 int64
	TenantID           uuid.UUID
	Code               string
	Name               string
	Type               AccountType
	Category           string
	NormalBalance      NormalBalance
	ParentID           *int64
	Level              int16
	AllowDirectPosting bool
	IsSystemAccount    bool
	IsProtected        bool
	Origin             AccountOrigin
	Status             LifecycleStatus
	OpeningBalance     float64
	// CurrentBalance is a cache derived from the ledger, never authoritative.
	CurrentBalance float64
	// BalanceCalculatedAt is nil when the cache is stale.
	BalanceCalculatedAt *time.Time
	Recon               Reconciliation
	DeletedAt           *time.Time
	DeletedBy           *int64
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// Protected reports whether mutation requires elevated permission.
func (a Account) Protected() bool {
	return a.IsSystemAccount || a.IsProtected || a.Origin == OriginSystem
}

// Deleted reports whether the account is soft-deleted.
func (a Account) Deleted() bool {
	return a.Status == StatusDeleted
}
