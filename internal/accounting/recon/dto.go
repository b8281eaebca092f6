package recon

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/meridian-erp/meridian-erp/internal/accounting/accounts"
)

// DefaultLeaseDuration bounds a reconciliation session that never unlocks.
const DefaultLeaseDuration = 2 * time.Hour

// AcquireInput describes a lock request for one account.
type AcquireInput struct {
	TenantID  uuid.UUID
	AccountID int64
	UserID    int64
	Duration  time.Duration
	StartDate *time.Time
	EndDate   *time.Time
}

// Validate normalises the request and checks required fields.
func (in *AcquireInput) Validate() error {
	if in.TenantID == uuid.Nil {
		return errors.New("accounting: tenant required")
	}
	if in.AccountID == 0 || in.UserID == 0 {
		return errors.New("accounting: account and user required")
	}
	if in.Duration <= 0 {
		in.Duration = DefaultLeaseDuration
	}
	if in.StartDate != nil && in.EndDate != nil && in.EndDate.Before(*in.StartDate) {
		return errors.New("accounting: lock end date before start date")
	}
	return nil
}

// Outcome is the terminal state a reconciliation session resolves to.
type Outcome string

const (
	OutcomeReconciled  Outcome = "RECONCILED"
	OutcomeDiscrepancy Outcome = "DISCREPANCY"
)

// ReleaseInput describes an unlock by the owning user.
type ReleaseInput struct {
	TenantID          uuid.UUID
	AccountID         int64
	UserID            int64
	Outcome           Outcome
	ReconciledUpTo    time.Time
	DiscrepancyAmount float64
	DiscrepancyReason string
}

// Validate checks the release parameters.
func (in ReleaseInput) Validate() error {
	if in.TenantID == uuid.Nil {
		return errors.New("accounting: tenant required")
	}
	if in.AccountID == 0 || in.UserID == 0 {
		return errors.New("accounting: account and user required")
	}
	switch in.Outcome {
	case OutcomeReconciled, OutcomeDiscrepancy:
	default:
		return errors.New("accounting: unknown reconciliation outcome")
	}
	if in.ReconciledUpTo.IsZero() {
		return errors.New("accounting: reconciled-up-to date required")
	}
	return nil
}

func (o Outcome) reconStatus() accounts.ReconStatus {
	if o == OutcomeDiscrepancy {
		return accounts.ReconDiscrepancy
	}
	return accounts.ReconReconciled
}
