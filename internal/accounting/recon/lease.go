package recon

import (
	"time"

	"github.com/meridian-erp/meridian-erp/internal/accounting/accounts"
	"github.com/meridian-erp/meridian-erp/internal/accounting/shared"
)

// Lease is the time-bounded reconciliation lock held by one user over an
// account, optionally narrowed to a date range.
type Lease struct {
	Owner      int64
	AcquiredAt time.Time
	ExpiresAt  time.Time
	StartDate  *time.Time
	EndDate    *time.Time
}

// LeaseFrom extracts the active lease from embedded account state, if any.
func LeaseFrom(rec accounts.Reconciliation) (Lease, bool) {
	if rec.LockedBy == nil || rec.LockExpiresAt == nil {
		return Lease{}, false
	}
	l := Lease{
		Owner:     *rec.LockedBy,
		ExpiresAt: *rec.LockExpiresAt,
		StartDate: rec.LockStartDate,
		EndDate:   rec.LockEndDate,
	}
	if rec.LockedAt != nil {
		l.AcquiredAt = *rec.LockedAt
	}
	return l, true
}

// Expired reports whether the lease has lapsed. An expired lease is treated
// as released even when never explicitly unlocked.
func (l Lease) Expired(now time.Time) bool {
	return !now.Before(l.ExpiresAt)
}

// HeldBy reports whether the given user owns the lease.
func (l Lease) HeldBy(userID int64) bool {
	return l.Owner == userID
}

// Covers reports whether a posting date falls inside the locked range.
// Missing bounds extend the range to infinity on that side.
func (l Lease) Covers(date time.Time) bool {
	if l.StartDate != nil && date.Before(*l.StartDate) {
		return false
	}
	if l.EndDate != nil && date.After(*l.EndDate) {
		return false
	}
	return true
}

// CheckPosting validates an entry date against an account's reconciliation
// state. The reconciled watermark outlives any lock: nothing may ever post
// strictly before it again.
func CheckPosting(rec accounts.Reconciliation, entryDate, now time.Time) error {
	if rec.ReconciledUpTo != nil && entryDate.Before(*rec.ReconciledUpTo) {
		return shared.ErrBeforeReconciledDate
	}
	if lease, ok := LeaseFrom(rec); ok && !lease.Expired(now) && lease.Covers(entryDate) {
		return shared.ErrReconciliationLocked
	}
	return nil
}
