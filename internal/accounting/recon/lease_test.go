package recon

import (
	"errors"
	"testing"
	"time"

	"github.com/meridian-erp/meridian-erp/internal/accounting/accounts"
	"github.com/meridian-erp/meridian-erp/internal/accounting/shared"
	_ "github.com/meridian-erp/meridian-erp/testing"
)

func ptrTime(t time.Time) *time.Time { return &t }

func ptrInt64(v int64) *int64 { return &v }

func TestLeaseExpiry(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	lease := Lease{Owner: 7, ExpiresAt: now.Add(time.Hour)}

	if lease.Expired(now) {
		t.Fatal("lease should still be active")
	}
	if !lease.Expired(now.Add(time.Hour)) {
		t.Fatal("lease should expire exactly at the deadline")
	}
	if !lease.Expired(now.Add(2 * time.Hour)) {
		t.Fatal("lease should be expired after the deadline")
	}
}

func TestLeaseCovers(t *testing.T) {
	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)

	unbounded := Lease{}
	if !unbounded.Covers(start.AddDate(-1, 0, 0)) {
		t.Fatal("lease without bounds covers every date")
	}

	bounded := Lease{StartDate: &start, EndDate: &end}
	if bounded.Covers(start.AddDate(0, 0, -1)) {
		t.Fatal("date before range should not be covered")
	}
	if !bounded.Covers(start) || !bounded.Covers(end) {
		t.Fatal("range bounds are inclusive")
	}
	if bounded.Covers(end.AddDate(0, 0, 1)) {
		t.Fatal("date after range should not be covered")
	}
}

func TestCheckPostingWatermarkBeatsLock(t *testing.T) {
	now := time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)
	watermark := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	rec := accounts.Reconciliation{
		LockedBy:       ptrInt64(3),
		LockExpiresAt:  ptrTime(now.Add(time.Hour)),
		ReconciledUpTo: &watermark,
	}

	err := CheckPosting(rec, watermark.AddDate(0, 0, -1), now)
	if !errors.Is(err, shared.ErrBeforeReconciledDate) {
		t.Fatalf("expected watermark rejection, got %v", err)
	}

	// At or after the watermark the active lock takes over.
	err = CheckPosting(rec, watermark, now)
	if !errors.Is(err, shared.ErrReconciliationLocked) {
		t.Fatalf("expected lock rejection, got %v", err)
	}
}

func TestCheckPostingExpiredLockPasses(t *testing.T) {
	now := time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)
	rec := accounts.Reconciliation{
		LockedBy:      ptrInt64(3),
		LockExpiresAt: ptrTime(now.Add(-time.Minute)),
	}
	if err := CheckPosting(rec, now, now); err != nil {
		t.Fatalf("expired lock should not block posting: %v", err)
	}
}

func TestCheckPostingLockOutsideRangePasses(t *testing.T) {
	now := time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)
	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)
	rec := accounts.Reconciliation{
		LockedBy:      ptrInt64(3),
		LockExpiresAt: ptrTime(now.Add(time.Hour)),
		LockStartDate: &start,
		LockEndDate:   &end,
	}
	if err := CheckPosting(rec, now, now); err != nil {
		t.Fatalf("posting outside the locked range should pass: %v", err)
	}
	if err := CheckPosting(rec, start.AddDate(0, 0, 10), now); !errors.Is(err, shared.ErrReconciliationLocked) {
		t.Fatalf("posting inside the locked range should fail, got %v", err)
	}
}
