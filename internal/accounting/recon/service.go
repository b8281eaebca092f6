package recon

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/meridian-erp/meridian-erp/internal/accounting/accounts"
	"github.com/meridian-erp/meridian-erp/internal/accounting/shared"
	internalShared "github.com/meridian-erp/meridian-erp/internal/shared"
)

// AuditPort records lock lifecycle events.
type AuditPort interface {
	Record(ctx context.Context, log internalShared.AuditLog) error
}

// Service manages reconciliation leases over accounts.
type Service struct {
	repo  Repository
	audit AuditPort
	now   func() time.Time
}

// NewService constructs the reconciliation service.
func NewService(repo Repository, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit, now: time.Now}
}

// WithNow overrides the clock for deterministic tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Acquire locks the account for the requesting user. A held, unexpired lock
// owned by someone else yields ErrAlreadyLocked; renewals by the owner succeed.
func (s *Service) Acquire(ctx context.Context, in AcquireInput) (Lease, error) {
	if err := in.Validate(); err != nil {
		return Lease{}, err
	}
	now := s.now()
	won, err := s.repo.TryAcquire(ctx, in, now)
	if err != nil {
		return Lease{}, err
	}
	if !won {
		// Either the account is gone or the lock is contested.
		if _, err := s.repo.GetState(ctx, in.TenantID, in.AccountID); err != nil {
			return Lease{}, err
		}
		return Lease{}, shared.ErrAlreadyLocked
	}
	s.record(ctx, in.TenantID, in.UserID, "recon.lock", in.AccountID, map[string]any{
		"expires_at": now.Add(in.Duration),
	})
	return Lease{
		Owner:      in.UserID,
		AcquiredAt: now,
		ExpiresAt:  now.Add(in.Duration),
		StartDate:  in.StartDate,
		EndDate:    in.EndDate,
	}, nil
}

// Release unlocks an account, records the outcome, and advances the
// reconciled watermark. Only the lock owner may release; an expired lock
// counts as already released.
func (s *Service) Release(ctx context.Context, in ReleaseInput) error {
	if err := in.Validate(); err != nil {
		return err
	}
	now := s.now()
	done, err := s.repo.Release(ctx, in, now)
	if err != nil {
		return err
	}
	if !done {
		state, err := s.repo.GetState(ctx, in.TenantID, in.AccountID)
		if err != nil {
			return err
		}
		lease, held := LeaseFrom(state)
		if !held || lease.Expired(now) {
			return shared.ErrNotLocked
		}
		return shared.ErrNotLockOwner
	}
	s.record(ctx, in.TenantID, in.UserID, "recon.unlock", in.AccountID, map[string]any{
		"outcome":          string(in.Outcome),
		"reconciled_up_to": in.ReconciledUpTo,
	})
	return nil
}

// State returns the current reconciliation state of an account.
func (s *Service) State(ctx context.Context, tenantID uuid.UUID, accountID int64) (accounts.Reconciliation, error) {
	return s.repo.GetState(ctx, tenantID, accountID)
}

func (s *Service) record(ctx context.Context, tenantID uuid.UUID, actorID int64, action string, accountID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, internalShared.AuditLog{
		TenantID: tenantID,
		ActorID:  actorID,
		Action:   action,
		Entity:   "account",
		EntityID: fmt.Sprintf("%d", accountID),
		Meta:     meta,
		At:       s.now(),
	})
}
