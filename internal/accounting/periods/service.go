package periods

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/meridian-erp/meridian-erp/internal/accounting/shared"
	internalShared "github.com/meridian-erp/meridian-erp/internal/shared"
)

// AuditPort records period lifecycle events.
type AuditPort interface {
	Record(ctx context.Context, log internalShared.AuditLog) error
}

// Locker serialises multi-step close operations across processes.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error)
}

// Service owns the fiscal calendar: bootstrapping years, locking and
// closing periods, and guarding posting dates.
type Service struct {
	repo   Repository
	audit  AuditPort
	locker Locker
	now    func() time.Time
}

// NewService constructs the periods service.
func NewService(repo Repository, audit AuditPort, locker Locker) *Service {
	return &Service{repo: repo, audit: audit, locker: locker, now: time.Now}
}

// WithNow overrides the clock for deterministic tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// EnsureOpenForPosting rejects posting dates that fall in a locked or closed
// period. Dates outside any configured fiscal calendar pass: tenants opt in
// to period control by bootstrapping a year.
func (s *Service) EnsureOpenForPosting(ctx context.Context, tenantID uuid.UUID, date time.Time) error {
	period, err := s.repo.FindByDate(ctx, tenantID, date)
	if err != nil {
		if errors.Is(err, shared.ErrPeriodNotFound) {
			return nil
		}
		return err
	}
	if period.Status != PeriodStatusOpen {
		return shared.ErrPeriodClosed
	}
	return nil
}

// BootstrapYear creates a fiscal year with twelve monthly periods, all open.
func (s *Service) BootstrapYear(ctx context.Context, tenantID uuid.UUID, year int, actorID int64) (FiscalYear, []Period, error) {
	if year < 1900 || year > 9999 {
		return FiscalYear{}, nil, fmt.Errorf("accounting: implausible fiscal year %d", year)
	}
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)
	var fy FiscalYear
	var list []Period
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		inserted, err := tx.InsertYear(ctx, FiscalYear{TenantID: tenantID, Year: year, StartDate: start, EndDate: end})
		if err != nil {
			return err
		}
		fy = inserted
		for seq := 1; seq <= PeriodsPerYear; seq++ {
			monthStart := time.Date(year, time.Month(seq), 1, 0, 0, 0, 0, time.UTC)
			monthEnd := monthStart.AddDate(0, 1, -1)
			p, err := tx.InsertPeriod(ctx, Period{
				TenantID:     tenantID,
				FiscalYearID: fy.ID,
				Seq:          seq,
				Name:         monthStart.Format("2006-01"),
				StartDate:    monthStart,
				EndDate:      monthEnd,
			})
			if err != nil {
				return err
			}
			list = append(list, p)
		}
		return nil
	})
	if err != nil {
		return FiscalYear{}, nil, err
	}
	s.record(ctx, tenantID, actorID, "period.bootstrap_year", fy.ID, map[string]any{"year": year})
	return fy, list, nil
}

// LockPeriod transitions an open period to locked.
func (s *Service) LockPeriod(ctx context.Context, tenantID uuid.UUID, periodID, actorID int64) (Period, error) {
	return s.transition(ctx, tenantID, periodID, actorID, PeriodStatusLocked, false, "period.lock")
}

// UnlockPeriod transitions a locked period back to open.
func (s *Service) UnlockPeriod(ctx context.Context, tenantID uuid.UUID, periodID, actorID int64) (Period, error) {
	return s.transition(ctx, tenantID, periodID, actorID, PeriodStatusOpen, false, "period.unlock")
}

// ClosePeriod transitions a locked period to closed. The redis lease keeps
// two operators from racing the close; period state is still re-validated
// inside the transaction.
func (s *Service) ClosePeriod(ctx context.Context, tenantID uuid.UUID, periodID, actorID int64) (Period, error) {
	if s.locker != nil {
		release, err := s.locker.Acquire(ctx, internalShared.PeriodCloseLockKey(tenantID, periodID), time.Minute)
		if err != nil {
			if errors.Is(err, internalShared.ErrLockNotAcquired) {
				return Period{}, shared.ErrInvalidPeriodTransition
			}
			return Period{}, err
		}
		defer func() { _ = release(ctx) }()
	}
	return s.transition(ctx, tenantID, periodID, actorID, PeriodStatusClosed, false, "period.close")
}

// ReopenPeriod reverts a closed period to open. Requires an open fiscal year.
func (s *Service) ReopenPeriod(ctx context.Context, tenantID uuid.UUID, periodID, actorID int64) (Period, error) {
	return s.transition(ctx, tenantID, periodID, actorID, PeriodStatusOpen, true, "period.reopen")
}

func (s *Service) transition(ctx context.Context, tenantID uuid.UUID, periodID, actorID int64, target PeriodStatus, override bool, action string) (Period, error) {
	var updated Period
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		period, err := tx.GetPeriodForUpdate(ctx, tenantID, periodID)
		if err != nil {
			return err
		}
		if err := ValidateTransition(period.Status, target, override); err != nil {
			return err
		}
		now := s.now()
		period.Status = target
		switch target {
		case PeriodStatusLocked:
			period.LockedBy = &actorID
			period.LockedAt = &now
		case PeriodStatusClosed:
			period.ClosedBy = &actorID
			period.ClosedAt = &now
		case PeriodStatusOpen:
			period.LockedBy = nil
			period.LockedAt = nil
			period.ClosedBy = nil
			period.ClosedAt = nil
		}
		if err := tx.UpdatePeriodStatus(ctx, period); err != nil {
			return err
		}
		updated = period
		return nil
	})
	if err != nil {
		return Period{}, err
	}
	s.record(ctx, tenantID, actorID, action, updated.ID, map[string]any{"status": string(updated.Status)})
	return updated, nil
}

// CloseYear closes the fiscal year once all twelve periods are closed.
func (s *Service) CloseYear(ctx context.Context, tenantID uuid.UUID, year int, actorID int64) (FiscalYear, error) {
	if s.locker != nil {
		release, err := s.locker.Acquire(ctx, internalShared.YearCloseLockKey(tenantID, year), time.Minute)
		if err != nil {
			if errors.Is(err, internalShared.ErrLockNotAcquired) {
				return FiscalYear{}, shared.ErrInvalidPeriodTransition
			}
			return FiscalYear{}, err
		}
		defer func() { _ = release(ctx) }()
	}
	var fy FiscalYear
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetYearForUpdate(ctx, tenantID, year)
		if err != nil {
			return err
		}
		open, err := tx.CountPeriodsNotClosed(ctx, current.ID)
		if err != nil {
			return err
		}
		if open > 0 {
			return shared.ErrYearNotClosable
		}
		if err := tx.CloseYear(ctx, current.ID, actorID, s.now()); err != nil {
			return err
		}
		current.Status = YearStatusClosed
		fy = current
		return nil
	})
	if err != nil {
		return FiscalYear{}, err
	}
	s.record(ctx, tenantID, actorID, "period.close_year", fy.ID, map[string]any{"year": fy.Year})
	return fy, nil
}

// ListYearPeriods returns the periods of a tenant's fiscal year in sequence.
func (s *Service) ListYearPeriods(ctx context.Context, tenantID uuid.UUID, year int) ([]Period, error) {
	return s.repo.ListYearPeriods(ctx, tenantID, year)
}

func (s *Service) record(ctx context.Context, tenantID uuid.UUID, actorID int64, action string, entityID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, internalShared.AuditLog{
		TenantID: tenantID,
		ActorID:  actorID,
		Action:   action,
		Entity:   "fiscal_period",
		EntityID: fmt.Sprintf("%d", entityID),
		Meta:     meta,
		At:       s.now(),
	})
}
