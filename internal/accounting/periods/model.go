package periods

import (
	"time"

	"github.com/google/uuid"

	"github.com/meridian-erp/meridian-erp/internal/accounting/shared"
)

// PeriodStatus enumerates valid period states.
type PeriodStatus string

const (
	PeriodStatusOpen   PeriodStatus = "OPEN"
	PeriodStatusLocked PeriodStatus = "LOCKED"
	PeriodStatusClosed PeriodStatus = "CLOSED"
)

// YearStatus enumerates fiscal year states.
type YearStatus string

const (
	YearStatusOpen   YearStatus = "OPEN"
	YearStatusClosed YearStatus = "CLOSED"
)

// PeriodsPerYear is the fixed monthly subdivision of a fiscal year.
const PeriodsPerYear = 12

// FiscalYear groups twelve periods for a tenant.
type FiscalYear struct {
	ID        int64
	TenantID  uuid.UUID
	Year      int
	StartDate time.Time
	EndDate   time.Time
	Status    YearStatus
	ClosedBy  *int64
	ClosedAt  *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Period represents one lockable fiscal month.
type Period struct {
	ID           int64
	TenantID     uuid.UUID
	FiscalYearID int64
	Seq          int
	Name         string
	StartDate    time.Time
	EndDate      time.Time
	Status       PeriodStatus
	LockedBy     *int64
	LockedAt     *time.Time
	ClosedBy     *int64
	ClosedAt     *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Contains reports whether the date falls inside the period window.
func (p Period) Contains(date time.Time) bool {
	return !date.Before(p.StartDate) && !date.After(p.EndDate)
}

// ValidateTransition enforces the period state machine: a period must be
// locked before it can close, and a closed period reopens only with override.
func ValidateTransition(current, target PeriodStatus, hasOverride bool) error {
	if current == target {
		return nil
	}
	switch current {
	case PeriodStatusOpen:
		if target == PeriodStatusLocked {
			return nil
		}
	case PeriodStatusLocked:
		if target == PeriodStatusOpen || target == PeriodStatusClosed {
			return nil
		}
	case PeriodStatusClosed:
		if target == PeriodStatusOpen && hasOverride {
			return nil
		}
	}
	return shared.ErrInvalidPeriodTransition
}
