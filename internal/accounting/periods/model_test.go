package periods

import (
	"errors"
	"testing"
	"time"

	"github.com/meridian-erp/meridian-erp/internal/accounting/shared"
	_ "github.com/meridian-erp/meridian-erp/testing"
)

func TestValidateTransition(t *testing.T) {
	cases := []struct {
		current  PeriodStatus
		target   PeriodStatus
		override bool
		ok       bool
	}{
		{PeriodStatusOpen, PeriodStatusLocked, false, true},
		{PeriodStatusOpen, PeriodStatusClosed, false, false},
		{PeriodStatusLocked, PeriodStatusOpen, false, true},
		{PeriodStatusLocked, PeriodStatusClosed, false, true},
		{PeriodStatusClosed, PeriodStatusOpen, false, false},
		{PeriodStatusClosed, PeriodStatusOpen, true, true},
		{PeriodStatusClosed, PeriodStatusLocked, true, false},
		{PeriodStatusOpen, PeriodStatusOpen, false, true},
	}
	for _, c := range cases {
		err := ValidateTransition(c.current, c.target, c.override)
		if c.ok && err != nil {
			t.Fatalf("%s -> %s (override=%v): unexpected error %v", c.current, c.target, c.override, err)
		}
		if !c.ok && !errors.Is(err, shared.ErrInvalidPeriodTransition) {
			t.Fatalf("%s -> %s (override=%v): expected transition error, got %v", c.current, c.target, c.override, err)
		}
	}
}

func TestPeriodContains(t *testing.T) {
	p := Period{
		StartDate: time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC),
	}
	if !p.Contains(p.StartDate) || !p.Contains(p.EndDate) {
		t.Fatal("period bounds are inclusive")
	}
	if p.Contains(p.StartDate.AddDate(0, 0, -1)) {
		t.Fatal("date before period should not be contained")
	}
	if p.Contains(p.EndDate.AddDate(0, 0, 1)) {
		t.Fatal("date after period should not be contained")
	}
}
