package balances

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/meridian-erp/meridian-erp/internal/accounting/shared"
)

// Result pairs a computed balance with the moment it was computed.
type Result struct {
	AccountID int64
	Code      string
	Balance   float64
	AsOf      *time.Time
}

// Service derives account balances by replaying the journal. The
// ledger is the source of truth; the cached column on the account row is a
// convenience refreshed here and invalidated by posting.
type Service struct {
	repo   Repository
	group  singleflight.Group
	logger *slog.Logger
	now    func() time.Time
}

// NewService constructs the balances service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger, now: time.Now}
}

// WithNow overrides the clock for deterministic tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Calculate replays the ledger for one account. Concurrent callers for the
// same account share a single computation.
func (s *Service) Calculate(ctx context.Context, tenantID uuid.UUID, accountID int64) (float64, error) {
	key := fmt.Sprintf("%s/%d", tenantID, accountID)
	v, err, _ := s.group.Do(key, func() (any, error) {
		ref, err := s.repo.AccountRefByID(ctx, tenantID, accountID)
		if err != nil {
			return nil, err
		}
		return s.calculate(ctx, tenantID, ref, nil)
	})
	if err != nil {
		return 0, err
	}
	return v.(float64), nil
}

// CalculateAsOf replays the ledger up to and including the given date.
// Point-in-time balances bypass the cache entirely.
func (s *Service) CalculateAsOf(ctx context.Context, tenantID uuid.UUID, accountID int64, asOf time.Time) (float64, error) {
	ref, err := s.repo.AccountRefByID(ctx, tenantID, accountID)
	if err != nil {
		return 0, err
	}
	return s.calculate(ctx, tenantID, ref, &asOf)
}

// CalculateByCode resolves the account by code first.
func (s *Service) CalculateByCode(ctx context.Context, tenantID uuid.UUID, code string, asOf *time.Time) (Result, error) {
	ref, err := s.repo.AccountRefByCode(ctx, tenantID, code)
	if err != nil {
		return Result{}, err
	}
	balance, err := s.calculate(ctx, tenantID, ref, asOf)
	if err != nil {
		return Result{}, err
	}
	return Result{AccountID: ref.ID, Code: ref.Code, Balance: balance, AsOf: asOf}, nil
}

func (s *Service) calculate(ctx context.Context, tenantID uuid.UUID, ref AccountRef, asOf *time.Time) (float64, error) {
	debit, credit, err := s.repo.LineTotals(ctx, tenantID, ref.ID, asOf)
	if err != nil {
		return 0, err
	}
	return Signed(ref.NormalBalance, debit, credit), nil
}

// ParentBalance sums the balances of a summary account's active children.
// Parent balances are always derived, never cached; the rollup is one level
// deep because children that are themselves summaries recurse.
func (s *Service) ParentBalance(ctx context.Context, tenantID uuid.UUID, parentID int64) (float64, error) {
	ref, err := s.repo.AccountRefByID(ctx, tenantID, parentID)
	if err != nil {
		return 0, err
	}
	if ref.AllowDirectPosting {
		return s.calculate(ctx, tenantID, ref, nil)
	}
	return s.parentBalance(ctx, tenantID, ref)
}

func (s *Service) parentBalance(ctx context.Context, tenantID uuid.UUID, parent AccountRef) (float64, error) {
	children, err := s.repo.ActiveChildren(ctx, tenantID, parent.ID)
	if err != nil {
		return 0, err
	}
	var total float64
	for _, child := range children {
		var balance float64
		if child.AllowDirectPosting {
			balance, err = s.calculate(ctx, tenantID, child, nil)
		} else {
			balance, err = s.parentBalance(ctx, tenantID, child)
		}
		if err != nil {
			return 0, err
		}
		// Children of the opposite normal side subtract from the rollup.
		if child.NormalBalance == parent.NormalBalance {
			total += balance
		} else {
			total -= balance
		}
	}
	return shared.Round2(total), nil
}

// RecalculateAndCache computes a fresh balance and writes it through to the
// account row, stamping the calculation time.
func (s *Service) RecalculateAndCache(ctx context.Context, tenantID uuid.UUID, accountID int64) (float64, error) {
	balance, err := s.Calculate(ctx, tenantID, accountID)
	if err != nil {
		return 0, err
	}
	if err := s.repo.WriteCache(ctx, tenantID, accountID, balance, s.now()); err != nil {
		return 0, err
	}
	return balance, nil
}

// RecalculateAll refreshes the cache for every postable account of a tenant.
// Failures on individual accounts are logged and skipped so one bad row does
// not starve the rest.
func (s *Service) RecalculateAll(ctx context.Context, tenantID uuid.UUID) (int, error) {
	refs, err := s.repo.ListPostable(ctx, tenantID)
	if err != nil {
		return 0, err
	}
	updated := 0
	for _, ref := range refs {
		balance, err := s.calculate(ctx, tenantID, ref, nil)
		if err != nil {
			s.logger.Warn("balance recalculation skipped account",
				slog.String("tenant", tenantID.String()),
				slog.String("code", ref.Code),
				slog.Any("error", err))
			continue
		}
		if err := s.repo.WriteCache(ctx, tenantID, ref.ID, balance, s.now()); err != nil {
			s.logger.Warn("balance cache write failed",
				slog.String("tenant", tenantID.String()),
				slog.String("code", ref.Code),
				slog.Any("error", err))
			continue
		}
		updated++
	}
	return updated, nil
}
