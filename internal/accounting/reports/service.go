package reports

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// Service assembles financial reports from ledger activity.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService constructs the reports service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger}
}

// TrialBalance builds the grouped trial balance over a window. An unbalanced
// result signals ledger corruption and is logged, never hidden.
func (s *Service) TrialBalance(ctx context.Context, tenantID uuid.UUID, window Window) (TrialBalance, error) {
	balances, err := s.repo.AccountActivity(ctx, tenantID, window)
	if err != nil {
		return TrialBalance{}, err
	}
	tb := BuildTrialBalance(balances)
	if !tb.Balanced() {
		s.logger.Warn("trial balance out of balance",
			slog.String("tenant", tenantID.String()),
			slog.Float64("total_debit", tb.TotalDebit),
			slog.Float64("total_credit", tb.TotalCredit))
	}
	return tb, nil
}

// ProfitAndLoss builds the income statement over a window.
func (s *Service) ProfitAndLoss(ctx context.Context, tenantID uuid.UUID, window Window) (ProfitAndLoss, error) {
	balances, err := s.repo.AccountActivity(ctx, tenantID, window)
	if err != nil {
		return ProfitAndLoss{}, err
	}
	return BuildProfitAndLoss(balances), nil
}

// BalanceSheet builds the statement of position as of the window's end. A
// drift beyond tolerance is logged as a warning; the report still returns so
// operators can inspect the gap.
func (s *Service) BalanceSheet(ctx context.Context, tenantID uuid.UUID, window Window) (BalanceSheet, error) {
	balances, err := s.repo.AccountActivity(ctx, tenantID, window)
	if err != nil {
		return BalanceSheet{}, err
	}
	bs := BuildBalanceSheet(balances)
	if !bs.Balanced() {
		s.logger.Warn("balance sheet equation drift",
			slog.String("tenant", tenantID.String()),
			slog.Float64("assets", bs.Assets.Total),
			slog.Float64("liabilities_and_equity", bs.TotalLiabilitiesAndEquity),
			slog.Float64("drift", bs.Drift()))
	}
	return bs, nil
}
