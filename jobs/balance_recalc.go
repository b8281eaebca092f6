package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/meridian-erp/meridian-erp/internal/accounting/balances"
)

// BalanceRecalcJob refreshes the balance cache for a tenant's postable
// accounts outside the posting hot path.
type BalanceRecalcJob struct {
	service *balances.Service
	logger  *slog.Logger
}

// NewBalanceRecalcJob constructs the job.
func NewBalanceRecalcJob(service *balances.Service, logger *slog.Logger) *BalanceRecalcJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &BalanceRecalcJob{service: service, logger: logger}
}

// Handle processes TaskBalanceRecalc tasks.
func (j *BalanceRecalcJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload BalanceRecalcPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	tenantID, err := uuid.Parse(payload.TenantID)
	if err != nil {
		return asynq.SkipRetry
	}
	updated, err := j.service.RecalculateAll(ctx, tenantID)
	if err != nil {
		j.logger.Error("balance recalc job failed",
			slog.String("tenant", payload.TenantID),
			slog.Any("error", err))
		return err
	}
	j.logger.Info("balance recalc job done",
		slog.String("tenant", payload.TenantID),
		slog.Int("updated", updated))
	return nil
}
