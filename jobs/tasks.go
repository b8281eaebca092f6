package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskBalanceRecalc refreshes the balance cache for one tenant.
	TaskBalanceRecalc = "balances:recalculate"
	// TaskLedgerIntegrity verifies debits equal credits per tenant.
	TaskLedgerIntegrity = "ledger:integrity"
)

// BalanceRecalcPayload scopes a cache refresh to one tenant.
type BalanceRecalcPayload struct {
	TenantID string `json:"tenant_id"`
}

// NewBalanceRecalcTask constructs an Asynq task for a tenant cache refresh.
func NewBalanceRecalcTask(payload BalanceRecalcPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskBalanceRecalc, data), nil
}

// LedgerIntegrityPayload optionally scopes the integrity sweep. An empty
// tenant id checks every tenant.
type LedgerIntegrityPayload struct {
	TenantID string `json:"tenant_id,omitempty"`
}

// NewLedgerIntegrityTask constructs an Asynq task for the integrity sweep.
func NewLedgerIntegrityTask(payload LedgerIntegrityPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLedgerIntegrity, data), nil
}
