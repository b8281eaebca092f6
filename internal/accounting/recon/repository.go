package recon

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-erp/meridian-erp/internal/accounting/accounts"
	"github.com/meridian-erp/meridian-erp/internal/accounting/shared"
)

// Repository mutates the reconciliation state embedded on account rows.
// Acquire and Release are single conditional UPDATE statements so that two
// concurrent callers can never both win: the lock is compare-and-set at the
// database, never read-then-write at the application.
type Repository interface {
	GetState(ctx context.Context, tenantID uuid.UUID, accountID int64) (accounts.Reconciliation, error)
	TryAcquire(ctx context.Context, in AcquireInput, now time.Time) (bool, error)
	Release(ctx context.Context, in ReleaseInput, now time.Time) (bool, error)
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository returns the pgx-backed reconciliation repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) GetState(ctx context.Context, tenantID uuid.UUID, accountID int64) (accounts.Reconciliation, error) {
	var rec accounts.Reconciliation
	err := r.db.QueryRow(ctx, `SELECT recon_status, recon_locked_by, recon_locked_at, recon_lock_expires_at,
recon_lock_start_date, recon_lock_end_date, reconciled_up_to, discrepancy_amount, discrepancy_reason
FROM accounts WHERE tenant_id=$1 AND id=$2 AND status <> 'DELETED'`, tenantID, accountID).
		Scan(&rec.Status, &rec.LockedBy, &rec.LockedAt, &rec.LockExpiresAt,
			&rec.LockStartDate, &rec.LockEndDate, &rec.ReconciledUpTo, &rec.DiscrepancyAmount, &rec.DiscrepancyReason)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return accounts.Reconciliation{}, shared.ErrAccountNotFound
		}
		return accounts.Reconciliation{}, err
	}
	return rec, nil
}

// TryAcquire wins only when no lock is held, the held lock has expired, or
// the caller already owns it (renewal).
func (r *repository) TryAcquire(ctx context.Context, in AcquireInput, now time.Time) (bool, error) {
	cmd, err := r.db.Exec(ctx, `UPDATE accounts SET
recon_status='IN_PROGRESS',
recon_locked_by=$3, recon_locked_at=$4, recon_lock_expires_at=$5,
recon_lock_start_date=$6, recon_lock_end_date=$7, updated_at=NOW()
WHERE tenant_id=$1 AND id=$2 AND status <> 'DELETED'
  AND (recon_locked_by IS NULL OR recon_lock_expires_at <= $4 OR recon_locked_by = $3)`,
		in.TenantID, in.AccountID, in.UserID, now, now.Add(in.Duration), in.StartDate, in.EndDate)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() == 1, nil
}

// Release clears the lease when the caller holds it, stamping the outcome
// and advancing (never retreating) the reconciled watermark.
func (r *repository) Release(ctx context.Context, in ReleaseInput, now time.Time) (bool, error) {
	cmd, err := r.db.Exec(ctx, `UPDATE accounts SET
recon_status=$4,
recon_locked_by=NULL, recon_locked_at=NULL, recon_lock_expires_at=NULL,
recon_lock_start_date=NULL, recon_lock_end_date=NULL,
reconciled_up_to = GREATEST(COALESCE(reconciled_up_to, $5::timestamptz), $5::timestamptz),
discrepancy_amount=$6, discrepancy_reason=$7, updated_at=NOW()
WHERE tenant_id=$1 AND id=$2 AND recon_locked_by=$3 AND recon_lock_expires_at > $8`,
		in.TenantID, in.AccountID, in.UserID, in.Outcome.reconStatus(),
		in.ReconciledUpTo, in.DiscrepancyAmount, in.DiscrepancyReason, now)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() == 1, nil
}
