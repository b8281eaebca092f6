package accounts

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-erp/meridian-erp/internal/accounting/shared"
)

// Repository encapsulates DB operations for the chart of accounts.
type Repository interface {
	Get(ctx context.Context, tenantID uuid.UUID, accountID int64) (Account, error)
	GetByCode(ctx context.Context, tenantID uuid.UUID, code string) (Account, error)
	ListActive(ctx context.Context, tenantID uuid.UUID) ([]Account, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes methods available within a transaction.
type TxRepository interface {
	Insert(ctx context.Context, a Account) (Account, error)
	GetForUpdate(ctx context.Context, tenantID uuid.UUID, accountID int64) (Account, error)
	Update(ctx context.Context, a Account) error
	SoftDelete(ctx context.Context, tenantID uuid.UUID, accountID, actorID int64, at time.Time) error
	HasActiveChildren(ctx context.Context, tenantID uuid.UUID, accountID int64) (bool, error)
	ActiveCodeExists(ctx context.Context, tenantID uuid.UUID, code string) (bool, error)
	// NextCounter atomically increments and returns the per-tenant-per-type
	// code counter in a single round trip.
	NextCounter(ctx context.Context, tenantID uuid.UUID, accountType AccountType) (int64, error)
}

const accountColumns = `id, tenant_id, code, name, type, category, normal_balance, parent_id, level,
allow_direct_posting, is_system_account, is_protected, origin, status,
opening_balance, current_balance, balance_calculated_at,
recon_status, recon_locked_by, recon_locked_at, recon_lock_expires_at,
recon_lock_start_date, recon_lock_end_date, reconciled_up_to,
discrepancy_amount, discrepancy_reason, deleted_at, deleted_by, created_at, updated_at`

type repository struct {
	db *pgxpool.Pool
}

// NewRepository returns the pgx-backed accounts repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func scanAccount(row pgx.Row) (Account, error) {
	var a Account
	err := row.Scan(
		&a.ID, &a.TenantID, &a.Code, &a.Name, &a.Type, &a.Category, &a.NormalBalance, &a.ParentID, &a.Level,
		&a.AllowDirectPosting, &a.IsSystemAccount, &a.IsProtected, &a.Origin, &a.Status,
		&a.OpeningBalance, &a.CurrentBalance, &a.BalanceCalculatedAt,
		&a.Recon.Status, &a.Recon.LockedBy, &a.Recon.LockedAt, &a.Recon.LockExpiresAt,
		&a.Recon.LockStartDate, &a.Recon.LockEndDate, &a.Recon.ReconciledUpTo,
		&a.Recon.DiscrepancyAmount, &a.Recon.DiscrepancyReason, &a.DeletedAt, &a.DeletedBy, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, shared.ErrAccountNotFound
		}
		return Account{}, err
	}
	return a, nil
}

func (r *repository) Get(ctx context.Context, tenantID uuid.UUID, accountID int64) (Account, error) {
	row := r.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE tenant_id=$1 AND id=$2`, tenantID, accountID)
	return scanAccount(row)
}

func (r *repository) GetByCode(ctx context.Context, tenantID uuid.UUID, code string) (Account, error) {
	row := r.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE tenant_id=$1 AND code=$2`, tenantID, code)
	return scanAccount(row)
}

func (r *repository) ListActive(ctx context.Context, tenantID uuid.UUID) ([]Account, error) {
	rows, err := r.db.Query(ctx, `SELECT `+accountColumns+` FROM accounts WHERE tenant_id=$1 AND status='ACTIVE' ORDER BY code`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return err
	}
	if err := fn(ctx, &txRepository{tx: tx}); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

type txRepository struct {
	tx pgx.Tx
}

func (r *txRepository) Insert(ctx context.Context, a Account) (Account, error) {
	row := r.tx.QueryRow(ctx, `INSERT INTO accounts
(tenant_id, code, name, type, category, normal_balance, parent_id, level,
 allow_direct_posting, is_system_account, is_protected, origin, status,
 opening_balance, current_balance, recon_status)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,'NOT_STARTED')
RETURNING id, created_at, updated_at`,
		a.TenantID, a.Code, a.Name, a.Type, a.Category, a.NormalBalance, a.ParentID, a.Level,
		a.AllowDirectPosting, a.IsSystemAccount, a.IsProtected, a.Origin, a.Status,
		a.OpeningBalance, a.CurrentBalance)
	if err := row.Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.ConstraintName == "uq_accounts_tenant_code" {
			return Account{}, shared.ErrDuplicateCode
		}
		return Account{}, err
	}
	a.Recon.Status = ReconNotStarted
	return a, nil
}

func (r *txRepository) GetForUpdate(ctx context.Context, tenantID uuid.UUID, accountID int64) (Account, error) {
	row := r.tx.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE tenant_id=$1 AND id=$2 FOR UPDATE`, tenantID, accountID)
	return scanAccount(row)
}

func (r *txRepository) Update(ctx context.Context, a Account) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE accounts
SET name=$3, category=$4, allow_direct_posting=$5, status=$6, updated_at=NOW()
WHERE tenant_id=$1 AND id=$2`, a.TenantID, a.ID, a.Name, a.Category, a.AllowDirectPosting, a.Status)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrAccountNotFound
	}
	return nil
}

func (r *txRepository) SoftDelete(ctx context.Context, tenantID uuid.UUID, accountID, actorID int64, at time.Time) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE accounts
SET status='DELETED', deleted_at=$3, deleted_by=$4, updated_at=NOW()
WHERE tenant_id=$1 AND id=$2 AND status <> 'DELETED'`, tenantID, accountID, at, actorID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrAccountNotFound
	}
	return nil
}

func (r *txRepository) HasActiveChildren(ctx context.Context, tenantID uuid.UUID, accountID int64) (bool, error) {
	var exists bool
	err := r.tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM accounts WHERE tenant_id=$1 AND parent_id=$2 AND status='ACTIVE')`,
		tenantID, accountID).Scan(&exists)
	return exists, err
}

func (r *txRepository) ActiveCodeExists(ctx context.Context, tenantID uuid.UUID, code string) (bool, error) {
	var exists bool
	err := r.tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM accounts WHERE tenant_id=$1 AND code=$2 AND status <> 'DELETED')`,
		tenantID, code).Scan(&exists)
	return exists, err
}

// NextCounter relies on ON CONFLICT DO UPDATE so two concurrent callers can
// never observe the same value.
func (r *txRepository) NextCounter(ctx context.Context, tenantID uuid.UUID, accountType AccountType) (int64, error) {
	var last int64
	err := r.tx.QueryRow(ctx, `INSERT INTO account_counters (tenant_id, account_type, last_code)
VALUES ($1,$2,1)
ON CONFLICT (tenant_id, account_type)
DO UPDATE SET last_code = account_counters.last_code + 1, updated_at = NOW()
RETURNING last_code`, tenantID, accountType).Scan(&last)
	return last, err
}
