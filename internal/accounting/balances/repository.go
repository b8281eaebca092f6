package balances

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

// AccountRef is the slice of account state the calculator needs.
type AccountRef struct {
	ID                 int64
	Code               string
	NormalBalance      accounts.NormalBalance
	ParentID           *int64
	AllowDirectPosting bool
	Status             accounts.LifecycleStatus
}

// Repository reads journal history and writes the balance cache.
type Repository interface {
	AccountRefByID(ctx context.Context, tenantID uuid.UUID, accountID int64) (AccountRef, error)
	AccountRefByCode(ctx context.Context, tenantID uuid.UUID, code string) (AccountRef, error)
	// LineTotals sums debit and credit over posted and reversed entries
	// touching the account, optionally bounded by entry date. Reversed
	// originals stay in the sum so their mirror entries cancel them.
	LineTotals(ctx context.Context, tenantID uuid.UUID, accountID int64, asOf *time.Time) (debit, credit float64, err error)
	ActiveChildren(ctx context.Context, tenantID uuid.UUID, parentID int64) ([]AccountRef, error)
	ListPostable(ctx context.Context, tenantID uuid.UUID) ([]AccountRef, error)
	WriteCache(ctx context.Context, tenantID uuid.UUID, accountID int64, balance float64, at time.Time) error
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository returns the pgx-backed balances repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const refColumns = `id, code, normal_balance, parent_id, allow_direct_posting, status`

func scanRef(row pgx.Row) (AccountRef, error) {
	var ref AccountRef
	err := row.Scan(&ref.ID, &ref.Code, &ref.NormalBalance, &ref.ParentID, &ref.AllowDirectPosting, &ref.Status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return AccountRef{}, shared.ErrAccountNotFound
		}
		return AccountRef{}, err
	}
	return ref, nil
}

func (r *repository) AccountRefByID(ctx context.Context, tenantID uuid.UUID, accountID int64) (AccountRef, error) {
	return scanRef(r.db.QueryRow(ctx, `SELECT `+refColumns+` FROM accounts WHERE tenant_id=$1 AND id=$2`, tenantID, accountID))
}

func (r *repository) AccountRefByCode(ctx context.Context, tenantID uuid.UUID, code string) (AccountRef, error) {
	return scanRef(r.db.QueryRow(ctx, `SELECT `+refColumns+` FROM accounts
WHERE tenant_id=$1 AND code=$2
ORDER BY CASE status WHEN 'ACTIVE' THEN 0 WHEN 'INACTIVE' THEN 1 ELSE 2 END LIMIT 1`, tenantID, code))
}

func (r *repository) LineTotals(ctx context.Context, tenantID uuid.UUID, accountID int64, asOf *time.Time) (float64, float64, error) {
	query := `SELECT COALESCE(SUM(l.debit),0), COALESCE(SUM(l.credit),0)
FROM journal_lines l
JOIN journal_entries e ON e.id = l.je_id
WHERE e.tenant_id=$1 AND l.account_id=$2 AND e.status IN ('POSTED','REVERSED')`
	args := []any{tenantID, accountID}
	if asOf != nil {
		query += ` AND e.entry_date <= $3`
		args = append(args, *asOf)
	}
	var debit, credit float64
	if err := r.db.QueryRow(ctx, query, args...).Scan(&debit, &credit); err != nil {
		return 0, 0, err
	}
	return debit, credit, nil
}

func (r *repository) ActiveChildren(ctx context.Context, tenantID uuid.UUID, parentID int64) ([]AccountRef, error) {
	rows, err := r.db.Query(ctx, `SELECT `+refColumns+` FROM accounts
WHERE tenant_id=$1 AND parent_id=$2 AND status='ACTIVE' ORDER BY code`, tenantID, parentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []AccountRef
	for rows.Next() {
		ref, err := scanRef(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ref)
	}
	return out, rows.Err()
}

func (r *repository) ListPostable(ctx context.Context, tenantID uuid.UUID) ([]AccountRef, error) {
	rows, err := r.db.Query(ctx, `SELECT `+refColumns+` FROM accounts
WHERE tenant_id=$1 AND status='ACTIVE' AND allow_direct_posting ORDER BY code`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []AccountRef
	for rows.Next() {
		ref, err := scanRef(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ref)
	}
	return out, rows.Err()
}

func (r *repository) WriteCache(ctx context.Context, tenantID uuid.UUID, accountID int64, balance float64, at time.Time) error {
	cmd, err := r.db.Exec(ctx, `UPDATE accounts SET current_balance=$3, balance_calculated_at=$4, updated_at=NOW()
WHERE tenant_id=$1 AND id=$2`, tenantID, accountID, balance, at)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrAccountNotFound
	}
	return nil
}
