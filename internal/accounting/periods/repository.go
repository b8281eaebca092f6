package periods

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

// Repository encapsulates DB operations for fiscal years and periods.
type Repository interface {
	FindByDate(ctx context.Context, tenantID uuid.UUID, date time.Time) (Period, error)
	ListYearPeriods(ctx context.Context, tenantID uuid.UUID, year int) ([]Period, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes methods available within a transaction.
type TxRepository interface {
	InsertYear(ctx context.Context, fy FiscalYear) (FiscalYear, error)
	InsertPeriod(ctx context.Context, p Period) (Period, error)
	GetPeriodForUpdate(ctx context.Context, tenantID uuid.UUID, periodID int64) (Period, error)
	GetYearForUpdate(ctx context.Context, tenantID uuid.UUID, year int) (FiscalYear, error)
	UpdatePeriodStatus(ctx context.Context, p Period) error
	CountPeriodsNotClosed(ctx context.Context, fiscalYearID int64) (int, error)
	CloseYear(ctx context.Context, fiscalYearID, actorID int64, at time.Time) error
}

const periodColumns = `id, tenant_id, fiscal_year_id, seq, name, start_date, end_date, status,
locked_by, locked_at, closed_by, closed_at, created_at, updated_at`

type repository struct {
	db *pgxpool.Pool
}

// NewRepository returns the pgx-backed periods repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func scanPeriod(row pgx.Row) (Period, error) {
	var p Period
	err := row.Scan(&p.ID, &p.TenantID, &p.FiscalYearID, &p.Seq, &p.Name, &p.StartDate, &p.EndDate, &p.Status,
		&p.LockedBy, &p.LockedAt, &p.ClosedBy, &p.ClosedAt, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Period{}, shared.ErrPeriodNotFound
		}
		return Period{}, err
	}
	return p, nil
}

func (r *repository) FindByDate(ctx context.Context, tenantID uuid.UUID, date time.Time) (Period, error) {
	row := r.db.QueryRow(ctx, `SELECT `+periodColumns+` FROM fiscal_periods
WHERE tenant_id=$1 AND $2::date BETWEEN start_date AND end_date ORDER BY start_date LIMIT 1`, tenantID, date)
	return scanPeriod(row)
}

func (r *repository) ListYearPeriods(ctx context.Context, tenantID uuid.UUID, year int) ([]Period, error) {
	rows, err := r.db.Query(ctx, `SELECT `+periodColumns+` FROM fiscal_periods p
WHERE p.tenant_id=$1 AND p.fiscal_year_id = (SELECT id FROM fiscal_years WHERE tenant_id=$1 AND year=$2)
ORDER BY p.seq`, tenantID, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Period
	for rows.Next() {
		p, err := scanPeriod(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
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

func (r *txRepository) InsertYear(ctx context.Context, fy FiscalYear) (FiscalYear, error) {
	row := r.tx.QueryRow(ctx, `INSERT INTO fiscal_years (tenant_id, year, start_date, end_date, status)
VALUES ($1,$2,$3,$4,'OPEN') RETURNING id, created_at, updated_at`,
		fy.TenantID, fy.Year, fy.StartDate, fy.EndDate)
	if err := row.Scan(&fy.ID, &fy.CreatedAt, &fy.UpdatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.ConstraintName == "uq_fiscal_years_tenant_year" {
			return FiscalYear{}, shared.ErrInvalidPeriodTransition
		}
		return FiscalYear{}, err
	}
	fy.Status = YearStatusOpen
	return fy, nil
}

func (r *txRepository) InsertPeriod(ctx context.Context, p Period) (Period, error) {
	row := r.tx.QueryRow(ctx, `INSERT INTO fiscal_periods (tenant_id, fiscal_year_id, seq, name, start_date, end_date, status)
VALUES ($1,$2,$3,$4,$5,$6,'OPEN') RETURNING id, created_at, updated_at`,
		p.TenantID, p.FiscalYearID, p.Seq, p.Name, p.StartDate, p.EndDate)
	if err := row.Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return Period{}, err
	}
	p.Status = PeriodStatusOpen
	return p, nil
}

func (r *txRepository) GetPeriodForUpdate(ctx context.Context, tenantID uuid.UUID, periodID int64) (Period, error) {
	row := r.tx.QueryRow(ctx, `SELECT `+periodColumns+` FROM fiscal_periods WHERE tenant_id=$1 AND id=$2 FOR UPDATE`, tenantID, periodID)
	return scanPeriod(row)
}

func (r *txRepository) GetYearForUpdate(ctx context.Context, tenantID uuid.UUID, year int) (FiscalYear, error) {
	var fy FiscalYear
	err := r.tx.QueryRow(ctx, `SELECT id, tenant_id, year, start_date, end_date, status, closed_by, closed_at, created_at, updated_at
FROM fiscal_years WHERE tenant_id=$1 AND year=$2 FOR UPDATE`, tenantID, year).
		Scan(&fy.ID, &fy.TenantID, &fy.Year, &fy.StartDate, &fy.EndDate, &fy.Status, &fy.ClosedBy, &fy.ClosedAt, &fy.CreatedAt, &fy.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return FiscalYear{}, shared.ErrPeriodNotFound
		}
		return FiscalYear{}, err
	}
	return fy, nil
}

func (r *txRepository) UpdatePeriodStatus(ctx context.Context, p Period) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE fiscal_periods
SET status=$3, locked_by=$4, locked_at=$5, closed_by=$6, closed_at=$7, updated_at=NOW()
WHERE tenant_id=$1 AND id=$2`, p.TenantID, p.ID, p.Status, p.LockedBy, p.LockedAt, p.ClosedBy, p.ClosedAt)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrPeriodNotFound
	}
	return nil
}

func (r *txRepository) CountPeriodsNotClosed(ctx context.Context, fiscalYearID int64) (int, error) {
	var n int
	err := r.tx.QueryRow(ctx, `SELECT COUNT(*) FROM fiscal_periods WHERE fiscal_year_id=$1 AND status <> 'CLOSED'`, fiscalYearID).Scan(&n)
	return n, err
}

func (r *txRepository) CloseYear(ctx context.Context, fiscalYearID, actorID int64, at time.Time) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE fiscal_years SET status='CLOSED', closed_by=$2, closed_at=$3, updated_at=NOW()
WHERE id=$1 AND status='OPEN'`, fiscalYearID, actorID, at)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrInvalidPeriodTransition
	}
	return nil
}
