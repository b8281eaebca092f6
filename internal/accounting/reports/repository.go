package reports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository aggregates journal lines per account for reporting. Posted and
// reversed entries both count; a reversal nets out only with its original.
type Repository interface {
	// AccountActivity returns one row per active account with opening
	// balance (activity before the window) plus debit/credit totals inside
	// the window.
	AccountActivity(ctx context.Context, tenantID uuid.UUID, window Window) ([]AccountBalance, error)
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository returns the pgx-backed reports repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) AccountActivity(ctx context.Context, tenantID uuid.UUID, window Window) ([]AccountBalance, error) {
	rows, err := r.db.Query(ctx, `SELECT a.code, a.name, a.type, a.normal_balance,
a.opening_balance + COALESCE(SUM(CASE WHEN $2::timestamptz IS NOT NULL AND e.entry_date < $2 THEN l.debit - l.credit ELSE 0 END), 0) AS opening,
COALESCE(SUM(CASE WHEN ($2::timestamptz IS NULL OR e.entry_date >= $2) AND ($3::timestamptz IS NULL OR e.entry_date <= $3) THEN l.debit ELSE 0 END), 0) AS debit,
COALESCE(SUM(CASE WHEN ($2::timestamptz IS NULL OR e.entry_date >= $2) AND ($3::timestamptz IS NULL OR e.entry_date <= $3) THEN l.credit ELSE 0 END), 0) AS credit
FROM accounts a
LEFT JOIN journal_lines l ON l.account_id = a.id
LEFT JOIN journal_entries e ON e.id = l.je_id AND e.status IN ('POSTED','REVERSED')
WHERE a.tenant_id = $1 AND a.status = 'ACTIVE' AND a.allow_direct_posting
GROUP BY a.code, a.name, a.type, a.normal_balance, a.opening_balance
ORDER BY a.code`, tenantID, nullableTime(window.From), nullableTime(window.To))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []AccountBalance
	for rows.Next() {
		var b AccountBalance
		if err := rows.Scan(&b.Code, &b.Name, &b.Type, &b.NormalBalance, &b.Opening, &b.Debit, &b.Credit); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func nullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
