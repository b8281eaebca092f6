package journals

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-erp/meridian-erp/internal/accounting/accounts"
	"github.com/meridian-erp/meridian-erp/internal/accounting/shared"
)

// Repository encapsulates DB operations for the journal entry ledger.
type Repository interface {
	Get(ctx context.Context, tenantID uuid.UUID, entryID int64) (JournalEntry, error)
	List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]JournalEntry, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes methods available within a posting transaction. It
// reaches into account rows directly because resolution, locking, and cache
// invalidation must share the posting transaction.
type TxRepository interface {
	// ResolveAccountForPosting row-locks the best candidate account for a
	// code: active first, then inactive, then deleted.
	ResolveAccountForPosting(ctx context.Context, tenantID uuid.UUID, code string) (accounts.Account, error)
	SetAccountStatus(ctx context.Context, tenantID uuid.UUID, accountID int64, status accounts.LifecycleStatus) error
	// NextEntrySequence atomically increments the per-tenant/day/prefix
	// counter in a single round trip.
	NextEntrySequence(ctx context.Context, tenantID uuid.UUID, day time.Time, prefix string) (int64, error)
	InsertEntry(ctx context.Context, e JournalEntry) (JournalEntry, error)
	InsertLines(ctx context.Context, entryID int64, lines []JournalLine) error
	GetEntryForUpdate(ctx context.Context, tenantID uuid.UUID, entryID int64) (JournalEntry, error)
	MarkReversed(ctx context.Context, tenantID uuid.UUID, originalID, reversalID int64) error
	// InvalidateBalances clears the balance cache timestamp on every
	// account touched, signalling staleness without recomputing.
	InvalidateBalances(ctx context.Context, tenantID uuid.UUID, accountIDs []int64) error
}

const entryColumns = `id, tenant_id, number, entry_date, reference_type, reference_id, reference_number,
memo, total_debit, total_credit, status, reversal_of, reversed_by, created_by, posted_at, created_at, updated_at`

const lineColumns = `id, je_id, account_id, account_code, account_name, debit, credit, description, created_at`

type repository struct {
	db *pgxpool.Pool
}

// NewRepository returns the pgx-backed journals repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func scanEntry(row pgx.Row) (JournalEntry, error) {
	var e JournalEntry
	err := row.Scan(&e.ID, &e.TenantID, &e.Number, &e.Date, &e.ReferenceType, &e.ReferenceID, &e.ReferenceNumber,
		&e.Memo, &e.TotalDebit, &e.TotalCredit, &e.Status, &e.ReversalOf, &e.ReversedBy, &e.CreatedBy, &e.PostedAt, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return JournalEntry{}, shared.ErrJournalNotFound
		}
		return JournalEntry{}, err
	}
	return e, nil
}

func (r *repository) Get(ctx context.Context, tenantID uuid.UUID, entryID int64) (JournalEntry, error) {
	entry, err := scanEntry(r.db.QueryRow(ctx, `SELECT `+entryColumns+` FROM journal_entries WHERE tenant_id=$1 AND id=$2`, tenantID, entryID))
	if err != nil {
		return JournalEntry{}, err
	}
	rows, err := r.db.Query(ctx, `SELECT `+lineColumns+` FROM journal_lines WHERE je_id=$1 ORDER BY id`, entryID)
	if err != nil {
		return JournalEntry{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var l JournalLine
		if err := rows.Scan(&l.ID, &l.JournalID, &l.AccountID, &l.AccountCode, &l.AccountName, &l.Debit, &l.Credit, &l.Description, &l.CreatedAt); err != nil {
			return JournalEntry{}, err
		}
		entry.Lines = append(entry.Lines, l)
	}
	return entry, rows.Err()
}

func (r *repository) List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]JournalEntry, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := r.db.Query(ctx, `SELECT `+entryColumns+` FROM journal_entries
WHERE tenant_id=$1 ORDER BY id DESC LIMIT $2 OFFSET $3`, tenantID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []JournalEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
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

// ResolveAccountForPosting prefers active rows, then inactive, then deleted.
// Restoration decisions belong to the service; this only locks and loads.
func (r *txRepository) ResolveAccountForPosting(ctx context.Context, tenantID uuid.UUID, code string) (accounts.Account, error) {
	var a accounts.Account
	err := r.tx.QueryRow(ctx, `SELECT id, tenant_id, code, name, type, normal_balance, allow_direct_posting,
is_system_account, is_protected, origin, status,
recon_status, recon_locked_by, recon_locked_at, recon_lock_expires_at,
recon_lock_start_date, recon_lock_end_date, reconciled_up_to
FROM accounts WHERE tenant_id=$1 AND code=$2
ORDER BY CASE status WHEN 'ACTIVE' THEN 0 WHEN 'INACTIVE' THEN 1 ELSE 2 END
LIMIT 1 FOR UPDATE`, tenantID, code).
		Scan(&a.ID, &a.TenantID, &a.Code, &a.Name, &a.Type, &a.NormalBalance, &a.AllowDirectPosting,
			&a.IsSystemAccount, &a.IsProtected, &a.Origin, &a.Status,
			&a.Recon.Status, &a.Recon.LockedBy, &a.Recon.LockedAt, &a.Recon.LockExpiresAt,
			&a.Recon.LockStartDate, &a.Recon.LockEndDate, &a.Recon.ReconciledUpTo)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return accounts.Account{}, shared.ErrAccountNotFound
		}
		return accounts.Account{}, err
	}
	return a, nil
}

func (r *txRepository) SetAccountStatus(ctx context.Context, tenantID uuid.UUID, accountID int64, status accounts.LifecycleStatus) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE accounts SET status=$3, deleted_at=NULL, deleted_by=NULL, updated_at=NOW()
WHERE tenant_id=$1 AND id=$2`, tenantID, accountID, status)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrAccountNotFound
	}
	return nil
}

func (r *txRepository) NextEntrySequence(ctx context.Context, tenantID uuid.UUID, day time.Time, prefix string) (int64, error) {
	var seq int64
	err := r.tx.QueryRow(ctx, `INSERT INTO journal_counters (tenant_id, day, prefix, last_seq)
VALUES ($1, $2::date, $3, 1)
ON CONFLICT (tenant_id, day, prefix)
DO UPDATE SET last_seq = journal_counters.last_seq + 1, updated_at = NOW()
RETURNING last_seq`, tenantID, day, prefix).Scan(&seq)
	return seq, err
}

func (r *txRepository) InsertEntry(ctx context.Context, e JournalEntry) (JournalEntry, error) {
	row := r.tx.QueryRow(ctx, `INSERT INTO journal_entries
(tenant_id, number, entry_date, reference_type, reference_id, reference_number, memo,
 total_debit, total_credit, status, reversal_of, created_by)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,'POSTED',$10,$11)
RETURNING id, posted_at, created_at, updated_at`,
		e.TenantID, e.Number, e.Date, e.ReferenceType, e.ReferenceID, e.ReferenceNumber, e.Memo,
		e.TotalDebit, e.TotalCredit, e.ReversalOf, e.CreatedBy)
	if err := row.Scan(&e.ID, &e.PostedAt, &e.CreatedAt, &e.UpdatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.ConstraintName == "uq_journal_entries_source" {
			return JournalEntry{}, shared.ErrSourceAlreadyPosted
		}
		return JournalEntry{}, err
	}
	e.Status = EntryStatusPosted
	return e, nil
}

func (r *txRepository) InsertLines(ctx context.Context, entryID int64, lines []JournalLine) error {
	for _, line := range lines {
		if _, err := r.tx.Exec(ctx, `INSERT INTO journal_lines (je_id, account_id, account_code, account_name, debit, credit, description)
VALUES ($1,$2,$3,$4,$5,$6,$7)`, entryID, line.AccountID, line.AccountCode, line.AccountName, line.Debit, line.Credit, line.Description); err != nil {
			return err
		}
	}
	return nil
}

func (r *txRepository) GetEntryForUpdate(ctx context.Context, tenantID uuid.UUID, entryID int64) (JournalEntry, error) {
	entry, err := scanEntry(r.tx.QueryRow(ctx, `SELECT `+entryColumns+` FROM journal_entries
WHERE tenant_id=$1 AND id=$2 FOR UPDATE`, tenantID, entryID))
	if err != nil {
		return JournalEntry{}, err
	}
	rows, err := r.tx.Query(ctx, `SELECT `+lineColumns+` FROM journal_lines WHERE je_id=$1 ORDER BY id`, entryID)
	if err != nil {
		return JournalEntry{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var l JournalLine
		if err := rows.Scan(&l.ID, &l.JournalID, &l.AccountID, &l.AccountCode, &l.AccountName, &l.Debit, &l.Credit, &l.Description, &l.CreatedAt); err != nil {
			return JournalEntry{}, err
		}
		entry.Lines = append(entry.Lines, l)
	}
	return entry, rows.Err()
}

func (r *txRepository) MarkReversed(ctx context.Context, tenantID uuid.UUID, originalID, reversalID int64) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE journal_entries SET status='REVERSED', reversed_by=$3, updated_at=NOW()
WHERE tenant_id=$1 AND id=$2 AND status='POSTED'`, tenantID, originalID, reversalID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrInvalidStatus
	}
	return nil
}

func (r *txRepository) InvalidateBalances(ctx context.Context, tenantID uuid.UUID, accountIDs []int64) error {
	if len(accountIDs) == 0 {
		return nil
	}
	_, err := r.tx.Exec(ctx, `UPDATE accounts SET balance_calculated_at = NULL, updated_at = NOW()
WHERE tenant_id=$1 AND id = ANY($2)`, tenantID, accountIDs)
	return err
}
