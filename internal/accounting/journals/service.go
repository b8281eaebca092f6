package journals

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/meridian-erp/meridian-erp/internal/accounting/accounts"
	"github.com/meridian-erp/meridian-erp/internal/accounting/recon"
	"github.com/meridian-erp/meridian-erp/internal/accounting/shared"
	internalShared "github.com/meridian-erp/meridian-erp/internal/shared"
)

// AuditPort records ledger mutations.
type AuditPort interface {
	Record(ctx context.Context, log internalShared.AuditLog) error
}

// PeriodGuard rejects posting dates inside locked or closed fiscal periods.
type PeriodGuard interface {
	EnsureOpenForPosting(ctx context.Context, tenantID uuid.UUID, date time.Time) error
}

// Service is the single entry point for ledger mutations. Every posting
// runs the full validation sequence inside one transaction; a failure at
// any step leaves no partial state.
type Service struct {
	repo  Repository
	guard PeriodGuard
	audit AuditPort
	now   func() time.Time
}

// NewService constructs the journals service.
func NewService(repo Repository, guard PeriodGuard, audit AuditPort) *Service {
	return &Service{repo: repo, guard: guard, audit: audit, now: time.Now}
}

// WithNow overrides the clock for deterministic tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Get loads one entry with its lines.
func (s *Service) Get(ctx context.Context, tenantID uuid.UUID, entryID int64) (JournalEntry, error) {
	return s.repo.Get(ctx, tenantID, entryID)
}

// List returns entries for a tenant, newest first.
func (s *Service) List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]JournalEntry, error) {
	return s.repo.List(ctx, tenantID, limit, offset)
}

// Post validates and persists a balanced journal entry, then invalidates
// the balance cache of every account touched.
func (s *Service) Post(ctx context.Context, input PostingInput) (JournalEntry, error) {
	if err := input.Validate(); err != nil {
		return JournalEntry{}, err
	}
	var entry JournalEntry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		inserted, err := s.postInTx(ctx, tx, input, nil)
		if err != nil {
			return err
		}
		entry = inserted
		return nil
	})
	if err != nil {
		return JournalEntry{}, err
	}
	s.record(ctx, input.TenantID, input.CreatedBy, "journal.post", entry.ID, map[string]any{
		"number":         entry.Number,
		"reference_type": string(entry.ReferenceType),
		"reference_id":   entry.ReferenceID.String(),
	})
	return entry, nil
}

// postInTx runs the posting sequence inside an open transaction so that
// reversal can share it.
func (s *Service) postInTx(ctx context.Context, tx TxRepository, input PostingInput, reversalOf *int64) (JournalEntry, error) {
	if s.guard != nil {
		if err := s.guard.EnsureOpenForPosting(ctx, input.TenantID, input.Date); err != nil {
			return JournalEntry{}, err
		}
	}
	now := s.now()
	resolved := make(map[string]accounts.Account, len(input.Lines))
	touched := make([]int64, 0, len(input.Lines))
	seen := make(map[int64]bool, len(input.Lines))
	for _, line := range input.Lines {
		account, ok := resolved[line.AccountCode]
		if !ok {
			var err error
			account, err = s.resolveAccount(ctx, tx, input.TenantID, line.AccountCode)
			if err != nil {
				return JournalEntry{}, err
			}
			resolved[line.AccountCode] = account
		}
		if !account.AllowDirectPosting {
			return JournalEntry{}, shared.ErrParentPostingDenied
		}
		if err := recon.CheckPosting(account.Recon, input.Date, now); err != nil {
			return JournalEntry{}, err
		}
		if !seen[account.ID] {
			seen[account.ID] = true
			touched = append(touched, account.ID)
		}
	}
	totalDebit, totalCredit := input.Totals()
	prefix := PrefixFor(input.ReferenceType)
	seq, err := tx.NextEntrySequence(ctx, input.TenantID, input.Date, prefix)
	if err != nil {
		return JournalEntry{}, err
	}
	entry := JournalEntry{
		TenantID:        input.TenantID,
		Number:          FormatEntryNumber(prefix, input.Date, seq),
		Date:            input.Date,
		ReferenceType:   input.ReferenceType,
		ReferenceID:     input.ReferenceID,
		ReferenceNumber: input.ReferenceNumber,
		Memo:            input.Memo,
		TotalDebit:      totalDebit,
		TotalCredit:     totalCredit,
		ReversalOf:      reversalOf,
		CreatedBy:       input.CreatedBy,
	}
	inserted, err := tx.InsertEntry(ctx, entry)
	if err != nil {
		return JournalEntry{}, err
	}
	lines := make([]JournalLine, 0, len(input.Lines))
	for _, line := range input.Lines {
		account := resolved[line.AccountCode]
		lines = append(lines, JournalLine{
			JournalID:   inserted.ID,
			AccountID:   account.ID,
			AccountCode: account.Code,
			AccountName: account.Name,
			Debit:       shared.Round2(line.Debit),
			Credit:      shared.Round2(line.Credit),
			Description: line.Description,
		})
	}
	if err := tx.InsertLines(ctx, inserted.ID, lines); err != nil {
		return JournalEntry{}, err
	}
	if err := tx.InvalidateBalances(ctx, input.TenantID, touched); err != nil {
		return JournalEntry{}, err
	}
	inserted.Lines = lines
	return inserted, nil
}

// resolveAccount applies the restore semantics: deleted accounts referenced
// again by code come back, inactive system-owned accounts reactivate, and
// inactive manual accounts do not resolve.
func (s *Service) resolveAccount(ctx context.Context, tx TxRepository, tenantID uuid.UUID, code string) (accounts.Account, error) {
	account, err := tx.ResolveAccountForPosting(ctx, tenantID, code)
	if err != nil {
		return accounts.Account{}, err
	}
	switch account.Status {
	case accounts.StatusActive:
		return account, nil
	case accounts.StatusDeleted:
		if err := tx.SetAccountStatus(ctx, tenantID, account.ID, accounts.StatusActive); err != nil {
			return accounts.Account{}, err
		}
		account.Status = accounts.StatusActive
		return account, nil
	case accounts.StatusInactive:
		if account.IsSystemAccount || account.Origin == accounts.OriginSystem {
			if err := tx.SetAccountStatus(ctx, tenantID, account.ID, accounts.StatusActive); err != nil {
				return accounts.Account{}, err
			}
			account.Status = accounts.StatusActive
			return account, nil
		}
	}
	return accounts.Account{}, shared.ErrAccountNotFound
}

// Reverse posts a mirror-image entry and marks the original reversed, all
// in one transaction.
func (s *Service) Reverse(ctx context.Context, input ReverseInput) (JournalEntry, error) {
	if err := input.Validate(); err != nil {
		return JournalEntry{}, err
	}
	var reversal JournalEntry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		original, err := tx.GetEntryForUpdate(ctx, input.TenantID, input.EntryID)
		if err != nil {
			return err
		}
		switch original.Status {
		case EntryStatusPosted:
		case EntryStatusReversed:
			return shared.ErrAlreadyReversed
		default:
			return shared.ErrInvalidStatus
		}
		memo := input.Reason
		if memo == "" {
			memo = fmt.Sprintf("Reversal of %s", original.Number)
		}
		posting := PostingInput{
			TenantID:        input.TenantID,
			Date:            s.now(),
			ReferenceType:   original.ReferenceType,
			ReferenceID:     uuid.New(),
			ReferenceNumber: original.Number,
			Memo:            memo,
			CreatedBy:       input.ActorID,
			Lines:           reverseLines(original.Lines),
		}
		if err := posting.Validate(); err != nil {
			return err
		}
		originalID := original.ID
		inserted, err := s.postInTx(ctx, tx, posting, &originalID)
		if err != nil {
			return err
		}
		if err := tx.MarkReversed(ctx, input.TenantID, original.ID, inserted.ID); err != nil {
			return err
		}
		reversal = inserted
		return nil
	})
	if err != nil {
		return JournalEntry{}, err
	}
	s.record(ctx, input.TenantID, input.ActorID, "journal.reverse", input.EntryID, map[string]any{
		"reversal_id":     reversal.ID,
		"reversal_number": reversal.Number,
		"reason":          input.Reason,
	})
	return reversal, nil
}

func reverseLines(lines []JournalLine) []PostingLineInput {
	out := make([]PostingLineInput, 0, len(lines))
	for _, line := range lines {
		out = append(out, PostingLineInput{
			AccountCode: line.AccountCode,
			Debit:       line.Credit,
			Credit:      line.Debit,
			Description: line.Description,
		})
	}
	return out
}

func (s *Service) record(ctx context.Context, tenantID uuid.UUID, actorID int64, action string, entryID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, internalShared.AuditLog{
		TenantID: tenantID,
		ActorID:  actorID,
		Action:   action,
		Entity:   "journal_entry",
		EntityID: fmt.Sprintf("%d", entryID),
		Meta:     meta,
		At:       s.now(),
	})
}
