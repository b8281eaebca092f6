package journals

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/meridian-erp/meridian-erp/internal/accounting/shared"
)

// PostingLineInput describes a journal line for a posting request. Accounts
// are addressed by tenant-scoped code; the ledger resolves and snapshots them.
type PostingLineInput struct {
	AccountCode string
	Debit       float64
	Credit      float64
	Description string
}

// PostingInput groups fields required to post a journal entry.
type PostingInput struct {
	TenantID        uuid.UUID
	Date            time.Time
	ReferenceType   ReferenceType
	ReferenceID     uuid.UUID
	ReferenceNumber string
	Memo            string
	CreatedBy       int64
	Lines           []PostingLineInput
}

// Validate enforces the structural posting invariants: at least two lines,
// exactly one positive side per line, and balanced positive totals.
func (in *PostingInput) Validate() error {
	if in.TenantID == uuid.Nil {
		return errors.New("accounting: tenant required")
	}
	if in.ReferenceType == "" {
		return errors.New("accounting: reference type required")
	}
	if in.ReferenceID == uuid.Nil {
		return errors.New("accounting: reference id required")
	}
	if in.Date.IsZero() {
		in.Date = time.Now()
	}
	if len(in.Lines) < 2 {
		return shared.ErrTooFewLines
	}
	var debit, credit float64
	for idx := range in.Lines {
		line := &in.Lines[idx]
		line.AccountCode = strings.ToUpper(strings.TrimSpace(line.AccountCode))
		if line.AccountCode == "" {
			return fmt.Errorf("accounting: line %d missing account code", idx)
		}
		if line.Debit < 0 || line.Credit < 0 {
			return fmt.Errorf("accounting: line %d: %w", idx, shared.ErrInvalidLineAmount)
		}
		if (line.Debit > 0) == (line.Credit > 0) {
			return fmt.Errorf("accounting: line %d: %w", idx, shared.ErrInvalidLineAmount)
		}
		debit += line.Debit
		credit += line.Credit
	}
	debit = shared.Round2(debit)
	credit = shared.Round2(credit)
	if !shared.Balanced(debit, credit) {
		return shared.ErrUnbalanced
	}
	if debit <= 0 || credit <= 0 {
		return shared.ErrZeroAmount
	}
	return nil
}

// Totals returns the rounded debit and credit sums.
func (in PostingInput) Totals() (debit, credit float64) {
	for _, line := range in.Lines {
		debit += line.Debit
		credit += line.Credit
	}
	return shared.Round2(debit), shared.Round2(credit)
}

// ReverseInput wraps parameters for a reversal.
type ReverseInput struct {
	TenantID uuid.UUID
	EntryID  int64
	ActorID  int64
	Reason   string
}

// Validate checks reversal parameters.
func (in ReverseInput) Validate() error {
	if in.TenantID == uuid.Nil {
		return errors.New("accounting: tenant required")
	}
	if in.EntryID == 0 {
		return errors.New("accounting: entry id required")
	}
	return nil
}
