package shared

import "errors"

var (
	// ErrTooFewLines indicates fewer than two journal lines.
	ErrTooFewLines = errors.New("accounting: journal requires at least two lines")
	// ErrUnbalanced indicates total debit != total credit beyond tolerance.
	ErrUnbalanced = errors.New("accounting: journal lines must balance")
	// ErrZeroAmount indicates journal totals are not positive.
	ErrZeroAmount = errors.New("accounting: journal totals must be greater than zero")
	// ErrInvalidLineAmount indicates a line without exactly one positive side.
	ErrInvalidLineAmount = errors.New("accounting: line requires exactly one of debit or credit")
	// ErrAccountNotFound indicates no account resolves for a tenant/code pair.
	ErrAccountNotFound = errors.New("accounting: account not found")
	// ErrParentPostingDenied indicates a summary account used on a journal line.
	ErrParentPostingDenied = errors.New("accounting: summary accounts cannot receive direct postings")
	// ErrPeriodClosed indicates the entry date falls in a locked or closed period.
	ErrPeriodClosed = errors.New("accounting: period is locked or closed")
	// ErrPeriodNotFound indicates no fiscal period covers the date.
	ErrPeriodNotFound = errors.New("accounting: no fiscal period covers the date")
	// ErrReconciliationLocked indicates the account is under an active reconciliation lock.
	ErrReconciliationLocked = errors.New("accounting: account locked for reconciliation")
	// ErrBeforeReconciledDate indicates the entry date predates the reconciled watermark.
	ErrBeforeReconciledDate = errors.New("accounting: entry date precedes reconciled boundary")
	// ErrAlreadyLocked indicates another user holds an unexpired reconciliation lock.
	ErrAlreadyLocked = errors.New("accounting: account already locked by another user")
	// ErrNotLockOwner indicates an unlock attempt by a non-owner.
	ErrNotLockOwner = errors.New("accounting: reconciliation lock held by another user")
	// ErrNotLocked indicates a release attempt with no active lock.
	ErrNotLocked = errors.New("accounting: account is not locked")
	// ErrProtectedAccount indicates a system/protected account mutation without elevation.
	ErrProtectedAccount = errors.New("accounting: account is protected")
	// ErrHasSubaccounts indicates deletion of an account with active children.
	ErrHasSubaccounts = errors.New("accounting: account has active sub-accounts")
	// ErrNonZeroBalance indicates deletion of an account with a non-zero balance.
	ErrNonZeroBalance = errors.New("accounting: account balance must be zero")
	// ErrHasChildrenCannotPost indicates enabling direct posting on a parent.
	ErrHasChildrenCannotPost = errors.New("accounting: account with children cannot allow direct posting")
	// ErrParentNotSummary indicates a parent that allows direct posting.
	ErrParentNotSummary = errors.New("accounting: parent account must be summary-only")
	// ErrParentDepthExceeded indicates the hierarchy would exceed the maximum depth.
	ErrParentDepthExceeded = errors.New("accounting: account hierarchy depth exceeded")
	// ErrDuplicateCode indicates an account code already in use for the tenant.
	ErrDuplicateCode = errors.New("accounting: account code already exists")
	// ErrCodeRangeExhausted indicates the numeric range for the type is spent.
	ErrCodeRangeExhausted = errors.New("accounting: account code range exhausted")
	// ErrCodeGenerationConflict indicates a collision persisted after the single retry.
	ErrCodeGenerationConflict = errors.New("accounting: code generation conflict, manual intervention required")
	// ErrJournalNotFound indicates a missing journal entry.
	ErrJournalNotFound = errors.New("accounting: journal entry not found")
	// ErrAlreadyReversed indicates a reversal of a reversed entry.
	ErrAlreadyReversed = errors.New("accounting: journal entry already reversed")
	// ErrInvalidStatus indicates a status transition outside the state machine.
	ErrInvalidStatus = errors.New("accounting: invalid status transition")
	// ErrSourceAlreadyPosted indicates the source document already produced an entry.
	ErrSourceAlreadyPosted = errors.New("accounting: source already posted")
	// ErrInvalidPeriodTransition indicates a period status change not allowed.
	ErrInvalidPeriodTransition = errors.New("accounting: period transition invalid")
	// ErrYearNotClosable indicates open periods remain in the fiscal year.
	ErrYearNotClosable = errors.New("accounting: all periods must be closed before closing the year")
)
