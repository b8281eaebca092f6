package httpx

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/meridian-erp/meridian-erp/internal/accounting/shared"
	internalShared "github.com/meridian-erp/meridian-erp/internal/shared"
)

// notFound lists domain errors that map to 404.
var notFound = []error{
	shared.ErrAccountNotFound,
	shared.ErrJournalNotFound,
	shared.ErrPeriodNotFound,
	internalShared.ErrNotFound,
}

// conflict lists domain errors that map to 409.
var conflict = []error{
	shared.ErrDuplicateCode,
	shared.ErrCodeGenerationConflict,
	shared.ErrSourceAlreadyPosted,
	shared.ErrAlreadyReversed,
	shared.ErrAlreadyLocked,
	shared.ErrReconciliationLocked,
	shared.ErrInvalidStatus,
	shared.ErrInvalidPeriodTransition,
	internalShared.ErrLockNotAcquired,
}

// unprocessable lists rule violations that map to 422.
var unprocessable = []error{
	shared.ErrTooFewLines,
	shared.ErrUnbalanced,
	shared.ErrZeroAmount,
	shared.ErrInvalidLineAmount,
	shared.ErrParentPostingDenied,
	shared.ErrPeriodClosed,
	shared.ErrBeforeReconciledDate,
	shared.ErrHasSubaccounts,
	shared.ErrNonZeroBalance,
	shared.ErrHasChildrenCannotPost,
	shared.ErrParentNotSummary,
	shared.ErrParentDepthExceeded,
	shared.ErrCodeRangeExhausted,
	shared.ErrYearNotClosable,
	shared.ErrNotLocked,
}

func matchesAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// RespondError maps domain errors to HTTP responses using RFC7807.
func RespondError(w http.ResponseWriter, err error) {
	var validationErrs validator.ValidationErrors
	switch {
	case matchesAny(err, notFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case matchesAny(err, conflict):
		Problem(w, http.StatusConflict, "Conflict", err.Error())
	case matchesAny(err, unprocessable):
		Problem(w, http.StatusUnprocessableEntity, "Rule Violation", err.Error())
	case errors.Is(err, shared.ErrProtectedAccount), errors.Is(err, shared.ErrNotLockOwner):
		Problem(w, http.StatusForbidden, "Forbidden", err.Error())
	case errors.Is(err, internalShared.ErrMissingScope):
		Problem(w, http.StatusUnauthorized, "Unauthorized", err.Error())
	case errors.As(err, &validationErrs):
		Problem(w, http.StatusBadRequest, "Validation Failed", validationErrs.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
