package accounts

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/meridian-erp/meridian-erp/internal/accounting/shared"
)

// codeRange is the numeric window allocated to an account type.
type codeRange struct {
	start int64
	end   int64
}

var codeRanges = map[AccountType]codeRange{
	AccountTypeAsset:     {1000, 1999},
	AccountTypeLiability: {2000, 2999},
	AccountTypeEquity:    {3000, 3999},
	AccountTypeRevenue:   {4000, 4999},
	AccountTypeExpense:   {5000, 5999},
}

// fallbackRange covers anything outside the five standard classifications.
var fallbackRange = codeRange{9000, 9999}

func rangeFor(t AccountType) codeRange {
	if r, ok := codeRanges[t]; ok {
		return r
	}
	return fallbackRange
}

// generateCode allocates the next free code inside an open transaction. A
// collision with an externally inserted account is retried exactly once; a
// second collision signals systemic corruption and is surfaced, not masked.
func generateCode(ctx context.Context, tx TxRepository, tenantID uuid.UUID, accountType AccountType) (string, error) {
	rng := rangeFor(accountType)
	for attempt := 0; attempt < 2; attempt++ {
		counter, err := tx.NextCounter(ctx, tenantID, accountType)
		if err != nil {
			return "", err
		}
		code := rng.start + counter
		if code > rng.end {
			return "", shared.ErrCodeRangeExhausted
		}
		formatted := fmt.Sprintf("%d", code)
		taken, err := tx.ActiveCodeExists(ctx, tenantID, formatted)
		if err != nil {
			return "", err
		}
		if !taken {
			return formatted, nil
		}
	}
	return "", shared.ErrCodeGenerationConflict
}
