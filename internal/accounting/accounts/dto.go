package accounts

import (
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/meridian-erp/meridian-erp/internal/accounting/shared"
)

// CreateInput groups fields required to create a chart of accounts node.
// Code may be left empty to have a range-scoped code generated.
type CreateInput struct {
	TenantID           uuid.UUID
	Code               string
	Name               string
	Type               AccountType
	Category           string
	NormalBalance      NormalBalance
	ParentID           *int64
	AllowDirectPosting bool
	IsSystemAccount    bool
	IsProtected        bool
	Origin             AccountOrigin
	OpeningBalance     float64
	ActorID            int64
}

// Validate checks structural requirements before touching the database.
func (in *CreateInput) Validate() error {
	if in.TenantID == uuid.Nil {
		return errors.New("accounting: tenant required")
	}
	if strings.TrimSpace(in.Name) == "" {
		return errors.New("accounting: account name required")
	}
	if !in.Type.Valid() {
		return errors.New("accounting: unknown account type")
	}
	in.Code = strings.ToUpper(strings.TrimSpace(in.Code))
	if in.NormalBalance == "" {
		in.NormalBalance = NormalBalanceFor(in.Type)
	}
	if in.NormalBalance != NormalBalanceDebit && in.NormalBalance != NormalBalanceCredit {
		return errors.New("accounting: unknown normal balance")
	}
	if in.Origin == "" {
		in.Origin = OriginManual
	}
	return nil
}

// UpdateInput carries mutable account fields. Nil pointers leave the field unchanged.
type UpdateInput struct {
	TenantID           uuid.UUID
	AccountID          int64
	Name               *string
	Category           *string
	AllowDirectPosting *bool
	// Elevated permits mutation of system/protected accounts.
	Elevated bool
	ActorID  int64
}

// Validate checks update preconditions that do not need database state.
func (in UpdateInput) Validate() error {
	if in.TenantID == uuid.Nil {
		return errors.New("accounting: tenant required")
	}
	if in.AccountID == 0 {
		return shared.ErrAccountNotFound
	}
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		return errors.New("accounting: account name required")
	}
	return nil
}

// DeleteInput carries parameters for a soft delete.
type DeleteInput struct {
	TenantID  uuid.UUID
	AccountID int64
	Elevated  bool
	ActorID   int64
}
