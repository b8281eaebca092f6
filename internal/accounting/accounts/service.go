package accounts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/meridian-erp/meridian-erp/internal/accounting/shared"
	internalShared "github.com/meridian-erp/meridian-erp/internal/shared"
)

// AuditPort records chart-of-accounts mutations.
type AuditPort interface {
	Record(ctx context.Context, log internalShared.AuditLog) error
}

// BalancePort computes a fresh ledger-derived balance. Deletion must not
// trust the cached balance on the account row.
type BalancePort interface {
	Calculate(ctx context.Context, tenantID uuid.UUID, accountID int64) (float64, error)
}

// Service owns chart of accounts rules: hierarchy, protection, code
// generation, and the soft-delete lifecycle.
type Service struct {
	repo     Repository
	balances BalancePort
	audit    AuditPort
	logger   *slog.Logger
	now      func() time.Time
}

// NewService constructs the accounts service.
func NewService(repo Repository, balances BalancePort, audit AuditPort, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, balances: balances, audit: audit, logger: logger, now: time.Now}
}

// WithNow overrides the clock for deterministic tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Get loads one account regardless of lifecycle status.
func (s *Service) Get(ctx context.Context, tenantID uuid.UUID, accountID int64) (Account, error) {
	return s.repo.Get(ctx, tenantID, accountID)
}

// GetByCode loads one account by its tenant-scoped code.
func (s *Service) GetByCode(ctx context.Context, tenantID uuid.UUID, code string) (Account, error) {
	return s.repo.GetByCode(ctx, tenantID, code)
}

// ListActive returns the active accounts ordered by code.
func (s *Service) ListActive(ctx context.Context, tenantID uuid.UUID) ([]Account, error) {
	return s.repo.ListActive(ctx, tenantID)
}

// Tree returns root accounts with nested children, sorted by code.
func (s *Service) Tree(ctx context.Context, tenantID uuid.UUID) ([]*Node, error) {
	active, err := s.repo.ListActive(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return BuildTree(active), nil
}

// Create inserts a new account after validating hierarchy and code rules.
func (s *Service) Create(ctx context.Context, in CreateInput) (Account, error) {
	if err := in.Validate(); err != nil {
		return Account{}, err
	}
	var created Account
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		level := int16(0)
		if in.ParentID != nil {
			parent, err := tx.GetForUpdate(ctx, in.TenantID, *in.ParentID)
			if err != nil {
				return err
			}
			if parent.Deleted() {
				return shared.ErrAccountNotFound
			}
			if parent.AllowDirectPosting {
				return shared.ErrParentNotSummary
			}
			level = parent.Level + 1
			if level > MaxHierarchyDepth {
				return shared.ErrParentDepthExceeded
			}
		}
		code := in.Code
		if code == "" {
			generated, err := generateCode(ctx, tx, in.TenantID, in.Type)
			if err != nil {
				s.logCodeGenFailure(err, in.TenantID, in.Type)
				return err
			}
			code = generated
		} else {
			taken, err := tx.ActiveCodeExists(ctx, in.TenantID, code)
			if err != nil {
				return err
			}
			if taken {
				return shared.ErrDuplicateCode
			}
		}
		account := Account{
			TenantID:           in.TenantID,
			Code:               code,
			Name:               in.Name,
			Type:               in.Type,
			Category:           in.Category,
			NormalBalance:      in.NormalBalance,
			ParentID:           in.ParentID,
			Level:              level,
			AllowDirectPosting: in.AllowDirectPosting,
			IsSystemAccount:    in.IsSystemAccount,
			IsProtected:        in.IsProtected,
			Origin:             in.Origin,
			Status:             StatusActive,
			OpeningBalance:     in.OpeningBalance,
		}
		inserted, err := tx.Insert(ctx, account)
		if err != nil {
			return err
		}
		created = inserted
		return nil
	})
	if err != nil {
		return Account{}, err
	}
	s.record(ctx, in.TenantID, in.ActorID, "account.create", created.ID, map[string]any{"code": created.Code})
	return created, nil
}

// Update applies mutable fields, enforcing protection and hierarchy rules.
func (s *Service) Update(ctx context.Context, in UpdateInput) (Account, error) {
	if err := in.Validate(); err != nil {
		return Account{}, err
	}
	var updated Account
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		account, err := tx.GetForUpdate(ctx, in.TenantID, in.AccountID)
		if err != nil {
			return err
		}
		if account.Deleted() {
			return shared.ErrAccountNotFound
		}
		if account.Protected() && !in.Elevated {
			return shared.ErrProtectedAccount
		}
		if in.AllowDirectPosting != nil && *in.AllowDirectPosting && !account.AllowDirectPosting {
			children, err := tx.HasActiveChildren(ctx, in.TenantID, account.ID)
			if err != nil {
				return err
			}
			if children {
				return shared.ErrHasChildrenCannotPost
			}
		}
		if in.Name != nil {
			account.Name = *in.Name
		}
		if in.Category != nil {
			account.Category = *in.Category
		}
		if in.AllowDirectPosting != nil {
			account.AllowDirectPosting = *in.AllowDirectPosting
		}
		if err := tx.Update(ctx, account); err != nil {
			return err
		}
		updated = account
		return nil
	})
	if err != nil {
		return Account{}, err
	}
	s.record(ctx, in.TenantID, in.ActorID, "account.update", updated.ID, map[string]any{"code": updated.Code})
	return updated, nil
}

// Delete soft-deletes an account. The balance check reads the ledger, never
// the cache.
func (s *Service) Delete(ctx context.Context, in DeleteInput) error {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		account, err := tx.GetForUpdate(ctx, in.TenantID, in.AccountID)
		if err != nil {
			return err
		}
		if account.Deleted() {
			return shared.ErrAccountNotFound
		}
		if account.Protected() && !in.Elevated {
			return shared.ErrProtectedAccount
		}
		children, err := tx.HasActiveChildren(ctx, in.TenantID, account.ID)
		if err != nil {
			return err
		}
		if children {
			return shared.ErrHasSubaccounts
		}
		if s.balances != nil {
			balance, err := s.balances.Calculate(ctx, in.TenantID, account.ID)
			if err != nil {
				return err
			}
			if balance != 0 {
				return shared.ErrNonZeroBalance
			}
		}
		return tx.SoftDelete(ctx, in.TenantID, account.ID, in.ActorID, s.now())
	})
	if err != nil {
		return err
	}
	s.record(ctx, in.TenantID, in.ActorID, "account.delete", in.AccountID, nil)
	return nil
}

// Restore brings a soft-deleted account back to active.
func (s *Service) Restore(ctx context.Context, tenantID uuid.UUID, accountID, actorID int64) (Account, error) {
	var restored Account
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		account, err := tx.GetForUpdate(ctx, tenantID, accountID)
		if err != nil {
			return err
		}
		if !account.Deleted() {
			return shared.ErrInvalidStatus
		}
		account.Status = StatusActive
		if err := tx.Update(ctx, account); err != nil {
			return err
		}
		restored = account
		return nil
	})
	if err != nil {
		return Account{}, err
	}
	s.record(ctx, tenantID, actorID, "account.restore", restored.ID, map[string]any{"code": restored.Code})
	return restored, nil
}

// GenerateCode allocates a code as its own atomic unit, outside any larger flow.
func (s *Service) GenerateCode(ctx context.Context, tenantID uuid.UUID, accountType AccountType) (string, error) {
	var code string
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		generated, err := generateCode(ctx, tx, tenantID, accountType)
		if err != nil {
			return err
		}
		code = generated
		return nil
	})
	if err != nil {
		s.logCodeGenFailure(err, tenantID, accountType)
		return "", err
	}
	return code, nil
}

// logCodeGenFailure escalates the operational failures that warrant operator
// attention; validation-style errors pass through silently.
func (s *Service) logCodeGenFailure(err error, tenantID uuid.UUID, accountType AccountType) {
	if errors.Is(err, shared.ErrCodeGenerationConflict) || errors.Is(err, shared.ErrCodeRangeExhausted) {
		s.logger.Error("account code generation failed",
			slog.String("tenant", tenantID.String()),
			slog.String("account_type", string(accountType)),
			slog.Any("error", err))
	}
}

func (s *Service) record(ctx context.Context, tenantID uuid.UUID, actorID int64, action string, accountID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, internalShared.AuditLog{
		TenantID: tenantID,
		ActorID:  actorID,
		Action:   action,
		Entity:   "account",
		EntityID: fmt.Sprintf("%d", accountID),
		Meta:     meta,
		At:       s.now(),
	})
}
