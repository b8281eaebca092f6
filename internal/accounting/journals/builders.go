package journals

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/meridian-erp/meridian-erp/internal/accounting/shared"
)

// LineSource is implemented by each business event type that produces ledger
// lines. All builders funnel into the single Post entry point so the
// invariant checks live in one place regardless of how many event types exist.
type LineSource interface {
	ReferenceType() ReferenceType
	BuildLines() ([]PostingLineInput, error)
}

// BuildPosting assembles a PostingInput from a business event.
func BuildPosting(tenantID uuid.UUID, date time.Time, refID uuid.UUID, refNumber, memo string, createdBy int64, src LineSource) (PostingInput, error) {
	lines, err := src.BuildLines()
	if err != nil {
		return PostingInput{}, err
	}
	in := PostingInput{
		TenantID:        tenantID,
		Date:            date,
		ReferenceType:   src.ReferenceType(),
		ReferenceID:     refID,
		ReferenceNumber: refNumber,
		Memo:            memo,
		CreatedBy:       createdBy,
		Lines:           lines,
	}
	if err := in.Validate(); err != nil {
		return PostingInput{}, err
	}
	return in, nil
}

// SaleEvent recognises revenue: debit receivable for the gross amount,
// credit revenue for the net and tax payable for the tax portion.
type SaleEvent struct {
	ReceivableCode string
	RevenueCode    string
	TaxCode        string
	Net            float64
	Tax            float64
}

func (e SaleEvent) ReferenceType() ReferenceType { return ReferenceSale }

func (e SaleEvent) BuildLines() ([]PostingLineInput, error) {
	if e.Net <= 0 {
		return nil, shared.ErrZeroAmount
	}
	lines := []PostingLineInput{
		{AccountCode: e.ReceivableCode, Debit: shared.Round2(e.Net + e.Tax), Description: "Customer receivable"},
		{AccountCode: e.RevenueCode, Credit: shared.Round2(e.Net), Description: "Sales revenue"},
	}
	if e.Tax > 0 {
		if e.TaxCode == "" {
			return nil, errors.New("accounting: tax account required for taxed sale")
		}
		lines = append(lines, PostingLineInput{AccountCode: e.TaxCode, Credit: shared.Round2(e.Tax), Description: "Tax payable"})
	}
	return lines, nil
}

// PurchaseEvent records inventory or expense acquisition against payables.
type PurchaseEvent struct {
	AssetCode   string
	PayableCode string
	Amount      float64
}

func (e PurchaseEvent) ReferenceType() ReferenceType { return ReferencePurchase }

func (e PurchaseEvent) BuildLines() ([]PostingLineInput, error) {
	if e.Amount <= 0 {
		return nil, shared.ErrZeroAmount
	}
	return []PostingLineInput{
		{AccountCode: e.AssetCode, Debit: shared.Round2(e.Amount), Description: "Purchase"},
		{AccountCode: e.PayableCode, Credit: shared.Round2(e.Amount), Description: "Supplier payable"},
	}, nil
}

// PaymentDirection distinguishes money received from money paid out.
type PaymentDirection string

const (
	PaymentIn  PaymentDirection = "IN"
	PaymentOut PaymentDirection = "OUT"
)

// PaymentEvent settles a receivable or payable through a cash account.
type PaymentEvent struct {
	Direction        PaymentDirection
	CashCode         string
	CounterpartyCode string
	Amount           float64
}

func (e PaymentEvent) ReferenceType() ReferenceType { return ReferencePayment }

func (e PaymentEvent) BuildLines() ([]PostingLineInput, error) {
	if e.Amount <= 0 {
		return nil, shared.ErrZeroAmount
	}
	amount := shared.Round2(e.Amount)
	switch e.Direction {
	case PaymentIn:
		return []PostingLineInput{
			{AccountCode: e.CashCode, Debit: amount, Description: "Payment received"},
			{AccountCode: e.CounterpartyCode, Credit: amount, Description: "Receivable settled"},
		}, nil
	case PaymentOut:
		return []PostingLineInput{
			{AccountCode: e.CounterpartyCode, Debit: amount, Description: "Payable settled"},
			{AccountCode: e.CashCode, Credit: amount, Description: "Payment made"},
		}, nil
	default:
		return nil, errors.New("accounting: unknown payment direction")
	}
}

// ExpenseEvent records an operating expense paid from cash.
type ExpenseEvent struct {
	ExpenseCode string
	CashCode    string
	Amount      float64
}

func (e ExpenseEvent) ReferenceType() ReferenceType { return ReferenceExpense }

func (e ExpenseEvent) BuildLines() ([]PostingLineInput, error) {
	if e.Amount <= 0 {
		return nil, shared.ErrZeroAmount
	}
	return []PostingLineInput{
		{AccountCode: e.ExpenseCode, Debit: shared.Round2(e.Amount), Description: "Expense"},
		{AccountCode: e.CashCode, Credit: shared.Round2(e.Amount), Description: "Cash"},
	}, nil
}

// OpeningBalanceEvent seeds an account's opening balance against equity.
type OpeningBalanceEvent struct {
	AccountCode string
	EquityCode  string
	// Amount is positive on the account's normal side.
	Amount    float64
	DebitSide bool
}

func (e OpeningBalanceEvent) ReferenceType() ReferenceType { return ReferenceOpeningBalance }

func (e OpeningBalanceEvent) BuildLines() ([]PostingLineInput, error) {
	if e.Amount <= 0 {
		return nil, shared.ErrZeroAmount
	}
	amount := shared.Round2(e.Amount)
	if e.DebitSide {
		return []PostingLineInput{
			{AccountCode: e.AccountCode, Debit: amount, Description: "Opening balance"},
			{AccountCode: e.EquityCode, Credit: amount, Description: "Opening balance equity"},
		}, nil
	}
	return []PostingLineInput{
		{AccountCode: e.EquityCode, Debit: amount, Description: "Opening balance equity"},
		{AccountCode: e.AccountCode, Credit: amount, Description: "Opening balance"},
	}, nil
}
