package journals

import (
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/meridian-erp/meridian-erp/internal/accounting/shared"
	_ "github.com/meridian-erp/meridian-erp/testing"
)

func TestSaleEventLines(t *testing.T) {
	event := SaleEvent{ReceivableCode: "1100", RevenueCode: "4010", TaxCode: "2100", Net: 100, Tax: 10}
	in, err := BuildPosting(uuid.New(), timeDate(2025, 3, 7), uuid.New(), "INV-42", "Invoice 42", 9, event)
	if err != nil {
		t.Fatalf("build posting: %v", err)
	}
	if in.ReferenceType != ReferenceSale {
		t.Fatalf("reference type = %s", in.ReferenceType)
	}
	if len(in.Lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(in.Lines))
	}
	debit, credit := in.Totals()
	if debit != 110 || credit != 110 {
		t.Fatalf("totals = %v/%v", debit, credit)
	}

	untaxed := SaleEvent{ReceivableCode: "1100", RevenueCode: "4010", Net: 50}
	lines, err := untaxed.BuildLines()
	if err != nil {
		t.Fatalf("untaxed sale: %v", err)
	}
	if len(lines) != 2 {
		t.Fatalf("untaxed sale should produce 2 lines, got %d", len(lines))
	}

	if _, err := (SaleEvent{ReceivableCode: "1100", RevenueCode: "4010"}).BuildLines(); !errors.Is(err, shared.ErrZeroAmount) {
		t.Fatalf("zero sale: expected ErrZeroAmount, got %v", err)
	}
	if _, err := (SaleEvent{ReceivableCode: "1100", RevenueCode: "4010", Net: 100, Tax: 10}).BuildLines(); err == nil {
		t.Fatal("taxed sale without a tax account should fail")
	}
}

func TestPaymentEventDirections(t *testing.T) {
	in := PaymentEvent{Direction: PaymentIn, CashCode: "1010", CounterpartyCode: "1100", Amount: 75}
	lines, err := in.BuildLines()
	if err != nil {
		t.Fatalf("payment in: %v", err)
	}
	if lines[0].AccountCode != "1010" || lines[0].Debit != 75 {
		t.Fatal("payment in should debit cash")
	}

	out := PaymentEvent{Direction: PaymentOut, CashCode: "1010", CounterpartyCode: "2010", Amount: 75}
	lines, err = out.BuildLines()
	if err != nil {
		t.Fatalf("payment out: %v", err)
	}
	if lines[1].AccountCode != "1010" || lines[1].Credit != 75 {
		t.Fatal("payment out should credit cash")
	}

	if _, err := (PaymentEvent{CashCode: "1010", CounterpartyCode: "2010", Amount: 75}).BuildLines(); err == nil {
		t.Fatal("missing direction should fail")
	}
}

func TestOpeningBalanceEventSides(t *testing.T) {
	debitSide := OpeningBalanceEvent{AccountCode: "1010", EquityCode: "3010", Amount: 500, DebitSide: true}
	lines, err := debitSide.BuildLines()
	if err != nil {
		t.Fatalf("opening balance: %v", err)
	}
	if lines[0].AccountCode != "1010" || lines[0].Debit != 500 {
		t.Fatal("debit-side opening should debit the account")
	}

	creditSide := OpeningBalanceEvent{AccountCode: "2010", EquityCode: "3010", Amount: 500}
	lines, err = creditSide.BuildLines()
	if err != nil {
		t.Fatalf("opening balance: %v", err)
	}
	if lines[1].AccountCode != "2010" || lines[1].Credit != 500 {
		t.Fatal("credit-side opening should credit the account")
	}
}
