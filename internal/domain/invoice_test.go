package domain

import (
	"testing"
	"time"
)

func contractID(id int64) *int64 { return &id }

func TestSetDefaultStatus(t *testing.T) {
	inv := &Invoice{}
	inv.SetDefaultStatus()
	if inv.Status != InvoiceStatusDraft {
		t.Errorf("expected draft, got %s", inv.Status)
	}

	inv.Status = InvoiceStatusPaid
	inv.SetDefaultStatus()
	if inv.Status != InvoiceStatusPaid {
		t.Errorf("an assigned status must be kept, got %s", inv.Status)
	}
}

func TestTitle(t *testing.T) {
	inv := &Invoice{}
	order := &Order{Name: "Webshop"}

	if got := inv.Title(order, nil); got != "Webshop" {
		t.Errorf("unexpected title: %q", got)
	}
	if got := inv.Title(order, &Contract{Number: "V-17"}); got != "Webshop gemäss Vertrag V-17" {
		t.Errorf("unexpected title: %q", got)
	}
	if got := inv.Title(order, &Contract{}); got != "Webshop" {
		t.Errorf("a contract without number must not change the title, got %q", got)
	}
}

func validInvoice() *Invoice {
	return &Invoice{
		OrderID:     1,
		Status:      InvoiceStatusDraft,
		PeriodFrom:  time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		PeriodTo:    time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC),
		BillingDate: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestValidateValid(t *testing.T) {
	inv := validInvoice()
	order := &Order{ID: 1, ClientID: 3, ContractID: contractID(5)}
	contract := &Contract{ID: 5, PaymentPeriod: 30}
	address := &BillingAddress{ClientID: 3}

	if errs := inv.Validate(order, contract, address, false); !errs.Empty() {
		t.Errorf("expected valid, got %v", errs)
	}
}

func TestValidateAccumulatesAllErrors(t *testing.T) {
	inv := validInvoice()
	inv.PeriodTo = inv.PeriodFrom.AddDate(0, 0, -1)
	inv.Status = "bogus"
	inv.InvoicingKey = "abc"
	order := &Order{ID: 1, ClientID: 3}
	address := &BillingAddress{ClientID: 4}

	errs := inv.Validate(order, nil, address, true)

	if got := errs.On("period_to"); len(got) != 1 || got[0] != "muss nach von sein." {
		t.Errorf("unexpected period errors: %v", got)
	}
	if got := errs.On("billing_address_id"); len(got) != 1 || got[0] != "muss zum Auftragskunden gehören." {
		t.Errorf("unexpected address errors: %v", got)
	}
	if got := errs.On("order_id"); len(got) != 1 || got[0] != "muss einen definierten Vertrag haben." {
		t.Errorf("unexpected contract errors: %v", got)
	}
	if got := errs.On("status"); len(got) != 1 || got[0] != "ist kein gültiger Status." {
		t.Errorf("unexpected status errors: %v", got)
	}
	if got := errs.On("invoicing_key"); len(got) != 1 || got[0] != "wird bereits verwendet." {
		t.Errorf("unexpected key errors: %v", got)
	}
}

func TestValidateKeyOnlyCheckedWhenSet(t *testing.T) {
	inv := validInvoice()
	order := &Order{ID: 1, ClientID: 3}
	contract := &Contract{ID: 5}

	errs := inv.Validate(order, contract, nil, true)
	if len(errs.On("invoicing_key")) != 0 {
		t.Errorf("an empty key must never be rejected, got %v", errs)
	}
}

func TestFieldErrorsRendering(t *testing.T) {
	errs := NewFieldErrors()
	errs.Add("status", "ist kein gültiger Status.")
	errs.AddBase("Invoicing Service Error: boom")

	want := "Invoicing Service Error: boom; status: ist kein gültiger Status."
	if got := errs.Error(); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}

	if !NewFieldErrors().Empty() {
		t.Error("a fresh FieldErrors must be empty")
	}
}
