package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type InvoiceStatus string

const (
	InvoiceStatusDraft InvoiceStatus = "draft"
	InvoiceStatusSent  InvoiceStatus = "sent"
	InvoiceStatusPaid  InvoiceStatus = "paid"
)

// InvoiceStatuses lists all recognized statuses; the first one is the
// default for new invoices.
var InvoiceStatuses = []InvoiceStatus{
	InvoiceStatusDraft,
	InvoiceStatusSent,
	InvoiceStatusPaid,
}

// InvoiceGrouping selects how worktimes are aggregated into positions.
type InvoiceGrouping string

const (
	GroupingAccountingPosts InvoiceGrouping = "accounting_posts"
	GroupingEmployees       InvoiceGrouping = "employees"
	GroupingManual          InvoiceGrouping = "manual"
)

// Invoice is a billing document for one order. Reference and
// InvoicingKey are unique; for non-manual grouping TotalHours and
// TotalAmount are fully derived from positions and never hand-edited.
type Invoice struct {
	ID               int64
	OrderID          int64
	BillingDate      time.Time
	DueDate          *time.Time
	TotalAmount      decimal.Decimal
	TotalHours       float64
	Reference        string
	PeriodFrom       time.Time
	PeriodTo         time.Time
	Status           InvoiceStatus
	AddVAT           bool
	BillingAddressID int64
	InvoicingKey     string
	Grouping         InvoiceGrouping

	// Filter sets: the work items and employees this invoice is
	// entitled to bill.
	WorkItemIDs []int64
	EmployeeIDs []int64

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (i *Invoice) String() string {
	return i.Reference
}

// Manual reports whether totals are entered by hand instead of derived.
func (i *Invoice) Manual() bool {
	return i.Grouping == GroupingManual
}

// SetDefaultStatus assigns the draft status if none is set yet.
func (i *Invoice) SetDefaultStatus() {
	if i.Status == "" {
		i.Status = InvoiceStatuses[0]
	}
}

// Title renders the invoice heading: the order name, suffixed with the
// contract number when one is defined.
func (i *Invoice) Title(order *Order, contract *Contract) string {
	title := order.Name
	if contract != nil && contract.Number != "" {
		title += fmt.Sprintf(" gemäss Vertrag %s", contract.Number)
	}
	return title
}

// Validate checks the invoice against its order, contract and billing
// address. All problems are accumulated; keyTaken signals that the
// invoicing key is already used by another invoice.
func (i *Invoice) Validate(order *Order, contract *Contract, address *BillingAddress, keyTaken bool) FieldErrors {
	errs := NewFieldErrors()

	if !i.PeriodTo.IsZero() && !i.PeriodFrom.IsZero() && i.PeriodTo.Before(i.PeriodFrom) {
		errs.Add("period_to", "muss nach von sein.")
	}

	if address != nil && order != nil && address.ClientID != order.ClientID {
		errs.Add("billing_address_id", "muss zum Auftragskunden gehören.")
	}

	if contract == nil {
		errs.Add("order_id", "muss einen definierten Vertrag haben.")
	}

	if !i.validStatus() {
		errs.Add("status", "ist kein gültiger Status.")
	}

	if i.InvoicingKey != "" && keyTaken {
		errs.Add("invoicing_key", "wird bereits verwendet.")
	}

	return errs
}

func (i *Invoice) validStatus() bool {
	for _, s := range InvoiceStatuses {
		if i.Status == s {
			return true
		}
	}
	return false
}
