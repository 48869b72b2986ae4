package repository

import (
	"context"
	"errors"
	"time"

	"github.com/andy/timebill/internal/domain"
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrMissingAccountingPost signals a data-integrity problem: a
	// billed work item has no accounting post. This should not occur
	// in a consistent system and aborts position building.
	ErrMissingAccountingPost = errors.New("work item has no accounting post")
)

// BillingFilter selects the worktimes an invoice is entitled to bill:
// billable ordertimes inside the period, restricted to the permitted
// work items and employees, that are unassigned or already owned by
// InvoiceID (0 for a not yet persisted invoice).
type BillingFilter struct {
	From        time.Time
	To          time.Time
	WorkItemIDs []int64
	EmployeeIDs []int64
	InvoiceID   int64
}

// FilterFor derives the billing filter of an invoice.
func FilterFor(inv *domain.Invoice) BillingFilter {
	return BillingFilter{
		From:        inv.PeriodFrom,
		To:          inv.PeriodTo,
		WorkItemIDs: inv.WorkItemIDs,
		EmployeeIDs: inv.EmployeeIDs,
		InvoiceID:   inv.ID,
	}
}

// WorkItemHours is a billable hours sum per work item.
type WorkItemHours struct {
	WorkItemID int64
	Hours      float64
}

// WorkItemEmployeeHours is a billable hours sum per (work item, employee).
type WorkItemEmployeeHours struct {
	WorkItemID int64
	EmployeeID int64
	Hours      float64
}

// ClientRepository manages client and billing address persistence.
type ClientRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Client, error)
	List(ctx context.Context) ([]*domain.Client, error)
	GetBillingAddress(ctx context.Context, id int64) (*domain.BillingAddress, error)
}

// OrderRepository reads orders and their contract and department.
type OrderRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Order, error)
	GetContract(ctx context.Context, id int64) (*domain.Contract, error)
	GetDepartment(ctx context.Context, id int64) (*domain.Department, error)
}

// EmployeeRepository reads employees.
type EmployeeRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Employee, error)
	List(ctx context.Context) ([]*domain.Employee, error)
}

// AccountingPostRepository reads the billing terms of work items.
type AccountingPostRepository interface {
	// GetByWorkItemID returns ErrMissingAccountingPost (wrapped) when
	// the work item has no post.
	GetByWorkItemID(ctx context.Context, workItemID int64) (*domain.AccountingPost, error)
}

// WorktimeRepository manages worktime persistence. The Sum methods are
// the billing read contract: grouped billable hours over a filter.
type WorktimeRepository interface {
	Create(ctx context.Context, w *domain.Worktime) error
	Update(ctx context.Context, w *domain.Worktime) error
	GetByID(ctx context.Context, id int64) (*domain.Worktime, error)
	List(ctx context.Context, employeeID *int64, from, to *time.Time) ([]*domain.Worktime, error)
	Delete(ctx context.Context, id int64) error

	// FindOpen returns the employee's open (started, not yet ended)
	// entry, or nil if none exists.
	FindOpen(ctx context.Context, employeeID int64) (*domain.Worktime, error)

	SumHoursByWorkItem(ctx context.Context, f BillingFilter) ([]WorkItemHours, error)
	SumHoursByWorkItemAndEmployee(ctx context.Context, f BillingFilter) ([]WorkItemEmployeeHours, error)
}

// InvoiceRepository covers the read side of invoices. All writes go
// through an InvoiceTx so that numbering, persistence and worktime
// assignment commit atomically.
type InvoiceRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Invoice, error)
	GetByReference(ctx context.Context, reference string) (*domain.Invoice, error)
	List(ctx context.Context, orderID *int64, status *domain.InvoiceStatus) ([]*domain.Invoice, error)

	// InvoicingKeyTaken reports whether another invoice (excluding
	// excludeID) already uses the given external invoicing key.
	InvoicingKeyTaken(ctx context.Context, key string, excludeID int64) (bool, error)
}

// AbsenceRepository manages absence records. Delete refuses the
// built-in vacation absence with domain.ErrProtectedRecord.
type AbsenceRepository interface {
	Create(ctx context.Context, a *domain.Absence) error
	GetByID(ctx context.Context, id int64) (*domain.Absence, error)
	List(ctx context.Context) ([]*domain.Absence, error)
	Delete(ctx context.Context, id int64) error
}

// UnitOfWork begins write transactions for the invoice lifecycle.
// Begin acquires the database write lock immediately, so the client
// counter read inside the transaction is exclusive.
type UnitOfWork interface {
	Begin(ctx context.Context) (InvoiceTx, error)
}

// InvoiceTx is one atomic invoice mutation. Nothing is visible until
// Commit; Rollback after Commit is a no-op.
type InvoiceTx interface {
	// ClientSequence reads the client's last_invoice_number under the
	// transaction's exclusive lock.
	ClientSequence(ctx context.Context, clientID int64) (int64, error)

	// IncrementClientSequence advances last_invoice_number by exactly
	// one. It is the only client mutation the billing engine performs.
	IncrementClientSequence(ctx context.Context, clientID int64) error

	CreateInvoice(ctx context.Context, inv *domain.Invoice) error
	UpdateInvoice(ctx context.Context, inv *domain.Invoice) error
	DeleteInvoice(ctx context.Context, id int64) error

	// AssignWorktimes stamps every worktime matched by the filter with
	// the invoice's id and releases previously stamped rows that no
	// longer match. Re-running it for an unchanged invoice reproduces
	// the same stamped set.
	AssignWorktimes(ctx context.Context, invoiceID int64, f BillingFilter) error

	// ReleaseWorktimes nullifies the invoice reference of all
	// worktimes owned by the invoice (used on destroy).
	ReleaseWorktimes(ctx context.Context, invoiceID int64) error

	Commit() error
	Rollback() error
}
