package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/andy/timebill/internal/db"
	"github.com/andy/timebill/internal/domain"
)

// InvoiceRepo is a SQLite implementation of InvoiceRepository
type InvoiceRepo struct {
	db *db.DB
}

// NewInvoiceRepo creates a new InvoiceRepo
func NewInvoiceRepo(database *db.DB) *InvoiceRepo {
	return &InvoiceRepo{db: database}
}

const invoiceColumns = `id, order_id, billing_date, due_date, total_amount, total_hours,
	reference, period_from, period_to, status, add_vat, billing_address_id,
	invoicing_key, grouping, created_at, updated_at`

// GetByID retrieves an invoice by ID, including its filter sets
func (r *InvoiceRepo) GetByID(ctx context.Context, id int64) (*domain.Invoice, error) {
	query := "SELECT " + invoiceColumns + " FROM invoices WHERE id = ?"

	invoice, err := scanInvoice(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("invoice %d: %w", id, ErrNotFound)
		}
		return nil, err
	}

	if err := r.loadFilterSets(ctx, invoice); err != nil {
		return nil, err
	}
	return invoice, nil
}

// GetByReference retrieves an invoice by its reference string
func (r *InvoiceRepo) GetByReference(ctx context.Context, reference string) (*domain.Invoice, error) {
	query := "SELECT " + invoiceColumns + " FROM invoices WHERE reference = ?"

	invoice, err := scanInvoice(r.db.QueryRowContext(ctx, query, reference))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("invoice %q: %w", reference, ErrNotFound)
		}
		return nil, err
	}

	if err := r.loadFilterSets(ctx, invoice); err != nil {
		return nil, err
	}
	return invoice, nil
}

// List retrieves invoices with optional order and status filters
func (r *InvoiceRepo) List(ctx context.Context, orderID *int64, status *domain.InvoiceStatus) ([]*domain.Invoice, error) {
	query := "SELECT " + invoiceColumns + " FROM invoices WHERE 1=1"
	args := make([]interface{}, 0)

	if orderID != nil {
		query += " AND order_id = ?"
		args = append(args, *orderID)
	}
	if status != nil {
		query += " AND status = ?"
		args = append(args, string(*status))
	}

	query += " ORDER BY billing_date DESC, id DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}
	defer rows.Close()

	invoices := make([]*domain.Invoice, 0)
	for rows.Next() {
		invoice, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, invoice)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating invoices: %w", err)
	}

	return invoices, nil
}

// InvoicingKeyTaken reports whether another invoice uses the key
func (r *InvoiceRepo) InvoicingKeyTaken(ctx context.Context, key string, excludeID int64) (bool, error) {
	query := "SELECT COUNT(*) FROM invoices WHERE invoicing_key = ? AND id != ?"

	var count int
	if err := r.db.QueryRowContext(ctx, query, key, excludeID).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check invoicing key: %w", err)
	}
	return count > 0, nil
}

func (r *InvoiceRepo) loadFilterSets(ctx context.Context, invoice *domain.Invoice) error {
	var err error
	invoice.WorkItemIDs, err = r.filterIDs(ctx,
		"SELECT work_item_id FROM invoices_work_items WHERE invoice_id = ? ORDER BY work_item_id", invoice.ID)
	if err != nil {
		return fmt.Errorf("failed to load invoice work items: %w", err)
	}
	invoice.EmployeeIDs, err = r.filterIDs(ctx,
		"SELECT employee_id FROM invoices_employees WHERE invoice_id = ? ORDER BY employee_id", invoice.ID)
	if err != nil {
		return fmt.Errorf("failed to load invoice employees: %w", err)
	}
	return nil
}

func (r *InvoiceRepo) filterIDs(ctx context.Context, query string, invoiceID int64) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, query, invoiceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func scanInvoice(row rowScanner) (*domain.Invoice, error) {
	invoice := &domain.Invoice{}
	var billingDate, periodFrom, periodTo, status, grouping, totalAmount string
	var dueDate, invoicingKey sql.NullString
	var createdAt, updatedAt string

	err := row.Scan(
		&invoice.ID,
		&invoice.OrderID,
		&billingDate,
		&dueDate,
		&totalAmount,
		&invoice.TotalHours,
		&invoice.Reference,
		&periodFrom,
		&periodTo,
		&status,
		&invoice.AddVAT,
		&invoice.BillingAddressID,
		&invoicingKey,
		&grouping,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan invoice: %w", err)
	}

	invoice.Status = domain.InvoiceStatus(status)
	invoice.Grouping = domain.InvoiceGrouping(grouping)
	invoice.InvoicingKey = invoicingKey.String

	if invoice.TotalAmount, err = decimal.NewFromString(totalAmount); err != nil {
		return nil, fmt.Errorf("failed to parse total_amount: %w", err)
	}
	if invoice.BillingDate, err = parseDate(billingDate); err != nil {
		return nil, fmt.Errorf("failed to parse billing_date: %w", err)
	}
	if dueDate.Valid {
		t, err := parseDate(dueDate.String)
		if err != nil {
			return nil, fmt.Errorf("failed to parse due_date: %w", err)
		}
		invoice.DueDate = &t
	}
	if invoice.PeriodFrom, err = parseDate(periodFrom); err != nil {
		return nil, fmt.Errorf("failed to parse period_from: %w", err)
	}
	if invoice.PeriodTo, err = parseDate(periodTo); err != nil {
		return nil, fmt.Errorf("failed to parse period_to: %w", err)
	}
	if invoice.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if invoice.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("failed to parse updated_at: %w", err)
	}

	return invoice, nil
}
