package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/andy/timebill/internal/db"
	"github.com/andy/timebill/internal/domain"
)

// SQLiteUnitOfWork begins immediate (write-locking) transactions for
// the invoice lifecycle.
type SQLiteUnitOfWork struct {
	db *db.DB
}

// NewUnitOfWork creates a SQLiteUnitOfWork
func NewUnitOfWork(database *db.DB) *SQLiteUnitOfWork {
	return &SQLiteUnitOfWork{db: database}
}

// Begin starts an invoice transaction holding the database write lock.
func (u *SQLiteUnitOfWork) Begin(ctx context.Context) (InvoiceTx, error) {
	tx, err := u.db.BeginImmediate(ctx)
	if err != nil {
		return nil, err
	}
	return &invoiceTx{tx: tx}, nil
}

type invoiceTx struct {
	tx *sql.Tx
}

// ClientSequence reads last_invoice_number under the write lock
func (t *invoiceTx) ClientSequence(ctx context.Context, clientID int64) (int64, error) {
	var last int64
	err := t.tx.QueryRowContext(ctx,
		"SELECT last_invoice_number FROM clients WHERE id = ?", clientID).Scan(&last)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("client %d: %w", clientID, ErrNotFound)
		}
		return 0, fmt.Errorf("failed to read client sequence: %w", err)
	}
	return last, nil
}

// IncrementClientSequence advances the counter by exactly one
func (t *invoiceTx) IncrementClientSequence(ctx context.Context, clientID int64) error {
	result, err := t.tx.ExecContext(ctx,
		"UPDATE clients SET last_invoice_number = last_invoice_number + 1, updated_at = ? WHERE id = ?",
		formatTime(), clientID)
	if err != nil {
		return fmt.Errorf("failed to increment client sequence: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("client %d: %w", clientID, ErrNotFound)
	}
	return nil
}

// CreateInvoice inserts the invoice and its filter sets
func (t *invoiceTx) CreateInvoice(ctx context.Context, inv *domain.Invoice) error {
	query := `
		INSERT INTO invoices (
			order_id, billing_date, due_date, total_amount, total_hours, reference,
			period_from, period_to, status, add_vat, billing_address_id,
			invoicing_key, grouping, created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	now := formatTime()
	result, err := t.tx.ExecContext(ctx, query,
		inv.OrderID,
		inv.BillingDate.Format(dateLayout),
		nullableDate(inv.DueDate),
		inv.TotalAmount.String(),
		inv.TotalHours,
		inv.Reference,
		inv.PeriodFrom.Format(dateLayout),
		inv.PeriodTo.Format(dateLayout),
		string(inv.Status),
		inv.AddVAT,
		inv.BillingAddressID,
		nullableString(inv.InvoicingKey),
		string(inv.Grouping),
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to create invoice: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get invoice ID: %w", err)
	}
	inv.ID = id

	return t.saveFilterSets(ctx, inv)
}

// UpdateInvoice updates the invoice and replaces its filter sets
func (t *invoiceTx) UpdateInvoice(ctx context.Context, inv *domain.Invoice) error {
	query := `
		UPDATE invoices
		SET order_id = ?, billing_date = ?, due_date = ?, total_amount = ?, total_hours = ?,
		    reference = ?, period_from = ?, period_to = ?, status = ?, add_vat = ?,
		    billing_address_id = ?, invoicing_key = ?, grouping = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := t.tx.ExecContext(ctx, query,
		inv.OrderID,
		inv.BillingDate.Format(dateLayout),
		nullableDate(inv.DueDate),
		inv.TotalAmount.String(),
		inv.TotalHours,
		inv.Reference,
		inv.PeriodFrom.Format(dateLayout),
		inv.PeriodTo.Format(dateLayout),
		string(inv.Status),
		inv.AddVAT,
		inv.BillingAddressID,
		nullableString(inv.InvoicingKey),
		string(inv.Grouping),
		formatTime(),
		inv.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update invoice: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("invoice %d: %w", inv.ID, ErrNotFound)
	}

	for _, table := range []string{"invoices_work_items", "invoices_employees"} {
		if _, err := t.tx.ExecContext(ctx,
			"DELETE FROM "+table+" WHERE invoice_id = ?", inv.ID); err != nil {
			return fmt.Errorf("failed to clear invoice filter sets: %w", err)
		}
	}
	return t.saveFilterSets(ctx, inv)
}

// DeleteInvoice removes the invoice row; its filter sets cascade
func (t *invoiceTx) DeleteInvoice(ctx context.Context, id int64) error {
	result, err := t.tx.ExecContext(ctx, "DELETE FROM invoices WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete invoice: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("invoice %d: %w", id, ErrNotFound)
	}
	return nil
}

// AssignWorktimes makes the stamped set equal the qualifying set: rows
// no longer matching are released, matching rows are stamped. Both
// statements are idempotent overwrites.
func (t *invoiceTx) AssignWorktimes(ctx context.Context, invoiceID int64, f BillingFilter) error {
	f.InvoiceID = invoiceID
	where, args := billingWhere(f)

	release := "UPDATE worktimes SET invoice_id = NULL WHERE invoice_id = ? AND NOT (" + where + ")"
	if _, err := t.tx.ExecContext(ctx, release, append([]interface{}{invoiceID}, args...)...); err != nil {
		return fmt.Errorf("failed to release worktimes: %w", err)
	}

	stamp := "UPDATE worktimes SET invoice_id = ? WHERE " + where
	if _, err := t.tx.ExecContext(ctx, stamp, append([]interface{}{invoiceID}, args...)...); err != nil {
		return fmt.Errorf("failed to assign worktimes: %w", err)
	}
	return nil
}

// ReleaseWorktimes nullifies the invoice reference of all owned rows
func (t *invoiceTx) ReleaseWorktimes(ctx context.Context, invoiceID int64) error {
	if _, err := t.tx.ExecContext(ctx,
		"UPDATE worktimes SET invoice_id = NULL WHERE invoice_id = ?", invoiceID); err != nil {
		return fmt.Errorf("failed to release worktimes: %w", err)
	}
	return nil
}

func (t *invoiceTx) Commit() error {
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit invoice transaction: %w", err)
	}
	return nil
}

func (t *invoiceTx) Rollback() error {
	if err := t.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("failed to roll back invoice transaction: %w", err)
	}
	return nil
}

func (t *invoiceTx) saveFilterSets(ctx context.Context, inv *domain.Invoice) error {
	for _, workItemID := range inv.WorkItemIDs {
		if _, err := t.tx.ExecContext(ctx,
			"INSERT INTO invoices_work_items (invoice_id, work_item_id) VALUES (?, ?)",
			inv.ID, workItemID); err != nil {
			return fmt.Errorf("failed to save invoice work item: %w", err)
		}
	}
	for _, employeeID := range inv.EmployeeIDs {
		if _, err := t.tx.ExecContext(ctx,
			"INSERT INTO invoices_employees (invoice_id, employee_id) VALUES (?, ?)",
			inv.ID, employeeID); err != nil {
			return fmt.Errorf("failed to save invoice employee: %w", err)
		}
	}
	return nil
}

func nullableDate(d *time.Time) interface{} {
	if d == nil {
		return nil
	}
	return d.Format(dateLayout)
}

func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
