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

// WorktimeRepo is a SQLite implementation of WorktimeRepository
type WorktimeRepo struct {
	db *db.DB
}

// NewWorktimeRepo creates a new WorktimeRepo
func NewWorktimeRepo(database *db.DB) *WorktimeRepo {
	return &WorktimeRepo{db: database}
}

const worktimeColumns = `id, kind, employee_id, work_item_id, absence_id, report_type,
	work_date, hours, from_start_time, to_end_time, billable, invoice_id, created_at, updated_at`

// Create inserts a new worktime
func (r *WorktimeRepo) Create(ctx context.Context, w *domain.Worktime) error {
	query := `
		INSERT INTO worktimes (
			kind, employee_id, work_item_id, absence_id, report_type, work_date,
			hours, from_start_time, to_end_time, billable, invoice_id, created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	now := formatTime()
	result, err := r.db.ExecContext(ctx, query,
		string(w.Kind),
		w.EmployeeID,
		nullableID(w.WorkItemID),
		w.AbsenceID,
		w.ReportType,
		w.WorkDate.Format(dateLayout),
		w.Hours,
		nullableTime(w.FromStartTime),
		nullableTime(w.ToEndTime),
		w.Billable,
		w.InvoiceID,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to create worktime: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get worktime ID: %w", err)
	}

	w.ID = id
	return nil
}

// Update updates an existing worktime
func (r *WorktimeRepo) Update(ctx context.Context, w *domain.Worktime) error {
	query := `
		UPDATE worktimes
		SET kind = ?, employee_id = ?, work_item_id = ?, absence_id = ?, report_type = ?,
		    work_date = ?, hours = ?, from_start_time = ?, to_end_time = ?, billable = ?,
		    invoice_id = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		string(w.Kind),
		w.EmployeeID,
		nullableID(w.WorkItemID),
		w.AbsenceID,
		w.ReportType,
		w.WorkDate.Format(dateLayout),
		w.Hours,
		nullableTime(w.FromStartTime),
		nullableTime(w.ToEndTime),
		w.Billable,
		w.InvoiceID,
		formatTime(),
		w.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update worktime: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("worktime %d: %w", w.ID, ErrNotFound)
	}

	return nil
}

// GetByID retrieves a worktime by ID
func (r *WorktimeRepo) GetByID(ctx context.Context, id int64) (*domain.Worktime, error) {
	query := "SELECT " + worktimeColumns + " FROM worktimes WHERE id = ?"

	w, err := scanWorktime(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("worktime %d: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return w, nil
}

// List retrieves worktimes with optional employee and period filters
func (r *WorktimeRepo) List(ctx context.Context, employeeID *int64, from, to *time.Time) ([]*domain.Worktime, error) {
	query := "SELECT " + worktimeColumns + " FROM worktimes WHERE 1=1"
	args := make([]interface{}, 0)

	if employeeID != nil {
		query += " AND employee_id = ?"
		args = append(args, *employeeID)
	}
	if from != nil {
		query += " AND work_date >= ?"
		args = append(args, from.Format(dateLayout))
	}
	if to != nil {
		query += " AND work_date <= ?"
		args = append(args, to.Format(dateLayout))
	}

	query += " ORDER BY work_date, id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list worktimes: %w", err)
	}
	defer rows.Close()

	worktimes := make([]*domain.Worktime, 0)
	for rows.Next() {
		w, err := scanWorktime(rows)
		if err != nil {
			return nil, err
		}
		worktimes = append(worktimes, w)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating worktimes: %w", err)
	}

	return worktimes, nil
}

// Delete removes a worktime
func (r *WorktimeRepo) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM worktimes WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete worktime: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("worktime %d: %w", id, ErrNotFound)
	}

	return nil
}

// FindOpen returns the employee's open timer entry, or nil if none
func (r *WorktimeRepo) FindOpen(ctx context.Context, employeeID int64) (*domain.Worktime, error) {
	query := "SELECT " + worktimeColumns + ` FROM worktimes
		WHERE employee_id = ? AND report_type = 'auto_start' AND to_end_time IS NULL`

	w, err := scanWorktime(r.db.QueryRowContext(ctx, query, employeeID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return w, nil
}

// SumHoursByWorkItem sums billable hours per work item over the filter
func (r *WorktimeRepo) SumHoursByWorkItem(ctx context.Context, f BillingFilter) ([]WorkItemHours, error) {
	where, args := billingWhere(f)
	query := `
		SELECT work_item_id, SUM(hours)
		FROM worktimes
		WHERE ` + where + `
		GROUP BY work_item_id
		ORDER BY work_item_id
	`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to sum worktimes by work item: %w", err)
	}
	defer rows.Close()

	sums := make([]WorkItemHours, 0)
	for rows.Next() {
		var sum WorkItemHours
		if err := rows.Scan(&sum.WorkItemID, &sum.Hours); err != nil {
			return nil, fmt.Errorf("failed to scan worktime sum: %w", err)
		}
		sums = append(sums, sum)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating worktime sums: %w", err)
	}

	return sums, nil
}

// SumHoursByWorkItemAndEmployee sums billable hours per (work item, employee) pair
func (r *WorktimeRepo) SumHoursByWorkItemAndEmployee(ctx context.Context, f BillingFilter) ([]WorkItemEmployeeHours, error) {
	where, args := billingWhere(f)
	query := `
		SELECT work_item_id, employee_id, SUM(hours)
		FROM worktimes
		WHERE ` + where + `
		GROUP BY work_item_id, employee_id
		ORDER BY work_item_id, employee_id
	`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to sum worktimes by work item and employee: %w", err)
	}
	defer rows.Close()

	sums := make([]WorkItemEmployeeHours, 0)
	for rows.Next() {
		var sum WorkItemEmployeeHours
		if err := rows.Scan(&sum.WorkItemID, &sum.EmployeeID, &sum.Hours); err != nil {
			return nil, fmt.Errorf("failed to scan worktime sum: %w", err)
		}
		sums = append(sums, sum)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating worktime sums: %w", err)
	}

	return sums, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanWorktime(row rowScanner) (*domain.Worktime, error) {
	w := &domain.Worktime{}
	var kind, workDate, createdAt, updatedAt string
	var workItemID, absenceID, invoiceID sql.NullInt64
	var fromStart, toEnd sql.NullString

	err := row.Scan(
		&w.ID,
		&kind,
		&w.EmployeeID,
		&workItemID,
		&absenceID,
		&w.ReportType,
		&workDate,
		&w.Hours,
		&fromStart,
		&toEnd,
		&w.Billable,
		&invoiceID,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan worktime: %w", err)
	}

	w.Kind = domain.WorktimeKind(kind)
	w.WorkItemID = workItemID.Int64
	if absenceID.Valid {
		w.AbsenceID = &absenceID.Int64
	}
	if invoiceID.Valid {
		w.InvoiceID = &invoiceID.Int64
	}

	if w.WorkDate, err = parseDate(workDate); err != nil {
		return nil, fmt.Errorf("failed to parse work_date: %w", err)
	}
	if fromStart.Valid {
		t, err := parseTime(fromStart.String)
		if err != nil {
			return nil, fmt.Errorf("failed to parse from_start_time: %w", err)
		}
		w.FromStartTime = &t
	}
	if toEnd.Valid {
		t, err := parseTime(toEnd.String)
		if err != nil {
			return nil, fmt.Errorf("failed to parse to_end_time: %w", err)
		}
		w.ToEndTime = &t
	}
	if w.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if w.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("failed to parse updated_at: %w", err)
	}

	return w, nil
}

func nullableID(id int64) interface{} {
	if id == 0 {
		return nil
	}
	return id
}

func nullableTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.Format(timeLayout)
}
