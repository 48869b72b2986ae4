package repository

import (
	"strings"
	"time"
)

// timeLayout is the RFC3339 format for storing instants in SQLite.
const timeLayout = time.RFC3339

// dateLayout stores calendar dates; lexical order equals date order.
const dateLayout = "2006-01-02"

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		// Rows inserted outside the application carry SQLite's
		// datetime('now') default
		return time.Parse("2006-01-02 15:04:05", s)
	}
	return t, nil
}

func parseDate(s string) (time.Time, error) {
	return time.Parse(dateLayout, s)
}

func formatTime() string {
	return time.Now().Format(timeLayout)
}

// placeholders returns "?, ?, ..." for n parameters.
func placeholders(n int) string {
	if n == 0 {
		return ""
	}
	return strings.Repeat("?, ", n-1) + "?"
}

func int64Args(ids []int64) []interface{} {
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}

// billingWhere renders the qualifying-worktime conditions of a filter:
// billable ordertimes in the period, restricted to the permitted work
// items and employees, unassigned or owned by the filter's invoice.
// Empty permission sets match nothing.
func billingWhere(f BillingFilter) (string, []interface{}) {
	var b strings.Builder
	args := make([]interface{}, 0, 8)

	b.WriteString("kind = 'ordertime' AND billable = 1")
	b.WriteString(" AND work_date >= ? AND work_date <= ?")
	args = append(args, f.From.Format(dateLayout), f.To.Format(dateLayout))

	if len(f.WorkItemIDs) == 0 {
		b.WriteString(" AND 1 = 0")
	} else {
		b.WriteString(" AND work_item_id IN (" + placeholders(len(f.WorkItemIDs)) + ")")
		args = append(args, int64Args(f.WorkItemIDs)...)
	}

	if len(f.EmployeeIDs) == 0 {
		b.WriteString(" AND 1 = 0")
	} else {
		b.WriteString(" AND employee_id IN (" + placeholders(len(f.EmployeeIDs)) + ")")
		args = append(args, int64Args(f.EmployeeIDs)...)
	}

	if f.InvoiceID != 0 {
		b.WriteString(" AND (invoice_id IS NULL OR invoice_id = ?)")
		args = append(args, f.InvoiceID)
	} else {
		b.WriteString(" AND invoice_id IS NULL")
	}

	return b.String(), args
}
