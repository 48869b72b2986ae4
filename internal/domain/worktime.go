package domain

import "time"

// WorktimeKind distinguishes ordinary (billable) work from
// absence-derived time. Only ordertimes are ever billed.
type WorktimeKind string

const (
	KindOrdertime   WorktimeKind = "ordertime"
	KindAbsencetime WorktimeKind = "absencetime"
)

// Worktime is one recorded unit of work or absence. Its ReportType key
// selects the variant governing validation, display and mutation; the
// clocked variants use FromStartTime/ToEndTime, the summary variants
// only Hours.
type Worktime struct {
	ID            int64
	Kind          WorktimeKind
	EmployeeID    int64
	WorkItemID    int64
	AbsenceID     *int64
	ReportType    string
	WorkDate      time.Time
	Hours         float64
	FromStartTime *time.Time
	ToEndTime     *time.Time
	Billable      bool
	InvoiceID     *int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Open reports whether this is a started but not yet finished clocked
// entry. At most one open entry may exist per employee at a time.
func (w *Worktime) Open() bool {
	return w.FromStartTime != nil && w.ToEndTime == nil
}

// Billed reports whether the worktime has been consumed by an invoice.
func (w *Worktime) Billed() bool {
	return w.InvoiceID != nil
}
