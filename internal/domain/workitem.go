package domain

import "github.com/shopspring/decimal"

// WorkItem is a bookable node worktimes are recorded on.
type WorkItem struct {
	ID   int64
	Name string
}

// AccountingPost carries the billing terms of a work item: the offered
// hourly rate and the display name used on invoice positions.
type AccountingPost struct {
	ID          int64
	WorkItemID  int64
	Name        string
	OfferedRate decimal.Decimal
	Billable    bool
}
