package domain

import "time"

// Order is the unit of work sold to a client. It supplies the client,
// contract and department an invoice is issued under.
type Order struct {
	ID           int64
	Name         string
	Shortname    string
	ClientID     int64
	DepartmentID int64
	ContractID   *int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Contract holds the commercial terms of an order. PaymentPeriod is the
// number of days between billing date and due date.
type Contract struct {
	ID            int64
	Number        string
	PaymentPeriod int
	Reference     string
}

// Department is the organisational unit an order belongs to; its
// shortname is part of every invoice reference.
type Department struct {
	ID        int64
	Name      string
	Shortname string
}
