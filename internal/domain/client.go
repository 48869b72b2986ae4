package domain

import "time"

// Client is a billed customer. LastInvoiceNumber is the per-client
// monotonic counter behind invoice reference generation; it is only
// ever incremented by the invoice creation pipeline, under an
// exclusive lock.
type Client struct {
	ID                int64
	Name              string
	Shortname         string
	LastInvoiceNumber int64
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (c *Client) String() string {
	return c.Name
}

// BillingAddress is one of possibly several invoice addresses of a client.
type BillingAddress struct {
	ID       int64
	ClientID int64
	Street   string
	Zip      string
	Town     string
}
