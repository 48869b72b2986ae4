// Package invoicing is the capability interface to an external
// invoicing service. The invoice pipeline always talks to a Client; by
// default that is the no-op implementation, so control flow is
// identical whether or not a remote service is configured.
package invoicing

import (
	"context"

	"github.com/andy/timebill/internal/billing"
	"github.com/andy/timebill/internal/domain"
)

// Client persists an invoice in a remote invoicing system.
type Client interface {
	// SaveInvoice transmits the invoice with its positions and returns
	// the remote system's key for it. Failures are reported as *Error.
	SaveInvoice(ctx context.Context, inv *domain.Invoice, positions []billing.Position) (string, error)
}

// Error is a remote invoicing failure. The invoice pipeline surfaces
// its message as a base-level validation error and aborts the save.
type Error struct {
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Noop is the default Client when no remote service is configured. It
// leaves an already assigned invoicing key untouched.
type Noop struct{}

func NewNoop() Noop {
	return Noop{}
}

func (Noop) SaveInvoice(_ context.Context, inv *domain.Invoice, _ []billing.Position) (string, error) {
	return inv.InvoicingKey, nil
}
