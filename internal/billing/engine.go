package billing

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/andy/timebill/internal/domain"
)

// Reference builds the durable invoice reference: the client, order and
// department shortnames followed by the zero-padded next sequence
// number. lastNumber must be read under the client's exclusive lock.
func Reference(client *domain.Client, order *domain.Order, department *domain.Department, lastNumber int64) string {
	return fmt.Sprintf("%s%s%s%04d",
		client.Shortname, order.Shortname, department.Shortname, lastNumber+1)
}

// DueDate defaults the due date to the billing date plus the contract's
// payment period. Without a contract it stays unset (and validation
// fails elsewhere).
func DueDate(billingDate time.Time, contract *domain.Contract) *time.Time {
	if contract == nil {
		return nil
	}
	due := billingDate.AddDate(0, 0, contract.PaymentPeriod)
	return &due
}

// UpdateTotals derives the invoice's totals from its positions. Manual
// invoices keep a hand-entered amount and carry no hours; for all other
// groupings both totals are recomputed, discarding any stored value.
func UpdateTotals(inv *domain.Invoice, positions []Position) {
	if inv.Manual() {
		inv.TotalHours = 0
		if inv.TotalAmount.IsZero() {
			inv.TotalAmount = sumAmounts(positions)
		}
		return
	}

	var hours float64
	for _, p := range positions {
		hours += p.TotalHours()
	}
	inv.TotalHours = hours
	inv.TotalAmount = sumAmounts(positions)
}

// CalculatedTotalAmount is the read-only grand total over the
// positions, with VAT applied when the invoice asks for it, rendered
// with exactly two decimals. It is distinct from the persisted
// TotalAmount used for non-VAT-adjusted bookkeeping.
func CalculatedTotalAmount(positions []Position, addVAT bool, vatRate decimal.Decimal) string {
	sum := sumAmounts(positions)
	if addVAT {
		factor := decimal.NewFromInt(1).Add(vatRate.Div(decimal.NewFromInt(100)))
		sum = sum.Mul(factor)
	}
	return sum.Round(2).StringFixed(2)
}

func sumAmounts(positions []Position) decimal.Decimal {
	sum := decimal.Zero
	for _, p := range positions {
		sum = sum.Add(p.TotalAmount())
	}
	return sum
}
