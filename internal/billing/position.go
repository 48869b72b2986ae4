// Package billing groups billable worktimes into invoice positions and
// derives references, due dates and totals. Everything here is a pure
// function of a read snapshot; persistence happens in the service layer.
package billing

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/andy/timebill/internal/domain"
	"github.com/andy/timebill/internal/repository"
)

// ManualPositionName labels the single synthetic position of a
// manually grouped invoice.
const ManualPositionName = "Manuell"

// Position is one invoice line item. It is a transient value computed
// at billing time, never persisted.
type Position struct {
	Post  *domain.AccountingPost
	Hours float64

	name   string
	amount *decimal.Decimal // manual override, nil when derived
}

// NewPosition builds a position over an accounting post. An empty name
// falls back to the post's display name.
func NewPosition(post *domain.AccountingPost, hours float64, name string) Position {
	if name == "" {
		name = post.Name
	}
	return Position{Post: post, Hours: hours, name: name}
}

// NewManualPosition builds the synthetic position of a manual invoice:
// rate 1, one unit, with the invoice's hand-entered total taken
// verbatim when one is supplied.
func NewManualPosition(total decimal.Decimal) Position {
	post := &domain.AccountingPost{OfferedRate: decimal.NewFromInt(1)}
	p := NewPosition(post, 1, ManualPositionName)
	if !total.IsZero() {
		p.amount = &total
	}
	return p
}

// Name returns the display name used for rendering and sorting.
func (p Position) Name() string {
	return p.name
}

// Manual reports whether this is a synthetic manual position.
func (p Position) Manual() bool {
	return p.name == ManualPositionName
}

// TotalHours is the billed hours of the position, zero for manual ones.
func (p Position) TotalHours() float64 {
	if p.Manual() {
		return 0
	}
	return p.Hours
}

// TotalAmount is hours times the offered rate, or the manual override.
func (p Position) TotalAmount() decimal.Decimal {
	if p.amount != nil {
		return *p.amount
	}
	return p.Post.OfferedRate.Mul(decimal.NewFromFloat(p.Hours))
}

// PositionBuilder turns the worktimes an invoice may bill into its
// positions, using the invoice's grouping mode.
type PositionBuilder struct {
	worktimes repository.WorktimeRepository
	posts     repository.AccountingPostRepository
	employees repository.EmployeeRepository
}

func NewPositionBuilder(
	worktimes repository.WorktimeRepository,
	posts repository.AccountingPostRepository,
	employees repository.EmployeeRepository,
) *PositionBuilder {
	return &PositionBuilder{worktimes: worktimes, posts: posts, employees: employees}
}

// Build computes the invoice's positions, sorted by display name for
// deterministic rendering.
func (b *PositionBuilder) Build(ctx context.Context, inv *domain.Invoice) ([]Position, error) {
	var (
		positions []Position
		err       error
	)

	switch inv.Grouping {
	case domain.GroupingManual:
		positions = []Position{NewManualPosition(inv.TotalAmount)}
	case domain.GroupingEmployees:
		positions, err = b.employeePositions(ctx, inv)
	default:
		positions, err = b.accountingPostPositions(ctx, inv)
	}
	if err != nil {
		return nil, err
	}

	sort.Slice(positions, func(i, j int) bool {
		return positions[i].Name() < positions[j].Name()
	})
	return positions, nil
}

func (b *PositionBuilder) accountingPostPositions(ctx context.Context, inv *domain.Invoice) ([]Position, error) {
	sums, err := b.worktimes.SumHoursByWorkItem(ctx, repository.FilterFor(inv))
	if err != nil {
		return nil, fmt.Errorf("failed to sum worktimes: %w", err)
	}

	positions := make([]Position, 0, len(sums))
	for _, sum := range sums {
		post, err := b.posts.GetByWorkItemID(ctx, sum.WorkItemID)
		if err != nil {
			return nil, err
		}
		positions = append(positions, NewPosition(post, sum.Hours, ""))
	}
	return positions, nil
}

func (b *PositionBuilder) employeePositions(ctx context.Context, inv *domain.Invoice) ([]Position, error) {
	sums, err := b.worktimes.SumHoursByWorkItemAndEmployee(ctx, repository.FilterFor(inv))
	if err != nil {
		return nil, fmt.Errorf("failed to sum worktimes: %w", err)
	}

	positions := make([]Position, 0, len(sums))
	for _, sum := range sums {
		post, err := b.posts.GetByWorkItemID(ctx, sum.WorkItemID)
		if err != nil {
			return nil, err
		}
		employee, err := b.employees.GetByID(ctx, sum.EmployeeID)
		if err != nil {
			return nil, fmt.Errorf("failed to load employee %d: %w", sum.EmployeeID, err)
		}
		name := fmt.Sprintf("%s - %s", post.Name, employee)
		positions = append(positions, NewPosition(post, sum.Hours, name))
	}
	return positions, nil
}
