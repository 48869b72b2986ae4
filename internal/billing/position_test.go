package billing

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/andy/timebill/internal/domain"
	"github.com/andy/timebill/internal/repository"
)

// mock implementations
type mockWorktimeRepo struct {
	itemSums     []repository.WorkItemHours
	employeeSums []repository.WorkItemEmployeeHours
	lastFilter   repository.BillingFilter
}

func (m *mockWorktimeRepo) Create(ctx context.Context, w *domain.Worktime) error  { return nil }
func (m *mockWorktimeRepo) Update(ctx context.Context, w *domain.Worktime) error  { return nil }
func (m *mockWorktimeRepo) Delete(ctx context.Context, id int64) error            { return nil }
func (m *mockWorktimeRepo) GetByID(ctx context.Context, id int64) (*domain.Worktime, error) {
	return nil, repository.ErrNotFound
}
func (m *mockWorktimeRepo) List(ctx context.Context, employeeID *int64, from, to *time.Time) ([]*domain.Worktime, error) {
	return nil, nil
}
func (m *mockWorktimeRepo) FindOpen(ctx context.Context, employeeID int64) (*domain.Worktime, error) {
	return nil, nil
}
func (m *mockWorktimeRepo) SumHoursByWorkItem(ctx context.Context, f repository.BillingFilter) ([]repository.WorkItemHours, error) {
	m.lastFilter = f
	return m.itemSums, nil
}
func (m *mockWorktimeRepo) SumHoursByWorkItemAndEmployee(ctx context.Context, f repository.BillingFilter) ([]repository.WorkItemEmployeeHours, error) {
	m.lastFilter = f
	return m.employeeSums, nil
}

type mockPostRepo struct {
	posts map[int64]*domain.AccountingPost
}

func (m *mockPostRepo) GetByWorkItemID(ctx context.Context, workItemID int64) (*domain.AccountingPost, error) {
	if post, ok := m.posts[workItemID]; ok {
		return post, nil
	}
	return nil, fmt.Errorf("work item %d: %w", workItemID, repository.ErrMissingAccountingPost)
}

type mockEmployeeRepo struct {
	employees map[int64]*domain.Employee
}

func (m *mockEmployeeRepo) GetByID(ctx context.Context, id int64) (*domain.Employee, error) {
	if e, ok := m.employees[id]; ok {
		return e, nil
	}
	return nil, repository.ErrNotFound
}
func (m *mockEmployeeRepo) List(ctx context.Context) ([]*domain.Employee, error) { return nil, nil }

func rate(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func TestBuildAccountingPostPositions(t *testing.T) {
	worktimes := &mockWorktimeRepo{
		itemSums: []repository.WorkItemHours{
			{WorkItemID: 1, Hours: 10},
			{WorkItemID: 2, Hours: 4},
		},
	}
	posts := &mockPostRepo{posts: map[int64]*domain.AccountingPost{
		1: {WorkItemID: 1, Name: "Umsetzung", OfferedRate: rate(150)},
		2: {WorkItemID: 2, Name: "Beratung", OfferedRate: rate(200)},
	}}

	b := NewPositionBuilder(worktimes, posts, &mockEmployeeRepo{})
	inv := &domain.Invoice{ID: 7, Grouping: domain.GroupingAccountingPosts}

	positions, err := b.Build(context.Background(), inv)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(positions) != 2 {
		t.Fatalf("expected 2 positions, got %d", len(positions))
	}

	// Sorted by name: Beratung before Umsetzung
	if positions[0].Name() != "Beratung" || positions[1].Name() != "Umsetzung" {
		t.Errorf("positions not sorted by name: %s, %s", positions[0].Name(), positions[1].Name())
	}
	if got := positions[0].TotalAmount(); !got.Equal(rate(800)) {
		t.Errorf("expected 800, got %s", got)
	}
	if got := positions[1].TotalAmount(); !got.Equal(rate(1500)) {
		t.Errorf("expected 1500, got %s", got)
	}

	if worktimes.lastFilter.InvoiceID != 7 {
		t.Errorf("filter must carry the invoice ID, got %d", worktimes.lastFilter.InvoiceID)
	}
}

func TestBuildEmployeePositions(t *testing.T) {
	worktimes := &mockWorktimeRepo{
		employeeSums: []repository.WorkItemEmployeeHours{
			{WorkItemID: 1, EmployeeID: 1, Hours: 6},
			{WorkItemID: 1, EmployeeID: 2, Hours: 2},
		},
	}
	posts := &mockPostRepo{posts: map[int64]*domain.AccountingPost{
		1: {WorkItemID: 1, Name: "Umsetzung", OfferedRate: rate(100)},
	}}
	employees := &mockEmployeeRepo{employees: map[int64]*domain.Employee{
		1: {ID: 1, Firstname: "Anna", Lastname: "Muster"},
		2: {ID: 2, Firstname: "Beat", Lastname: "Beispiel"},
	}}

	b := NewPositionBuilder(worktimes, posts, employees)
	inv := &domain.Invoice{Grouping: domain.GroupingEmployees}

	positions, err := b.Build(context.Background(), inv)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(positions) != 2 {
		t.Fatalf("expected 2 positions, got %d", len(positions))
	}
	if positions[0].Name() != "Umsetzung - Anna Muster" {
		t.Errorf("unexpected position name: %s", positions[0].Name())
	}
	if positions[1].Name() != "Umsetzung - Beat Beispiel" {
		t.Errorf("unexpected position name: %s", positions[1].Name())
	}
}

func TestBuildManualPosition(t *testing.T) {
	b := NewPositionBuilder(&mockWorktimeRepo{}, &mockPostRepo{}, &mockEmployeeRepo{})
	inv := &domain.Invoice{Grouping: domain.GroupingManual, TotalAmount: rate(5000)}

	positions, err := b.Build(context.Background(), inv)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(positions) != 1 {
		t.Fatalf("expected 1 position, got %d", len(positions))
	}

	p := positions[0]
	if !p.Manual() {
		t.Error("expected a manual position")
	}
	if p.Name() != ManualPositionName {
		t.Errorf("unexpected name: %s", p.Name())
	}
	if p.TotalHours() != 0 {
		t.Errorf("manual positions carry no hours, got %f", p.TotalHours())
	}
	if got := p.TotalAmount(); !got.Equal(rate(5000)) {
		t.Errorf("expected the hand-entered total, got %s", got)
	}
}

func TestBuildManualPositionWithoutTotal(t *testing.T) {
	b := NewPositionBuilder(&mockWorktimeRepo{}, &mockPostRepo{}, &mockEmployeeRepo{})
	inv := &domain.Invoice{Grouping: domain.GroupingManual}

	positions, err := b.Build(context.Background(), inv)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Rate 1 times one unit
	if got := positions[0].TotalAmount(); !got.Equal(rate(1)) {
		t.Errorf("expected 1, got %s", got)
	}
}

func TestBuildMissingAccountingPost(t *testing.T) {
	worktimes := &mockWorktimeRepo{
		itemSums: []repository.WorkItemHours{{WorkItemID: 9, Hours: 3}},
	}
	b := NewPositionBuilder(worktimes, &mockPostRepo{}, &mockEmployeeRepo{})
	inv := &domain.Invoice{Grouping: domain.GroupingAccountingPosts}

	_, err := b.Build(context.Background(), inv)
	if !errors.Is(err, repository.ErrMissingAccountingPost) {
		t.Errorf("expected ErrMissingAccountingPost, got %v", err)
	}
}
