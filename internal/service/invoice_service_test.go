package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/andy/timebill/internal/billing"
	"github.com/andy/timebill/internal/domain"
	"github.com/andy/timebill/internal/invoicing"
	"github.com/andy/timebill/internal/repository"
)

// mock implementations
type mockInvoiceRepo struct {
	invoices map[int64]*domain.Invoice
	keyTaken bool
}

func (m *mockInvoiceRepo) GetByID(ctx context.Context, id int64) (*domain.Invoice, error) {
	if inv, ok := m.invoices[id]; ok {
		return inv, nil
	}
	return nil, repository.ErrNotFound
}
func (m *mockInvoiceRepo) GetByReference(ctx context.Context, reference string) (*domain.Invoice, error) {
	return nil, repository.ErrNotFound
}
func (m *mockInvoiceRepo) List(ctx context.Context, orderID *int64, status *domain.InvoiceStatus) ([]*domain.Invoice, error) {
	return nil, nil
}
func (m *mockInvoiceRepo) InvoicingKeyTaken(ctx context.Context, key string, excludeID int64) (bool, error) {
	return m.keyTaken, nil
}

type mockClientRepo struct {
	client  *domain.Client
	address *domain.BillingAddress
}

func (m *mockClientRepo) GetByID(ctx context.Context, id int64) (*domain.Client, error) {
	return m.client, nil
}
func (m *mockClientRepo) List(ctx context.Context) ([]*domain.Client, error) { return nil, nil }
func (m *mockClientRepo) GetBillingAddress(ctx context.Context, id int64) (*domain.BillingAddress, error) {
	if m.address == nil {
		return nil, repository.ErrNotFound
	}
	return m.address, nil
}

type mockOrderRepo struct {
	order      *domain.Order
	contract   *domain.Contract
	department *domain.Department
}

func (m *mockOrderRepo) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	return m.order, nil
}
func (m *mockOrderRepo) GetContract(ctx context.Context, id int64) (*domain.Contract, error) {
	if m.contract == nil {
		return nil, repository.ErrNotFound
	}
	return m.contract, nil
}
func (m *mockOrderRepo) GetDepartment(ctx context.Context, id int64) (*domain.Department, error) {
	return m.department, nil
}

type mockTx struct {
	sequence    int64
	created     *domain.Invoice
	updated     *domain.Invoice
	deleted     int64
	incremented bool
	assignedTo  int64
	released    int64
	committed   bool
	rolledBack  bool
}

func (m *mockTx) ClientSequence(ctx context.Context, clientID int64) (int64, error) {
	return m.sequence, nil
}
func (m *mockTx) IncrementClientSequence(ctx context.Context, clientID int64) error {
	m.incremented = true
	return nil
}
func (m *mockTx) CreateInvoice(ctx context.Context, inv *domain.Invoice) error {
	inv.ID = 42
	m.created = inv
	return nil
}
func (m *mockTx) UpdateInvoice(ctx context.Context, inv *domain.Invoice) error {
	m.updated = inv
	return nil
}
func (m *mockTx) DeleteInvoice(ctx context.Context, id int64) error {
	m.deleted = id
	return nil
}
func (m *mockTx) AssignWorktimes(ctx context.Context, invoiceID int64, f repository.BillingFilter) error {
	m.assignedTo = invoiceID
	return nil
}
func (m *mockTx) ReleaseWorktimes(ctx context.Context, invoiceID int64) error {
	m.released = invoiceID
	return nil
}
func (m *mockTx) Commit() error {
	m.committed = true
	return nil
}
func (m *mockTx) Rollback() error {
	if !m.committed {
		m.rolledBack = true
	}
	return nil
}

type mockUnitOfWork struct {
	tx    *mockTx
	begun bool
}

func (m *mockUnitOfWork) Begin(ctx context.Context) (repository.InvoiceTx, error) {
	m.begun = true
	return m.tx, nil
}

type mockRemote struct {
	key    string
	err    error
	called bool
}

func (m *mockRemote) SaveInvoice(ctx context.Context, inv *domain.Invoice, positions []billing.Position) (string, error) {
	m.called = true
	return m.key, m.err
}

// stubWorktimeRepo feeds the position builder fixed sums.
type stubWorktimeRepo struct {
	itemSums []repository.WorkItemHours
}

func (s *stubWorktimeRepo) Create(ctx context.Context, w *domain.Worktime) error { return nil }
func (s *stubWorktimeRepo) Update(ctx context.Context, w *domain.Worktime) error { return nil }
func (s *stubWorktimeRepo) Delete(ctx context.Context, id int64) error           { return nil }
func (s *stubWorktimeRepo) GetByID(ctx context.Context, id int64) (*domain.Worktime, error) {
	return nil, repository.ErrNotFound
}
func (s *stubWorktimeRepo) List(ctx context.Context, employeeID *int64, from, to *time.Time) ([]*domain.Worktime, error) {
	return nil, nil
}
func (s *stubWorktimeRepo) FindOpen(ctx context.Context, employeeID int64) (*domain.Worktime, error) {
	return nil, nil
}
func (s *stubWorktimeRepo) SumHoursByWorkItem(ctx context.Context, f repository.BillingFilter) ([]repository.WorkItemHours, error) {
	return s.itemSums, nil
}
func (s *stubWorktimeRepo) SumHoursByWorkItemAndEmployee(ctx context.Context, f repository.BillingFilter) ([]repository.WorkItemEmployeeHours, error) {
	return nil, nil
}

type stubPostRepo struct {
	post *domain.AccountingPost
}

func (s *stubPostRepo) GetByWorkItemID(ctx context.Context, workItemID int64) (*domain.AccountingPost, error) {
	return s.post, nil
}

type stubEmployeeRepo struct{}

func (s *stubEmployeeRepo) GetByID(ctx context.Context, id int64) (*domain.Employee, error) {
	return &domain.Employee{ID: id}, nil
}
func (s *stubEmployeeRepo) List(ctx context.Context) ([]*domain.Employee, error) { return nil, nil }

type fixture struct {
	svc    InvoiceService
	uow    *mockUnitOfWork
	tx     *mockTx
	remote *mockRemote
	orders *mockOrderRepo
}

func newFixture(keyTaken bool, remote *mockRemote) *fixture {
	contractID := int64(5)
	orders := &mockOrderRepo{
		order:      &domain.Order{ID: 1, Shortname: "WEB", ClientID: 3, DepartmentID: 2, ContractID: &contractID},
		contract:   &domain.Contract{ID: 5, PaymentPeriod: 30},
		department: &domain.Department{ID: 2, Shortname: "B"},
	}
	clients := &mockClientRepo{
		client:  &domain.Client{ID: 3, Shortname: "ACME", LastInvoiceNumber: 11},
		address: &domain.BillingAddress{ID: 9, ClientID: 3},
	}

	positions := billing.NewPositionBuilder(
		&stubWorktimeRepo{itemSums: []repository.WorkItemHours{{WorkItemID: 1, Hours: 10}}},
		&stubPostRepo{post: &domain.AccountingPost{WorkItemID: 1, Name: "Umsetzung", OfferedRate: decimal.NewFromInt(150)}},
		&stubEmployeeRepo{},
	)

	tx := &mockTx{sequence: 11}
	uow := &mockUnitOfWork{tx: tx}

	svc := NewInvoiceService(
		&mockInvoiceRepo{keyTaken: keyTaken},
		clients, orders, uow, positions, remote,
		decimal.NewFromFloat(7.7), zerolog.Nop())

	return &fixture{svc: svc, uow: uow, tx: tx, remote: remote, orders: orders}
}

func newInvoice() *domain.Invoice {
	return &domain.Invoice{
		OrderID:          1,
		BillingDate:      time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		PeriodFrom:       time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		PeriodTo:         time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC),
		Grouping:         domain.GroupingAccountingPosts,
		BillingAddressID: 9,
	}
}

func TestCreateInvoice_Success(t *testing.T) {
	f := newFixture(false, &mockRemote{})
	inv := newInvoice()

	if err := f.svc.Create(context.Background(), inv); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if inv.Reference != "ACMEWEBB0012" {
		t.Errorf("unexpected reference: %q", inv.Reference)
	}
	if inv.Status != domain.InvoiceStatusDraft {
		t.Errorf("expected default draft status, got %s", inv.Status)
	}
	if inv.DueDate == nil {
		t.Fatal("expected a due date from the contract's payment period")
	}
	if want := time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC); !inv.DueDate.Equal(want) {
		t.Errorf("expected due date %s, got %s", want, inv.DueDate)
	}
	if inv.TotalHours != 10 {
		t.Errorf("expected 10 hours, got %f", inv.TotalHours)
	}
	if !inv.TotalAmount.Equal(decimal.NewFromInt(1500)) {
		t.Errorf("expected total 1500, got %s", inv.TotalAmount)
	}

	if f.tx.created == nil {
		t.Fatal("invoice was not persisted")
	}
	if !f.tx.incremented {
		t.Error("client sequence was not incremented")
	}
	if f.tx.assignedTo != 42 {
		t.Errorf("worktimes not stamped with the new invoice ID, got %d", f.tx.assignedTo)
	}
	if !f.tx.committed {
		t.Error("transaction was not committed")
	}
}

func TestCreateInvoice_ValidationFailure(t *testing.T) {
	f := newFixture(false, &mockRemote{})
	f.orders.order.ContractID = nil
	f.orders.contract = nil
	inv := newInvoice()

	err := f.svc.Create(context.Background(), inv)

	var ferrs domain.FieldErrors
	if !errors.As(err, &ferrs) {
		t.Fatalf("expected FieldErrors, got %v", err)
	}
	if len(ferrs.On("order_id")) != 1 {
		t.Errorf("expected a contract error, got %v", ferrs)
	}
	if f.uow.begun {
		t.Error("no transaction may be started for an invalid invoice")
	}
	if f.remote.called {
		t.Error("the remote service must not see an invalid invoice")
	}
}

func TestCreateInvoice_InvoicingKeyTaken(t *testing.T) {
	f := newFixture(true, &mockRemote{})
	inv := newInvoice()
	inv.InvoicingKey = "R-1"

	err := f.svc.Create(context.Background(), inv)

	var ferrs domain.FieldErrors
	if !errors.As(err, &ferrs) {
		t.Fatalf("expected FieldErrors, got %v", err)
	}
	if got := ferrs.On("invoicing_key"); len(got) != 1 || got[0] != "wird bereits verwendet." {
		t.Errorf("unexpected key errors: %v", got)
	}
}

func TestCreateInvoice_RemoteFailure(t *testing.T) {
	remote := &mockRemote{err: &invoicing.Error{Message: "boom"}}
	f := newFixture(false, remote)
	inv := newInvoice()

	err := f.svc.Create(context.Background(), inv)

	var ferrs domain.FieldErrors
	if !errors.As(err, &ferrs) {
		t.Fatalf("expected FieldErrors, got %v", err)
	}
	if got := ferrs.On("base"); len(got) != 1 || got[0] != "Invoicing Service Error: boom" {
		t.Errorf("unexpected base errors: %v", got)
	}
	if f.uow.begun {
		t.Error("nothing may be written after a remote failure")
	}
}

func TestCreateInvoice_StoresRemoteKey(t *testing.T) {
	f := newFixture(false, &mockRemote{key: "R-55"})
	inv := newInvoice()

	if err := f.svc.Create(context.Background(), inv); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inv.InvoicingKey != "R-55" {
		t.Errorf("expected the remote key to be stored, got %q", inv.InvoicingKey)
	}
}

func TestUpdateInvoice_KeepsReference(t *testing.T) {
	f := newFixture(false, &mockRemote{})
	inv := newInvoice()
	inv.ID = 42
	inv.Reference = "ACMEWEBB0012"
	inv.Status = domain.InvoiceStatusSent

	if err := f.svc.Update(context.Background(), inv); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if f.tx.updated == nil {
		t.Fatal("invoice was not updated")
	}
	if inv.Reference != "ACMEWEBB0012" {
		t.Errorf("the reference must never change on update, got %q", inv.Reference)
	}
	if f.tx.incremented {
		t.Error("updates must not advance the client sequence")
	}
	if f.tx.assignedTo != 42 {
		t.Errorf("worktimes not re-stamped, got %d", f.tx.assignedTo)
	}
}

func TestDestroyInvoice(t *testing.T) {
	f := newFixture(false, &mockRemote{})

	if err := f.svc.Destroy(context.Background(), 42); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.tx.released != 42 {
		t.Errorf("worktimes not released, got %d", f.tx.released)
	}
	if f.tx.deleted != 42 {
		t.Errorf("invoice not deleted, got %d", f.tx.deleted)
	}
	if !f.tx.committed {
		t.Error("transaction was not committed")
	}
}

func TestCalculatedTotal(t *testing.T) {
	f := newFixture(false, &mockRemote{})
	inv := newInvoice()

	total, err := f.svc.CalculatedTotal(context.Background(), inv)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != "1500.00" {
		t.Errorf("expected 1500.00, got %q", total)
	}

	inv.AddVAT = true
	total, err = f.svc.CalculatedTotal(context.Background(), inv)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != "1615.50" {
		t.Errorf("expected 1615.50, got %q", total)
	}
}
