package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/andy/timebill/internal/billing"
	"github.com/andy/timebill/internal/domain"
	"github.com/andy/timebill/internal/invoicing"
	"github.com/andy/timebill/internal/repository"
)

// InvoiceService manages the invoice lifecycle: numbering, position
// building, totals, remote sync and worktime assignment.
type InvoiceService interface {
	// Create validates and persists a new invoice. The reference is
	// assigned from the client's counter inside the write transaction;
	// matching worktimes are stamped in the same transaction.
	Create(ctx context.Context, inv *domain.Invoice) error

	// Update re-validates and saves an existing invoice, re-deriving
	// totals and re-stamping the matching worktimes. The reference
	// never changes.
	Update(ctx context.Context, inv *domain.Invoice) error

	// Destroy deletes the invoice and releases its worktimes.
	Destroy(ctx context.Context, id int64) error

	// Get retrieves an invoice by ID
	Get(ctx context.Context, id int64) (*domain.Invoice, error)

	// List lists invoices with optional filters
	List(ctx context.Context, orderID *int64, status *domain.InvoiceStatus) ([]*domain.Invoice, error)

	// Positions computes the invoice's line items from the current
	// worktime data.
	Positions(ctx context.Context, inv *domain.Invoice) ([]billing.Position, error)

	// CalculatedTotal renders the grand total over the invoice's
	// positions, with VAT applied when the invoice asks for it.
	CalculatedTotal(ctx context.Context, inv *domain.Invoice) (string, error)
}

type invoiceService struct {
	invoices  repository.InvoiceRepository
	clients   repository.ClientRepository
	orders    repository.OrderRepository
	uow       repository.UnitOfWork
	positions *billing.PositionBuilder
	remote    invoicing.Client
	vatRate   decimal.Decimal
	log       zerolog.Logger
}

// NewInvoiceService creates a new invoice service. remote is never nil;
// pass invoicing.NewNoop() when no external service is configured.
func NewInvoiceService(
	invoices repository.InvoiceRepository,
	clients repository.ClientRepository,
	orders repository.OrderRepository,
	uow repository.UnitOfWork,
	positions *billing.PositionBuilder,
	remote invoicing.Client,
	vatRate decimal.Decimal,
	log zerolog.Logger,
) InvoiceService {
	return &invoiceService{
		invoices:  invoices,
		clients:   clients,
		orders:    orders,
		uow:       uow,
		positions: positions,
		remote:    remote,
		vatRate:   vatRate,
		log:       log,
	}
}

// billingContext is the read snapshot an invoice is validated and
// billed against.
type billingContext struct {
	order      *domain.Order
	client     *domain.Client
	contract   *domain.Contract
	department *domain.Department
	address    *domain.BillingAddress
}

func (s *invoiceService) Create(ctx context.Context, inv *domain.Invoice) error {
	inv.SetDefaultStatus()

	bc, err := s.loadBillingContext(ctx, inv)
	if err != nil {
		return err
	}

	if ferrs, err := s.validate(ctx, inv, bc); err != nil {
		return err
	} else if !ferrs.Empty() {
		return ferrs
	}

	if inv.DueDate == nil {
		inv.DueDate = billing.DueDate(inv.BillingDate, bc.contract)
	}

	positions, err := s.positions.Build(ctx, inv)
	if err != nil {
		return err
	}
	billing.UpdateTotals(inv, positions)

	// The remote service wants a reference before the final one is
	// minted; the provisional one is recomputed under the lock below
	// and only then persisted.
	inv.Reference = billing.Reference(bc.client, bc.order, bc.department, bc.client.LastInvoiceNumber)

	if err := s.syncRemote(ctx, inv, positions); err != nil {
		return err
	}

	tx, err := s.uow.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	seq, err := tx.ClientSequence(ctx, bc.order.ClientID)
	if err != nil {
		return err
	}
	inv.Reference = billing.Reference(bc.client, bc.order, bc.department, seq)

	if err := tx.CreateInvoice(ctx, inv); err != nil {
		return err
	}
	if err := tx.IncrementClientSequence(ctx, bc.order.ClientID); err != nil {
		return err
	}
	if err := tx.AssignWorktimes(ctx, inv.ID, repository.FilterFor(inv)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit invoice: %w", err)
	}

	s.log.Info().
		Int64("invoice_id", inv.ID).
		Str("reference", inv.Reference).
		Str("total", inv.TotalAmount.StringFixed(2)).
		Msg("invoice created")
	return nil
}

func (s *invoiceService) Update(ctx context.Context, inv *domain.Invoice) error {
	inv.SetDefaultStatus()

	bc, err := s.loadBillingContext(ctx, inv)
	if err != nil {
		return err
	}

	if ferrs, err := s.validate(ctx, inv, bc); err != nil {
		return err
	} else if !ferrs.Empty() {
		return ferrs
	}

	if inv.DueDate == nil {
		inv.DueDate = billing.DueDate(inv.BillingDate, bc.contract)
	}

	positions, err := s.positions.Build(ctx, inv)
	if err != nil {
		return err
	}
	billing.UpdateTotals(inv, positions)

	if err := s.syncRemote(ctx, inv, positions); err != nil {
		return err
	}

	tx, err := s.uow.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := tx.UpdateInvoice(ctx, inv); err != nil {
		return err
	}
	if err := tx.AssignWorktimes(ctx, inv.ID, repository.FilterFor(inv)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit invoice: %w", err)
	}

	s.log.Info().
		Int64("invoice_id", inv.ID).
		Str("reference", inv.Reference).
		Msg("invoice updated")
	return nil
}

func (s *invoiceService) Destroy(ctx context.Context, id int64) error {
	tx, err := s.uow.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := tx.ReleaseWorktimes(ctx, id); err != nil {
		return err
	}
	if err := tx.DeleteInvoice(ctx, id); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit invoice deletion: %w", err)
	}

	s.log.Info().Int64("invoice_id", id).Msg("invoice destroyed")
	return nil
}

func (s *invoiceService) Get(ctx context.Context, id int64) (*domain.Invoice, error) {
	return s.invoices.GetByID(ctx, id)
}

func (s *invoiceService) List(ctx context.Context, orderID *int64, status *domain.InvoiceStatus) ([]*domain.Invoice, error) {
	return s.invoices.List(ctx, orderID, status)
}

func (s *invoiceService) Positions(ctx context.Context, inv *domain.Invoice) ([]billing.Position, error) {
	return s.positions.Build(ctx, inv)
}

func (s *invoiceService) CalculatedTotal(ctx context.Context, inv *domain.Invoice) (string, error) {
	positions, err := s.positions.Build(ctx, inv)
	if err != nil {
		return "", err
	}
	return billing.CalculatedTotalAmount(positions, inv.AddVAT, s.vatRate), nil
}

func (s *invoiceService) loadBillingContext(ctx context.Context, inv *domain.Invoice) (*billingContext, error) {
	order, err := s.orders.GetByID(ctx, inv.OrderID)
	if err != nil {
		return nil, err
	}

	client, err := s.clients.GetByID(ctx, order.ClientID)
	if err != nil {
		return nil, err
	}

	var contract *domain.Contract
	if order.ContractID != nil {
		contract, err = s.orders.GetContract(ctx, *order.ContractID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
	}

	department, err := s.orders.GetDepartment(ctx, order.DepartmentID)
	if err != nil {
		return nil, err
	}

	var address *domain.BillingAddress
	if inv.BillingAddressID != 0 {
		address, err = s.clients.GetBillingAddress(ctx, inv.BillingAddressID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
	}

	return &billingContext{
		order:      order,
		client:     client,
		contract:   contract,
		department: department,
		address:    address,
	}, nil
}

func (s *invoiceService) validate(ctx context.Context, inv *domain.Invoice, bc *billingContext) (domain.FieldErrors, error) {
	keyTaken := false
	if inv.InvoicingKey != "" {
		taken, err := s.invoices.InvoicingKeyTaken(ctx, inv.InvoicingKey, inv.ID)
		if err != nil {
			return nil, err
		}
		keyTaken = taken
	}
	return inv.Validate(bc.order, bc.contract, bc.address, keyTaken), nil
}

// syncRemote transmits the invoice to the external invoicing service.
// A remote failure is surfaced as a record-level validation error and
// aborts the save before anything is written locally.
func (s *invoiceService) syncRemote(ctx context.Context, inv *domain.Invoice, positions []billing.Position) error {
	key, err := s.remote.SaveInvoice(ctx, inv, positions)
	if err != nil {
		var remoteErr *invoicing.Error
		if errors.As(err, &remoteErr) {
			s.log.Warn().Str("reference", inv.Reference).Str("error", remoteErr.Message).
				Msg("remote invoicing failed")
			ferrs := domain.NewFieldErrors()
			ferrs.AddBase(fmt.Sprintf("Invoicing Service Error: %s", remoteErr.Message))
			return ferrs
		}
		return err
	}
	if key != "" {
		inv.InvoicingKey = key
	}
	return nil
}
