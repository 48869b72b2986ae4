package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/andy/timebill/internal/db"
	"github.com/andy/timebill/internal/domain"
)

// OrderRepo is a SQLite implementation of OrderRepository
type OrderRepo struct {
	db *db.DB
}

// NewOrderRepo creates a new OrderRepo
func NewOrderRepo(database *db.DB) *OrderRepo {
	return &OrderRepo{db: database}
}

// GetByID retrieves an order by ID
func (r *OrderRepo) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	query := `
		SELECT id, name, shortname, client_id, department_id, contract_id, created_at, updated_at
		FROM orders
		WHERE id = ?
	`

	order := &domain.Order{}
	var contractID sql.NullInt64
	var createdAt, updatedAt string

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&order.ID,
		&order.Name,
		&order.Shortname,
		&order.ClientID,
		&order.DepartmentID,
		&contractID,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("order %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	if contractID.Valid {
		order.ContractID = &contractID.Int64
	}
	if order.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if order.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("failed to parse updated_at: %w", err)
	}

	return order, nil
}

// GetContract retrieves a contract by ID
func (r *OrderRepo) GetContract(ctx context.Context, id int64) (*domain.Contract, error) {
	query := `
		SELECT id, number, payment_period, reference
		FROM contracts
		WHERE id = ?
	`

	contract := &domain.Contract{}
	var number, reference sql.NullString

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&contract.ID,
		&number,
		&contract.PaymentPeriod,
		&reference,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("contract %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get contract: %w", err)
	}

	contract.Number = number.String
	contract.Reference = reference.String

	return contract, nil
}

// GetDepartment retrieves a department by ID
func (r *OrderRepo) GetDepartment(ctx context.Context, id int64) (*domain.Department, error) {
	query := `
		SELECT id, name, shortname
		FROM departments
		WHERE id = ?
	`

	department := &domain.Department{}

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&department.ID,
		&department.Name,
		&department.Shortname,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("department %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get department: %w", err)
	}

	return department, nil
}
