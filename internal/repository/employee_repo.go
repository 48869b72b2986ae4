package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/andy/timebill/internal/db"
	"github.com/andy/timebill/internal/domain"
)

// EmployeeRepo is a SQLite implementation of EmployeeRepository
type EmployeeRepo struct {
	db *db.DB
}

// NewEmployeeRepo creates a new EmployeeRepo
func NewEmployeeRepo(database *db.DB) *EmployeeRepo {
	return &EmployeeRepo{db: database}
}

// GetByID retrieves an employee by ID
func (r *EmployeeRepo) GetByID(ctx context.Context, id int64) (*domain.Employee, error) {
	query := `
		SELECT id, firstname, lastname, shortname
		FROM employees
		WHERE id = ?
	`

	employee := &domain.Employee{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&employee.ID,
		&employee.Firstname,
		&employee.Lastname,
		&employee.Shortname,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("employee %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get employee: %w", err)
	}

	return employee, nil
}

// List retrieves all employees ordered by lastname
func (r *EmployeeRepo) List(ctx context.Context) ([]*domain.Employee, error) {
	query := `
		SELECT id, firstname, lastname, shortname
		FROM employees
		ORDER BY lastname, firstname
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	defer rows.Close()

	employees := make([]*domain.Employee, 0)
	for rows.Next() {
		employee := &domain.Employee{}
		if err := rows.Scan(
			&employee.ID,
			&employee.Firstname,
			&employee.Lastname,
			&employee.Shortname,
		); err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		employees = append(employees, employee)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating employees: %w", err)
	}

	return employees, nil
}
