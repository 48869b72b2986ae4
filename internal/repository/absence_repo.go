package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/andy/timebill/internal/db"
	"github.com/andy/timebill/internal/domain"
)

// AbsenceRepo is a SQLite implementation of AbsenceRepository
type AbsenceRepo struct {
	db *db.DB
}

// NewAbsenceRepo creates a new AbsenceRepo
func NewAbsenceRepo(database *db.DB) *AbsenceRepo {
	return &AbsenceRepo{db: database}
}

// Create inserts a new absence
func (r *AbsenceRepo) Create(ctx context.Context, a *domain.Absence) error {
	result, err := r.db.ExecContext(ctx,
		"INSERT INTO absences (name, payed, vacation) VALUES (?, ?, ?)",
		a.Name, a.Payed, a.Vacation)
	if err != nil {
		return fmt.Errorf("failed to create absence: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get absence ID: %w", err)
	}
	a.ID = id
	return nil
}

// GetByID retrieves an absence by ID
func (r *AbsenceRepo) GetByID(ctx context.Context, id int64) (*domain.Absence, error) {
	absence := &domain.Absence{}
	err := r.db.QueryRowContext(ctx,
		"SELECT id, name, payed, vacation FROM absences WHERE id = ?", id).Scan(
		&absence.ID,
		&absence.Name,
		&absence.Payed,
		&absence.Vacation,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("absence %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get absence: %w", err)
	}
	return absence, nil
}

// List retrieves all absences ordered by name
func (r *AbsenceRepo) List(ctx context.Context) ([]*domain.Absence, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, name, payed, vacation FROM absences ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to list absences: %w", err)
	}
	defer rows.Close()

	absences := make([]*domain.Absence, 0)
	for rows.Next() {
		absence := &domain.Absence{}
		if err := rows.Scan(
			&absence.ID,
			&absence.Name,
			&absence.Payed,
			&absence.Vacation,
		); err != nil {
			return nil, fmt.Errorf("failed to scan absence: %w", err)
		}
		absences = append(absences, absence)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating absences: %w", err)
	}
	return absences, nil
}

// Delete removes an absence. The built-in vacation absence is refused
// outright.
func (r *AbsenceRepo) Delete(ctx context.Context, id int64) error {
	if id == domain.VacationAbsenceID {
		return fmt.Errorf("vacation absence: %w", domain.ErrProtectedRecord)
	}

	result, err := r.db.ExecContext(ctx, "DELETE FROM absences WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete absence: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("absence %d: %w", id, ErrNotFound)
	}
	return nil
}
