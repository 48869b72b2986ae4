package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/andy/timebill/internal/db"
	"github.com/andy/timebill/internal/domain"
)

// ClientRepo is a SQLite implementation of ClientRepository
type ClientRepo struct {
	db *db.DB
}

// NewClientRepo creates a new ClientRepo
func NewClientRepo(database *db.DB) *ClientRepo {
	return &ClientRepo{db: database}
}

// GetByID retrieves a client by ID
func (r *ClientRepo) GetByID(ctx context.Context, id int64) (*domain.Client, error) {
	query := `
		SELECT id, name, shortname, last_invoice_number, created_at, updated_at
		FROM clients
		WHERE id = ?
	`

	client := &domain.Client{}
	var createdAt, updatedAt string

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&client.ID,
		&client.Name,
		&client.Shortname,
		&client.LastInvoiceNumber,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("client %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get client: %w", err)
	}

	if client.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if client.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("failed to parse updated_at: %w", err)
	}

	return client, nil
}

// List retrieves all clients ordered by name
func (r *ClientRepo) List(ctx context.Context) ([]*domain.Client, error) {
	query := `
		SELECT id, name, shortname, last_invoice_number, created_at, updated_at
		FROM clients
		ORDER BY name
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	defer rows.Close()

	clients := make([]*domain.Client, 0)
	for rows.Next() {
		client := &domain.Client{}
		var createdAt, updatedAt string

		err := rows.Scan(
			&client.ID,
			&client.Name,
			&client.Shortname,
			&client.LastInvoiceNumber,
			&createdAt,
			&updatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan client: %w", err)
		}

		if client.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("failed to parse created_at: %w", err)
		}
		if client.UpdatedAt, err = parseTime(updatedAt); err != nil {
			return nil, fmt.Errorf("failed to parse updated_at: %w", err)
		}

		clients = append(clients, client)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating clients: %w", err)
	}

	return clients, nil
}

// GetBillingAddress retrieves a billing address by ID
func (r *ClientRepo) GetBillingAddress(ctx context.Context, id int64) (*domain.BillingAddress, error) {
	query := `
		SELECT id, client_id, street, zip, town
		FROM billing_addresses
		WHERE id = ?
	`

	address := &domain.BillingAddress{}
	var street, zip, town sql.NullString

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&address.ID,
		&address.ClientID,
		&street,
		&zip,
		&town,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("billing address %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get billing address: %w", err)
	}

	address.Street = street.String
	address.Zip = zip.String
	address.Town = town.String

	return address, nil
}
