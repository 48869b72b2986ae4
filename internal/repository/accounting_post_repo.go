package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/andy/timebill/internal/db"
	"github.com/andy/timebill/internal/domain"
)

// AccountingPostRepo is a SQLite implementation of AccountingPostRepository
type AccountingPostRepo struct {
	db *db.DB
}

// NewAccountingPostRepo creates a new AccountingPostRepo
func NewAccountingPostRepo(database *db.DB) *AccountingPostRepo {
	return &AccountingPostRepo{db: database}
}

// GetByWorkItemID retrieves the accounting post of a work item. A
// missing post is a data-integrity error reported as
// ErrMissingAccountingPost.
func (r *AccountingPostRepo) GetByWorkItemID(ctx context.Context, workItemID int64) (*domain.AccountingPost, error) {
	query := `
		SELECT id, work_item_id, name, offered_rate, billable
		FROM accounting_posts
		WHERE work_item_id = ?
	`

	post := &domain.AccountingPost{}
	var rate string

	err := r.db.QueryRowContext(ctx, query, workItemID).Scan(
		&post.ID,
		&post.WorkItemID,
		&post.Name,
		&rate,
		&post.Billable,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("work item %d: %w", workItemID, ErrMissingAccountingPost)
		}
		return nil, fmt.Errorf("failed to get accounting post: %w", err)
	}

	if post.OfferedRate, err = decimal.NewFromString(rate); err != nil {
		return nil, fmt.Errorf("failed to parse offered_rate: %w", err)
	}

	return post, nil
}
