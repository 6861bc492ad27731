package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"centavo/internal/domain/item"
)

const itemColumns = `
	id, access_token, institution_name, sync_cursor, status, last_sync_at,
	created_at, updated_at`

type ItemRepository struct {
	db *DB
}

func NewItemRepository(db *DB) *ItemRepository {
	return &ItemRepository{db: db}
}

var _ item.Repository = (*ItemRepository)(nil)

func scanItem(s rowScanner) (*item.Item, error) {
	var it item.Item
	err := s.Scan(
		&it.ID, &it.AccessToken, &it.InstitutionName, &it.SyncCursor,
		&it.Status, &it.LastSyncAt, &it.CreatedAt, &it.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &it, nil
}

func (r *ItemRepository) Create(ctx context.Context, params item.CreateParams) (*item.Item, error) {
	query := `
		INSERT INTO items (id, access_token, institution_name, status)
		VALUES ($1, $2, $3, $4)
		RETURNING` + itemColumns

	it, err := scanItem(r.db.QueryRowContext(
		ctx, query,
		params.ID, params.AccessToken, params.InstitutionName, item.StatusGood,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create item: %w", err)
	}

	return it, nil
}

func (r *ItemRepository) GetByID(ctx context.Context, id string) (*item.Item, error) {
	query := `SELECT` + itemColumns + `
		FROM items
		WHERE id = $1
	`

	it, err := scanItem(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, item.ErrItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}

	return it, nil
}

func (r *ItemRepository) List(ctx context.Context) ([]*item.Item, error) {
	query := `SELECT` + itemColumns + `
		FROM items
		ORDER BY created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer rows.Close()

	var items []*item.Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, it)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating items: %w", err)
	}

	return items, nil
}

// UpdateCursor stores the cursor of a completed sync pass and stamps
// last_sync_at.
func (r *ItemRepository) UpdateCursor(ctx context.Context, id string, cursor string) error {
	query := `
		UPDATE items
		SET sync_cursor = $1,
		    last_sync_at = CURRENT_TIMESTAMP,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = $2
	`

	result, err := r.db.ExecContext(ctx, query, cursor, id)
	if err != nil {
		return fmt.Errorf("failed to update item cursor: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return item.ErrItemNotFound
	}

	return nil
}

func (r *ItemRepository) UpdateStatus(ctx context.Context, id string, status string) error {
	query := `
		UPDATE items
		SET status = $1,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = $2
	`

	result, err := r.db.ExecContext(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("failed to update item status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return item.ErrItemNotFound
	}

	return nil
}

func (r *ItemRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM items WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return item.ErrItemNotFound
	}

	return nil
}
