package item

import "context"

// Repository is the persistence contract for items.
type Repository interface {
	Create(ctx context.Context, params CreateParams) (*Item, error)
	GetByID(ctx context.Context, id string) (*Item, error)
	List(ctx context.Context) ([]*Item, error)
	// UpdateCursor persists the cursor returned by a completed sync pass.
	UpdateCursor(ctx context.Context, id string, cursor string) error
	UpdateStatus(ctx context.Context, id string, status string) error
	Delete(ctx context.Context, id string) error
}
