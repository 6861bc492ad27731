package account

import "context"

// Repository is the persistence contract for accounts.
type Repository interface {
	GetByID(ctx context.Context, id string) (*Account, error)
	ListByItemID(ctx context.Context, itemID string) ([]*Account, error)
	List(ctx context.Context) ([]*Account, error)
	// Upsert inserts or refreshes an account by its provider id. On update
	// the stored display name is preserved; Name from params is only used
	// on initial creation so user renames are not clobbered by the feed.
	Upsert(ctx context.Context, params UpsertParams) (*Account, error)
	// UpdateName applies a user-initiated rename.
	UpdateName(ctx context.Context, id string, name string) (*Account, error)
}
