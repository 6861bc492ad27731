package transaction

import "context"

// Repository is the persistence contract for transactions.
type Repository interface {
	// GetByID returns (nil, nil) when no row exists.
	GetByID(ctx context.Context, id string) (*Transaction, error)
	ListByAccountID(ctx context.Context, accountID string, limit, offset int) ([]*Transaction, error)
	ListChildren(ctx context.Context, parentID string) ([]*Transaction, error)

	// Upsert inserts or refreshes a transaction by its provider id. On
	// conflict only feed-owned fields are updated; user categorization,
	// notes, and split linkage are preserved.
	Upsert(ctx context.Context, params UpsertParams) (*Transaction, error)

	// UpdateFeedFields updates feed-owned fields on an existing row without
	// touching categorization, notes, or split linkage.
	UpdateFeedFields(ctx context.Context, id string, params FeedUpdateParams) (*Transaction, error)

	// UpdateUserFields applies user edits (category, notes).
	UpdateUserFields(ctx context.Context, id string, params UserUpdateParams) (*Transaction, error)

	// DeleteRemoved deletes the rows whose ids appear in the removed set,
	// skipping split parents (is_split = true) and split children
	// (parent_transaction_id set). Returns the number of rows actually
	// deleted, which may be less than len(ids).
	DeleteRemoved(ctx context.Context, ids []string) (int64, error)

	// Split support.
	InsertChild(ctx context.Context, params CreateChildParams) (*Transaction, error)
	MarkSplit(ctx context.Context, id string) error
}
