package notification

import "context"

// Repository is the persistence contract for device tokens.
type Repository interface {
	Register(ctx context.Context, token string) error
	ListActiveTokens(ctx context.Context) ([]string, error)
	Deactivate(ctx context.Context, token string) error
}
