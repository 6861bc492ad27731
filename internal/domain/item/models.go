package item

import (
	"errors"
	"time"
)

// Item statuses. An item flips to StatusLoginRequired when the provider
// rejects its access token; the user has to re-link the connection.
const (
	StatusGood          = "good"
	StatusLoginRequired = "login_required"
)

var ErrItemNotFound = errors.New("item not found")

// Item represents one linked connection with a financial institution.
// One item carries one access token and one or more accounts.
type Item struct {
	ID              string     `json:"id"`
	AccessToken     string     `json:"-"`
	InstitutionName *string    `json:"institutionName,omitempty"`
	// SyncCursor is the provider's delta cursor. Nil means the item has
	// never been synced and needs a historical backfill first.
	SyncCursor *string   `json:"-"`
	Status     string    `json:"status"`
	LastSyncAt *time.Time `json:"lastSyncAt,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// CreateParams holds the fields required to link a new item.
type CreateParams struct {
	ID              string
	AccessToken     string
	InstitutionName *string
}
