package transaction

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrAlreadySplit        = errors.New("transaction is already split")
	ErrSplitChild          = errors.New("cannot split a split child")
	ErrSplitAmountMismatch = errors.New("split amounts must sum to the parent amount")
	ErrTooFewSplitParts    = errors.New("a split needs at least two parts")
)

// Transaction is one ledger entry. The ID is the provider's transaction id
// for synced rows and a generated uuid for split children. Amount follows
// the display convention: negative = expense, positive = income.
type Transaction struct {
	ID                   string           `json:"id"`
	AccountID            string           `json:"accountId"`
	Amount               decimal.Decimal  `json:"amount"`
	Currency             *string          `json:"currency,omitempty"`
	Date                 time.Time        `json:"date"`
	AuthorizedDate       *time.Time       `json:"authorizedDate,omitempty"`
	Name                 string           `json:"name"`
	MerchantName         *string          `json:"merchantName,omitempty"`
	LogoURL              *string          `json:"logoUrl,omitempty"`
	Pending              bool             `json:"pending"`
	PendingTransactionID *string          `json:"pendingTransactionId,omitempty"`

	// Raw feed categorization.
	FeedCategory    *string `json:"feedCategory,omitempty"`
	FeedSubcategory *string `json:"feedSubcategory,omitempty"`
	CategoryIconURL *string `json:"categoryIconUrl,omitempty"`

	// Local user categorization; never touched by the sync engine.
	CategoryID    *string `json:"categoryId,omitempty"`
	SubcategoryID *string `json:"subcategoryId,omitempty"`
	Notes         *string `json:"notes,omitempty"`

	// Split linkage. A parent with IsSplit = true is never deleted by a
	// remote removal, and children (ParentTransactionID set) have no
	// remote counterpart at all.
	IsSplit             bool    `json:"isSplit"`
	ParentTransactionID *string `json:"parentTransactionId,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// UpsertParams carries the feed image of a transaction. All nullable feed
// fields stay pointers so a null from the provider is stored as NULL rather
// than coerced to a zero value.
type UpsertParams struct {
	ID                   string
	AccountID            string
	Amount               decimal.Decimal
	Currency             *string
	Date                 time.Time
	AuthorizedDate       *time.Time
	Name                 string
	MerchantName         *string
	LogoURL              *string
	Pending              bool
	PendingTransactionID *string
	FeedCategory         *string
	FeedSubcategory      *string
	CategoryIconURL      *string
}

// FeedUpdateParams updates feed-owned fields only. Used for rows flagged
// IsSplit, where a full upsert would be allowed to touch nothing but what
// the feed actually owns.
type FeedUpdateParams struct {
	Amount               decimal.Decimal
	Currency             *string
	Date                 time.Time
	AuthorizedDate       *time.Time
	Name                 string
	MerchantName         *string
	Pending              bool
	PendingTransactionID *string
}

// UserUpdateParams applies user edits; nil fields are left unchanged.
type UserUpdateParams struct {
	CategoryID    *string
	SubcategoryID *string
	Notes         *string
}

// CreateChildParams inserts one split child.
type CreateChildParams struct {
	ID                  string
	AccountID           string
	ParentTransactionID string
	Amount              decimal.Decimal
	Currency            *string
	Date                time.Time
	Name                string
	CategoryID          *string
	SubcategoryID       *string
	Notes               *string
}

// SplitPart describes one piece of a requested split.
type SplitPart struct {
	Amount        decimal.Decimal `json:"amount"`
	Name          *string         `json:"name,omitempty"`
	CategoryID    *string         `json:"categoryId,omitempty"`
	SubcategoryID *string         `json:"subcategoryId,omitempty"`
	Notes         *string         `json:"notes,omitempty"`
}
