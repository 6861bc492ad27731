package account

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var ErrAccountNotFound = errors.New("account not found")

// Account mirrors one bank/brokerage account under an item. The ID is the
// provider's stable account id. Name is user-editable and survives re-syncs;
// everything else is refreshed from the feed.
type Account struct {
	ID               string           `json:"id"`
	ItemID           string           `json:"itemId"`
	Name             string           `json:"name"`
	OfficialName     *string          `json:"officialName,omitempty"`
	AccountType      string           `json:"type"`
	Subtype          *string          `json:"subtype,omitempty"`
	Mask             *string          `json:"mask,omitempty"`
	CurrentBalance   decimal.Decimal  `json:"currentBalance"`
	AvailableBalance *decimal.Decimal `json:"availableBalance,omitempty"`
	CreditLimit      *decimal.Decimal `json:"creditLimit,omitempty"`
	Currency         *string          `json:"currency,omitempty"`
	CreatedAt        time.Time        `json:"createdAt"`
	UpdatedAt        time.Time        `json:"updatedAt"`
}

// UpsertParams carries the feed snapshot for one account. Name is only
// applied when the row is first created.
type UpsertParams struct {
	ID               string
	ItemID           string
	Name             string
	OfficialName     *string
	AccountType      string
	Subtype          *string
	Mask             *string
	CurrentBalance   decimal.Decimal
	AvailableBalance *decimal.Decimal
	CreditLimit      *decimal.Decimal
	Currency         *string
}
