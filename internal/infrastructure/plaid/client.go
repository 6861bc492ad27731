package plaid

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

const (
	defaultBaseURL   = "https://sandbox.plaid.com"
	defaultTimeout   = 120 * time.Second
	transactionsPath = "/transactions/get"
	syncPath         = "/transactions/sync"
)

// Error codes the sync layer reacts to.
const ErrorCodeItemLoginRequired = "ITEM_LOGIN_REQUIRED"

// Client handles communication with the Plaid API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	clientID   string
	secret     string
}

// Ensure Client implements ClientInterface
var _ ClientInterface = (*Client)(nil)

// NewClient creates a new Plaid API client.
func NewClient(baseURL, clientID, secret string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		baseURL:  baseURL,
		clientID: clientID,
		secret:   secret,
	}
}

// Account is an account snapshot from the feed.
type Account struct {
	AccountID    string   `json:"account_id"`
	Name         string   `json:"name"`
	OfficialName *string  `json:"official_name"`
	Type         string   `json:"type"`
	Subtype      *string  `json:"subtype"`
	Mask         *string  `json:"mask"`
	Balances     Balances `json:"balances"`
}

// Balances carries an account's balance snapshot. All fields are nullable in
// the feed and stay nullable here.
type Balances struct {
	Available       *decimal.Decimal `json:"available"`
	Current         *decimal.Decimal `json:"current"`
	Limit           *decimal.Decimal `json:"limit"`
	ISOCurrencyCode *string          `json:"iso_currency_code"`
}

// Transaction is one ledger entry from the feed. Amount follows the feed's
// convention: positive = money leaving the account.
type Transaction struct {
	TransactionID           string                   `json:"transaction_id"`
	AccountID               string                   `json:"account_id"`
	Amount                  decimal.Decimal          `json:"amount"`
	ISOCurrencyCode         *string                  `json:"iso_currency_code"`
	Date                    string                   `json:"date"` // YYYY-MM-DD
	AuthorizedDate          *string                  `json:"authorized_date"`
	Name                    string                   `json:"name"`
	MerchantName            *string                  `json:"merchant_name"`
	LogoURL                 *string                  `json:"logo_url"`
	Pending                 bool                     `json:"pending"`
	PendingTransactionID    *string                  `json:"pending_transaction_id"`
	PersonalFinanceCategory *PersonalFinanceCategory `json:"personal_finance_category"`
}

// PersonalFinanceCategory is the feed's own categorization of a transaction.
type PersonalFinanceCategory struct {
	Primary  string  `json:"primary"`
	Detailed string  `json:"detailed"`
	IconURL  *string `json:"icon_url"`
}

// GetDate parses the transaction date.
func (t *Transaction) GetDate() (time.Time, error) {
	parsed, err := time.Parse("2006-01-02", t.Date)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse date '%s': %w", t.Date, err)
	}
	return parsed, nil
}

// GetAuthorizedDate parses the authorized date if present.
func (t *Transaction) GetAuthorizedDate() (*time.Time, error) {
	if t.AuthorizedDate == nil || *t.AuthorizedDate == "" {
		return nil, nil
	}
	parsed, err := time.Parse("2006-01-02", *t.AuthorizedDate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse authorized_date '%s': %w", *t.AuthorizedDate, err)
	}
	return &parsed, nil
}

// RemovedTransaction identifies a transaction the feed has deleted.
type RemovedTransaction struct {
	TransactionID string `json:"transaction_id"`
}

type transactionsGetRequest struct {
	ClientID    string                 `json:"client_id"`
	Secret      string                 `json:"secret"`
	AccessToken string                 `json:"access_token"`
	StartDate   string                 `json:"start_date"`
	EndDate     string                 `json:"end_date"`
	Options     transactionsGetOptions `json:"options"`
}

type transactionsGetOptions struct {
	Count  int `json:"count"`
	Offset int `json:"offset"`
}

// TransactionsGetResponse is the bulk-list response.
type TransactionsGetResponse struct {
	Accounts          []Account     `json:"accounts"`
	Transactions      []Transaction `json:"transactions"`
	TotalTransactions int           `json:"total_transactions"`
	RequestID         string        `json:"request_id"`
}

type transactionsSyncRequest struct {
	ClientID    string `json:"client_id"`
	Secret      string `json:"secret"`
	AccessToken string `json:"access_token"`
	Cursor      string `json:"cursor,omitempty"`
	Count       int    `json:"count"`
}

// TransactionsSyncResponse is one page of the cursor delta stream.
type TransactionsSyncResponse struct {
	Added      []Transaction        `json:"added"`
	Modified   []Transaction        `json:"modified"`
	Removed    []RemovedTransaction `json:"removed"`
	Accounts   []Account            `json:"accounts"`
	NextCursor string               `json:"next_cursor"`
	HasMore    bool                 `json:"has_more"`
	RequestID  string               `json:"request_id"`
}

// APIError is a structured error response from the feed.
type APIError struct {
	StatusCode   int    `json:"-"`
	ErrorType    string `json:"error_type"`
	ErrorCode    string `json:"error_code"`
	ErrorMessage string `json:"error_message"`
	RequestID    string `json:"request_id"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("plaid API error (status %d): %s - %s", e.StatusCode, e.ErrorCode, e.ErrorMessage)
}

// IsLoginRequired reports whether the item's access token was rejected and
// the user has to re-link the connection.
func (e *APIError) IsLoginRequired() bool {
	return e.ErrorCode == ErrorCodeItemLoginRequired
}

// GetTransactions fetches one page of the historical transaction listing.
func (c *Client) GetTransactions(ctx context.Context, accessToken, startDate, endDate string, count, offset int) (*TransactionsGetResponse, error) {
	req := transactionsGetRequest{
		ClientID:    c.clientID,
		Secret:      c.secret,
		AccessToken: accessToken,
		StartDate:   startDate,
		EndDate:     endDate,
		Options: transactionsGetOptions{
			Count:  count,
			Offset: offset,
		},
	}

	var resp TransactionsGetResponse
	if err := c.post(ctx, transactionsPath, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SyncTransactions fetches one page of the delta stream. An empty cursor
// starts the stream from the beginning of the feed's retained history.
func (c *Client) SyncTransactions(ctx context.Context, accessToken, cursor string, count int) (*TransactionsSyncResponse, error) {
	req := transactionsSyncRequest{
		ClientID:    c.clientID,
		Secret:      c.secret,
		AccessToken: accessToken,
		Cursor:      cursor,
		Count:       count,
	}

	var resp TransactionsSyncResponse
	if err := c.post(ctx, syncPath, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) post(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if err := json.Unmarshal(respBody, apiErr); err != nil {
			return fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(respBody))
		}
		return apiErr
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return nil
}
