package plaid

import "context"

// ClientInterface lets the sync layer mock the feed in tests.
type ClientInterface interface {
	GetTransactions(ctx context.Context, accessToken, startDate, endDate string, count, offset int) (*TransactionsGetResponse, error)
	SyncTransactions(ctx context.Context, accessToken, cursor string, count int) (*TransactionsSyncResponse, error)
}
