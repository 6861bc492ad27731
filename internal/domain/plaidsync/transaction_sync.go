// Package plaidsync reconciles locally stored accounts and transactions
// with the provider's transaction feed.
package plaidsync

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"centavo/internal/domain/account"
	"centavo/internal/domain/notification"
	"centavo/internal/domain/transaction"
	"centavo/internal/infrastructure/plaid"
)

// feedPageSize is the page size used for both the historical listing and
// the delta stream.
const feedPageSize = 500

// SyncStats accumulates counts across all pages of one sync call.
type SyncStats struct {
	AccountsUpdated      int      `json:"accountsUpdated"`
	TransactionsAdded    int      `json:"transactionsAdded"`
	TransactionsModified int      `json:"transactionsModified"`
	TransactionsRemoved  int      `json:"transactionsRemoved"`
	SignChanges          int      `json:"signChanges"`
	NewTransactionIDs    []string `json:"newTransactionIds"`
}

// SyncResult is the outcome of one sync call. NewCursor must be persisted
// by the caller; the engine itself never writes cursors.
type SyncResult struct {
	ItemID    string    `json:"itemId"`
	Stats     SyncStats `json:"stats"`
	NewCursor string    `json:"newCursor"`
}

// TransactionSyncEngine runs the two-phase sync against the feed: a one-time
// historical backfill when no cursor exists yet, then the cursor delta
// stream. Writes are committed as they happen with no enclosing database
// transaction; a retry from the same cursor is safe because every write is
// idempotent by external id.
type TransactionSyncEngine struct {
	client            plaid.ClientInterface
	accountRepo       account.Repository
	transactionRepo   transaction.Repository
	notifications     *notification.Service
	backfillStartDate string
}

// NewTransactionSyncEngine creates a sync engine. notifications may be nil.
func NewTransactionSyncEngine(
	client plaid.ClientInterface,
	accountRepo account.Repository,
	transactionRepo transaction.Repository,
	notifications *notification.Service,
	backfillStartDate string,
) *TransactionSyncEngine {
	return &TransactionSyncEngine{
		client:            client,
		accountRepo:       accountRepo,
		transactionRepo:   transactionRepo,
		notifications:     notifications,
		backfillStartDate: backfillStartDate,
	}
}

// SyncItemTransactions reconciles local state with the feed for one item.
// A nil lastCursor triggers the historical backfill before the delta phase.
// Errors abort the call immediately: pages already applied stand, and the
// caller retries from the cursor it last persisted.
func (e *TransactionSyncEngine) SyncItemTransactions(ctx context.Context, itemID, accessToken string, lastCursor *string) (*SyncResult, error) {
	result := &SyncResult{ItemID: itemID}

	if lastCursor == nil {
		log.Printf("Item %s: no cursor, running historical backfill", itemID)
		if err := e.backfill(ctx, accessToken, &result.Stats); err != nil {
			return nil, fmt.Errorf("historical backfill failed: %w", err)
		}
	}

	cursor := ""
	if lastCursor != nil {
		cursor = *lastCursor
	}

	// Pages are applied strictly in order: a page's cursor is only used
	// after its writes have been committed.
	for {
		page, err := e.client.SyncTransactions(ctx, accessToken, cursor, feedPageSize)
		if err != nil {
			return nil, fmt.Errorf("delta sync failed: %w", err)
		}

		if err := e.applyAccounts(ctx, itemID, page.Accounts, &result.Stats); err != nil {
			return nil, err
		}
		if err := e.applyAdded(ctx, page.Added, &result.Stats); err != nil {
			return nil, err
		}
		if err := e.applyModified(ctx, page.Modified, &result.Stats); err != nil {
			return nil, err
		}
		if err := e.applyRemoved(ctx, page.Removed, &result.Stats); err != nil {
			return nil, err
		}

		cursor = page.NextCursor
		if !page.HasMore {
			break
		}
	}

	result.NewCursor = cursor

	log.Printf("Item %s: sync complete - accounts=%d, added=%d, modified=%d, removed=%d, signChanges=%d",
		itemID, result.Stats.AccountsUpdated, result.Stats.TransactionsAdded,
		result.Stats.TransactionsModified, result.Stats.TransactionsRemoved, result.Stats.SignChanges)

	return result, nil
}

// backfill pages through the feed's bulk listing from the configured start
// date to today. It never produces a cursor; the delta phase that always
// follows yields the first one.
func (e *TransactionSyncEngine) backfill(ctx context.Context, accessToken string, stats *SyncStats) error {
	startDate := e.backfillStartDate
	endDate := time.Now().Format("2006-01-02")

	offset := 0
	fetched := 0
	for {
		page, err := e.client.GetTransactions(ctx, accessToken, startDate, endDate, feedPageSize, offset)
		if err != nil {
			return err
		}

		for i := range page.Transactions {
			apiTx := &page.Transactions[i]

			existing, err := e.transactionRepo.GetByID(ctx, apiTx.TransactionID)
			if err != nil {
				return fmt.Errorf("failed to check transaction %s: %w", apiTx.TransactionID, err)
			}
			if existing != nil {
				continue
			}

			params, err := buildUpsertParams(apiTx)
			if err != nil {
				return err
			}
			if _, err := e.transactionRepo.Upsert(ctx, params); err != nil {
				return fmt.Errorf("failed to upsert transaction %s: %w", apiTx.TransactionID, err)
			}

			stats.TransactionsAdded++
			stats.NewTransactionIDs = append(stats.NewTransactionIDs, apiTx.TransactionID)
		}

		fetched += len(page.Transactions)
		if fetched >= page.TotalTransactions || len(page.Transactions) == 0 {
			break
		}
		offset += feedPageSize
	}

	log.Printf("Backfill fetched %d transactions", fetched)
	return nil
}

// applyAccounts upserts the page's account snapshot. The repository
// preserves the stored display name on existing rows, so a user rename
// survives every re-sync.
func (e *TransactionSyncEngine) applyAccounts(ctx context.Context, itemID string, accounts []plaid.Account, stats *SyncStats) error {
	for i := range accounts {
		apiAcc := &accounts[i]

		current := decimal.Zero
		if apiAcc.Balances.Current != nil {
			current = *apiAcc.Balances.Current
		}

		params := account.UpsertParams{
			ID:               apiAcc.AccountID,
			ItemID:           itemID,
			Name:             apiAcc.Name,
			OfficialName:     apiAcc.OfficialName,
			AccountType:      apiAcc.Type,
			Subtype:          apiAcc.Subtype,
			Mask:             apiAcc.Mask,
			CurrentBalance:   current,
			AvailableBalance: apiAcc.Balances.Available,
			CreditLimit:      apiAcc.Balances.Limit,
			Currency:         apiAcc.Balances.ISOCurrencyCode,
		}

		if _, err := e.accountRepo.Upsert(ctx, params); err != nil {
			return fmt.Errorf("failed to upsert account %s: %w", apiAcc.AccountID, err)
		}
		stats.AccountsUpdated++
	}
	return nil
}

// applyAdded upserts added records. The upsert is idempotent by external id,
// so records already present (e.g. from the backfill) are safe; they just
// don't count as added.
func (e *TransactionSyncEngine) applyAdded(ctx context.Context, added []plaid.Transaction, stats *SyncStats) error {
	for i := range added {
		apiTx := &added[i]

		existing, err := e.transactionRepo.GetByID(ctx, apiTx.TransactionID)
		if err != nil {
			return fmt.Errorf("failed to check transaction %s: %w", apiTx.TransactionID, err)
		}

		params, err := buildUpsertParams(apiTx)
		if err != nil {
			return err
		}
		if _, err := e.transactionRepo.Upsert(ctx, params); err != nil {
			return fmt.Errorf("failed to upsert transaction %s: %w", apiTx.TransactionID, err)
		}

		if existing == nil {
			stats.TransactionsAdded++
			stats.NewTransactionIDs = append(stats.NewTransactionIDs, apiTx.TransactionID)
		}
	}
	return nil
}

// applyModified applies feed modifications. Rows already split by the user
// only receive feed-owned fields so the split linkage and local
// categorization stay intact. A sign flip between the stored and incoming
// amount is recorded and alerted but never blocks the update.
func (e *TransactionSyncEngine) applyModified(ctx context.Context, modified []plaid.Transaction, stats *SyncStats) error {
	for i := range modified {
		apiTx := &modified[i]

		existing, err := e.transactionRepo.GetByID(ctx, apiTx.TransactionID)
		if err != nil {
			return fmt.Errorf("failed to check transaction %s: %w", apiTx.TransactionID, err)
		}

		incoming := displayAmount(apiTx.Amount)
		if existing != nil && isSignChange(existing.Amount, incoming) {
			stats.SignChanges++
			log.Printf("Sign change on transaction %s: stored %s, incoming %s",
				apiTx.TransactionID, existing.Amount.String(), incoming.String())
			e.notifications.SendSignChangeAlert(ctx, apiTx.TransactionID, apiTx.Name)
		}

		if existing != nil && existing.IsSplit {
			date, err := apiTx.GetDate()
			if err != nil {
				return err
			}
			authorizedDate, err := apiTx.GetAuthorizedDate()
			if err != nil {
				return err
			}

			_, err = e.transactionRepo.UpdateFeedFields(ctx, apiTx.TransactionID, transaction.FeedUpdateParams{
				Amount:               incoming,
				Currency:             apiTx.ISOCurrencyCode,
				Date:                 date,
				AuthorizedDate:       authorizedDate,
				Name:                 apiTx.Name,
				MerchantName:         apiTx.MerchantName,
				Pending:              apiTx.Pending,
				PendingTransactionID: apiTx.PendingTransactionID,
			})
			if err != nil {
				return fmt.Errorf("failed to update split transaction %s: %w", apiTx.TransactionID, err)
			}
		} else {
			params, err := buildUpsertParams(apiTx)
			if err != nil {
				return err
			}
			if _, err := e.transactionRepo.Upsert(ctx, params); err != nil {
				return fmt.Errorf("failed to update transaction %s: %w", apiTx.TransactionID, err)
			}
		}

		stats.TransactionsModified++
	}
	return nil
}

// applyRemoved deletes the page's removed set in one batch. The repository
// skips split parents and split children, so the count of rows actually
// deleted can be lower than the count the feed reported.
func (e *TransactionSyncEngine) applyRemoved(ctx context.Context, removed []plaid.RemovedTransaction, stats *SyncStats) error {
	if len(removed) == 0 {
		return nil
	}

	ids := make([]string, 0, len(removed))
	for _, r := range removed {
		ids = append(ids, r.TransactionID)
	}

	deleted, err := e.transactionRepo.DeleteRemoved(ctx, ids)
	if err != nil {
		return fmt.Errorf("failed to delete removed transactions: %w", err)
	}
	if int(deleted) < len(ids) {
		log.Printf("Removed %d of %d reported transactions (split-linked rows skipped)", deleted, len(ids))
	}

	stats.TransactionsRemoved += int(deleted)
	return nil
}

// buildUpsertParams maps a feed transaction onto upsert parameters. Nullable
// feed fields pass through as nil untouched.
func buildUpsertParams(apiTx *plaid.Transaction) (transaction.UpsertParams, error) {
	date, err := apiTx.GetDate()
	if err != nil {
		return transaction.UpsertParams{}, err
	}
	authorizedDate, err := apiTx.GetAuthorizedDate()
	if err != nil {
		return transaction.UpsertParams{}, err
	}

	params := transaction.UpsertParams{
		ID:                   apiTx.TransactionID,
		AccountID:            apiTx.AccountID,
		Amount:               displayAmount(apiTx.Amount),
		Currency:             apiTx.ISOCurrencyCode,
		Date:                 date,
		AuthorizedDate:       authorizedDate,
		Name:                 apiTx.Name,
		MerchantName:         apiTx.MerchantName,
		LogoURL:              apiTx.LogoURL,
		Pending:              apiTx.Pending,
		PendingTransactionID: apiTx.PendingTransactionID,
	}

	if pfc := apiTx.PersonalFinanceCategory; pfc != nil {
		params.FeedCategory = &pfc.Primary
		params.FeedSubcategory = &pfc.Detailed
		params.CategoryIconURL = pfc.IconURL
	}

	return params, nil
}

// displayAmount converts the feed convention (positive = money out) to the
// display convention (negative = expense, positive = income).
func displayAmount(feed decimal.Decimal) decimal.Decimal {
	return feed.Neg()
}

// isSignChange reports whether the stored and incoming amounts sit on
// opposite sides of zero. Zero amounts never count as a sign change.
func isSignChange(stored, incoming decimal.Decimal) bool {
	return stored.Sign() != 0 && incoming.Sign() != 0 && stored.Sign() != incoming.Sign()
}
