package plaidsync

import (
	"context"
	"sort"
	"strconv"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"centavo/internal/domain/account"
	"centavo/internal/domain/transaction"
	"centavo/internal/infrastructure/plaid"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func strptr(s string) *string { return &s }

// fakeFeed scripts the provider responses and records every call.
type fakeFeed struct {
	getPages  []*plaid.TransactionsGetResponse
	syncPages map[string]*plaid.TransactionsSyncResponse

	getOffsets  []int
	syncCursors []string

	getErr  error
	syncErr error
}

func (f *fakeFeed) GetTransactions(_ context.Context, _, _, _ string, _, offset int) (*plaid.TransactionsGetResponse, error) {
	f.getOffsets = append(f.getOffsets, offset)
	if f.getErr != nil {
		return nil, f.getErr
	}
	idx := len(f.getOffsets) - 1
	if idx >= len(f.getPages) {
		return &plaid.TransactionsGetResponse{}, nil
	}
	return f.getPages[idx], nil
}

func (f *fakeFeed) SyncTransactions(_ context.Context, _, cursor string, _ int) (*plaid.TransactionsSyncResponse, error) {
	f.syncCursors = append(f.syncCursors, cursor)
	if f.syncErr != nil {
		return nil, f.syncErr
	}
	page, ok := f.syncPages[cursor]
	if !ok {
		return &plaid.TransactionsSyncResponse{NextCursor: cursor}, nil
	}
	return page, nil
}

// fakeTransactionRepo is an in-memory transaction store honoring the same
// contract as the postgres repository.
type fakeTransactionRepo struct {
	rows map[string]*transaction.Transaction
}

func newFakeTransactionRepo() *fakeTransactionRepo {
	return &fakeTransactionRepo{rows: make(map[string]*transaction.Transaction)}
}

func (r *fakeTransactionRepo) GetByID(_ context.Context, id string) (*transaction.Transaction, error) {
	tx, ok := r.rows[id]
	if !ok {
		return nil, nil
	}
	cp := *tx
	return &cp, nil
}

func (r *fakeTransactionRepo) ListByAccountID(_ context.Context, accountID string, _, _ int) ([]*transaction.Transaction, error) {
	var out []*transaction.Transaction
	for _, tx := range r.rows {
		if tx.AccountID == accountID {
			cp := *tx
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeTransactionRepo) ListChildren(_ context.Context, parentID string) ([]*transaction.Transaction, error) {
	var out []*transaction.Transaction
	for _, tx := range r.rows {
		if tx.ParentTransactionID != nil && *tx.ParentTransactionID == parentID {
			cp := *tx
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeTransactionRepo) Upsert(_ context.Context, params transaction.UpsertParams) (*transaction.Transaction, error) {
	existing, ok := r.rows[params.ID]
	if !ok {
		tx := &transaction.Transaction{
			ID:                   params.ID,
			AccountID:            params.AccountID,
			Amount:               params.Amount,
			Currency:             params.Currency,
			Date:                 params.Date,
			AuthorizedDate:       params.AuthorizedDate,
			Name:                 params.Name,
			MerchantName:         params.MerchantName,
			LogoURL:              params.LogoURL,
			Pending:              params.Pending,
			PendingTransactionID: params.PendingTransactionID,
			FeedCategory:         params.FeedCategory,
			FeedSubcategory:      params.FeedSubcategory,
			CategoryIconURL:      params.CategoryIconURL,
			CreatedAt:            time.Now(),
			UpdatedAt:            time.Now(),
		}
		r.rows[params.ID] = tx
		cp := *tx
		return &cp, nil
	}

	// Conflict path: feed fields only, user fields and split linkage stay.
	existing.AccountID = params.AccountID
	existing.Amount = params.Amount
	existing.Currency = params.Currency
	existing.Date = params.Date
	existing.AuthorizedDate = params.AuthorizedDate
	existing.Name = params.Name
	existing.MerchantName = params.MerchantName
	existing.LogoURL = params.LogoURL
	existing.Pending = params.Pending
	existing.PendingTransactionID = params.PendingTransactionID
	existing.FeedCategory = params.FeedCategory
	existing.FeedSubcategory = params.FeedSubcategory
	existing.CategoryIconURL = params.CategoryIconURL
	existing.UpdatedAt = time.Now()
	cp := *existing
	return &cp, nil
}

func (r *fakeTransactionRepo) UpdateFeedFields(_ context.Context, id string, params transaction.FeedUpdateParams) (*transaction.Transaction, error) {
	existing, ok := r.rows[id]
	if !ok {
		return nil, transaction.ErrTransactionNotFound
	}
	existing.Amount = params.Amount
	existing.Currency = params.Currency
	existing.Date = params.Date
	existing.AuthorizedDate = params.AuthorizedDate
	existing.Name = params.Name
	existing.MerchantName = params.MerchantName
	existing.Pending = params.Pending
	existing.PendingTransactionID = params.PendingTransactionID
	existing.UpdatedAt = time.Now()
	cp := *existing
	return &cp, nil
}

func (r *fakeTransactionRepo) UpdateUserFields(_ context.Context, id string, params transaction.UserUpdateParams) (*transaction.Transaction, error) {
	existing, ok := r.rows[id]
	if !ok {
		return nil, transaction.ErrTransactionNotFound
	}
	if params.CategoryID != nil {
		existing.CategoryID = params.CategoryID
	}
	if params.SubcategoryID != nil {
		existing.SubcategoryID = params.SubcategoryID
	}
	if params.Notes != nil {
		existing.Notes = params.Notes
	}
	cp := *existing
	return &cp, nil
}

func (r *fakeTransactionRepo) DeleteRemoved(_ context.Context, ids []string) (int64, error) {
	var deleted int64
	for _, id := range ids {
		tx, ok := r.rows[id]
		if !ok {
			continue
		}
		if tx.IsSplit || tx.ParentTransactionID != nil {
			continue
		}
		delete(r.rows, id)
		deleted++
	}
	return deleted, nil
}

func (r *fakeTransactionRepo) InsertChild(_ context.Context, params transaction.CreateChildParams) (*transaction.Transaction, error) {
	tx := &transaction.Transaction{
		ID:                  params.ID,
		AccountID:           params.AccountID,
		ParentTransactionID: &params.ParentTransactionID,
		Amount:              params.Amount,
		Currency:            params.Currency,
		Date:                params.Date,
		Name:                params.Name,
		CategoryID:          params.CategoryID,
		SubcategoryID:       params.SubcategoryID,
		Notes:               params.Notes,
	}
	r.rows[params.ID] = tx
	cp := *tx
	return &cp, nil
}

func (r *fakeTransactionRepo) MarkSplit(_ context.Context, id string) error {
	existing, ok := r.rows[id]
	if !ok {
		return transaction.ErrTransactionNotFound
	}
	existing.IsSplit = true
	return nil
}

// fakeAccountRepo preserves the stored name on upsert like the real one.
type fakeAccountRepo struct {
	rows map[string]*account.Account
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{rows: make(map[string]*account.Account)}
}

func (r *fakeAccountRepo) GetByID(_ context.Context, id string) (*account.Account, error) {
	acc, ok := r.rows[id]
	if !ok {
		return nil, account.ErrAccountNotFound
	}
	cp := *acc
	return &cp, nil
}

func (r *fakeAccountRepo) ListByItemID(_ context.Context, itemID string) ([]*account.Account, error) {
	var out []*account.Account
	for _, acc := range r.rows {
		if acc.ItemID == itemID {
			cp := *acc
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeAccountRepo) List(_ context.Context) ([]*account.Account, error) {
	var out []*account.Account
	for _, acc := range r.rows {
		cp := *acc
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fakeAccountRepo) Upsert(_ context.Context, params account.UpsertParams) (*account.Account, error) {
	existing, ok := r.rows[params.ID]
	if !ok {
		acc := &account.Account{
			ID:               params.ID,
			ItemID:           params.ItemID,
			Name:             params.Name,
			OfficialName:     params.OfficialName,
			AccountType:      params.AccountType,
			Subtype:          params.Subtype,
			Mask:             params.Mask,
			CurrentBalance:   params.CurrentBalance,
			AvailableBalance: params.AvailableBalance,
			CreditLimit:      params.CreditLimit,
			Currency:         params.Currency,
		}
		r.rows[params.ID] = acc
		cp := *acc
		return &cp, nil
	}

	// Name deliberately untouched on the update path.
	existing.OfficialName = params.OfficialName
	existing.AccountType = params.AccountType
	existing.Subtype = params.Subtype
	existing.Mask = params.Mask
	existing.CurrentBalance = params.CurrentBalance
	existing.AvailableBalance = params.AvailableBalance
	existing.CreditLimit = params.CreditLimit
	existing.Currency = params.Currency
	cp := *existing
	return &cp, nil
}

func (r *fakeAccountRepo) UpdateName(_ context.Context, id string, name string) (*account.Account, error) {
	existing, ok := r.rows[id]
	if !ok {
		return nil, account.ErrAccountNotFound
	}
	existing.Name = name
	cp := *existing
	return &cp, nil
}

func feedTx(id, accountID, amount, date, name string) plaid.Transaction {
	return plaid.Transaction{
		TransactionID: id,
		AccountID:     accountID,
		Amount:        dec(amount),
		Date:          date,
		Name:          name,
	}
}

func newTestEngine(feed plaid.ClientInterface, txRepo transaction.Repository, accRepo account.Repository) *TransactionSyncEngine {
	return NewTransactionSyncEngine(feed, accRepo, txRepo, nil, "2017-01-01")
}

func TestBackfillPagination(t *testing.T) {
	// 501 transactions total: the first page is full, so exactly one more
	// call at offset 500 must follow.
	page1 := &plaid.TransactionsGetResponse{TotalTransactions: 501}
	for i := 0; i < feedPageSize; i++ {
		page1.Transactions = append(page1.Transactions,
			feedTx(txID(i), "acc_1", "10.00", "2024-01-15", "Coffee"))
	}
	page2 := &plaid.TransactionsGetResponse{
		TotalTransactions: 501,
		Transactions:      []plaid.Transaction{feedTx("tx_last", "acc_1", "10.00", "2024-01-16", "Lunch")},
	}

	feed := &fakeFeed{
		getPages: []*plaid.TransactionsGetResponse{page1, page2},
		syncPages: map[string]*plaid.TransactionsSyncResponse{
			"": {NextCursor: "cursor_1", HasMore: false},
		},
	}
	txRepo := newFakeTransactionRepo()
	engine := newTestEngine(feed, txRepo, newFakeAccountRepo())

	result, err := engine.SyncItemTransactions(context.Background(), "item_1", "token", nil)
	require.NoError(t, err)

	assert.Equal(t, []int{0, 500}, feed.getOffsets)
	assert.Equal(t, 501, result.Stats.TransactionsAdded)
	assert.Len(t, result.Stats.NewTransactionIDs, 501)
	assert.Equal(t, "cursor_1", result.NewCursor)
	assert.Len(t, txRepo.rows, 501)
}

func txID(i int) string {
	return "tx_" + strconv.Itoa(i)
}

func TestBackfillEmptyFeed(t *testing.T) {
	feed := &fakeFeed{
		getPages: []*plaid.TransactionsGetResponse{{TotalTransactions: 0}},
		syncPages: map[string]*plaid.TransactionsSyncResponse{
			"": {NextCursor: "cursor_1", HasMore: false},
		},
	}
	engine := newTestEngine(feed, newFakeTransactionRepo(), newFakeAccountRepo())

	result, err := engine.SyncItemTransactions(context.Background(), "item_1", "token", nil)
	require.NoError(t, err)

	assert.Equal(t, []int{0}, feed.getOffsets)
	assert.Equal(t, 0, result.Stats.TransactionsAdded)
	assert.Equal(t, "cursor_1", result.NewCursor)
}

func TestBackfillSkippedWhenCursorExists(t *testing.T) {
	feed := &fakeFeed{
		syncPages: map[string]*plaid.TransactionsSyncResponse{
			"cursor_1": {NextCursor: "cursor_2", HasMore: false},
		},
	}
	engine := newTestEngine(feed, newFakeTransactionRepo(), newFakeAccountRepo())

	cursor := "cursor_1"
	result, err := engine.SyncItemTransactions(context.Background(), "item_1", "token", &cursor)
	require.NoError(t, err)

	assert.Empty(t, feed.getOffsets, "backfill must not run when a cursor exists")
	assert.Equal(t, []string{"cursor_1"}, feed.syncCursors)
	assert.Equal(t, "cursor_2", result.NewCursor)
}

func TestDeltaMultiPageCursorAdvance(t *testing.T) {
	feed := &fakeFeed{
		syncPages: map[string]*plaid.TransactionsSyncResponse{
			"cursor_1": {
				Added:      []plaid.Transaction{feedTx("tx_a", "acc_1", "25.00", "2024-02-01", "Groceries")},
				NextCursor: "cursor_2",
				HasMore:    true,
			},
			"cursor_2": {
				Added:      []plaid.Transaction{feedTx("tx_b", "acc_1", "12.50", "2024-02-02", "Taxi")},
				NextCursor: "cursor_3",
				HasMore:    false,
			},
		},
	}
	txRepo := newFakeTransactionRepo()
	engine := newTestEngine(feed, txRepo, newFakeAccountRepo())

	cursor := "cursor_1"
	result, err := engine.SyncItemTransactions(context.Background(), "item_1", "token", &cursor)
	require.NoError(t, err)

	assert.Equal(t, []string{"cursor_1", "cursor_2"}, feed.syncCursors)
	assert.Equal(t, "cursor_3", result.NewCursor)
	assert.Equal(t, 2, result.Stats.TransactionsAdded)

	got := result.Stats.NewTransactionIDs
	sort.Strings(got)
	assert.Equal(t, []string{"tx_a", "tx_b"}, got)
}

func TestAddedIsIdempotent(t *testing.T) {
	txRepo := newFakeTransactionRepo()
	notes := "split with roommate"
	txRepo.rows["tx_a"] = &transaction.Transaction{
		ID:        "tx_a",
		AccountID: "acc_1",
		Amount:    dec("-20.00"),
		Name:      "Groceries",
		Notes:     &notes,
	}

	feed := &fakeFeed{
		syncPages: map[string]*plaid.TransactionsSyncResponse{
			"cursor_1": {
				Added:      []plaid.Transaction{feedTx("tx_a", "acc_1", "22.00", "2024-02-01", "Groceries")},
				NextCursor: "cursor_2",
				HasMore:    false,
			},
		},
	}
	engine := newTestEngine(feed, txRepo, newFakeAccountRepo())

	cursor := "cursor_1"
	result, err := engine.SyncItemTransactions(context.Background(), "item_1", "token", &cursor)
	require.NoError(t, err)

	assert.Equal(t, 0, result.Stats.TransactionsAdded, "re-added existing row must not count")
	assert.Empty(t, result.Stats.NewTransactionIDs)
	assert.Len(t, txRepo.rows, 1)

	row := txRepo.rows["tx_a"]
	assert.True(t, row.Amount.Equal(dec("-22.00")), "feed fields still refresh")
	require.NotNil(t, row.Notes)
	assert.Equal(t, notes, *row.Notes, "user notes survive the upsert")
}

func TestAccountNamePreserved(t *testing.T) {
	accRepo := newFakeAccountRepo()
	accRepo.rows["acc_1"] = &account.Account{
		ID:             "acc_1",
		ItemID:         "item_1",
		Name:           "Joint Checking",
		CurrentBalance: dec("100.00"),
	}

	feed := &fakeFeed{
		syncPages: map[string]*plaid.TransactionsSyncResponse{
			"cursor_1": {
				Accounts: []plaid.Account{{
					AccountID: "acc_1",
					Name:      "Plaid Checking",
					Type:      "depository",
					Balances:  plaid.Balances{Current: decptr("250.75")},
				}},
				NextCursor: "cursor_2",
				HasMore:    false,
			},
		},
	}
	engine := newTestEngine(feed, newFakeTransactionRepo(), accRepo)

	cursor := "cursor_1"
	result, err := engine.SyncItemTransactions(context.Background(), "item_1", "token", &cursor)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Stats.AccountsUpdated)
	row := accRepo.rows["acc_1"]
	assert.Equal(t, "Joint Checking", row.Name, "user rename must survive re-sync")
	assert.True(t, row.CurrentBalance.Equal(dec("250.75")))
}

func decptr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func TestRemovedSkipsSplitLinkedRows(t *testing.T) {
	txRepo := newFakeTransactionRepo()
	parent := "tx_parent"
	txRepo.rows["tx_parent"] = &transaction.Transaction{ID: "tx_parent", AccountID: "acc_1", IsSplit: true}
	txRepo.rows["tx_child"] = &transaction.Transaction{ID: "tx_child", AccountID: "acc_1", ParentTransactionID: &parent}
	txRepo.rows["tx_plain"] = &transaction.Transaction{ID: "tx_plain", AccountID: "acc_1"}

	feed := &fakeFeed{
		syncPages: map[string]*plaid.TransactionsSyncResponse{
			"cursor_1": {
				Removed: []plaid.RemovedTransaction{
					{TransactionID: "tx_parent"},
					{TransactionID: "tx_child"},
					{TransactionID: "tx_plain"},
					{TransactionID: "tx_ghost"},
				},
				NextCursor: "cursor_2",
				HasMore:    false,
			},
		},
	}
	engine := newTestEngine(feed, txRepo, newFakeAccountRepo())

	cursor := "cursor_1"
	result, err := engine.SyncItemTransactions(context.Background(), "item_1", "token", &cursor)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Stats.TransactionsRemoved, "only the plain row is deletable")
	assert.Contains(t, txRepo.rows, "tx_parent")
	assert.Contains(t, txRepo.rows, "tx_child")
	assert.NotContains(t, txRepo.rows, "tx_plain")
}

func TestModifiedDetectsSignChange(t *testing.T) {
	txRepo := newFakeTransactionRepo()
	txRepo.rows["tx_a"] = &transaction.Transaction{
		ID:        "tx_a",
		AccountID: "acc_1",
		Amount:    dec("-45.00"),
		Name:      "Refundable purchase",
	}

	// Feed amount -45.00 stores as +45.00: expense turned refund.
	feed := &fakeFeed{
		syncPages: map[string]*plaid.TransactionsSyncResponse{
			"cursor_1": {
				Modified:   []plaid.Transaction{feedTx("tx_a", "acc_1", "-45.00", "2024-02-01", "Refundable purchase")},
				NextCursor: "cursor_2",
				HasMore:    false,
			},
		},
	}
	engine := newTestEngine(feed, txRepo, newFakeAccountRepo())

	cursor := "cursor_1"
	result, err := engine.SyncItemTransactions(context.Background(), "item_1", "token", &cursor)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Stats.SignChanges)
	assert.Equal(t, 1, result.Stats.TransactionsModified)
	assert.True(t, txRepo.rows["tx_a"].Amount.Equal(dec("45.00")), "sign change is applied, not blocked")
}

func TestModifiedSplitParentKeepsLinkageAndCategory(t *testing.T) {
	txRepo := newFakeTransactionRepo()
	categoryID := "cat_food"
	txRepo.rows["tx_parent"] = &transaction.Transaction{
		ID:         "tx_parent",
		AccountID:  "acc_1",
		Amount:     dec("-60.00"),
		Name:       "Dinner",
		IsSplit:    true,
		CategoryID: &categoryID,
	}

	feed := &fakeFeed{
		syncPages: map[string]*plaid.TransactionsSyncResponse{
			"cursor_1": {
				Modified:   []plaid.Transaction{feedTx("tx_parent", "acc_1", "62.00", "2024-02-01", "Dinner (updated)")},
				NextCursor: "cursor_2",
				HasMore:    false,
			},
		},
	}
	engine := newTestEngine(feed, txRepo, newFakeAccountRepo())

	cursor := "cursor_1"
	result, err := engine.SyncItemTransactions(context.Background(), "item_1", "token", &cursor)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Stats.TransactionsModified)
	row := txRepo.rows["tx_parent"]
	assert.True(t, row.IsSplit, "split flag survives feed modification")
	require.NotNil(t, row.CategoryID)
	assert.Equal(t, categoryID, *row.CategoryID)
	assert.True(t, row.Amount.Equal(dec("-62.00")))
	assert.Equal(t, "Dinner (updated)", row.Name)
}

func TestNullFeedFieldsPassThrough(t *testing.T) {
	feed := &fakeFeed{
		syncPages: map[string]*plaid.TransactionsSyncResponse{
			"cursor_1": {
				Added: []plaid.Transaction{{
					TransactionID: "tx_bare",
					AccountID:     "acc_1",
					Amount:        dec("9.99"),
					Date:          "2024-02-01",
					Name:          "Kiosk",
					// merchant_name, logo_url, currency, category all null
				}},
				NextCursor: "cursor_2",
				HasMore:    false,
			},
		},
	}
	txRepo := newFakeTransactionRepo()
	engine := newTestEngine(feed, txRepo, newFakeAccountRepo())

	cursor := "cursor_1"
	_, err := engine.SyncItemTransactions(context.Background(), "item_1", "token", &cursor)
	require.NoError(t, err)

	row := txRepo.rows["tx_bare"]
	require.NotNil(t, row)
	assert.Nil(t, row.MerchantName)
	assert.Nil(t, row.LogoURL)
	assert.Nil(t, row.Currency)
	assert.Nil(t, row.FeedCategory)
	assert.Nil(t, row.AuthorizedDate)
	assert.Nil(t, row.PendingTransactionID)
}

func TestFeedCategoryMapped(t *testing.T) {
	icon := "https://cdn.example.com/food.png"
	feed := &fakeFeed{
		syncPages: map[string]*plaid.TransactionsSyncResponse{
			"cursor_1": {
				Added: []plaid.Transaction{{
					TransactionID: "tx_cat",
					AccountID:     "acc_1",
					Amount:        dec("15.00"),
					Date:          "2024-02-01",
					Name:          "Lunch",
					MerchantName:  strptr("Deli"),
					PersonalFinanceCategory: &plaid.PersonalFinanceCategory{
						Primary:  "FOOD_AND_DRINK",
						Detailed: "FOOD_AND_DRINK_RESTAURANT",
						IconURL:  &icon,
					},
				}},
				NextCursor: "cursor_2",
				HasMore:    false,
			},
		},
	}
	txRepo := newFakeTransactionRepo()
	engine := newTestEngine(feed, txRepo, newFakeAccountRepo())

	cursor := "cursor_1"
	_, err := engine.SyncItemTransactions(context.Background(), "item_1", "token", &cursor)
	require.NoError(t, err)

	row := txRepo.rows["tx_cat"]
	require.NotNil(t, row)
	require.NotNil(t, row.FeedCategory)
	assert.Equal(t, "FOOD_AND_DRINK", *row.FeedCategory)
	require.NotNil(t, row.FeedSubcategory)
	assert.Equal(t, "FOOD_AND_DRINK_RESTAURANT", *row.FeedSubcategory)
	require.NotNil(t, row.CategoryIconURL)
	assert.Equal(t, icon, *row.CategoryIconURL)
	assert.True(t, row.Amount.Equal(dec("-15.00")), "feed outflow stores as negative")
}

func TestDeltaErrorAbortsWithoutCursor(t *testing.T) {
	apiErr := &plaid.APIError{StatusCode: 400, ErrorCode: "INTERNAL_SERVER_ERROR"}
	feed := &fakeFeed{syncErr: apiErr}
	engine := newTestEngine(feed, newFakeTransactionRepo(), newFakeAccountRepo())

	cursor := "cursor_1"
	result, err := engine.SyncItemTransactions(context.Background(), "item_1", "token", &cursor)
	require.Error(t, err)
	assert.Nil(t, result)
	assert.ErrorAs(t, err, new(*plaid.APIError))
}
