package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"centavo/internal/domain/transaction"
)

const transactionColumns = `
	id, account_id, amount, currency, date, authorized_date, name, merchant_name,
	logo_url, pending, pending_transaction_id, feed_category, feed_subcategory,
	category_icon_url, category_id, subcategory_id, notes, is_split,
	parent_transaction_id, created_at, updated_at`

type TransactionRepository struct {
	db *DB
}

func NewTransactionRepository(db *DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

var _ transaction.Repository = (*TransactionRepository)(nil)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(s rowScanner) (*transaction.Transaction, error) {
	var tx transaction.Transaction
	err := s.Scan(
		&tx.ID, &tx.AccountID, &tx.Amount, &tx.Currency, &tx.Date, &tx.AuthorizedDate,
		&tx.Name, &tx.MerchantName, &tx.LogoURL, &tx.Pending, &tx.PendingTransactionID,
		&tx.FeedCategory, &tx.FeedSubcategory, &tx.CategoryIconURL,
		&tx.CategoryID, &tx.SubcategoryID, &tx.Notes,
		&tx.IsSplit, &tx.ParentTransactionID,
		&tx.CreatedAt, &tx.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

func (r *TransactionRepository) GetByID(ctx context.Context, id string) (*transaction.Transaction, error) {
	query := `SELECT` + transactionColumns + `
		FROM transactions
		WHERE id = $1
	`

	tx, err := scanTransaction(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil // Not found
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	return tx, nil
}

func (r *TransactionRepository) ListByAccountID(ctx context.Context, accountID string, limit, offset int) ([]*transaction.Transaction, error) {
	query := `SELECT` + transactionColumns + `
		FROM transactions
		WHERE account_id = $1
		ORDER BY date DESC, created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.QueryContext(ctx, query, accountID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	return collectTransactions(rows)
}

func (r *TransactionRepository) ListChildren(ctx context.Context, parentID string) ([]*transaction.Transaction, error) {
	query := `SELECT` + transactionColumns + `
		FROM transactions
		WHERE parent_transaction_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, parentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list split children: %w", err)
	}
	defer rows.Close()

	return collectTransactions(rows)
}

func collectTransactions(rows *sql.Rows) ([]*transaction.Transaction, error) {
	var transactions []*transaction.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, tx)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}

	return transactions, nil
}

// Upsert inserts or refreshes a transaction by provider id. The conflict
// branch touches feed-owned columns only: category_id, subcategory_id, notes,
// is_split and parent_transaction_id are local state and never overwritten
// by a sync.
func (r *TransactionRepository) Upsert(ctx context.Context, params transaction.UpsertParams) (*transaction.Transaction, error) {
	query := `
		INSERT INTO transactions (id, account_id, amount, currency, date, authorized_date,
		                          name, merchant_name, logo_url, pending, pending_transaction_id,
		                          feed_category, feed_subcategory, category_icon_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (id) DO UPDATE SET
		    account_id = EXCLUDED.account_id,
		    amount = EXCLUDED.amount,
		    currency = EXCLUDED.currency,
		    date = EXCLUDED.date,
		    authorized_date = EXCLUDED.authorized_date,
		    name = EXCLUDED.name,
		    merchant_name = EXCLUDED.merchant_name,
		    logo_url = EXCLUDED.logo_url,
		    pending = EXCLUDED.pending,
		    pending_transaction_id = EXCLUDED.pending_transaction_id,
		    feed_category = EXCLUDED.feed_category,
		    feed_subcategory = EXCLUDED.feed_subcategory,
		    category_icon_url = EXCLUDED.category_icon_url,
		    updated_at = CURRENT_TIMESTAMP
		RETURNING` + transactionColumns

	tx, err := scanTransaction(r.db.QueryRowContext(
		ctx, query,
		params.ID, params.AccountID, params.Amount, params.Currency, params.Date,
		params.AuthorizedDate, params.Name, params.MerchantName, params.LogoURL,
		params.Pending, params.PendingTransactionID,
		params.FeedCategory, params.FeedSubcategory, params.CategoryIconURL,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to upsert transaction: %w", err)
	}

	return tx, nil
}

func (r *TransactionRepository) UpdateFeedFields(ctx context.Context, id string, params transaction.FeedUpdateParams) (*transaction.Transaction, error) {
	query := `
		UPDATE transactions
		SET amount = $1,
		    currency = $2,
		    date = $3,
		    authorized_date = $4,
		    name = $5,
		    merchant_name = $6,
		    pending = $7,
		    pending_transaction_id = $8,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = $9
		RETURNING` + transactionColumns

	tx, err := scanTransaction(r.db.QueryRowContext(
		ctx, query,
		params.Amount, params.Currency, params.Date, params.AuthorizedDate,
		params.Name, params.MerchantName, params.Pending, params.PendingTransactionID,
		id,
	))
	if err == sql.ErrNoRows {
		return nil, transaction.ErrTransactionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update transaction feed fields: %w", err)
	}

	return tx, nil
}

func (r *TransactionRepository) UpdateUserFields(ctx context.Context, id string, params transaction.UserUpdateParams) (*transaction.Transaction, error) {
	query := `
		UPDATE transactions
		SET category_id = COALESCE($1, category_id),
		    subcategory_id = COALESCE($2, subcategory_id),
		    notes = COALESCE($3, notes),
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = $4
		RETURNING` + transactionColumns

	tx, err := scanTransaction(r.db.QueryRowContext(
		ctx, query,
		params.CategoryID, params.SubcategoryID, params.Notes, id,
	))
	if err == sql.ErrNoRows {
		return nil, transaction.ErrTransactionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update transaction: %w", err)
	}

	return tx, nil
}

// DeleteRemoved deletes remotely removed transactions in one statement.
// Split parents and split children are excluded in the WHERE clause, so a
// removal from the feed can never orphan local split state.
func (r *TransactionRepository) DeleteRemoved(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	query := `
		DELETE FROM transactions
		WHERE id = ANY($1)
		  AND is_split = FALSE
		  AND parent_transaction_id IS NULL
	`

	result, err := r.db.ExecContext(ctx, query, pq.Array(ids))
	if err != nil {
		return 0, fmt.Errorf("failed to delete removed transactions: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return deleted, nil
}

func (r *TransactionRepository) InsertChild(ctx context.Context, params transaction.CreateChildParams) (*transaction.Transaction, error) {
	query := `
		INSERT INTO transactions (id, account_id, parent_transaction_id, amount, currency,
		                          date, name, category_id, subcategory_id, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING` + transactionColumns

	tx, err := scanTransaction(r.db.QueryRowContext(
		ctx, query,
		params.ID, params.AccountID, params.ParentTransactionID, params.Amount,
		params.Currency, params.Date, params.Name,
		params.CategoryID, params.SubcategoryID, params.Notes,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to insert split child: %w", err)
	}

	return tx, nil
}

func (r *TransactionRepository) MarkSplit(ctx context.Context, id string) error {
	query := `
		UPDATE transactions
		SET is_split = TRUE,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to mark transaction as split: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return transaction.ErrTransactionNotFound
	}

	return nil
}
