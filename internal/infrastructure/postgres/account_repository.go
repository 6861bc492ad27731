package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"centavo/internal/domain/account"
)

const accountColumns = `
	id, item_id, name, official_name, type, subtype, mask,
	current_balance, available_balance, credit_limit, currency,
	created_at, updated_at`

type AccountRepository struct {
	db *DB
}

func NewAccountRepository(db *DB) *AccountRepository {
	return &AccountRepository{db: db}
}

var _ account.Repository = (*AccountRepository)(nil)

func scanAccount(s rowScanner) (*account.Account, error) {
	var acc account.Account
	var available, limit decimal.NullDecimal

	err := s.Scan(
		&acc.ID, &acc.ItemID, &acc.Name, &acc.OfficialName, &acc.AccountType,
		&acc.Subtype, &acc.Mask, &acc.CurrentBalance, &available, &limit,
		&acc.Currency, &acc.CreatedAt, &acc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if available.Valid {
		acc.AvailableBalance = &available.Decimal
	}
	if limit.Valid {
		acc.CreditLimit = &limit.Decimal
	}

	return &acc, nil
}

func (r *AccountRepository) GetByID(ctx context.Context, id string) (*account.Account, error) {
	query := `SELECT` + accountColumns + `
		FROM accounts
		WHERE id = $1
	`

	acc, err := scanAccount(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, account.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	return acc, nil
}

func (r *AccountRepository) ListByItemID(ctx context.Context, itemID string) ([]*account.Account, error) {
	query := `SELECT` + accountColumns + `
		FROM accounts
		WHERE item_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	return collectAccounts(rows)
}

func (r *AccountRepository) List(ctx context.Context) ([]*account.Account, error) {
	query := `SELECT` + accountColumns + `
		FROM accounts
		ORDER BY created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	return collectAccounts(rows)
}

func collectAccounts(rows *sql.Rows) ([]*account.Account, error) {
	var accounts []*account.Account
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, acc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating accounts: %w", err)
	}

	return accounts, nil
}

// Upsert inserts or refreshes an account from the feed. The conflict branch
// deliberately leaves name out: the stored display name may have been edited
// by the user and a re-sync must not clobber it.
func (r *AccountRepository) Upsert(ctx context.Context, params account.UpsertParams) (*account.Account, error) {
	query := `
		INSERT INTO accounts (id, item_id, name, official_name, type, subtype, mask,
		                      current_balance, available_balance, credit_limit, currency)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
		    item_id = EXCLUDED.item_id,
		    official_name = EXCLUDED.official_name,
		    type = EXCLUDED.type,
		    subtype = EXCLUDED.subtype,
		    mask = EXCLUDED.mask,
		    current_balance = EXCLUDED.current_balance,
		    available_balance = EXCLUDED.available_balance,
		    credit_limit = EXCLUDED.credit_limit,
		    currency = EXCLUDED.currency,
		    updated_at = CURRENT_TIMESTAMP
		RETURNING` + accountColumns

	acc, err := scanAccount(r.db.QueryRowContext(
		ctx, query,
		params.ID, params.ItemID, params.Name, params.OfficialName, params.AccountType,
		params.Subtype, params.Mask, params.CurrentBalance, params.AvailableBalance,
		params.CreditLimit, params.Currency,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to upsert account: %w", err)
	}

	return acc, nil
}

func (r *AccountRepository) UpdateName(ctx context.Context, id string, name string) (*account.Account, error) {
	query := `
		UPDATE accounts
		SET name = $1,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = $2
		RETURNING` + accountColumns

	acc, err := scanAccount(r.db.QueryRowContext(ctx, query, name, id))
	if err == sql.ErrNoRows {
		return nil, account.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to rename account: %w", err)
	}

	return acc, nil
}
