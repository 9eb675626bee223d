package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/eaglebank/account-service/internal/models"
	"github.com/eaglebank/account-service/internal/utils"
	"github.com/lib/pq"
)

const accountColumns = `id, account_number, user_id, balance, is_deleted, created_at, closed_at, status`

// AccountRepository persists accounts in PostgreSQL, the source of truth for
// balances and status.
type AccountRepository struct {
	db *sql.DB
}

func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) FindByID(ctx context.Context, id string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	return scanAccount(r.db.QueryRowContext(ctx, query, id))
}

func (r *AccountRepository) FindByAccountNumber(ctx context.Context, accountNumber string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE account_number = $1`
	return scanAccount(r.db.QueryRowContext(ctx, query, accountNumber))
}

func (r *AccountRepository) ExistsByAccountNumber(ctx context.Context, accountNumber string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM accounts WHERE account_number = $1)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, accountNumber).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check account number: %w", err)
	}
	return exists, nil
}

// FindByUserID returns every account of the user, closed ones included,
// oldest first.
func (r *AccountRepository) FindByUserID(ctx context.Context, userID string) ([]*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE user_id = $1 ORDER BY created_at ASC, id ASC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*models.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	return accounts, nil
}

// Save inserts a new account (empty ID) or writes the mutable fields of an
// existing one.
//
// TODO: the update is last-writer-wins. Two concurrent debits on the same
// account can lose one of them; add a version column or SELECT ... FOR UPDATE
// in the command service before relying on this under contention.
func (r *AccountRepository) Save(ctx context.Context, account *models.Account) (*models.Account, error) {
	saved := *account
	if saved.ID == "" {
		saved.ID = utils.GenerateID("acc")
		query := `
			INSERT INTO accounts (` + accountColumns + `)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`
		_, err := r.db.ExecContext(ctx, query,
			saved.ID, saved.AccountNumber, saved.UserID, saved.Balance,
			saved.IsDeleted, saved.CreatedAt, nullTime(saved.ClosedAt), string(saved.Status),
		)
		if err != nil {
			var pqErr *pq.Error
			if errors.As(err, &pqErr) && pqErr.Code == "23505" {
				return nil, models.ErrDuplicateAccountNumber
			}
			return nil, fmt.Errorf("failed to create account: %w", err)
		}
		return &saved, nil
	}

	query := `
		UPDATE accounts
		SET balance = $2, is_deleted = $3, closed_at = $4, status = $5
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query,
		saved.ID, saved.Balance, saved.IsDeleted, nullTime(saved.ClosedAt), string(saved.Status),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update account: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return nil, models.NotFound("account")
	}
	return &saved, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*models.Account, error) {
	var (
		account  models.Account
		status   string
		closedAt sql.NullTime
	)
	err := row.Scan(
		&account.ID, &account.AccountNumber, &account.UserID, &account.Balance,
		&account.IsDeleted, &account.CreatedAt, &closedAt, &status,
	)
	if err == sql.ErrNoRows {
		return nil, models.NotFound("account")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	account.Status = models.AccountStatus(status)
	if closedAt.Valid {
		t := closedAt.Time
		account.ClosedAt = &t
	}
	return &account, nil
}
