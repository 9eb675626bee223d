package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/eaglebank/account-service/internal/models"
	"github.com/eaglebank/account-service/internal/utils"
)

// TransactionWriteRepository appends ledger entries to PostgreSQL. Rows are
// never updated or deleted.
type TransactionWriteRepository struct {
	db *sql.DB
}

func NewTransactionWriteRepository(db *sql.DB) *TransactionWriteRepository {
	return &TransactionWriteRepository{db: db}
}

func (r *TransactionWriteRepository) Save(ctx context.Context, transaction *models.Transaction) (*models.Transaction, error) {
	saved := *transaction
	if saved.ID == "" {
		saved.ID = utils.GenerateID("tan")
	}
	query := `
		INSERT INTO transactions (id, account_id, amount, transaction_type, transaction_result, transaction_date)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.ExecContext(ctx, query,
		saved.ID, saved.AccountID, saved.Amount,
		string(saved.Type), string(saved.Result), saved.TransactionDate,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}
	return &saved, nil
}

// FindByID loads a ledger entry together with its account number.
func (r *TransactionWriteRepository) FindByID(ctx context.Context, id string) (*models.Transaction, error) {
	query := `
		SELECT t.id, t.account_id, a.account_number, t.amount, t.transaction_type, t.transaction_result, t.transaction_date
		FROM transactions t
		JOIN accounts a ON a.id = t.account_id
		WHERE t.id = $1
	`
	var (
		t        models.Transaction
		txType   string
		txResult string
	)
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&t.ID, &t.AccountID, &t.AccountNumber, &t.Amount,
		&txType, &txResult, &t.TransactionDate,
	)
	if err == sql.ErrNoRows {
		return nil, models.NotFound("transaction")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	t.Type = models.TransactionType(txType)
	t.Result = models.TransactionResult(txResult)
	return &t, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{Valid: false}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
