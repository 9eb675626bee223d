package query

import (
	"context"
	"errors"

	"github.com/eaglebank/account-service/internal/cqrs"
	"github.com/eaglebank/account-service/internal/models"
)

type UserStore interface {
	ExistsByID(ctx context.Context, id string) (bool, error)
}

type AccountStore interface {
	FindByUserID(ctx context.Context, userID string) ([]*models.Account, error)
}

// TransactionReader is served by the cached read repository in production.
type TransactionReader interface {
	FindByID(ctx context.Context, id string) (*models.Transaction, error)
}

type AccountQueryService struct {
	users        UserStore
	accounts     AccountStore
	transactions TransactionReader
}

func NewAccountQueryService(users UserStore, accounts AccountStore, transactions TransactionReader) *AccountQueryService {
	return &AccountQueryService{users: users, accounts: accounts, transactions: transactions}
}

// GetUserAccounts lists every account the user owns, closed ones included,
// in store order. A user without accounts is reported as not found.
func (s *AccountQueryService) GetUserAccounts(ctx context.Context, q cqrs.ListUserAccountsQuery) ([]models.AccountBalanceView, error) {
	exists, err := s.users.ExistsByID(ctx, q.UserID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, models.NotFound("user")
	}

	accounts, err := s.accounts.FindByUserID(ctx, q.UserID)
	if err != nil {
		return nil, err
	}
	if len(accounts) == 0 {
		return nil, models.NotFound("accounts")
	}

	views := make([]models.AccountBalanceView, 0, len(accounts))
	for _, a := range accounts {
		views = append(views, models.AccountBalanceView{
			AccountNumber: a.AccountNumber,
			Balance:       a.Balance,
		})
	}
	return views, nil
}

func (s *AccountQueryService) GetTransaction(ctx context.Context, q cqrs.GetTransactionQuery) (*models.TransactionView, error) {
	t, err := s.transactions.FindByID(ctx, q.TransactionID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.NotFound("transaction")
		}
		return nil, err
	}
	return models.CheckView(t), nil
}
