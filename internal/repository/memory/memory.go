// Package memory holds in-process stores for users, accounts and
// transactions. They back the service when STORE_BACKEND=memory and are used
// by the service tests.
//
// Every read returns a copy, so callers cannot change stored state without
// going through Save.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/eaglebank/account-service/internal/models"
	"github.com/eaglebank/account-service/internal/utils"
)

type UserStore struct {
	mu    sync.RWMutex
	users map[string]models.User
	order []string
}

func NewUserStore() *UserStore {
	return &UserStore{users: make(map[string]models.User)}
}

func (s *UserStore) FindByID(_ context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, models.NotFound("user")
	}
	return &u, nil
}

func (s *UserStore) FindByName(_ context.Context, name string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, id := range s.order {
		if u := s.users[id]; u.Name == name {
			return &u, nil
		}
	}
	return nil, models.NotFound("user")
}

func (s *UserStore) ExistsByID(_ context.Context, id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.users[id]
	return ok, nil
}

func (s *UserStore) Save(_ context.Context, user *models.User) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := *user
	if u.ID == "" {
		u.ID = utils.GenerateID("usr")
	}
	if _, ok := s.users[u.ID]; !ok {
		s.order = append(s.order, u.ID)
	}
	s.users[u.ID] = u
	return &u, nil
}

type AccountStore struct {
	mu       sync.RWMutex
	accounts map[string]models.Account
	byNumber map[string]string
	order    []string
}

func NewAccountStore() *AccountStore {
	return &AccountStore{
		accounts: make(map[string]models.Account),
		byNumber: make(map[string]string),
	}
}

func (s *AccountStore) FindByID(_ context.Context, id string) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[id]
	if !ok {
		return nil, models.NotFound("account")
	}
	return copyAccount(a), nil
}

func (s *AccountStore) FindByAccountNumber(_ context.Context, accountNumber string) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byNumber[accountNumber]
	if !ok {
		return nil, models.NotFound("account")
	}
	return copyAccount(s.accounts[id]), nil
}

func (s *AccountStore) ExistsByAccountNumber(_ context.Context, accountNumber string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.byNumber[accountNumber]
	return ok, nil
}

// FindByUserID returns the user's accounts, closed ones included, in
// creation order.
func (s *AccountStore) FindByUserID(_ context.Context, userID string) ([]*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Account
	for _, id := range s.order {
		if a := s.accounts[id]; a.UserID == userID {
			out = append(out, copyAccount(a))
		}
	}
	return out, nil
}

func (s *AccountStore) Save(_ context.Context, account *models.Account) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := *copyAccount(*account)
	if owner, ok := s.byNumber[a.AccountNumber]; ok && owner != a.ID {
		return nil, models.ErrDuplicateAccountNumber
	}
	if a.ID == "" {
		a.ID = utils.GenerateID("acc")
	}
	if _, ok := s.accounts[a.ID]; !ok {
		s.order = append(s.order, a.ID)
	}
	s.accounts[a.ID] = a
	s.byNumber[a.AccountNumber] = a.ID
	return copyAccount(a), nil
}

func copyAccount(a models.Account) *models.Account {
	if a.ClosedAt != nil {
		closedAt := *a.ClosedAt
		a.ClosedAt = &closedAt
	}
	return &a
}

type TransactionStore struct {
	mu           sync.RWMutex
	transactions map[string]models.Transaction
}

func NewTransactionStore() *TransactionStore {
	return &TransactionStore{transactions: make(map[string]models.Transaction)}
}

func (s *TransactionStore) FindByID(_ context.Context, id string) (*models.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.transactions[id]
	if !ok {
		return nil, models.NotFound("transaction")
	}
	return &t, nil
}

// Save appends a new ledger entry. Entries are never rewritten.
func (s *TransactionStore) Save(_ context.Context, transaction *models.Transaction) (*models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := *transaction
	if t.ID == "" {
		t.ID = utils.GenerateID("tan")
	}
	if _, ok := s.transactions[t.ID]; ok {
		return nil, fmt.Errorf("transaction %s already exists", t.ID)
	}
	s.transactions[t.ID] = t
	return &t, nil
}

// Len reports the number of stored ledger entries.
func (s *TransactionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.transactions)
}
