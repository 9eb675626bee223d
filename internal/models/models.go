package models

import "time"

const (
	// MaxAccountsPerUser is the number of accounts a single user may own.
	MaxAccountsPerUser = 10
	// MaxTransactionAmount is the per-transaction ceiling, in minor units.
	MaxTransactionAmount int64 = 1_000_000
)

type AccountStatus string

const (
	AccountStatusActive AccountStatus = "ACTIVE"
	AccountStatusClosed AccountStatus = "CLOSED"
)

type TransactionType string

const (
	TransactionTypeUse    TransactionType = "USE"
	TransactionTypeCancel TransactionType = "CANCEL"
)

type TransactionResult string

const (
	TransactionResultSuccess TransactionResult = "SUCCESS"
	TransactionResultFailure TransactionResult = "FAILURE"
)

type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdTimestamp"`
}

// NewUser builds an unsaved user. The store assigns the ID on Save.
func NewUser(name string, now time.Time) *User {
	return &User{Name: name, CreatedAt: now}
}

// Equal reports whether u and other describe the same user value.
func (u *User) Equal(other *User) bool {
	if u == nil || other == nil {
		return u == other
	}
	return u.ID == other.ID && u.Name == other.Name && u.CreatedAt.Equal(other.CreatedAt)
}

type Account struct {
	ID            string        `json:"id"`
	AccountNumber string        `json:"accountNumber"`
	UserID        string        `json:"userId"`
	Balance       int64         `json:"balance"`
	IsDeleted     bool          `json:"isDeleted"`
	CreatedAt     time.Time     `json:"createdTimestamp"`
	ClosedAt      *time.Time    `json:"closedTimestamp,omitempty"`
	Status        AccountStatus `json:"status"`
}

// NewAccount builds an ACTIVE account. The initial balance is taken as given.
func NewAccount(accountNumber, userID string, initialBalance int64, now time.Time) *Account {
	return &Account{
		AccountNumber: accountNumber,
		UserID:        userID,
		Balance:       initialBalance,
		IsDeleted:     false,
		CreatedAt:     now,
		Status:        AccountStatusActive,
	}
}

func (a *Account) IsClosed() bool {
	return a.Status == AccountStatusClosed
}

// Close marks the account closed. Callers must reject repeat closure;
// a second call re-stamps ClosedAt.
func (a *Account) Close(now time.Time) *Account {
	closedAt := now
	a.IsDeleted = true
	a.ClosedAt = &closedAt
	a.Status = AccountStatusClosed
	return a
}

// ApplyDebit subtracts amount without any bound check. The caller
// guarantees amount <= Balance.
func (a *Account) ApplyDebit(amount int64) *Account {
	a.Balance -= amount
	return a
}

// ApplyCredit adds amount back to the balance as part of a reversal.
func (a *Account) ApplyCredit(amount int64) (*Account, error) {
	if a.IsDeleted {
		return nil, ErrInvalidState
	}
	if a.Balance+amount < 0 {
		return nil, ErrInsufficientFunds
	}
	a.Balance += amount
	return a, nil
}

// Transaction is an append-only ledger entry. AccountNumber is carried
// alongside AccountID since an account number never changes.
type Transaction struct {
	ID              string            `json:"id"`
	AccountID       string            `json:"accountId"`
	AccountNumber   string            `json:"accountNumber"`
	Amount          int64             `json:"amount"`
	Type            TransactionType   `json:"type"`
	Result          TransactionResult `json:"result"`
	TransactionDate time.Time         `json:"transactionDate"`
}

// NewTransaction builds an unsaved ledger entry against account.
func NewTransaction(account *Account, amount int64, txType TransactionType, result TransactionResult, at time.Time) (*Transaction, error) {
	if account == nil {
		return nil, ErrInvalidState
	}
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	return &Transaction{
		AccountID:       account.ID,
		AccountNumber:   account.AccountNumber,
		Amount:          amount,
		Type:            txType,
		Result:          result,
		TransactionDate: at,
	}, nil
}
