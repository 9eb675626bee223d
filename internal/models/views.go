package models

import "time"

// CreateAccountView is returned after an account is opened.
type CreateAccountView struct {
	UserID        string    `json:"userId"`
	AccountNumber string    `json:"accountNumber"`
	RegisteredAt  time.Time `json:"registeredAt"`
}

type CloseAccountView struct {
	UserID        string    `json:"userId"`
	AccountNumber string    `json:"accountNumber"`
	ClosedAt      time.Time `json:"closedAt"`
}

// AccountBalanceView is the per-account line of a user's account listing.
type AccountBalanceView struct {
	AccountNumber string `json:"accountNumber"`
	Balance       int64  `json:"balance"`
}

// TransactionView is the projection of a ledger entry. TransactionType is
// only filled by the check projection; use and cancel responses leave it empty.
type TransactionView struct {
	AccountNumber     string            `json:"accountNumber"`
	TransactionResult TransactionResult `json:"transactionResult"`
	TransactionID     string            `json:"transactionId"`
	Amount            int64             `json:"amount"`
	TransactionDate   time.Time         `json:"transactionDate"`
	TransactionType   TransactionType   `json:"transactionType,omitempty"`
}

// UseView projects a transaction for use and cancel responses.
func UseView(t *Transaction) *TransactionView {
	return &TransactionView{
		AccountNumber:     t.AccountNumber,
		TransactionResult: t.Result,
		TransactionID:     t.ID,
		Amount:            t.Amount,
		TransactionDate:   t.TransactionDate,
	}
}

// CheckView projects a transaction for lookups, including its type.
func CheckView(t *Transaction) *TransactionView {
	return &TransactionView{
		AccountNumber:     t.AccountNumber,
		TransactionResult: t.Result,
		TransactionID:     t.ID,
		Amount:            t.Amount,
		TransactionDate:   t.TransactionDate,
		TransactionType:   t.Type,
	}
}
