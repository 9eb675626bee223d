package cqrs

type CreateAccountCommand struct {
	UserID         string
	InitialBalance int64
}

type CloseAccountCommand struct {
	UserID        string
	AccountNumber string
}

// UseBalanceCommand debits Amount from the user's account.
type UseBalanceCommand struct {
	UserID        string
	AccountNumber string
	Amount        int64
}

// CancelBalanceCommand reverses a prior USE transaction. AccountNumber and
// Amount must match the original exactly.
type CancelBalanceCommand struct {
	TransactionID string
	AccountNumber string
	Amount        int64
}
