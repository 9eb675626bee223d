package cqrs

// ListUserAccountsQuery fetches the account number and balance of every
// account a user owns.
type ListUserAccountsQuery struct {
	UserID string
}

// GetTransactionQuery fetches a single ledger entry.
type GetTransactionQuery struct {
	TransactionID string
}
