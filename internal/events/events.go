package events

import (
	"time"

	"github.com/eaglebank/account-service/internal/models"
)

// Event types
const (
	AccountCreated = "account.created"
	AccountClosed  = "account.closed"

	TransactionUsed      = "transaction.used"
	TransactionCancelled = "transaction.cancelled"
)

// Stream names
const (
	AccountEventsStream     = "account.events"
	TransactionEventsStream = "transaction.events"
)

// Event is the envelope written to a stream.
type Event struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

type AccountCreatedEvent struct {
	AccountNumber  string    `json:"accountNumber"`
	UserID         string    `json:"userId"`
	InitialBalance int64     `json:"initialBalance"`
	RegisteredAt   time.Time `json:"registeredAt"`
}

type AccountClosedEvent struct {
	AccountNumber string    `json:"accountNumber"`
	UserID        string    `json:"userId"`
	ClosedAt      time.Time `json:"closedAt"`
}

// TransactionRecordedEvent carries a full ledger entry so consumers can
// project it without reading the write store.
type TransactionRecordedEvent struct {
	TransactionID   string                   `json:"transactionId"`
	AccountID       string                   `json:"accountId"`
	AccountNumber   string                   `json:"accountNumber"`
	Amount          int64                    `json:"amount"`
	Type            models.TransactionType   `json:"type"`
	Result          models.TransactionResult `json:"result"`
	TransactionDate time.Time                `json:"transactionDate"`
	BalanceAfter    int64                    `json:"balanceAfter"`
}

func NewTransactionRecordedEvent(t *models.Transaction, balanceAfter int64) TransactionRecordedEvent {
	return TransactionRecordedEvent{
		TransactionID:   t.ID,
		AccountID:       t.AccountID,
		AccountNumber:   t.AccountNumber,
		Amount:          t.Amount,
		Type:            t.Type,
		Result:          t.Result,
		TransactionDate: t.TransactionDate,
		BalanceAfter:    balanceAfter,
	}
}

// Transaction rebuilds the ledger entry carried by the event.
func (e TransactionRecordedEvent) Transaction() *models.Transaction {
	return &models.Transaction{
		ID:              e.TransactionID,
		AccountID:       e.AccountID,
		AccountNumber:   e.AccountNumber,
		Amount:          e.Amount,
		Type:            e.Type,
		Result:          e.Result,
		TransactionDate: e.TransactionDate,
	}
}
