package events

import (
	"context"

	"github.com/eaglebank/account-service/internal/models"
	"go.uber.org/zap"
)

// TransactionCacher stores the read model of a ledger entry.
type TransactionCacher interface {
	CacheTransaction(ctx context.Context, t *models.Transaction)
}

// TransactionProjector keeps the transaction read model warm from
// transaction.events.
type TransactionProjector struct {
	cache  TransactionCacher
	logger *zap.Logger
}

func NewTransactionProjector(cache TransactionCacher, logger *zap.Logger) *TransactionProjector {
	return &TransactionProjector{cache: cache, logger: logger}
}

// Handle is an events.Handler. Unrelated event types are ignored.
func (p *TransactionProjector) Handle(ctx context.Context, event Event) error {
	if event.Type != TransactionUsed && event.Type != TransactionCancelled {
		return nil
	}
	var data TransactionRecordedEvent
	if err := DecodeData(event, &data); err != nil {
		return err
	}
	p.cache.CacheTransaction(ctx, data.Transaction())
	p.logger.Debug("transaction projected",
		zap.String("transactionId", data.TransactionID),
		zap.String("type", event.Type),
	)
	return nil
}
