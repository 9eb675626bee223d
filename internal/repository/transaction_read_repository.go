package repository

import (
	"context"
	"time"

	"github.com/eaglebank/account-service/internal/models"
	sharedredis "github.com/eaglebank/account-service/internal/redis"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const transactionViewKeyPrefix = "transaction:view:"

// TransactionFinder loads a ledger entry from the source of truth.
type TransactionFinder interface {
	FindByID(ctx context.Context, id string) (*models.Transaction, error)
}

// TransactionReadRepository serves ledger reads from Redis and falls back to
// the write store on a miss, warming the cache. Ledger entries never change
// once written, so a cached entry cannot go stale.
type TransactionReadRepository struct {
	source TransactionFinder
	cache  *sharedredis.ViewCache[models.Transaction]
}

func NewTransactionReadRepository(source TransactionFinder, redisClient *goredis.Client, ttl time.Duration, logger *zap.Logger) *TransactionReadRepository {
	return &TransactionReadRepository{
		source: source,
		cache:  sharedredis.NewViewCache[models.Transaction](redisClient, ttl, logger),
	}
}

func (r *TransactionReadRepository) FindByID(ctx context.Context, id string) (*models.Transaction, error) {
	if t, ok := r.cache.Get(ctx, transactionViewKeyPrefix+id); ok {
		return t, nil
	}
	t, err := r.source.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	r.CacheTransaction(ctx, t)
	return t, nil
}

// CacheTransaction stores the read model for a ledger entry unless one is
// already cached. The first cached copy wins, whichever path wrote it.
func (r *TransactionReadRepository) CacheTransaction(ctx context.Context, t *models.Transaction) {
	r.cache.SetOnce(ctx, transactionViewKeyPrefix+t.ID, t)
}
