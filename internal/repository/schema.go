package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/eaglebank/account-service/internal/models"
	"go.uber.org/zap"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
    id         TEXT PRIMARY KEY,
    name       TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS accounts (
    id             TEXT PRIMARY KEY,
    account_number CHAR(10) NOT NULL UNIQUE,
    user_id        TEXT NOT NULL REFERENCES users(id),
    balance        BIGINT NOT NULL,
    is_deleted     BOOLEAN NOT NULL DEFAULT FALSE,
    created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    closed_at      TIMESTAMPTZ,
    status         TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_accounts_user_id ON accounts(user_id);
CREATE TABLE IF NOT EXISTS transactions (
    id                 TEXT PRIMARY KEY,
    account_id         TEXT NOT NULL REFERENCES accounts(id),
    amount             BIGINT NOT NULL,
    transaction_type   TEXT NOT NULL,
    transaction_result TEXT NOT NULL,
    transaction_date   TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_transactions_account_id ON transactions(account_id);
`

// Migrate creates the tables if they do not exist yet.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// UserSeeder is the subset of a user store that seeding needs.
type UserSeeder interface {
	FindByName(ctx context.Context, name string) (*models.User, error)
	Save(ctx context.Context, user *models.User) (*models.User, error)
}

// SeedUsers creates a user for each name that does not exist yet. Running it
// again is a no-op.
func SeedUsers(ctx context.Context, store UserSeeder, logger *zap.Logger, names ...string) error {
	for _, name := range names {
		existing, err := store.FindByName(ctx, name)
		if err == nil {
			logger.Debug("seed user present", zap.String("name", name), zap.String("userId", existing.ID))
			continue
		}
		if !errors.Is(err, models.ErrNotFound) {
			return err
		}
		user, err := store.Save(ctx, models.NewUser(name, time.Now().UTC()))
		if err != nil {
			return fmt.Errorf("failed to seed user %s: %w", name, err)
		}
		logger.Info("seeded user", zap.String("name", user.Name), zap.String("userId", user.ID))
	}
	return nil
}
