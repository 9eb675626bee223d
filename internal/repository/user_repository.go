package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/eaglebank/account-service/internal/models"
	"github.com/eaglebank/account-service/internal/utils"
)

// UserRepository persists users in PostgreSQL.
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT id, name, created_at FROM users WHERE id = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *UserRepository) FindByName(ctx context.Context, name string) (*models.User, error) {
	query := `SELECT id, name, created_at FROM users WHERE name = $1 ORDER BY created_at ASC LIMIT 1`
	return scanUser(r.db.QueryRowContext(ctx, query, name))
}

func (r *UserRepository) ExistsByID(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check user: %w", err)
	}
	return exists, nil
}

// Save inserts a new user (empty ID) or renames an existing one. CreatedAt
// is never rewritten.
func (r *UserRepository) Save(ctx context.Context, user *models.User) (*models.User, error) {
	saved := *user
	if saved.ID == "" {
		saved.ID = utils.GenerateID("usr")
		if saved.CreatedAt.IsZero() {
			saved.CreatedAt = time.Now().UTC()
		}
		_, err := r.db.ExecContext(ctx,
			`INSERT INTO users (id, name, created_at) VALUES ($1, $2, $3)`,
			saved.ID, saved.Name, saved.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create user: %w", err)
		}
		return &saved, nil
	}

	result, err := r.db.ExecContext(ctx, `UPDATE users SET name = $2 WHERE id = $1`, saved.ID, saved.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return nil, models.NotFound("user")
	}
	return &saved, nil
}

func scanUser(row rowScanner) (*models.User, error) {
	var user models.User
	err := row.Scan(&user.ID, &user.Name, &user.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, models.NotFound("user")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}
