package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ivankudzin/vodapp/backend/internal/domain/enums"
	"github.com/ivankudzin/vodapp/backend/internal/domain/model"
)

var ErrUserNotFound = errors.New("user not found")

type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

func (r *UserRepo) FindByID(ctx context.Context, userID int64) (model.User, error) {
	if userID <= 0 {
		return model.User{}, fmt.Errorf("invalid user id")
	}
	if r.pool == nil {
		return model.User{}, fmt.Errorf("postgres pool is nil")
	}

	var user model.User
	var role string
	err := r.pool.QueryRow(ctx, `
SELECT id, email, coin_balance, role, created_at, updated_at
FROM users
WHERE id = $1
LIMIT 1
`, userID).Scan(&user.ID, &user.Email, &user.CoinBalance, &role, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, ErrUserNotFound
		}
		return model.User{}, fmt.Errorf("find user by id: %w", err)
	}

	user.Role = enums.Role(role)
	return user, nil
}

func (r *UserRepo) FindCredentialsByEmail(ctx context.Context, email string) (model.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return model.User{}, "", fmt.Errorf("email is required")
	}
	if r.pool == nil {
		return model.User{}, "", fmt.Errorf("postgres pool is nil")
	}

	var user model.User
	var role, passwordHash string
	err := r.pool.QueryRow(ctx, `
SELECT id, email, coin_balance, role, password_hash, created_at, updated_at
FROM users
WHERE email = $1
LIMIT 1
`, email).Scan(&user.ID, &user.Email, &user.CoinBalance, &role, &passwordHash, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, "", ErrUserNotFound
		}
		return model.User{}, "", fmt.Errorf("find user by email: %w", err)
	}

	user.Role = enums.Role(role)
	return user, passwordHash, nil
}
