package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ivankudzin/vodapp/backend/internal/domain/enums"
	"github.com/ivankudzin/vodapp/backend/internal/domain/model"
)

var ErrSubscriptionNotFound = errors.New("subscription not found")

type SubscriptionRepo struct {
	pool *pgxpool.Pool
}

func NewSubscriptionRepo(pool *pgxpool.Pool) *SubscriptionRepo {
	return &SubscriptionRepo{pool: pool}
}

func (r *SubscriptionRepo) FindByUser(ctx context.Context, userID int64) (model.Subscription, error) {
	if userID <= 0 {
		return model.Subscription{}, fmt.Errorf("invalid user id")
	}
	if r.pool == nil {
		return model.Subscription{}, fmt.Errorf("postgres pool is nil")
	}

	var sub model.Subscription
	var status string
	err := r.pool.QueryRow(ctx, `
SELECT user_id, status, current_period_end, updated_at
FROM subscriptions
WHERE user_id = $1
LIMIT 1
`, userID).Scan(&sub.UserID, &status, &sub.CurrentPeriodEnd, &sub.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Subscription{}, ErrSubscriptionNotFound
		}
		return model.Subscription{}, fmt.Errorf("find subscription by user: %w", err)
	}

	sub.Status = enums.SubscriptionStatus(status)
	return sub, nil
}
