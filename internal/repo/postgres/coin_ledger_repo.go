package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ivankudzin/vodapp/backend/internal/domain/model"
)

var ErrDuplicateProviderEvent = errors.New("provider event already processed")

type CoinLedgerRepo struct {
	pool *pgxpool.Pool
}

func NewCoinLedgerRepo(pool *pgxpool.Pool) *CoinLedgerRepo {
	return &CoinLedgerRepo{pool: pool}
}

// Credit applies a coin top-up. The ledger row carries the billing
// provider's event id under a unique constraint, so a replayed webhook
// fails the insert and the balance is credited at most once per event.
func (r *CoinLedgerRepo) Credit(ctx context.Context, userID, coins int64, providerEventID string) (int64, error) {
	providerEventID = strings.TrimSpace(providerEventID)
	if userID <= 0 || coins <= 0 || providerEventID == "" {
		return 0, fmt.Errorf("invalid credit payload")
	}
	if r.pool == nil {
		return 0, fmt.Errorf("postgres pool is nil")
	}

	var balance int64
	err := WithTx(ctx, r.pool, func(txCtx context.Context, tx pgx.Tx) error {
		if _, err := tx.Exec(txCtx, `
INSERT INTO coin_ledger (id, user_id, delta, reason, provider_event_id, created_at)
VALUES ($1, $2, $3, $4, $5, NOW())
`, uuid.NewString(), userID, coins, model.LedgerReasonCoinTopUp, providerEventID); err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
				return ErrDuplicateProviderEvent
			}
			return fmt.Errorf("insert coin ledger entry: %w", err)
		}

		err := tx.QueryRow(txCtx, `
UPDATE users
SET coin_balance = coin_balance + $2, updated_at = NOW()
WHERE id = $1
RETURNING coin_balance
`, userID, coins).Scan(&balance)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrUserNotFound
			}
			return fmt.Errorf("credit coin balance: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return balance, nil
}

func (r *CoinLedgerRepo) ListByUser(ctx context.Context, userID int64, limit int) ([]model.CoinLedgerEntry, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("invalid user id")
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	rows, err := r.pool.Query(ctx, `
SELECT id, user_id, delta, reason, video_id, provider_event_id, created_at
FROM coin_ledger
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2
`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list coin ledger entries: %w", err)
	}
	defer rows.Close()

	var entries []model.CoinLedgerEntry
	for rows.Next() {
		var entry model.CoinLedgerEntry
		if err := rows.Scan(&entry.ID, &entry.UserID, &entry.Delta, &entry.Reason, &entry.VideoID, &entry.ProviderEventID, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan coin ledger row: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate coin ledger rows: %w", err)
	}

	return entries, nil
}
