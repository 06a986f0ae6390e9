package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ivankudzin/vodapp/backend/internal/domain/enums"
	"github.com/ivankudzin/vodapp/backend/internal/domain/model"
)

var (
	ErrGrantNotFound       = errors.New("view grant not found")
	ErrInsufficientBalance = errors.New("insufficient coin balance")
)

const uniqueViolationCode = "23505"

type ViewGrantRepo struct {
	pool *pgxpool.Pool
}

func NewViewGrantRepo(pool *pgxpool.Pool) *ViewGrantRepo {
	return &ViewGrantRepo{pool: pool}
}

func (r *ViewGrantRepo) Find(ctx context.Context, userID, videoID int64) (model.ViewGrant, error) {
	if userID <= 0 || videoID <= 0 {
		return model.ViewGrant{}, fmt.Errorf("invalid grant lookup payload")
	}
	if r.pool == nil {
		return model.ViewGrant{}, fmt.Errorf("postgres pool is nil")
	}

	grant, err := scanViewGrantRow(r.pool.QueryRow(ctx, `
SELECT id, user_id, video_id, access_method, last_timestamp_sec, created_at, updated_at
FROM video_views
WHERE user_id = $1 AND video_id = $2
LIMIT 1
`, userID, videoID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ViewGrant{}, ErrGrantNotFound
		}
		return model.ViewGrant{}, fmt.Errorf("find view grant: %w", err)
	}

	return grant, nil
}

// Purchase debits the user's coin balance and creates a POINT_PAYMENT grant
// as one atomic commit. The user row is locked first so a concurrent request
// for the same pair re-reads balance and grant behind the lock; the unique
// (user_id, video_id) constraint is the backstop if it commits anyway. The
// bool result is false when the grant already existed and nothing was
// charged.
func (r *ViewGrantRepo) Purchase(ctx context.Context, userID, videoID, price int64) (model.ViewGrant, bool, error) {
	if userID <= 0 || videoID <= 0 || price <= 0 {
		return model.ViewGrant{}, false, fmt.Errorf("invalid purchase payload")
	}
	if r.pool == nil {
		return model.ViewGrant{}, false, fmt.Errorf("postgres pool is nil")
	}

	var out model.ViewGrant
	created := false
	err := WithTx(ctx, r.pool, func(txCtx context.Context, tx pgx.Tx) error {
		var balance int64
		err := tx.QueryRow(txCtx, `
SELECT coin_balance
FROM users
WHERE id = $1
FOR UPDATE
`, userID).Scan(&balance)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrUserNotFound
			}
			return fmt.Errorf("lock user balance: %w", err)
		}

		var exists bool
		if err := tx.QueryRow(txCtx, `
SELECT EXISTS (SELECT 1 FROM videos WHERE id = $1)
`, videoID).Scan(&exists); err != nil {
			return fmt.Errorf("check video exists: %w", err)
		}
		if !exists {
			return ErrVideoNotFound
		}

		grant, err := scanViewGrantRow(tx.QueryRow(txCtx, `
SELECT id, user_id, video_id, access_method, last_timestamp_sec, created_at, updated_at
FROM video_views
WHERE user_id = $1 AND video_id = $2
LIMIT 1
`, userID, videoID))
		if err == nil {
			out = grant
			created = false
			return nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("re-check view grant: %w", err)
		}

		if balance < price {
			return ErrInsufficientBalance
		}

		if _, err := tx.Exec(txCtx, `
UPDATE users
SET coin_balance = coin_balance - $2, updated_at = NOW()
WHERE id = $1
`, userID, price); err != nil {
			return fmt.Errorf("debit coin balance: %w", err)
		}

		grant, err = scanViewGrantRow(tx.QueryRow(txCtx, `
INSERT INTO video_views (id, user_id, video_id, access_method, last_timestamp_sec, created_at, updated_at)
VALUES ($1, $2, $3, $4, 0, NOW(), NOW())
RETURNING id, user_id, video_id, access_method, last_timestamp_sec, created_at, updated_at
`, uuid.NewString(), userID, videoID, string(enums.AccessMethodPointPayment)))
		if err != nil {
			return fmt.Errorf("insert view grant: %w", err)
		}

		if _, err := tx.Exec(txCtx, `
INSERT INTO coin_ledger (id, user_id, delta, reason, video_id, created_at)
VALUES ($1, $2, $3, $4, $5, NOW())
`, uuid.NewString(), userID, -price, model.LedgerReasonVideoPurchase, videoID); err != nil {
			return fmt.Errorf("insert coin ledger entry: %w", err)
		}

		out = grant
		created = true
		return nil
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			// Lost the race: the winning transaction committed the grant,
			// so surface it as already granted.
			existing, findErr := r.Find(ctx, userID, videoID)
			if findErr != nil {
				return model.ViewGrant{}, false, fmt.Errorf("read winning grant after conflict: %w", findErr)
			}
			return existing, false, nil
		}
		return model.ViewGrant{}, false, err
	}

	return out, created, nil
}

// EnsureSubscriptionGrant records a SUBSCRIPTION grant on first authorized
// playback. An existing grant of any method wins; a racing paid grant is
// never overwritten.
func (r *ViewGrantRepo) EnsureSubscriptionGrant(ctx context.Context, userID, videoID int64) (model.ViewGrant, error) {
	if userID <= 0 || videoID <= 0 {
		return model.ViewGrant{}, fmt.Errorf("invalid grant payload")
	}
	if r.pool == nil {
		return model.ViewGrant{}, fmt.Errorf("postgres pool is nil")
	}

	grant, err := scanViewGrantRow(r.pool.QueryRow(ctx, `
INSERT INTO video_views (id, user_id, video_id, access_method, last_timestamp_sec, created_at, updated_at)
VALUES ($1, $2, $3, $4, 0, NOW(), NOW())
ON CONFLICT (user_id, video_id) DO NOTHING
RETURNING id, user_id, video_id, access_method, last_timestamp_sec, created_at, updated_at
`, uuid.NewString(), userID, videoID, string(enums.AccessMethodSubscription)))
	if err == nil {
		return grant, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return model.ViewGrant{}, fmt.Errorf("ensure subscription grant: %w", err)
	}

	return r.Find(ctx, userID, videoID)
}

// UpsertCheckpoint writes the last playback position. A missing grant is
// created with access method FREE, but only for non-premium videos; a
// checkpoint for a premium video the user never unlocked is dropped and
// reported via the bool result.
func (r *ViewGrantRepo) UpsertCheckpoint(ctx context.Context, userID, videoID int64, seconds int) (bool, error) {
	if userID <= 0 || videoID <= 0 || seconds < 0 {
		return false, fmt.Errorf("invalid checkpoint payload")
	}
	if r.pool == nil {
		return false, fmt.Errorf("postgres pool is nil")
	}

	applied := false
	err := WithTx(ctx, r.pool, func(txCtx context.Context, tx pgx.Tx) error {
		tag, err := tx.Exec(txCtx, `
UPDATE video_views
SET last_timestamp_sec = $3, updated_at = NOW()
WHERE user_id = $1 AND video_id = $2
`, userID, videoID, seconds)
		if err != nil {
			return fmt.Errorf("update checkpoint: %w", err)
		}
		if tag.RowsAffected() > 0 {
			applied = true
			return nil
		}

		tag, err = tx.Exec(txCtx, `
INSERT INTO video_views (id, user_id, video_id, access_method, last_timestamp_sec, created_at, updated_at)
SELECT $1, $2, v.id, $4, $5, NOW(), NOW()
FROM videos v
WHERE v.id = $3 AND v.is_premium = FALSE
ON CONFLICT (user_id, video_id) DO UPDATE
SET last_timestamp_sec = EXCLUDED.last_timestamp_sec, updated_at = NOW()
`, uuid.NewString(), userID, videoID, string(enums.AccessMethodFree), seconds)
		if err != nil {
			return fmt.Errorf("insert free checkpoint grant: %w", err)
		}
		applied = tag.RowsAffected() > 0
		return nil
	})
	if err != nil {
		return false, err
	}

	return applied, nil
}

func (r *ViewGrantRepo) LastPosition(ctx context.Context, userID, videoID int64) (int, error) {
	grant, err := r.Find(ctx, userID, videoID)
	if err != nil {
		if errors.Is(err, ErrGrantNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return grant.LastTimestampSec, nil
}

func scanViewGrantRow(row pgx.Row) (model.ViewGrant, error) {
	var grant model.ViewGrant
	var method string
	var lastTimestamp int
	var createdAt, updatedAt time.Time
	if err := row.Scan(&grant.ID, &grant.UserID, &grant.VideoID, &method, &lastTimestamp, &createdAt, &updatedAt); err != nil {
		return model.ViewGrant{}, err
	}
	grant.AccessMethod = enums.AccessMethod(method)
	grant.LastTimestampSec = lastTimestamp
	grant.CreatedAt = createdAt
	grant.UpdatedAt = updatedAt
	return grant, nil
}
