package progress

import (
	"context"
	"errors"
	"fmt"

	redrepo "github.com/ivankudzin/vodapp/backend/internal/repo/redis"
)

var ErrValidation = errors.New("validation error")

type GrantStore interface {
	UpsertCheckpoint(ctx context.Context, userID, videoID int64, seconds int) (bool, error)
	LastPosition(ctx context.Context, userID, videoID int64) (int, error)
}

type Buffer interface {
	Stage(ctx context.Context, userID, videoID int64, seconds int) error
	Position(ctx context.Context, userID, videoID int64) (int, bool, error)
	Drain(ctx context.Context, limit int) ([]redrepo.CheckpointRecord, error)
}

// Service records playback positions. Checkpoints are deliberately
// best-effort: they land in a buffer and reach the durable store on the
// next flush, and a lost checkpoint only rewinds the viewer a few seconds.
// Purchases never go through this path.
type Service struct {
	grants GrantStore
	buffer Buffer
}

func NewService(grants GrantStore, buffer Buffer) *Service {
	return &Service{
		grants: grants,
		buffer: buffer,
	}
}

// Checkpoint stages the position in the buffer, falling back to a direct
// store write when no buffer is configured or the buffer is down.
func (s *Service) Checkpoint(ctx context.Context, userID, videoID int64, seconds int) error {
	if userID <= 0 || videoID <= 0 || seconds < 0 {
		return ErrValidation
	}
	if s.grants == nil {
		return fmt.Errorf("grant store is nil")
	}

	if s.buffer != nil {
		if err := s.buffer.Stage(ctx, userID, videoID, seconds); err == nil {
			return nil
		}
	}

	if _, err := s.grants.UpsertCheckpoint(ctx, userID, videoID, seconds); err != nil {
		return fmt.Errorf("write checkpoint: %w", err)
	}
	return nil
}

// GetLastPosition prefers the buffer, since it may hold a position newer
// than the last flush. Unknown pairs resume from zero.
func (s *Service) GetLastPosition(ctx context.Context, userID, videoID int64) (int, error) {
	if userID <= 0 || videoID <= 0 {
		return 0, ErrValidation
	}
	if s.grants == nil {
		return 0, fmt.Errorf("grant store is nil")
	}

	if s.buffer != nil {
		seconds, found, err := s.buffer.Position(ctx, userID, videoID)
		if err == nil && found {
			return seconds, nil
		}
	}

	return s.grants.LastPosition(ctx, userID, videoID)
}

// Flush drains buffered checkpoints into the store. A record that fails to
// persist is staged again so the next flush retries it.
func (s *Service) Flush(ctx context.Context, limit int) (int, error) {
	if s.grants == nil {
		return 0, fmt.Errorf("grant store is nil")
	}
	if s.buffer == nil {
		return 0, nil
	}

	records, err := s.buffer.Drain(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("drain checkpoint buffer: %w", err)
	}

	applied := 0
	for _, rec := range records {
		ok, err := s.grants.UpsertCheckpoint(ctx, rec.UserID, rec.VideoID, rec.Seconds)
		if err != nil {
			if stageErr := s.buffer.Stage(ctx, rec.UserID, rec.VideoID, rec.Seconds); stageErr != nil {
				return applied, fmt.Errorf("re-stage checkpoint after failure: %v: %w", stageErr, err)
			}
			return applied, fmt.Errorf("persist checkpoint: %w", err)
		}
		if ok {
			applied++
		}
	}

	return applied, nil
}
