package progressflush

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

type Flusher interface {
	Flush(ctx context.Context, limit int) (int, error)
}

// Job drains buffered playback checkpoints into persistent storage. Losing a
// run is acceptable, losing money never is, so this path stays best-effort.
type Job struct {
	flusher Flusher
	batch   int
	logger  *zap.Logger
}

func New(flusher Flusher, batch int, logger *zap.Logger) *Job {
	if batch <= 0 {
		batch = 500
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Job{
		flusher: flusher,
		batch:   batch,
		logger:  logger,
	}
}

func (j *Job) Run(ctx context.Context) error {
	if j.flusher == nil {
		return nil
	}

	applied, err := j.flusher.Flush(ctx, j.batch)
	if err != nil {
		return fmt.Errorf("flush buffered checkpoints: %w", err)
	}
	if applied > 0 {
		j.logger.Info("flushed buffered checkpoints", zap.Int("applied", applied))
	}

	return nil
}

// Start runs the job on a fixed interval until the context is cancelled.
// Failures are logged and retried on the next tick.
func (j *Job) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 15 * time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := j.Run(ctx); err != nil {
				j.logger.Warn("progress flush run failed", zap.Error(err))
			}
		}
	}
}
