package redis

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const (
	progressKeyPrefix  = "progress:"
	progressPendingKey = "progress_pending"
	progressTTL        = 24 * time.Hour
)

// ProgressRepo buffers playback checkpoints. Writes land in redis and a
// pending set; a background job drains the set into the durable store.
// Losing a buffered checkpoint only costs the viewer a few seconds of
// resume position.
type ProgressRepo struct {
	client *goredis.Client
}

type CheckpointRecord struct {
	UserID  int64
	VideoID int64
	Seconds int
}

func NewProgressRepo(client *goredis.Client) *ProgressRepo {
	return &ProgressRepo{client: client}
}

func (r *ProgressRepo) Stage(ctx context.Context, userID, videoID int64, seconds int) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if userID <= 0 || videoID <= 0 || seconds < 0 {
		return fmt.Errorf("invalid checkpoint payload")
	}

	member := pendingMember(userID, videoID)
	pipe := r.client.TxPipeline()
	pipe.Set(ctx, progressKey(userID, videoID), seconds, progressTTL)
	pipe.SAdd(ctx, progressPendingKey, member)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("stage progress checkpoint: %w", err)
	}

	return nil
}

func (r *ProgressRepo) Position(ctx context.Context, userID, videoID int64) (int, bool, error) {
	if r.client == nil {
		return 0, false, fmt.Errorf("redis client is nil")
	}
	if userID <= 0 || videoID <= 0 {
		return 0, false, fmt.Errorf("invalid position lookup payload")
	}

	seconds, err := r.client.Get(ctx, progressKey(userID, videoID)).Int()
	if err == goredis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("get buffered position: %w", err)
	}

	return seconds, true, nil
}

// Drain pops up to limit pending checkpoints and resolves their latest
// buffered positions. Members whose value expired are skipped.
func (r *ProgressRepo) Drain(ctx context.Context, limit int) ([]CheckpointRecord, error) {
	if r.client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}
	if limit <= 0 {
		limit = 100
	}

	members, err := r.client.SPopN(ctx, progressPendingKey, int64(limit)).Result()
	if err != nil && err != goredis.Nil {
		return nil, fmt.Errorf("pop pending checkpoints: %w", err)
	}
	if len(members) == 0 {
		return nil, nil
	}

	records := make([]CheckpointRecord, 0, len(members))
	for _, member := range members {
		userID, videoID, ok := parsePendingMember(member)
		if !ok {
			continue
		}

		seconds, found, err := r.Position(ctx, userID, videoID)
		if err != nil {
			return records, err
		}
		if !found {
			continue
		}

		records = append(records, CheckpointRecord{
			UserID:  userID,
			VideoID: videoID,
			Seconds: seconds,
		})
	}

	return records, nil
}

func progressKey(userID, videoID int64) string {
	return progressKeyPrefix + strconv.FormatInt(userID, 10) + ":" + strconv.FormatInt(videoID, 10)
}

func pendingMember(userID, videoID int64) string {
	return strconv.FormatInt(userID, 10) + ":" + strconv.FormatInt(videoID, 10)
}

func parsePendingMember(member string) (int64, int64, bool) {
	parts := strings.SplitN(member, ":", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}

	userID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil || userID <= 0 {
		return 0, 0, false
	}
	videoID, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || videoID <= 0 {
		return 0, 0, false
	}

	return userID, videoID, true
}
