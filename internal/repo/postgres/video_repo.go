package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ivankudzin/vodapp/backend/internal/domain/model"
)

var ErrVideoNotFound = errors.New("video not found")

type VideoRepo struct {
	pool *pgxpool.Pool
}

func NewVideoRepo(pool *pgxpool.Pool) *VideoRepo {
	return &VideoRepo{pool: pool}
}

func (r *VideoRepo) FindByID(ctx context.Context, videoID int64) (model.Video, error) {
	if videoID <= 0 {
		return model.Video{}, fmt.Errorf("invalid video id")
	}
	if r.pool == nil {
		return model.Video{}, fmt.Errorf("postgres pool is nil")
	}

	var video model.Video
	err := r.pool.QueryRow(ctx, `
SELECT id, post_id, sequence, is_premium, object_key, created_at
FROM videos
WHERE id = $1
LIMIT 1
`, videoID).Scan(&video.ID, &video.PostID, &video.Sequence, &video.IsPremium, &video.ObjectKey, &video.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Video{}, ErrVideoNotFound
		}
		return model.Video{}, fmt.Errorf("find video by id: %w", err)
	}

	return video, nil
}

func (r *VideoRepo) ListByPost(ctx context.Context, postID int64) ([]model.Video, error) {
	if postID <= 0 {
		return nil, fmt.Errorf("invalid post id")
	}
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	rows, err := r.pool.Query(ctx, `
SELECT id, post_id, sequence, is_premium, object_key, created_at
FROM videos
WHERE post_id = $1
ORDER BY sequence ASC
`, postID)
	if err != nil {
		return nil, fmt.Errorf("list videos by post: %w", err)
	}
	defer rows.Close()

	var videos []model.Video
	for rows.Next() {
		var video model.Video
		if err := rows.Scan(&video.ID, &video.PostID, &video.Sequence, &video.IsPremium, &video.ObjectKey, &video.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan video row: %w", err)
		}
		videos = append(videos, video)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate video rows: %w", err)
	}

	return videos, nil
}
