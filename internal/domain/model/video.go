package model

import "time"

type Video struct {
	ID        int64     `json:"id"`
	PostID    int64     `json:"post_id"`
	Sequence  int       `json:"sequence"`
	IsPremium bool      `json:"is_premium"`
	ObjectKey string    `json:"object_key"`
	CreatedAt time.Time `json:"created_at"`
}
