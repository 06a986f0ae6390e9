package model

import (
	"time"

	"github.com/ivankudzin/vodapp/backend/internal/domain/enums"
)

// ViewGrant is the durable record that a user has unlocked a video. At most
// one grant ever exists per (user, video) pair; the pair's uniqueness in the
// store is what makes coin purchases idempotent.
type ViewGrant struct {
	ID               string             `json:"id"`
	UserID           int64              `json:"user_id"`
	VideoID          int64              `json:"video_id"`
	AccessMethod     enums.AccessMethod `json:"access_method"`
	LastTimestampSec int                `json:"last_timestamp_sec"`
	CreatedAt        time.Time          `json:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at"`
}
