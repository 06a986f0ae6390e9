package dto

import "time"

type PlaybackResponse struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
	Reason    string    `json:"reason"`
}
