package dto

import "time"

type LedgerEntryResponse struct {
	ID        string    `json:"id"`
	Delta     int64     `json:"delta"`
	Reason    string    `json:"reason"`
	VideoID   *int64    `json:"video_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type WalletResponse struct {
	Balance int64                 `json:"balance"`
	Entries []LedgerEntryResponse `json:"entries"`
}
