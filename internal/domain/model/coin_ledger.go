package model

import "time"

// CoinLedgerEntry is a signed movement of a user's coin balance. Debits are
// written in the same transaction as the grant they pay for; credits carry
// the billing provider's event id so replayed webhooks cannot double-credit.
type CoinLedgerEntry struct {
	ID              string    `json:"id"`
	UserID          int64     `json:"user_id"`
	Delta           int64     `json:"delta"`
	Reason          string    `json:"reason"`
	VideoID         *int64    `json:"video_id,omitempty"`
	ProviderEventID *string   `json:"provider_event_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

const (
	LedgerReasonVideoPurchase = "video_purchase"
	LedgerReasonCoinTopUp     = "coin_topup"
)
