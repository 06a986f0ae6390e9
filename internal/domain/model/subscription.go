package model

import (
	"time"

	"github.com/ivankudzin/vodapp/backend/internal/domain/enums"
)

type Subscription struct {
	UserID           int64                    `json:"user_id"`
	Status           enums.SubscriptionStatus `json:"status"`
	CurrentPeriodEnd time.Time                `json:"current_period_end"`
	UpdatedAt        time.Time                `json:"updated_at"`
}

// ActiveAt reports whether the subscription grants blanket premium access
// at the given instant. A cancelled or lapsed period never grants access,
// even when the status row was not separately updated.
func (s Subscription) ActiveAt(at time.Time) bool {
	return s.Status == enums.SubscriptionStatusActive && s.CurrentPeriodEnd.After(at)
}
