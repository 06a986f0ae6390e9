package model

import (
	"time"

	"github.com/ivankudzin/vodapp/backend/internal/domain/enums"
)

type User struct {
	ID          int64      `json:"id"`
	Email       string     `json:"email"`
	CoinBalance int64      `json:"coin_balance"`
	Role        enums.Role `json:"role"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
