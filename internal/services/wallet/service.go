package wallet

import (
	"context"
	"errors"
	"fmt"

	"github.com/ivankudzin/vodapp/backend/internal/domain/model"
	pgrepo "github.com/ivankudzin/vodapp/backend/internal/repo/postgres"
)

var (
	ErrValidation   = errors.New("validation error")
	ErrUserNotFound = errors.New("user not found")
)

type UserStore interface {
	FindByID(ctx context.Context, userID int64) (model.User, error)
}

type LedgerStore interface {
	ListByUser(ctx context.Context, userID int64, limit int) ([]model.CoinLedgerEntry, error)
}

type Summary struct {
	Balance int64
	Entries []model.CoinLedgerEntry
}

// Service reads a user's coin balance together with recent ledger movements.
type Service struct {
	users  UserStore
	ledger LedgerStore
}

func NewService(users UserStore, ledger LedgerStore) *Service {
	return &Service{
		users:  users,
		ledger: ledger,
	}
}

func (s *Service) Summary(ctx context.Context, userID int64, limit int) (Summary, error) {
	if userID <= 0 {
		return Summary{}, ErrValidation
	}
	if s.users == nil || s.ledger == nil {
		return Summary{}, fmt.Errorf("wallet stores are not configured")
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrUserNotFound) {
			return Summary{}, ErrUserNotFound
		}
		return Summary{}, fmt.Errorf("find user: %w", err)
	}

	entries, err := s.ledger.ListByUser(ctx, userID, limit)
	if err != nil {
		return Summary{}, fmt.Errorf("list ledger entries: %w", err)
	}

	return Summary{
		Balance: user.CoinBalance,
		Entries: entries,
	}, nil
}
