package purchases

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ivankudzin/vodapp/backend/internal/domain/model"
	pgrepo "github.com/ivankudzin/vodapp/backend/internal/repo/postgres"
)

var (
	ErrValidation          = errors.New("validation error")
	ErrUserNotFound        = errors.New("user not found")
	ErrVideoNotFound       = errors.New("video not found")
	ErrInsufficientBalance = errors.New("insufficient coin balance")
)

// GrantStore executes the debit-and-grant as one atomic unit. The bool
// result is false when the grant already existed and no balance was touched.
type GrantStore interface {
	Purchase(ctx context.Context, userID, videoID, price int64) (model.ViewGrant, bool, error)
}

type Config struct {
	VideoCoinPrice int64
	Timeout        time.Duration
}

type Result struct {
	Grant          model.ViewGrant
	AlreadyGranted bool
}

// Service is the single mutation path for coin-paid video access. Repeated
// calls for the same (user, video) pair converge on the one existing grant,
// so callers retry freely after timeouts or ambiguous network failures.
type Service struct {
	grants GrantStore
	cfg    Config
}

func NewService(grants GrantStore, cfg Config) *Service {
	if cfg.VideoCoinPrice <= 0 {
		cfg.VideoCoinPrice = 2
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}

	return &Service{
		grants: grants,
		cfg:    cfg,
	}
}

func (s *Service) Purchase(ctx context.Context, userID, videoID int64) (Result, error) {
	if userID <= 0 || videoID <= 0 {
		return Result{}, ErrValidation
	}
	if s.grants == nil {
		return Result{}, fmt.Errorf("grant store is nil")
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	grant, created, err := s.grants.Purchase(ctx, userID, videoID, s.cfg.VideoCoinPrice)
	if err != nil {
		switch {
		case errors.Is(err, pgrepo.ErrUserNotFound):
			return Result{}, ErrUserNotFound
		case errors.Is(err, pgrepo.ErrVideoNotFound):
			return Result{}, ErrVideoNotFound
		case errors.Is(err, pgrepo.ErrInsufficientBalance):
			return Result{}, ErrInsufficientBalance
		default:
			return Result{}, err
		}
	}

	return Result{
		Grant:          grant,
		AlreadyGranted: !created,
	}, nil
}

func (s *Service) Price() int64 {
	return s.cfg.VideoCoinPrice
}
