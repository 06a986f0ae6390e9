package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/webhook"

	pgrepo "github.com/ivankudzin/vodapp/backend/internal/repo/postgres"
)

var (
	ErrValidation       = errors.New("validation error")
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrUserNotFound     = errors.New("user not found")
)

type LedgerStore interface {
	Credit(ctx context.Context, userID, coins int64, providerEventID string) (int64, error)
}

type Config struct {
	WebhookSecret  string
	EventTolerance time.Duration
}

type Result struct {
	EventID   string
	EventType string
	UserID    int64
	Coins     int64
	Balance   int64
	Credited  bool
	Duplicate bool
	Ignored   bool
}

// Service applies coin top-ups from the billing provider. The signature is
// the webhook's only authentication, and the provider event id makes every
// credit exactly-once under replays.
type Service struct {
	ledger LedgerStore
	cfg    Config
}

func NewService(ledger LedgerStore, cfg Config) *Service {
	if cfg.EventTolerance <= 0 {
		cfg.EventTolerance = 300 * time.Second
	}

	return &Service{
		ledger: ledger,
		cfg:    cfg,
	}
}

func (s *Service) Configured() bool {
	return strings.TrimSpace(s.cfg.WebhookSecret) != ""
}

func (s *Service) HandleStripeEvent(ctx context.Context, payload []byte, sigHeader string) (Result, error) {
	if len(payload) == 0 || strings.TrimSpace(sigHeader) == "" {
		return Result{}, ErrValidation
	}
	if s.ledger == nil {
		return Result{}, fmt.Errorf("ledger store is nil")
	}
	if !s.Configured() {
		return Result{}, fmt.Errorf("stripe webhook secret is not configured")
	}

	evt, err := webhook.ConstructEventWithTolerance(payload, sigHeader, s.cfg.WebhookSecret, s.cfg.EventTolerance)
	if err != nil {
		return Result{}, ErrInvalidSignature
	}

	result := Result{
		EventID:   evt.ID,
		EventType: string(evt.Type),
	}

	if evt.Type != "checkout.session.completed" {
		result.Ignored = true
		return result, nil
	}

	var session stripe.CheckoutSession
	if err := json.Unmarshal(evt.Data.Raw, &session); err != nil {
		return Result{}, fmt.Errorf("decode checkout session payload: %w", err)
	}

	userID, coins, err := parseTopUpMetadata(session.Metadata)
	if err != nil {
		return Result{}, err
	}
	result.UserID = userID
	result.Coins = coins

	balance, err := s.ledger.Credit(ctx, userID, coins, evt.ID)
	if err != nil {
		switch {
		case errors.Is(err, pgrepo.ErrDuplicateProviderEvent):
			result.Duplicate = true
			return result, nil
		case errors.Is(err, pgrepo.ErrUserNotFound):
			return Result{}, ErrUserNotFound
		default:
			return Result{}, err
		}
	}

	result.Credited = true
	result.Balance = balance
	return result, nil
}

func parseTopUpMetadata(metadata map[string]string) (int64, int64, error) {
	userID, err := strconv.ParseInt(strings.TrimSpace(metadata["user_id"]), 10, 64)
	if err != nil || userID <= 0 {
		return 0, 0, ErrValidation
	}
	coins, err := strconv.ParseInt(strings.TrimSpace(metadata["coins"]), 10, 64)
	if err != nil || coins <= 0 {
		return 0, 0, ErrValidation
	}
	return userID, coins, nil
}
