package entitlements

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ivankudzin/vodapp/backend/internal/domain/model"
	pgrepo "github.com/ivankudzin/vodapp/backend/internal/repo/postgres"
)

var ErrValidation = errors.New("validation error")

type Reason string

const (
	ReasonFreeVideo       Reason = "FREE_VIDEO"
	ReasonGranted         Reason = "GRANTED"
	ReasonSubscription    Reason = "SUBSCRIPTION"
	ReasonLoginRequired   Reason = "LOGIN_REQUIRED"
	ReasonPaymentRequired Reason = "PAYMENT_REQUIRED"
)

type RemediationKind string

const (
	RemediationSubscribe RemediationKind = "SUBSCRIBE"
	RemediationPayCoins  RemediationKind = "PAY_COINS"
)

type Remediation struct {
	Kind          RemediationKind
	CoinsRequired int64
}

// Decision is the evaluator's verdict for one (user, video) pair. Not being
// authorized is a normal result, never an error.
type Decision struct {
	Authorized  bool
	Reason      Reason
	Grant       *model.ViewGrant
	Remediation *Remediation
}

type VideoStore interface {
	FindByID(ctx context.Context, videoID int64) (model.Video, error)
}

type GrantStore interface {
	Find(ctx context.Context, userID, videoID int64) (model.ViewGrant, error)
}

type SubscriptionStore interface {
	FindByUser(ctx context.Context, userID int64) (model.Subscription, error)
}

type Config struct {
	VideoCoinPrice int64
}

// Service decides whether playback is authorized. It only reads ledger
// state; every mutation (debit, grant creation) belongs to the purchase
// path, so callers may probe as often as they like without risking a
// duplicate charge.
type Service struct {
	videos        VideoStore
	grants        GrantStore
	subscriptions SubscriptionStore
	cfg           Config
	now           func() time.Time
}

func NewService(videos VideoStore, grants GrantStore, subscriptions SubscriptionStore, cfg Config) *Service {
	if cfg.VideoCoinPrice <= 0 {
		cfg.VideoCoinPrice = 2
	}

	return &Service{
		videos:        videos,
		grants:        grants,
		subscriptions: subscriptions,
		cfg:           cfg,
		now:           time.Now,
	}
}

// Evaluate applies the access rules in order, first match wins:
// free video, anonymous viewer, existing grant, active subscription,
// payment required.
func (s *Service) Evaluate(ctx context.Context, videoID int64, userID *int64) (Decision, error) {
	if videoID <= 0 {
		return Decision{}, ErrValidation
	}
	if userID != nil && *userID <= 0 {
		return Decision{}, ErrValidation
	}
	if s.videos == nil || s.grants == nil || s.subscriptions == nil {
		return Decision{}, fmt.Errorf("entitlement stores are not configured")
	}

	video, err := s.videos.FindByID(ctx, videoID)
	if err != nil {
		return Decision{}, err
	}

	return s.EvaluateVideo(ctx, video, userID)
}

// EvaluateVideo is Evaluate for an already-loaded video row.
func (s *Service) EvaluateVideo(ctx context.Context, video model.Video, userID *int64) (Decision, error) {
	if !video.IsPremium {
		return Decision{Authorized: true, Reason: ReasonFreeVideo}, nil
	}

	if userID == nil {
		return Decision{
			Reason:      ReasonLoginRequired,
			Remediation: &Remediation{Kind: RemediationSubscribe},
		}, nil
	}

	grant, err := s.grants.Find(ctx, *userID, video.ID)
	if err == nil {
		return Decision{Authorized: true, Reason: ReasonGranted, Grant: &grant}, nil
	}
	if !errors.Is(err, pgrepo.ErrGrantNotFound) {
		return Decision{}, err
	}

	sub, err := s.subscriptions.FindByUser(ctx, *userID)
	if err == nil && sub.ActiveAt(s.now().UTC()) {
		return Decision{Authorized: true, Reason: ReasonSubscription}, nil
	}
	if err != nil && !errors.Is(err, pgrepo.ErrSubscriptionNotFound) {
		return Decision{}, err
	}

	return Decision{
		Reason: ReasonPaymentRequired,
		Remediation: &Remediation{
			Kind:          RemediationPayCoins,
			CoinsRequired: s.cfg.VideoCoinPrice,
		},
	}, nil
}
