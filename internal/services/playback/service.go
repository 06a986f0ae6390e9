package playback

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"

	"github.com/ivankudzin/vodapp/backend/internal/domain/enums"
	"github.com/ivankudzin/vodapp/backend/internal/domain/model"
	"github.com/ivankudzin/vodapp/backend/internal/services/entitlements"
)

var (
	ErrValidation = errors.New("validation error")
	ErrForbidden  = errors.New("playback not authorized")
)

const defaultURLTTL = 4 * time.Hour

type Evaluator interface {
	Evaluate(ctx context.Context, videoID int64, userID *int64) (entitlements.Decision, error)
}

type VideoStore interface {
	FindByID(ctx context.Context, videoID int64) (model.Video, error)
}

type GrantStore interface {
	EnsureSubscriptionGrant(ctx context.Context, userID, videoID int64) (model.ViewGrant, error)
}

type Config struct {
	URLTTL time.Duration
}

type StreamURL struct {
	URL       string
	ExpiresAt time.Time
	Decision  entitlements.Decision
}

// S3Storage wraps the object store holding video files. The bucket is
// created lazily on first use.
type S3Storage struct {
	client *minio.Client
	bucket string

	ensureOnce sync.Once
	ensureErr  error
}

func NewS3Storage(client *minio.Client, bucket string) *S3Storage {
	return &S3Storage{
		client: client,
		bucket: strings.TrimSpace(bucket),
	}
}

func (s *S3Storage) EnsureBucket(ctx context.Context) error {
	if s.client == nil {
		return fmt.Errorf("s3 client is nil")
	}
	if s.bucket == "" {
		return fmt.Errorf("s3 bucket is empty")
	}

	s.ensureOnce.Do(func() {
		exists, err := s.client.BucketExists(ctx, s.bucket)
		if err != nil {
			s.ensureErr = err
			return
		}
		if exists {
			return
		}
		s.ensureErr = s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{})
	})

	if s.ensureErr != nil {
		return fmt.Errorf("ensure s3 bucket %q: %w", s.bucket, s.ensureErr)
	}

	return nil
}

func (s *S3Storage) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if s.client == nil {
		return "", fmt.Errorf("s3 client is nil")
	}
	if key == "" {
		return "", ErrValidation
	}
	if ttl <= 0 {
		ttl = defaultURLTTL
	}

	presigned, err := s.client.PresignedGetObject(ctx, s.bucket, key, ttl, url.Values{})
	if err != nil {
		return "", fmt.Errorf("presign get object: %w", err)
	}

	return presigned.String(), nil
}

type Storage interface {
	EnsureBucket(ctx context.Context) error
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// Service turns an access decision into a signed stream URL. Subscription
// access is materialized as a grant so watch history survives the
// subscription itself.
type Service struct {
	evaluator Evaluator
	videos    VideoStore
	grants    GrantStore
	storage   Storage
	cfg       Config
	now       func() time.Time
}

func NewService(evaluator Evaluator, videos VideoStore, grants GrantStore, storage Storage, cfg Config) *Service {
	if cfg.URLTTL <= 0 {
		cfg.URLTTL = defaultURLTTL
	}

	return &Service{
		evaluator: evaluator,
		videos:    videos,
		grants:    grants,
		storage:   storage,
		cfg:       cfg,
		now:       time.Now,
	}
}

func (s *Service) StreamURL(ctx context.Context, videoID int64, userID *int64) (StreamURL, error) {
	if videoID <= 0 {
		return StreamURL{}, ErrValidation
	}
	if s.evaluator == nil || s.videos == nil || s.grants == nil || s.storage == nil {
		return StreamURL{}, fmt.Errorf("playback service is not fully wired")
	}

	decision, err := s.evaluator.Evaluate(ctx, videoID, userID)
	if err != nil {
		return StreamURL{}, err
	}
	if !decision.Authorized {
		return StreamURL{Decision: decision}, ErrForbidden
	}

	if decision.Reason == entitlements.ReasonSubscription && userID != nil {
		grant, err := s.grants.EnsureSubscriptionGrant(ctx, *userID, videoID)
		if err != nil {
			return StreamURL{}, fmt.Errorf("ensure subscription grant: %w", err)
		}
		if grant.AccessMethod == enums.AccessMethodSubscription {
			decision.Grant = &grant
		}
	}

	video, err := s.videos.FindByID(ctx, videoID)
	if err != nil {
		return StreamURL{}, err
	}

	if err := s.storage.EnsureBucket(ctx); err != nil {
		return StreamURL{}, err
	}

	signed, err := s.storage.PresignGet(ctx, video.ObjectKey, s.cfg.URLTTL)
	if err != nil {
		return StreamURL{}, err
	}

	return StreamURL{
		URL:       signed,
		ExpiresAt: s.now().Add(s.cfg.URLTTL),
		Decision:  decision,
	}, nil
}
