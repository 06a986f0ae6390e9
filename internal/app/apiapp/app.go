package apiapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/minio/minio-go/v7"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ivankudzin/vodapp/backend/internal/config"
	s3infra "github.com/ivankudzin/vodapp/backend/internal/infra/s3"
	"github.com/ivankudzin/vodapp/backend/internal/jobs/progressflush"
	pgrepo "github.com/ivankudzin/vodapp/backend/internal/repo/postgres"
	redrepo "github.com/ivankudzin/vodapp/backend/internal/repo/redis"
	authsvc "github.com/ivankudzin/vodapp/backend/internal/services/auth"
	billingsvc "github.com/ivankudzin/vodapp/backend/internal/services/billing"
	entsvc "github.com/ivankudzin/vodapp/backend/internal/services/entitlements"
	playbacksvc "github.com/ivankudzin/vodapp/backend/internal/services/playback"
	progresssvc "github.com/ivankudzin/vodapp/backend/internal/services/progress"
	purchasesvc "github.com/ivankudzin/vodapp/backend/internal/services/purchases"
	ratesvc "github.com/ivankudzin/vodapp/backend/internal/services/rate"
	walletsvc "github.com/ivankudzin/vodapp/backend/internal/services/wallet"
)

type App struct {
	cfg        config.Config
	logger     *zap.Logger
	server     *http.Server
	postgres   *pgxpool.Pool
	redis      *goredis.Client
	s3         *minio.Client
	httpRouter http.Handler
	flushJob   *progressflush.Job
}

func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	r := chi.NewRouter()
	ApplyMiddlewares(r, log)

	var pool *pgxpool.Pool
	if p, err := pgrepo.NewPool(ctx, cfg.Postgres.DSN); err != nil {
		log.Warn("postgres init failed, continuing in degraded mode", zap.Error(err))
	} else {
		pool = p
	}

	redisClient := redrepo.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	sessionRepo := redrepo.NewSessionRepo(redisClient)
	progressRepo := redrepo.NewProgressRepo(redisClient)
	rateRepo := redrepo.NewRateRepo(redisClient)
	userRepo := pgrepo.NewUserRepo(pool)
	subscriptionRepo := pgrepo.NewSubscriptionRepo(pool)
	videoRepo := pgrepo.NewVideoRepo(pool)
	viewGrantRepo := pgrepo.NewViewGrantRepo(pool)
	coinLedgerRepo := pgrepo.NewCoinLedgerRepo(pool)

	jwtManager := authsvc.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTAccessTTL)
	authService := authsvc.NewService(jwtManager, sessionRepo, userRepo, cfg.Auth.RefreshTTL)
	entitlementService := entsvc.NewService(videoRepo, viewGrantRepo, subscriptionRepo, entsvc.Config{
		VideoCoinPrice: cfg.Billing.VideoCoinPrice,
	})
	purchaseService := purchasesvc.NewService(viewGrantRepo, purchasesvc.Config{
		VideoCoinPrice: cfg.Billing.VideoCoinPrice,
		Timeout:        cfg.Billing.PurchaseTimeout,
	})
	progressService := progresssvc.NewService(viewGrantRepo, progressRepo)
	billingService := billingsvc.NewService(coinLedgerRepo, billingsvc.Config{
		WebhookSecret:  cfg.Billing.StripeWebhookSecret,
		EventTolerance: cfg.Billing.StripeEventTolerance,
	})
	walletService := walletsvc.NewService(userRepo, coinLedgerRepo)
	loginLimiter := ratesvc.NewLimiter(rateRepo, cfg.Auth.LoginPerMinute)

	var s3Client *minio.Client
	if c, err := s3infra.NewClient(s3infra.Config{
		Endpoint:  cfg.S3.Endpoint,
		AccessKey: cfg.S3.AccessKey,
		SecretKey: cfg.S3.SecretKey,
		UseSSL:    cfg.S3.UseSSL,
	}); err != nil {
		log.Warn("s3 init failed, continuing in degraded mode", zap.Error(err))
	} else {
		s3Client = c
	}

	videoStorage := playbacksvc.NewS3Storage(s3Client, cfg.S3.Bucket)
	playbackService := playbacksvc.NewService(entitlementService, videoRepo, viewGrantRepo, videoStorage, playbacksvc.Config{
		URLTTL: cfg.Playback.URLTTL,
	})

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      r,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	RegisterRoutes(r, Dependencies{
		AuthService:        authService,
		BillingService:     billingService,
		EntitlementService: entitlementService,
		PlaybackService:    playbackService,
		ProgressService:    progressService,
		PurchaseService:    purchaseService,
		WalletService:      walletService,
		LoginLimiter:       loginLimiter,
		Logger:             log,
	})

	return &App{
		cfg:        cfg,
		logger:     log,
		server:     server,
		postgres:   pool,
		redis:      redisClient,
		s3:         s3Client,
		httpRouter: r,
		flushJob:   progressflush.New(progressService, cfg.Progress.FlushBatch, log),
	}, nil
}

func (a *App) Run() error {
	a.logger.Info("api server started", zap.String("addr", a.cfg.HTTP.Addr))
	err := a.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// StartProgressFlusher runs the checkpoint flush loop until ctx is cancelled.
func (a *App) StartProgressFlusher(ctx context.Context) {
	go a.flushJob.Start(ctx, a.cfg.Progress.FlushInterval)
}

func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error

	if err := a.server.Shutdown(ctx); err != nil {
		shutdownErr = err
	}
	if a.postgres != nil {
		a.postgres.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil && shutdownErr == nil {
			shutdownErr = err
		}
	}

	return shutdownErr
}

func (a *App) Handler() http.Handler {
	return a.httpRouter
}
