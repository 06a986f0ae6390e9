package apiapp

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	authsvc "github.com/ivankudzin/vodapp/backend/internal/services/auth"
	billingsvc "github.com/ivankudzin/vodapp/backend/internal/services/billing"
	entsvc "github.com/ivankudzin/vodapp/backend/internal/services/entitlements"
	playbacksvc "github.com/ivankudzin/vodapp/backend/internal/services/playback"
	progresssvc "github.com/ivankudzin/vodapp/backend/internal/services/progress"
	purchasesvc "github.com/ivankudzin/vodapp/backend/internal/services/purchases"
	ratesvc "github.com/ivankudzin/vodapp/backend/internal/services/rate"
	walletsvc "github.com/ivankudzin/vodapp/backend/internal/services/wallet"
	"github.com/ivankudzin/vodapp/backend/internal/transport/http/handlers"
)

type Dependencies struct {
	AuthService        *authsvc.Service
	BillingService     *billingsvc.Service
	EntitlementService *entsvc.Service
	PlaybackService    *playbacksvc.Service
	ProgressService    *progresssvc.Service
	PurchaseService    *purchasesvc.Service
	WalletService      *walletsvc.Service
	LoginLimiter       *ratesvc.Limiter
	Logger             *zap.Logger
}

func RegisterRoutes(r chi.Router, deps Dependencies) {
	authHandler := handlers.NewAuthHandler(deps.AuthService)
	authHandler.AttachLoginLimiter(deps.LoginLimiter)
	billingHandler := handlers.NewBillingWebhookHandler(deps.BillingService)
	entitlementHandler := handlers.NewEntitlementHandler(deps.EntitlementService)
	healthHandler := handlers.NewHealthHandler()
	playbackHandler := handlers.NewPlaybackHandler(deps.PlaybackService)
	progressHandler := handlers.NewProgressHandler(deps.ProgressService)
	purchaseHandler := handlers.NewPurchaseHandler(deps.PurchaseService)
	walletHandler := handlers.NewWalletHandler(deps.WalletService)
	authMW := AuthMiddleware(deps.AuthService, deps.Logger)
	optionalAuthMW := OptionalAuthMiddleware(deps.AuthService, deps.Logger)

	r.Get("/healthz", healthHandler.Get)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", authHandler.Login)
		r.Post("/refresh", authHandler.Refresh)
		r.With(authMW).Post("/logout", authHandler.Logout)
		r.With(authMW).Post("/logout_all", authHandler.LogoutAll)
	})

	r.Route("/videos/{video_id}", func(r chi.Router) {
		r.With(optionalAuthMW).Get("/entitlement", entitlementHandler.Get)
		r.With(optionalAuthMW).Get("/playback", playbackHandler.Get)
		r.With(authMW).Post("/purchase", purchaseHandler.Create)
		r.With(authMW).Post("/progress", progressHandler.Checkpoint)
		r.With(authMW).Get("/progress", progressHandler.LastPosition)
	})

	r.With(authMW).Get("/me/wallet", walletHandler.Get)

	r.Post("/billing/stripe/webhook", billingHandler.Stripe)
}
