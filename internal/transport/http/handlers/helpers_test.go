package handlers

import (
	"context"

	"github.com/go-chi/chi/v5"

	authsvc "github.com/ivankudzin/vodapp/backend/internal/services/auth"
)

func withURLParam(ctx context.Context, key, value string) context.Context {
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add(key, value)
	return context.WithValue(ctx, chi.RouteCtxKey, routeCtx)
}

func withViewer(ctx context.Context, userID int64) context.Context {
	return authsvc.WithIdentity(ctx, authsvc.Identity{
		UserID: userID,
		SID:    "sid-test",
		Role:   "USER",
	})
}
