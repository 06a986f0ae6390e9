package handlers

import (
	"errors"
	"net/http"

	authsvc "github.com/ivankudzin/vodapp/backend/internal/services/auth"
	purchasesvc "github.com/ivankudzin/vodapp/backend/internal/services/purchases"
	"github.com/ivankudzin/vodapp/backend/internal/transport/http/dto"
	httperrors "github.com/ivankudzin/vodapp/backend/internal/transport/http/errors"
)

type PurchaseHandler struct {
	purchases *purchasesvc.Service
}

func NewPurchaseHandler(purchases *purchasesvc.Service) *PurchaseHandler {
	return &PurchaseHandler{purchases: purchases}
}

func (h *PurchaseHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.purchases == nil {
		writeInternal(w, "PURCHASES_SERVICE_UNAVAILABLE", "purchases service is unavailable")
		return
	}

	videoID, ok := videoIDParam(r)
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid video id")
		return
	}

	result, err := h.purchases.Purchase(r.Context(), identity.UserID, videoID)
	if err != nil {
		switch {
		case errors.Is(err, purchasesvc.ErrValidation):
			writeBadRequest(w, "VALIDATION_ERROR", "invalid purchase request")
		case errors.Is(err, purchasesvc.ErrVideoNotFound):
			writeNotFound(w, "VIDEO_NOT_FOUND", "video not found")
		case errors.Is(err, purchasesvc.ErrUserNotFound):
			writeNotFound(w, "USER_NOT_FOUND", "user not found")
		case errors.Is(err, purchasesvc.ErrInsufficientBalance):
			httperrors.Write(w, http.StatusConflict, httperrors.APIError{
				Code:    "INSUFFICIENT_BALANCE",
				Message: "not enough coins to unlock this video",
			})
		default:
			writeInternal(w, "INTERNAL_ERROR", "failed to process purchase")
		}
		return
	}

	httperrors.Write(w, http.StatusOK, dto.PurchaseResponse{
		Grant:          grantResponse(result.Grant),
		AlreadyGranted: result.AlreadyGranted,
		PriceCoins:     h.purchases.Price(),
	})
}
