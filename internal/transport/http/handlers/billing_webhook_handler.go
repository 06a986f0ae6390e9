package handlers

import (
	"errors"
	"io"
	"net/http"

	billingsvc "github.com/ivankudzin/vodapp/backend/internal/services/billing"
	"github.com/ivankudzin/vodapp/backend/internal/transport/http/dto"
	httperrors "github.com/ivankudzin/vodapp/backend/internal/transport/http/errors"
)

const maxWebhookBodyBytes = 64 * 1024

type BillingWebhookHandler struct {
	billing *billingsvc.Service
}

func NewBillingWebhookHandler(billing *billingsvc.Service) *BillingWebhookHandler {
	return &BillingWebhookHandler{billing: billing}
}

func (h *BillingWebhookHandler) Stripe(w http.ResponseWriter, r *http.Request) {
	if h.billing == nil || !h.billing.Configured() {
		writeInternal(w, "BILLING_SERVICE_UNAVAILABLE", "billing service is unavailable")
		return
	}

	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBodyBytes))
	if err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "failed to read request body")
		return
	}

	result, err := h.billing.HandleStripeEvent(r.Context(), payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		switch {
		case errors.Is(err, billingsvc.ErrInvalidSignature):
			writeBadRequest(w, "INVALID_SIGNATURE", "webhook signature verification failed")
		case errors.Is(err, billingsvc.ErrValidation):
			writeBadRequest(w, "VALIDATION_ERROR", "invalid webhook payload")
		case errors.Is(err, billingsvc.ErrUserNotFound):
			writeNotFound(w, "USER_NOT_FOUND", "user not found")
		default:
			writeInternal(w, "INTERNAL_ERROR", "failed to process webhook")
		}
		return
	}

	httperrors.Write(w, http.StatusOK, dto.StripeWebhookResponse{
		Received:  true,
		Credited:  result.Credited,
		Duplicate: result.Duplicate,
		Ignored:   result.Ignored,
	})
}
