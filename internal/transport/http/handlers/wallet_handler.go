package handlers

import (
	"errors"
	"net/http"

	authsvc "github.com/ivankudzin/vodapp/backend/internal/services/auth"
	walletsvc "github.com/ivankudzin/vodapp/backend/internal/services/wallet"
	"github.com/ivankudzin/vodapp/backend/internal/transport/http/dto"
	httperrors "github.com/ivankudzin/vodapp/backend/internal/transport/http/errors"
)

const walletEntriesLimit = 50

type WalletHandler struct {
	wallet *walletsvc.Service
}

func NewWalletHandler(wallet *walletsvc.Service) *WalletHandler {
	return &WalletHandler{wallet: wallet}
}

func (h *WalletHandler) Get(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.wallet == nil {
		writeInternal(w, "WALLET_SERVICE_UNAVAILABLE", "wallet service is unavailable")
		return
	}

	summary, err := h.wallet.Summary(r.Context(), identity.UserID, walletEntriesLimit)
	if err != nil {
		switch {
		case errors.Is(err, walletsvc.ErrValidation):
			writeBadRequest(w, "VALIDATION_ERROR", "invalid wallet request")
		case errors.Is(err, walletsvc.ErrUserNotFound):
			writeNotFound(w, "USER_NOT_FOUND", "user not found")
		default:
			writeInternal(w, "INTERNAL_ERROR", "failed to read wallet")
		}
		return
	}

	entries := make([]dto.LedgerEntryResponse, 0, len(summary.Entries))
	for _, entry := range summary.Entries {
		entries = append(entries, dto.LedgerEntryResponse{
			ID:        entry.ID,
			Delta:     entry.Delta,
			Reason:    entry.Reason,
			VideoID:   entry.VideoID,
			CreatedAt: entry.CreatedAt,
		})
	}

	httperrors.Write(w, http.StatusOK, dto.WalletResponse{
		Balance: summary.Balance,
		Entries: entries,
	})
}
