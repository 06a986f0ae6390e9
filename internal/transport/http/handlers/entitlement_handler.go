package handlers

import (
	"errors"
	"net/http"

	"github.com/ivankudzin/vodapp/backend/internal/domain/model"
	pgrepo "github.com/ivankudzin/vodapp/backend/internal/repo/postgres"
	authsvc "github.com/ivankudzin/vodapp/backend/internal/services/auth"
	entsvc "github.com/ivankudzin/vodapp/backend/internal/services/entitlements"
	"github.com/ivankudzin/vodapp/backend/internal/transport/http/dto"
	httperrors "github.com/ivankudzin/vodapp/backend/internal/transport/http/errors"
)

type EntitlementHandler struct {
	entitlements *entsvc.Service
}

func NewEntitlementHandler(entitlements *entsvc.Service) *EntitlementHandler {
	return &EntitlementHandler{entitlements: entitlements}
}

// Get works for anonymous callers too: the decision for a logged-out viewer
// is part of the product surface, not an auth failure.
func (h *EntitlementHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h.entitlements == nil {
		writeInternal(w, "ENTITLEMENTS_SERVICE_UNAVAILABLE", "entitlements service is unavailable")
		return
	}

	videoID, ok := videoIDParam(r)
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid video id")
		return
	}

	var userID *int64
	if identity, ok := authsvc.IdentityFromContext(r.Context()); ok {
		userID = &identity.UserID
	}

	decision, err := h.entitlements.Evaluate(r.Context(), videoID, userID)
	if err != nil {
		switch {
		case errors.Is(err, entsvc.ErrValidation):
			writeBadRequest(w, "VALIDATION_ERROR", "invalid entitlement request")
		case errors.Is(err, pgrepo.ErrVideoNotFound):
			writeNotFound(w, "VIDEO_NOT_FOUND", "video not found")
		default:
			writeInternal(w, "INTERNAL_ERROR", "failed to evaluate entitlement")
		}
		return
	}

	httperrors.Write(w, http.StatusOK, decisionResponse(videoID, decision))
}

func decisionResponse(videoID int64, decision entsvc.Decision) dto.EntitlementResponse {
	resp := dto.EntitlementResponse{
		VideoID:    videoID,
		Authorized: decision.Authorized,
		Reason:     string(decision.Reason),
	}
	if decision.Grant != nil {
		grant := grantResponse(*decision.Grant)
		resp.Grant = &grant
	}
	if decision.Remediation != nil {
		resp.Remediation = &dto.RemediationResponse{
			Kind:          string(decision.Remediation.Kind),
			CoinsRequired: decision.Remediation.CoinsRequired,
		}
	}
	return resp
}

func grantResponse(grant model.ViewGrant) dto.GrantResponse {
	return dto.GrantResponse{
		ID:           grant.ID,
		VideoID:      grant.VideoID,
		AccessMethod: string(grant.AccessMethod),
		CreatedAt:    grant.CreatedAt,
	}
}
