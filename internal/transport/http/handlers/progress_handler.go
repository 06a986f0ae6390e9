package handlers

import (
	"errors"
	"net/http"

	authsvc "github.com/ivankudzin/vodapp/backend/internal/services/auth"
	progresssvc "github.com/ivankudzin/vodapp/backend/internal/services/progress"
	"github.com/ivankudzin/vodapp/backend/internal/transport/http/dto"
	httperrors "github.com/ivankudzin/vodapp/backend/internal/transport/http/errors"
)

type ProgressHandler struct {
	progress *progresssvc.Service
}

func NewProgressHandler(progress *progresssvc.Service) *ProgressHandler {
	return &ProgressHandler{progress: progress}
}

func (h *ProgressHandler) Checkpoint(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.progress == nil {
		writeInternal(w, "PROGRESS_SERVICE_UNAVAILABLE", "progress service is unavailable")
		return
	}

	videoID, ok := videoIDParam(r)
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid video id")
		return
	}

	var req dto.ProgressCheckpointRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}

	if err := h.progress.Checkpoint(r.Context(), identity.UserID, videoID, req.Seconds); err != nil {
		if errors.Is(err, progresssvc.ErrValidation) {
			writeBadRequest(w, "VALIDATION_ERROR", "invalid checkpoint payload")
			return
		}
		writeInternal(w, "INTERNAL_ERROR", "failed to record progress")
		return
	}

	httperrors.Write(w, http.StatusOK, dto.ProgressCheckpointResponse{OK: true})
}

func (h *ProgressHandler) LastPosition(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.progress == nil {
		writeInternal(w, "PROGRESS_SERVICE_UNAVAILABLE", "progress service is unavailable")
		return
	}

	videoID, ok := videoIDParam(r)
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid video id")
		return
	}

	seconds, err := h.progress.GetLastPosition(r.Context(), identity.UserID, videoID)
	if err != nil {
		if errors.Is(err, progresssvc.ErrValidation) {
			writeBadRequest(w, "VALIDATION_ERROR", "invalid progress request")
			return
		}
		writeInternal(w, "INTERNAL_ERROR", "failed to read progress")
		return
	}

	httperrors.Write(w, http.StatusOK, dto.ProgressPositionResponse{
		VideoID: videoID,
		Seconds: seconds,
	})
}
