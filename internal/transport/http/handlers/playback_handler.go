package handlers

import (
	"errors"
	"net/http"

	pgrepo "github.com/ivankudzin/vodapp/backend/internal/repo/postgres"
	authsvc "github.com/ivankudzin/vodapp/backend/internal/services/auth"
	entsvc "github.com/ivankudzin/vodapp/backend/internal/services/entitlements"
	playbacksvc "github.com/ivankudzin/vodapp/backend/internal/services/playback"
	"github.com/ivankudzin/vodapp/backend/internal/transport/http/dto"
	httperrors "github.com/ivankudzin/vodapp/backend/internal/transport/http/errors"
)

type PlaybackHandler struct {
	playback *playbacksvc.Service
}

func NewPlaybackHandler(playback *playbacksvc.Service) *PlaybackHandler {
	return &PlaybackHandler{playback: playback}
}

// Get returns a signed stream URL for authorized viewers. Denials carry the
// evaluator's remediation so the client knows which paywall to show.
func (h *PlaybackHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h.playback == nil {
		writeInternal(w, "PLAYBACK_SERVICE_UNAVAILABLE", "playback service is unavailable")
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

	stream, err := h.playback.StreamURL(r.Context(), videoID, userID)
	if err != nil {
		switch {
		case errors.Is(err, playbacksvc.ErrForbidden):
			h.writeDenied(w, videoID, stream.Decision)
		case errors.Is(err, playbacksvc.ErrValidation), errors.Is(err, entsvc.ErrValidation):
			writeBadRequest(w, "VALIDATION_ERROR", "invalid playback request")
		case errors.Is(err, pgrepo.ErrVideoNotFound):
			writeNotFound(w, "VIDEO_NOT_FOUND", "video not found")
		default:
			writeInternal(w, "INTERNAL_ERROR", "failed to prepare playback")
		}
		return
	}

	httperrors.Write(w, http.StatusOK, dto.PlaybackResponse{
		URL:       stream.URL,
		ExpiresAt: stream.ExpiresAt,
		Reason:    string(stream.Decision.Reason),
	})
}

func (h *PlaybackHandler) writeDenied(w http.ResponseWriter, videoID int64, decision entsvc.Decision) {
	status := http.StatusForbidden
	if decision.Reason == entsvc.ReasonLoginRequired {
		status = http.StatusUnauthorized
	}
	httperrors.Write(w, status, decisionResponse(videoID, decision))
}
