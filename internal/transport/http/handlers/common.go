package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	httperrors "github.com/ivankudzin/vodapp/backend/internal/transport/http/errors"
)

func decodeJSON(r *http.Request, target any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(target)
}

func writeBadRequest(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusBadRequest, httperrors.APIError{Code: code, Message: message})
}

func writeUnauthorized(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusUnauthorized, httperrors.APIError{Code: code, Message: message})
}

func writeNotFound(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusNotFound, httperrors.APIError{Code: code, Message: message})
}

func writeInternal(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusInternalServerError, httperrors.APIError{Code: code, Message: message})
}

func videoIDParam(r *http.Request) (int64, bool) {
	raw := strings.TrimSpace(chi.URLParam(r, "video_id"))
	if raw == "" {
		return 0, false
	}
	videoID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || videoID <= 0 {
		return 0, false
	}
	return videoID, true
}

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
