package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"classservice/internal/ctxdata"
	"classservice/internal/errdefs"
	"classservice/internal/identity"
	"classservice/internal/logging"
	"classservice/internal/service"
)

const maxUploadBytes = 10 << 20

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}

type conflictingClassPayload struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	StartsAt time.Time `json:"time"`
	EndsAt   time.Time `json:"endsAt"`
}

// writeError maps the service error taxonomy to HTTP status codes. A
// scheduling conflict carries the competing class's window in the payload
// so the tutor can see what blocked the accept.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var conflict *service.ScheduleConflictError
	if errors.As(err, &conflict) {
		body := map[string]any{"error": conflict.Error()}
		if conflict.Conflicting != nil {
			body["conflictingClass"] = conflictingClassPayload{
				ID:       conflict.Conflicting.ID,
				Title:    conflict.Conflicting.Title,
				StartsAt: conflict.Conflicting.StartsAt,
				EndsAt:   conflict.Conflicting.EndsAt(),
			}
		}
		writeJSON(w, http.StatusConflict, body)
		return
	}

	switch {
	case errors.Is(err, errdefs.ErrValidation),
		errors.Is(err, errdefs.ErrRequestConflict),
		errors.Is(err, errdefs.ErrAlreadyJoined),
		errors.Is(err, errdefs.ErrDeadlinePassed):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, errdefs.ErrNotEnrolled),
		errors.Is(err, errdefs.ErrPermissionDenied):
		writeJSON(w, http.StatusForbidden, map[string]string{"error": err.Error()})
	case errors.Is(err, errdefs.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, errdefs.ErrRequestNotPending),
		errors.Is(err, errdefs.ErrScheduleConflict),
		errors.Is(err, errdefs.ErrConflict):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	default:
		if logger, ok := logging.GetFromContext(r.Context()); ok {
			logger.Error(r.Context(), "request failed",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Error(err),
			)
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}

func principalFromContext(r *http.Request) (identity.Principal, bool) {
	id, ok := ctxdata.GetUserID(r.Context())
	if !ok {
		return identity.Principal{}, false
	}
	role, ok := ctxdata.GetUserRole(r.Context())
	if !ok {
		return identity.Principal{}, false
	}
	return identity.Principal{ID: id, Role: identity.Role(role)}, true
}

func decodeBody(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errdefs.ErrValidation
	}
	return nil
}

func indexParam(r *http.Request, name string) (int, error) {
	idx, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil || idx < 0 {
		return 0, errdefs.ErrNotFound
	}
	return idx, nil
}

// readUpload pulls the single "file" part out of a multipart form.
func readUpload(r *http.Request) ([]byte, string, error) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return nil, "", errdefs.ErrValidation
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, "", errdefs.ErrValidation
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		return nil, "", errdefs.ErrValidation
	}
	if len(data) > maxUploadBytes {
		return nil, "", errdefs.ErrValidation
	}

	return data, header.Filename, nil
}
