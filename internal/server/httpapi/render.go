package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/hoaboard/internal/common"
)

// appErrorResponse is the envelope the frontend dispatches on. Only the
// closed set of application error kinds is ever named; everything else
// collapses into a generic internal error.
type appErrorResponse struct {
	AppError string `json:"appError"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	// The status line is already out; an encode failure here can only be
	// dropped.
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps a service error onto the wire. Application errors keep
// their kind string; ErrorForbidden and ErrorNotFound map to bare status
// codes; anything unrecognized is logged and reported as a generic 500 so
// no internal detail leaks.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if common.IsAppError(err) {
		s.writeJSON(w, appErrorStatus(err), appErrorResponse{AppError: err.Error()})
		return
	}

	switch {
	case errors.Is(err, common.ErrorForbidden):
		s.writeJSON(w, http.StatusForbidden, map[string]string{"error": "forbidden"})
	case errors.Is(err, common.ErrorNotFound):
		s.writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	default:
		s.logger.Error(r.Context(), "request failed", "error", err)
		s.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func appErrorStatus(err error) int {
	switch {
	case errors.Is(err, common.ErrLogin),
		errors.Is(err, common.ErrNoAuthCookie),
		errors.Is(err, common.ErrAccessTokenInvalid):
		return http.StatusUnauthorized
	case errors.Is(err, common.ErrEmailAlreadyUsed),
		errors.Is(err, common.ErrNameAlreadyUsed):
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

// decodeBody parses a JSON request body into dst.
func decodeBody(r *http.Request, dst any) error {
	return json.NewDecoder(r.Body).Decode(dst)
}
