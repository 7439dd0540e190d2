package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/bizledger/internal/common"
	"github.com/dmitrijs2005/bizledger/internal/server/services"
)

type messageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, messageResponse{Message: msg})
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// writeError maps service errors to a status and a user-safe message.
// Anything unrecognised is logged and reported as a generic failure.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *services.ValidationError
	if errors.As(err, &verr) {
		writeMessage(w, http.StatusBadRequest, verr.Error())
		return
	}

	var authErr *services.AuthError
	if errors.As(err, &authErr) {
		switch authErr.Kind {
		case services.InvalidCredentials, services.AccountDisabled, services.AccountLocked, services.InvalidToken:
			writeMessage(w, http.StatusUnauthorized, authErr.Error())
		default:
			writeMessage(w, http.StatusBadRequest, authErr.Error())
		}
		return
	}

	if errors.Is(err, common.ErrorNotFound) {
		writeMessage(w, http.StatusNotFound, "not found")
		return
	}

	s.logger.Error(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	writeMessage(w, http.StatusInternalServerError, "internal server error")
}
