package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/bizledger/internal/common"
	"github.com/dmitrijs2005/bizledger/internal/server/gate"
)

// bearerToken returns the token of an "Authorization: Bearer <token>"
// header, or "" when the header is absent or uses another scheme.
func bearerToken(r *http.Request) string {
	h := r.Header.Get(common.AuthorizationHeader)
	if len(h) < len(common.BearerPrefix) || !strings.EqualFold(h[:len(common.BearerPrefix)], common.BearerPrefix) {
		return ""
	}
	return strings.TrimSpace(h[len(common.BearerPrefix):])
}

func (s *Server) gateMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rule := s.rules.Match(r.Method, r.URL.Path)

		id, err := s.guard.Check(r.Context(), rule, bearerToken(r))
		if err != nil {
			switch {
			case errors.Is(err, gate.ErrAccessDenied):
				writeMessage(w, http.StatusForbidden, "access denied")
			case errors.Is(err, gate.ErrAuthenticationRequired):
				writeMessage(w, http.StatusUnauthorized, "authentication required")
			case errors.Is(err, common.ErrorUnauthorized):
				writeMessage(w, http.StatusUnauthorized, "invalid token")
			default:
				s.logger.Error(r.Context(), "gate failure", "path", r.URL.Path, "error", err)
				writeMessage(w, http.StatusInternalServerError, "internal server error")
			}
			return
		}

		if id != nil {
			r = r.WithContext(gate.WithIdentity(r.Context(), id))
		}
		next.ServeHTTP(w, r)
	})
}
