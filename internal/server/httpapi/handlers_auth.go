package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/bizledger/internal/server/gate"
	"github.com/dmitrijs2005/bizledger/internal/server/rbac"
	"github.com/dmitrijs2005/bizledger/internal/server/services"
)

// login handles POST /auth/login. Disabled and locked accounts get the same
// response as a wrong password; the real reason is only logged.
func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := s.auth.Login(r.Context(), services.LoginInput{Identifier: req.UsernameOrEmail, Password: req.Password})
	if err != nil {
		if errors.Is(err, services.ErrAccountDisabled) || errors.Is(err, services.ErrAccountLocked) {
			err = services.ErrInvalidCredentials
		}
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, newAuthResponse(res))
}

// register handles POST /auth/register.
func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := s.auth.Register(r.Context(), services.RegisterInput{
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		Role:      req.Role,
		TenantID:  req.CompanyID,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, newAuthResponse(res))
}

// refresh handles POST /auth/refresh.
func (s *Server) refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := s.auth.RefreshToken(r.Context(), req.RefreshToken)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, newAuthResponse(res))
}

// logout handles POST /auth/logout. It always succeeds. The bearer token
// and an optional refresh token in the body are handed to the service.
func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if r.ContentLength != 0 {
		_ = decodeJSON(r, &req)
	}

	s.auth.Logout(r.Context(), bearerToken(r), req.RefreshToken)
	writeMessage(w, http.StatusOK, "logged out")
}

type healthResponse struct {
	Status    string    `json:"status"`
	Service   string    `json:"service"`
	Timestamp time.Time `json:"timestamp"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "UP", Service: serviceName, Timestamp: s.now().UTC()})
}

type meResponse struct {
	Username     string            `json:"username"`
	Role         string            `json:"role"`
	RoleLabel    string            `json:"roleLabel"`
	Capabilities []rbac.Capability `json:"capabilities"`
}

// me handles GET /auth/me.
func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	id, ok := gate.IdentityFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "authentication required")
		return
	}

	writeJSON(w, http.StatusOK, meResponse{
		Username:     id.Username,
		Role:         string(id.Role),
		RoleLabel:    id.Role.Label(),
		Capabilities: rbac.Capabilities(id.Role),
	})
}

type routeDoc struct {
	Pattern string   `json:"pattern"`
	Method  string   `json:"method,omitempty"`
	Access  string   `json:"access"`
	Roles   []string `json:"roles,omitempty"`
}

// docs handles GET /docs with an index of the access rules.
func (s *Server) docs(w http.ResponseWriter, r *http.Request) {
	out := make([]routeDoc, 0, len(s.rules))
	for _, rule := range s.rules {
		d := routeDoc{Pattern: rule.Pattern, Method: rule.Method, Access: rule.Access.String()}
		for _, role := range rule.Roles {
			d.Roles = append(d.Roles, string(role))
		}
		out = append(out, d)
	}
	writeJSON(w, http.StatusOK, map[string]any{"service": serviceName, "routes": out})
}
