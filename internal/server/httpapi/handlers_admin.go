package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"
)

// listLocked handles GET /admin/accounts/locked
func (s *Server) listLocked(w http.ResponseWriter, r *http.Request) {
	locked, err := s.accounts.ListLocked(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	out := make([]lockedAccount, 0, len(locked))
	for _, a := range locked {
		out = append(out, newLockedAccount(a))
	}
	writeJSON(w, http.StatusOK, map[string]any{"accounts": out, "count": len(out)})
}

// unlock handles POST /admin/accounts/{username}/unlock
func (s *Server) unlock(w http.ResponseWriter, r *http.Request) {
	username := mux.Vars(r)["username"]
	if err := s.accounts.Unlock(r.Context(), username); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "account unlocked")
}

// changeRole handles PUT /admin/accounts/{username}/role
func (s *Server) changeRole(w http.ResponseWriter, r *http.Request) {
	var req roleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	username := mux.Vars(r)["username"]
	if err := s.accounts.ChangeRole(r.Context(), username, req.Role); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "role updated")
}

// setActive handles PUT /admin/accounts/{username}/active
func (s *Server) setActive(w http.ResponseWriter, r *http.Request) {
	var req activeRequest
	if err := decodeJSON(r, &req); err != nil || req.Active == nil {
		writeMessage(w, http.StatusBadRequest, "active is required")
		return
	}

	username := mux.Vars(r)["username"]
	if err := s.accounts.SetActive(r.Context(), username, *req.Active); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "status updated")
}
