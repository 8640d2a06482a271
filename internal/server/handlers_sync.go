package server

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/FloScythe/fitness-rpg/internal/auth"
)

func (s *Server) handleSyncNow(w http.ResponseWriter, r *http.Request) {
	if err := s.syncMgr.FullSync(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	status, err := s.syncMgr.Status(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleSyncStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.syncMgr.Status(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	s.handleAuth(w, r, s.authSes.Login)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	s.handleAuth(w, r, s.authSes.Register)
}

func (s *Server) handleAuth(w http.ResponseWriter, r *http.Request,
	fn func(context.Context, auth.Credentials) (*auth.Account, error)) {
	var creds auth.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	account, err := fn(r.Context(), creds)
	if err != nil {
		s.log.Error("auth error", "error", err)
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, account)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.authSes.Logout(); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}
