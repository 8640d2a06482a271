// Package auth holds the bearer credential that gates synchronization.
// The token lives in a plain file next to the database, mirroring how
// the browser build kept it outside the record store. No token means
// every sync operation is a no-op, never an error.
package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Session is the credential cell plus the thin client for the remote
// auth endpoints.
type Session struct {
	serverURL  string
	tokenPath  string
	httpClient *http.Client
	log        *slog.Logger

	mu    sync.Mutex
	token string
}

// NewSession creates a session rooted at dir, loading a previously
// persisted token if one exists.
func NewSession(serverURL, dir string, log *slog.Logger) (*Session, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating auth dir %s: %w", dir, err)
	}
	s := &Session{
		serverURL: strings.TrimRight(serverURL, "/"),
		tokenPath: filepath.Join(dir, "token"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		log: log,
	}
	data, err := os.ReadFile(s.tokenPath)
	if err == nil {
		s.token = strings.TrimSpace(string(data))
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading token file: %w", err)
	}
	return s, nil
}

// Token returns the current bearer token, empty when logged out.
func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// Authenticated reports whether a token is held.
func (s *Session) Authenticated() bool {
	return s.Token() != ""
}

func (s *Session) setToken(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	if err := os.WriteFile(s.tokenPath, []byte(token), 0o600); err != nil {
		return fmt.Errorf("persisting token: %w", err)
	}
	return nil
}

// Logout drops the token and removes its file.
func (s *Session) Logout() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	if err := os.Remove(s.tokenPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing token: %w", err)
	}
	return nil
}

// Credentials are what the remote auth endpoints accept.
type Credentials struct {
	Username string `json:"username,omitempty"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Account is the server's view of the authenticated user.
type Account struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	TotalXP   int    `json:"total_xp"`
	Level     int    `json:"level"`
	CreatedAt string `json:"created_at"`
}

type authResponse struct {
	Token string  `json:"token"`
	User  Account `json:"user"`
}

// Login exchanges credentials for a bearer token and persists it.
func (s *Session) Login(ctx context.Context, creds Credentials) (*Account, error) {
	return s.authenticate(ctx, "/auth/login", creds)
}

// Register creates a remote account, then behaves like Login.
func (s *Session) Register(ctx context.Context, creds Credentials) (*Account, error) {
	return s.authenticate(ctx, "/auth/register", creds)
}

func (s *Session) authenticate(ctx context.Context, path string, creds Credentials) (*Account, error) {
	body, err := json.Marshal(creds)
	if err != nil {
		return nil, fmt.Errorf("marshaling credentials: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.serverURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building auth request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("auth request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		msg, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("auth failed (status %d): %s", resp.StatusCode, msg)
	}

	var parsed authResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decoding auth response: %w", err)
	}
	if parsed.Token == "" {
		return nil, fmt.Errorf("auth response missing token")
	}
	if err := s.setToken(parsed.Token); err != nil {
		return nil, err
	}
	s.log.Info("authenticated", "username", parsed.User.Username)
	return &parsed.User, nil
}
