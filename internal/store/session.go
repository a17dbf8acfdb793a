package store

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/infogrep/infogrep-cli/internal/gateway"
	"github.com/infogrep/infogrep-cli/internal/localdata"
)

// Validation failures caught before any network call.
var (
	ErrMissingCredentials = errors.New("username and password are required")
	ErrNotLoggedIn        = errors.New("not logged in")
)

// SessionSlice holds the authenticated identity: the opaque token, the
// resolved user id and admin flag, and the username. The token is
// mirrored to durable local storage with a multi-day expiry.
type SessionSlice struct {
	errState

	auth  *gateway.AuthClient
	local *localdata.Store

	mu       sync.RWMutex
	token    string
	userID   string
	username string
	isAdmin  bool
}

func newSessionSlice(auth *gateway.AuthClient, local *localdata.Store) *SessionSlice {
	s := &SessionSlice{auth: auth, local: local}

	// Restore a persisted, unexpired token. Identity stays unresolved
	// until CheckIdentity.
	if token, err := local.LoadToken(); err == nil {
		s.token = token
	}
	return s
}

// Token returns the held session token, empty when logged out.
func (s *SessionSlice) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// UserID returns the resolved user id, empty until CheckIdentity succeeds.
func (s *SessionSlice) UserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userID
}

// Username returns the logged-in username.
func (s *SessionSlice) Username() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.username
}

// IsAdmin reports the admin flag. Only meaningful once CheckIdentity has
// resolved the user id.
func (s *SessionSlice) IsAdmin() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isAdmin
}

// Login exchanges credentials for a token, persists it, and stores it in
// state, clearing any prior error.
func (s *SessionSlice) Login(ctx context.Context, username, password string) error {
	return s.record(s.credential(ctx, username, password, s.auth.Login))
}

// Register creates an account; on success behaves exactly like Login.
func (s *SessionSlice) Register(ctx context.Context, username, password string) error {
	return s.record(s.credential(ctx, username, password, s.auth.Register))
}

func (s *SessionSlice) credential(ctx context.Context, username, password string, call func(context.Context, string, string) (string, error)) error {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return ErrMissingCredentials
	}

	token, err := call(ctx, username, password)
	if err != nil {
		return err
	}

	if err := s.local.SaveToken(token); err != nil {
		return err
	}

	s.mu.Lock()
	s.token = token
	s.username = username
	s.mu.Unlock()
	return nil
}

// CheckIdentity resolves the user id and admin flag behind the held token.
// A missing or rejected token clears the session from both state and
// storage.
func (s *SessionSlice) CheckIdentity(ctx context.Context) error {
	token := s.Token()
	if token == "" {
		return s.record(ErrNotLoggedIn)
	}

	id, err := s.auth.Check(ctx, token)
	if err != nil {
		var domainErr *gateway.DomainError
		if errors.As(err, &domainErr) {
			// The service rejected the token; it is no longer valid.
			s.clear()
		}
		return s.record(err)
	}

	s.mu.Lock()
	s.userID = id.ID
	s.isAdmin = id.IsAdmin
	if id.Name != "" {
		s.username = id.Name
	}
	s.mu.Unlock()
	return s.record(nil)
}

// logout clears the session synchronously. Reached through Store.Logout so
// the reset fans out to the other slices.
func (s *SessionSlice) logout() {
	s.clear()
	s.record(nil)
}

func (s *SessionSlice) clear() {
	s.local.ClearToken()

	s.mu.Lock()
	s.token = ""
	s.userID = ""
	s.username = ""
	s.isAdmin = false
	s.mu.Unlock()
}
