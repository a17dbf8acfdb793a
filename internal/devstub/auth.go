package devstub

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func (s *Stub) authRouter() http.Handler {
	r := chi.NewRouter()
	// login and register share one handler, keyed by the type field.
	r.Post("/login", s.handleCredential)
	r.Post("/register", s.handleCredential)
	r.Post("/check", s.handleCheck)
	r.Get("/admin/users", s.handleListUsers)
	r.Post("/admin/user", s.handleCreateUser)
	r.Patch("/admin/user", s.handlePatchUser)
	r.Delete("/admin/user", s.handleDeleteUser)
	r.Get("/admin/sessions", s.handleListSessions)
	return r
}

func (s *Stub) handleCredential(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
		Type     string `json:"type"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Username == "" || req.Password == "" {
		fail(w, "username and password are required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch req.Type {
	case "register":
		if _, exists := s.users[req.Username]; exists {
			fail(w, "username %q is taken", req.Username)
			return
		}
		u := &user{
			id:       uuid.New().String(),
			name:     req.Username,
			password: req.Password,
			// First account gets the admin flag, like a fresh deployment.
			isAdmin: len(s.users) == 0,
		}
		s.users[req.Username] = u
		ok(w, s.issueToken(u))

	case "login":
		u, exists := s.users[req.Username]
		if !exists || u.password != req.Password {
			fail(w, "invalid username or password")
			return
		}
		ok(w, s.issueToken(u))

	default:
		fail(w, "unknown credential type %q", req.Type)
	}
}

// issueToken mints a session token. Callers hold s.mu.
func (s *Stub) issueToken(u *user) string {
	token := uuid.New().String()
	s.sessions[token] = u.id
	return token
}

func (s *Stub) handleCheck(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, valid := s.resolveToken(r.URL.Query().Get("sessionToken"))
	if !valid {
		fail(w, "invalid session token")
		return
	}
	ok(w, map[string]any{
		"id":       u.id,
		"username": u.name,
		"is_admin": u.isAdmin,
	})
}

// requireAdmin resolves the sessionToken query parameter to an admin user.
// Callers hold s.mu.
func (s *Stub) requireAdmin(w http.ResponseWriter, token string) (*user, bool) {
	u, valid := s.resolveToken(token)
	if !valid {
		fail(w, "invalid session token")
		return nil, false
	}
	if !u.isAdmin {
		fail(w, "forbidden")
		return nil, false
	}
	return u, true
}

func (s *Stub) handleListUsers(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, allowed := s.requireAdmin(w, r.URL.Query().Get("sessionToken")); !allowed {
		return
	}

	users := []map[string]any{}
	for _, u := range s.users {
		users = append(users, map[string]any{
			"id":       u.id,
			"username": u.name,
			"is_admin": u.isAdmin,
		})
	}
	ok(w, users)
}

func (s *Stub) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, allowed := s.requireAdmin(w, r.URL.Query().Get("sessionToken")); !allowed {
		return
	}
	if req.Username == "" || req.Password == "" {
		fail(w, "username and password are required")
		return
	}
	if _, exists := s.users[req.Username]; exists {
		fail(w, "username %q is taken", req.Username)
		return
	}

	s.users[req.Username] = &user{
		id:       uuid.New().String(),
		name:     req.Username,
		password: req.Password,
	}
	ok(w, nil)
}

func (s *Stub) handlePatchUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID      string `json:"id"`
		IsAdmin bool   `json:"is_admin"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, allowed := s.requireAdmin(w, r.URL.Query().Get("sessionToken")); !allowed {
		return
	}
	for _, u := range s.users {
		if u.id == req.ID {
			u.isAdmin = req.IsAdmin
			ok(w, nil)
			return
		}
	}
	fail(w, "no such user")
}

func (s *Stub) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, allowed := s.requireAdmin(w, r.URL.Query().Get("sessionToken")); !allowed {
		return
	}

	targetID := r.URL.Query().Get("id")
	for name, u := range s.users {
		if u.id == targetID {
			delete(s.users, name)
			for token, userID := range s.sessions {
				if userID == targetID {
					delete(s.sessions, token)
				}
			}
			ok(w, nil)
			return
		}
	}
	fail(w, "no such user")
}

func (s *Stub) handleListSessions(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, allowed := s.requireAdmin(w, r.URL.Query().Get("sessionToken")); !allowed {
		return
	}

	// The stub does not age tokens, so every session reports the full
	// week of validity the real service grants.
	expiresAt := time.Now().UTC().Add(7 * 24 * time.Hour).Format(time.RFC3339)
	sessions := []map[string]any{}
	for token, userID := range s.sessions {
		sessions = append(sessions, map[string]any{
			"session_token": token,
			"user_id":       userID,
			"expires_at":    expiresAt,
		})
	}
	ok(w, sessions)
}
