package gateway

import (
	"context"
	"net/http"
	"strconv"
)

// The auth service names its token parameter sessionToken.
const authTokenParam = "sessionToken"

// Identity is the resolved identity behind a session token.
type Identity struct {
	ID      string `json:"id"`
	Name    string `json:"username"`
	IsAdmin bool   `json:"is_admin"`
}

// User is an account as listed by the admin endpoints.
type User struct {
	ID      string `json:"id"`
	Name    string `json:"username"`
	IsAdmin bool   `json:"is_admin"`
}

// SessionInfo is one active session as listed by the admin endpoints.
type SessionInfo struct {
	Token     string `json:"session_token"`
	UserID    string `json:"user_id"`
	ExpiresAt string `json:"expires_at"`
}

// AuthClient talks to the auth service.
type AuthClient struct {
	caller
}

func NewAuthClient(baseURL string, httpClient *http.Client) *AuthClient {
	return &AuthClient{caller: newCaller(baseURL, httpClient)}
}

// credentialRequest is the shared login/register body; the service keys the
// handler off the type discriminator.
type credentialRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Type     string `json:"type"`
}

// Login exchanges credentials for an opaque session token.
func (c *AuthClient) Login(ctx context.Context, username, password string) (string, error) {
	return c.credential(ctx, "/login", credentialRequest{Username: username, Password: password, Type: "login"})
}

// Register creates an account and returns a session token for it.
func (c *AuthClient) Register(ctx context.Context, username, password string) (string, error) {
	return c.credential(ctx, "/register", credentialRequest{Username: username, Password: password, Type: "register"})
}

func (c *AuthClient) credential(ctx context.Context, path string, req credentialRequest) (string, error) {
	var token string
	if err := c.doJSON(ctx, http.MethodPost, path, nil, req, &token); err != nil {
		return "", err
	}
	return token, nil
}

// Check resolves the identity behind a token. Invalid or expired tokens
// come back as a DomainError.
func (c *AuthClient) Check(ctx context.Context, token string) (Identity, error) {
	var id Identity
	err := c.doJSON(ctx, http.MethodPost, "/check", tokenQuery(authTokenParam, token), nil, &id)
	return id, err
}

// --- admin user CRUD ---

func (c *AuthClient) ListUsers(ctx context.Context, token string) ([]User, error) {
	var users []User
	err := c.doJSON(ctx, http.MethodGet, "/admin/users", tokenQuery(authTokenParam, token), nil, &users)
	return users, err
}

func (c *AuthClient) CreateUser(ctx context.Context, token, username, password string) error {
	body := map[string]string{"username": username, "password": password}
	return c.doJSON(ctx, http.MethodPost, "/admin/user", tokenQuery(authTokenParam, token), body, nil)
}

func (c *AuthClient) SetUserAdmin(ctx context.Context, token, userID string, isAdmin bool) error {
	body := map[string]any{"id": userID, "is_admin": isAdmin}
	return c.doJSON(ctx, http.MethodPatch, "/admin/user", tokenQuery(authTokenParam, token), body, nil)
}

func (c *AuthClient) DeleteUser(ctx context.Context, token, userID string) error {
	q := tokenQuery(authTokenParam, token)
	q.Set("id", userID)
	return c.doJSON(ctx, http.MethodDelete, "/admin/user", q, nil, nil)
}

// ListSessions lists active sessions, optionally capped at limit.
func (c *AuthClient) ListSessions(ctx context.Context, token string, limit int) ([]SessionInfo, error) {
	q := tokenQuery(authTokenParam, token)
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var sessions []SessionInfo
	err := c.doJSON(ctx, http.MethodGet, "/admin/sessions", q, nil, &sessions)
	return sessions, err
}
