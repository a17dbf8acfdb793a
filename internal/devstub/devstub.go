// Package devstub is an in-memory imitation of the five InfoGrep backend
// services, mounted on a single handler under /auth, /chat, /files, and
// /ai. It exists for local development (`infogrep devstub`) and as the
// backend for the client's end-to-end tests. It preserves the services'
// quirks the client has to cope with: the token parameter is named
// sessionToken on the auth and AI services but cookie on the chatroom and
// file services, and failures are reported through the response envelope's
// error flag rather than the HTTP status.
package devstub

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const maxRequestBodySize = 64 << 20 // matches the file upload limit

// assistantID is the all-zero author id the real backend reserves for
// assistant messages.
var assistantID = uuid.Nil.String()

type user struct {
	id       string
	name     string
	password string
	isAdmin  bool
}

type message struct {
	ID       string `json:"message_uuid"`
	AuthorID string `json:"user_uuid"`
	Author   string `json:"username"`
	Text     string `json:"message"`
	SentAt   string `json:"timestamp"`
}

type room struct {
	id                string
	name              string
	ownerID           string
	chatModel         string
	chatProvider      string
	embeddingModel    string
	embeddingProvider string
	messages          []message
}

type storedFile struct {
	id       string
	roomID   string
	name     string
	data     []byte
	fileType string
	parsed   string // extracted text, empty until parsing is triggered
}

type integration struct {
	ID     string            `json:"integration_uuid"`
	Type   string            `json:"integration_type"`
	Config map[string]string `json:"config"`
	roomID string
}

type modelPair struct {
	Model    string `json:"model"`
	Provider string `json:"provider"`
}

// Stub holds the in-memory state of all five services.
type Stub struct {
	mu           sync.Mutex
	users        map[string]*user   // by username
	sessions     map[string]string  // token -> user id
	rooms        map[string]*room   // by room id
	files        map[string]*storedFile
	integrations map[string]*integration
	chatModels   []modelPair
	embedModels  []modelPair
	providers    map[string]map[string]string
}

// New returns a stub pre-seeded with a small model catalog.
func New() *Stub {
	return &Stub{
		users:        map[string]*user{},
		sessions:     map[string]string{},
		rooms:        map[string]*room{},
		files:        map[string]*storedFile{},
		integrations: map[string]*integration{},
		chatModels: []modelPair{
			{Model: "llama3.1", Provider: "ollama"},
			{Model: "gpt-4o", Provider: "openai"},
		},
		embedModels: []modelPair{
			{Model: "nomic-embed-text", Provider: "ollama"},
		},
		providers: map[string]map[string]string{},
	}
}

// Handler mounts all four service routers.
func (s *Stub) Handler() http.Handler {
	r := chi.NewRouter()
	r.Mount("/auth", s.authRouter())
	r.Mount("/chat", s.chatRouter())
	r.Mount("/files", s.fileRouter())
	r.Mount("/ai", s.aiRouter())
	return r
}

// --- response envelope ---

func ok(w http.ResponseWriter, content any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"error":   false,
		"status":  "ok",
		"content": content,
	})
}

// fail reports a domain failure: HTTP 200 with the envelope's error flag
// set and a human-readable status.
func fail(w http.ResponseWriter, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"error":  true,
		"status": fmt.Sprintf(format, args...),
	})
}

// httpError reports a transport failure with a non-2xx status.
func httpError(w http.ResponseWriter, code int, format string, args ...any) {
	http.Error(w, fmt.Sprintf(format, args...), code)
}

// resolveToken maps a token to a user. Callers hold s.mu.
func (s *Stub) resolveToken(token string) (*user, bool) {
	userID, ok := s.sessions[token]
	if !ok {
		return nil, false
	}
	for _, u := range s.users {
		if u.id == userID {
			return u, true
		}
	}
	return nil, false
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		fail(w, "invalid request body: %v", err)
		return false
	}
	return true
}
