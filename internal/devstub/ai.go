package devstub

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Stub) aiRouter() http.Handler {
	r := chi.NewRouter()
	r.Get("/models", s.handleListModels)
	r.Post("/models", s.handleReplaceModels)
	r.Post("/providers", s.handleSetProvider)
	r.Post("/start_parsing", s.handleStartParsing)
	return r
}

func (s *Stub) handleListModels(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, valid := s.requireUser(w, r.URL.Query().Get("sessionToken")); !valid {
		return
	}
	ok(w, map[string]any{
		"chat":      s.chatModels,
		"embedding": s.embedModels,
	})
}

// handleReplaceModels implements the replace-whole-list semantics: the
// posted catalog becomes the catalog.
func (s *Stub) handleReplaceModels(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Chat      []modelPair `json:"chat"`
		Embedding []modelPair `json:"embedding"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, allowed := s.requireAdmin(w, r.URL.Query().Get("sessionToken")); !allowed {
		return
	}
	s.chatModels = req.Chat
	s.embedModels = req.Embedding
	ok(w, nil)
}

func (s *Stub) handleSetProvider(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Provider string            `json:"provider"`
		Settings map[string]string `json:"settings"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, allowed := s.requireAdmin(w, r.URL.Query().Get("sessionToken")); !allowed {
		return
	}
	if req.Provider == "" {
		fail(w, "provider name is required")
		return
	}
	s.providers[req.Provider] = req.Settings
	ok(w, nil)
}

func (s *Stub) handleStartParsing(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RoomID   string `json:"chatroom_uuid"`
		FileID   string `json:"file_uuid"`
		FileType string `json:"filetype"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u, valid := s.requireUser(w, r.URL.Query().Get("sessionToken"))
	if !valid {
		return
	}
	f, found := s.fileForUser(w, u, req.RoomID, req.FileID)
	if !found {
		return
	}

	text, err := extractText(req.FileType, f.data)
	if err != nil {
		fail(w, "parsing %s: %v", f.name, err)
		return
	}
	f.fileType = req.FileType
	f.parsed = text
	ok(w, nil)
}
