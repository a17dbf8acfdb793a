package devstub

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func (s *Stub) chatRouter() http.Handler {
	r := chi.NewRouter()
	r.Get("/rooms", s.handleListRooms)
	r.Post("/room", s.handleCreateRoom)
	r.Patch("/room", s.handleRenameRoom)
	r.Delete("/room", s.handleDeleteRoom)
	r.Get("/room", s.handleGetRoom)
	r.Post("/message", s.handleSendMessage)
	return r
}

// requireUser resolves the chat/file services' cookie parameter.
// Callers hold s.mu.
func (s *Stub) requireUser(w http.ResponseWriter, token string) (*user, bool) {
	u, valid := s.resolveToken(token)
	if !valid {
		fail(w, "invalid session token")
		return nil, false
	}
	return u, true
}

func roomListing(rm *room) map[string]any {
	return map[string]any{
		"chatroom_uuid":      rm.id,
		"chatroom_name":      rm.name,
		"chat_model":         rm.chatModel,
		"chat_provider":      rm.chatProvider,
		"embedding_model":    rm.embeddingModel,
		"embedding_provider": rm.embeddingProvider,
	}
}

func (s *Stub) handleListRooms(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, valid := s.requireUser(w, r.URL.Query().Get("cookie"))
	if !valid {
		return
	}

	listing := []map[string]any{}
	var ids []string
	for id := range s.rooms {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if rm := s.rooms[id]; rm.ownerID == u.id {
			listing = append(listing, roomListing(rm))
		}
	}
	ok(w, listing)
}

func (s *Stub) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name              string `json:"chatroom_name"`
		ChatModel         string `json:"chat_model"`
		ChatProvider      string `json:"chat_provider"`
		EmbeddingModel    string `json:"embedding_model"`
		EmbeddingProvider string `json:"embedding_provider"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u, valid := s.requireUser(w, r.URL.Query().Get("cookie"))
	if !valid {
		return
	}
	if req.Name == "" {
		fail(w, "chatroom name is required")
		return
	}
	if req.ChatModel == "" || req.ChatProvider == "" || req.EmbeddingModel == "" || req.EmbeddingProvider == "" {
		fail(w, "chat and embedding model/provider pairs are required")
		return
	}

	rm := &room{
		id:                uuid.New().String(),
		name:              req.Name,
		ownerID:           u.id,
		chatModel:         req.ChatModel,
		chatProvider:      req.ChatProvider,
		embeddingModel:    req.EmbeddingModel,
		embeddingProvider: req.EmbeddingProvider,
	}
	s.rooms[rm.id] = rm
	ok(w, map[string]string{"chatroom_uuid": rm.id})
}

// roomForUser fetches a room owned by the caller. Callers hold s.mu.
func (s *Stub) roomForUser(w http.ResponseWriter, u *user, roomID string) (*room, bool) {
	rm, exists := s.rooms[roomID]
	if !exists || rm.ownerID != u.id {
		fail(w, "no such chatroom")
		return nil, false
	}
	return rm, true
}

func (s *Stub) handleRenameRoom(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID   string `json:"chatroom_uuid"`
		Name string `json:"chatroom_name"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u, valid := s.requireUser(w, r.URL.Query().Get("cookie"))
	if !valid {
		return
	}
	rm, found := s.roomForUser(w, u, req.ID)
	if !found {
		return
	}
	if req.Name == "" {
		fail(w, "chatroom name is required")
		return
	}
	rm.name = req.Name
	ok(w, nil)
}

func (s *Stub) handleDeleteRoom(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, valid := s.requireUser(w, r.URL.Query().Get("cookie"))
	if !valid {
		return
	}
	rm, found := s.roomForUser(w, u, r.URL.Query().Get("chatroom_uuid"))
	if !found {
		return
	}

	delete(s.rooms, rm.id)
	for id, f := range s.files {
		if f.roomID == rm.id {
			delete(s.files, id)
		}
	}
	for id, in := range s.integrations {
		if in.roomID == rm.id {
			delete(s.integrations, id)
		}
	}
	ok(w, nil)
}

func (s *Stub) handleGetRoom(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, valid := s.requireUser(w, r.URL.Query().Get("cookie"))
	if !valid {
		return
	}
	rm, found := s.roomForUser(w, u, r.URL.Query().Get("chatroom_uuid"))
	if !found {
		return
	}

	messages := rm.messages
	if messages == nil {
		messages = []message{}
	}
	ok(w, map[string]any{
		"messages":           messages,
		"chat_model":         rm.chatModel,
		"chat_provider":      rm.chatProvider,
		"embedding_model":    rm.embeddingModel,
		"embedding_provider": rm.embeddingProvider,
	})
}

func (s *Stub) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	// The send endpoint carries the token in the body, not the query.
	var req struct {
		RoomID string `json:"chatroom_uuid"`
		Cookie string `json:"cookie"`
		Text   string `json:"message"`
		Model  string `json:"model"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u, valid := s.requireUser(w, req.Cookie)
	if !valid {
		return
	}
	rm, found := s.roomForUser(w, u, req.RoomID)
	if !found {
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		fail(w, "message text is required")
		return
	}

	now := time.Now().UTC().Format(time.RFC3339)
	rm.messages = append(rm.messages, message{
		ID:       uuid.New().String(),
		AuthorID: u.id,
		Author:   u.name,
		Text:     req.Text,
		SentAt:   now,
	})
	rm.messages = append(rm.messages, message{
		ID:       uuid.New().String(),
		AuthorID: assistantID,
		Author:   "InfoGrep",
		Text:     s.assistantReply(rm, req.Text),
		SentAt:   now,
	})
	ok(w, nil)
}

// assistantReply fakes a retrieval-augmented answer: it quotes the first
// parsed document of the room when one exists. Callers hold s.mu.
func (s *Stub) assistantReply(rm *room, question string) string {
	for _, f := range s.files {
		if f.roomID == rm.id && f.parsed != "" {
			snippet := f.parsed
			if len(snippet) > 160 {
				snippet = snippet[:160] + "..."
			}
			return fmt.Sprintf("Based on %s: %s", f.name, snippet)
		}
	}
	return fmt.Sprintf("I have no parsed documents in this room yet, but you asked: %s", question)
}
