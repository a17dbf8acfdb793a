package store

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/infogrep/infogrep-cli/internal/gateway"
)

var (
	ErrMissingRoomName = errors.New("chatroom name is required")
	ErrMissingModels   = errors.New("a chat model/provider pair and an embedding model/provider pair are required")
)

// RoomSlice owns the id → chatroom mapping and the current selection. It
// is the sole source of truth for "which chatroom is selected"; the chat
// and file slices read the selection through SelectedID at dispatch time.
type RoomSlice struct {
	errState

	chat    *gateway.ChatClient
	session *SessionSlice

	mu       sync.RWMutex
	rooms    map[string]gateway.Room
	selected string
}

func newRoomSlice(chat *gateway.ChatClient, session *SessionSlice) *RoomSlice {
	return &RoomSlice{
		chat:    chat,
		session: session,
		rooms:   map[string]gateway.Room{},
	}
}

// Rooms returns a copy of the room mapping.
func (s *RoomSlice) Rooms() map[string]gateway.Room {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]gateway.Room, len(s.rooms))
	for id, r := range s.rooms {
		out[id] = r
	}
	return out
}

// Room looks one room up by id.
func (s *RoomSlice) Room(id string) (gateway.Room, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rooms[id]
	return r, ok
}

// SelectedID returns the selected room id, empty when nothing is selected.
func (s *RoomSlice) SelectedID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selected
}

// Select records the selection. Pure state update, no network effect;
// selecting an id not present in the mapping is legal and simply yields
// empty derived views downstream.
func (s *RoomSlice) Select(id string) {
	s.mu.Lock()
	s.selected = id
	s.mu.Unlock()
}

// FetchAll replaces the entire room mapping with the server's current
// listing, keyed by room id. Last write wins; there is no incremental
// merge.
func (s *RoomSlice) FetchAll(ctx context.Context) error {
	token := s.session.Token()
	if token == "" {
		return s.record(ErrNotLoggedIn)
	}

	listing, err := s.chat.ListRooms(ctx, token)
	if err != nil {
		return s.record(err)
	}

	rooms := make(map[string]gateway.Room, len(listing))
	for _, r := range listing {
		rooms[r.ID] = r
	}

	s.mu.Lock()
	s.rooms = rooms
	s.mu.Unlock()
	return s.record(nil)
}

// Create makes a room bound to the given model pairs and converges with
// the server via FetchAll rather than inserting optimistically (the
// server-assigned id is not known until then). Both pairs must be
// complete; the check happens before any network call.
func (s *RoomSlice) Create(ctx context.Context, name, chatModel, chatProvider, embedModel, embedProvider string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return s.record(ErrMissingRoomName)
	}
	if chatModel == "" || chatProvider == "" || embedModel == "" || embedProvider == "" {
		return s.record(ErrMissingModels)
	}

	token := s.session.Token()
	if token == "" {
		return s.record(ErrNotLoggedIn)
	}

	_, err := s.chat.CreateRoom(ctx, token, gateway.Room{
		Name:              name,
		ChatModel:         chatModel,
		ChatProvider:      chatProvider,
		EmbeddingModel:    embedModel,
		EmbeddingProvider: embedProvider,
	})
	if err != nil {
		return s.record(err)
	}
	return s.FetchAll(ctx)
}

// Rename persists a new display name and reconciles via FetchAll. An
// empty or unchanged name is a no-op, not an error.
func (s *RoomSlice) Rename(ctx context.Context, id, newName string) error {
	newName = strings.TrimSpace(newName)

	s.mu.RLock()
	current, known := s.rooms[id]
	s.mu.RUnlock()

	if newName == "" || (known && current.Name == newName) {
		return s.record(nil)
	}

	token := s.session.Token()
	if token == "" {
		return s.record(ErrNotLoggedIn)
	}

	if err := s.chat.RenameRoom(ctx, token, id, newName); err != nil {
		return s.record(err)
	}
	return s.FetchAll(ctx)
}

// Delete removes the room server-side, clears the selection if it pointed
// at the deleted room, then reconciles via FetchAll.
func (s *RoomSlice) Delete(ctx context.Context, id string) error {
	token := s.session.Token()
	if token == "" {
		return s.record(ErrNotLoggedIn)
	}

	if err := s.chat.DeleteRoom(ctx, token, id); err != nil {
		return s.record(err)
	}

	s.mu.Lock()
	if s.selected == id {
		s.selected = ""
	}
	s.mu.Unlock()

	return s.FetchAll(ctx)
}

func (s *RoomSlice) sessionEnded() {
	s.mu.Lock()
	s.rooms = map[string]gateway.Room{}
	s.selected = ""
	s.mu.Unlock()
	s.record(nil)
}
