package store

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/infogrep/infogrep-cli/internal/gateway"
)

// AssistantID is the well-known all-zero author id the backend uses for
// assistant-authored messages. Every other author id is a user.
var AssistantID = uuid.Nil.String()

// Sender labels derived from the author id.
const (
	SenderAssistant = "InfoGrep"
	SenderUser      = "You"
)

var (
	ErrEmptyMessage   = errors.New("message text is required")
	ErrNoRoomSelected = errors.New("no chatroom selected")
	ErrUnknownMessage = errors.New("no such message")
)

// MessageState tags a message's confirmation status. Server-fetched
// messages are always confirmed; locally appended sends move from pending
// to either confirmed (via refetch) or failed (retryable).
type MessageState int

const (
	MessageConfirmed MessageState = iota
	MessagePending
	MessageFailed
)

// Message is one turn, with direction and sender label derived from the
// author id.
type Message struct {
	ID       string
	AuthorID string
	Text     string
	Incoming bool
	Sender   string
	State    MessageState
}

// classify derives direction and label from the author id. Exactly one of
// the two classifications holds for any id.
func classify(authorID string) (incoming bool, sender string) {
	if authorID == AssistantID {
		return true, SenderAssistant
	}
	return false, SenderUser
}

// ChatSlice owns the message list of the selected room plus the room's
// bound model/provider identifiers (room properties surfaced through the
// chat domain for display).
type ChatSlice struct {
	errState

	chat    *gateway.ChatClient
	session *SessionSlice
	rooms   *RoomSlice

	mu       sync.RWMutex
	roomID   string
	messages []Message
	detail   gateway.RoomDetail

	// gen guards against unsequenced concurrent fetches: each dispatch
	// bumps it, and a response belonging to a superseded dispatch is
	// discarded instead of overwriting fresher state.
	gen uint64
}

func newChatSlice(chat *gateway.ChatClient, session *SessionSlice, rooms *RoomSlice) *ChatSlice {
	return &ChatSlice{chat: chat, session: session, rooms: rooms}
}

// superseded reports whether a newer fetch was dispatched after gen.
// Superseded responses are discarded whole, errors included, so a slow
// failure cannot clobber the error state of a fresher fetch.
func (s *ChatSlice) superseded(gen uint64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return gen != s.gen
}

// Messages returns a copy of the message list in server-assigned order,
// with any locally appended pending/failed sends at the tail.
func (s *ChatSlice) Messages() []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// ModelInfo returns the selected room's bound chat and embedding
// model/provider identifiers as of the last fetch.
func (s *ChatSlice) ModelInfo() (chatModel, chatProvider, embedModel, embedProvider string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d := s.detail
	return d.ChatModel, d.ChatProvider, d.EmbeddingModel, d.EmbeddingProvider
}

// FetchForSelectedRoom replaces the message list wholesale with the
// server's view of the selected room. Fails fast without a network call
// when no token is held or no room is selected. The selection is read at
// dispatch time; a response that resolves after a newer dispatch is
// discarded.
func (s *ChatSlice) FetchForSelectedRoom(ctx context.Context) error {
	token := s.session.Token()
	if token == "" {
		return s.record(ErrNotLoggedIn)
	}
	roomID := s.rooms.SelectedID()
	if roomID == "" {
		return s.record(ErrNoRoomSelected)
	}

	s.mu.Lock()
	s.gen++
	gen := s.gen
	s.mu.Unlock()

	detail, err := s.chat.GetRoom(ctx, token, roomID)
	if err != nil {
		if s.superseded(gen) {
			return nil
		}
		return s.record(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		// A newer fetch was dispatched while this one was in flight.
		return nil
	}

	messages := make([]Message, 0, len(detail.Messages))
	for _, m := range detail.Messages {
		incoming, sender := classify(m.AuthorID)
		messages = append(messages, Message{
			ID:       m.ID,
			AuthorID: m.AuthorID,
			Text:     m.Text,
			Incoming: incoming,
			Sender:   sender,
			State:    MessageConfirmed,
		})
	}
	s.roomID = roomID
	s.messages = messages
	s.detail = detail
	s.record(nil)
	return nil
}

// Send appends the text as a pending outgoing message, posts it, and then
// always refetches so server-assigned ordering and ids win. On failure the
// pending entry is marked failed instead of being silently left behind;
// Retry resends it.
func (s *ChatSlice) Send(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return s.record(ErrEmptyMessage)
	}

	token := s.session.Token()
	if token == "" {
		return s.record(ErrNotLoggedIn)
	}
	roomID := s.rooms.SelectedID()
	if roomID == "" {
		return s.record(ErrNoRoomSelected)
	}

	localID := uuid.New().String()
	userID := s.session.UserID()
	s.mu.Lock()
	s.messages = append(s.messages, Message{
		ID:       localID,
		AuthorID: userID,
		Text:     text,
		Incoming: false,
		Sender:   SenderUser,
		State:    MessagePending,
	})
	model := s.detail.ChatModel
	s.mu.Unlock()

	if err := s.chat.SendMessage(ctx, token, roomID, text, model); err != nil {
		s.markFailed(localID)
		return s.record(err)
	}

	// The refetch replaces the list wholesale, confirming the send with
	// its server-assigned entry.
	return s.FetchForSelectedRoom(ctx)
}

// Retry resends a failed message by local id, removing the failed entry.
func (s *ChatSlice) Retry(ctx context.Context, localID string) error {
	s.mu.Lock()
	var text string
	found := false
	kept := s.messages[:0]
	for _, m := range s.messages {
		if m.ID == localID && m.State == MessageFailed {
			text = m.Text
			found = true
			continue
		}
		kept = append(kept, m)
	}
	s.messages = kept
	s.mu.Unlock()

	if !found {
		return s.record(ErrUnknownMessage)
	}
	return s.Send(ctx, text)
}

// FailedMessages returns the failed sends, oldest first.
func (s *ChatSlice) FailedMessages() []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var failed []Message
	for _, m := range s.messages {
		if m.State == MessageFailed {
			failed = append(failed, m)
		}
	}
	return failed
}

func (s *ChatSlice) markFailed(localID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.messages {
		if s.messages[i].ID == localID {
			s.messages[i].State = MessageFailed
			return
		}
	}
}

func (s *ChatSlice) sessionEnded() {
	s.mu.Lock()
	s.roomID = ""
	s.messages = nil
	s.detail = gateway.RoomDetail{}
	s.gen++
	s.mu.Unlock()
	s.record(nil)
}
