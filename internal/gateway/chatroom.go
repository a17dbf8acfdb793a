package gateway

import (
	"context"
	"net/http"
)

// The chatroom service names its token parameter cookie, and the send
// endpoint carries it in the request body.
const chatTokenParam = "cookie"

// Room is a chatroom as listed by the chatroom service.
type Room struct {
	ID                string `json:"chatroom_uuid"`
	Name              string `json:"chatroom_name"`
	ChatModel         string `json:"chat_model"`
	ChatProvider      string `json:"chat_provider"`
	EmbeddingModel    string `json:"embedding_model"`
	EmbeddingProvider string `json:"embedding_provider"`
}

// Message is one turn in a chatroom. Direction is not stored server-side;
// it is derived from AuthorID by the store.
type Message struct {
	ID       string `json:"message_uuid"`
	AuthorID string `json:"user_uuid"`
	Author   string `json:"username"`
	Text     string `json:"message"`
	SentAt   string `json:"timestamp"`
}

// RoomDetail is the message list plus the room's bound model pairs.
type RoomDetail struct {
	Messages          []Message `json:"messages"`
	ChatModel         string    `json:"chat_model"`
	ChatProvider      string    `json:"chat_provider"`
	EmbeddingModel    string    `json:"embedding_model"`
	EmbeddingProvider string    `json:"embedding_provider"`
}

// ChatClient talks to the chatroom/message service.
type ChatClient struct {
	caller
}

func NewChatClient(baseURL string, httpClient *http.Client) *ChatClient {
	return &ChatClient{caller: newCaller(baseURL, httpClient)}
}

func (c *ChatClient) ListRooms(ctx context.Context, token string) ([]Room, error) {
	var rooms []Room
	err := c.doJSON(ctx, http.MethodGet, "/rooms", tokenQuery(chatTokenParam, token), nil, &rooms)
	return rooms, err
}

// CreateRoom creates a room bound to the given model pairs and returns the
// new room id.
func (c *ChatClient) CreateRoom(ctx context.Context, token string, room Room) (string, error) {
	body := map[string]string{
		"chatroom_name":      room.Name,
		"chat_model":         room.ChatModel,
		"chat_provider":      room.ChatProvider,
		"embedding_model":    room.EmbeddingModel,
		"embedding_provider": room.EmbeddingProvider,
	}
	var created struct {
		ID string `json:"chatroom_uuid"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/room", tokenQuery(chatTokenParam, token), body, &created); err != nil {
		return "", err
	}
	return created.ID, nil
}

func (c *ChatClient) RenameRoom(ctx context.Context, token, roomID, name string) error {
	body := map[string]string{"chatroom_uuid": roomID, "chatroom_name": name}
	return c.doJSON(ctx, http.MethodPatch, "/room", tokenQuery(chatTokenParam, token), body, nil)
}

func (c *ChatClient) DeleteRoom(ctx context.Context, token, roomID string) error {
	q := tokenQuery(chatTokenParam, token)
	q.Set("chatroom_uuid", roomID)
	return c.doJSON(ctx, http.MethodDelete, "/room", q, nil, nil)
}

// GetRoom fetches the room's messages and bound models.
func (c *ChatClient) GetRoom(ctx context.Context, token, roomID string) (RoomDetail, error) {
	q := tokenQuery(chatTokenParam, token)
	q.Set("chatroom_uuid", roomID)
	var detail RoomDetail
	err := c.doJSON(ctx, http.MethodGet, "/room", q, nil, &detail)
	return detail, err
}

// SendMessage posts a user message. The service assigns ordering and ids;
// callers refetch the room to observe them.
func (c *ChatClient) SendMessage(ctx context.Context, token, roomID, text, model string) error {
	body := map[string]string{
		"chatroom_uuid": roomID,
		"cookie":        token,
		"message":       text,
		"model":         model,
	}
	return c.doJSON(ctx, http.MethodPost, "/message", nil, body, nil)
}
