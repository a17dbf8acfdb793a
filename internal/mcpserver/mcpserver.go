// Package mcpserver exposes InfoGrep chatrooms to MCP clients over
// stdio. Tools operate through the same store the CLI uses, so a
// logged-in session is required before serving.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/infogrep/infogrep-cli/internal/store"
)

// New creates an MCP server with all InfoGrep tools and resources registered.
func New(st *store.Store, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"infogrep",
		version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("Document-grounded chat over InfoGrep chatrooms."),
		server.WithRecovery(),
	)

	// Tools
	s.AddTool(
		mcp.NewTool("infogrep_rooms",
			mcp.WithDescription("List the chatrooms available to the current session."),
		),
		toolRooms(st),
	)

	s.AddTool(
		mcp.NewTool("infogrep_ask",
			mcp.WithDescription("Send a message to an InfoGrep chatroom and return the assistant reply grounded in the room's documents."),
			mcp.WithString("message", mcp.Description("The question or message to send"), mcp.Required()),
			mcp.WithString("room", mcp.Description("Chatroom name or UUID; defaults to the selected room")),
		),
		toolAsk(st),
	)

	s.AddTool(
		mcp.NewTool("infogrep_files",
			mcp.WithDescription("List the documents uploaded to a chatroom."),
			mcp.WithString("room", mcp.Description("Chatroom name or UUID; defaults to the selected room")),
		),
		toolFiles(st),
	)

	// Resources
	s.AddResource(
		mcp.NewResource(
			"infogrep://models",
			"Model Catalog",
			mcp.WithResourceDescription("Configured chat and embedding models as JSON"),
			mcp.WithMIMEType("application/json"),
		),
		resourceModels(st),
	)

	return s
}

// resolveRoom maps a room name or UUID to a room id, refreshing the
// room list first so newly created rooms are visible. An empty
// argument falls back to the current selection.
func resolveRoom(ctx context.Context, st *store.Store, arg string) (string, error) {
	if err := st.Rooms.FetchAll(ctx); err != nil {
		return "", fmt.Errorf("fetching rooms: %w", err)
	}
	if arg == "" {
		if id := st.Rooms.SelectedID(); id != "" {
			return id, nil
		}
		return "", fmt.Errorf("no room selected; pass the room argument")
	}
	if _, ok := st.Rooms.Room(arg); ok {
		return arg, nil
	}
	for id, room := range st.Rooms.Rooms() {
		if room.Name == arg {
			return id, nil
		}
	}
	return "", fmt.Errorf("unknown room %q", arg)
}

func toolRooms(st *store.Store) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if err := st.Rooms.FetchAll(ctx); err != nil {
			return mcpError(fmt.Sprintf("failed to list rooms: %v", err)), nil
		}

		type roomSummary struct {
			ID        string `json:"id"`
			Name      string `json:"name"`
			ChatModel string `json:"chat_model"`
			Selected  bool   `json:"selected,omitempty"`
		}

		selected := st.Rooms.SelectedID()
		rooms := st.Rooms.Rooms()
		summaries := make([]roomSummary, 0, len(rooms))
		for id, room := range rooms {
			summaries = append(summaries, roomSummary{
				ID:        id,
				Name:      room.Name,
				ChatModel: room.ChatModel,
				Selected:  id == selected,
			})
		}
		sort.Slice(summaries, func(i, j int) bool { return summaries[i].Name < summaries[j].Name })

		b, err := json.Marshal(summaries)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal rooms: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func toolAsk(st *store.Store) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		message, err := req.RequireString("message")
		if err != nil {
			return mcpError("message is required"), nil
		}

		roomID, err := resolveRoom(ctx, st, req.GetString("room", ""))
		if err != nil {
			return mcpError(err.Error()), nil
		}
		st.Rooms.Select(roomID)

		if err := st.Chat.FetchForSelectedRoom(ctx); err != nil {
			return mcpError(fmt.Sprintf("failed to load room: %v", err)), nil
		}
		if err := st.Chat.Send(ctx, message); err != nil {
			return mcpError(fmt.Sprintf("send failed: %v", err)), nil
		}

		messages := st.Chat.Messages()
		for i := len(messages) - 1; i >= 0; i-- {
			if messages[i].Incoming {
				return mcpText(messages[i].Text), nil
			}
		}
		return mcpError("no assistant reply received"), nil
	}
}

func toolFiles(st *store.Store) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		roomID, err := resolveRoom(ctx, st, req.GetString("room", ""))
		if err != nil {
			return mcpError(err.Error()), nil
		}
		st.Rooms.Select(roomID)

		if err := st.Files.FetchForSelectedRoom(ctx); err != nil {
			return mcpError(fmt.Sprintf("failed to list files: %v", err)), nil
		}

		type fileSummary struct {
			ID   string `json:"id"`
			Name string `json:"name"`
			Size int64  `json:"size"`
		}

		files := st.Files.Files()
		summaries := make([]fileSummary, len(files))
		for i, f := range files {
			summaries[i] = fileSummary{ID: f.ID, Name: f.Name, Size: f.Size}
		}

		b, err := json.Marshal(summaries)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal files: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func resourceModels(st *store.Store) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		fetchCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		if err := st.Models.Fetch(fetchCtx); err != nil {
			return nil, fmt.Errorf("failed to fetch models: %w", err)
		}

		b, err := json.Marshal(st.Models.Catalog())
		if err != nil {
			return nil, fmt.Errorf("failed to marshal catalog: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
