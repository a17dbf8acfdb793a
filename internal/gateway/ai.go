package gateway

import (
	"context"
	"net/http"
)

// The AI service uses the same token parameter name as the auth service.
const aiTokenParam = "sessionToken"

// Model kinds as reported by the AI service.
const (
	ModelKindChat      = "chat"
	ModelKindEmbedding = "embedding"
)

// ModelInfo is a selectable (model, provider) pair. Kind is ModelKindChat
// or ModelKindEmbedding; a pair is unique per (model, provider, kind).
type ModelInfo struct {
	Model    string `json:"model"`
	Provider string `json:"provider"`
	Kind     string `json:"-"`
}

// ModelCatalog is the full model listing of the AI service.
type ModelCatalog struct {
	Chat      []ModelInfo `json:"chat"`
	Embedding []ModelInfo `json:"embedding"`
}

// AIClient talks to the AI/model service.
type AIClient struct {
	caller
}

func NewAIClient(baseURL string, httpClient *http.Client) *AIClient {
	return &AIClient{caller: newCaller(baseURL, httpClient)}
}

// ListModels fetches the model catalog. Kind tags are filled in from the
// catalog section each entry came from.
func (c *AIClient) ListModels(ctx context.Context, token string) (ModelCatalog, error) {
	var catalog ModelCatalog
	if err := c.doJSON(ctx, http.MethodGet, "/models", tokenQuery(aiTokenParam, token), nil, &catalog); err != nil {
		return ModelCatalog{}, err
	}
	for i := range catalog.Chat {
		catalog.Chat[i].Kind = ModelKindChat
	}
	for i := range catalog.Embedding {
		catalog.Embedding[i].Kind = ModelKindEmbedding
	}
	return catalog, nil
}

// ReplaceModels PUTs the whole corrected catalog back. Admin add/remove
// actions send the full list; the service keeps no per-entry endpoints.
func (c *AIClient) ReplaceModels(ctx context.Context, token string, catalog ModelCatalog) error {
	return c.doJSON(ctx, http.MethodPost, "/models", tokenQuery(aiTokenParam, token), catalog, nil)
}

// SetProvider stores credential settings for a provider.
func (c *AIClient) SetProvider(ctx context.Context, token, provider string, settings map[string]string) error {
	body := map[string]any{"provider": provider, "settings": settings}
	return c.doJSON(ctx, http.MethodPost, "/providers", tokenQuery(aiTokenParam, token), body, nil)
}

// StartParsing asks the AI service to begin extraction/embedding of an
// uploaded file.
func (c *AIClient) StartParsing(ctx context.Context, token, roomID, fileID, fileType string) error {
	body := map[string]string{
		"chatroom_uuid": roomID,
		"file_uuid":     fileID,
		"filetype":      fileType,
	}
	return c.doJSON(ctx, http.MethodPost, "/start_parsing", tokenQuery(aiTokenParam, token), body, nil)
}
