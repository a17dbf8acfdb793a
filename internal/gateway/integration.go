package gateway

import (
	"context"
	"net/http"
)

// Integration is a third-party data-source connector bound to a chatroom.
// Config is free-form; its shape depends on Type (a wiki integration
// carries different keys than an issue tracker).
type Integration struct {
	ID     string            `json:"integration_uuid"`
	Type   string            `json:"integration_type"`
	Config map[string]string `json:"config"`
}

func (c *FileClient) ListIntegrations(ctx context.Context, token, roomID string) ([]Integration, error) {
	q := tokenQuery(fileTokenParam, token)
	q.Set("chatroom_uuid", roomID)
	var integrations []Integration
	err := c.doJSON(ctx, http.MethodGet, "/integrations", q, nil, &integrations)
	return integrations, err
}

// CreateIntegration registers a connector and returns its id.
func (c *FileClient) CreateIntegration(ctx context.Context, token, roomID string, in Integration) (string, error) {
	q := tokenQuery(fileTokenParam, token)
	q.Set("chatroom_uuid", roomID)
	body := map[string]any{
		"integration_type": in.Type,
		"config":           in.Config,
	}
	var created struct {
		ID string `json:"integration_uuid"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/integration", q, body, &created); err != nil {
		return "", err
	}
	return created.ID, nil
}

func (c *FileClient) DeleteIntegration(ctx context.Context, token, roomID, integrationID string) error {
	q := tokenQuery(fileTokenParam, token)
	q.Set("chatroom_uuid", roomID)
	q.Set("integration_uuid", integrationID)
	return c.doJSON(ctx, http.MethodDelete, "/integration", q, nil, nil)
}

// SyncIntegration re-parses the connector's source on demand.
func (c *FileClient) SyncIntegration(ctx context.Context, token, roomID, integrationID string) error {
	q := tokenQuery(fileTokenParam, token)
	q.Set("chatroom_uuid", roomID)
	q.Set("integration_uuid", integrationID)
	return c.doJSON(ctx, http.MethodPost, "/integration-sync", q, nil, nil)
}
