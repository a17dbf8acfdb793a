// Package gateway holds the typed HTTP clients for the five InfoGrep
// backend services. Every call follows the same shape: build query
// parameters and/or a JSON body, issue the request, and check two failure
// channels: a non-2xx transport status is a hard failure, and a 2xx
// response whose JSON envelope carries the error flag is a domain failure
// with a service-provided status string.
//
// The services disagree on how the session token parameter is named
// (`sessionToken` on the auth and AI services, `cookie` on the chatroom and
// file services). Callers pass one token; each service client maps it to
// the name its service expects, so the quirk never leaves this package.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Endpoints are the base URLs of the backend services.
type Endpoints struct {
	Auth string
	Chat string
	File string
	AI   string
}

// TransportError is a hard failure: the service answered with a non-2xx
// HTTP status (or an unreadable body).
type TransportError struct {
	StatusCode int
	Body       string
}

func (e *TransportError) Error() string {
	body := e.Body
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	if body == "" {
		return fmt.Sprintf("request failed with status %d", e.StatusCode)
	}
	return fmt.Sprintf("request failed with status %d: %s", e.StatusCode, body)
}

// DomainError is a soft failure: HTTP OK, but the response envelope set its
// error flag. Status carries the human-readable string from the service.
type DomainError struct {
	Status string
}

func (e *DomainError) Error() string {
	return e.Status
}

// envelope is the response shape shared by all five services.
type envelope struct {
	Error   bool            `json:"error"`
	Status  string          `json:"status"`
	Content json.RawMessage `json:"content"`
}

const maxResponseSize = 32 << 20 // 32MB, covers file downloads

// caller issues requests against one service base URL.
type caller struct {
	baseURL    string
	httpClient *http.Client
}

func newCaller(baseURL string, httpClient *http.Client) caller {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return caller{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
	}
}

// do issues a request and returns the raw response. body, when non-nil, is
// JSON-encoded.
func (c caller) do(ctx context.Context, method, path string, query url.Values, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshalling request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, bodyReader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("reaching %s: %w", c.baseURL, err)
	}
	return resp, nil
}

// doJSON issues a request and decodes the enveloped response into out.
// Pass a nil out to discard the content.
func (c caller) doJSON(ctx context.Context, method, path string, query url.Values, body, out any) error {
	resp, err := c.do(ctx, method, path, query, body)
	if err != nil {
		return err
	}
	return decodeEnvelope(resp, out)
}

// decodeEnvelope consumes the response body, applying both failure
// channels, and unmarshals the envelope content into out when non-nil.
func decodeEnvelope(resp *http.Response, out any) error {
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &TransportError{StatusCode: resp.StatusCode, Body: string(data)}
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}
	if env.Error {
		return &DomainError{Status: env.Status}
	}

	if out == nil || len(env.Content) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Content, out); err != nil {
		return fmt.Errorf("parsing response content: %w", err)
	}
	return nil
}

// tokenQuery builds a query carrying the session token under the given
// parameter name.
func tokenQuery(param, token string) url.Values {
	q := url.Values{}
	q.Set(param, token)
	return q
}
