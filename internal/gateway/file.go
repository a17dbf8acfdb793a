package gateway

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
)

// The file service, like the chatroom service, names its token parameter
// cookie.
const fileTokenParam = "cookie"

const maxUploadSize = 64 << 20 // 64MB

// FileInfo is an uploaded document bound to a chatroom.
type FileInfo struct {
	ID   string `json:"file_uuid"`
	Name string `json:"file_name"`
	Size int64  `json:"file_size"`
}

// FileClient talks to the file service.
type FileClient struct {
	caller
}

func NewFileClient(baseURL string, httpClient *http.Client) *FileClient {
	return &FileClient{caller: newCaller(baseURL, httpClient)}
}

func (c *FileClient) ListFiles(ctx context.Context, token, roomID string) ([]FileInfo, error) {
	q := tokenQuery(fileTokenParam, token)
	q.Set("chatroom_uuid", roomID)
	var files []FileInfo
	err := c.doJSON(ctx, http.MethodGet, "/files", q, nil, &files)
	return files, err
}

// Upload sends the file at path as a multipart body and returns the id the
// service assigned to it.
func (c *FileClient) Upload(ctx context.Context, token, roomID, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("stating %s: %w", path, err)
	}
	if info.Size() > maxUploadSize {
		return "", fmt.Errorf("%s is %d bytes, above the %d byte upload limit", path, info.Size(), maxUploadSize)
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return "", fmt.Errorf("building multipart body: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("finishing multipart body: %w", err)
	}

	q := tokenQuery(fileTokenParam, token)
	q.Set("chatroom_uuid", roomID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/file?"+q.Encode(), &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("reaching %s: %w", c.baseURL, err)
	}

	var uploaded struct {
		ID string `json:"file_uuid"`
	}
	if err := decodeEnvelope(resp, &uploaded); err != nil {
		return "", err
	}
	return uploaded.ID, nil
}

func (c *FileClient) DeleteFile(ctx context.Context, token, roomID, fileID string) error {
	q := tokenQuery(fileTokenParam, token)
	q.Set("chatroom_uuid", roomID)
	q.Set("file_uuid", fileID)
	return c.doJSON(ctx, http.MethodDelete, "/file", q, nil, nil)
}

// Download fetches the file bytes. The download endpoint returns the raw
// payload, not the JSON envelope, so only the transport channel applies.
func (c *FileClient) Download(ctx context.Context, token, roomID, fileID string) ([]byte, error) {
	q := tokenQuery(fileTokenParam, token)
	q.Set("chatroom_uuid", roomID)
	q.Set("file_uuid", fileID)

	resp, err := c.do(ctx, http.MethodGet, "/file", q, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("reading download: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &TransportError{StatusCode: resp.StatusCode, Body: string(data)}
	}
	return data, nil
}

// --- admin ---

func (c *FileClient) ListAllFiles(ctx context.Context, token string) ([]FileInfo, error) {
	var files []FileInfo
	err := c.doJSON(ctx, http.MethodGet, "/admin-all-files", tokenQuery(fileTokenParam, token), nil, &files)
	return files, err
}

func (c *FileClient) AdminDeleteFile(ctx context.Context, token, fileID string) error {
	q := tokenQuery(fileTokenParam, token)
	q.Set("file_uuid", fileID)
	return c.doJSON(ctx, http.MethodDelete, "/admin-delete-file", q, nil, nil)
}
