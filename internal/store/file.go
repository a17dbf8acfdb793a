package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/infogrep/infogrep-cli/internal/gateway"
)

var ErrMissingIntegrationType = errors.New("integration type is required")

// FileSlice owns the file list and integrations of the selected room,
// plus the file-panel visibility flag.
type FileSlice struct {
	errState

	files   *gateway.FileClient
	ai      *gateway.AIClient
	session *SessionSlice
	rooms   *RoomSlice

	mu           sync.RWMutex
	list         []gateway.FileInfo
	integrations []gateway.Integration
	visible      bool

	gen uint64
}

func newFileSlice(files *gateway.FileClient, ai *gateway.AIClient, session *SessionSlice, rooms *RoomSlice) *FileSlice {
	return &FileSlice{files: files, ai: ai, session: session, rooms: rooms}
}

// superseded reports whether a newer fetch was dispatched after gen.
func (s *FileSlice) superseded(gen uint64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return gen != s.gen
}

// Files returns a copy of the file list as of the last fetch.
func (s *FileSlice) Files() []gateway.FileInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]gateway.FileInfo, len(s.list))
	copy(out, s.list)
	return out
}

// Integrations returns a copy of the integration list as of the last fetch.
func (s *FileSlice) Integrations() []gateway.Integration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]gateway.Integration, len(s.integrations))
	copy(out, s.integrations)
	return out
}

// FileListVisible reports the file-panel visibility flag.
func (s *FileSlice) FileListVisible() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.visible
}

// SetFileListVisible flips the panel flag. Synchronous, no network effect.
func (s *FileSlice) SetFileListVisible(visible bool) {
	s.mu.Lock()
	s.visible = visible
	s.mu.Unlock()
}

// guard returns the token and selected room id, failing fast when either
// is absent.
func (s *FileSlice) guard() (token, roomID string, err error) {
	token = s.session.Token()
	if token == "" {
		return "", "", ErrNotLoggedIn
	}
	roomID = s.rooms.SelectedID()
	if roomID == "" {
		return "", "", ErrNoRoomSelected
	}
	return token, roomID, nil
}

// FetchForSelectedRoom replaces the file and integration lists wholesale.
// Mirrors the chat slice's guard and stale-response handling.
func (s *FileSlice) FetchForSelectedRoom(ctx context.Context) error {
	token, roomID, err := s.guard()
	if err != nil {
		return s.record(err)
	}

	s.mu.Lock()
	s.gen++
	gen := s.gen
	s.mu.Unlock()

	list, err := s.files.ListFiles(ctx, token, roomID)
	if err != nil {
		if s.superseded(gen) {
			return nil
		}
		return s.record(err)
	}
	integrations, err := s.files.ListIntegrations(ctx, token, roomID)
	if err != nil {
		if s.superseded(gen) {
			return nil
		}
		return s.record(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return nil
	}
	s.list = list
	s.integrations = integrations
	s.record(nil)
	return nil
}

// Upload sends the file, then chains the parse-trigger call tagged with
// the id the service assigned, then refetches. Upload and parse-trigger
// are two independent calls with no atomicity between them: when the
// trigger fails the file stays uploaded and unparsed, the error is
// recorded, and the list is still refetched so the file shows up.
func (s *FileSlice) Upload(ctx context.Context, path string) error {
	token, roomID, err := s.guard()
	if err != nil {
		return s.record(err)
	}

	fileType, err := DetectFileType(path)
	if err != nil {
		return s.record(err)
	}

	fileID, err := s.files.Upload(ctx, token, roomID, path)
	if err != nil {
		return s.record(err)
	}

	if err := s.ai.StartParsing(ctx, token, roomID, fileID, fileType); err != nil {
		s.FetchForSelectedRoom(ctx)
		return s.record(fmt.Errorf("file uploaded but parsing not started: %w", err))
	}

	return s.FetchForSelectedRoom(ctx)
}

// Delete removes the file server-side then refetches.
func (s *FileSlice) Delete(ctx context.Context, fileID string) error {
	token, roomID, err := s.guard()
	if err != nil {
		return s.record(err)
	}
	if err := s.files.DeleteFile(ctx, token, roomID, fileID); err != nil {
		return s.record(err)
	}
	return s.FetchForSelectedRoom(ctx)
}

// Download fetches the file bytes and writes them to destPath. Failures
// surface as the slice error only; there is no retry.
func (s *FileSlice) Download(ctx context.Context, fileID, destPath string) error {
	token, roomID, err := s.guard()
	if err != nil {
		return s.record(err)
	}

	data, err := s.files.Download(ctx, token, roomID, fileID)
	if err != nil {
		return s.record(err)
	}
	if err := os.WriteFile(destPath, data, 0o644); err != nil {
		return s.record(fmt.Errorf("writing %s: %w", destPath, err))
	}
	return s.record(nil)
}

// AddIntegration registers a connector for the selected room and
// refetches. Config shape depends on the integration type; the client
// passes it through untouched.
func (s *FileSlice) AddIntegration(ctx context.Context, integrationType string, cfg map[string]string) error {
	if integrationType == "" {
		return s.record(ErrMissingIntegrationType)
	}
	token, roomID, err := s.guard()
	if err != nil {
		return s.record(err)
	}

	_, err = s.files.CreateIntegration(ctx, token, roomID, gateway.Integration{Type: integrationType, Config: cfg})
	if err != nil {
		return s.record(err)
	}
	return s.FetchForSelectedRoom(ctx)
}

// DeleteIntegration removes a connector then refetches.
func (s *FileSlice) DeleteIntegration(ctx context.Context, integrationID string) error {
	token, roomID, err := s.guard()
	if err != nil {
		return s.record(err)
	}
	if err := s.files.DeleteIntegration(ctx, token, roomID, integrationID); err != nil {
		return s.record(err)
	}
	return s.FetchForSelectedRoom(ctx)
}

// SyncIntegration re-parses a connector's source on demand.
func (s *FileSlice) SyncIntegration(ctx context.Context, integrationID string) error {
	token, roomID, err := s.guard()
	if err != nil {
		return s.record(err)
	}
	return s.record(s.files.SyncIntegration(ctx, token, roomID, integrationID))
}

func (s *FileSlice) sessionEnded() {
	s.mu.Lock()
	s.list = nil
	s.integrations = nil
	s.visible = false
	s.gen++
	s.mu.Unlock()
	s.record(nil)
}
