package devstub

import (
	"io"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func (s *Stub) fileRouter() http.Handler {
	r := chi.NewRouter()
	r.Get("/files", s.handleListFiles)
	r.Post("/file", s.handleUploadFile)
	r.Get("/file", s.handleDownloadFile)
	r.Delete("/file", s.handleDeleteFile)
	r.Get("/admin-all-files", s.handleAdminAllFiles)
	r.Delete("/admin-delete-file", s.handleAdminDeleteFile)
	r.Get("/integrations", s.handleListIntegrations)
	r.Post("/integration", s.handleCreateIntegration)
	r.Delete("/integration", s.handleDeleteIntegration)
	r.Post("/integration-sync", s.handleSyncIntegration)
	return r
}

func fileListing(f *storedFile) map[string]any {
	return map[string]any{
		"file_uuid": f.id,
		"file_name": f.name,
		"file_size": len(f.data),
	}
}

func (s *Stub) handleListFiles(w http.ResponseWriter, r *http.Request) {
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

	listing := []map[string]any{}
	var ids []string
	for id := range s.files {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if f := s.files[id]; f.roomID == rm.id {
			listing = append(listing, fileListing(f))
		}
	}
	ok(w, listing)
}

func (s *Stub) handleUploadFile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	if err := r.ParseMultipartForm(maxRequestBodySize); err != nil {
		fail(w, "invalid multipart body: %v", err)
		return
	}
	part, header, err := r.FormFile("file")
	if err != nil {
		fail(w, "file part is required")
		return
	}
	defer part.Close()

	data, err := io.ReadAll(part)
	if err != nil {
		httpError(w, http.StatusInternalServerError, "reading upload: %v", err)
		return
	}

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

	f := &storedFile{
		id:     uuid.New().String(),
		roomID: rm.id,
		name:   header.Filename,
		data:   data,
	}
	s.files[f.id] = f
	ok(w, map[string]string{"file_uuid": f.id})
}

// fileForUser fetches a file in a room owned by the caller.
// Callers hold s.mu.
func (s *Stub) fileForUser(w http.ResponseWriter, u *user, roomID, fileID string) (*storedFile, bool) {
	if _, found := s.roomForUser(w, u, roomID); !found {
		return nil, false
	}
	f, exists := s.files[fileID]
	if !exists || f.roomID != roomID {
		fail(w, "no such file")
		return nil, false
	}
	return f, true
}

func (s *Stub) handleDownloadFile(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, valid := s.requireUser(w, r.URL.Query().Get("cookie"))
	if !valid {
		return
	}
	f, found := s.fileForUser(w, u, r.URL.Query().Get("chatroom_uuid"), r.URL.Query().Get("file_uuid"))
	if !found {
		return
	}

	// Downloads return the raw payload, not the envelope.
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Write(f.data)
}

func (s *Stub) handleDeleteFile(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, valid := s.requireUser(w, r.URL.Query().Get("cookie"))
	if !valid {
		return
	}
	f, found := s.fileForUser(w, u, r.URL.Query().Get("chatroom_uuid"), r.URL.Query().Get("file_uuid"))
	if !found {
		return
	}

	delete(s.files, f.id)
	ok(w, nil)
}

func (s *Stub) handleAdminAllFiles(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, allowed := s.requireAdmin(w, r.URL.Query().Get("cookie")); !allowed {
		return
	}

	listing := []map[string]any{}
	var ids []string
	for id := range s.files {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		listing = append(listing, fileListing(s.files[id]))
	}
	ok(w, listing)
}

func (s *Stub) handleAdminDeleteFile(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, allowed := s.requireAdmin(w, r.URL.Query().Get("cookie")); !allowed {
		return
	}

	fileID := r.URL.Query().Get("file_uuid")
	if _, exists := s.files[fileID]; !exists {
		fail(w, "no such file")
		return
	}
	delete(s.files, fileID)
	ok(w, nil)
}

// --- integrations ---

func (s *Stub) handleListIntegrations(w http.ResponseWriter, r *http.Request) {
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

	listing := []*integration{}
	var ids []string
	for id := range s.integrations {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if in := s.integrations[id]; in.roomID == rm.id {
			listing = append(listing, in)
		}
	}
	ok(w, listing)
}

func (s *Stub) handleCreateIntegration(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Type   string            `json:"integration_type"`
		Config map[string]string `json:"config"`
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
	rm, found := s.roomForUser(w, u, r.URL.Query().Get("chatroom_uuid"))
	if !found {
		return
	}
	if req.Type == "" {
		fail(w, "integration type is required")
		return
	}

	in := &integration{
		ID:     uuid.New().String(),
		Type:   req.Type,
		Config: req.Config,
		roomID: rm.id,
	}
	s.integrations[in.ID] = in
	ok(w, map[string]string{"integration_uuid": in.ID})
}

// integrationForUser fetches an integration in a room owned by the caller.
// Callers hold s.mu.
func (s *Stub) integrationForUser(w http.ResponseWriter, u *user, roomID, integrationID string) (*integration, bool) {
	if _, found := s.roomForUser(w, u, roomID); !found {
		return nil, false
	}
	in, exists := s.integrations[integrationID]
	if !exists || in.roomID != roomID {
		fail(w, "no such integration")
		return nil, false
	}
	return in, true
}

func (s *Stub) handleDeleteIntegration(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, valid := s.requireUser(w, r.URL.Query().Get("cookie"))
	if !valid {
		return
	}
	in, found := s.integrationForUser(w, u, r.URL.Query().Get("chatroom_uuid"), r.URL.Query().Get("integration_uuid"))
	if !found {
		return
	}

	delete(s.integrations, in.ID)
	ok(w, nil)
}

func (s *Stub) handleSyncIntegration(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, valid := s.requireUser(w, r.URL.Query().Get("cookie"))
	if !valid {
		return
	}
	if _, found := s.integrationForUser(w, u, r.URL.Query().Get("chatroom_uuid"), r.URL.Query().Get("integration_uuid")); !found {
		return
	}

	// The stub has no external source to pull from; syncing succeeds
	// without effect.
	ok(w, nil)
}
