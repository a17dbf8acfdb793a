package store

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/infogrep/infogrep-cli/internal/devstub"
	"github.com/infogrep/infogrep-cli/internal/gateway"
	"github.com/infogrep/infogrep-cli/internal/localdata"
)

// testEnv is a store wired against an in-process devstub, sharing its
// backend and local database with any sibling stores built via reopen.
type testEnv struct {
	srv   *httptest.Server
	local *localdata.Store
	store *Store
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	srv := httptest.NewServer(devstub.New().Handler())
	t.Cleanup(srv.Close)

	local, err := localdata.Open(":memory:")
	if err != nil {
		t.Fatalf("opening local storage: %v", err)
	}
	t.Cleanup(func() { local.Close() })

	return &testEnv{srv: srv, local: local, store: buildStore(t, srv, local)}
}

func buildStore(t *testing.T, srv *httptest.Server, local *localdata.Store) *Store {
	t.Helper()
	st, err := New(Gateways{
		Auth: gateway.NewAuthClient(srv.URL+"/auth", nil),
		Chat: gateway.NewChatClient(srv.URL+"/chat", nil),
		File: gateway.NewFileClient(srv.URL+"/files", nil),
		AI:   gateway.NewAIClient(srv.URL+"/ai", nil),
	}, local)
	if err != nil {
		t.Fatalf("building store: %v", err)
	}
	return st
}

// reopen builds a fresh store over the same backend and local database,
// simulating a client restart.
func (e *testEnv) reopen(t *testing.T) *Store {
	t.Helper()
	return buildStore(t, e.srv, e.local)
}

// register creates an account and selects a fresh room bound to the
// stub's seeded models.
func (e *testEnv) register(t *testing.T, username string) {
	t.Helper()
	if err := e.store.Session.Register(context.Background(), username, "pw"); err != nil {
		t.Fatalf("Register(%s): %v", username, err)
	}
}

func (e *testEnv) createRoom(t *testing.T, name string) string {
	t.Helper()
	ctx := context.Background()
	if err := e.store.Rooms.Create(ctx, name, "llama3.1", "ollama", "nomic-embed-text", "ollama"); err != nil {
		t.Fatalf("Create(%s): %v", name, err)
	}
	for id, r := range e.store.Rooms.Rooms() {
		if r.Name == name {
			return id
		}
	}
	t.Fatalf("room %s not in mapping after create", name)
	return ""
}

// --- session ---

func TestLoginValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if err := env.store.Session.Login(ctx, "", "pw"); !errors.Is(err, ErrMissingCredentials) {
		t.Errorf("empty username: got %v, want ErrMissingCredentials", err)
	}
	if err := env.store.Session.Login(ctx, "alice", ""); !errors.Is(err, ErrMissingCredentials) {
		t.Errorf("empty password: got %v, want ErrMissingCredentials", err)
	}
	if err := env.store.Session.Login(ctx, "   ", "pw"); !errors.Is(err, ErrMissingCredentials) {
		t.Errorf("whitespace username: got %v, want ErrMissingCredentials", err)
	}
	if env.store.Session.Err() == "" {
		t.Error("slice error should be recorded after a failed login")
	}
}

func TestRegisterThenLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.register(t, "alice")
	if env.store.Session.Token() == "" {
		t.Fatal("no token after register")
	}

	// Wrong password is a domain failure from the service.
	err := env.store.Session.Login(ctx, "alice", "wrong")
	var de *gateway.DomainError
	if !errors.As(err, &de) {
		t.Fatalf("wrong password: got %T %v, want DomainError", err, err)
	}

	if err := env.store.Session.Login(ctx, "alice", "pw"); err != nil {
		t.Fatalf("correct password: %v", err)
	}
}

// TestSessionRestoredAcrossRestart verifies the persisted token survives a
// client restart and CheckIdentity resolves the same user.
func TestSessionRestoredAcrossRestart(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, "alice")

	restarted := env.reopen(t)
	if restarted.Session.Token() != env.store.Session.Token() {
		t.Fatal("restarted store did not restore the persisted token")
	}
	if err := restarted.Session.CheckIdentity(ctx); err != nil {
		t.Fatalf("CheckIdentity after restart: %v", err)
	}
	if restarted.Session.Username() != "alice" {
		t.Errorf("username = %q, want alice", restarted.Session.Username())
	}
	if restarted.Session.UserID() == "" {
		t.Error("user id not resolved")
	}
	// First registered account is the stub's admin.
	if !restarted.Session.IsAdmin() {
		t.Error("first registered user should be admin")
	}
}

// TestCheckIdentityRejectedTokenClears verifies a token the service
// rejects is dropped from both state and durable storage.
func TestCheckIdentityRejectedTokenClears(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if err := env.local.SaveToken("forged"); err != nil {
		t.Fatal(err)
	}
	st := env.reopen(t)
	if st.Session.Token() != "forged" {
		t.Fatal("token not restored from storage")
	}

	err := st.Session.CheckIdentity(ctx)
	var de *gateway.DomainError
	if !errors.As(err, &de) {
		t.Fatalf("got %T %v, want DomainError", err, err)
	}
	if st.Session.Token() != "" {
		t.Error("rejected token still in state")
	}
	if _, err := env.local.LoadToken(); !errors.Is(err, localdata.ErrNotFound) {
		t.Errorf("rejected token still in storage: %v", err)
	}
}

// TestLogoutFanOut verifies Logout clears the session and every
// per-session slice while preferences survive.
func TestLogoutFanOut(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, "alice")
	roomID := env.createRoom(t, "notes")
	env.store.Rooms.Select(roomID)

	if err := env.store.Chat.Send(ctx, "hello"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if err := env.store.Models.Fetch(ctx); err != nil {
		t.Fatalf("Fetch models: %v", err)
	}
	if err := env.store.Prefs.SetFontSize(20); err != nil {
		t.Fatalf("SetFontSize: %v", err)
	}
	env.store.Files.SetFileListVisible(true)

	env.store.Logout()

	if env.store.Session.Token() != "" {
		t.Error("token survived logout")
	}
	if _, err := env.local.LoadToken(); !errors.Is(err, localdata.ErrNotFound) {
		t.Error("persisted token survived logout")
	}
	if len(env.store.Rooms.Rooms()) != 0 || env.store.Rooms.SelectedID() != "" {
		t.Error("room state survived logout")
	}
	if len(env.store.Chat.Messages()) != 0 {
		t.Error("messages survived logout")
	}
	catalog := env.store.Models.Catalog()
	if len(catalog.Chat) != 0 || len(catalog.Embedding) != 0 {
		t.Error("model catalog survived logout")
	}
	if env.store.Files.FileListVisible() {
		t.Error("file panel flag survived logout")
	}
	if env.store.Prefs.FontSize() != 20 {
		t.Error("preferences must survive logout")
	}
}

// --- rooms ---

func TestRoomCreateValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, "alice")

	if err := env.store.Rooms.Create(ctx, "  ", "m", "p", "em", "ep"); !errors.Is(err, ErrMissingRoomName) {
		t.Errorf("blank name: got %v, want ErrMissingRoomName", err)
	}
	if err := env.store.Rooms.Create(ctx, "notes", "m", "", "em", "ep"); !errors.Is(err, ErrMissingModels) {
		t.Errorf("missing provider: got %v, want ErrMissingModels", err)
	}
	if len(env.store.Rooms.Rooms()) != 0 {
		t.Error("invalid creates must not reach the server")
	}
}

func TestRoomListingWholesaleReplace(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, "alice")

	first := env.createRoom(t, "first")
	env.createRoom(t, "second")
	if got := len(env.store.Rooms.Rooms()); got != 2 {
		t.Fatalf("room count = %d, want 2", got)
	}

	env.store.Rooms.Select(first)
	if err := env.store.Rooms.Delete(ctx, first); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if got := len(env.store.Rooms.Rooms()); got != 1 {
		t.Errorf("room count after delete = %d, want 1", got)
	}
	if env.store.Rooms.SelectedID() != "" {
		t.Error("selection must clear when the selected room is deleted")
	}
}

func TestDeleteOtherRoomKeepsSelection(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, "alice")

	keep := env.createRoom(t, "keep")
	other := env.createRoom(t, "other")
	env.store.Rooms.Select(keep)

	if err := env.store.Rooms.Delete(ctx, other); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if got := env.store.Rooms.SelectedID(); got != keep {
		t.Errorf("selection = %q, want %q to survive deleting another room", got, keep)
	}
	if _, ok := env.store.Rooms.Room(other); ok {
		t.Error("deleted room still present in the mapping")
	}
}

func TestRoomRenameNoOps(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, "alice")
	id := env.createRoom(t, "notes")

	// Empty and unchanged names are quiet no-ops.
	if err := env.store.Rooms.Rename(ctx, id, "   "); err != nil {
		t.Errorf("blank rename: %v", err)
	}
	if err := env.store.Rooms.Rename(ctx, id, "notes"); err != nil {
		t.Errorf("unchanged rename: %v", err)
	}

	if err := env.store.Rooms.Rename(ctx, id, "journal"); err != nil {
		t.Fatalf("rename: %v", err)
	}
	r, ok := env.store.Rooms.Room(id)
	if !ok || r.Name != "journal" {
		t.Errorf("room after rename = %+v, want journal", r)
	}
}

// --- chat ---

func TestMessageClassification(t *testing.T) {
	if incoming, sender := classify(AssistantID); !incoming || sender != SenderAssistant {
		t.Errorf("assistant id classified as %v/%q", incoming, sender)
	}
	if incoming, sender := classify("3f2c0a82-0000-4000-8000-000000000001"); incoming || sender != SenderUser {
		t.Errorf("user id classified as %v/%q", incoming, sender)
	}
}

func TestSendValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, "alice")

	if err := env.store.Chat.Send(ctx, "   "); !errors.Is(err, ErrEmptyMessage) {
		t.Errorf("blank text: got %v, want ErrEmptyMessage", err)
	}
	if err := env.store.Chat.Send(ctx, "hello"); !errors.Is(err, ErrNoRoomSelected) {
		t.Errorf("no selection: got %v, want ErrNoRoomSelected", err)
	}
}

// TestSendRoundTrip verifies a send lands as a confirmed user message
// followed by an assistant reply, both with server-assigned ids.
func TestSendRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, "alice")
	env.store.Rooms.Select(env.createRoom(t, "notes"))

	if err := env.store.Chat.Send(ctx, "what is in here?"); err != nil {
		t.Fatalf("Send: %v", err)
	}

	messages := env.store.Chat.Messages()
	if len(messages) != 2 {
		t.Fatalf("message count = %d, want user turn plus assistant reply", len(messages))
	}

	userMsg, reply := messages[0], messages[1]
	if userMsg.Incoming || userMsg.Sender != SenderUser || userMsg.State != MessageConfirmed {
		t.Errorf("user message = %+v", userMsg)
	}
	if userMsg.Text != "what is in here?" {
		t.Errorf("user text = %q", userMsg.Text)
	}
	if !reply.Incoming || reply.Sender != SenderAssistant || reply.AuthorID != AssistantID {
		t.Errorf("assistant reply = %+v", reply)
	}
}

// TestSendFailureMarksFailedAndRetry makes a send fail by selecting a
// room the server does not know, then retries it against a real room.
func TestSendFailureMarksFailedAndRetry(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, "alice")
	realRoom := env.createRoom(t, "notes")

	env.store.Rooms.Select("no-such-room")
	if err := env.store.Chat.Send(ctx, "hello"); err == nil {
		t.Fatal("send to unknown room should fail")
	}

	failed := env.store.Chat.FailedMessages()
	if len(failed) != 1 || failed[0].State != MessageFailed || failed[0].Text != "hello" {
		t.Fatalf("failed messages = %+v, want the one failed send", failed)
	}

	env.store.Rooms.Select(realRoom)
	if err := env.store.Chat.Retry(ctx, failed[0].ID); err != nil {
		t.Fatalf("Retry: %v", err)
	}
	if got := env.store.Chat.FailedMessages(); len(got) != 0 {
		t.Errorf("failed messages after retry = %+v, want none", got)
	}

	messages := env.store.Chat.Messages()
	if len(messages) != 2 || messages[0].Text != "hello" || messages[0].State != MessageConfirmed {
		t.Errorf("messages after retry = %+v", messages)
	}
}

func TestRetryUnknownMessage(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "alice")
	env.store.Rooms.Select(env.createRoom(t, "notes"))

	if err := env.store.Chat.Retry(context.Background(), "nope"); !errors.Is(err, ErrUnknownMessage) {
		t.Errorf("got %v, want ErrUnknownMessage", err)
	}
}

func TestModelInfoFromFetch(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, "alice")
	env.store.Rooms.Select(env.createRoom(t, "notes"))

	if err := env.store.Chat.FetchForSelectedRoom(ctx); err != nil {
		t.Fatalf("FetchForSelectedRoom: %v", err)
	}
	chatModel, chatProvider, embedModel, embedProvider := env.store.Chat.ModelInfo()
	if chatModel != "llama3.1" || chatProvider != "ollama" {
		t.Errorf("chat pair = %s/%s", chatProvider, chatModel)
	}
	if embedModel != "nomic-embed-text" || embedProvider != "ollama" {
		t.Errorf("embedding pair = %s/%s", embedProvider, embedModel)
	}
}

// --- files ---

// TestUploadParsesAndGroundsReplies uploads a text document, which the
// stub parses, and verifies the assistant quotes it afterwards.
func TestUploadParsesAndGroundsReplies(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, "alice")
	env.store.Rooms.Select(env.createRoom(t, "notes"))

	path := filepath.Join(t.TempDir(), "plan.txt")
	if err := os.WriteFile(path, []byte("ship the beta on friday"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := env.store.Files.Upload(ctx, path); err != nil {
		t.Fatalf("Upload: %v", err)
	}

	files := env.store.Files.Files()
	if len(files) != 1 || files[0].Name != "plan.txt" {
		t.Fatalf("files = %+v, want plan.txt", files)
	}

	if err := env.store.Chat.Send(ctx, "when do we ship?"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	messages := env.store.Chat.Messages()
	reply := messages[len(messages)-1]
	if !reply.Incoming {
		t.Fatalf("last message not from assistant: %+v", reply)
	}
	if want := "ship the beta on friday"; !strings.Contains(reply.Text, want) {
		t.Errorf("reply %q does not quote the document", reply.Text)
	}
}

func TestFileDeleteRefetches(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, "alice")
	env.store.Rooms.Select(env.createRoom(t, "notes"))

	path := filepath.Join(t.TempDir(), "a.txt")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := env.store.Files.Upload(ctx, path); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	files := env.store.Files.Files()
	if len(files) != 1 {
		t.Fatalf("files = %+v", files)
	}

	if err := env.store.Files.Delete(ctx, files[0].ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if got := env.store.Files.Files(); len(got) != 0 {
		t.Errorf("files after delete = %+v, want none", got)
	}
}

func TestDownloadWritesFile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, "alice")
	env.store.Rooms.Select(env.createRoom(t, "notes"))

	dir := t.TempDir()
	src := filepath.Join(dir, "doc.txt")
	if err := os.WriteFile(src, []byte("round trip"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := env.store.Files.Upload(ctx, src); err != nil {
		t.Fatalf("Upload: %v", err)
	}

	dest := filepath.Join(dir, "copy.txt")
	if err := env.store.Files.Download(ctx, env.store.Files.Files()[0].ID, dest); err != nil {
		t.Fatalf("Download: %v", err)
	}
	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "round trip" {
		t.Errorf("downloaded %q", data)
	}
}

func TestIntegrationLifecycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, "alice")
	env.store.Rooms.Select(env.createRoom(t, "notes"))

	if err := env.store.Files.AddIntegration(ctx, "", nil); !errors.Is(err, ErrMissingIntegrationType) {
		t.Errorf("blank type: got %v, want ErrMissingIntegrationType", err)
	}

	if err := env.store.Files.AddIntegration(ctx, "wiki", map[string]string{"space": "eng"}); err != nil {
		t.Fatalf("AddIntegration: %v", err)
	}
	ins := env.store.Files.Integrations()
	if len(ins) != 1 || ins[0].Type != "wiki" || ins[0].Config["space"] != "eng" {
		t.Fatalf("integrations = %+v", ins)
	}

	if err := env.store.Files.SyncIntegration(ctx, ins[0].ID); err != nil {
		t.Fatalf("SyncIntegration: %v", err)
	}
	if err := env.store.Files.DeleteIntegration(ctx, ins[0].ID); err != nil {
		t.Fatalf("DeleteIntegration: %v", err)
	}
	if got := env.store.Files.Integrations(); len(got) != 0 {
		t.Errorf("integrations after delete = %+v", got)
	}
}

// --- models ---

func TestModelCatalogAddRemove(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, "alice")

	if err := env.store.Models.Fetch(ctx); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	seeded := len(env.store.Models.Catalog().Chat)

	if err := env.store.Models.Add(ctx, "llama3.1", "ollama", gateway.ModelKindChat); !errors.Is(err, ErrDuplicateModel) {
		t.Errorf("duplicate add: got %v, want ErrDuplicateModel", err)
	}
	if err := env.store.Models.Add(ctx, "claude", "", gateway.ModelKindChat); !errors.Is(err, ErrMissingModelFields) {
		t.Errorf("missing provider: got %v, want ErrMissingModelFields", err)
	}
	if err := env.store.Models.Add(ctx, "m", "p", "image"); !errors.Is(err, ErrUnknownModelKind) {
		t.Errorf("bad kind: got %v, want ErrUnknownModelKind", err)
	}

	if err := env.store.Models.Add(ctx, "mistral", "ollama", gateway.ModelKindChat); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if got := len(env.store.Models.Catalog().Chat); got != seeded+1 {
		t.Errorf("chat section = %d entries, want %d", got, seeded+1)
	}

	if err := env.store.Models.Remove(ctx, "nope", "ollama", gateway.ModelKindChat); !errors.Is(err, ErrUnknownModel) {
		t.Errorf("unknown remove: got %v, want ErrUnknownModel", err)
	}
	if err := env.store.Models.Remove(ctx, "mistral", "ollama", gateway.ModelKindChat); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if got := len(env.store.Models.Catalog().Chat); got != seeded {
		t.Errorf("chat section = %d entries after remove, want %d", got, seeded)
	}
}

// --- prefs ---

func TestFontSizeClamped(t *testing.T) {
	env := newTestEnv(t)

	if err := env.store.Prefs.SetFontSize(0); err != nil {
		t.Fatalf("SetFontSize(0): %v", err)
	}
	if got := env.store.Prefs.FontSize(); got != MinFontSize {
		t.Errorf("FontSize = %d, want clamped to %d", got, MinFontSize)
	}
	if err := env.store.Prefs.SetFontSize(-7); err != nil {
		t.Fatalf("SetFontSize(-7): %v", err)
	}
	if got := env.store.Prefs.FontSize(); got != MinFontSize {
		t.Errorf("FontSize = %d, want clamped to %d", got, MinFontSize)
	}
}

// TestPrefsRestoredAcrossRestart verifies preference changes reach durable
// storage immediately and come back on a rebuild.
func TestPrefsRestoredAcrossRestart(t *testing.T) {
	env := newTestEnv(t)

	if env.store.Prefs.FontSize() != DefaultFontSize {
		t.Fatalf("default font size = %d, want %d", env.store.Prefs.FontSize(), DefaultFontSize)
	}
	if err := env.store.Prefs.SetFontSize(19); err != nil {
		t.Fatal(err)
	}
	if err := env.store.Prefs.SetDarkMode(true); err != nil {
		t.Fatal(err)
	}

	restarted := env.reopen(t)
	if restarted.Prefs.FontSize() != 19 {
		t.Errorf("restored font size = %d, want 19", restarted.Prefs.FontSize())
	}
	if !restarted.Prefs.DarkMode() {
		t.Error("dark mode not restored")
	}
}

// --- bootstrap ---

func TestBootstrapLoadsRoomsAndModels(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "alice")
	env.createRoom(t, "notes")

	restarted := env.reopen(t)
	if err := restarted.Bootstrap(context.Background()); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	if len(restarted.Rooms.Rooms()) != 1 {
		t.Error("rooms not loaded by bootstrap")
	}
	if len(restarted.Models.Catalog().Chat) == 0 {
		t.Error("models not loaded by bootstrap")
	}
	if restarted.Session.UserID() == "" {
		t.Error("identity not resolved by bootstrap")
	}
}

func TestBootstrapWithoutToken(t *testing.T) {
	env := newTestEnv(t)
	if err := env.store.Bootstrap(context.Background()); !errors.Is(err, ErrNotLoggedIn) {
		t.Errorf("got %v, want ErrNotLoggedIn", err)
	}
}

// --- stale fetch discard ---

// newRacingStore builds a store over a hand-rolled backend that can hold
// requests in flight, with a persisted token so slice guards pass.
func newRacingStore(t *testing.T, handler http.Handler) *Store {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	local, err := localdata.Open(":memory:")
	if err != nil {
		t.Fatalf("opening local storage: %v", err)
	}
	t.Cleanup(func() { local.Close() })
	if err := local.SaveToken("tok"); err != nil {
		t.Fatalf("saving token: %v", err)
	}

	st, err := New(Gateways{
		Auth: gateway.NewAuthClient(srv.URL, nil),
		Chat: gateway.NewChatClient(srv.URL, nil),
		File: gateway.NewFileClient(srv.URL, nil),
		AI:   gateway.NewAIClient(srv.URL, nil),
	}, local)
	if err != nil {
		t.Fatalf("building store: %v", err)
	}
	return st
}

func roomEnvelope(text string) string {
	return fmt.Sprintf(`{"error":false,"status":"ok","content":{"messages":[{"message_uuid":"m1","user_uuid":"u1","username":"alice","message":%q,"timestamp":"2026-01-02T03:04:05Z"}],"chat_model":"llama3.1","chat_provider":"ollama","embedding_model":"nomic-embed-text","embedding_provider":"ollama"}}`, text)
}

// TestChatStaleFetchDiscarded holds a first fetch in flight while a second
// one completes, then verifies the late response does not overwrite the
// newer message list.
func TestChatStaleFetchDiscarded(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int32

	st := newRacingStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			close(started)
			<-release
			fmt.Fprint(w, roomEnvelope("old news"))
			return
		}
		fmt.Fprint(w, roomEnvelope("fresh"))
	}))
	st.Rooms.Select("room-1")
	ctx := context.Background()

	done := make(chan error, 1)
	go func() { done <- st.Chat.FetchForSelectedRoom(ctx) }()
	<-started

	if err := st.Chat.FetchForSelectedRoom(ctx); err != nil {
		t.Fatalf("second fetch: %v", err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("superseded fetch: %v", err)
	}

	msgs := st.Chat.Messages()
	if len(msgs) != 1 || msgs[0].Text != "fresh" {
		t.Fatalf("messages = %+v, want only the newer fetch's message", msgs)
	}
}

// TestChatStaleFetchFailureDiscarded verifies a superseded fetch's failure
// does not clobber the error state recorded by a newer, successful fetch.
func TestChatStaleFetchFailureDiscarded(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int32

	st := newRacingStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			close(started)
			<-release
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, roomEnvelope("fresh"))
	}))
	st.Rooms.Select("room-1")
	ctx := context.Background()

	done := make(chan error, 1)
	go func() { done <- st.Chat.FetchForSelectedRoom(ctx) }()
	<-started

	if err := st.Chat.FetchForSelectedRoom(ctx); err != nil {
		t.Fatalf("second fetch: %v", err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("superseded failure must be discarded, got %v", err)
	}

	if got := st.Chat.Err(); got != "" {
		t.Errorf("slice error = %q, want empty after the newer fetch succeeded", got)
	}
	if msgs := st.Chat.Messages(); len(msgs) != 1 || msgs[0].Text != "fresh" {
		t.Errorf("messages = %+v, want the newer fetch's message", msgs)
	}
}

func TestFileStaleFetchDiscarded(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int32

	filesEnvelope := func(name string) string {
		return fmt.Sprintf(`{"error":false,"status":"ok","content":[{"file_uuid":"f1","file_name":%q,"file_size":3}]}`, name)
	}
	st := newRacingStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/files":
			if calls.Add(1) == 1 {
				close(started)
				<-release
				fmt.Fprint(w, filesEnvelope("stale.txt"))
				return
			}
			fmt.Fprint(w, filesEnvelope("fresh.txt"))
		case "/integrations":
			fmt.Fprint(w, `{"error":false,"status":"ok","content":[]}`)
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	}))
	st.Rooms.Select("room-1")
	ctx := context.Background()

	done := make(chan error, 1)
	go func() { done <- st.Files.FetchForSelectedRoom(ctx) }()
	<-started

	if err := st.Files.FetchForSelectedRoom(ctx); err != nil {
		t.Fatalf("second fetch: %v", err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("superseded fetch: %v", err)
	}

	files := st.Files.Files()
	if len(files) != 1 || files[0].Name != "fresh.txt" {
		t.Fatalf("files = %+v, want only the newer fetch's listing", files)
	}
}
