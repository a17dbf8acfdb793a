// Package store is the client-side domain-state container. Each slice
// exclusively owns one entity collection (session, chatrooms, messages,
// files, model catalog, preferences) and exposes actions that call the
// gateway and commit a new snapshot. Actions record failures as a
// slice-local error string in addition to returning them; nothing in this
// package retries automatically.
package store

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/infogrep/infogrep-cli/internal/gateway"
	"github.com/infogrep/infogrep-cli/internal/localdata"
)

// Gateways bundles the service clients the slices dispatch against.
type Gateways struct {
	Auth *gateway.AuthClient
	Chat *gateway.ChatClient
	File *gateway.FileClient
	AI   *gateway.AIClient
}

// Store composes the slices. The root owns the cross-slice reaction to a
// session ending: Logout clears the session and fans a reset out to every
// slice holding per-session data. Preferences survive logout.
type Store struct {
	Session *SessionSlice
	Rooms   *RoomSlice
	Chat    *ChatSlice
	Files   *FileSlice
	Models  *ModelSlice
	Prefs   *PrefsSlice
}

// New builds a store over the given gateways and local storage. The
// persisted session token (if any, and unexpired) and preferences are
// loaded immediately so a restart restores prior state.
func New(gw Gateways, local *localdata.Store) (*Store, error) {
	session := newSessionSlice(gw.Auth, local)
	rooms := newRoomSlice(gw.Chat, session)
	chat := newChatSlice(gw.Chat, session, rooms)
	files := newFileSlice(gw.File, gw.AI, session, rooms)
	models := newModelSlice(gw.AI, session)

	prefs, err := newPrefsSlice(local)
	if err != nil {
		return nil, err
	}

	s := &Store{
		Session: session,
		Rooms:   rooms,
		Chat:    chat,
		Files:   files,
		Models:  models,
		Prefs:   prefs,
	}
	return s, nil
}

// Logout ends the session synchronously: no network round trip, token
// cleared from state and storage, and every per-session slice reset.
func (s *Store) Logout() {
	s.Session.logout()
	s.Rooms.sessionEnded()
	s.Chat.sessionEnded()
	s.Files.sessionEnded()
	s.Models.sessionEnded()
}

// Bootstrap resolves the identity behind the held token and then loads the
// room listing and model catalog concurrently. Typically called once at
// startup after New.
func (s *Store) Bootstrap(ctx context.Context) error {
	if err := s.Session.CheckIdentity(ctx); err != nil {
		return err
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.Rooms.FetchAll(gCtx) })
	g.Go(func() error { return s.Models.Fetch(gCtx) })
	return g.Wait()
}

// errState is the slice-local error string shared by all slices.
type errState struct {
	mu  sync.Mutex
	err string
}

func (e *errState) record(err error) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err != nil {
		e.err = err.Error()
	} else {
		e.err = ""
	}
	return err
}

// Err returns the last recorded error string, empty when the last action
// succeeded.
func (e *errState) Err() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.err
}
