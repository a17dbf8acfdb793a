package store

import (
	"errors"
	"sync"

	"github.com/infogrep/infogrep-cli/internal/localdata"
)

// Preference defaults applied when nothing is persisted yet.
const (
	DefaultFontSize = 14
	MinFontSize     = 1
)

// PrefsSlice holds display preferences. Every change is synchronous and
// immediately mirrored to durable local storage so a restart restores it.
// Preferences are never server-synced and survive logout.
type PrefsSlice struct {
	errState

	local *localdata.Store

	mu       sync.RWMutex
	fontSize int
	darkMode bool
}

func newPrefsSlice(local *localdata.Store) (*PrefsSlice, error) {
	s := &PrefsSlice{
		local:    local,
		fontSize: DefaultFontSize,
	}

	size, err := local.LoadFontSize()
	switch {
	case err == nil:
		s.fontSize = clampFontSize(size)
	case !errors.Is(err, localdata.ErrNotFound):
		return nil, err
	}

	dark, err := local.LoadDarkMode()
	switch {
	case err == nil:
		s.darkMode = dark
	case !errors.Is(err, localdata.ErrNotFound):
		return nil, err
	}

	return s, nil
}

func (s *PrefsSlice) FontSize() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fontSize
}

func (s *PrefsSlice) DarkMode() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.darkMode
}

// SetFontSize stores the size, clamped to MinFontSize. Clamping rather
// than rejecting keeps the action infallible from the caller's point of
// view, matching the other synchronous preference updates.
func (s *PrefsSlice) SetFontSize(size int) error {
	size = clampFontSize(size)
	if err := s.local.SaveFontSize(size); err != nil {
		return s.record(err)
	}
	s.mu.Lock()
	s.fontSize = size
	s.mu.Unlock()
	return s.record(nil)
}

func (s *PrefsSlice) SetDarkMode(enabled bool) error {
	if err := s.local.SaveDarkMode(enabled); err != nil {
		return s.record(err)
	}
	s.mu.Lock()
	s.darkMode = enabled
	s.mu.Unlock()
	return s.record(nil)
}

func clampFontSize(size int) int {
	if size < MinFontSize {
		return MinFontSize
	}
	return size
}
