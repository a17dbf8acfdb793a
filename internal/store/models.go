package store

import (
	"context"
	"errors"
	"sync"

	"github.com/infogrep/infogrep-cli/internal/gateway"
)

var (
	ErrMissingModelFields = errors.New("model, provider, and kind are required")
	ErrDuplicateModel     = errors.New("model already in the catalog")
	ErrUnknownModel       = errors.New("model not in the catalog")
	ErrUnknownModelKind   = errors.New("kind must be chat or embedding")
)

// ModelSlice holds the AI service's model catalog: every selectable
// (model, provider) pair, tagged chat or embedding. Admin add/remove
// actions PUT the whole corrected list back; the catalog is then
// refetched to converge.
type ModelSlice struct {
	errState

	ai      *gateway.AIClient
	session *SessionSlice

	mu      sync.RWMutex
	catalog gateway.ModelCatalog
}

func newModelSlice(ai *gateway.AIClient, session *SessionSlice) *ModelSlice {
	return &ModelSlice{ai: ai, session: session}
}

// Catalog returns the catalog as of the last fetch.
func (s *ModelSlice) Catalog() gateway.ModelCatalog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return gateway.ModelCatalog{
		Chat:      append([]gateway.ModelInfo(nil), s.catalog.Chat...),
		Embedding: append([]gateway.ModelInfo(nil), s.catalog.Embedding...),
	}
}

// Fetch replaces the catalog with the AI service's listing.
func (s *ModelSlice) Fetch(ctx context.Context) error {
	token := s.session.Token()
	if token == "" {
		return s.record(ErrNotLoggedIn)
	}

	catalog, err := s.ai.ListModels(ctx, token)
	if err != nil {
		return s.record(err)
	}

	s.mu.Lock()
	s.catalog = catalog
	s.mu.Unlock()
	return s.record(nil)
}

// Add appends a (model, provider, kind) entry and sends the corrected
// whole list back. Rejects duplicates by the (model, provider, kind)
// tuple before any network call.
func (s *ModelSlice) Add(ctx context.Context, model, provider, kind string) error {
	if model == "" || provider == "" || kind == "" {
		return s.record(ErrMissingModelFields)
	}

	next := s.Catalog()
	section, err := sectionFor(&next, kind)
	if err != nil {
		return s.record(err)
	}
	for _, m := range *section {
		if m.Model == model && m.Provider == provider {
			return s.record(ErrDuplicateModel)
		}
	}
	*section = append(*section, gateway.ModelInfo{Model: model, Provider: provider, Kind: kind})

	return s.replace(ctx, next)
}

// Remove drops a (model, provider, kind) entry and sends the corrected
// whole list back.
func (s *ModelSlice) Remove(ctx context.Context, model, provider, kind string) error {
	next := s.Catalog()
	section, err := sectionFor(&next, kind)
	if err != nil {
		return s.record(err)
	}

	kept := (*section)[:0]
	found := false
	for _, m := range *section {
		if m.Model == model && m.Provider == provider {
			found = true
			continue
		}
		kept = append(kept, m)
	}
	if !found {
		return s.record(ErrUnknownModel)
	}
	*section = kept

	return s.replace(ctx, next)
}

func (s *ModelSlice) replace(ctx context.Context, catalog gateway.ModelCatalog) error {
	token := s.session.Token()
	if token == "" {
		return s.record(ErrNotLoggedIn)
	}
	if err := s.ai.ReplaceModels(ctx, token, catalog); err != nil {
		return s.record(err)
	}
	return s.Fetch(ctx)
}

// SetProvider stores credential settings for a provider on the AI service.
func (s *ModelSlice) SetProvider(ctx context.Context, provider string, settings map[string]string) error {
	if provider == "" {
		return s.record(errors.New("provider name is required"))
	}
	token := s.session.Token()
	if token == "" {
		return s.record(ErrNotLoggedIn)
	}
	return s.record(s.ai.SetProvider(ctx, token, provider, settings))
}

func sectionFor(catalog *gateway.ModelCatalog, kind string) (*[]gateway.ModelInfo, error) {
	switch kind {
	case gateway.ModelKindChat:
		return &catalog.Chat, nil
	case gateway.ModelKindEmbedding:
		return &catalog.Embedding, nil
	default:
		return nil, ErrUnknownModelKind
	}
}

func (s *ModelSlice) sessionEnded() {
	s.mu.Lock()
	s.catalog = gateway.ModelCatalog{}
	s.mu.Unlock()
	s.record(nil)
}
