package kv

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/capsule-api/internal/domain"
)

// MediaIndex reads and writes media metadata records under `media:<id>`.
type MediaIndex struct {
	store Store
}

func NewMediaIndex(store Store) *MediaIndex {
	return &MediaIndex{store: store}
}

func (s *MediaIndex) Get(ctx context.Context, mediaID string) (*domain.MediaFile, error) {
	b, err := s.store.Get(ctx, MediaKey(mediaID))
	if err != nil {
		if err == ErrNotFound {
			return nil, fmt.Errorf("media %s: %w", mediaID, domain.ErrNotFound)
		}
		return nil, err
	}
	var m domain.MediaFile
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("unmarshal media %s: %w", mediaID, err)
	}
	return &m, nil
}

func (s *MediaIndex) Put(ctx context.Context, m *domain.MediaFile) error {
	b, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal media %s: %w", m.MediaID, err)
	}
	return s.store.Set(ctx, MediaKey(m.MediaID), b)
}
