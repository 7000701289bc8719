package kv

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/capsule-api/internal/domain"
)

// CapsuleStore reads and writes capsule documents under `capsule:<id>`.
type CapsuleStore struct {
	store Store
}

func NewCapsuleStore(store Store) *CapsuleStore {
	return &CapsuleStore{store: store}
}

func (s *CapsuleStore) Get(ctx context.Context, capsuleID string) (*domain.Capsule, error) {
	b, err := s.store.Get(ctx, CapsuleKey(capsuleID))
	if err != nil {
		if err == ErrNotFound {
			return nil, fmt.Errorf("capsule %s: %w", capsuleID, domain.ErrNotFound)
		}
		return nil, err
	}
	var c domain.Capsule
	if err := json.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("unmarshal capsule %s: %w", capsuleID, err)
	}
	return &c, nil
}

func (s *CapsuleStore) Put(ctx context.Context, c *domain.Capsule) error {
	b, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal capsule %s: %w", c.CapsuleID, err)
	}
	return s.store.Set(ctx, CapsuleKey(c.CapsuleID), b)
}

// MGet loads the capsules for the given ids. Missing ids are skipped.
func (s *CapsuleStore) MGet(ctx context.Context, capsuleIDs []string) ([]domain.Capsule, error) {
	keys := make([]string, len(capsuleIDs))
	for i, id := range capsuleIDs {
		keys[i] = CapsuleKey(id)
	}
	docs, err := s.store.MGet(ctx, keys)
	if err != nil {
		return nil, err
	}
	capsules := make([]domain.Capsule, 0, len(docs))
	for _, b := range docs {
		var c domain.Capsule
		if err := json.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("unmarshal capsule: %w", err)
		}
		capsules = append(capsules, c)
	}
	return capsules, nil
}

// ScanAll returns every capsule document. Used for sent-box listings; list
// sizes are expected to stay small-to-moderate.
func (s *CapsuleStore) ScanAll(ctx context.Context) ([]domain.Capsule, error) {
	docs, err := s.store.GetByPrefix(ctx, CapsulePrefix())
	if err != nil {
		return nil, err
	}
	capsules := make([]domain.Capsule, 0, len(docs))
	for _, b := range docs {
		var c domain.Capsule
		if err := json.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("unmarshal capsule: %w", err)
		}
		capsules = append(capsules, c)
	}
	return capsules, nil
}

// MediaIDs returns the media-id list attached to a capsule, empty when absent.
func (s *CapsuleStore) MediaIDs(ctx context.Context, capsuleID string) ([]string, error) {
	b, err := s.store.Get(ctx, CapsuleMediaKey(capsuleID))
	if err != nil {
		if err == ErrNotFound {
			return nil, nil
		}
		return nil, err
	}
	var ids []string
	if err := json.Unmarshal(b, &ids); err != nil {
		return nil, fmt.Errorf("unmarshal capsule media %s: %w", capsuleID, err)
	}
	return ids, nil
}

// AppendMediaID adds a media id to a capsule's media list, idempotently.
func (s *CapsuleStore) AppendMediaID(ctx context.Context, capsuleID, mediaID string) error {
	ids, err := s.MediaIDs(ctx, capsuleID)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if id == mediaID {
			return nil
		}
	}
	b, err := json.Marshal(append(ids, mediaID))
	if err != nil {
		return err
	}
	return s.store.Set(ctx, CapsuleMediaKey(capsuleID), b)
}
