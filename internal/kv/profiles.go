package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/capsule-api/internal/domain"
)

// Profiles reads and writes profile documents under `profile:<userId>`.
type Profiles struct {
	store Store
}

func NewProfiles(store Store) *Profiles {
	return &Profiles{store: store}
}

func (s *Profiles) Get(ctx context.Context, userID string) (*domain.Profile, error) {
	b, err := s.store.Get(ctx, ProfileKey(userID))
	if err != nil {
		if err == ErrNotFound {
			return nil, fmt.Errorf("profile %s: %w", userID, domain.ErrNotFound)
		}
		return nil, err
	}
	var p domain.Profile
	if err := json.Unmarshal(b, &p); err != nil {
		return nil, fmt.Errorf("unmarshal profile %s: %w", userID, err)
	}
	return &p, nil
}

func (s *Profiles) Put(ctx context.Context, p *domain.Profile) error {
	b, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal profile %s: %w", p.UserID, err)
	}
	return s.store.Set(ctx, ProfileKey(p.UserID), b)
}

func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound) || errors.Is(err, ErrNotFound)
}
