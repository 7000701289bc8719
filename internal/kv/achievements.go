package kv

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/capsule-api/internal/domain"
)

// AchievementStates reads and writes per-user gamification state under
// `achievements:<userId>`.
type AchievementStates struct {
	store Store
}

func NewAchievementStates(store Store) *AchievementStates {
	return &AchievementStates{store: store}
}

// Get returns the user's achievement state, zero-valued when absent.
func (s *AchievementStates) Get(ctx context.Context, userID string) (*domain.AchievementState, error) {
	b, err := s.store.Get(ctx, AchievementsKey(userID))
	if err != nil {
		if err == ErrNotFound {
			return &domain.AchievementState{UserID: userID}, nil
		}
		return nil, err
	}
	var st domain.AchievementState
	if err := json.Unmarshal(b, &st); err != nil {
		return nil, fmt.Errorf("unmarshal achievements %s: %w", userID, err)
	}
	return &st, nil
}

func (s *AchievementStates) Put(ctx context.Context, st *domain.AchievementState) error {
	b, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshal achievements %s: %w", st.UserID, err)
	}
	return s.store.Set(ctx, AchievementsKey(st.UserID), b)
}
