package kv

import (
	"context"
	"encoding/json"
	"fmt"
)

// ReceivedList is the per-user index of received capsule ids, stored under
// `user_received:<userId>`. Membership is guaranteed unique via a linear scan
// before append; list sizes are expected to stay small-to-moderate.
type ReceivedList struct {
	store Store
}

func NewReceivedList(store Store) *ReceivedList {
	return &ReceivedList{store: store}
}

func (s *ReceivedList) Get(ctx context.Context, userID string) ([]string, error) {
	b, err := s.store.Get(ctx, ReceivedKey(userID))
	if err != nil {
		if err == ErrNotFound {
			return nil, nil
		}
		return nil, err
	}
	var ids []string
	if err := json.Unmarshal(b, &ids); err != nil {
		return nil, fmt.Errorf("unmarshal received list %s: %w", userID, err)
	}
	return ids, nil
}

// Append adds a capsule id to the user's received list. Returns false when
// the id was already present (idempotent no-op, nothing written).
func (s *ReceivedList) Append(ctx context.Context, userID, capsuleID string) (bool, error) {
	ids, err := s.Get(ctx, userID)
	if err != nil {
		return false, err
	}
	for _, id := range ids {
		if id == capsuleID {
			return false, nil
		}
	}
	b, err := json.Marshal(append(ids, capsuleID))
	if err != nil {
		return false, err
	}
	if err := s.store.Set(ctx, ReceivedKey(userID), b); err != nil {
		return false, err
	}
	return true, nil
}
