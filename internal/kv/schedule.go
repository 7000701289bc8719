package kv

import (
	"context"
	"encoding/json"
	"fmt"
)

// ScheduleIndex is the global ordered list of capsule ids awaiting delivery,
// stored as a single document under ScheduledIndexKey. A capsule id appears
// at most once; delivered capsules are removed best-effort.
type ScheduleIndex struct {
	store Store
}

func NewScheduleIndex(store Store) *ScheduleIndex {
	return &ScheduleIndex{store: store}
}

func (s *ScheduleIndex) IDs(ctx context.Context) ([]string, error) {
	b, err := s.store.Get(ctx, ScheduledIndexKey)
	if err != nil {
		if err == ErrNotFound {
			return nil, nil
		}
		return nil, err
	}
	var ids []string
	if err := json.Unmarshal(b, &ids); err != nil {
		return nil, fmt.Errorf("unmarshal scheduled index: %w", err)
	}
	return ids, nil
}

// Add appends a capsule id to the index if not already present.
func (s *ScheduleIndex) Add(ctx context.Context, capsuleID string) error {
	ids, err := s.IDs(ctx)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if id == capsuleID {
			return nil
		}
	}
	return s.write(ctx, append(ids, capsuleID))
}

// Remove filters a capsule id out of the index. Removing an absent id is a
// no-op, not an error.
func (s *ScheduleIndex) Remove(ctx context.Context, capsuleID string) error {
	ids, err := s.IDs(ctx)
	if err != nil {
		return err
	}
	filtered := ids[:0]
	found := false
	for _, id := range ids {
		if id == capsuleID {
			found = true
			continue
		}
		filtered = append(filtered, id)
	}
	if !found {
		return nil
	}
	return s.write(ctx, filtered)
}

func (s *ScheduleIndex) write(ctx context.Context, ids []string) error {
	b, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	return s.store.Set(ctx, ScheduledIndexKey, b)
}
