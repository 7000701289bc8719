package kv

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/capsule-api/internal/domain"
)

// FeedStore is the per-user notification feed, stored under
// `notifications:<userId>`, newest-first, capped at domain.FeedCap entries.
type FeedStore struct {
	store Store
}

func NewFeedStore(store Store) *FeedStore {
	return &FeedStore{store: store}
}

func (s *FeedStore) List(ctx context.Context, userID string) ([]domain.Notification, error) {
	b, err := s.store.Get(ctx, NotificationsKey(userID))
	if err != nil {
		if err == ErrNotFound {
			return nil, nil
		}
		return nil, err
	}
	var feed []domain.Notification
	if err := json.Unmarshal(b, &feed); err != nil {
		return nil, fmt.Errorf("unmarshal feed %s: %w", userID, err)
	}
	return feed, nil
}

// Prepend inserts a notification at the head of the feed and truncates the
// feed to domain.FeedCap entries.
func (s *FeedStore) Prepend(ctx context.Context, userID string, n domain.Notification) error {
	feed, err := s.List(ctx, userID)
	if err != nil {
		return err
	}
	feed = append([]domain.Notification{n}, feed...)
	if len(feed) > domain.FeedCap {
		feed = feed[:domain.FeedCap]
	}
	return s.write(ctx, userID, feed)
}

// MarkRead sets the read flag on one notification. Returns the updated entry.
func (s *FeedStore) MarkRead(ctx context.Context, userID, notificationID string) (*domain.Notification, error) {
	feed, err := s.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range feed {
		if feed[i].NotificationID == notificationID {
			feed[i].Read = true
			if err := s.write(ctx, userID, feed); err != nil {
				return nil, err
			}
			return &feed[i], nil
		}
	}
	return nil, fmt.Errorf("notification %s: %w", notificationID, domain.ErrNotFound)
}

// MarkAllRead sets the read flag on every notification in the feed.
func (s *FeedStore) MarkAllRead(ctx context.Context, userID string) error {
	feed, err := s.List(ctx, userID)
	if err != nil {
		return err
	}
	changed := false
	for i := range feed {
		if !feed[i].Read {
			feed[i].Read = true
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return s.write(ctx, userID, feed)
}

func (s *FeedStore) write(ctx context.Context, userID string, feed []domain.Notification) error {
	b, err := json.Marshal(feed)
	if err != nil {
		return err
	}
	return s.store.Set(ctx, NotificationsKey(userID), b)
}
