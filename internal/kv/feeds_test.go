package kv

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/capsule-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeedStore_EmptyFeed(t *testing.T) {
	s := NewFeedStore(NewMemory())
	feed, err := s.List(context.Background(), "u1")
	require.NoError(t, err)
	assert.Empty(t, feed)
}

func TestFeedStore_PrependNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := NewFeedStore(NewMemory())

	require.NoError(t, s.Prepend(ctx, "u1", domain.Notification{NotificationID: "n1"}))
	require.NoError(t, s.Prepend(ctx, "u1", domain.Notification{NotificationID: "n2"}))

	feed, err := s.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, feed, 2)
	assert.Equal(t, "n2", feed[0].NotificationID)
	assert.Equal(t, "n1", feed[1].NotificationID)
}

func TestFeedStore_CapsAtFeedCap(t *testing.T) {
	ctx := context.Background()
	s := NewFeedStore(NewMemory())

	for i := 0; i < domain.FeedCap+1; i++ {
		n := domain.Notification{NotificationID: fmt.Sprintf("n%d", i)}
		require.NoError(t, s.Prepend(ctx, "u1", n))
	}

	feed, err := s.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, feed, domain.FeedCap)
	// The newest entry survives, the oldest fell off the tail.
	assert.Equal(t, fmt.Sprintf("n%d", domain.FeedCap), feed[0].NotificationID)
	assert.Equal(t, "n1", feed[len(feed)-1].NotificationID)
}

func TestFeedStore_MarkRead(t *testing.T) {
	ctx := context.Background()
	s := NewFeedStore(NewMemory())
	require.NoError(t, s.Prepend(ctx, "u1", domain.Notification{NotificationID: "n1"}))
	require.NoError(t, s.Prepend(ctx, "u1", domain.Notification{NotificationID: "n2"}))

	n, err := s.MarkRead(ctx, "u1", "n1")
	require.NoError(t, err)
	assert.True(t, n.Read)

	feed, err := s.List(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, feed[0].Read)
	assert.True(t, feed[1].Read)
}

func TestFeedStore_MarkReadUnknownID(t *testing.T) {
	s := NewFeedStore(NewMemory())
	_, err := s.MarkRead(context.Background(), "u1", "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestFeedStore_MarkAllRead(t *testing.T) {
	ctx := context.Background()
	s := NewFeedStore(NewMemory())
	require.NoError(t, s.Prepend(ctx, "u1", domain.Notification{NotificationID: "n1"}))
	require.NoError(t, s.Prepend(ctx, "u1", domain.Notification{NotificationID: "n2"}))

	require.NoError(t, s.MarkAllRead(ctx, "u1"))

	feed, err := s.List(ctx, "u1")
	require.NoError(t, err)
	for _, n := range feed {
		assert.True(t, n.Read)
	}
}
