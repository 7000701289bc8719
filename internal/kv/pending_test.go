package kv

import (
	"context"
	"errors"
	"testing"

	"github.com/capsule-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPendingClaims_AddAccumulates(t *testing.T) {
	ctx := context.Background()
	s := NewPendingClaims(NewMemory())

	require.NoError(t, s.Add(ctx, "ghost@example.com", "c1"))
	require.NoError(t, s.Add(ctx, "ghost@example.com", "c2"))

	pc, err := s.Get(ctx, "ghost@example.com")
	require.NoError(t, err)
	assert.Equal(t, []string{"c1", "c2"}, pc.CapsuleIDs)
	assert.False(t, pc.UpdatedAt.IsZero())
}

func TestPendingClaims_AddIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := NewPendingClaims(NewMemory())

	require.NoError(t, s.Add(ctx, "ghost@example.com", "c1"))
	require.NoError(t, s.Add(ctx, "ghost@example.com", "c1"))

	pc, err := s.Get(ctx, "ghost@example.com")
	require.NoError(t, err)
	assert.Equal(t, []string{"c1"}, pc.CapsuleIDs)
}

func TestPendingClaims_GetMissing(t *testing.T) {
	s := NewPendingClaims(NewMemory())
	_, err := s.Get(context.Background(), "nobody@example.com")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestPendingClaims_Delete(t *testing.T) {
	ctx := context.Background()
	s := NewPendingClaims(NewMemory())
	require.NoError(t, s.Add(ctx, "ghost@example.com", "c1"))

	require.NoError(t, s.Delete(ctx, "ghost@example.com"))

	_, err := s.Get(ctx, "ghost@example.com")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}
