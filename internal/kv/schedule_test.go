package kv

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduleIndex_AddDedupes(t *testing.T) {
	ctx := context.Background()
	s := NewScheduleIndex(NewMemory())

	require.NoError(t, s.Add(ctx, "c1"))
	require.NoError(t, s.Add(ctx, "c2"))
	require.NoError(t, s.Add(ctx, "c1"))

	ids, err := s.IDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"c1", "c2"}, ids)
}

func TestScheduleIndex_Remove(t *testing.T) {
	ctx := context.Background()
	s := NewScheduleIndex(NewMemory())
	require.NoError(t, s.Add(ctx, "c1"))
	require.NoError(t, s.Add(ctx, "c2"))

	require.NoError(t, s.Remove(ctx, "c1"))

	ids, err := s.IDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"c2"}, ids)
}

func TestScheduleIndex_RemoveAbsentIsNoop(t *testing.T) {
	ctx := context.Background()
	s := NewScheduleIndex(NewMemory())
	require.NoError(t, s.Add(ctx, "c1"))

	require.NoError(t, s.Remove(ctx, "never-added"))

	ids, err := s.IDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"c1"}, ids)
}
