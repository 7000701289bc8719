package achievement

import (
	"context"
	"errors"
	"testing"

	"github.com/capsule-api/internal/domain"
	"github.com/capsule-api/internal/kv"
	"github.com/capsule-api/internal/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockNotifier struct{ mock.Mock }

func (m *mockNotifier) NotifyAchievement(ctx context.Context, userID string, def domain.AchievementDef) error {
	return m.Called(ctx, userID, def).Error(0)
}

func newTestService(t *testing.T) (Service, *mockNotifier) {
	t.Helper()
	n := &mockNotifier{}
	states := kv.NewAchievementStates(kv.NewMemory())
	return NewService(states, n, metrics.New()), n
}

func defByID(t *testing.T, id string) domain.AchievementDef {
	t.Helper()
	for _, def := range Definitions {
		if def.ID == id {
			return def
		}
	}
	t.Fatalf("unknown achievement %s", id)
	return domain.AchievementDef{}
}

func TestCheckAndUnlock_FirstCapsuleUnlocks(t *testing.T) {
	svc, n := newTestService(t)
	n.On("NotifyAchievement", mock.Anything, "u1", defByID(t, "first_capsule")).Return(nil)

	err := svc.CheckAndUnlock(context.Background(), "u1", domain.EventCapsuleCreated, domain.AchievementEvent{CapsuleID: "c1"})

	require.NoError(t, err)
	n.AssertExpectations(t)

	st, _, err := svc.List(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, st.Counters[domain.EventCapsuleCreated])
	assert.Contains(t, st.Unlocked, "first_capsule")
	assert.NotContains(t, st.Unlocked, "five_capsules")
}

func TestCheckAndUnlock_UnlocksOnlyOnce(t *testing.T) {
	svc, n := newTestService(t)
	n.On("NotifyAchievement", mock.Anything, "u1", defByID(t, "first_capsule")).Return(nil).Once()

	ctx := context.Background()
	require.NoError(t, svc.CheckAndUnlock(ctx, "u1", domain.EventCapsuleCreated, domain.AchievementEvent{}))
	require.NoError(t, svc.CheckAndUnlock(ctx, "u1", domain.EventCapsuleCreated, domain.AchievementEvent{}))

	n.AssertExpectations(t)
	st, _, err := svc.List(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, st.Counters[domain.EventCapsuleCreated])
}

func TestCheckAndUnlock_ThresholdFive(t *testing.T) {
	svc, n := newTestService(t)
	n.On("NotifyAchievement", mock.Anything, "u1", mock.Anything).Return(nil)

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		require.NoError(t, svc.CheckAndUnlock(ctx, "u1", domain.EventCapsuleReceived, domain.AchievementEvent{}))
	}

	st, _, err := svc.List(ctx, "u1")
	require.NoError(t, err)
	assert.Contains(t, st.Unlocked, "first_received")
	assert.Contains(t, st.Unlocked, "five_received")
	assert.NotContains(t, st.Unlocked, "ten_received")
}

func TestCheckAndUnlock_EventsAreIndependent(t *testing.T) {
	svc, n := newTestService(t)
	n.On("NotifyAchievement", mock.Anything, "u1", defByID(t, "first_capsule")).Return(nil)

	ctx := context.Background()
	require.NoError(t, svc.CheckAndUnlock(ctx, "u1", domain.EventCapsuleCreated, domain.AchievementEvent{}))

	st, _, err := svc.List(ctx, "u1")
	require.NoError(t, err)
	assert.NotContains(t, st.Unlocked, "first_received")
}

func TestCheckAndUnlock_NotificationFailureIsSwallowed(t *testing.T) {
	svc, n := newTestService(t)
	n.On("NotifyAchievement", mock.Anything, "u1", mock.Anything).Return(errors.New("feed down"))

	err := svc.CheckAndUnlock(context.Background(), "u1", domain.EventCapsuleCreated, domain.AchievementEvent{})

	require.NoError(t, err)
	// The unlock itself persisted despite the notification failure.
	st, _, err := svc.List(context.Background(), "u1")
	require.NoError(t, err)
	assert.Contains(t, st.Unlocked, "first_capsule")
}
