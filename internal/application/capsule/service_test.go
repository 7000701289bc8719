package capsule

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/capsule-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockCapsuleStore struct{ mock.Mock }

func (m *mockCapsuleStore) Get(ctx context.Context, capsuleID string) (*domain.Capsule, error) {
	args := m.Called(ctx, capsuleID)
	if c, _ := args.Get(0).(*domain.Capsule); c != nil {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockCapsuleStore) Put(ctx context.Context, c *domain.Capsule) error {
	return m.Called(ctx, c).Error(0)
}
func (m *mockCapsuleStore) MGet(ctx context.Context, capsuleIDs []string) ([]domain.Capsule, error) {
	args := m.Called(ctx, capsuleIDs)
	cs, _ := args.Get(0).([]domain.Capsule)
	return cs, args.Error(1)
}
func (m *mockCapsuleStore) ScanAll(ctx context.Context) ([]domain.Capsule, error) {
	args := m.Called(ctx)
	cs, _ := args.Get(0).([]domain.Capsule)
	return cs, args.Error(1)
}

type mockScheduleIndex struct{ mock.Mock }

func (m *mockScheduleIndex) Add(ctx context.Context, capsuleID string) error {
	return m.Called(ctx, capsuleID).Error(0)
}

type mockReceivedList struct{ mock.Mock }

func (m *mockReceivedList) Get(ctx context.Context, userID string) ([]string, error) {
	args := m.Called(ctx, userID)
	ids, _ := args.Get(0).([]string)
	return ids, args.Error(1)
}

type mockAchievements struct{ mock.Mock }

func (m *mockAchievements) CheckAndUnlock(ctx context.Context, userID, event string, payload domain.AchievementEvent) error {
	return m.Called(ctx, userID, event, payload).Error(0)
}

// --- helpers ---

func newMocks() (*mockCapsuleStore, *mockScheduleIndex, *mockReceivedList, *mockAchievements) {
	return &mockCapsuleStore{}, &mockScheduleIndex{}, &mockReceivedList{}, &mockAchievements{}
}

func baseReq() domain.CreateCapsuleRequest {
	return domain.CreateCapsuleRequest{
		Title:         "To future me",
		Message:       "Hello from the past",
		RecipientType: domain.RecipientTypeSelf,
		DeliverAt:     time.Now().Add(24 * time.Hour),
	}
}

func rawRecipients(entries ...string) []json.RawMessage {
	var out []json.RawMessage
	for _, e := range entries {
		out = append(out, json.RawMessage(e))
	}
	return out
}

// --- Create tests ---

func TestCreate_SelfHappyPath(t *testing.T) {
	cs, si, rl, ac := newMocks()
	cs.On("Put", mock.Anything, mock.AnythingOfType("*domain.Capsule")).Return(nil)
	si.On("Add", mock.Anything, mock.AnythingOfType("string")).Return(nil)
	ac.On("CheckAndUnlock", mock.Anything, "u1", domain.EventCapsuleCreated, mock.Anything).Return(nil)

	svc := NewService(cs, si, rl, ac)
	c, err := svc.Create(context.Background(), "u1", baseReq())

	require.NoError(t, err)
	assert.NotEmpty(t, c.CapsuleID)
	assert.Equal(t, domain.CapsuleStatusScheduled, c.Status)
	assert.Equal(t, "u1", c.CreatedBy)
	si.AssertExpectations(t)
	ac.AssertExpectations(t)
}

func TestCreate_PastDeliverAtRejected(t *testing.T) {
	cs, si, rl, ac := newMocks()
	svc := NewService(cs, si, rl, ac)

	req := baseReq()
	req.DeliverAt = time.Now().Add(-time.Hour)
	_, err := svc.Create(context.Background(), "u1", req)

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
	cs.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

func TestCreate_MissingMessageRejected(t *testing.T) {
	cs, si, rl, ac := newMocks()
	svc := NewService(cs, si, rl, ac)

	req := baseReq()
	req.Message = ""
	_, err := svc.Create(context.Background(), "u1", req)

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
}

func TestCreate_OthersRequiresAnEmail(t *testing.T) {
	cs, si, rl, ac := newMocks()
	svc := NewService(cs, si, rl, ac)

	req := baseReq()
	req.RecipientType = domain.RecipientTypeOthers
	req.Recipients = rawRecipients(`"not-an-email"`, `{"name":"Bob"}`)
	_, err := svc.Create(context.Background(), "u1", req)

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
}

func TestCreate_OthersAcceptsPolymorphicRecipients(t *testing.T) {
	cs, si, rl, ac := newMocks()
	cs.On("Put", mock.Anything, mock.AnythingOfType("*domain.Capsule")).Return(nil)
	si.On("Add", mock.Anything, mock.AnythingOfType("string")).Return(nil)
	ac.On("CheckAndUnlock", mock.Anything, "u1", domain.EventCapsuleCreated, mock.Anything).Return(nil)

	svc := NewService(cs, si, rl, ac)
	req := baseReq()
	req.RecipientType = domain.RecipientTypeOthers
	req.Recipients = rawRecipients(`"A@Example.com"`, `{"contact":"b@example.com"}`)
	c, err := svc.Create(context.Background(), "u1", req)

	require.NoError(t, err)
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, domain.RecipientEmails(c.Recipients))
}

func TestCreate_ScheduleIndexFailureIsSurfaced(t *testing.T) {
	cs, si, rl, ac := newMocks()
	cs.On("Put", mock.Anything, mock.AnythingOfType("*domain.Capsule")).Return(nil)
	si.On("Add", mock.Anything, mock.AnythingOfType("string")).Return(errors.New("index down"))

	svc := NewService(cs, si, rl, ac)
	_, err := svc.Create(context.Background(), "u1", baseReq())

	require.Error(t, err)
	ac.AssertNotCalled(t, "CheckAndUnlock", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// --- Get tests ---

func TestGet_CreatorSeesOwnCapsule(t *testing.T) {
	cs, si, rl, ac := newMocks()
	c := &domain.Capsule{CapsuleID: "c1", CreatedBy: "u1"}
	cs.On("Get", mock.Anything, "c1").Return(c, nil)

	svc := NewService(cs, si, rl, ac)
	got, err := svc.Get(context.Background(), "c1", "u1", false)

	require.NoError(t, err)
	assert.Equal(t, c, got)
}

func TestGet_RecipientSeesDeliveredCapsule(t *testing.T) {
	cs, si, rl, ac := newMocks()
	c := &domain.Capsule{CapsuleID: "c1", CreatedBy: "u1"}
	cs.On("Get", mock.Anything, "c1").Return(c, nil)
	rl.On("Get", mock.Anything, "u2").Return([]string{"c9", "c1"}, nil)

	svc := NewService(cs, si, rl, ac)
	got, err := svc.Get(context.Background(), "c1", "u2", false)

	require.NoError(t, err)
	assert.Equal(t, c, got)
}

func TestGet_StrangerForbidden(t *testing.T) {
	cs, si, rl, ac := newMocks()
	c := &domain.Capsule{CapsuleID: "c1", CreatedBy: "u1"}
	cs.On("Get", mock.Anything, "c1").Return(c, nil)
	rl.On("Get", mock.Anything, "u3").Return(nil, nil)

	svc := NewService(cs, si, rl, ac)
	_, err := svc.Get(context.Background(), "c1", "u3", false)

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrForbidden))
}

func TestGet_AdminSeesEverything(t *testing.T) {
	cs, si, rl, ac := newMocks()
	c := &domain.Capsule{CapsuleID: "c1", CreatedBy: "u1"}
	cs.On("Get", mock.Anything, "c1").Return(c, nil)

	svc := NewService(cs, si, rl, ac)
	got, err := svc.Get(context.Background(), "c1", "admin-user", true)

	require.NoError(t, err)
	assert.Equal(t, c, got)
}

// --- list tests ---

func TestListSent_FiltersByCreator(t *testing.T) {
	cs, si, rl, ac := newMocks()
	cs.On("ScanAll", mock.Anything).Return([]domain.Capsule{
		{CapsuleID: "c1", CreatedBy: "u1"},
		{CapsuleID: "c2", CreatedBy: "u2"},
		{CapsuleID: "c3", CreatedBy: "u1"},
	}, nil)

	svc := NewService(cs, si, rl, ac)
	sent, err := svc.ListSent(context.Background(), "u1")

	require.NoError(t, err)
	require.Len(t, sent, 2)
	assert.Equal(t, "c1", sent[0].CapsuleID)
	assert.Equal(t, "c3", sent[1].CapsuleID)
}

func TestListReceived_EmptyList(t *testing.T) {
	cs, si, rl, ac := newMocks()
	rl.On("Get", mock.Anything, "u1").Return(nil, nil)

	svc := NewService(cs, si, rl, ac)
	got, err := svc.ListReceived(context.Background(), "u1")

	require.NoError(t, err)
	assert.Empty(t, got)
	cs.AssertNotCalled(t, "MGet", mock.Anything, mock.Anything)
}

func TestListReceived_LoadsCapsules(t *testing.T) {
	cs, si, rl, ac := newMocks()
	rl.On("Get", mock.Anything, "u1").Return([]string{"c1", "c2"}, nil)
	cs.On("MGet", mock.Anything, []string{"c1", "c2"}).Return([]domain.Capsule{
		{CapsuleID: "c1"}, {CapsuleID: "c2"},
	}, nil)

	svc := NewService(cs, si, rl, ac)
	got, err := svc.ListReceived(context.Background(), "u1")

	require.NoError(t, err)
	assert.Len(t, got, 2)
}
