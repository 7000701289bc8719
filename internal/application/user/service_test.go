package user

import (
	"context"
	"errors"
	"testing"

	"github.com/capsule-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockUserStore struct{ mock.Mock }

func (m *mockUserStore) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	args := m.Called(ctx, username)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) Put(ctx context.Context, u *domain.User) error {
	return m.Called(ctx, u).Error(0)
}
func (m *mockUserStore) ScanPage(ctx context.Context, limit int32, cursor string) ([]domain.User, string, error) {
	args := m.Called(ctx, limit, cursor)
	users, _ := args.Get(0).([]domain.User)
	return users, args.String(1), args.Error(2)
}
func (m *mockUserStore) Get(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) Update(ctx context.Context, userID string, updates map[string]interface{}) error {
	return m.Called(ctx, userID, updates).Error(0)
}
func (m *mockUserStore) SoftDelete(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

type mockSessionStore struct{ mock.Mock }

func (m *mockSessionStore) Put(ctx context.Context, s *domain.Session) error {
	return m.Called(ctx, s).Error(0)
}
func (m *mockSessionStore) SoftDeleteByUser(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

type mockProfileStore struct{ mock.Mock }

func (m *mockProfileStore) Put(ctx context.Context, p *domain.Profile) error {
	return m.Called(ctx, p).Error(0)
}

type mockClaimer struct{ mock.Mock }

func (m *mockClaimer) ClaimFor(ctx context.Context, u *domain.User) (int, error) {
	args := m.Called(ctx, u)
	return args.Int(0), args.Error(1)
}

type mockJWTSigner struct{ mock.Mock }

func (m *mockJWTSigner) Sign(userID, role, sessionID string) (string, error) {
	args := m.Called(userID, role, sessionID)
	return args.String(0), args.Error(1)
}

// --- helpers ---

func newService(us *mockUserStore, ss *mockSessionStore, ps *mockProfileStore, cl *mockClaimer, jwt *mockJWTSigner) Service {
	return NewService(ServiceDeps{
		UserRepo:    us,
		SessionRepo: ss,
		Profiles:    ps,
		Claims:      cl,
		JWTProvider: jwt,
	})
}

func baseReq() domain.CreateUserRequest {
	return domain.CreateUserRequest{
		Username:  "alice",
		Password:  "password123",
		Email:     "Alice@Example.com",
		FirstName: "Alice",
		LastName:  "Smith",
	}
}

func ptr[T any](v T) *T { return &v }

// --- Register tests ---

func TestRegister_UsernameConflict(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByUsername", mock.Anything, "alice").Return(&domain.User{}, nil)

	svc := newService(us, nil, nil, nil, nil)
	_, err := svc.Register(context.Background(), baseReq())

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrConflict))
	us.AssertExpectations(t)
}

func TestRegister_EmailConflict(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByUsername", mock.Anything, "alice").Return(nil, domain.ErrNotFound)
	us.On("GetByEmail", mock.Anything, "Alice@Example.com").Return(&domain.User{}, nil)

	svc := newService(us, nil, nil, nil, nil)
	_, err := svc.Register(context.Background(), baseReq())

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrConflict))
}

func TestRegister_ShortPasswordRejected(t *testing.T) {
	svc := newService(&mockUserStore{}, nil, nil, nil, nil)
	req := baseReq()
	req.Password = "short"
	_, err := svc.Register(context.Background(), req)

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
}

func TestRegister_HappyPath(t *testing.T) {
	us := &mockUserStore{}
	ps := &mockProfileStore{}
	cl := &mockClaimer{}
	us.On("GetByUsername", mock.Anything, "alice").Return(nil, domain.ErrNotFound)
	us.On("GetByEmail", mock.Anything, "Alice@Example.com").Return(nil, domain.ErrNotFound)
	us.On("Put", mock.Anything, mock.AnythingOfType("*domain.User")).Return(nil)
	ps.On("Put", mock.Anything, mock.AnythingOfType("*domain.Profile")).Return(nil)
	cl.On("ClaimFor", mock.Anything, mock.AnythingOfType("*domain.User")).Return(0, nil)

	svc := newService(us, nil, ps, cl, nil)
	u, err := svc.Register(context.Background(), baseReq())

	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)
	assert.Equal(t, "alice@example.com", u.Email) // stored normalized
	assert.Equal(t, domain.RoleUser, u.Role)
	assert.True(t, u.Enable)
	assert.NotEqual(t, "password123", u.PasswordHash)
	us.AssertExpectations(t)
	ps.AssertExpectations(t)
	cl.AssertExpectations(t)
}

func TestRegister_ClaimsPendingCapsules(t *testing.T) {
	us := &mockUserStore{}
	ps := &mockProfileStore{}
	cl := &mockClaimer{}
	us.On("GetByUsername", mock.Anything, "alice").Return(nil, domain.ErrNotFound)
	us.On("GetByEmail", mock.Anything, "Alice@Example.com").Return(nil, domain.ErrNotFound)
	us.On("Put", mock.Anything, mock.Anything).Return(nil)
	ps.On("Put", mock.Anything, mock.Anything).Return(nil)
	cl.On("ClaimFor", mock.Anything, mock.Anything).Return(2, nil)

	svc := newService(us, nil, ps, cl, nil)
	_, err := svc.Register(context.Background(), baseReq())

	require.NoError(t, err)
	cl.AssertExpectations(t)
}

func TestRegister_ClaimFailureDoesNotFailRegistration(t *testing.T) {
	us := &mockUserStore{}
	ps := &mockProfileStore{}
	cl := &mockClaimer{}
	us.On("GetByUsername", mock.Anything, "alice").Return(nil, domain.ErrNotFound)
	us.On("GetByEmail", mock.Anything, "Alice@Example.com").Return(nil, domain.ErrNotFound)
	us.On("Put", mock.Anything, mock.Anything).Return(nil)
	ps.On("Put", mock.Anything, mock.Anything).Return(nil)
	cl.On("ClaimFor", mock.Anything, mock.Anything).Return(0, errors.New("pending store down"))

	svc := newService(us, nil, ps, cl, nil)
	u, err := svc.Register(context.Background(), baseReq())

	require.NoError(t, err)
	assert.NotNil(t, u)
}

// --- Update tests ---

func TestUpdate_EmptyRequestReturnsExistingUser(t *testing.T) {
	us := &mockUserStore{}
	existing := &domain.User{UserID: "u1", Username: "alice"}
	us.On("Get", mock.Anything, "u1").Return(existing, nil)

	svc := newService(us, nil, nil, nil, nil)
	u, err := svc.Update(context.Background(), "u1", domain.UpdateUserRequest{})

	require.NoError(t, err)
	assert.Equal(t, existing, u)
	us.AssertExpectations(t)
}

func TestUpdate_InvalidRole(t *testing.T) {
	svc := newService(&mockUserStore{}, nil, nil, nil, nil)
	_, err := svc.Update(context.Background(), "u1", domain.UpdateUserRequest{
		Role: ptr("superuser"),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
}

func TestUpdate_HappyPath(t *testing.T) {
	us := &mockUserStore{}
	updated := &domain.User{UserID: "u1", Username: "bob"}
	us.On("Update", mock.Anything, "u1", mock.Anything).Return(nil)
	us.On("Get", mock.Anything, "u1").Return(updated, nil)

	svc := newService(us, nil, nil, nil, nil)
	u, err := svc.Update(context.Background(), "u1", domain.UpdateUserRequest{Username: ptr("bob")})

	require.NoError(t, err)
	assert.Equal(t, "bob", u.Username)
}

// --- Delete tests ---

func TestDelete_SoftDeletesUserAndSessions(t *testing.T) {
	us := &mockUserStore{}
	ss := &mockSessionStore{}
	us.On("SoftDelete", mock.Anything, "u1").Return(nil)
	ss.On("SoftDeleteByUser", mock.Anything, "u1").Return(nil)

	svc := newService(us, ss, nil, nil, nil)
	require.NoError(t, svc.Delete(context.Background(), "u1"))
	us.AssertExpectations(t)
	ss.AssertExpectations(t)
}
