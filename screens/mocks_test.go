package screens_test

import (
	"context"
	"testing"
	"time"

	auth "github.com/goliatone/go-auth-flows"
	"github.com/goliatone/go-auth-flows/screens"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockRepository implements auth.Repository
type MockRepository struct {
	mock.Mock
}

var _ auth.Repository = (*MockRepository)(nil)

func (m *MockRepository) ProviderID() string {
	return "mock"
}

func (m *MockRepository) SignIn(ctx context.Context, credentials auth.Credentials) auth.AuthResult {
	args := m.Called(ctx, credentials)
	return args.Get(0).(auth.AuthResult)
}

func (m *MockRepository) SignUp(ctx context.Context, data auth.SignUpData) auth.AuthResult {
	args := m.Called(ctx, data)
	return args.Get(0).(auth.AuthResult)
}

func (m *MockRepository) SignOut(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockRepository) SendPasswordResetEmail(ctx context.Context, email string) auth.AuthResult {
	args := m.Called(ctx, email)
	return args.Get(0).(auth.AuthResult)
}

func (m *MockRepository) ConfirmPasswordReset(ctx context.Context, code, newPassword string) auth.AuthResult {
	args := m.Called(ctx, code, newPassword)
	return args.Get(0).(auth.AuthResult)
}

func (m *MockRepository) ObserveAuthState(ctx context.Context) <-chan auth.AuthState {
	args := m.Called(ctx)
	return args.Get(0).(<-chan auth.AuthState)
}

func (m *MockRepository) RefreshSession(ctx context.Context) auth.AuthResult {
	args := m.Called(ctx)
	return args.Get(0).(auth.AuthResult)
}

func (m *MockRepository) CurrentSession(ctx context.Context) *auth.UserSession {
	args := m.Called(ctx)
	s, _ := args.Get(0).(*auth.UserSession)
	return s
}

func (m *MockRepository) IsSignedIn(ctx context.Context) bool {
	args := m.Called(ctx)
	return args.Bool(0)
}

func (m *MockRepository) GetIDToken(ctx context.Context, forceRefresh bool) (string, error) {
	args := m.Called(ctx, forceRefresh)
	return args.String(0), args.Error(1)
}

func (m *MockRepository) DeleteAccount(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockRepository) UpdateDisplayName(ctx context.Context, displayName string) error {
	return m.Called(ctx, displayName).Error(0)
}

func (m *MockRepository) UpdateEmail(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

func (m *MockRepository) UpdatePassword(ctx context.Context, password string) error {
	return m.Called(ctx, password).Error(0)
}

func (m *MockRepository) SendEmailVerification(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockRepository) Reauthenticate(ctx context.Context, credentials auth.Credentials) auth.AuthResult {
	args := m.Called(ctx, credentials)
	return args.Get(0).(auth.AuthResult)
}

func testSession() auth.UserSession {
	return auth.UserSession{
		UserID:          "user-1",
		Email:           "test@example.com",
		DisplayName:     "John Doe",
		IsEmailVerified: true,
		ProviderID:      "mock",
	}
}

func nextEffect(t *testing.T, effects <-chan screens.Effect) screens.Effect {
	t.Helper()
	select {
	case e := <-effects:
		return e
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for effect")
		return nil
	}
}

func assertNoEffect(t *testing.T, effects <-chan screens.Effect) {
	t.Helper()
	select {
	case e := <-effects:
		t.Fatalf("unexpected effect %#v", e)
	case <-time.After(50 * time.Millisecond):
	}
}

// waitIdle waits until the machine reports it is no longer loading.
func waitIdle(t *testing.T, loading func() bool) {
	t.Helper()
	require.Eventually(t, func() bool { return !loading() }, time.Second, 5*time.Millisecond)
}
