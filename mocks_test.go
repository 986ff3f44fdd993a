package auth_test

import (
	"context"

	auth "github.com/goliatone/go-auth-flows"
	"github.com/stretchr/testify/mock"
)

// MockProvider implements auth.Provider
type MockProvider struct {
	mock.Mock
	id string
}

var _ auth.Provider = (*MockProvider)(nil)

func NewMockProvider(id string) *MockProvider {
	return &MockProvider{id: id}
}

func (m *MockProvider) ID() string {
	return m.id
}

func (m *MockProvider) SignIn(ctx context.Context, credentials auth.Credentials) auth.AuthResult {
	args := m.Called(ctx, credentials)
	return args.Get(0).(auth.AuthResult)
}

func (m *MockProvider) SignUp(ctx context.Context, data auth.SignUpData) auth.AuthResult {
	args := m.Called(ctx, data)
	return args.Get(0).(auth.AuthResult)
}

func (m *MockProvider) SignOut(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockProvider) SendPasswordResetEmail(ctx context.Context, email string) auth.AuthResult {
	args := m.Called(ctx, email)
	return args.Get(0).(auth.AuthResult)
}

func (m *MockProvider) ConfirmPasswordReset(ctx context.Context, code, newPassword string) auth.AuthResult {
	args := m.Called(ctx, code, newPassword)
	return args.Get(0).(auth.AuthResult)
}

func (m *MockProvider) ObserveAuthState(ctx context.Context) <-chan auth.AuthState {
	args := m.Called(ctx)
	return args.Get(0).(<-chan auth.AuthState)
}

func (m *MockProvider) RefreshSession(ctx context.Context) auth.AuthResult {
	args := m.Called(ctx)
	return args.Get(0).(auth.AuthResult)
}

func (m *MockProvider) IsSignedIn(ctx context.Context) bool {
	return m.Called(ctx).Bool(0)
}

func (m *MockProvider) GetIDToken(ctx context.Context, forceRefresh bool) (string, error) {
	args := m.Called(ctx, forceRefresh)
	return args.String(0), args.Error(1)
}

func (m *MockProvider) DeleteAccount(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockProvider) UpdateDisplayName(ctx context.Context, displayName string) error {
	return m.Called(ctx, displayName).Error(0)
}

func (m *MockProvider) UpdateEmail(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

func (m *MockProvider) UpdatePassword(ctx context.Context, password string) error {
	return m.Called(ctx, password).Error(0)
}

func (m *MockProvider) SendEmailVerification(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockProvider) Reauthenticate(ctx context.Context, credentials auth.Credentials) auth.AuthResult {
	args := m.Called(ctx, credentials)
	return args.Get(0).(auth.AuthResult)
}
