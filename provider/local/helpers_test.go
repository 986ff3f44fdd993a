package local_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	auth "github.com/goliatone/go-auth-flows"
	"github.com/goliatone/go-auth-flows/provider/local"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSigningKey = "0123456789abcdef0123456789abcdef"

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type captureMailer struct {
	mu            sync.Mutex
	resets        map[string]string
	verifications map[string]string
	err           error
}

func newCaptureMailer() *captureMailer {
	return &captureMailer{
		resets:        make(map[string]string),
		verifications: make(map[string]string),
	}
}

func (m *captureMailer) SendPasswordReset(_ context.Context, email, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.resets[email] = code
	return nil
}

func (m *captureMailer) SendEmailVerification(_ context.Context, email, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.verifications[email] = code
	return nil
}

func (m *captureMailer) ResetCode(email string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resets[email]
}

func (m *captureMailer) VerificationCode(email string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.verifications[email]
}

func testConfig() local.Config {
	cfg := local.DefaultConfig()
	cfg.SigningKey = testSigningKey
	cfg.BcryptCost = bcrypt.MinCost
	cfg.SignInRate = 0
	return cfg
}

type fixture struct {
	provider *local.Provider
	clock    *testClock
	mailer   *captureMailer
}

func newFixture(t *testing.T, cfg local.Config, opts ...local.Option) *fixture {
	t.Helper()

	clock := newTestClock()
	mailer := newCaptureMailer()
	opts = append([]local.Option{
		local.WithClock(clock.Now),
		local.WithMailer(mailer),
		local.WithLogger(auth.NopLogger()),
	}, opts...)

	provider, err := local.NewProvider(cfg, opts...)
	require.NoError(t, err)
	t.Cleanup(provider.Close)

	return &fixture{provider: provider, clock: clock, mailer: mailer}
}

func (f *fixture) signUp(t *testing.T, email, password string) auth.UserSession {
	t.Helper()
	result := f.provider.SignUp(context.Background(), auth.SignUpData{
		Email:       email,
		Password:    password,
		DisplayName: "Test User",
	})
	session, ok := auth.SessionOf(result)
	require.True(t, ok, "sign up failed: %#v", result)
	return session
}

func kindOf(result auth.AuthResult) auth.ErrorKind {
	if err := auth.ErrorOf(result); err != nil {
		return err.Kind
	}
	return ""
}

// errKind requires err to be an *auth.AuthError as returned, without
// mapping it first.
func errKind(t *testing.T, err error) auth.ErrorKind {
	t.Helper()
	var authErr *auth.AuthError
	require.ErrorAs(t, err, &authErr)
	return authErr.Kind
}

var errMailDown = errors.New("smtp: connection reset")
