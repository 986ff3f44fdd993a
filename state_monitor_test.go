package auth_test

import (
	"context"
	"sync"
	"testing"
	"time"

	auth "github.com/goliatone/go-auth-flows"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
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

func waitForState(t *testing.T, ch <-chan auth.AuthState, match func(auth.AuthState) bool) auth.AuthState {
	t.Helper()
	timeout := time.After(time.Second)
	for {
		select {
		case state, ok := <-ch:
			require.True(t, ok, "state stream closed")
			if match(state) {
				return state
			}
		case <-timeout:
			t.Fatal("timed out waiting for auth state")
			return nil
		}
	}
}

func isState[S auth.AuthState](state auth.AuthState) bool {
	_, ok := state.(S)
	return ok
}

func newMonitorFixture(t *testing.T, opts ...auth.StateMonitorOption) (*auth.StateMonitor, *MockProvider, chan auth.AuthState) {
	t.Helper()
	provider := NewMockProvider("local")
	source := make(chan auth.AuthState, 4)
	var readOnly <-chan auth.AuthState = source
	provider.On("ObserveAuthState", mock.Anything).Return(readOnly).Once()

	repo := newTestRepository(t, provider)
	opts = append([]auth.StateMonitorOption{auth.WithStateMonitorLogger(auth.NopLogger())}, opts...)
	return auth.NewStateMonitor(repo, opts...), provider, source
}

func TestStateMonitorStartsLoading(t *testing.T) {
	monitor, _, _ := newMonitorFixture(t)
	assert.Equal(t, auth.Loading{}, monitor.Current())

	_, ok := monitor.Session()
	assert.False(t, ok)
}

func TestStateMonitorSharesSingleSubscription(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	monitor, provider, source := newMonitorFixture(t)
	monitor.Start(ctx)
	monitor.Start(ctx)

	splash := monitor.Subscribe(ctx)
	guard := monitor.Subscribe(ctx)

	session := auth.UserSession{UserID: "u1"}
	source <- auth.Authenticated{Session: session}

	for _, ch := range []<-chan auth.AuthState{splash, guard} {
		state := waitForState(t, ch, isState[auth.Authenticated])
		assert.Equal(t, "u1", state.(auth.Authenticated).Session.UserID)
	}

	current, ok := monitor.Session()
	require.True(t, ok)
	assert.Equal(t, "u1", current.UserID)
	provider.AssertNumberOfCalls(t, "ObserveAuthState", 1)
}

func TestStateMonitorDemotesExpiredSession(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	clock := &testClock{now: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)}
	monitor, _, source := newMonitorFixture(t, auth.WithStateMonitorClock(clock.Now))
	monitor.Start(ctx)
	states := monitor.Subscribe(ctx)

	past := clock.Now().Add(-time.Minute)
	source <- auth.Authenticated{Session: auth.UserSession{UserID: "u1", ExpiresAt: &past}}

	waitForState(t, states, isState[auth.Unauthenticated])
	assert.Equal(t, auth.Unauthenticated{}, monitor.Current())
}

func TestStateMonitorCheckExpiry(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	clock := &testClock{now: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)}
	monitor, _, source := newMonitorFixture(t, auth.WithStateMonitorClock(clock.Now))
	monitor.Start(ctx)
	states := monitor.Subscribe(ctx)

	expires := clock.Now().Add(time.Hour)
	source <- auth.Authenticated{Session: auth.UserSession{UserID: "u1", ExpiresAt: &expires}}
	waitForState(t, states, isState[auth.Authenticated])

	assert.False(t, monitor.CheckExpiry())

	clock.Advance(2 * time.Hour)
	assert.True(t, monitor.CheckExpiry())
	waitForState(t, states, isState[auth.Unauthenticated])

	assert.False(t, monitor.CheckExpiry())
}

func TestStateMonitorClosesWhenSourceCloses(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	monitor, _, source := newMonitorFixture(t)
	monitor.Start(ctx)
	states := monitor.Subscribe(ctx)

	source <- auth.ErrorState{Err: auth.NewAuthError(auth.KindNetworkError, "", nil)}
	waitForState(t, states, isState[auth.ErrorState])
	close(source)

	select {
	case <-monitor.Done():
	case <-time.After(time.Second):
		t.Fatal("monitor did not stop")
	}

	assert.IsType(t, auth.ErrorState{}, monitor.Current())
}

func TestStateMonitorStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	monitor, _, _ := newMonitorFixture(t)
	monitor.Start(ctx)
	states := monitor.Subscribe(context.Background())
	cancel()

	select {
	case <-monitor.Done():
	case <-time.After(time.Second):
		t.Fatal("monitor did not stop")
	}

	for range states {
	}
}
