package auth

import (
	"context"
	"sync"
	"time"

	"github.com/goliatone/go-auth-flows/stream"
)

// StateMonitor owns the application wide auth state subscription. It
// subscribes to the repository once and multicasts the latest state to any
// number of observers, so a splash gate and a route guard share a single
// backend check.
type StateMonitor struct {
	repo          Repository
	states        *stream.Broadcaster[AuthState]
	logger        Logger
	now           func() time.Time
	checkInterval time.Duration

	startOnce sync.Once
}

// StateMonitorOption customizes a StateMonitor.
type StateMonitorOption func(*StateMonitor)

// WithStateMonitorLogger sets the monitor logger.
func WithStateMonitorLogger(logger Logger) StateMonitorOption {
	return func(m *StateMonitor) {
		m.logger = normalizeLogger(logger)
	}
}

// WithStateMonitorClock injects a custom clock (useful for tests).
func WithStateMonitorClock(clock func() time.Time) StateMonitorOption {
	return func(m *StateMonitor) {
		if clock != nil {
			m.now = clock
		}
	}
}

// WithExpiryCheckInterval enables a periodic session expiry check.
func WithExpiryCheckInterval(interval time.Duration) StateMonitorOption {
	return func(m *StateMonitor) {
		m.checkInterval = interval
	}
}

// NewStateMonitor creates a monitor in the Loading state. Call Start to
// attach it to the repository.
func NewStateMonitor(repo Repository, opts ...StateMonitorOption) *StateMonitor {
	m := &StateMonitor{
		repo:   repo,
		states: stream.NewBroadcaster[AuthState](Loading{}),
		logger: defLogger{},
		now:    time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	return m
}

// Start subscribes to the repository auth state stream. It is safe to call
// more than once; only the first call subscribes. Subscribers are closed
// when ctx ends or the source stream terminates.
func (m *StateMonitor) Start(ctx context.Context) {
	m.startOnce.Do(func() {
		source := m.repo.ObserveAuthState(ctx)
		go m.run(ctx, source)
	})
}

func (m *StateMonitor) run(ctx context.Context, source <-chan AuthState) {
	defer m.states.Close()

	var tick <-chan time.Time
	if m.checkInterval > 0 {
		ticker := time.NewTicker(m.checkInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case state, ok := <-source:
			if !ok {
				m.logger.Debug("auth state source closed", "provider", m.repo.ProviderID())
				return
			}
			m.publish(state)
		case <-tick:
			m.CheckExpiry()
		}
	}
}

func (m *StateMonitor) publish(state AuthState) {
	if auth, ok := state.(Authenticated); ok && auth.Session.IsExpired(m.now()) {
		m.logger.Info("session expired", "user", auth.Session.UserID)
		state = Unauthenticated{}
	}
	if errState, ok := state.(ErrorState); ok {
		m.logger.Error("auth state stream failed", "error", errState.Err)
	}
	m.states.Publish(state)
}

// CheckExpiry demotes an expired Authenticated state to Unauthenticated.
// It returns true when a demotion happened.
func (m *StateMonitor) CheckExpiry() bool {
	_, demoted := m.states.Update(func(state AuthState) (AuthState, bool) {
		if auth, ok := state.(Authenticated); ok && auth.Session.IsExpired(m.now()) {
			return Unauthenticated{}, true
		}
		return state, false
	})
	if demoted {
		m.logger.Info("session expired")
	}
	return demoted
}

// Subscribe returns a stream of auth states starting with the current one.
func (m *StateMonitor) Subscribe(ctx context.Context) <-chan AuthState {
	return m.states.Subscribe(ctx)
}

// Current returns the latest state.
func (m *StateMonitor) Current() AuthState {
	return m.states.Current()
}

// Session returns the current session when authenticated.
func (m *StateMonitor) Session() (UserSession, bool) {
	if auth, ok := m.states.Current().(Authenticated); ok {
		return auth.Session, true
	}
	return EmptySession, false
}

// Done is closed once the monitor stops.
func (m *StateMonitor) Done() <-chan struct{} {
	return m.states.Done()
}
