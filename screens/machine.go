package screens

import (
	"context"
	"fmt"
	"sync"

	auth "github.com/goliatone/go-auth-flows"
	"github.com/goliatone/go-auth-flows/stream"
)

const effectBuffer = 16

// Option customizes a screen machine.
type Option func(*options)

type options struct {
	ctx            context.Context
	logger         auth.Logger
	strongPassword bool
	resetCode      string
}

// WithContext binds the machine scope to ctx. Cancelling ctx has the same
// effect as Close.
func WithContext(ctx context.Context) Option {
	return func(o *options) {
		if ctx != nil {
			o.ctx = ctx
		}
	}
}

// WithLogger sets the machine logger.
func WithLogger(logger auth.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithStrongPasswordPolicy makes the reset password screen require an
// uppercase letter, a lowercase letter and a digit.
func WithStrongPasswordPolicy() Option {
	return func(o *options) {
		o.strongPassword = true
	}
}

// WithResetCode seeds the reset password screen with a code, typically
// taken from a deep link.
func WithResetCode(code string) Option {
	return func(o *options) {
		o.resetCode = code
	}
}

func buildOptions(opts ...Option) *options {
	o := &options{
		ctx:    context.Background(),
		logger: auth.DefaultLogger(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}

// machine holds the state, effect queue and scope shared by every screen.
// All state mutation happens under mu, so actions apply in arrival order.
type machine[S any] struct {
	name    string
	mu      sync.Mutex
	state   S
	states  *stream.Broadcaster[S]
	effects chan Effect
	ctx     context.Context
	cancel  context.CancelFunc
	logger  auth.Logger
}

func newMachine[S any](name string, initial S, o *options) *machine[S] {
	ctx, cancel := context.WithCancel(o.ctx)
	return &machine[S]{
		name:    name,
		state:   initial,
		states:  stream.NewBroadcaster(initial),
		effects: make(chan Effect, effectBuffer),
		ctx:     ctx,
		cancel:  cancel,
		logger:  o.logger,
	}
}

// State returns a snapshot of the current state.
func (m *machine[S]) State() S {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// States streams state snapshots, starting with the current one. The
// channel closes when the screen closes or ctx ends.
func (m *machine[S]) States(ctx context.Context) <-chan S {
	return m.states.Subscribe(ctx)
}

// Effects returns the one-time effect stream.
func (m *machine[S]) Effects() <-chan Effect {
	return m.effects
}

// Done is closed when the screen scope ends.
func (m *machine[S]) Done() <-chan struct{} {
	return m.ctx.Done()
}

// Close ends the screen scope. In-flight calls are cancelled and their
// results discarded.
func (m *machine[S]) Close() {
	m.cancel()
	m.states.Close()
}

// mutate applies fn to the state and publishes the result. It is a no-op
// once the machine is closed.
func (m *machine[S]) mutate(fn func(*S)) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ctx.Err() != nil {
		return
	}
	fn(&m.state)
	m.states.Publish(m.state)
}

// launch runs call on the machine scope. The result is handed to apply
// only while the scope is alive; late results are dropped.
func (m *machine[S]) launch(call func(context.Context) auth.AuthResult, apply func(*S, auth.AuthResult) []Effect) {
	ctx := m.ctx
	go func() {
		result := m.invoke(ctx, call)

		m.mu.Lock()
		if ctx.Err() != nil {
			m.mu.Unlock()
			m.logger.Debug("discarding result for closed screen", "screen", m.name, "result", auth.ResultName(result))
			return
		}
		effects := apply(&m.state, result)
		m.states.Publish(m.state)
		m.mu.Unlock()

		for _, effect := range effects {
			m.emit(ctx, effect)
		}
	}()
}

func (m *machine[S]) invoke(ctx context.Context, call func(context.Context) auth.AuthResult) (result auth.AuthResult) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("auth call panicked", "screen", m.name, "panic", r)
			result = auth.Fail(fmt.Errorf("%s: %v", m.name, r))
		}
	}()
	return call(ctx)
}

func (m *machine[S]) emit(ctx context.Context, effect Effect) {
	select {
	case m.effects <- effect:
	case <-ctx.Done():
	}
}

// failure applies the common Failure handling and returns its effects.
func failure(err *auth.AuthError) (string, []Effect) {
	msg := err.Error()
	if msg == "" {
		msg = auth.KindUnknown.DefaultMessage()
	}
	return msg, []Effect{ShowError{Message: msg}}
}
