package auth

import (
	"context"
	"time"
)

// Repository is the stable API used by screens. It delegates every call to
// exactly one active Provider without caching or retrying.
type Repository interface {
	ProviderID() string
	SignIn(ctx context.Context, credentials Credentials) AuthResult
	SignUp(ctx context.Context, data SignUpData) AuthResult
	SignOut(ctx context.Context) error
	SendPasswordResetEmail(ctx context.Context, email string) AuthResult
	ConfirmPasswordReset(ctx context.Context, code, newPassword string) AuthResult
	ObserveAuthState(ctx context.Context) <-chan AuthState
	RefreshSession(ctx context.Context) AuthResult
	// CurrentSession refreshes the session and returns it on success, nil
	// otherwise.
	CurrentSession(ctx context.Context) *UserSession
	IsSignedIn(ctx context.Context) bool
	GetIDToken(ctx context.Context, forceRefresh bool) (string, error)
	DeleteAccount(ctx context.Context) error
	UpdateDisplayName(ctx context.Context, displayName string) error
	UpdateEmail(ctx context.Context, email string) error
	UpdatePassword(ctx context.Context, password string) error
	SendEmailVerification(ctx context.Context) error
	Reauthenticate(ctx context.Context, credentials Credentials) AuthResult
}

// RepositoryOption customizes a Repository.
type RepositoryOption func(*repository)

// WithActivitySink records one ActivityEvent per delegated operation.
func WithActivitySink(sink ActivitySink) RepositoryOption {
	return func(r *repository) {
		r.activitySink = normalizeActivitySink(sink)
	}
}

// WithLogger sets the repository logger.
func WithLogger(logger Logger) RepositoryOption {
	return func(r *repository) {
		r.logger = normalizeLogger(logger)
	}
}

// WithRepositoryClock injects a custom clock (useful for tests).
func WithRepositoryClock(clock func() time.Time) RepositoryOption {
	return func(r *repository) {
		if clock != nil {
			r.now = clock
		}
	}
}

type repository struct {
	provider     Provider
	activitySink ActivitySink
	logger       Logger
	now          func() time.Time
}

var _ Repository = (*repository)(nil)

// NewRepository returns a Repository bound to provider.
func NewRepository(provider Provider, opts ...RepositoryOption) (Repository, error) {
	if provider == nil {
		return nil, ErrInvalidProvider
	}

	r := &repository{
		provider:     provider,
		activitySink: noopActivitySink{},
		logger:       defLogger{},
		now:          time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r, nil
}

// NewRepositoryFromRegistry binds a Repository to the registry's default
// provider.
func NewRepositoryFromRegistry(registry *Registry, opts ...RepositoryOption) (Repository, error) {
	if registry == nil {
		return nil, ErrNoProviderRegistered
	}
	provider, err := registry.Default()
	if err != nil {
		return nil, err
	}
	return NewRepository(provider, opts...)
}

func (r *repository) ProviderID() string {
	return r.provider.ID()
}

func (r *repository) SignIn(ctx context.Context, credentials Credentials) AuthResult {
	start := r.now()
	result := r.provider.SignIn(ctx, credentials)
	r.recordResult(ctx, OperationSignIn, start, result, map[string]any{
		"credential": string(credentialKind(credentials)),
	})
	return result
}

func (r *repository) SignUp(ctx context.Context, data SignUpData) AuthResult {
	start := r.now()
	result := r.provider.SignUp(ctx, data)
	r.recordResult(ctx, OperationSignUp, start, result, nil)
	return result
}

func (r *repository) SignOut(ctx context.Context) error {
	start := r.now()
	err := r.provider.SignOut(ctx)
	return r.recordErr(ctx, OperationSignOut, start, err)
}

func (r *repository) SendPasswordResetEmail(ctx context.Context, email string) AuthResult {
	start := r.now()
	result := r.provider.SendPasswordResetEmail(ctx, email)
	r.recordResult(ctx, OperationSendPasswordResetEmail, start, result, nil)
	return result
}

func (r *repository) ConfirmPasswordReset(ctx context.Context, code, newPassword string) AuthResult {
	start := r.now()
	result := r.provider.ConfirmPasswordReset(ctx, code, newPassword)
	r.recordResult(ctx, OperationConfirmPasswordReset, start, result, nil)
	return result
}

func (r *repository) ObserveAuthState(ctx context.Context) <-chan AuthState {
	return r.provider.ObserveAuthState(ctx)
}

func (r *repository) RefreshSession(ctx context.Context) AuthResult {
	start := r.now()
	result := r.provider.RefreshSession(ctx)
	r.recordResult(ctx, OperationRefreshSession, start, result, nil)
	return result
}

func (r *repository) CurrentSession(ctx context.Context) *UserSession {
	session, ok := SessionOf(r.RefreshSession(ctx))
	if !ok {
		return nil
	}
	return &session
}

func (r *repository) IsSignedIn(ctx context.Context) bool {
	return r.provider.IsSignedIn(ctx)
}

func (r *repository) GetIDToken(ctx context.Context, forceRefresh bool) (string, error) {
	start := r.now()
	token, err := r.provider.GetIDToken(ctx, forceRefresh)
	return token, r.recordErr(ctx, OperationGetIDToken, start, err)
}

func (r *repository) DeleteAccount(ctx context.Context) error {
	start := r.now()
	err := r.provider.DeleteAccount(ctx)
	return r.recordErr(ctx, OperationDeleteAccount, start, err)
}

func (r *repository) UpdateDisplayName(ctx context.Context, displayName string) error {
	start := r.now()
	err := r.provider.UpdateDisplayName(ctx, displayName)
	return r.recordErr(ctx, OperationUpdateDisplayName, start, err)
}

func (r *repository) UpdateEmail(ctx context.Context, email string) error {
	start := r.now()
	err := r.provider.UpdateEmail(ctx, email)
	return r.recordErr(ctx, OperationUpdateEmail, start, err)
}

func (r *repository) UpdatePassword(ctx context.Context, password string) error {
	start := r.now()
	err := r.provider.UpdatePassword(ctx, password)
	return r.recordErr(ctx, OperationUpdatePassword, start, err)
}

func (r *repository) SendEmailVerification(ctx context.Context) error {
	start := r.now()
	err := r.provider.SendEmailVerification(ctx)
	return r.recordErr(ctx, OperationSendEmailVerification, start, err)
}

func (r *repository) Reauthenticate(ctx context.Context, credentials Credentials) AuthResult {
	start := r.now()
	result := r.provider.Reauthenticate(ctx, credentials)
	r.recordResult(ctx, OperationReauthenticate, start, result, map[string]any{
		"credential": string(credentialKind(credentials)),
	})
	return result
}

func (r *repository) recordResult(ctx context.Context, op Operation, start time.Time, result AuthResult, meta map[string]any) {
	event := ActivityEvent{
		Operation: op,
		Outcome:   ResultName(result),
		Metadata:  meta,
	}
	if session, ok := SessionOf(result); ok {
		event.UserID = session.UserID
	}
	if err := ErrorOf(result); err != nil {
		event.ErrorKind = err.Kind
	}
	r.record(ctx, start, event)
}

// recordErr reports the operation and returns err as an *AuthError.
func (r *repository) recordErr(ctx context.Context, op Operation, start time.Time, err error) error {
	event := ActivityEvent{
		Operation: op,
		Outcome:   "success",
	}
	if err == nil {
		r.record(ctx, start, event)
		return nil
	}

	mapped := MapError(err)
	event.Outcome = "failure"
	event.ErrorKind = mapped.Kind
	r.record(ctx, start, event)
	return mapped
}

func (r *repository) record(ctx context.Context, start time.Time, event ActivityEvent) {
	event.ProviderID = r.provider.ID()
	event.OccurredAt = r.now()
	event.Duration = event.OccurredAt.Sub(start)

	if event.ErrorKind != "" {
		r.logger.Debug("auth operation failed",
			"operation", event.Operation,
			"provider", event.ProviderID,
			"kind", event.ErrorKind,
		)
	}

	sink := normalizeActivitySink(r.activitySink)
	if err := sink.Record(ctx, event); err != nil {
		r.logger.Warn("activity sink error", "operation", event.Operation, "error", err)
	}
}

func credentialKind(c Credentials) CredentialKind {
	if c == nil {
		return ""
	}
	return c.Kind()
}
