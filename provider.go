package auth

import "context"

// Provider is the contract every identity backend implements. Providers are
// stateless facades over backend state: operations never panic and every
// backend failure is returned as a Failure result or an *AuthError.
type Provider interface {
	// ID returns the provider identifier used by the Registry.
	ID() string

	// SignIn authenticates with the given credentials. RefreshToken
	// credentials delegate to session refresh.
	SignIn(ctx context.Context, credentials Credentials) AuthResult

	// SignUp creates an account and returns its session.
	SignUp(ctx context.Context, data SignUpData) AuthResult

	// SignOut invalidates the local backend session. On error the previous
	// session is left untouched.
	SignOut(ctx context.Context) error

	// SendPasswordResetEmail triggers the out-of-band reset. Success is
	// PasswordResetSent.
	SendPasswordResetEmail(ctx context.Context, email string) AuthResult

	// ConfirmPasswordReset consumes a one-time code. Success is
	// PasswordResetSuccess and does not produce a session.
	ConfirmPasswordReset(ctx context.Context, code, newPassword string) AuthResult

	// ObserveAuthState returns a hot stream whose first value is Loading.
	// The channel closes when ctx is done or after an ErrorState on an
	// unrecoverable backend failure.
	ObserveAuthState(ctx context.Context) <-chan AuthState

	// RefreshSession force-refreshes the token. Failures map to
	// SessionExpired.
	RefreshSession(ctx context.Context) AuthResult

	IsSignedIn(ctx context.Context) bool
	GetIDToken(ctx context.Context, forceRefresh bool) (string, error)
	DeleteAccount(ctx context.Context) error
	UpdateDisplayName(ctx context.Context, displayName string) error
	UpdateEmail(ctx context.Context, email string) error
	UpdatePassword(ctx context.Context, password string) error
	SendEmailVerification(ctx context.Context) error

	// Reauthenticate confirms the user's identity before sensitive
	// mutations. Providers without that requirement return a Failure with
	// KindOperationNotAllowed.
	Reauthenticate(ctx context.Context, credentials Credentials) AuthResult
}
