package auth

import (
	"net/http"

	goerrors "github.com/goliatone/go-errors"
)

// ErrorKind enumerates the closed set of errors that cross the
// Provider -> Repository -> screen boundary.
type ErrorKind string

const (
	KindInvalidCredentials  ErrorKind = "invalid_credentials"
	KindUserNotFound        ErrorKind = "user_not_found"
	KindEmailAlreadyInUse   ErrorKind = "email_already_in_use"
	KindWeakPassword        ErrorKind = "weak_password"
	KindInvalidEmail        ErrorKind = "invalid_email"
	KindInvalidResetCode    ErrorKind = "invalid_reset_code"
	KindNetworkError        ErrorKind = "network_error"
	KindSessionExpired      ErrorKind = "session_expired"
	KindTooManyRequests     ErrorKind = "too_many_requests"
	KindUserDisabled        ErrorKind = "user_disabled"
	KindOperationNotAllowed ErrorKind = "operation_not_allowed"
	KindUnknown             ErrorKind = "unknown"
)

var defaultMessages = map[ErrorKind]string{
	KindInvalidCredentials:  "Invalid email or password",
	KindUserNotFound:        "No account found with this email",
	KindEmailAlreadyInUse:   "An account with this email already exists",
	KindWeakPassword:        "Password is too weak",
	KindInvalidEmail:        "Invalid email address",
	KindInvalidResetCode:    "Invalid or expired reset code",
	KindNetworkError:        "Network error. Please check your connection",
	KindSessionExpired:      "Your session has expired. Please sign in again",
	KindTooManyRequests:     "Too many attempts. Please try again later",
	KindUserDisabled:        "This account has been disabled",
	KindOperationNotAllowed: "This operation is not allowed",
	KindUnknown:             "An unknown error occurred",
}

// DefaultMessage returns the human message used when a kind is created
// without one.
func (k ErrorKind) DefaultMessage() string {
	if msg, ok := defaultMessages[k]; ok {
		return msg
	}
	return defaultMessages[KindUnknown]
}

// AuthError is the domain error carried by Failure results.
type AuthError struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

// Sentinels for errors.Is comparisons; matching is by kind.
var (
	ErrInvalidCredentials  = &AuthError{Kind: KindInvalidCredentials}
	ErrUserNotFound        = &AuthError{Kind: KindUserNotFound}
	ErrEmailAlreadyInUse   = &AuthError{Kind: KindEmailAlreadyInUse}
	ErrWeakPassword        = &AuthError{Kind: KindWeakPassword}
	ErrInvalidEmail        = &AuthError{Kind: KindInvalidEmail}
	ErrInvalidResetCode    = &AuthError{Kind: KindInvalidResetCode}
	ErrNetwork             = &AuthError{Kind: KindNetworkError}
	ErrSessionExpired      = &AuthError{Kind: KindSessionExpired}
	ErrTooManyRequests     = &AuthError{Kind: KindTooManyRequests}
	ErrUserDisabled        = &AuthError{Kind: KindUserDisabled}
	ErrOperationNotAllowed = &AuthError{Kind: KindOperationNotAllowed}
	ErrUnknown             = &AuthError{Kind: KindUnknown}
)

// NewAuthError creates an AuthError. An empty message falls back to the
// kind's default message.
func NewAuthError(kind ErrorKind, message string, cause error) *AuthError {
	if message == "" {
		message = kind.DefaultMessage()
	}
	return &AuthError{Kind: kind, Message: message, Cause: cause}
}

func (e *AuthError) Error() string {
	if e == nil {
		return ""
	}
	if e.Message == "" {
		return e.Kind.DefaultMessage()
	}
	return e.Message
}

func (e *AuthError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Is matches any AuthError of the same kind.
func (e *AuthError) Is(target error) bool {
	t, ok := target.(*AuthError)
	if !ok || e == nil || t == nil {
		return false
	}
	return e.Kind == t.Kind
}

// Rich converts the error into a go-errors value so HTTP or RPC layers can
// reuse their category and status handling.
func (e *AuthError) Rich() *goerrors.Error {
	if e == nil {
		return nil
	}

	category, code := e.Kind.classify()
	rich := goerrors.New(e.Error(), category).
		WithTextCode(string(e.Kind)).
		WithCode(code)
	if e.Cause != nil {
		rich.Source = e.Cause
	}
	return rich
}

func (k ErrorKind) classify() (goerrors.Category, int) {
	switch k {
	case KindInvalidCredentials, KindSessionExpired:
		return goerrors.CategoryAuth, goerrors.CodeUnauthorized
	case KindUserNotFound:
		return goerrors.CategoryNotFound, goerrors.CodeNotFound
	case KindEmailAlreadyInUse:
		return goerrors.CategoryConflict, goerrors.CodeConflict
	case KindWeakPassword, KindInvalidEmail, KindInvalidResetCode:
		return goerrors.CategoryValidation, goerrors.CodeBadRequest
	case KindTooManyRequests:
		return goerrors.CategoryRateLimit, goerrors.CodeTooManyRequests
	case KindUserDisabled, KindOperationNotAllowed:
		return goerrors.CategoryAuth, goerrors.CodeForbidden
	case KindNetworkError:
		return goerrors.CategoryOperation, http.StatusServiceUnavailable
	default:
		return goerrors.CategoryInternal, goerrors.CodeInternal
	}
}

const (
	TextCodeNoProviderRegistered = "AUTH_NO_PROVIDER_REGISTERED"
	TextCodeProviderNotFound     = "AUTH_PROVIDER_NOT_REGISTERED"
	TextCodeInvalidProvider      = "AUTH_INVALID_PROVIDER"
)

// ErrNoProviderRegistered is returned by Registry.Default when nothing has
// been registered. It signals a startup ordering bug.
var ErrNoProviderRegistered = goerrors.New("no identity provider registered", goerrors.CategoryInternal).
	WithTextCode(TextCodeNoProviderRegistered).
	WithCode(goerrors.CodeInternal)

// ErrProviderNotRegistered is returned when an unknown provider id is used.
var ErrProviderNotRegistered = goerrors.New("identity provider not registered", goerrors.CategoryBadInput).
	WithTextCode(TextCodeProviderNotFound).
	WithCode(goerrors.CodeBadRequest)

// ErrInvalidProvider is returned when registering a nil provider or one
// without an id.
var ErrInvalidProvider = goerrors.New("invalid identity provider", goerrors.CategoryBadInput).
	WithTextCode(TextCodeInvalidProvider).
	WithCode(goerrors.CodeBadRequest)
