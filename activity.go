package auth

import (
	"context"
	"time"
)

// Operation names the repository call an activity event describes.
type Operation string

const (
	OperationSignIn                 Operation = "sign_in"
	OperationSignUp                 Operation = "sign_up"
	OperationSignOut                Operation = "sign_out"
	OperationSendPasswordResetEmail Operation = "send_password_reset_email"
	OperationConfirmPasswordReset   Operation = "confirm_password_reset"
	OperationRefreshSession         Operation = "refresh_session"
	OperationGetIDToken             Operation = "get_id_token"
	OperationDeleteAccount          Operation = "delete_account"
	OperationUpdateDisplayName      Operation = "update_display_name"
	OperationUpdateEmail            Operation = "update_email"
	OperationUpdatePassword         Operation = "update_password"
	OperationSendEmailVerification  Operation = "send_email_verification"
	OperationReauthenticate         Operation = "reauthenticate"
)

// ActivityEvent captures audit-friendly information about a repository
// operation.
type ActivityEvent struct {
	Operation  Operation
	ProviderID string
	Outcome    string
	ErrorKind  ErrorKind
	UserID     string
	Metadata   map[string]any
	Duration   time.Duration
	OccurredAt time.Time
}

// ActivitySink consumes activity events for auditing/telemetry purposes.
type ActivitySink interface {
	Record(ctx context.Context, event ActivityEvent) error
}

// ActivitySinkFunc adapts a function to the ActivitySink interface.
type ActivitySinkFunc func(ctx context.Context, event ActivityEvent) error

// Record implements ActivitySink.
func (f ActivitySinkFunc) Record(ctx context.Context, event ActivityEvent) error {
	if f == nil {
		return nil
	}
	return f(ctx, event)
}

type noopActivitySink struct{}

func (noopActivitySink) Record(context.Context, ActivityEvent) error {
	return nil
}

func normalizeActivitySink(s ActivitySink) ActivitySink {
	if s == nil {
		return noopActivitySink{}
	}
	return s
}
