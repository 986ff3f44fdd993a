package local

import (
	"context"

	auth "github.com/goliatone/go-auth-flows"
)

// Mailer delivers out of band action codes.
type Mailer interface {
	SendPasswordReset(ctx context.Context, email, code string) error
	SendEmailVerification(ctx context.Context, email, code string) error
}

// LogMailer writes action codes to a logger. It is meant for development.
type LogMailer struct {
	Logger auth.Logger
}

var _ Mailer = LogMailer{}

func (m LogMailer) SendPasswordReset(_ context.Context, email, code string) error {
	m.logger().Info("password reset code issued", "email", email, "code", code)
	return nil
}

func (m LogMailer) SendEmailVerification(_ context.Context, email, code string) error {
	m.logger().Info("email verification code issued", "email", email, "code", code)
	return nil
}

func (m LogMailer) logger() auth.Logger {
	if m.Logger == nil {
		return auth.DefaultLogger()
	}
	return m.Logger
}
