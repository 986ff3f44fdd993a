package auth

// AuthResult is the outcome of every provider operation. The variants are
// Success, Failure, RequiresEmailVerification, PasswordResetSent and
// PasswordResetSuccess.
type AuthResult interface {
	isAuthResult()
}

// Success carries the session produced by a sign-in, sign-up or refresh.
type Success struct {
	Session UserSession
}

// Failure carries the mapped error of a failed operation.
type Failure struct {
	Err *AuthError
}

// RequiresEmailVerification means the account exists but the email
// address must be confirmed before a session is issued.
type RequiresEmailVerification struct{}

// PasswordResetSent means the reset email was dispatched.
type PasswordResetSent struct{}

// PasswordResetSuccess means a reset code was consumed and the password
// changed. No session is produced.
type PasswordResetSuccess struct{}

func (Success) isAuthResult()                   {}
func (Failure) isAuthResult()                   {}
func (RequiresEmailVerification) isAuthResult() {}
func (PasswordResetSent) isAuthResult()         {}
func (PasswordResetSuccess) isAuthResult()      {}

// Fail wraps err into a Failure, mapping it when needed.
func Fail(err error) Failure {
	mapped := MapError(err)
	if mapped == nil {
		mapped = NewAuthError(KindUnknown, "", nil)
	}
	return Failure{Err: mapped}
}

// FailWith builds a Failure for the given kind and message.
func FailWith(kind ErrorKind, message string) Failure {
	return Failure{Err: NewAuthError(kind, message, nil)}
}

// SessionOf extracts the session of a Success result.
func SessionOf(result AuthResult) (UserSession, bool) {
	if s, ok := result.(Success); ok {
		return s.Session, true
	}
	return EmptySession, false
}

// ErrorOf extracts the error of a Failure result.
func ErrorOf(result AuthResult) *AuthError {
	if f, ok := result.(Failure); ok {
		return f.Err
	}
	return nil
}

// ResultName returns a stable label for the variant, used by activity
// events and logs.
func ResultName(result AuthResult) string {
	switch result.(type) {
	case Success:
		return "success"
	case Failure:
		return "failure"
	case RequiresEmailVerification:
		return "requires_email_verification"
	case PasswordResetSent:
		return "password_reset_sent"
	case PasswordResetSuccess:
		return "password_reset_success"
	default:
		return "unknown"
	}
}
