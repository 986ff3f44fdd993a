package local

import (
	goerrors "github.com/goliatone/go-errors"
)

// Text codes reported by the local backend. They follow the
// "auth/<reason>" convention hosted identity services use, so the
// shared error mapper classifies them without special casing.
const (
	TextCodeWrongPassword       = "auth/wrong-password"
	TextCodeInvalidCredential   = "auth/invalid-credential"
	TextCodeUserNotFound        = "auth/user-not-found"
	TextCodeEmailAlreadyInUse   = "auth/email-already-in-use"
	TextCodeWeakPassword        = "auth/weak-password"
	TextCodeInvalidEmail        = "auth/invalid-email"
	TextCodeUserDisabled        = "auth/user-disabled"
	TextCodeTooManyRequests     = "auth/too-many-requests"
	TextCodeInvalidActionCode   = "auth/invalid-action-code"
	TextCodeExpiredActionCode   = "auth/expired-action-code"
	TextCodeUserTokenExpired    = "auth/user-token-expired"
	TextCodeRequiresRecentLogin = "auth/requires-recent-login"
	TextCodeOperationNotAllowed = "auth/operation-not-allowed"
	TextCodeNoCurrentUser       = "auth/no-current-user"
	TextCodeNetworkFailed       = "auth/network-request-failed"
)

var (
	ErrWrongPassword = goerrors.New("the password is invalid", goerrors.CategoryAuth).
				WithTextCode(TextCodeWrongPassword).
				WithCode(goerrors.CodeUnauthorized)

	ErrInvalidCredential = goerrors.New("the supplied credential is malformed or has expired", goerrors.CategoryAuth).
				WithTextCode(TextCodeInvalidCredential).
				WithCode(goerrors.CodeUnauthorized)

	ErrUserNotFound = goerrors.New("there is no account for this identifier", goerrors.CategoryNotFound).
			WithTextCode(TextCodeUserNotFound).
			WithCode(goerrors.CodeNotFound)

	ErrEmailAlreadyInUse = goerrors.New("the email address is already registered", goerrors.CategoryConflict).
				WithTextCode(TextCodeEmailAlreadyInUse).
				WithCode(goerrors.CodeConflict)

	ErrWeakPassword = goerrors.New("the password does not meet the minimum length", goerrors.CategoryValidation).
			WithTextCode(TextCodeWeakPassword).
			WithCode(goerrors.CodeBadRequest)

	ErrInvalidEmail = goerrors.New("the email address is badly formatted", goerrors.CategoryValidation).
			WithTextCode(TextCodeInvalidEmail).
			WithCode(goerrors.CodeBadRequest)

	ErrUserDisabled = goerrors.New("the account has been disabled", goerrors.CategoryAuthz).
			WithTextCode(TextCodeUserDisabled).
			WithCode(goerrors.CodeForbidden)

	ErrTooManyRequests = goerrors.New("access temporarily blocked after repeated attempts", goerrors.CategoryRateLimit).
				WithTextCode(TextCodeTooManyRequests).
				WithCode(goerrors.CodeTooManyRequests)

	ErrInvalidActionCode = goerrors.New("the action code is invalid or was already used", goerrors.CategoryValidation).
				WithTextCode(TextCodeInvalidActionCode).
				WithCode(goerrors.CodeBadRequest)

	ErrExpiredActionCode = goerrors.New("the action code has expired", goerrors.CategoryValidation).
				WithTextCode(TextCodeExpiredActionCode).
				WithCode(goerrors.CodeBadRequest)

	ErrUserTokenExpired = goerrors.New("the refresh token is no longer valid", goerrors.CategoryAuth).
				WithTextCode(TextCodeUserTokenExpired).
				WithCode(goerrors.CodeUnauthorized)

	ErrRequiresRecentLogin = goerrors.New("this operation requires a recent sign in", goerrors.CategoryAuth).
				WithTextCode(TextCodeRequiresRecentLogin).
				WithCode(goerrors.CodeUnauthorized)

	ErrOperationNotAllowed = goerrors.New("this sign in method is not enabled", goerrors.CategoryAuthz).
				WithTextCode(TextCodeOperationNotAllowed).
				WithCode(goerrors.CodeForbidden)

	ErrNoCurrentUser = goerrors.New("no user is signed in", goerrors.CategoryAuth).
				WithTextCode(TextCodeNoCurrentUser).
				WithCode(goerrors.CodeUnauthorized)
)

// withCause clones a backend error prototype and attaches the underlying
// failure as its source.
func withCause(proto *goerrors.Error, cause error) *goerrors.Error {
	err := proto.Clone()
	err.Source = cause
	return err
}

// withMetadata clones a backend error prototype and attaches metadata.
func withMetadata(proto *goerrors.Error, meta map[string]any) *goerrors.Error {
	return proto.Clone().WithMetadata(meta)
}
