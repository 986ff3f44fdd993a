package auth

import (
	"context"
	"errors"
	"net"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

type errorRule struct {
	patterns []string
	kind     ErrorKind
}

// errorRules is evaluated in order, first match wins.
var errorRules = []errorRule{
	{patterns: []string{"invalid-credential", "invalid-password", "wrong-password"}, kind: KindInvalidCredentials},
	{patterns: []string{"user-not-found"}, kind: KindUserNotFound},
	{patterns: []string{"email-exists", "email-already-in-use"}, kind: KindEmailAlreadyInUse},
	{patterns: []string{"weak-password"}, kind: KindWeakPassword},
	{patterns: []string{"invalid-email"}, kind: KindInvalidEmail},
	{patterns: []string{"too-many-requests"}, kind: KindTooManyRequests},
	{patterns: []string{"user-disabled"}, kind: KindUserDisabled},
	{patterns: []string{"network-request-failed"}, kind: KindNetworkError},
	{patterns: []string{"invalid-action-code", "expired-action-code"}, kind: KindInvalidResetCode},
	{patterns: []string{"operation-not-allowed"}, kind: KindOperationNotAllowed},
	{patterns: []string{"user-token-expired", "requires-recent-login", "no-current-user"}, kind: KindSessionExpired},
}

// MapError translates a backend error into an AuthError. It is the single
// place where backend specific error shapes are inspected. A nil error maps
// to nil.
func MapError(err error) *AuthError {
	if err == nil {
		return nil
	}

	var authErr *AuthError
	if errors.As(err, &authErr) && authErr != nil {
		return authErr
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return NewAuthError(KindNetworkError, "", err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return NewAuthError(KindNetworkError, "", err)
	}

	text := strings.ToLower(errorText(err))
	for _, rule := range errorRules {
		for _, pattern := range rule.patterns {
			if strings.Contains(text, pattern) {
				return NewAuthError(rule.kind, "", err)
			}
		}
	}

	msg := err.Error()
	if msg == "" {
		msg = KindUnknown.DefaultMessage()
	}
	return NewAuthError(KindUnknown, msg, err)
}

// errorText collects every code and message the error chain exposes.
func errorText(err error) string {
	parts := []string{err.Error()}

	var rich *goerrors.Error
	if goerrors.As(err, &rich) && rich != nil {
		if rich.TextCode != "" {
			parts = append(parts, rich.TextCode)
		}
	}

	var coded interface{ Code() string }
	if errors.As(err, &coded) {
		parts = append(parts, coded.Code())
	}

	return strings.Join(parts, " ")
}
