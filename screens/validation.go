package screens

import (
	"errors"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
)

const (
	MsgEmailEmpty          = "Email cannot be empty"
	MsgEmailInvalid        = "Invalid email format"
	MsgPasswordEmpty       = "Password cannot be empty"
	MsgPasswordTooShort    = "Password must be at least 6 characters"
	MsgPasswordUppercase   = "Password must contain at least one uppercase letter"
	MsgPasswordLowercase   = "Password must contain at least one lowercase letter"
	MsgPasswordDigit       = "Password must contain at least one digit"
	MsgConfirmPassword     = "Please confirm your password"
	MsgPasswordsMismatch   = "Passwords do not match"
	MsgFullNameRequired    = "Full name is required"
	MsgResetCodeRequired   = "Reset code is required"
	MinPasswordLength      = 6
	msgUnexpectedResponse  = "Unexpected response from authentication service"
	msgVerifyBeforeSignIn  = "Please verify your email address before signing in"
	msgVerifyAfterRegister = "Account created. Please check your email to verify your account"
)

var (
	emailPattern     = regexp.MustCompile(`^[A-Za-z0-9+_.-]+@[A-Za-z0-9.-]+$`)
	uppercasePattern = regexp.MustCompile(`[A-Z]`)
	lowercasePattern = regexp.MustCompile(`[a-z]`)
	digitPattern     = regexp.MustCompile(`[0-9]`)
)

// notBlank fails for empty or whitespace-only strings.
func notBlank(message string) validation.Rule {
	return validation.By(func(value interface{}) error {
		s, _ := value.(string)
		if strings.TrimSpace(s) == "" {
			return errors.New(message)
		}
		return nil
	})
}

// equals fails when the value differs from other.
func equals(other, message string) validation.Rule {
	return validation.By(func(value interface{}) error {
		s, _ := value.(string)
		if s != other {
			return errors.New(message)
		}
		return nil
	})
}

// minLength counts characters, not bytes, and also rejects empty values.
func minLength(n int, message string) validation.Rule {
	return validation.By(func(value interface{}) error {
		s, _ := value.(string)
		if len([]rune(s)) < n {
			return errors.New(message)
		}
		return nil
	})
}

var (
	emailRules = []validation.Rule{
		notBlank(MsgEmailEmpty),
		validation.Match(emailPattern).Error(MsgEmailInvalid),
	}

	signInPasswordRules = []validation.Rule{
		notBlank(MsgPasswordEmpty),
	}

	newPasswordRules = []validation.Rule{
		minLength(MinPasswordLength, MsgPasswordTooShort),
	}

	strongPasswordRules = []validation.Rule{
		minLength(MinPasswordLength, MsgPasswordTooShort),
		validation.Match(uppercasePattern).Error(MsgPasswordUppercase),
		validation.Match(lowercasePattern).Error(MsgPasswordLowercase),
		validation.Match(digitPattern).Error(MsgPasswordDigit),
	}

	fullNameRules = []validation.Rule{
		notBlank(MsgFullNameRequired),
	}

	resetCodeRules = []validation.Rule{
		notBlank(MsgResetCodeRequired),
	}
)

func confirmPasswordRules(password string) []validation.Rule {
	return []validation.Rule{
		notBlank(MsgConfirmPassword),
		equals(password, MsgPasswordsMismatch),
	}
}

// check runs rules in order and returns the first failure message, or "".
func check(value string, rules ...validation.Rule) string {
	if err := validation.Validate(value, rules...); err != nil {
		return err.Error()
	}
	return ""
}

// ValidateEmail returns the email field error, or "" when valid.
func ValidateEmail(email string) string {
	return check(email, emailRules...)
}

// ValidateSignInPassword returns the sign-in password error, or "".
func ValidateSignInPassword(password string) string {
	return check(password, signInPasswordRules...)
}

// ValidateNewPassword returns the registration password error, or "".
func ValidateNewPassword(password string) string {
	return check(password, newPasswordRules...)
}

// ValidateStrongPassword applies the length rule plus the uppercase,
// lowercase and digit requirements.
func ValidateStrongPassword(password string) string {
	return check(password, strongPasswordRules...)
}

// ValidateConfirmPassword returns the confirmation error, or "".
func ValidateConfirmPassword(password, confirm string) string {
	return check(confirm, confirmPasswordRules(password)...)
}

// ValidateFullName returns the full name error, or "".
func ValidateFullName(name string) string {
	return check(name, fullNameRules...)
}

// ValidateResetCode returns the reset code error, or "".
func ValidateResetCode(code string) string {
	return check(code, resetCodeRules...)
}
