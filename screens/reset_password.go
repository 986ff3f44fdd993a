package screens

import (
	"context"

	auth "github.com/goliatone/go-auth-flows"
)

// ResetPasswordUiState is the render state of the reset password screen.
type ResetPasswordUiState struct {
	ResetCode                string
	NewPassword              string
	ConfirmPassword          string
	ResetCodeError           string
	NewPasswordError         string
	ConfirmPasswordError     string
	ErrorMessage             string
	IsPasswordVisible        bool
	IsConfirmPasswordVisible bool
	IsLoading                bool
	ResetSuccessful          bool
}

// CanSubmit reports whether the submit control should be enabled.
func (s ResetPasswordUiState) CanSubmit() bool {
	return !s.IsLoading && !s.ResetSuccessful
}

// ResetPasswordMachine drives the reset password screen. The reset code is
// single use; after success the user signs in again.
type ResetPasswordMachine struct {
	*machine[ResetPasswordUiState]
	repo             auth.Repository
	validatePassword func(string) string
}

// NewResetPasswordMachine creates a reset password machine bound to repo.
// New passwords only need the minimum length by default; pass
// WithStrongPasswordPolicy to also require mixed case and a digit
// (see ValidateStrongPassword).
func NewResetPasswordMachine(repo auth.Repository, opts ...Option) *ResetPasswordMachine {
	o := buildOptions(opts...)

	validate := ValidateNewPassword
	if o.strongPassword {
		validate = ValidateStrongPassword
	}

	return &ResetPasswordMachine{
		machine:          newMachine("reset_password", ResetPasswordUiState{ResetCode: o.resetCode}, o),
		repo:             repo,
		validatePassword: validate,
	}
}

// OnAction processes a user event.
func (m *ResetPasswordMachine) OnAction(action Action) {
	m.mutate(func(s *ResetPasswordUiState) {
		switch a := action.(type) {
		case ResetCodeChanged:
			s.ResetCode = a.Value
			s.ResetCodeError = ""
		case PasswordChanged:
			s.NewPassword = a.Value
			s.NewPasswordError = ""
		case ConfirmPasswordChanged:
			s.ConfirmPassword = a.Value
			s.ConfirmPasswordError = ""
		case PasswordVisibilityToggled:
			s.IsPasswordVisible = !s.IsPasswordVisible
		case ConfirmPasswordVisibilityToggled:
			s.IsConfirmPasswordVisible = !s.IsConfirmPasswordVisible
		case DismissError:
			s.ResetCodeError = ""
			s.NewPasswordError = ""
			s.ConfirmPasswordError = ""
			s.ErrorMessage = ""
		case Submit:
			m.submit(s)
		}
	})
}

func (m *ResetPasswordMachine) submit(s *ResetPasswordUiState) {
	if !s.CanSubmit() {
		return
	}

	s.ResetCodeError = ValidateResetCode(s.ResetCode)
	s.NewPasswordError = m.validatePassword(s.NewPassword)
	s.ConfirmPasswordError = ValidateConfirmPassword(s.NewPassword, s.ConfirmPassword)
	if s.ResetCodeError != "" || s.NewPasswordError != "" || s.ConfirmPasswordError != "" {
		return
	}

	s.IsLoading = true
	s.ErrorMessage = ""

	data := auth.PasswordResetData{Code: s.ResetCode, NewPassword: s.NewPassword}
	m.launch(func(ctx context.Context) auth.AuthResult {
		return m.repo.ConfirmPasswordReset(ctx, data.Code, data.NewPassword)
	}, m.apply)
}

func (m *ResetPasswordMachine) apply(s *ResetPasswordUiState, result auth.AuthResult) []Effect {
	s.IsLoading = false

	switch r := result.(type) {
	case auth.PasswordResetSuccess:
		s.ResetSuccessful = true
		s.NewPassword = ""
		s.ConfirmPassword = ""
		return []Effect{NavigateToLogin{}}
	case auth.Failure:
		msg, effects := failure(r.Err)
		s.ErrorMessage = msg
		if r.Err != nil && r.Err.Kind == auth.KindInvalidResetCode {
			s.ResetCodeError = msg
		}
		return effects
	default:
		s.ErrorMessage = msgUnexpectedResponse
		return []Effect{ShowError{Message: msgUnexpectedResponse}}
	}
}
