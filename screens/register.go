package screens

import (
	"context"
	"strings"

	auth "github.com/goliatone/go-auth-flows"
)

// RegisterUiState is the render state of the registration screen.
type RegisterUiState struct {
	FullName                 string
	Email                    string
	Password                 string
	ConfirmPassword          string
	TermsAccepted            bool
	FullNameError            string
	EmailError               string
	PasswordError            string
	ConfirmPasswordError     string
	ErrorMessage             string
	IsPasswordVisible        bool
	IsConfirmPasswordVisible bool
	IsLoading                bool
	User                     *auth.UserSession
}

// CanSubmit reports whether the submit control should be enabled. Terms
// must be accepted; this is a gate, not a field error.
func (s RegisterUiState) CanSubmit() bool {
	return s.TermsAccepted && !s.IsLoading
}

// RegisterMachine drives the registration screen.
type RegisterMachine struct {
	*machine[RegisterUiState]
	repo auth.Repository
}

// NewRegisterMachine creates a registration machine bound to repo.
func NewRegisterMachine(repo auth.Repository, opts ...Option) *RegisterMachine {
	o := buildOptions(opts...)
	return &RegisterMachine{
		machine: newMachine("register", RegisterUiState{}, o),
		repo:    repo,
	}
}

// OnAction processes a user event.
func (m *RegisterMachine) OnAction(action Action) {
	m.mutate(func(s *RegisterUiState) {
		switch a := action.(type) {
		case FullNameChanged:
			s.FullName = a.Value
			s.FullNameError = ""
		case EmailChanged:
			s.Email = a.Value
			s.EmailError = ""
		case PasswordChanged:
			s.Password = a.Value
			s.PasswordError = ""
		case ConfirmPasswordChanged:
			s.ConfirmPassword = a.Value
			s.ConfirmPasswordError = ""
		case TermsToggled:
			s.TermsAccepted = a.Accepted
		case PasswordVisibilityToggled:
			s.IsPasswordVisible = !s.IsPasswordVisible
		case ConfirmPasswordVisibilityToggled:
			s.IsConfirmPasswordVisible = !s.IsConfirmPasswordVisible
		case DismissError:
			s.FullNameError = ""
			s.EmailError = ""
			s.PasswordError = ""
			s.ConfirmPasswordError = ""
			s.ErrorMessage = ""
		case Submit:
			m.submit(s)
		}
	})
}

func (m *RegisterMachine) submit(s *RegisterUiState) {
	if !s.CanSubmit() {
		return
	}

	s.FullNameError = ValidateFullName(s.FullName)
	s.EmailError = ValidateEmail(s.Email)
	s.PasswordError = ValidateNewPassword(s.Password)
	s.ConfirmPasswordError = ValidateConfirmPassword(s.Password, s.ConfirmPassword)
	if s.FullNameError != "" || s.EmailError != "" || s.PasswordError != "" || s.ConfirmPasswordError != "" {
		return
	}

	s.IsLoading = true
	s.ErrorMessage = ""

	data := auth.SignUpData{
		Email:       s.Email,
		Password:    s.Password,
		DisplayName: strings.TrimSpace(s.FullName),
		Metadata:    map[string]string{},
	}
	m.launch(func(ctx context.Context) auth.AuthResult {
		return m.repo.SignUp(ctx, data)
	}, m.apply)
}

func (m *RegisterMachine) apply(s *RegisterUiState, result auth.AuthResult) []Effect {
	s.IsLoading = false

	switch r := result.(type) {
	case auth.Success:
		session := r.Session
		s.User = &session
		return []Effect{NavigateToHome{}}
	case auth.Failure:
		msg, effects := failure(r.Err)
		s.ErrorMessage = msg
		return effects
	case auth.RequiresEmailVerification:
		return []Effect{ShowMessage{Message: msgVerifyAfterRegister}, NavigateToLogin{}}
	default:
		s.ErrorMessage = msgUnexpectedResponse
		return []Effect{ShowError{Message: msgUnexpectedResponse}}
	}
}
