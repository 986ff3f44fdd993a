package screens

import (
	"context"

	auth "github.com/goliatone/go-auth-flows"
)

// LoginUiState is the render state of the login screen.
type LoginUiState struct {
	Email             string
	Password          string
	EmailError        string
	PasswordError     string
	ErrorMessage      string
	IsPasswordVisible bool
	IsLoading         bool
	User              *auth.UserSession
}

// CanSubmit reports whether the submit control should be enabled.
func (s LoginUiState) CanSubmit() bool {
	return !s.IsLoading
}

// LoginMachine drives the login screen.
type LoginMachine struct {
	*machine[LoginUiState]
	repo auth.Repository
}

// NewLoginMachine creates a login machine bound to repo.
func NewLoginMachine(repo auth.Repository, opts ...Option) *LoginMachine {
	o := buildOptions(opts...)
	return &LoginMachine{
		machine: newMachine("login", LoginUiState{}, o),
		repo:    repo,
	}
}

// OnAction processes a user event.
func (m *LoginMachine) OnAction(action Action) {
	m.mutate(func(s *LoginUiState) {
		switch a := action.(type) {
		case EmailChanged:
			s.Email = a.Value
			s.EmailError = ""
		case PasswordChanged:
			s.Password = a.Value
			s.PasswordError = ""
		case PasswordVisibilityToggled:
			s.IsPasswordVisible = !s.IsPasswordVisible
		case DismissError:
			s.EmailError = ""
			s.PasswordError = ""
			s.ErrorMessage = ""
		case Submit:
			m.submit(s)
		}
	})
}

func (m *LoginMachine) submit(s *LoginUiState) {
	if s.IsLoading {
		return
	}

	s.EmailError = ValidateEmail(s.Email)
	s.PasswordError = ValidateSignInPassword(s.Password)
	if s.EmailError != "" || s.PasswordError != "" {
		return
	}

	s.IsLoading = true
	s.ErrorMessage = ""

	credentials := auth.EmailPassword{Email: s.Email, Password: s.Password}
	m.launch(func(ctx context.Context) auth.AuthResult {
		return m.repo.SignIn(ctx, credentials)
	}, m.apply)
}

func (m *LoginMachine) apply(s *LoginUiState, result auth.AuthResult) []Effect {
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
		return []Effect{ShowMessage{Message: msgVerifyBeforeSignIn}}
	default:
		s.ErrorMessage = msgUnexpectedResponse
		return []Effect{ShowError{Message: msgUnexpectedResponse}}
	}
}
