package screens

import (
	"context"
	"fmt"

	auth "github.com/goliatone/go-auth-flows"
)

// ForgotPasswordUiState is the render state of the forgot password screen.
type ForgotPasswordUiState struct {
	Email        string
	EmailError   string
	ErrorMessage string
	IsLoading    bool
	EmailSent    bool
}

// CanSubmit reports whether the submit control should be enabled.
func (s ForgotPasswordUiState) CanSubmit() bool {
	return !s.IsLoading
}

// ForgotPasswordMachine drives the forgot password screen.
type ForgotPasswordMachine struct {
	*machine[ForgotPasswordUiState]
	repo auth.Repository
}

// NewForgotPasswordMachine creates a forgot password machine bound to repo.
func NewForgotPasswordMachine(repo auth.Repository, opts ...Option) *ForgotPasswordMachine {
	o := buildOptions(opts...)
	return &ForgotPasswordMachine{
		machine: newMachine("forgot_password", ForgotPasswordUiState{}, o),
		repo:    repo,
	}
}

// OnAction processes a user event.
func (m *ForgotPasswordMachine) OnAction(action Action) {
	m.mutate(func(s *ForgotPasswordUiState) {
		switch a := action.(type) {
		case EmailChanged:
			s.Email = a.Value
			s.EmailError = ""
			s.EmailSent = false
		case DismissError:
			s.EmailError = ""
			s.ErrorMessage = ""
		case Submit:
			m.submit(s)
		}
	})
}

func (m *ForgotPasswordMachine) submit(s *ForgotPasswordUiState) {
	if s.IsLoading {
		return
	}

	s.EmailError = ValidateEmail(s.Email)
	if s.EmailError != "" {
		return
	}

	s.IsLoading = true
	s.ErrorMessage = ""
	s.EmailSent = false

	email := s.Email
	m.launch(func(ctx context.Context) auth.AuthResult {
		return m.repo.SendPasswordResetEmail(ctx, email)
	}, func(s *ForgotPasswordUiState, result auth.AuthResult) []Effect {
		return m.apply(s, email, result)
	})
}

func (m *ForgotPasswordMachine) apply(s *ForgotPasswordUiState, email string, result auth.AuthResult) []Effect {
	s.IsLoading = false

	switch r := result.(type) {
	case auth.PasswordResetSent:
		s.EmailSent = true
		return []Effect{ShowMessage{Message: fmt.Sprintf("Password reset email sent to %s", email)}}
	case auth.Failure:
		msg, effects := failure(r.Err)
		s.ErrorMessage = msg
		return effects
	default:
		s.ErrorMessage = msgUnexpectedResponse
		return []Effect{ShowError{Message: msgUnexpectedResponse}}
	}
}
