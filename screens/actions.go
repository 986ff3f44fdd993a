package screens

// Action is a user event sent to a screen machine through OnAction. Each
// machine handles the subset relevant to its form and ignores the rest.
type Action interface {
	isAction()
}

type (
	EmailChanged           struct{ Value string }
	PasswordChanged        struct{ Value string }
	ConfirmPasswordChanged struct{ Value string }
	FullNameChanged        struct{ Value string }
	ResetCodeChanged       struct{ Value string }
	TermsToggled           struct{ Accepted bool }

	PasswordVisibilityToggled        struct{}
	ConfirmPasswordVisibilityToggled struct{}

	// Submit validates the form and, when valid, calls the repository.
	Submit struct{}

	// DismissError clears field errors and the last operation error.
	DismissError struct{}
)

func (EmailChanged) isAction()                     {}
func (PasswordChanged) isAction()                  {}
func (ConfirmPasswordChanged) isAction()           {}
func (FullNameChanged) isAction()                  {}
func (ResetCodeChanged) isAction()                 {}
func (TermsToggled) isAction()                     {}
func (PasswordVisibilityToggled) isAction()        {}
func (ConfirmPasswordVisibilityToggled) isAction() {}
func (Submit) isAction()                           {}
func (DismissError) isAction()                     {}
