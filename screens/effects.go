package screens

// Effect is a one-time instruction for the UI layer. Effects are delivered
// once and never replayed. The variants are NavigateToHome, NavigateToLogin,
// ShowError and ShowMessage.
type Effect interface {
	isEffect()
}

// NavigateToHome is emitted after a successful sign-in or sign-up.
type NavigateToHome struct{}

// NavigateToLogin is emitted when the user must authenticate again, e.g.
// after a password reset.
type NavigateToLogin struct{}

// ShowError asks the UI to display a dismissible error notification.
type ShowError struct {
	Message string
}

// ShowMessage asks the UI to display an informational notification.
type ShowMessage struct {
	Message string
}

func (NavigateToHome) isEffect()  {}
func (NavigateToLogin) isEffect() {}
func (ShowError) isEffect()       {}
func (ShowMessage) isEffect()     {}
