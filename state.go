package auth

// AuthState is observed by the application root. The variants are Loading,
// Unauthenticated, Authenticated and ErrorState.
type AuthState interface {
	isAuthState()
}

// Loading is the first state of every auth state stream.
type Loading struct{}

// Unauthenticated means no backend session exists.
type Unauthenticated struct{}

// Authenticated carries the current session.
type Authenticated struct {
	Session UserSession
}

// ErrorState is emitted once before an auth state stream terminates on an
// unrecoverable failure.
type ErrorState struct {
	Err *AuthError
}

func (Loading) isAuthState()         {}
func (Unauthenticated) isAuthState() {}
func (Authenticated) isAuthState()   {}
func (ErrorState) isAuthState()      {}

// StateFromSession returns Authenticated for a populated session and
// Unauthenticated otherwise.
func StateFromSession(session UserSession) AuthState {
	if !session.IsAuthenticated() {
		return Unauthenticated{}
	}
	return Authenticated{Session: session}
}

// StateName returns a stable label for the variant.
func StateName(state AuthState) string {
	switch state.(type) {
	case Loading:
		return "loading"
	case Unauthenticated:
		return "unauthenticated"
	case Authenticated:
		return "authenticated"
	case ErrorState:
		return "error"
	default:
		return "unknown"
	}
}
