package auth

// CredentialKind identifies a Credentials variant.
type CredentialKind string

const (
	CredentialEmailPassword CredentialKind = "email_password"
	CredentialOAuthToken    CredentialKind = "oauth_token"
	CredentialRefreshToken  CredentialKind = "refresh_token"
)

// Credentials is the input of a sign-in attempt. The variants are
// EmailPassword, OAuthToken and RefreshToken.
type Credentials interface {
	Kind() CredentialKind
	isCredentials()
}

// EmailPassword signs in with an email address and password.
type EmailPassword struct {
	Email    string
	Password string
}

// OAuthToken exchanges a token obtained from an external identity
// provider (e.g. "google.com") for a backend session.
type OAuthToken struct {
	ProviderID  string
	IDToken     string
	AccessToken string
}

// RefreshToken resumes a session from a previously issued refresh token.
type RefreshToken struct {
	Token string
}

func (EmailPassword) Kind() CredentialKind { return CredentialEmailPassword }
func (OAuthToken) Kind() CredentialKind    { return CredentialOAuthToken }
func (RefreshToken) Kind() CredentialKind  { return CredentialRefreshToken }

func (EmailPassword) isCredentials() {}
func (OAuthToken) isCredentials()    {}
func (RefreshToken) isCredentials()  {}

// SignUpData holds the input needed to create an account.
type SignUpData struct {
	Email       string
	Password    string
	DisplayName string
	PhotoURL    string
	Metadata    map[string]string
}

// PasswordResetData holds a one-time reset code and the new password.
type PasswordResetData struct {
	Code        string
	NewPassword string
}
