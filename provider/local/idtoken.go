package local

import (
	"context"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	auth "github.com/goliatone/go-auth-flows"
	goerrors "github.com/goliatone/go-errors"
)

// IdentityClaims are read from federated id tokens.
type IdentityClaims struct {
	jwt.RegisteredClaims
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name,omitempty"`
	Picture       string `json:"picture,omitempty"`
}

// IDTokenVerifier checks federated id tokens presented with OAuthToken
// credentials.
type IDTokenVerifier interface {
	Verify(ctx context.Context, rawToken string) (*IdentityClaims, error)
}

// KeyfuncVerifier verifies id tokens against a JSON Web Key Set.
type KeyfuncVerifier struct {
	jwks     *keyfunc.JWKS
	issuer   string
	audience string
	now      func() time.Time
}

var _ IDTokenVerifier = (*KeyfuncVerifier)(nil)

// NewJWKSVerifier fetches the key set at url and keeps it refreshed in the
// background until Close is called or ctx ends.
func NewJWKSVerifier(ctx context.Context, url, issuer, audience string, logger auth.Logger) (*KeyfuncVerifier, error) {
	if logger == nil {
		logger = auth.DefaultLogger()
	}

	jwks, err := keyfunc.Get(url, keyfunc.Options{
		Ctx: ctx,
		RefreshErrorHandler: func(err error) {
			logger.Warn("failed to do a background refresh of JWT set", "url", url, "error", err)
		},
		RefreshInterval:   time.Hour,
		RefreshRateLimit:  time.Minute * 5,
		RefreshTimeout:    time.Second * 10,
		RefreshUnknownKID: true,
	})
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryExternal, "failed to load JWK set")
	}

	return &KeyfuncVerifier{
		jwks:     jwks,
		issuer:   issuer,
		audience: audience,
		now:      time.Now,
	}, nil
}

// NewGivenKeysVerifier verifies id tokens against a fixed set of keys
// indexed by key id.
func NewGivenKeysVerifier(keys map[string]keyfunc.GivenKey, issuer, audience string) *KeyfuncVerifier {
	return &KeyfuncVerifier{
		jwks:     keyfunc.NewGiven(keys),
		issuer:   issuer,
		audience: audience,
		now:      time.Now,
	}
}

// WithClock replaces the clock used for expiry checks.
func (v *KeyfuncVerifier) WithClock(now func() time.Time) *KeyfuncVerifier {
	if now != nil {
		v.now = now
	}
	return v
}

func (v *KeyfuncVerifier) Verify(ctx context.Context, rawToken string) (*IdentityClaims, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	opts := []jwt.ParserOption{
		jwt.WithTimeFunc(v.now),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	claims := &IdentityClaims{}
	token, err := jwt.ParseWithClaims(rawToken, claims, v.jwks.Keyfunc, opts...)
	if err != nil {
		return nil, withCause(ErrInvalidCredential, err)
	}
	if !token.Valid || claims.Email == "" {
		return nil, withMetadata(ErrInvalidCredential, map[string]any{"reason": "missing email claim"})
	}
	return claims, nil
}

// Close stops the background key refresh.
func (v *KeyfuncVerifier) Close() {
	if v.jwks != nil {
		v.jwks.EndBackground()
	}
}
