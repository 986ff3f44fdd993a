package local

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	auth "github.com/goliatone/go-auth-flows"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// Claims are carried by access tokens issued by the local backend.
type Claims struct {
	jwt.RegisteredClaims
	Email         string `json:"email,omitempty"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name,omitempty"`
	Picture       string `json:"picture,omitempty"`
	ProviderID    string `json:"provider_id,omitempty"`
	AuthTime      int64  `json:"auth_time,omitempty"`
}

// TokenIssuer signs and validates HS256 access tokens.
type TokenIssuer struct {
	signingKey []byte
	ttl        time.Duration
	issuer     string
	audience   jwt.ClaimStrings
	providerID string
	logger     auth.Logger
	now        func() time.Time
}

// NewTokenIssuer creates an issuer from cfg.
func NewTokenIssuer(cfg Config, logger auth.Logger, now func() time.Time) *TokenIssuer {
	if logger == nil {
		logger = auth.DefaultLogger()
	}
	if now == nil {
		now = time.Now
	}

	var aud jwt.ClaimStrings
	if len(cfg.Audience) > 0 {
		aud = make(jwt.ClaimStrings, len(cfg.Audience))
		copy(aud, cfg.Audience)
	}

	return &TokenIssuer{
		signingKey: []byte(cfg.SigningKey),
		ttl:        cfg.AccessTokenTTL,
		issuer:     cfg.Issuer,
		audience:   aud,
		providerID: cfg.ProviderID,
		logger:     logger,
		now:        now,
	}
}

// Issue mints an access token for account and returns it with its expiry.
func (ti *TokenIssuer) Issue(account *Account, authTime time.Time) (string, time.Time, error) {
	if account == nil {
		return "", time.Time{}, goerrors.New("account must not be nil", goerrors.CategoryInternal)
	}

	now := ti.now()
	expiresAt := now.Add(ti.ttl)
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    ti.issuer,
			Subject:   account.ID.String(),
			Audience:  ti.audience,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Email:         account.Email,
		EmailVerified: account.EmailVerified,
		Name:          account.DisplayName,
		Picture:       account.PhotoURL,
		ProviderID:    ti.providerID,
		AuthTime:      authTime.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(ti.signingKey)
	if err != nil {
		return "", time.Time{}, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to sign JWT")
	}

	// Expiry is reported at the precision the token carries.
	return signed, claims.ExpiresAt.Time, nil
}

// Validate parses tokenString and returns its claims.
func (ti *TokenIssuer) Validate(tokenString string) (*Claims, error) {
	parserOptions := []jwt.ParserOption{
		jwt.WithTimeFunc(ti.now),
		jwt.WithExpirationRequired(),
	}
	if ti.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(ti.issuer))
	}
	if len(ti.audience) > 0 {
		parserOptions = append(parserOptions, jwt.WithAudience(ti.audience[0]))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			ti.logger.Error("token issuer validate encountered unexpected signing method", "alg", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ti.signingKey, nil
	}, parserOptions...)
	if err != nil {
		if goerrors.Is(err, jwt.ErrTokenExpired) {
			return nil, withCause(ErrUserTokenExpired, err)
		}
		return nil, withCause(ErrInvalidCredential, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidCredential
	}
	return claims, nil
}
