package local

import (
	"strings"
	"time"

	auth "github.com/goliatone/go-auth-flows"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Account is a user record of the local backend.
type Account struct {
	bun.BaseModel `bun:"table:accounts,alias:acc"`
	ID            uuid.UUID         `bun:"id,pk,type:uuid" json:"id"`
	Email         string            `bun:"email,notnull,unique" json:"email"`
	DisplayName   string            `bun:"display_name" json:"display_name,omitempty"`
	PhotoURL      string            `bun:"photo_url" json:"photo_url,omitempty"`
	PasswordHash  string            `bun:"password_hash" json:"-"`
	EmailVerified bool              `bun:"is_email_verified,notnull" json:"is_email_verified"`
	Disabled      bool              `bun:"disabled,notnull" json:"disabled"`
	Metadata      map[string]string `bun:"metadata" json:"metadata,omitempty"`
	LastSignInAt  *time.Time        `bun:"last_sign_in_at,nullzero" json:"last_sign_in_at,omitempty"`
	CreatedAt     time.Time         `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt     time.Time         `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at"`
}

// Clone returns a deep copy of the account.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	out := *a
	if a.Metadata != nil {
		out.Metadata = make(map[string]string, len(a.Metadata))
		for k, v := range a.Metadata {
			out.Metadata[k] = v
		}
	}
	if a.LastSignInAt != nil {
		t := *a.LastSignInAt
		out.LastSignInAt = &t
	}
	return &out
}

// RefreshGrant is an opaque, single use refresh token.
type RefreshGrant struct {
	bun.BaseModel `bun:"table:refresh_grants,alias:rg"`
	Token         string     `bun:"token,pk"`
	AccountID     uuid.UUID  `bun:"account_id,notnull,type:uuid"`
	AuthTime      time.Time  `bun:"auth_time,notnull"`
	ExpiresAt     time.Time  `bun:"expires_at,notnull"`
	RevokedAt     *time.Time `bun:"revoked_at,nullzero"`
	CreatedAt     time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

func (g *RefreshGrant) usable(now time.Time) error {
	if g == nil || g.RevokedAt != nil || !now.Before(g.ExpiresAt) {
		return ErrUserTokenExpired
	}
	return nil
}

// CodePurpose tells what an action code unlocks.
type CodePurpose string

const (
	PurposePasswordReset     CodePurpose = "password_reset"
	PurposeEmailVerification CodePurpose = "email_verification"
)

// ActionCode is an out of band, single use code delivered by email.
type ActionCode struct {
	bun.BaseModel `bun:"table:action_codes,alias:ac"`
	Code          string      `bun:"code,pk"`
	AccountID     uuid.UUID   `bun:"account_id,notnull,type:uuid"`
	Purpose       CodePurpose `bun:"purpose,notnull"`
	Email         string      `bun:"email,notnull"`
	ExpiresAt     time.Time   `bun:"expires_at,notnull"`
	UsedAt        *time.Time  `bun:"used_at,nullzero"`
	CreatedAt     time.Time   `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

func (c *ActionCode) usable(purpose CodePurpose, now time.Time) error {
	if c == nil || c.UsedAt != nil || c.Purpose != purpose {
		return ErrInvalidActionCode
	}
	if !now.Before(c.ExpiresAt) {
		return ErrExpiredActionCode
	}
	return nil
}

func newRefreshGrant(accountID uuid.UUID, authTime, expiresAt time.Time) *RefreshGrant {
	return &RefreshGrant{
		Token:     uuid.NewString(),
		AccountID: accountID,
		AuthTime:  authTime,
		ExpiresAt: expiresAt,
	}
}

func newActionCode(account *Account, purpose CodePurpose, expiresAt time.Time) *ActionCode {
	return &ActionCode{
		Code:      strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")),
		AccountID: account.ID,
		Purpose:   purpose,
		Email:     account.Email,
		ExpiresAt: expiresAt,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// sessionFor projects an account and its credentials into the shared
// session model.
func sessionFor(providerID string, account *Account, accessToken, refreshToken string, expiresAt time.Time) auth.UserSession {
	session := auth.UserSession{
		UserID:          account.ID.String(),
		Email:           account.Email,
		DisplayName:     account.DisplayName,
		PhotoURL:        account.PhotoURL,
		IsEmailVerified: account.EmailVerified,
		ProviderID:      providerID,
		AccessToken:     accessToken,
		RefreshToken:    refreshToken,
		ExpiresAt:       &expiresAt,
	}
	if len(account.Metadata) > 0 {
		session.Metadata = make(map[string]string, len(account.Metadata))
		for k, v := range account.Metadata {
			session.Metadata[k] = v
		}
	}
	return session
}
