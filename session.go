package auth

import (
	"time"
)

// UserSession is a snapshot of the authenticated user as reported by a
// Provider. Optional values are empty strings when the backend has none.
type UserSession struct {
	UserID          string            `json:"user_id"`
	Email           string            `json:"email,omitempty"`
	DisplayName     string            `json:"display_name,omitempty"`
	PhotoURL        string            `json:"photo_url,omitempty"`
	IsEmailVerified bool              `json:"is_email_verified"`
	ProviderID      string            `json:"provider_id"`
	AccessToken     string            `json:"access_token,omitempty"`
	RefreshToken    string            `json:"refresh_token,omitempty"`
	ExpiresAt       *time.Time        `json:"expires_at,omitempty"`
	Metadata        map[string]string `json:"metadata,omitempty"`
}

// EmptySession is the unauthenticated sentinel.
var EmptySession = UserSession{}

// IsAuthenticated reports whether the session belongs to a user.
func (s UserSession) IsAuthenticated() bool {
	return s.UserID != ""
}

// IsExpired reports whether now is past the session expiry. Sessions
// without an expiry never expire.
func (s UserSession) IsExpired(now time.Time) bool {
	return s.ExpiresAt != nil && now.After(*s.ExpiresAt)
}

// ExpiresAtMillis returns the expiry as unix milliseconds, or 0 when unset.
func (s UserSession) ExpiresAtMillis() int64 {
	if s.ExpiresAt == nil {
		return 0
	}
	return s.ExpiresAt.UnixMilli()
}

// Clone returns a copy that shares no mutable state with s.
func (s UserSession) Clone() UserSession {
	out := s
	if s.ExpiresAt != nil {
		t := *s.ExpiresAt
		out.ExpiresAt = &t
	}
	if s.Metadata != nil {
		out.Metadata = make(map[string]string, len(s.Metadata))
		for k, v := range s.Metadata {
			out.Metadata[k] = v
		}
	}
	return out
}
