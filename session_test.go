package auth_test

import (
	"testing"
	"time"

	auth "github.com/goliatone/go-auth-flows"
	"github.com/stretchr/testify/assert"
)

func TestEmptySessionNeverExpires(t *testing.T) {
	assert.False(t, auth.EmptySession.IsAuthenticated())
	assert.False(t, auth.EmptySession.IsExpired(time.Now().Add(100*365*24*time.Hour)))
	assert.Zero(t, auth.EmptySession.ExpiresAtMillis())
}

func TestSessionExpiry(t *testing.T) {
	expires := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	session := auth.UserSession{UserID: "u1", ExpiresAt: &expires}

	assert.False(t, session.IsExpired(expires))
	assert.False(t, session.IsExpired(expires.Add(-time.Second)))
	assert.True(t, session.IsExpired(expires.Add(time.Millisecond)))
	assert.Equal(t, expires.UnixMilli(), session.ExpiresAtMillis())
}

func TestSessionClone(t *testing.T) {
	expires := time.Now()
	session := auth.UserSession{
		UserID:    "u1",
		ExpiresAt: &expires,
		Metadata:  map[string]string{"plan": "pro"},
	}

	clone := session.Clone()
	clone.Metadata["plan"] = "free"
	*clone.ExpiresAt = expires.Add(time.Hour)

	assert.Equal(t, "pro", session.Metadata["plan"])
	assert.Equal(t, expires, *session.ExpiresAt)
	assert.Equal(t, "u1", clone.UserID)
}

func TestStateFromSession(t *testing.T) {
	assert.Equal(t, auth.Unauthenticated{}, auth.StateFromSession(auth.EmptySession))

	session := auth.UserSession{UserID: "u1"}
	assert.Equal(t, auth.Authenticated{Session: session}, auth.StateFromSession(session))
	assert.Equal(t, "authenticated", auth.StateName(auth.StateFromSession(session)))
}
