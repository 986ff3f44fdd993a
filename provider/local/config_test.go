package local_test

import (
	"testing"
	"time"

	"github.com/goliatone/go-auth-flows/provider/local"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	cfg, err := local.LoadConfig(map[string]string{
		"AUTHFLOW_LOCAL_SIGNING_KEY":                testSigningKey,
		"AUTHFLOW_LOCAL_AUDIENCE":                   "web,mobile",
		"AUTHFLOW_LOCAL_ACCESS_TOKEN_TTL":           "15m",
		"AUTHFLOW_LOCAL_REQUIRE_EMAIL_VERIFICATION": "true",
		"AUTHFLOW_LOCAL_MIN_PASSWORD_LENGTH":        "10",
	})
	require.NoError(t, err)

	assert.Equal(t, "local", cfg.ProviderID)
	assert.Equal(t, "go-auth-flows", cfg.Issuer)
	assert.Equal(t, []string{"web", "mobile"}, cfg.Audience)
	assert.Equal(t, 15*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, 720*time.Hour, cfg.RefreshTokenTTL)
	assert.True(t, cfg.RequireEmailVerification)
	assert.Equal(t, 10, cfg.MinPasswordLength)
	assert.Equal(t, 10, cfg.BcryptCost)
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		environ map[string]string
	}{
		{
			name:    "missing signing key",
			environ: map[string]string{},
		},
		{
			name: "short signing key",
			environ: map[string]string{
				"AUTHFLOW_LOCAL_SIGNING_KEY": "short",
			},
		},
		{
			name: "invalid jwks url",
			environ: map[string]string{
				"AUTHFLOW_LOCAL_SIGNING_KEY": testSigningKey,
				"AUTHFLOW_LOCAL_JWKS_URL":    "not a url",
			},
		},
		{
			name: "invalid duration",
			environ: map[string]string{
				"AUTHFLOW_LOCAL_SIGNING_KEY":      testSigningKey,
				"AUTHFLOW_LOCAL_ACCESS_TOKEN_TTL": "soon",
			},
		},
		{
			name: "password length below minimum",
			environ: map[string]string{
				"AUTHFLOW_LOCAL_SIGNING_KEY":         testSigningKey,
				"AUTHFLOW_LOCAL_MIN_PASSWORD_LENGTH": "4",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := local.LoadConfig(tt.environ)
			assert.Error(t, err)
		})
	}
}

func TestDefaultConfigNeedsSigningKey(t *testing.T) {
	cfg := local.DefaultConfig()
	assert.Error(t, cfg.Validate())

	cfg.SigningKey = testSigningKey
	assert.NoError(t, cfg.Validate())
}
