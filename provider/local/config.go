package local

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"golang.org/x/crypto/bcrypt"
)

// EnvPrefix is prepended to every environment variable read by LoadConfig.
const EnvPrefix = "AUTHFLOW_LOCAL_"

// Config controls the local identity backend.
type Config struct {
	ProviderID string `env:"PROVIDER_ID" envDefault:"local"`

	SigningKey string   `env:"SIGNING_KEY"`
	Issuer     string   `env:"ISSUER" envDefault:"go-auth-flows"`
	Audience   []string `env:"AUDIENCE" envSeparator:","`

	AccessTokenTTL      time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"1h"`
	RefreshTokenTTL     time.Duration `env:"REFRESH_TOKEN_TTL" envDefault:"720h"`
	ResetCodeTTL        time.Duration `env:"RESET_CODE_TTL" envDefault:"1h"`
	VerificationCodeTTL time.Duration `env:"VERIFICATION_CODE_TTL" envDefault:"24h"`
	RecentLoginWindow   time.Duration `env:"RECENT_LOGIN_WINDOW" envDefault:"5m"`

	RequireEmailVerification bool `env:"REQUIRE_EMAIL_VERIFICATION" envDefault:"false"`
	MinPasswordLength        int  `env:"MIN_PASSWORD_LENGTH" envDefault:"6"`
	BcryptCost               int  `env:"BCRYPT_COST" envDefault:"10"`
	DeterministicIDs         bool `env:"DETERMINISTIC_IDS" envDefault:"false"`

	// SignInRate is the sustained number of sign in attempts allowed per
	// second for a single email. Zero disables throttling.
	SignInRate  float64 `env:"SIGN_IN_RATE" envDefault:"0.2"`
	SignInBurst int     `env:"SIGN_IN_BURST" envDefault:"5"`

	JWKSURL       string `env:"JWKS_URL"`
	OAuthIssuer   string `env:"OAUTH_ISSUER"`
	OAuthAudience string `env:"OAUTH_AUDIENCE"`

	DatabaseDSN string `env:"DATABASE_DSN"`
}

// DefaultConfig returns the configuration used when no environment
// overrides are present. SigningKey is left empty and must be provided.
func DefaultConfig() Config {
	return Config{
		ProviderID:          "local",
		Issuer:              "go-auth-flows",
		AccessTokenTTL:      time.Hour,
		RefreshTokenTTL:     30 * 24 * time.Hour,
		ResetCodeTTL:        time.Hour,
		VerificationCodeTTL: 24 * time.Hour,
		RecentLoginWindow:   5 * time.Minute,
		MinPasswordLength:   6,
		BcryptCost:          bcrypt.DefaultCost,
		SignInRate:          0.2,
		SignInBurst:         5,
	}
}

// LoadConfig reads the configuration from environ, or from the process
// environment when environ is nil, and validates it.
func LoadConfig(environ map[string]string) (Config, error) {
	var cfg Config
	opts := env.Options{Prefix: EnvPrefix}
	if environ != nil {
		opts.Environment = environ
	}

	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the provider cannot run
// with.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.ProviderID, validation.Required),
		validation.Field(&c.SigningKey, validation.Required, validation.Length(16, 0)),
		validation.Field(&c.AccessTokenTTL, validation.Required, validation.Min(time.Second)),
		validation.Field(&c.RefreshTokenTTL, validation.Required, validation.Min(time.Minute)),
		validation.Field(&c.ResetCodeTTL, validation.Required, validation.Min(time.Minute)),
		validation.Field(&c.VerificationCodeTTL, validation.Required, validation.Min(time.Minute)),
		validation.Field(&c.MinPasswordLength, validation.Required, validation.Min(6)),
		validation.Field(&c.BcryptCost, validation.Required, validation.Min(bcrypt.MinCost), validation.Max(bcrypt.MaxCost)),
		validation.Field(&c.SignInRate, validation.Min(0.0)),
		validation.Field(&c.SignInBurst, validation.Min(0)),
		validation.Field(&c.JWKSURL, is.URL),
	)
}
