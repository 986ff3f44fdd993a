package local

import (
	"context"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	auth "github.com/goliatone/go-auth-flows"
	"github.com/goliatone/go-auth-flows/stream"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// Option customizes a Provider.
type Option func(*Provider)

// WithStore sets the account store. The default is an in memory store.
func WithStore(store AccountStore) Option {
	return func(p *Provider) {
		if store != nil {
			p.store = store
		}
	}
}

// WithMailer sets the action code mailer. The default logs codes.
func WithMailer(mailer Mailer) Option {
	return func(p *Provider) {
		if mailer != nil {
			p.mailer = mailer
		}
	}
}

// WithLogger sets the provider logger.
func WithLogger(logger auth.Logger) Option {
	return func(p *Provider) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithClock injects a custom clock (useful for tests).
func WithClock(now func() time.Time) Option {
	return func(p *Provider) {
		if now != nil {
			p.now = now
		}
	}
}

// WithIDTokenVerifier enables OAuthToken sign in.
func WithIDTokenVerifier(verifier IDTokenVerifier) Option {
	return func(p *Provider) {
		p.idTokens = verifier
	}
}

// WithThrottle replaces the sign in throttle built from the config.
func WithThrottle(throttle *Throttle) Option {
	return func(p *Provider) {
		p.throttle = throttle
	}
}

const (
	opApplyEmailVerification auth.Operation = "apply_email_verification"
	opSetDisabled            auth.Operation = "set_disabled"
	opVerifyIDToken          auth.Operation = "verify_id_token"
)

type currentUser struct {
	accountID    uuid.UUID
	accessToken  string
	refreshToken string
	expiresAt    time.Time
	authTime     time.Time
}

// Provider is a self contained identity backend implementing
// auth.Provider. It tracks a single signed in user, the way client SDKs of
// hosted identity services do.
type Provider struct {
	cfg      Config
	store    AccountStore
	tokens   *TokenIssuer
	idTokens IDTokenVerifier
	mailer   Mailer
	throttle *Throttle
	logger   auth.Logger
	now      func() time.Time
	states   *stream.Broadcaster[auth.AuthState]

	ownedVerifier *KeyfuncVerifier

	mu      sync.Mutex
	current *currentUser
}

var _ auth.Provider = (*Provider)(nil)

// NewProvider validates cfg and builds a provider.
func NewProvider(cfg Config, opts ...Option) (*Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid local provider config")
	}

	p := &Provider{
		cfg:    cfg,
		store:  NewMemoryStore(),
		logger: auth.DefaultLogger(),
		now:    time.Now,
		states: stream.NewBroadcaster[auth.AuthState](auth.Unauthenticated{}),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}

	if p.mailer == nil {
		p.mailer = LogMailer{Logger: p.logger}
	}
	if p.throttle == nil && cfg.SignInRate > 0 {
		p.throttle = NewThrottle(rate.Limit(cfg.SignInRate), cfg.SignInBurst, p.now)
	}
	p.tokens = NewTokenIssuer(cfg, p.logger, p.now)

	if p.idTokens == nil && cfg.JWKSURL != "" {
		verifier, err := NewJWKSVerifier(context.Background(), cfg.JWKSURL, cfg.OAuthIssuer, cfg.OAuthAudience, p.logger)
		if err != nil {
			return nil, err
		}
		p.idTokens = verifier.WithClock(p.now)
		p.ownedVerifier = verifier
	}

	return p, nil
}

// Close ends every auth state stream and stops background key refresh.
func (p *Provider) Close() {
	p.states.Close()
	if p.ownedVerifier != nil {
		p.ownedVerifier.Close()
	}
}

func (p *Provider) ID() string {
	return p.cfg.ProviderID
}

func (p *Provider) SignIn(ctx context.Context, credentials auth.Credentials) auth.AuthResult {
	if err := ctx.Err(); err != nil {
		return p.fail(auth.OperationSignIn, err)
	}

	switch c := credentials.(type) {
	case auth.EmailPassword:
		return p.signInWithPassword(ctx, c)
	case auth.OAuthToken:
		return p.signInWithIDToken(ctx, c)
	case auth.RefreshToken:
		session, err := p.refreshWith(ctx, c.Token, nil)
		if err != nil {
			return p.fail(auth.OperationSignIn, err)
		}
		return auth.Success{Session: session}
	default:
		return p.fail(auth.OperationSignIn, ErrOperationNotAllowed)
	}
}

func (p *Provider) signInWithPassword(ctx context.Context, c auth.EmailPassword) auth.AuthResult {
	email, err := p.checkEmail(c.Email)
	if err != nil {
		return p.fail(auth.OperationSignIn, err)
	}

	if !p.throttle.Allow(email) {
		p.logger.Warn("sign in throttled", "email", email)
		return p.fail(auth.OperationSignIn, ErrTooManyRequests)
	}

	account, err := p.store.AccountByEmail(ctx, email)
	if err != nil {
		return p.fail(auth.OperationSignIn, err)
	}
	if account.Disabled {
		return p.fail(auth.OperationSignIn, ErrUserDisabled)
	}
	if err := ComparePassword(c.Password, account.PasswordHash); err != nil {
		return p.fail(auth.OperationSignIn, err)
	}
	p.throttle.Reset(email)

	if p.cfg.RequireEmailVerification && !account.EmailVerified {
		p.sendVerification(ctx, account)
		return auth.RequiresEmailVerification{}
	}

	session, err := p.establish(ctx, account, p.now())
	if err != nil {
		return p.fail(auth.OperationSignIn, err)
	}
	return auth.Success{Session: session}
}

func (p *Provider) signInWithIDToken(ctx context.Context, c auth.OAuthToken) auth.AuthResult {
	if p.idTokens == nil {
		return p.fail(auth.OperationSignIn, ErrOperationNotAllowed)
	}

	claims, err := p.idTokens.Verify(ctx, c.IDToken)
	if err != nil {
		return p.fail(auth.OperationSignIn, err)
	}

	email := normalizeEmail(claims.Email)
	account, err := p.store.AccountByEmail(ctx, email)
	if err != nil {
		if !isUserNotFound(err) {
			return p.fail(auth.OperationSignIn, err)
		}

		account = &Account{
			ID:            p.newAccountID(email),
			Email:         email,
			DisplayName:   claims.Name,
			PhotoURL:      claims.Picture,
			PasswordHash:  randomPasswordHash(p.cfg.BcryptCost),
			EmailVerified: claims.EmailVerified,
			Metadata: map[string]string{
				"federated_provider": c.ProviderID,
				"federated_subject":  claims.Subject,
			},
		}
		if err := p.store.CreateAccount(ctx, account); err != nil {
			return p.fail(auth.OperationSignIn, err)
		}
		p.logger.Info("federated account created", "email", email, "provider", c.ProviderID)
	}

	if account.Disabled {
		return p.fail(auth.OperationSignIn, ErrUserDisabled)
	}

	session, err := p.establish(ctx, account, p.now())
	if err != nil {
		return p.fail(auth.OperationSignIn, err)
	}
	return auth.Success{Session: session}
}

func (p *Provider) SignUp(ctx context.Context, data auth.SignUpData) auth.AuthResult {
	if err := ctx.Err(); err != nil {
		return p.fail(auth.OperationSignUp, err)
	}

	email, err := p.checkEmail(data.Email)
	if err != nil {
		return p.fail(auth.OperationSignUp, err)
	}
	if err := p.checkPassword(data.Password); err != nil {
		return p.fail(auth.OperationSignUp, err)
	}

	hash, err := HashPassword(data.Password, p.cfg.BcryptCost)
	if err != nil {
		return p.fail(auth.OperationSignUp, err)
	}

	account := &Account{
		ID:           p.newAccountID(email),
		Email:        email,
		DisplayName:  strings.TrimSpace(data.DisplayName),
		PhotoURL:     data.PhotoURL,
		PasswordHash: hash,
		Metadata:     cloneMetadata(data.Metadata),
	}
	if err := p.store.CreateAccount(ctx, account); err != nil {
		return p.fail(auth.OperationSignUp, err)
	}
	p.logger.Info("account created", "email", email, "id", account.ID)

	if p.cfg.RequireEmailVerification {
		p.sendVerification(ctx, account)
		return auth.RequiresEmailVerification{}
	}

	session, err := p.establish(ctx, account, p.now())
	if err != nil {
		return p.fail(auth.OperationSignUp, err)
	}
	return auth.Success{Session: session}
}

func (p *Provider) SignOut(ctx context.Context) error {
	cur := p.takeCurrent()
	if cur == nil {
		return nil
	}

	if _, err := p.store.ConsumeRefreshGrant(ctx, cur.refreshToken, p.now()); err != nil {
		p.logger.Debug("refresh grant already unusable on sign out", "error", err)
	}
	p.states.Publish(auth.Unauthenticated{})
	return nil
}

func (p *Provider) SendPasswordResetEmail(ctx context.Context, email string) auth.AuthResult {
	if err := ctx.Err(); err != nil {
		return p.fail(auth.OperationSendPasswordResetEmail, err)
	}

	email, err := p.checkEmail(email)
	if err != nil {
		return p.fail(auth.OperationSendPasswordResetEmail, err)
	}
	if !p.throttle.Allow("reset:" + email) {
		return p.fail(auth.OperationSendPasswordResetEmail, ErrTooManyRequests)
	}

	account, err := p.store.AccountByEmail(ctx, email)
	if err != nil {
		return p.fail(auth.OperationSendPasswordResetEmail, err)
	}

	code := newActionCode(account, PurposePasswordReset, p.now().Add(p.cfg.ResetCodeTTL))
	if err := p.store.SaveActionCode(ctx, code); err != nil {
		return p.fail(auth.OperationSendPasswordResetEmail, err)
	}
	if err := p.mailer.SendPasswordReset(ctx, account.Email, code.Code); err != nil {
		return p.fail(auth.OperationSendPasswordResetEmail, deliveryError(err))
	}
	return auth.PasswordResetSent{}
}

func (p *Provider) ConfirmPasswordReset(ctx context.Context, code, newPassword string) auth.AuthResult {
	if err := ctx.Err(); err != nil {
		return p.fail(auth.OperationConfirmPasswordReset, err)
	}

	// The strength check runs first so a rejected password does not burn
	// the code.
	if err := p.checkPassword(newPassword); err != nil {
		return p.fail(auth.OperationConfirmPasswordReset, err)
	}

	now := p.now()
	ac, err := p.store.ConsumeActionCode(ctx, strings.TrimSpace(code), PurposePasswordReset, now)
	if err != nil {
		return p.fail(auth.OperationConfirmPasswordReset, err)
	}

	account, err := p.store.AccountByID(ctx, ac.AccountID)
	if err != nil {
		return p.fail(auth.OperationConfirmPasswordReset, err)
	}

	hash, err := HashPassword(newPassword, p.cfg.BcryptCost)
	if err != nil {
		return p.fail(auth.OperationConfirmPasswordReset, err)
	}
	account.PasswordHash = hash
	// Receiving the code proves ownership of the address.
	account.EmailVerified = true
	if err := p.store.UpdateAccount(ctx, account); err != nil {
		return p.fail(auth.OperationConfirmPasswordReset, err)
	}

	if err := p.store.RevokeRefreshGrants(ctx, account.ID, now); err != nil {
		p.logger.Warn("failed to revoke refresh grants after password reset", "id", account.ID, "error", err)
	}
	if cur := p.currentSnapshot(); cur != nil && cur.accountID == account.ID {
		p.takeCurrent()
		p.states.Publish(auth.Unauthenticated{})
	}
	return auth.PasswordResetSuccess{}
}

// ObserveAuthState emits Loading followed by the provider state and every
// later change. The channel closes when ctx ends or the provider closes.
func (p *Provider) ObserveAuthState(ctx context.Context) <-chan auth.AuthState {
	out := make(chan auth.AuthState, 1)
	out <- auth.Loading{}

	src := p.states.Subscribe(ctx)
	go func() {
		defer close(out)
		for state := range src {
			select {
			case out <- state:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

func (p *Provider) RefreshSession(ctx context.Context) auth.AuthResult {
	if err := ctx.Err(); err != nil {
		return p.fail(auth.OperationRefreshSession, err)
	}

	cur := p.currentSnapshot()
	if cur == nil {
		return p.fail(auth.OperationRefreshSession, ErrNoCurrentUser)
	}

	session, err := p.refreshWith(ctx, cur.refreshToken, cur)
	if err != nil {
		return p.fail(auth.OperationRefreshSession, sessionExpired(err))
	}
	return auth.Success{Session: session}
}

func (p *Provider) IsSignedIn(context.Context) bool {
	return p.currentSnapshot() != nil
}

func (p *Provider) GetIDToken(ctx context.Context, forceRefresh bool) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", p.failErr(auth.OperationGetIDToken, err)
	}

	cur := p.currentSnapshot()
	if cur == nil {
		return "", p.failErr(auth.OperationGetIDToken, ErrNoCurrentUser)
	}
	if !forceRefresh && p.now().Before(cur.expiresAt) {
		return cur.accessToken, nil
	}

	session, err := p.refreshWith(ctx, cur.refreshToken, cur)
	if err != nil {
		return "", p.failErr(auth.OperationGetIDToken, sessionExpired(err))
	}
	return session.AccessToken, nil
}

// VerifyIDToken validates an access token issued by this provider.
func (p *Provider) VerifyIDToken(token string) (*Claims, error) {
	claims, err := p.tokens.Validate(token)
	if err != nil {
		return nil, p.failErr(opVerifyIDToken, err)
	}
	return claims, nil
}

func (p *Provider) DeleteAccount(ctx context.Context) error {
	cur, err := p.requireRecentLogin()
	if err != nil {
		return p.failErr(auth.OperationDeleteAccount, err)
	}

	if err := p.store.DeleteAccount(ctx, cur.accountID); err != nil {
		return p.failErr(auth.OperationDeleteAccount, err)
	}
	p.logger.Info("account deleted", "id", cur.accountID)

	p.takeCurrent()
	p.states.Publish(auth.Unauthenticated{})
	return nil
}

func (p *Provider) UpdateDisplayName(ctx context.Context, displayName string) error {
	err := p.mutateAccount(ctx, func(account *Account) error {
		account.DisplayName = strings.TrimSpace(displayName)
		return nil
	})
	if err != nil {
		return p.failErr(auth.OperationUpdateDisplayName, err)
	}
	return nil
}

func (p *Provider) UpdateEmail(ctx context.Context, email string) error {
	normalized, err := p.checkEmail(email)
	if err != nil {
		return p.failErr(auth.OperationUpdateEmail, err)
	}
	if _, err := p.requireRecentLogin(); err != nil {
		return p.failErr(auth.OperationUpdateEmail, err)
	}

	err = p.mutateAccount(ctx, func(account *Account) error {
		if account.Email == normalized {
			return nil
		}
		account.Email = normalized
		account.EmailVerified = false
		return nil
	})
	if err != nil {
		return p.failErr(auth.OperationUpdateEmail, err)
	}
	return nil
}

func (p *Provider) UpdatePassword(ctx context.Context, password string) error {
	if err := p.checkPassword(password); err != nil {
		return p.failErr(auth.OperationUpdatePassword, err)
	}
	if _, err := p.requireRecentLogin(); err != nil {
		return p.failErr(auth.OperationUpdatePassword, err)
	}

	hash, err := HashPassword(password, p.cfg.BcryptCost)
	if err != nil {
		return p.failErr(auth.OperationUpdatePassword, err)
	}
	err = p.mutateAccount(ctx, func(account *Account) error {
		account.PasswordHash = hash
		return nil
	})
	if err != nil {
		return p.failErr(auth.OperationUpdatePassword, err)
	}
	return nil
}

func (p *Provider) SendEmailVerification(ctx context.Context) error {
	cur := p.currentSnapshot()
	if cur == nil {
		return p.failErr(auth.OperationSendEmailVerification, ErrNoCurrentUser)
	}

	account, err := p.store.AccountByID(ctx, cur.accountID)
	if err != nil {
		return p.failErr(auth.OperationSendEmailVerification, err)
	}
	if account.EmailVerified {
		return nil
	}

	code := newActionCode(account, PurposeEmailVerification, p.now().Add(p.cfg.VerificationCodeTTL))
	if err := p.store.SaveActionCode(ctx, code); err != nil {
		return p.failErr(auth.OperationSendEmailVerification, err)
	}
	if err := p.mailer.SendEmailVerification(ctx, account.Email, code.Code); err != nil {
		return p.failErr(auth.OperationSendEmailVerification, deliveryError(err))
	}
	return nil
}

// ApplyEmailVerification consumes a verification code and marks the
// account email as verified.
func (p *Provider) ApplyEmailVerification(ctx context.Context, code string) error {
	ac, err := p.store.ConsumeActionCode(ctx, strings.TrimSpace(code), PurposeEmailVerification, p.now())
	if err != nil {
		return p.failErr(opApplyEmailVerification, err)
	}

	account, err := p.store.AccountByID(ctx, ac.AccountID)
	if err != nil {
		return p.failErr(opApplyEmailVerification, err)
	}
	if account.Email != ac.Email {
		return p.failErr(opApplyEmailVerification, ErrInvalidActionCode)
	}

	account.EmailVerified = true
	if err := p.store.UpdateAccount(ctx, account); err != nil {
		return p.failErr(opApplyEmailVerification, err)
	}
	p.republish(account)
	return nil
}

func (p *Provider) Reauthenticate(ctx context.Context, credentials auth.Credentials) auth.AuthResult {
	if err := ctx.Err(); err != nil {
		return p.fail(auth.OperationReauthenticate, err)
	}

	cur := p.currentSnapshot()
	if cur == nil {
		return p.fail(auth.OperationReauthenticate, ErrNoCurrentUser)
	}

	account, err := p.store.AccountByID(ctx, cur.accountID)
	if err != nil {
		return p.fail(auth.OperationReauthenticate, err)
	}

	switch c := credentials.(type) {
	case auth.EmailPassword:
		if normalizeEmail(c.Email) != account.Email {
			return p.fail(auth.OperationReauthenticate, withMetadata(ErrInvalidCredential, map[string]any{"reason": "user mismatch"}))
		}
		if err := ComparePassword(c.Password, account.PasswordHash); err != nil {
			return p.fail(auth.OperationReauthenticate, err)
		}
	case auth.OAuthToken:
		if p.idTokens == nil {
			return p.fail(auth.OperationReauthenticate, ErrOperationNotAllowed)
		}
		claims, err := p.idTokens.Verify(ctx, c.IDToken)
		if err != nil {
			return p.fail(auth.OperationReauthenticate, err)
		}
		if normalizeEmail(claims.Email) != account.Email {
			return p.fail(auth.OperationReauthenticate, withMetadata(ErrInvalidCredential, map[string]any{"reason": "user mismatch"}))
		}
	default:
		return p.fail(auth.OperationReauthenticate, ErrOperationNotAllowed)
	}

	session, err := p.establish(ctx, account, p.now())
	if err != nil {
		return p.fail(auth.OperationReauthenticate, err)
	}
	return auth.Success{Session: session}
}

// SetDisabled enables or disables the account registered with email. A
// disabled account that is currently signed in is signed out.
func (p *Provider) SetDisabled(ctx context.Context, email string, disabled bool) error {
	account, err := p.store.AccountByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return p.failErr(opSetDisabled, err)
	}

	account.Disabled = disabled
	if err := p.store.UpdateAccount(ctx, account); err != nil {
		return p.failErr(opSetDisabled, err)
	}

	if !disabled {
		return nil
	}
	if err := p.store.RevokeRefreshGrants(ctx, account.ID, p.now()); err != nil {
		return p.failErr(opSetDisabled, err)
	}
	if cur := p.currentSnapshot(); cur != nil && cur.accountID == account.ID {
		p.takeCurrent()
		p.states.Publish(auth.Unauthenticated{})
	}
	return nil
}

// establish issues fresh credentials for account, makes it the current
// user and publishes the new state.
func (p *Provider) establish(ctx context.Context, account *Account, authTime time.Time) (auth.UserSession, error) {
	now := p.now()

	accessToken, expiresAt, err := p.tokens.Issue(account, authTime)
	if err != nil {
		return auth.EmptySession, err
	}

	grant := newRefreshGrant(account.ID, authTime, now.Add(p.cfg.RefreshTokenTTL))
	if err := p.store.SaveRefreshGrant(ctx, grant); err != nil {
		return auth.EmptySession, err
	}

	account.LastSignInAt = &now
	if err := p.store.UpdateAccount(ctx, account); err != nil {
		return auth.EmptySession, err
	}

	p.mu.Lock()
	p.current = &currentUser{
		accountID:    account.ID,
		accessToken:  accessToken,
		refreshToken: grant.Token,
		expiresAt:    expiresAt,
		authTime:     authTime,
	}
	p.mu.Unlock()

	session := sessionFor(p.ID(), account, accessToken, grant.Token, expiresAt)
	p.states.Publish(auth.Authenticated{Session: session})
	return session, nil
}

// refreshWith rotates token. When prev is the current user and the grant
// is unusable or was consumed by a failed rotation, the user is signed out.
func (p *Provider) refreshWith(ctx context.Context, token string, prev *currentUser) (auth.UserSession, error) {
	grant, err := p.store.ConsumeRefreshGrant(ctx, token, p.now())
	if err != nil {
		if prev != nil && isTokenExpired(err) {
			p.signOutCurrent(prev)
		}
		return auth.EmptySession, err
	}

	session, err := p.rotate(ctx, grant)
	if err != nil {
		if prev != nil {
			p.signOutCurrent(prev)
		}
		return auth.EmptySession, err
	}
	return session, nil
}

func (p *Provider) rotate(ctx context.Context, grant *RefreshGrant) (auth.UserSession, error) {
	account, err := p.store.AccountByID(ctx, grant.AccountID)
	if err != nil {
		return auth.EmptySession, err
	}
	if account.Disabled {
		return auth.EmptySession, ErrUserDisabled
	}
	return p.establish(ctx, account, grant.AuthTime)
}

// signOutCurrent clears prev when it is still the current user.
func (p *Provider) signOutCurrent(prev *currentUser) {
	p.mu.Lock()
	matches := p.current != nil && p.current.refreshToken == prev.refreshToken
	if matches {
		p.current = nil
	}
	p.mu.Unlock()

	if matches {
		p.states.Publish(auth.Unauthenticated{})
	}
}

func (p *Provider) mutateAccount(ctx context.Context, fn func(*Account) error) error {
	cur := p.currentSnapshot()
	if cur == nil {
		return ErrNoCurrentUser
	}

	account, err := p.store.AccountByID(ctx, cur.accountID)
	if err != nil {
		return err
	}
	if err := fn(account); err != nil {
		return err
	}
	if err := p.store.UpdateAccount(ctx, account); err != nil {
		return err
	}
	p.republish(account)
	return nil
}

// republish refreshes the observed session when account is the current
// user.
func (p *Provider) republish(account *Account) {
	cur := p.currentSnapshot()
	if cur == nil || cur.accountID != account.ID {
		return
	}
	p.states.Publish(auth.Authenticated{
		Session: sessionFor(p.ID(), account, cur.accessToken, cur.refreshToken, cur.expiresAt),
	})
}

func (p *Provider) requireRecentLogin() (*currentUser, error) {
	cur := p.currentSnapshot()
	if cur == nil {
		return nil, ErrNoCurrentUser
	}
	window := p.cfg.RecentLoginWindow
	if window > 0 && p.now().Sub(cur.authTime) > window {
		return nil, ErrRequiresRecentLogin
	}
	return cur, nil
}

func (p *Provider) sendVerification(ctx context.Context, account *Account) {
	code := newActionCode(account, PurposeEmailVerification, p.now().Add(p.cfg.VerificationCodeTTL))
	if err := p.store.SaveActionCode(ctx, code); err != nil {
		p.logger.Warn("failed to store verification code", "email", account.Email, "error", err)
		return
	}
	if err := p.mailer.SendEmailVerification(ctx, account.Email, code.Code); err != nil {
		p.logger.Warn("failed to send verification email", "email", account.Email, "error", err)
	}
}

func (p *Provider) currentSnapshot() *currentUser {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil {
		return nil
	}
	cur := *p.current
	return &cur
}

func (p *Provider) takeCurrent() *currentUser {
	p.mu.Lock()
	defer p.mu.Unlock()
	cur := p.current
	p.current = nil
	return cur
}

func (p *Provider) checkEmail(email string) (string, error) {
	normalized := normalizeEmail(email)
	if err := validation.Validate(normalized, validation.Required, is.Email); err != nil {
		return "", withCause(ErrInvalidEmail, err)
	}
	return normalized, nil
}

func (p *Provider) checkPassword(password string) error {
	if utf8.RuneCountInString(password) < p.cfg.MinPasswordLength {
		return withMetadata(ErrWeakPassword, map[string]any{"min_length": p.cfg.MinPasswordLength})
	}
	return nil
}

func (p *Provider) newAccountID(email string) uuid.UUID {
	if p.cfg.DeterministicIDs {
		if id, err := hashid.NewUUID(email); err == nil {
			return id
		}
	}
	return uuid.New()
}

func (p *Provider) fail(op auth.Operation, err error) auth.Failure {
	failure := auth.Fail(err)
	p.logger.Debug("local provider operation failed",
		"operation", op,
		"kind", failure.Err.Kind,
		"error", err,
	)
	return failure
}

// failErr maps err for the plain error returning operations so only
// *auth.AuthError values leave the provider.
func (p *Provider) failErr(op auth.Operation, err error) error {
	return p.fail(op, err).Err
}

// sessionExpired reports any refresh failure as an expired session and
// keeps err as the cause.
func sessionExpired(err error) error {
	mapped := auth.MapError(err)
	if mapped.Kind == auth.KindSessionExpired {
		return mapped
	}
	return auth.NewAuthError(auth.KindSessionExpired, "", err)
}

func deliveryError(err error) *goerrors.Error {
	return goerrors.Wrap(err, goerrors.CategoryExternal, "failed to deliver email").
		WithTextCode(TextCodeNetworkFailed)
}

func isUserNotFound(err error) bool {
	var rich *goerrors.Error
	return goerrors.As(err, &rich) && rich.TextCode == TextCodeUserNotFound
}

func isTokenExpired(err error) bool {
	var rich *goerrors.Error
	return goerrors.As(err, &rich) && rich.TextCode == TextCodeUserTokenExpired
}

func cloneMetadata(in map[string]string) map[string]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
