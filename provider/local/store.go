package local

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// AccountStore persists accounts, refresh grants and action codes. Lookups
// that find nothing return ErrUserNotFound; consuming an unusable grant or
// code returns the matching backend error.
type AccountStore interface {
	CreateAccount(ctx context.Context, account *Account) error
	AccountByID(ctx context.Context, id uuid.UUID) (*Account, error)
	AccountByEmail(ctx context.Context, email string) (*Account, error)
	UpdateAccount(ctx context.Context, account *Account) error
	DeleteAccount(ctx context.Context, id uuid.UUID) error

	SaveRefreshGrant(ctx context.Context, grant *RefreshGrant) error
	// ConsumeRefreshGrant revokes the grant and returns it when it was
	// still usable at now.
	ConsumeRefreshGrant(ctx context.Context, token string, now time.Time) (*RefreshGrant, error)
	RevokeRefreshGrants(ctx context.Context, accountID uuid.UUID, now time.Time) error

	SaveActionCode(ctx context.Context, code *ActionCode) error
	// ConsumeActionCode marks the code used and returns it when it matches
	// purpose and was still usable at now.
	ConsumeActionCode(ctx context.Context, code string, purpose CodePurpose, now time.Time) (*ActionCode, error)
}

// MemoryStore is an in process AccountStore.
type MemoryStore struct {
	mu       sync.RWMutex
	accounts map[uuid.UUID]*Account
	byEmail  map[string]uuid.UUID
	grants   map[string]*RefreshGrant
	codes    map[string]*ActionCode
}

var _ AccountStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		accounts: make(map[uuid.UUID]*Account),
		byEmail:  make(map[string]uuid.UUID),
		grants:   make(map[string]*RefreshGrant),
		codes:    make(map[string]*ActionCode),
	}
}

func (s *MemoryStore) CreateAccount(ctx context.Context, account *Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	email := normalizeEmail(account.Email)
	if _, exists := s.byEmail[email]; exists {
		return withMetadata(ErrEmailAlreadyInUse, map[string]any{"email": email})
	}
	if _, exists := s.accounts[account.ID]; exists {
		return withMetadata(ErrEmailAlreadyInUse, map[string]any{"id": account.ID.String()})
	}

	now := time.Now()
	if account.CreatedAt.IsZero() {
		account.CreatedAt = now
	}
	account.UpdatedAt = now
	account.Email = email

	s.accounts[account.ID] = account.Clone()
	s.byEmail[email] = account.ID
	return nil
}

func (s *MemoryStore) AccountByID(ctx context.Context, id uuid.UUID) (*Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	account, ok := s.accounts[id]
	if !ok {
		return nil, withMetadata(ErrUserNotFound, map[string]any{"id": id.String()})
	}
	return account.Clone(), nil
}

func (s *MemoryStore) AccountByEmail(ctx context.Context, email string) (*Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[normalizeEmail(email)]
	if !ok {
		return nil, withMetadata(ErrUserNotFound, map[string]any{"email": email})
	}
	return s.accounts[id].Clone(), nil
}

func (s *MemoryStore) UpdateAccount(ctx context.Context, account *Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.accounts[account.ID]
	if !ok {
		return withMetadata(ErrUserNotFound, map[string]any{"id": account.ID.String()})
	}

	email := normalizeEmail(account.Email)
	if email != existing.Email {
		if owner, taken := s.byEmail[email]; taken && owner != account.ID {
			return withMetadata(ErrEmailAlreadyInUse, map[string]any{"email": email})
		}
		delete(s.byEmail, existing.Email)
		s.byEmail[email] = account.ID
	}

	account.Email = email
	account.CreatedAt = existing.CreatedAt
	account.UpdatedAt = time.Now()
	s.accounts[account.ID] = account.Clone()
	return nil
}

func (s *MemoryStore) DeleteAccount(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[id]
	if !ok {
		return withMetadata(ErrUserNotFound, map[string]any{"id": id.String()})
	}
	delete(s.byEmail, account.Email)
	delete(s.accounts, id)

	for token, grant := range s.grants {
		if grant.AccountID == id {
			delete(s.grants, token)
		}
	}
	for code, ac := range s.codes {
		if ac.AccountID == id {
			delete(s.codes, code)
		}
	}
	return nil
}

func (s *MemoryStore) SaveRefreshGrant(ctx context.Context, grant *RefreshGrant) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	g := *grant
	s.grants[grant.Token] = &g
	return nil
}

func (s *MemoryStore) ConsumeRefreshGrant(ctx context.Context, token string, now time.Time) (*RefreshGrant, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	grant, ok := s.grants[token]
	if !ok {
		return nil, ErrUserTokenExpired
	}
	if err := grant.usable(now); err != nil {
		return nil, err
	}

	revoked := now
	grant.RevokedAt = &revoked
	out := *grant
	return &out, nil
}

func (s *MemoryStore) RevokeRefreshGrants(ctx context.Context, accountID uuid.UUID, now time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, grant := range s.grants {
		if grant.AccountID == accountID && grant.RevokedAt == nil {
			revoked := now
			grant.RevokedAt = &revoked
		}
	}
	return nil
}

func (s *MemoryStore) SaveActionCode(ctx context.Context, code *ActionCode) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c := *code
	s.codes[code.Code] = &c
	return nil
}

func (s *MemoryStore) ConsumeActionCode(ctx context.Context, code string, purpose CodePurpose, now time.Time) (*ActionCode, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ac, ok := s.codes[code]
	if !ok {
		return nil, ErrInvalidActionCode
	}
	if err := ac.usable(purpose, now); err != nil {
		return nil, err
	}

	used := now
	ac.UsedAt = &used
	out := *ac
	return &out, nil
}
