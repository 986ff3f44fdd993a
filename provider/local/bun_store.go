package local

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// BunStore is an AccountStore backed by a SQL database through Bun.
type BunStore struct {
	db       *bun.DB
	accounts repository.Repository[*Account]
}

var _ AccountStore = (*BunStore)(nil)

// NewBunStore wraps db. Call Migrate before first use on an empty
// database.
func NewBunStore(db *bun.DB) *BunStore {
	accounts := repository.NewRepository[*Account](db, repository.ModelHandlers[*Account]{
		NewRecord: func() *Account {
			return &Account{}
		},
		GetID: func(a *Account) uuid.UUID {
			if a == nil {
				return uuid.Nil
			}
			return a.ID
		},
		SetID: func(a *Account, id uuid.UUID) {
			if a != nil {
				a.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	return &BunStore{
		db:       db,
		accounts: accounts,
	}
}

// OpenSQLite opens a SQLite database through the sqlite shim driver.
func OpenSQLite(dsn string) (*bun.DB, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to open sqlite database")
	}
	sqldb.SetMaxOpenConns(1)
	return bun.NewDB(sqldb, sqlitedialect.New()), nil
}

// Migrate creates the store tables when they do not exist.
func (s *BunStore) Migrate(ctx context.Context) error {
	models := []any{
		(*Account)(nil),
		(*RefreshGrant)(nil),
		(*ActionCode)(nil),
	}
	for _, model := range models {
		if _, err := s.db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create table")
		}
	}
	return nil
}

func (s *BunStore) CreateAccount(ctx context.Context, account *Account) error {
	account.Email = normalizeEmail(account.Email)
	now := time.Now()
	if account.CreatedAt.IsZero() {
		account.CreatedAt = now
	}
	account.UpdatedAt = now

	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := s.accountByEmail(ctx, tx, account.Email); err == nil {
			return withMetadata(ErrEmailAlreadyInUse, map[string]any{"email": account.Email})
		} else if !isNotFound(err) {
			return err
		}

		if _, err := s.accounts.CreateTx(ctx, tx, account); err != nil {
			if isUniqueViolation(err) {
				return withCause(ErrEmailAlreadyInUse, err)
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create account")
		}
		return nil
	})
}

func (s *BunStore) AccountByID(ctx context.Context, id uuid.UUID) (*Account, error) {
	account, err := s.accounts.GetByID(ctx, id.String())
	if err != nil {
		if isNotFound(err) {
			return nil, withMetadata(ErrUserNotFound, map[string]any{"id": id.String()})
		}
		return nil, err
	}
	return account, nil
}

func (s *BunStore) AccountByEmail(ctx context.Context, email string) (*Account, error) {
	account, err := s.accountByEmail(ctx, s.db, normalizeEmail(email))
	if err != nil {
		if isNotFound(err) {
			return nil, withMetadata(ErrUserNotFound, map[string]any{"email": email})
		}
		return nil, err
	}
	return account, nil
}

func (s *BunStore) accountByEmail(ctx context.Context, db bun.IDB, email string) (*Account, error) {
	record := &Account{}
	err := db.NewSelect().
		Model(record).
		Where("?TableAlias.email = ?", email).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (s *BunStore) UpdateAccount(ctx context.Context, account *Account) error {
	account.Email = normalizeEmail(account.Email)
	account.UpdatedAt = time.Now()

	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		owner, err := s.accountByEmail(ctx, tx, account.Email)
		if err == nil && owner.ID != account.ID {
			return withMetadata(ErrEmailAlreadyInUse, map[string]any{"email": account.Email})
		}
		if err != nil && !isNotFound(err) {
			return err
		}

		res, err := tx.NewUpdate().
			Model(account).
			ExcludeColumn("created_at").
			WherePK().
			Exec(ctx)
		if err != nil {
			if isUniqueViolation(err) {
				return withCause(ErrEmailAlreadyInUse, err)
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update account")
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return withMetadata(ErrUserNotFound, map[string]any{"id": account.ID.String()})
		}
		return nil
	})
}

func (s *BunStore) DeleteAccount(ctx context.Context, id uuid.UUID) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().
			Model((*RefreshGrant)(nil)).
			Where("account_id = ?", id).
			Exec(ctx); err != nil {
			return err
		}

		if _, err := tx.NewDelete().
			Model((*ActionCode)(nil)).
			Where("account_id = ?", id).
			Exec(ctx); err != nil {
			return err
		}

		res, err := tx.NewDelete().
			Model((*Account)(nil)).
			Where("id = ?", id).
			Exec(ctx)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return withMetadata(ErrUserNotFound, map[string]any{"id": id.String()})
		}
		return nil
	})
}

func (s *BunStore) SaveRefreshGrant(ctx context.Context, grant *RefreshGrant) error {
	if grant.CreatedAt.IsZero() {
		grant.CreatedAt = time.Now()
	}
	_, err := s.db.NewInsert().Model(grant).Exec(ctx)
	return err
}

func (s *BunStore) ConsumeRefreshGrant(ctx context.Context, token string, now time.Time) (*RefreshGrant, error) {
	grant := &RefreshGrant{}
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := tx.NewSelect().
			Model(grant).
			Where("token = ?", token).
			Limit(1).
			Scan(ctx); err != nil {
			if isNotFound(err) {
				return ErrUserTokenExpired
			}
			return err
		}

		if err := grant.usable(now); err != nil {
			return err
		}

		res, err := tx.NewUpdate().
			Model((*RefreshGrant)(nil)).
			Set("revoked_at = ?", now).
			Where("token = ?", token).
			Where("revoked_at IS NULL").
			Exec(ctx)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrUserTokenExpired
		}

		grant.RevokedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}
	return grant, nil
}

func (s *BunStore) RevokeRefreshGrants(ctx context.Context, accountID uuid.UUID, now time.Time) error {
	_, err := s.db.NewUpdate().
		Model((*RefreshGrant)(nil)).
		Set("revoked_at = ?", now).
		Where("account_id = ?", accountID).
		Where("revoked_at IS NULL").
		Exec(ctx)
	return err
}

func (s *BunStore) SaveActionCode(ctx context.Context, code *ActionCode) error {
	if code.CreatedAt.IsZero() {
		code.CreatedAt = time.Now()
	}
	_, err := s.db.NewInsert().Model(code).Exec(ctx)
	return err
}

func (s *BunStore) ConsumeActionCode(ctx context.Context, code string, purpose CodePurpose, now time.Time) (*ActionCode, error) {
	record := &ActionCode{}
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := tx.NewSelect().
			Model(record).
			Where("code = ?", code).
			Limit(1).
			Scan(ctx); err != nil {
			if isNotFound(err) {
				return ErrInvalidActionCode
			}
			return err
		}

		if err := record.usable(purpose, now); err != nil {
			return err
		}

		res, err := tx.NewUpdate().
			Model((*ActionCode)(nil)).
			Set("used_at = ?", now).
			Where("code = ?", code).
			Where("used_at IS NULL").
			Exec(ctx)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrInvalidActionCode
		}

		record.UsedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

func isNotFound(err error) bool {
	return repository.IsRecordNotFound(err) || errors.Is(err, sql.ErrNoRows)
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "unique constraint")
}
