package local_test

import (
	"context"
	"testing"
	"time"

	"github.com/goliatone/go-auth-flows/provider/local"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountStores(t *testing.T) {
	stores := map[string]func(t *testing.T) local.AccountStore{
		"memory": func(t *testing.T) local.AccountStore {
			return local.NewMemoryStore()
		},
		"bun": func(t *testing.T) local.AccountStore {
			db, err := local.OpenSQLite(":memory:")
			require.NoError(t, err)
			t.Cleanup(func() { db.Close() })

			store := local.NewBunStore(db)
			require.NoError(t, store.Migrate(context.Background()))
			return store
		},
	}

	for name, newStore := range stores {
		t.Run(name, func(t *testing.T) {
			t.Run("accounts", func(t *testing.T) { testStoreAccounts(t, newStore(t)) })
			t.Run("refresh grants", func(t *testing.T) { testStoreRefreshGrants(t, newStore(t)) })
			t.Run("action codes", func(t *testing.T) { testStoreActionCodes(t, newStore(t)) })
			t.Run("delete cascades", func(t *testing.T) { testStoreDeleteCascades(t, newStore(t)) })
		})
	}
}

func testStoreAccounts(t *testing.T, store local.AccountStore) {
	ctx := context.Background()

	account := newStoredAccount("Test@Example.com")
	account.Metadata = map[string]string{"plan": "free"}
	require.NoError(t, store.CreateAccount(ctx, account))

	byEmail, err := store.AccountByEmail(ctx, "test@example.com")
	require.NoError(t, err)
	assert.Equal(t, account.ID, byEmail.ID)
	assert.Equal(t, "test@example.com", byEmail.Email)
	assert.Equal(t, "free", byEmail.Metadata["plan"])

	byID, err := store.AccountByID(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, byEmail.Email, byID.Email)

	err = store.CreateAccount(ctx, newStoredAccount("TEST@example.com"))
	assert.Equal(t, local.TextCodeEmailAlreadyInUse, textCode(err))

	_, err = store.AccountByEmail(ctx, "missing@example.com")
	assert.Equal(t, local.TextCodeUserNotFound, textCode(err))

	_, err = store.AccountByID(ctx, uuid.New())
	assert.Equal(t, local.TextCodeUserNotFound, textCode(err))

	other := newStoredAccount("other@example.com")
	require.NoError(t, store.CreateAccount(ctx, other))

	byID.DisplayName = "Renamed"
	byID.EmailVerified = true
	require.NoError(t, store.UpdateAccount(ctx, byID))

	updated, err := store.AccountByID(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.DisplayName)
	assert.True(t, updated.EmailVerified)

	updated.Email = "other@example.com"
	assert.Equal(t, local.TextCodeEmailAlreadyInUse, textCode(store.UpdateAccount(ctx, updated)))

	updated.Email = "moved@example.com"
	require.NoError(t, store.UpdateAccount(ctx, updated))
	_, err = store.AccountByEmail(ctx, "test@example.com")
	assert.Equal(t, local.TextCodeUserNotFound, textCode(err))
	moved, err := store.AccountByEmail(ctx, "moved@example.com")
	require.NoError(t, err)
	assert.Equal(t, account.ID, moved.ID)

	assert.Equal(t, local.TextCodeUserNotFound, textCode(store.UpdateAccount(ctx, newStoredAccount("ghost@example.com"))))
	assert.Equal(t, local.TextCodeUserNotFound, textCode(store.DeleteAccount(ctx, uuid.New())))
}

func testStoreRefreshGrants(t *testing.T, store local.AccountStore) {
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	account := newStoredAccount("test@example.com")
	require.NoError(t, store.CreateAccount(ctx, account))

	grant := &local.RefreshGrant{
		Token:     uuid.NewString(),
		AccountID: account.ID,
		AuthTime:  now,
		ExpiresAt: now.Add(time.Hour),
	}
	require.NoError(t, store.SaveRefreshGrant(ctx, grant))

	consumed, err := store.ConsumeRefreshGrant(ctx, grant.Token, now.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, account.ID, consumed.AccountID)
	assert.True(t, consumed.AuthTime.Equal(now))
	require.NotNil(t, consumed.RevokedAt)

	_, err = store.ConsumeRefreshGrant(ctx, grant.Token, now.Add(time.Minute))
	assert.Equal(t, local.TextCodeUserTokenExpired, textCode(err))

	_, err = store.ConsumeRefreshGrant(ctx, "missing", now)
	assert.Equal(t, local.TextCodeUserTokenExpired, textCode(err))

	expiring := &local.RefreshGrant{
		Token:     uuid.NewString(),
		AccountID: account.ID,
		AuthTime:  now,
		ExpiresAt: now.Add(time.Hour),
	}
	require.NoError(t, store.SaveRefreshGrant(ctx, expiring))
	_, err = store.ConsumeRefreshGrant(ctx, expiring.Token, now.Add(time.Hour))
	assert.Equal(t, local.TextCodeUserTokenExpired, textCode(err))

	revoked := &local.RefreshGrant{
		Token:     uuid.NewString(),
		AccountID: account.ID,
		AuthTime:  now,
		ExpiresAt: now.Add(time.Hour),
	}
	require.NoError(t, store.SaveRefreshGrant(ctx, revoked))
	require.NoError(t, store.RevokeRefreshGrants(ctx, account.ID, now))
	_, err = store.ConsumeRefreshGrant(ctx, revoked.Token, now.Add(time.Second))
	assert.Equal(t, local.TextCodeUserTokenExpired, textCode(err))
}

func testStoreActionCodes(t *testing.T, store local.AccountStore) {
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	account := newStoredAccount("test@example.com")
	require.NoError(t, store.CreateAccount(ctx, account))

	code := &local.ActionCode{
		Code:      "RESET1",
		AccountID: account.ID,
		Purpose:   local.PurposePasswordReset,
		Email:     account.Email,
		ExpiresAt: now.Add(time.Hour),
	}
	require.NoError(t, store.SaveActionCode(ctx, code))

	_, err := store.ConsumeActionCode(ctx, "RESET1", local.PurposeEmailVerification, now)
	assert.Equal(t, local.TextCodeInvalidActionCode, textCode(err))

	consumed, err := store.ConsumeActionCode(ctx, "RESET1", local.PurposePasswordReset, now)
	require.NoError(t, err)
	assert.Equal(t, account.ID, consumed.AccountID)
	assert.Equal(t, "test@example.com", consumed.Email)

	_, err = store.ConsumeActionCode(ctx, "RESET1", local.PurposePasswordReset, now)
	assert.Equal(t, local.TextCodeInvalidActionCode, textCode(err))

	_, err = store.ConsumeActionCode(ctx, "MISSING", local.PurposePasswordReset, now)
	assert.Equal(t, local.TextCodeInvalidActionCode, textCode(err))

	stale := &local.ActionCode{
		Code:      "RESET2",
		AccountID: account.ID,
		Purpose:   local.PurposePasswordReset,
		Email:     account.Email,
		ExpiresAt: now.Add(time.Hour),
	}
	require.NoError(t, store.SaveActionCode(ctx, stale))
	_, err = store.ConsumeActionCode(ctx, "RESET2", local.PurposePasswordReset, now.Add(2*time.Hour))
	assert.Equal(t, local.TextCodeExpiredActionCode, textCode(err))
}

func testStoreDeleteCascades(t *testing.T, store local.AccountStore) {
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	account := newStoredAccount("test@example.com")
	require.NoError(t, store.CreateAccount(ctx, account))

	grant := &local.RefreshGrant{
		Token:     uuid.NewString(),
		AccountID: account.ID,
		AuthTime:  now,
		ExpiresAt: now.Add(time.Hour),
	}
	require.NoError(t, store.SaveRefreshGrant(ctx, grant))
	require.NoError(t, store.SaveActionCode(ctx, &local.ActionCode{
		Code:      "VERIFY1",
		AccountID: account.ID,
		Purpose:   local.PurposeEmailVerification,
		Email:     account.Email,
		ExpiresAt: now.Add(time.Hour),
	}))

	require.NoError(t, store.DeleteAccount(ctx, account.ID))

	_, err := store.AccountByID(ctx, account.ID)
	assert.Equal(t, local.TextCodeUserNotFound, textCode(err))

	_, err = store.ConsumeRefreshGrant(ctx, grant.Token, now)
	assert.Equal(t, local.TextCodeUserTokenExpired, textCode(err))

	_, err = store.ConsumeActionCode(ctx, "VERIFY1", local.PurposeEmailVerification, now)
	assert.Equal(t, local.TextCodeInvalidActionCode, textCode(err))

	require.NoError(t, store.CreateAccount(ctx, newStoredAccount("test@example.com")))
}

func newStoredAccount(email string) *local.Account {
	return &local.Account{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: "hash",
	}
}

func textCode(err error) string {
	var rich *goerrors.Error
	if goerrors.As(err, &rich) {
		return rich.TextCode
	}
	return ""
}
