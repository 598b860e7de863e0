package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/stackedapp/stacked-server/internal/errors"
)

func TestRegisterAndLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	result, err := env.auth.Register(ctx, RegisterParams{
		Email:    "alice@example.com",
		Username: "alice",
		Password: "correct horse battery",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
	assert.Equal(t, "alice", result.User.Username)
	assert.Equal(t, "alice", result.User.DisplayName, "display name defaults to username")
	assert.NotEmpty(t, result.User.PasswordHash)
	assert.NotEqual(t, "correct horse battery", result.User.PasswordHash)

	login, err := env.auth.Login(ctx, "alice@example.com", "correct horse battery")
	require.NoError(t, err)
	assert.Equal(t, result.User.ID, login.User.ID)
	assert.NotEmpty(t, login.Token)
	assert.NotEmpty(t, login.User.PasswordHash, "hash survives the store round-trip")

	// Email lookup is case-insensitive.
	_, err = env.auth.Login(ctx, "ALICE@Example.COM", "correct horse battery")
	require.NoError(t, err)
}

func TestRegisterValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.auth.Register(ctx, RegisterParams{
		Email: "a@example.com", Username: "a", Password: "short",
	})
	var domainErr *domainerrors.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domainerrors.CodeValidation, domainErr.Code)

	_, err = env.auth.Register(ctx, RegisterParams{
		Email: "a@example.com", Password: "long enough password",
	})
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domainerrors.CodeValidation, domainErr.Code)
}

func TestRegisterDuplicate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.auth.Register(ctx, RegisterParams{
		Email: "alice@example.com", Username: "alice", Password: "password123",
	})
	require.NoError(t, err)

	_, err = env.auth.Register(ctx, RegisterParams{
		Email: "Alice@Example.com", Username: "alice2", Password: "password123",
	})
	var domainErr *domainerrors.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domainerrors.CodeAlreadyExists, domainErr.Code, "email uniqueness ignores case")

	_, err = env.auth.Register(ctx, RegisterParams{
		Email: "other@example.com", Username: "ALICE", Password: "password123",
	})
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domainerrors.CodeAlreadyExists, domainErr.Code, "username uniqueness ignores case")
}

func TestLoginFailuresLookAlike(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.auth.Register(ctx, RegisterParams{
		Email: "alice@example.com", Username: "alice", Password: "password123",
	})
	require.NoError(t, err)

	_, wrongPassword := env.auth.Login(ctx, "alice@example.com", "wrong")
	_, unknownEmail := env.auth.Login(ctx, "nobody@example.com", "password123")

	var errA, errB *domainerrors.Error
	require.ErrorAs(t, wrongPassword, &errA)
	require.ErrorAs(t, unknownEmail, &errB)
	assert.Equal(t, domainerrors.CodeInvalidCredentials, errA.Code)
	assert.Equal(t, errA.Code, errB.Code)
	assert.Equal(t, errA.Message, errB.Message, "failures do not reveal account existence")
}

func TestMe(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	result, err := env.auth.Register(ctx, RegisterParams{
		Email: "alice@example.com", Username: "alice", Password: "password123",
	})
	require.NoError(t, err)

	me, err := env.auth.Me(ctx, result.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", me.Username)

	_, err = env.auth.Me(ctx, "user-missing")
	require.Error(t, err)
}
