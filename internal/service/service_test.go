package service

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/stackedapp/stacked-server/internal/auth"
	"github.com/stackedapp/stacked-server/internal/config"
	"github.com/stackedapp/stacked-server/internal/domain"
	"github.com/stackedapp/stacked-server/internal/id"
	"github.com/stackedapp/stacked-server/internal/store"
	"github.com/stackedapp/stacked-server/internal/store/ledger"
)

// testEnv wires the full service graph over temporary storage.
type testEnv struct {
	store         *store.Store
	ledger        *ledger.Store
	atoms         *AtomService
	triples       *TripleService
	stacks        *StackService
	stakes        *LedgerService
	signals       *SignalService
	feed          *FeedService
	profiles      *ProfileService
	notifications *NotificationService
	inbox         *InboxService
	auth          *AuthService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dir := t.TempDir()
	logger := slog.New(slog.DiscardHandler)

	entityStore, err := store.New(filepath.Join(dir, "entities"), nil, store.NewNoopEmitter())
	require.NoError(t, err)

	ledgerStore, err := ledger.Open(filepath.Join(dir, "ledger.db"), logger)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = ledgerStore.Close()
		_ = entityStore.Close()
	})

	signalSvc := NewSignalService(entityStore, ledgerStore, config.SignalsConfig{}, nil, logger)
	notificationSvc := NewNotificationService(entityStore, nil, logger)
	atomSvc := NewAtomService(entityStore, nil, logger)

	tokens, err := auth.NewTokenService(
		"000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f", time.Hour)
	require.NoError(t, err)

	return &testEnv{
		store:         entityStore,
		ledger:        ledgerStore,
		atoms:         atomSvc,
		triples:       NewTripleService(entityStore, atomSvc, nil, logger),
		stacks:        NewStackService(entityStore, ledgerStore, atomSvc, signalSvc, notificationSvc, nil, logger),
		stakes:        NewLedgerService(entityStore, ledgerStore, nil, signalSvc, notificationSvc, nil, logger),
		signals:       signalSvc,
		feed:          NewFeedService(entityStore, ledgerStore, logger),
		profiles:      NewProfileService(entityStore, notificationSvc, nil, logger),
		notifications: notificationSvc,
		inbox:         NewInboxService(entityStore, notificationSvc, nil, logger),
		auth:          NewAuthService(entityStore, tokens, logger),
	}
}

func (env *testEnv) createUser(t *testing.T, username string) *domain.User {
	t.Helper()
	userID := id.MustGenerate(id.PrefixUser)
	user := &domain.User{
		ID:           userID,
		Email:        username + "@example.com",
		Username:     username,
		DisplayName:  username,
		FollowingIDs: []string{},
		CreatedAt:    time.Now(),
	}
	require.NoError(t, env.store.Users.Create(context.Background(), userID, user))
	return user
}

func (env *testEnv) createAtom(t *testing.T, label string) *domain.Atom {
	t.Helper()
	atom, err := env.atoms.CreateAtom(context.Background(), CreateAtomParams{
		Label: label,
		Type:  domain.AtomConcept,
	})
	require.NoError(t, err)
	return atom
}

func (env *testEnv) createStack(t *testing.T, creatorID, title string, labels ...string) *domain.Stack {
	t.Helper()
	items := make([]NewItemParams, len(labels))
	for i, label := range labels {
		items[i] = NewItemParams{Label: label}
	}
	stack, err := env.stacks.CreateStack(context.Background(), creatorID, CreateStackParams{
		Title:    title,
		Category: domain.CategoryBlockchain,
		Items:    items,
	})
	require.NoError(t, err)
	return stack
}
