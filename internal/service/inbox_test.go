package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/stackedapp/stacked-server/internal/errors"
	"github.com/stackedapp/stacked-server/internal/store"
)

func TestInboxThreadLifecycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")

	thread, err := env.inbox.EnsureThread(ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	// Same pair in either order resolves to the same thread.
	again, err := env.inbox.EnsureThread(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, thread.ID, again.ID)

	msg, err := env.inbox.SendMessage(ctx, alice.ID, thread.ID, "hey bob")
	require.NoError(t, err)
	assert.Equal(t, thread.ID, msg.ThreadID)

	_, err = env.inbox.SendMessage(ctx, alice.ID, thread.ID, "you there?")
	require.NoError(t, err)

	// Bob's inbox shows the thread with two unread.
	threads, err := env.inbox.ListThreads(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, threads, 1)
	assert.Equal(t, 2, threads[0].UnreadCounts[bob.ID])
	assert.Equal(t, 0, threads[0].UnreadCounts[alice.ID])

	total, err := env.inbox.UnreadTotal(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, total)

	// Reading the thread returns messages oldest first and clears unread.
	messages, err := env.inbox.Messages(ctx, bob.ID, thread.ID)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "hey bob", messages[0].Content)

	total, err = env.inbox.UnreadTotal(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, total)
}

func TestInboxAccessControl(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")
	eve := env.createUser(t, "eve")

	thread, err := env.inbox.EnsureThread(ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	_, err = env.inbox.Messages(ctx, eve.ID, thread.ID)
	var domainErr *domainerrors.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domainerrors.CodeForbidden, domainErr.Code)

	_, err = env.inbox.SendMessage(ctx, eve.ID, thread.ID, "let me in")
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domainerrors.CodeForbidden, domainErr.Code)
}

func TestSendMessageValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")

	thread, err := env.inbox.EnsureThread(ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	_, err = env.inbox.SendMessage(ctx, alice.ID, thread.ID, "")
	var domainErr *domainerrors.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domainerrors.CodeValidation, domainErr.Code)
}

func TestEnsureThreadUnknownUser(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice")

	_, err := env.inbox.EnsureThread(context.Background(), alice.ID, "user-missing")
	require.Error(t, err)
}

func TestNotificationMarkRead(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")

	_, err := env.profiles.Follow(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	stack := env.createStack(t, alice.ID, "Money", "Bitcoin", "Gold")
	_, err = env.stakes.RecordStake(ctx, bob.ID, StakeParams{
		TargetType: "stack", TargetID: stack.ID, Amount: 10,
	})
	require.NoError(t, err)

	list, err := env.notifications.List(ctx, alice.ID, store.PaginationParams{Limit: 10})
	require.NoError(t, err)
	require.Len(t, list.Items, 2)

	// Only the recipient may mark a notification.
	_, err = env.notifications.MarkRead(ctx, bob.ID, list.Items[0].ID)
	var domainErr *domainerrors.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domainerrors.CodeForbidden, domainErr.Code)

	marked, err := env.notifications.MarkRead(ctx, alice.ID, list.Items[0].ID)
	require.NoError(t, err)
	assert.True(t, marked.Read)

	unread, err := env.notifications.UnreadCount(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, unread)

	count, err := env.notifications.MarkAllRead(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	unread, err = env.notifications.UnreadCount(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, unread)
}
