package sse

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startTestManager(t *testing.T) *Manager {
	t.Helper()
	m := NewManager(nil)
	ctx, cancel := context.WithCancel(context.Background())
	go m.Start(ctx)
	t.Cleanup(func() {
		cancel()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Second)
		defer shutdownCancel()
		_ = m.Shutdown(shutdownCtx)
	})
	return m
}

func waitForEvent(t *testing.T, client *Client) Event {
	t.Helper()
	select {
	case event := <-client.EventChan:
		return event
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestManagerConnectDisconnect(t *testing.T) {
	m := startTestManager(t)

	client := m.Connect("user-1")
	require.NotEmpty(t, client.ID)
	assert.Equal(t, "user-1", client.UserID)
	assert.Equal(t, 1, m.ClientCount())

	m.Disconnect(client.ID)
	assert.Equal(t, 0, m.ClientCount())

	select {
	case <-client.Done:
	case <-time.After(time.Second):
		t.Fatal("client done channel not closed on disconnect")
	}

	// Unknown IDs are a no-op.
	m.Disconnect("sse_missing")
}

func TestManagerBroadcast(t *testing.T) {
	m := startTestManager(t)

	alice := m.Connect("user-alice")
	bob := m.Connect("user-bob")

	m.Emit(NewStackDeletedEvent("stack-1"))

	for _, client := range []*Client{alice, bob} {
		event := waitForEvent(t, client)
		assert.Equal(t, EventStackDeleted, event.Type)
	}
}

func TestManagerEmitToUser(t *testing.T) {
	m := startTestManager(t)

	alice := m.Connect("user-alice")
	bob := m.Connect("user-bob")

	m.EmitToUser("user-alice", NewEvent(EventNotificationCreated, nil))

	event := waitForEvent(t, alice)
	assert.Equal(t, EventNotificationCreated, event.Type)

	select {
	case event := <-bob.EventChan:
		t.Fatalf("bob received event addressed to alice: %s", event.Type)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestManagerEmitInvalidType(t *testing.T) {
	m := startTestManager(t)

	client := m.Connect("user-1")

	// Non-Event payloads are logged and dropped, never delivered.
	m.Emit("not an event")

	select {
	case event := <-client.EventChan:
		t.Fatalf("unexpected event delivered: %s", event.Type)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestManagerSlowClientSkipped(t *testing.T) {
	m := startTestManager(t)

	slow := m.Connect("user-slow")
	healthy := m.Connect("user-healthy")

	// Fill the slow client's buffer without reading.
	for range clientBufferSize + 10 {
		m.Emit(NewStackDeletedEvent("stack-1"))
	}

	// The healthy client still gets events despite the slow one.
	drained := 0
	deadline := time.After(2 * time.Second)
	for drained < clientBufferSize {
		select {
		case <-healthy.EventChan:
			drained++
		case <-deadline:
			t.Fatalf("healthy client stalled after %d events", drained)
		}
	}

	assert.Len(t, slow.EventChan, clientBufferSize)
}

func TestManagerShutdownClosesClients(t *testing.T) {
	m := NewManager(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Start(ctx)

	client := m.Connect("user-1")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Second)
	defer shutdownCancel()
	require.NoError(t, m.Shutdown(shutdownCtx))

	select {
	case <-client.Done:
	case <-time.After(time.Second):
		t.Fatal("client not closed on shutdown")
	}
	assert.Equal(t, 0, m.ClientCount())
}

func TestClientsIterator(t *testing.T) {
	m := startTestManager(t)

	m.Connect("user-1")
	m.Connect("user-2")

	seen := 0
	for range m.Clients() {
		seen++
	}
	assert.Equal(t, 2, seen)
}
