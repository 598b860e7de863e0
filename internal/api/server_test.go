package api

import (
	"bytes"
	"encoding/json/v2"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackedapp/stacked-server/internal/auth"
	"github.com/stackedapp/stacked-server/internal/config"
	"github.com/stackedapp/stacked-server/internal/service"
	"github.com/stackedapp/stacked-server/internal/sse"
	"github.com/stackedapp/stacked-server/internal/store"
	"github.com/stackedapp/stacked-server/internal/store/ledger"
)

const testKeyHex = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

// envelope mirrors the response wrapper with a typed data field.
type envelope[T any] struct {
	Data    T      `json:"data"`
	Error   string `json:"error"`
	Code    string `json:"code"`
	Success bool   `json:"success"`
}

// setupTestServer creates a server backed by temp stores. Search is nil;
// search endpoints are not exercised here.
func setupTestServer(t *testing.T) *Server {
	t.Helper()

	dir := t.TempDir()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	sseManager := sse.NewManager(logger)
	sseHandler := sse.NewHandler(sseManager, logger)

	entityStore, err := store.New(filepath.Join(dir, "entities"), nil, sseManager)
	require.NoError(t, err)

	ledgerStore, err := ledger.Open(filepath.Join(dir, "ledger.db"), logger)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = ledgerStore.Close()
		_ = entityStore.Close()
	})

	tokens, err := auth.NewTokenService(testKeyHex, time.Hour)
	require.NoError(t, err)

	signalSvc := service.NewSignalService(entityStore, ledgerStore, config.SignalsConfig{}, sseManager, logger)
	notificationSvc := service.NewNotificationService(entityStore, sseManager, logger)
	atomSvc := service.NewAtomService(entityStore, sseManager, logger)

	services := &Services{
		Auth:          service.NewAuthService(entityStore, tokens, logger),
		Profiles:      service.NewProfileService(entityStore, notificationSvc, sseManager, logger),
		Stacks:        service.NewStackService(entityStore, ledgerStore, atomSvc, signalSvc, notificationSvc, sseManager, logger),
		Stakes:        service.NewLedgerService(entityStore, ledgerStore, nil, signalSvc, notificationSvc, sseManager, logger),
		Atoms:         atomSvc,
		Triples:       service.NewTripleService(entityStore, atomSvc, sseManager, logger),
		Feed:          service.NewFeedService(entityStore, ledgerStore, logger),
		Notifications: notificationSvc,
		Inbox:         service.NewInboxService(entityStore, notificationSvc, sseManager, logger),
	}

	return NewServer(entityStore, services, tokens, sseHandler, nil, logger)
}

// doRequest performs a request against the server and returns the recorder.
func doRequest(t *testing.T, server *Server, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)
	return rec
}

// decodeData unmarshals the envelope's data field into T.
func decodeData[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var env envelope[T]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env.Data
}

// registerUser registers a user and returns their ID and access token.
func registerUser(t *testing.T, server *Server, username string) (userID, token string) {
	t.Helper()

	rec := doRequest(t, server, http.MethodPost, "/api/v1/auth/register", "", RegisterRequest{
		Email:    username + "@example.com",
		Username: username,
		Password: "correct-horse",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	result := decodeData[struct {
		User struct {
			ID string `json:"id"`
		} `json:"user"`
		Token string `json:"token"`
	}](t, rec)
	require.NotEmpty(t, result.Token)
	return result.User.ID, result.Token
}

func TestHealthCheck(t *testing.T) {
	server := setupTestServer(t)

	rec := doRequest(t, server, http.MethodGet, "/health", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	data := decodeData[map[string]string](t, rec)
	assert.Equal(t, "healthy", data["status"])
}

func TestAuthFlow(t *testing.T) {
	server := setupTestServer(t)
	userID, token := registerUser(t, server, "alice")

	// Login with the same credentials.
	rec := doRequest(t, server, http.MethodPost, "/api/v1/auth/login", "", LoginRequest{
		Email:    "alice@example.com",
		Password: "correct-horse",
	})
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "password_hash")

	// The token grants access to /users/me.
	rec = doRequest(t, server, http.MethodGet, "/api/v1/users/me", token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "password_hash")
	me := decodeData[struct {
		ID       string `json:"id"`
		Username string `json:"username"`
	}](t, rec)
	assert.Equal(t, userID, me.ID)
	assert.Equal(t, "alice", me.Username)
}

func TestAuthRequired(t *testing.T) {
	server := setupTestServer(t)

	for _, path := range []string{
		"/api/v1/users/me",
		"/api/v1/feed",
		"/api/v1/stacks/",
		"/api/v1/stakes/me",
		"/api/v1/notifications/",
	} {
		rec := doRequest(t, server, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}

	rec := doRequest(t, server, http.MethodGet, "/api/v1/users/me", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRegisterValidation(t *testing.T) {
	server := setupTestServer(t)

	rec := doRequest(t, server, http.MethodPost, "/api/v1/auth/register", "", RegisterRequest{
		Email:    "not-an-email",
		Username: "bob",
		Password: "correct-horse",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, server, http.MethodPost, "/api/v1/auth/register", "", RegisterRequest{
		Email:    "bob@example.com",
		Username: "bob",
		Password: "short",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStackLifecycle(t *testing.T) {
	server := setupTestServer(t)
	_, token := registerUser(t, server, "carol")

	// Create a stack from labels; atoms come into existence on first use.
	rec := doRequest(t, server, http.MethodPost, "/api/v1/stacks/", token, CreateStackRequest{
		Title:    "Top protocols",
		Category: "defi",
		Items: []StackItemRequest{
			{Label: "Uniswap"},
			{Label: "Aave"},
			{Label: "Maker"},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	created := decodeData[struct {
		ID    string `json:"id"`
		Title string `json:"title"`
		Items []struct {
			ID    string `json:"id"`
			Label string `json:"label"`
			Rank  int    `json:"rank"`
		} `json:"items"`
	}](t, rec)
	require.Len(t, created.Items, 3)
	assert.Equal(t, 1, created.Items[0].Rank)
	assert.Equal(t, "Uniswap", created.Items[0].Label)

	// Fetch it back.
	rec = doRequest(t, server, http.MethodGet, "/api/v1/stacks/"+created.ID, token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Reverse the order.
	rec = doRequest(t, server, http.MethodPut, "/api/v1/stacks/"+created.ID+"/order", token, ReorderStackRequest{
		ItemIDs: []string{created.Items[2].ID, created.Items[1].ID, created.Items[0].ID},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	reordered := decodeData[struct {
		Items []struct {
			Label string `json:"label"`
			Rank  int    `json:"rank"`
		} `json:"items"`
	}](t, rec)
	assert.Equal(t, "Maker", reordered.Items[0].Label)
	assert.Equal(t, 1, reordered.Items[0].Rank)

	// A stranger cannot delete it.
	_, otherToken := registerUser(t, server, "mallory")
	rec = doRequest(t, server, http.MethodDelete, "/api/v1/stacks/"+created.ID, otherToken, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// The creator can.
	rec = doRequest(t, server, http.MethodDelete, "/api/v1/stacks/"+created.ID, token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doRequest(t, server, http.MethodGet, "/api/v1/stacks/"+created.ID, token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStakeEndpoint(t *testing.T) {
	server := setupTestServer(t)
	_, token := registerUser(t, server, "dave")

	// Create an atom to stake on.
	rec := doRequest(t, server, http.MethodPost, "/api/v1/atoms/", token, CreateAtomRequest{
		Label: "Bitcoin",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	atom := decodeData[struct {
		ID string `json:"id"`
	}](t, rec)

	rec = doRequest(t, server, http.MethodPost, "/api/v1/stakes/", token, PlaceStakeRequest{
		TargetType: "atom",
		TargetID:   atom.ID,
		Amount:     250,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	stake := decodeData[StakeResponse](t, rec)
	assert.EqualValues(t, 250, stake.Position.Amount)
	assert.EqualValues(t, 250, stake.Totals.Total)
	assert.Equal(t, 1, stake.Totals.StakerCount)

	// Missing target is a 404, not a 500.
	rec = doRequest(t, server, http.MethodPost, "/api/v1/stakes/", token, PlaceStakeRequest{
		TargetType: "atom",
		TargetID:   "atom_missing",
		Amount:     10,
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Zero amounts never reach the ledger.
	rec = doRequest(t, server, http.MethodPost, "/api/v1/stakes/", token, PlaceStakeRequest{
		TargetType: "atom",
		TargetID:   atom.ID,
		Amount:     0,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Position history.
	rec = doRequest(t, server, http.MethodGet, "/api/v1/stakes/me", token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	positions := decodeData[[]struct {
		TargetID string `json:"target_id"`
	}](t, rec)
	require.Len(t, positions, 1)
	assert.Equal(t, atom.ID, positions[0].TargetID)
}

func TestFeedEndpoint(t *testing.T) {
	server := setupTestServer(t)
	_, token := registerUser(t, server, "erin")

	rec := doRequest(t, server, http.MethodGet, "/api/v1/feed", token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	feed := decodeData[FeedResponse](t, rec)
	assert.EqualValues(t, "all", feed.Filter)

	rec = doRequest(t, server, http.MethodGet, "/api/v1/feed?filter=bogus", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFollowEndpoints(t *testing.T) {
	server := setupTestServer(t)
	aliceID, aliceToken := registerUser(t, server, "alice")
	_, bobToken := registerUser(t, server, "bob")

	rec := doRequest(t, server, http.MethodPost, "/api/v1/users/"+aliceID+"/follow", bobToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	follower := decodeData[struct {
		FollowingIDs []string `json:"following_ids"`
	}](t, rec)
	assert.Contains(t, follower.FollowingIDs, aliceID)

	// Alice got a notification.
	rec = doRequest(t, server, http.MethodGet, "/api/v1/notifications/", aliceToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decodeData[NotificationListResponse](t, rec)
	assert.Equal(t, 1, list.UnreadCount)

	rec = doRequest(t, server, http.MethodDelete, "/api/v1/users/"+aliceID+"/follow", bobToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	follower = decodeData[struct {
		FollowingIDs []string `json:"following_ids"`
	}](t, rec)
	assert.NotContains(t, follower.FollowingIDs, aliceID)
}

func TestCategoriesEndpoint(t *testing.T) {
	server := setupTestServer(t)
	_, token := registerUser(t, server, "frank")

	rec := doRequest(t, server, http.MethodGet, "/api/v1/categories", token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	categories := decodeData[[]string](t, rec)
	assert.Contains(t, categories, "defi")
}

func TestInboxEndpoints(t *testing.T) {
	server := setupTestServer(t)
	_, aliceToken := registerUser(t, server, "alice")
	bobID, bobToken := registerUser(t, server, "bob")

	// Alice opens a thread with Bob.
	rec := doRequest(t, server, http.MethodPost, "/api/v1/inbox/", aliceToken, EnsureThreadRequest{
		ParticipantID: bobID,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	thread := decodeData[struct {
		ID string `json:"id"`
	}](t, rec)

	rec = doRequest(t, server, http.MethodPost, "/api/v1/inbox/"+thread.ID+"/messages", aliceToken, SendMessageRequest{
		Content: "have you seen the new ranking?",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	// Bob sees one unread thread.
	rec = doRequest(t, server, http.MethodGet, "/api/v1/inbox/", bobToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	inbox := decodeData[InboxResponse](t, rec)
	require.Len(t, inbox.Threads, 1)
	assert.Equal(t, 1, inbox.UnreadTotal)

	// Reading the thread clears the counter.
	rec = doRequest(t, server, http.MethodGet, "/api/v1/inbox/"+thread.ID+"/messages", bobToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	messages := decodeData[[]struct {
		Content string `json:"content"`
	}](t, rec)
	require.Len(t, messages, 1)

	rec = doRequest(t, server, http.MethodGet, "/api/v1/inbox/", bobToken, nil)
	inbox = decodeData[InboxResponse](t, rec)
	assert.Equal(t, 0, inbox.UnreadTotal)

	// A third user cannot read the thread.
	_, eveToken := registerUser(t, server, "eve")
	rec = doRequest(t, server, http.MethodGet, "/api/v1/inbox/"+thread.ID+"/messages", eveToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestTripleEndpoints(t *testing.T) {
	server := setupTestServer(t)
	_, token := registerUser(t, server, "grace")

	rec := doRequest(t, server, http.MethodPost, "/api/v1/triples/", token, CreateTripleRequest{
		Subject:   TripleTermRequest{Label: "Ethereum"},
		Predicate: TripleTermRequest{Label: "is"},
		Object:    TripleTermRequest{Label: "programmable money"},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	triple := decodeData[struct {
		ID           string `json:"id"`
		SubjectLabel string `json:"subject_label"`
	}](t, rec)
	assert.Equal(t, "Ethereum", triple.SubjectLabel)

	// The same statement may exist only once.
	rec = doRequest(t, server, http.MethodPost, "/api/v1/triples/", token, CreateTripleRequest{
		Subject:   TripleTermRequest{Label: "Ethereum"},
		Predicate: TripleTermRequest{Label: "is"},
		Object:    TripleTermRequest{Label: "programmable money"},
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doRequest(t, server, http.MethodGet, "/api/v1/triples/"+triple.ID, token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
