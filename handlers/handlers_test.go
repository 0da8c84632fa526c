package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BitBlock9310/BachelorBuddy/config"
	"github.com/BitBlock9310/BachelorBuddy/handlers"
	"github.com/BitBlock9310/BachelorBuddy/logger"
	"github.com/BitBlock9310/BachelorBuddy/models"
	"github.com/BitBlock9310/BachelorBuddy/services"
	"github.com/BitBlock9310/BachelorBuddy/storage/inmemory"
)

type testEnv struct {
	router *gin.Engine
	store  *inmemory.Store
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	require.NoError(t, config.Load())
	gin.SetMode(gin.TestMode)

	store := inmemory.New()
	log := logger.NewNop()
	agg := services.NewAggregationService(store, log)
	matching := services.NewMatchingService(store, services.DefaultMatchWeights())
	bus := services.NewMemoryBus()
	sequencer := services.NewSequencer(store, services.NewMemoryDedupStore(), bus, log)
	h := handlers.New(store, agg, matching, sequencer, bus, nil, log)

	router := gin.New()
	router.POST("/auth/register", h.Register)
	router.POST("/auth/login", h.Login)
	router.GET("/listings/:id", h.GetListing)

	auth := router.Group("", handlers.AuthMiddleware())
	auth.POST("/listings", h.CreateListing)
	auth.POST("/reviews", h.CreateReview)
	auth.POST("/rooms", h.CreateRoom)
	auth.POST("/rooms/:id/messages", h.SendMessage)
	auth.GET("/rooms/:id/messages", h.GetMessages)
	auth.POST("/rooms/:id/archive", h.ArchiveRoom)

	return &testEnv{router: router, store: store}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) registerUser(t *testing.T, email string) string {
	t.Helper()
	w := e.do(t, http.MethodPost, "/auth/register", "", gin.H{
		"email": email, "password": "password123", "full_name": "Test Student",
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func TestRegisterAndLogin(t *testing.T) {
	env := newTestEnv(t)
	env.registerUser(t, "asha@example.com")

	w := env.do(t, http.MethodPost, "/auth/login", "", gin.H{
		"email": "asha@example.com", "password": "password123",
	}, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodPost, "/auth/login", "", gin.H{
		"email": "asha@example.com", "password": "wrong-password",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestReviewUpdatesListingRating(t *testing.T) {
	env := newTestEnv(t)
	owner := env.registerUser(t, "owner@example.com")
	reviewer := env.registerUser(t, "reviewer@example.com")

	w := env.do(t, http.MethodPost, "/listings", owner, gin.H{
		"title": "Sunrise PG", "address": "HSR Layout", "monthly_rent": 9000,
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var listing models.PGListing
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listing))

	w = env.do(t, http.MethodPost, "/reviews", reviewer, gin.H{
		"entity_type": models.EntityTypePGListing, "entity_id": listing.ID.String(), "rating": 5,
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = env.do(t, http.MethodGet, "/listings/"+listing.ID.String(), "", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got models.PGListing
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, 5.0, got.AverageRating)
	assert.Equal(t, 1, got.ReviewCount)
}

func TestReviewRejectsBadRating(t *testing.T) {
	env := newTestEnv(t)
	token := env.registerUser(t, "r@example.com")
	owner := env.registerUser(t, "o@example.com")

	w := env.do(t, http.MethodPost, "/listings", owner, gin.H{
		"title": "PG", "address": "BTM", "monthly_rent": 7000,
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	var listing models.PGListing
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listing))

	w = env.do(t, http.MethodPost, "/reviews", token, gin.H{
		"entity_type": models.EntityTypePGListing, "entity_id": listing.ID.String(), "rating": 7,
	}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSendMessageIdempotency(t *testing.T) {
	env := newTestEnv(t)
	token := env.registerUser(t, "chat@example.com")

	w := env.do(t, http.MethodPost, "/rooms", token, gin.H{"type": "direct"}, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	var room models.ChatRoom
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &room))

	headers := map[string]string{"X-Idempotency-Key": "retry-123"}
	w = env.do(t, http.MethodPost, "/rooms/"+room.ID.String()+"/messages", token,
		gin.H{"content": "hello"}, headers)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var first struct {
		Message   models.ChatMessage `json:"message"`
		Duplicate bool               `json:"duplicate"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &first))
	assert.False(t, first.Duplicate)
	assert.Equal(t, int64(1), first.Message.Seq)

	// The retried send returns the original, not a new message.
	w = env.do(t, http.MethodPost, "/rooms/"+room.ID.String()+"/messages", token,
		gin.H{"content": "hello"}, headers)
	require.Equal(t, http.StatusOK, w.Code)
	var second struct {
		Message   models.ChatMessage `json:"message"`
		Duplicate bool               `json:"duplicate"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &second))
	assert.True(t, second.Duplicate)
	assert.Equal(t, first.Message.ID, second.Message.ID)

	w = env.do(t, http.MethodGet, "/rooms/"+room.ID.String()+"/messages", token, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Messages []models.ChatMessage `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list.Messages, 1)
}

func TestArchivedRoomRejectsSends(t *testing.T) {
	env := newTestEnv(t)
	token := env.registerUser(t, "arch@example.com")

	w := env.do(t, http.MethodPost, "/rooms", token, gin.H{"type": "direct"}, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	var room models.ChatRoom
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &room))

	w = env.do(t, http.MethodPost, "/rooms/"+room.ID.String()+"/archive", token, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodPost, "/rooms/"+room.ID.String()+"/messages", token,
		gin.H{"content": "too late"}, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}
