package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"circuitbot/internal/middleware"
	"circuitbot/internal/visits"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeRecorder struct {
	mu     sync.Mutex
	visits []visits.Visit
}

func (f *fakeRecorder) RecordVisit(v visits.Visit) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.visits = append(f.visits, v)
}

func TestGinZapLogger(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	router := gin.New()
	router.Use(middleware.GinZapLogger(zap.New(core)))
	router.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/bad", func(c *gin.Context) { c.Status(http.StatusBadRequest) })
	router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	t.Run("Generates request id", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok?x=1", nil))
		assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))

		entries := logs.TakeAll()
		require.Len(t, entries, 1)
		assert.Equal(t, "Request completed", entries[0].Message)
		assert.Equal(t, "/ok?x=1", entries[0].ContextMap()["path"])
	})

	t.Run("Keeps incoming request id", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/bad", nil)
		req.Header.Set(middleware.RequestIDHeader, "req-1")
		router.ServeHTTP(w, req)
		assert.Equal(t, "req-1", w.Header().Get(middleware.RequestIDHeader))

		entries := logs.TakeAll()
		require.Len(t, entries, 1)
		assert.Equal(t, "Client error", entries[0].Message)
		assert.Equal(t, "req-1", entries[0].ContextMap()["request_id"])
	})

	t.Run("Skips health", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, 0, logs.Len())
	})
}

func TestTrackVisits(t *testing.T) {
	rec := &fakeRecorder{}
	router := gin.New()
	router.Use(middleware.TrackVisits(rec))
	router.GET("/page", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/page?utm=x", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.7")
	router.ServeHTTP(httptest.NewRecorder(), req)

	req = httptest.NewRequest(http.MethodPost, "/missing", nil)
	req.Header.Set("User-Agent", "curl/8")
	router.ServeHTTP(httptest.NewRecorder(), req)

	require.Len(t, rec.visits, 2)
	assert.Equal(t, "GET", rec.visits[0].Method)
	assert.Equal(t, "/page", rec.visits[0].Path)
	assert.Equal(t, "203.0.113.7", rec.visits[0].IP)
	assert.Equal(t, "unknown", rec.visits[0].UserAgent)

	assert.Equal(t, "/missing", rec.visits[1].Path)
	assert.Equal(t, "curl/8", rec.visits[1].UserAgent)
	assert.Equal(t, "192.0.2.1", rec.visits[1].IP)
}

func TestRateLimit_InMemory(t *testing.T) {
	router := gin.New()
	router.POST("/chat", middleware.RateLimit(2, nil, zap.NewNop()), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/chat", nil))
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}
