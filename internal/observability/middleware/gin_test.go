package middleware_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KasumiMercury/primind-med-remind/internal/observability/logging"
	"github.com/KasumiMercury/primind-med-remind/internal/observability/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestModuleByPrefix(t *testing.T) {
	resolve := middleware.ModuleByPrefix(map[string]logging.Module{
		"/api/v1/notifications": logging.ModuleScheduler,
		"/api/v1/reconcile":     logging.ModuleReconciler,
		"/api":                  logging.ModuleStore,
	}, logging.ModuleReminder)

	tests := []struct {
		name     string
		path     string
		expected logging.Module
	}{
		{name: "notifications", path: "/api/v1/notifications/status", expected: logging.ModuleScheduler},
		{name: "reconcile", path: "/api/v1/reconcile", expected: logging.ModuleReconciler},
		{name: "shorter prefix when no longer one matches", path: "/api/v1/reminders", expected: logging.ModuleStore},
		{name: "fallback", path: "/ping", expected: logging.ModuleReminder},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodGet, tt.path, nil)

			assert.Equal(t, tt.expected, resolve(c))
		})
	}
}

func TestGinPropagatesRequestContext(t *testing.T) {
	var (
		gotModule    logging.Module
		gotRequestID string
	)

	router := gin.New()
	router.Use(middleware.Gin(middleware.GinConfig{
		SkipPaths: []string{"/ping"},
		ModuleResolver: middleware.ModuleByPrefix(map[string]logging.Module{
			"/api/v1/reconcile": logging.ModuleReconciler,
		}, logging.ModuleReminder),
		TracerName: "test",
	}))
	router.POST("/api/v1/reconcile", func(c *gin.Context) {
		gotModule = logging.ModuleFromContext(c.Request.Context())
		gotRequestID = logging.RequestIDFromContext(c.Request.Context())
		c.Status(http.StatusOK)
	})
	router.GET("/ping", func(c *gin.Context) {
		gotRequestID = logging.RequestIDFromContext(c.Request.Context())
		c.Status(http.StatusOK)
	})

	t.Run("keeps a valid incoming request id", func(t *testing.T) {
		incoming := uuid.NewString()

		req := httptest.NewRequest(http.MethodPost, "/api/v1/reconcile", nil)
		req.Header.Set("x-request-id", incoming)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, incoming, gotRequestID)
		assert.Equal(t, incoming, w.Header().Get("x-request-id"))
		assert.Equal(t, logging.ModuleReconciler, gotModule)
	})

	t.Run("replaces an invalid request id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/reconcile", nil)
		req.Header.Set("x-request-id", "not-a-uuid")

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.NotEqual(t, "not-a-uuid", gotRequestID)

		_, err := uuid.Parse(w.Header().Get("x-request-id"))
		require.NoError(t, err)
	})

	t.Run("skip paths carry no request id", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, gotRequestID)
		assert.Empty(t, w.Header().Get("x-request-id"))
	})
}

func TestPanicRecoveryGinReturnsInternalError(t *testing.T) {
	router := gin.New()
	router.Use(middleware.PanicRecoveryGin())
	router.GET("/boom", func(*gin.Context) {
		panic("boom")
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "internal_error", body["error"])
}
