package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loggingRouter(t *testing.T, cfg *LoggingConfig) (*gin.Engine, *bytes.Buffer) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	buf := &bytes.Buffer{}
	if cfg == nil {
		cfg = DefaultLoggingConfig()
	}
	cfg.Logger = slog.New(slog.NewJSONHandler(buf, nil))

	router := gin.New()
	router.Use(RequestID(), Logging(cfg))
	router.GET("/wallet", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"balance": "12.50"})
	})
	router.GET("/missing", func(c *gin.Context) { c.Status(http.StatusNotFound) })
	router.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })
	router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.POST("/entries", func(c *gin.Context) {
		c.JSON(http.StatusCreated, gin.H{"created": true})
	})
	return router, buf
}

func logRecord(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	return record
}

func TestDefaultLoggingConfig(t *testing.T) {
	cfg := DefaultLoggingConfig()

	assert.Contains(t, cfg.SkipPaths, "/health")
	assert.Contains(t, cfg.SkipPaths, "/metrics")
	assert.False(t, cfg.LogRequestBody)
	assert.Equal(t, 1024, cfg.MaxBodySize)
}

func TestLogging_RecordsRequestLine(t *testing.T) {
	router, buf := loggingRouter(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/wallet?page=2", nil)
	req.Header.Set(RequestIDHeader, "req-log-1")
	router.ServeHTTP(httptest.NewRecorder(), req)

	record := logRecord(t, buf)
	assert.Equal(t, "GET", record["method"])
	assert.Equal(t, "/wallet", record["path"])
	assert.Equal(t, "page=2", record["query"])
	assert.Equal(t, float64(http.StatusOK), record["status"])
	assert.Equal(t, "req-log-1", record["request_id"])
	assert.Equal(t, "INFO", record["level"])
}

func TestLogging_LevelFollowsStatus(t *testing.T) {
	tests := []struct {
		path  string
		level string
	}{
		{"/wallet", "INFO"},
		{"/missing", "WARN"},
		{"/boom", "ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			router, buf := loggingRouter(t, nil)

			router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, tt.level, logRecord(t, buf)["level"])
		})
	}
}

func TestLogging_SkipsProbePaths(t *testing.T) {
	router, buf := loggingRouter(t, nil)

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Zero(t, buf.Len())
}

func TestLogging_RequestBodyCaptured(t *testing.T) {
	router, buf := loggingRouter(t, &LoggingConfig{
		LogRequestBody: true,
		MaxBodySize:    1024,
	})

	body := strings.NewReader(`{"amount":"5.00","reason":"promo"}`)
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/entries", body))

	record := logRecord(t, buf)
	assert.Contains(t, record["request_body"], "promo")
}

func TestLogging_RequestBodyStillReadableByHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := &bytes.Buffer{}
	router := gin.New()
	router.Use(Logging(&LoggingConfig{
		Logger:         slog.New(slog.NewJSONHandler(buf, nil)),
		LogRequestBody: true,
		MaxBodySize:    1024,
	}))

	var seen string
	router.POST("/entries", func(c *gin.Context) {
		raw, err := c.GetRawData()
		require.NoError(t, err)
		seen = string(raw)
		c.Status(http.StatusCreated)
	})

	body := strings.NewReader(`{"amount":"5.00"}`)
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/entries", body))

	assert.Equal(t, `{"amount":"5.00"}`, seen)
}

func TestLogging_ResponseBodyCapturedAndTruncated(t *testing.T) {
	router, buf := loggingRouter(t, &LoggingConfig{
		LogResponseBody: true,
		MaxBodySize:     10,
	})

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/wallet", nil))

	record := logRecord(t, buf)
	got, ok := record["response_body"].(string)
	require.True(t, ok)
	assert.Contains(t, got, "[truncated]")
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "short", truncateString("short", 10))
	assert.Equal(t, "exact", truncateString("exact", 5))
	assert.Equal(t, "lo...[truncated]", truncateString("long value", 2))
}
