package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/commercekit/walletpay/internal/pkg/logger"
)

func requestIDRouter(handler gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestID())
	router.GET("/wallet", handler)
	return router
}

func TestRequestID_GeneratesUUIDWhenMissing(t *testing.T) {
	router := requestIDRouter(func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/wallet", nil))

	id := w.Header().Get(RequestIDHeader)
	require.NotEmpty(t, id)
	_, err := uuid.Parse(id)
	assert.NoError(t, err)
}

func TestRequestID_KeepsClientSuppliedID(t *testing.T) {
	router := requestIDRouter(func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/wallet", nil)
	req.Header.Set(RequestIDHeader, "checkout-7f3a")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "checkout-7f3a", w.Header().Get(RequestIDHeader))
}

func TestRequestID_PropagatesToRequestContext(t *testing.T) {
	var fromGin, fromCtx string
	router := requestIDRouter(func(c *gin.Context) {
		fromGin = GetRequestID(c)
		fromCtx = logger.RequestIDFromContext(c.Request.Context())
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/wallet", nil))

	header := w.Header().Get(RequestIDHeader)
	require.NotEmpty(t, header)
	assert.Equal(t, header, fromGin)
	assert.Equal(t, header, fromCtx)
}

func TestGetRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name  string
		setup func(c *gin.Context)
		want  string
	}{
		{
			name:  "set as string",
			setup: func(c *gin.Context) { c.Set(RequestIDContextKey, "entry-42") },
			want:  "entry-42",
		},
		{
			name:  "never set",
			setup: func(c *gin.Context) {},
			want:  "",
		},
		{
			name:  "wrong type",
			setup: func(c *gin.Context) { c.Set(RequestIDContextKey, 42) },
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			tt.setup(c)
			assert.Equal(t, tt.want, GetRequestID(c))
		})
	}
}
