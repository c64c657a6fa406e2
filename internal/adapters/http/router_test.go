package http

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/commercekit/walletpay/internal/adapters/http/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestDefaultRouterConfig(t *testing.T) {
	cfg := DefaultRouterConfig()

	assert.NotNil(t, cfg.Logger)
	assert.Equal(t, "dev", cfg.Version)
	assert.Equal(t, "unknown", cfg.BuildTime)
	assert.Equal(t, "development", cfg.Environment)
	assert.Contains(t, cfg.AllowedOrigins, "*")
	assert.NotNil(t, cfg.AuthTokenValidator)
}

func TestNewRouterBuilder(t *testing.T) {
	cfg := DefaultRouterConfig()
	builder := NewRouterBuilder(cfg)

	require.NotNil(t, builder)
	assert.Equal(t, cfg, builder.config)
}

func TestNewRouterBuilder_NilConfig(t *testing.T) {
	builder := NewRouterBuilder(nil)

	require.NotNil(t, builder)
	assert.NotNil(t, builder.config)
	assert.Equal(t, "development", builder.config.Environment)
}

func TestRouterBuilder_Chain(t *testing.T) {
	cfg := DefaultRouterConfig()
	ledgerUC := &LedgerUseCases{}
	checkoutUC := &CheckoutUseCases{}
	paymentUC := &PaymentUseCases{}
	orderUC := &OrderUseCases{}

	builder := NewRouterBuilder(cfg).
		WithLedgerUseCases(ledgerUC).
		WithCheckoutUseCases(checkoutUC).
		WithPaymentUseCases(paymentUC).
		WithOrderUseCases(orderUC)

	assert.Equal(t, ledgerUC, builder.ledger)
	assert.Equal(t, checkoutUC, builder.checkout)
	assert.Equal(t, paymentUC, builder.payments)
	assert.Equal(t, orderUC, builder.orders)
}

func TestRouterBuilder_Build_Development(t *testing.T) {
	cfg := &RouterConfig{
		Logger:             slog.New(slog.NewTextHandler(os.Stdout, nil)),
		Version:            "1.0.0",
		BuildTime:          "2026-01-01",
		Environment:        "development",
		AllowedOrigins:     []string{"*"},
		AuthTokenValidator: middleware.JWTValidator("dev-secret-key", "walletpay-dev"),
	}

	router := NewRouterBuilder(cfg).Build()

	require.NotNil(t, router)
}

func TestRouterBuilder_Build_Production(t *testing.T) {
	cfg := &RouterConfig{
		Logger:             slog.New(slog.NewTextHandler(os.Stdout, nil)),
		Version:            "1.0.0",
		BuildTime:          "2026-01-01",
		Environment:        "production",
		AllowedOrigins:     []string{"https://shop.example.com"},
		AuthTokenValidator: middleware.JWTValidator("prod-secret", "walletpay"),
	}

	router := NewRouterBuilder(cfg).Build()

	require.NotNil(t, router)
}

func TestRouterBuilder_Build_Tracing(t *testing.T) {
	cfg := DefaultRouterConfig()
	cfg.TracingEnabled = true
	cfg.ServiceName = ""

	router := NewRouterBuilder(cfg).Build()

	require.NotNil(t, router)

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouterBuilder_Build_HealthEndpoints(t *testing.T) {
	cfg := DefaultRouterConfig()
	router := NewRouterBuilder(cfg).Build()

	endpoints := []string{"/health", "/live", "/ready"}
	for _, endpoint := range endpoints {
		t.Run(endpoint, func(t *testing.T) {
			req := httptest.NewRequest("GET", endpoint, nil)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusOK, w.Code)
		})
	}
}

func TestRouterBuilder_Build_MetricsEndpoint(t *testing.T) {
	cfg := DefaultRouterConfig()
	router := NewRouterBuilder(cfg).Build()

	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_") // Prometheus Go metrics
}

func TestRouterBuilder_Build_404Handler(t *testing.T) {
	cfg := DefaultRouterConfig()
	router := NewRouterBuilder(cfg).Build()

	req := httptest.NewRequest("GET", "/nonexistent/path", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Endpoint not found")
}

func TestRouter_WalletRequiresAuth(t *testing.T) {
	router := NewRouterBuilder(DefaultRouterConfig()).
		WithLedgerUseCases(&LedgerUseCases{}).
		Build()

	req := httptest.NewRequest("GET", "/api/v1/wallet", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRouter_CheckoutAllowsGuests(t *testing.T) {
	router := NewRouterBuilder(DefaultRouterConfig()).
		WithCheckoutUseCases(&CheckoutUseCases{}).
		Build()

	// A broken order id fails URI binding with a 400, which proves the
	// request got past auth without a token.
	req := httptest.NewRequest("POST", "/api/v1/orders/not-a-uuid/payments/build", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouter_LedgerManagementRequiresAdmin(t *testing.T) {
	router := NewRouterBuilder(DefaultRouterConfig()).
		WithLedgerUseCases(&LedgerUseCases{}).
		Build()

	t.Run("NoToken", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/v1/store_credits", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("NonAdminToken", func(t *testing.T) {
		token, err := middleware.IssueToken("dev-secret-key", "walletpay-dev", uuid.New(), "user@example.com", "user", time.Hour)
		require.NoError(t, err)

		req := httptest.NewRequest("GET", "/api/v1/store_credits", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("AdminToken", func(t *testing.T) {
		token, err := middleware.IssueToken("dev-secret-key", "walletpay-dev", uuid.New(), "staff@example.com", "admin", time.Hour)
		require.NoError(t, err)

		// The admin reaches the handler, which rejects the malformed
		// entry id with a 400 instead of a 401/403.
		req := httptest.NewRequest("PATCH", "/api/v1/store_credits/not-a-uuid", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestRouter_PaymentOpsRequireAdmin(t *testing.T) {
	router := NewRouterBuilder(DefaultRouterConfig()).
		WithPaymentUseCases(&PaymentUseCases{}).
		Build()

	token, err := middleware.IssueToken("dev-secret-key", "walletpay-dev", uuid.New(), "user@example.com", "user", time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/api/v1/payments/"+uuid.NewString()+"/void", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRouter_OrderTransitionsRequireAuth(t *testing.T) {
	router := NewRouterBuilder(DefaultRouterConfig()).
		WithOrderUseCases(&OrderUseCases{}).
		Build()

	req := httptest.NewRequest("POST", "/api/v1/orders/"+uuid.NewString()+"/complete", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestNewRouter(t *testing.T) {
	router := NewRouter(DefaultRouterConfig())

	require.NotNil(t, router)
}

func TestNewRouter_NilConfig(t *testing.T) {
	router := NewRouter(nil)

	require.NotNil(t, router)
}

func TestNewDevelopmentRouter(t *testing.T) {
	router := NewDevelopmentRouter()

	require.NotNil(t, router)
}

func TestRouter_CORS_Development(t *testing.T) {
	cfg := DefaultRouterConfig()
	router := NewRouterBuilder(cfg).Build()

	req := httptest.NewRequest("OPTIONS", "/health", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "GET")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Contains(t, []int{http.StatusOK, http.StatusNoContent}, w.Code)
	assert.NotEmpty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouter_RequestIDPropagated(t *testing.T) {
	router := NewRouterBuilder(DefaultRouterConfig()).Build()

	req := httptest.NewRequest("GET", "/health", nil)
	req.Header.Set("X-Request-ID", "req-42")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, "req-42", w.Header().Get("X-Request-ID"))
}
