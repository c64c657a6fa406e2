package http

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/commercekit/walletpay/internal/adapters/http/common"
	"github.com/commercekit/walletpay/internal/adapters/http/handlers"
	"github.com/commercekit/walletpay/internal/adapters/http/middleware"
)

// RouterConfig collects everything the router needs besides use cases.
type RouterConfig struct {
	// Logger for the middleware chain.
	Logger *slog.Logger
	// Pool, Redis and NATS feed the health probes.
	Pool  *pgxpool.Pool
	Redis *redis.Client
	NATS  *nats.Conn
	// Version and BuildTime are reported by /health.
	Version   string
	BuildTime string
	// Environment is one of development, staging, production.
	Environment string
	// AllowedOrigins pins CORS in production.
	AllowedOrigins []string
	// AuthTokenValidator validates bearer tokens; see middleware.JWTValidator.
	AuthTokenValidator func(token string) (*middleware.AuthClaims, error)
	// FinancialOpsPerMin throttles the money-moving routes. Zero means the
	// middleware default.
	FinancialOpsPerMin int
	// TracingEnabled turns on the otelgin middleware.
	TracingEnabled bool
	// ServiceName names the tracer; defaults to "walletpay".
	ServiceName string
}

// DefaultRouterConfig returns a development configuration. The baked-in JWT
// secret matches config.Development and must never reach production.
func DefaultRouterConfig() *RouterConfig {
	return &RouterConfig{
		Logger:             slog.Default(),
		Version:            "dev",
		BuildTime:          "unknown",
		Environment:        "development",
		AllowedOrigins:     []string{"*"},
		AuthTokenValidator: middleware.JWTValidator("dev-secret-key", "walletpay-dev"),
		ServiceName:        "walletpay",
	}
}

// LedgerUseCases provides the store-credit ledger use cases.
type LedgerUseCases struct {
	CreateEntry  handlers.CreateEntryUseCase
	ListEntries  handlers.ListEntriesUseCase
	UpdateReason handlers.UpdateReasonUseCase
	GetBalance   handlers.GetBalanceUseCase
}

// CheckoutUseCases provides the checkout use cases.
type CheckoutUseCases struct {
	BuildPayments    handlers.BuildPaymentsUseCase
	ValidatePayments handlers.ValidatePaymentsUseCase
	CreatePayment    handlers.CreatePaymentUseCase
	ProcessPayments  handlers.ProcessPaymentsUseCase
}

// PaymentUseCases provides the payment lifecycle use cases.
type PaymentUseCases struct {
	Complete handlers.CompletePaymentUseCase
	Void     handlers.VoidPaymentUseCase
	Credit   handlers.CreditPaymentUseCase
}

// OrderUseCases provides the order reconciliation use cases.
type OrderUseCases struct {
	Complete handlers.CompleteOrderUseCase
	Cancel   handlers.CancelOrderUseCase
}

// RouterBuilder assembles the Gin engine step by step, so partial routers
// are easy to build in tests.
type RouterBuilder struct {
	config   *RouterConfig
	ledger   *LedgerUseCases
	checkout *CheckoutUseCases
	payments *PaymentUseCases
	orders   *OrderUseCases
}

// NewRouterBuilder creates a builder; a nil config means development defaults.
func NewRouterBuilder(config *RouterConfig) *RouterBuilder {
	if config == nil {
		config = DefaultRouterConfig()
	}
	return &RouterBuilder{config: config}
}

// WithLedgerUseCases adds the store-credit ledger routes.
func (b *RouterBuilder) WithLedgerUseCases(useCases *LedgerUseCases) *RouterBuilder {
	b.ledger = useCases
	return b
}

// WithCheckoutUseCases adds the checkout routes.
func (b *RouterBuilder) WithCheckoutUseCases(useCases *CheckoutUseCases) *RouterBuilder {
	b.checkout = useCases
	return b
}

// WithPaymentUseCases adds the payment lifecycle routes.
func (b *RouterBuilder) WithPaymentUseCases(useCases *PaymentUseCases) *RouterBuilder {
	b.payments = useCases
	return b
}

// WithOrderUseCases adds the order reconciliation routes.
func (b *RouterBuilder) WithOrderUseCases(useCases *OrderUseCases) *RouterBuilder {
	b.orders = useCases
	return b
}

// Build creates the configured Gin engine.
//
// Route policy:
//   - checkout routes take optional auth, guests may pay by card
//   - /wallet and the order transitions need an authenticated user
//   - ledger management and payment operations need the admin role
//   - everything that moves money gets the stricter rate limit
func (b *RouterBuilder) Build() *gin.Engine {
	if b.config.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	handlers.SetupValidator()

	// Global middleware. Recovery first, metrics last so it sees the final
	// status code.
	router.Use(middleware.Recovery(&middleware.RecoveryConfig{
		Logger:           b.config.Logger,
		EnableStackTrace: b.config.Environment != "production",
	}))

	router.Use(middleware.RequestID())

	if b.config.TracingEnabled {
		serviceName := b.config.ServiceName
		if serviceName == "" {
			serviceName = "walletpay"
		}
		router.Use(otelgin.Middleware(serviceName))
	}

	if b.config.Environment == "production" {
		router.Use(middleware.CORS(middleware.ProductionCORSConfig(b.config.AllowedOrigins)))
	} else {
		router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	}

	router.Use(middleware.Logging(&middleware.LoggingConfig{
		Logger:    b.config.Logger,
		SkipPaths: []string{"/health", "/live", "/ready", "/metrics"},
	}))

	router.Use(middleware.RateLimit(middleware.DefaultRateLimitConfig()))

	router.Use(middleware.Metrics())

	// Prometheus scrape endpoint, no auth.
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Probes, no auth.
	healthHandler := handlers.NewHealthHandler(
		b.config.Pool,
		b.config.Redis,
		b.config.NATS,
		b.config.Version,
		b.config.BuildTime,
	)
	healthHandler.RegisterRoutes(router)

	v1 := router.Group("/api/v1")

	requireAuth := middleware.Auth(&middleware.AuthConfig{
		TokenValidator: b.config.AuthTokenValidator,
	})
	optionalAuth := middleware.Auth(&middleware.AuthConfig{
		TokenValidator: b.config.AuthTokenValidator,
		Optional:       true,
	})
	financialOps := middleware.FinancialOpsRateLimit(b.config.FinancialOpsPerMin)

	// Checkout. Guests submit card payments without a token, so auth is
	// optional here; the wallet method itself rejects guests downstream.
	if b.checkout != nil {
		checkoutHandler := handlers.NewCheckoutHandler(
			b.checkout.BuildPayments,
			b.checkout.ValidatePayments,
			b.checkout.CreatePayment,
			b.checkout.ProcessPayments,
		)
		checkoutGroup := v1.Group("/orders/:order_id/payments")
		checkoutGroup.Use(optionalAuth, financialOps)
		{
			checkoutGroup.POST("", checkoutHandler.CreatePayment)
			checkoutGroup.POST("/build", checkoutHandler.BuildPayments)
			checkoutGroup.POST("/validate", checkoutHandler.ValidatePayments)
			checkoutGroup.POST("/process", checkoutHandler.ProcessPayments)
		}
	}

	// Authenticated routes.
	protectedGroup := v1.Group("")
	protectedGroup.Use(requireAuth)
	{
		if b.ledger != nil {
			ledgerHandler := handlers.NewStoreCreditHandler(
				b.ledger.CreateEntry,
				b.ledger.ListEntries,
				b.ledger.UpdateReason,
				b.ledger.GetBalance,
			)
			protectedGroup.GET("/wallet", ledgerHandler.GetMyBalance)
		}

		if b.orders != nil {
			orderHandler := handlers.NewOrderHandler(b.orders.Complete, b.orders.Cancel)
			orderGroup := protectedGroup.Group("/orders/:order_id")
			orderGroup.Use(financialOps)
			{
				orderGroup.POST("/complete", orderHandler.Complete)
				orderGroup.POST("/cancel", orderHandler.Cancel)
			}
		}
	}

	// Admin routes. Ledger management and payment operations are staff
	// tooling, never exposed to shoppers.
	adminGroup := v1.Group("")
	adminGroup.Use(requireAuth, middleware.RequireRole("admin"))
	{
		if b.ledger != nil {
			ledgerHandler := handlers.NewStoreCreditHandler(
				b.ledger.CreateEntry,
				b.ledger.ListEntries,
				b.ledger.UpdateReason,
				b.ledger.GetBalance,
			)

			users := adminGroup.Group("/users/:user_id")
			{
				users.GET("/wallet", ledgerHandler.GetBalance)
				users.GET("/store_credits", ledgerHandler.ListUserEntries)
				users.POST("/store_credits", financialOps, ledgerHandler.CreateEntry)
			}

			credits := adminGroup.Group("/store_credits")
			{
				credits.GET("", ledgerHandler.ListEntries)
				credits.PATCH("/:id", ledgerHandler.UpdateReason)
			}
		}

		if b.payments != nil {
			paymentHandler := handlers.NewPaymentHandler(
				b.payments.Complete,
				b.payments.Void,
				b.payments.Credit,
			)
			paymentGroup := adminGroup.Group("/payments/:id")
			paymentGroup.Use(financialOps)
			{
				paymentGroup.POST("/complete", paymentHandler.Complete)
				paymentGroup.POST("/void", paymentHandler.Void)
				paymentGroup.POST("/credit", paymentHandler.Credit)
			}
		}
	}

	router.NoRoute(func(c *gin.Context) {
		common.Error(c, 404, &common.APIError{
			Code:    common.ErrCodeNotFound,
			Message: "Endpoint not found",
			Details: map[string]interface{}{
				"path":   c.Request.URL.Path,
				"method": c.Request.Method,
			},
		})
	})

	return router
}

// NewRouter creates a router in one call for the simple cases.
func NewRouter(config *RouterConfig) *gin.Engine {
	return NewRouterBuilder(config).Build()
}

// NewDevelopmentRouter creates a router with development defaults.
func NewDevelopmentRouter() *gin.Engine {
	return NewRouter(DefaultRouterConfig())
}
