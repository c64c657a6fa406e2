// Package container is the composition root of the application.
//
// The container owns the lifecycle of every dependency: creation during
// Initialize, access through getters, teardown in Shutdown.
package container

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	natsio "github.com/nats-io/nats.go"
	goredis "github.com/redis/go-redis/v9"

	"github.com/commercekit/walletpay/internal/adapters/http"
	"github.com/commercekit/walletpay/internal/adapters/http/middleware"
	"github.com/commercekit/walletpay/internal/application/ports"
	"github.com/commercekit/walletpay/internal/application/usecases/checkout"
	"github.com/commercekit/walletpay/internal/application/usecases/ledger"
	"github.com/commercekit/walletpay/internal/application/usecases/order"
	"github.com/commercekit/walletpay/internal/application/usecases/payment"
	"github.com/commercekit/walletpay/internal/config"
	"github.com/commercekit/walletpay/internal/domain/entities"
	rediscache "github.com/commercekit/walletpay/internal/infrastructure/cache/redis"
	"github.com/commercekit/walletpay/internal/infrastructure/gateway"
	natsmsg "github.com/commercekit/walletpay/internal/infrastructure/messaging/nats"
	"github.com/commercekit/walletpay/internal/infrastructure/persistence/postgres"
	"github.com/commercekit/walletpay/internal/pkg/logger"
	"github.com/commercekit/walletpay/internal/pkg/telemetry"
)

// Container is the application's dependency injection container.
type Container struct {
	config    *config.Config
	logger    *slog.Logger
	buildTime string

	// Infrastructure
	pool        *pgxpool.Pool
	natsConn    *natsio.Conn
	redisClient *goredis.Client

	telemetryShutdown telemetry.ShutdownFunc

	// Repositories
	userRepo    ports.UserRepository
	entryRepo   ports.StoreCreditRepository
	paymentRepo ports.PaymentRepository
	orderRepo   ports.OrderRepository
	outboxRepo  *postgres.OutboxRepository

	uow            ports.UnitOfWork
	eventPublisher ports.EventPublisher
	balanceCache   ports.BalanceCache
	paymentGateway ports.PaymentGateway

	// Ledger
	createEntryUC  *ledger.CreateEntryUseCase
	listEntriesUC  *ledger.ListEntriesUseCase
	updateReasonUC *ledger.UpdateReasonUseCase
	getBalanceUC   *ledger.GetBalanceUseCase
	ledgerService  *ledger.Service

	// Payment lifecycle
	walletMethod      *entities.WalletMethod
	processor         *payment.Processor
	completePaymentUC *payment.CompletePaymentUseCase
	voidPaymentUC     *payment.VoidPaymentUseCase
	creditPaymentUC   *payment.CreditPaymentUseCase

	// Checkout
	buildPaymentsUC    *checkout.BuildPaymentsUseCase
	validatePaymentsUC *checkout.ValidatePaymentsUseCase
	createPaymentUC    *checkout.CreatePaymentUseCase
	processPaymentsUC  *checkout.ProcessPaymentsUseCase

	// Orders
	completeOrderUC *order.CompleteOrderUseCase
	cancelOrderUC   *order.CancelOrderUseCase

	// Messaging
	relay *natsmsg.Relay

	// HTTP
	httpServer *http.Server
}

// New creates a container with the given configuration.
func New(cfg *config.Config) *Container {
	return &Container{
		config:    cfg,
		buildTime: "unknown",
	}
}

// SetBuildTime records the ldflags build timestamp for /health.
func (c *Container) SetBuildTime(buildTime string) {
	if buildTime != "" {
		c.buildTime = buildTime
	}
}

// Initialize wires every dependency.
func (c *Container) Initialize(ctx context.Context) error {
	c.logger = c.initLogger()
	c.logger.Info("Initializing application container...")

	shutdown, err := telemetry.Setup(ctx, c.config.Telemetry, c.config.App.Version)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	c.telemetryShutdown = shutdown

	if err := c.initDatabase(ctx); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	c.logger.Info("Database connected")

	if err := c.initNATS(); err != nil {
		return fmt.Errorf("failed to initialize NATS: %w", err)
	}
	c.logger.Info("NATS connection configured")

	c.initRedis()
	c.initRepositories()
	c.logger.Info("Repositories initialized")

	c.initUseCases()
	c.logger.Info("Use cases initialized")

	c.initRelay()
	c.initHTTPServer()
	c.logger.Info("HTTP server initialized")

	c.logger.Info("Container initialization complete")
	return nil
}

func (c *Container) initLogger() *slog.Logger {
	output := os.Stdout
	if c.config.Log.Output == "stderr" {
		output = os.Stderr
	}

	log := logger.New(&logger.Config{
		Level:     c.config.Log.Level,
		Format:    c.config.Log.Format,
		Output:    output,
		AddSource: c.config.App.Debug,
	})
	slog.SetDefault(log)

	return log
}

func (c *Container) initDatabase(ctx context.Context) error {
	pool, err := postgres.NewConnectionPool(ctx, postgres.Config{
		Host:            c.config.Database.Host,
		Port:            c.config.Database.Port,
		Database:        c.config.Database.Database,
		User:            c.config.Database.User,
		Password:        c.config.Database.Password,
		SSLMode:         c.config.Database.SSLMode,
		MaxConns:        c.config.Database.MaxConnections,
		MinConns:        c.config.Database.MinConnections,
		MaxConnLifetime: c.config.Database.MaxConnLifetime,
		MaxConnIdleTime: c.config.Database.MaxConnIdleTime,
	})
	if err != nil {
		return err
	}

	c.pool = pool
	return nil
}

// initNATS dials the bus. The outbox keeps events durable while NATS is
// unreachable, so a failed first dial only schedules reconnects instead of
// aborting startup.
func (c *Container) initNATS() error {
	conn, err := natsio.Connect(
		c.config.NATS.URL,
		natsio.Name(c.config.App.Name),
		natsio.RetryOnFailedConnect(true),
		natsio.MaxReconnects(-1),
	)
	if err != nil {
		return err
	}

	c.natsConn = conn
	return nil
}

func (c *Container) initRedis() {
	c.redisClient = goredis.NewClient(&goredis.Options{
		Addr:     c.config.Redis.Addr,
		Password: c.config.Redis.Password,
		DB:       c.config.Redis.DB,
	})
}

func (c *Container) initRepositories() {
	c.userRepo = postgres.NewUserRepository(c.pool)
	c.entryRepo = postgres.NewStoreCreditRepository(c.pool)
	c.paymentRepo = postgres.NewPaymentRepository(c.pool)
	c.orderRepo = postgres.NewOrderRepository(c.pool)
	c.outboxRepo = postgres.NewOutboxRepository(c.pool)

	c.uow = postgres.NewUnitOfWork(c.pool)

	// Events are written to the outbox in the same transaction as the
	// aggregate; the relay ships them to NATS afterwards.
	c.eventPublisher = c.outboxRepo

	c.balanceCache = rediscache.NewBalanceCache(c.redisClient, c.config.Redis.TTL)
	c.paymentGateway = gateway.NewSimulated(c.logger)
}

func (c *Container) initUseCases() {
	ledgerCfg := ledger.Config{
		TransactionIDAttempts: c.config.Payments.TransactionIDAttempts,
		StaleWriteRetries:     c.config.Payments.StaleWriteRetries,
	}

	// Ledger
	c.createEntryUC = ledger.NewCreateEntryUseCase(
		c.userRepo, c.entryRepo, c.eventPublisher, c.balanceCache, c.uow, ledgerCfg,
	)
	c.listEntriesUC = ledger.NewListEntriesUseCase(c.entryRepo)
	c.updateReasonUC = ledger.NewUpdateReasonUseCase(c.entryRepo)
	c.getBalanceUC = ledger.NewGetBalanceUseCase(c.userRepo, c.balanceCache)
	c.ledgerService = ledger.NewService(c.createEntryUC)

	// Payment lifecycle
	c.walletMethod = entities.NewWalletMethod(ledger.NewRefunder(c.ledgerService))
	c.processor = payment.NewProcessor(
		c.paymentRepo, c.ledgerService, c.paymentGateway, c.eventPublisher, c.walletMethod, c.uow,
	)
	c.completePaymentUC = payment.NewCompletePaymentUseCase(c.paymentRepo, c.orderRepo, c.processor)
	c.voidPaymentUC = payment.NewVoidPaymentUseCase(c.paymentRepo, c.processor)
	c.creditPaymentUC = payment.NewCreditPaymentUseCase(c.paymentRepo, c.walletMethod, c.paymentGateway)

	// Checkout
	c.buildPaymentsUC = checkout.NewBuildPaymentsUseCase(c.orderRepo, c.userRepo)
	c.validatePaymentsUC = checkout.NewValidatePaymentsUseCase(c.orderRepo, c.userRepo)
	c.createPaymentUC = checkout.NewCreatePaymentUseCase(c.orderRepo, c.userRepo, c.paymentRepo, c.processor)
	c.processPaymentsUC = checkout.NewProcessPaymentsUseCase(
		c.orderRepo, c.processor, c.config.Payments.AllowCheckoutOnGatewayError,
	)

	// Orders
	c.completeOrderUC = order.NewCompleteOrderUseCase(c.orderRepo, c.processor, c.eventPublisher)
	c.cancelOrderUC = order.NewCancelOrderUseCase(c.orderRepo, c.processor, c.eventPublisher)
}

func (c *Container) initRelay() {
	publisher := natsmsg.NewPublisher(c.natsConn, c.config.NATS.SubjectPrefix)
	c.relay = natsmsg.NewRelay(c.outboxRepo, c.uow, publisher, c.logger, natsmsg.RelayConfig{
		Interval:  c.config.NATS.RelayInterval,
		BatchSize: c.config.NATS.RelayBatchSize,
	})
}

func (c *Container) initHTTPServer() {
	routerConfig := &http.RouterConfig{
		Logger:             c.logger,
		Pool:               c.pool,
		Redis:              c.redisClient,
		NATS:               c.natsConn,
		Version:            c.config.App.Version,
		BuildTime:          c.buildTime,
		Environment:        c.config.App.Environment,
		AllowedOrigins:     c.config.CORS.AllowedOrigins,
		AuthTokenValidator: middleware.JWTValidator(c.config.Auth.JWTSecret, c.config.Auth.JWTIssuer),
		FinancialOpsPerMin: c.config.RateLimit.FinancialOpsPerMin,
		TracingEnabled:     c.config.Telemetry.Enabled,
		ServiceName:        c.config.Telemetry.ServiceName,
	}

	router := http.NewRouterBuilder(routerConfig).
		WithLedgerUseCases(&http.LedgerUseCases{
			CreateEntry:  c.createEntryUC,
			ListEntries:  c.listEntriesUC,
			UpdateReason: c.updateReasonUC,
			GetBalance:   c.getBalanceUC,
		}).
		WithCheckoutUseCases(&http.CheckoutUseCases{
			BuildPayments:    c.buildPaymentsUC,
			ValidatePayments: c.validatePaymentsUC,
			CreatePayment:    c.createPaymentUC,
			ProcessPayments:  c.processPaymentsUC,
		}).
		WithPaymentUseCases(&http.PaymentUseCases{
			Complete: c.completePaymentUC,
			Void:     c.voidPaymentUC,
			Credit:   c.creditPaymentUC,
		}).
		WithOrderUseCases(&http.OrderUseCases{
			Complete: c.completeOrderUC,
			Cancel:   c.cancelOrderUC,
		}).
		Build()

	serverConfig := http.ServerConfigFrom(c.config.Server, c.logger)
	c.httpServer = http.NewServer(serverConfig, router)
}

// Config returns the configuration.
func (c *Container) Config() *config.Config { return c.config }

// Logger returns the logger.
func (c *Container) Logger() *slog.Logger { return c.logger }

// Pool returns the database connection pool.
func (c *Container) Pool() *pgxpool.Pool { return c.pool }

// HTTPServer returns the HTTP server.
func (c *Container) HTTPServer() *http.Server { return c.httpServer }

// Relay returns the outbox relay.
func (c *Container) Relay() *natsmsg.Relay { return c.relay }

// UserRepository returns the user repository.
func (c *Container) UserRepository() ports.UserRepository { return c.userRepo }

// StoreCreditRepository returns the ledger entry repository.
func (c *Container) StoreCreditRepository() ports.StoreCreditRepository { return c.entryRepo }

// PaymentRepository returns the payment repository.
func (c *Container) PaymentRepository() ports.PaymentRepository { return c.paymentRepo }

// OrderRepository returns the order repository.
func (c *Container) OrderRepository() ports.OrderRepository { return c.orderRepo }

// UnitOfWork returns the unit of work.
func (c *Container) UnitOfWork() ports.UnitOfWork { return c.uow }

// CreateEntryUseCase returns the ledger entry writer.
func (c *Container) CreateEntryUseCase() *ledger.CreateEntryUseCase { return c.createEntryUC }

// GetBalanceUseCase returns the balance reader.
func (c *Container) GetBalanceUseCase() *ledger.GetBalanceUseCase { return c.getBalanceUC }

// ProcessPaymentsUseCase returns the checkout payment processor.
func (c *Container) ProcessPaymentsUseCase() *checkout.ProcessPaymentsUseCase {
	return c.processPaymentsUC
}

// CompleteOrderUseCase returns the order completion use case.
func (c *Container) CompleteOrderUseCase() *order.CompleteOrderUseCase { return c.completeOrderUC }

// Run starts the outbox relay and serves HTTP until a shutdown signal.
func (c *Container) Run() error {
	c.logger.Info("Starting walletpay API server",
		slog.String("version", c.config.App.Version),
		slog.String("environment", c.config.App.Environment),
		slog.String("address", c.config.Server.Address()),
	)

	relayCtx, stopRelay := context.WithCancel(context.Background())
	defer stopRelay()
	go c.relay.Run(relayCtx)

	return c.httpServer.Run()
}

// Shutdown tears everything down in reverse dependency order.
func (c *Container) Shutdown(ctx context.Context) error {
	c.logger.Info("Shutting down container...")

	var errs []error

	if c.httpServer != nil {
		if err := c.httpServer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("HTTP server shutdown: %w", err))
		}
	}

	if c.natsConn != nil {
		// Drain flushes what the relay already handed to the client.
		if err := c.natsConn.Drain(); err != nil {
			errs = append(errs, fmt.Errorf("NATS drain: %w", err))
		}
	}

	if c.redisClient != nil {
		if err := c.redisClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis close: %w", err))
		}
	}

	if c.pool != nil {
		done := make(chan struct{})
		go func() {
			c.pool.Close()
			close(done)
		}()

		select {
		case <-done:
			c.logger.Info("Database connection closed")
		case <-ctx.Done():
			c.logger.Warn("Database close timeout")
		}
	}

	if c.telemetryShutdown != nil {
		if err := c.telemetryShutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("telemetry shutdown: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %v", errs)
	}

	c.logger.Info("Container shutdown complete")
	return nil
}

// ContainerBuilder assembles a container from pre-built components, mostly
// for tests that inject fakes.
type ContainerBuilder struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	eventPublisher ports.EventPublisher
	gateway        ports.PaymentGateway
}

// NewBuilder creates a builder.
func NewBuilder(cfg *config.Config) *ContainerBuilder {
	return &ContainerBuilder{cfg: cfg}
}

// WithLogger sets a custom logger.
func (b *ContainerBuilder) WithLogger(logger *slog.Logger) *ContainerBuilder {
	b.logger = logger
	return b
}

// WithPool sets a pre-built connection pool.
func (b *ContainerBuilder) WithPool(pool *pgxpool.Pool) *ContainerBuilder {
	b.pool = pool
	return b
}

// WithEventPublisher overrides the outbox-backed publisher.
func (b *ContainerBuilder) WithEventPublisher(ep ports.EventPublisher) *ContainerBuilder {
	b.eventPublisher = ep
	return b
}

// WithPaymentGateway overrides the simulated gateway.
func (b *ContainerBuilder) WithPaymentGateway(gw ports.PaymentGateway) *ContainerBuilder {
	b.gateway = gw
	return b
}

// Build creates the container. Components not provided are initialized the
// normal way; NATS and Redis clients are created but never dialed eagerly.
func (b *ContainerBuilder) Build(ctx context.Context) (*Container, error) {
	c := New(b.cfg)

	if b.logger != nil {
		c.logger = b.logger
		slog.SetDefault(b.logger)
	} else {
		c.logger = c.initLogger()
	}

	if b.pool != nil {
		c.pool = b.pool
	} else {
		if err := c.initDatabase(ctx); err != nil {
			return nil, err
		}
	}

	if err := c.initNATS(); err != nil {
		return nil, err
	}
	c.initRedis()
	c.initRepositories()

	if b.eventPublisher != nil {
		c.eventPublisher = b.eventPublisher
	}
	if b.gateway != nil {
		c.paymentGateway = b.gateway
	}

	c.initUseCases()
	c.initRelay()
	c.initHTTPServer()

	return c, nil
}
