package container

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/commercekit/walletpay/internal/application/ports"
	"github.com/commercekit/walletpay/internal/config"
	"github.com/commercekit/walletpay/internal/domain/entities"
	"github.com/commercekit/walletpay/internal/domain/events"
)

func testConfig() *config.Config {
	return config.Test()
}

// lazyPool builds a pool that parses the DSN but never dials; enough for
// wiring tests that don't touch the database.
func lazyPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	pool, err := pgxpool.New(context.Background(), testConfig().Database.DSN())
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func TestNew(t *testing.T) {
	cfg := testConfig()
	c := New(cfg)

	require.NotNil(t, c)
	assert.Equal(t, cfg, c.Config())
	assert.Equal(t, "unknown", c.buildTime)
}

func TestContainer_SetBuildTime(t *testing.T) {
	c := New(testConfig())

	c.SetBuildTime("2026-09-01T00:00:00Z")
	assert.Equal(t, "2026-09-01T00:00:00Z", c.buildTime)

	c.SetBuildTime("")
	assert.Equal(t, "2026-09-01T00:00:00Z", c.buildTime)
}

func TestContainer_AccessorsBeforeInit(t *testing.T) {
	c := New(testConfig())

	assert.Nil(t, c.Logger())
	assert.Nil(t, c.Pool())
	assert.Nil(t, c.HTTPServer())
	assert.Nil(t, c.Relay())
	assert.Nil(t, c.UserRepository())
	assert.Nil(t, c.StoreCreditRepository())
	assert.Nil(t, c.PaymentRepository())
	assert.Nil(t, c.OrderRepository())
	assert.Nil(t, c.UnitOfWork())
	assert.Nil(t, c.CreateEntryUseCase())
	assert.Nil(t, c.GetBalanceUseCase())
	assert.Nil(t, c.ProcessPaymentsUseCase())
	assert.Nil(t, c.CompleteOrderUseCase())
}

func TestContainer_initLogger_Levels(t *testing.T) {
	levels := []string{"debug", "info", "warn", "error", "bogus"}

	for _, level := range levels {
		t.Run(level, func(t *testing.T) {
			cfg := testConfig()
			cfg.Log.Level = level
			c := New(cfg)

			log := c.initLogger()

			require.NotNil(t, log)
		})
	}
}

func TestContainer_initLogger_Formats(t *testing.T) {
	for _, format := range []string{"json", "text"} {
		t.Run(format, func(t *testing.T) {
			cfg := testConfig()
			cfg.Log.Format = format
			c := New(cfg)

			log := c.initLogger()

			require.NotNil(t, log)
		})
	}
}

func TestContainer_initLogger_StderrOutput(t *testing.T) {
	cfg := testConfig()
	cfg.Log.Output = "stderr"
	c := New(cfg)

	log := c.initLogger()

	require.NotNil(t, log)
}

func TestNewBuilder(t *testing.T) {
	cfg := testConfig()
	builder := NewBuilder(cfg)

	require.NotNil(t, builder)
	assert.Equal(t, cfg, builder.cfg)
}

func TestContainerBuilder_WithLogger(t *testing.T) {
	log := slog.New(slog.NewTextHandler(os.Stdout, nil))
	builder := NewBuilder(testConfig()).WithLogger(log)

	assert.Equal(t, log, builder.logger)
}

func TestContainerBuilder_WithPool(t *testing.T) {
	pool := lazyPool(t)
	builder := NewBuilder(testConfig()).WithPool(pool)

	assert.Equal(t, pool, builder.pool)
}

func TestContainerBuilder_Chain(t *testing.T) {
	log := slog.New(slog.NewTextHandler(os.Stdout, nil))
	pool := lazyPool(t)
	publisher := nopPublisher{}
	gw := nopGateway{}

	builder := NewBuilder(testConfig()).
		WithLogger(log).
		WithPool(pool).
		WithEventPublisher(publisher).
		WithPaymentGateway(gw)

	assert.Equal(t, log, builder.logger)
	assert.Equal(t, pool, builder.pool)
	assert.Equal(t, ports.EventPublisher(publisher), builder.eventPublisher)
	assert.Equal(t, ports.PaymentGateway(gw), builder.gateway)
}

func TestContainerBuilder_Build(t *testing.T) {
	c, err := NewBuilder(testConfig()).
		WithLogger(slog.New(slog.NewTextHandler(os.Stdout, nil))).
		WithPool(lazyPool(t)).
		Build(context.Background())

	require.NoError(t, err)
	require.NotNil(t, c)

	assert.NotNil(t, c.UserRepository())
	assert.NotNil(t, c.StoreCreditRepository())
	assert.NotNil(t, c.PaymentRepository())
	assert.NotNil(t, c.OrderRepository())
	assert.NotNil(t, c.UnitOfWork())
	assert.NotNil(t, c.CreateEntryUseCase())
	assert.NotNil(t, c.GetBalanceUseCase())
	assert.NotNil(t, c.ProcessPaymentsUseCase())
	assert.NotNil(t, c.CompleteOrderUseCase())
	assert.NotNil(t, c.Relay())
	assert.NotNil(t, c.HTTPServer())

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = c.Shutdown(ctx)
	})
}

func TestContainerBuilder_Build_OverridesPublisherAndGateway(t *testing.T) {
	publisher := nopPublisher{}
	gw := nopGateway{}

	c, err := NewBuilder(testConfig()).
		WithLogger(slog.New(slog.NewTextHandler(os.Stdout, nil))).
		WithPool(lazyPool(t)).
		WithEventPublisher(publisher).
		WithPaymentGateway(gw).
		Build(context.Background())

	require.NoError(t, err)
	assert.Equal(t, ports.EventPublisher(publisher), c.eventPublisher)
	assert.Equal(t, ports.PaymentGateway(gw), c.paymentGateway)

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = c.Shutdown(ctx)
	})
}

func TestContainer_Shutdown_NilComponents(t *testing.T) {
	c := New(testConfig())
	c.logger = c.initLogger()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	assert.NoError(t, c.Shutdown(ctx))
}

func TestContainer_Initialize_NoDB(t *testing.T) {
	cfg := testConfig()
	cfg.Database.Host = "127.0.0.1"
	cfg.Database.Port = 59999 // nothing listens here

	c := New(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	err := c.Initialize(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database")
}

type nopPublisher struct{}

func (nopPublisher) Publish(ctx context.Context, event events.DomainEvent) error { return nil }

func (nopPublisher) PublishBatch(ctx context.Context, evts []events.DomainEvent) error { return nil }

type nopGateway struct{}

func (nopGateway) Capture(ctx context.Context, p *entities.Payment) (entities.MethodResponse, error) {
	return entities.MethodResponse{Success: true}, nil
}

func (nopGateway) Void(ctx context.Context, p *entities.Payment) (entities.MethodResponse, error) {
	return entities.MethodResponse{Success: true}, nil
}

func (nopGateway) Credit(ctx context.Context, p *entities.Payment, cents int64) (entities.MethodResponse, error) {
	return entities.MethodResponse{Success: true}, nil
}
