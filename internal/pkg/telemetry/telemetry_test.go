package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/commercekit/walletpay/internal/config"
)

func TestSetup_Disabled(t *testing.T) {
	shutdown, err := Setup(context.Background(), config.TelemetryConfig{Enabled: false}, "test")

	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))
}

func TestSetup_Enabled(t *testing.T) {
	cfg := config.TelemetryConfig{
		Enabled:     true,
		Endpoint:    "localhost:4318",
		SampleRatio: 0.5,
		ServiceName: "walletpay-test",
	}

	shutdown, err := Setup(context.Background(), cfg, "test")

	require.NoError(t, err)
	require.NotNil(t, shutdown)

	// No collector is listening; shutdown may fail to flush, which is fine.
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	_ = shutdown(ctx)
}

func TestSetup_DefaultsServiceNameAndRatio(t *testing.T) {
	cfg := config.TelemetryConfig{
		Enabled:  true,
		Endpoint: "localhost:4318",
	}

	shutdown, err := Setup(context.Background(), cfg, "test")

	require.NoError(t, err)
	require.NotNil(t, shutdown)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	_ = shutdown(ctx)
}
