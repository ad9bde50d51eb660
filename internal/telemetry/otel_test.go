package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"marry-fun-bot/internal/config"
)

func TestSetup_NoopWhenEndpointEmpty(t *testing.T) {
	shutdown, err := Setup(context.Background(), config.TelemetryConfig{ServiceName: "test"})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, shutdown(ctx))
}

func TestSetup_ProviderWithEndpoint(t *testing.T) {
	// Non-routable address; nothing is exported before shutdown.
	shutdown, err := Setup(context.Background(), config.TelemetryConfig{
		ServiceName: "test",
		Endpoint:    "http://192.0.2.1:4318",
	})
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}
