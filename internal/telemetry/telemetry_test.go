package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSetup(t *testing.T) {
	t.Run("none installs nothing", func(t *testing.T) {
		for _, exporter := range []string{"", ExporterNone} {
			shutdown, err := Setup(context.Background(), exporter, "finance-bot-test")
			require.NoError(t, err)
			require.NoError(t, shutdown(context.Background()))
		}
	})

	t.Run("stdout exporter", func(t *testing.T) {
		shutdown, err := Setup(context.Background(), ExporterStdout, "finance-bot-test")
		require.NoError(t, err)
		require.NotNil(t, shutdown)
		require.NoError(t, shutdown(context.Background()))
	})

	t.Run("unknown exporter", func(t *testing.T) {
		_, err := Setup(context.Background(), "zipkin", "finance-bot-test")
		require.Error(t, err)
		require.Contains(t, err.Error(), "zipkin")
	})
}
