package bot

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gitlab.com/yelinaung/finance-bot/internal/bot/mocks"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// counterValue sums the data points of an int64 counter whose attributes
// include every pair in attrs.
func counterValue(rm metricdata.ResourceMetrics, name string, attrs map[string]string) int64 {
	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				continue
			}
			for _, dp := range sum.DataPoints {
				match := true
				for k, v := range attrs {
					got, ok := dp.Attributes.Value(attribute.Key(k))
					if !ok || got.AsString() != v {
						match = false
						break
					}
				}
				if match {
					total += dp.Value
				}
			}
		}
	}
	return total
}

func TestDispatcherMetrics(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	d, backend, _ := setupTestDispatcher(t, WithMeterProvider(mp))
	tg := mocks.NewMockBot()

	sendText(d, tg, "/income 500 Подарок")
	backend.addErr = context.DeadlineExceeded
	sendText(d, tg, "/expense 200 Кафе")
	pressButton(d, tg, "bogus", 1)
	pressButton(d, tg, "expense:2026", 1)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	require.Equal(t, int64(1), counterValue(rm, "bot.events", map[string]string{"event.type": "text", "route": routeQuickIncome}))
	require.Equal(t, int64(1), counterValue(rm, "bot.events", map[string]string{"event.type": "callback", "route": routeUnknownCallback}))
	require.Equal(t, int64(1), counterValue(rm, "bot.events", map[string]string{"route": routeNavigation}))
	require.Equal(t, int64(4), counterValue(rm, "bot.events", nil))

	require.Equal(t, int64(1), counterValue(rm, "bot.wizard.commits", map[string]string{"kind": "income", "result": "ok"}))
	require.Equal(t, int64(1), counterValue(rm, "bot.wizard.commits", map[string]string{"kind": "expense", "result": "error"}))
}

func TestDispatcherTracing(t *testing.T) {
	t.Parallel()

	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	d, backend, _ := setupTestDispatcher(t, WithTracerProvider(tp))
	backend.summaryErr = context.DeadlineExceeded
	tg := mocks.NewMockBot()

	sendText(d, tg, "/summary")

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	span := spans[0]
	require.Equal(t, "bot.HandleEvent", span.Name())

	attrs := map[attribute.Key]string{}
	for _, kv := range span.Attributes() {
		attrs[kv.Key] = kv.Value.AsString()
	}
	require.Equal(t, "text", attrs["event.type"])
	require.Equal(t, routeSummary, attrs["route"])

	var sawError bool
	for _, ev := range span.Events() {
		if ev.Name == "exception" {
			sawError = true
		}
	}
	require.True(t, sawError, "backend failure recorded on the span")
}
