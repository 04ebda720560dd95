package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	noopmetric "go.opentelemetry.io/otel/metric/noop"
)

func TestInit_NoEndpointUsesNoopProviders(t *testing.T) {
	t.Parallel()

	providers, err := Init(Config{ServiceName: "test"})

	require.NoError(t, err)
	require.NotNil(t, providers.Tracer)
	require.NotNil(t, providers.Meter)
	require.NotNil(t, providers.Logger)

	require.NoError(t, providers.Shutdown(context.Background()))
}

func TestTracingHandler_ServiceAttrs(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	inner := slog.NewJSONHandler(&buf, nil)
	logger := slog.New(NewTracingHandler(inner, "discovery", "test"))

	logger.Info("hello")

	var record map[string]any

	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "discovery", record["service"])
	assert.Equal(t, "test", record["env"])
	assert.Equal(t, "hello", record["msg"])
}

func TestParseLogLevel(t *testing.T) {
	t.Parallel()

	assert.Equal(t, slog.LevelDebug, ParseLogLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLogLevel("warn"))
	assert.Equal(t, slog.LevelError, ParseLogLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLogLevel("info"))
	assert.Equal(t, slog.LevelInfo, ParseLogLevel("bogus"))
}

func TestREDMetrics_RecordAndInflight(t *testing.T) {
	t.Parallel()

	metrics, err := NewREDMetrics(noopmetric.NewMeterProvider().Meter("test"))

	require.NoError(t, err)

	ctx := context.Background()

	dec := metrics.TrackInflight(ctx, "scan")
	metrics.RecordRequest(ctx, "scan", "ok", 25*time.Millisecond)
	metrics.RecordRequest(ctx, "scan", "error", time.Second)
	metrics.RecordReposScanned(ctx, 3)
	dec()
}

func TestDiagnosticsServer_HealthAndMetrics(t *testing.T) {
	t.Parallel()

	srv, err := NewDiagnosticsServer("127.0.0.1:0")

	require.NoError(t, err)

	t.Cleanup(func() { _ = srv.Close() })

	resp, err := http.Get("http://" + srv.Addr() + "/healthz")

	require.NoError(t, err)

	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	metricsResp, err := http.Get("http://" + srv.Addr() + "/metrics")

	require.NoError(t, err)

	defer metricsResp.Body.Close()

	assert.Equal(t, http.StatusOK, metricsResp.StatusCode)
}
