package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/allisson/roleguard/internal/metrics"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	goleak.VerifyTestMain(m)
}

type stubPinger struct {
	err error
}

func (s stubPinger) PingContext(ctx context.Context) error {
	return s.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func serve(t *testing.T, handler http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func decodeStatus(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body["status"]
}

func TestMetricsServer_Health(t *testing.T) {
	server := NewMetricsServer("localhost", 8081, discardLogger(), nil)

	w := serve(t, server.GetHandler(), "/health")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", decodeStatus(t, w))
}

func TestMetricsServer_Ready(t *testing.T) {
	t.Run("Success_AllPingersHealthy", func(t *testing.T) {
		server := NewMetricsServer("localhost", 8081, discardLogger(), nil, stubPinger{}, stubPinger{})

		w := serve(t, server.GetHandler(), "/ready")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "ready", decodeStatus(t, w))
	})

	t.Run("Error_PingFailure", func(t *testing.T) {
		server := NewMetricsServer(
			"localhost", 8081, discardLogger(), nil,
			stubPinger{}, stubPinger{err: errors.New("connection refused")},
		)

		w := serve(t, server.GetHandler(), "/ready")

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Equal(t, "not ready", decodeStatus(t, w))
	})

	t.Run("Error_NilPinger", func(t *testing.T) {
		server := NewMetricsServer("localhost", 8081, discardLogger(), nil, nil)

		w := serve(t, server.GetHandler(), "/ready")

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}

func TestMetricsServer_Metrics(t *testing.T) {
	t.Run("Success_ExposesBusinessMetrics", func(t *testing.T) {
		provider, err := metrics.NewProvider("roleguard")
		require.NoError(t, err)
		defer func() {
			assert.NoError(t, provider.Shutdown(context.Background()))
		}()

		bm, err := metrics.NewBusinessMetrics(provider.MeterProvider(), "roleguard")
		require.NoError(t, err)
		bm.RecordOperation(context.Background(), "rbac", "authorize", "success")

		server := NewMetricsServer("localhost", 8081, discardLogger(), provider)

		// Prime the HTTP instruments through a non-skipped route.
		serve(t, server.GetHandler(), "/ready")
		w := serve(t, server.GetHandler(), "/metrics")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "roleguard_operations_total")
		assert.Regexp(t, `roleguard_http_requests_total\{[^}]*path="/ready"`, w.Body.String())
		assert.NotContains(t, w.Body.String(), `path="/metrics"`)
	})

	t.Run("NotFound_WithoutProvider", func(t *testing.T) {
		server := NewMetricsServer("localhost", 8081, discardLogger(), nil)

		w := serve(t, server.GetHandler(), "/metrics")

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestMetricsServer_RequestID(t *testing.T) {
	server := NewMetricsServer("localhost", 8081, discardLogger(), nil)

	t.Run("Success_GeneratesUUIDv7", func(t *testing.T) {
		w := serve(t, server.GetHandler(), "/health")

		id, err := uuid.Parse(w.Header().Get("X-Request-ID"))
		require.NoError(t, err)
		assert.Equal(t, uuid.Version(7), id.Version())
	})

	t.Run("Success_PropagatesIncomingID", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("X-Request-ID", "req-123")
		server.GetHandler().ServeHTTP(w, req)

		assert.Equal(t, "req-123", w.Header().Get("X-Request-ID"))
	})
}

func TestMetricsServer_StartShutdown(t *testing.T) {
	server := NewMetricsServer("127.0.0.1", 0, discardLogger(), nil)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start(context.Background())
	}()

	// Give ListenAndServe a moment to bind before shutting down.
	time.Sleep(50 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, server.Shutdown(ctx))

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop")
	}
}
