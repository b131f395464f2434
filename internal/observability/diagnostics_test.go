package observability

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/riskibarqy/guildsync/internal/metrics"
)

func TestDiagnosticsHandler_ServesMetrics(t *testing.T) {
	t.Parallel()

	metrics.SnapshotSaved("raids")

	rec := httptest.NewRecorder()
	DiagnosticsHandler(nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "guildsync_snapshots_total") {
		t.Fatalf("expected snapshot counter in metrics output")
	}
}

func TestDiagnosticsHandler_Healthz(t *testing.T) {
	t.Parallel()

	healthy := DiagnosticsHandler(func(context.Context) error { return nil })
	rec := httptest.NewRecorder()
	healthy.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got=%d", rec.Code)
	}

	unhealthy := DiagnosticsHandler(func(context.Context) error { return errors.New("db down") })
	rec = httptest.NewRecorder()
	unhealthy.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got=%d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "db down") {
		t.Fatalf("expected health error in body, got=%q", rec.Body.String())
	}
}

func TestStartDiagnosticsServer_DisabledWithoutAddr(t *testing.T) {
	t.Parallel()

	if srv := StartDiagnosticsServer("", nil, nil); srv != nil {
		t.Fatalf("expected nil server when addr is empty")
	}
	if err := StopDiagnosticsServer(nil, nil, 0); err != nil {
		t.Fatalf("stop nil server: %v", err)
	}
}
