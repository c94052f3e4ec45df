package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"mercator-hq/tabular/pkg/config"
)

func TestNew(t *testing.T) {
	cfg := config.Default().Telemetry
	cfg.Logging.Level = "verbose"
	if _, err := New(&cfg, "1.0.0", "abc", "today"); err == nil {
		t.Error("expected error for invalid log level")
	}
}

func TestTelemetry_Endpoints(t *testing.T) {
	cfg := config.Default().Telemetry
	cfg.Metrics.Enabled = true

	tel, err := New(&cfg, "1.0.0", "abc", "today")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	tel.Health().Register("noop", func(context.Context) error { return nil })
	tel.Metrics().RecordCatalogReload(3, nil)

	mux := http.NewServeMux()
	tel.RegisterHealth(mux)
	handler, path := tel.MetricsHandler()
	if handler == nil || path != cfg.Metrics.Path {
		t.Fatalf("MetricsHandler() = %v, %q", handler, path)
	}
	mux.Handle(path, handler)

	tests := []struct {
		path string
		want string
	}{
		{"/healthz", "ok"},
		{"/readyz", "noop"},
		{"/version", "1.0.0"},
		{path, "catalog_definitions"},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))
		if w.Code != http.StatusOK {
			t.Errorf("%s: status = %d", tt.path, w.Code)
		}
		if !strings.Contains(w.Body.String(), tt.want) {
			t.Errorf("%s: body %q does not contain %q", tt.path, w.Body.String(), tt.want)
		}
	}
}

func TestTelemetry_MetricsDisabled(t *testing.T) {
	cfg := config.Default().Telemetry
	cfg.Metrics.Enabled = false

	tel, err := New(&cfg, "", "", "")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if h, _ := tel.MetricsHandler(); h != nil {
		t.Error("expected nil handler when metrics are disabled")
	}
}
