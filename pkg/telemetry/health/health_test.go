package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestChecker_Ready(t *testing.T) {
	c := New(50 * time.Millisecond)

	if r := c.Ready(context.Background()); r.Status != StatusReady {
		t.Errorf("no checks: status = %q, want ready", r.Status)
	}

	c.Register("source", func(context.Context) error { return nil })
	c.Register("catalog", func(context.Context) error { return errors.New("no catalog loaded") })
	c.Register("slow", func(ctx context.Context) error {
		<-ctx.Done()
		time.Sleep(10 * time.Millisecond)
		return nil
	})

	r := c.Ready(context.Background())
	if r.Status != StatusDegraded {
		t.Errorf("status = %q, want degraded", r.Status)
	}
	if r.Checks["source"].Status != StatusOK {
		t.Errorf("source = %+v", r.Checks["source"])
	}
	if got := r.Checks["catalog"]; got.Status != StatusUnhealthy || got.Message != "no catalog loaded" {
		t.Errorf("catalog = %+v", got)
	}
	if r.Checks["slow"].Status != StatusUnhealthy {
		t.Errorf("slow check should time out: %+v", r.Checks["slow"])
	}

	if names := c.Names(); len(names) != 3 || names[0] != "catalog" {
		t.Errorf("Names() = %v", names)
	}
}

func TestHandlers(t *testing.T) {
	c := New(time.Second)
	mux := http.NewServeMux()
	Register(mux, c, "1.2.3", "abc", "now")

	tests := []struct {
		method string
		path   string
		status int
	}{
		{http.MethodGet, "/healthz", http.StatusOK},
		{http.MethodHead, "/healthz", http.StatusOK},
		{http.MethodGet, "/readyz", http.StatusOK},
		{http.MethodGet, "/version", http.StatusOK},
		{http.MethodPost, "/healthz", http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))
		if w.Code != tt.status {
			t.Errorf("%s %s: status = %d, want %d", tt.method, tt.path, w.Code, tt.status)
		}
	}

	c.Register("source", func(context.Context) error { return errors.New("down") })
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("readyz status = %d, want 503", w.Code)
	}

	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/version", nil))
	var info VersionInfo
	if err := json.Unmarshal(w.Body.Bytes(), &info); err != nil || info.Version != "1.2.3" {
		t.Errorf("version body = %s (%v)", w.Body.String(), err)
	}
}
