package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/tejedor/trama/internal/storage"
)

type failingPing struct {
	storage.Storage
}

func (f *failingPing) Ping(ctx context.Context) error {
	return errors.New("connection refused")
}

func TestHealthHandler_Healthy(t *testing.T) {
	env := newTestEnv(t)
	handler := NewHealthHandler(env.store, env.logger)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp HealthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Status != "healthy" || resp.Service != "trama" {
		t.Errorf("unexpected response: %+v", resp)
	}
	if resp.Components["storage"] != "healthy" {
		t.Errorf("unexpected components: %v", resp.Components)
	}
}

func TestHealthHandler_Degraded(t *testing.T) {
	env := newTestEnv(t)
	handler := NewHealthHandler(&failingPing{env.store}, env.logger)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
	var resp HealthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Status != "degraded" || resp.Components["storage"] != "unhealthy" {
		t.Errorf("unexpected response: %+v", resp)
	}
}
