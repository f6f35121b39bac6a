package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/auth-gateway/internal/persistence"
)

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

type fixedCounter int

func (f fixedCounter) Len() int { return int(f) }

func readiness(t *testing.T, h *HealthHandler) (int, map[string]any) {
	t.Helper()
	app := fiber.New()
	app.Get("/ready", h.Ready)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/ready", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	body := map[string]any{}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return resp.StatusCode, body
}

func TestReadyReportsDependencies(t *testing.T) {
	ok := pingerFunc(func(context.Context) error { return nil })
	unconfigured := pingerFunc(func(context.Context) error { return persistence.ErrNotConfigured })

	status, body := readiness(t, NewHealthHandler("svc", "v1", ok, unconfigured, fixedCounter(3)))
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	deps := body["dependencies"].(map[string]any)
	if deps["postgres"] != "ok" || deps["redis"] != "disabled" {
		t.Fatalf("unexpected dependency status %v", deps)
	}
	if body["revokedTokens"] != float64(3) {
		t.Fatalf("expected store size 3, got %v", body["revokedTokens"])
	}
}

func TestReadyFailsWhenDependencyDown(t *testing.T) {
	down := pingerFunc(func(context.Context) error { return errors.New("connection refused") })

	status, body := readiness(t, NewHealthHandler("svc", "v1", down, nil, nil))
	if status != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", status)
	}
	details := body["error"].(map[string]any)["details"].(map[string]any)
	if details["postgres"] != "connection refused" {
		t.Fatalf("unexpected details %v", details)
	}
}
