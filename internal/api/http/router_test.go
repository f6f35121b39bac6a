package http

import (
	"context"
	"encoding/json"
	"io"
	stdhttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/auth-gateway/internal/api/http/handlers"
	"github.com/spec-kit/auth-gateway/internal/auth"
	"github.com/spec-kit/auth-gateway/internal/config"
	"github.com/spec-kit/auth-gateway/internal/domain"
	"github.com/spec-kit/auth-gateway/internal/observability"
	"github.com/spec-kit/auth-gateway/internal/repository"
	"github.com/spec-kit/auth-gateway/internal/service"
)

const testSecret = "01234567890123456789012345678901"

type memoryUsers map[string]*domain.User

func (m memoryUsers) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	if user, ok := m[username]; ok {
		return user, nil
	}
	return nil, repository.ErrUserNotFound
}

type testServer struct {
	app   *fiber.App
	store *auth.RevocationStore
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := zaptest.NewLogger(t)

	registry := prometheus.NewRegistry()
	metrics, err := observability.NewMetrics(registry)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}

	codec, err := auth.NewTokenCodec(testSecret)
	if err != nil {
		t.Fatalf("NewTokenCodec: %v", err)
	}
	store := auth.NewRevocationStore(codec, logger, metrics)

	users := memoryUsers{}
	for name, role := range map[string]string{"alice": "", "root.admin": "ADMIN"} {
		hash, err := auth.HashPassword("wonderland", bcrypt.MinCost)
		if err != nil {
			t.Fatalf("HashPassword: %v", err)
		}
		users[name] = &domain.User{ID: name, Username: name, PasswordHash: hash, Role: role}
	}
	verifier, err := service.NewDirectoryVerifier(users, bcrypt.MinCost)
	if err != nil {
		t.Fatalf("NewDirectoryVerifier: %v", err)
	}

	authService := service.NewAuthService(config.AuthConfig{TokenTTLMillis: 3600000}, service.AuthDependencies{
		Verifier:    verifier,
		Tokens:      codec,
		Revocations: store,
		Logger:      logger,
	})

	app := fiber.New()
	RegisterMiddlewares(app, logger, metrics, time.Second)
	RegisterRoutes(app, RouteConfig{
		Health:   handlers.NewHealthHandler("auth-gateway", "test", nil, nil, store),
		Auth:     handlers.NewAuthHandler(authService),
		Admin:    handlers.NewAdminHandler(store),
		Gate:     auth.NewGate(codec, store, logger, metrics),
		Registry: registry,
	})

	return &testServer{app: app, store: store}
}

func (s *testServer) do(t *testing.T, method, path, token, body string) (*stdhttp.Response, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	decoded := map[string]any{}
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(raw, &decoded); err != nil {
			t.Fatalf("decode body %q: %v", raw, err)
		}
	}
	return resp, decoded
}

func (s *testServer) login(t *testing.T, username string) string {
	t.Helper()
	resp, body := s.do(t, stdhttp.MethodPost, "/auth/login", "", `{"username":"`+username+`","password":"wonderland"}`)
	if resp.StatusCode != stdhttp.StatusOK {
		t.Fatalf("login status %d, body %v", resp.StatusCode, body)
	}
	token, _ := body["token"].(string)
	if token == "" {
		t.Fatalf("login returned no token: %v", body)
	}
	return token
}

func TestLoginMeLogoutFlow(t *testing.T) {
	s := newTestServer(t)

	resp, body := s.do(t, stdhttp.MethodPost, "/auth/login", "", `{"username":"alice","password":"wonderland"}`)
	if resp.StatusCode != stdhttp.StatusOK {
		t.Fatalf("expected 200, got %d: %v", resp.StatusCode, body)
	}
	if body["tokenType"] != "Bearer" || body["username"] != "alice" || body["expiresIn"] != float64(3600) {
		t.Fatalf("unexpected login response %v", body)
	}
	if _, err := time.Parse(time.RFC3339, body["expiresAt"].(string)); err != nil {
		t.Fatalf("expiresAt is not an instant: %v", err)
	}
	token := body["token"].(string)

	resp, body = s.do(t, stdhttp.MethodGet, "/auth/me", token, "")
	if resp.StatusCode != stdhttp.StatusOK {
		t.Fatalf("expected 200 from /auth/me, got %d", resp.StatusCode)
	}
	roles, _ := body["roles"].([]any)
	if body["subject"] != "alice" || len(roles) != 1 || roles[0] != "USER" {
		t.Fatalf("unexpected principal %v", body)
	}

	resp, _ = s.do(t, stdhttp.MethodPost, "/auth/logout", token, "")
	if resp.StatusCode != stdhttp.StatusOK {
		t.Fatalf("expected 200 from logout, got %d", resp.StatusCode)
	}
	if resp.ContentLength > 0 {
		t.Fatalf("expected empty logout body, got %d bytes", resp.ContentLength)
	}

	resp, body = s.do(t, stdhttp.MethodGet, "/auth/me", token, "")
	if resp.StatusCode != stdhttp.StatusUnauthorized {
		t.Fatalf("expected revoked token to be rejected, got %d", resp.StatusCode)
	}
	errBody, _ := body["error"].(map[string]any)
	if errBody["code"] != "UNAUTHORIZED" {
		t.Fatalf("unexpected error body %v", body)
	}
}

func TestLoginFailuresAreUniform(t *testing.T) {
	s := newTestServer(t)

	wrong, wrongBody := s.do(t, stdhttp.MethodPost, "/auth/login", "", `{"username":"alice","password":"not-the-one"}`)
	unknown, unknownBody := s.do(t, stdhttp.MethodPost, "/auth/login", "", `{"username":"mallory","password":"wonderland"}`)

	if wrong.StatusCode != stdhttp.StatusUnauthorized || unknown.StatusCode != stdhttp.StatusUnauthorized {
		t.Fatalf("expected 401 for both, got %d and %d", wrong.StatusCode, unknown.StatusCode)
	}
	if wrongBody["error"].(map[string]any)["message"] != unknownBody["error"].(map[string]any)["message"] {
		t.Fatalf("failure messages differ: %v vs %v", wrongBody, unknownBody)
	}
}

func TestLoginValidation(t *testing.T) {
	s := newTestServer(t)

	for _, payload := range []string{`{"username":"al","password":"wonderland"}`, `{"username":"alice"}`, `not json`} {
		resp, body := s.do(t, stdhttp.MethodPost, "/auth/login", "", payload)
		if resp.StatusCode != stdhttp.StatusBadRequest {
			t.Fatalf("payload %q: expected 400, got %d", payload, resp.StatusCode)
		}
		if body["error"].(map[string]any)["code"] != "VALIDATION_FAILED" {
			t.Fatalf("payload %q: unexpected body %v", payload, body)
		}
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	s := newTestServer(t)

	for _, tc := range []struct{ method, path, token string }{
		{stdhttp.MethodGet, "/auth/me", ""},
		{stdhttp.MethodPost, "/auth/logout", ""},
		{stdhttp.MethodGet, "/auth/me", "not.a.token"},
		{stdhttp.MethodGet, "/admin/revocations", ""},
	} {
		resp, _ := s.do(t, tc.method, tc.path, tc.token, "")
		if resp.StatusCode != stdhttp.StatusUnauthorized {
			t.Fatalf("%s %s with %q: expected 401, got %d", tc.method, tc.path, tc.token, resp.StatusCode)
		}
	}
}

func TestAdminRouteRequiresRole(t *testing.T) {
	s := newTestServer(t)

	resp, _ := s.do(t, stdhttp.MethodGet, "/admin/revocations", s.login(t, "alice"), "")
	if resp.StatusCode != stdhttp.StatusForbidden {
		t.Fatalf("expected 403 for USER, got %d", resp.StatusCode)
	}

	resp, body := s.do(t, stdhttp.MethodGet, "/admin/revocations", s.login(t, "root.admin"), "")
	if resp.StatusCode != stdhttp.StatusOK || body["revokedTokens"] != float64(0) {
		t.Fatalf("expected 200 with an empty store, got %d %v", resp.StatusCode, body)
	}
}

func TestProbesAndMetricsBypassGate(t *testing.T) {
	s := newTestServer(t)

	resp, body := s.do(t, stdhttp.MethodGet, "/health/ready", "garbage", "")
	if resp.StatusCode != stdhttp.StatusOK || body["status"] != "ready" {
		t.Fatalf("expected ready, got %d %v", resp.StatusCode, body)
	}
	deps := body["dependencies"].(map[string]any)
	if deps["postgres"] != "disabled" || deps["redis"] != "disabled" {
		t.Fatalf("expected disabled backends, got %v", deps)
	}

	s.do(t, stdhttp.MethodGet, "/auth/me", "", "")
	resp, _ = s.do(t, stdhttp.MethodGet, "/metrics", "", "")
	if resp.StatusCode != stdhttp.StatusOK {
		t.Fatalf("expected metrics 200, got %d", resp.StatusCode)
	}
}

func TestRequestIDIsEchoed(t *testing.T) {
	s := newTestServer(t)

	resp, _ := s.do(t, stdhttp.MethodGet, "/health/live", "", "")
	if resp.Header.Get("X-Request-ID") == "" {
		t.Fatalf("expected generated request id")
	}

	req := httptest.NewRequest(stdhttp.MethodGet, "/health/live", nil)
	req.Header.Set("X-Request-ID", "2b1f7c4e-4bb4-4b44-9c63-0f6a1c1f3d55")
	resp, err := s.app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	resp.Body.Close()
	if got := resp.Header.Get("X-Request-ID"); got != "2b1f7c4e-4bb4-4b44-9c63-0f6a1c1f3d55" {
		t.Fatalf("expected request id to be preserved, got %q", got)
	}
}
