package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/auth-gateway/pkg/util/errorutil"
)

func newRoleApp(principal *Principal, guard fiber.Handler) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.SendStatus(apperrors.ToDomainError(err).HTTPStatus)
		},
	})
	app.Use(func(c *fiber.Ctx) error {
		if principal != nil {
			c.Locals(principalKey, *principal)
		}
		return c.Next()
	})
	app.Get("/", guard, func(c *fiber.Ctx) error {
		return c.SendStatus(http.StatusNoContent)
	})
	return app
}

func TestRoleGuards(t *testing.T) {
	user := NewPrincipal("alice", []string{"USER"})
	admin := NewPrincipal("root", []string{"USER", "ADMIN"})

	cases := []struct {
		name      string
		principal *Principal
		guard     fiber.Handler
		want      int
	}{
		{"anonymous needs auth", nil, RequireAuthenticated(), http.StatusUnauthorized},
		{"authenticated passes", &user, RequireAuthenticated(), http.StatusNoContent},
		{"anonymous role check", nil, RequireRole("ADMIN"), http.StatusUnauthorized},
		{"missing role", &user, RequireRole("ADMIN"), http.StatusForbidden},
		{"matching role", &admin, RequireRole("ADMIN"), http.StatusNoContent},
		{"any of roles", &user, RequireRole("ADMIN", "USER"), http.StatusNoContent},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := newRoleApp(tc.principal, tc.guard)
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
			if err != nil {
				t.Fatalf("app.Test: %v", err)
			}
			if resp.StatusCode != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, resp.StatusCode)
			}
		})
	}
}

func TestPrincipalIsImmutable(t *testing.T) {
	roles := []string{"USER"}
	principal := NewPrincipal("alice", roles)
	roles[0] = "ADMIN"

	got := principal.Roles()
	got[0] = "ROOT"

	if principal.HasRole("ADMIN") || principal.HasRole("ROOT") {
		t.Fatalf("principal roles changed through an external slice: %v", principal.Roles())
	}
	if !principal.HasRole("USER") {
		t.Fatalf("expected USER role to remain")
	}
}
