package errorutil

import (
	"errors"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func TestToDomainError(t *testing.T) {
	cause := errors.New("connection reset")

	cases := []struct {
		name       string
		err        error
		wantCode   string
		wantStatus int
	}{
		{name: "domain error passes through", err: NewUnauthorized("nope"), wantCode: "UNAUTHORIZED", wantStatus: http.StatusUnauthorized},
		{name: "wrapped domain error", err: errors.Join(errors.New("ctx"), NewForbidden("role")), wantCode: "FORBIDDEN", wantStatus: http.StatusForbidden},
		{name: "fiber not found", err: fiber.ErrNotFound, wantCode: "NOT_FOUND", wantStatus: http.StatusNotFound},
		{name: "fiber method not allowed", err: fiber.ErrMethodNotAllowed, wantCode: "METHOD_NOT_ALLOWED", wantStatus: http.StatusMethodNotAllowed},
		{name: "fiber 5xx is opaque", err: fiber.ErrBadGateway, wantCode: "INTERNAL_ERROR", wantStatus: http.StatusInternalServerError},
		{name: "plain error is opaque", err: cause, wantCode: "INTERNAL_ERROR", wantStatus: http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ToDomainError(tc.err)
			if got.Code != tc.wantCode || got.HTTPStatus != tc.wantStatus {
				t.Fatalf("expected %s/%d, got %s/%d", tc.wantCode, tc.wantStatus, got.Code, got.HTTPStatus)
			}
		})
	}

	if ToDomainError(nil) != nil {
		t.Fatalf("expected nil for nil error")
	}
	if internal := ToDomainError(cause); !errors.Is(internal, cause) || internal.Message != "internal server error" {
		t.Fatalf("expected opaque message that still unwraps to the cause, got %+v", internal)
	}
}
