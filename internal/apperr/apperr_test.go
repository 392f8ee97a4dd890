package apperr

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/mockpay/internal/logging"
)

func TestStatusMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{Validation("bad phone"), http.StatusBadRequest},
		{Conflict("taken"), http.StatusBadRequest},
		{InvalidCredentials("nope"), http.StatusBadRequest},
		{Unauthorized("who"), http.StatusUnauthorized},
		{Forbidden("mine"), http.StatusForbidden},
		{NotFound("gone"), http.StatusNotFound},
		{EmptyResult("none"), http.StatusOK},
		{fmt.Errorf("wrapped: %w", NotFound("gone")), http.StatusNotFound},
		{fiber.NewError(http.StatusTooManyRequests, "slow down"), http.StatusTooManyRequests},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := Status(tc.err); got != tc.want {
			t.Fatalf("Status(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestErrorIsMatchesKind(t *testing.T) {
	err := fmt.Errorf("lookup: %w", NotFound("User not found"))
	if !errors.Is(err, NotFound("")) {
		t.Fatal("expected kind match through wrapping")
	}
	if errors.Is(err, Forbidden("")) {
		t.Fatal("different kinds must not match")
	}
}

func TestHandlerRendersDetail(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: Handler(logging.Discard())})
	app.Get("/unauthorized", func(c *fiber.Ctx) error { return Unauthorized("Could not validate credentials") })
	app.Get("/internal", func(c *fiber.Ctx) error { return errors.New("pool exhausted") })

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/unauthorized", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
	if resp.Header.Get(fiber.HeaderWWWAuthenticate) != "Bearer" {
		t.Fatalf("expected WWW-Authenticate header")
	}
	var body Body
	raw, _ := io.ReadAll(resp.Body)
	if err := json.Unmarshal(raw, &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Detail != "Could not validate credentials" {
		t.Fatalf("unexpected detail %q", body.Detail)
	}

	resp, err = app.Test(httptest.NewRequest(fiber.MethodGet, "/internal", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	raw, _ = io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Detail != "internal server error" {
		t.Fatalf("internal error leaked: %q", body.Detail)
	}
}
