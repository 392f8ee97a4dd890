package users

import (
	"encoding/json"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"

	"github.com/congo-pay/mockpay/internal/apperr"
	"github.com/congo-pay/mockpay/internal/auth"
)

func setupHandlerApp(t *testing.T) (*fiber.App, *auth.TokenService) {
	t.Helper()
	tokens, err := auth.NewTokenService("test-secret", "HS256", 30*time.Minute)
	if err != nil {
		t.Fatalf("token service: %v", err)
	}
	svc := NewService(NewMemoryRepository(), auth.NewHasher(bcrypt.MinCost))
	h := NewHandler(svc, tokens, nil)

	app := fiber.New(fiber.Config{ErrorHandler: apperr.Handler(nil)})
	app.Post("/users/signup", h.Signup)
	app.Post("/users/login", h.Login)
	app.Get("/users", h.List)
	app.Get("/users/:id", h.Get)
	app.Patch("/users/:id", h.Update)
	app.Delete("/users/:id", h.Delete)
	return app, tokens
}

func TestHandlerSignupHidesDigest(t *testing.T) {
	app, _ := setupHandlerApp(t)

	req := httptest.NewRequest(fiber.MethodPost, "/users/signup",
		strings.NewReader(`{"first_name":"Ada","last_name":"Obi","phone":"0700000001","password":"1234"}`))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("expected 201 got %d", resp.StatusCode)
	}

	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := body["password"]; ok {
		t.Fatal("response must not carry the password")
	}
	if body["phone"] != "0700000001" {
		t.Fatalf("unexpected body %v", body)
	}
}

func TestHandlerLoginWithForm(t *testing.T) {
	app, tokens := setupHandlerApp(t)

	signup := httptest.NewRequest(fiber.MethodPost, "/users/signup",
		strings.NewReader(`{"first_name":"Ada","last_name":"Obi","phone":"0700000001","password":"1234"}`))
	signup.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if _, err := app.Test(signup); err != nil {
		t.Fatalf("signup: %v", err)
	}

	form := url.Values{"username": {"0700000001"}, "password": {"1234"}}
	req := httptest.NewRequest(fiber.MethodPost, "/users/login", strings.NewReader(form.Encode()))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationForm)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200 got %d", resp.StatusCode)
	}

	var body tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.TokenType != "bearer" {
		t.Fatalf("expected bearer token type, got %q", body.TokenType)
	}
	sub, err := tokens.Verify(body.AccessToken)
	if err != nil {
		t.Fatalf("verify issued token: %v", err)
	}
	if sub != body.Data.ID {
		t.Fatalf("token subject %s does not match user %s", sub, body.Data.ID)
	}
}

func TestHandlerLoginRejectsBadCredentials(t *testing.T) {
	app, _ := setupHandlerApp(t)

	form := url.Values{"username": {"0700000001"}, "password": {"1234"}}
	req := httptest.NewRequest(fiber.MethodPost, "/users/login", strings.NewReader(form.Encode()))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationForm)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.StatusCode)
	}
	var body apperr.Body
	_ = json.NewDecoder(resp.Body).Decode(&body)
	if body.Detail != msgInvalidCredentials {
		t.Fatalf("unexpected detail %q", body.Detail)
	}
}

func TestHandlerListEmptyIsArray(t *testing.T) {
	app, _ := setupHandlerApp(t)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/users", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	var body []Response
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body == nil || len(body) != 0 {
		t.Fatalf("expected empty array, got %v", body)
	}
}

func TestHandlerDeleteThenGet(t *testing.T) {
	app, _ := setupHandlerApp(t)

	signup := httptest.NewRequest(fiber.MethodPost, "/users/signup",
		strings.NewReader(`{"first_name":"Ada","last_name":"Obi","phone":"0700000001","password":"1234"}`))
	signup.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := app.Test(signup)
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	var created Response
	_ = json.NewDecoder(resp.Body).Decode(&created)

	resp, err = app.Test(httptest.NewRequest(fiber.MethodDelete, "/users/"+created.ID, nil))
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if resp.StatusCode != fiber.StatusNoContent {
		t.Fatalf("expected 204 got %d", resp.StatusCode)
	}

	resp, err = app.Test(httptest.NewRequest(fiber.MethodGet, "/users/"+created.ID, nil))
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.StatusCode)
	}
}

func postForm(t *testing.T, app *fiber.App, path string, form url.Values) int {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationForm)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("post %s: %v", path, err)
	}
	return resp.StatusCode
}

func TestHandlerFormSignupKeepsStoredPhone(t *testing.T) {
	app, _ := setupHandlerApp(t)

	signup := url.Values{"first_name": {"Ada"}, "last_name": {"Obi"}, "phone": {"0700000009"}, "password": {"1234"}}
	req := httptest.NewRequest(fiber.MethodPost, "/users/signup", strings.NewReader(signup.Encode()))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationForm)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("expected 201 got %d", resp.StatusCode)
	}
	var created Response
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode: %v", err)
	}

	// Later requests reuse the same request buffers.
	for i := 0; i < 3; i++ {
		bad := url.Values{"first_name": {"Eve"}, "last_name": {"X"}, "phone": {"12345"}, "password": {"1234"}}
		if status := postForm(t, app, "/users/signup", bad); status != fiber.StatusBadRequest {
			t.Fatalf("expected 400 got %d", status)
		}
	}

	resp, err = app.Test(httptest.NewRequest(fiber.MethodGet, "/users/"+created.ID, nil))
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	var fetched Response
	if err := json.NewDecoder(resp.Body).Decode(&fetched); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if fetched.Phone != "0700000009" || fetched.FirstName != "Ada" {
		t.Fatalf("stored user changed: %+v", fetched)
	}

	login := url.Values{"username": {"0700000009"}, "password": {"1234"}}
	if status := postForm(t, app, "/users/login", login); status != fiber.StatusOK {
		t.Fatalf("expected login to succeed, got %d", status)
	}
}
