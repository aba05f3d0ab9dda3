package middleware

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/facelabel/internal/domain"
	"github.com/saturnino-fabrica-de-software/facelabel/internal/telegram"
)

func newApp(handlers ...fiber.Handler) *fiber.App {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(logger)})
	app.Use(Recover(logger))
	app.Use(Logger(logger))
	app.All("/", handlers...)
	return app
}

func decodeError(t *testing.T, body io.Reader) (string, string) {
	t.Helper()
	var payload struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(body).Decode(&payload))
	return payload.Error.Code, payload.Error.Message
}

func TestErrorHandler(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{name: "app error", err: domain.ErrInvalidJSON, wantStatus: 400, wantCode: "INVALID_JSON"},
		{name: "wrapped app error", err: domain.ErrInternal.WithError(errors.New("boom")), wantStatus: 500, wantCode: "INTERNAL_ERROR"},
		{name: "fiber error", err: fiber.ErrRequestEntityTooLarge, wantStatus: 413, wantCode: "HTTP_ERROR"},
		{name: "unknown error", err: errors.New("boom"), wantStatus: 500, wantCode: "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newApp(func(c *fiber.Ctx) error { return tt.err })

			resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			code, message := decodeError(t, resp.Body)
			assert.Equal(t, tt.wantCode, code)
			assert.NotContains(t, message, "boom")
		})
	}
}

func TestRecover(t *testing.T) {
	app := newApp(func(c *fiber.Ctx) error { panic("kaboom") })

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, 500, resp.StatusCode)

	code, _ := decodeError(t, resp.Body)
	assert.Equal(t, "INTERNAL_ERROR", code)
}

func TestPostOnly(t *testing.T) {
	ok := func(c *fiber.Ctx) error { return c.SendString("OK") }
	app := newApp(PostOnly(), ok)

	for _, method := range []string{"GET", "PUT", "DELETE", "PATCH"} {
		t.Run(method, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest(method, "/", nil))
			require.NoError(t, err)
			assert.Equal(t, 405, resp.StatusCode)
			assert.Equal(t, "POST", resp.Header.Get("Allow"))
		})
	}

	resp, err := app.Test(httptest.NewRequest("POST", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
}

func TestWebhookSecret(t *testing.T) {
	ok := func(c *fiber.Ctx) error { return c.SendString("OK") }

	tests := []struct {
		name       string
		secret     string
		header     string
		wantStatus int
	}{
		{name: "matching secret", secret: "s3cret", header: "s3cret", wantStatus: 200},
		{name: "wrong secret", secret: "s3cret", header: "s3cre", wantStatus: 401},
		{name: "missing header", secret: "s3cret", wantStatus: 401},
		{name: "check disabled", secret: "", header: "anything", wantStatus: 200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newApp(WebhookSecret(tt.secret), ok)

			req := httptest.NewRequest("POST", "/", nil)
			if tt.header != "" {
				req.Header.Set(telegram.SecretHeader, tt.header)
			}

			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
		})
	}
}
