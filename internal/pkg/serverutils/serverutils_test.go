package serverutils

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"arthik-chat-be/internal/constant"
	"arthik-chat-be/internal/pkg/apperror"
	"arthik-chat-be/internal/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type sampleRequest struct {
	Title string `json:"title" validate:"required,notblank,max=5"`
}

func newTestApp(handler fiber.Handler, mw ...fiber.Handler) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: NewErrorHandler(logger.NewNopLogger())})
	for _, m := range mw {
		app.Use(m)
	}
	app.All("/", handler)
	return app
}

func decode(t *testing.T, res *http.Response) ErrorBody {
	t.Helper()
	raw, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	var body ErrorBody
	require.NoError(t, json.Unmarshal(raw, &body))
	return body
}

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func TestValidateRequest_ReportsJsonFieldNames(t *testing.T) {
	err := ValidateRequest(sampleRequest{Title: "   "})
	appErr, ok := apperror.As(err)
	require.True(t, ok)
	require.Len(t, appErr.Fields, 1)
	assert.Equal(t, "title", appErr.Fields[0].Field)

	err = ValidateRequest(sampleRequest{Title: "too long"})
	appErr, ok = apperror.As(err)
	require.True(t, ok)
	assert.Contains(t, appErr.Fields[0].Message, "at most 5")

	assert.NoError(t, ValidateRequest(sampleRequest{Title: "ok"}))
}

func TestErrorHandler_StatusMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"validation", apperror.Validation("bad", apperror.FieldError{Field: "content", Message: "required"}), 400},
		{"not found", apperror.NotFound("Chat session not found"), 404},
		{"unauthorized", apperror.Unauthorized("Missing token"), 401},
		{"persistence", apperror.Persistence("Failed to save message", errors.New("pq: connection refused")), 500},
		{"unexpected", errors.New("boom"), 500},
		{"fiber 405", fiber.ErrMethodNotAllowed, 405},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := newTestApp(func(ctx *fiber.Ctx) error { return tc.err })
			res, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
			require.NoError(t, err)
			assert.Equal(t, tc.status, res.StatusCode)
		})
	}
}

func TestErrorHandler_InternalErrorsAreNotEchoed(t *testing.T) {
	app := newTestApp(func(ctx *fiber.Ctx) error {
		return apperror.Persistence("Failed to save message", errors.New("pq: password authentication failed"))
	})
	res, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)

	body := decode(t, res)
	assert.Equal(t, "Failed to process message", body.Message)
	assert.NotContains(t, body.Error, "pq")
}

func TestParseAndValidate_MalformedBody(t *testing.T) {
	app := newTestApp(func(ctx *fiber.Ctx) error {
		var req sampleRequest
		if err := ParseAndValidate(ctx, &req); err != nil {
			return err
		}
		return ctx.SendStatus(fiber.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	res, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 400, res.StatusCode)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"title":""}`))
	req.Header.Set("Content-Type", "application/json")
	res, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 400, res.StatusCode)
	body := decode(t, res)
	require.NotEmpty(t, body.Errors)
	assert.Equal(t, "title", body.Errors[0].Field)
}

func TestAuthMiddleware_Modes(t *testing.T) {
	echo := func(ctx *fiber.Ctx) error { return ctx.SendString(UserId(ctx)) }
	valid := signedToken(t, jwt.MapClaims{"user_id": "u-1", "exp": time.Now().Add(time.Hour).Unix()})
	subOnly := signedToken(t, jwt.MapClaims{"sub": "u-2", "exp": time.Now().Add(time.Hour).Unix()})
	expired := signedToken(t, jwt.MapClaims{"user_id": "u-1", "exp": time.Now().Add(-time.Hour).Unix()})

	cases := []struct {
		name   string
		mode   string
		token  string
		status int
		owner  string
	}{
		{"off ignores token", constant.AuthModeOff, valid, 200, ""},
		{"optional without token", constant.AuthModeOptional, "", 200, ""},
		{"optional with token", constant.AuthModeOptional, valid, 200, "u-1"},
		{"optional uses sub", constant.AuthModeOptional, subOnly, 200, "u-2"},
		{"optional rejects bad token", constant.AuthModeOptional, "garbage", 401, ""},
		{"required without token", constant.AuthModeRequired, "", 401, ""},
		{"required expired", constant.AuthModeRequired, expired, 401, ""},
		{"required with token", constant.AuthModeRequired, valid, 200, "u-1"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := newTestApp(echo, NewAuthMiddleware(tc.mode, testSecret))
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.token != "" {
				req.Header.Set("Authorization", "Bearer "+tc.token)
			}
			res, err := app.Test(req)
			require.NoError(t, err)
			require.Equal(t, tc.status, res.StatusCode)
			if tc.status == 200 {
				raw, _ := io.ReadAll(res.Body)
				assert.Equal(t, tc.owner, string(raw))
			}
		})
	}
}

func TestAuthMiddleware_RejectsOtherSigningMethods(t *testing.T) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{"user_id": "u-1"}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	app := newTestApp(func(ctx *fiber.Ctx) error { return ctx.SendStatus(200) }, NewAuthMiddleware(constant.AuthModeRequired, testSecret))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	res, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 401, res.StatusCode)
}
