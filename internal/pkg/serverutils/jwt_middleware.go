package serverutils

import (
	"fmt"
	"strings"

	"arthik-chat-be/internal/constant"
	"arthik-chat-be/internal/pkg/apperror"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const userIdLocal = "user_id"

// NewAuthMiddleware resolves the owner scope of a request. In "off" mode every
// request uses the global scope. In "optional" mode a valid bearer token
// scopes the request to its user and a missing token falls back to global.
// In "required" mode a valid token is mandatory.
func NewAuthMiddleware(mode string, secret string) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		if mode == constant.AuthModeOff {
			ctx.Locals(userIdLocal, constant.OwnerScopeGlobal)
			return ctx.Next()
		}

		tokenStr, present := bearerToken(ctx.Get(fiber.HeaderAuthorization))
		if !present {
			// Browsers cannot set headers on websocket handshakes.
			tokenStr = ctx.Query("token")
			present = tokenStr != ""
		}
		if !present {
			if mode == constant.AuthModeRequired {
				return apperror.Unauthorized("Missing token")
			}
			ctx.Locals(userIdLocal, constant.OwnerScopeGlobal)
			return ctx.Next()
		}

		userId, err := parseUserId(tokenStr, secret)
		if err != nil {
			return apperror.Unauthorized("Invalid token")
		}

		ctx.Locals(userIdLocal, userId)
		return ctx.Next()
	}
}

// UserId returns the owner scope set by the auth middleware.
func UserId(ctx *fiber.Ctx) string {
	if id, ok := ctx.Locals(userIdLocal).(string); ok {
		return id
	}
	return constant.OwnerScopeGlobal
}

func bearerToken(header string) (string, bool) {
	if len(header) < 7 || !strings.EqualFold(header[:7], "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(header[7:])
	return token, token != ""
}

func parseUserId(tokenStr string, secret string) (string, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return "", fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("invalid claims")
	}

	if id, ok := claims["user_id"].(string); ok && id != "" {
		return id, nil
	}
	if sub, err := claims.GetSubject(); err == nil && sub != "" {
		return sub, nil
	}
	return "", fmt.Errorf("token has no subject")
}
