package middleware

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/noah-isme/exam-console-api/internal/utils"
)

// Locals keys populated by JWTProtected.
const (
	LocalUserID           = "user_id"
	LocalUserRole         = "user_role"
	LocalSessionID        = "session_id"
	LocalSessionExpiresAt = "session_expires_at"
)

// RevocationChecker reports whether a session id has been signed out.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, sessionID string) (bool, error)
}

// JWTProtected returns a middleware that validates JWT bearer tokens. Browsers cannot set
// headers on websocket upgrades, so the token may also arrive as the access_token query value.
func JWTProtected(secret string, revocation RevocationChecker) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString, err := bearerToken(c)
		if err != nil {
			return utils.SendError(c, fiber.StatusUnauthorized, err.Error())
		}

		token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method")
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token")
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token claims")
		}

		userID := extractUserIDFromClaims(claims)
		if userID == nil {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token subject")
		}

		sessionID, _ := claims["jti"].(string)
		if revocation != nil && sessionID != "" {
			revoked, err := revocation.IsRevoked(c.UserContext(), sessionID)
			if err != nil {
				return utils.SendError(c, fiber.StatusServiceUnavailable, "session store unavailable")
			}
			if revoked {
				return utils.SendError(c, fiber.StatusUnauthorized, "session has been signed out")
			}
		}

		c.Locals(LocalUserID, *userID)
		if role := extractUserRoleFromClaims(claims); role != "" {
			c.Locals(LocalUserRole, role)
		}
		if sessionID != "" {
			c.Locals(LocalSessionID, sessionID)
		}
		if expiresAt, err := claims.GetExpirationTime(); err == nil && expiresAt != nil {
			c.Locals(LocalSessionExpiresAt, expiresAt.Time)
		}

		return c.Next()
	}
}

func bearerToken(c *fiber.Ctx) (string, error) {
	authorization := c.Get(fiber.HeaderAuthorization)
	if authorization == "" {
		if query := strings.TrimSpace(c.Query("access_token")); query != "" {
			return query, nil
		}
		return "", fmt.Errorf("authorization header missing")
	}

	const bearer = "Bearer "
	if len(authorization) < len(bearer) || !strings.EqualFold(authorization[:len(bearer)], bearer) {
		return "", fmt.Errorf("invalid authorization header")
	}

	tokenString := strings.TrimSpace(authorization[len(bearer):])
	if tokenString == "" {
		return "", fmt.Errorf("invalid token")
	}
	return tokenString, nil
}

// SessionExpiry returns the expiry of the token used for the request.
func SessionExpiry(c *fiber.Ctx) time.Time {
	if value, ok := c.Locals(LocalSessionExpiresAt).(time.Time); ok {
		return value
	}
	return time.Time{}
}

func extractUserIDFromClaims(claims jwt.MapClaims) *uint {
	for _, key := range []string{"sub", "user_id"} {
		if value, ok := claims[key]; ok {
			if normalized, err := normalizeUserID(value); err == nil && normalized > 0 {
				return &normalized
			}
		}
	}

	return nil
}

func normalizeUserID(value interface{}) (uint, error) {
	switch v := value.(type) {
	case float64:
		if v < 0 {
			return 0, fmt.Errorf("invalid subject")
		}
		return uint(v), nil
	case string:
		parsed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return 0, err
		}
		return uint(parsed), nil
	default:
		return 0, fmt.Errorf("unsupported subject type")
	}
}

func extractUserRoleFromClaims(claims jwt.MapClaims) string {
	value, ok := claims["role"]
	if !ok {
		return ""
	}
	return normalizeRoleValue(value)
}
