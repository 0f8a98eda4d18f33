package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/exam-console-api/internal/utils"
)

// Roles understood by the route guards.
const (
	AuthRoleAny     = "any"
	AuthRoleTeacher = "teacher"
)

// AuthOptions selects the guards WithAuth applies to a single route.
type AuthOptions struct {
	Role           string
	RequireSession bool
}

type routeGuard func(c *fiber.Ctx) error

// WithAuth runs the guards selected by opts before handler. It expects JWTProtected
// to have populated the request locals.
func WithAuth(handler fiber.Handler, opts AuthOptions) fiber.Handler {
	guards := []routeGuard{requireIdentity}
	if opts.RequireSession {
		guards = append(guards, requireSessionID)
	}
	if role := normalizeRoleValue(opts.Role); role != "" && role != AuthRoleAny {
		guards = append(guards, requireExactRole(role))
	}

	return func(c *fiber.Ctx) error {
		for _, guard := range guards {
			if err := guard(c); err != nil {
				return err
			}
		}
		return handler(c)
	}
}

func requireIdentity(c *fiber.Ctx) error {
	if id, _ := c.Locals(LocalUserID).(uint); id != 0 {
		return nil
	}
	return utils.Fail(c, fiber.StatusUnauthorized, "authentication required", nil)
}

func requireSessionID(c *fiber.Ctx) error {
	if sessionID, _ := c.Locals(LocalSessionID).(string); sessionID != "" {
		return nil
	}
	return utils.Fail(c, fiber.StatusUnauthorized, "session token required", nil)
}

func requireExactRole(role string) routeGuard {
	return func(c *fiber.Ctx) error {
		if normalizeRoleValue(c.Locals(LocalUserRole)) == role {
			return nil
		}
		return utils.Fail(c, fiber.StatusForbidden, "insufficient permissions", fiber.Map{"required": []string{role}})
	}
}
