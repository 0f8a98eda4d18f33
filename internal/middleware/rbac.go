package middleware

import (
	"slices"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/exam-console-api/internal/utils"
)

// RequireRole admits requests whose token role is one of roles.
func RequireRole(roles ...string) fiber.Handler {
	allowed := make([]string, 0, len(roles))
	for _, role := range roles {
		if normalized := normalizeRoleValue(role); normalized != "" {
			allowed = append(allowed, normalized)
		}
	}

	return func(c *fiber.Ctx) error {
		role := normalizeRoleValue(c.Locals(LocalUserRole))
		if role == "" || !slices.Contains(allowed, role) {
			return utils.Fail(c, fiber.StatusForbidden, "insufficient permissions", fiber.Map{"required": allowed})
		}
		return c.Next()
	}
}

// normalizeRoleValue reads a role claim, which may arrive as a string or a JSON array.
func normalizeRoleValue(value interface{}) string {
	switch v := value.(type) {
	case string:
		return strings.ToLower(strings.TrimSpace(v))
	case []string:
		for _, item := range v {
			if role := normalizeRoleValue(item); role != "" {
				return role
			}
		}
	case []interface{}:
		for _, item := range v {
			if role := normalizeRoleValue(item); role != "" {
				return role
			}
		}
	}
	return ""
}
