package auth

import (
	"github.com/gofiber/fiber/v2"
)

// RequireRoles guards a route group beyond the static rule table. Callers
// without an identity are Unauthenticated; callers missing any of the roles
// are AccessDenied. Both go through the policy's negotiated rejection.
func RequireRoles(policy *Policy, roles ...string) fiber.Handler {
	required := append([]string(nil), roles...)
	return func(c *fiber.Ctx) error {
		id, _ := IdentityFromCtx(c)
		decision := decideFor(id, required)
		if decision == Admitted {
			return c.Next()
		}
		policy.metrics.RecordAuthorization(decision.String())
		return policy.Reject(c, decision)
	}
}
