package auth

import (
	"context"

	"github.com/gofiber/fiber/v2"
)

const identityKey = "auth_identity"

type identityCtxKey struct{}

// Identity is the caller resolved from a verified access token.
type Identity struct {
	Subject string
	Roles   []string
}

// HasRole reports whether the identity holds role.
func (i *Identity) HasRole(role string) bool {
	if i == nil {
		return false
	}
	for _, r := range i.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// HasAllRoles reports whether every role in required is held.
func (i *Identity) HasAllRoles(required []string) bool {
	for _, role := range required {
		if !i.HasRole(role) {
			return false
		}
	}
	return true
}

// setIdentity attaches id to the request. Only the authentication
// middleware writes it, once per request.
func setIdentity(c *fiber.Ctx, id *Identity) {
	c.Locals(identityKey, id)
	c.SetUserContext(WithIdentity(c.UserContext(), id))
}

// IdentityFromCtx retrieves the authenticated caller, if any.
func IdentityFromCtx(c *fiber.Ctx) (*Identity, bool) {
	id, ok := c.Locals(identityKey).(*Identity)
	return id, ok && id != nil
}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityCtxKey{}, id)
}

// IdentityFromContext is the context.Context counterpart of IdentityFromCtx
// for code below the HTTP layer.
func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(identityCtxKey{}).(*Identity)
	return id, ok && id != nil
}
