package auth

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/agservice/internal/domain"
)

var cookieExpired = time.Unix(0, 0).UTC()

// SessionCookies builds the access and refresh cookies. The refresh cookie is
// scoped to the refresh endpoint so browsers never send it elsewhere.
type SessionCookies struct {
	Secure bool
}

// Access returns the cookie carrying an access token for the whole site.
func (s SessionCookies) Access(token domain.IssuedToken) *fiber.Cookie {
	return s.build(AccessCookieName, token.Value, "/", token.TTL())
}

// Refresh returns the cookie carrying a refresh token for RefreshPath only.
func (s SessionCookies) Refresh(token domain.IssuedToken) *fiber.Cookie {
	return s.build(RefreshCookieName, token.Value, RefreshPath, token.TTL())
}

// Set writes both session cookies.
func (s SessionCookies) Set(c *fiber.Ctx, access, refresh domain.IssuedToken) {
	c.Cookie(s.Access(access))
	c.Cookie(s.Refresh(refresh))
}

// Clear overwrites both cookies with empty, already expired values using the
// same paths they were set with; a different path would leave them in place.
func (s SessionCookies) Clear(c *fiber.Ctx) {
	for _, cookie := range s.Cleared() {
		c.Cookie(cookie)
	}
}

// Cleared returns the expiring counterparts of the session cookies.
func (s SessionCookies) Cleared() []*fiber.Cookie {
	access := s.build(AccessCookieName, "", "/", 0)
	refresh := s.build(RefreshCookieName, "", RefreshPath, 0)
	access.Expires = cookieExpired
	refresh.Expires = cookieExpired
	return []*fiber.Cookie{access, refresh}
}

func (s SessionCookies) build(name, value, path string, ttl time.Duration) *fiber.Cookie {
	return &fiber.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		MaxAge:   int(ttl / time.Second),
		HTTPOnly: true,
		Secure:   s.Secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	}
}
