package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// Cookie names carrying the session tokens.
const (
	AccessCookieName  = "accessToken"
	RefreshCookieName = "refreshToken"
)

const bearerPrefix = "Bearer "

// ExtractToken locates a candidate access token on the request. The
// Authorization header wins when it carries the exact "Bearer " prefix;
// otherwise the access cookie is used. A missing token is not an error.
func ExtractToken(c *fiber.Ctx) (string, bool) {
	if header := c.Get(fiber.HeaderAuthorization); strings.HasPrefix(header, bearerPrefix) {
		if token := header[len(bearerPrefix):]; token != "" {
			return token, true
		}
	}
	if token := c.Cookies(AccessCookieName); token != "" {
		return token, true
	}
	return "", false
}
