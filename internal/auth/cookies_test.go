package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cookiesByName(resp *http.Response) map[string]*http.Cookie {
	out := make(map[string]*http.Cookie)
	for _, c := range resp.Cookies() {
		out[c.Name] = c
	}
	return out
}

func TestSessionCookiesSet(t *testing.T) {
	tm := newTestTokens(t)
	access, err := tm.IssueAccess("alice", nil, testNow)
	require.NoError(t, err)
	refresh, err := tm.IssueRefresh("alice", testNow)
	require.NoError(t, err)

	app := fiber.New()
	app.Get("/set", func(c *fiber.Ctx) error {
		SessionCookies{Secure: true}.Set(c, access, refresh)
		return nil
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/set", nil))
	require.NoError(t, err)
	cookies := cookiesByName(resp)

	a := cookies[AccessCookieName]
	require.NotNil(t, a)
	assert.Equal(t, access.Value, a.Value)
	assert.Equal(t, "/", a.Path)
	assert.Equal(t, int((15 * time.Minute).Seconds()), a.MaxAge)
	assert.True(t, a.HttpOnly)
	assert.True(t, a.Secure)
	assert.Equal(t, http.SameSiteLaxMode, a.SameSite)

	r := cookies[RefreshCookieName]
	require.NotNil(t, r)
	assert.Equal(t, refresh.Value, r.Value)
	assert.Equal(t, RefreshPath, r.Path)
	assert.Equal(t, int((14 * 24 * time.Hour).Seconds()), r.MaxAge)
	assert.True(t, r.HttpOnly)
}

func TestSessionCookiesClear(t *testing.T) {
	app := fiber.New()
	app.Get("/clear", func(c *fiber.Ctx) error {
		SessionCookies{}.Clear(c)
		return nil
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/clear", nil))
	require.NoError(t, err)
	cookies := cookiesByName(resp)

	a := cookies[AccessCookieName]
	require.NotNil(t, a)
	assert.Empty(t, a.Value)
	assert.Equal(t, "/", a.Path)
	assert.True(t, a.Expires.Before(testNow))

	r := cookies[RefreshCookieName]
	require.NotNil(t, r)
	assert.Empty(t, r.Value)
	assert.Equal(t, RefreshPath, r.Path)
	assert.True(t, r.Expires.Before(testNow))
	assert.False(t, r.Secure)
}
