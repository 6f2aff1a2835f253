package handlers

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/agservice/internal/api/dto"
	"github.com/spec-kit/agservice/internal/auth"
	"github.com/spec-kit/agservice/internal/observability"
	"github.com/spec-kit/agservice/internal/service"
	apperrors "github.com/spec-kit/agservice/pkg/util/errorutil"
)

// invalidLoginBody is the only body a failed login ever returns.
const invalidLoginBody = "invalid"

// AuthHandler exposes the /api/auth endpoints.
type AuthHandler struct {
	sessions *service.SessionService
	throttle *auth.LoginThrottle
	cookies  auth.SessionCookies
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// NewAuthHandler constructs handler. A nil throttle disables login limiting.
func NewAuthHandler(sessions *service.SessionService, throttle *auth.LoginThrottle, cookies auth.SessionCookies, metrics *observability.Metrics, logger *zap.Logger) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{
		sessions: sessions,
		throttle: throttle,
		cookies:  cookies,
		metrics:  metrics,
		logger:   logger,
	}
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	req.Normalize()
	ctx := c.UserContext()

	allowed, retryAfter, err := h.throttle.Allow(ctx, c.IP(), req.Username)
	if err != nil {
		h.logger.Warn("login throttle unavailable", zap.Error(err))
	}
	if !allowed {
		h.metrics.RecordLoginThrottled()
		c.Set(fiber.HeaderRetryAfter, strconv.Itoa(retrySeconds(retryAfter)))
		return apperrors.NewTooManyRequests("too many login attempts")
	}

	session, err := h.sessions.Login(ctx, req.Username, req.Password)
	if errors.Is(err, service.ErrInvalidCredentials) {
		return c.Status(fiber.StatusUnauthorized).SendString(invalidLoginBody)
	}
	if err != nil {
		return err
	}

	if err := h.throttle.Reset(ctx, c.IP(), req.Username); err != nil {
		h.logger.Warn("login throttle reset failed", zap.Error(err))
	}
	h.cookies.Set(c, session.Access, session.Refresh)
	return c.JSON(dto.LoginResponse{Username: session.Username, Roles: session.Roles})
}

func retrySeconds(d time.Duration) int {
	secs := int((d + time.Second - 1) / time.Second)
	if secs < 1 {
		return 1
	}
	return secs
}

// Refresh handles POST /api/auth/refresh. Only the refresh cookie is read;
// any failure is a bare 401.
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	token := c.Cookies(auth.RefreshCookieName)
	if token == "" {
		c.Status(fiber.StatusUnauthorized)
		return nil
	}

	session, err := h.sessions.Refresh(c.UserContext(), token)
	if errors.Is(err, service.ErrUnauthorized) {
		c.Status(fiber.StatusUnauthorized)
		return nil
	}
	if err != nil {
		return err
	}

	c.Cookie(h.cookies.Access(session.Access))
	return c.JSON(fiber.Map{"ok": true})
}

// Logout handles POST /api/auth/logout.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	h.endSession(c)
	c.Status(fiber.StatusOK)
	return nil
}

// LogoutPage handles the browser GET /logout link.
func (h *AuthHandler) LogoutPage(c *fiber.Ctx) error {
	h.endSession(c)
	return c.Redirect("/", fiber.StatusFound)
}

func (h *AuthHandler) endSession(c *fiber.Ctx) {
	subject := ""
	if id, ok := auth.IdentityFromCtx(c); ok {
		subject = id.Subject
	}
	h.sessions.Logout(c.UserContext(), subject)
	h.cookies.Clear(c)
}

// Me handles GET /api/auth/me.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	id, ok := auth.IdentityFromCtx(c)
	if !ok {
		return c.JSON(dto.MeResponse{Authenticated: false})
	}
	roles := id.Roles
	if roles == nil {
		roles = []string{}
	}
	return c.JSON(dto.MeResponse{Authenticated: true, Username: id.Subject, Roles: roles})
}

// Signup handles POST /api/auth/signup.
func (h *AuthHandler) Signup(c *fiber.Ctx) error {
	var req dto.SignupRequest
	if err := c.BodyParser(&req); err != nil {
		return signupResult(c, fiber.StatusBadRequest, "invalid payload")
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return signupResult(c, fiber.StatusBadRequest, err.Error())
	}

	_, err := h.sessions.Signup(c.UserContext(), req.Username, req.Password, req.PasswordConfirm)
	switch {
	case errors.Is(err, service.ErrPasswordMismatch):
		return signupResult(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrDuplicateUsername):
		return signupResult(c, fiber.StatusConflict, err.Error())
	case err != nil:
		return err
	}
	return signupResult(c, fiber.StatusOK, "registered")
}

func signupResult(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(dto.SimpleResponse{OK: status == fiber.StatusOK, Message: message})
}
