package auth

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/agservice/internal/domain"
	"github.com/spec-kit/agservice/internal/observability"
)

// AuthMiddleware resolves the caller's identity from the request credentials.
type AuthMiddleware struct {
	tokens  *TokenManager
	logger  *zap.Logger
	metrics *observability.Metrics
	now     func() time.Time
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager, logger *zap.Logger, metrics *observability.Metrics) *AuthMiddleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthMiddleware{tokens: tokens, logger: logger, metrics: metrics, now: time.Now}
}

// Handle populates the request identity when a valid access token is
// presented. It never rejects: a bad or expired token leaves the request
// anonymous and the access decision to the Policy.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	token, ok := ExtractToken(c)
	if !ok {
		m.metrics.RecordAuthentication("anonymous")
		return c.Next()
	}

	claims, err := m.tokens.Verify(token, domain.TokenTypeAccess, m.now())
	if err != nil {
		kind := FailureKind(err)
		m.metrics.RecordAuthentication(kind)
		m.logger.Debug("ignoring unverifiable token",
			zap.String("reason", kind),
			zap.String("path", c.Path()),
			zap.Error(err),
		)
		return c.Next()
	}

	setIdentity(c, &Identity{Subject: claims.Subject, Roles: claims.Roles})
	m.metrics.RecordAuthentication("authenticated")
	return c.Next()
}
