package auth

import (
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/agservice/internal/observability"
)

// Access classifies a route.
type Access int

const (
	// AccessAuthenticated requires a resolved identity.
	AccessAuthenticated Access = iota
	// AccessPublic admits every request.
	AccessPublic
)

// RouteRule maps a path pattern to its access class. A pattern is either an
// exact path or a prefix ending in "/**". Roles, when set, must all be held.
type RouteRule struct {
	Pattern string
	Access  Access
	Roles   []string
}

func (r RouteRule) matches(path string) bool {
	if base, ok := strings.CutSuffix(r.Pattern, "/**"); ok {
		return path == base || strings.HasPrefix(path, base+"/")
	}
	return path == r.Pattern
}

// Decision is the outcome of authorizing one request.
type Decision int

const (
	Admitted Decision = iota
	Unauthenticated
	AccessDenied
)

func (d Decision) String() string {
	switch d {
	case Admitted:
		return "admitted"
	case Unauthenticated:
		return "unauthenticated"
	case AccessDenied:
		return "access_denied"
	}
	return "unknown"
}

// Paths used when steering browsers after a rejection.
const (
	APIPrefix          = "/api/"
	LoginPath          = "/login"
	ForbiddenPath      = "/403"
	ErrorPathPrefix    = "/error"
	RefreshPath        = "/api/auth/refresh"
	MaxRedirectLength  = 1800
	redirectQueryParam = "redirect"
)

// DefaultRouteRules is the deployed route classification.
func DefaultRouteRules() []RouteRule {
	public := []string{
		"/", LoginPath, "/signup", "/logout", ErrorPathPrefix + "/**", ForbiddenPath,
		"/favicon.ico", "/css/**", "/js/**", "/images/**",
		"/api/auth/**", "/health/**", "/metrics",
	}
	rules := make([]RouteRule, 0, len(public))
	for _, p := range public {
		rules = append(rules, RouteRule{Pattern: p, Access: AccessPublic})
	}
	return rules
}

// Policy decides whether a request may reach its handler.
type Policy struct {
	rules   []RouteRule
	logger  *zap.Logger
	metrics *observability.Metrics
}

// NewPolicy builds a policy over a fixed rule table. Unmatched paths require
// authentication.
func NewPolicy(rules []RouteRule, logger *zap.Logger, metrics *observability.Metrics) *Policy {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Policy{
		rules:   append([]RouteRule(nil), rules...),
		logger:  logger,
		metrics: metrics,
	}
}

// Classify returns the first rule matching path.
func (p *Policy) Classify(path string) RouteRule {
	for _, rule := range p.rules {
		if rule.matches(path) {
			return rule
		}
	}
	return RouteRule{Pattern: path, Access: AccessAuthenticated}
}

// Decide evaluates path against the rule table for the given identity.
func (p *Policy) Decide(path string, id *Identity) Decision {
	rule := p.Classify(path)
	if rule.Access == AccessPublic {
		return Admitted
	}
	return decideFor(id, rule.Roles)
}

func decideFor(id *Identity, roles []string) Decision {
	if id == nil {
		return Unauthenticated
	}
	if !id.HasAllRoles(roles) {
		return AccessDenied
	}
	return Admitted
}

// Handle is the global authorization middleware. It must run after
// AuthMiddleware.Handle.
func (p *Policy) Handle(c *fiber.Ctx) error {
	id, _ := IdentityFromCtx(c)
	decision := p.Decide(c.Path(), id)
	p.metrics.RecordAuthorization(decision.String())
	if decision == Admitted {
		return c.Next()
	}
	return p.Reject(c, decision)
}

// Reject writes the negotiated failure response: a bare status for API
// clients, a redirect for browser navigations.
func (p *Policy) Reject(c *fiber.Ctx, decision Decision) error {
	path := c.Path()
	p.logger.Debug("request rejected",
		zap.String("decision", decision.String()),
		zap.String("path", path),
	)

	status := fiber.StatusUnauthorized
	if decision == AccessDenied {
		status = fiber.StatusForbidden
	}
	if !wantsHTML(c) {
		c.Status(status)
		return nil
	}

	if decision == AccessDenied {
		return c.Redirect(ForbiddenPath, fiber.StatusFound)
	}
	return c.Redirect(loginRedirect(path, string(c.Request().URI().QueryString())), fiber.StatusFound)
}

func wantsHTML(c *fiber.Ctx) bool {
	if strings.HasPrefix(c.Path(), APIPrefix) {
		return false
	}
	return strings.Contains(c.Get(fiber.HeaderAccept), fiber.MIMETextHTML)
}

// loginRedirect builds the login URL that brings the caller back to the
// original destination after authenticating.
func loginRedirect(path, rawQuery string) string {
	if path == LoginPath || path == ErrorPathPrefix || strings.HasPrefix(path, ErrorPathPrefix+"/") {
		return LoginPath
	}
	dest := path
	if rawQuery != "" {
		dest += "?" + rawQuery
	}
	if len(dest) > MaxRedirectLength {
		dest = "/"
	}
	return LoginPath + "?" + redirectQueryParam + "=" + url.QueryEscape(dest)
}
