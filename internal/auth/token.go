package auth

import (
	"errors"
	"fmt"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/spec-kit/agservice/internal/domain"
)

// Verification failures. Callers treat all of them as "not authenticated";
// they stay distinct so logs and metrics can tell them apart.
var (
	ErrTokenMalformed        = errors.New("token malformed")
	ErrTokenSignatureInvalid = errors.New("token signature invalid")
	ErrTokenExpired          = errors.New("token expired")
	ErrTokenWrongType        = errors.New("token type mismatch")
)

// ErrMissingSecret is returned when the signing secret is not configured.
var ErrMissingSecret = errors.New("jwt signing secret is empty")

// TokenManager handles issuing and validating JWT tokens.
type TokenManager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewTokenManager builds a new manager. The secret is copied and never
// mutated afterwards, so a manager is safe for concurrent use.
func NewTokenManager(secret string, accessTTL, refreshTTL time.Duration) (*TokenManager, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	if accessTTL <= 0 {
		accessTTL = 15 * time.Minute
	}
	if refreshTTL <= 0 {
		refreshTTL = 14 * 24 * time.Hour
	}
	return &TokenManager{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}, nil
}

// Claims describes JWT payload.
type Claims struct {
	Roles     []string         `json:"roles,omitempty"`
	TokenType domain.TokenType `json:"token_type"`
	jwt.RegisteredClaims
}

// AccessTTL returns the configured access token lifetime.
func (tm *TokenManager) AccessTTL() time.Duration { return tm.accessTTL }

// RefreshTTL returns the configured refresh token lifetime.
func (tm *TokenManager) RefreshTTL() time.Duration { return tm.refreshTTL }

// IssueAccess signs a short-lived token carrying the subject and its roles.
func (tm *TokenManager) IssueAccess(subject string, roles []string, now time.Time) (domain.IssuedToken, error) {
	return tm.issue(subject, append([]string(nil), roles...), domain.TokenTypeAccess, now, tm.accessTTL)
}

// IssueRefresh signs a long-lived token carrying only the subject.
func (tm *TokenManager) IssueRefresh(subject string, now time.Time) (domain.IssuedToken, error) {
	return tm.issue(subject, nil, domain.TokenTypeRefresh, now, tm.refreshTTL)
}

func (tm *TokenManager) issue(subject string, roles []string, typ domain.TokenType, now time.Time, ttl time.Duration) (domain.IssuedToken, error) {
	issuedAt := now.Truncate(time.Second)
	expiresAt := issuedAt.Add(ttl)
	claims := &Claims{
		Roles:     roles,
		TokenType: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(tm.secret)
	if err != nil {
		return domain.IssuedToken{}, fmt.Errorf("sign %s token: %w", typ, err)
	}
	return domain.IssuedToken{
		Value:     signed,
		Type:      typ,
		IssuedAt:  issuedAt,
		ExpiresAt: expiresAt,
	}, nil
}

// Verify checks the signature and expiry of tokenStr as observed at now, and
// that it is of the expected variant.
func (tm *TokenManager) Verify(tokenStr string, expected domain.TokenType, now time.Time) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return tm.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithExpirationRequired(),
		jwt.WithStrictDecoding(),
	)
	if err != nil {
		return nil, classify(err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.Subject == "" {
		return nil, ErrTokenMalformed
	}
	if claims.TokenType != expected {
		return nil, ErrTokenWrongType
	}
	return claims, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %v", ErrTokenExpired, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return fmt.Errorf("%w: %v", ErrTokenSignatureInvalid, err)
	default:
		return fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}
}

// FailureKind names a verification error for logs and metrics.
func FailureKind(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, ErrTokenExpired):
		return "expired"
	case errors.Is(err, ErrTokenSignatureInvalid):
		return "signature_invalid"
	case errors.Is(err, ErrTokenWrongType):
		return "wrong_type"
	default:
		return "malformed"
	}
}
