package domain

import "time"

// TokenType differentiates short-lived access tokens from refresh tokens.
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// IssuedToken is a signed token together with its lifetime bounds.
type IssuedToken struct {
	Value     string
	Type      TokenType
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TTL reports the lifetime the token was issued with.
func (t IssuedToken) TTL() time.Duration {
	return t.ExpiresAt.Sub(t.IssuedAt)
}
