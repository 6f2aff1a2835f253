package domain

import (
	"strings"
	"time"
)

// Role labels stored in the account roles column.
const (
	RoleUser  = "ROLE_USER"
	RoleAdmin = "ROLE_ADMIN"
)

// DefaultRoles is assigned to self-registered accounts.
const DefaultRoles = RoleUser

// Account is a login identity for operators of the tracker.
type Account struct {
	ID           int64
	Username     string
	PasswordHash string
	Roles        string
	Active       bool
	CreatedAt    time.Time
}

// RoleList splits the stored CSV roles into an ordered set.
func (a *Account) RoleList() []string {
	return SplitRoles(a.Roles)
}

// SplitRoles trims each comma separated label, dropping blanks and repeats
// while keeping first-seen order.
func SplitRoles(csv string) []string {
	parts := strings.Split(csv, ",")
	roles := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, part := range parts {
		role := strings.TrimSpace(part)
		if role == "" {
			continue
		}
		if _, dup := seen[role]; dup {
			continue
		}
		seen[role] = struct{}{}
		roles = append(roles, role)
	}
	return roles
}

// JoinRoles is the inverse of SplitRoles.
func JoinRoles(roles []string) string {
	return strings.Join(roles, ",")
}
