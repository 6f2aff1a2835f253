package dto

import (
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)

// LoginRequest payload for POST /api/auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Normalize trims the username; passwords are taken verbatim.
func (r *LoginRequest) Normalize() {
	r.Username = strings.TrimSpace(r.Username)
}

// LoginResponse is the body of a successful login.
type LoginResponse struct {
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
}

// SignupRequest payload for POST /api/auth/signup.
type SignupRequest struct {
	Username        string `json:"username"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"passwordConfirm"`
}

// Normalize trims the username.
func (r *SignupRequest) Normalize() {
	r.Username = strings.TrimSpace(r.Username)
}

// Validate checks the account format. Password confirmation is compared by
// the session service so a mismatch is reported before anything else.
func (r SignupRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Username,
			validation.Required,
			validation.Length(4, 30),
			validation.Match(usernamePattern),
		),
		validation.Field(
			&r.Password,
			validation.Required,
			// bcrypt ignores input past 72 bytes
			validation.Length(8, 72),
		),
	)
}

// SimpleResponse is the {ok,message} body used by signup.
type SimpleResponse struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

// MeResponse describes the caller as seen by the server.
type MeResponse struct {
	Authenticated bool     `json:"authenticated"`
	Username      string   `json:"username,omitempty"`
	Roles         []string `json:"roles,omitempty"`
}
