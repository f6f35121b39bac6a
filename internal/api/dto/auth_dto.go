package dto

import (
	"regexp"
	"time"
	"unicode/utf8"

	"github.com/spec-kit/auth-gateway/internal/auth"
	"github.com/spec-kit/auth-gateway/internal/domain"
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9._-]{4,20}$`)

const (
	minPasswordLength = 8
	maxPasswordLength = 30
)

// LoginRequest payload for POST /auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Validate returns field errors keyed by JSON name, or nil.
func (r LoginRequest) Validate() map[string]any {
	details := map[string]any{}
	switch {
	case r.Username == "":
		details["username"] = "required"
	case !usernamePattern.MatchString(r.Username):
		details["username"] = "must be 4-20 characters of letters, digits, '.', '_' or '-'"
	}

	switch n := utf8.RuneCountInString(r.Password); {
	case n == 0:
		details["password"] = "required"
	case n < minPasswordLength || n > maxPasswordLength:
		details["password"] = "must be 8-30 characters"
	}

	if len(details) == 0 {
		return nil
	}
	return details
}

// LoginResponse is returned on successful login.
type LoginResponse struct {
	Token     string    `json:"token"`
	TokenType string    `json:"tokenType"`
	ExpiresAt time.Time `json:"expiresAt"`
	ExpiresIn int64     `json:"expiresIn"`
	Username  string    `json:"username"`
}

// NewLoginResponse maps a token issuance to its wire form.
func NewLoginResponse(issued *domain.TokenIssuance) LoginResponse {
	return LoginResponse{
		Token:     issued.Token,
		TokenType: issued.TokenType,
		ExpiresAt: issued.ExpiresAt.UTC(),
		ExpiresIn: issued.ExpiresIn,
		Username:  issued.Username,
	}
}

// PrincipalResponse describes the authenticated caller.
type PrincipalResponse struct {
	Subject string   `json:"subject"`
	Roles   []string `json:"roles"`
}

// NewPrincipalResponse maps a principal to its wire form.
func NewPrincipalResponse(p auth.Principal) PrincipalResponse {
	return PrincipalResponse{Subject: p.Subject(), Roles: p.Roles()}
}
