package domain

import "time"

// TokenTypeBearer is the only token type issued.
const TokenTypeBearer = "Bearer"

// TokenIssuance is the result of a successful login.
type TokenIssuance struct {
	Token     string
	TokenType string
	ExpiresAt time.Time
	ExpiresIn int64
	Username  string
}
