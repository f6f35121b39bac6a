package auth

import "errors"

// Verification failures. Callers outside this package collapse all of them
// into a single unauthorized outcome; the distinction exists for logs and metrics.
var (
	ErrTokenMalformed        = errors.New("token malformed")
	ErrTokenSignatureInvalid = errors.New("token signature invalid")
	ErrTokenExpired          = errors.New("token expired")
	ErrTokenRevoked          = errors.New("token revoked")
)
