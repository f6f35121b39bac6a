package auth

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/auth-gateway/internal/observability"
	apperrors "github.com/spec-kit/auth-gateway/pkg/util/errorutil"
)

const principalKey = "auth_principal"

// Gate outcomes reported to metrics.
const (
	OutcomeAnonymous        = "anonymous"
	OutcomeAuthenticated    = "authenticated"
	OutcomeMalformed        = "malformed"
	OutcomeSignatureInvalid = "signature_invalid"
	OutcomeExpired          = "expired"
	OutcomeRevoked          = "revoked"
)

// RevocationChecker reports whether a token has been revoked.
type RevocationChecker interface {
	Contains(token string) bool
}

// Decision is the gate's verdict for one request. Principal is nil for
// anonymous requests; Reason is set only when Proceed is false.
type Decision struct {
	Proceed   bool
	Principal *Principal
	Reason    error
}

// Outcome labels the decision for metrics and logs.
func (d Decision) Outcome() string {
	switch {
	case d.Proceed && d.Principal != nil:
		return OutcomeAuthenticated
	case d.Proceed:
		return OutcomeAnonymous
	case errors.Is(d.Reason, ErrTokenRevoked):
		return OutcomeRevoked
	case errors.Is(d.Reason, ErrTokenExpired):
		return OutcomeExpired
	case errors.Is(d.Reason, ErrTokenSignatureInvalid):
		return OutcomeSignatureInvalid
	default:
		return OutcomeMalformed
	}
}

// Gate authenticates bearer tokens on inbound requests.
type Gate struct {
	tokens      TokenVerifier
	revocations RevocationChecker
	logger      *zap.Logger
	metrics     *observability.Metrics
}

// NewGate constructs the gate.
func NewGate(tokens TokenVerifier, revocations RevocationChecker, logger *zap.Logger, metrics *observability.Metrics) *Gate {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gate{tokens: tokens, revocations: revocations, logger: logger, metrics: metrics}
}

// Authenticate decides from the raw Authorization header value. An absent
// header is anonymous. Revoked tokens are rejected without verification.
func (g *Gate) Authenticate(authHeader string) Decision {
	if authHeader == "" {
		return Decision{Proceed: true}
	}

	token, ok := BearerToken(authHeader)
	if !ok {
		return Decision{Reason: ErrTokenMalformed}
	}
	if g.revocations.Contains(token) {
		return Decision{Reason: ErrTokenRevoked}
	}

	claims, err := g.tokens.Verify(token)
	if err != nil {
		return Decision{Reason: err}
	}
	principal := NewPrincipal(claims.Subject, claims.Roles)
	return Decision{Proceed: true, Principal: &principal}
}

// Handle is the fiber adapter around Authenticate. Every rejection produces
// the same response regardless of the underlying reason.
func (g *Gate) Handle(c *fiber.Ctx) error {
	decision := g.Authenticate(c.Get(fiber.HeaderAuthorization))
	outcome := decision.Outcome()
	g.metrics.RecordGateOutcome(outcome)

	if !decision.Proceed {
		g.logger.Debug("request rejected by gate",
			zap.String("path", c.Path()),
			zap.String("outcome", outcome))
		return apperrors.NewUnauthorized("invalid or expired token")
	}

	if decision.Principal != nil {
		principal := *decision.Principal
		c.Locals(principalKey, principal)
		c.Locals(observability.SubjectLocal, principal.Subject())
		c.SetUserContext(WithPrincipal(c.UserContext(), principal))
	}
	return c.Next()
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" value.
func BearerToken(authHeader string) (string, bool) {
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", false
	}
	return token, true
}

// PrincipalFromContext retrieves the authenticated principal.
func PrincipalFromContext(c *fiber.Ctx) (Principal, bool) {
	principal, ok := c.Locals(principalKey).(Principal)
	return principal, ok
}
