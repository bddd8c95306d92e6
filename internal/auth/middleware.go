package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/forum-service/internal/domain"
	"github.com/spec-kit/forum-service/internal/events"
	"github.com/spec-kit/forum-service/internal/observability"
)

// TokenHeader carries the session token on every request.
const TokenHeader = "x-token"

const identityKey = "auth_identity"

// Gate names used in logs, metrics and audit events.
const (
	GateBanCheck         = "ban_check"
	GateOptionalIdentity = "optional_identity"
	GateLoginRequired    = "login_required"
	GateRoleRequired     = "role_required"
	GateAnyRoleRequired  = "any_role_required"
)

// AuthMiddleware adapts the gate pipeline to fiber handlers.
type AuthMiddleware struct {
	pipeline   *Pipeline
	logger     *zap.Logger
	metrics    *observability.Metrics
	dispatcher events.Dispatcher
}

// NewAuthMiddleware constructs middleware. metrics and dispatcher may be nil.
func NewAuthMiddleware(pipeline *Pipeline, logger *zap.Logger, metrics *observability.Metrics, dispatcher events.Dispatcher) *AuthMiddleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthMiddleware{pipeline: pipeline, logger: logger, metrics: metrics, dispatcher: dispatcher}
}

// RequestScope attaches a per-request lookup scope so later gates reuse earlier results.
func (m *AuthMiddleware) RequestScope() fiber.Handler {
	return func(c *fiber.Ctx) error {
		m.scoped(c)
		return c.Next()
	}
}

// BanCheck rejects callers whose ban window is open and passes everyone else through.
func (m *AuthMiddleware) BanCheck() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := m.scoped(c)
		err := m.pipeline.BanCheck(ctx, c.Get(TokenHeader))
		if err == nil {
			m.metrics.RecordGateDecision(GateBanCheck, observability.OutcomeAllow)
			return c.Next()
		}

		var banned *BannedError
		if errors.As(err, &banned) {
			m.metrics.RecordGateDecision(GateBanCheck, observability.OutcomeBanned)
			identity, _ := m.pipeline.OptionalIdentity(ctx, c.Get(TokenHeader))
			m.publish(ctx, events.New(events.EventBanEnforced, &identity.ID, events.BanEnforcedPayload{
				BannedUntil: banned.Until,
				Path:        c.Path(),
			}))
		}
		return ToDomainError(err)
	}
}

// OptionalIdentity attaches the caller identity when the token is valid. It never denies.
func (m *AuthMiddleware) OptionalIdentity() fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity, ok := m.pipeline.OptionalIdentity(m.scoped(c), c.Get(TokenHeader))
		if !ok {
			m.metrics.RecordGateDecision(GateOptionalIdentity, observability.OutcomeAnonymous)
			return c.Next()
		}
		m.metrics.RecordGateDecision(GateOptionalIdentity, observability.OutcomeAllow)
		c.Locals(identityKey, identity)
		return c.Next()
	}
}

// LoginRequired rejects requests without a valid session token.
func (m *AuthMiddleware) LoginRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity, err := m.pipeline.LoginRequired(m.scoped(c), c.Get(TokenHeader))
		return m.admit(c, GateLoginRequired, identity, err)
	}
}

// RoleRequired rejects callers missing any of roles.
func (m *AuthMiddleware) RoleRequired(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity, err := m.pipeline.RoleRequired(m.scoped(c), c.Get(TokenHeader), roles...)
		return m.admit(c, GateRoleRequired, identity, err)
	}
}

// AnyRoleRequired rejects callers holding none of roles.
func (m *AuthMiddleware) AnyRoleRequired(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity, err := m.pipeline.AnyRoleRequired(m.scoped(c), c.Get(TokenHeader), roles...)
		return m.admit(c, GateAnyRoleRequired, identity, err)
	}
}

// IdentityFromContext retrieves the identity attached by a gate.
func IdentityFromContext(c *fiber.Ctx) (domain.Identity, bool) {
	identity, ok := c.Locals(identityKey).(domain.Identity)
	return identity, ok
}

func (m *AuthMiddleware) admit(c *fiber.Ctx, gate string, identity domain.Identity, err error) error {
	if err == nil {
		m.metrics.RecordGateDecision(gate, observability.OutcomeAllow)
		c.Locals(identityKey, identity)
		return c.Next()
	}

	denial := ToDomainError(err)
	switch denial.HTTPStatus {
	case http.StatusUnauthorized:
		m.metrics.RecordGateDecision(gate, observability.OutcomeUnauthorized)
	case http.StatusForbidden:
		m.metrics.RecordGateDecision(gate, observability.OutcomeForbidden)
	default:
		m.metrics.RecordGateDecision(gate, observability.OutcomeError)
		return denial
	}

	m.logger.Debug("request denied",
		zap.String("gate", gate),
		zap.String("path", c.Path()),
		zap.Int("status", denial.HTTPStatus),
		zap.Error(err))

	ctx := c.UserContext()
	var subject *domain.UserID
	if caller, ok := m.pipeline.OptionalIdentity(ctx, c.Get(TokenHeader)); ok {
		subject = &caller.ID
	}
	m.publish(ctx, events.New(events.EventAccessDenied, subject, events.AccessDeniedPayload{
		Gate:   gate,
		Status: denial.HTTPStatus,
		Path:   c.Path(),
		Reason: err.Error(),
	}))
	return denial
}

func (m *AuthMiddleware) scoped(c *fiber.Ctx) context.Context {
	ctx := c.UserContext()
	if scopeFrom(ctx) == nil {
		ctx = WithRequestScope(ctx)
		c.SetUserContext(ctx)
	}
	return ctx
}

func (m *AuthMiddleware) publish(ctx context.Context, event events.Event) {
	if m.dispatcher == nil {
		return
	}
	if err := m.dispatcher.Publish(ctx, event); err != nil {
		m.logger.Warn("audit event dropped", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}
