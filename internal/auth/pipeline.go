package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/forum-service/internal/domain"
)

// UserStore loads user records. Absent users are reported as domain.ErrNotFound.
type UserStore interface {
	ByID(ctx context.Context, id domain.UserID) (*domain.User, error)
}

// RoleStore resolves the role names currently granted to a user.
// A user without roles yields an empty set and a nil error.
type RoleStore interface {
	RolesOf(ctx context.Context, id domain.UserID) (domain.RoleSet, error)
}

// Pipeline composes token verification, ban windows and role checks into request gates.
//
// Every gate runs its steps in order and stops at the first failure. When ctx carries a
// request scope (see WithRequestScope) the verified token, user record and role set are
// reused by later gates of the same request.
type Pipeline struct {
	tokens *TokenCodec
	users  UserStore
	roles  RoleStore
	now    func() time.Time
	logger *zap.Logger
}

// PipelineOption customizes a Pipeline.
type PipelineOption func(*Pipeline)

// WithPipelineClock overrides the time source used for ban checks.
func WithPipelineClock(now func() time.Time) PipelineOption {
	return func(p *Pipeline) {
		if now != nil {
			p.now = now
		}
	}
}

// WithLogger sets the logger used for fail-open lookup failures.
func WithLogger(logger *zap.Logger) PipelineOption {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewPipeline builds a gate pipeline.
func NewPipeline(tokens *TokenCodec, users UserStore, roles RoleStore, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		tokens: tokens,
		users:  users,
		roles:  roles,
		now:    time.Now,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// OptionalIdentity resolves the caller when the token is valid and reports false otherwise.
// It never fails the request.
func (p *Pipeline) OptionalIdentity(ctx context.Context, token string) (domain.Identity, bool) {
	identity, err := p.verify(ctx, token)
	if err != nil {
		return domain.Identity{}, false
	}
	return identity, true
}

// LoginRequired returns the caller identity or ErrTokenInvalid.
func (p *Pipeline) LoginRequired(ctx context.Context, token string) (domain.Identity, error) {
	return p.verify(ctx, token)
}

// RoleRequired admits callers holding every one of roles.
func (p *Pipeline) RoleRequired(ctx context.Context, token string, roles ...string) (domain.Identity, error) {
	return p.requireRoles(ctx, token, QuantifierAll, domain.NewRoleSet(roles...))
}

// AnyRoleRequired admits callers holding at least one of roles.
func (p *Pipeline) AnyRoleRequired(ctx context.Context, token string, roles ...string) (domain.Identity, error) {
	return p.requireRoles(ctx, token, QuantifierAny, domain.NewRoleSet(roles...))
}

// BanCheck returns a *BannedError when the caller's ban window is open.
//
// The gate fails open: a missing or invalid token, an unknown user or a store outage
// lets the request through. Operators relying on bans during a user-store outage
// should be aware that bans are not enforced while lookups fail.
func (p *Pipeline) BanCheck(ctx context.Context, token string) error {
	identity, err := p.verify(ctx, token)
	if err != nil {
		return nil
	}

	user, err := p.user(ctx, identity.ID)
	if err != nil {
		if !errors.Is(err, ErrUserNotFound) {
			p.logger.Warn("ban check lookup failed; allowing request",
				zap.Int64("user_id", int64(identity.ID)),
				zap.Error(err))
		}
		return nil
	}

	if IsBanned(user, p.now()) {
		return &BannedError{Until: *user.BannedUntil}
	}
	return nil
}

func (p *Pipeline) requireRoles(ctx context.Context, token string, quantifier Quantifier, required domain.RoleSet) (domain.Identity, error) {
	identity, err := p.verify(ctx, token)
	if err != nil {
		return domain.Identity{}, err
	}

	if _, err := p.user(ctx, identity.ID); err != nil {
		return domain.Identity{}, err
	}

	granted, err := p.rolesOf(ctx, identity.ID)
	if err != nil {
		return domain.Identity{}, err
	}

	satisfied := HasAll(granted, required)
	if quantifier == QuantifierAny {
		satisfied = HasAny(granted, required)
	}
	if !satisfied {
		return domain.Identity{}, &RoleUnsatisfiedError{Quantifier: quantifier, Required: required.Names()}
	}
	return identity, nil
}

func (p *Pipeline) verify(ctx context.Context, token string) (domain.Identity, error) {
	scope := scopeFrom(ctx)
	if scope != nil {
		if cached, ok := scope.verification(token); ok {
			return cached.identity, cached.err
		}
	}

	identity, err := p.tokens.Verify(token)
	if scope != nil {
		scope.storeVerification(token, verifyResult{identity: identity, err: err})
	}
	return identity, err
}

func (p *Pipeline) user(ctx context.Context, id domain.UserID) (*domain.User, error) {
	scope := scopeFrom(ctx)
	if scope != nil {
		if user, ok := scope.user(id); ok {
			if user == nil {
				return nil, ErrUserNotFound
			}
			return user, nil
		}
	}

	user, err := p.users.ByID(ctx, id)
	switch {
	case errors.Is(err, domain.ErrNotFound), err == nil && user == nil:
		if scope != nil {
			scope.storeUser(id, nil)
		}
		return nil, ErrUserNotFound
	case err != nil:
		return nil, fmt.Errorf("load user %d: %w", id, err)
	}

	if scope != nil {
		scope.storeUser(id, user)
	}
	return user, nil
}

func (p *Pipeline) rolesOf(ctx context.Context, id domain.UserID) (domain.RoleSet, error) {
	scope := scopeFrom(ctx)
	if scope != nil {
		if roles, ok := scope.roleSet(id); ok {
			return roles, nil
		}
	}

	roles, err := p.roles.RolesOf(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load roles for user %d: %w", id, err)
	}
	if roles == nil {
		roles = domain.NewRoleSet()
	}

	if scope != nil {
		scope.storeRoleSet(id, roles)
	}
	return roles, nil
}
