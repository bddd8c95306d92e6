package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/forum-service/internal/domain"
	"github.com/spec-kit/forum-service/internal/events"
	"github.com/spec-kit/forum-service/internal/repository"
	apperrors "github.com/spec-kit/forum-service/pkg/util"
)

// RoleCacheInvalidator drops cached role sets after a grant changes.
type RoleCacheInvalidator interface {
	Invalidate(ctx context.Context, userID domain.UserID) error
}

// RoleService manages role grants.
type RoleService struct {
	roles      repository.RoleRepository
	cache      RoleCacheInvalidator
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewRoleService builds the service. cache may be nil when role caching is off.
func NewRoleService(roles repository.RoleRepository, cache RoleCacheInvalidator, dispatcher events.Dispatcher, logger *zap.Logger) *RoleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RoleService{roles: roles, cache: cache, dispatcher: dispatcher, logger: logger}
}

// RolesOf lists the roles granted to a user straight from the store.
func (s *RoleService) RolesOf(ctx context.Context, userID domain.UserID) (domain.RoleSet, error) {
	return s.roles.RolesOf(ctx, userID)
}

// Assign grants a role on behalf of actor.
func (s *RoleService) Assign(ctx context.Context, actor domain.UserID, assignment domain.RoleAssignment) error {
	if err := validateAssignment(assignment); err != nil {
		return err
	}
	assigned, err := s.roles.IsAssigned(ctx, assignment)
	if err != nil {
		return err
	}
	if assigned {
		return apperrors.NewValidationError("Role is already assigned", nil)
	}
	if err := s.roles.Assign(ctx, assignment); err != nil {
		return err
	}

	s.changed(ctx, events.EventRoleAssigned, actor, assignment)
	return nil
}

// Revoke removes a grant on behalf of actor.
func (s *RoleService) Revoke(ctx context.Context, actor domain.UserID, assignment domain.RoleAssignment) error {
	if err := validateAssignment(assignment); err != nil {
		return err
	}
	assigned, err := s.roles.IsAssigned(ctx, assignment)
	if err != nil {
		return err
	}
	if !assigned {
		return apperrors.NewValidationError("Role is not assigned", nil)
	}
	if err := s.roles.Revoke(ctx, assignment); err != nil {
		return err
	}

	s.changed(ctx, events.EventRoleRevoked, actor, assignment)
	return nil
}

func validateAssignment(assignment domain.RoleAssignment) error {
	if assignment.UserID <= 0 || assignment.RoleID <= 0 {
		return apperrors.NewValidationError("userId and roleId must be positive integers", nil)
	}
	return nil
}

// changed invalidates the target's cached roles and publishes the audit event. A failed
// invalidation leaves the stale set in place until the cache TTL lapses.
func (s *RoleService) changed(ctx context.Context, eventType events.EventType, actor domain.UserID, assignment domain.RoleAssignment) {
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, assignment.UserID); err != nil {
			s.logger.Error("role cache invalidation failed",
				zap.Int64("user_id", int64(assignment.UserID)),
				zap.Error(err))
		}
	}

	s.logger.Info("role grant changed",
		zap.String("event_type", string(eventType)),
		zap.Int64("user_id", int64(assignment.UserID)),
		zap.Int64("role_id", assignment.RoleID),
		zap.Int64("actor_id", int64(actor)))

	if s.dispatcher == nil {
		return
	}
	target := assignment.UserID
	event := events.New(eventType, &target, events.RoleAssignmentPayload{
		RoleID:    assignment.RoleID,
		ChangedBy: actor,
	})
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("audit event dropped", zap.String("event_type", string(eventType)), zap.Error(err))
	}
}
