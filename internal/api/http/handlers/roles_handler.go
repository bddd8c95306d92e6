package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/forum-service/internal/api/dto"
	"github.com/spec-kit/forum-service/internal/auth"
	"github.com/spec-kit/forum-service/internal/service"
	apperrors "github.com/spec-kit/forum-service/pkg/util"
)

// RolesHandler exposes role grant management.
type RolesHandler struct {
	roles *service.RoleService
}

// NewRolesHandler constructs handler.
func NewRolesHandler(roleService *service.RoleService) *RolesHandler {
	return &RolesHandler{roles: roleService}
}

// Assign handles POST /user-roles/assigned.
func (h *RolesHandler) Assign(c *fiber.Ctx) error {
	req, err := parseAssignment(c)
	if err != nil {
		return err
	}
	actor, _ := auth.IdentityFromContext(c)
	if err := h.roles.Assign(c.UserContext(), actor.ID, req.Assignment()); err != nil {
		return err
	}
	return c.JSON(dto.SuccessResponse{Success: true})
}

// Revoke handles DELETE /user-roles/assigned.
func (h *RolesHandler) Revoke(c *fiber.Ctx) error {
	req, err := parseAssignment(c)
	if err != nil {
		return err
	}
	actor, _ := auth.IdentityFromContext(c)
	if err := h.roles.Revoke(c.UserContext(), actor.ID, req.Assignment()); err != nil {
		return err
	}
	return c.JSON(dto.SuccessResponse{Success: true})
}

func parseAssignment(c *fiber.Ctx) (dto.RoleAssignmentRequest, error) {
	var req dto.RoleAssignmentRequest
	if err := c.BodyParser(&req); err != nil {
		return req, apperrors.NewValidationError("userId and roleId must be integers", nil)
	}
	return req, nil
}
