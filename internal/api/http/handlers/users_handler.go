package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/forum-service/internal/api/dto"
	"github.com/spec-kit/forum-service/internal/auth"
	"github.com/spec-kit/forum-service/internal/domain"
	"github.com/spec-kit/forum-service/internal/service"
	apperrors "github.com/spec-kit/forum-service/pkg/util"
)

// UsersHandler exposes account endpoints for members.
type UsersHandler struct {
	auth  *service.AuthService
	roles *service.RoleService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(authService *service.AuthService, roleService *service.RoleService) *UsersHandler {
	return &UsersHandler{auth: authService, roles: roleService}
}

// Register handles POST /user/register.
func (h *UsersHandler) Register(c *fiber.Ctx) error {
	var req dto.UserRegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	_, session, err := h.auth.Register(c.UserContext(), req.Username, req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(dto.AuthResponse{Token: session.Token, ExpiresAt: session.ExpiresAt})
}

// Login handles POST /user/login.
func (h *UsersHandler) Login(c *fiber.Ctx) error {
	var req dto.UserLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	_, session, err := h.auth.Login(c.UserContext(), req.Email, req.Password, req.RememberMe)
	if err != nil {
		return err
	}
	return c.JSON(dto.AuthResponse{Token: session.Token, ExpiresAt: session.ExpiresAt})
}

// Me handles GET /user/me. Anonymous callers get {"user": null}.
func (h *UsersHandler) Me(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return c.JSON(dto.UserEnvelope{})
	}
	return h.respondWithUser(c, identity.ID)
}

// ByID handles GET /user/:id.
func (h *UsersHandler) ByID(c *fiber.Ctx) error {
	id, err := userIDParam(c)
	if err != nil {
		return err
	}
	return h.respondWithUser(c, id)
}

// Roles handles GET /user/:id/roles.
func (h *UsersHandler) Roles(c *fiber.Ctx) error {
	id, err := userIDParam(c)
	if err != nil {
		return err
	}
	set, err := h.roles.RolesOf(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(dto.UserRolesResponse{UserID: id, Roles: set.Names()})
}

func (h *UsersHandler) respondWithUser(c *fiber.Ctx, id domain.UserID) error {
	user, err := h.auth.User(c.UserContext(), id)
	if err != nil {
		var domainErr *apperrors.DomainError
		if errors.As(err, &domainErr) && domainErr.HTTPStatus == fiber.StatusNotFound {
			return c.JSON(dto.UserEnvelope{})
		}
		return err
	}
	return c.JSON(dto.UserEnvelope{User: dto.NewUserResponse(user)})
}

func userIDParam(c *fiber.Ctx) (domain.UserID, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewValidationError("Id must be integer", nil)
	}
	return domain.UserID(id), nil
}
