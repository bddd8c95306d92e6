package dto

import "github.com/spec-kit/forum-service/internal/domain"

// RoleAssignmentRequest payload for granting or revoking a role.
type RoleAssignmentRequest struct {
	UserID int64 `json:"userId"`
	RoleID int64 `json:"roleId"`
}

// Assignment converts the payload to the domain type.
func (r RoleAssignmentRequest) Assignment() domain.RoleAssignment {
	return domain.RoleAssignment{UserID: domain.UserID(r.UserID), RoleID: r.RoleID}
}

// UserRolesResponse lists the role names granted to a user.
type UserRolesResponse struct {
	UserID domain.UserID `json:"userId"`
	Roles  []string      `json:"roles"`
}

// SuccessResponse acknowledges a mutation.
type SuccessResponse struct {
	Success bool `json:"success"`
}
