package dto

import (
	"time"

	"github.com/spec-kit/forum-service/internal/domain"
)

// UserRegisterRequest payload for new members.
type UserRegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserLoginRequest payload for login. RememberMe selects the long session lifetime.
type UserLoginRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	RememberMe bool   `json:"rememberMe"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// UserResponse is the public view of a member. Credentials and ban state are omitted.
type UserResponse struct {
	ID        domain.UserID `json:"id"`
	Username  string        `json:"username"`
	Email     string        `json:"email"`
	AvatarURL *string       `json:"avatar_url"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// NewUserResponse maps a domain user, returning nil for nil.
func NewUserResponse(user *domain.User) *UserResponse {
	if user == nil {
		return nil
	}
	return &UserResponse{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		AvatarURL: user.AvatarURL,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}

// UserEnvelope wraps a possibly absent user.
type UserEnvelope struct {
	User *UserResponse `json:"user"`
}
