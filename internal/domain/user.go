package domain

import (
	"errors"
	"time"
)

// ErrNotFound is returned by stores when the requested record does not exist.
var ErrNotFound = errors.New("not found")

// UserID identifies a forum account.
type UserID int64

// User is the domain model for forum members.
type User struct {
	ID           UserID
	Username     string
	Email        string
	PasswordHash string
	AvatarURL    *string
	BannedUntil  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
