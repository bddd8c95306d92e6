package auth

import (
	"time"

	"github.com/spec-kit/forum-service/internal/domain"
)

// IsBanned reports whether now falls inside the user's ban window.
// The window is closed on its upper bound: now == BannedUntil is still banned.
func IsBanned(user *domain.User, now time.Time) bool {
	if user == nil || user.BannedUntil == nil {
		return false
	}
	return !now.After(*user.BannedUntil)
}
