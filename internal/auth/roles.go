package auth

import "github.com/spec-kit/forum-service/internal/domain"

// HasAll reports whether every required role is granted. An empty requirement is satisfied.
func HasAll(granted, required domain.RoleSet) bool {
	for name := range required {
		if !granted.Has(name) {
			return false
		}
	}
	return true
}

// HasAny reports whether at least one required role is granted.
// An empty requirement is never satisfied.
func HasAny(granted, required domain.RoleSet) bool {
	for name := range required {
		if granted.Has(name) {
			return true
		}
	}
	return false
}
