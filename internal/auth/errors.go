package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	apperrors "github.com/spec-kit/forum-service/pkg/util"
)

// deniedDescription is shared by every 401 and role 403 so callers cannot tell
// a bad token from a missing account.
const deniedDescription = "You can't do that"

var (
	// ErrTokenInvalid covers malformed, unsigned, wrongly signed and expired tokens.
	ErrTokenInvalid = errors.New("invalid session token")
	// ErrUserNotFound means the token subject no longer has an account.
	ErrUserNotFound = errors.New("session user not found")
)

// Quantifier selects how a required role set is matched.
type Quantifier string

const (
	QuantifierAll Quantifier = "ALL"
	QuantifierAny Quantifier = "ANY"
)

// RoleUnsatisfiedError reports a caller that lacks the required roles.
type RoleUnsatisfiedError struct {
	Quantifier Quantifier
	Required   []string
}

func (e *RoleUnsatisfiedError) Error() string {
	return fmt.Sprintf("role requirement not met: %s of [%s]", e.Quantifier, strings.Join(e.Required, ", "))
}

// BannedError reports a caller whose ban window is still open.
type BannedError struct {
	Until time.Time
}

func (e *BannedError) Error() string {
	return "Banned until " + e.Until.UTC().Format(time.RFC3339)
}

// ToDomainError maps gate failures onto HTTP-facing errors.
func ToDomainError(err error) *apperrors.DomainError {
	if err == nil {
		return nil
	}

	var roleErr *RoleUnsatisfiedError
	var bannedErr *BannedError
	switch {
	case errors.Is(err, ErrTokenInvalid), errors.Is(err, ErrUserNotFound):
		return &apperrors.DomainError{
			Code:       "UNAUTHORIZED",
			Message:    deniedDescription,
			HTTPStatus: http.StatusUnauthorized,
			Err:        err,
		}
	case errors.As(err, &roleErr):
		return &apperrors.DomainError{
			Code:       "FORBIDDEN",
			Message:    deniedDescription,
			HTTPStatus: http.StatusForbidden,
			Err:        err,
		}
	case errors.As(err, &bannedErr):
		return &apperrors.DomainError{
			Code:       "BANNED",
			Message:    bannedErr.Error(),
			HTTPStatus: http.StatusForbidden,
		}
	default:
		return apperrors.ToDomainError(err)
	}
}
