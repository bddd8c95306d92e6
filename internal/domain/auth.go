package domain

import "time"

// Identity is the caller resolved from a verified session token.
type Identity struct {
	ID UserID `json:"id"`
}

// SessionClaim describes what a signed session token asserts.
type SessionClaim struct {
	Subject   UserID
	IssuedAt  time.Time
	ExpiresAt time.Time
}
