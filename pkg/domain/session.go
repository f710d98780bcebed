package domain

import (
	"time"

	"github.com/google/uuid"
)

// User is the identity attached to a session.
type User struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
}

// Session represents an authenticated user session issued by the auth service.
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at"` // unix seconds
	User         User   `json:"user"`
}

// Expired reports whether the access token is past its expiry.
// A session without an expiry never expires locally.
func (s *Session) Expired(now time.Time) bool {
	if s == nil {
		return true
	}
	if s.ExpiresAt == 0 {
		return false
	}
	return !now.Before(time.Unix(s.ExpiresAt, 0))
}
