package models

import (
	"errors"
	"time"

	"golang.org/x/oauth2"
)

// Session is the provider-issued proof of an authenticated identity.
// Only the provider builds one; everyone else treats it as read-only and
// replaces the pointer instead of editing fields.
type Session struct {
	UID           string
	Email         string
	EmailVerified bool

	// Token carries the provider credential: the ID token in AccessToken,
	// plus RefreshToken and Expiry. Opaque to the client core.
	Token *oauth2.Token
}

// ExpiresAt returns the credential expiry, zero when unknown
func (s *Session) ExpiresAt() time.Time {
	if s == nil || s.Token == nil {
		return time.Time{}
	}
	return s.Token.Expiry
}

// AuthError is a failed sign-in or sign-out as reported by the identity provider
type AuthError struct {
	Code    int
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}

// NewAuthError creates an AuthError without a transport status
func NewAuthError(message string) *AuthError {
	return &AuthError{Message: message}
}

// MessageOf returns the user-facing text for err, the provider message verbatim
// when err is (or wraps) an AuthError.
func MessageOf(err error) string {
	if err == nil {
		return ""
	}
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr.Message
	}
	return err.Error()
}
