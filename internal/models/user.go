package models

import (
	"time"

	"golang.org/x/oauth2"
)

// User is the account returned by the login and signup endpoints.
type User struct {
	ID       int    `json:"_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Session is the signed-in user plus their credentials.
type Session struct {
	Token    *oauth2.Token
	UserID   string
	Username string
	Email    string
}

// Authenticated reports whether the session carries an access credential and a user id.
func (s *Session) Authenticated() bool {
	return s != nil && s.Token != nil && s.Token.AccessToken != "" && s.UserID != ""
}

// ExpiresIn reports the remaining lifetime of the access token, zero when unknown or expired.
func (s *Session) ExpiresIn(now time.Time) time.Duration {
	if s == nil || s.Token == nil || s.Token.Expiry.IsZero() {
		return 0
	}
	d := s.Token.Expiry.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}
