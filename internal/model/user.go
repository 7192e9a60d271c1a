// Package model defines the data structures used throughout the application.
package model

import "time"

// User is an account that can sign in to the admin dashboard.
//
// PasswordHash is never serialised: the json:"-" tag keeps it out of every
// API response, including GET /api/user.
type User struct {
	ID           string    `json:"id"        db:"id"`
	Username     string    `json:"username"  db:"username"`
	PasswordHash string    `json:"-"         db:"password_hash"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}

// Session is the server-side half of a login. The browser only holds a
// signed reference to ID; everything else lives in the sessions table.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}

// Expired reports whether the session is no longer usable at instant now.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
