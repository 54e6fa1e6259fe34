// Package model defines domain entities for the application.
package model

import "time"

// User is a registered account. Users are immutable after registration.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Never serialize
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// AuthContext holds the authenticated caller of a request.
// This is injected into the request context by auth middleware.
type AuthContext struct {
	UserID    string
	ExpiresAt time.Time
}
