// Package model defines domain entities for the application.
package model

import (
	"strings"
	"time"
)

// DefaultStartingCredits is the balance granted to a newly registered user.
const DefaultStartingCredits = 20

// User is an account holder with a credit balance.
type User struct {
	ID           string    `json:"_id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Never serialize
	Credits      int       `json:"credits"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// HasCredits reports whether the balance covers the given cost.
func (u *User) HasCredits(cost int) bool {
	return u.Credits >= cost
}

// NormalizeEmail lower-cases and trims an email address for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// AuthContext holds the authenticated caller for a request.
// It is injected into the request context by the auth middleware.
type AuthContext struct {
	UserID string
	User   *User
}
