package domain

import (
	"strings"
	"time"
)

// User models an account. Email is the merge key across identity providers.
// An empty PasswordHash marks an OAuth-only account.
type User struct {
	ID               string     `json:"id"`
	Email            string     `json:"email"`
	Name             string     `json:"name"`
	PasswordHash     string     `json:"-"`
	GoogleID         string     `json:"-"`
	LinkedInID       string     `json:"-"`
	IsAdmin          bool       `json:"is_admin"`
	ResetToken       string     `json:"-"`
	ResetTokenExpiry *time.Time `json:"-"`
	CreatedAt        time.Time  `json:"created_at"`
}

// HasPassword reports whether the account can log in locally.
func (u *User) HasPassword() bool { return u.PasswordHash != "" }

// ProviderID returns the id linked for p, or "".
func (u *User) ProviderID(p Provider) string {
	switch p {
	case ProviderGoogle:
		return u.GoogleID
	case ProviderLinkedIn:
		return u.LinkedInID
	}
	return ""
}

// SetProviderID links id for p on the in-memory record.
func (u *User) SetProviderID(p Provider, id string) {
	switch p {
	case ProviderGoogle:
		u.GoogleID = id
	case ProviderLinkedIn:
		u.LinkedInID = id
	}
}

// UserSummary is a user row in the admin listing.
type UserSummary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	IsAdmin   bool      `json:"is_admin"`
	HasVoted  bool      `json:"has_voted"`
	CreatedAt time.Time `json:"created_at"`
}

// NormalizeEmail lower-cases and trims an address before lookup or storage.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
