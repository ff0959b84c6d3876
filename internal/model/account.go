// Package model defines the data structures used throughout the application.
//
// Documents are stored as JSON, so the json tags double as the document
// field names (see docstore).
package model

import "time"

// Account is an identity record owned by the sign-in layer. Its ID is the
// principal id that keys the user's profile document.
//
// An account is created by email/password registration or by the first
// GitHub sign-in. GitHubID is zero for password-only accounts and
// PasswordHash is empty for GitHub-only accounts.
type Account struct {
	ID           string    `json:"-"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"passwordHash,omitempty"`
	GitHubID     int64     `json:"githubId,omitempty"`
	DisplayName  string    `json:"displayName"`
	CreatedAt    time.Time `json:"createdAt"`
}
