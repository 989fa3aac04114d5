// Package models declares the storage rows and their public projections.
// Rows mirror table columns (hashes, encrypted tokens); projections carry
// only the decrypted fields a caller may see. Hash and token columns never
// leave the service layer.
package models

import "database/sql"

// UserRow mirrors the users table. Name and email are stored twice: hashed
// for equality lookup, encrypted for display. The one-time token (recovery,
// email validation) is stored as a hash with its creation timestamp.
type UserRow struct {
	ID                 int64
	NameHash           string
	EmailHash          string
	PasswordHash       string
	EncryptedName      string
	EncryptedFullName  string
	EncryptedEmail     string
	EmailValidated     bool
	TokenHash          sql.NullString
	TokenCreatedAt     sql.NullTime
	DefaultCommunityID sql.NullInt64
}

// User is the public projection of a user: decrypted display fields only.
type User struct {
	ID                 int64  `json:"id"`
	Name               string `json:"name"`
	FullName           string `json:"fullName"`
	Email              string `json:"email"`
	EmailValidated     bool   `json:"emailValidated"`
	DefaultCommunityID *int64 `json:"defaultCommunityId,omitempty"`
}
