// Package users provides persistence for user identities. All lookups go
// through deterministic hashes; plaintext PII never reaches this layer.
package users

import (
	"context"
	"time"

	"github.com/dmitrijs2005/hoaboard/internal/server/models"
)

type Repository interface {
	// Create inserts a new user row and returns it with the ID set.
	Create(ctx context.Context, row *models.UserRow) (*models.UserRow, error)

	// GetByID returns the full row for a user.
	GetByID(ctx context.Context, id int64) (*models.UserRow, error)

	// GetByLoginHashes returns the row matching both the name-or-email hash
	// and the password hash in a single predicate, so a miss does not
	// reveal which credential was wrong.
	GetByLoginHashes(ctx context.Context, loginHash, passwordHash string) (*models.UserRow, error)

	// GetByEmailHash returns the row whose email hash matches.
	GetByEmailHash(ctx context.Context, emailHash string) (*models.UserRow, error)

	// GetByTokenHash returns the row holding the given one-time token hash.
	GetByTokenHash(ctx context.Context, tokenHash string) (*models.UserRow, error)

	// NameHashExists and EmailHashExists are hash-equality existence
	// checks; they never touch the encrypted columns.
	NameHashExists(ctx context.Context, nameHash string) (bool, error)
	EmailHashExists(ctx context.Context, emailHash string, excludeUserID int64) (bool, error)

	// SetToken stores the hash of a freshly issued one-time token together
	// with its creation timestamp. ClearToken removes it after use.
	SetToken(ctx context.Context, userID int64, tokenHash string, createdAt time.Time) error
	ClearToken(ctx context.Context, userID int64) error

	// UpdateEmail replaces both stored forms of the email and resets the
	// validated flag.
	UpdateEmail(ctx context.Context, userID int64, emailHash, encryptedEmail string) error

	UpdatePassword(ctx context.Context, userID int64, passwordHash string) error
	SetEmailValidated(ctx context.Context, userID int64, validated bool) error
	SetDefaultCommunity(ctx context.Context, userID, communityID int64) error

	// Delete removes the user; memberships cascade.
	Delete(ctx context.Context, userID int64) error
}
