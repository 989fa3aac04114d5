// Package members provides persistence for community memberships and the
// invitation lifecycle. Invitee PII is stored encrypted only; invitation
// tokens are stored as hashes.
package members

import (
	"context"
	"time"

	"github.com/dmitrijs2005/hoaboard/internal/server/models"
)

type Repository interface {
	// Create inserts a member row and returns it with the ID set.
	Create(ctx context.Context, row *models.MemberRow) (*models.MemberRow, error)

	GetByID(ctx context.Context, id int64) (*models.MemberRow, error)

	// GetByUserAndCommunity resolves which member is acting for a given
	// user inside a community.
	GetByUserAndCommunity(ctx context.Context, userID, communityID int64) (*models.MemberRow, error)

	// GetByTokenHash resolves an invitation token hash to its member row.
	GetByTokenHash(ctx context.Context, tokenHash string) (*models.MemberRow, error)

	ListByCommunity(ctx context.Context, communityID int64) ([]*models.MemberRow, error)

	// SetInvitation stores the encrypted invitee PII plus the invitation
	// token hash and timestamp.
	SetInvitation(ctx context.Context, memberID int64, encFullName, encEmail, tokenHash string, createdAt time.Time) error

	// LinkUser binds the member to a registered user and clears the
	// invitation token.
	LinkUser(ctx context.Context, memberID, userID int64) error

	SetRoles(ctx context.Context, memberID int64, admin, board, moderator bool) error

	Delete(ctx context.Context, memberID int64) error
}
