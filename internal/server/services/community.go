package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/dmitrijs2005/hoaboard/internal/common"
	"github.com/dmitrijs2005/hoaboard/internal/cryptox"
	"github.com/dmitrijs2005/hoaboard/internal/dbx"
	"github.com/dmitrijs2005/hoaboard/internal/server/models"
	"github.com/dmitrijs2005/hoaboard/internal/server/repositories/repomanager"
)

// DefaultInvitationValidity bounds how long an invitation token stays
// acceptable.
const DefaultInvitationValidity = 30 * 24 * time.Hour

// CommunityService manages communities, memberships, invitations, and the
// topics members post. Invitee PII is stored encrypted; invitation tokens
// are stored as hashes only.
type CommunityService struct {
	db                 *sql.DB
	repos              repomanager.RepositoryManager
	crypto             *cryptox.Provider
	invitationValidity time.Duration
}

// NewCommunityService constructs a CommunityService. invitationValidity <= 0
// falls back to DefaultInvitationValidity.
func NewCommunityService(db *sql.DB, repos repomanager.RepositoryManager, crypto *cryptox.Provider, invitationValidity time.Duration) *CommunityService {
	if invitationValidity <= 0 {
		invitationValidity = DefaultInvitationValidity
	}
	return &CommunityService{db: db, repos: repos, crypto: crypto, invitationValidity: invitationValidity}
}

// memberFromRow builds the public projection of a membership, decrypting
// the invitee PII when present. Token columns never leave this layer.
func (s *CommunityService) memberFromRow(row *models.MemberRow) (*models.Member, error) {
	m := &models.Member{
		ID:            row.ID,
		CommunityID:   row.CommunityID,
		Address:       row.Address,
		IsAdmin:       row.IsAdmin,
		IsBoardMember: row.IsBoardMember,
		IsModerator:   row.IsModerator,
	}
	if row.UserID.Valid {
		id := row.UserID.Int64
		m.UserID = &id
	}
	if row.EncryptedInviteFullName.Valid {
		fullName, err := s.crypto.Decrypt(row.EncryptedInviteFullName.String)
		if err != nil {
			return nil, err
		}
		m.InviteFullName = fullName
	}
	if row.EncryptedInviteEmail.Valid {
		email, err := s.crypto.Decrypt(row.EncryptedInviteEmail.String)
		if err != nil {
			return nil, err
		}
		m.InviteEmail = email
	}
	return m, nil
}

// requireMember resolves the acting member for a user within a community;
// non-members get ErrorForbidden.
func (s *CommunityService) requireMember(ctx context.Context, db dbx.DBTX, userID, communityID int64) (*models.MemberRow, error) {
	row, err := s.repos.Members(db).GetByUserAndCommunity(ctx, userID, communityID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorForbidden
		}
		return nil, err
	}
	return row, nil
}

func (s *CommunityService) requireAdmin(ctx context.Context, db dbx.DBTX, userID, communityID int64) (*models.MemberRow, error) {
	row, err := s.requireMember(ctx, db, userID, communityID)
	if err != nil {
		return nil, err
	}
	if !row.IsAdmin {
		return nil, common.ErrorForbidden
	}
	return row, nil
}

// Create inserts a community and its first admin member, bound to the
// creating user, in one transaction.
func (s *CommunityService) Create(ctx context.Context, userID int64, name, address string) (*models.Community, error) {
	var community *models.Community
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		c, err := s.repos.Communities(tx).Create(ctx, name)
		if err != nil {
			return err
		}

		member := &models.MemberRow{
			CommunityID: c.ID,
			UserID:      sql.NullInt64{Int64: userID, Valid: true},
			Address:     address,
			IsAdmin:     true,
		}
		if _, err := s.repos.Members(tx).Create(ctx, member); err != nil {
			return err
		}

		community = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return community, nil
}

// Get returns a community the user belongs to.
func (s *CommunityService) Get(ctx context.Context, userID, communityID int64) (*models.Community, error) {
	if _, err := s.requireMember(ctx, s.db, userID, communityID); err != nil {
		return nil, err
	}
	return s.repos.Communities(s.db).GetByID(ctx, communityID)
}

// ListForUser returns the communities the user belongs to.
func (s *CommunityService) ListForUser(ctx context.Context, userID int64) ([]*models.Community, error) {
	return s.repos.Communities(s.db).ListForUser(ctx, userID)
}

// AddProperty creates an unlinked member (a pending invitation slot) for a
// property address. Admin only.
func (s *CommunityService) AddProperty(ctx context.Context, adminUserID, communityID int64, address string) (*models.Member, error) {
	if _, err := s.requireAdmin(ctx, s.db, adminUserID, communityID); err != nil {
		return nil, err
	}

	row := &models.MemberRow{CommunityID: communityID, Address: address}
	row, err := s.repos.Members(s.db).Create(ctx, row)
	if err != nil {
		return nil, err
	}
	return s.memberFromRow(row)
}

// Invite attaches an invitation to a member slot: the invitee's PII is
// stored encrypted and only the hash of the one-time token is persisted.
// The raw token is returned for the mailing pipeline.
func (s *CommunityService) Invite(ctx context.Context, adminUserID, memberID int64, fullName, email string) (string, error) {
	repo := s.repos.Members(s.db)

	member, err := repo.GetByID(ctx, memberID)
	if err != nil {
		return "", err
	}
	if _, err := s.requireAdmin(ctx, s.db, adminUserID, member.CommunityID); err != nil {
		return "", err
	}

	encFullName, err := s.crypto.Encrypt(fullName)
	if err != nil {
		return "", err
	}
	encEmail, err := s.crypto.Encrypt(email)
	if err != nil {
		return "", err
	}

	token, err := s.crypto.NewToken()
	if err != nil {
		return "", err
	}
	if err := repo.SetInvitation(ctx, memberID, encFullName, encEmail, s.crypto.Hash(token), time.Now()); err != nil {
		return "", err
	}
	return token, nil
}

// AcceptInvitation resolves an invitation token and links the member slot
// to the accepting user. Unknown or expired tokens yield
// ErrInvitationTokenInvalid.
func (s *CommunityService) AcceptInvitation(ctx context.Context, token string, userID int64) (*models.Member, error) {
	var member *models.Member
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repos.Members(tx)

		row, err := repo.GetByTokenHash(ctx, s.crypto.Hash(token))
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrInvitationTokenInvalid
			}
			return err
		}
		if !row.TokenCreatedAt.Valid || time.Since(row.TokenCreatedAt.Time) >= s.invitationValidity {
			return common.ErrInvitationTokenInvalid
		}

		if err := repo.LinkUser(ctx, row.ID, userID); err != nil {
			return err
		}

		row.UserID = sql.NullInt64{Int64: userID, Valid: true}
		member, err = s.memberFromRow(row)
		return err
	})
	if err != nil {
		return nil, err
	}
	return member, nil
}

// ListMembers returns the decrypted member projections of a community.
// Restricted to members.
func (s *CommunityService) ListMembers(ctx context.Context, userID, communityID int64) ([]*models.Member, error) {
	if _, err := s.requireMember(ctx, s.db, userID, communityID); err != nil {
		return nil, err
	}

	rows, err := s.repos.Members(s.db).ListByCommunity(ctx, communityID)
	if err != nil {
		return nil, err
	}

	result := make([]*models.Member, 0, len(rows))
	for _, row := range rows {
		m, err := s.memberFromRow(row)
		if err != nil {
			return nil, err
		}
		result = append(result, m)
	}
	return result, nil
}

// ResolveMember returns the acting member projection for a user within a
// community.
func (s *CommunityService) ResolveMember(ctx context.Context, userID, communityID int64) (*models.Member, error) {
	row, err := s.requireMember(ctx, s.db, userID, communityID)
	if err != nil {
		return nil, err
	}
	return s.memberFromRow(row)
}

// SetRoles updates a member's role flags. Admin only.
func (s *CommunityService) SetRoles(ctx context.Context, adminUserID, memberID int64, admin, board, moderator bool) error {
	repo := s.repos.Members(s.db)

	member, err := repo.GetByID(ctx, memberID)
	if err != nil {
		return err
	}
	if _, err := s.requireAdmin(ctx, s.db, adminUserID, member.CommunityID); err != nil {
		return err
	}
	return repo.SetRoles(ctx, memberID, admin, board, moderator)
}

// RemoveMember deletes a member; their votes cascade at the schema level.
// Admin only.
func (s *CommunityService) RemoveMember(ctx context.Context, adminUserID, memberID int64) error {
	repo := s.repos.Members(s.db)

	member, err := repo.GetByID(ctx, memberID)
	if err != nil {
		return err
	}
	if _, err := s.requireAdmin(ctx, s.db, adminUserID, member.CommunityID); err != nil {
		return err
	}
	return repo.Delete(ctx, memberID)
}

// CreateTopic posts a topic with its propositions in one transaction.
func (s *CommunityService) CreateTopic(ctx context.Context, userID, communityID int64, title, description string, propositions []string) (*models.Topic, error) {
	member, err := s.requireMember(ctx, s.db, userID, communityID)
	if err != nil {
		return nil, err
	}

	var topic *models.Topic
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repos.Topics(tx)

		t := &models.Topic{
			CommunityID:    communityID,
			AuthorMemberID: member.ID,
			Title:          title,
			Description:    description,
		}
		t, err := repo.Create(ctx, t)
		if err != nil {
			return err
		}
		for _, p := range propositions {
			if _, err := repo.InsertProposition(ctx, t.ID, p); err != nil {
				return err
			}
		}
		topic = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return topic, nil
}

// UpdateTopic rewrites a topic and replaces its propositions in one
// transaction. Replacing propositions drops their votes (schema cascade):
// a reworded proposition is a new question. Restricted to the author or a
// moderator.
func (s *CommunityService) UpdateTopic(ctx context.Context, userID, topicID int64, title, description string, propositions []string) error {
	topic, err := s.repos.Topics(s.db).GetByID(ctx, topicID)
	if err != nil {
		return err
	}
	if err := s.requireAuthorOrModerator(ctx, userID, topic); err != nil {
		return err
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repos.Topics(tx)

		if err := repo.Update(ctx, topicID, title, description); err != nil {
			return err
		}
		if err := repo.DeletePropositions(ctx, topicID); err != nil {
			return err
		}
		for _, p := range propositions {
			if _, err := repo.InsertProposition(ctx, topicID, p); err != nil {
				return err
			}
		}
		return nil
	})
}

// ArchiveTopic marks a topic archived. Restricted to the author or a
// moderator.
func (s *CommunityService) ArchiveTopic(ctx context.Context, userID, topicID int64) error {
	topic, err := s.repos.Topics(s.db).GetByID(ctx, topicID)
	if err != nil {
		return err
	}
	if err := s.requireAuthorOrModerator(ctx, userID, topic); err != nil {
		return err
	}
	return s.repos.Topics(s.db).SetArchived(ctx, topicID, true)
}

// ListTopics returns a community's topics. Restricted to members.
func (s *CommunityService) ListTopics(ctx context.Context, userID, communityID int64, includeArchived bool) ([]*models.Topic, error) {
	if _, err := s.requireMember(ctx, s.db, userID, communityID); err != nil {
		return nil, err
	}
	return s.repos.Topics(s.db).ListByCommunity(ctx, communityID, includeArchived)
}

func (s *CommunityService) requireAuthorOrModerator(ctx context.Context, userID int64, topic *models.Topic) error {
	member, err := s.requireMember(ctx, s.db, userID, topic.CommunityID)
	if err != nil {
		return err
	}
	if member.ID != topic.AuthorMemberID && !member.IsModerator && !member.IsAdmin {
		return common.ErrorForbidden
	}
	return nil
}
