package services

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/hoaboard/internal/common"
	"github.com/dmitrijs2005/hoaboard/internal/cryptox"
	"github.com/dmitrijs2005/hoaboard/internal/server/models"
)

func newCommunityTestEnv(t *testing.T) (*CommunityService, *fakeRepoManager, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	crypto, err := cryptox.NewProvider("test-secret")
	require.NoError(t, err)

	repos := newFakeRepoManager()
	svc := NewCommunityService(db, repos, crypto, time.Hour)
	return svc, repos, mock
}

func TestCreateCommunityMakesCreatorAdmin(t *testing.T) {
	svc, repos, mock := newCommunityTestEnv(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectCommit()

	community, err := svc.Create(ctx, 100, "Maple Court", "Unit 1")
	require.NoError(t, err)
	assert.Equal(t, "Maple Court", community.Name)

	member, err := repos.members.GetByUserAndCommunity(ctx, 100, community.ID)
	require.NoError(t, err)
	assert.True(t, member.IsAdmin)
	assert.Equal(t, "Unit 1", member.Address)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddPropertyAdminOnly(t *testing.T) {
	svc, repos, mock := newCommunityTestEnv(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectCommit()
	community, err := svc.Create(ctx, 100, "Maple Court", "Unit 1")
	require.NoError(t, err)

	// A plain member of the same community.
	_, err = repos.members.Create(ctx, &models.MemberRow{
		CommunityID: community.ID,
		UserID:      sql.NullInt64{Int64: 200, Valid: true},
		Address:     "Unit 2",
	})
	require.NoError(t, err)

	slot, err := svc.AddProperty(ctx, 100, community.ID, "Unit 3")
	require.NoError(t, err)
	assert.Nil(t, slot.UserID)
	assert.Equal(t, "Unit 3", slot.Address)

	_, err = svc.AddProperty(ctx, 200, community.ID, "Unit 4")
	assert.ErrorIs(t, err, common.ErrorForbidden)

	_, err = svc.AddProperty(ctx, 999, community.ID, "Unit 5")
	assert.ErrorIs(t, err, common.ErrorForbidden)
}

func TestInviteStoresEncryptedPIIAndTokenHash(t *testing.T) {
	svc, repos, mock := newCommunityTestEnv(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectCommit()
	community, err := svc.Create(ctx, 100, "Maple Court", "Unit 1")
	require.NoError(t, err)

	slot, err := svc.AddProperty(ctx, 100, community.ID, "Unit 2")
	require.NoError(t, err)

	token, err := svc.Invite(ctx, 100, slot.ID, "Carol Reed", "carol@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	row := repos.members.rows[slot.ID]
	require.True(t, row.TokenHash.Valid)
	assert.NotEqual(t, token, row.TokenHash.String)
	assert.NotContains(t, row.EncryptedInviteFullName.String, "Carol")
	assert.NotContains(t, row.EncryptedInviteEmail.String, "carol@example.com")

	// Members still see the decrypted projection.
	listed, err := svc.ListMembers(ctx, 100, community.ID)
	require.NoError(t, err)

	var invited *models.Member
	for _, m := range listed {
		if m.ID == slot.ID {
			invited = m
		}
	}
	require.NotNil(t, invited)
	assert.Equal(t, "Carol Reed", invited.InviteFullName)
	assert.Equal(t, "carol@example.com", invited.InviteEmail)
}

func TestAcceptInvitation(t *testing.T) {
	svc, repos, mock := newCommunityTestEnv(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectCommit()
	community, err := svc.Create(ctx, 100, "Maple Court", "Unit 1")
	require.NoError(t, err)

	slot, err := svc.AddProperty(ctx, 100, community.ID, "Unit 2")
	require.NoError(t, err)

	token, err := svc.Invite(ctx, 100, slot.ID, "Carol Reed", "carol@example.com")
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectCommit()

	member, err := svc.AcceptInvitation(ctx, token, 300)
	require.NoError(t, err)
	require.NotNil(t, member.UserID)
	assert.Equal(t, int64(300), *member.UserID)

	// The token is consumed with the link.
	assert.False(t, repos.members.rows[slot.ID].TokenHash.Valid)

	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err = svc.AcceptInvitation(ctx, token, 301)
	assert.ErrorIs(t, err, common.ErrInvitationTokenInvalid)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAcceptInvitationExpired(t *testing.T) {
	svc, repos, mock := newCommunityTestEnv(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectCommit()
	community, err := svc.Create(ctx, 100, "Maple Court", "Unit 1")
	require.NoError(t, err)

	slot, err := svc.AddProperty(ctx, 100, community.ID, "Unit 2")
	require.NoError(t, err)

	token, err := svc.Invite(ctx, 100, slot.ID, "Carol Reed", "carol@example.com")
	require.NoError(t, err)

	// Age the invitation past the configured validity.
	row := repos.members.rows[slot.ID]
	row.TokenCreatedAt = sql.NullTime{Time: time.Now().Add(-2 * time.Hour), Valid: true}
	repos.members.rows[slot.ID] = row

	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err = svc.AcceptInvitation(ctx, token, 300)
	assert.ErrorIs(t, err, common.ErrInvitationTokenInvalid)
}

func TestSetRolesAdminOnly(t *testing.T) {
	svc, repos, mock := newCommunityTestEnv(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectCommit()
	community, err := svc.Create(ctx, 100, "Maple Court", "Unit 1")
	require.NoError(t, err)

	plain, err := repos.members.Create(ctx, &models.MemberRow{
		CommunityID: community.ID,
		UserID:      sql.NullInt64{Int64: 200, Valid: true},
		Address:     "Unit 2",
	})
	require.NoError(t, err)

	err = svc.SetRoles(ctx, 200, plain.ID, true, false, false)
	assert.ErrorIs(t, err, common.ErrorForbidden)

	require.NoError(t, svc.SetRoles(ctx, 100, plain.ID, false, true, true))
	updated := repos.members.rows[plain.ID]
	assert.False(t, updated.IsAdmin)
	assert.True(t, updated.IsBoardMember)
	assert.True(t, updated.IsModerator)
}

func TestCreateAndListTopics(t *testing.T) {
	svc, _, mock := newCommunityTestEnv(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectCommit()
	community, err := svc.Create(ctx, 100, "Maple Court", "Unit 1")
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectCommit()
	topic, err := svc.CreateTopic(ctx, 100, community.ID, "Fence color", "Pick one", []string{"White", "Green"})
	require.NoError(t, err)
	assert.Equal(t, "Fence color", topic.Title)

	topics, err := svc.ListTopics(ctx, 100, community.ID, false)
	require.NoError(t, err)
	require.Len(t, topics, 1)

	// Archived topics drop out of the default listing.
	require.NoError(t, svc.ArchiveTopic(ctx, 100, topic.ID))

	topics, err = svc.ListTopics(ctx, 100, community.ID, false)
	require.NoError(t, err)
	assert.Empty(t, topics)

	topics, err = svc.ListTopics(ctx, 100, community.ID, true)
	require.NoError(t, err)
	assert.Len(t, topics, 1)

	_, err = svc.ListTopics(ctx, 999, community.ID, false)
	assert.ErrorIs(t, err, common.ErrorForbidden)
}

func TestUpdateTopicReplacesPropositions(t *testing.T) {
	svc, repos, mock := newCommunityTestEnv(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectCommit()
	community, err := svc.Create(ctx, 100, "Maple Court", "Unit 1")
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectCommit()
	topic, err := svc.CreateTopic(ctx, 100, community.ID, "Fence color", "Pick one", []string{"White", "Green"})
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectCommit()
	require.NoError(t, svc.UpdateTopic(ctx, 100, topic.ID, "Fence color", "Pick one", []string{"Blue"}))

	props, err := repos.topics.ListPropositions(ctx, topic.ID)
	require.NoError(t, err)
	require.Len(t, props, 1)
	assert.Equal(t, "Blue", props[0].Description)
}

func TestUpdateTopicAuthorOrModeratorOnly(t *testing.T) {
	svc, repos, mock := newCommunityTestEnv(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectCommit()
	community, err := svc.Create(ctx, 100, "Maple Court", "Unit 1")
	require.NoError(t, err)

	plain, err := repos.members.Create(ctx, &models.MemberRow{
		CommunityID: community.ID,
		UserID:      sql.NullInt64{Int64: 200, Valid: true},
		Address:     "Unit 2",
	})
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectCommit()
	topic, err := svc.CreateTopic(ctx, 100, community.ID, "Fence color", "Pick one", nil)
	require.NoError(t, err)

	err = svc.UpdateTopic(ctx, 200, topic.ID, "Hijacked", "", nil)
	assert.ErrorIs(t, err, common.ErrorForbidden)

	// Granting the moderator role opens the door.
	require.NoError(t, repos.members.SetRoles(ctx, plain.ID, false, false, true))

	mock.ExpectBegin()
	mock.ExpectCommit()
	assert.NoError(t, svc.UpdateTopic(ctx, 200, topic.ID, "Moderated", "", nil))
}

func TestRemoveMemberAdminOnly(t *testing.T) {
	svc, repos, mock := newCommunityTestEnv(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectCommit()
	community, err := svc.Create(ctx, 100, "Maple Court", "Unit 1")
	require.NoError(t, err)

	plain, err := repos.members.Create(ctx, &models.MemberRow{
		CommunityID: community.ID,
		UserID:      sql.NullInt64{Int64: 200, Valid: true},
		Address:     "Unit 2",
	})
	require.NoError(t, err)

	err = svc.RemoveMember(ctx, 200, plain.ID)
	assert.ErrorIs(t, err, common.ErrorForbidden)

	require.NoError(t, svc.RemoveMember(ctx, 100, plain.ID))

	_, err = repos.members.GetByID(ctx, plain.ID)
	assert.ErrorIs(t, err, common.ErrorNotFound)
}
