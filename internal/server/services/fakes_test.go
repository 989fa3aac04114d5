package services

import (
	"context"
	"database/sql"
	"time"

	"github.com/dmitrijs2005/hoaboard/internal/common"
	"github.com/dmitrijs2005/hoaboard/internal/dbx"
	"github.com/dmitrijs2005/hoaboard/internal/server/models"
	"github.com/dmitrijs2005/hoaboard/internal/server/repositories/communities"
	"github.com/dmitrijs2005/hoaboard/internal/server/repositories/members"
	"github.com/dmitrijs2005/hoaboard/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/hoaboard/internal/server/repositories/topics"
	"github.com/dmitrijs2005/hoaboard/internal/server/repositories/users"
	"github.com/dmitrijs2005/hoaboard/internal/server/repositories/votes"
)

// In-memory repository fakes. They store rows by value and hand out
// copies, mimicking how reads from a real database behave.

type fakeUsersRepo struct {
	seq  int64
	rows map[int64]models.UserRow
}

func newFakeUsersRepo() *fakeUsersRepo {
	return &fakeUsersRepo{rows: map[int64]models.UserRow{}}
}

func (r *fakeUsersRepo) Create(_ context.Context, row *models.UserRow) (*models.UserRow, error) {
	r.seq++
	stored := *row
	stored.ID = r.seq
	r.rows[stored.ID] = stored
	out := stored
	return &out, nil
}

func (r *fakeUsersRepo) GetByID(_ context.Context, id int64) (*models.UserRow, error) {
	row, ok := r.rows[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	out := row
	return &out, nil
}

func (r *fakeUsersRepo) GetByLoginHashes(_ context.Context, loginHash, passwordHash string) (*models.UserRow, error) {
	for _, row := range r.rows {
		if (row.NameHash == loginHash || row.EmailHash == loginHash) && row.PasswordHash == passwordHash {
			out := row
			return &out, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *fakeUsersRepo) GetByEmailHash(_ context.Context, emailHash string) (*models.UserRow, error) {
	for _, row := range r.rows {
		if row.EmailHash == emailHash {
			out := row
			return &out, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *fakeUsersRepo) GetByTokenHash(_ context.Context, tokenHash string) (*models.UserRow, error) {
	for _, row := range r.rows {
		if row.TokenHash.Valid && row.TokenHash.String == tokenHash {
			out := row
			return &out, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *fakeUsersRepo) NameHashExists(_ context.Context, nameHash string) (bool, error) {
	for _, row := range r.rows {
		if row.NameHash == nameHash {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeUsersRepo) EmailHashExists(_ context.Context, emailHash string, excludeUserID int64) (bool, error) {
	for _, row := range r.rows {
		if row.EmailHash == emailHash && row.ID != excludeUserID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeUsersRepo) SetToken(_ context.Context, userID int64, tokenHash string, createdAt time.Time) error {
	row, ok := r.rows[userID]
	if !ok {
		return common.ErrorNotFound
	}
	row.TokenHash = sql.NullString{String: tokenHash, Valid: true}
	row.TokenCreatedAt = sql.NullTime{Time: createdAt, Valid: true}
	r.rows[userID] = row
	return nil
}

func (r *fakeUsersRepo) ClearToken(_ context.Context, userID int64) error {
	row, ok := r.rows[userID]
	if !ok {
		return common.ErrorNotFound
	}
	row.TokenHash = sql.NullString{}
	row.TokenCreatedAt = sql.NullTime{}
	r.rows[userID] = row
	return nil
}

func (r *fakeUsersRepo) UpdateEmail(_ context.Context, userID int64, emailHash, encryptedEmail string) error {
	row, ok := r.rows[userID]
	if !ok {
		return common.ErrorNotFound
	}
	row.EmailHash = emailHash
	row.EncryptedEmail = encryptedEmail
	row.EmailValidated = false
	r.rows[userID] = row
	return nil
}

func (r *fakeUsersRepo) UpdatePassword(_ context.Context, userID int64, passwordHash string) error {
	row, ok := r.rows[userID]
	if !ok {
		return common.ErrorNotFound
	}
	row.PasswordHash = passwordHash
	r.rows[userID] = row
	return nil
}

func (r *fakeUsersRepo) SetEmailValidated(_ context.Context, userID int64, validated bool) error {
	row, ok := r.rows[userID]
	if !ok {
		return common.ErrorNotFound
	}
	row.EmailValidated = validated
	r.rows[userID] = row
	return nil
}

func (r *fakeUsersRepo) SetDefaultCommunity(_ context.Context, userID, communityID int64) error {
	row, ok := r.rows[userID]
	if !ok {
		return common.ErrorNotFound
	}
	row.DefaultCommunityID = sql.NullInt64{Int64: communityID, Valid: true}
	r.rows[userID] = row
	return nil
}

func (r *fakeUsersRepo) Delete(_ context.Context, userID int64) error {
	delete(r.rows, userID)
	return nil
}

type fakeMembersRepo struct {
	seq  int64
	rows map[int64]models.MemberRow
}

func newFakeMembersRepo() *fakeMembersRepo {
	return &fakeMembersRepo{rows: map[int64]models.MemberRow{}}
}

func (r *fakeMembersRepo) Create(_ context.Context, row *models.MemberRow) (*models.MemberRow, error) {
	r.seq++
	stored := *row
	stored.ID = r.seq
	r.rows[stored.ID] = stored
	out := stored
	return &out, nil
}

func (r *fakeMembersRepo) GetByID(_ context.Context, id int64) (*models.MemberRow, error) {
	row, ok := r.rows[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	out := row
	return &out, nil
}

func (r *fakeMembersRepo) GetByUserAndCommunity(_ context.Context, userID, communityID int64) (*models.MemberRow, error) {
	for _, row := range r.rows {
		if row.UserID.Valid && row.UserID.Int64 == userID && row.CommunityID == communityID {
			out := row
			return &out, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *fakeMembersRepo) GetByTokenHash(_ context.Context, tokenHash string) (*models.MemberRow, error) {
	for _, row := range r.rows {
		if row.TokenHash.Valid && row.TokenHash.String == tokenHash {
			out := row
			return &out, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *fakeMembersRepo) ListByCommunity(_ context.Context, communityID int64) ([]*models.MemberRow, error) {
	var out []*models.MemberRow
	for _, row := range r.rows {
		if row.CommunityID == communityID {
			c := row
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *fakeMembersRepo) SetInvitation(_ context.Context, memberID int64, encFullName, encEmail, tokenHash string, createdAt time.Time) error {
	row, ok := r.rows[memberID]
	if !ok {
		return common.ErrorNotFound
	}
	row.EncryptedInviteFullName = sql.NullString{String: encFullName, Valid: true}
	row.EncryptedInviteEmail = sql.NullString{String: encEmail, Valid: true}
	row.TokenHash = sql.NullString{String: tokenHash, Valid: true}
	row.TokenCreatedAt = sql.NullTime{Time: createdAt, Valid: true}
	r.rows[memberID] = row
	return nil
}

func (r *fakeMembersRepo) LinkUser(_ context.Context, memberID, userID int64) error {
	row, ok := r.rows[memberID]
	if !ok {
		return common.ErrorNotFound
	}
	row.UserID = sql.NullInt64{Int64: userID, Valid: true}
	row.TokenHash = sql.NullString{}
	row.TokenCreatedAt = sql.NullTime{}
	r.rows[memberID] = row
	return nil
}

func (r *fakeMembersRepo) SetRoles(_ context.Context, memberID int64, admin, board, moderator bool) error {
	row, ok := r.rows[memberID]
	if !ok {
		return common.ErrorNotFound
	}
	row.IsAdmin = admin
	row.IsBoardMember = board
	row.IsModerator = moderator
	r.rows[memberID] = row
	return nil
}

func (r *fakeMembersRepo) Delete(_ context.Context, memberID int64) error {
	delete(r.rows, memberID)
	return nil
}

type fakeCommunitiesRepo struct {
	seq  int64
	rows map[int64]models.Community
}

func newFakeCommunitiesRepo() *fakeCommunitiesRepo {
	return &fakeCommunitiesRepo{rows: map[int64]models.Community{}}
}

func (r *fakeCommunitiesRepo) Create(_ context.Context, name string) (*models.Community, error) {
	r.seq++
	c := models.Community{ID: r.seq, Name: name}
	r.rows[c.ID] = c
	out := c
	return &out, nil
}

func (r *fakeCommunitiesRepo) GetByID(_ context.Context, id int64) (*models.Community, error) {
	c, ok := r.rows[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	out := c
	return &out, nil
}

func (r *fakeCommunitiesRepo) ListForUser(_ context.Context, userID int64) ([]*models.Community, error) {
	// Membership filtering lives in SQL; the fake returns everything.
	var out []*models.Community
	for _, c := range r.rows {
		cc := c
		out = append(out, &cc)
	}
	return out, nil
}

func (r *fakeCommunitiesRepo) Delete(_ context.Context, id int64) error {
	delete(r.rows, id)
	return nil
}

type fakeTopicsRepo struct {
	topicSeq int64
	propSeq  int64
	topics   map[int64]models.Topic
	props    map[int64]models.Proposition
}

func newFakeTopicsRepo() *fakeTopicsRepo {
	return &fakeTopicsRepo{
		topics: map[int64]models.Topic{},
		props:  map[int64]models.Proposition{},
	}
}

func (r *fakeTopicsRepo) Create(_ context.Context, topic *models.Topic) (*models.Topic, error) {
	r.topicSeq++
	stored := *topic
	stored.ID = r.topicSeq
	stored.CreatedAt = time.Now()
	r.topics[stored.ID] = stored
	out := stored
	return &out, nil
}

func (r *fakeTopicsRepo) GetByID(_ context.Context, id int64) (*models.Topic, error) {
	t, ok := r.topics[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	out := t
	return &out, nil
}

func (r *fakeTopicsRepo) ListByCommunity(_ context.Context, communityID int64, includeArchived bool) ([]*models.Topic, error) {
	var out []*models.Topic
	for _, t := range r.topics {
		if t.CommunityID == communityID && (!t.Archived || includeArchived) {
			tt := t
			out = append(out, &tt)
		}
	}
	return out, nil
}

func (r *fakeTopicsRepo) Update(_ context.Context, topicID int64, title, description string) error {
	t, ok := r.topics[topicID]
	if !ok {
		return common.ErrorNotFound
	}
	t.Title = title
	t.Description = description
	r.topics[topicID] = t
	return nil
}

func (r *fakeTopicsRepo) SetArchived(_ context.Context, topicID int64, archived bool) error {
	t, ok := r.topics[topicID]
	if !ok {
		return common.ErrorNotFound
	}
	t.Archived = archived
	r.topics[topicID] = t
	return nil
}

func (r *fakeTopicsRepo) Delete(_ context.Context, topicID int64) error {
	delete(r.topics, topicID)
	return nil
}

func (r *fakeTopicsRepo) InsertProposition(_ context.Context, topicID int64, description string) (*models.Proposition, error) {
	r.propSeq++
	p := models.Proposition{ID: r.propSeq, TopicID: topicID, Description: description}
	r.props[p.ID] = p
	out := p
	return &out, nil
}

func (r *fakeTopicsRepo) DeletePropositions(_ context.Context, topicID int64) error {
	for id, p := range r.props {
		if p.TopicID == topicID {
			delete(r.props, id)
		}
	}
	return nil
}

func (r *fakeTopicsRepo) ListPropositions(_ context.Context, topicID int64) ([]*models.Proposition, error) {
	var out []*models.Proposition
	for _, p := range r.props {
		if p.TopicID == topicID {
			pp := p
			out = append(out, &pp)
		}
	}
	return out, nil
}

func (r *fakeTopicsRepo) GetProposition(_ context.Context, propositionID int64) (*models.Proposition, error) {
	p, ok := r.props[propositionID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	out := p
	return &out, nil
}

type voteKey struct {
	propositionID int64
	memberID      int64
}

// fakeVotesRepo mirrors the replace-not-merge contract and reimplements
// the grouped tally over its in-memory rows, using the topics fake to
// enumerate propositions.
type fakeVotesRepo struct {
	votes  map[voteKey]bool
	topics *fakeTopicsRepo

	deletes []voteKey
	inserts []voteKey
}

func newFakeVotesRepo(topics *fakeTopicsRepo) *fakeVotesRepo {
	return &fakeVotesRepo{votes: map[voteKey]bool{}, topics: topics}
}

func (r *fakeVotesRepo) GetChoiceForUpdate(_ context.Context, propositionID, memberID int64) (*bool, error) {
	v, ok := r.votes[voteKey{propositionID, memberID}]
	if !ok {
		return nil, nil
	}
	out := v
	return &out, nil
}

func (r *fakeVotesRepo) Delete(_ context.Context, propositionID, memberID int64) error {
	key := voteKey{propositionID, memberID}
	r.deletes = append(r.deletes, key)
	delete(r.votes, key)
	return nil
}

// Insert mirrors the upsert: a row left by a concurrent voter is
// overwritten, never a conflict error.
func (r *fakeVotesRepo) Insert(_ context.Context, propositionID, memberID int64, choice bool) error {
	key := voteKey{propositionID, memberID}
	r.inserts = append(r.inserts, key)
	r.votes[key] = choice
	return nil
}

func (r *fakeVotesRepo) TallyByTopic(ctx context.Context, topicID, requestingMemberID int64) ([]*models.PropositionTally, error) {
	props, err := r.topics.ListPropositions(ctx, topicID)
	if err != nil {
		return nil, err
	}

	var out []*models.PropositionTally
	for _, p := range props {
		t := &models.PropositionTally{PropositionID: p.ID, Description: p.Description}
		for key, choice := range r.votes {
			if key.propositionID != p.ID {
				continue
			}
			if choice {
				t.VotesUp++
			} else {
				t.VotesDown++
			}
			if key.memberID == requestingMemberID {
				c := choice
				t.MyVote = &c
			}
		}
		out = append(out, t)
	}
	return out, nil
}

// fakeRepoManager hands out the same fakes regardless of the database
// handle, so code running inside dbx.WithTx sees the same state.
type fakeRepoManager struct {
	users       *fakeUsersRepo
	members     *fakeMembersRepo
	communities *fakeCommunitiesRepo
	topics      *fakeTopicsRepo
	votes       *fakeVotesRepo
}

func newFakeRepoManager() *fakeRepoManager {
	topics := newFakeTopicsRepo()
	return &fakeRepoManager{
		users:       newFakeUsersRepo(),
		members:     newFakeMembersRepo(),
		communities: newFakeCommunitiesRepo(),
		topics:      topics,
		votes:       newFakeVotesRepo(topics),
	}
}

func (m *fakeRepoManager) Users(dbx.DBTX) users.Repository             { return m.users }
func (m *fakeRepoManager) Members(dbx.DBTX) members.Repository         { return m.members }
func (m *fakeRepoManager) Communities(dbx.DBTX) communities.Repository { return m.communities }
func (m *fakeRepoManager) Topics(dbx.DBTX) topics.Repository           { return m.topics }
func (m *fakeRepoManager) Votes(dbx.DBTX) votes.Repository             { return m.votes }

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }

var _ repomanager.RepositoryManager = (*fakeRepoManager)(nil)
