package services

import (
	"context"
	"database/sql"
	"errors"

	"github.com/dmitrijs2005/hoaboard/internal/common"
	"github.com/dmitrijs2005/hoaboard/internal/dbx"
	"github.com/dmitrijs2005/hoaboard/internal/server/models"
	"github.com/dmitrijs2005/hoaboard/internal/server/repositories/repomanager"
)

// VoteService is the tally engine. It keeps at most one vote row per
// (proposition, member) through a replace-not-merge write pattern and
// exposes only aggregate counts plus the requester's own choice.
//
// It depends on the membership tables solely to resolve which member is
// voting; it never reads PII.
type VoteService struct {
	db    *sql.DB
	repos repomanager.RepositoryManager
}

// NewVoteService constructs a VoteService.
func NewVoteService(db *sql.DB, repos repomanager.RepositoryManager) *VoteService {
	return &VoteService{db: db, repos: repos}
}

// resolveVoter maps (user, proposition) to the acting member.
func (s *VoteService) resolveVoter(ctx context.Context, propositionID, userID int64) (memberID int64, err error) {
	topicsRepo := s.repos.Topics(s.db)

	prop, err := topicsRepo.GetProposition(ctx, propositionID)
	if err != nil {
		return 0, err
	}
	topic, err := topicsRepo.GetByID(ctx, prop.TopicID)
	if err != nil {
		return 0, err
	}

	member, err := s.repos.Members(s.db).GetByUserAndCommunity(ctx, userID, topic.CommunityID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return 0, common.ErrorForbidden
		}
		return 0, err
	}
	return member.ID, nil
}

// CastVote records the user's vote on a proposition: true for up, false
// for down, nil to retract. Any prior row for the pair is removed first
// and a new row inserted only when a choice remains, all inside one
// transaction, so a concurrent tally never observes a half-applied vote.
//
// Re-casting the currently held choice retracts it (toggle), matching the
// select-again-to-clear contract of the voting UI.
func (s *VoteService) CastVote(ctx context.Context, propositionID, userID int64, choice *bool) error {
	memberID, err := s.resolveVoter(ctx, propositionID, userID)
	if err != nil {
		return err
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repos.Votes(tx)

		prior, err := repo.GetChoiceForUpdate(ctx, propositionID, memberID)
		if err != nil {
			return err
		}
		if err := repo.Delete(ctx, propositionID, memberID); err != nil {
			return err
		}

		if choice == nil {
			return nil
		}
		if prior != nil && *prior == *choice {
			// Same choice again: the delete above already retracted it.
			return nil
		}
		return repo.Insert(ctx, propositionID, memberID, *choice)
	})
}

// Tally returns the aggregate counts for every proposition of a topic plus
// the requesting user's own vote. The aggregation runs entirely in SQL;
// no other member's vote row ever reaches the application.
func (s *VoteService) Tally(ctx context.Context, topicID, userID int64) ([]*models.PropositionTally, error) {
	topic, err := s.repos.Topics(s.db).GetByID(ctx, topicID)
	if err != nil {
		return nil, err
	}

	member, err := s.repos.Members(s.db).GetByUserAndCommunity(ctx, userID, topic.CommunityID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorForbidden
		}
		return nil, err
	}

	return s.repos.Votes(s.db).TallyByTopic(ctx, topicID, member.ID)
}
