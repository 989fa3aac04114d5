// Package votes provides persistence for anonymous up/down votes.
//
// Individual vote rows are written and removed only for the voting member;
// reads are aggregate-only. The tally query itself is the boundary that
// keeps other members' choices out of the application: per-row data never
// leaves SQL.
package votes

import (
	"context"

	"github.com/dmitrijs2005/hoaboard/internal/server/models"
)

type Repository interface {
	// GetChoiceForUpdate returns the member's current choice for the
	// proposition, locking the row. A nil result means no vote recorded.
	// Intended to run inside the CastVote transaction.
	GetChoiceForUpdate(ctx context.Context, propositionID, memberID int64) (*bool, error)

	// Delete removes the member's vote row for the proposition, if any.
	Delete(ctx context.Context, propositionID, memberID int64) error

	// Insert records the member's vote, overwriting a concurrently created
	// row for the same (proposition, member) pair. Callers delete any prior
	// row first (replace, never merge); the overwrite only covers the race
	// where two first-time votes pass the locking read together.
	Insert(ctx context.Context, propositionID, memberID int64, choice bool) error

	// TallyByTopic computes aggregate up/down counts for every proposition
	// of the topic in a single grouped query, plus the requesting member's
	// own choice via a conditional aggregate. Zero-vote propositions
	// report 0/0 with a nil MyVote.
	TallyByTopic(ctx context.Context, topicID, requestingMemberID int64) ([]*models.PropositionTally, error)
}
