package votes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/hoaboard/internal/dbx"
	"github.com/dmitrijs2005/hoaboard/internal/server/models"
)

// PostgresRepository implements Repository over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) GetChoiceForUpdate(ctx context.Context, propositionID, memberID int64) (*bool, error) {
	// FOR UPDATE scopes the lock to this (proposition, member) row;
	// concurrent votes by other members are not blocked.
	query := `
		SELECT choice FROM votes
		WHERE proposition_id = $1 AND member_id = $2
		FOR UPDATE
	`
	var choice bool
	err := r.db.QueryRowContext(ctx, query, propositionID, memberID).Scan(&choice)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &choice, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, propositionID, memberID int64) error {
	query := `DELETE FROM votes WHERE proposition_id = $1 AND member_id = $2`
	if _, err := r.db.ExecContext(ctx, query, propositionID, memberID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Insert(ctx context.Context, propositionID, memberID int64, choice bool) error {
	// FOR UPDATE locks nothing when no prior row exists, so two first-time
	// votes can race past the read. The upsert makes the second writer
	// overwrite instead of failing on the primary key.
	query := `
		INSERT INTO votes (proposition_id, member_id, choice)
		VALUES ($1, $2, $3)
		ON CONFLICT (proposition_id, member_id) DO UPDATE SET choice = EXCLUDED.choice
	`
	if _, err := r.db.ExecContext(ctx, query, propositionID, memberID, choice); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) TallyByTopic(ctx context.Context, topicID, requestingMemberID int64) ([]*models.PropositionTally, error) {
	// One grouped aggregation over all vote rows of the topic's
	// propositions. The FILTER on member_id is what keeps every other
	// member's choice inside the database: only counts and the requester's
	// own row ever reach the application.
	query := `
		SELECT p.id, p.description,
			COUNT(v.choice) FILTER (WHERE v.choice),
			COUNT(v.choice) FILTER (WHERE NOT v.choice),
			BOOL_OR(v.choice) FILTER (WHERE v.member_id = $2)
		FROM propositions p
		LEFT JOIN votes v ON v.proposition_id = p.id
		WHERE p.topic_id = $1
		GROUP BY p.id, p.description
		ORDER BY p.id
	`
	rows, err := r.db.QueryContext(ctx, query, topicID, requestingMemberID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.PropositionTally
	for rows.Next() {
		t := &models.PropositionTally{}
		var myVote sql.NullBool
		if err := rows.Scan(&t.PropositionID, &t.Description, &t.VotesUp, &t.VotesDown, &myVote); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		if myVote.Valid {
			t.MyVote = &myVote.Bool
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}
