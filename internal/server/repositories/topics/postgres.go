package topics

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/hoaboard/internal/common"
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

const topicColumns = `id, community_id, author_member_id, title, description, archived, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTopic(row rowScanner) (*models.Topic, error) {
	t := &models.Topic{}
	err := row.Scan(&t.ID, &t.CommunityID, &t.AuthorMemberID,
		&t.Title, &t.Description, &t.Archived, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return t, nil
}

func (r *PostgresRepository) Create(ctx context.Context, topic *models.Topic) (*models.Topic, error) {
	query := `
		INSERT INTO topics (community_id, author_member_id, title, description)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		topic.CommunityID, topic.AuthorMemberID, topic.Title, topic.Description).
		Scan(&topic.ID, &topic.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return topic, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.Topic, error) {
	query := `SELECT ` + topicColumns + ` FROM topics WHERE id = $1`
	return scanTopic(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) ListByCommunity(ctx context.Context, communityID int64, includeArchived bool) ([]*models.Topic, error) {
	query := `
		SELECT ` + topicColumns + ` FROM topics
		WHERE community_id = $1 AND (archived = FALSE OR $2)
		ORDER BY created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, communityID, includeArchived)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Topic
	for rows.Next() {
		t, err := scanTopic(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) Update(ctx context.Context, topicID int64, title, description string) error {
	query := `UPDATE topics SET title = $2, description = $3 WHERE id = $1`
	return r.exec(ctx, query, topicID, title, description)
}

func (r *PostgresRepository) SetArchived(ctx context.Context, topicID int64, archived bool) error {
	query := `UPDATE topics SET archived = $2 WHERE id = $1`
	return r.exec(ctx, query, topicID, archived)
}

func (r *PostgresRepository) Delete(ctx context.Context, topicID int64) error {
	query := `DELETE FROM topics WHERE id = $1`
	return r.exec(ctx, query, topicID)
}

func (r *PostgresRepository) InsertProposition(ctx context.Context, topicID int64, description string) (*models.Proposition, error) {
	query := `INSERT INTO propositions (topic_id, description) VALUES ($1, $2) RETURNING id`

	p := &models.Proposition{TopicID: topicID, Description: description}
	if err := r.db.QueryRowContext(ctx, query, topicID, description).Scan(&p.ID); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) DeletePropositions(ctx context.Context, topicID int64) error {
	query := `DELETE FROM propositions WHERE topic_id = $1`
	return r.exec(ctx, query, topicID)
}

func (r *PostgresRepository) ListPropositions(ctx context.Context, topicID int64) ([]*models.Proposition, error) {
	query := `SELECT id, topic_id, description FROM propositions WHERE topic_id = $1 ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, topicID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Proposition
	for rows.Next() {
		p := &models.Proposition{}
		if err := rows.Scan(&p.ID, &p.TopicID, &p.Description); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) GetProposition(ctx context.Context, propositionID int64) (*models.Proposition, error) {
	query := `SELECT id, topic_id, description FROM propositions WHERE id = $1`

	p := &models.Proposition{}
	if err := r.db.QueryRowContext(ctx, query, propositionID).Scan(&p.ID, &p.TopicID, &p.Description); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) exec(ctx context.Context, query string, args ...any) error {
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
