package members

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

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

const memberColumns = `id, community_id, user_id, address,
		encrypted_invite_full_name, encrypted_invite_email,
		is_admin, is_board_member, is_moderator, token_hash, token_created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMemberRow(row rowScanner) (*models.MemberRow, error) {
	m := &models.MemberRow{}
	err := row.Scan(&m.ID, &m.CommunityID, &m.UserID, &m.Address,
		&m.EncryptedInviteFullName, &m.EncryptedInviteEmail,
		&m.IsAdmin, &m.IsBoardMember, &m.IsModerator,
		&m.TokenHash, &m.TokenCreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return m, nil
}

func (r *PostgresRepository) Create(ctx context.Context, row *models.MemberRow) (*models.MemberRow, error) {
	query := `
		INSERT INTO members (community_id, user_id, address,
			is_admin, is_board_member, is_moderator)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query,
		row.CommunityID, row.UserID, row.Address,
		row.IsAdmin, row.IsBoardMember, row.IsModerator).Scan(&row.ID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return row, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.MemberRow, error) {
	query := `SELECT ` + memberColumns + ` FROM members WHERE id = $1`
	return scanMemberRow(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) GetByUserAndCommunity(ctx context.Context, userID, communityID int64) (*models.MemberRow, error) {
	query := `SELECT ` + memberColumns + ` FROM members WHERE user_id = $1 AND community_id = $2`
	return scanMemberRow(r.db.QueryRowContext(ctx, query, userID, communityID))
}

func (r *PostgresRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*models.MemberRow, error) {
	query := `SELECT ` + memberColumns + ` FROM members WHERE token_hash = $1`
	return scanMemberRow(r.db.QueryRowContext(ctx, query, tokenHash))
}

func (r *PostgresRepository) ListByCommunity(ctx context.Context, communityID int64) ([]*models.MemberRow, error) {
	query := `SELECT ` + memberColumns + ` FROM members WHERE community_id = $1 ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, communityID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.MemberRow
	for rows.Next() {
		m, err := scanMemberRow(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) SetInvitation(ctx context.Context, memberID int64, encFullName, encEmail, tokenHash string, createdAt time.Time) error {
	query := `
		UPDATE members
		SET encrypted_invite_full_name = $2, encrypted_invite_email = $3,
			token_hash = $4, token_created_at = $5
		WHERE id = $1
	`
	return r.exec(ctx, query, memberID, encFullName, encEmail, tokenHash, createdAt)
}

func (r *PostgresRepository) LinkUser(ctx context.Context, memberID, userID int64) error {
	query := `
		UPDATE members
		SET user_id = $2, token_hash = NULL, token_created_at = NULL
		WHERE id = $1
	`
	return r.exec(ctx, query, memberID, userID)
}

func (r *PostgresRepository) SetRoles(ctx context.Context, memberID int64, admin, board, moderator bool) error {
	query := `
		UPDATE members
		SET is_admin = $2, is_board_member = $3, is_moderator = $4
		WHERE id = $1
	`
	return r.exec(ctx, query, memberID, admin, board, moderator)
}

func (r *PostgresRepository) Delete(ctx context.Context, memberID int64) error {
	query := `DELETE FROM members WHERE id = $1`
	return r.exec(ctx, query, memberID)
}

func (r *PostgresRepository) exec(ctx context.Context, query string, args ...any) error {
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
