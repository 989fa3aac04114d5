package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrijs2005/hoaboard/internal/common"
	"github.com/dmitrijs2005/hoaboard/internal/dbx"
	"github.com/dmitrijs2005/hoaboard/internal/server/models"
)

const pgUniqueViolation = "23505"

// mapUniqueViolation turns a unique-constraint violation on one of the
// hash indexes into its application error. The service pre-checks the
// hashes, but two concurrent registrations can both pass the pre-check;
// the constraint is the arbiter and its violation must surface as the
// same error the pre-check would have produced.
func mapUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgUniqueViolation {
		return nil
	}
	switch pgErr.ConstraintName {
	case "users_name_hash_key":
		return common.ErrNameAlreadyUsed
	case "users_email_hash_key":
		return common.ErrEmailAlreadyUsed
	}
	return nil
}

// PostgresRepository implements Repository over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const userColumns = `id, name_hash, email_hash, password_hash,
		encrypted_name, encrypted_full_name, encrypted_email,
		email_validated, token_hash, token_created_at, default_community_id`

func scanUserRow(row *sql.Row) (*models.UserRow, error) {
	u := &models.UserRow{}
	err := row.Scan(&u.ID, &u.NameHash, &u.EmailHash, &u.PasswordHash,
		&u.EncryptedName, &u.EncryptedFullName, &u.EncryptedEmail,
		&u.EmailValidated, &u.TokenHash, &u.TokenCreatedAt, &u.DefaultCommunityID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return u, nil
}

func (r *PostgresRepository) Create(ctx context.Context, row *models.UserRow) (*models.UserRow, error) {
	query := `
		INSERT INTO users (name_hash, email_hash, password_hash,
			encrypted_name, encrypted_full_name, encrypted_email)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query,
		row.NameHash, row.EmailHash, row.PasswordHash,
		row.EncryptedName, row.EncryptedFullName, row.EncryptedEmail).Scan(&row.ID)
	if err != nil {
		if appErr := mapUniqueViolation(err); appErr != nil {
			return nil, appErr
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return row, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.UserRow, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUserRow(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) GetByLoginHashes(ctx context.Context, loginHash, passwordHash string) (*models.UserRow, error) {
	// Both hashes are matched in one predicate; a miss never reveals
	// whether the login or the password was wrong.
	query := `
		SELECT ` + userColumns + ` FROM users
		WHERE (name_hash = $1 OR email_hash = $1) AND password_hash = $2
	`
	return scanUserRow(r.db.QueryRowContext(ctx, query, loginHash, passwordHash))
}

func (r *PostgresRepository) GetByEmailHash(ctx context.Context, emailHash string) (*models.UserRow, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email_hash = $1`
	return scanUserRow(r.db.QueryRowContext(ctx, query, emailHash))
}

func (r *PostgresRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*models.UserRow, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE token_hash = $1`
	return scanUserRow(r.db.QueryRowContext(ctx, query, tokenHash))
}

func (r *PostgresRepository) NameHashExists(ctx context.Context, nameHash string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM users WHERE name_hash = $1)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, nameHash).Scan(&exists); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return exists, nil
}

func (r *PostgresRepository) EmailHashExists(ctx context.Context, emailHash string, excludeUserID int64) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM users WHERE email_hash = $1 AND id <> $2)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, emailHash, excludeUserID).Scan(&exists); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return exists, nil
}

func (r *PostgresRepository) SetToken(ctx context.Context, userID int64, tokenHash string, createdAt time.Time) error {
	query := `UPDATE users SET token_hash = $2, token_created_at = $3 WHERE id = $1`
	return r.exec(ctx, query, userID, tokenHash, createdAt)
}

func (r *PostgresRepository) ClearToken(ctx context.Context, userID int64) error {
	query := `UPDATE users SET token_hash = NULL, token_created_at = NULL WHERE id = $1`
	return r.exec(ctx, query, userID)
}

func (r *PostgresRepository) UpdateEmail(ctx context.Context, userID int64, emailHash, encryptedEmail string) error {
	// An email change always drops the validated flag; the new address has
	// not been confirmed yet.
	query := `
		UPDATE users
		SET email_hash = $2, encrypted_email = $3, email_validated = FALSE
		WHERE id = $1
	`
	if _, err := r.db.ExecContext(ctx, query, userID, emailHash, encryptedEmail); err != nil {
		if appErr := mapUniqueViolation(err); appErr != nil {
			return appErr
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) UpdatePassword(ctx context.Context, userID int64, passwordHash string) error {
	query := `UPDATE users SET password_hash = $2 WHERE id = $1`
	return r.exec(ctx, query, userID, passwordHash)
}

func (r *PostgresRepository) SetEmailValidated(ctx context.Context, userID int64, validated bool) error {
	query := `UPDATE users SET email_validated = $2 WHERE id = $1`
	return r.exec(ctx, query, userID, validated)
}

func (r *PostgresRepository) SetDefaultCommunity(ctx context.Context, userID, communityID int64) error {
	query := `UPDATE users SET default_community_id = $2 WHERE id = $1`
	return r.exec(ctx, query, userID, communityID)
}

func (r *PostgresRepository) Delete(ctx context.Context, userID int64) error {
	query := `DELETE FROM users WHERE id = $1`
	return r.exec(ctx, query, userID)
}

func (r *PostgresRepository) exec(ctx context.Context, query string, args ...any) error {
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
