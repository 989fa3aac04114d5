// Package services contains the server-side business logic: the identity
// store over encrypted PII, community/membership management, and the vote
// tally engine.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/hoaboard/internal/common"
	"github.com/dmitrijs2005/hoaboard/internal/cryptox"
	"github.com/dmitrijs2005/hoaboard/internal/dbx"
	"github.com/dmitrijs2005/hoaboard/internal/server/models"
	"github.com/dmitrijs2005/hoaboard/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/hoaboard/internal/server/repositories/users"
)

// DefaultTokenValidity bounds how long a recovery/validation token stays
// resolvable.
const DefaultTokenValidity = 12 * time.Hour

// UserService is the identity store. It persists users with hashed lookup
// columns and encrypted display columns, verifies credentials against
// hashes only, and manages one-time tokens of which only the hash is ever
// stored.
type UserService struct {
	db            *sql.DB
	repos         repomanager.RepositoryManager
	crypto        *cryptox.Provider
	tokenValidity time.Duration
}

// NewUserService constructs a UserService. tokenValidity <= 0 falls back to
// DefaultTokenValidity.
func NewUserService(db *sql.DB, repos repomanager.RepositoryManager, crypto *cryptox.Provider, tokenValidity time.Duration) *UserService {
	if tokenValidity <= 0 {
		tokenValidity = DefaultTokenValidity
	}
	return &UserService{db: db, repos: repos, crypto: crypto, tokenValidity: tokenValidity}
}

// userFromRow builds the public projection from a storage row, decrypting
// the display columns. Hash and token columns are deliberately absent from
// the result type.
func (s *UserService) userFromRow(row *models.UserRow) (*models.User, error) {
	name, err := s.crypto.Decrypt(row.EncryptedName)
	if err != nil {
		return nil, fmt.Errorf("decrypting name: %w", err)
	}
	fullName, err := s.crypto.Decrypt(row.EncryptedFullName)
	if err != nil {
		return nil, fmt.Errorf("decrypting full name: %w", err)
	}
	email, err := s.crypto.Decrypt(row.EncryptedEmail)
	if err != nil {
		return nil, fmt.Errorf("decrypting email: %w", err)
	}

	u := &models.User{
		ID:             row.ID,
		Name:           name,
		FullName:       fullName,
		Email:          email,
		EmailValidated: row.EmailValidated,
	}
	if row.DefaultCommunityID.Valid {
		id := row.DefaultCommunityID.Int64
		u.DefaultCommunityID = &id
	}
	return u, nil
}

// Register creates a new user. The name and email are stored hashed for
// lookup and encrypted for display; the email starts unvalidated.
func (s *UserService) Register(ctx context.Context, name, fullName, email, password string) (*models.User, error) {
	repo := s.repos.Users(s.db)

	nameUsed, err := repo.NameHashExists(ctx, s.crypto.Hash(name))
	if err != nil {
		return nil, err
	}
	if nameUsed {
		return nil, common.ErrNameAlreadyUsed
	}

	emailUsed, err := repo.EmailHashExists(ctx, s.crypto.Hash(email), 0)
	if err != nil {
		return nil, err
	}
	if emailUsed {
		return nil, common.ErrEmailAlreadyUsed
	}

	encName, err := s.crypto.Encrypt(name)
	if err != nil {
		return nil, err
	}
	encFullName, err := s.crypto.Encrypt(fullName)
	if err != nil {
		return nil, err
	}
	encEmail, err := s.crypto.Encrypt(email)
	if err != nil {
		return nil, err
	}

	row := &models.UserRow{
		NameHash:          s.crypto.Hash(name),
		EmailHash:         s.crypto.Hash(email),
		PasswordHash:      s.crypto.Hash(password),
		EncryptedName:     encName,
		EncryptedFullName: encFullName,
		EncryptedEmail:    encEmail,
	}

	row, err = repo.Create(ctx, row)
	if err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}
	return s.userFromRow(row)
}

// Login verifies credentials by matching the hashed login (name or email)
// and the hashed password in a single lookup. A miss of either yields the
// same ErrLogin.
func (s *UserService) Login(ctx context.Context, login, password string) (*models.User, error) {
	repo := s.repos.Users(s.db)

	row, err := repo.GetByLoginHashes(ctx, s.crypto.Hash(login), s.crypto.Hash(password))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrLogin
		}
		return nil, err
	}
	return s.userFromRow(row)
}

// Get returns the public projection for a user ID.
func (s *UserService) Get(ctx context.Context, userID int64) (*models.User, error) {
	row, err := s.repos.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.userFromRow(row)
}

// IssueToken generates a one-time token for the user registered under the
// given email, stores only its hash with a creation timestamp, and returns
// the raw token for mailing. The server never needs the raw token again.
func (s *UserService) IssueToken(ctx context.Context, email string) (string, error) {
	repo := s.repos.Users(s.db)

	row, err := repo.GetByEmailHash(ctx, s.crypto.Hash(email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", common.ErrEmailNotRegistered
		}
		return "", err
	}

	token, err := s.crypto.NewToken()
	if err != nil {
		return "", err
	}
	if err := repo.SetToken(ctx, row.ID, s.crypto.Hash(token), time.Now()); err != nil {
		return "", err
	}
	return token, nil
}

// ResolveToken hashes the presented token, looks up the matching stored
// hash, and checks the expiry window against the stored creation timestamp.
// Any miss or an expired window yields ErrAccessTokenInvalid. A negative
// expiry is therefore never resolvable.
func (s *UserService) ResolveToken(ctx context.Context, token string, expiry time.Duration) (*models.User, error) {
	row, err := s.resolveTokenRow(ctx, s.repos.Users(s.db), token, expiry)
	if err != nil {
		return nil, err
	}
	return s.userFromRow(row)
}

func (s *UserService) resolveTokenRow(ctx context.Context, repo users.Repository, token string, expiry time.Duration) (*models.UserRow, error) {
	row, err := repo.GetByTokenHash(ctx, s.crypto.Hash(token))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrAccessTokenInvalid
		}
		return nil, err
	}
	if !row.TokenCreatedAt.Valid || time.Since(row.TokenCreatedAt.Time) >= expiry {
		return nil, common.ErrAccessTokenInvalid
	}
	return row, nil
}

// ValidateEmail resolves a validation token and marks the email validated,
// consuming the token in the same transaction.
func (s *UserService) ValidateEmail(ctx context.Context, token string) (*models.User, error) {
	var user *models.User
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repos.Users(tx)

		row, err := s.resolveTokenRow(ctx, repo, token, s.tokenValidity)
		if err != nil {
			return err
		}
		if err := repo.SetEmailValidated(ctx, row.ID, true); err != nil {
			return err
		}
		if err := repo.ClearToken(ctx, row.ID); err != nil {
			return err
		}
		row.EmailValidated = true
		user, err = s.userFromRow(row)
		return err
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// ResetPassword resolves a recovery token, replaces the password hash, and
// consumes the token in the same transaction.
func (s *UserService) ResetPassword(ctx context.Context, token, newPassword string) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repos.Users(tx)

		row, err := s.resolveTokenRow(ctx, repo, token, s.tokenValidity)
		if err != nil {
			return err
		}
		if err := repo.UpdatePassword(ctx, row.ID, s.crypto.Hash(newPassword)); err != nil {
			return err
		}
		return repo.ClearToken(ctx, row.ID)
	})
}

// UpdateEmail replaces the stored email (hash and ciphertext) and resets
// the validated flag. Fails with ErrEmailAlreadyUsed if another user holds
// the same email hash.
func (s *UserService) UpdateEmail(ctx context.Context, userID int64, newEmail string) error {
	repo := s.repos.Users(s.db)

	used, err := repo.EmailHashExists(ctx, s.crypto.Hash(newEmail), userID)
	if err != nil {
		return err
	}
	if used {
		return common.ErrEmailAlreadyUsed
	}

	encEmail, err := s.crypto.Encrypt(newEmail)
	if err != nil {
		return err
	}
	return repo.UpdateEmail(ctx, userID, s.crypto.Hash(newEmail), encEmail)
}

// UpdatePassword verifies the old password hash before storing the new one.
func (s *UserService) UpdatePassword(ctx context.Context, userID int64, oldPassword, newPassword string) error {
	repo := s.repos.Users(s.db)

	row, err := repo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if row.PasswordHash != s.crypto.Hash(oldPassword) {
		return common.ErrLogin
	}
	return repo.UpdatePassword(ctx, userID, s.crypto.Hash(newPassword))
}

// NameUsed reports whether the name is taken, via hash equality only.
func (s *UserService) NameUsed(ctx context.Context, name string) (bool, error) {
	return s.repos.Users(s.db).NameHashExists(ctx, s.crypto.Hash(name))
}

// EmailUsed reports whether the email is taken, via hash equality only.
func (s *UserService) EmailUsed(ctx context.Context, email string) (bool, error) {
	return s.repos.Users(s.db).EmailHashExists(ctx, s.crypto.Hash(email), 0)
}

// SetDefaultCommunity records the community shown after login.
func (s *UserService) SetDefaultCommunity(ctx context.Context, userID, communityID int64) error {
	return s.repos.Users(s.db).SetDefaultCommunity(ctx, userID, communityID)
}

// Unregister deletes the user; memberships cascade at the schema level.
func (s *UserService) Unregister(ctx context.Context, userID int64) error {
	return s.repos.Users(s.db).Delete(ctx, userID)
}
