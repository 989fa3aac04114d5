// Package topics provides persistence for topics and their propositions
// (the votable items).
package topics

import (
	"context"

	"github.com/dmitrijs2005/hoaboard/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, topic *models.Topic) (*models.Topic, error)
	GetByID(ctx context.Context, id int64) (*models.Topic, error)
	ListByCommunity(ctx context.Context, communityID int64, includeArchived bool) ([]*models.Topic, error)

	// Update rewrites title and description. Proposition replacement is a
	// separate call so the service can combine both inside one transaction.
	Update(ctx context.Context, topicID int64, title, description string) error
	SetArchived(ctx context.Context, topicID int64, archived bool) error
	Delete(ctx context.Context, topicID int64) error

	InsertProposition(ctx context.Context, topicID int64, description string) (*models.Proposition, error)
	DeletePropositions(ctx context.Context, topicID int64) error
	ListPropositions(ctx context.Context, topicID int64) ([]*models.Proposition, error)
	GetProposition(ctx context.Context, propositionID int64) (*models.Proposition, error)
}
