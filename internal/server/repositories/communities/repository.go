// Package communities provides persistence for HOA communities.
package communities

import (
	"context"

	"github.com/dmitrijs2005/hoaboard/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, name string) (*models.Community, error)
	GetByID(ctx context.Context, id int64) (*models.Community, error)

	// ListForUser returns the communities the user belongs to.
	ListForUser(ctx context.Context, userID int64) ([]*models.Community, error)

	Delete(ctx context.Context, id int64) error
}
