package reviewRepo

import (
	"context"

	"easypro/models"
)

// ReviewRepository stores immutable reviews. At most one review exists per
// order; the store enforces this.
type ReviewRepository interface {
	Create(ctx context.Context, review *models.Review) error
	GetByOrderID(ctx context.Context, orderID string) (*models.Review, error)
	ListByWriter(ctx context.Context, writerID string) ([]models.Review, error)
}
