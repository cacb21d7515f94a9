package reviewRepo

import (
	"context"
	"sort"
	"sync"

	"easypro/models"
	"easypro/utils"
)

// MemoryReviewRepo is an in-memory ReviewRepository used by tests.
type MemoryReviewRepo struct {
	mu      sync.Mutex
	byOrder map[string]*models.Review
}

func NewMemoryReviewRepo() *MemoryReviewRepo {
	return &MemoryReviewRepo{byOrder: make(map[string]*models.Review)}
}

func (r *MemoryReviewRepo) Create(ctx context.Context, review *models.Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byOrder[review.OrderID]; exists {
		return utils.NewValidationError("a review already exists for this order")
	}
	cp := *review
	cp.Other = append([]models.CustomRating(nil), review.Other...)
	r.byOrder[review.OrderID] = &cp
	return nil
}

func (r *MemoryReviewRepo) GetByOrderID(ctx context.Context, orderID string) (*models.Review, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rv, ok := r.byOrder[orderID]
	if !ok {
		return nil, nil
	}
	cp := *rv
	return &cp, nil
}

func (r *MemoryReviewRepo) ListByWriter(ctx context.Context, writerID string) ([]models.Review, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Review
	for _, rv := range r.byOrder {
		if rv.WriterID == writerID {
			out = append(out, *rv)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}
