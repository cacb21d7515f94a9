package review

import (
	"context"
	"time"

	"easypro/database/repository/order"
	"easypro/database/repository/review"
	"easypro/database/repository/writer"
	"easypro/models"
	"easypro/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ReviewService accepts one-time reviews of completed orders and folds each
// review's mean into the writer's running rating average.
type ReviewService interface {
	Create(ctx context.Context, review *models.Review, requesterID string) (*models.Review, error)
	ListByWriter(ctx context.Context, writerID string) ([]models.Review, error)
}

type DefaultReviewService struct {
	Repo       reviewRepo.ReviewRepository
	OrderRepo  orderRepo.OrderRepository
	WriterRepo writerRepo.WriterRepository
}

func NewReviewService(repo reviewRepo.ReviewRepository, orders orderRepo.OrderRepository, writers writerRepo.WriterRepository) ReviewService {
	return &DefaultReviewService{Repo: repo, OrderRepo: orders, WriterRepo: writers}
}

// Create validates and stores a review, then applies its mean to the writer's
// rating. A review is accepted only from the owner of a completed order, must
// name that order's writer, and is the only review the order will ever have.
func (s *DefaultReviewService) Create(ctx context.Context, review *models.Review, requesterID string) (*models.Review, error) {
	if err := validateRatings(review); err != nil {
		return nil, err
	}

	o, err := s.OrderRepo.GetByID(ctx, review.OrderID)
	if err != nil {
		return nil, err
	}
	if o.Owner != requesterID {
		return nil, utils.NewOwnershipError("only the order's owner may review it")
	}
	if o.Status.State != models.StateCompleted {
		return nil, utils.NewValidationError("only completed orders can be reviewed")
	}
	if o.AssignedWriter == "" || o.AssignedWriter != review.WriterID {
		return nil, utils.NewValidationError("review writer does not match the order's writer")
	}
	existing, err := s.Repo.GetByOrderID(ctx, review.OrderID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, utils.NewValidationError("a review already exists for this order")
	}

	review.ID = uuid.New().String()
	review.UserID = requesterID
	review.CreatedAt = time.Now()
	if err := s.Repo.Create(ctx, review); err != nil {
		return nil, err
	}

	w, err := s.WriterRepo.ApplyReview(ctx, review.WriterID, review.Mean())
	if err != nil {
		return nil, err
	}
	utils.GetLogger().Info("review recorded",
		zap.String("orderId", review.OrderID),
		zap.String("writerId", review.WriterID),
		zap.Float64("mean", review.Mean()),
		zap.Float64("newAverage", w.Rating.Average))
	return review, nil
}

func (s *DefaultReviewService) ListByWriter(ctx context.Context, writerID string) ([]models.Review, error) {
	return s.Repo.ListByWriter(ctx, writerID)
}

func validateRatings(r *models.Review) error {
	for _, v := range []int{r.InstructionAdherence, r.Grammar, r.ResponseSpeed, r.Formatting} {
		if v < 1 || v > 5 {
			return utils.NewValidationError("ratings must be between 1 and 5")
		}
	}
	for _, o := range r.Other {
		if o.Name == "" {
			return utils.NewValidationError("custom ratings require a name")
		}
		if o.Rating < 1 || o.Rating > 5 {
			return utils.NewValidationError("ratings must be between 1 and 5")
		}
	}
	if r.OrderID == "" || r.WriterID == "" {
		return utils.NewValidationError("order id and writer id are required")
	}
	return nil
}
