package order

import (
	"context"
	"fmt"
	"strings"
	"time"

	"easypro/database/repository/order"
	"easypro/database/repository/review"
	"easypro/models"
	"easypro/services/storage"
	"easypro/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OrderService manages the order lifecycle end to end: creation, owner
// edits, assignment, delivered responses, completion, cancellation, and
// the lazy expiry sweep applied on every read.
type OrderService interface {
	Create(ctx context.Context, o *models.Order) (*models.Order, error)
	GetByID(ctx context.Context, id, requesterID, role string) (*models.Order, error)
	List(ctx context.Context, filter orderRepo.ListFilter, requesterID, role string) ([]models.Order, int64, error)
	Update(ctx context.Context, o *models.Order, requesterID string) (*models.Order, error)
	Assign(ctx context.Context, orderID, writerID string) (*models.Order, error)
	SubmitResponse(ctx context.Context, orderID string, titles, localFilePaths []string) (*models.Order, error)
	Complete(ctx context.Context, orderID string) (*models.Order, error)
	Cancel(ctx context.Context, orderID, requesterID, role string) (*models.Order, error)
}

// DefaultOrderService is the production implementation of OrderService.
type DefaultOrderService struct {
	Repo       orderRepo.OrderRepository
	ReviewRepo reviewRepo.ReviewRepository
	Storage    storage.StorageService
}

func NewOrderService(repo orderRepo.OrderRepository, reviews reviewRepo.ReviewRepository, store storage.StorageService) OrderService {
	return &DefaultOrderService{Repo: repo, ReviewRepo: reviews, Storage: store}
}

// Create validates and persists a new order. Writing and editing orders start
// unassigned; technical orders name their writer up front, start pending, and
// debit the writer's ledger in the same transaction as the insert.
func (s *DefaultOrderService) Create(ctx context.Context, o *models.Order) (*models.Order, error) {
	if err := validateOrder(o, time.Now()); err != nil {
		return nil, err
	}

	now := time.Now()
	o.ID = uuid.New().String()
	o.CreatedAt = now
	o.UpdatedAt = now
	o.Responses = nil
	if o.Attachments == nil {
		o.Attachments = []string{}
	}

	if o.Kind == models.KindTechnical {
		if o.AssignedWriter == "" {
			return nil, utils.NewValidationError("technical orders require a writer at creation")
		}
		o.Status = models.OrderStatus{
			State:  models.StatePending,
			Reason: "technical order placed with writer " + o.AssignedWriter,
		}
		w, err := s.Repo.CreateWithDebit(ctx, o)
		if err != nil {
			return nil, err
		}
		utils.GetLogger().Info("technical order created",
			zap.String("orderId", o.ID),
			zap.String("writerId", o.AssignedWriter),
			zap.Int("slotsLeft", w.SlotsLeft))
		return o, nil
	}

	o.AssignedWriter = ""
	o.Status = models.OrderStatus{State: models.StateUnassigned, Reason: "order placed"}
	if err := s.Repo.Create(ctx, o); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}
	return o, nil
}

// GetByID fetches an order, applying the expiry sweep before returning it.
// Non-admin requesters may only read their own orders. Completed orders carry
// their review inline when one exists.
func (s *DefaultOrderService) GetByID(ctx context.Context, id, requesterID, role string) (*models.Order, error) {
	o, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if role != models.RoleAdmin && o.Owner != requesterID {
		return nil, utils.NewOwnershipError("order does not belong to the requester")
	}
	o, err = s.sweep(ctx, o)
	if err != nil {
		return nil, err
	}
	if o.Status.State == models.StateCompleted {
		rev, err := s.ReviewRepo.GetByOrderID(ctx, o.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch review for order %s: %w", o.ID, err)
		}
		o.Review = rev
	}
	return o, nil
}

// List returns a page of orders. Non-admin requesters are scoped to their own
// orders regardless of the filter. Each returned order passes through the
// expiry sweep.
func (s *DefaultOrderService) List(ctx context.Context, filter orderRepo.ListFilter, requesterID, role string) ([]models.Order, int64, error) {
	if role != models.RoleAdmin {
		filter.Owner = requesterID
	}
	orders, total, err := s.Repo.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	now := time.Now()
	for i := range orders {
		if _, expired := models.SweepExpiry(now, orders[i].Deadline, orders[i].Status); !expired {
			continue
		}
		swept, err := s.Repo.MarkExpired(ctx, orders[i].ID)
		if err != nil {
			return nil, 0, err
		}
		orders[i] = *swept
	}
	return orders, total, nil
}

// Update replaces the owner-editable fields of a non-terminal order. The kind
// is immutable; passing a different kind is a validation failure.
func (s *DefaultOrderService) Update(ctx context.Context, o *models.Order, requesterID string) (*models.Order, error) {
	existing, err := s.Repo.GetByID(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	if existing.Owner != requesterID {
		return nil, utils.NewOwnershipError("order does not belong to the requester")
	}
	existing, err = s.sweep(ctx, existing)
	if err != nil {
		return nil, err
	}
	if existing.Status.State.IsTerminal() {
		return nil, utils.NewInvalidTransitionError("cannot edit an order in state " + string(existing.Status.State))
	}
	if o.Kind != "" && o.Kind != existing.Kind {
		return nil, utils.NewValidationError("order kind cannot change after creation")
	}

	updated := *existing
	if o.Subject != "" {
		updated.Subject = o.Subject
	}
	if o.Instructions != "" {
		updated.Instructions = o.Instructions
	}
	if !o.Deadline.IsZero() {
		updated.Deadline = o.Deadline
	}
	if o.Attachments != nil {
		updated.Attachments = o.Attachments
	}
	switch existing.Kind {
	case models.KindWriting:
		if o.PaperType != "" {
			updated.PaperType = o.PaperType
		}
		if o.PageCount != 0 {
			updated.PageCount = o.PageCount
		}
		if o.SlideCount != 0 {
			updated.SlideCount = o.SlideCount
		}
	case models.KindEditing:
		if o.PageCount != 0 {
			updated.PageCount = o.PageCount
		}
	case models.KindTechnical:
		if o.ToolName != "" {
			updated.ToolName = o.ToolName
		}
	}
	if err := validateOrder(&updated, time.Now()); err != nil {
		return nil, err
	}
	updated.UpdatedAt = time.Now()
	if err := s.Repo.UpdateEditable(ctx, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// sweep applies the lazy-expiry check to a freshly read order and persists
// the transition when it fires.
func (s *DefaultOrderService) sweep(ctx context.Context, o *models.Order) (*models.Order, error) {
	if _, expired := models.SweepExpiry(time.Now(), o.Deadline, o.Status); !expired {
		return o, nil
	}
	swept, err := s.Repo.MarkExpired(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	utils.GetLogger().Info("order expired on read",
		zap.String("orderId", o.ID),
		zap.Time("deadline", o.Deadline))
	return swept, nil
}

// validateOrder enforces the shared and kind-specific field rules.
func validateOrder(o *models.Order, now time.Time) error {
	if !o.Kind.Valid() {
		return utils.NewValidationError("unknown order kind: " + string(o.Kind))
	}
	if strings.TrimSpace(o.Subject) == "" {
		return utils.NewValidationError("subject is required")
	}
	if o.Deadline.IsZero() || !o.Deadline.After(now) {
		return utils.NewValidationError("deadline must be in the future")
	}
	switch o.Kind {
	case models.KindWriting:
		if strings.TrimSpace(o.PaperType) == "" {
			return utils.NewValidationError("writing orders require a paper type")
		}
		if o.PageCount < 1 {
			return utils.NewValidationError("writing orders require at least one page")
		}
		if o.SlideCount < 0 {
			return utils.NewValidationError("slide count cannot be negative")
		}
	case models.KindEditing:
		if o.PageCount < 1 {
			return utils.NewValidationError("editing orders require at least one page")
		}
		if len(o.Attachments) == 0 {
			return utils.NewValidationError("editing orders require the document to edit as an attachment")
		}
	}
	return nil
}
