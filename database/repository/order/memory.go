package orderRepo

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	writerRepo "easypro/database/repository/writer"
	"easypro/models"
	"easypro/utils"
)

// MemoryOrderRepo is an in-memory OrderRepository used by tests. It pairs
// order transitions with ledger updates on a shared MemoryWriterRepo; the
// order mutex makes each transition atomic with respect to other order
// operations, mirroring the database transactions.
type MemoryOrderRepo struct {
	mu      sync.Mutex
	orders  map[string]*models.Order
	writers *writerRepo.MemoryWriterRepo
}

func NewMemoryOrderRepo(writers *writerRepo.MemoryWriterRepo) *MemoryOrderRepo {
	return &MemoryOrderRepo{
		orders:  make(map[string]*models.Order),
		writers: writers,
	}
}

func copyOrder(o *models.Order) *models.Order {
	cp := *o
	cp.Attachments = append([]string(nil), o.Attachments...)
	cp.Responses = append([]models.OrderResponse(nil), o.Responses...)
	if o.Status.CompletedAt != nil {
		t := *o.Status.CompletedAt
		cp.Status.CompletedAt = &t
	}
	return &cp
}

func (r *MemoryOrderRepo) Create(ctx context.Context, o *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[o.ID] = copyOrder(o)
	return nil
}

func (r *MemoryOrderRepo) CreateWithDebit(ctx context.Context, o *models.Order) (*models.Writer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, err := r.writers.TryDebit(ctx, o.AssignedWriter, o.Deadline)
	if err != nil {
		return nil, err
	}
	r.orders[o.ID] = copyOrder(o)
	return w, nil
}

func (r *MemoryOrderRepo) GetByID(ctx context.Context, id string) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, utils.NewNotFoundError(fmt.Sprintf("order %s not found", id))
	}
	return copyOrder(o), nil
}

func (r *MemoryOrderRepo) List(ctx context.Context, filter ListFilter) ([]models.Order, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var matched []models.Order
	for _, o := range r.orders {
		if filter.Owner != "" && o.Owner != filter.Owner {
			continue
		}
		if filter.State != "" && o.Status.State != filter.State {
			continue
		}
		if filter.Kind != "" && o.Kind != filter.Kind {
			continue
		}
		matched = append(matched, *copyOrder(o))
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	page := filter.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Limit
	if limit < 1 {
		limit = 10
	}
	start := (page - 1) * limit
	if start >= len(matched) {
		return nil, total, nil
	}
	end := start + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (r *MemoryOrderRepo) UpdateEditable(ctx context.Context, o *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.orders[o.ID]
	if !ok {
		return utils.NewNotFoundError(fmt.Sprintf("order %s not found", o.ID))
	}
	if existing.Status.State.IsTerminal() {
		return utils.NewInvalidTransitionError("order is terminal and can no longer be edited")
	}
	existing.Subject = o.Subject
	existing.Instructions = o.Instructions
	existing.Deadline = o.Deadline
	existing.Attachments = append([]string(nil), o.Attachments...)
	existing.PaperType = o.PaperType
	existing.PageCount = o.PageCount
	existing.SlideCount = o.SlideCount
	existing.ToolName = o.ToolName
	existing.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *MemoryOrderRepo) Assign(ctx context.Context, orderID, writerID, reason string) (*models.Order, *models.Writer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.orders[orderID]
	if !ok {
		return nil, nil, utils.NewNotFoundError(fmt.Sprintf("order %s not found", orderID))
	}
	if !models.CanTransition(o.Status.State, models.StateAssigned) {
		return nil, nil, utils.NewInvalidTransitionError(
			fmt.Sprintf("cannot assign writer to %s order", o.Status.State))
	}

	w, err := r.writers.TryDebit(ctx, writerID, o.Deadline)
	if err != nil {
		return nil, nil, err
	}

	o.AssignedWriter = writerID
	o.Status.State = models.StateAssigned
	o.Status.Reason = reason
	o.UpdatedAt = time.Now().UTC()
	return copyOrder(o), w, nil
}

func (r *MemoryOrderRepo) AppendResponses(ctx context.Context, orderID string, responses []models.OrderResponse) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.orders[orderID]
	if !ok {
		return nil, utils.NewNotFoundError(fmt.Sprintf("order %s not found", orderID))
	}
	if o.Status.State != models.StateAssigned && o.Status.State != models.StatePending {
		return nil, utils.NewInvalidTransitionError("responses can only be delivered to assigned or pending orders")
	}
	o.Responses = append(o.Responses, responses...)
	o.UpdatedAt = time.Now().UTC()
	return copyOrder(o), nil
}

func (r *MemoryOrderRepo) Complete(ctx context.Context, orderID, reason string, at time.Time) (*models.Order, *models.Writer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.orders[orderID]
	if !ok {
		return nil, nil, utils.NewNotFoundError(fmt.Sprintf("order %s not found", orderID))
	}
	if !models.CanTransition(o.Status.State, models.StateCompleted) {
		return nil, nil, utils.NewInvalidTransitionError(
			fmt.Sprintf("cannot complete order with status: %s", o.Status.State))
	}
	if o.AssignedWriter == "" {
		return nil, nil, utils.NewInvalidTransitionError("no writer assigned to this order")
	}

	w, err := r.writers.Credit(ctx, o.AssignedWriter)
	if err != nil {
		return nil, nil, err
	}

	completedAt := at
	o.Status = models.OrderStatus{
		State:       models.StateCompleted,
		Reason:      reason,
		CompletedAt: &completedAt,
	}
	o.UpdatedAt = time.Now().UTC()
	return copyOrder(o), w, nil
}

func (r *MemoryOrderRepo) Cancel(ctx context.Context, orderID, reason string) (*models.Order, *models.Writer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.orders[orderID]
	if !ok {
		return nil, nil, utils.NewNotFoundError(fmt.Sprintf("order %s not found", orderID))
	}
	if !models.CanTransition(o.Status.State, models.StateCancelled) {
		return nil, nil, utils.NewInvalidTransitionError(
			fmt.Sprintf("cannot cancel order with status: %s", o.Status.State))
	}

	var writer *models.Writer
	if holdsSlot(o) {
		var err error
		if o.Kind == models.KindTechnical {
			writer, err = r.writers.CreditAndClear(ctx, o.AssignedWriter)
		} else {
			writer, err = r.writers.Credit(ctx, o.AssignedWriter)
		}
		if err != nil {
			return nil, nil, err
		}
	}

	o.Status.State = models.StateCancelled
	o.Status.Reason = reason
	o.UpdatedAt = time.Now().UTC()
	return copyOrder(o), writer, nil
}

func (r *MemoryOrderRepo) MarkExpired(ctx context.Context, orderID string) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.orders[orderID]
	if !ok {
		return nil, utils.NewNotFoundError(fmt.Sprintf("order %s not found", orderID))
	}
	if o.Status.State.IsTerminal() {
		return copyOrder(o), nil
	}
	o.Status.State = models.StateExpired
	o.Status.Reason = models.ExpiredReason
	o.UpdatedAt = time.Now().UTC()
	return copyOrder(o), nil
}
