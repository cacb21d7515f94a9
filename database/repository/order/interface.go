package orderRepo

import (
	"context"
	"time"

	"easypro/models"
)

// ListFilter narrows an order listing. Zero values are ignored. Page is
// 1-based; Limit caps the page size.
type ListFilter struct {
	Owner string
	State models.OrderState
	Kind  models.OrderKind
	Page  int
	Limit int
}

// OrderRepository is the store of record for orders. Every state transition
// is guarded by a compare-and-set on the current state, and transitions with
// ledger side effects (assignment, completion, cancellation, technical
// creation) apply the order change and the writer's capacity change as one
// atomic unit: both land or neither does.
type OrderRepository interface {
	Create(ctx context.Context, o *models.Order) error

	// CreateWithDebit inserts a technical order and debits its writer's
	// ledger in the same transaction. If the writer has no slot for the
	// deadline, nothing is persisted.
	CreateWithDebit(ctx context.Context, o *models.Order) (*models.Writer, error)

	GetByID(ctx context.Context, id string) (*models.Order, error)
	List(ctx context.Context, filter ListFilter) ([]models.Order, int64, error)

	// UpdateEditable replaces the owner-editable fields (subject,
	// instructions, deadline, attachments, kind-specific fields) guarded
	// on the order not being terminal.
	UpdateEditable(ctx context.Context, o *models.Order) error

	// Assign moves an unassigned or pending order to assigned, debiting
	// one slot from the target writer.
	Assign(ctx context.Context, orderID, writerID, reason string) (*models.Order, *models.Writer, error)

	// AppendResponses appends delivered-work records while the order is
	// assigned or pending.
	AppendResponses(ctx context.Context, orderID string, responses []models.OrderResponse) (*models.Order, error)

	// Complete moves an assigned or pending order to completed, stamping
	// completedAt and crediting one slot back to the writer.
	Complete(ctx context.Context, orderID, reason string, at time.Time) (*models.Order, *models.Writer, error)

	// Cancel moves any non-terminal order to cancelled. Orders holding a
	// debited slot credit it back; technical cancellations additionally
	// clear the writer's nextAvailable unconditionally.
	Cancel(ctx context.Context, orderID, reason string) (*models.Order, *models.Writer, error)

	// MarkExpired applies the lazy-expiry transition. Re-marking an
	// already terminal order is a no-op; no capacity is restored.
	MarkExpired(ctx context.Context, orderID string) (*models.Order, error)
}
