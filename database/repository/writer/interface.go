package writerRepo

import (
	"context"
	"time"

	"easypro/models"
)

// SearchCriteria narrows a writer listing. Subject matches case-insensitively
// against skill names and familiarity entries. When Deadline is set the
// capacity ledger is consulted: only writers with a free slot whose
// nextAvailable permits the deadline are returned.
type SearchCriteria struct {
	Subject  string
	Deadline *time.Time
}

// WriterRepository is the store of record for writer profiles and their
// capacity ledgers. TryDebit, Credit, CreditAndClear and ApplyReview are
// atomic read-modify-write operations against a single writer document;
// concurrent callers against the same writer serialize on the store.
type WriterRepository interface {
	Create(ctx context.Context, w *models.Writer) error
	GetByID(ctx context.Context, id string) (*models.Writer, error)
	FindByEmailOrName(ctx context.Context, email, fullName string) (*models.Writer, error)
	Search(ctx context.Context, criteria SearchCriteria) ([]models.Writer, error)
	UpdateProfile(ctx context.Context, w *models.Writer) error
	Delete(ctx context.Context, id string) error

	// TryDebit reserves one slot for an order with the given deadline. It
	// succeeds only while slotsLeft > 0 and nextAvailable is unset or not
	// after the deadline. When the reservation empties the ledger the
	// writer's nextAvailable is stamped with this deadline. The stamp is
	// last-write-wins: a later exhausting debit overwrites it even if an
	// earlier outstanding deadline exists (known limitation, kept
	// deliberately). Returns the updated writer, or a capacity error.
	TryDebit(ctx context.Context, id string, deadline time.Time) (*models.Writer, error)

	// Credit releases one slot, clamped at maxSlots; when the clamp is hit
	// nextAvailable is cleared.
	Credit(ctx context.Context, id string) (*models.Writer, error)

	// CreditAndClear releases one slot (clamped) and clears nextAvailable
	// unconditionally. Used for technical-order cancellation.
	CreditAndClear(ctx context.Context, id string) (*models.Writer, error)

	// ApplyReview folds one review mean into the running rating average:
	// newAvg = (oldAvg*oldCount + mean) / (oldCount+1), count += 1.
	ApplyReview(ctx context.Context, id string, reviewMean float64) (*models.Writer, error)
}
