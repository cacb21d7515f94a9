package models

import "time"

// OrderKind determines which optional fields an order requires. Immutable
// after creation.
type OrderKind string

const (
	KindWriting   OrderKind = "writing"
	KindEditing   OrderKind = "editing"
	KindTechnical OrderKind = "technical"
)

func (k OrderKind) Valid() bool {
	switch k {
	case KindWriting, KindEditing, KindTechnical:
		return true
	}
	return false
}

// OrderState is the lifecycle state of an order.
type OrderState string

const (
	StateUnassigned OrderState = "unassigned"
	StatePending    OrderState = "pending"
	StateAssigned   OrderState = "assigned"
	StateCompleted  OrderState = "completed"
	StateCancelled  OrderState = "cancelled"
	StateExpired    OrderState = "expired"
)

// transitions is the legal-from/legal-to matrix. Expiry is reachable from
// every non-terminal state; terminal states have no outgoing edges.
var transitions = map[OrderState][]OrderState{
	StateUnassigned: {StateAssigned, StateCancelled, StateExpired},
	StatePending:    {StateAssigned, StateCompleted, StateCancelled, StateExpired},
	StateAssigned:   {StateCompleted, StateCancelled, StateExpired},
	StateCompleted:  {},
	StateCancelled:  {},
	StateExpired:    {},
}

// CanTransition reports whether moving from one state to another is legal.
func CanTransition(from, to OrderState) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the state permits no further transitions.
func (s OrderState) IsTerminal() bool {
	return len(transitions[s]) == 0
}

// OrderStatus carries the state together with an audit reason and, for
// completed orders, the completion instant.
type OrderStatus struct {
	State       OrderState `bson:"state" json:"state"`
	Reason      string     `bson:"reason" json:"reason"`
	CompletedAt *time.Time `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
}

// OrderResponse is one delivered-work artifact attached to an order.
type OrderResponse struct {
	Title     string    `bson:"title" json:"title"`
	URL       string    `bson:"url" json:"url"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

type Order struct {
	ID      string    `bson:"id" json:"id"`
	Kind    OrderKind `bson:"kind" json:"kind"`
	Subject string    `bson:"subject" json:"subject"`

	// Kind-specific fields. PaperType and SlideCount apply to writing
	// orders, PageCount to writing and editing, ToolName to technical.
	PaperType  string `bson:"paperType,omitempty" json:"paperType,omitempty"`
	PageCount  int    `bson:"pageCount,omitempty" json:"pageCount,omitempty"`
	SlideCount int    `bson:"slideCount,omitempty" json:"slideCount,omitempty"`
	ToolName   string `bson:"toolName,omitempty" json:"toolName,omitempty"`

	Instructions string          `bson:"instructions,omitempty" json:"instructions,omitempty"`
	Deadline     time.Time       `bson:"deadline" json:"deadline"`
	Attachments  []string        `bson:"attachments" json:"attachments"`
	Responses    []OrderResponse `bson:"responses" json:"responses"`
	Status       OrderStatus     `bson:"status" json:"status"`

	// Owner is always set; AssignedWriter is non-empty whenever the state
	// is assigned, pending, or completed.
	Owner          string `bson:"owner" json:"owner"`
	AssignedWriter string `bson:"assignedWriter,omitempty" json:"assignedWriter,omitempty"`

	Review *Review `bson:"-" json:"review,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// ExpiredReason is the audit reason stamped by the expiry sweep.
const ExpiredReason = "deadline passed"

// SweepExpiry computes the lazy-expiry transition as a pure function of the
// clock, the deadline, and the current state. It returns the expired status
// and true when the order should move to expired, and the unchanged status
// and false otherwise. Terminal states are never re-expired, which keeps the
// sweep idempotent.
func SweepExpiry(now, deadline time.Time, status OrderStatus) (OrderStatus, bool) {
	if status.State.IsTerminal() {
		return status, false
	}
	if !now.After(deadline) {
		return status, false
	}
	return OrderStatus{State: StateExpired, Reason: ExpiredReason}, true
}
