package models

import (
	"testing"
	"time"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to OrderState
		want     bool
	}{
		{StateUnassigned, StateAssigned, true},
		{StateUnassigned, StateCancelled, true},
		{StateUnassigned, StateExpired, true},
		{StateUnassigned, StateCompleted, false},
		{StatePending, StateAssigned, true},
		{StatePending, StateCompleted, true},
		{StatePending, StateCancelled, true},
		{StatePending, StateExpired, true},
		{StateAssigned, StateCompleted, true},
		{StateAssigned, StateCancelled, true},
		{StateAssigned, StateExpired, true},
		{StateAssigned, StateUnassigned, false},
		{StateCompleted, StateCancelled, false},
		{StateCancelled, StateAssigned, false},
		{StateExpired, StateExpired, false},
	}
	for _, c := range cases {
		if got := CanTransition(c.from, c.to); got != c.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", c.from, c.to, got, c.want)
		}
	}
}

func TestIsTerminal(t *testing.T) {
	terminal := []OrderState{StateCompleted, StateCancelled, StateExpired}
	for _, s := range terminal {
		if !s.IsTerminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
	live := []OrderState{StateUnassigned, StatePending, StateAssigned}
	for _, s := range live {
		if s.IsTerminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
}

func TestSweepExpiry(t *testing.T) {
	now := time.Now()

	status := OrderStatus{State: StateAssigned, Reason: "assigned"}
	swept, expired := SweepExpiry(now, now.Add(-time.Hour), status)
	if !expired {
		t.Fatal("expected order past its deadline to expire")
	}
	if swept.State != StateExpired || swept.Reason != ExpiredReason {
		t.Errorf("got status %+v after sweep", swept)
	}

	// Before the deadline nothing changes.
	swept, expired = SweepExpiry(now, now.Add(time.Hour), status)
	if expired || swept != status {
		t.Errorf("order before deadline should be untouched, got %+v", swept)
	}

	// The deadline instant itself has not passed yet.
	if _, expired := SweepExpiry(now, now, status); expired {
		t.Error("order exactly at its deadline should not expire")
	}
}

func TestSweepExpiryTerminalIdempotent(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)

	for _, s := range []OrderState{StateCompleted, StateCancelled, StateExpired} {
		status := OrderStatus{State: s, Reason: "done"}
		swept, expired := SweepExpiry(now, past, status)
		if expired {
			t.Errorf("terminal state %s should never re-expire", s)
		}
		if swept != status {
			t.Errorf("terminal state %s mutated by sweep: %+v", s, swept)
		}
	}
}

func TestReviewMean(t *testing.T) {
	r := Review{InstructionAdherence: 5, Grammar: 4, ResponseSpeed: 5, Formatting: 5}
	if got := r.Mean(); got != 4.75 {
		t.Errorf("Mean() = %v, want 4.75", got)
	}

	r.Other = []CustomRating{{Name: "citations", Rating: 3}, {Name: "depth", Rating: 5}}
	want := float64(5+4+5+5+3+5) / 6
	if got := r.Mean(); got != want {
		t.Errorf("Mean() with custom ratings = %v, want %v", got, want)
	}
}

func TestWriterEligibleFor(t *testing.T) {
	deadline := time.Now().Add(72 * time.Hour)

	w := Writer{MaxSlots: 5, SlotsLeft: 2}
	if !w.EligibleFor(deadline) {
		t.Error("writer with free slots and no nextAvailable should be eligible")
	}

	w.SlotsLeft = 0
	if w.EligibleFor(deadline) {
		t.Error("writer with no slots should not be eligible")
	}

	w.SlotsLeft = 1
	later := deadline.Add(time.Hour)
	w.NextAvailable = &later
	if w.EligibleFor(deadline) {
		t.Error("writer busy past the deadline should not be eligible")
	}

	earlier := deadline.Add(-time.Hour)
	w.NextAvailable = &earlier
	if !w.EligibleFor(deadline) {
		t.Error("writer free before the deadline should be eligible")
	}
}

func TestWriterMatchesSubject(t *testing.T) {
	w := Writer{
		Skills:       []Skill{{Skill: "Organic Chemistry", Experience: 4}},
		FamiliarWith: []string{"Biology"},
	}
	if !w.MatchesSubject("chemistry") {
		t.Error("case-insensitive skill match failed")
	}
	if !w.MatchesSubject("BIOLOGY") {
		t.Error("case-insensitive familiarity match failed")
	}
	if w.MatchesSubject("economics") {
		t.Error("unrelated subject should not match")
	}
	if !w.MatchesSubject("") {
		t.Error("empty subject matches everyone")
	}
}
