package review

import (
	"context"
	"testing"
	"time"

	"easypro/database/repository/order"
	"easypro/database/repository/review"
	"easypro/database/repository/writer"
	"easypro/models"
	"easypro/utils"
)

type fixture struct {
	svc     ReviewService
	orders  *orderRepo.MemoryOrderRepo
	writers *writerRepo.MemoryWriterRepo
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	writers := writerRepo.NewMemoryWriterRepo()
	orders := orderRepo.NewMemoryOrderRepo(writers)
	reviews := reviewRepo.NewMemoryReviewRepo()

	err := writers.Create(ctx, &models.Writer{
		ID:        "w1",
		FullName:  "Writer One",
		Email:     "w1@example.com",
		Skills:    []models.Skill{{Skill: "History", Experience: 3}},
		Rating:    models.Rating{Average: 4.0, Count: 3},
		MaxSlots:  5,
		SlotsLeft: 5,
	})
	if err != nil {
		t.Fatal(err)
	}

	return &fixture{
		svc:     NewReviewService(reviews, orders, writers),
		orders:  orders,
		writers: writers,
	}
}

func (f *fixture) addOrder(t *testing.T, id string, state models.OrderState, writerID string) {
	t.Helper()
	completedAt := time.Now()
	o := &models.Order{
		ID:             id,
		Kind:           models.KindWriting,
		Subject:        "History",
		PaperType:      "essay",
		PageCount:      4,
		Deadline:       time.Now().Add(72 * time.Hour),
		Owner:          "u1",
		AssignedWriter: writerID,
		Status:         models.OrderStatus{State: state, Reason: "test"},
	}
	if state == models.StateCompleted {
		o.Status.CompletedAt = &completedAt
	}
	if err := f.orders.Create(context.Background(), o); err != nil {
		t.Fatal(err)
	}
}

func validReview(orderID string) *models.Review {
	return &models.Review{
		InstructionAdherence: 5,
		Grammar:              4,
		ResponseSpeed:        5,
		Formatting:           5,
		WriterID:             "w1",
		OrderID:              orderID,
	}
}

func TestCreateReviewUpdatesWriterRating(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addOrder(t, "o1", models.StateCompleted, "w1")

	created, err := f.svc.Create(ctx, validReview("o1"), "u1")
	if err != nil {
		t.Fatal(err)
	}
	if created.ID == "" || created.UserID != "u1" {
		t.Errorf("review not stamped: %+v", created)
	}

	// Mean 4.75 folded into (4.0, 3) gives 4.1875 over 4 reviews.
	w, _ := f.writers.GetByID(ctx, "w1")
	if w.Rating.Average != 4.1875 {
		t.Errorf("average = %v, want 4.1875", w.Rating.Average)
	}
	if w.Rating.Count != 4 {
		t.Errorf("count = %d, want 4", w.Rating.Count)
	}
}

func TestCreateReviewRejectsSecondReview(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addOrder(t, "o1", models.StateCompleted, "w1")

	if _, err := f.svc.Create(ctx, validReview("o1"), "u1"); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.Create(ctx, validReview("o1"), "u1"); !utils.HasCode(err, utils.CodeValidation) {
		t.Errorf("second review should be rejected, got %v", err)
	}

	// The failed attempt must not touch the rating again.
	w, _ := f.writers.GetByID(ctx, "w1")
	if w.Rating.Count != 4 {
		t.Errorf("count = %d after duplicate attempt, want 4", w.Rating.Count)
	}
}

func TestCreateReviewPreconditions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addOrder(t, "open", models.StateAssigned, "w1")
	f.addOrder(t, "done", models.StateCompleted, "w1")

	cases := []struct {
		name      string
		review    *models.Review
		requester string
		wantCode  string
	}{
		{"order not completed", validReview("open"), "u1", utils.CodeValidation},
		{"not the owner", validReview("done"), "someone-else", utils.CodeOwnership},
		{"wrong writer", func() *models.Review {
			r := validReview("done")
			r.WriterID = "w2"
			return r
		}(), "u1", utils.CodeValidation},
		{"missing order", validReview("nope"), "u1", utils.CodeNotFound},
	}
	for _, c := range cases {
		if _, err := f.svc.Create(ctx, c.review, c.requester); !utils.HasCode(err, c.wantCode) {
			t.Errorf("%s: expected %s, got %v", c.name, c.wantCode, err)
		}
	}
}

func TestCreateReviewRatingBounds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addOrder(t, "o1", models.StateCompleted, "w1")

	r := validReview("o1")
	r.Grammar = 0
	if _, err := f.svc.Create(ctx, r, "u1"); !utils.HasCode(err, utils.CodeValidation) {
		t.Errorf("rating below 1 should be rejected, got %v", err)
	}

	r = validReview("o1")
	r.Other = []models.CustomRating{{Name: "depth", Rating: 6}}
	if _, err := f.svc.Create(ctx, r, "u1"); !utils.HasCode(err, utils.CodeValidation) {
		t.Errorf("custom rating above 5 should be rejected, got %v", err)
	}

	r = validReview("o1")
	r.Other = []models.CustomRating{{Rating: 4}}
	if _, err := f.svc.Create(ctx, r, "u1"); !utils.HasCode(err, utils.CodeValidation) {
		t.Errorf("unnamed custom rating should be rejected, got %v", err)
	}
}
