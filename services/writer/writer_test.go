package writer

import (
	"context"
	"testing"
	"time"

	"easypro/database/repository/review"
	"easypro/database/repository/writer"
	"easypro/models"
	"easypro/utils"
)

func newService() (WriterService, *writerRepo.MemoryWriterRepo) {
	writers := writerRepo.NewMemoryWriterRepo()
	return NewWriterService(writers, reviewRepo.NewMemoryReviewRepo()), writers
}

func profile(name, email string, skills ...string) *models.Writer {
	w := &models.Writer{FullName: name, Email: email}
	for _, s := range skills {
		w.Skills = append(w.Skills, models.Skill{Skill: s, Experience: 2})
	}
	return w
}

func TestCreateWriterDefaults(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	w, err := svc.Create(ctx, profile("Ada Smith", "ada@example.com", "Mathematics"))
	if err != nil {
		t.Fatal(err)
	}
	if w.ID == "" {
		t.Error("created writer has no id")
	}
	if w.MaxSlots != models.DefaultMaxSlots || w.SlotsLeft != models.DefaultMaxSlots {
		t.Errorf("ledger not initialized: maxSlots=%d slotsLeft=%d", w.MaxSlots, w.SlotsLeft)
	}
	if w.NextAvailable != nil || w.Rating.Count != 0 {
		t.Errorf("fresh writer carries stale state: %+v", w)
	}
}

func TestCreateWriterRejectsDuplicates(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	if _, err := svc.Create(ctx, profile("Ada Smith", "ada@example.com", "Mathematics")); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Create(ctx, profile("Ada Smith", "other@example.com", "History")); !utils.HasCode(err, utils.CodeValidation) {
		t.Errorf("duplicate name should be rejected, got %v", err)
	}
	if _, err := svc.Create(ctx, profile("Someone Else", "ada@example.com", "History")); !utils.HasCode(err, utils.CodeValidation) {
		t.Errorf("duplicate email should be rejected, got %v", err)
	}
}

func TestCreateWriterValidation(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	cases := []*models.Writer{
		profile("", "x@example.com", "History"),
		profile("No Email", "", "History"),
		profile("Bad Email", "not-an-email", "History"),
		profile("No Skills", "ns@example.com"),
		{FullName: "Blank Skill", Email: "bs@example.com", Skills: []models.Skill{{Skill: " "}}},
	}
	for i, w := range cases {
		if _, err := svc.Create(ctx, w); !utils.HasCode(err, utils.CodeValidation) {
			t.Errorf("case %d: expected validation error, got %v", i, err)
		}
	}
}

func TestAvailableMatchesSubjectAndDeadline(t *testing.T) {
	svc, writers := newService()
	ctx := context.Background()

	chem, err := svc.Create(ctx, profile("Chem Writer", "chem@example.com", "Organic Chemistry"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Create(ctx, profile("Lit Writer", "lit@example.com", "Literature")); err != nil {
		t.Fatal(err)
	}

	got, err := svc.Available(ctx, "CHEMISTRY", nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID != chem.ID {
		t.Fatalf("subject match failed: %v", got)
	}

	// Drain the chemistry writer; a deadline-scoped query now skips them.
	deadline := time.Now().Add(72 * time.Hour)
	for i := 0; i < models.DefaultMaxSlots; i++ {
		if _, err := writers.TryDebit(ctx, chem.ID, deadline); err != nil {
			t.Fatal(err)
		}
	}
	got, err = svc.Available(ctx, "chemistry", &deadline)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("drained writer should not be available, got %v", got)
	}

	// Without a deadline the ledger is not consulted.
	got, err = svc.Available(ctx, "chemistry", nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Errorf("subject-only query should ignore the ledger, got %v", got)
	}
}

func TestAvailableRejectsPastDeadline(t *testing.T) {
	svc, _ := newService()
	past := time.Now().Add(-time.Hour)
	if _, err := svc.Available(context.Background(), "history", &past); !utils.HasCode(err, utils.CodeValidation) {
		t.Errorf("expected validation error for past deadline, got %v", err)
	}
}

func TestUpdatePreservesLedger(t *testing.T) {
	svc, writers := newService()
	ctx := context.Background()

	w, err := svc.Create(ctx, profile("Ada Smith", "ada@example.com", "Mathematics"))
	if err != nil {
		t.Fatal(err)
	}
	deadline := time.Now().Add(48 * time.Hour)
	if _, err := writers.TryDebit(ctx, w.ID, deadline); err != nil {
		t.Fatal(err)
	}

	updated, err := svc.Update(ctx, &models.Writer{ID: w.ID, Bio: "Number theorist."})
	if err != nil {
		t.Fatal(err)
	}
	if updated.Bio != "Number theorist." {
		t.Errorf("bio not updated: %q", updated.Bio)
	}

	stored, _ := writers.GetByID(ctx, w.ID)
	if stored.SlotsLeft != models.DefaultMaxSlots-1 {
		t.Errorf("profile update disturbed the ledger, slotsLeft = %d", stored.SlotsLeft)
	}
}
