package order

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"easypro/database/repository/order"
	"easypro/database/repository/review"
	"easypro/database/repository/writer"
	"easypro/models"
	"easypro/utils"
)

// fakeStorage records uploads without touching any backend.
type fakeStorage struct {
	mu       sync.Mutex
	uploaded []string
}

func (f *fakeStorage) UploadFile(ctx context.Context, localFilePath, destFolder string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploaded = append(f.uploaded, localFilePath)
	return "https://files.test/" + destFolder + "/" + localFilePath, nil
}

func (f *fakeStorage) UploadFiles(ctx context.Context, localFilePaths []string, destFolder string) ([]string, error) {
	urls := make([]string, 0, len(localFilePaths))
	for _, p := range localFilePaths {
		u, err := f.UploadFile(ctx, p, destFolder)
		if err != nil {
			return nil, err
		}
		urls = append(urls, u)
	}
	return urls, nil
}

func (f *fakeStorage) DeleteFile(ctx context.Context, handle string) error { return nil }

type fixture struct {
	svc     OrderService
	orders  *orderRepo.MemoryOrderRepo
	writers *writerRepo.MemoryWriterRepo
	reviews *reviewRepo.MemoryReviewRepo
}

func newFixture() *fixture {
	writers := writerRepo.NewMemoryWriterRepo()
	orders := orderRepo.NewMemoryOrderRepo(writers)
	reviews := reviewRepo.NewMemoryReviewRepo()
	return &fixture{
		svc:     NewOrderService(orders, reviews, &fakeStorage{}),
		orders:  orders,
		writers: writers,
		reviews: reviews,
	}
}

func (f *fixture) addWriter(t *testing.T, id string, slots int) {
	t.Helper()
	err := f.writers.Create(context.Background(), &models.Writer{
		ID:        id,
		FullName:  "Writer " + id,
		Email:     id + "@example.com",
		Skills:    []models.Skill{{Skill: "History", Experience: 3}},
		MaxSlots:  slots,
		SlotsLeft: slots,
	})
	if err != nil {
		t.Fatal(err)
	}
}

func writingOrder(owner string) *models.Order {
	return &models.Order{
		Kind:      models.KindWriting,
		Subject:   "History",
		PaperType: "essay",
		PageCount: 4,
		Deadline:  time.Now().Add(72 * time.Hour),
		Owner:     owner,
	}
}

func TestCreateWritingOrder(t *testing.T) {
	f := newFixture()
	o, err := f.svc.Create(context.Background(), writingOrder("u1"))
	if err != nil {
		t.Fatal(err)
	}
	if o.ID == "" {
		t.Error("created order has no id")
	}
	if o.Status.State != models.StateUnassigned {
		t.Errorf("state = %s, want unassigned", o.Status.State)
	}
	if o.AssignedWriter != "" {
		t.Error("writing orders must not start with a writer")
	}
}

func TestCreateValidation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	cases := []struct {
		name   string
		mutate func(o *models.Order)
	}{
		{"unknown kind", func(o *models.Order) { o.Kind = "translation" }},
		{"empty subject", func(o *models.Order) { o.Subject = "  " }},
		{"past deadline", func(o *models.Order) { o.Deadline = time.Now().Add(-time.Hour) }},
		{"zero deadline", func(o *models.Order) { o.Deadline = time.Time{} }},
		{"writing without paper type", func(o *models.Order) { o.PaperType = "" }},
		{"writing without pages", func(o *models.Order) { o.PageCount = 0 }},
		{"negative slides", func(o *models.Order) { o.SlideCount = -1 }},
	}
	for _, c := range cases {
		o := writingOrder("u1")
		c.mutate(o)
		if _, err := f.svc.Create(ctx, o); !utils.HasCode(err, utils.CodeValidation) {
			t.Errorf("%s: expected validation error, got %v", c.name, err)
		}
	}

	editing := &models.Order{
		Kind:      models.KindEditing,
		Subject:   "History",
		PageCount: 3,
		Deadline:  time.Now().Add(48 * time.Hour),
		Owner:     "u1",
	}
	if _, err := f.svc.Create(ctx, editing); !utils.HasCode(err, utils.CodeValidation) {
		t.Errorf("editing order without attachments should be rejected, got %v", err)
	}
	editing.Attachments = []string{"https://files.test/draft.docx"}
	if _, err := f.svc.Create(ctx, editing); err != nil {
		t.Errorf("valid editing order rejected: %v", err)
	}
}

func TestCreateTechnicalOrderDebitsWriter(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.addWriter(t, "w1", 2)

	o := &models.Order{
		Kind:           models.KindTechnical,
		Subject:        "Statistics",
		ToolName:       "SPSS",
		Deadline:       time.Now().Add(96 * time.Hour),
		Owner:          "u1",
		AssignedWriter: "w1",
	}
	created, err := f.svc.Create(ctx, o)
	if err != nil {
		t.Fatal(err)
	}
	if created.Status.State != models.StatePending {
		t.Errorf("state = %s, want pending", created.Status.State)
	}

	w, _ := f.writers.GetByID(ctx, "w1")
	if w.SlotsLeft != 1 {
		t.Errorf("slotsLeft = %d, want 1 after technical creation", w.SlotsLeft)
	}
}

func TestCreateTechnicalOrderRequiresWriterAndCapacity(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	o := &models.Order{
		Kind:     models.KindTechnical,
		Subject:  "Statistics",
		Deadline: time.Now().Add(96 * time.Hour),
		Owner:    "u1",
	}
	if _, err := f.svc.Create(ctx, o); !utils.HasCode(err, utils.CodeValidation) {
		t.Errorf("technical order without writer should be rejected, got %v", err)
	}

	f.addWriter(t, "w1", 1)
	o.AssignedWriter = "w1"
	if _, err := f.svc.Create(ctx, o); err != nil {
		t.Fatal(err)
	}

	// Writer drained: a second technical order fails and nothing persists.
	second := &models.Order{
		Kind:           models.KindTechnical,
		Subject:        "Statistics",
		Deadline:       time.Now().Add(96 * time.Hour),
		Owner:          "u1",
		AssignedWriter: "w1",
	}
	if _, err := f.svc.Create(ctx, second); !utils.HasCode(err, utils.CodeCapacityExhausted) {
		t.Errorf("expected capacity_exhausted, got %v", err)
	}
	if _, _, err := f.svc.List(ctx, orderRepo.ListFilter{}, "admin", models.RoleAdmin); err != nil {
		t.Fatal(err)
	}
	_, total, _ := f.orders.List(ctx, orderRepo.ListFilter{})
	if total != 1 {
		t.Errorf("failed creation leaked an order, total = %d", total)
	}
}

func TestAssignLifecycle(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.addWriter(t, "w1", 5)

	created, err := f.svc.Create(ctx, writingOrder("u1"))
	if err != nil {
		t.Fatal(err)
	}

	assigned, err := f.svc.Assign(ctx, created.ID, "w1")
	if err != nil {
		t.Fatal(err)
	}
	if assigned.Status.State != models.StateAssigned || assigned.AssignedWriter != "w1" {
		t.Errorf("got state=%s writer=%s", assigned.Status.State, assigned.AssignedWriter)
	}
	if !strings.Contains(assigned.Status.Reason, "w1") {
		t.Errorf("assignment reason should record the writer, got %q", assigned.Status.Reason)
	}

	w, _ := f.writers.GetByID(ctx, "w1")
	if w.SlotsLeft != 4 {
		t.Errorf("slotsLeft = %d, want 4", w.SlotsLeft)
	}

	// Re-assigning an assigned order is an illegal transition and must not
	// touch the ledger.
	if _, err := f.svc.Assign(ctx, created.ID, "w1"); !utils.HasCode(err, utils.CodeInvalidTransition) {
		t.Errorf("expected invalid_transition, got %v", err)
	}
	w, _ = f.writers.GetByID(ctx, "w1")
	if w.SlotsLeft != 4 {
		t.Errorf("failed assign changed the ledger, slotsLeft = %d", w.SlotsLeft)
	}
}

func TestAssignConcurrentFinalSlot(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.addWriter(t, "w1", 1)

	o1, err := f.svc.Create(ctx, writingOrder("u1"))
	if err != nil {
		t.Fatal(err)
	}
	o2, err := f.svc.Create(ctx, writingOrder("u2"))
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, id := range []string{o1.ID, o2.ID} {
		wg.Add(1)
		go func(i int, orderID string) {
			defer wg.Done()
			_, errs[i] = f.svc.Assign(ctx, orderID, "w1")
		}(i, id)
	}
	wg.Wait()

	var ok, exhausted int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case utils.HasCode(err, utils.CodeCapacityExhausted):
			exhausted++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if ok != 1 || exhausted != 1 {
		t.Fatalf("final slot went to %d orders (%d capacity failures), want exactly 1 and 1", ok, exhausted)
	}
}

func TestCompleteCreditsWriter(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.addWriter(t, "w1", 1)

	o, _ := f.svc.Create(ctx, writingOrder("u1"))
	if _, err := f.svc.Assign(ctx, o.ID, "w1"); err != nil {
		t.Fatal(err)
	}

	done, err := f.svc.Complete(ctx, o.ID)
	if err != nil {
		t.Fatal(err)
	}
	if done.Status.State != models.StateCompleted {
		t.Errorf("state = %s, want completed", done.Status.State)
	}
	if done.Status.CompletedAt == nil {
		t.Error("completedAt not stamped")
	}

	w, _ := f.writers.GetByID(ctx, "w1")
	if w.SlotsLeft != 1 || w.NextAvailable != nil {
		t.Errorf("completion should free the slot, got slotsLeft=%d nextAvailable=%v",
			w.SlotsLeft, w.NextAvailable)
	}

	// Completed is terminal.
	if _, err := f.svc.Complete(ctx, o.ID); !utils.HasCode(err, utils.CodeInvalidTransition) {
		t.Errorf("expected invalid_transition, got %v", err)
	}
}

func TestCompleteUnassignedFails(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	o, _ := f.svc.Create(ctx, writingOrder("u1"))
	if _, err := f.svc.Complete(ctx, o.ID); !utils.HasCode(err, utils.CodeInvalidTransition) {
		t.Errorf("completing an unassigned order should fail, got %v", err)
	}
}

func TestCancelRestoresSlot(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.addWriter(t, "w1", 1)

	o, _ := f.svc.Create(ctx, writingOrder("u1"))
	if _, err := f.svc.Assign(ctx, o.ID, "w1"); err != nil {
		t.Fatal(err)
	}

	cancelled, err := f.svc.Cancel(ctx, o.ID, "u1", models.RoleUser)
	if err != nil {
		t.Fatal(err)
	}
	if cancelled.Status.State != models.StateCancelled {
		t.Errorf("state = %s, want cancelled", cancelled.Status.State)
	}

	w, _ := f.writers.GetByID(ctx, "w1")
	if w.SlotsLeft != 1 {
		t.Errorf("cancellation should restore the slot, slotsLeft = %d", w.SlotsLeft)
	}
}

func TestCancelOwnershipAndAdminOverride(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	o, _ := f.svc.Create(ctx, writingOrder("u1"))
	if _, err := f.svc.Cancel(ctx, o.ID, "intruder", models.RoleUser); !utils.HasCode(err, utils.CodeOwnership) {
		t.Errorf("expected ownership_error, got %v", err)
	}
	if _, err := f.svc.Cancel(ctx, o.ID, "ops", models.RoleAdmin); err != nil {
		t.Errorf("admin cancel failed: %v", err)
	}
}

func TestCancelTechnicalClearsNextAvailable(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.addWriter(t, "w1", 1)

	o := &models.Order{
		Kind:           models.KindTechnical,
		Subject:        "Statistics",
		Deadline:       time.Now().Add(96 * time.Hour),
		Owner:          "u1",
		AssignedWriter: "w1",
	}
	created, err := f.svc.Create(ctx, o)
	if err != nil {
		t.Fatal(err)
	}

	w, _ := f.writers.GetByID(ctx, "w1")
	if w.NextAvailable == nil {
		t.Fatal("exhausting debit should stamp nextAvailable")
	}

	if _, err := f.svc.Cancel(ctx, created.ID, "u1", models.RoleUser); err != nil {
		t.Fatal(err)
	}
	w, _ = f.writers.GetByID(ctx, "w1")
	if w.SlotsLeft != 1 || w.NextAvailable != nil {
		t.Errorf("technical cancel should clear the ledger hold, got slotsLeft=%d nextAvailable=%v",
			w.SlotsLeft, w.NextAvailable)
	}
}

func TestTechnicalOrdersDrainLedgerInSequence(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.addWriter(t, "w1", 5)

	base := time.Now()
	var last time.Time
	for _, days := range []int{3, 5, 7, 9, 11} {
		last = base.Add(time.Duration(days) * 24 * time.Hour)
		o := &models.Order{
			Kind:           models.KindTechnical,
			Subject:        "Statistics",
			Deadline:       last,
			Owner:          "u1",
			AssignedWriter: "w1",
		}
		if _, err := f.svc.Create(ctx, o); err != nil {
			t.Fatalf("technical order with %d-day deadline failed: %v", days, err)
		}
	}

	w, _ := f.writers.GetByID(ctx, "w1")
	if w.SlotsLeft != 0 {
		t.Errorf("slotsLeft = %d, want 0", w.SlotsLeft)
	}
	if w.NextAvailable == nil || !w.NextAvailable.Equal(last) {
		t.Errorf("nextAvailable = %v, want the last deadline %v", w.NextAvailable, last)
	}
}

func TestAssignAfterExpiryFails(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.addWriter(t, "w1", 5)

	o, _ := f.svc.Create(ctx, writingOrder("u1"))
	stored, _ := f.orders.GetByID(ctx, o.ID)
	stored.Deadline = time.Now().Add(-time.Second)
	if err := f.orders.UpdateEditable(ctx, stored); err != nil {
		t.Fatal(err)
	}

	if _, err := f.svc.Assign(ctx, o.ID, "w1"); !utils.HasCode(err, utils.CodeInvalidTransition) {
		t.Fatalf("assigning an expired order should fail, got %v", err)
	}

	got, _ := f.orders.GetByID(ctx, o.ID)
	if got.Status.State != models.StateExpired {
		t.Errorf("state = %s, want expired", got.Status.State)
	}
	w, _ := f.writers.GetByID(ctx, "w1")
	if w.SlotsLeft != 5 {
		t.Errorf("failed assign touched the ledger, slotsLeft = %d", w.SlotsLeft)
	}
}

func TestCompletePartialCreditKeepsNextAvailable(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	busy := time.Now().Add(7 * 24 * time.Hour)
	err := f.writers.Create(ctx, &models.Writer{
		ID:            "w1",
		FullName:      "Writer w1",
		Email:         "w1@example.com",
		Skills:        []models.Skill{{Skill: "History", Experience: 3}},
		MaxSlots:      5,
		SlotsLeft:     2,
		NextAvailable: &busy,
	})
	if err != nil {
		t.Fatal(err)
	}

	o := writingOrder("u1")
	o.ID = "o1"
	o.AssignedWriter = "w1"
	o.Status = models.OrderStatus{State: models.StateAssigned, Reason: "assigned to writer w1"}
	if err := f.orders.Create(ctx, o); err != nil {
		t.Fatal(err)
	}

	done, err := f.svc.Complete(ctx, "o1")
	if err != nil {
		t.Fatal(err)
	}
	if done.Status.State != models.StateCompleted {
		t.Fatalf("state = %s, want completed", done.Status.State)
	}

	w, _ := f.writers.GetByID(ctx, "w1")
	if w.SlotsLeft != 3 {
		t.Errorf("slotsLeft = %d, want 3", w.SlotsLeft)
	}
	if w.NextAvailable == nil || !w.NextAvailable.Equal(busy) {
		t.Errorf("partial credit should keep nextAvailable=%v, got %v", busy, w.NextAvailable)
	}
}

func TestExpirySweepOnRead(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	o := writingOrder("u1")
	created, err := f.svc.Create(ctx, o)
	if err != nil {
		t.Fatal(err)
	}
	// Push the stored deadline into the past behind the service's back.
	stored, _ := f.orders.GetByID(ctx, created.ID)
	stored.Deadline = time.Now().Add(-time.Hour)
	if err := f.orders.UpdateEditable(ctx, stored); err != nil {
		t.Fatal(err)
	}

	got, err := f.svc.GetByID(ctx, created.ID, "u1", models.RoleUser)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status.State != models.StateExpired {
		t.Errorf("state = %s, want expired", got.Status.State)
	}
	if got.Status.Reason != models.ExpiredReason {
		t.Errorf("reason = %q, want %q", got.Status.Reason, models.ExpiredReason)
	}

	// A second read is a no-op, not a second transition.
	again, err := f.svc.GetByID(ctx, created.ID, "u1", models.RoleUser)
	if err != nil {
		t.Fatal(err)
	}
	if again.Status.State != models.StateExpired {
		t.Errorf("re-read changed state to %s", again.Status.State)
	}
}

func TestExpiryDoesNotRestoreCapacity(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.addWriter(t, "w1", 1)

	o, _ := f.svc.Create(ctx, writingOrder("u1"))
	if _, err := f.svc.Assign(ctx, o.ID, "w1"); err != nil {
		t.Fatal(err)
	}

	stored, _ := f.orders.GetByID(ctx, o.ID)
	stored.Deadline = time.Now().Add(-time.Minute)
	if err := f.orders.UpdateEditable(ctx, stored); err != nil {
		t.Fatal(err)
	}
	got, err := f.svc.GetByID(ctx, o.ID, "u1", models.RoleUser)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status.State != models.StateExpired {
		t.Fatalf("state = %s, want expired", got.Status.State)
	}

	w, _ := f.writers.GetByID(ctx, "w1")
	if w.SlotsLeft != 0 {
		t.Errorf("expiry must not credit the ledger, slotsLeft = %d", w.SlotsLeft)
	}
}

func TestListScopesToOwnerAndSweeps(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	a, _ := f.svc.Create(ctx, writingOrder("u1"))
	f.svc.Create(ctx, writingOrder("u2"))

	stored, _ := f.orders.GetByID(ctx, a.ID)
	stored.Deadline = time.Now().Add(-time.Hour)
	f.orders.UpdateEditable(ctx, stored)

	mine, total, err := f.svc.List(ctx, orderRepo.ListFilter{}, "u1", models.RoleUser)
	if err != nil {
		t.Fatal(err)
	}
	if total != 1 || len(mine) != 1 {
		t.Fatalf("owner scoping failed: total=%d len=%d", total, len(mine))
	}
	if mine[0].Status.State != models.StateExpired {
		t.Errorf("list read should sweep expiry, state = %s", mine[0].Status.State)
	}

	_, allTotal, err := f.svc.List(ctx, orderRepo.ListFilter{}, "ops", models.RoleAdmin)
	if err != nil {
		t.Fatal(err)
	}
	if allTotal != 2 {
		t.Errorf("admin should see all orders, total = %d", allTotal)
	}
}

func TestSubmitResponseValidation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.addWriter(t, "w1", 5)

	o, _ := f.svc.Create(ctx, writingOrder("u1"))
	f.svc.Assign(ctx, o.ID, "w1")

	if _, err := f.svc.SubmitResponse(ctx, o.ID, nil, nil); !utils.HasCode(err, utils.CodeValidation) {
		t.Errorf("empty response set should be rejected, got %v", err)
	}
	if _, err := f.svc.SubmitResponse(ctx, o.ID, []string{"draft", "final"}, []string{"a.pdf"}); !utils.HasCode(err, utils.CodeValidation) {
		t.Errorf("title/file count mismatch should be rejected, got %v", err)
	}

	got, err := f.svc.SubmitResponse(ctx, o.ID, []string{"draft", "final"}, []string{"a.pdf", "b.pdf"})
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Responses) != 2 {
		t.Fatalf("got %d responses, want 2", len(got.Responses))
	}
	if got.Responses[0].Title != "draft" || got.Responses[0].URL == "" {
		t.Errorf("response not recorded: %+v", got.Responses[0])
	}
}

func TestUpdateRules(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	o, _ := f.svc.Create(ctx, writingOrder("u1"))

	// Kind is immutable.
	edit := &models.Order{ID: o.ID, Kind: models.KindEditing}
	if _, err := f.svc.Update(ctx, edit, "u1"); !utils.HasCode(err, utils.CodeValidation) {
		t.Errorf("kind change should be rejected, got %v", err)
	}

	// Only the owner edits.
	edit = &models.Order{ID: o.ID, Subject: "Philosophy"}
	if _, err := f.svc.Update(ctx, edit, "intruder"); !utils.HasCode(err, utils.CodeOwnership) {
		t.Errorf("expected ownership_error, got %v", err)
	}

	updated, err := f.svc.Update(ctx, edit, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if updated.Subject != "Philosophy" {
		t.Errorf("subject = %q, want Philosophy", updated.Subject)
	}
	if updated.PaperType != "essay" || updated.PageCount != 4 {
		t.Errorf("untouched fields changed: %+v", updated)
	}

	// Terminal orders are frozen.
	if _, err := f.svc.Cancel(ctx, o.ID, "u1", models.RoleUser); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.Update(ctx, edit, "u1"); !utils.HasCode(err, utils.CodeInvalidTransition) {
		t.Errorf("editing a cancelled order should fail, got %v", err)
	}
}

func TestGetByIDEmbedsReview(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.addWriter(t, "w1", 5)

	o, _ := f.svc.Create(ctx, writingOrder("u1"))
	f.svc.Assign(ctx, o.ID, "w1")
	if _, err := f.svc.Complete(ctx, o.ID); err != nil {
		t.Fatal(err)
	}

	rev := &models.Review{
		ID:                   "r1",
		InstructionAdherence: 5,
		Grammar:              5,
		ResponseSpeed:        4,
		Formatting:           5,
		WriterID:             "w1",
		UserID:               "u1",
		OrderID:              o.ID,
		CreatedAt:            time.Now(),
	}
	if err := f.reviews.Create(ctx, rev); err != nil {
		t.Fatal(err)
	}

	got, err := f.svc.GetByID(ctx, o.ID, "u1", models.RoleUser)
	if err != nil {
		t.Fatal(err)
	}
	if got.Review == nil || got.Review.ID != "r1" {
		t.Errorf("completed order should embed its review, got %+v", got.Review)
	}
}
