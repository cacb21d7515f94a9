package writerRepo

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"easypro/models"
	"easypro/utils"
)

// MemoryWriterRepo is an in-memory WriterRepository used by tests. The mutex
// serializes ledger operations the way the database's per-document atomic
// updates do.
type MemoryWriterRepo struct {
	mu      sync.Mutex
	writers map[string]*models.Writer
}

func NewMemoryWriterRepo() *MemoryWriterRepo {
	return &MemoryWriterRepo{writers: make(map[string]*models.Writer)}
}

func copyWriter(w *models.Writer) *models.Writer {
	cp := *w
	if w.NextAvailable != nil {
		t := *w.NextAvailable
		cp.NextAvailable = &t
	}
	cp.Skills = append([]models.Skill(nil), w.Skills...)
	cp.FamiliarWith = append([]string(nil), w.FamiliarWith...)
	cp.Education = append([]models.Education(nil), w.Education...)
	return &cp
}

func (r *MemoryWriterRepo) Create(ctx context.Context, w *models.Writer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.writers[w.ID] = copyWriter(w)
	return nil
}

func (r *MemoryWriterRepo) GetByID(ctx context.Context, id string) (*models.Writer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.getLocked(id)
}

func (r *MemoryWriterRepo) getLocked(id string) (*models.Writer, error) {
	w, ok := r.writers[id]
	if !ok {
		return nil, utils.NewNotFoundError(fmt.Sprintf("writer %s not found", id))
	}
	return copyWriter(w), nil
}

func (r *MemoryWriterRepo) FindByEmailOrName(ctx context.Context, email, fullName string) (*models.Writer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, w := range r.writers {
		if w.Email == email || w.FullName == fullName {
			return copyWriter(w), nil
		}
	}
	return nil, nil
}

func (r *MemoryWriterRepo) Search(ctx context.Context, criteria SearchCriteria) ([]models.Writer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.Writer
	for _, w := range r.writers {
		if criteria.Subject != "" && !matchesSubject(w, criteria.Subject) {
			continue
		}
		if criteria.Deadline != nil && !w.EligibleFor(*criteria.Deadline) {
			continue
		}
		out = append(out, *copyWriter(w))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Rating.Average != out[j].Rating.Average {
			return out[i].Rating.Average > out[j].Rating.Average
		}
		return out[i].SlotsLeft > out[j].SlotsLeft
	})
	return out, nil
}

func matchesSubject(w *models.Writer, subject string) bool {
	subject = strings.ToLower(subject)
	for _, s := range w.Skills {
		if strings.Contains(strings.ToLower(s.Skill), subject) {
			return true
		}
	}
	for _, f := range w.FamiliarWith {
		if strings.Contains(strings.ToLower(f), subject) {
			return true
		}
	}
	return false
}

func (r *MemoryWriterRepo) UpdateProfile(ctx context.Context, w *models.Writer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.writers[w.ID]
	if !ok {
		return utils.NewNotFoundError(fmt.Sprintf("writer %s not found", w.ID))
	}
	existing.FullName = w.FullName
	existing.Email = w.Email
	existing.ProfileImage = w.ProfileImage
	existing.Skills = append([]models.Skill(nil), w.Skills...)
	existing.FamiliarWith = append([]string(nil), w.FamiliarWith...)
	existing.Education = append([]models.Education(nil), w.Education...)
	existing.Bio = w.Bio
	existing.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *MemoryWriterRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.writers[id]; !ok {
		return utils.NewNotFoundError(fmt.Sprintf("writer %s not found", id))
	}
	delete(r.writers, id)
	return nil
}

func (r *MemoryWriterRepo) TryDebit(ctx context.Context, id string, deadline time.Time) (*models.Writer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tryDebitLocked(id, deadline)
}

func (r *MemoryWriterRepo) tryDebitLocked(id string, deadline time.Time) (*models.Writer, error) {
	w, ok := r.writers[id]
	if !ok {
		return nil, utils.NewNotFoundError(fmt.Sprintf("writer %s not found", id))
	}
	if !w.EligibleFor(deadline) {
		return nil, utils.NewCapacityExhaustedError("writer has no available slot for this deadline")
	}
	w.SlotsLeft--
	if w.SlotsLeft == 0 {
		d := deadline
		w.NextAvailable = &d
	}
	w.UpdatedAt = time.Now().UTC()
	return copyWriter(w), nil
}

func (r *MemoryWriterRepo) Credit(ctx context.Context, id string) (*models.Writer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.creditLocked(id, false)
}

func (r *MemoryWriterRepo) CreditAndClear(ctx context.Context, id string) (*models.Writer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.creditLocked(id, true)
}

func (r *MemoryWriterRepo) creditLocked(id string, clearAlways bool) (*models.Writer, error) {
	w, ok := r.writers[id]
	if !ok {
		return nil, utils.NewNotFoundError(fmt.Sprintf("writer %s not found", id))
	}
	if w.SlotsLeft < w.MaxSlots {
		w.SlotsLeft++
	}
	if clearAlways || w.SlotsLeft == w.MaxSlots {
		w.NextAvailable = nil
	}
	w.UpdatedAt = time.Now().UTC()
	return copyWriter(w), nil
}

func (r *MemoryWriterRepo) ApplyReview(ctx context.Context, id string, reviewMean float64) (*models.Writer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.writers[id]
	if !ok {
		return nil, utils.NewNotFoundError(fmt.Sprintf("writer %s not found", id))
	}
	oldAvg := w.Rating.Average
	oldCount := float64(w.Rating.Count)
	w.Rating.Average = (oldAvg*oldCount + reviewMean) / (oldCount + 1)
	w.Rating.Count++
	w.UpdatedAt = time.Now().UTC()
	return copyWriter(w), nil
}
