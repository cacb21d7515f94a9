package writer

import (
	"context"
	"strings"
	"time"

	"easypro/database/repository/review"
	"easypro/database/repository/writer"
	"easypro/models"
	"easypro/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// WriterService manages writer profiles and availability lookups. Capacity
// ledger mutations never flow through here; they belong to the order
// lifecycle.
type WriterService interface {
	Create(ctx context.Context, w *models.Writer) (*models.Writer, error)
	GetByID(ctx context.Context, id string) (*models.Writer, error)
	GetWithReviews(ctx context.Context, id string) (*models.Writer, []models.Review, error)
	Available(ctx context.Context, subject string, deadline *time.Time) ([]models.Writer, error)
	Update(ctx context.Context, w *models.Writer) (*models.Writer, error)
	Delete(ctx context.Context, id string) error
}

type DefaultWriterService struct {
	Repo       writerRepo.WriterRepository
	ReviewRepo reviewRepo.ReviewRepository
}

func NewWriterService(repo writerRepo.WriterRepository, reviews reviewRepo.ReviewRepository) WriterService {
	return &DefaultWriterService{Repo: repo, ReviewRepo: reviews}
}

// Create registers a new writer with a full ledger. Email and full name must
// both be unique.
func (s *DefaultWriterService) Create(ctx context.Context, w *models.Writer) (*models.Writer, error) {
	if err := validateProfile(w); err != nil {
		return nil, err
	}
	existing, err := s.Repo.FindByEmailOrName(ctx, w.Email, w.FullName)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, utils.NewValidationError("a writer with this email or name already exists")
	}

	now := time.Now()
	w.ID = uuid.New().String()
	if w.MaxSlots <= 0 {
		w.MaxSlots = models.DefaultMaxSlots
	}
	w.SlotsLeft = w.MaxSlots
	w.NextAvailable = nil
	w.Rating = models.Rating{}
	w.CreatedAt = now
	w.UpdatedAt = now

	if err := s.Repo.Create(ctx, w); err != nil {
		return nil, err
	}
	utils.GetLogger().Info("writer registered",
		zap.String("writerId", w.ID),
		zap.Int("maxSlots", w.MaxSlots))
	return w, nil
}

func (s *DefaultWriterService) GetByID(ctx context.Context, id string) (*models.Writer, error) {
	return s.Repo.GetByID(ctx, id)
}

// GetWithReviews returns the writer together with every review left for them,
// newest first.
func (s *DefaultWriterService) GetWithReviews(ctx context.Context, id string) (*models.Writer, []models.Review, error) {
	w, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	reviews, err := s.ReviewRepo.ListByWriter(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return w, reviews, nil
}

// Available finds writers matching the subject who can take on new work. With
// a deadline the ledger is consulted; without one the match is purely on
// expertise.
func (s *DefaultWriterService) Available(ctx context.Context, subject string, deadline *time.Time) ([]models.Writer, error) {
	if deadline != nil && !deadline.After(time.Now()) {
		return nil, utils.NewValidationError("deadline must be in the future")
	}
	return s.Repo.Search(ctx, writerRepo.SearchCriteria{Subject: subject, Deadline: deadline})
}

// Update replaces the writer's profile fields. Ledger and rating fields in
// the input are ignored.
func (s *DefaultWriterService) Update(ctx context.Context, w *models.Writer) (*models.Writer, error) {
	existing, err := s.Repo.GetByID(ctx, w.ID)
	if err != nil {
		return nil, err
	}
	if w.FullName != "" {
		existing.FullName = w.FullName
	}
	if w.Email != "" {
		existing.Email = w.Email
	}
	if w.ProfileImage != "" {
		existing.ProfileImage = w.ProfileImage
	}
	if w.Skills != nil {
		existing.Skills = w.Skills
	}
	if w.FamiliarWith != nil {
		existing.FamiliarWith = w.FamiliarWith
	}
	if w.Education != nil {
		existing.Education = w.Education
	}
	if w.Bio != "" {
		existing.Bio = w.Bio
	}
	if err := validateProfile(existing); err != nil {
		return nil, err
	}
	existing.UpdatedAt = time.Now()
	if err := s.Repo.UpdateProfile(ctx, existing); err != nil {
		return nil, err
	}
	return existing, nil
}

func (s *DefaultWriterService) Delete(ctx context.Context, id string) error {
	return s.Repo.Delete(ctx, id)
}

func validateProfile(w *models.Writer) error {
	if strings.TrimSpace(w.FullName) == "" {
		return utils.NewValidationError("full name is required")
	}
	if strings.TrimSpace(w.Email) == "" || !strings.Contains(w.Email, "@") {
		return utils.NewValidationError("a valid email is required")
	}
	if len(w.Skills) == 0 {
		return utils.NewValidationError("at least one skill is required")
	}
	for _, sk := range w.Skills {
		if strings.TrimSpace(sk.Skill) == "" {
			return utils.NewValidationError("skill names cannot be empty")
		}
		if sk.Experience < 0 {
			return utils.NewValidationError("skill experience cannot be negative")
		}
	}
	return nil
}
