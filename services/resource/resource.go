package resource

import (
	"context"
	"strings"
	"time"

	"easypro/database/repository/resource"
	"easypro/models"
	"easypro/services/storage"
	"easypro/utils"

	"github.com/google/uuid"
)

// ResourceService manages the writer-published resource catalog. Uploaded
// files land in object storage; the catalog holds their URLs.
type ResourceService interface {
	Create(ctx context.Context, res *models.Resource, localFilePath string) (*models.Resource, error)
	GetByID(ctx context.Context, id string) (*models.Resource, error)
	Search(ctx context.Context, criteria resourceRepo.SearchCriteria) ([]models.Resource, error)
	Update(ctx context.Context, res *models.Resource, requesterID, role string) (*models.Resource, error)
	Delete(ctx context.Context, id, requesterID, role string) error
}

type DefaultResourceService struct {
	Repo    resourceRepo.ResourceRepository
	Storage storage.StorageService
}

func NewResourceService(repo resourceRepo.ResourceRepository, store storage.StorageService) ResourceService {
	return &DefaultResourceService{Repo: repo, Storage: store}
}

// Create publishes a resource. When a local file is supplied it is uploaded
// first and its URL stored; otherwise the resource must carry a URL already.
func (s *DefaultResourceService) Create(ctx context.Context, res *models.Resource, localFilePath string) (*models.Resource, error) {
	if strings.TrimSpace(res.Title) == "" {
		return nil, utils.NewValidationError("title is required")
	}
	if strings.TrimSpace(res.Subject) == "" {
		return nil, utils.NewValidationError("subject is required")
	}
	if localFilePath != "" {
		url, err := s.Storage.UploadFile(ctx, localFilePath, "resources")
		if err != nil {
			return nil, utils.NewUploadError("failed to upload resource file: " + err.Error())
		}
		res.URL = url
	}
	if strings.TrimSpace(res.URL) == "" {
		return nil, utils.NewValidationError("a file or URL is required")
	}

	now := time.Now()
	res.ID = uuid.New().String()
	res.Views = 0
	res.CreatedAt = now
	res.UpdatedAt = now
	if err := s.Repo.Create(ctx, res); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *DefaultResourceService) GetByID(ctx context.Context, id string) (*models.Resource, error) {
	return s.Repo.GetByID(ctx, id)
}

func (s *DefaultResourceService) Search(ctx context.Context, criteria resourceRepo.SearchCriteria) ([]models.Resource, error) {
	return s.Repo.Search(ctx, criteria)
}

// Update edits a resource's catalog fields. Only the publishing author or an
// admin may edit.
func (s *DefaultResourceService) Update(ctx context.Context, res *models.Resource, requesterID, role string) (*models.Resource, error) {
	existing, err := s.Repo.GetByID(ctx, res.ID)
	if err != nil {
		return nil, err
	}
	if role != models.RoleAdmin && existing.AuthorID != requesterID {
		return nil, utils.NewOwnershipError("resource does not belong to the requester")
	}
	if res.Title != "" {
		existing.Title = res.Title
	}
	if res.Subject != "" {
		existing.Subject = res.Subject
	}
	if res.Description != "" {
		existing.Description = res.Description
	}
	if res.Type != "" {
		existing.Type = res.Type
	}
	if res.Tags != nil {
		existing.Tags = res.Tags
	}
	existing.UpdatedAt = time.Now()
	if err := s.Repo.Update(ctx, existing); err != nil {
		return nil, err
	}
	return existing, nil
}

func (s *DefaultResourceService) Delete(ctx context.Context, id, requesterID, role string) error {
	existing, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if role != models.RoleAdmin && existing.AuthorID != requesterID {
		return utils.NewOwnershipError("resource does not belong to the requester")
	}
	return s.Repo.Delete(ctx, id)
}
