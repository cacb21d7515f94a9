package user

import (
	"context"
	"strings"
	"time"

	"easypro/database/repository/user"
	"easypro/models"
	"easypro/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const tokenTTL = 24 * time.Hour

// UserService handles registration, authentication and account management.
type UserService interface {
	Register(ctx context.Context, u *models.User) (*models.User, string, error)
	Authenticate(ctx context.Context, email, password string) (*models.User, string, error)
	Logout(ctx context.Context, token string) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	Update(ctx context.Context, u *models.User) (*models.User, error)
	Delete(ctx context.Context, id string) error
}

type DefaultUserService struct {
	Repo userRepo.UserRepository
}

func NewUserService(repo userRepo.UserRepository) UserService {
	return &DefaultUserService{Repo: repo}
}

// Register creates a new user account and returns it with a fresh session
// token. New accounts always get the ordinary user role.
func (s *DefaultUserService) Register(ctx context.Context, u *models.User) (*models.User, string, error) {
	if err := validateRegistration(u); err != nil {
		return nil, "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", utils.NewValidationError("failed to process password")
	}

	now := time.Now()
	u.ID = uuid.New().String()
	u.PasswordHash = string(hash)
	u.Password = ""
	u.Role = models.RoleUser
	u.CreatedAt = now
	u.UpdatedAt = now

	if err := s.Repo.Create(ctx, u); err != nil {
		return nil, "", err
	}

	token, err := utils.GenerateToken(u.ID, u.Role, tokenTTL)
	if err != nil {
		return nil, "", err
	}
	utils.GetLogger().Info("user registered", zap.String("userId", u.ID))
	return u, token, nil
}

// Authenticate verifies the credentials and mints a session token. Wrong
// email and wrong password report the same failure.
func (s *DefaultUserService) Authenticate(ctx context.Context, email, password string) (*models.User, string, error) {
	u, err := s.Repo.GetByEmail(ctx, email)
	if err != nil {
		if utils.HasCode(err, utils.CodeNotFound) {
			return nil, "", utils.NewValidationError("invalid email or password")
		}
		return nil, "", err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, "", utils.NewValidationError("invalid email or password")
	}
	token, err := utils.GenerateToken(u.ID, u.Role, tokenTTL)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

// Logout revokes the presented token for the remainder of its lifetime.
func (s *DefaultUserService) Logout(ctx context.Context, token string) error {
	return utils.RevokeToken(ctx, utils.HashToken(token), tokenTTL)
}

func (s *DefaultUserService) GetByID(ctx context.Context, id string) (*models.User, error) {
	return s.Repo.GetByID(ctx, id)
}

// Update edits profile fields. Email, username, role and password do not
// change here.
func (s *DefaultUserService) Update(ctx context.Context, u *models.User) (*models.User, error) {
	existing, err := s.Repo.GetByID(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	if u.FirstName != "" {
		existing.FirstName = u.FirstName
	}
	if u.LastName != "" {
		existing.LastName = u.LastName
	}
	if u.ProfileImage != "" {
		existing.ProfileImage = u.ProfileImage
	}
	if u.Gender != "" {
		existing.Gender = u.Gender
	}
	existing.UpdatedAt = time.Now()
	if err := s.Repo.Update(ctx, existing); err != nil {
		return nil, err
	}
	return existing, nil
}

func (s *DefaultUserService) Delete(ctx context.Context, id string) error {
	return s.Repo.Delete(ctx, id)
}

func validateRegistration(u *models.User) error {
	if strings.TrimSpace(u.FirstName) == "" || strings.TrimSpace(u.LastName) == "" {
		return utils.NewValidationError("first and last name are required")
	}
	if strings.TrimSpace(u.UserName) == "" {
		return utils.NewValidationError("username is required")
	}
	if strings.TrimSpace(u.Email) == "" || !strings.Contains(u.Email, "@") {
		return utils.NewValidationError("a valid email is required")
	}
	if len(u.Password) < 8 {
		return utils.NewValidationError("password must be at least 8 characters")
	}
	return nil
}
