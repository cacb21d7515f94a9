package userRepo

import (
	"context"
	"fmt"
	"sync"
	"time"

	"easypro/models"
	"easypro/utils"
)

// MemoryUserRepo is an in-memory UserRepository used by tests.
type MemoryUserRepo struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func NewMemoryUserRepo() *MemoryUserRepo {
	return &MemoryUserRepo{users: make(map[string]*models.User)}
}

func copyUser(u *models.User) *models.User {
	cp := *u
	return &cp
}

func (r *MemoryUserRepo) Create(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == user.Email || existing.UserName == user.UserName {
			return utils.NewValidationError("email or username already registered")
		}
	}
	r.users[user.ID] = copyUser(user)
	return nil
}

func (r *MemoryUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, utils.NewNotFoundError(fmt.Sprintf("user %s not found", id))
	}
	return copyUser(u), nil
}

func (r *MemoryUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return copyUser(u), nil
		}
	}
	return nil, utils.NewNotFoundError(fmt.Sprintf("user %s not found", email))
}

func (r *MemoryUserRepo) GetByUserName(ctx context.Context, userName string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.UserName == userName {
			return copyUser(u), nil
		}
	}
	return nil, utils.NewNotFoundError(fmt.Sprintf("user %s not found", userName))
}

func (r *MemoryUserRepo) Update(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.users[user.ID]
	if !ok {
		return utils.NewNotFoundError(fmt.Sprintf("user %s not found", user.ID))
	}
	existing.FirstName = user.FirstName
	existing.LastName = user.LastName
	existing.ProfileImage = user.ProfileImage
	existing.Gender = user.Gender
	existing.PasswordHash = user.PasswordHash
	existing.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *MemoryUserRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return utils.NewNotFoundError(fmt.Sprintf("user %s not found", id))
	}
	delete(r.users, id)
	return nil
}
