package services

import (
	"context"
	"fmt"

	"github.com/jcastellanos/credifacil-api/internal/models"
	"github.com/jcastellanos/credifacil-api/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

// UserService manages staff accounts
type UserService struct {
	userRepo repository.UserRepository
	audit    *AuditService
}

// NewUserService creates a new user service
func NewUserService(repos *repository.Repositories, audit *AuditService) *UserService {
	return &UserService{
		userRepo: repos.User,
		audit:    audit,
	}
}

// CreateUserInput carries the data for a new staff account
type CreateUserInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	FullName string `json:"full_name" binding:"required"`
	Phone    string `json:"phone"`
	Role     string `json:"role" binding:"omitempty,oneof=admin officer viewer"`
}

// UpdateUserInput carries partial staff account updates
type UpdateUserInput struct {
	FullName *string `json:"full_name"`
	Phone    *string `json:"phone"`
	Role     *string `json:"role" binding:"omitempty,oneof=admin officer viewer"`
	Status   *string `json:"status" binding:"omitempty,oneof=active inactive suspended"`
}

// Create registers a new staff account
func (s *UserService) Create(ctx context.Context, input *CreateUserInput, createdBy *models.User) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:             input.Email,
		EncryptedPassword: string(hash),
		FullName:          input.FullName,
		Phone:             input.Phone,
		Role:              input.Role,
	}
	if createdBy != nil {
		user.CreatedBy = &createdBy.ID
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	if createdBy != nil {
		s.audit.Record(ctx, createdBy.ID, AuditActionCreate, AuditEntityUser, user.ID,
			fmt.Sprintf("usuario %s con rol %s", user.Email, user.Role))
	}

	return user, nil
}

// GetByID returns a staff account by ID
func (s *UserService) GetByID(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// List returns staff accounts matching the query
func (s *UserService) List(ctx context.Context, query *repository.ListQuery) ([]models.User, int64, error) {
	return s.userRepo.List(ctx, query)
}

// Update applies partial changes to a staff account
func (s *UserService) Update(ctx context.Context, id uint, input *UpdateUserInput, updatedBy *models.User) (*models.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, ErrUserNotFound
	}

	if input.FullName != nil {
		user.FullName = *input.FullName
	}
	if input.Phone != nil {
		user.Phone = *input.Phone
	}
	if input.Role != nil {
		user.Role = *input.Role
	}
	if input.Status != nil {
		user.Status = *input.Status
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	if updatedBy != nil {
		s.audit.Record(ctx, updatedBy.ID, AuditActionUpdate, AuditEntityUser, user.ID, "cuenta actualizada")
	}

	return user, nil
}

// ChangePassword replaces the user's password after checking the current one
func (s *UserService) ChangePassword(ctx context.Context, userID uint, currentPassword, newPassword string) error {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return ErrUserNotFound
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.EncryptedPassword), []byte(currentPassword)); err != nil {
		return ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	user.EncryptedPassword = string(hash)
	return s.userRepo.Update(ctx, user)
}

// Delete soft-deletes a staff account
func (s *UserService) Delete(ctx context.Context, id uint, deletedBy *models.User) error {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return ErrUserNotFound
	}

	if err := s.userRepo.SoftDelete(ctx, user.ID); err != nil {
		return err
	}

	if deletedBy != nil {
		s.audit.Record(ctx, deletedBy.ID, AuditActionDelete, AuditEntityUser, user.ID,
			fmt.Sprintf("usuario %s eliminado", user.Email))
	}
	return nil
}
