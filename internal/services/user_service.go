package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/epmosta/maintenance-api/internal/jobs"
	"github.com/epmosta/maintenance-api/internal/models"
	"github.com/epmosta/maintenance-api/internal/repository"
	"github.com/epmosta/maintenance-api/pkg/logger"
	"gorm.io/gorm"
)

// UserService handles user administration
type UserService struct {
	repo         repository.UserRepository
	worker       *jobs.Worker
	emailService *EmailService
}

func NewUserService(repo repository.UserRepository, worker *jobs.Worker, emailService *EmailService) *UserService {
	return &UserService{
		repo:         repo,
		worker:       worker,
		emailService: emailService,
	}
}

func (s *UserService) FindByID(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *UserService) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.repo.FindByEmail(ctx, email)
}

func (s *UserService) List(ctx context.Context, query *repository.ListQuery) ([]models.User, int64, error) {
	return s.repo.List(ctx, query)
}

// CreateUserInput carries the admin's provisioning payload. An empty
// password means a temporary one is generated and emailed.
type CreateUserInput struct {
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password"`
	Role        string `json:"role" binding:"required"`
	FirstName   string `json:"first_name" binding:"required"`
	LastName    string `json:"last_name" binding:"required"`
	Phone       string `json:"phone"`
	DirectionID *uint  `json:"direction_id"`
}

// Create provisions a user, hashes the password and emails a welcome
// message off the request path.
func (s *UserService) Create(ctx context.Context, actor *models.User, input CreateUserInput) (*models.User, error) {
	if !models.ValidRole(input.Role) {
		return nil, Validation(fmt.Sprintf("rôle invalide: %s", input.Role))
	}

	password := input.Password
	tempPassword := ""
	if password == "" {
		generated, err := GenerateTempPassword()
		if err != nil {
			return nil, err
		}
		password = generated
		tempPassword = generated
	}
	hashed, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:             strings.ToLower(input.Email),
		EncryptedPassword: hashed,
		Role:              input.Role,
		FirstName:         input.FirstName,
		LastName:          input.LastName,
		Phone:             input.Phone,
		DirectionID:       input.DirectionID,
		Status:            models.StatusActive,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	// Welcome email is best-effort, off the request path.
	welcomePassword := tempPassword
	s.worker.EnqueueAsync(func(jobCtx context.Context) error {
		if err := s.emailService.SendAccountCreated(jobCtx, user, welcomePassword); err != nil {
			logger.Error(fmt.Sprintf("[Users] Welcome email for %s failed: %v", user.Email, err))
		}
		return nil
	})

	logger.Info(fmt.Sprintf("[Users] %s provisioned %s (%s) as %s", actor.Email, user.FullName(), user.Email, user.Role))
	return user, nil
}

// UpdateUserInput carries the editable profile fields
type UpdateUserInput struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Phone       string `json:"phone"`
	Role        string `json:"role"`
	DirectionID *uint  `json:"direction_id"`
}

func (s *UserService) Update(ctx context.Context, actor *models.User, id uint, input UpdateUserInput) (*models.User, error) {
	user, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if input.FirstName != "" {
		user.FirstName = input.FirstName
	}
	if input.LastName != "" {
		user.LastName = input.LastName
	}
	user.Phone = input.Phone
	if input.Role != "" {
		if !models.ValidRole(input.Role) {
			return nil, Validation(fmt.Sprintf("rôle invalide: %s", input.Role))
		}
		user.Role = input.Role
	}
	if input.DirectionID != nil {
		user.DirectionID = input.DirectionID
	}
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) Delete(ctx context.Context, id uint) error {
	return s.repo.SoftDelete(ctx, id)
}

func (s *UserService) Restore(ctx context.Context, id uint) error {
	return s.repo.Restore(ctx, id)
}

// ToggleStatus flips a user between active and inactive
func (s *UserService) ToggleStatus(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.Status == models.StatusActive {
		user.Status = models.StatusInactive
	} else {
		user.Status = models.StatusActive
	}
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// ChangePassword lets a user rotate their own password
func (s *UserService) ChangePassword(ctx context.Context, userID uint, currentPassword, newPassword string) error {
	user, err := s.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if !VerifyPassword(currentPassword, user.EncryptedPassword) {
		return ErrInvalidPassword
	}
	hashed, err := HashPassword(newPassword)
	if err != nil {
		return err
	}
	user.EncryptedPassword = hashed
	return s.repo.Update(ctx, user)
}

// ForceChangePassword lets an admin reset any user's password
func (s *UserService) ForceChangePassword(ctx context.Context, userID uint, newPassword string) error {
	user, err := s.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	hashed, err := HashPassword(newPassword)
	if err != nil {
		return err
	}
	user.EncryptedPassword = hashed
	return s.repo.Update(ctx, user)
}
