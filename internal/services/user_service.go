package services

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/Abdul-Ahad2004/student-management-service/internal/events"
	"github.com/Abdul-Ahad2004/student-management-service/internal/models"
	"github.com/Abdul-Ahad2004/student-management-service/internal/repositories"
	"github.com/Abdul-Ahad2004/student-management-service/internal/validator"
)

const (
	generatedPasswordLength  = 12
	generatedPasswordCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	defaultStudentBatch      = "2024"
	defaultEnrollmentYear    = 2024
)

type userService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
	policy    *AccessPolicy
	publisher events.EventPublisher
}

func NewUserService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, policy *AccessPolicy, publisher events.EventPublisher) UserService {
	return &userService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
		policy:    policy,
		publisher: publisher,
	}
}

// Create registers a user and its role profile in one transaction, then
// emits account.created. When no password is supplied one is generated
// and included in the welcome mail; it is never returned over the API.
func (s *userService) Create(ctx context.Context, req *validator.UserCreateRequest, actor Actor) (*models.User, error) {
	s.logger.Info("Creating user", "email", req.Email, "role", req.Role, "actor_id", actor.ID)

	if errs := s.validator.GetBusinessValidator().ValidateUserCreate(req); len(errs) > 0 {
		return nil, errs
	}

	if !s.policy.CanManageUsers(actor) {
		return nil, NewPermissionError(actor.ID, "", "user", "create", "admin role required")
	}

	exists, err := s.repo.User().ExistsByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return nil, ErrEmailAlreadyExists
	}

	password := ""
	generated := false
	if req.Password != nil {
		password = *req.Password
	} else {
		password, err = generatePassword()
		if err != nil {
			return nil, fmt.Errorf("failed to generate password: %w", err)
		}
		generated = true
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		Name:         strings.TrimSpace(req.Name),
		Role:         req.Role,
		PasswordHash: string(hash),
		IsActive:     true,
	}

	var rollNumber string
	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		if err := txRepo.User().Create(ctx, user); err != nil {
			if repositories.IsDuplicateError(err) {
				return ErrEmailAlreadyExists
			}
			return fmt.Errorf("failed to create user: %w", err)
		}

		switch user.Role {
		case models.RoleTeacher:
			profile := &models.TeacherProfile{UserID: user.ID}
			if err := txRepo.Teacher().Create(ctx, profile); err != nil {
				return fmt.Errorf("failed to create teacher profile: %w", err)
			}
		case models.RoleStudent:
			rollNumber = newRollNumber()
			profile := &models.StudentProfile{
				UserID:         user.ID,
				RollNumber:     rollNumber,
				Batch:          defaultStudentBatch,
				EnrollmentYear: defaultEnrollmentYear,
			}
			if err := txRepo.Student().Create(ctx, profile); err != nil {
				return fmt.Errorf("failed to create student profile: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("User created", "user_id", user.ID, "role", user.Role)

	data := events.AccountCreatedEventData{
		User: events.PersonRef{
			ID:    user.ID,
			Name:  user.Name,
			Email: user.Email,
		},
		Role:       string(user.Role),
		RollNumber: rollNumber,
	}
	if generated {
		data.GeneratedPassword = password
	}
	event := events.NewEvent(events.AccountCreated, data)
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Error("failed to publish event", "event_id", event.ID, "event_type", event.Type, "error", err)
	}

	return user, nil
}

func (s *userService) GetByID(ctx context.Context, id string, actor Actor) (*models.User, error) {
	if !s.policy.CanViewUser(actor, id) {
		return nil, NewPermissionError(actor.ID, id, "user", "read", "not owner or admin")
	}

	user, err := s.repo.User().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (s *userService) List(ctx context.Context, filters repositories.UserFilters, actor Actor) ([]*models.User, int64, error) {
	if !s.policy.CanManageUsers(actor) {
		return nil, 0, NewPermissionError(actor.ID, "", "user", "list", "admin role required")
	}

	users, total, err := s.repo.User().List(ctx, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	return users, total, nil
}

func (s *userService) UpdateSelf(ctx context.Context, userID string, req *validator.UserUpdateRequest) (*models.User, error) {
	if errs := s.validator.Validate(req); errs.HasErrors() {
		return nil, errs
	}

	user, err := s.repo.User().GetByID(ctx, userID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if req.Name != nil {
		user.Name = strings.TrimSpace(*req.Name)
	}
	user.UpdatedAt = time.Now()

	if err := s.repo.User().Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	s.logger.Info("User updated", "user_id", userID)
	return user, nil
}

func (s *userService) ChangePassword(ctx context.Context, userID string, req *validator.ChangePasswordRequest) error {
	if errs := s.validator.Validate(req); errs.HasErrors() {
		return errs
	}

	user, err := s.repo.User().GetByID(ctx, userID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.OldPassword)); err != nil {
		return &AuthenticationError{Message: "old password is incorrect"}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.repo.User().UpdatePassword(ctx, userID, string(hash)); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	s.logger.Info("Password changed", "user_id", userID)
	return nil
}

// newRollNumber derives a roll number from a fresh uuid, STU + the first
// eight hex characters uppercased.
func newRollNumber() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "STU" + strings.ToUpper(id[:8])
}

func generatePassword() (string, error) {
	max := big.NewInt(int64(len(generatedPasswordCharset)))
	var b strings.Builder
	for i := 0; i < generatedPasswordLength; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(generatedPasswordCharset[n.Int64()])
	}
	return b.String(), nil
}
