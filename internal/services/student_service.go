package services

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/Abdul-Ahad2004/student-management-service/internal/models"
	"github.com/Abdul-Ahad2004/student-management-service/internal/repositories"
	"github.com/Abdul-Ahad2004/student-management-service/internal/validator"
)

type studentService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
	policy    *AccessPolicy
}

func NewStudentService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, policy *AccessPolicy) StudentService {
	return &studentService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
		policy:    policy,
	}
}

func (s *studentService) GetByID(ctx context.Context, id string, actor Actor) (*models.StudentProfile, error) {
	canView, err := s.policy.CanViewStudent(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !canView {
		return nil, NewPermissionError(actor.ID, id, "student", "read", "not admin, profile owner, or teacher of an enrolled course")
	}

	profile, err := s.repo.Student().GetByUserID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrStudentNotFound
		}
		return nil, fmt.Errorf("failed to get student profile: %w", err)
	}
	return profile, nil
}

// List is role-scoped: admins see all students, teachers see students
// actively enrolled in their courses, students see themselves.
func (s *studentService) List(ctx context.Context, filters repositories.ProfileFilters, actor Actor) ([]*models.StudentProfile, int64, error) {
	switch actor.Role {
	case models.RoleAdmin:
		return s.repo.Student().List(ctx, filters)
	case models.RoleTeacher:
		return s.repo.Student().ListByTeacher(ctx, actor.ID, filters)
	case models.RoleStudent:
		profile, err := s.repo.Student().GetByUserID(ctx, actor.ID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return []*models.StudentProfile{}, 0, nil
			}
			return nil, 0, fmt.Errorf("failed to get student profile: %w", err)
		}
		return []*models.StudentProfile{profile}, 1, nil
	default:
		return []*models.StudentProfile{}, 0, nil
	}
}

func (s *studentService) UpdateProfile(ctx context.Context, id string, req *validator.StudentProfileUpdateRequest, actor Actor) (*models.StudentProfile, error) {
	s.logger.Info("Updating student profile", "student_id", id, "actor_id", actor.ID)

	if errs := s.validator.Validate(req); errs.HasErrors() {
		return nil, errs
	}

	if !s.policy.CanUpdateStudent(actor, id) {
		return nil, NewPermissionError(actor.ID, id, "student", "update", "not admin or profile owner")
	}

	profile, err := s.repo.Student().GetByUserID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrStudentNotFound
		}
		return nil, fmt.Errorf("failed to get student profile: %w", err)
	}

	if req.Phone != nil {
		profile.Phone = req.Phone
	}
	if req.Address != nil {
		profile.Address = req.Address
	}

	if err := s.repo.Student().Update(ctx, profile); err != nil {
		return nil, fmt.Errorf("failed to update student profile: %w", err)
	}

	s.logger.Info("Student profile updated", "student_id", id)
	return profile, nil
}

// ListEnrollments returns a student's enrollment history, subject to the
// same visibility rule as reading the profile.
func (s *studentService) ListEnrollments(ctx context.Context, studentID string, filters repositories.EnrollmentFilters, actor Actor) ([]*models.Enrollment, int64, error) {
	canView, err := s.policy.CanViewStudent(ctx, actor, studentID)
	if err != nil {
		return nil, 0, err
	}
	if !canView {
		return nil, 0, NewPermissionError(actor.ID, studentID, "student", "list_enrollments", "not admin, profile owner, or teacher of an enrolled course")
	}

	filters.StudentID = &studentID
	enrollments, total, err := s.repo.Enrollment().List(ctx, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list student enrollments: %w", err)
	}
	return enrollments, total, nil
}
