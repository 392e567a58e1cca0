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

type teacherService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
	policy    *AccessPolicy
}

func NewTeacherService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, policy *AccessPolicy) TeacherService {
	return &teacherService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
		policy:    policy,
	}
}

// GetByID returns a teacher profile. The teacher directory is readable
// by any authenticated user; updates are restricted.
func (s *teacherService) GetByID(ctx context.Context, id string, actor Actor) (*models.TeacherProfile, error) {
	profile, err := s.repo.Teacher().GetByUserID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrTeacherNotFound
		}
		return nil, fmt.Errorf("failed to get teacher profile: %w", err)
	}
	return profile, nil
}

func (s *teacherService) List(ctx context.Context, filters repositories.ProfileFilters, actor Actor) ([]*models.TeacherProfile, int64, error) {
	profiles, total, err := s.repo.Teacher().List(ctx, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list teacher profiles: %w", err)
	}
	return profiles, total, nil
}

func (s *teacherService) UpdateProfile(ctx context.Context, id string, req *validator.TeacherProfileUpdateRequest, actor Actor) (*models.TeacherProfile, error) {
	s.logger.Info("Updating teacher profile", "teacher_id", id, "actor_id", actor.ID)

	if errs := s.validator.Validate(req); errs.HasErrors() {
		return nil, errs
	}

	if !s.policy.CanUpdateTeacher(actor, id) {
		return nil, NewPermissionError(actor.ID, id, "teacher", "update", "not admin or profile owner")
	}

	profile, err := s.repo.Teacher().GetByUserID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrTeacherNotFound
		}
		return nil, fmt.Errorf("failed to get teacher profile: %w", err)
	}

	if req.Phone != nil {
		profile.Phone = req.Phone
	}
	if req.Address != nil {
		profile.Address = req.Address
	}
	if req.Qualification != nil {
		profile.Qualification = req.Qualification
	}
	if req.ExperienceYears != nil {
		profile.ExperienceYears = *req.ExperienceYears
	}

	if err := s.repo.Teacher().Update(ctx, profile); err != nil {
		return nil, fmt.Errorf("failed to update teacher profile: %w", err)
	}

	s.logger.Info("Teacher profile updated", "teacher_id", id)
	return profile, nil
}

// ListCourses returns the courses assigned to a teacher. Admins may view
// any teacher's assignments; teachers only their own.
func (s *teacherService) ListCourses(ctx context.Context, teacherID string, filters repositories.CourseFilters, actor Actor) ([]*models.Course, int64, error) {
	if actor.Role != models.RoleAdmin && actor.ID != teacherID {
		return nil, 0, NewPermissionError(actor.ID, teacherID, "teacher", "list_courses", "not admin or profile owner")
	}

	filters.TeacherID = &teacherID
	courses, total, err := s.repo.Course().List(ctx, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list teacher courses: %w", err)
	}
	return courses, total, nil
}

// ListStudents returns students with an ACTIVE enrollment in one of the
// teacher's courses.
func (s *teacherService) ListStudents(ctx context.Context, teacherID string, filters repositories.ProfileFilters, actor Actor) ([]*models.StudentProfile, int64, error) {
	if actor.Role != models.RoleAdmin && actor.ID != teacherID {
		return nil, 0, NewPermissionError(actor.ID, teacherID, "teacher", "list_students", "not admin or profile owner")
	}

	students, total, err := s.repo.Student().ListByTeacher(ctx, teacherID, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list teacher students: %w", err)
	}
	return students, total, nil
}

// ListEnrollments returns enrollments across the teacher's courses.
func (s *teacherService) ListEnrollments(ctx context.Context, teacherID string, filters repositories.EnrollmentFilters, actor Actor) ([]*models.Enrollment, int64, error) {
	if actor.Role != models.RoleAdmin && actor.ID != teacherID {
		return nil, 0, NewPermissionError(actor.ID, teacherID, "teacher", "list_enrollments", "not admin or profile owner")
	}

	courses, _, err := s.repo.Course().List(ctx, repositories.CourseFilters{TeacherID: &teacherID})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list teacher courses: %w", err)
	}
	if len(courses) == 0 {
		return []*models.Enrollment{}, 0, nil
	}

	courseIDs := make([]string, 0, len(courses))
	for _, course := range courses {
		courseIDs = append(courseIDs, course.ID)
	}
	filters.CourseIDs = courseIDs

	enrollments, total, err := s.repo.Enrollment().List(ctx, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list teacher enrollments: %w", err)
	}
	return enrollments, total, nil
}
