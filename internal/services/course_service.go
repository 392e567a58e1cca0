package services

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/Abdul-Ahad2004/student-management-service/internal/events"
	"github.com/Abdul-Ahad2004/student-management-service/internal/models"
	"github.com/Abdul-Ahad2004/student-management-service/internal/repositories"
	"github.com/Abdul-Ahad2004/student-management-service/internal/validator"
)

type courseService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
	policy    *AccessPolicy
	publisher events.EventPublisher
}

func NewCourseService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, policy *AccessPolicy, publisher events.EventPublisher) CourseService {
	return &courseService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
		policy:    policy,
		publisher: publisher,
	}
}

func (s *courseService) Create(ctx context.Context, req *validator.CourseCreateRequest, actor Actor) (*models.Course, error) {
	s.logger.Info("Creating course", "title", req.Title, "actor_id", actor.ID)

	if errs := s.validator.GetBusinessValidator().ValidateCourseCreate(req); len(errs) > 0 {
		return nil, errs
	}

	if !s.policy.CanManageCourses(actor) {
		return nil, NewPermissionError(actor.ID, "", "course", "create", "admin role required")
	}

	if req.TeacherID != nil {
		exists, err := s.repo.Teacher().ExistsByUserID(ctx, *req.TeacherID)
		if err != nil {
			return nil, fmt.Errorf("failed to check teacher: %w", err)
		}
		if !exists {
			return nil, ErrTeacherNotFound
		}
	}

	course := &models.Course{
		Title:         req.Title,
		Description:   req.Description,
		DurationWeeks: req.DurationWeeks,
		Schedule:      req.Schedule,
		TeacherID:     req.TeacherID,
	}
	if err := s.repo.Course().Create(ctx, course); err != nil {
		return nil, fmt.Errorf("failed to create course: %w", err)
	}

	s.logger.Info("Course created", "course_id", course.ID)

	// Creating with a teacher counts as an assignment.
	if course.TeacherID != nil {
		s.emitCourseAssigned(ctx, course, *course.TeacherID)
	}

	created, err := s.repo.Course().GetByID(ctx, course.ID)
	if err != nil {
		s.logger.Warn("failed to reload course after create", "course_id", course.ID, "error", err)
		return course, nil
	}
	return created, nil
}

func (s *courseService) GetByID(ctx context.Context, id string, actor Actor) (*models.Course, error) {
	course, err := s.repo.Course().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to get course: %w", err)
	}

	canView, err := s.policy.CanViewCourse(ctx, actor, course)
	if err != nil {
		return nil, err
	}
	if !canView {
		return nil, NewPermissionError(actor.ID, id, "course", "read", "not admin, assigned teacher, or enrolled student")
	}

	count, err := s.repo.Course().CountActiveEnrollments(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to count enrollments: %w", err)
	}
	course.EnrolledStudentsCount = int(count)

	return course, nil
}

func (s *courseService) Update(ctx context.Context, id string, req *validator.CourseUpdateRequest, actor Actor) (*models.Course, error) {
	s.logger.Info("Updating course", "course_id", id, "actor_id", actor.ID)

	if errs := s.validator.GetBusinessValidator().ValidateCourseUpdate(req); len(errs) > 0 {
		return nil, errs
	}

	if !s.policy.CanManageCourses(actor) {
		return nil, NewPermissionError(actor.ID, id, "course", "update", "admin role required")
	}

	course, err := s.repo.Course().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to get course: %w", err)
	}

	// Snapshot before write: the assignment event fires only when the
	// new teacher reference differs from the one observed here.
	previousTeacherID := course.TeacherID

	if req.Title != nil {
		course.Title = *req.Title
	}
	if req.Description != nil {
		course.Description = *req.Description
	}
	if req.DurationWeeks != nil {
		course.DurationWeeks = *req.DurationWeeks
	}
	if req.Schedule != nil {
		course.Schedule = *req.Schedule
	}
	if req.TeacherIDSet {
		if req.TeacherID != nil {
			exists, err := s.repo.Teacher().ExistsByUserID(ctx, *req.TeacherID)
			if err != nil {
				return nil, fmt.Errorf("failed to check teacher: %w", err)
			}
			if !exists {
				return nil, ErrTeacherNotFound
			}
		}
		course.TeacherID = req.TeacherID
	}

	if err := s.repo.Course().Update(ctx, course); err != nil {
		return nil, fmt.Errorf("failed to update course: %w", err)
	}

	s.logger.Info("Course updated", "course_id", id)

	// Reassignment fires on a genuine change; re-assigning the same
	// teacher or clearing the assignment never does.
	if course.TeacherID != nil && (previousTeacherID == nil || *previousTeacherID != *course.TeacherID) {
		s.emitCourseAssigned(ctx, course, *course.TeacherID)
	}

	updated, err := s.repo.Course().GetByID(ctx, id)
	if err != nil {
		s.logger.Warn("failed to reload course after update", "course_id", id, "error", err)
		return course, nil
	}
	return updated, nil
}

func (s *courseService) Delete(ctx context.Context, id string, actor Actor) error {
	s.logger.Info("Deleting course", "course_id", id, "actor_id", actor.ID)

	if !s.policy.CanManageCourses(actor) {
		return NewPermissionError(actor.ID, id, "course", "delete", "admin role required")
	}

	if _, err := s.repo.Course().GetByID(ctx, id); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrCourseNotFound
		}
		return fmt.Errorf("failed to get course: %w", err)
	}

	count, err := s.repo.Course().CountActiveEnrollments(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to count enrollments: %w", err)
	}
	if count > 0 {
		return ErrCourseHasEnrollments
	}

	if err := s.repo.Course().Delete(ctx, id); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrCourseNotFound
		}
		return fmt.Errorf("failed to delete course: %w", err)
	}

	s.logger.Info("Course deleted", "course_id", id)
	return nil
}

func (s *courseService) List(ctx context.Context, filters repositories.CourseFilters, actor Actor) ([]*models.Course, int64, error) {
	switch actor.Role {
	case models.RoleAdmin:
		return s.repo.Course().List(ctx, filters)
	case models.RoleTeacher:
		teacherID := actor.ID
		filters.TeacherID = &teacherID
		return s.repo.Course().List(ctx, filters)
	case models.RoleStudent:
		return s.repo.Course().ListEnrolledByStudent(ctx, actor.ID, filters)
	default:
		return []*models.Course{}, 0, nil
	}
}

func (s *courseService) ListStudents(ctx context.Context, courseID string, actor Actor) ([]*models.StudentProfile, error) {
	course, err := s.rosterCourse(ctx, courseID, actor, "list_students")
	if err != nil {
		return nil, err
	}

	status := models.EnrollmentActive
	enrollments, _, err := s.repo.Enrollment().List(ctx, repositories.EnrollmentFilters{
		CourseID: &course.ID,
		Status:   &status,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list enrollments: %w", err)
	}

	students := make([]*models.StudentProfile, 0, len(enrollments))
	for _, e := range enrollments {
		student := e.Student
		students = append(students, &student)
	}
	return students, nil
}

func (s *courseService) ListEnrollments(ctx context.Context, courseID string, actor Actor) ([]*models.Enrollment, error) {
	course, err := s.rosterCourse(ctx, courseID, actor, "list_enrollments")
	if err != nil {
		return nil, err
	}

	enrollments, _, err := s.repo.Enrollment().List(ctx, repositories.EnrollmentFilters{CourseID: &course.ID})
	if err != nil {
		return nil, fmt.Errorf("failed to list enrollments: %w", err)
	}
	return enrollments, nil
}

func (s *courseService) rosterCourse(ctx context.Context, courseID string, actor Actor, action string) (*models.Course, error) {
	course, err := s.repo.Course().GetByID(ctx, courseID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to get course: %w", err)
	}

	if !s.policy.CanViewCourseRoster(actor, course) {
		return nil, NewPermissionError(actor.ID, courseID, "course", action, "not admin or assigned teacher")
	}
	return course, nil
}

func (s *courseService) emitCourseAssigned(ctx context.Context, course *models.Course, teacherID string) {
	teacher, err := s.repo.Teacher().GetByUserID(ctx, teacherID)
	if err != nil {
		s.logger.Error("failed to load teacher for assignment event", "teacher_id", teacherID, "error", err)
		return
	}

	event := events.NewEvent(events.CourseAssigned, events.CourseAssignedEventData{
		Course: events.CourseRef{
			ID:            course.ID,
			Title:         course.Title,
			Description:   course.Description,
			DurationWeeks: course.DurationWeeks,
			Schedule:      course.Schedule,
		},
		Teacher: events.PersonRef{
			ID:    teacher.UserID,
			Name:  teacher.User.Name,
			Email: teacher.User.Email,
		},
	})
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Error("failed to publish event", "event_id", event.ID, "event_type", event.Type, "error", err)
	}
}
