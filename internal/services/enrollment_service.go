package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/Abdul-Ahad2004/student-management-service/internal/events"
	"github.com/Abdul-Ahad2004/student-management-service/internal/models"
	"github.com/Abdul-Ahad2004/student-management-service/internal/repositories"
	"github.com/Abdul-Ahad2004/student-management-service/internal/validator"
)

// DropWindow is the period after creation during which the enrolled
// student may drop their own enrollment.
const DropWindow = 7 * 24 * time.Hour

type enrollmentService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
	policy    *AccessPolicy
	publisher events.EventPublisher

	// injected clock so the window rule is testable
	now func() time.Time
}

func NewEnrollmentService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, policy *AccessPolicy, publisher events.EventPublisher) EnrollmentService {
	return &enrollmentService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
		policy:    policy,
		publisher: publisher,
		now:       time.Now,
	}
}

func (s *enrollmentService) Create(ctx context.Context, req *validator.EnrollmentCreateRequest, actor Actor) (*models.Enrollment, error) {
	s.logger.Info("Creating enrollment", "student_id", req.StudentID, "course_id", req.CourseID, "actor_id", actor.ID)

	if errs := s.validator.Validate(req); errs.HasErrors() {
		return nil, errs
	}

	course, err := s.repo.Course().GetByID(ctx, req.CourseID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to get course: %w", err)
	}

	if !s.policy.CanCreateEnrollment(actor, course) {
		return nil, NewPermissionError(actor.ID, req.CourseID, "enrollment", "create", "only admin or the assigned teacher may enroll students")
	}

	student, err := s.repo.Student().GetByUserID(ctx, req.StudentID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrStudentNotFound
		}
		return nil, fmt.Errorf("failed to get student: %w", err)
	}

	// Fast-path check; the partial unique index remains the authority
	// under concurrency.
	active, err := s.repo.Enrollment().HasActive(ctx, req.StudentID, req.CourseID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing enrollment: %w", err)
	}
	if active {
		return nil, ErrAlreadyEnrolled
	}

	enrollment := &models.Enrollment{
		StudentID: req.StudentID,
		CourseID:  req.CourseID,
		Status:    models.EnrollmentActive,
	}
	if err := s.repo.Enrollment().Create(ctx, enrollment); err != nil {
		if repositories.IsDuplicateError(err) {
			return nil, ErrAlreadyEnrolled
		}
		return nil, fmt.Errorf("failed to create enrollment: %w", err)
	}

	s.logger.Info("Enrollment created", "enrollment_id", enrollment.ID)

	s.publish(ctx, events.NewEvent(events.EnrollmentCreated, buildEnrollmentEventData(enrollment, student, course)))

	created, err := s.repo.Enrollment().GetByID(ctx, enrollment.ID)
	if err != nil {
		// the write committed; return the bare row rather than failing
		s.logger.Warn("failed to reload enrollment after create", "enrollment_id", enrollment.ID, "error", err)
		return enrollment, nil
	}
	return created, nil
}

func (s *enrollmentService) GetByID(ctx context.Context, id string, actor Actor) (*models.Enrollment, error) {
	enrollment, err := s.repo.Enrollment().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrEnrollmentNotFound
		}
		return nil, fmt.Errorf("failed to get enrollment: %w", err)
	}

	if !s.policy.CanViewEnrollment(actor, enrollment) {
		return nil, NewPermissionError(actor.ID, id, "enrollment", "read", "not admin, assigned teacher, or owning student")
	}

	return enrollment, nil
}

func (s *enrollmentService) List(ctx context.Context, filters repositories.EnrollmentFilters, actor Actor) ([]*models.Enrollment, int64, error) {
	scoped, err := s.scopeFilters(ctx, filters, actor)
	if err != nil {
		return nil, 0, err
	}
	if scoped == nil {
		// teacher with no courses sees an empty list
		return []*models.Enrollment{}, 0, nil
	}

	enrollments, total, err := s.repo.Enrollment().List(ctx, *scoped)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list enrollments: %w", err)
	}
	return enrollments, total, nil
}

func (s *enrollmentService) Drop(ctx context.Context, id string, actor Actor) error {
	s.logger.Info("Dropping enrollment", "enrollment_id", id, "actor_id", actor.ID)

	enrollment, err := s.repo.Enrollment().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrEnrollmentNotFound
		}
		return fmt.Errorf("failed to get enrollment: %w", err)
	}

	if !s.policy.CanDropEnrollment(actor, enrollment) {
		return NewPermissionError(actor.ID, id, "enrollment", "drop", "not admin, assigned teacher, or owning student")
	}

	// Snapshot before write: the transition and its notification fire
	// only from an observed ACTIVE state.
	priorStatus := enrollment.Status
	if priorStatus != models.EnrollmentActive {
		return ErrEnrollmentNotActive
	}

	// The window binds the owning student only; admin and the assigned
	// teacher drop without time restriction.
	if actor.Role == models.RoleStudent {
		if s.now().Sub(enrollment.CreatedAt) > DropWindow {
			return ErrDropWindowExpired
		}
	}

	if err := s.repo.Enrollment().UpdateStatus(ctx, id, models.EnrollmentDropped); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrEnrollmentNotFound
		}
		return fmt.Errorf("failed to update enrollment status: %w", err)
	}

	s.logger.Info("Enrollment dropped", "enrollment_id", id, "prior_status", priorStatus)

	s.publish(ctx, events.NewEvent(events.EnrollmentDropped, buildEnrollmentEventData(enrollment, &enrollment.Student, &enrollment.Course)))

	return nil
}

// scopeFilters narrows a listing to what the actor may see. A nil result
// means the actor can see nothing.
func (s *enrollmentService) scopeFilters(ctx context.Context, filters repositories.EnrollmentFilters, actor Actor) (*repositories.EnrollmentFilters, error) {
	switch actor.Role {
	case models.RoleAdmin:
		return &filters, nil
	case models.RoleStudent:
		actorID := actor.ID
		filters.StudentID = &actorID
		return &filters, nil
	case models.RoleTeacher:
		teacherID := actor.ID
		courses, _, err := s.repo.Course().List(ctx, repositories.CourseFilters{TeacherID: &teacherID})
		if err != nil {
			return nil, fmt.Errorf("failed to list teacher courses: %w", err)
		}
		if len(courses) == 0 {
			return nil, nil
		}
		ids := make([]string, 0, len(courses))
		for _, c := range courses {
			ids = append(ids, c.ID)
		}
		filters.CourseIDs = ids
		return &filters, nil
	default:
		return nil, nil
	}
}

func (s *enrollmentService) publish(ctx context.Context, event events.Event) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		// delivery is best-effort; the enrollment write stands
		s.logger.Error("failed to publish event", "event_id", event.ID, "event_type", event.Type, "error", err)
	}
}

func buildEnrollmentEventData(enrollment *models.Enrollment, student *models.StudentProfile, course *models.Course) events.EnrollmentEventData {
	data := events.EnrollmentEventData{
		EnrollmentID: enrollment.ID,
		Student: events.PersonRef{
			ID:    student.UserID,
			Name:  student.User.Name,
			Email: student.User.Email,
		},
		RollNumber: student.RollNumber,
		Course: events.CourseRef{
			ID:            course.ID,
			Title:         course.Title,
			Description:   course.Description,
			DurationWeeks: course.DurationWeeks,
			Schedule:      course.Schedule,
		},
	}
	if course.Teacher != nil {
		data.Teacher = &events.PersonRef{
			ID:    course.Teacher.UserID,
			Name:  course.Teacher.User.Name,
			Email: course.Teacher.User.Email,
		}
	}
	return data
}
