package services

import (
	"context"

	"github.com/Abdul-Ahad2004/student-management-service/internal/events"
	"github.com/Abdul-Ahad2004/student-management-service/internal/models"
	"github.com/Abdul-Ahad2004/student-management-service/internal/repositories"
	"github.com/Abdul-Ahad2004/student-management-service/internal/validator"
)

// Actor is the authenticated caller a service operation acts on behalf of.
type Actor struct {
	ID   string
	Role models.UserRole
}

// LoginResponse is returned by AuthService.Login.
type LoginResponse struct {
	User        *models.User `json:"user"`
	AccessToken string       `json:"access_token"`
}

// AuthService issues access tokens against stored credentials.
type AuthService interface {
	Login(ctx context.Context, req *validator.LoginRequest) (*LoginResponse, error)
}

// UserService covers admin user creation and self-service account operations.
type UserService interface {
	// Create registers a user with its role profile and emits
	// account.created. Admin only.
	Create(ctx context.Context, req *validator.UserCreateRequest, actor Actor) (*models.User, error)
	GetByID(ctx context.Context, id string, actor Actor) (*models.User, error)
	List(ctx context.Context, filters repositories.UserFilters, actor Actor) ([]*models.User, int64, error)
	UpdateSelf(ctx context.Context, userID string, req *validator.UserUpdateRequest) (*models.User, error)
	ChangePassword(ctx context.Context, userID string, req *validator.ChangePasswordRequest) error
}

// TeacherService covers teacher profile reads and updates, plus the
// teacher-centric roster views (courses, students, enrollments).
type TeacherService interface {
	GetByID(ctx context.Context, id string, actor Actor) (*models.TeacherProfile, error)
	List(ctx context.Context, filters repositories.ProfileFilters, actor Actor) ([]*models.TeacherProfile, int64, error)
	UpdateProfile(ctx context.Context, id string, req *validator.TeacherProfileUpdateRequest, actor Actor) (*models.TeacherProfile, error)
	ListCourses(ctx context.Context, teacherID string, filters repositories.CourseFilters, actor Actor) ([]*models.Course, int64, error)
	ListStudents(ctx context.Context, teacherID string, filters repositories.ProfileFilters, actor Actor) ([]*models.StudentProfile, int64, error)
	ListEnrollments(ctx context.Context, teacherID string, filters repositories.EnrollmentFilters, actor Actor) ([]*models.Enrollment, int64, error)
}

// StudentService covers student profile reads and updates, role-scoped.
type StudentService interface {
	GetByID(ctx context.Context, id string, actor Actor) (*models.StudentProfile, error)
	List(ctx context.Context, filters repositories.ProfileFilters, actor Actor) ([]*models.StudentProfile, int64, error)
	UpdateProfile(ctx context.Context, id string, req *validator.StudentProfileUpdateRequest, actor Actor) (*models.StudentProfile, error)
	ListEnrollments(ctx context.Context, studentID string, filters repositories.EnrollmentFilters, actor Actor) ([]*models.Enrollment, int64, error)
}

// CourseService covers the course catalog, including teacher reassignment
// with course.teacher_assigned change detection.
type CourseService interface {
	Create(ctx context.Context, req *validator.CourseCreateRequest, actor Actor) (*models.Course, error)
	GetByID(ctx context.Context, id string, actor Actor) (*models.Course, error)
	Update(ctx context.Context, id string, req *validator.CourseUpdateRequest, actor Actor) (*models.Course, error)
	Delete(ctx context.Context, id string, actor Actor) error
	List(ctx context.Context, filters repositories.CourseFilters, actor Actor) ([]*models.Course, int64, error)
	ListStudents(ctx context.Context, courseID string, actor Actor) ([]*models.StudentProfile, error)
	ListEnrollments(ctx context.Context, courseID string, actor Actor) ([]*models.Enrollment, error)
}

// EnrollmentService is the enrollment state machine: rows are created
// ACTIVE, transition ACTIVE -> DROPPED exactly once, and are never
// hard-deleted.
type EnrollmentService interface {
	Create(ctx context.Context, req *validator.EnrollmentCreateRequest, actor Actor) (*models.Enrollment, error)
	GetByID(ctx context.Context, id string, actor Actor) (*models.Enrollment, error)
	List(ctx context.Context, filters repositories.EnrollmentFilters, actor Actor) ([]*models.Enrollment, int64, error)
	// Drop transitions an ACTIVE enrollment to DROPPED. Students are bound
	// to the seven-day window from creation; admin and the assigned
	// teacher are not.
	Drop(ctx context.Context, id string, actor Actor) error
}

// NotificationService is the dispatcher: it consumes domain events,
// sends best-effort mail, and unconditionally appends to the
// notification log.
type NotificationService interface {
	// Dispatch handles one event. The return value reports whether every
	// mail send succeeded; the log append happens regardless.
	Dispatch(ctx context.Context, event events.Event) bool
	ListForUser(ctx context.Context, userID string, filters repositories.NotificationFilters) ([]*models.Notification, int64, error)
}

// ReportService produces downloadable exports.
type ReportService interface {
	// ExportCourseRoster renders the course roster as an .xlsx workbook
	// and returns the bytes with a suggested filename.
	ExportCourseRoster(ctx context.Context, courseID string, actor Actor) ([]byte, string, error)
}

// ServiceManager wires and owns all service instances.
type ServiceManager interface {
	Initialize(ctx context.Context) error
	Shutdown(ctx context.Context) error

	Auth() AuthService
	User() UserService
	Teacher() TeacherService
	Student() StudentService
	Course() CourseService
	Enrollment() EnrollmentService
	Notification() NotificationService
	Report() ReportService
	Policy() *AccessPolicy
}
