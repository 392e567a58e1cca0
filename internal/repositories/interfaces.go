package repositories

import (
	"context"
	"time"

	"github.com/Abdul-Ahad2004/student-management-service/internal/models"
)

// ===== SHARED FILTER STRUCTS =====

type CourseFilters struct {
	TeacherID *string    `json:"teacher_id"`
	Title     *string    `json:"title"`
	DateFrom  *time.Time `json:"date_from"`
	DateTo    *time.Time `json:"date_to"`
	Limit     int        `json:"limit"`
	Offset    int        `json:"offset"`
	SortBy    string     `json:"sort_by"`    // "created_at", "title"
	SortOrder string     `json:"sort_order"` // "asc", "desc"
}

type EnrollmentFilters struct {
	Status    *models.EnrollmentStatus `json:"status"`
	StudentID *string                  `json:"student_id"`
	CourseID  *string                  `json:"course_id"`
	CourseIDs []string                 `json:"course_ids"`
	DateFrom  *time.Time               `json:"date_from"`
	DateTo    *time.Time               `json:"date_to"`
	Limit     int                      `json:"limit"`
	Offset    int                      `json:"offset"`
	SortBy    string                   `json:"sort_by"`
	SortOrder string                   `json:"sort_order"`
}

type NotificationFilters struct {
	ReceiverID *string                  `json:"receiver_id"`
	Type       *models.NotificationType `json:"type"`
	Limit      int                      `json:"limit"`
	Offset     int                      `json:"offset"`
}

type ProfileFilters struct {
	Query  string `json:"query"` // name, email or roll number
	Limit  int    `json:"limit"`
	Offset int    `json:"offset"`
}

// ===== ENTITY REPOSITORIES =====

type TeacherRepository interface {
	Create(ctx context.Context, profile *models.TeacherProfile) error
	GetByUserID(ctx context.Context, userID string) (*models.TeacherProfile, error)
	Update(ctx context.Context, profile *models.TeacherProfile) error
	List(ctx context.Context, filters ProfileFilters) ([]*models.TeacherProfile, int64, error)
	ExistsByUserID(ctx context.Context, userID string) (bool, error)
}

type StudentRepository interface {
	Create(ctx context.Context, profile *models.StudentProfile) error
	GetByUserID(ctx context.Context, userID string) (*models.StudentProfile, error)
	Update(ctx context.Context, profile *models.StudentProfile) error
	List(ctx context.Context, filters ProfileFilters) ([]*models.StudentProfile, int64, error)
	// ListByTeacher returns students with an ACTIVE enrollment in one of the
	// teacher's courses.
	ListByTeacher(ctx context.Context, teacherID string, filters ProfileFilters) ([]*models.StudentProfile, int64, error)
	ExistsByUserID(ctx context.Context, userID string) (bool, error)
}

type CourseRepository interface {
	Create(ctx context.Context, course *models.Course) error
	GetByID(ctx context.Context, id string) (*models.Course, error)
	Update(ctx context.Context, course *models.Course) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filters CourseFilters) ([]*models.Course, int64, error)
	ListEnrolledByStudent(ctx context.Context, studentID string, filters CourseFilters) ([]*models.Course, int64, error)
	CountActiveEnrollments(ctx context.Context, courseID string) (int64, error)
}

type EnrollmentRepository interface {
	Create(ctx context.Context, enrollment *models.Enrollment) error
	GetByID(ctx context.Context, id string) (*models.Enrollment, error)
	// UpdateStatus persists a status change for a single row.
	UpdateStatus(ctx context.Context, id string, status models.EnrollmentStatus) error
	List(ctx context.Context, filters EnrollmentFilters) ([]*models.Enrollment, int64, error)
	HasActive(ctx context.Context, studentID, courseID string) (bool, error)
}

type NotificationRepository interface {
	// Create appends a log row; the notification log is write-once.
	Create(ctx context.Context, notification *models.Notification) error
	ListByReceiver(ctx context.Context, receiverID string, filters NotificationFilters) ([]*models.Notification, int64, error)
}
