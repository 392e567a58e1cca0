package validator

import (
	"github.com/Abdul-Ahad2004/student-management-service/internal/models"
)

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UserCreateRequest represents the admin user-creation request.
// Password is optional; when absent the service generates one.
type UserCreateRequest struct {
	Email    string          `json:"email" validate:"required,email"`
	Name     string          `json:"name" validate:"required,min=1,max=150"`
	Role     models.UserRole `json:"role" validate:"required,user_role"`
	Password *string         `json:"password" validate:"omitempty,min=5,max=128"`
}

// UserUpdateRequest represents the self-service profile update
type UserUpdateRequest struct {
	Name *string `json:"name" validate:"omitempty,min=1,max=150"`
}

// ChangePasswordRequest represents a password change for the current user
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=5,max=128"`
}

// TeacherProfileUpdateRequest represents teacher profile updates
type TeacherProfileUpdateRequest struct {
	Phone           *string `json:"phone" validate:"omitempty,max=20"`
	Address         *string `json:"address" validate:"omitempty,max=500"`
	Qualification   *string `json:"qualification" validate:"omitempty,max=200"`
	ExperienceYears *int    `json:"experience_years" validate:"omitempty,min=0,max=60"`
}

// StudentProfileUpdateRequest represents student profile updates
type StudentProfileUpdateRequest struct {
	Phone   *string `json:"phone" validate:"omitempty,max=20"`
	Address *string `json:"address" validate:"omitempty,max=500"`
}

// CourseCreateRequest represents the course creation request
type CourseCreateRequest struct {
	Title         string  `json:"title" validate:"required,course_title"`
	Description   string  `json:"description" validate:"omitempty,max=1000"`
	DurationWeeks int     `json:"duration_weeks" validate:"required,course_duration"`
	Schedule      string  `json:"schedule" validate:"required,max=200"`
	TeacherID     *string `json:"teacher_id" validate:"omitempty,uuid"`
}

// CourseUpdateRequest represents the course update request.
// TeacherID distinguishes absent (keep) from explicit null (unassign) via
// the Set flag populated by the handler.
type CourseUpdateRequest struct {
	Title         *string `json:"title" validate:"omitempty,course_title"`
	Description   *string `json:"description" validate:"omitempty,max=1000"`
	DurationWeeks *int    `json:"duration_weeks" validate:"omitempty,course_duration"`
	Schedule      *string `json:"schedule" validate:"omitempty,max=200"`
	TeacherID     *string `json:"teacher_id" validate:"omitempty,uuid"`
	TeacherIDSet  bool    `json:"-"`
}

// EnrollmentCreateRequest represents the enrollment creation request
type EnrollmentCreateRequest struct {
	StudentID string `json:"student_id" validate:"required,uuid"`
	CourseID  string `json:"course_id" validate:"required,uuid"`
}
