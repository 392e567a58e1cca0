package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserRole string
type Role = UserRole // Alias for compatibility

const (
	RoleAdmin   UserRole = "ADMIN"
	RoleTeacher UserRole = "TEACHER"
	RoleStudent UserRole = "STUDENT"
)

// Valid reports whether the role is one of the known roles.
func (r UserRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleTeacher, RoleStudent:
		return true
	}
	return false
}

type User struct {
	ID           string   `json:"id" gorm:"primaryKey;size:36"`
	Email        string   `json:"email" gorm:"uniqueIndex;not null;size:255"`
	Name         string   `json:"name" gorm:"not null;size:255"`
	Role         UserRole `json:"role" gorm:"not null;size:20;index"`
	PasswordHash string   `json:"-" gorm:"not null;size:255"`

	// Status
	IsActive bool `json:"is_active" gorm:"default:true"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	TeacherProfile *TeacherProfile `json:"teacher_profile,omitempty" gorm:"foreignKey:UserID"`
	StudentProfile *StudentProfile `json:"student_profile,omitempty" gorm:"foreignKey:UserID"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// TeacherProfile is the 1:1 extension of a User with role TEACHER.
type TeacherProfile struct {
	UserID          string  `json:"user_id" gorm:"primaryKey;size:36"`
	Phone           *string `json:"phone" gorm:"size:20"`
	Address         *string `json:"address" gorm:"type:text"`
	Qualification   *string `json:"qualification" gorm:"size:255"`
	ExperienceYears int     `json:"experience_years" gorm:"default:0"`

	// Relations
	User    User     `json:"user" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Courses []Course `json:"courses,omitempty" gorm:"foreignKey:TeacherID"`
}

func (TeacherProfile) TableName() string {
	return "teacher_profiles"
}

// StudentProfile is the 1:1 extension of a User with role STUDENT.
type StudentProfile struct {
	UserID         string  `json:"user_id" gorm:"primaryKey;size:36"`
	RollNumber     string  `json:"roll_number" gorm:"uniqueIndex;not null;size:50"`
	Batch          string  `json:"batch" gorm:"size:50"`
	EnrollmentYear int     `json:"enrollment_year"`
	Phone          *string `json:"phone" gorm:"size:20"`
	Address        *string `json:"address" gorm:"type:text"`

	// Relations
	User        User         `json:"user" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Enrollments []Enrollment `json:"enrollments,omitempty" gorm:"foreignKey:StudentID"`
}

func (StudentProfile) TableName() string {
	return "student_profiles"
}
