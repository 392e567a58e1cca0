package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type EnrollmentStatus string

const (
	EnrollmentActive  EnrollmentStatus = "ACTIVE"
	EnrollmentDropped EnrollmentStatus = "DROPPED"
)

// Enrollment links a student to a course. Rows are never hard-deleted;
// dropping sets the status to DROPPED and re-enrollment creates a new row.
// The partial unique index serializes concurrent creates for the same
// (student, course) pair at the storage layer: only one ACTIVE row may exist.
type Enrollment struct {
	ID        string           `json:"id" gorm:"primaryKey;size:36"`
	StudentID string           `json:"student_id" gorm:"not null;size:36;uniqueIndex:idx_enrollments_active,where:status = 'ACTIVE'"`
	CourseID  string           `json:"course_id" gorm:"not null;size:36;uniqueIndex:idx_enrollments_active,where:status = 'ACTIVE'"`
	Status    EnrollmentStatus `json:"status" gorm:"not null;size:20;default:ACTIVE;index"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Student StudentProfile `json:"student" gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE"`
	Course  Course         `json:"course" gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE"`
}

func (Enrollment) TableName() string {
	return "enrollments"
}

func (e *Enrollment) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}
