package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Course struct {
	ID            string  `json:"id" gorm:"primaryKey;size:36"`
	Title         string  `json:"title" gorm:"not null;size:255;index"`
	Description   string  `json:"description" gorm:"type:text"`
	DurationWeeks int     `json:"duration_weeks" gorm:"not null"`
	Schedule      string  `json:"schedule" gorm:"size:500"`
	TeacherID     *string `json:"teacher_id" gorm:"size:36;index"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Teacher     *TeacherProfile `json:"teacher,omitempty" gorm:"foreignKey:TeacherID;constraint:OnDelete:SET NULL"`
	Enrollments []Enrollment    `json:"enrollments,omitempty" gorm:"foreignKey:CourseID"`

	// Computed fields (not stored)
	EnrolledStudentsCount int `json:"enrolled_students_count" gorm:"-"`
}

func (Course) TableName() string {
	return "courses"
}

func (c *Course) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}
