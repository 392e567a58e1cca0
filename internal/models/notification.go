package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type NotificationType string

const (
	NotificationEnrollment       NotificationType = "ENROLLMENT"
	NotificationRemoval          NotificationType = "REMOVAL"
	NotificationCourseAssignment NotificationType = "COURSE_ASSIGNMENT"
	NotificationAccountCreated   NotificationType = "ACCOUNT_CREATED"
)

// Notification is the append-only log of email notifications. Rows are
// write-once: no updates, no deletes in normal operation.
type Notification struct {
	ID         string           `json:"id" gorm:"primaryKey;size:36"`
	ReceiverID string           `json:"receiver_id" gorm:"not null;size:36;index"`
	Message    string           `json:"message" gorm:"type:text;not null"`
	Type       NotificationType `json:"type" gorm:"not null;size:30;index"`
	Metadata   datatypes.JSON   `json:"metadata,omitempty"`
	SentAt     time.Time        `json:"sent_at" gorm:"autoCreateTime"`

	// Relations
	Receiver User `json:"receiver" gorm:"foreignKey:ReceiverID;constraint:OnDelete:CASCADE"`
}

func (Notification) TableName() string {
	return "notifications"
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	return nil
}
