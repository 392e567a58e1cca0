package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType identifies a domain event.
type EventType string

const (
	EnrollmentCreated EventType = "enrollment.created"
	EnrollmentDropped EventType = "enrollment.dropped"
	CourseAssigned    EventType = "course.teacher_assigned"
	AccountCreated    EventType = "account.created"
)

const (
	EventSource  = "student-management-service"
	EventVersion = "1.0"
)

// Event is the envelope published for every domain event.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Source    string      `json:"source"`
	Version   string      `json:"version"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// NewEvent builds an event envelope with a fresh ID and timestamp.
func NewEvent(eventType EventType, data interface{}) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Source:    EventSource,
		Version:   EventVersion,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

// PersonRef identifies a user in an event payload.
type PersonRef struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// CourseRef identifies a course in an event payload, carrying the fields
// notification rendering needs.
type CourseRef struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Description   string `json:"description,omitempty"`
	DurationWeeks int    `json:"duration_weeks"`
	Schedule      string `json:"schedule,omitempty"`
}

// EnrollmentEventData is the payload for enrollment.created and
// enrollment.dropped. Fields are denormalized at emit time so the
// dispatcher renders from the state the event observed, not from a later
// read.
type EnrollmentEventData struct {
	EnrollmentID string     `json:"enrollment_id"`
	Student      PersonRef  `json:"student"`
	RollNumber   string     `json:"roll_number"`
	Course       CourseRef  `json:"course"`
	Teacher      *PersonRef `json:"teacher,omitempty"`
}

// CourseAssignedEventData is the payload for course.teacher_assigned.
type CourseAssignedEventData struct {
	Course  CourseRef `json:"course"`
	Teacher PersonRef `json:"teacher"`
}

// AccountCreatedEventData is the payload for account.created.
// GeneratedPassword is present only when the service generated the
// credential; it is delivered by mail and never serialized into the
// notification log.
type AccountCreatedEventData struct {
	User              PersonRef `json:"user"`
	Role              string    `json:"role"`
	RollNumber        string    `json:"roll_number,omitempty"`
	GeneratedPassword string    `json:"-"`
}
