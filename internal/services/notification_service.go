package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"gorm.io/datatypes"

	"github.com/Abdul-Ahad2004/student-management-service/internal/events"
	"github.com/Abdul-Ahad2004/student-management-service/internal/mailer"
	"github.com/Abdul-Ahad2004/student-management-service/internal/models"
	"github.com/Abdul-Ahad2004/student-management-service/internal/repositories"
)

type notificationService struct {
	repo   repositories.Repository
	mailer mailer.Mailer
	logger *slog.Logger
}

func NewNotificationService(repo repositories.Repository, m mailer.Mailer, logger *slog.Logger) NotificationService {
	return &notificationService{
		repo:   repo,
		mailer: m,
		logger: logger,
	}
}

// Dispatch renders and delivers one event. Mail is best-effort; the log
// row is appended whether or not delivery succeeds. Dispatch never
// panics past its boundary and never retries.
func (s *notificationService) Dispatch(ctx context.Context, event events.Event) (delivered bool) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("dispatch panicked", "event_id", event.ID, "event_type", event.Type, "panic", r)
			delivered = false
		}
	}()

	switch event.Type {
	case events.EnrollmentCreated:
		return s.dispatchEnrollment(ctx, event, true)
	case events.EnrollmentDropped:
		return s.dispatchEnrollment(ctx, event, false)
	case events.CourseAssigned:
		return s.dispatchCourseAssignment(ctx, event)
	case events.AccountCreated:
		return s.dispatchAccountCreated(ctx, event)
	default:
		s.logger.Warn("unknown event type", "event_id", event.ID, "event_type", event.Type)
		return false
	}
}

func (s *notificationService) ListForUser(ctx context.Context, userID string, filters repositories.NotificationFilters) ([]*models.Notification, int64, error) {
	notifications, total, err := s.repo.Notification().ListByReceiver(ctx, userID, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, total, nil
}

func (s *notificationService) dispatchEnrollment(ctx context.Context, event events.Event, created bool) bool {
	var data events.EnrollmentEventData
	if !s.decodeData(event, &data) {
		return false
	}

	metadata := s.metadataFor(event, data)
	notificationType := models.NotificationEnrollment
	if !created {
		notificationType = models.NotificationRemoval
	}

	ok := true

	// Student copy. Sent whether or not a teacher is assigned.
	var studentSubject, studentMessage string
	if created {
		studentSubject = fmt.Sprintf("Enrolled in Course: %s", data.Course.Title)
		if data.Teacher != nil {
			studentMessage = fmt.Sprintf(
				"Dear %s, you have been successfully enrolled in the course '%s'. The course is taught by %s. Course Duration: %d weeks. Schedule: %s",
				data.Student.Name, data.Course.Title, data.Teacher.Name, data.Course.DurationWeeks, data.Course.Schedule)
		} else {
			studentMessage = fmt.Sprintf(
				"Dear %s, you have been successfully enrolled in the course '%s'. Course Duration: %d weeks. Schedule: %s",
				data.Student.Name, data.Course.Title, data.Course.DurationWeeks, data.Course.Schedule)
		}
	} else {
		studentSubject = fmt.Sprintf("Removed from Course: %s", data.Course.Title)
		studentMessage = fmt.Sprintf(
			"Dear %s, you have been removed from the course '%s'. If you have any questions, please contact the administration.",
			data.Student.Name, data.Course.Title)
	}
	ok = s.deliverAndLog(ctx, data.Student, studentSubject, studentMessage, notificationType, metadata) && ok

	// Teacher copy, only when a teacher was assigned at event time.
	if data.Teacher != nil {
		var teacherSubject, teacherMessage string
		if created {
			teacherSubject = fmt.Sprintf("New Student Enrolled: %s", data.Course.Title)
			teacherMessage = fmt.Sprintf(
				"Dear %s, a new student '%s' (Roll No: %s) has been enrolled in your course '%s'.",
				data.Teacher.Name, data.Student.Name, data.RollNumber, data.Course.Title)
		} else {
			teacherSubject = fmt.Sprintf("Student Removed: %s", data.Course.Title)
			teacherMessage = fmt.Sprintf(
				"Dear %s, student '%s' (Roll No: %s) has been removed from your course '%s'.",
				data.Teacher.Name, data.Student.Name, data.RollNumber, data.Course.Title)
		}
		ok = s.deliverAndLog(ctx, *data.Teacher, teacherSubject, teacherMessage, notificationType, metadata) && ok
	}

	return ok
}

func (s *notificationService) dispatchCourseAssignment(ctx context.Context, event events.Event) bool {
	var data events.CourseAssignedEventData
	if !s.decodeData(event, &data) {
		return false
	}

	subject := fmt.Sprintf("Course Assignment: %s", data.Course.Title)
	message := fmt.Sprintf(
		"Dear %s, you have been assigned to teach the course '%s'. Course Description: %s. Duration: %d weeks. Schedule: %s",
		data.Teacher.Name, data.Course.Title, data.Course.Description, data.Course.DurationWeeks, data.Course.Schedule)

	return s.deliverAndLog(ctx, data.Teacher, subject, message, models.NotificationCourseAssignment, s.metadataFor(event, data))
}

func (s *notificationService) dispatchAccountCreated(ctx context.Context, event events.Event) bool {
	var data events.AccountCreatedEventData
	if !s.decodeData(event, &data) {
		return false
	}

	subject := "Welcome to Student Management System - Account Created"

	var message string
	if data.GeneratedPassword != "" {
		message = fmt.Sprintf(
			"Dear %s, your account has been created successfully. Your login credentials are:\nEmail: %s\nPassword: %s\nRole: %s\n\nPlease login and change your password for security.",
			data.User.Name, data.User.Email, data.GeneratedPassword, data.Role)
	} else {
		message = fmt.Sprintf(
			"Dear %s, your account has been created successfully. Your login email is: %s. Role: %s. Please contact the administrator for your password.",
			data.User.Name, data.User.Email, data.Role)
	}

	return s.deliverAndLog(ctx, data.User, subject, message, models.NotificationAccountCreated, s.metadataFor(event, data))
}

// deliverAndLog sends one mail and appends the log row. The row is
// written even when the send fails; only a failed append makes the
// dispatch report failure for that recipient.
func (s *notificationService) deliverAndLog(ctx context.Context, receiver events.PersonRef, subject, message string, notificationType models.NotificationType, metadata datatypes.JSON) bool {
	ok := true

	if err := s.mailer.Send(receiver.Email, subject, message); err != nil {
		s.logger.Error("mail delivery failed", "receiver", receiver.Email, "subject", subject, "error", err)
		ok = false
	}

	notification := &models.Notification{
		ReceiverID: receiver.ID,
		Message:    message,
		Type:       notificationType,
		Metadata:   metadata,
	}
	if err := s.repo.Notification().Create(ctx, notification); err != nil {
		s.logger.Error("failed to append notification log", "receiver_id", receiver.ID, "type", notificationType, "error", err)
		ok = false
	}

	return ok
}

// decodeData extracts the typed payload. Local publishing hands over the
// struct directly; transport publishing hands over decoded JSON, which
// round-trips through json into the destination type.
func (s *notificationService) decodeData(event events.Event, dest interface{}) bool {
	switch typed := event.Data.(type) {
	case events.EnrollmentEventData:
		if d, ok := dest.(*events.EnrollmentEventData); ok {
			*d = typed
			return true
		}
	case events.CourseAssignedEventData:
		if d, ok := dest.(*events.CourseAssignedEventData); ok {
			*d = typed
			return true
		}
	case events.AccountCreatedEventData:
		if d, ok := dest.(*events.AccountCreatedEventData); ok {
			*d = typed
			return true
		}
	}

	raw, err := json.Marshal(event.Data)
	if err != nil {
		s.logger.Error("failed to encode event data", "event_id", event.ID, "error", err)
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		s.logger.Error("failed to decode event data", "event_id", event.ID, "event_type", event.Type, "error", err)
		return false
	}
	return true
}

// metadataFor snapshots the event payload for the log row. The generated
// password never serializes, so it never reaches the table.
func (s *notificationService) metadataFor(event events.Event, data interface{}) datatypes.JSON {
	snapshot := map[string]interface{}{
		"event_id":   event.ID,
		"event_type": event.Type,
		"source":     event.Source,
		"version":    event.Version,
		"data":       data,
	}
	raw, err := json.Marshal(snapshot)
	if err != nil {
		s.logger.Warn("failed to marshal event metadata", "event_id", event.ID, "error", err)
		return nil
	}
	return datatypes.JSON(raw)
}
