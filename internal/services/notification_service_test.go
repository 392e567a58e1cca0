package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Abdul-Ahad2004/student-management-service/internal/events"
	"github.com/Abdul-Ahad2004/student-management-service/internal/models"
	"github.com/Abdul-Ahad2004/student-management-service/internal/repositories"
)

func enrollmentEventData(withTeacher bool) events.EnrollmentEventData {
	data := events.EnrollmentEventData{
		EnrollmentID: "e1",
		Student: events.PersonRef{
			ID:    student1ID,
			Name:  "Ali Hassan",
			Email: "ali@school.edu",
		},
		RollNumber: "STU1A2B3C4D",
		Course: events.CourseRef{
			ID:            course1ID,
			Title:         "Data Structures",
			Description:   "Lists, trees and graphs",
			DurationWeeks: 8,
			Schedule:      "Mon/Wed 10:00",
		},
	}
	if withTeacher {
		data.Teacher = &events.PersonRef{
			ID:    teacher1ID,
			Name:  "Dr. Sarah Ahmed",
			Email: "sarah@school.edu",
		}
	}
	return data
}

func TestNotificationServiceDispatchEnrollment(t *testing.T) {
	ctx := context.Background()

	t.Run("EnrollmentWithTeacher", func(t *testing.T) {
		state := newFakeState()
		m := &fakeMailer{}
		service := &notificationService{repo: newFakeRepository(state), mailer: m, logger: newTestLogger()}

		delivered := service.Dispatch(ctx, events.NewEvent(events.EnrollmentCreated, enrollmentEventData(true)))
		if !delivered {
			t.Fatal("Expected dispatch to report success")
		}

		rows := notificationsOfType(state, models.NotificationEnrollment)
		if len(rows) != 2 {
			t.Fatalf("Expected 2 log rows, got %d", len(rows))
		}

		var studentRow, teacherRow *models.Notification
		for _, row := range rows {
			switch row.ReceiverID {
			case student1ID:
				studentRow = row
			case teacher1ID:
				teacherRow = row
			}
		}
		if studentRow == nil || teacherRow == nil {
			t.Fatalf("Expected rows for both student and teacher, got %+v", rows)
		}
		if !strings.Contains(studentRow.Message, "taught by Dr. Sarah Ahmed") {
			t.Errorf("Student message missing teacher mention: %s", studentRow.Message)
		}
		if !strings.Contains(teacherRow.Message, "(Roll No: STU1A2B3C4D)") {
			t.Errorf("Teacher message missing roll number: %s", teacherRow.Message)
		}

		if len(m.Sent()) != 2 {
			t.Errorf("Expected 2 mails, got %d", len(m.Sent()))
		}
	})

	t.Run("EnrollmentWithoutTeacher", func(t *testing.T) {
		state := newFakeState()
		m := &fakeMailer{}
		service := &notificationService{repo: newFakeRepository(state), mailer: m, logger: newTestLogger()}

		delivered := service.Dispatch(ctx, events.NewEvent(events.EnrollmentCreated, enrollmentEventData(false)))
		if !delivered {
			t.Fatal("Expected dispatch to report success")
		}

		rows := notificationsOfType(state, models.NotificationEnrollment)
		if len(rows) != 1 {
			t.Fatalf("Expected 1 log row when no teacher is assigned, got %d", len(rows))
		}
		if strings.Contains(rows[0].Message, "taught by") {
			t.Errorf("Unassigned course must not mention a teacher: %s", rows[0].Message)
		}
	})

	t.Run("Removal", func(t *testing.T) {
		state := newFakeState()
		m := &fakeMailer{}
		service := &notificationService{repo: newFakeRepository(state), mailer: m, logger: newTestLogger()}

		delivered := service.Dispatch(ctx, events.NewEvent(events.EnrollmentDropped, enrollmentEventData(true)))
		if !delivered {
			t.Fatal("Expected dispatch to report success")
		}

		rows := notificationsOfType(state, models.NotificationRemoval)
		if len(rows) != 2 {
			t.Fatalf("Expected 2 REMOVAL rows, got %d", len(rows))
		}
		for _, row := range rows {
			if !strings.Contains(row.Message, "removed from") {
				t.Errorf("Removal message is off: %s", row.Message)
			}
		}
	})

	t.Run("MailFailureStillLogs", func(t *testing.T) {
		state := newFakeState()
		m := &fakeMailer{failErr: errors.New("smtp unreachable")}
		service := &notificationService{repo: newFakeRepository(state), mailer: m, logger: newTestLogger()}

		delivered := service.Dispatch(ctx, events.NewEvent(events.EnrollmentCreated, enrollmentEventData(true)))
		if delivered {
			t.Error("Expected dispatch to report failure when mail delivery fails")
		}

		rows := notificationsOfType(state, models.NotificationEnrollment)
		if len(rows) != 2 {
			t.Errorf("Log rows must be written despite mail failure, got %d", len(rows))
		}
	})

	t.Run("LogAppendFailure", func(t *testing.T) {
		state := newFakeState()
		state.notificationCreateErr = errors.New("database down")
		service := &notificationService{repo: newFakeRepository(state), mailer: &fakeMailer{}, logger: newTestLogger()}

		delivered := service.Dispatch(ctx, events.NewEvent(events.EnrollmentCreated, enrollmentEventData(true)))
		if delivered {
			t.Error("Expected dispatch to report failure when the log append fails")
		}
	})
}

func TestNotificationServiceDispatchCourseAssignment(t *testing.T) {
	ctx := context.Background()
	state := newFakeState()
	m := &fakeMailer{}
	service := &notificationService{repo: newFakeRepository(state), mailer: m, logger: newTestLogger()}

	data := events.CourseAssignedEventData{
		Course: events.CourseRef{
			ID:            course1ID,
			Title:         "Data Structures",
			Description:   "Lists, trees and graphs",
			DurationWeeks: 8,
			Schedule:      "Mon/Wed 10:00",
		},
		Teacher: events.PersonRef{ID: teacher1ID, Name: "Dr. Sarah Ahmed", Email: "sarah@school.edu"},
	}

	if !service.Dispatch(ctx, events.NewEvent(events.CourseAssigned, data)) {
		t.Fatal("Expected dispatch to report success")
	}

	rows := notificationsOfType(state, models.NotificationCourseAssignment)
	if len(rows) != 1 {
		t.Fatalf("Expected 1 COURSE_ASSIGNMENT row, got %d", len(rows))
	}
	if rows[0].ReceiverID != teacher1ID {
		t.Errorf("Expected teacher as receiver, got %s", rows[0].ReceiverID)
	}
	if !strings.Contains(rows[0].Message, "assigned to teach the course 'Data Structures'") {
		t.Errorf("Assignment message is off: %s", rows[0].Message)
	}
}

func TestNotificationServiceDispatchAccountCreated(t *testing.T) {
	ctx := context.Background()

	t.Run("WithGeneratedPassword", func(t *testing.T) {
		state := newFakeState()
		m := &fakeMailer{}
		service := &notificationService{repo: newFakeRepository(state), mailer: m, logger: newTestLogger()}

		data := events.AccountCreatedEventData{
			User:              events.PersonRef{ID: student1ID, Name: "Ali Hassan", Email: "ali@school.edu"},
			Role:              string(models.RoleStudent),
			RollNumber:        "STU1A2B3C4D",
			GeneratedPassword: "s3cretpass12",
		}

		if !service.Dispatch(ctx, events.NewEvent(events.AccountCreated, data)) {
			t.Fatal("Expected dispatch to report success")
		}

		sent := m.Sent()
		if len(sent) != 1 {
			t.Fatalf("Expected 1 mail, got %d", len(sent))
		}
		if !strings.Contains(sent[0].Body, "Password: s3cretpass12") {
			t.Errorf("Credential mail missing the generated password: %s", sent[0].Body)
		}

		rows := notificationsOfType(state, models.NotificationAccountCreated)
		if len(rows) != 1 {
			t.Fatalf("Expected 1 ACCOUNT_CREATED row, got %d", len(rows))
		}
		// The password reaches mail only; the log row metadata must not
		// carry it.
		if strings.Contains(string(rows[0].Metadata), "s3cretpass12") {
			t.Error("Generated password leaked into the notification log metadata")
		}
	})

	t.Run("WithoutGeneratedPassword", func(t *testing.T) {
		state := newFakeState()
		m := &fakeMailer{}
		service := &notificationService{repo: newFakeRepository(state), mailer: m, logger: newTestLogger()}

		data := events.AccountCreatedEventData{
			User: events.PersonRef{ID: teacher1ID, Name: "Dr. Sarah Ahmed", Email: "sarah@school.edu"},
			Role: string(models.RoleTeacher),
		}

		if !service.Dispatch(ctx, events.NewEvent(events.AccountCreated, data)) {
			t.Fatal("Expected dispatch to report success")
		}

		sent := m.Sent()
		if len(sent) != 1 {
			t.Fatalf("Expected 1 mail, got %d", len(sent))
		}
		if strings.Contains(sent[0].Body, "Password:") {
			t.Errorf("Mail must not contain a password block: %s", sent[0].Body)
		}
		if !strings.Contains(sent[0].Body, "contact the administrator") {
			t.Errorf("Expected the administrator hint, got: %s", sent[0].Body)
		}
	})
}

func TestNotificationServiceDispatchUnknownType(t *testing.T) {
	state := newFakeState()
	service := &notificationService{repo: newFakeRepository(state), mailer: &fakeMailer{}, logger: newTestLogger()}

	if service.Dispatch(context.Background(), events.NewEvent("something.else", nil)) {
		t.Error("Unknown event types must report failure")
	}
	if len(state.notifications) != 0 {
		t.Errorf("Unknown event must not write log rows, got %d", len(state.notifications))
	}
}

func TestNotificationServiceDispatchDecodedJSON(t *testing.T) {
	// A broker subscriber hands over the payload as decoded JSON rather
	// than the typed struct; dispatch must still render it.
	state := newFakeState()
	m := &fakeMailer{}
	service := &notificationService{repo: newFakeRepository(state), mailer: m, logger: newTestLogger()}

	payload := map[string]interface{}{
		"enrollment_id": "e1",
		"student":       map[string]interface{}{"id": student1ID, "name": "Ali Hassan", "email": "ali@school.edu"},
		"roll_number":   "STU1A2B3C4D",
		"course": map[string]interface{}{
			"id": course1ID, "title": "Data Structures", "duration_weeks": 8, "schedule": "Mon/Wed 10:00",
		},
	}

	if !service.Dispatch(context.Background(), events.NewEvent(events.EnrollmentCreated, payload)) {
		t.Fatal("Expected dispatch of decoded JSON payload to succeed")
	}
	rows := notificationsOfType(state, models.NotificationEnrollment)
	if len(rows) != 1 {
		t.Fatalf("Expected 1 log row, got %d", len(rows))
	}
	if !strings.Contains(rows[0].Message, "Data Structures") {
		t.Errorf("Rendered message is off: %s", rows[0].Message)
	}
}

func TestNotificationServiceListForUser(t *testing.T) {
	ctx := context.Background()
	state := newFakeState()
	state.notifications = append(state.notifications,
		&models.Notification{ID: "n1", ReceiverID: student1ID, Type: models.NotificationEnrollment, Message: "enrolled"},
		&models.Notification{ID: "n2", ReceiverID: student1ID, Type: models.NotificationRemoval, Message: "removed"},
		&models.Notification{ID: "n3", ReceiverID: teacher1ID, Type: models.NotificationEnrollment, Message: "new student"},
	)
	service := &notificationService{repo: newFakeRepository(state), mailer: &fakeMailer{}, logger: newTestLogger()}

	t.Run("OwnRowsOnly", func(t *testing.T) {
		rows, total, err := service.ListForUser(ctx, student1ID, repositories.NotificationFilters{})
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if total != 2 || len(rows) != 2 {
			t.Errorf("Expected 2 rows for the student, got %d", len(rows))
		}
	})

	t.Run("TypeFilter", func(t *testing.T) {
		removal := models.NotificationRemoval
		rows, _, err := service.ListForUser(ctx, student1ID, repositories.NotificationFilters{Type: &removal})
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if len(rows) != 1 || rows[0].ID != "n2" {
			t.Errorf("Expected only the REMOVAL row, got %+v", rows)
		}
	})
}
