package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Abdul-Ahad2004/student-management-service/internal/events"
	"github.com/Abdul-Ahad2004/student-management-service/internal/models"
	"github.com/Abdul-Ahad2004/student-management-service/internal/repositories"
	"github.com/Abdul-Ahad2004/student-management-service/internal/validator"
)

func newEnrollmentTestService(t *testing.T, state *fakeState, publisher events.EventPublisher) *enrollmentService {
	t.Helper()
	repo := newFakeRepository(state)
	return &enrollmentService{
		repo:      repo,
		logger:    newTestLogger(),
		validator: newTestValidator(t),
		policy:    NewAccessPolicy(repo),
		publisher: publisher,
		now:       time.Now,
	}
}

func seedEnrollmentWorld(state *fakeState) {
	state.addUser(adminID, "Admin", "admin@school.edu", models.RoleAdmin, "")
	state.addTeacher(teacher1ID, "Dr. Sarah Ahmed", "sarah@school.edu")
	state.addTeacher(teacher2ID, "Prof. Bilal Khan", "bilal@school.edu")
	state.addStudent(student1ID, "Ali Hassan", "ali@school.edu", "STU1A2B3C4D")
	state.addStudent(student2ID, "Fatima Noor", "fatima@school.edu", "STU5E6F7A8B")
	state.addCourse(course1ID, "Data Structures", strPtr(teacher1ID))
	state.addCourse(course2ID, "Operating Systems", strPtr(teacher2ID))
}

func TestEnrollmentServiceCreate(t *testing.T) {
	ctx := context.Background()
	admin := Actor{ID: adminID, Role: models.RoleAdmin}

	t.Run("AdminCreatesEnrollment", func(t *testing.T) {
		state := newFakeState()
		seedEnrollmentWorld(state)
		publisher := events.NewMockEventPublisher(newTestLogger())
		service := newEnrollmentTestService(t, state, publisher)

		enrollment, err := service.Create(ctx, &validator.EnrollmentCreateRequest{
			StudentID: student1ID,
			CourseID:  course1ID,
		}, admin)
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if enrollment.Status != models.EnrollmentActive {
			t.Errorf("Expected status ACTIVE, got %s", enrollment.Status)
		}
		if enrollment.StudentID != student1ID || enrollment.CourseID != course1ID {
			t.Errorf("Enrollment row has wrong identifiers: %+v", enrollment)
		}

		published := publisher.GetPublishedEvents()
		if len(published) != 1 {
			t.Fatalf("Expected 1 published event, got %d", len(published))
		}
		if published[0].Type != events.EnrollmentCreated {
			t.Errorf("Expected event type %s, got %s", events.EnrollmentCreated, published[0].Type)
		}
		data, ok := published[0].Data.(events.EnrollmentEventData)
		if !ok {
			t.Fatalf("Expected EnrollmentEventData payload, got %T", published[0].Data)
		}
		if data.Student.ID != student1ID || data.Course.ID != course1ID {
			t.Errorf("Event payload mismatched: %+v", data)
		}
		if data.Teacher == nil || data.Teacher.ID != teacher1ID {
			t.Errorf("Expected teacher ref in payload, got %+v", data.Teacher)
		}
	})

	t.Run("AssignedTeacherCreatesEnrollment", func(t *testing.T) {
		state := newFakeState()
		seedEnrollmentWorld(state)
		publisher := events.NewMockEventPublisher(newTestLogger())
		service := newEnrollmentTestService(t, state, publisher)

		_, err := service.Create(ctx, &validator.EnrollmentCreateRequest{
			StudentID: student1ID,
			CourseID:  course1ID,
		}, Actor{ID: teacher1ID, Role: models.RoleTeacher})
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
	})

	t.Run("TeacherOfOtherCourseDenied", func(t *testing.T) {
		state := newFakeState()
		seedEnrollmentWorld(state)
		publisher := events.NewMockEventPublisher(newTestLogger())
		service := newEnrollmentTestService(t, state, publisher)

		_, err := service.Create(ctx, &validator.EnrollmentCreateRequest{
			StudentID: student1ID,
			CourseID:  course1ID,
		}, Actor{ID: teacher2ID, Role: models.RoleTeacher})
		var permErr *PermissionError
		if !errors.As(err, &permErr) {
			t.Fatalf("Expected PermissionError, got %v", err)
		}
		if len(publisher.GetPublishedEvents()) != 0 {
			t.Error("No event should be published on permission denial")
		}
	})

	t.Run("StudentActorDenied", func(t *testing.T) {
		state := newFakeState()
		seedEnrollmentWorld(state)
		service := newEnrollmentTestService(t, state, events.NewMockEventPublisher(newTestLogger()))

		_, err := service.Create(ctx, &validator.EnrollmentCreateRequest{
			StudentID: student1ID,
			CourseID:  course1ID,
		}, Actor{ID: student1ID, Role: models.RoleStudent})
		var permErr *PermissionError
		if !errors.As(err, &permErr) {
			t.Fatalf("Expected PermissionError, got %v", err)
		}
	})

	t.Run("DuplicateActiveEnrollment", func(t *testing.T) {
		state := newFakeState()
		seedEnrollmentWorld(state)
		state.addEnrollment("e1", student1ID, course1ID, models.EnrollmentActive, time.Now())
		service := newEnrollmentTestService(t, state, events.NewMockEventPublisher(newTestLogger()))

		_, err := service.Create(ctx, &validator.EnrollmentCreateRequest{
			StudentID: student1ID,
			CourseID:  course1ID,
		}, admin)
		if !errors.Is(err, ErrAlreadyEnrolled) {
			t.Errorf("Expected ErrAlreadyEnrolled, got %v", err)
		}
	})

	t.Run("ReEnrollAfterDrop", func(t *testing.T) {
		state := newFakeState()
		seedEnrollmentWorld(state)
		state.addEnrollment("e1", student1ID, course1ID, models.EnrollmentDropped, time.Now().Add(-48*time.Hour))
		service := newEnrollmentTestService(t, state, events.NewMockEventPublisher(newTestLogger()))

		enrollment, err := service.Create(ctx, &validator.EnrollmentCreateRequest{
			StudentID: student1ID,
			CourseID:  course1ID,
		}, admin)
		if err != nil {
			t.Fatalf("Expected re-enrollment to succeed, got %v", err)
		}
		if enrollment.ID == "e1" {
			t.Error("Re-enrollment must create a new row, not reuse the dropped one")
		}
	})

	t.Run("CourseNotFound", func(t *testing.T) {
		state := newFakeState()
		seedEnrollmentWorld(state)
		service := newEnrollmentTestService(t, state, events.NewMockEventPublisher(newTestLogger()))

		_, err := service.Create(ctx, &validator.EnrollmentCreateRequest{
			StudentID: student1ID,
			CourseID:  "7a8b9c0d-1e2f-4a4b-9c5d-7e8f9a0b1c2d",
		}, admin)
		if !errors.Is(err, ErrCourseNotFound) {
			t.Errorf("Expected ErrCourseNotFound, got %v", err)
		}
	})

	t.Run("StudentNotFound", func(t *testing.T) {
		state := newFakeState()
		seedEnrollmentWorld(state)
		service := newEnrollmentTestService(t, state, events.NewMockEventPublisher(newTestLogger()))

		_, err := service.Create(ctx, &validator.EnrollmentCreateRequest{
			StudentID: "7a8b9c0d-1e2f-4a4b-9c5d-7e8f9a0b1c2d",
			CourseID:  course1ID,
		}, admin)
		if !errors.Is(err, ErrStudentNotFound) {
			t.Errorf("Expected ErrStudentNotFound, got %v", err)
		}
	})

	t.Run("InvalidRequest", func(t *testing.T) {
		state := newFakeState()
		seedEnrollmentWorld(state)
		service := newEnrollmentTestService(t, state, events.NewMockEventPublisher(newTestLogger()))

		_, err := service.Create(ctx, &validator.EnrollmentCreateRequest{
			StudentID: "not-a-uuid",
			CourseID:  course1ID,
		}, admin)
		if err == nil {
			t.Fatal("Expected validation error")
		}
	})
}

func TestEnrollmentServiceDrop(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	setup := func(t *testing.T, nowOffset time.Duration) (*enrollmentService, *fakeState, *events.MockEventPublisher) {
		state := newFakeState()
		seedEnrollmentWorld(state)
		state.addEnrollment("e1", student1ID, course1ID, models.EnrollmentActive, base)
		publisher := events.NewMockEventPublisher(newTestLogger())
		service := newEnrollmentTestService(t, state, publisher)
		service.now = func() time.Time { return base.Add(nowOffset) }
		return service, state, publisher
	}

	t.Run("StudentDropsInsideWindow", func(t *testing.T) {
		service, state, publisher := setup(t, 6*24*time.Hour)

		err := service.Drop(ctx, "e1", Actor{ID: student1ID, Role: models.RoleStudent})
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if state.enrollments["e1"].Status != models.EnrollmentDropped {
			t.Errorf("Expected DROPPED, got %s", state.enrollments["e1"].Status)
		}

		published := publisher.GetPublishedEvents()
		if len(published) != 1 || published[0].Type != events.EnrollmentDropped {
			t.Fatalf("Expected one enrollment.dropped event, got %+v", published)
		}
	})

	t.Run("StudentDropsAtWindowBoundary", func(t *testing.T) {
		// Exactly seven days is still inside the window.
		service, _, _ := setup(t, DropWindow)

		if err := service.Drop(ctx, "e1", Actor{ID: student1ID, Role: models.RoleStudent}); err != nil {
			t.Errorf("Expected boundary drop to succeed, got %v", err)
		}
	})

	t.Run("StudentDropAfterWindow", func(t *testing.T) {
		service, state, publisher := setup(t, 8*24*time.Hour)

		err := service.Drop(ctx, "e1", Actor{ID: student1ID, Role: models.RoleStudent})
		if !errors.Is(err, ErrDropWindowExpired) {
			t.Fatalf("Expected ErrDropWindowExpired, got %v", err)
		}
		if state.enrollments["e1"].Status != models.EnrollmentActive {
			t.Error("Enrollment must stay ACTIVE when the window has expired")
		}
		if len(publisher.GetPublishedEvents()) != 0 {
			t.Error("No event should fire on a rejected drop")
		}
	})

	t.Run("AdminDropsAfterWindow", func(t *testing.T) {
		service, _, _ := setup(t, 30*24*time.Hour)

		if err := service.Drop(ctx, "e1", Actor{ID: adminID, Role: models.RoleAdmin}); err != nil {
			t.Errorf("Admin drop must ignore the window, got %v", err)
		}
	})

	t.Run("AssignedTeacherDropsAfterWindow", func(t *testing.T) {
		service, _, _ := setup(t, 30*24*time.Hour)

		if err := service.Drop(ctx, "e1", Actor{ID: teacher1ID, Role: models.RoleTeacher}); err != nil {
			t.Errorf("Assigned teacher drop must ignore the window, got %v", err)
		}
	})

	t.Run("UnassignedTeacherDenied", func(t *testing.T) {
		service, _, _ := setup(t, time.Hour)

		err := service.Drop(ctx, "e1", Actor{ID: teacher2ID, Role: models.RoleTeacher})
		var permErr *PermissionError
		if !errors.As(err, &permErr) {
			t.Errorf("Expected PermissionError, got %v", err)
		}
	})

	t.Run("OtherStudentDenied", func(t *testing.T) {
		service, _, _ := setup(t, time.Hour)

		err := service.Drop(ctx, "e1", Actor{ID: student2ID, Role: models.RoleStudent})
		var permErr *PermissionError
		if !errors.As(err, &permErr) {
			t.Errorf("Expected PermissionError, got %v", err)
		}
	})

	t.Run("DoubleDrop", func(t *testing.T) {
		service, _, publisher := setup(t, time.Hour)

		if err := service.Drop(ctx, "e1", Actor{ID: adminID, Role: models.RoleAdmin}); err != nil {
			t.Fatalf("First drop failed: %v", err)
		}
		publisher.ClearEvents()

		err := service.Drop(ctx, "e1", Actor{ID: adminID, Role: models.RoleAdmin})
		if !errors.Is(err, ErrEnrollmentNotActive) {
			t.Fatalf("Expected ErrEnrollmentNotActive, got %v", err)
		}
		if len(publisher.GetPublishedEvents()) != 0 {
			t.Error("Second drop must not publish an event")
		}
	})

	t.Run("EnrollmentNotFound", func(t *testing.T) {
		service, _, _ := setup(t, time.Hour)

		err := service.Drop(ctx, "missing", Actor{ID: adminID, Role: models.RoleAdmin})
		if !errors.Is(err, ErrEnrollmentNotFound) {
			t.Errorf("Expected ErrEnrollmentNotFound, got %v", err)
		}
	})
}

func TestEnrollmentServiceList(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*enrollmentService, *fakeState) {
		state := newFakeState()
		seedEnrollmentWorld(state)
		state.addEnrollment("e1", student1ID, course1ID, models.EnrollmentActive, time.Now().Add(-3*time.Hour))
		state.addEnrollment("e2", student2ID, course1ID, models.EnrollmentActive, time.Now().Add(-2*time.Hour))
		state.addEnrollment("e3", student1ID, course2ID, models.EnrollmentDropped, time.Now().Add(-time.Hour))
		service := newEnrollmentTestService(t, state, events.NewMockEventPublisher(newTestLogger()))
		return service, state
	}

	t.Run("AdminSeesAll", func(t *testing.T) {
		service, _ := setup(t)
		_, total, err := service.List(ctx, repositories.EnrollmentFilters{}, Actor{ID: adminID, Role: models.RoleAdmin})
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if total != 3 {
			t.Errorf("Expected 3 enrollments, got %d", total)
		}
	})

	t.Run("StudentSeesOwnOnly", func(t *testing.T) {
		service, _ := setup(t)
		enrollments, total, err := service.List(ctx, repositories.EnrollmentFilters{}, Actor{ID: student1ID, Role: models.RoleStudent})
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if total != 2 {
			t.Errorf("Expected 2 enrollments, got %d", total)
		}
		for _, enrollment := range enrollments {
			if enrollment.StudentID != student1ID {
				t.Errorf("Student listing leaked enrollment %s of %s", enrollment.ID, enrollment.StudentID)
			}
		}
	})

	t.Run("TeacherScopedToOwnCourses", func(t *testing.T) {
		service, _ := setup(t)
		enrollments, total, err := service.List(ctx, repositories.EnrollmentFilters{}, Actor{ID: teacher1ID, Role: models.RoleTeacher})
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if total != 2 {
			t.Errorf("Expected 2 enrollments in teacher's course, got %d", total)
		}
		for _, enrollment := range enrollments {
			if enrollment.CourseID != course1ID {
				t.Errorf("Teacher listing leaked enrollment %s of course %s", enrollment.ID, enrollment.CourseID)
			}
		}
	})

	t.Run("TeacherWithNoCourses", func(t *testing.T) {
		service, state := setup(t)
		state.addTeacher("8b9c0d1e-2f3a-4b5c-8d6e-8f9a0b1c2d3e", "New Teacher", "new@school.edu")

		enrollments, total, err := service.List(ctx, repositories.EnrollmentFilters{}, Actor{ID: "8b9c0d1e-2f3a-4b5c-8d6e-8f9a0b1c2d3e", Role: models.RoleTeacher})
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if total != 0 || len(enrollments) != 0 {
			t.Errorf("Expected empty listing, got %d items", len(enrollments))
		}
		if enrollments == nil {
			t.Error("Expected an empty slice, not nil")
		}
	})

	t.Run("StatusFilter", func(t *testing.T) {
		service, _ := setup(t)
		status := models.EnrollmentDropped
		_, total, err := service.List(ctx, repositories.EnrollmentFilters{Status: &status}, Actor{ID: adminID, Role: models.RoleAdmin})
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if total != 1 {
			t.Errorf("Expected 1 dropped enrollment, got %d", total)
		}
	})
}

// TestEnrollmentLifecycleWithDispatcher wires the real dispatcher behind
// a local publisher and walks an enrollment through create, drop, and a
// rejected second drop, checking the notification log after each step.
func TestEnrollmentLifecycleWithDispatcher(t *testing.T) {
	ctx := context.Background()
	state := newFakeState()
	seedEnrollmentWorld(state)
	repo := newFakeRepository(state)
	logger := newTestLogger()
	m := &fakeMailer{}

	notifications := NewNotificationService(repo, m, logger)
	publisher := events.NewLocalPublisher(notifications.Dispatch, logger)
	service := newEnrollmentTestService(t, state, publisher)

	admin := Actor{ID: adminID, Role: models.RoleAdmin}

	enrollment, err := service.Create(ctx, &validator.EnrollmentCreateRequest{
		StudentID: student1ID,
		CourseID:  course1ID,
	}, admin)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	enrollmentRows := notificationsOfType(state, models.NotificationEnrollment)
	if len(enrollmentRows) != 2 {
		t.Fatalf("Expected 2 ENROLLMENT log rows (student and teacher), got %d", len(enrollmentRows))
	}
	if len(m.Sent()) != 2 {
		t.Errorf("Expected 2 mails sent, got %d", len(m.Sent()))
	}

	if err := service.Drop(ctx, enrollment.ID, admin); err != nil {
		t.Fatalf("Drop failed: %v", err)
	}

	removalRows := notificationsOfType(state, models.NotificationRemoval)
	if len(removalRows) != 2 {
		t.Fatalf("Expected 2 REMOVAL log rows, got %d", len(removalRows))
	}

	err = service.Drop(ctx, enrollment.ID, admin)
	if !errors.Is(err, ErrEnrollmentNotActive) {
		t.Fatalf("Expected ErrEnrollmentNotActive on second drop, got %v", err)
	}
	if got := len(notificationsOfType(state, models.NotificationRemoval)); got != 2 {
		t.Errorf("Rejected drop must not append log rows, found %d", got)
	}
}
