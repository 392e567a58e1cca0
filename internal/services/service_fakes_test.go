package services

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Abdul-Ahad2004/student-management-service/internal/models"
	"github.com/Abdul-Ahad2004/student-management-service/internal/repositories"
	"github.com/Abdul-Ahad2004/student-management-service/internal/validator"
)

// fakeState is the in-memory storage shared by all fake repositories.
type fakeState struct {
	mu sync.Mutex

	users       map[string]*models.User
	teachers    map[string]*models.TeacherProfile
	students    map[string]*models.StudentProfile
	courses     map[string]*models.Course
	enrollments map[string]*models.Enrollment

	notifications []*models.Notification

	// error injection
	notificationCreateErr error
}

func newFakeState() *fakeState {
	return &fakeState{
		users:       make(map[string]*models.User),
		teachers:    make(map[string]*models.TeacherProfile),
		students:    make(map[string]*models.StudentProfile),
		courses:     make(map[string]*models.Course),
		enrollments: make(map[string]*models.Enrollment),
	}
}

// ===== SEED HELPERS =====

func (s *fakeState) addUser(id, name, email string, role models.UserRole, passwordHash string) *models.User {
	user := &models.User{
		ID:           id,
		Name:         name,
		Email:        email,
		Role:         role,
		PasswordHash: passwordHash,
		IsActive:     true,
		CreatedAt:    time.Now(),
	}
	s.users[id] = user
	return user
}

func (s *fakeState) addTeacher(id, name, email string) *models.TeacherProfile {
	s.addUser(id, name, email, models.RoleTeacher, "")
	profile := &models.TeacherProfile{UserID: id}
	s.teachers[id] = profile
	return profile
}

func (s *fakeState) addStudent(id, name, email, rollNumber string) *models.StudentProfile {
	s.addUser(id, name, email, models.RoleStudent, "")
	profile := &models.StudentProfile{UserID: id, RollNumber: rollNumber}
	s.students[id] = profile
	return profile
}

func (s *fakeState) addCourse(id, title string, teacherID *string) *models.Course {
	course := &models.Course{
		ID:            id,
		Title:         title,
		Description:   "course description",
		DurationWeeks: 8,
		Schedule:      "Mon/Wed 10:00",
		TeacherID:     teacherID,
		CreatedAt:     time.Now(),
	}
	s.courses[id] = course
	return course
}

func (s *fakeState) addEnrollment(id, studentID, courseID string, status models.EnrollmentStatus, createdAt time.Time) *models.Enrollment {
	enrollment := &models.Enrollment{
		ID:        id,
		StudentID: studentID,
		CourseID:  courseID,
		Status:    status,
		CreatedAt: createdAt,
	}
	s.enrollments[id] = enrollment
	return enrollment
}

// ===== VIEW BUILDERS =====
// Copies with relations attached, the way the PostgreSQL repositories
// preload them.

func (s *fakeState) userView(id string) *models.User {
	user, ok := s.users[id]
	if !ok {
		return nil
	}
	clone := *user
	return &clone
}

func (s *fakeState) teacherView(id string) *models.TeacherProfile {
	profile, ok := s.teachers[id]
	if !ok {
		return nil
	}
	clone := *profile
	if user := s.userView(id); user != nil {
		clone.User = *user
	}
	return &clone
}

func (s *fakeState) studentView(id string) *models.StudentProfile {
	profile, ok := s.students[id]
	if !ok {
		return nil
	}
	clone := *profile
	if user := s.userView(id); user != nil {
		clone.User = *user
	}
	return &clone
}

func (s *fakeState) courseView(id string) *models.Course {
	course, ok := s.courses[id]
	if !ok {
		return nil
	}
	clone := *course
	if clone.TeacherID != nil {
		clone.Teacher = s.teacherView(*clone.TeacherID)
	}
	return &clone
}

func (s *fakeState) enrollmentView(id string) *models.Enrollment {
	enrollment, ok := s.enrollments[id]
	if !ok {
		return nil
	}
	clone := *enrollment
	if student := s.studentView(clone.StudentID); student != nil {
		clone.Student = *student
	}
	if course := s.courseView(clone.CourseID); course != nil {
		clone.Course = *course
	}
	return &clone
}

// ===== AGGREGATE =====

type fakeRepository struct {
	state *fakeState
}

func newFakeRepository(state *fakeState) *fakeRepository {
	return &fakeRepository{state: state}
}

func (f *fakeRepository) User() repositories.UserRepository         { return &fakeUserRepo{f.state} }
func (f *fakeRepository) Teacher() repositories.TeacherRepository   { return &fakeTeacherRepo{f.state} }
func (f *fakeRepository) Student() repositories.StudentRepository   { return &fakeStudentRepo{f.state} }
func (f *fakeRepository) Course() repositories.CourseRepository     { return &fakeCourseRepo{f.state} }
func (f *fakeRepository) Enrollment() repositories.EnrollmentRepository {
	return &fakeEnrollmentRepo{f.state}
}
func (f *fakeRepository) Notification() repositories.NotificationRepository {
	return &fakeNotificationRepo{f.state}
}
func (f *fakeRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return fn(f)
}
func (f *fakeRepository) Ping(ctx context.Context) error { return nil }
func (f *fakeRepository) Close() error                   { return nil }

// ===== USER =====

type fakeUserRepo struct{ state *fakeState }

func (r *fakeUserRepo) Create(ctx context.Context, user *models.User) error {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	for _, existing := range r.state.users {
		if existing.Email == user.Email {
			return gorm.ErrDuplicatedKey
		}
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	user.CreatedAt = time.Now()
	clone := *user
	r.state.users[user.ID] = &clone
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	if user := r.state.userView(id); user != nil {
		return user, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	for id, user := range r.state.users {
		if user.Email == email {
			return r.state.userView(id), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) Update(ctx context.Context, user *models.User) error {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	if _, ok := r.state.users[user.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	clone := *user
	r.state.users[user.ID] = &clone
	return nil
}

func (r *fakeUserRepo) UpdatePassword(ctx context.Context, id string, passwordHash string) error {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	user, ok := r.state.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	user.PasswordHash = passwordHash
	return nil
}

func (r *fakeUserRepo) List(ctx context.Context, filters repositories.UserFilters) ([]*models.User, int64, error) {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	var users []*models.User
	for id, user := range r.state.users {
		if filters.Role != nil && user.Role != *filters.Role {
			continue
		}
		if filters.Query != "" &&
			!strings.Contains(strings.ToLower(user.Name), strings.ToLower(filters.Query)) &&
			!strings.Contains(strings.ToLower(user.Email), strings.ToLower(filters.Query)) {
			continue
		}
		users = append(users, r.state.userView(id))
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, int64(len(users)), nil
}

func (r *fakeUserRepo) ExistsByID(ctx context.Context, id string) (bool, error) {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	_, ok := r.state.users[id]
	return ok, nil
}

func (r *fakeUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	for _, user := range r.state.users {
		if user.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeUserRepo) HasRole(ctx context.Context, id string, role models.UserRole) (bool, error) {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	user, ok := r.state.users[id]
	return ok && user.Role == role, nil
}

// ===== TEACHER =====

type fakeTeacherRepo struct{ state *fakeState }

func (r *fakeTeacherRepo) Create(ctx context.Context, profile *models.TeacherProfile) error {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	clone := *profile
	r.state.teachers[profile.UserID] = &clone
	return nil
}

func (r *fakeTeacherRepo) GetByUserID(ctx context.Context, userID string) (*models.TeacherProfile, error) {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	if profile := r.state.teacherView(userID); profile != nil {
		return profile, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeTeacherRepo) Update(ctx context.Context, profile *models.TeacherProfile) error {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	if _, ok := r.state.teachers[profile.UserID]; !ok {
		return gorm.ErrRecordNotFound
	}
	clone := *profile
	r.state.teachers[profile.UserID] = &clone
	return nil
}

func (r *fakeTeacherRepo) List(ctx context.Context, filters repositories.ProfileFilters) ([]*models.TeacherProfile, int64, error) {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	var profiles []*models.TeacherProfile
	for id := range r.state.teachers {
		profiles = append(profiles, r.state.teacherView(id))
	}
	sort.Slice(profiles, func(i, j int) bool { return profiles[i].UserID < profiles[j].UserID })
	return profiles, int64(len(profiles)), nil
}

func (r *fakeTeacherRepo) ExistsByUserID(ctx context.Context, userID string) (bool, error) {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	_, ok := r.state.teachers[userID]
	return ok, nil
}

// ===== STUDENT =====

type fakeStudentRepo struct{ state *fakeState }

func (r *fakeStudentRepo) Create(ctx context.Context, profile *models.StudentProfile) error {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	clone := *profile
	r.state.students[profile.UserID] = &clone
	return nil
}

func (r *fakeStudentRepo) GetByUserID(ctx context.Context, userID string) (*models.StudentProfile, error) {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	if profile := r.state.studentView(userID); profile != nil {
		return profile, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeStudentRepo) Update(ctx context.Context, profile *models.StudentProfile) error {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	if _, ok := r.state.students[profile.UserID]; !ok {
		return gorm.ErrRecordNotFound
	}
	clone := *profile
	r.state.students[profile.UserID] = &clone
	return nil
}

func (r *fakeStudentRepo) List(ctx context.Context, filters repositories.ProfileFilters) ([]*models.StudentProfile, int64, error) {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	var profiles []*models.StudentProfile
	for id := range r.state.students {
		profiles = append(profiles, r.state.studentView(id))
	}
	sort.Slice(profiles, func(i, j int) bool { return profiles[i].UserID < profiles[j].UserID })
	return profiles, int64(len(profiles)), nil
}

func (r *fakeStudentRepo) ListByTeacher(ctx context.Context, teacherID string, filters repositories.ProfileFilters) ([]*models.StudentProfile, int64, error) {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	seen := make(map[string]bool)
	var profiles []*models.StudentProfile
	for _, enrollment := range r.state.enrollments {
		if enrollment.Status != models.EnrollmentActive {
			continue
		}
		course, ok := r.state.courses[enrollment.CourseID]
		if !ok || course.TeacherID == nil || *course.TeacherID != teacherID {
			continue
		}
		if seen[enrollment.StudentID] {
			continue
		}
		seen[enrollment.StudentID] = true
		if profile := r.state.studentView(enrollment.StudentID); profile != nil {
			profiles = append(profiles, profile)
		}
	}
	sort.Slice(profiles, func(i, j int) bool { return profiles[i].UserID < profiles[j].UserID })
	return profiles, int64(len(profiles)), nil
}

func (r *fakeStudentRepo) ExistsByUserID(ctx context.Context, userID string) (bool, error) {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	_, ok := r.state.students[userID]
	return ok, nil
}

// ===== COURSE =====

type fakeCourseRepo struct{ state *fakeState }

func (r *fakeCourseRepo) Create(ctx context.Context, course *models.Course) error {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	course.CreatedAt = time.Now()
	clone := *course
	r.state.courses[course.ID] = &clone
	return nil
}

func (r *fakeCourseRepo) GetByID(ctx context.Context, id string) (*models.Course, error) {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	if course := r.state.courseView(id); course != nil {
		return course, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeCourseRepo) Update(ctx context.Context, course *models.Course) error {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	if _, ok := r.state.courses[course.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	clone := *course
	clone.Teacher = nil
	r.state.courses[course.ID] = &clone
	return nil
}

func (r *fakeCourseRepo) Delete(ctx context.Context, id string) error {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	if _, ok := r.state.courses[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.state.courses, id)
	return nil
}

func (r *fakeCourseRepo) List(ctx context.Context, filters repositories.CourseFilters) ([]*models.Course, int64, error) {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	var courses []*models.Course
	for id, course := range r.state.courses {
		if filters.TeacherID != nil && (course.TeacherID == nil || *course.TeacherID != *filters.TeacherID) {
			continue
		}
		if filters.Title != nil && !strings.Contains(strings.ToLower(course.Title), strings.ToLower(*filters.Title)) {
			continue
		}
		courses = append(courses, r.state.courseView(id))
	}
	sort.Slice(courses, func(i, j int) bool { return courses[i].ID < courses[j].ID })
	return courses, int64(len(courses)), nil
}

func (r *fakeCourseRepo) ListEnrolledByStudent(ctx context.Context, studentID string, filters repositories.CourseFilters) ([]*models.Course, int64, error) {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	seen := make(map[string]bool)
	var courses []*models.Course
	for _, enrollment := range r.state.enrollments {
		if enrollment.StudentID != studentID || enrollment.Status != models.EnrollmentActive {
			continue
		}
		if seen[enrollment.CourseID] {
			continue
		}
		seen[enrollment.CourseID] = true
		if course := r.state.courseView(enrollment.CourseID); course != nil {
			courses = append(courses, course)
		}
	}
	sort.Slice(courses, func(i, j int) bool { return courses[i].ID < courses[j].ID })
	return courses, int64(len(courses)), nil
}

func (r *fakeCourseRepo) CountActiveEnrollments(ctx context.Context, courseID string) (int64, error) {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	var count int64
	for _, enrollment := range r.state.enrollments {
		if enrollment.CourseID == courseID && enrollment.Status == models.EnrollmentActive {
			count++
		}
	}
	return count, nil
}

// ===== ENROLLMENT =====

type fakeEnrollmentRepo struct{ state *fakeState }

// Create mirrors the partial unique index: a second ACTIVE row for the
// same (student, course) pair is a duplicate-key error.
func (r *fakeEnrollmentRepo) Create(ctx context.Context, enrollment *models.Enrollment) error {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	for _, existing := range r.state.enrollments {
		if existing.StudentID == enrollment.StudentID &&
			existing.CourseID == enrollment.CourseID &&
			existing.Status == models.EnrollmentActive {
			return gorm.ErrDuplicatedKey
		}
	}
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	if enrollment.CreatedAt.IsZero() {
		enrollment.CreatedAt = time.Now()
	}
	clone := *enrollment
	r.state.enrollments[enrollment.ID] = &clone
	return nil
}

func (r *fakeEnrollmentRepo) GetByID(ctx context.Context, id string) (*models.Enrollment, error) {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	if enrollment := r.state.enrollmentView(id); enrollment != nil {
		return enrollment, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeEnrollmentRepo) UpdateStatus(ctx context.Context, id string, status models.EnrollmentStatus) error {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	enrollment, ok := r.state.enrollments[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	enrollment.Status = status
	enrollment.UpdatedAt = time.Now()
	return nil
}

func (r *fakeEnrollmentRepo) List(ctx context.Context, filters repositories.EnrollmentFilters) ([]*models.Enrollment, int64, error) {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	var enrollments []*models.Enrollment
	for id, enrollment := range r.state.enrollments {
		if filters.Status != nil && enrollment.Status != *filters.Status {
			continue
		}
		if filters.StudentID != nil && enrollment.StudentID != *filters.StudentID {
			continue
		}
		if filters.CourseID != nil && enrollment.CourseID != *filters.CourseID {
			continue
		}
		if len(filters.CourseIDs) > 0 {
			found := false
			for _, courseID := range filters.CourseIDs {
				if enrollment.CourseID == courseID {
					found = true
					break
				}
			}
			if !found {
				continue
			}
		}
		enrollments = append(enrollments, r.state.enrollmentView(id))
	}
	sort.Slice(enrollments, func(i, j int) bool {
		return enrollments[i].CreatedAt.Before(enrollments[j].CreatedAt)
	})
	return enrollments, int64(len(enrollments)), nil
}

func (r *fakeEnrollmentRepo) HasActive(ctx context.Context, studentID, courseID string) (bool, error) {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	for _, enrollment := range r.state.enrollments {
		if enrollment.StudentID == studentID &&
			enrollment.CourseID == courseID &&
			enrollment.Status == models.EnrollmentActive {
			return true, nil
		}
	}
	return false, nil
}

// ===== NOTIFICATION =====

type fakeNotificationRepo struct{ state *fakeState }

func (r *fakeNotificationRepo) Create(ctx context.Context, notification *models.Notification) error {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	if r.state.notificationCreateErr != nil {
		return r.state.notificationCreateErr
	}
	if notification.ID == "" {
		notification.ID = uuid.NewString()
	}
	notification.SentAt = time.Now()
	clone := *notification
	r.state.notifications = append(r.state.notifications, &clone)
	return nil
}

func (r *fakeNotificationRepo) ListByReceiver(ctx context.Context, receiverID string, filters repositories.NotificationFilters) ([]*models.Notification, int64, error) {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	var notifications []*models.Notification
	for _, notification := range r.state.notifications {
		if notification.ReceiverID != receiverID {
			continue
		}
		if filters.Type != nil && notification.Type != *filters.Type {
			continue
		}
		clone := *notification
		notifications = append(notifications, &clone)
	}
	return notifications, int64(len(notifications)), nil
}

// ===== MAILER =====

type sentMail struct {
	To      string
	Subject string
	Body    string
}

type fakeMailer struct {
	mu      sync.Mutex
	sent    []sentMail
	failErr error
}

func (m *fakeMailer) Send(to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return m.failErr
	}
	m.sent = append(m.sent, sentMail{To: to, Subject: subject, Body: body})
	return nil
}

func (m *fakeMailer) Sent() []sentMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]sentMail, len(m.sent))
	copy(out, m.sent)
	return out
}

// ===== COMMON TEST SETUP =====

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestValidator(t *testing.T) *validator.Validator {
	t.Helper()
	v, err := validator.New()
	if err != nil {
		t.Fatalf("Failed to create validator: %v", err)
	}
	return v
}

func notificationsOfType(state *fakeState, notificationType models.NotificationType) []*models.Notification {
	state.mu.Lock()
	defer state.mu.Unlock()
	var out []*models.Notification
	for _, notification := range state.notifications {
		if notification.Type == notificationType {
			out = append(out, notification)
		}
	}
	return out
}

func strPtr(s string) *string { return &s }

// Fixed UUIDs for seeded rows; request DTOs validate IDs as UUIDs.
const (
	adminID    = "9b1f37a0-0e7c-4d39-9a41-1c2d3e4f5a60"
	teacher1ID = "1a2b3c4d-5e6f-4a8b-9c0d-1e2f3a4b5c6d"
	teacher2ID = "2b3c4d5e-6f7a-4b9c-8d0e-2f3a4b5c6d7e"
	student1ID = "3c4d5e6f-7a8b-4c0d-9e1f-3a4b5c6d7e8f"
	student2ID = "4d5e6f7a-8b9c-4d1e-8f2a-4b5c6d7e8f9a"
	course1ID  = "5e6f7a8b-9c0d-4e2f-9a3b-5c6d7e8f9a0b"
	course2ID  = "6f7a8b9c-0d1e-4f3a-8b4c-6d7e8f9a0b1c"
)
