package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/Abdul-Ahad2004/student-management-service/internal/models"
	"github.com/Abdul-Ahad2004/student-management-service/internal/repositories"
)

type StudentPostgreSQL struct {
	db *gorm.DB
}

func NewStudentPostgreSQL(db *gorm.DB) repositories.StudentRepository {
	return &StudentPostgreSQL{db: db}
}

// Create inserts a student profile
func (s *StudentPostgreSQL) Create(ctx context.Context, profile *models.StudentProfile) error {
	if err := s.db.WithContext(ctx).Create(profile).Error; err != nil {
		return fmt.Errorf("failed to create student profile: %w", err)
	}
	return nil
}

// GetByUserID retrieves a student profile with its user
func (s *StudentPostgreSQL) GetByUserID(ctx context.Context, userID string) (*models.StudentProfile, error) {
	var profile models.StudentProfile
	err := s.db.WithContext(ctx).
		Preload("User").
		First(&profile, "user_id = ?", userID).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get student profile: %w", err)
	}
	return &profile, nil
}

// Update persists student profile changes
func (s *StudentPostgreSQL) Update(ctx context.Context, profile *models.StudentProfile) error {
	if err := s.db.WithContext(ctx).Save(profile).Error; err != nil {
		return fmt.Errorf("failed to update student profile: %w", err)
	}
	return nil
}

// List retrieves student profiles with optional name/email/roll search
func (s *StudentPostgreSQL) List(ctx context.Context, filters repositories.ProfileFilters) ([]*models.StudentProfile, int64, error) {
	query := s.db.WithContext(ctx).
		Model(&models.StudentProfile{}).
		Joins("JOIN users ON users.id = student_profiles.user_id")

	query = applyStudentSearch(query, filters.Query)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count student profiles: %w", err)
	}

	query = query.Order("users.created_at DESC")
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	var profiles []*models.StudentProfile
	if err := query.Preload("User").Find(&profiles).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list student profiles: %w", err)
	}

	return profiles, total, nil
}

// ListByTeacher retrieves students holding an ACTIVE enrollment in one of
// the teacher's courses.
func (s *StudentPostgreSQL) ListByTeacher(ctx context.Context, teacherID string, filters repositories.ProfileFilters) ([]*models.StudentProfile, int64, error) {
	query := s.db.WithContext(ctx).
		Model(&models.StudentProfile{}).
		Joins("JOIN users ON users.id = student_profiles.user_id").
		Joins("JOIN enrollments ON enrollments.student_id = student_profiles.user_id").
		Joins("JOIN courses ON courses.id = enrollments.course_id").
		Where("courses.teacher_id = ? AND enrollments.status = ?", teacherID, models.EnrollmentActive).
		Distinct("student_profiles.*")

	query = applyStudentSearch(query, filters.Query)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count students by teacher: %w", err)
	}

	query = query.Order("student_profiles.roll_number ASC")
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	var profiles []*models.StudentProfile
	if err := query.Preload("User").Find(&profiles).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list students by teacher: %w", err)
	}

	return profiles, total, nil
}

// ExistsByUserID checks whether a student profile exists for the user
func (s *StudentPostgreSQL) ExistsByUserID(ctx context.Context, userID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.StudentProfile{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check student profile existence: %w", err)
	}
	return count > 0, nil
}

func applyStudentSearch(query *gorm.DB, q string) *gorm.DB {
	if q == "" {
		return query
	}
	pattern := "%" + q + "%"
	return query.Where(
		"users.name ILIKE ? OR users.email ILIKE ? OR student_profiles.roll_number ILIKE ?",
		pattern, pattern, pattern,
	)
}
