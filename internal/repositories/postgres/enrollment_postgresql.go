package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/Abdul-Ahad2004/student-management-service/internal/cache"
	"github.com/Abdul-Ahad2004/student-management-service/internal/models"
	"github.com/Abdul-Ahad2004/student-management-service/internal/repositories"
)

type EnrollmentPostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewEnrollmentPostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager) repositories.EnrollmentRepository {
	return &EnrollmentPostgreSQL{
		db:           db,
		helpers:      NewSharedHelpers(db),
		cacheManager: cacheManager,
	}
}

// Create inserts an enrollment row. The partial unique index on
// (student_id, course_id) WHERE status = 'ACTIVE' serializes concurrent
// duplicate creates: the loser gets gorm.ErrDuplicatedKey.
func (e *EnrollmentPostgreSQL) Create(ctx context.Context, enrollment *models.Enrollment) error {
	if err := e.db.WithContext(ctx).Create(enrollment).Error; err != nil {
		return fmt.Errorf("failed to create enrollment: %w", err)
	}
	cache.InvalidateCourseCache(ctx, e.cacheManager, enrollment.CourseID)
	return nil
}

// GetByID retrieves an enrollment with its student and course
func (e *EnrollmentPostgreSQL) GetByID(ctx context.Context, id string) (*models.Enrollment, error) {
	var enrollment models.Enrollment
	err := e.db.WithContext(ctx).
		Preload("Student").
		Preload("Student.User").
		Preload("Course").
		Preload("Course.Teacher").
		Preload("Course.Teacher.User").
		First(&enrollment, "id = ?", id).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get enrollment: %w", err)
	}
	return &enrollment, nil
}

// UpdateStatus persists a status change for a single row
func (e *EnrollmentPostgreSQL) UpdateStatus(ctx context.Context, id string, status models.EnrollmentStatus) error {
	result := e.db.WithContext(ctx).
		Model(&models.Enrollment{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return fmt.Errorf("failed to update enrollment status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// List retrieves enrollments with filters and pagination
func (e *EnrollmentPostgreSQL) List(ctx context.Context, filters repositories.EnrollmentFilters) ([]*models.Enrollment, int64, error) {
	query := e.db.WithContext(ctx).Model(&models.Enrollment{})
	query = e.helpers.ApplyEnrollmentFilters(query, filters)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count enrollments: %w", err)
	}

	query = e.helpers.ApplyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset)

	var enrollments []*models.Enrollment
	err := query.
		Preload("Student").
		Preload("Student.User").
		Preload("Course").
		Find(&enrollments).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list enrollments: %w", err)
	}

	return enrollments, total, nil
}

// HasActive checks whether the student holds an ACTIVE enrollment in the course
func (e *EnrollmentPostgreSQL) HasActive(ctx context.Context, studentID, courseID string) (bool, error) {
	var count int64
	err := e.db.WithContext(ctx).
		Model(&models.Enrollment{}).
		Where("student_id = ? AND course_id = ? AND status = ?", studentID, courseID, models.EnrollmentActive).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check active enrollment: %w", err)
	}
	return count > 0, nil
}
