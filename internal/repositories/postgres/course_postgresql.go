package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/Abdul-Ahad2004/student-management-service/internal/cache"
	"github.com/Abdul-Ahad2004/student-management-service/internal/models"
	"github.com/Abdul-Ahad2004/student-management-service/internal/repositories"
)

type CoursePostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewCoursePostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager) repositories.CourseRepository {
	return &CoursePostgreSQL{
		db:           db,
		helpers:      NewSharedHelpers(db),
		cacheManager: cacheManager,
	}
}

// Create inserts a new course and invalidates listing caches
func (c *CoursePostgreSQL) Create(ctx context.Context, course *models.Course) error {
	if err := c.db.WithContext(ctx).Create(course).Error; err != nil {
		return fmt.Errorf("failed to create course: %w", err)
	}
	cache.SafeInvalidatePattern(ctx, c.cacheManager.Course, "course:list:*")
	return nil
}

// GetByID retrieves a course with its teacher, cached
func (c *CoursePostgreSQL) GetByID(ctx context.Context, id string) (*models.Course, error) {
	var course models.Course

	err := c.cacheManager.Course.CacheOrExecute(ctx, cache.CourseKey(id), &course, func() (interface{}, error) {
		var dbCourse models.Course
		err := c.db.WithContext(ctx).
			Preload("Teacher").
			Preload("Teacher.User").
			First(&dbCourse, "id = ?", id).Error
		if err != nil {
			return nil, fmt.Errorf("failed to get course: %w", err)
		}
		return &dbCourse, nil
	})
	if err != nil {
		return nil, err
	}

	return &course, nil
}

// Update persists course changes and invalidates cache
func (c *CoursePostgreSQL) Update(ctx context.Context, course *models.Course) error {
	// Save with a column map so a nil teacher_id is written, not skipped
	err := c.db.WithContext(ctx).
		Model(&models.Course{}).
		Where("id = ?", course.ID).
		Updates(map[string]interface{}{
			"title":          course.Title,
			"description":    course.Description,
			"duration_weeks": course.DurationWeeks,
			"schedule":       course.Schedule,
			"teacher_id":     course.TeacherID,
			"updated_at":     course.UpdatedAt,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to update course: %w", err)
	}
	cache.InvalidateCourseCache(ctx, c.cacheManager, course.ID)
	return nil
}

// Delete removes a course. Enrollment rows cascade at the database level.
func (c *CoursePostgreSQL) Delete(ctx context.Context, id string) error {
	result := c.db.WithContext(ctx).Delete(&models.Course{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete course: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	cache.InvalidateCourseCache(ctx, c.cacheManager, id)
	return nil
}

// List retrieves courses with filters and pagination
func (c *CoursePostgreSQL) List(ctx context.Context, filters repositories.CourseFilters) ([]*models.Course, int64, error) {
	query := c.db.WithContext(ctx).Model(&models.Course{})
	query = c.helpers.ApplyCourseFilters(query, filters)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count courses: %w", err)
	}

	query = c.helpers.ApplyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset)

	var courses []*models.Course
	err := query.
		Preload("Teacher").
		Preload("Teacher.User").
		Find(&courses).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list courses: %w", err)
	}

	for _, course := range courses {
		if err := c.fillEnrolledCount(ctx, course); err != nil {
			return nil, 0, err
		}
	}

	return courses, total, nil
}

// ListEnrolledByStudent retrieves courses the student holds an ACTIVE
// enrollment in.
func (c *CoursePostgreSQL) ListEnrolledByStudent(ctx context.Context, studentID string, filters repositories.CourseFilters) ([]*models.Course, int64, error) {
	query := c.db.WithContext(ctx).
		Model(&models.Course{}).
		Joins("JOIN enrollments ON enrollments.course_id = courses.id").
		Where("enrollments.student_id = ? AND enrollments.status = ?", studentID, models.EnrollmentActive)
	query = c.helpers.ApplyCourseFilters(query, filters)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count enrolled courses: %w", err)
	}

	query = c.helpers.ApplyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset)

	var courses []*models.Course
	err := query.
		Preload("Teacher").
		Preload("Teacher.User").
		Find(&courses).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list enrolled courses: %w", err)
	}

	return courses, total, nil
}

// CountActiveEnrollments returns the number of ACTIVE enrollments in a course
func (c *CoursePostgreSQL) CountActiveEnrollments(ctx context.Context, courseID string) (int64, error) {
	var count int64
	err := c.db.WithContext(ctx).
		Model(&models.Enrollment{}).
		Where("course_id = ? AND status = ?", courseID, models.EnrollmentActive).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count active enrollments: %w", err)
	}
	return count, nil
}

func (c *CoursePostgreSQL) fillEnrolledCount(ctx context.Context, course *models.Course) error {
	count, err := c.CountActiveEnrollments(ctx, course.ID)
	if err != nil {
		return err
	}
	course.EnrolledStudentsCount = int(count)
	return nil
}
