package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/Abdul-Ahad2004/student-management-service/internal/models"
	"github.com/Abdul-Ahad2004/student-management-service/internal/repositories"
)

type TeacherPostgreSQL struct {
	db *gorm.DB
}

func NewTeacherPostgreSQL(db *gorm.DB) repositories.TeacherRepository {
	return &TeacherPostgreSQL{db: db}
}

// Create inserts a teacher profile
func (t *TeacherPostgreSQL) Create(ctx context.Context, profile *models.TeacherProfile) error {
	if err := t.db.WithContext(ctx).Create(profile).Error; err != nil {
		return fmt.Errorf("failed to create teacher profile: %w", err)
	}
	return nil
}

// GetByUserID retrieves a teacher profile with its user and courses
func (t *TeacherPostgreSQL) GetByUserID(ctx context.Context, userID string) (*models.TeacherProfile, error) {
	var profile models.TeacherProfile
	err := t.db.WithContext(ctx).
		Preload("User").
		Preload("Courses").
		First(&profile, "user_id = ?", userID).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get teacher profile: %w", err)
	}
	return &profile, nil
}

// Update persists teacher profile changes
func (t *TeacherPostgreSQL) Update(ctx context.Context, profile *models.TeacherProfile) error {
	if err := t.db.WithContext(ctx).Save(profile).Error; err != nil {
		return fmt.Errorf("failed to update teacher profile: %w", err)
	}
	return nil
}

// List retrieves teacher profiles with optional name/email search
func (t *TeacherPostgreSQL) List(ctx context.Context, filters repositories.ProfileFilters) ([]*models.TeacherProfile, int64, error) {
	query := t.db.WithContext(ctx).
		Model(&models.TeacherProfile{}).
		Joins("JOIN users ON users.id = teacher_profiles.user_id")

	if filters.Query != "" {
		pattern := "%" + filters.Query + "%"
		query = query.Where("users.name ILIKE ? OR users.email ILIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count teacher profiles: %w", err)
	}

	query = query.Order("users.created_at DESC")
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	var profiles []*models.TeacherProfile
	if err := query.Preload("User").Find(&profiles).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list teacher profiles: %w", err)
	}

	return profiles, total, nil
}

// ExistsByUserID checks whether a teacher profile exists for the user
func (t *TeacherPostgreSQL) ExistsByUserID(ctx context.Context, userID string) (bool, error) {
	var count int64
	err := t.db.WithContext(ctx).
		Model(&models.TeacherProfile{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check teacher profile existence: %w", err)
	}
	return count > 0, nil
}
