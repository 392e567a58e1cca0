package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xuri/excelize/v2"

	"github.com/Abdul-Ahad2004/student-management-service/internal/repositories"
)

type reportService struct {
	repo   repositories.Repository
	logger *slog.Logger
	policy *AccessPolicy
}

func NewReportService(repo repositories.Repository, logger *slog.Logger, policy *AccessPolicy) ReportService {
	return &reportService{
		repo:   repo,
		logger: logger,
		policy: policy,
	}
}

// ExportCourseRoster renders every enrollment of a course into an .xlsx
// workbook, one row per enrollment, dropped rows included.
func (s *reportService) ExportCourseRoster(ctx context.Context, courseID string, actor Actor) ([]byte, string, error) {
	course, err := s.repo.Course().GetByID(ctx, courseID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, "", ErrCourseNotFound
		}
		return nil, "", fmt.Errorf("failed to get course: %w", err)
	}

	if !s.policy.CanViewCourseRoster(actor, course) {
		return nil, "", NewPermissionError(actor.ID, courseID, "course", "export_roster", "not admin or assigned teacher")
	}

	enrollments, _, err := s.repo.Enrollment().List(ctx, repositories.EnrollmentFilters{
		CourseID:  &course.ID,
		SortBy:    "created_at",
		SortOrder: "asc",
	})
	if err != nil {
		return nil, "", fmt.Errorf("failed to list enrollments: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Roster"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"Student Name", "Email", "Roll Number", "Status", "Enrolled At"}
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, "", fmt.Errorf("failed to build header cell: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, "", fmt.Errorf("failed to write header: %w", err)
		}
	}

	for row, e := range enrollments {
		values := []interface{}{
			e.Student.User.Name,
			e.Student.User.Email,
			e.Student.RollNumber,
			string(e.Status),
			e.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return nil, "", fmt.Errorf("failed to build cell: %w", err)
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, "", fmt.Errorf("failed to write cell: %w", err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", fmt.Errorf("failed to render workbook: %w", err)
	}

	filename := fmt.Sprintf("roster-%s.xlsx", course.ID)
	s.logger.Info("Roster exported", "course_id", course.ID, "rows", len(enrollments))

	return buf.Bytes(), filename, nil
}
