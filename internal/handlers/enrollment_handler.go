package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Abdul-Ahad2004/student-management-service/internal/models"
	"github.com/Abdul-Ahad2004/student-management-service/internal/repositories"
	"github.com/Abdul-Ahad2004/student-management-service/internal/services"
	"github.com/Abdul-Ahad2004/student-management-service/internal/utils"
	"github.com/Abdul-Ahad2004/student-management-service/internal/validator"
)

type EnrollmentHandler struct {
	BaseHandler
	service services.EnrollmentService
}

func NewEnrollmentHandler(service services.EnrollmentService, logger utils.Logger) *EnrollmentHandler {
	return &EnrollmentHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

// CreateEnrollment enrolls a student in a course
// @Summary Create enrollment
// @Description Enroll a student in a course (admin or the assigned teacher); a duplicate ACTIVE enrollment is a conflict
// @Tags enrollments
// @Accept json
// @Produce json
// @Param request body validator.EnrollmentCreateRequest true "Student and course"
// @Success 201 {object} models.Enrollment
// @Failure 400 {object} ErrorResponse "Bad request"
// @Failure 403 {object} ErrorResponse "Forbidden"
// @Failure 404 {object} ErrorResponse "Student or course not found"
// @Failure 409 {object} ErrorResponse "Already enrolled"
// @Router /enrollments [post]
func (h *EnrollmentHandler) CreateEnrollment(c *gin.Context) {
	actor, ok := h.getActor(c)
	if !ok {
		return
	}

	var req validator.EnrollmentCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request body",
			Details: err.Error(),
		})
		return
	}

	h.LogRequest(c, "Creating enrollment", "student_id", req.StudentID, "course_id", req.CourseID)

	enrollment, err := h.service.Create(c.Request.Context(), &req, actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, enrollment)
}

// ListEnrollments lists enrollments, scoped by role
// @Summary List enrollments
// @Description Admins see all enrollments, teachers those of their courses, students their own
// @Tags enrollments
// @Produce json
// @Param page query int false "Page number (default: 1)"
// @Param size query int false "Page size (default: 10, max: 100)"
// @Param status query string false "Filter by status (ACTIVE, DROPPED)"
// @Param student_id query string false "Filter by student"
// @Param course_id query string false "Filter by course"
// @Success 200 {object} map[string]interface{} "Enrollment list response"
// @Router /enrollments [get]
func (h *EnrollmentHandler) ListEnrollments(c *gin.Context) {
	actor, ok := h.getActor(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Listing enrollments")

	filters := parseEnrollmentFilters(c, h.BaseHandler)

	enrollments, total, err := h.service.List(c.Request.Context(), filters, actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, listResponse("enrollments", enrollments, total, filters.Limit, filters.Offset))
}

// GetEnrollment retrieves an enrollment
// @Summary Get enrollment by ID
// @Description Admin, the enrolled student, or the course's assigned teacher
// @Tags enrollments
// @Produce json
// @Param id path string true "Enrollment ID"
// @Success 200 {object} models.Enrollment
// @Failure 403 {object} ErrorResponse "Forbidden"
// @Failure 404 {object} ErrorResponse "Not found"
// @Router /enrollments/{id} [get]
func (h *EnrollmentHandler) GetEnrollment(c *gin.Context) {
	actor, ok := h.getActor(c)
	if !ok {
		return
	}

	enrollmentID, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	h.LogRequest(c, "Getting enrollment", "enrollment_id", enrollmentID)

	enrollment, err := h.service.GetByID(c.Request.Context(), enrollmentID, actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, enrollment)
}

// DropEnrollment transitions an ACTIVE enrollment to DROPPED
// @Summary Drop enrollment
// @Description Drop an active enrollment; students only within seven days of enrolling, the row is kept as history
// @Tags enrollments
// @Param id path string true "Enrollment ID"
// @Success 204 "No content"
// @Failure 400 {object} ErrorResponse "Not active, or drop window expired"
// @Failure 403 {object} ErrorResponse "Forbidden"
// @Failure 404 {object} ErrorResponse "Not found"
// @Router /enrollments/{id} [delete]
func (h *EnrollmentHandler) DropEnrollment(c *gin.Context) {
	actor, ok := h.getActor(c)
	if !ok {
		return
	}

	enrollmentID, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	h.LogRequest(c, "Dropping enrollment", "enrollment_id", enrollmentID)

	if err := h.service.Drop(c.Request.Context(), enrollmentID, actor); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ===== HELPER METHODS =====

func parseEnrollmentFilters(c *gin.Context, h BaseHandler) repositories.EnrollmentFilters {
	limit, offset := h.parsePagination(c)

	filters := repositories.EnrollmentFilters{
		Limit:     limit,
		Offset:    offset,
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
		DateFrom:  h.parseDateQuery(c, "from_date"),
		DateTo:    h.parseDateQuery(c, "to_date"),
	}

	if statusStr := c.Query("status"); statusStr != "" {
		status := models.EnrollmentStatus(statusStr)
		if status == models.EnrollmentActive || status == models.EnrollmentDropped {
			filters.Status = &status
		}
	}
	if studentID := c.Query("student_id"); studentID != "" {
		filters.StudentID = &studentID
	}
	if courseID := c.Query("course_id"); courseID != "" {
		filters.CourseID = &courseID
	}

	return filters
}
