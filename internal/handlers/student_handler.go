package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Abdul-Ahad2004/student-management-service/internal/repositories"
	"github.com/Abdul-Ahad2004/student-management-service/internal/services"
	"github.com/Abdul-Ahad2004/student-management-service/internal/utils"
	"github.com/Abdul-Ahad2004/student-management-service/internal/validator"
)

type StudentHandler struct {
	BaseHandler
	service services.StudentService
}

func NewStudentHandler(service services.StudentService, logger utils.Logger) *StudentHandler {
	return &StudentHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

// ListStudents lists student profiles, scoped by role
// @Summary List students
// @Description Admins see all students, teachers see students enrolled in their courses, students see themselves
// @Tags students
// @Produce json
// @Param page query int false "Page number (default: 1)"
// @Param size query int false "Page size (default: 10, max: 100)"
// @Param q query string false "Search query (name, email or roll number)"
// @Success 200 {object} map[string]interface{} "Student list response"
// @Router /students [get]
func (h *StudentHandler) ListStudents(c *gin.Context) {
	actor, ok := h.getActor(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Listing students")

	limit, offset := h.parsePagination(c)
	filters := repositories.ProfileFilters{
		Query:  c.Query("q"),
		Limit:  limit,
		Offset: offset,
	}

	students, total, err := h.service.List(c.Request.Context(), filters, actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, listResponse("students", students, total, limit, offset))
}

// GetStudent retrieves a student profile
// @Summary Get student by ID
// @Description Admin, the profile owner, or a teacher with the student actively enrolled in one of their courses
// @Tags students
// @Produce json
// @Param id path string true "Student user ID"
// @Success 200 {object} models.StudentProfile
// @Failure 403 {object} ErrorResponse "Forbidden"
// @Failure 404 {object} ErrorResponse "Not found"
// @Router /students/{id} [get]
func (h *StudentHandler) GetStudent(c *gin.Context) {
	actor, ok := h.getActor(c)
	if !ok {
		return
	}

	studentID, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	h.LogRequest(c, "Getting student", "student_id", studentID)

	student, err := h.service.GetByID(c.Request.Context(), studentID, actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, student)
}

// UpdateStudent updates a student profile (admin or profile owner)
// @Summary Update student profile
// @Tags students
// @Accept json
// @Produce json
// @Param id path string true "Student user ID"
// @Param request body validator.StudentProfileUpdateRequest true "Fields to update"
// @Success 200 {object} models.StudentProfile
// @Failure 400 {object} ErrorResponse "Bad request"
// @Failure 403 {object} ErrorResponse "Forbidden"
// @Failure 404 {object} ErrorResponse "Not found"
// @Router /students/{id} [patch]
func (h *StudentHandler) UpdateStudent(c *gin.Context) {
	actor, ok := h.getActor(c)
	if !ok {
		return
	}

	studentID, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	var req validator.StudentProfileUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request body",
			Details: err.Error(),
		})
		return
	}

	h.LogRequest(c, "Updating student", "student_id", studentID)

	student, err := h.service.UpdateProfile(c.Request.Context(), studentID, &req, actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, student)
}

// ListStudentEnrollments lists a student's enrollment history
// @Summary List student enrollments
// @Tags students
// @Produce json
// @Param id path string true "Student user ID"
// @Param status query string false "Filter by status (ACTIVE, DROPPED)"
// @Success 200 {object} map[string]interface{} "Enrollment list response"
// @Failure 403 {object} ErrorResponse "Forbidden"
// @Router /students/{id}/enrollments [get]
func (h *StudentHandler) ListStudentEnrollments(c *gin.Context) {
	actor, ok := h.getActor(c)
	if !ok {
		return
	}

	studentID, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	h.LogRequest(c, "Listing student enrollments", "student_id", studentID)

	filters := parseEnrollmentFilters(c, h.BaseHandler)

	enrollments, total, err := h.service.ListEnrollments(c.Request.Context(), studentID, filters, actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, listResponse("enrollments", enrollments, total, filters.Limit, filters.Offset))
}
