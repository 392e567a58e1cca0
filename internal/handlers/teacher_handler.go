package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Abdul-Ahad2004/student-management-service/internal/repositories"
	"github.com/Abdul-Ahad2004/student-management-service/internal/services"
	"github.com/Abdul-Ahad2004/student-management-service/internal/utils"
	"github.com/Abdul-Ahad2004/student-management-service/internal/validator"
)

type TeacherHandler struct {
	BaseHandler
	service services.TeacherService
}

func NewTeacherHandler(service services.TeacherService, logger utils.Logger) *TeacherHandler {
	return &TeacherHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

// ListTeachers lists teacher profiles
// @Summary List teachers
// @Tags teachers
// @Produce json
// @Param page query int false "Page number (default: 1)"
// @Param size query int false "Page size (default: 10, max: 100)"
// @Param q query string false "Search query (name or email)"
// @Success 200 {object} map[string]interface{} "Teacher list response"
// @Router /teachers [get]
func (h *TeacherHandler) ListTeachers(c *gin.Context) {
	actor, ok := h.getActor(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Listing teachers")

	limit, offset := h.parsePagination(c)
	filters := repositories.ProfileFilters{
		Query:  c.Query("q"),
		Limit:  limit,
		Offset: offset,
	}

	teachers, total, err := h.service.List(c.Request.Context(), filters, actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, listResponse("teachers", teachers, total, limit, offset))
}

// GetTeacher retrieves a teacher profile
// @Summary Get teacher by ID
// @Tags teachers
// @Produce json
// @Param id path string true "Teacher user ID"
// @Success 200 {object} models.TeacherProfile
// @Failure 404 {object} ErrorResponse "Not found"
// @Router /teachers/{id} [get]
func (h *TeacherHandler) GetTeacher(c *gin.Context) {
	actor, ok := h.getActor(c)
	if !ok {
		return
	}

	teacherID, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	h.LogRequest(c, "Getting teacher", "teacher_id", teacherID)

	teacher, err := h.service.GetByID(c.Request.Context(), teacherID, actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, teacher)
}

// UpdateTeacher updates a teacher profile (admin or profile owner)
// @Summary Update teacher profile
// @Tags teachers
// @Accept json
// @Produce json
// @Param id path string true "Teacher user ID"
// @Param request body validator.TeacherProfileUpdateRequest true "Fields to update"
// @Success 200 {object} models.TeacherProfile
// @Failure 400 {object} ErrorResponse "Bad request"
// @Failure 403 {object} ErrorResponse "Forbidden"
// @Failure 404 {object} ErrorResponse "Not found"
// @Router /teachers/{id} [patch]
func (h *TeacherHandler) UpdateTeacher(c *gin.Context) {
	actor, ok := h.getActor(c)
	if !ok {
		return
	}

	teacherID, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	var req validator.TeacherProfileUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request body",
			Details: err.Error(),
		})
		return
	}

	h.LogRequest(c, "Updating teacher", "teacher_id", teacherID)

	teacher, err := h.service.UpdateProfile(c.Request.Context(), teacherID, &req, actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, teacher)
}

// ListTeacherCourses lists the courses assigned to a teacher
// @Summary List teacher courses
// @Tags teachers
// @Produce json
// @Param id path string true "Teacher user ID"
// @Success 200 {object} map[string]interface{} "Course list response"
// @Failure 403 {object} ErrorResponse "Forbidden"
// @Router /teachers/{id}/courses [get]
func (h *TeacherHandler) ListTeacherCourses(c *gin.Context) {
	actor, ok := h.getActor(c)
	if !ok {
		return
	}

	teacherID, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	h.LogRequest(c, "Listing teacher courses", "teacher_id", teacherID)

	limit, offset := h.parsePagination(c)
	filters := repositories.CourseFilters{
		Limit:     limit,
		Offset:    offset,
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}

	courses, total, err := h.service.ListCourses(c.Request.Context(), teacherID, filters, actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, listResponse("courses", courses, total, limit, offset))
}

// ListTeacherStudents lists students actively enrolled in a teacher's courses
// @Summary List teacher students
// @Tags teachers
// @Produce json
// @Param id path string true "Teacher user ID"
// @Success 200 {object} map[string]interface{} "Student list response"
// @Failure 403 {object} ErrorResponse "Forbidden"
// @Router /teachers/{id}/students [get]
func (h *TeacherHandler) ListTeacherStudents(c *gin.Context) {
	actor, ok := h.getActor(c)
	if !ok {
		return
	}

	teacherID, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	h.LogRequest(c, "Listing teacher students", "teacher_id", teacherID)

	limit, offset := h.parsePagination(c)
	filters := repositories.ProfileFilters{
		Query:  c.Query("q"),
		Limit:  limit,
		Offset: offset,
	}

	students, total, err := h.service.ListStudents(c.Request.Context(), teacherID, filters, actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, listResponse("students", students, total, limit, offset))
}

// ListTeacherEnrollments lists enrollments across a teacher's courses
// @Summary List teacher enrollments
// @Tags teachers
// @Produce json
// @Param id path string true "Teacher user ID"
// @Param status query string false "Filter by status (ACTIVE, DROPPED)"
// @Success 200 {object} map[string]interface{} "Enrollment list response"
// @Failure 403 {object} ErrorResponse "Forbidden"
// @Router /teachers/{id}/enrollments [get]
func (h *TeacherHandler) ListTeacherEnrollments(c *gin.Context) {
	actor, ok := h.getActor(c)
	if !ok {
		return
	}

	teacherID, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	h.LogRequest(c, "Listing teacher enrollments", "teacher_id", teacherID)

	filters := parseEnrollmentFilters(c, h.BaseHandler)

	enrollments, total, err := h.service.ListEnrollments(c.Request.Context(), teacherID, filters, actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, listResponse("enrollments", enrollments, total, filters.Limit, filters.Offset))
}
