package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Abdul-Ahad2004/student-management-service/internal/repositories"
	"github.com/Abdul-Ahad2004/student-management-service/internal/services"
	"github.com/Abdul-Ahad2004/student-management-service/internal/utils"
	"github.com/Abdul-Ahad2004/student-management-service/internal/validator"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type CourseHandler struct {
	BaseHandler
	service services.CourseService
	reports services.ReportService
}

func NewCourseHandler(service services.CourseService, reports services.ReportService, logger utils.Logger) *CourseHandler {
	return &CourseHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
		reports:     reports,
	}
}

// CreateCourse creates a course
// @Summary Create course
// @Description Create a course, optionally assigning a teacher (admin only)
// @Tags courses
// @Accept json
// @Produce json
// @Param request body validator.CourseCreateRequest true "Course data"
// @Success 201 {object} models.Course
// @Failure 400 {object} ErrorResponse "Bad request"
// @Failure 403 {object} ErrorResponse "Forbidden"
// @Router /courses [post]
func (h *CourseHandler) CreateCourse(c *gin.Context) {
	actor, ok := h.getActor(c)
	if !ok {
		return
	}

	var req validator.CourseCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request body",
			Details: err.Error(),
		})
		return
	}

	h.LogRequest(c, "Creating course", "title", req.Title)

	course, err := h.service.Create(c.Request.Context(), &req, actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, course)
}

// ListCourses lists courses, scoped by role
// @Summary List courses
// @Description Admins see all courses, teachers their own, students the courses they are actively enrolled in
// @Tags courses
// @Produce json
// @Param page query int false "Page number (default: 1)"
// @Param size query int false "Page size (default: 10, max: 100)"
// @Param title query string false "Filter by title substring"
// @Param teacher_id query string false "Filter by assigned teacher"
// @Success 200 {object} map[string]interface{} "Course list response"
// @Router /courses [get]
func (h *CourseHandler) ListCourses(c *gin.Context) {
	actor, ok := h.getActor(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Listing courses")

	filters := h.parseCourseFilters(c)

	courses, total, err := h.service.List(c.Request.Context(), filters, actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, listResponse("courses", courses, total, filters.Limit, filters.Offset))
}

// GetCourse retrieves a course
// @Summary Get course by ID
// @Description Admin, the assigned teacher, or a student with an ACTIVE enrollment
// @Tags courses
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} models.Course
// @Failure 403 {object} ErrorResponse "Forbidden"
// @Failure 404 {object} ErrorResponse "Not found"
// @Router /courses/{id} [get]
func (h *CourseHandler) GetCourse(c *gin.Context) {
	actor, ok := h.getActor(c)
	if !ok {
		return
	}

	courseID, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	h.LogRequest(c, "Getting course", "course_id", courseID)

	course, err := h.service.GetByID(c.Request.Context(), courseID, actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, course)
}

// UpdateCourse updates a course
// @Summary Update course
// @Description Update course fields; a teacher_id change emits a course-assignment notification (admin only)
// @Tags courses
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param request body validator.CourseUpdateRequest true "Fields to update"
// @Success 200 {object} models.Course
// @Failure 400 {object} ErrorResponse "Bad request"
// @Failure 403 {object} ErrorResponse "Forbidden"
// @Failure 404 {object} ErrorResponse "Not found"
// @Router /courses/{id} [put]
func (h *CourseHandler) UpdateCourse(c *gin.Context) {
	actor, ok := h.getActor(c)
	if !ok {
		return
	}

	courseID, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request body",
		})
		return
	}

	var req validator.CourseUpdateRequest
	if err := json.Unmarshal(body, &req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request body",
			Details: err.Error(),
		})
		return
	}

	// teacher_id: null unassigns, an absent key keeps the current teacher.
	// json.Unmarshal cannot tell the two apart, so check the raw keys.
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err == nil {
		_, req.TeacherIDSet = raw["teacher_id"]
	}

	h.LogRequest(c, "Updating course", "course_id", courseID)

	course, err := h.service.Update(c.Request.Context(), courseID, &req, actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, course)
}

// DeleteCourse deletes a course
// @Summary Delete course
// @Description Delete a course without active enrollments (admin only)
// @Tags courses
// @Param id path string true "Course ID"
// @Success 204 "No content"
// @Failure 403 {object} ErrorResponse "Forbidden"
// @Failure 404 {object} ErrorResponse "Not found"
// @Failure 409 {object} ErrorResponse "Course has active enrollments"
// @Router /courses/{id} [delete]
func (h *CourseHandler) DeleteCourse(c *gin.Context) {
	actor, ok := h.getActor(c)
	if !ok {
		return
	}

	courseID, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	h.LogRequest(c, "Deleting course", "course_id", courseID)

	if err := h.service.Delete(c.Request.Context(), courseID, actor); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ListCourseStudents lists students actively enrolled in a course
// @Summary List course students
// @Tags courses
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} map[string]interface{} "Student list response"
// @Failure 403 {object} ErrorResponse "Forbidden"
// @Failure 404 {object} ErrorResponse "Not found"
// @Router /courses/{id}/students [get]
func (h *CourseHandler) ListCourseStudents(c *gin.Context) {
	actor, ok := h.getActor(c)
	if !ok {
		return
	}

	courseID, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	h.LogRequest(c, "Listing course students", "course_id", courseID)

	students, err := h.service.ListStudents(c.Request.Context(), courseID, actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"students": students,
		"total":    len(students),
	})
}

// ListCourseEnrollments lists all enrollments of a course
// @Summary List course enrollments
// @Tags courses
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} map[string]interface{} "Enrollment list response"
// @Failure 403 {object} ErrorResponse "Forbidden"
// @Failure 404 {object} ErrorResponse "Not found"
// @Router /courses/{id}/enrollments [get]
func (h *CourseHandler) ListCourseEnrollments(c *gin.Context) {
	actor, ok := h.getActor(c)
	if !ok {
		return
	}

	courseID, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	h.LogRequest(c, "Listing course enrollments", "course_id", courseID)

	enrollments, err := h.service.ListEnrollments(c.Request.Context(), courseID, actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"enrollments": enrollments,
		"total":       len(enrollments),
	})
}

// ExportCourseRoster downloads the course roster as an .xlsx workbook
// @Summary Export course roster
// @Description Download the roster (admin or assigned teacher)
// @Tags courses
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param id path string true "Course ID"
// @Success 200 {file} binary
// @Failure 403 {object} ErrorResponse "Forbidden"
// @Failure 404 {object} ErrorResponse "Not found"
// @Router /courses/{id}/roster/export [get]
func (h *CourseHandler) ExportCourseRoster(c *gin.Context) {
	actor, ok := h.getActor(c)
	if !ok {
		return
	}

	courseID, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	h.LogRequest(c, "Exporting course roster", "course_id", courseID)

	content, filename, err := h.reports.ExportCourseRoster(c.Request.Context(), courseID, actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, content)
}

// ===== HELPER METHODS =====

func (h *CourseHandler) parseCourseFilters(c *gin.Context) repositories.CourseFilters {
	limit, offset := h.parsePagination(c)

	filters := repositories.CourseFilters{
		Limit:     limit,
		Offset:    offset,
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
		DateFrom:  h.parseDateQuery(c, "from_date"),
		DateTo:    h.parseDateQuery(c, "to_date"),
	}

	if title := c.Query("title"); title != "" {
		filters.Title = &title
	}
	if teacherID := c.Query("teacher_id"); teacherID != "" {
		filters.TeacherID = &teacherID
	}

	return filters
}
