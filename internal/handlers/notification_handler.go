package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Abdul-Ahad2004/student-management-service/internal/models"
	"github.com/Abdul-Ahad2004/student-management-service/internal/repositories"
	"github.com/Abdul-Ahad2004/student-management-service/internal/services"
	"github.com/Abdul-Ahad2004/student-management-service/internal/utils"
)

type NotificationHandler struct {
	BaseHandler
	service services.NotificationService
}

func NewNotificationHandler(service services.NotificationService, logger utils.Logger) *NotificationHandler {
	return &NotificationHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

// ListNotifications lists the caller's notification log
// @Summary List notifications
// @Description Get the authenticated user's notification log, newest first
// @Tags notifications
// @Produce json
// @Param page query int false "Page number (default: 1)"
// @Param size query int false "Page size (default: 10, max: 100)"
// @Param type query string false "Filter by type (ENROLLMENT, REMOVAL, COURSE_ASSIGNMENT, ACCOUNT_CREATED)"
// @Success 200 {object} map[string]interface{} "Notification list response"
// @Router /notifications [get]
func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	actor, ok := h.getActor(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Listing notifications")

	limit, offset := h.parsePagination(c)
	filters := repositories.NotificationFilters{
		Limit:  limit,
		Offset: offset,
	}

	if typeStr := c.Query("type"); typeStr != "" {
		notificationType := models.NotificationType(typeStr)
		switch notificationType {
		case models.NotificationEnrollment, models.NotificationRemoval,
			models.NotificationCourseAssignment, models.NotificationAccountCreated:
			filters.Type = &notificationType
		}
	}

	notifications, total, err := h.service.ListForUser(c.Request.Context(), actor.ID, filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, listResponse("notifications", notifications, total, limit, offset))
}
