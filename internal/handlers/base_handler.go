package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Abdul-Ahad2004/student-management-service/internal/services"
	"github.com/Abdul-Ahad2004/student-management-service/internal/utils"
	"github.com/Abdul-Ahad2004/student-management-service/internal/validator"
)

// ErrorResponse is the common error body for all endpoints.
type ErrorResponse struct {
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// BaseHandler carries the logger and the shared response helpers every
// handler embeds.
type BaseHandler struct {
	logger utils.Logger
}

func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{logger: logger}
}

// LogRequest logs an incoming request with the context logger when one
// is attached, falling back to the handler's own.
func (h BaseHandler) LogRequest(c *gin.Context, msg string, args ...any) {
	utils.GetLogger(c, h.logger).Info(msg, args...)
}

// LogError logs a handler-level failure.
func (h BaseHandler) LogError(c *gin.Context, err error, msg string, args ...any) {
	args = append(args, "error", err.Error())
	utils.GetLogger(c, h.logger).Error(msg, args...)
}

// handleServiceError maps service errors onto HTTP responses:
// not-found -> 404, conflict -> 409, invalid state and policy
// violations -> 400, permission -> 403, authentication -> 401,
// validation -> 400, everything else -> 500.
func (h BaseHandler) handleServiceError(c *gin.Context, err error) {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: validationErrors,
		})
		return
	}

	var permissionError *services.PermissionError
	if errors.As(err, &permissionError) {
		c.JSON(http.StatusForbidden, ErrorResponse{
			Message: "Access denied",
			Details: map[string]interface{}{
				"resource": permissionError.Resource,
				"action":   permissionError.Action,
				"reason":   permissionError.Reason,
			},
		})
		return
	}

	var notFoundError *services.NotFoundError
	if errors.As(err, &notFoundError) {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: notFoundError.Error(),
		})
		return
	}

	var conflictError *services.ConflictError
	if errors.As(err, &conflictError) {
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: conflictError.Message,
		})
		return
	}

	var invalidStateError *services.InvalidStateError
	if errors.As(err, &invalidStateError) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: invalidStateError.Message,
		})
		return
	}

	var policyViolationError *services.PolicyViolationError
	if errors.As(err, &policyViolationError) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: policyViolationError.Message,
		})
		return
	}

	var authenticationError *services.AuthenticationError
	if errors.As(err, &authenticationError) {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: authenticationError.Message,
		})
		return
	}

	h.LogError(c, err, "Unhandled service error")
	c.JSON(http.StatusInternalServerError, ErrorResponse{
		Message: "Internal server error",
	})
}

// getActor extracts the authenticated caller from the context. Returns
// false (after writing a 401) when the auth middleware did not run.
func (h BaseHandler) getActor(c *gin.Context) (services.Actor, bool) {
	actor, err := GetActorFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return services.Actor{}, false
	}
	return actor, true
}

// parseIDParam validates that a path parameter is a UUID.
func (h BaseHandler) parseIDParam(c *gin.Context, name string) (string, bool) {
	id := c.Param(name)
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid " + name + " parameter",
		})
		return "", false
	}
	return id, true
}

// parsePagination reads page/size query parameters and returns
// limit/offset. Size is capped at 100.
func (h BaseHandler) parsePagination(c *gin.Context) (limit, offset int) {
	page := 1
	size := 10

	if pageStr := c.Query("page"); pageStr != "" {
		if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
			page = p
		}
	}
	if sizeStr := c.Query("size"); sizeStr != "" {
		if s, err := strconv.Atoi(sizeStr); err == nil && s > 0 {
			size = s
		}
	}
	if size > 100 {
		size = 100
	}

	return size, (page - 1) * size
}

// parseDateQuery parses an optional RFC3339 query parameter.
func (h BaseHandler) parseDateQuery(c *gin.Context, name string) *time.Time {
	value := c.Query(name)
	if value == "" {
		return nil
	}
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil
	}
	return &parsed
}

// listResponse is the common shape for paginated list endpoints.
func listResponse(key string, items interface{}, total int64, limit, offset int) map[string]interface{} {
	page := (offset / max(limit, 1)) + 1
	return map[string]interface{}{
		key:     items,
		"total": total,
		"page":  page,
		"size":  limit,
	}
}
