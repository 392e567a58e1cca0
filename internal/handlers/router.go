package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Abdul-Ahad2004/student-management-service/internal/models"
	"github.com/Abdul-Ahad2004/student-management-service/internal/repositories"
	"github.com/Abdul-Ahad2004/student-management-service/internal/services"
	"github.com/Abdul-Ahad2004/student-management-service/internal/utils"
)

// HandlerManager holds all HTTP handlers and the auth middleware.
type HandlerManager struct {
	authHandler         *AuthHandler
	userHandler         *UserHandler
	teacherHandler      *TeacherHandler
	studentHandler      *StudentHandler
	courseHandler       *CourseHandler
	enrollmentHandler   *EnrollmentHandler
	notificationHandler *NotificationHandler
	authMiddleware      *JWTAuthMiddleware
}

// NewHandlerManager creates all handlers from the service manager.
func NewHandlerManager(
	serviceManager services.ServiceManager,
	logger utils.Logger,
	authConfig services.AuthConfig,
	userRepo repositories.UserRepository,
) *HandlerManager {
	return &HandlerManager{
		authHandler:         NewAuthHandler(serviceManager.Auth(), logger),
		userHandler:         NewUserHandler(serviceManager.User(), logger),
		teacherHandler:      NewTeacherHandler(serviceManager.Teacher(), logger),
		studentHandler:      NewStudentHandler(serviceManager.Student(), logger),
		courseHandler:       NewCourseHandler(serviceManager.Course(), serviceManager.Report(), logger),
		enrollmentHandler:   NewEnrollmentHandler(serviceManager.Enrollment(), logger),
		notificationHandler: NewNotificationHandler(serviceManager.Notification(), logger),
		authMiddleware:      NewJWTAuthMiddleware(authConfig, userRepo),
	}
}

// SetupRoutes registers all API routes. Everything under /api/v1 except
// login requires a bearer token; per-object access rules live in the
// services, the route-level role gates only cut off whole role classes.
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.POST("/api/v1/auth/login", hm.authHandler.Login)

	v1 := router.Group("/api/v1")
	v1.Use(hm.authMiddleware.AuthMiddleware())
	{
		users := v1.Group("/users")
		{
			users.POST("", hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin), hm.userHandler.CreateUser)
			users.GET("", hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin), hm.userHandler.ListUsers)
			users.GET("/me", hm.userHandler.GetMe)
			users.PATCH("/me", hm.userHandler.UpdateMe)
			users.POST("/me/change-password", hm.userHandler.ChangePassword)
			users.GET("/:id", hm.userHandler.GetUser)
		}

		teachers := v1.Group("/teachers")
		{
			teachers.GET("", hm.teacherHandler.ListTeachers)
			teachers.GET("/:id", hm.teacherHandler.GetTeacher)
			teachers.PATCH("/:id", hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher), hm.teacherHandler.UpdateTeacher)
			teachers.GET("/:id/courses", hm.teacherHandler.ListTeacherCourses)
			teachers.GET("/:id/students", hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher), hm.teacherHandler.ListTeacherStudents)
			teachers.GET("/:id/enrollments", hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher), hm.teacherHandler.ListTeacherEnrollments)
		}

		students := v1.Group("/students")
		{
			students.GET("", hm.studentHandler.ListStudents)
			students.GET("/:id", hm.studentHandler.GetStudent)
			students.PATCH("/:id", hm.studentHandler.UpdateStudent)
			students.GET("/:id/enrollments", hm.studentHandler.ListStudentEnrollments)
		}

		courses := v1.Group("/courses")
		{
			courses.POST("", hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin), hm.courseHandler.CreateCourse)
			courses.GET("", hm.courseHandler.ListCourses)
			courses.GET("/:id", hm.courseHandler.GetCourse)
			courses.PUT("/:id", hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin), hm.courseHandler.UpdateCourse)
			courses.DELETE("/:id", hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin), hm.courseHandler.DeleteCourse)
			courses.GET("/:id/students", hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher), hm.courseHandler.ListCourseStudents)
			courses.GET("/:id/enrollments", hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher), hm.courseHandler.ListCourseEnrollments)
			courses.GET("/:id/roster/export", hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher), hm.courseHandler.ExportCourseRoster)
		}

		enrollments := v1.Group("/enrollments")
		{
			enrollments.POST("", hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher), hm.enrollmentHandler.CreateEnrollment)
			enrollments.GET("", hm.enrollmentHandler.ListEnrollments)
			enrollments.GET("/:id", hm.enrollmentHandler.GetEnrollment)
			enrollments.DELETE("/:id", hm.enrollmentHandler.DropEnrollment)
		}

		v1.GET("/notifications", hm.notificationHandler.ListNotifications)
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "student-management-service",
		})
	})
}
