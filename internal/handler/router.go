package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/linguahub/institute-api/internal/middleware"
	"github.com/linguahub/institute-api/internal/service"
	"github.com/linguahub/institute-api/pkg/config"
)

// Handlers bundles every HTTP handler plus the services the route middleware
// depends on.
type Handlers struct {
	Auth          *AuthHandler
	Institutions  *InstitutionHandler
	Invites       *InviteHandler
	Students      *StudentHandler
	Courses       *CourseHandler
	Enrollments   *EnrollmentHandler
	Attendance    *AttendanceHandler
	Payments      *PaymentHandler
	Teachers      *TeacherHandler
	Notifications *NotificationHandler
	Messaging     *MessagingHandler
	Dashboard     *DashboardHandler
	Reports       *ReportHandler

	AuthService *service.AuthService
	Metrics     *service.MetricsService
}

// Register wires all routes under the configured API prefix.
//
// Route protection is layered: everything past /auth requires a valid token,
// tenant routes additionally require an institution binding in the claims,
// and administrative surfaces (invites, institution rename, payments, staff
// management, messaging, reports) require the admin role on top of that.
func Register(r *gin.Engine, cfg *config.Config, h Handlers) {
	limiter := middleware.NewRateLimiter(cfg.RateLimit.Window)
	if h.Metrics != nil {
		limiter.OnLimited = h.Metrics.ObserveRateLimited
	}

	api := r.Group(cfg.APIPrefix)

	api.POST("/auth/register", h.Auth.Register)
	api.POST("/auth/login", h.Auth.Login)

	authed := api.Group("", middleware.JWT(h.AuthService))
	authed.GET("/auth/me", h.Auth.Me)

	// Onboarding: reachable with a token but before any tenant binding.
	authed.POST("/institutions", h.Institutions.Create)
	authed.POST("/invites/redeem", h.Invites.Redeem)

	tenant := authed.Group("", middleware.RequireInstitution())

	tenant.GET("/institution", h.Institutions.Get)
	tenant.PATCH("/institution", middleware.AdminOnly(), h.Institutions.Rename)

	invites := tenant.Group("/invites", middleware.AdminOnly())
	invites.POST("", h.Invites.Create)
	invites.GET("", h.Invites.List)
	invites.DELETE("/:id", h.Invites.Delete)

	students := tenant.Group("/students")
	students.GET("", h.Students.List)
	students.POST("", h.Students.Create)
	students.GET("/:id", h.Students.Get)
	students.PUT("/:id", h.Students.Update)
	students.DELETE("/:id", middleware.AdminOnly(), h.Students.Delete)
	students.GET("/:id/enrollments", h.Students.Enrollments)
	students.GET("/:id/attendance", h.Students.AttendanceStats)

	courses := tenant.Group("/courses")
	courses.GET("", h.Courses.List)
	courses.POST("", middleware.AdminOnly(), h.Courses.Create)
	courses.GET("/:id", h.Courses.Get)
	courses.PUT("/:id", middleware.AdminOnly(), h.Courses.Update)
	courses.DELETE("/:id", middleware.AdminOnly(), h.Courses.Delete)

	enrollments := tenant.Group("/enrollments")
	enrollments.GET("", h.Enrollments.List)
	enrollments.POST("", h.Enrollments.Enroll)
	enrollments.GET("/expiring", h.Enrollments.Expiring)
	enrollments.GET("/:id", h.Enrollments.Get)
	enrollments.POST("/:id/complete", h.Enrollments.Complete)
	enrollments.POST("/:id/cancel", h.Enrollments.Cancel)

	attendance := tenant.Group("/attendance")
	attendance.POST("", h.Attendance.Save)
	attendance.GET("/:course_id", h.Attendance.GetByDate)
	attendance.GET("/:course_id/history", h.Attendance.CourseHistory)

	payments := tenant.Group("/payments", middleware.AdminOnly())
	payments.GET("", h.Payments.List)
	payments.POST("", h.Payments.Create)
	payments.GET("/summary", h.Payments.Summary)
	payments.GET("/outstanding", h.Payments.Outstanding)
	payments.GET("/:id", h.Payments.Get)
	payments.PUT("/:id", h.Payments.Update)
	payments.DELETE("/:id", h.Payments.Delete)
	payments.POST("/:id/pay", h.Payments.MarkPaid)
	payments.POST("/:id/cancel", h.Payments.Cancel)

	teachers := tenant.Group("/teachers")
	teachers.GET("", h.Teachers.List)
	teachers.GET("/:id", h.Teachers.Get)
	teachers.POST("", middleware.AdminOnly(), h.Teachers.Create)
	teachers.PUT("/:id", middleware.AdminOnly(), h.Teachers.Update)
	teachers.DELETE("/:id", middleware.AdminOnly(), h.Teachers.Delete)

	notifications := tenant.Group("/notifications")
	notifications.GET("", h.Notifications.Feed)
	notifications.GET("/unread-count", h.Notifications.UnreadCount)
	notifications.POST("/:id/read", h.Notifications.MarkRead)
	notifications.POST("/read-all", h.Notifications.MarkAllRead)

	// Outbound messaging shares the notifications prefix; dispatch is
	// admin-only and rate limited per route.
	dispatch := notifications.Group("", middleware.AdminOnly())
	dispatch.POST("/sms", limiter.Limit(cfg.RateLimit.SingleLimit), h.Messaging.SendSMS)
	dispatch.POST("/whatsapp", limiter.Limit(cfg.RateLimit.SingleLimit), h.Messaging.SendWhatsApp)
	dispatch.POST("/email", limiter.Limit(cfg.RateLimit.SingleLimit), h.Messaging.SendEmail)
	dispatch.POST("/bulk", limiter.Limit(cfg.RateLimit.BulkLimit), h.Messaging.SendBulk)

	dashboard := tenant.Group("/dashboard")
	dashboard.GET("/summary", h.Dashboard.Summary)
	dashboard.GET("/expiring", h.Enrollments.Expiring)

	reports := tenant.Group("/reports", middleware.AdminOnly())
	reports.GET("/students", h.Reports.Students)
	reports.GET("/payments", h.Reports.Payments)
	reports.GET("/enrollments", h.Reports.Enrollments)
}
