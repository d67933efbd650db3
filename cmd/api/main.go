package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/linguahub/institute-api/api/swagger"
	"github.com/linguahub/institute-api/internal/handler"
	"github.com/linguahub/institute-api/internal/middleware"
	"github.com/linguahub/institute-api/internal/notify"
	"github.com/linguahub/institute-api/internal/repository"
	"github.com/linguahub/institute-api/internal/service"
	"github.com/linguahub/institute-api/internal/store"
	"github.com/linguahub/institute-api/pkg/cache"
	"github.com/linguahub/institute-api/pkg/config"
	"github.com/linguahub/institute-api/pkg/database"
	"github.com/linguahub/institute-api/pkg/logger"
	corsmiddleware "github.com/linguahub/institute-api/pkg/middleware/cors"
	reqidmiddleware "github.com/linguahub/institute-api/pkg/middleware/requestid"
)

// @title LinguaHub Institute API
// @version 1.0.0
// @description Multi-tenant management API for language institutes
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		// The dashboard cache degrades to direct reads without redis.
		logr.Sugar().Warnw("redis unavailable, dashboard caching disabled", "error", err)
		redisClient = nil
	}

	validate := validator.New()

	institutionRepo := repository.NewInstitutionRepository(db)
	userRepo := repository.NewUserRepository(db)
	inviteRepo := repository.NewInviteRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	stores := store.NewSet(func() *store.Registry {
		return store.NewRegistry(studentRepo, courseRepo, enrollmentRepo, paymentRepo, attendanceRepo)
	})

	metricsSvc := service.NewMetricsService()

	authSvc := service.NewAuthService(userRepo, cfg.JWT, validate, logr)
	institutionSvc := service.NewInstitutionService(institutionRepo, userRepo, validate, logr)
	inviteSvc := service.NewInviteService(inviteRepo, userRepo, cfg.Invites, validate, logr)
	notificationSvc := service.NewNotificationService(notificationRepo, validate, logr)
	inviteSvc.SetNotifier(notificationSvc)
	studentSvc := service.NewStudentService(studentRepo, enrollmentRepo, paymentRepo, stores, validate, logr)
	courseSvc := service.NewCourseService(courseRepo, stores, validate, logr)
	enrollmentSvc := service.NewEnrollmentService(enrollmentRepo, courseRepo, studentRepo, stores, cfg.Dashboard.ExpiringInDays, validate, logr)
	attendanceSvc := service.NewAttendanceService(attendanceRepo, courseRepo, stores, validate, logr)
	paymentSvc := service.NewPaymentService(paymentRepo, enrollmentRepo, stores, validate, logr)
	teacherSvc := service.NewTeacherService(teacherRepo, validate, logr)
	messagingSvc := service.NewMessagingService(notify.NewTwilioSender(cfg.Messaging), notify.NewSendgridSender(cfg.Messaging), cfg.Messaging, validate, logr)
	dashboardSvc := service.NewDashboardService(stores, redisClient, cfg.Dashboard, logr)
	dashboardSvc.SetRefreshObserver(metricsSvc.ObserveStoreRefresh)
	reportSvc := service.NewReportService(stores, logr)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handler.Register(r, cfg, handler.Handlers{
		Auth:          handler.NewAuthHandler(authSvc),
		Institutions:  handler.NewInstitutionHandler(institutionSvc, authSvc),
		Invites:       handler.NewInviteHandler(inviteSvc, authSvc),
		Students:      handler.NewStudentHandler(studentSvc, enrollmentSvc, attendanceSvc),
		Courses:       handler.NewCourseHandler(courseSvc),
		Enrollments:   handler.NewEnrollmentHandler(enrollmentSvc),
		Attendance:    handler.NewAttendanceHandler(attendanceSvc),
		Payments:      handler.NewPaymentHandler(paymentSvc),
		Teachers:      handler.NewTeacherHandler(teacherSvc),
		Notifications: handler.NewNotificationHandler(notificationSvc),
		Messaging:     handler.NewMessagingHandler(messagingSvc, metricsSvc),
		Dashboard:     handler.NewDashboardHandler(dashboardSvc),
		Reports:       handler.NewReportHandler(reportSvc),
		AuthService:   authSvc,
		Metrics:       metricsSvc,
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	logr.Sugar().Infow("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Warnw("server shutdown incomplete", "error", err)
	}
	dashboardSvc.Close()
	stores.Close()
}
