package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/healthbook/healthbook-api/internal/config"
	"github.com/healthbook/healthbook-api/internal/email"
	"github.com/healthbook/healthbook-api/internal/handler"
	appointmentHandler "github.com/healthbook/healthbook-api/internal/handler/appointment"
	authHandler "github.com/healthbook/healthbook-api/internal/handler/auth"
	doctorHandler "github.com/healthbook/healthbook-api/internal/handler/doctor"
	userHandler "github.com/healthbook/healthbook-api/internal/handler/user"
	"github.com/healthbook/healthbook-api/internal/middleware"
	"github.com/healthbook/healthbook-api/internal/repository/postgres"
	"github.com/healthbook/healthbook-api/internal/router"
	appointmentService "github.com/healthbook/healthbook-api/internal/service/appointment"
	authService "github.com/healthbook/healthbook-api/internal/service/auth"
	doctorService "github.com/healthbook/healthbook-api/internal/service/doctor"
	notificationService "github.com/healthbook/healthbook-api/internal/service/notification"
	userService "github.com/healthbook/healthbook-api/internal/service/user"
	"github.com/healthbook/healthbook-api/internal/storage"
	"github.com/healthbook/healthbook-api/pkg/auth"
	"github.com/healthbook/healthbook-api/pkg/logger"
	"github.com/healthbook/healthbook-api/pkg/metrics"
	"github.com/healthbook/healthbook-api/pkg/security"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{
		Level:   cfg.Log.Level,
		Pretty:  cfg.Log.Pretty,
		Service: "healthbook-api",
	})

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal(err, "failed to connect to database")
	}
	defer db.Close()

	m := metrics.New("healthbook")

	// Repositories
	userRepo := postgres.NewUserRepository(db)
	doctorRepo := postgres.NewDoctorRepository(db)
	appointmentRepo := postgres.NewAppointmentRepository(db)
	notificationRepo := postgres.NewNotificationRepository(db)
	tokenRepo := postgres.NewTokenRepository(db)
	outboxRepo := postgres.NewOutboxRepository(db)

	// Collaborators
	emailSvc := email.NewSMTPService(cfg.SMTP)
	notifSvc := notificationService.NewService(notificationRepo, emailSvc, log)
	jwtSvc := auth.NewJWTService(cfg.JWT.Secret, time.Duration(cfg.JWT.ExpiryHours)*time.Hour)
	hasher := security.NewBcryptHasher(12)

	images, err := storage.NewImageStore(cfg.Upload)
	if err != nil {
		log.Fatal(err, "failed to initialize image store")
	}

	// Services
	appointmentSvc := appointmentService.NewService(
		appointmentRepo, userRepo, doctorRepo, outboxRepo, notifSvc, m, log)
	authSvc := authService.NewService(
		userRepo, tokenRepo, jwtSvc, hasher, notifSvc,
		time.Duration(cfg.JWT.ExpiryHours)*time.Hour, log)
	doctorSvc := doctorService.NewService(doctorRepo)
	userSvc := userService.NewService(userRepo)

	// Handlers
	h := handler.NewHandler(db)
	r := router.New(
		log.Zerolog(),
		middleware.NewAuthMiddleware(jwtSvc),
		authHandler.NewHandler(authSvc),
		appointmentHandler.NewHandler(appointmentSvc),
		doctorHandler.NewHandler(doctorSvc),
		userHandler.NewHandler(userSvc, images),
		h,
		cfg.Server,
		cfg.Upload,
	)
	r.Setup()

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: r.Engine(),
	}

	go func() {
		log.Info(fmt.Sprintf("listening on :%d", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err, "failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal(err, "server forced to shutdown")
	}

	log.Info("server exited properly")
}
