package main

import (
	"context"

	"github.com/codesurge/hackathon/internal/config"
	"github.com/codesurge/hackathon/internal/handlers"
	"github.com/codesurge/hackathon/internal/middleware"
	"github.com/codesurge/hackathon/internal/services"
	"github.com/codesurge/hackathon/internal/store"
	"github.com/codesurge/hackathon/internal/utils"
	"github.com/codesurge/hackathon/pkg/logger"
)

// appServices holds all initialized services and handlers needed by the application.
type appServices struct {
	store       store.Store
	taskQueue   services.TaskQueue
	worker      *services.Worker
	sweep       *services.SweepScheduler
	authLimiter *middleware.RateLimiter

	authHandler      *handlers.AuthHandler
	userHandler      *handlers.UserHandler
	problemHandler   *handlers.ProblemHandler
	hackathonHandler *handlers.HackathonHandler
	sseHandler       *handlers.SSEHandler
	healthHandler    *handlers.HealthHandler
}

// bootstrap initializes all application dependencies: store, queue, services, schedulers.
func bootstrap(ctx context.Context, cfg *config.Config) *appServices {
	utils.SetJWTSecret(cfg.JWT.Secret)

	st, err := store.Open(ctx, &cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	logger.Info().Str("driver", cfg.Database.Driver).Msg("Database connected")

	loc := cfg.Hackathon.Location()

	// Notification delivery: Redis queue + worker when enabled, otherwise in-process
	emailService := services.NewEmailService(&cfg.Email, loc)
	taskQueue := services.NewTaskQueue(&cfg.Redis)
	if syncQueue, ok := taskQueue.(*services.SyncQueue); ok {
		syncQueue.SetProcessor(emailService.Deliver)
	}
	worker := services.NewWorker(&cfg.Redis, emailService.Deliver)
	if worker != nil {
		if err := worker.Start(); err != nil {
			logger.Error().Err(err).Msg("Failed to start notification worker")
		}
	}

	hub := services.NewSSEHub()
	notifier := services.NewNotificationService(taskQueue, hub)

	authService := services.NewAuthService(st, notifier, &cfg.JWT)
	userService := services.NewUserService(st)
	problemService := services.NewProblemService(st)
	hackathonService := services.NewHackathonService(st, notifier, &cfg.Hackathon)

	sweep := services.NewSweepScheduler(hackathonService, cfg.Hackathon.SweepInterval())
	if err := sweep.Start(); err != nil {
		logger.Error().Err(err).Msg("Failed to start expiry sweep")
	}

	if err := authService.CreateAdminIfNotExists(ctx, &cfg.Admin); err != nil {
		logger.Warn().Err(err).Msg("Failed to create admin user")
	}

	return &appServices{
		store:       st,
		taskQueue:   taskQueue,
		worker:      worker,
		sweep:       sweep,
		authLimiter: middleware.NewRateLimiter(cfg.Server.AuthRateRPS, cfg.Server.AuthRateBurst),

		authHandler:      handlers.NewAuthHandler(authService, userService),
		userHandler:      handlers.NewUserHandler(userService),
		problemHandler:   handlers.NewProblemHandler(problemService),
		hackathonHandler: handlers.NewHackathonHandler(hackathonService, sweep, loc),
		sseHandler:       handlers.NewSSEHandler(hub),
		healthHandler:    handlers.NewHealthHandler(st, taskQueue, hub),
	}
}

// shutdown gracefully stops all services.
func (s *appServices) shutdown(ctx context.Context) {
	s.sweep.Stop()
	logger.Info().Msg("Expiry sweep stopped")

	if s.worker != nil {
		s.worker.Stop()
	}
	if s.taskQueue != nil {
		if err := s.taskQueue.Close(); err != nil {
			logger.Warn().Err(err).Msg("Failed to close task queue")
		}
	}
	s.authLimiter.Stop()

	if err := s.store.Close(ctx); err != nil {
		logger.Warn().Err(err).Msg("Failed to close database")
	}
}
