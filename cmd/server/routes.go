package main

import (
	"github.com/gin-gonic/gin"

	"github.com/codesurge/hackathon/internal/config"
	"github.com/codesurge/hackathon/internal/middleware"
	"github.com/codesurge/hackathon/pkg/logger"
)

// registerRoutes sets up all HTTP routes on the given Gin engine.
func registerRoutes(r *gin.Engine, cfg *config.Config, svc *appServices) {
	// Middleware
	r.Use(logger.GinLogger(), logger.GinRecovery())
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false
	r.Use(middleware.CORS(cfg.Server.CORSOrigins))

	r.GET("/health", svc.healthHandler.CheckHealth)

	api := r.Group("/api")
	{
		// Auth routes (public, rate limited)
		auth := api.Group("/auth", svc.authLimiter.Middleware())
		{
			auth.POST("/register", svc.authHandler.Register)
			auth.POST("/login", svc.authHandler.Login)
		}

		// Problem catalog is readable without an account
		api.GET("/hackathon/problems", svc.problemHandler.List)

		// SSE Events (token may come from ?token= since EventSource cannot set headers)
		api.GET("/events/hackathons", middleware.AuthRequired(), svc.sseHandler.StreamHackathonEvents)

		// Protected routes
		protected := api.Group("")
		protected.Use(middleware.AuthRequired())
		{
			// Auth
			protected.GET("/auth/me", svc.authHandler.GetCurrentUser)
			protected.POST("/auth/logout", svc.authHandler.Logout)
			protected.POST("/auth/change-password", svc.authHandler.ChangePassword)

			// Users (own record, or any as admin)
			protected.GET("/users/:id", svc.userHandler.Get)
			protected.GET("/users/team/:teamName", svc.userHandler.GetByTeamName)
			protected.PUT("/users/:id", svc.userHandler.Update)

			// Hackathon
			protected.GET("/hackathon/problems/:id", svc.problemHandler.Get)
			protected.POST("/hackathon/problems/:problemId/select/:userId/:hackathonId", svc.hackathonHandler.SelectProblem)
			protected.POST("/hackathon/problems/:problemId/:userId/:hackathonId", svc.hackathonHandler.SelectProblem)
			protected.POST("/hackathon/submit/:userId", svc.hackathonHandler.Submit)
			protected.GET("/hackathon/status", svc.hackathonHandler.Status)
			protected.GET("/hackathon/all", svc.hackathonHandler.All)
			protected.GET("/hackathon/participations/:userId", svc.hackathonHandler.Participations)
		}

		// Admin only routes
		admin := api.Group("")
		admin.Use(middleware.AuthRequired(), middleware.AdminRequired(), middleware.AuditLog())
		{
			// Problems (write operations)
			admin.POST("/hackathon/problems", svc.problemHandler.Create)
			admin.PUT("/hackathon/problems/:id", svc.problemHandler.Update)
			admin.DELETE("/hackathon/problems/:id", svc.problemHandler.Delete)

			// Lifecycle
			admin.POST("/hackathon/start", svc.hackathonHandler.Start)
			admin.POST("/hackathon/close/:hackathonId", svc.hackathonHandler.Close)
			admin.POST("/hackathon/sweep", svc.hackathonHandler.Sweep)

			// Users
			admin.GET("/users", svc.userHandler.List)
			admin.DELETE("/users/:id", svc.userHandler.Delete)
			admin.POST("/users/:id/problem/:problemId/:hackathonId", svc.hackathonHandler.AssignProblem)
		}
	}
}
