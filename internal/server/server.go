// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"context"
	"fmt"
	"log"
	"time"

	"codefolio/internal/cache"
	"codefolio/internal/config"
	"codefolio/internal/database"
	"codefolio/internal/featureflags"
	"codefolio/internal/middleware"
	"codefolio/internal/models"
	"codefolio/internal/notifications"
	"codefolio/internal/repository"
	"codefolio/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config      *config.Config
	db          *gorm.DB
	redis       *redis.Client
	app         *fiber.App
	auth        *middleware.Auth
	shutdownCtx context.Context
	shutdownFn  context.CancelFunc

	userRepo         repository.UserRepository
	postRepo         repository.PostRepository
	commentRepo      repository.CommentRepository
	voteRepo         repository.VoteRepository
	followRepo       repository.FollowRepository
	notificationRepo repository.NotificationRepository

	notifier *notifications.Notifier
	hub      *notifications.Hub

	userService         *service.UserService
	postService         *service.PostService
	commentService      *service.CommentService
	voteService         *service.VoteService
	followService       *service.FollowService
	notificationService *service.NotificationService
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)
	return NewServerWithDeps(cfg, db, cache.GetClient())
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	server := &Server{
		config:           cfg,
		db:               db,
		redis:            redisClient,
		auth:             middleware.NewAuth(cfg, redisClient),
		userRepo:         repository.NewUserRepository(db),
		postRepo:         repository.NewPostRepository(db),
		commentRepo:      repository.NewCommentRepository(db),
		voteRepo:         repository.NewVoteRepository(db),
		followRepo:       repository.NewFollowRepository(db),
		notificationRepo: repository.NewNotificationRepository(db),
	}

	// A nil Redis client turns publishing into a no-op; persistence is the
	// delivery contract either way.
	server.notifier = notifications.NewNotifier(redisClient)
	if redisClient != nil {
		server.hub = notifications.NewHub(redisClient)
	}

	server.notificationService = service.NewNotificationService(
		server.notificationRepo, server.userRepo, server.followRepo, server.notifier)
	server.notificationService.SetFlags(featureflags.NewManager(cfg.FeatureFlags))
	server.postService = service.NewPostService(
		server.postRepo, server.userRepo, server.notificationService, server.isAdminByUserID)
	server.commentService = service.NewCommentService(
		server.commentRepo, server.postRepo, server.notificationService, server.isAdminByUserID)
	server.voteService = service.NewVoteService(
		server.voteRepo, server.postRepo, server.notificationService)
	server.followService = service.NewFollowService(
		server.followRepo, server.userRepo, server.notificationService)
	server.userService = service.NewUserService(server.userRepo)

	return server, nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	// Context Middleware to propagate Request ID and User ID
	app.Use(middleware.ContextMiddleware())

	// Prometheus HTTP metrics + /metrics endpoint
	middleware.InitMetrics(app, "codefolio-api")

	// Security headers
	app.Use(helmet.New())

	// Structured Logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	if s.config.TracingEnabled {
		app.Use(middleware.TracingMiddleware())
	}

	// CORS middleware should run before middlewares that can short-circuit (e.g. limiter)
	// so browser clients still receive CORS headers on error responses.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		// Never rate-limit preflight requests; they should be handled by CORS.
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	api := app.Group("/api")

	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	// Backwards-compatible legacy route: map /health to readiness
	app.Get("/health", s.ReadinessCheck)

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/signup", middleware.RateLimit(
		s.redis, 3, 10*time.Minute, "signup"), s.Signup)
	auth.Post("/login", middleware.RateLimit(
		s.redis, 10, 5*time.Minute, "login"), s.Login)
	auth.Post("/refresh", s.Refresh)
	auth.Post("/logout", s.auth.Required, s.Logout)
	auth.Post("/forgot-password", middleware.RateLimit(
		s.redis, 3, 10*time.Minute, "forgot_password"), s.ForgotPassword)
	auth.Post("/reset-password", middleware.RateLimit(
		s.redis, 5, 10*time.Minute, "reset_password"), s.ResetPassword)

	// Post routes. Reads are public with optional auth for the liked field;
	// writes require auth. Specific /:id/:resource routes come BEFORE the
	// generic /:id routes.
	posts := api.Group("/posts")
	posts.Get("/", s.auth.Optional, s.GetPosts)
	posts.Get("/search", middleware.RateLimit(
		s.redis, 10, time.Minute, "search"), s.auth.Optional, s.SearchPosts)
	posts.Post("/", s.auth.Required, middleware.RateLimit(
		s.redis, 5, 5*time.Minute, "create_post"), s.CreatePost)
	posts.Get("/:id/comments", s.GetComments)
	posts.Post("/:id/comments", s.auth.Required, middleware.RateLimit(
		s.redis, 10, time.Minute, "create_comment"), s.CreateComment)
	posts.Post("/:id/comments/:commentId/replies", s.auth.Required, middleware.RateLimit(
		s.redis, 10, time.Minute, "create_reply"), s.CreateReply)
	posts.Patch("/:id/comments/:commentId/replies/:replyId", s.auth.Required, s.UpdateReply)
	posts.Delete("/:id/comments/:commentId/replies/:replyId", s.auth.Required, s.DeleteReply)
	posts.Patch("/:id/comments/:commentId", s.auth.Required, s.UpdateComment)
	posts.Delete("/:id/comments/:commentId", s.auth.Required, s.DeleteComment)
	posts.Post("/:id/upvote", s.auth.Required, s.UpvotePost)
	posts.Post("/:id/downvote", s.auth.Required, s.DownvotePost)
	posts.Get("/:id", s.auth.Optional, s.GetPost)
	posts.Patch("/:id", s.auth.Required, s.UpdatePost)
	posts.Delete("/:id", s.auth.Required, s.DeletePost)

	// User routes. /me and /search before the generic /:username.
	users := api.Group("/users")
	users.Get("/", s.GetUsers)
	users.Get("/search", middleware.RateLimit(
		s.redis, 10, time.Minute, "user_search"), s.SearchUsers)
	users.Get("/me", s.auth.Required, s.GetMyProfile)
	users.Patch("/me", s.auth.Required, s.UpdateMyProfile)
	users.Delete("/me", s.auth.Required, s.DeleteMyAccount)
	users.Post("/:id/follow", s.auth.Required, middleware.RateLimit(
		s.redis, 30, 5*time.Minute, "follow"), s.FollowUser)
	users.Delete("/:id/follow", s.auth.Required, s.UnfollowUser)
	users.Get("/:id/followers", s.GetFollowers)
	users.Get("/:id/following", s.GetFollowing)
	users.Post("/:id/promote-admin", s.auth.Required, s.AdminRequired(), s.PromoteToAdmin)
	users.Post("/:id/demote-admin", s.auth.Required, s.AdminRequired(), s.DemoteFromAdmin)
	users.Get("/:username/posts", s.auth.Optional, s.GetUserPosts)
	users.Get("/:username", s.GetUserProfile)

	// Notification routes, all ownership-filtered by the authenticated user.
	notificationsGroup := api.Group("/notifications", s.auth.Required)
	notificationsGroup.Get("/", s.GetNotifications)
	notificationsGroup.Get("/unread-count", s.GetUnreadCount)
	notificationsGroup.Patch("/read-all", s.MarkAllNotificationsRead)
	notificationsGroup.Patch("/:id/read", s.MarkNotificationRead)
	notificationsGroup.Delete("/:id", s.DeleteNotification)
	notificationsGroup.Delete("/", s.DeleteAllNotifications)

	// WebSocket notification stream
	api.Post("/ws/ticket", s.auth.Required, s.IssueWSTicket)
	api.Get("/ws", s.auth.WebSocket, s.WebsocketHandler())
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "healthy"
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	} else {
		// Redis is considered required for full readiness in this app
		redisStatus = "unavailable"
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" || redisStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// AdminRequired returns middleware that rejects non-admin users with 403.
// Must be placed after the auth middleware so that userID is available in locals.
func (s *Server) AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Locals("userID").(uint)

		admin, err := s.isAdmin(c, userID)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusInternalServerError, err)
		}
		if !admin {
			return models.RespondWithError(c, fiber.StatusForbidden,
				models.NewForbiddenError("Admin access required", nil))
		}

		return c.Next()
	}
}

// currentUserID returns the authenticated user ID, or zero for anonymous
// requests that passed through optional auth.
func (s *Server) currentUserID(c *fiber.Ctx) uint {
	if id, ok := c.Locals("userID").(uint); ok {
		return id
	}
	return 0
}

// Start starts the server
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	app := fiber.New(fiber.Config{
		AppName: "CodeFolio API",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError("Something went wrong", err))
		},
	})
	s.app = app

	s.SetupMiddleware(app)
	s.SetupRoutes(app)

	// Wire the hub to the Redis subscriber if available
	if s.hub != nil {
		go func() {
			if err := s.hub.StartWiring(s.shutdownCtx, s.notifier); err != nil {
				log.Printf("failed to start notification hub wiring: %v", err)
			}
		}()
	}

	log.Printf("Server starting on port %s...", s.config.Port)
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	// Cancel the server-scoped context to stop the wiring goroutine
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			log.Printf("error shutting down HTTP server: %v", err)
		}
	}

	if s.hub != nil {
		if err := s.hub.Shutdown(ctx); err != nil {
			log.Printf("error shutting down notification hub: %v", err)
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Printf("error closing sql DB: %v", cerr)
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			log.Printf("error closing redis: %v", rerr)
		}
	}

	log.Println("Server shutdown complete")
	return nil
}
