package router

import (
	"github.com/anonto42/story-branch/backend/internal/handlers"
	"github.com/anonto42/story-branch/backend/internal/middleware"
	"github.com/anonto42/story-branch/backend/internal/models"
	"github.com/anonto42/story-branch/backend/internal/repositories"
	"github.com/anonto42/story-branch/backend/internal/services"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

// Options tunes the global middleware
type Options struct {
	CORSOrigin   string
	RateLimitRPS float64
	BodyLimit    string
}

// Dependencies are the services the routes are wired to
type Dependencies struct {
	Auth          *services.AuthService
	Videos        *services.VideoService
	Stories       *services.StoryService
	Votes         *services.VoteService
	Orders        *services.OrderService
	Notifications *services.NotificationService
	Users         repositories.UserRepository
	SecureCookies bool
}

// SetupMiddleware configures global Echo middleware
func SetupMiddleware(e *echo.Echo, opts Options, logger *zap.Logger) {
	e.Use(eMiddleware.Recover())
	e.Use(eMiddleware.RequestIDWithConfig(eMiddleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(eMiddleware.RequestLoggerWithConfig(eMiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v eMiddleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("request_id", v.RequestID),
			}
			if v.Error != nil {
				logger.Warn("request failed", append(fields, zap.Error(v.Error))...)
				return nil
			}
			logger.Info("request", fields...)
			return nil
		},
	}))

	origin := opts.CORSOrigin
	if origin == "" {
		origin = "*"
	}
	e.Use(eMiddleware.CORSWithConfig(eMiddleware.CORSConfig{
		AllowOrigins:     []string{origin},
		AllowCredentials: origin != "*",
	}))

	if opts.BodyLimit != "" {
		e.Use(eMiddleware.BodyLimit(opts.BodyLimit))
	}
	if opts.RateLimitRPS > 0 {
		e.Use(eMiddleware.RateLimiter(eMiddleware.NewRateLimiterMemoryStore(rate.Limit(opts.RateLimitRPS))))
	}
	logger.Info("global middleware configured")
}

// Migrate applies the PostgreSQL schema
func Migrate(pgdb *gorm.DB) error {
	return pgdb.AutoMigrate(&models.User{}, &models.Notification{})
}

// SetupRoutes configures all application routes and injects dependencies
func SetupRoutes(e *echo.Echo, deps Dependencies, logger *zap.Logger) {
	e.GET("/health", handlers.HealthCheck)

	requireAuth := middleware.AuthMiddleware(deps.Auth)
	api := e.Group("/api/v1")

	users := api.Group("/users")
	handlers.NewAuthHandler(deps.Auth, deps.SecureCookies).RegisterAuthRoutes(users, requireAuth)
	handlers.NewUserHandler(deps.Auth).RegisterUserRoutes(users, requireAuth)
	logger.Info("user routes configured")

	handlers.NewVideoHandler(deps.Videos).RegisterVideoRoutes(api.Group("/videos"), requireAuth)
	logger.Info("video routes configured")

	handlers.NewStoryHandler(deps.Stories, deps.Votes, deps.Users).RegisterStoryRoutes(api.Group("/stories"), requireAuth)
	logger.Info("story routes configured")

	handlers.NewOrderHandler(deps.Orders).RegisterOrderRoutes(api.Group("/orders"), requireAuth)
	logger.Info("order routes configured")

	handlers.NewNotificationHandler(deps.Notifications, deps.Users).RegisterNotificationRoutes(api.Group("/notifications"), requireAuth)
	logger.Info("notification routes configured")
}
