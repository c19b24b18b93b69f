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

	"github.com/anonto42/story-branch/backend/internal/repositories"
	"github.com/anonto42/story-branch/backend/internal/router"
	"github.com/anonto42/story-branch/backend/internal/services"
	"github.com/anonto42/story-branch/backend/pkg/cache"
	"github.com/anonto42/story-branch/backend/pkg/config"
	"github.com/anonto42/story-branch/backend/pkg/firebase"
	"github.com/anonto42/story-branch/backend/pkg/logger"
	"github.com/anonto42/story-branch/backend/pkg/storage"
	"github.com/anonto42/story-branch/backend/validators"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zl, err := logger.New(cfg.IsDevelopment(), cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	if err := run(cfg, zl); err != nil {
		zl.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, zl *zap.Logger) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := config.InitDB(ctx, cfg, zl)
	if err != nil {
		return fmt.Errorf("failed to initialize databases: %w", err)
	}
	defer db.CloseDB()

	if err := router.Migrate(db.Postgres); err != nil {
		return fmt.Errorf("failed to auto migrate models: %w", err)
	}

	videoRepo := repositories.NewMongoVideoRepository(db.Database)
	if err := videoRepo.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("failed to create video indexes: %w", err)
	}
	orderRepo := repositories.NewMongoOrderRepository(db.Database)
	if err := orderRepo.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("failed to create order indexes: %w", err)
	}
	storyRepo := repositories.NewStoryRepository(db.Database)
	userRepo := repositories.NewPostgresUserRepository(db.Postgres)
	notificationRepo := repositories.NewPostgresNotificationRepository(db.Postgres)

	var treeCache services.TreeCache = services.NewNoopTreeCache()
	if cfg.RedisAddr != "" {
		rdb, err := cache.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer rdb.Close()
		treeCache = cache.NewRedisTreeCache(rdb, cfg.TreeCacheTTL)
		zl.Info("story tree cache enabled", zap.Duration("ttl", cfg.TreeCacheTTL))
	}

	store, err := storage.NewS3Store(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Endpoint, cfg.S3PublicBaseURL)
	if err != nil {
		return fmt.Errorf("failed to initialize object storage: %w", err)
	}

	var verifier services.IDTokenVerifier
	if cfg.FirebaseCredentialsPath != "" {
		client, err := firebase.NewAuthClient(ctx, cfg.FirebaseCredentialsPath, zl)
		if err != nil {
			return fmt.Errorf("failed to initialize firebase: %w", err)
		}
		verifier = client
	}

	policy, err := services.ParseOrphanPolicy(cfg.OrphanPolicy)
	if err != nil {
		return err
	}
	notifications := services.NewNotificationService(notificationRepo, zl)
	stories := services.NewStoryService(storyRepo, videoRepo, treeCache, policy, zl)
	stories.SetNotifier(notifications)

	tokens := services.NewTokenManager(cfg.AccessTokenSecret, cfg.RefreshTokenSecret, cfg.AccessTokenExpiry, cfg.RefreshTokenExpiry)

	e := echo.New()
	e.HideBanner = true
	e.Validator = validators.NewValidator()

	router.SetupMiddleware(e, router.Options{
		CORSOrigin:   cfg.CORSOrigin,
		RateLimitRPS: cfg.RateLimitRPS,
		BodyLimit:    fmt.Sprintf("%dB", 2*cfg.UploadMaxBytes+(1<<20)),
	}, zl)
	router.SetupRoutes(e, router.Dependencies{
		Auth:          services.NewAuthService(userRepo, tokens, verifier, zl),
		Videos:        services.NewVideoService(videoRepo, store, cfg.UploadMaxBytes, zl),
		Stories:       stories,
		Votes:         services.NewVoteService(videoRepo, treeCache, cfg.VoteMaxRetries, zl),
		Orders:        services.NewOrderService(orderRepo, zl),
		Notifications: notifications,
		Users:         userRepo,
		SecureCookies: !cfg.IsDevelopment(),
	}, zl)

	errCh := make(chan error, 1)
	go func() {
		zl.Info("server starting", zap.String("port", cfg.Port))
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	zl.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
