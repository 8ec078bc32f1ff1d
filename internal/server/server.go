package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/gastro-elite/backend/config"
	"github.com/gastro-elite/backend/internal/api"
	"github.com/gastro-elite/backend/internal/database"
	"github.com/gastro-elite/backend/internal/logger"
	"github.com/gastro-elite/backend/internal/middleware"
	"github.com/gastro-elite/backend/internal/router"
	"github.com/gastro-elite/backend/internal/service"
)

// Server represents the HTTP server
type Server struct {
	cfg    *config.Config
	router *gin.Engine
	http   *http.Server
	db     *gorm.DB
	redis  *redis.Client
}

// New connects to the backing stores and wires the application.
func New(ctx context.Context, cfg *config.Config) (*Server, error) {
	db, err := database.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if cfg.AutoMigrate {
		if err := database.RunMigrations(ctx, db); err != nil {
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	// Rate limiting is skipped when Redis is not available
	var redisClient *redis.Client
	if cfg.RedisURL != "" || cfg.Environment == config.Production {
		redisClient, err = database.NewRedisClient(ctx, cfg)
		if err != nil {
			logger.Warn(ctx, "redis unavailable, rate limiting disabled", zap.Error(err))
			redisClient = nil
		}
	}

	sender, err := service.NewSender(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var store service.ObjectStore
	if cfg.StorageEnabled() {
		s3cfg, err := config.NewS3Config(ctx, cfg)
		if err != nil {
			return nil, err
		}
		store = service.NewS3Store(s3cfg)
	} else {
		logger.Warn(ctx, "S3_BUCKET_NAME not set, recipe image uploads disabled")
	}

	services, err := NewServices(db, redisClient, sender, store, cfg)
	if err != nil {
		return nil, err
	}

	return &Server{
		cfg:    cfg,
		router: router.SetupRouter(cfg, services),
		db:     db,
		redis:  redisClient,
	}, nil
}

// NewServices builds the service graph on top of already opened stores.
func NewServices(db *gorm.DB, redisClient *redis.Client, sender service.Sender, store service.ObjectStore, cfg *config.Config) (*api.Services, error) {
	email, err := service.NewEmailService(sender, cfg.AppURL, cfg.AdminEmail)
	if err != nil {
		return nil, err
	}

	audit := service.NewAuditService(db)
	recipes := service.NewRecipeService(db, audit)

	return &api.Services{
		DB:           db,
		Auth:         service.NewAuthService(db, cfg.JWTSecret, cfg.TokenTTL, email, audit),
		Recipes:      recipes,
		Images:       service.NewImageService(store, recipes),
		Categories:   service.NewCategoryService(db, audit),
		Companies:    service.NewCompanyService(db, audit),
		Invitations:  service.NewInvitationService(db, email, audit),
		Admin:        service.NewAdminService(db, email, audit),
		Audit:        audit,
		LoginLimiter: middleware.NewLoginRateLimiter(redisClient, cfg.LoginRateLimit, cfg.RateLimitWindow),
		ResetLimiter: middleware.NewPasswordResetRateLimiter(redisClient, cfg.ResetRateLimit, cfg.RateLimitWindow),
		TokenTTL:     cfg.TokenTTL,
		SecureCookie: cfg.CookieSecure,
	}, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves HTTP until Shutdown is called.
func (s *Server) Start() error {
	s.http = &http.Server{
		Addr:              s.cfg.Addr(),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info(context.Background(), "starting server", zap.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and closes the stores.
func (s *Server) Shutdown(ctx context.Context) error {
	var errs []error
	if s.http != nil {
		errs = append(errs, s.http.Shutdown(ctx))
	}
	if s.redis != nil {
		errs = append(errs, s.redis.Close())
	}
	errs = append(errs, database.Close(s.db))
	return errors.Join(errs...)
}
