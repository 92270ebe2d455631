package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/hugh/cardboard/internal/api"
	"github.com/hugh/cardboard/internal/api/handlers"
	"github.com/hugh/cardboard/internal/api/middleware"
	"github.com/hugh/cardboard/internal/auth"
	"github.com/hugh/cardboard/internal/cards"
	"github.com/hugh/cardboard/internal/database"
	"github.com/hugh/cardboard/internal/tasks"
	"github.com/hugh/cardboard/pkg/config"
	"github.com/hugh/cardboard/pkg/queue"
	"github.com/hugh/cardboard/pkg/util"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

func main() {
	// Load .env file
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := util.NewLogger(cfg.Server.Env)
	slog.SetDefault(logger)

	logger.Info("starting cardboard server",
		"env", cfg.Server.Env,
		"addr", cfg.Server.Addr(),
	)

	// Connect to database
	db, err := database.Connect(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	if cfg.Database.AutoMigrate {
		if err := database.AutoMigrate(db); err != nil {
			logger.Error("failed to migrate database", "error", err)
			os.Exit(1)
		}
	}

	// Connect to Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
	})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		logger.Warn("failed to connect to Redis, card events are recorded inline", "error", err)
		_ = redisClient.Close()
		redisClient = nil
	}

	// Card events go through the worker when a queue is available
	var (
		asynqClient *asynq.Client
		publisher   cards.EventPublisher
	)
	if redisClient != nil {
		asynqClient = queue.NewClient(&cfg.Redis)
		publisher = tasks.NewEventPublisher(asynqClient)
	} else {
		publisher = cards.InlinePublisher(db)
	}

	limiter, stopLimiter := newLimiter(redisClient, cfg.RateLimit.Requests, cfg.RateLimit.WindowSeconds, logger)
	defer stopLimiter()
	userLimiter, stopUserLimiter := newLimiter(redisClient, cfg.RateLimit.UserRequests, cfg.RateLimit.WindowSeconds, logger)
	defer stopUserLimiter()

	// Initialize services
	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Expiry(), auth.WithIssuer(cfg.JWT.Issuer))
	authService := auth.NewService(db, jwtService,
		auth.WithLogger(logger),
		auth.WithAdminRegistration(cfg.Registration.AllowAdmin),
	)
	cardService := cards.NewService(db, logger, cards.WithPublisher(publisher))

	// Create router
	router := api.NewRouter(api.RouterConfig{
		DB:             db,
		Redis:          redisClient,
		Logger:         logger,
		JWTService:     jwtService,
		AuthService:    authService,
		CardService:    cardService,
		RateLimiter:    limiter,
		UserLimiter:    userLimiter,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Pages: handlers.PageDefaults{
			DefaultSize: cfg.Pagination.DefaultSize,
			MaxSize:     cfg.Pagination.MaxSize,
		},
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("server listening", "addr", cfg.Server.Addr())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	// Close Asynq client
	if asynqClient != nil {
		_ = asynqClient.Close()
	}

	// Close Redis connection
	if redisClient != nil {
		_ = redisClient.Close()
	}

	// Close database connection
	if err := database.Close(db); err != nil {
		logger.Error("database close error", "error", err)
	}

	logger.Info("server stopped")
}

// newLimiter shares counters through redis when it is reachable. A
// non-positive budget disables the limiter.
func newLimiter(client *redis.Client, requests, windowSeconds int, logger *slog.Logger) (middleware.Limiter, func()) {
	if requests <= 0 {
		return nil, func() {}
	}
	if client != nil {
		rl := middleware.NewRedisLimiter(client, requests, windowSeconds, logger)
		return rl, rl.Stop
	}
	rl := middleware.NewRateLimiter(requests, windowSeconds)
	return rl, rl.Stop
}
