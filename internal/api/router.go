package api

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/hugh/cardboard/internal/api/handlers"
	"github.com/hugh/cardboard/internal/api/middleware"
	"github.com/hugh/cardboard/internal/auth"
	"github.com/hugh/cardboard/internal/cards"
	"github.com/hugh/cardboard/internal/database/models"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Router struct {
	chi.Router
}

type RouterConfig struct {
	DB             *gorm.DB
	Redis          *redis.Client // optional
	Logger         *slog.Logger
	JWTService     *auth.JWTService
	AuthService    *auth.Service
	CardService    *cards.Service
	RateLimiter    middleware.Limiter // nil disables rate limiting
	UserLimiter    middleware.Limiter // per caller on /cards, nil disables
	AllowedOrigins []string           // CORS allowed origins
	Pages          handlers.PageDefaults
}

func NewRouter(cfg RouterConfig) *Router {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.Logging(cfg.Logger))

	if cfg.RateLimiter != nil {
		r.Use(middleware.RateLimit(cfg.RateLimiter))
	}

	// CORS - restrict to configured origins, or allow all in development
	allowedOrigins := cfg.AllowedOrigins
	if len(allowedOrigins) == 0 {
		// Default to localhost for development - configure in production
		allowedOrigins = []string{"http://localhost:3000", "http://localhost:8080"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(cfg.DB, cfg.Redis)
	userHandler := handlers.NewUserHandler(cfg.AuthService, cfg.Pages, cfg.Logger)
	cardHandler := handlers.NewCardHandler(cfg.CardService, cfg.Pages, cfg.Logger)

	// Health endpoints (no auth required)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	r.Route("/users", func(r chi.Router) {
		r.Post("/register", userHandler.Register)
		r.Post("/login", userHandler.Login)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWTService))
			r.Get("/me", userHandler.Me)
			r.With(middleware.RequireRole(models.RoleAdmin)).Get("/list", userHandler.List)
		})
	})

	r.Route("/cards", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWTService))
		if cfg.UserLimiter != nil {
			r.Use(middleware.RateLimitByUser(cfg.UserLimiter))
		}

		r.Post("/create", cardHandler.Create)
		r.Get("/get/{id}", cardHandler.Get)
		r.Get("/list", cardHandler.List)
		r.Put("/update/{id}", cardHandler.Update)
		r.Delete("/delete/{id}", cardHandler.Delete)
		r.Get("/history/{id}", cardHandler.History)
	})

	return &Router{r}
}
