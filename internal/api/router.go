package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/hibiken/asynq"
	"github.com/hugh/stockroom/internal/api/handlers"
	"github.com/hugh/stockroom/internal/api/middleware"
	"github.com/hugh/stockroom/internal/auth"
	"github.com/hugh/stockroom/internal/importer"
	"github.com/hugh/stockroom/internal/inventory"
	"github.com/hugh/stockroom/internal/lifecycle"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Router struct {
	chi.Router
}

type RouterConfig struct {
	DB             *gorm.DB
	Redis          *redis.Client
	Logger         *slog.Logger
	JWTService     *auth.JWTService
	AuthService    *auth.Service
	AsynqClient    *asynq.Client
	ImportMaxRows  int      // largest CSV an upload may carry
	AllowedOrigins []string // CORS allowed origins
	RateLimitReqs  int      // Rate limit requests per window
	RateLimitSecs  int      // Rate limit window in seconds
}

func NewRouter(cfg RouterConfig) *Router {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.Logging(cfg.Logger))

	// Rate limiting - applied globally to prevent abuse
	if cfg.RateLimitReqs > 0 {
		r.Use(middleware.RateLimit(cfg.RateLimitReqs, cfg.RateLimitSecs))
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
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Initialize services
	inventoryService := inventory.NewService(cfg.DB, cfg.Logger)
	lifecycleResolver := lifecycle.NewResolver(cfg.DB, cfg.Logger)
	importerService := importer.NewService(cfg.DB, cfg.Logger)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(cfg.DB, cfg.Redis)
	authHandler := handlers.NewAuthHandler(cfg.AuthService)
	assetTypeHandler := handlers.NewAssetTypeHandler(cfg.DB)
	assetHandler := handlers.NewAssetHandler(cfg.DB, inventoryService, lifecycleResolver)
	ruleHandler := handlers.NewRuleHandler(cfg.DB, lifecycleResolver)
	importHandler := handlers.NewImportHandler(cfg.DB, importerService, cfg.AsynqClient, cfg.ImportMaxRows)

	// Health endpoints (no auth required)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		// Public auth endpoints
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/logout", authHandler.Logout)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWTService))

			// User endpoints
			r.Get("/me", func(w http.ResponseWriter, r *http.Request) {
				userID := middleware.GetUserID(r.Context())
				user, err := cfg.AuthService.GetUserByID(r.Context(), userID)
				if err != nil {
					http.Error(w, "User not found", http.StatusNotFound)
					return
				}
				writeJSON(w, http.StatusOK, user)
			})

			// Asset type endpoints
			r.Route("/asset-types", func(r chi.Router) {
				r.Get("/", assetTypeHandler.List)
				r.Post("/", assetTypeHandler.Create)
				r.Get("/{id}", assetTypeHandler.Get)
				r.Delete("/{id}", assetTypeHandler.Delete)
				r.Post("/{id}/definitions", assetTypeHandler.CreateDefinition)
				r.Delete("/{id}/definitions/{defID}", assetTypeHandler.DeleteDefinition)
				r.Get("/{id}/template", importHandler.Template)
				r.Get("/{id}/export", importHandler.Export)
			})

			// Asset endpoints
			r.Route("/assets", func(r chi.Router) {
				r.Get("/", assetHandler.List)
				r.Post("/", assetHandler.Create)
				r.Get("/{id}", assetHandler.Get)
				r.Put("/{id}/attributes", assetHandler.UpdateAttributes)
				r.Post("/{id}/transition", assetHandler.Transition)
			})

			// Transition rule endpoints
			r.Route("/transition-rules", func(r chi.Router) {
				r.Get("/", ruleHandler.List)
				r.Post("/", ruleHandler.Create)
				r.Get("/resolve", ruleHandler.Resolve)
				r.Delete("/{id}", ruleHandler.Delete)
			})

			// Import endpoints
			r.Route("/imports", func(r chi.Router) {
				r.Get("/", importHandler.List)
				r.Post("/", importHandler.Create)
				r.Get("/{id}", importHandler.Get)
				r.Post("/{id}/cancel", importHandler.Cancel)
			})
		})
	})

	return &Router{r}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
