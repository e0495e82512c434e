package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/redmonkez12/stocktrack-api/internal/audit"
	"github.com/redmonkez12/stocktrack-api/internal/auth"
	"github.com/redmonkez12/stocktrack-api/internal/config"
	"github.com/redmonkez12/stocktrack-api/internal/httputil"
	"github.com/redmonkez12/stocktrack-api/internal/logging"
	"github.com/redmonkez12/stocktrack-api/internal/product"
)

// Handlers groups everything the router mounts.
type Handlers struct {
	Auth           *auth.Handler
	AuthMiddleware *auth.Middleware
	Products       *product.Handler
	Logs           *audit.Handler
}

// NewRouter creates and configures the HTTP router
func NewRouter(cfg *config.Config, h Handlers, logger *logging.Logger) *chi.Mux {
	r := chi.NewRouter()

	// CORS - must be first
	if len(cfg.Server.TrustedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.Server.TrustedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			ExposedHeaders:   []string{"Content-Length"},
			AllowCredentials: false,
			MaxAge:           300, // 5 minutes
		}))
	}

	r.Use(SecurityHeaders(!cfg.Server.IsDevelopment()))
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	if cfg.Server.TrustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(logging.RequestLogger(logger))
	r.Use(middleware.Compress(5))

	r.Get("/", handleBanner)
	r.Get("/api/health", handleHealth)

	if cfg.Server.IsDevelopment() {
		logger.Info("swagger UI enabled at /swagger/*")
		r.Get("/swagger/*", httpSwagger.WrapHandler)
	} else {
		logger.Info("swagger UI disabled (production mode)")
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", h.Auth.Register)
			r.Post("/login", h.Auth.Login)
			r.With(h.AuthMiddleware.RequireAuth).Post("/reset-password", h.Auth.ResetPassword)
		})

		r.Get("/products", h.Products.List)
		r.Get("/products/{id}", h.Products.Get)

		// Protected routes (require authentication)
		r.Group(func(r chi.Router) {
			r.Use(h.AuthMiddleware.RequireAuth)

			r.Post("/products", h.Products.Create)
			r.Put("/products/{id}", h.Products.Update)
			r.Delete("/products/{id}", h.Products.Delete)
			r.Post("/products/{id}/image", h.Products.UploadImage)

			r.Get("/logs", h.Logs.List)
		})
	})

	return r
}

func handleBanner(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("StockTrack API is running. Use /api/health\n"))
}

// HealthResponse is the body of the health check
type HealthResponse struct {
	OK bool `json:"ok"`
}

// handleHealth is a simple health check endpoint
// @Summary      Health check
// @Description  Check if the API is running
// @Tags         health
// @Produce      json
// @Success      200 {object} HealthResponse
// @Router       /health [get]
func handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, HealthResponse{OK: true}, http.StatusOK)
}
