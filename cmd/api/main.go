package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	_ "github.com/redmonkez12/stocktrack-api/docs" // Swagger docs
	"github.com/redmonkez12/stocktrack-api/internal/audit"
	"github.com/redmonkez12/stocktrack-api/internal/auth"
	"github.com/redmonkez12/stocktrack-api/internal/config"
	"github.com/redmonkez12/stocktrack-api/internal/database"
	httpServer "github.com/redmonkez12/stocktrack-api/internal/http"
	"github.com/redmonkez12/stocktrack-api/internal/logging"
	"github.com/redmonkez12/stocktrack-api/internal/product"
	"github.com/redmonkez12/stocktrack-api/internal/ratelimit"
	"github.com/redmonkez12/stocktrack-api/internal/storage"
	"github.com/redmonkez12/stocktrack-api/internal/user"
)

// @title           StockTrack API
// @version         1.0
// @description     Inventory API with bearer authentication and an audit log of product changes.

// @host      localhost:3001
// @BasePath  /api

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the token.

func main() {
	if err := run(); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := logging.NewLogger(cfg.Server.IsDevelopment())
	logger.Info("starting application",
		"env", cfg.Server.Env,
		"port", cfg.Server.Port,
		"token_format", cfg.Auth.TokenFormat,
	)

	if cfg.Auth.TokenFormat == config.TokenFormatJWT && cfg.Auth.JWTSecret == "" {
		logger.Error("JWT_SECRET is not set; login and protected routes will answer 500")
	}

	db, err := database.Open(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(context.Background(), db.DB); err != nil {
			return err
		}
		logger.Info("database migrations applied")
	}

	// Rate limiting is skipped entirely when disabled or when Redis is unreachable.
	var limiter auth.RateLimiter
	if cfg.RateLimit.Enabled {
		redisClient, err := initRedis(cfg.Redis)
		if err != nil {
			logger.Warn("rate limiting disabled", "error", err.Error())
		} else {
			defer redisClient.Close()
			limiter = ratelimit.NewLimiter(redisClient, cfg.RateLimit.MaxRequests, cfg.RateLimit.Window)
		}
	}

	objects, err := storage.NewS3Store(context.Background(), cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to initialize object storage: %w", err)
	}

	tokens, err := newTokenService(cfg.Auth)
	if err != nil {
		return err
	}

	userRepo := user.NewRepository(db)
	productRepo := product.NewRepository(db)
	logRepo := audit.NewRepository(db)

	recorder := audit.NewRecorder(logRepo, logger)
	authService := auth.NewService(userRepo, auth.NewPasswordHasher(cfg.Auth.BcryptCost), tokens, recorder, logger)

	router := httpServer.NewRouter(cfg, httpServer.Handlers{
		Auth:           auth.NewHandler(authService, limiter),
		AuthMiddleware: auth.NewMiddleware(tokens),
		Products:       product.NewHandler(productRepo, objects, recorder, cfg.Storage.MaxUploadBytes),
		Logs:           audit.NewHandler(logRepo),
	}, logger)

	server := httpServer.NewServer(
		":"+cfg.Server.Port,
		router,
		cfg.Server.ReadTimeout,
		cfg.Server.WriteTimeout,
		logger,
	)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- server.Start()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		logger.Info("received signal", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}

		// Audit writes started by the last requests finish before the pool closes.
		recorder.Wait()
	}

	return nil
}

func newTokenService(cfg config.AuthConfig) (auth.TokenService, error) {
	if cfg.TokenFormat == config.TokenFormatPaseto {
		s, err := auth.NewPasetoService(cfg.PasetoKey, cfg.TokenDuration)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize PASETO service: %w", err)
		}
		return s, nil
	}
	return auth.NewJWTService(cfg.JWTSecret, cfg.TokenDuration), nil
}

// initRedis initializes the Redis connection and returns a Redis client
func initRedis(cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return client, nil
}
