package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"

	"github.com/wareflow/wareflow-backend/internal/auth/jwt"
	"github.com/wareflow/wareflow-backend/internal/export/client"
	"github.com/wareflow/wareflow-backend/internal/export/events"
	"github.com/wareflow/wareflow-backend/internal/export/handler"
	"github.com/wareflow/wareflow-backend/internal/export/repository"
	"github.com/wareflow/wareflow-backend/internal/export/service"
	"github.com/wareflow/wareflow-backend/pkg/cache"
	"github.com/wareflow/wareflow-backend/pkg/config"
	"github.com/wareflow/wareflow-backend/pkg/database"
	"github.com/wareflow/wareflow-backend/pkg/httputil"
	"github.com/wareflow/wareflow-backend/pkg/logger"
	"github.com/wareflow/wareflow-backend/pkg/messaging"
)

func main() {
	// A missing .env is fine, the environment may already be set
	_ = godotenv.Load()

	// Load configuration with validation (fails fast in production if required config is missing)
	cfg, err := config.LoadWithValidation("export-service")
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	log := logger.New("export-service", cfg.Server.Environment)
	log.Info().Msg("starting Export Service")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Submission journal
	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	rmq, err := messaging.New(ctx, &cfg.RabbitMQ, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to RabbitMQ")
	}
	defer rmq.Close()

	publisher, err := events.NewExportEventPublisher(rmq, cfg.RabbitMQ.Exchange, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create event publisher")
	}

	// Draft store
	var (
		drafts repository.DraftStore
		redis  *cache.RedisClient
	)
	switch cfg.Drafts.Store {
	case config.DraftStoreRedis:
		redis, err = cache.NewRedisClient(ctx, &cfg.Redis)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to Redis")
		}
		defer redis.Close()
		drafts = repository.NewRedisDraftStore(redis, cfg.Drafts.TTL)
	default:
		log.Warn().Msg("drafts are kept in memory and lost on restart")
		drafts = repository.NewMemoryDraftStore(cfg.Drafts.TTL)
	}

	warehouseAPI := client.New(cfg.Services.WarehouseAPIURL, cfg.Services.WarehouseAPITimeout, log)

	exportService := service.NewExportService(
		drafts,
		warehouseAPI,
		repository.NewSubmissionRepository(db),
		publisher,
		log,
	)
	exportHandler := handler.NewExportHandler(exportService, log)
	jwtManager := jwt.NewManager(&cfg.JWT)

	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(httputil.RequestID)
	r.Use(httputil.Logger(log))
	r.Use(httputil.Recoverer(log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		status := map[string]interface{}{
			"status":   "healthy",
			"service":  "export-service",
			"database": db.Health(r.Context()),
			"rabbitmq": rmq.Health(),
		}
		if redis != nil {
			status["redis"] = redis.Health(r.Context())
		}
		httputil.JSON(w, http.StatusOK, status)
	})

	r.Route("/api/v1/exports", func(r chi.Router) {
		r.Use(jwt.Middleware(jwtManager, log))
		exportHandler.Routes(r)
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info().Str("addr", addr).Str("warehouse_api", cfg.Services.WarehouseAPIURL).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
