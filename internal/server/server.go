package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"grocery-catalog/internal/cache"
	"grocery-catalog/internal/config"
	"grocery-catalog/internal/metrics"
	custommiddleware "grocery-catalog/internal/middleware"
	"grocery-catalog/internal/service"
	"grocery-catalog/internal/store"
	"grocery-catalog/internal/transport"
	"grocery-catalog/internal/upload"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct {
	*http.Server
	config  *config.Config
	logger  *zap.Logger
	catalog *store.Catalog
	redis   *redis.Client
}

// NewServer wires the catalog services and routes. redisClient may be nil,
// in which case the product list cache and rate limiting are off.
func NewServer(cfg *config.Config, logger *zap.Logger, catalog *store.Catalog, redisClient *redis.Client) (*Server, error) {
	policy, err := service.ParseDeletePolicy(cfg.Catalog.CategoryDeletePolicy)
	if err != nil {
		return nil, err
	}

	uploads, err := upload.NewDiskStore(cfg.Upload.Dir)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry, cfg.Server.Env)

	// Initialize services
	var listCache service.ProductListCache
	if redisClient != nil {
		listCache = cache.NewProductCache(redisClient, time.Duration(cfg.Redis.CacheTTL)*time.Second, m)
	}
	productService := service.NewProductService(
		catalog.Products,
		catalog.Categories,
		listCache,
		service.ProductServiceOptions{ValidateCategoryOnUpdate: cfg.Catalog.ValidateCategoryOnUpdate},
		logger,
	)
	categoryService := service.NewCategoryService(catalog.Categories, catalog.Products, listCache, policy, logger)

	// Initialize handlers
	maxMemory := cfg.Upload.MaxMemoryMB << 20
	productHandler := transport.NewProductHandler(productService, uploads, maxMemory, m, logger)
	categoryHandler := transport.NewCategoryHandler(categoryService, uploads, maxMemory, m, logger)

	router := chi.NewRouter()
	router.Use(custommiddleware.DefaultMiddlewareStack(logger)...)
	router.Use(custommiddleware.LoggingMiddleware(logger))
	router.Use(m.Middleware)
	router.Use(custommiddleware.CORSMiddleware(cfg.Server.AllowedOrigins, cfg.IsDevelopment()))

	router.Get("/health", healthHandler(catalog, redisClient))
	router.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	router.Handle("/public/*", noSniff(http.StripPrefix("/public/", http.FileServer(http.Dir(uploads.Dir())))))

	var writeMiddleware []func(http.Handler) http.Handler
	if cfg.JWT.Secret != "" {
		writeMiddleware = append(writeMiddleware,
			custommiddleware.AuthMiddleware(cfg.JWT.Secret, logger),
			custommiddleware.RequireAdmin(logger),
		)
	} else {
		logger.Warn("JWT_SECRET is not set, catalog writes are unauthenticated")
	}

	router.Route("/v1", func(r chi.Router) {
		if redisClient != nil && cfg.RateLimit.Requests > 0 {
			r.Use(custommiddleware.RateLimitMiddleware(redisClient, custommiddleware.RateLimitConfig{
				RequestsPerWindow: cfg.RateLimit.Requests,
				Window:            time.Duration(cfg.RateLimit.Window) * time.Second,
				KeyPrefix:         "catalog_rate_limit",
			}, logger))
		}

		productHandler.RegisterRoutes(r, writeMiddleware...)
		categoryHandler.RegisterRoutes(r, writeMiddleware...)
	})

	server := &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      router,
			IdleTimeout:  time.Minute,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		config:  cfg,
		logger:  logger,
		catalog: catalog,
		redis:   redisClient,
	}

	return server, nil
}

// noSniff stops browsers from reinterpreting stored uploads as another type.
func noSniff(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		next.ServeHTTP(w, r)
	})
}

func healthHandler(catalog *store.Catalog, redisClient *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		response := map[string]interface{}{"status": "ok"}

		storeHealth := catalog.Health(ctx)
		response["store"] = storeHealth
		if storeHealth["status"] != "up" {
			status = http.StatusServiceUnavailable
			response["status"] = "degraded"
		}

		if redisClient != nil {
			if err := redisClient.Ping(ctx).Err(); err != nil {
				response["redis"] = "down"
				response["status"] = "degraded"
			} else {
				response["redis"] = "up"
			}
		}

		custommiddleware.RespondWithJSON(w, status, response)
	}
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.catalog.Close(ctx); err != nil {
		s.logger.Error("Failed to close catalog store", zap.Error(err))
	}

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Error("Failed to close redis client", zap.Error(err))
		}
	}

	s.logger.Sync()
	return nil
}
