package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"circuitbot/internal/ai"
	"circuitbot/internal/catalog"
	"circuitbot/internal/config"
	"circuitbot/internal/handler"
	"circuitbot/internal/logger"
	"circuitbot/internal/middleware"
	"circuitbot/internal/preferences"
	"circuitbot/internal/search"
	"circuitbot/internal/service"
	"circuitbot/internal/visits"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	ginprometheus "github.com/zsais/go-gin-prometheus"
	"go.uber.org/zap"
)

// Запас поверх таймаута провайдера: пара вариантов + синтез речи.
const writeTimeoutMargin = 30 * time.Second

const visitQueueSize = 256

func main() {
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	cfg, err := config.LoadConfig(envFile)
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// --- Logger Setup ---
	log, err := logger.New(logger.Config{
		Level:    cfg.LogLevel,
		Encoding: cfg.LogEncoding,
	})
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	zap.ReplaceGlobals(log)
	zap.L().Info("Logger initialized successfully", zap.String("logLevel", cfg.LogLevel))

	// --- Preferences backend ---
	var (
		prefs       preferences.Store
		redisClient *redis.Client
	)
	switch cfg.PrefsBackend {
	case config.PrefsBackendRedis:
		redisClient, err = setupRedis(cfg)
		if err != nil {
			zap.L().Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()
		prefs = preferences.NewRedisStore(redisClient, log)
	case config.PrefsBackendPostgres:
		if err := preferences.ApplyMigrations(cfg.GetDSN()); err != nil {
			zap.L().Fatal("Failed to apply migrations", zap.Error(err))
		}
		pgPool, err := setupPostgres(cfg)
		if err != nil {
			zap.L().Fatal("Failed to connect to PostgreSQL", zap.Error(err))
		}
		defer pgPool.Close()
		prefs = preferences.NewPostgresStore(pgPool, log)
	default:
		prefs = preferences.NewFileStore(cfg.PrefsFilePath(), log)
	}
	zap.L().Info("Preferences store ready", zap.String("backend", cfg.PrefsBackend))

	// --- AI provider ---
	aiClient, err := ai.NewClient(cfg, log)
	if err != nil {
		zap.L().Fatal("Failed to create AI client", zap.Error(err))
	}

	models := catalog.New(aiClient, catalog.Options{
		DefaultModel: cfg.DefaultModel,
		Prefixes:     cfg.ModelPrefixes,
		Allowed:      cfg.AllowedModels,
	}, log)
	refreshCtx, stopRefresh := context.WithCancel(context.Background())
	defer stopRefresh()
	go models.Run(refreshCtx, cfg.ModelRefreshInterval)

	var searcher search.Searcher = search.Disabled{}
	if cfg.SearchURL != "" {
		searcher = search.NewSearxClient(cfg.SearchURL, cfg.SearchTimeout, log)
	}

	recorder, err := visits.NewRecorder(cfg.LogsDir(), visitQueueSize, log)
	if err != nil {
		zap.L().Fatal("Failed to create visit recorder", zap.Error(err))
	}

	dispatcher := service.NewDispatcher(aiClient, aiClient, searcher, prefs, models, service.Settings{
		SearchMaxResults: cfg.SearchMaxResults,
		DefaultVoice:     cfg.TTSDefaultVoice,
	}, log)
	chatHandler := handler.NewHandler(dispatcher, models, recorder, cfg.StaticDir, log)

	// --- HTTP Server Setup (Gin) ---
	gin.SetMode(gin.ReleaseMode)
	if cfg.Env == "development" {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()
	router.Use(middleware.GinZapLogger(log))
	router.Use(gin.Recovery())

	p := ginprometheus.NewPrometheus("gin")

	corsConfig := cors.DefaultConfig()
	if cfg.CORSAllowAll {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = cfg.GetAllowedOrigins()
		corsConfig.AllowCredentials = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "HEAD", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", middleware.RequestIDHeader}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))
	router.Use(middleware.TrackVisits(recorder))

	rateLimitMiddleware := middleware.RateLimit(cfg.RateLimitPerMinute, redisClient, log)
	chatHandler.RegisterRoutes(router, rateLimitMiddleware)

	// Prometheus после регистрации роутов
	p.Use(router)

	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.AITimeout + writeTimeoutMargin,
		IdleTimeout:  60 * time.Second,
	}

	zap.L().Info("Starting HTTP server",
		zap.String("port", cfg.ServerPort),
		zap.String("aiClient", cfg.AIClientType),
		zap.String("defaultModel", cfg.DefaultModel),
	)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zap.L().Fatal("HTTP Server listen error", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zap.L().Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zap.L().Error("HTTP Server forced to shutdown", zap.Error(err))
	}

	stopRefresh()
	recorder.Close()

	zap.L().Info("Server exiting")
}

// setupPostgres создает пул соединений и проверяет его пингом.
func setupPostgres(cfg *config.Config) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("unable to parse postgres config: %w", err)
	}
	poolConfig.MaxConns = int32(cfg.DBMaxConns)
	poolConfig.MaxConnIdleTime = cfg.DBIdleTimeout

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("unable to create postgres connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping postgres database: %w", err)
	}
	return pool, nil
}

// setupRedis создает клиента Redis с несколькими попытками подключения.
func setupRedis(cfg *config.Config) (*redis.Client, error) {
	redisOpts := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}

	var lastErr error
	maxRetries := 5
	retryDelay := 2 * time.Second

	for i := 0; i < maxRetries; i++ {
		client := redis.NewClient(redisOpts)

		pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
		_, err := client.Ping(pingCtx).Result()
		pingCancel()

		if err == nil {
			zap.L().Info("Successfully connected and pinged Redis", zap.Int("attempt", i+1))
			return client, nil
		}

		client.Close()
		lastErr = err
		zap.L().Warn("Redis ping failed, retrying...",
			zap.Int("attempt", i+1),
			zap.Int("max_retries", maxRetries),
			zap.Error(err),
		)
		if i < maxRetries-1 {
			time.Sleep(retryDelay)
		}
	}
	return nil, fmt.Errorf("failed to connect to redis after %d attempts: %w", maxRetries, lastErr)
}
