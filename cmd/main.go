package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"healthtrends/database"
	"healthtrends/internal/cache"
	"healthtrends/internal/config"
	"healthtrends/internal/controllers"
	"healthtrends/internal/logging"
	"healthtrends/internal/messaging"
	"healthtrends/internal/middleware"
	"healthtrends/internal/repository"
	"healthtrends/internal/services"
	"healthtrends/routes"
)

func main() {
	if err := config.LoadDotEnv(".env", "../.env"); err != nil {
		logging.Warn().Err(err).Msg("Failed to load .env file")
	}
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Invalid configuration")
	}
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	if cfg.JWTSecret == "" {
		logging.Fatal().Msg("JWT_SECRET_KEY must be set")
	}

	db, err := database.ConnectDatabase(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to connect to database")
	}
	if err := database.MigrateDatabase(db); err != nil {
		logging.Fatal().Err(err).Msg("Failed to run database migrations")
	}
	stopMonitor := make(chan struct{})
	database.MonitorDBConnections(db, 15*time.Second, stopMonitor)
	defer close(stopMonitor)

	// Redis is optional; without it summaries are computed on every request
	// and ingestion relies on queue pinning alone.
	var (
		redisClient  *cache.RedisClient
		summaryCache services.SummaryCache
		ingestLocker services.IngestLocker
	)
	if cfg.RedisURL != "" {
		redisClient, err = cache.NewRedisClient(cfg.RedisURL)
		if err != nil {
			logging.Warn().Err(err).Msg("Redis unavailable, running without summary cache")
		} else {
			defer redisClient.Close()
			summaryCache = redisClient
			ingestLocker = redisClient
			logging.Info().Msg("Redis connection established")
		}
	}

	var publisher messaging.Publisher = messaging.NopPublisher{}
	if cfg.RabbitMQURL != "" {
		amqpPublisher, err := messaging.NewAMQPPublisher(cfg.RabbitMQURL, cfg.IngestExchange)
		if err != nil {
			logging.Warn().Err(err).Msg("RabbitMQ unavailable, ingestion events will not be published")
		} else {
			publisher = amqpPublisher
			logging.Info().Str("exchange", cfg.IngestExchange).Msg("RabbitMQ publisher ready")
		}
	}
	defer publisher.Close()

	if err := os.MkdirAll(cfg.UploadDir, 0o750); err != nil {
		logging.Fatal().Err(err).Str("dir", cfg.UploadDir).Msg("Failed to create upload directory")
	}

	userRepo := repository.NewUserRepository(db)
	dataRepo := repository.NewHealthDataRepository(db)
	jobRepo := repository.NewIngestionJobRepository(db)

	ingestionService := services.NewIngestionService(userRepo, dataRepo, summaryCache)
	summaryService := services.NewSummaryService(dataRepo, summaryCache, cfg.SummaryCacheTTL)

	jobWorker := services.NewIngestionJobWorker(jobRepo, ingestionService, ingestLocker, publisher, services.WorkerOptions{
		WorkerCount: cfg.WorkerCount,
		JobTimeout:  cfg.JobTimeout,
		LockTTL:     cfg.IngestLockTTL,
		Retention:   cfg.JobRetention,
	})
	logging.Info().Int("workers", cfg.WorkerCount).Msg("Starting ingestion job worker")
	jobWorker.Start()
	defer jobWorker.Stop()

	summaryController := controllers.NewSummaryController(summaryService)
	uploadController := controllers.NewUploadController(jobWorker, cfg.UploadDir, cfg.MaxUploadBytes())
	jobController := controllers.NewJobController(jobWorker, jobRepo)
	userController := controllers.NewUserController(userRepo)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger())
	router.MaxMultipartMemory = 32 << 20

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "healthtrends API is running",
			"version": "1.0.0",
			"status":  "healthy",
			"cache":   summaryCache != nil,
		})
	})

	auth := middleware.AuthMiddleware(cfg.JWTSecret)
	routes.RegisterSummaryRoutes(router, auth, summaryController)
	routes.RegisterIngestionRoutes(router, auth, uploadController, jobController)
	routes.RegisterUserRoutes(router, auth, userController)
	routes.RegisterMetricsRoutes(router)

	router.GET("/debug/stats", func(c *gin.Context) {
		var m runtime.MemStats
		runtime.ReadMemStats(&m)

		c.JSON(http.StatusOK, gin.H{
			"goroutines": runtime.NumGoroutine(),
			"memory_mb":  m.Alloc / 1024 / 1024,
			"workers":    cfg.WorkerCount,
		})
	})

	router.GET("/debug/database", func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"database_health": false, "error": err.Error()})
			return
		}
		err = sqlDB.PingContext(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"database_health": err == nil})
	})

	router.GET("/debug/cache", func(c *gin.Context) {
		if summaryCache == nil {
			c.JSON(http.StatusOK, gin.H{"connected": false})
			return
		}
		status, err := redisClient.GetStatus(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusOK, gin.H{"connected": false, "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, status)
	})

	server := &http.Server{
		Addr:           ":" + cfg.Port,
		Handler:        router,
		ReadTimeout:    5 * time.Minute,
		WriteTimeout:   5 * time.Minute,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		logging.Info().Str("port", cfg.Port).Msg("healthtrends API server started")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logging.Info().Msg("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logging.Error().Err(err).Msg("Server forced to shut down")
	}
}
