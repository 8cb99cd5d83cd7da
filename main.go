// File: pointbreak/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pointbreak/config"
	"pointbreak/database"
	historyRepo "pointbreak/database/repository/history"
	"pointbreak/handlers"
	"pointbreak/middleware"
	"pointbreak/models"
	"pointbreak/routes"
	"pointbreak/services/dispatch"
	"pointbreak/services/flights"
	"pointbreak/services/sessionpool"
	"pointbreak/services/tasks"
	"pointbreak/upstream"
	"pointbreak/utils"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	database.InitDB()
	utils.InitCache()

	// Browser engine shared by hydration and the fallback path.
	engine, err := upstream.NewRodEngine()
	if err != nil {
		logger.Sugar().Fatalf("main: failed to start browser engine: %v", err)
	}

	// Session pool.
	hydrator := &sessionpool.BrowserHydrator{Engine: engine, Logger: logger}
	pool := sessionpool.NewPool(sessionpool.Config{
		Size:              config.AppConfig.PoolSize,
		RotationThreshold: config.AppConfig.RotationThreshold,
		LeaseWaitTimeout:  config.AppConfig.LeaseWaitTimeout,
		HydrationRetries:  config.AppConfig.HydrationRetries,
		HydrationBackoff:  config.AppConfig.HydrationBackoff,
	}, hydrator, logger)
	pool.Start()
	pool.WatchCrashes(engine.CrashEvents())

	// Dispatcher and services.
	dispatcher := &dispatch.Dispatcher{
		Pool:    pool,
		Client:  upstream.NewHTTPClient(config.AppConfig.DispatchTimeout),
		Logger:  logger,
		Timeout: config.AppConfig.DispatchTimeout,
	}
	history := historyRepo.NewMongoHistoryRepo()

	// Background task queue for off-request work (search history writes).
	taskClient := asynq.NewClient(tasks.RedisOpt())
	taskHandler := &tasks.Handler{History: history, Logger: logger}
	taskWorker := tasks.NewServer()
	if err := taskWorker.Start(taskHandler.NewMux()); err != nil {
		logger.Sugar().Fatalf("main: task worker failed to start: %v", err)
	}

	flightService := &flights.DefaultFlightSearchService{
		Dispatcher:  dispatcher,
		CacheClient: utils.GetCacheClient(),
		CacheTTL:    config.AppConfig.CacheTTL,
		Tasks:       taskClient,
		History:     history,
		Logger:      logger,
	}

	utils.StartHealthMonitor(utils.GetCacheClient(), database.MongoClient, pool.Snapshot)

	// Handlers.
	flightHandler := handlers.NewFlightHandler(flightService, logger)
	adminHandler := handlers.NewAdminHandler(pool, history, logger)

	handlerBundle := &handlers.HandlerBundle{
		SearchFlightsHandler: flightHandler.SearchFlightsHandler,
		AdminTokenHandler:    adminHandler.TokenHandler,
		PoolStatusHandler:    adminHandler.PoolStatusHandler,
		HistoryHandler:       adminHandler.HistoryHandler,
		PoolSnapshot: func() models.PoolSnapshot {
			return pool.Snapshot()
		},
	}

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(middleware.RateLimitMiddleware())

	routes.RegisterRoutes(router, handlerBundle)

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}

	taskWorker.Shutdown()
	if err := taskClient.Close(); err != nil {
		logger.Sugar().Warnf("main: task client shutdown: %v", err)
	}
	pool.Close()
	if err := engine.Close(); err != nil {
		logger.Sugar().Warnf("main: browser engine shutdown: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
