package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/stocktrackr/backend/internal/api"
	"github.com/stocktrackr/backend/internal/config"
	"github.com/stocktrackr/backend/internal/database"
	"github.com/stocktrackr/backend/internal/marketdata"
	"github.com/stocktrackr/backend/internal/repository"
	"github.com/stocktrackr/backend/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Open database connection
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	log.Printf("Connected to database: %s", cfg.Database.Path)

	// Apply pending migrations
	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	// Create repositories
	userRepo := repository.NewUserRepository(db)
	portfolioRepo := repository.NewPortfolioRepository(db)
	stockRepo := repository.NewStockRepository(db)
	priceRepo := repository.NewPriceRepository(db)
	snapshotRepo := repository.NewSnapshotRepository(db)
	metricRepo := repository.NewMetricRepository(db)
	tradeRepo := repository.NewTradeRepository(db)
	activityRepo := repository.NewActivityRepository(db)
	benchmarkRepo := repository.NewBenchmarkRepository(db)
	runRepo := repository.NewRunRepository(db)

	// Market data: engine reads from the local store, the refresh pass fills it
	priceSource := marketdata.NewStoreSource(priceRepo)
	fetchClient := marketdata.NewFetchClient(cfg.MarketAPI.BaseURL)

	// Create services
	systemService := service.NewSystemService(db)
	snapshotService := service.NewSnapshotService(snapshotRepo, priceSource, cfg.Engine.WorkerLimit)
	metricService := service.NewMetricService(
		metricRepo,
		snapshotRepo,
		portfolioRepo,
		benchmarkRepo,
		cfg.Engine.BenchmarkSymbol,
		cfg.Engine.RiskFreeRate,
	)
	tradeService := service.NewTradeService(tradeRepo, portfolioRepo, userRepo)
	leaderboardService := service.NewLeaderboardService(metricRepo)
	activityService := service.NewActivityService(
		activityRepo,
		snapshotRepo,
		tradeRepo,
		portfolioRepo,
		stockRepo,
		tradeService,
	)
	portfolioService := service.NewPortfolioService(
		portfolioRepo,
		userRepo,
		snapshotRepo,
		activityRepo,
		metricService,
	)
	priceService := service.NewPriceService(
		stockRepo,
		priceRepo,
		benchmarkRepo,
		fetchClient,
		priceSource,
		cfg.Engine.BenchmarkSymbol,
	)

	// Start the scheduled passes
	scheduler := service.NewScheduler(
		cfg.Engine,
		snapshotService,
		metricService,
		priceService,
		portfolioRepo,
		runRepo,
	)
	if err := scheduler.Start(); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}
	go func() {
		for err := range scheduler.Failures() {
			log.Printf("engine failure: %v", err)
		}
	}()

	// Create router
	router := api.NewRouter(api.Services{
		System:      systemService,
		Portfolio:   portfolioService,
		Activity:    activityService,
		Metric:      metricService,
		Trade:       tradeService,
		Leaderboard: leaderboardService,
		Price:       priceService,
		Scheduler:   scheduler,
	}, cfg)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Starting server on %s", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	scheduler.Stop()

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
