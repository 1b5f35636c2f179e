package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/stocktrackr/backend/internal/api/handlers"
	custommiddleware "github.com/stocktrackr/backend/internal/api/middleware"
	"github.com/stocktrackr/backend/internal/config"
	"github.com/stocktrackr/backend/internal/service"
)

// Services bundles the service dependencies of the router.
type Services struct {
	System      *service.SystemService
	Portfolio   *service.PortfolioService
	Activity    *service.ActivityService
	Metric      *service.MetricService
	Trade       *service.TradeService
	Leaderboard *service.LeaderboardService
	Price       *service.PriceService
	Scheduler   *service.Scheduler
}

// NewRouter creates and configures the HTTP router
func NewRouter(svc Services, cfg *config.Config) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(custommiddleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS middleware
	corsMiddleware := custommiddleware.NewCORS(cfg.CORS.AllowedOrigins)
	r.Use(corsMiddleware.Handler)

	// API routes
	r.Route("/api", func(r chi.Router) {
		// System namespace
		r.Route("/system", func(r chi.Router) {
			systemHandler := handlers.NewSystemHandler(svc.System)
			r.Get("/health", systemHandler.Health)
			r.Get("/version", systemHandler.Version)
		})

		r.Route("/leaderboard", func(r chi.Router) {
			leaderboardHandler := handlers.NewLeaderboardHandler(svc.Leaderboard)
			r.Get("/{metric}", leaderboardHandler.Leaderboard)
		})

		r.Route("/stock", func(r chi.Router) {
			stockHandler := handlers.NewStockHandler(svc.Price)
			r.Get("/", stockHandler.Stocks)
			r.Post("/", stockHandler.CreateStock)

			r.Route("/{uuid}", func(r chi.Router) {
				r.Use(custommiddleware.ValidateUUIDMiddleware)
				r.Get("/quote", stockHandler.Quote)
			})
		})

		portfolioHandler := handlers.NewPortfolioHandler(svc.Portfolio, svc.Activity)
		metricHandler := handlers.NewMetricHandler(svc.Metric)
		tradeHandler := handlers.NewTradeHandler(svc.Trade)

		r.Route("/user", func(r chi.Router) {
			r.Post("/", portfolioHandler.CreateUser)

			r.Route("/{uuid}", func(r chi.Router) {
				r.Use(custommiddleware.ValidateUUIDMiddleware)
				r.Post("/trades/rank", tradeHandler.RankUserTrades)
			})
		})

		r.Route("/portfolio", func(r chi.Router) {
			r.Get("/", portfolioHandler.Portfolios)
			r.Post("/", portfolioHandler.CreatePortfolio)

			r.Route("/{uuid}", func(r chi.Router) {
				r.Use(custommiddleware.ValidateUUIDMiddleware)
				r.Get("/", portfolioHandler.Portfolio)
				r.Get("/snapshots", portfolioHandler.Snapshots)
				r.Get("/activities", portfolioHandler.Activities)
				r.Post("/activities", portfolioHandler.RecordActivity)
				r.Get("/metrics", metricHandler.Metrics)
				r.Get("/metrics/current", metricHandler.CurrentMetric)
				r.Post("/trades/rank", tradeHandler.RankPortfolioTrades)
			})
		})

		// Engine namespace: mutating runs, guarded by the internal API key
		r.Route("/engine", func(r chi.Router) {
			r.Use(custommiddleware.APIKeyMiddleware)

			engineHandler := handlers.NewEngineHandler(svc.Scheduler, svc.Price)
			r.Post("/recompute", engineHandler.Recompute)
			r.Post("/prices/refresh", engineHandler.RefreshPrices)
			r.Post("/prices/backfill", engineHandler.BackfillPrices)
		})
	})

	return r
}
