// Package rest implements the JSON API the dashboard talks to.
package rest

import (
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"coinwhisperer/internal/analysis"
	"coinwhisperer/internal/storage"
	"coinwhisperer/pkg/logger"
)

// Handler bundles the API dependencies.
type Handler struct {
	store    storage.Store
	analysis *analysis.Service
	limiter  *rate.Limiter
	timeout  time.Duration
	log      *logger.Logger
}

// Config tunes the handler.
type Config struct {
	// Rate limit for POST /api/analyze
	AnalyzeRate  float64
	AnalyzeBurst int

	// Timeout for one analysis run
	AnalyzeTimeout time.Duration
}

// New creates the API handler.
func New(store storage.Store, analysisService *analysis.Service, cfg Config) *Handler {
	if cfg.AnalyzeRate <= 0 {
		cfg.AnalyzeRate = 1
	}
	if cfg.AnalyzeBurst <= 0 {
		cfg.AnalyzeBurst = 3
	}
	if cfg.AnalyzeTimeout <= 0 {
		cfg.AnalyzeTimeout = 10 * time.Second
	}
	return &Handler{
		store:    store,
		analysis: analysisService,
		limiter:  rate.NewLimiter(rate.Limit(cfg.AnalyzeRate), cfg.AnalyzeBurst),
		timeout:  cfg.AnalyzeTimeout,
		log:      logger.Get().With("component", "api"),
	}
}

// Register mounts all API routes on the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/coins", h.listCoins)
	mux.HandleFunc("POST /api/coins", h.createCoin)
	mux.HandleFunc("PATCH /api/coins/{symbol}", h.updateCoin)

	mux.HandleFunc("GET /api/trades", h.listTrades)
	mux.HandleFunc("POST /api/trades", h.createTrade)

	mux.HandleFunc("GET /api/tweets", h.listPosts)

	mux.HandleFunc("GET /api/config", h.getConfig)
	mux.HandleFunc("PATCH /api/config", h.updateConfig)

	mux.HandleFunc("GET /api/stats", h.getStats)
	mux.HandleFunc("PATCH /api/stats", h.updateStats)

	mux.HandleFunc("POST /api/analyze", h.analyze)

	mux.HandleFunc("POST /api/register", h.register)
	mux.HandleFunc("POST /api/login", h.login)
}
