// Package server exposes the estimator over an HTTP JSON API.
package server

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/rpcmeter/rpcmeter/internal/catalog"
	"github.com/rpcmeter/rpcmeter/internal/llm"
	"github.com/rpcmeter/rpcmeter/internal/plans"
	"github.com/rpcmeter/rpcmeter/internal/recommend"
	"github.com/rpcmeter/rpcmeter/internal/sources"
	"github.com/rpcmeter/rpcmeter/internal/suggest"
)

// Server wires the core engines and collaborators behind HTTP handlers.
type Server struct {
	logger zerolog.Logger

	catalog     *catalog.Catalog
	plans       *plans.Table
	sanitizer   *suggest.Sanitizer
	recommender *recommend.Engine
	fetcher     *sources.Fetcher
	provider    llm.Provider
	sourceURLs  []string
}

// New assembles a Server. provider may be nil, in which case the
// suggestion endpoint reports the feature as unavailable.
func New(
	logger zerolog.Logger,
	c *catalog.Catalog,
	table *plans.Table,
	fetcher *sources.Fetcher,
	provider llm.Provider,
	sourceURLs []string,
) *Server {
	return &Server{
		logger:      logger,
		catalog:     c,
		plans:       table,
		sanitizer:   suggest.NewSanitizer(c, logger),
		recommender: recommend.NewEngine(table, logger),
		fetcher:     fetcher,
		provider:    provider,
		sourceURLs:  sourceURLs,
	}
}

// Handler returns the routed HTTP handler with request logging applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /api/catalog", s.handleCatalog)
	mux.HandleFunc("GET /api/plans", s.handlePlans)
	mux.HandleFunc("POST /api/estimate", s.handleEstimate)
	mux.HandleFunc("POST /api/suggestions", s.handleSuggestions)

	return s.withRequestLogging(mux)
}
