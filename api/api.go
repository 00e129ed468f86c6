package api

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	skimlog "github.com/papercomputeco/skim/pkg/logger"
	"github.com/papercomputeco/skim/pkg/metrics"
	"github.com/papercomputeco/skim/pkg/summarizer"
)

// ServiceName identifies the server in health responses.
const ServiceName = "Smart Summary API"

// Server is the API server for streaming summaries
type Server struct {
	config     Config
	summarizer *summarizer.Summarizer
	metrics    *metrics.Exporter
	logger     *slog.Logger
	app        *fiber.App

	// ctx is canceled on Shutdown to abandon in-flight generations.
	ctx    context.Context
	cancel context.CancelFunc
}

// NewServer creates a new API server. exporter may be nil, in which case
// /metrics is not served.
func NewServer(config Config, sum *summarizer.Summarizer, exporter *metrics.Exporter, logger *slog.Logger) (*Server, error) {
	if sum == nil {
		return nil, errors.New("summarizer is required")
	}

	if logger == nil {
		logger = skimlog.Nop()
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		AppName:               ServiceName,
	})

	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		config:     config,
		summarizer: sum,
		metrics:    exporter,
		logger:     logger,
		app:        app,
		ctx:        ctx,
		cancel:     cancel,
	}

	app.Use(recover.New())
	app.Use(cors.New(corsConfig(config.AllowedOrigins)))

	app.Get("/", s.handleRoot)
	app.Get("/health", s.handleHealth)
	app.Post("/api/summarize", s.handleSummarize)
	if exporter != nil {
		app.Get("/metrics", adaptor.HTTPHandler(exporter.Handler()))
	}

	return s, nil
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server",
		"listen", s.config.ListenAddr,
		"llm_configured", s.config.LLMConfigured,
	)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	s.cancel()
	return s.app.Shutdown()
}
