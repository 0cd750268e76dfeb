// Package main is the entry point for the communication hub server.
package main

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/mindmesh-ai/companion-hub/internal/config"
	"github.com/mindmesh-ai/companion-hub/internal/handler"
	"github.com/mindmesh-ai/companion-hub/internal/hub"
	"github.com/mindmesh-ai/companion-hub/internal/llm"
	"github.com/mindmesh-ai/companion-hub/internal/middleware"
	natsclient "github.com/mindmesh-ai/companion-hub/internal/nats"
	"github.com/mindmesh-ai/companion-hub/internal/personality"
	"github.com/mindmesh-ai/companion-hub/internal/responder"
	"github.com/mindmesh-ai/companion-hub/internal/risk"
	"github.com/mindmesh-ai/companion-hub/internal/service"
	"github.com/mindmesh-ai/companion-hub/pkg/logger"
	"github.com/mindmesh-ai/companion-hub/pkg/tracing"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetGlobal(log)

	log.Info("starting hub server")

	// Initialize tracing if enabled
	ctx := context.Background()
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "companion-hub", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(ctx, tp)
		}
	}

	// Connect to NATS
	natsClient, err := natsclient.Connect(ctx, natsclient.Config{
		URL:      cfg.NATSURL,
		CAFile:   cfg.NATSCAFile,
		CertFile: cfg.NATSCertFile,
		KeyFile:  cfg.NATSKeyFile,
		Token:    cfg.NATSToken,
	}, log)
	if err != nil {
		log.Error("failed to connect to NATS", zap.Error(err))
		os.Exit(1)
	}
	defer natsClient.Close()

	// Ensure the alert stream and profile bucket exist
	alerts := natsclient.NewAlertPublisher(natsClient)
	if err := alerts.EnsureStream(ctx); err != nil {
		log.Error("failed to ensure alert stream", zap.Error(err))
		os.Exit(1)
	}
	profiles, err := natsclient.NewProfileStore(ctx, natsClient, cfg.ProfileBucket)
	if err != nil {
		log.Error("failed to open profile store", zap.Error(err))
		os.Exit(1)
	}

	// Optional remote risk classifier
	var remoteClassifier llm.Client
	if cfg.RemoteRisk {
		apiKey := cfg.AnthropicAPIKey
		provider := llm.ProviderAnthropic
		if cfg.DefaultLLM == "openai" {
			apiKey = cfg.OpenAIAPIKey
			provider = llm.ProviderOpenAI
		}
		remoteClassifier, err = llm.NewClient(provider, apiKey)
		if err != nil {
			log.Warn("remote risk classifier disabled", zap.Error(err))
		}
	}

	// Initialize the chat pipeline
	evaluator := risk.NewEvaluator(remoteClassifier, cfg.RiskModel, alerts, log)
	generator := responder.NewGenerator(rand.NewSource(time.Now().UnixNano()), log)
	extractor := personality.NewExtractor(log)

	chatSvc := service.NewChatService(generator, profiles, evaluator, log)
	personalitySvc := service.NewPersonalityService(extractor, profiles, log)

	// Initialize the hub
	registry := hub.NewRegistry(log)
	calls := hub.NewCallTable(log)
	router := hub.NewRouter(registry, calls, chatSvc, log)
	wsHandler := hub.NewWebSocketHandler(registry, router, cfg.SocketReadLimit, log)

	// Initialize handlers
	healthHandler := handler.NewHealthHandler(natsClient)
	personalityHandler := handler.NewPersonalityHandler(personalitySvc, cfg.MaxTranscriptBytes, log)

	// Create router
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(middleware.SecurityHeaders)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS())

	// Health endpoints (no auth required)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	// Metrics endpoint
	r.Handle("/metrics", promhttp.Handler())

	// Hub socket; identity comes from the handshake, verification is the
	// gateway's job
	r.Get("/ws", wsHandler.ServeHTTP)

	// API routes with authentication
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWTSecret))
		r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

		r.Route("/personality", func(r chi.Router) {
			r.Post("/train", personalityHandler.Train)
			r.Get("/{id}", personalityHandler.Get)
		})
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      r,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info("server listening", zap.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("server stopped")
}
