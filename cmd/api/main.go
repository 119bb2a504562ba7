// Package main is the entry point for the API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/parley-ai/chat-platform/internal/chat"
	"github.com/parley-ai/chat-platform/internal/config"
	"github.com/parley-ai/chat-platform/internal/events"
	"github.com/parley-ai/chat-platform/internal/handler"
	"github.com/parley-ai/chat-platform/internal/llm"
	"github.com/parley-ai/chat-platform/internal/middleware"
	"github.com/parley-ai/chat-platform/internal/prompt"
	"github.com/parley-ai/chat-platform/internal/retrieval"
	"github.com/parley-ai/chat-platform/internal/store"
	"github.com/parley-ai/chat-platform/pkg/logger"
	"github.com/parley-ai/chat-platform/pkg/tracing"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetGlobal(log)

	log.Info("starting API server")

	ctx := context.Background()
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "chat-platform", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(ctx, tp)
		}
	}

	// Event publishing is optional. Without a NATS URL the publisher is nil
	// and drops everything.
	var (
		eventClient *events.Client
		publisher   *events.Publisher
	)
	if cfg.NATSURL != "" {
		eventClient, err = events.Connect(ctx, events.Config{
			URL:   cfg.NATSURL,
			Token: cfg.NATSToken,
		}, log)
		if err != nil {
			log.Error("failed to connect to NATS", zap.Error(err))
			os.Exit(1)
		}
		defer eventClient.Close()
		publisher = events.NewPublisher(eventClient)
	}

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		log.Error("failed to open chat store", zap.Error(err))
		os.Exit(1)
	}
	defer st.Close()

	// Retrieval is optional. Without an embedding key the eligible scenarios
	// run on history alone.
	var retriever *retrieval.Retriever
	if cfg.OpenAIAPIKey != "" {
		index, err := retrieval.OpenIndex(cfg.RAGDBPath, cfg.EmbeddingDims)
		if err != nil {
			log.Error("failed to open retrieval index", zap.Error(err))
			os.Exit(1)
		}
		defer index.Close()

		embedder, err := retrieval.NewOpenAIEmbedder(retrieval.EmbedderOptions{
			APIKey:     cfg.OpenAIAPIKey,
			BaseURL:    cfg.OpenAIBaseURL,
			Model:      cfg.EmbeddingModel,
			Dimensions: cfg.EmbeddingDims,
		})
		if err != nil {
			log.Error("failed to create embedder", zap.Error(err))
			os.Exit(1)
		}

		retriever = retrieval.NewRetriever(index, embedder)
	} else {
		log.Warn("no embedding API key, context retrieval disabled")
	}

	apiKey := cfg.OpenAIAPIKey
	if llm.Provider(cfg.LLMProvider) == llm.ProviderAnthropic {
		apiKey = cfg.AnthropicAPIKey
	}
	modelClient, err := llm.NewClient(llm.Provider(cfg.LLMProvider), llm.Options{
		APIKey:    apiKey,
		BaseURL:   cfg.OpenAIBaseURL,
		Model:     cfg.ChatModel,
		MaxTokens: cfg.MaxTokens,
	})
	if err != nil {
		log.Error("failed to create model client", zap.Error(err))
		os.Exit(1)
	}

	orchestrator := chat.NewOrchestrator(st, orchestratorRetriever(retriever), prompt.NewBuilder(), modelClient, publisher, log, chat.Options{
		HistoryWindow: cfg.HistoryWindow,
		RetrievalK:    cfg.RetrievalK,
		TurnTimeout:   cfg.TurnTimeout,
		PacingDelay:   cfg.PacingDelay,
	})

	healthHandler := handler.NewHealthHandler(st, eventClient)
	authHandler := handler.NewAuthHandler(st, cfg.JWTSecret, cfg.JWTExpiration, log)
	conversationHandler := handler.NewConversationHandler(st, publisher, log)
	historyHandler := handler.NewHistoryHandler(st, log)
	chatHandler := handler.NewChatHandler(orchestrator, log)
	exportHandler := handler.NewExportHandler(st, log)

	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogging(log))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS())

	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/auth/register", authHandler.Register)
	r.Post("/auth/login", authHandler.Login)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWTSecret))
		r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

		r.Get("/history", historyHandler.List)

		r.Route("/conversations", func(r chi.Router) {
			r.Post("/", conversationHandler.Create)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", conversationHandler.Get)
				r.Delete("/", conversationHandler.Delete)
				r.Post("/rename", conversationHandler.Rename)
			})
		})

		r.Post("/chat", chatHandler.Chat)
		r.Get("/export/testcases", exportHandler.TestCases)
	})

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      r,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info("server listening", zap.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("server stopped")
}

// orchestratorRetriever keeps a disabled retriever as a true nil interface.
func orchestratorRetriever(r *retrieval.Retriever) chat.ContextRetriever {
	if r == nil {
		return nil
	}
	return r
}
