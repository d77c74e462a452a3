package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"carintel/internal/config"
	"carintel/internal/handler"
	"carintel/internal/logger"
	"carintel/internal/repository"
	"carintel/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logg, err := logger.New(cfg.Logging.Level)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logg.Sync() }()

	logg.Info("Car intelligence dashboard",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("git_commit", GitCommit),
	)

	// Set Gin mode
	gin.SetMode(cfg.Server.GinMode)

	ctx := context.Background()

	// Load the dataset once; it stays immutable for the life of the process
	loader, closeLoader, err := newDatasetLoader(cfg, logg)
	if err != nil {
		logg.Fatal("Failed to open dataset source", zap.Error(err))
	}
	defer closeLoader()

	dataset, err := loader.Load(ctx)
	if err != nil {
		logg.Fatal("Failed to load dataset", zap.Error(err))
	}
	logg.Info("✅ Dataset loaded",
		zap.String("source", cfg.Dataset.Source),
		zap.Any("records", dataset.Size()),
		zap.Int("rankings", len(dataset.Rankings())),
		zap.String("last_updated", dataset.LastUpdated()),
	)

	generator, err := newGenerator(ctx, cfg, logg)
	if err != nil {
		logg.Fatal("Failed to initialize text generation", zap.Error(err))
	}

	store, closeStore, err := newConversationStore(ctx, cfg)
	if err != nil {
		logg.Fatal("Failed to initialize chat store", zap.Error(err))
	}
	defer closeStore()
	logg.Info("✅ Chat store initialized", zap.String("store", cfg.Chat.Store))

	// Initialize services
	catalog := service.NewCatalogService(dataset)
	estimator := service.NewEstimatorService(catalog, cfg.Estimator)
	advisory := service.NewAdvisoryService(generator, estimator, service.AdvisoryOptions{
		SummaryModel: cfg.LLM.SummaryModel,
		PriceModel:   cfg.LLM.PriceModel,
		KPIModel:     cfg.LLM.KPIModel,
		Temperature:  cfg.LLM.AdvisoryTemp,
		CallTimeout:  cfg.Advisory.CallTimeout,
	}, logg)
	chat := service.NewChatService(store, generator, service.ChatOptions{
		Model:       cfg.LLM.ChatModel,
		Temperature: cfg.LLM.ChatTemperature,
		Timeout:     time.Duration(cfg.LLM.Timeout) * time.Second,
	}, logg)
	rankings := service.NewRankingsService(dataset)

	logg.Info("✅ Services initialized")

	// Setup Gin router
	router := gin.New()
	router.Use(gin.Recovery(), handler.RequestID(), handler.RequestLogger(logg))

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = splitList(cfg.Server.AllowedOrigins)
	corsConfig.AllowMethods = splitList(cfg.Server.AllowedMethods)
	corsConfig.AllowHeaders = splitList(cfg.Server.AllowedHeaders)
	corsConfig.ExposeHeaders = []string{handler.RequestIDHeader}
	router.Use(cors.New(corsConfig))

	handler.RegisterRoutes(router, handler.Handlers{
		Search:   handler.NewSearchHandler(catalog, estimator, advisory),
		Chat:     handler.NewChatHandler(chat),
		Rankings: handler.NewRankingsHandler(rankings),
		System: handler.NewSystemHandler(rankings, handler.BuildInfo{
			Version:   Version,
			BuildTime: BuildTime,
			GitCommit: GitCommit,
		}),
	})

	// Start server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logg.Info("🚀 Starting server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logg.Info("🛑 Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logg.Error("Server shutdown failed", zap.Error(err))
	}
	logg.Info("✅ Server stopped")
}

func newDatasetLoader(cfg *config.Config, logg *zap.Logger) (repository.DatasetLoader, func(), error) {
	if cfg.Dataset.Source != "postgres" {
		return repository.NewCSVLoader(cfg.Dataset.Dir, logg), func() {}, nil
	}

	repo, err := repository.NewPostgresRepository(
		cfg.GetPostgreSQLDSN(),
		cfg.PostgreSQL.MaxConnections,
		cfg.PostgreSQL.MaxIdleConnections,
	)
	if err != nil {
		return nil, nil, err
	}
	logg.Info("✅ Connected to PostgreSQL database")
	return repo, func() { _ = repo.Close() }, nil
}

// newGenerator returns nil when no API key is configured; the services then
// answer with their fixed placeholders
func newGenerator(ctx context.Context, cfg *config.Config, logg *zap.Logger) (service.Generator, error) {
	if !cfg.LLM.Enabled {
		logg.Warn("⚠️  Text generation is disabled, set LLM_API_KEY or OPENAI_API_KEY to enable summaries and chat")
		return nil, nil
	}

	if cfg.LLM.Provider == "gemini" {
		client, err := service.NewGeminiClient(ctx, cfg.LLM.APIKey, cfg.LLM.GeminiModel)
		if err != nil {
			return nil, err
		}
		logg.Info("✅ Gemini client initialized", zap.String("model", cfg.LLM.GeminiModel))
		return client, nil
	}

	client := service.NewOpenAIClient(&cfg.LLM, logg)
	logg.Info("✅ OpenAI client initialized",
		zap.String("api_base", cfg.LLM.APIBase),
		zap.String("chat_model", cfg.LLM.ChatModel),
		zap.String("summary_model", cfg.LLM.SummaryModel),
		zap.String("price_model", cfg.LLM.PriceModel),
		zap.String("kpi_model", cfg.LLM.KPIModel),
		zap.Float64("chat_temperature", cfg.LLM.ChatTemperature),
	)
	return client, nil
}

func newConversationStore(ctx context.Context, cfg *config.Config) (repository.ConversationStore, func(), error) {
	if cfg.Chat.Store != "redis" {
		return repository.NewMemoryConversationStore(), func() {}, nil
	}

	client, err := repository.NewRedisClient(ctx, cfg.Redis.URL)
	if err != nil {
		return nil, nil, err
	}
	return repository.NewRedisConversationStore(client, cfg.Chat.SessionTTL), func() { _ = client.Close() }, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
