// cmd/worker-manager/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"logo-workers/internal/common/camunda"
	"logo-workers/internal/common/config"
	"logo-workers/internal/common/database"
	"logo-workers/internal/common/llm"
	"logo-workers/internal/common/logger"
	"logo-workers/internal/common/observability"
	"logo-workers/internal/dialogue"
	"logo-workers/internal/httpapi"
	"logo-workers/internal/models"
	"logo-workers/internal/store"

	chatreply "logo-workers/internal/workers/ai-conversation/chat-reply"
	classifyintent "logo-workers/internal/workers/ai-conversation/classify-intent"
	extractsearchquery "logo-workers/internal/workers/ai-conversation/extract-search-query"
	handlemessage "logo-workers/internal/workers/ai-conversation/handle-message"
	composeprompt "logo-workers/internal/workers/logo-agent/compose-prompt"
	searchreferences "logo-workers/internal/workers/logo-agent/search-references"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...",
		zap.String("environment", cfg.App.Environment),
		zap.String("llmProvider", cfg.APIs.LLM.Provider),
		zap.String("pendingStore", cfg.Conversation.PendingStore),
	)

	obs := observability.New(cfg.Observability.ServiceName)
	defer obs.Shutdown()

	shutdownTracing, err := observability.InitTracing(cfg.Observability.ServiceName, cfg.Observability.JaegerEndpoint)
	if err != nil {
		zapLog.Warn("tracing disabled", zap.Error(err))
		shutdownTracing = func(context.Context) error { return nil }
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	checks := map[string]httpapi.ReadinessCheck{}

	// --- Optional backing stores ---
	var pg *database.PostgresClient
	if cfg.Database.Postgres.Enabled {
		err = retryWithBackoff(func() error {
			var err error
			pg, err = database.NewPostgres(cfg.Database.Postgres)
			if err != nil {
				return err
			}
			return pg.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
		if err != nil {
			zapLog.Fatal("postgres failed after retries", zap.Error(err))
		}
		defer pg.Close()
		if err := pg.EnsureChatHistory(ctx); err != nil {
			zapLog.Fatal("chat_history schema setup failed", zap.Error(err))
		}
		checks["postgres"] = pg.Ping
		zapLog.Info("PostgreSQL connected successfully")
	}

	var rdb *database.RedisClient
	if cfg.Database.Redis.Enabled || cfg.Conversation.PendingStore == "redis" || cfg.Quota.Enabled {
		err = retryWithBackoff(func() error {
			var err error
			rdb, err = database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			return rdb.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "Redis connection")
		if err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		defer rdb.Close()
		checks["redis"] = rdb.Ping
		zapLog.Info("Redis connected successfully")
	}

	var esClient *database.ElasticsearchClient
	if cfg.Database.Elasticsearch.Enabled {
		err = retryWithBackoff(func() error {
			var err error
			esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return esClient.Ping()
		}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
		if err != nil {
			zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
		}
		checks["elasticsearch"] = func(context.Context) error { return esClient.Ping() }
		zapLog.Info("Elasticsearch connected successfully")
	}

	// --- Language model ---
	chatLLM, err := newChatLLM(ctx, cfg.APIs.LLM)
	if err != nil {
		zapLog.Fatal("llm client init failed", zap.Error(err))
	}
	if chatLLM == nil {
		zapLog.Warn("no LLM API key configured, using pattern fallbacks only")
	}

	// --- Pipeline components ---
	classifyCfg := classifyintent.LoadConfig()
	classifyCfg.Timeout = config.GetDuration(cfg.APIs.LLM.ClassificationTimeout)
	classifier := classifyintent.NewHandler(classifyCfg, chatLLM, &classifyLoggerAdapter{log})

	extractCfg := extractsearchquery.LoadConfig()
	extractCfg.Timeout = config.GetDuration(cfg.APIs.LLM.ClassificationTimeout)
	extractor := extractsearchquery.NewHandler(extractCfg, chatLLM, &extractLoggerAdapter{log})

	replyCfg := chatreply.LoadConfig()
	replyCfg.Timeout = config.GetDuration(cfg.APIs.LLM.ChatTimeout)
	replyCfg.HistoryTurns = cfg.Conversation.HistoryWindow
	responder := chatreply.NewHandler(replyCfg, chatLLM, &chatReplyLoggerAdapter{log})

	searchCfg := searchreferences.LoadConfig()
	searchCfg.BaseURL = cfg.APIs.ImageSearch.BaseURL
	searchCfg.APIKey = cfg.APIs.ImageSearch.APIKey
	searchCfg.Timeout = config.GetDuration(cfg.APIs.ImageSearch.Timeout)
	searchCfg.FetchTimeout = config.GetDuration(cfg.APIs.ImageSearch.FetchTimeout)
	searchCfg.MinInterval = config.GetDuration(cfg.APIs.ImageSearch.MinIntervalMs)
	searchCfg.MaxResults = cfg.APIs.ImageSearch.MaxResults
	searchLog := &searchLoggerAdapter{log}
	searchClient := searchreferences.NewClient(searchCfg, searchLog)
	searchHandler := searchreferences.NewHandler(searchCfg, searchClient, searchLog)

	var snippets composeprompt.SnippetSearcher
	if searchCfg.APIKey != "" {
		snippets = searchClient
	}
	composer := composeprompt.NewHandler(composeprompt.LoadConfig(), snippets, &composeLoggerAdapter{log})

	var pending dialogue.Store
	switch cfg.Conversation.PendingStore {
	case "redis":
		pending = dialogue.NewRedisStore(rdb.Client, config.GetDuration(cfg.Conversation.PendingTTL))
	default:
		pending = dialogue.NewMemoryStore(config.GetDuration(cfg.Conversation.PendingTTL))
	}

	deps := handlemessage.Dependencies{
		Tracker:       dialogue.NewTracker(pending),
		References:    dialogue.NewReferenceHolder(),
		Classifier:    classifier,
		Extractor:     extractor,
		Searcher:      searchClient,
		Composer:      composer,
		Chat:          responder,
		Observability: obs,
	}
	if cfg.Quota.Enabled {
		deps.Quota = store.NewRedisQuotaStore(rdb.Client, cfg.Quota.DailyLimit)
	}
	if esClient != nil {
		archive := store.NewSelectionArchive(esClient, cfg.Database.Elasticsearch.SelectionsIndex)
		if err := archive.EnsureIndex(ctx); err != nil {
			zapLog.Warn("selection archive unavailable", zap.Error(err))
		} else {
			deps.Selections = archive
		}
	}

	messageCfg := handlemessage.LoadConfig()
	messageCfg.SearchThreshold = cfg.Conversation.SearchThreshold
	messageCfg.GenerateThreshold = cfg.Conversation.GenerateThreshold
	messageCfg.MaxResults = cfg.APIs.ImageSearch.MaxResults
	messageCfg.DailyLimit = cfg.Quota.DailyLimit
	orchestrator := handlemessage.NewHandler(messageCfg, deps, &handleMessageLoggerAdapter{log})

	var history models.HistoryRepository
	if pg != nil {
		history = store.NewPostgresHistoryStore(pg.DB)
	}

	// --- Zeebe workers ---
	var registry *camunda.Registry
	if cfg.Camunda.Enabled {
		zeebe, err := camunda.NewClientWithConfig(ctx, &camunda.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
			ConnectionTimeout:      config.GetDuration(cfg.Camunda.RequestTimeout),
		})
		if err != nil {
			zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
		}
		defer zeebe.Close()
		checks["zeebe"] = zeebe.HealthCheck
		zapLog.Info("Zeebe client connected successfully")

		registry = camunda.NewRegistry(zeebe.GetClient(), zapLog)
		registry.Start(classifyintent.TaskType, config.GetWorkerConfig(cfg, classifyintent.TaskType), classifier.Handle)
		registry.Start(extractsearchquery.TaskType, config.GetWorkerConfig(cfg, extractsearchquery.TaskType), extractor.Handle)
		registry.Start(chatreply.TaskType, config.GetWorkerConfig(cfg, chatreply.TaskType), responder.Handle)
		registry.Start(searchreferences.TaskType, config.GetWorkerConfig(cfg, searchreferences.TaskType), searchHandler.Handle)
		registry.Start(composeprompt.TaskType, config.GetWorkerConfig(cfg, composeprompt.TaskType), composer.Handle)
		registry.Start(handlemessage.TaskType, config.GetWorkerConfig(cfg, handlemessage.TaskType), orchestrator.Handle)
		zapLog.Info("All workers started", zap.Strings("taskTypes", registry.Started()))
	}

	// --- Chat API ---
	chatHandler := httpapi.NewChatHandler(orchestrator, history, cfg.Conversation.HistoryWindow, &httpLoggerAdapter{log})
	server := &http.Server{
		Addr:              cfg.HTTP.Address,
		Handler:           httpapi.NewRouter(chatHandler, checks),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		zapLog.Info("chat API listening", zap.String("address", cfg.HTTP.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		zapLog.Info("Shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.HTTP.ShutdownTimeout))
		defer cancel()

		if registry != nil {
			registry.Stop()
		}
		if err := shutdownTracing(shutdownCtx); err != nil {
			zapLog.Warn("tracer shutdown failed", zap.Error(err))
		}
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		zapLog.Error("worker manager stopped with error", zap.Error(err))
		os.Exit(1)
	}
	zapLog.Info("Worker manager stopped")
}

// newChatLLM builds the configured provider. A missing API key returns a nil
// client so every component falls back to its pattern rules.
func newChatLLM(ctx context.Context, cfg config.LLMConfig) (llm.ChatLLM, error) {
	if cfg.APIKey == "" {
		return nil, nil
	}
	switch cfg.Provider {
	case "gemini":
		client, err := llm.NewGeminiClient(ctx, cfg.APIKey, cfg.Model, cfg.MaxRetries)
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return llm.NewMistralClient(llm.MistralConfig{
			Endpoint:   cfg.BaseURL,
			APIKey:     cfg.APIKey,
			Model:      cfg.Model,
			MaxRetries: cfg.MaxRetries,
		}, &http.Client{Timeout: config.GetDuration(cfg.ChatTimeout)}), nil
	}
}
