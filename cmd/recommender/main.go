// cmd/recommender/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"bookreview-recommender/internal/ai"
	"bookreview-recommender/internal/api"
	"bookreview-recommender/internal/cache"
	"bookreview-recommender/internal/common/auth"
	"bookreview-recommender/internal/common/aws"
	"bookreview-recommender/internal/common/camunda"
	"bookreview-recommender/internal/common/config"
	"bookreview-recommender/internal/common/database"
	"bookreview-recommender/internal/common/logger"
	"bookreview-recommender/internal/common/observability"
	"bookreview-recommender/internal/common/validation"
	"bookreview-recommender/internal/recommendation"
	"bookreview-recommender/internal/repository"
	"bookreview-recommender/internal/search"
	"bookreview-recommender/pkg/registry"

	gr "bookreview-recommender/internal/workers/recommendation/generate-recommendations"
	srd "bookreview-recommender/internal/workers/recommendation/send-recommendation-digest"
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
	bootLog := logger.New("info", "console")

	cfg, err := config.Load()
	if err != nil {
		bootLog.Fatal("config load failed", zap.Error(err))
	}

	zapLog, err := logger.Build(logger.Options{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Output:      cfg.Logging.Output,
		ServiceName: cfg.App.Name,
	})
	if err != nil {
		bootLog.Fatal("logger init failed", zap.Error(err))
	}
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting recommender",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	tracer, err := observability.NewTracer(observability.TracingOptions{
		Enabled:        cfg.Tracing.Enabled,
		ServiceName:    cfg.App.Name,
		ServiceVersion: cfg.App.Version,
		JaegerEndpoint: cfg.Tracing.JaegerEndpoint,
		SampleRatio:    cfg.Tracing.SampleRatio,
	})
	if err != nil {
		zapLog.Fatal("tracer init failed", zap.Error(err))
	}
	defer tracer.Shutdown()

	ctx := context.Background()
	checks := map[string]database.Pinger{}

	// --- PostgreSQL ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(ctx, cfg.Database.Postgres)
		return err
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	checks["postgres"] = pg
	zapLog.Info("PostgreSQL connected successfully")

	books := repository.NewBookRepository(pg.DB)
	reviews := repository.NewReviewRepository(pg.DB)

	var users recommendation.UserStore = repository.NewUserRepository(pg.DB)
	var catalog recommendation.Catalog = books

	// --- Redis profile cache ---
	if cfg.Recommendation.ProfileCacheEnabled {
		var rdb *database.RedisClient
		err = retryWithBackoff(func() error {
			var err error
			rdb, err = database.NewRedis(ctx, cfg.Database.Redis)
			return err
		}, 10, 2*time.Second, zapLog, "Redis connection")
		if err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		defer rdb.Close()
		checks["redis"] = rdb
		users = cache.NewProfileStore(users, rdb.Client, config.GetDuration(cfg.Recommendation.ProfileCacheTTL), log)
		zapLog.Info("Profile cache enabled")
	}

	// --- Elasticsearch genre lookups ---
	if cfg.Recommendation.SearchEnabled {
		var esClient *database.ElasticsearchClient
		err = retryWithBackoff(func() error {
			var err error
			esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return esClient.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
		if err != nil {
			zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
		}
		checks["elasticsearch"] = esClient
		catalog = search.NewCatalog(books, search.NewBookIndex(esClient.Client, cfg.Database.Elasticsearch.BookIndex, log))
		zapLog.Info("Search-backed genre lookups enabled")
	}

	// --- GenAI provider ---
	var provider recommendation.AIProvider
	if cfg.APIs.GenAI.Enabled {
		p, err := ai.NewProvider(ai.ConfigFromGenAI(cfg.APIs.GenAI), books, log)
		if err != nil {
			zapLog.Fatal("genai provider init failed", zap.Error(err))
		}
		provider = p
	}

	service := recommendation.NewService(&recommendation.Config{
		AIContextSize: cfg.Recommendation.AIContextSize,
		AITimeout:     config.GetDuration(cfg.Recommendation.AITimeout),
	}, users, reviews, catalog, provider, log)

	// --- Zeebe workers ---
	var zeebe *camunda.Client
	var workers []*camunda.CamundaWorker
	if config.IsWorkerEnabled(cfg, gr.TaskType) || config.IsWorkerEnabled(cfg, srd.TaskType) {
		zeebe, err = camunda.NewClient(ctx, cfg.Camunda.BrokerAddress, log)
		if err != nil {
			zapLog.Fatal("zeebe client failed", zap.Error(err))
		}
		zapLog.Info("Zeebe client connected successfully")

		reg, err := registry.LoadRegistry(cfg.Registry.Path)
		if err != nil {
			zapLog.Warn("activity registry unavailable, job input schemas disabled", zap.Error(err))
			reg = &registry.ActivityRegistry{}
		}

		if taskType := gr.TaskType; config.IsWorkerEnabled(cfg, taskType) {
			wcfg := config.GetWorkerConfig(cfg, taskType)
			defaults := api.DefaultsFromConfig(cfg.Recommendation).Personal
			handler := gr.NewHandler(&gr.Config{
				Timeout:  config.GetDuration(wcfg.Timeout),
				Defaults: defaults,
			}, service, inputSchema(reg, taskType, zapLog), obs, log)
			workers = append(workers, camunda.StartWorker(zeebe.GetClient(), camunda.WorkerOptions{
				TaskType:      taskType,
				MaxJobsActive: wcfg.MaxJobsActive,
				Timeout:       config.GetDuration(wcfg.Timeout),
			}, handler.Handle, log))
		}

		if taskType := srd.TaskType; config.IsWorkerEnabled(cfg, taskType) {
			wcfg := config.GetWorkerConfig(cfg, taskType)
			var sender aws.EmailSender
			if cfg.Integrations.AWS.SES.Enabled {
				ses, err := aws.NewSESClient(ctx, cfg.Integrations.AWS.Region)
				if err != nil {
					zapLog.Fatal("ses client init failed", zap.Error(err))
				}
				sender = ses
			}
			var publisher aws.EventPublisher
			if cfg.Integrations.AWS.SNS.Enabled {
				sns, err := aws.NewSNSClient(ctx, cfg.Integrations.AWS.Region)
				if err != nil {
					zapLog.Fatal("sns client init failed", zap.Error(err))
				}
				publisher = sns
			}
			dcfg := srd.LoadConfig()
			dcfg.EmailEnabled = cfg.Integrations.AWS.SES.Enabled
			dcfg.FromEmail = cfg.Integrations.AWS.SES.FromEmail
			dcfg.TopicARN = cfg.Integrations.AWS.SNS.TopicARN
			dcfg.Timeout = config.GetDuration(wcfg.Timeout)
			handler := srd.NewHandler(dcfg, sender, publisher, inputSchema(reg, taskType, zapLog), log)
			workers = append(workers, camunda.StartWorker(zeebe.GetClient(), camunda.WorkerOptions{
				TaskType:      taskType,
				MaxJobsActive: wcfg.MaxJobsActive,
				Timeout:       config.GetDuration(wcfg.Timeout),
			}, handler.Handle, log))
		}
		zapLog.Info("Workers registered", zap.Int("count", len(workers)))
	}

	// --- HTTP API ---
	jwtManager := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer, 24*time.Hour)
	handler := api.NewHandler(service, jwtManager, api.DefaultsFromConfig(cfg.Recommendation), checks, obs, log)
	server := api.NewServer(cfg.HTTP, api.NewRouter(handler))

	go func() {
		zapLog.Info("HTTP server listening", zap.String("address", cfg.HTTP.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error shutting down HTTP server", zap.Error(err))
	}
	for _, w := range workers {
		w.Stop()
	}
	if zeebe != nil {
		if err := zeebe.Close(); err != nil {
			zapLog.Error("Error closing Zeebe client", zap.Error(err))
		}
	}

	zapLog.Info("Recommender stopped gracefully")
}

// inputSchema compiles the registry's input schema for a task type, or
// returns nil when none is declared.
func inputSchema(reg *registry.ActivityRegistry, taskType string, log *zap.Logger) *validation.Schema {
	activity, err := reg.FindByTaskType(taskType)
	if err != nil || activity.InputSchema == nil {
		log.Warn("no input schema registered", zap.String("taskType", taskType))
		return nil
	}
	schema, err := validation.CompileSchema(activity.InputSchema)
	if err != nil {
		log.Fatal("invalid input schema", zap.String("taskType", taskType), zap.Error(err))
	}
	return schema
}
