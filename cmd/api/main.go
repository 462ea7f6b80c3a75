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

	"github.com/rs/zerolog/log"
	"github.com/zatekoja/clinicaltriage/internal/adapters/cache"
	"github.com/zatekoja/clinicaltriage/internal/adapters/catalog"
	"github.com/zatekoja/clinicaltriage/internal/adapters/classifier"
	"github.com/zatekoja/clinicaltriage/internal/adapters/events"
	"github.com/zatekoja/clinicaltriage/internal/adapters/registry"
	"github.com/zatekoja/clinicaltriage/internal/api/handlers"
	"github.com/zatekoja/clinicaltriage/internal/api/routes"
	"github.com/zatekoja/clinicaltriage/internal/application/services"
	"github.com/zatekoja/clinicaltriage/internal/domain/providers"
	"github.com/zatekoja/clinicaltriage/internal/domain/repositories"
	"github.com/zatekoja/clinicaltriage/internal/domain/triage"
	"github.com/zatekoja/clinicaltriage/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/clinicaltriage/internal/infrastructure/clients/redis"
	"github.com/zatekoja/clinicaltriage/internal/infrastructure/observability"
	"github.com/zatekoja/clinicaltriage/pkg/config"
	"github.com/zatekoja/clinicaltriage/pkg/secrets"
)

func main() {
	// Vault secrets must be in the environment before config is read
	vaultResult, vaultErr := secrets.ApplyVaultSecrets(context.Background(), secrets.LoadVaultConfigFromEnv())

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Log.Env, cfg.Log.Level)

	if vaultErr != nil {
		log.Fatal().Err(vaultErr).Str("path", vaultResult.Path).Msg("Failed to load secrets from Vault")
	}
	if vaultResult.Enabled {
		log.Info().
			Str("path", vaultResult.Path).
			Strs("loaded", vaultResult.Loaded).
			Strs("skipped", vaultResult.Skipped).
			Msg("Secrets loaded from Vault")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry if enabled
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to set up OpenTelemetry")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Error().Err(err).Msg("Error shutting down OpenTelemetry")
				}
			}()
			log.Info().Str("endpoint", cfg.OTEL.Endpoint).Msg("OpenTelemetry initialized")
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize metrics")
	}

	questions, err := catalog.LoadFile(cfg.Triage.CatalogPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.Triage.CatalogPath).Msg("Failed to load question catalog")
	}
	log.Info().Int("categories", questions.Len()).Msg("Question catalog loaded")

	healthChecks := make(map[string]handlers.Pinger)

	// Redis backs the prediction cache, the event bus and optionally the registry
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = redis.NewClient(ctx, &cfg.Redis)
		if err != nil {
			if cfg.Registry.Backend == config.RegistryRedis {
				log.Fatal().Err(err).Msg("Failed to connect to Redis")
			}
			log.Warn().Err(err).Msg("Redis unavailable, continuing with in-process cache and events")
		} else {
			defer redisClient.Close()
			healthChecks["redis"] = handlers.PingFunc(redisClient.Ping)
			log.Info().Str("addr", cfg.Redis.RedisAddr()).Msg("Redis client initialized")
		}
	}

	var (
		cacheProvider providers.CacheProvider
		eventBus      providers.EventBus
	)
	if redisClient != nil {
		cacheProvider = cache.NewRedisAdapter(redisClient.Client(), cfg.Redis.CachePrefix)
		eventBus = events.NewRedisEventBus(redisClient.Client())
	} else {
		cacheProvider = cache.NewMemoryAdapter()
		eventBus = events.NewMemoryEventBus()
	}

	var patientRepo repositories.PatientRepository
	switch cfg.Registry.Backend {
	case config.RegistryPostgres:
		pgClient, err := postgres.NewClient(ctx, &cfg.Database)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
		}
		defer pgClient.Close()
		if err := registry.EnsureSchema(ctx, pgClient.DB()); err != nil {
			log.Fatal().Err(err).Msg("Failed to prepare registry schema")
		}
		healthChecks["postgres"] = handlers.PingFunc(pgClient.Ping)
		patientRepo = registry.NewPostgresRegistry(pgClient.DB())
	case config.RegistryRedis:
		patientRepo = registry.NewRedisRegistry(redisClient.Client(), registry.DefaultRedisHashKey)
	default:
		patientRepo = registry.NewMemoryRegistry()
	}
	log.Info().Str("backend", cfg.Registry.Backend).Msg("Patient registry ready")

	model, err := classifier.NewFromConfig(cfg.Classifier, cacheProvider)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize text classifier")
	}
	if cfg.Classifier.URL == "" {
		log.Warn().Msg("CLASSIFIER_URL not set, using the local keyword classifier")
	}

	// Services
	triageService := services.NewTriageService(
		triage.NewEngine(questions),
		model,
		patientRepo,
		services.WithEventBus(eventBus),
		services.WithMetrics(metrics),
		services.WithInferenceTimeout(cfg.Classifier.Timeout),
	)
	explainService := services.NewExplainService(model, cfg.Classifier.Timeout)
	patientService := services.NewPatientService(patientRepo, eventBus, cfg.Triage.AdminAPIKey)
	catalogService := services.NewCatalogService(questions)

	router := routes.NewRouter(
		handlers.NewHealthHandler(healthChecks),
		handlers.NewCatalogHandler(catalogService),
		handlers.NewTriageHandler(triageService, explainService),
		handlers.NewPatientHandler(patientService),
		handlers.NewSSEHandler(patientService),
		cfg.Server.AllowedOrigins,
		metrics,
	)

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:        serverAddr,
		Handler:     router.SetupRoutes(),
		ReadTimeout: 15 * time.Second,
		// no WriteTimeout: /pacientes/stream holds the connection open
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", serverAddr).Msg("Server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Server shutting down...")

	// Close the bus first so open streams return and Shutdown does not wait on them
	if err := eventBus.Close(); err != nil {
		log.Error().Err(err).Msg("Error closing event bus")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during server shutdown")
	}

	log.Info().Msg("Server stopped")
}
