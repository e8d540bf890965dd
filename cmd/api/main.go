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

	"github.com/zatekoja/medbackoffice/internal/adapters/cache"
	"github.com/zatekoja/medbackoffice/internal/adapters/database"
	"github.com/zatekoja/medbackoffice/internal/adapters/events"
	"github.com/zatekoja/medbackoffice/internal/adapters/notifications"
	"github.com/zatekoja/medbackoffice/internal/api/handlers"
	"github.com/zatekoja/medbackoffice/internal/api/routes"
	"github.com/zatekoja/medbackoffice/internal/application/services"
	"github.com/zatekoja/medbackoffice/internal/dialog"
	"github.com/zatekoja/medbackoffice/internal/domain/entities"
	"github.com/zatekoja/medbackoffice/internal/domain/providers"
	"github.com/zatekoja/medbackoffice/internal/infrastructure/clients/entityapi"
	"github.com/zatekoja/medbackoffice/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/medbackoffice/internal/infrastructure/clients/redis"
	"github.com/zatekoja/medbackoffice/internal/infrastructure/observability"
	"github.com/zatekoja/medbackoffice/internal/lookup"
	"github.com/zatekoja/medbackoffice/pkg/config"
)

func main() {
	if _, err := config.LoadEnv(".env", ".env.local"); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load .env files: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	observability.InitLogger(cfg.OTEL.ServiceName, cfg.App.Env, cfg.App.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry if enabled
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			log.Warn().Err(err).Msg("failed to set up OpenTelemetry")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Error().Err(err).Msg("error shutting down OpenTelemetry")
				}
			}()
			log.Info().Str("endpoint", cfg.OTEL.Endpoint).Msg("OpenTelemetry initialized")
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize metrics")
	}

	entityClient := entityapi.NewClient(entityapi.Config{
		BaseURL: cfg.EntityAPI.BaseURL,
		Token:   cfg.EntityAPI.Token,
		Timeout: cfg.EntityAPI.Timeout,
	})

	// Preferences live in Postgres when configured, otherwise in memory.
	var prefStore providers.PreferenceStore = database.NewMemoryPreferenceStore()
	if cfg.Database.Enabled {
		pgClient, err := postgres.NewClient(ctx, &cfg.Database)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize PostgreSQL client")
		}
		defer pgClient.Close()

		adapter := database.NewPreferenceAdapter(pgClient)
		if err := adapter.EnsureSchema(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to prepare preferences table")
		}
		prefStore = adapter
	} else {
		log.Warn().Msg("DB_ENABLED is off; view preferences are kept in memory")
	}

	// Redis adds a shared list cache and cross-instance invalidation.
	var sharedCache providers.CacheProvider
	var eventBus providers.EventBus
	if cfg.Redis.Enabled {
		redisClient, err := redis.NewClient(&cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Msg("failed to initialize Redis client; running without shared cache")
		} else {
			defer redisClient.Close()
			sharedCache = cache.NewRedisAdapter(redisClient, "medbackoffice:")
			eventBus = events.NewRedisEventBus(redisClient)
			log.Info().Str("addr", cfg.Redis.RedisAddr()).Msg("Redis client initialized")
		}
	}

	invalidation := services.NewCacheInvalidationService(eventBus)

	sessions := services.NewSessionService(
		services.NewTabFactory(entityClient),
		services.NewPreferenceService(prefStore),
		services.TabDeps{
			Notifier:  notifications.NewLogNotifier(),
			Shared:    sharedCache,
			Metrics:   metrics,
			Validator: dialog.NewValidator(),
			PageSize:  cfg.Listing.PageSize,
			CacheTTL:  cfg.Listing.CacheTTL,
		},
		invalidation,
		cfg.Listing.SessionTTL,
		cfg.Listing.MaxSessions,
	)

	lookups := lookup.NewLoader(
		entityapi.NewResource[entities.Provider](entityClient, entities.TypeProvider),
		entityapi.NewResource[entities.Doctor](entityClient, entities.TypeDoctor),
		entityapi.NewResource[entities.InsuranceCode](entityClient, entities.TypeInsuranceCode),
		cfg.Listing.CacheTTL,
		time.Now,
	)

	invalidation.Register(sessions.HandleChange)
	invalidation.Register(func(event *entities.EntityChangedEvent) {
		lookups.Invalidate(event.EntityType)
	})
	if err := invalidation.Start(); err != nil {
		log.Warn().Err(err).Msg("cache invalidation listener not started")
	}

	router := routes.NewRouter(
		handlers.NewEntityHandler(lookups),
		handlers.NewSessionHandler(sessions),
		cfg.Server.AllowedOrigins,
		metrics,
	)

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router.SetupRoutes(),
		ReadTimeout:  15 * time.Second,
		// A fetch may wait through the whole retry schedule.
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", serverAddr).Str("entity_api", cfg.EntityAPI.BaseURL).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("server shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during server shutdown")
	}

	invalidation.Stop()
	if eventBus != nil {
		if err := eventBus.Close(); err != nil {
			log.Error().Err(err).Msg("error closing event bus")
		}
	}
	log.Info().Msg("server stopped")
}
