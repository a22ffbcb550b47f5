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

	"github.com/pavi2003-eng/healthcare-backend/internal/adapters"
	"github.com/pavi2003-eng/healthcare-backend/internal/adapters/cache"
	"github.com/pavi2003-eng/healthcare-backend/internal/adapters/events"
	"github.com/pavi2003-eng/healthcare-backend/internal/api/handlers"
	"github.com/pavi2003-eng/healthcare-backend/internal/api/middleware"
	"github.com/pavi2003-eng/healthcare-backend/internal/api/routes"
	"github.com/pavi2003-eng/healthcare-backend/internal/application/services"
	"github.com/pavi2003-eng/healthcare-backend/internal/domain/providers"
	redisclient "github.com/pavi2003-eng/healthcare-backend/internal/infrastructure/clients/redis"
	"github.com/pavi2003-eng/healthcare-backend/internal/infrastructure/notifications"
	"github.com/pavi2003-eng/healthcare-backend/internal/infrastructure/observability"
	"github.com/pavi2003-eng/healthcare-backend/pkg/config"
)

const (
	emailWorkers       = 2
	localTaskQueueSize = 256
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.App.Environment)
	logger := observability.GetLogger()

	// Set up context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry if enabled
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			logger.Warn().Err(err).Msg("failed to set up OpenTelemetry")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					logger.Error().Err(err).Msg("error shutting down OpenTelemetry")
				}
			}()
			logger.Info().Str("endpoint", cfg.OTEL.Endpoint).Msg("OpenTelemetry initialized")
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize metrics")
	}

	loc, err := cfg.App.Location()
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid timezone")
	}

	store, err := adapters.OpenStore(ctx, cfg, metrics)
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.Store.Driver).Msg("failed to open store")
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Close(closeCtx); err != nil {
			logger.Error().Err(err).Msg("error closing store")
		}
	}()

	// Redis backs the cache, the notification bus and the task queue. Without
	// it the bus and queue run in process and nothing is cached.
	var (
		cacheProvider providers.CacheProvider
		eventBus      providers.EventBus
		taskQueue     providers.TaskQueue
	)
	if cfg.Redis.Enabled {
		redisClient, err := redisclient.NewClient(ctx, &cfg.Redis)
		if err != nil {
			logger.Warn().Err(err).Str("addr", cfg.Redis.RedisAddr()).Msg("Redis unavailable, using in-process fallbacks")
		} else {
			defer redisClient.Close()
			cacheProvider = cache.NewRedisAdapter(redisClient, metrics)
			eventBus = events.NewRedisEventBus(redisClient)
			taskQueue = events.NewRedisTaskQueue(redisClient, events.DefaultTaskQueueKey)
			logger.Info().Str("addr", cfg.Redis.RedisAddr()).Msg("Redis cache, event bus and task queue initialized")
		}
	}
	if eventBus == nil {
		eventBus = events.NewLocalEventBus()
	}
	if taskQueue == nil {
		taskQueue = events.NewLocalTaskQueue(localTaskQueueSize)
	}

	var emailSender providers.EmailSender
	if cfg.SMTP.Configured() {
		smtpSender, err := notifications.NewSMTPEmailSender(&cfg.SMTP, loc)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to initialize SMTP sender")
		}
		emailSender = smtpSender
	} else {
		logger.Warn().Msg("SMTP is not configured; accepted-appointment emails are only logged")
		emailSender = notifications.NewLogEmailSender(loc)
	}

	sink := observability.NewDegradationSink(metrics)

	// Initialize services
	notificationService := services.NewNotificationService(store.Notifications, eventBus)
	dispatcher := services.NewSideEffectDispatcher(store, notificationService, taskQueue, sink, loc)
	appointmentService := services.NewAppointmentService(store, dispatcher, metrics)
	if cacheProvider != nil {
		appointmentService.WithInvalidator(services.NewCacheInvalidationService(cacheProvider))
	}
	chatService := services.NewChatService(store.Chats)
	ratingService := services.NewRatingService(store)
	dashboardService := services.NewDashboardService(store, cacheProvider, cfg.App.DashboardCacheTTL, loc, metrics)
	analyticsService := services.NewAnalyticsService(store.Patients, cacheProvider, cfg.App.DashboardCacheTTL)

	workerCtx, stopWorkers := context.WithCancel(ctx)
	emailWorker := services.NewEmailWorker(taskQueue, emailSender, sink)
	emailWorker.Start(workerCtx, emailWorkers)

	// Initialize handlers
	router := routes.NewRouter(
		handlers.NewAppointmentHandler(appointmentService),
		handlers.NewChatHandler(chatService),
		handlers.NewNotificationHandler(notificationService),
		handlers.NewRatingHandler(ratingService),
		handlers.NewDashboardHandler(dashboardService, analyticsService, loc),
		middleware.NewResponseCache(cacheProvider, int(cfg.App.DashboardCacheTTL.Seconds())),
		cfg.App.AllowedOrigins,
		metrics,
	)

	// WriteTimeout is left unset so notification streams stay open
	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:              serverAddr,
		Handler:           router.SetupRoutes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", serverAddr).Str("store", cfg.Store.Driver).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("server shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("error during server shutdown")
	}

	stopWorkers()
	if err := taskQueue.Close(); err != nil {
		logger.Error().Err(err).Msg("error closing task queue")
	}
	emailWorker.Wait()

	if err := eventBus.Close(); err != nil {
		logger.Error().Err(err).Msg("error closing event bus")
	}

	logger.Info().Msg("server stopped")
}
