package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/schedulo/schedulo/internal/adapters/cache"
	"github.com/schedulo/schedulo/internal/adapters/database"
	"github.com/schedulo/schedulo/internal/adapters/events"
	"github.com/schedulo/schedulo/internal/adapters/providers/calendar"
	"github.com/schedulo/schedulo/internal/api/handlers"
	"github.com/schedulo/schedulo/internal/api/routes"
	"github.com/schedulo/schedulo/internal/application/services"
	"github.com/schedulo/schedulo/internal/domain/providers"
	"github.com/schedulo/schedulo/internal/domain/repositories"
	"github.com/schedulo/schedulo/internal/infrastructure/clients/postgres"
	"github.com/schedulo/schedulo/internal/infrastructure/clients/redis"
	"github.com/schedulo/schedulo/internal/infrastructure/notifications"
	"github.com/schedulo/schedulo/internal/infrastructure/observability"
	"github.com/schedulo/schedulo/pkg/config"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	observability.InitLogger("schedulo-api", cfg.Server.Env)

	// Set up context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry if enabled
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(
			ctx,
			cfg.OTEL.ServiceName,
			cfg.OTEL.ServiceVersion,
			cfg.OTEL.Endpoint,
		)
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
			log.Info().Msg("OpenTelemetry initialized")
		}
	}

	// Initialize metrics
	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize metrics")
	}

	// Initialize database client
	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize PostgreSQL client")
	}
	defer pgClient.Close()
	log.Info().Msg("PostgreSQL client initialized")

	// Initialize Redis client. The API works without it; caching and the
	// event bus are simply disabled.
	redisClient, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		log.Warn().Err(err).Msg("failed to initialize Redis client, continuing without cache")
		redisClient = nil
	} else {
		defer redisClient.Close()
		log.Info().Msg("Redis client initialized")
	}

	var cacheProvider providers.CacheProvider
	if redisClient != nil {
		cacheProvider = cache.NewRedisAdapter(redisClient)
	}

	var eventBus providers.EventBus
	if redisClient != nil {
		eventBus = events.NewRedisEventBus(redisClient)
		log.Info().Msg("event bus initialized")
	} else {
		log.Info().Msg("event bus disabled (Redis not available)")
	}

	// Initialize adapters
	baseStaffAdapter := database.NewStaffAdapter(pgClient)

	var staffAdapter repositories.StaffRepository
	if cacheProvider != nil {
		staffAdapter = database.NewCachedStaffAdapter(baseStaffAdapter, cacheProvider, metrics)
		log.Info().Msg("staff adapter wrapped with caching layer")
	} else {
		staffAdapter = baseStaffAdapter
		log.Warn().Msg("staff adapter running without cache (Redis unavailable)")
	}

	meetingTypeAdapter := database.NewMeetingTypeAdapter(pgClient)
	bookingAdapter := database.NewBookingAdapter(pgClient)

	// Periodic warming propagates externally-made staff edits into the
	// cache ahead of TTL expiry.
	if cacheProvider != nil {
		warmingService := services.NewCacheWarmingService(baseStaffAdapter, cacheProvider)
		go warmingService.StartPeriodicWarming(ctx, 5*time.Minute)
		log.Info().Msg("cache warming service started")
	}

	calendarProvider := calendar.NewCalendarProvider(calendar.CalendarProviderConfig{
		Provider:          cfg.Calendar.Provider,
		AccessToken:       cfg.Calendar.AccessToken,
		AllowMockFallback: cfg.Calendar.AllowMockFallback,
	})

	// Initialize services
	tokenService := services.NewTokenService(bookingAdapter)
	clock := providers.SystemClock{}

	var notifier *services.NotificationService
	mailSender, err := notifications.NewMailAPISender(&cfg.Mail)
	if err != nil {
		log.Warn().Err(err).Msg("mail sender not configured, notifications disabled")
	} else {
		notifier = services.NewNotificationService(pgClient.SQLx(), mailSender)
	}

	availabilityService := services.NewAvailabilityService(
		staffAdapter,
		meetingTypeAdapter,
		bookingAdapter,
		calendarProvider,
		clock,
		cfg.Booking.SlotStepMinutes,
		cfg.Booking.MinNoticeMinutes,
	)

	var bookingNotifier services.BookingNotifier
	if notifier != nil {
		bookingNotifier = notifier
	}

	bookingService := services.NewBookingService(
		staffAdapter,
		meetingTypeAdapter,
		bookingAdapter,
		tokenService,
		calendarProvider,
		bookingNotifier,
		eventBus,
		clock,
		metrics,
	)

	// Initialize handlers
	staffHandler := handlers.NewStaffHandler(staffAdapter, meetingTypeAdapter)
	availabilityHandler := handlers.NewAvailabilityHandler(availabilityService)
	bookingHandler := handlers.NewBookingHandler(bookingService)

	var eventsHandler *handlers.EventsHandler
	if eventBus != nil {
		eventsHandler = handlers.NewEventsHandler(eventBus)
		log.Info().Msg("booking event streams enabled")
	}

	// Set up router
	router := routes.NewRouter(
		staffHandler,
		availabilityHandler,
		bookingHandler,
		eventsHandler,
		metrics,
	)
	handler := router.SetupRoutes()

	// Create HTTP server
	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("addr", serverAddr).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("server shutting down")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during server shutdown")
	}

	// Close event bus
	if eventBus != nil {
		if err := eventBus.Close(); err != nil {
			log.Error().Err(err).Msg("error closing event bus")
		}
	}

	log.Info().Msg("server stopped")
}
