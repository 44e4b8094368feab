package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/schedulo/schedulo/internal/adapters/database"
	"github.com/schedulo/schedulo/internal/application/services"
	"github.com/schedulo/schedulo/internal/domain/providers"
	"github.com/schedulo/schedulo/internal/infrastructure/clients/postgres"
	"github.com/schedulo/schedulo/internal/infrastructure/notifications"
	"github.com/schedulo/schedulo/internal/infrastructure/observability"
	"github.com/schedulo/schedulo/pkg/config"
)

// tickInterval is how often the worker scans for due reminders.
const tickInterval = 5 * time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	observability.InitLogger("schedulo-reminders", cfg.Server.Env)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize PostgreSQL client")
	}
	defer pgClient.Close()

	mailSender, err := notifications.NewMailAPISender(&cfg.Mail)
	if err != nil {
		log.Fatal().Err(err).Msg("mail sender is required for the reminder worker")
	}

	staffAdapter := database.NewStaffAdapter(pgClient)
	meetingTypeAdapter := database.NewMeetingTypeAdapter(pgClient)
	bookingAdapter := database.NewBookingAdapter(pgClient)

	notifier := services.NewNotificationService(pgClient.SQLx(), mailSender)
	reminderService := services.NewReminderService(
		bookingAdapter,
		staffAdapter,
		meetingTypeAdapter,
		notifier,
		providers.SystemClock{},
		cfg.Booking.ReminderLeadHours,
	)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	log.Info().
		Dur("interval", tickInterval).
		Int("lead_hours", cfg.Booking.ReminderLeadHours).
		Msg("reminder worker starting")

	// Run one pass immediately so a restart doesn't delay due reminders.
	runOnce(ctx, reminderService)

	for {
		select {
		case <-ticker.C:
			runOnce(ctx, reminderService)
		case <-quit:
			log.Info().Msg("reminder worker stopping")
			return
		}
	}
}

func runOnce(ctx context.Context, svc *services.ReminderService) {
	tickCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	if _, err := svc.ProcessDue(tickCtx); err != nil {
		log.Error().Err(err).Msg("reminder pass failed")
	}
}
