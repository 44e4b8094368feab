package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/schedulo/schedulo/internal/domain/entities"
	"github.com/schedulo/schedulo/internal/infrastructure/clients/postgres"
	"github.com/schedulo/schedulo/pkg/config"
)

// schema is the full booking engine schema. The partial unique index on
// (staff_id, start_time) where status = 'confirmed' is the database-level
// backstop behind the advisory-lock overlap check.
const schema = `
CREATE TABLE IF NOT EXISTS staff_members (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	email       TEXT NOT NULL,
	timezone    TEXT NOT NULL,
	calendar_id TEXT NOT NULL DEFAULT '',
	schedule    JSONB NOT NULL DEFAULT '{}',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS meeting_types (
	id               TEXT PRIMARY KEY,
	staff_id         TEXT NOT NULL REFERENCES staff_members(id),
	name             TEXT NOT NULL,
	duration_minutes INT NOT NULL,
	active           BOOLEAN NOT NULL DEFAULT true,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS bookings (
	id                TEXT PRIMARY KEY,
	staff_id          TEXT NOT NULL REFERENCES staff_members(id),
	meeting_type_id   TEXT NOT NULL REFERENCES meeting_types(id),
	first_name        TEXT NOT NULL,
	last_name         TEXT NOT NULL DEFAULT '',
	email             TEXT NOT NULL,
	phone             TEXT NOT NULL DEFAULT '',
	notes             TEXT NOT NULL DEFAULT '',
	start_time        TIMESTAMPTZ NOT NULL,
	end_time          TIMESTAMPTZ NOT NULL,
	duration_minutes  INT NOT NULL,
	status            TEXT NOT NULL DEFAULT 'confirmed',
	calendar_event_id TEXT,
	meeting_link      TEXT,
	access_token      TEXT NOT NULL UNIQUE,
	reminder_sent     BOOLEAN NOT NULL DEFAULT false,
	created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE UNIQUE INDEX IF NOT EXISTS bookings_confirmed_slot_idx
	ON bookings (staff_id, start_time) WHERE status = 'confirmed';
CREATE INDEX IF NOT EXISTS bookings_staff_range_idx
	ON bookings (staff_id, start_time, end_time) WHERE status = 'confirmed';
CREATE INDEX IF NOT EXISTS bookings_reminder_idx
	ON bookings (start_time) WHERE status = 'confirmed' AND reminder_sent = false;

CREATE TABLE IF NOT EXISTS notification_templates (
	id            TEXT PRIMARY KEY,
	channel       TEXT NOT NULL,
	template_type TEXT NOT NULL,
	subject       TEXT NOT NULL,
	body          TEXT NOT NULL,
	is_active     BOOLEAN NOT NULL DEFAULT true,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS booking_notifications (
	id                TEXT PRIMARY KEY,
	booking_id        TEXT NOT NULL,
	notification_type TEXT NOT NULL,
	channel           TEXT NOT NULL,
	recipient         TEXT NOT NULL,
	status            TEXT NOT NULL,
	message_id        TEXT,
	sent_at           TIMESTAMPTZ,
	failed_at         TIMESTAMPTZ,
	error_message     TEXT,
	created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer pgClient.Close()

	ctx := context.Background()

	if os.Getenv("RESET_DB") == "true" {
		log.Println("RESET_DB=true detected, truncating tables before seeding")
		_, err := pgClient.DB().ExecContext(ctx, `
			TRUNCATE TABLE
				booking_notifications,
				notification_templates,
				bookings,
				meeting_types,
				staff_members
			RESTART IDENTITY CASCADE
		`)
		if err != nil {
			log.Printf("Failed to reset tables (may not exist yet): %v", err)
		}
	}

	if _, err := pgClient.DB().ExecContext(ctx, schema); err != nil {
		log.Fatalf("Failed to apply schema: %v", err)
	}
	log.Println("Schema applied")

	weekdays := entities.WorkingSchedule{
		time.Monday:    {Enabled: true, Start: "09:00", End: "17:00"},
		time.Tuesday:   {Enabled: true, Start: "09:00", End: "17:00"},
		time.Wednesday: {Enabled: true, Start: "09:00", End: "17:00"},
		time.Thursday:  {Enabled: true, Start: "09:00", End: "17:00"},
		time.Friday:    {Enabled: true, Start: "09:00", End: "15:00"},
	}

	// 1. Seed staff members
	staff := []entities.StaffMember{
		{
			ID:       uuid.New().String(),
			Name:     "Amina Bello",
			Email:    "amina.bello@example.com",
			Timezone: "Africa/Lagos",
			Schedule: weekdays,
		},
		{
			ID:       uuid.New().String(),
			Name:     "Jonas Weber",
			Email:    "jonas.weber@example.com",
			Timezone: "Europe/Berlin",
			Schedule: weekdays,
		},
		{
			ID:       uuid.New().String(),
			Name:     "Priya Raman",
			Email:    "priya.raman@example.com",
			Timezone: "America/New_York",
			Schedule: weekdays,
		},
	}

	for _, s := range staff {
		if err := insertStaff(ctx, pgClient, &s); err != nil {
			log.Printf("Failed to create staff member %s: %v", s.Name, err)
		}
	}

	// 2. Seed meeting types
	durations := []struct {
		name    string
		minutes int
	}{
		{"Intro Call", 15},
		{"Consultation", 30},
		{"Deep Dive", 60},
	}

	for _, s := range staff {
		for _, d := range durations {
			_, err := pgClient.DB().ExecContext(ctx, `
				INSERT INTO meeting_types (id, staff_id, name, duration_minutes, active)
				VALUES ($1, $2, $3, $4, true)
			`, uuid.New().String(), s.ID, d.name, d.minutes)
			if err != nil {
				log.Printf("Failed to create meeting type %s for %s: %v", d.name, s.Name, err)
			}
		}
	}

	// 3. Seed notification templates
	templates := []struct {
		templateType entities.NotificationType
		subject      string
		body         string
	}{
		{
			entities.NotificationBookingConfirmation,
			"Confirmed: {{meeting_name}} with {{staff_name}}",
			"Hi {{booker_name}},\n\nYour {{meeting_name}} with {{staff_name}} is confirmed for {{scheduled_date}} at {{scheduled_time}} ({{timezone}}).\n{{#if meeting_link}}Join here: {{meeting_link}}\n{{/if}}",
		},
		{
			entities.NotificationRescheduled,
			"Rescheduled: {{meeting_name}} with {{staff_name}}",
			"Hi {{booker_name}},\n\nYour {{meeting_name}} with {{staff_name}} has moved from {{previous_date}} at {{previous_time}} to {{scheduled_date}} at {{scheduled_time}} ({{timezone}}).\n{{#if meeting_link}}Join here: {{meeting_link}}\n{{/if}}",
		},
		{
			entities.NotificationCancellation,
			"Cancelled: {{meeting_name}} with {{staff_name}}",
			"Hi {{booker_name}},\n\nYour {{meeting_name}} with {{staff_name}} on {{scheduled_date}} at {{scheduled_time}} ({{timezone}}) has been cancelled.\n",
		},
		{
			entities.NotificationReminder,
			"Reminder: {{meeting_name}} with {{staff_name}}",
			"Hi {{booker_name}},\n\nThis is a reminder of your {{meeting_name}} with {{staff_name}} on {{scheduled_date}} at {{scheduled_time}} ({{timezone}}).\n{{#if meeting_link}}Join here: {{meeting_link}}\n{{/if}}",
		},
	}

	for _, t := range templates {
		_, err := pgClient.DB().ExecContext(ctx, `
			INSERT INTO notification_templates (id, channel, template_type, subject, body, is_active)
			VALUES ($1, 'email', $2, $3, $4, true)
		`, uuid.New().String(), string(t.templateType), t.subject, t.body)
		if err != nil {
			log.Printf("Failed to create template %s: %v", t.templateType, err)
		}
	}

	log.Println("Seeding complete")
}

func insertStaff(ctx context.Context, pgClient *postgres.Client, s *entities.StaffMember) error {
	schedule, err := json.Marshal(s.Schedule)
	if err != nil {
		return err
	}
	_, err = pgClient.DB().ExecContext(ctx, `
		INSERT INTO staff_members (id, name, email, timezone, calendar_id, schedule)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, s.ID, s.Name, s.Email, s.Timezone, s.CalendarID, schedule)
	return err
}
