package calendar

import (
	"context"
	"errors"
	"time"

	"github.com/schedulo/schedulo/internal/domain/entities"
	"github.com/schedulo/schedulo/internal/domain/providers"
)

// CalendarProviderConfig configures calendar providers.
type CalendarProviderConfig struct {
	Provider          string
	AccessToken       string
	AllowMockFallback bool
}

// NewCalendarProvider creates a resilient provider with optional mock fallback.
func NewCalendarProvider(cfg CalendarProviderConfig) providers.CalendarProvider {
	if cfg.Provider == "mock" || cfg.AccessToken == "" {
		// No real provider configured; use mock provider for dev.
		return NewMockAdapter()
	}

	primary := NewGoogleAdapter(cfg.AccessToken)
	fallback := NewMockAdapter()

	return &FallbackProvider{
		primary:       primary,
		fallback:      fallback,
		allowFallback: cfg.AllowMockFallback,
	}
}

// FallbackProvider wraps a primary provider with optional mock fallback.
// Fallback applies to event mutations only. Busy-interval reads never fall
// back: an empty mock answer would let conflicting slots through, so the
// error propagates and the availability read fails instead.
type FallbackProvider struct {
	primary       providers.CalendarProvider
	fallback      providers.CalendarProvider
	allowFallback bool
}

func (p *FallbackProvider) CreateEvent(ctx context.Context, staff *entities.StaffMember, interval entities.Interval, invitee providers.EventInvitee) (string, string, error) {
	if p.primary == nil {
		if p.fallback != nil {
			return p.fallback.CreateEvent(ctx, staff, interval, invitee)
		}
		return "", "", errors.New("calendar provider not configured")
	}

	id, link, err := p.primary.CreateEvent(ctx, staff, interval, invitee)
	if err != nil && p.allowFallback && p.fallback != nil {
		return p.fallback.CreateEvent(ctx, staff, interval, invitee)
	}
	return id, link, err
}

func (p *FallbackProvider) UpdateEventTime(ctx context.Context, staff *entities.StaffMember, eventID string, interval entities.Interval) error {
	if p.primary == nil {
		if p.fallback != nil {
			return p.fallback.UpdateEventTime(ctx, staff, eventID, interval)
		}
		return errors.New("calendar provider not configured")
	}

	err := p.primary.UpdateEventTime(ctx, staff, eventID, interval)
	if err != nil && p.allowFallback && p.fallback != nil {
		return p.fallback.UpdateEventTime(ctx, staff, eventID, interval)
	}
	return err
}

func (p *FallbackProvider) DeleteEvent(ctx context.Context, staff *entities.StaffMember, eventID string) error {
	if p.primary == nil {
		if p.fallback != nil {
			return p.fallback.DeleteEvent(ctx, staff, eventID)
		}
		return errors.New("calendar provider not configured")
	}

	err := p.primary.DeleteEvent(ctx, staff, eventID)
	if err != nil && p.allowFallback && p.fallback != nil {
		return p.fallback.DeleteEvent(ctx, staff, eventID)
	}
	return err
}

func (p *FallbackProvider) ListBusyIntervals(ctx context.Context, staff *entities.StaffMember, from, to time.Time) ([]entities.Interval, error) {
	if p.primary == nil {
		if p.fallback != nil {
			return p.fallback.ListBusyIntervals(ctx, staff, from, to)
		}
		return nil, errors.New("calendar provider not configured")
	}

	return p.primary.ListBusyIntervals(ctx, staff, from, to)
}
