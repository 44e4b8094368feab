package calendar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"

	"github.com/schedulo/schedulo/internal/domain/entities"
	"github.com/schedulo/schedulo/internal/domain/providers"
)

// GoogleAdapter implements CalendarProvider against the Google Calendar
// REST API (v3). All calls run through a circuit breaker so a degraded
// Google API cannot pile up 10s timeouts on every booking request.
type GoogleAdapter struct {
	accessToken string
	client      *http.Client
	baseURL     string
	breaker     *gobreaker.CircuitBreaker
}

// NewGoogleAdapter creates a new Google Calendar adapter
func NewGoogleAdapter(accessToken string) providers.CalendarProvider {
	settings := gobreaker.Settings{
		Name:    "google-calendar",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	}

	return &GoogleAdapter{
		accessToken: accessToken,
		client:      &http.Client{Timeout: 10 * time.Second},
		baseURL:     "https://www.googleapis.com/calendar/v3",
		breaker:     gobreaker.NewCircuitBreaker(settings),
	}
}

type googleEventTime struct {
	DateTime string `json:"dateTime"`
	TimeZone string `json:"timeZone,omitempty"`
}

type googleEvent struct {
	ID          string          `json:"id,omitempty"`
	Summary     string          `json:"summary,omitempty"`
	Description string          `json:"description,omitempty"`
	Start       googleEventTime `json:"start"`
	End         googleEventTime `json:"end"`
	Attendees   []struct {
		Email       string `json:"email"`
		DisplayName string `json:"displayName,omitempty"`
	} `json:"attendees,omitempty"`
	ConferenceData *struct {
		CreateRequest *struct {
			RequestID string `json:"requestId"`
		} `json:"createRequest,omitempty"`
	} `json:"conferenceData,omitempty"`
	HangoutLink string `json:"hangoutLink,omitempty"`
}

// CreateEvent creates a calendar event with the invitee attached and a
// Meet link requested.
func (a *GoogleAdapter) CreateEvent(ctx context.Context, staff *entities.StaffMember, interval entities.Interval, invitee providers.EventInvitee) (string, string, error) {
	payload := map[string]interface{}{
		"summary": fmt.Sprintf("Meeting with %s", invitee.Name),
		"start": googleEventTime{
			DateTime: interval.Start.Format(time.RFC3339),
			TimeZone: staff.Timezone,
		},
		"end": googleEventTime{
			DateTime: interval.End.Format(time.RFC3339),
			TimeZone: staff.Timezone,
		},
		"attendees": []map[string]string{
			{"email": invitee.Email, "displayName": invitee.Name},
		},
		"conferenceData": map[string]interface{}{
			"createRequest": map[string]string{
				"requestId": uuid.New().String(),
			},
		},
	}

	endpoint := fmt.Sprintf("%s/calendars/%s/events?conferenceDataVersion=1",
		a.baseURL, url.PathEscape(a.calendarID(staff)))

	var event googleEvent
	if err := a.doJSON(ctx, http.MethodPost, endpoint, payload, &event); err != nil {
		return "", "", err
	}

	return event.ID, event.HangoutLink, nil
}

// UpdateEventTime moves an existing event to a new interval
func (a *GoogleAdapter) UpdateEventTime(ctx context.Context, staff *entities.StaffMember, eventID string, interval entities.Interval) error {
	payload := map[string]interface{}{
		"start": googleEventTime{
			DateTime: interval.Start.Format(time.RFC3339),
			TimeZone: staff.Timezone,
		},
		"end": googleEventTime{
			DateTime: interval.End.Format(time.RFC3339),
			TimeZone: staff.Timezone,
		},
	}

	endpoint := fmt.Sprintf("%s/calendars/%s/events/%s",
		a.baseURL, url.PathEscape(a.calendarID(staff)), url.PathEscape(eventID))

	return a.doJSON(ctx, http.MethodPatch, endpoint, payload, nil)
}

// DeleteEvent removes an event from the staff member's calendar
func (a *GoogleAdapter) DeleteEvent(ctx context.Context, staff *entities.StaffMember, eventID string) error {
	endpoint := fmt.Sprintf("%s/calendars/%s/events/%s",
		a.baseURL, url.PathEscape(a.calendarID(staff)), url.PathEscape(eventID))

	_, err := a.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
		if err != nil {
			return nil, err
		}
		a.addHeaders(req)

		resp, err := a.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		// 404/410 means the event is already gone, which is the desired
		// end state.
		if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone {
			return nil, nil
		}
		if resp.StatusCode >= 300 {
			return nil, fmt.Errorf("google calendar api error: status %d", resp.StatusCode)
		}
		return nil, nil
	})
	return err
}

// ListBusyIntervals queries the freeBusy endpoint for the staff calendar.
func (a *GoogleAdapter) ListBusyIntervals(ctx context.Context, staff *entities.StaffMember, from, to time.Time) ([]entities.Interval, error) {
	calendarID := a.calendarID(staff)
	payload := map[string]interface{}{
		"timeMin": from.UTC().Format(time.RFC3339),
		"timeMax": to.UTC().Format(time.RFC3339),
		"items":   []map[string]string{{"id": calendarID}},
	}

	var result struct {
		Calendars map[string]struct {
			Busy []struct {
				Start time.Time `json:"start"`
				End   time.Time `json:"end"`
			} `json:"busy"`
			Errors []struct {
				Reason string `json:"reason"`
			} `json:"errors"`
		} `json:"calendars"`
	}

	endpoint := fmt.Sprintf("%s/freeBusy", a.baseURL)
	if err := a.doJSON(ctx, http.MethodPost, endpoint, payload, &result); err != nil {
		return nil, err
	}

	cal, ok := result.Calendars[calendarID]
	if !ok {
		return nil, fmt.Errorf("freebusy response missing calendar %s", calendarID)
	}
	if len(cal.Errors) > 0 {
		return nil, fmt.Errorf("freebusy lookup failed: %s", cal.Errors[0].Reason)
	}

	intervals := make([]entities.Interval, 0, len(cal.Busy))
	for _, b := range cal.Busy {
		intervals = append(intervals, entities.Interval{Start: b.Start, End: b.End})
	}
	return intervals, nil
}

func (a *GoogleAdapter) calendarID(staff *entities.StaffMember) string {
	if staff.CalendarID != "" {
		return staff.CalendarID
	}
	return staff.Email
}

func (a *GoogleAdapter) doJSON(ctx context.Context, method, endpoint string, payload interface{}, out interface{}) error {
	_, err := a.breaker.Execute(func() (interface{}, error) {
		var body *bytes.Buffer
		if payload != nil {
			data, err := json.Marshal(payload)
			if err != nil {
				return nil, err
			}
			body = bytes.NewBuffer(data)
		} else {
			body = bytes.NewBuffer(nil)
		}

		req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
		if err != nil {
			return nil, err
		}
		a.addHeaders(req)

		resp, err := a.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 300 {
			return nil, fmt.Errorf("google calendar api error: status %d", resp.StatusCode)
		}

		if out == nil {
			return nil, nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return nil, fmt.Errorf("failed to decode response: %w", err)
		}
		return nil, nil
	})
	return err
}

func (a *GoogleAdapter) addHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+a.accessToken)
	req.Header.Set("Content-Type", "application/json")
}
