package calsync

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"planner/core/metrics"

	gobreaker "github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// ErrEventGone is returned when the remote event no longer exists.
var ErrEventGone = errors.New("calsync: remote event not found")

// Calendar is the external calendar a series is pushed to.
type Calendar interface {
	// InsertEvent creates ev and returns its remote id.
	InsertEvent(ctx context.Context, calendarID string, ev *calendar.Event) (string, error)
	UpdateEvent(ctx context.Context, calendarID, eventID string, ev *calendar.Event) error
	DeleteEvent(ctx context.Context, calendarID, eventID string) error
}

// GoogleSettings configures the circuit breaker and the request rate of Google calls.
type GoogleSettings struct {
	// MaxFailures opens the breaker after this many consecutive failures.
	MaxFailures uint32
	// Timeout is how long the breaker stays open.
	Timeout time.Duration
	// RequestsPerSecond throttles calls. Zero means unlimited.
	RequestsPerSecond float64
	Burst             int
}

// GoogleCalendar implements Calendar on the Google Calendar API.
type GoogleCalendar struct {
	service *calendar.Service
	breaker *gobreaker.CircuitBreaker[any]
	limiter *rate.Limiter
}

// NewGoogleCalendar creates a client using httpClient for transport and auth.
// An empty endpoint uses the public API.
func NewGoogleCalendar(ctx context.Context, httpClient *http.Client, endpoint string, bs GoogleSettings, logger *zap.Logger) (*GoogleCalendar, error) {
	opts := []option.ClientOption{option.WithHTTPClient(httpClient)}
	if endpoint != "" {
		opts = append(opts, option.WithEndpoint(endpoint))
	}
	service, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}

	if bs.MaxFailures == 0 {
		bs.MaxFailures = 5
	}
	if bs.Timeout <= 0 {
		bs.Timeout = time.Minute
	}
	metrics.BreakerState.WithLabelValues("google_calendar").Set(0)
	breaker := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        "google_calendar",
		MaxRequests: 1,
		Timeout:     bs.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= bs.MaxFailures
		},
		IsSuccessful: func(err error) bool {
			// A missing event is an answer, not an outage.
			return err == nil || errors.Is(err, ErrEventGone)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.BreakerState.WithLabelValues(name).Set(float64(to))
			logger.Warn("Circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	limit := rate.Inf
	if bs.RequestsPerSecond > 0 {
		limit = rate.Limit(bs.RequestsPerSecond)
	}
	if bs.Burst < 1 {
		bs.Burst = 1
	}

	return &GoogleCalendar{service: service, breaker: breaker, limiter: rate.NewLimiter(limit, bs.Burst)}, nil
}

// State returns the breaker state.
func (g *GoogleCalendar) State() gobreaker.State {
	return g.breaker.State()
}

// InsertEvent inserts ev without notifying attendees.
func (g *GoogleCalendar) InsertEvent(ctx context.Context, calendarID string, ev *calendar.Event) (string, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return "", err
	}
	out, err := g.breaker.Execute(func() (any, error) {
		created, err := g.service.Events.Insert(calendarID, ev).
			SendUpdates("none").
			Context(ctx).
			Do()
		if err != nil {
			return nil, fmt.Errorf("failed to insert event: %w", err)
		}
		return created.Id, nil
	})
	if err != nil {
		return "", err
	}
	return out.(string), nil
}

// UpdateEvent replaces the event eventID with ev.
func (g *GoogleCalendar) UpdateEvent(ctx context.Context, calendarID, eventID string, ev *calendar.Event) error {
	if err := g.limiter.Wait(ctx); err != nil {
		return err
	}
	_, err := g.breaker.Execute(func() (any, error) {
		_, err := g.service.Events.Update(calendarID, eventID, ev).
			SendUpdates("none").
			Context(ctx).
			Do()
		return nil, classifyGoogle("update", err)
	})
	return err
}

// DeleteEvent removes the event eventID.
func (g *GoogleCalendar) DeleteEvent(ctx context.Context, calendarID, eventID string) error {
	if err := g.limiter.Wait(ctx); err != nil {
		return err
	}
	_, err := g.breaker.Execute(func() (any, error) {
		err := g.service.Events.Delete(calendarID, eventID).
			SendUpdates("none").
			Context(ctx).
			Do()
		return nil, classifyGoogle("delete", err)
	})
	return err
}

func classifyGoogle(op string, err error) error {
	if err == nil {
		return nil
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && (apiErr.Code == http.StatusNotFound || apiErr.Code == http.StatusGone) {
		return fmt.Errorf("%w: %s", ErrEventGone, apiErr.Message)
	}
	return fmt.Errorf("failed to %s event: %w", op, err)
}
