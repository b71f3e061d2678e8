package calendar

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/oauth2"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/hivel/calendar-service/internal/provider"
)

const DefaultPageSize int64 = 250

// API is the slice of the Google Calendar API the sync engine needs. One
// value is bound to a single access token.
type API interface {
	ListCalendars(ctx context.Context, pageToken string) (*gcal.CalendarList, error)
	ListEvents(ctx context.Context, calendarID string, window Window, pageToken string) (*gcal.Events, error)
}

type APIFactory func(ctx context.Context, accessToken string) (API, error)

type googleAPI struct {
	svc      *gcal.Service
	limiter  *RateLimiter
	policy   provider.Policy
	pageSize int64
}

// NewGoogleAPIFactory returns a factory building API clients that share the
// limiter. opts are appended after the token source.
func NewGoogleAPIFactory(limiter *RateLimiter, policy provider.Policy, pageSize int64, opts ...option.ClientOption) APIFactory {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return func(ctx context.Context, accessToken string) (API, error) {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"})
		all := append([]option.ClientOption{option.WithTokenSource(ts)}, opts...)

		svc, err := gcal.NewService(ctx, all...)
		if err != nil {
			return nil, fmt.Errorf("create calendar client: %w", err)
		}
		return &googleAPI{
			svc:      svc,
			limiter:  limiter,
			policy:   policy,
			pageSize: pageSize,
		}, nil
	}
}

func (a *googleAPI) ListCalendars(ctx context.Context, pageToken string) (*gcal.CalendarList, error) {
	var out *gcal.CalendarList
	err := a.call(ctx, func(ctx context.Context) error {
		call := a.svc.CalendarList.List().Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		var err error
		out, err = call.Do()
		return err
	})
	return out, err
}

func (a *googleAPI) ListEvents(ctx context.Context, calendarID string, window Window, pageToken string) (*gcal.Events, error) {
	var out *gcal.Events
	err := a.call(ctx, func(ctx context.Context) error {
		call := a.svc.Events.List(calendarID).
			Context(ctx).
			TimeMin(window.Start.UTC().Format(time.RFC3339)).
			TimeMax(window.End.UTC().Format(time.RFC3339)).
			OrderBy("startTime").
			SingleEvents(true).
			TimeZone("UTC").
			MaxResults(a.pageSize)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		var err error
		out, err = call.Do()
		return err
	})
	return out, err
}

func (a *googleAPI) call(ctx context.Context, do func(context.Context) error) error {
	return a.policy.Do(ctx, func(ctx context.Context) error {
		if a.limiter != nil {
			if err := a.limiter.Wait(ctx); err != nil {
				return err
			}
		}
		err := do(ctx)
		if a.limiter != nil {
			a.limiter.Observe(err)
		}
		return err
	})
}
