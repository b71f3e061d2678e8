package calendar

import (
	"context"
	"errors"
	"fmt"

	"github.com/hivel/calendar-service/internal/config"
	"github.com/hivel/calendar-service/internal/provider"
)

type Service interface {
	// ListAccessibleCalendars returns every calendar id visible to the
	// token. A failed page ends the walk; ids gathered so far are returned
	// together with the error.
	ListAccessibleCalendars(ctx context.Context, accessToken string) ([]string, error)
	// FetchEvents pages one calendar's events. Like ListAccessibleCalendars,
	// a failed page returns the events gathered so far and the error.
	FetchEvents(ctx context.Context, accessToken, calendarID string, window Window) ([]Event, error)
	// FetchData gathers the events of every accessible calendar. A failing
	// calendar is logged and skipped.
	FetchData(ctx context.Context, orgID, accessToken string, window Window) ([]Event, error)
}

type service struct {
	newAPI APIFactory
}

func NewService(newAPI APIFactory) Service {
	return &service{newAPI: newAPI}
}

func (s *service) ListAccessibleCalendars(ctx context.Context, accessToken string) ([]string, error) {
	api, err := s.newAPI(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	return listCalendars(ctx, api)
}

func (s *service) FetchEvents(ctx context.Context, accessToken, calendarID string, window Window) ([]Event, error) {
	api, err := s.newAPI(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	return fetchEvents(ctx, api, calendarID, window)
}

func (s *service) FetchData(ctx context.Context, orgID, accessToken string, window Window) ([]Event, error) {
	log := config.WithContext(ctx)

	api, err := s.newAPI(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	calendarIDs, err := listCalendars(ctx, api)
	if err != nil {
		if len(calendarIDs) == 0 && abortsSync(err) {
			return nil, err
		}
		log.WithError(err).Warnf("Calendar list incomplete, continuing with %d calendars", len(calendarIDs))
	}
	log.Infof("Found %d accessible calendars", len(calendarIDs))

	events := make([]Event, 0)
	for _, calendarID := range calendarIDs {
		fetched, err := fetchEvents(ctx, api, calendarID, window)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			log.WithError(err).WithField("calendar_id", calendarID).
				Errorf("Failed to fetch events, keeping %d already fetched", len(fetched))
		}
		for i := range fetched {
			fetched[i].OrgID = orgID
		}
		events = append(events, fetched...)
	}

	log.Infof("Fetched %d total events", len(events))
	return events, nil
}

// abortsSync reports errors that no other calendar could recover from.
func abortsSync(err error) bool {
	return errors.Is(err, provider.ErrUnauthorized) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

func listCalendars(ctx context.Context, api API) ([]string, error) {
	var ids []string
	pageToken := ""
	for {
		page, err := api.ListCalendars(ctx, pageToken)
		if err != nil {
			config.WithContext(ctx).WithError(err).Error("Failed to fetch calendars")
			return ids, fmt.Errorf("list calendars: %w", err)
		}
		for _, entry := range page.Items {
			if entry != nil && entry.Id != "" {
				ids = append(ids, entry.Id)
			}
		}
		if page.NextPageToken == "" {
			return ids, nil
		}
		pageToken = page.NextPageToken
	}
}

func fetchEvents(ctx context.Context, api API, calendarID string, window Window) ([]Event, error) {
	var events []Event
	pageToken := ""
	for {
		page, err := api.ListEvents(ctx, calendarID, window, pageToken)
		if err != nil {
			return events, fmt.Errorf("list events for %s: %w", calendarID, err)
		}
		for _, item := range page.Items {
			if item == nil {
				continue
			}
			events = append(events, NormalizeEvent(item, calendarID))
		}
		if page.NextPageToken == "" {
			return events, nil
		}
		pageToken = page.NextPageToken
	}
}
