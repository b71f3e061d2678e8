package calendar

import (
	"context"
	"errors"

	"github.com/hivel/calendar-service/internal/config"
	"github.com/hivel/calendar-service/internal/credential"
)

type TokenSource interface {
	GetValidAccessToken(ctx context.Context, orgID string) (string, error)
}

type SyncResult struct {
	Status    string  `json:"status"`
	OrgID     string  `json:"org_id"`
	StartDate string  `json:"start_date"`
	EndDate   string  `json:"end_date"`
	Count     int     `json:"events_count"`
	Events    []Event `json:"events"`
	Persisted bool    `json:"persisted"`
	Saved     int     `json:"saved,omitempty"`
}

// Syncer ties a tenant's credential to the sync engine. Every call reads the
// credential afresh through the token source.
type Syncer struct {
	tokens  TokenSource
	service Service
	events  EventRepository
	states  SyncStateRepository
}

func NewSyncer(tokens TokenSource, service Service, events EventRepository, states SyncStateRepository) *Syncer {
	return &Syncer{
		tokens:  tokens,
		service: service,
		events:  events,
		states:  states,
	}
}

func (s *Syncer) Sync(ctx context.Context, orgID string, window Window, persist bool) (*SyncResult, error) {
	ctx = config.WithOrgID(ctx, orgID)
	log := config.WithContext(ctx)

	if err := window.Validate(); err != nil {
		return nil, err
	}

	accessToken, err := s.tokens.GetValidAccessToken(ctx, orgID)
	if err != nil {
		log.WithError(err).Warn("No usable credential for sync")
		if !errors.Is(err, credential.ErrNotIntegrated) {
			s.markError(ctx, orgID, err)
		}
		return nil, err
	}

	s.markSyncing(ctx, orgID)

	events, err := s.service.FetchData(ctx, orgID, accessToken, window)
	if err != nil {
		log.WithError(err).Error("Calendar sync failed")
		s.markError(ctx, orgID, err)
		return nil, err
	}

	result := &SyncResult{
		Status:    "success",
		OrgID:     orgID,
		StartDate: window.Start.UTC().Format(timeLayout),
		EndDate:   window.End.UTC().Format(timeLayout),
		Count:     len(events),
		Events:    events,
	}

	if persist && s.events != nil {
		saved, err := s.events.SaveEvents(ctx, orgID, events)
		if err != nil {
			log.WithError(err).Warnf("Stored %d of %d events", saved, len(events))
		}
		result.Persisted = true
		result.Saved = saved
	}

	s.markIdle(ctx, orgID, len(events))
	log.WithField("count", len(events)).Info("Calendar sync finished")
	return result, nil
}

func (s *Syncer) Calendars(ctx context.Context, orgID string) ([]string, error) {
	ctx = config.WithOrgID(ctx, orgID)

	accessToken, err := s.tokens.GetValidAccessToken(ctx, orgID)
	if err != nil {
		return nil, err
	}

	ids, err := s.service.ListAccessibleCalendars(ctx, accessToken)
	if err != nil && len(ids) == 0 {
		return nil, err
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

// StoredEvents returns the events kept by earlier persisted syncs.
func (s *Syncer) StoredEvents(ctx context.Context, orgID string) ([]StoredEvent, error) {
	if s.events == nil {
		return []StoredEvent{}, nil
	}
	events, err := s.events.ListByOrganization(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if events == nil {
		events = []StoredEvent{}
	}
	return events, nil
}

func (s *Syncer) Status(ctx context.Context, orgID string) (*SyncState, error) {
	if s.states == nil {
		return nil, nil
	}
	return s.states.Get(ctx, orgID)
}

func (s *Syncer) markSyncing(ctx context.Context, orgID string) {
	if s.states == nil {
		return
	}
	if err := s.states.MarkSyncing(ctx, orgID); err != nil {
		config.WithContext(ctx).WithError(err).Warn("Failed to record sync start")
	}
}

func (s *Syncer) markIdle(ctx context.Context, orgID string, count int) {
	if s.states == nil {
		return
	}
	if err := s.states.MarkIdle(ctx, orgID, count); err != nil {
		config.WithContext(ctx).WithError(err).Warn("Failed to record sync completion")
	}
}

func (s *Syncer) markError(ctx context.Context, orgID string, cause error) {
	if s.states == nil {
		return
	}
	if err := s.states.MarkError(ctx, orgID, cause); err != nil {
		config.WithContext(ctx).WithError(err).Warn("Failed to record sync failure")
	}
}
