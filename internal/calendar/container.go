package calendar

import (
	"gorm.io/gorm"

	"github.com/hivel/calendar-service/internal/config"
	"github.com/hivel/calendar-service/internal/provider"
)

type CalendarContainer struct {
	Handler *Handler
	Service Service
	Syncer  *Syncer
	Events  EventRepository
	States  SyncStateRepository
}

func NewCalendarContainer(db *gorm.DB, settings *config.Settings, tokens TokenSource, policy provider.Policy) *CalendarContainer {
	limiter := NewRateLimiter(RateLimitConfig{
		RequestsPerSecond: settings.CalendarRequestsPerSecond,
		BurstSize:         settings.CalendarBurst,
		MaxPause:          policy.Max,
	})
	service := NewService(NewGoogleAPIFactory(limiter, policy, settings.CalendarPageSize))
	events := NewEventRepository(db)
	states := NewSyncStateRepository(db)
	syncer := NewSyncer(tokens, service, events, states)

	return &CalendarContainer{
		Handler: NewHandler(syncer),
		Service: service,
		Syncer:  syncer,
		Events:  events,
		States:  states,
	}
}
