package calendar_test

import (
	"context"
	"errors"
	"path/filepath"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/hivel/calendar-service/internal/calendar"
)

var errProvider = &googleapi.Error{Code: 503, Message: "backend error"}

// fakeAPI serves canned pages. Page tokens are the index of the next page.
type fakeAPI struct {
	mu sync.Mutex

	calendarPages []*gcal.CalendarList
	calendarFail  map[int]error

	eventPages map[string][]*gcal.Events
	eventFail  map[string]map[int]error

	eventCalls []string
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		calendarFail: map[int]error{},
		eventPages:   map[string][]*gcal.Events{},
		eventFail:    map[string]map[int]error{},
	}
}

func (f *fakeAPI) withCalendars(pages ...[]string) *fakeAPI {
	for i, ids := range pages {
		page := &gcal.CalendarList{}
		for _, id := range ids {
			page.Items = append(page.Items, &gcal.CalendarListEntry{Id: id})
		}
		if i < len(pages)-1 {
			page.NextPageToken = strconv.Itoa(i + 1)
		}
		f.calendarPages = append(f.calendarPages, page)
	}
	return f
}

func (f *fakeAPI) withEvents(calendarID string, pages ...[]*gcal.Event) *fakeAPI {
	for i, items := range pages {
		page := &gcal.Events{Items: items}
		if i < len(pages)-1 {
			page.NextPageToken = strconv.Itoa(i + 1)
		}
		f.eventPages[calendarID] = append(f.eventPages[calendarID], page)
	}
	return f
}

func (f *fakeAPI) failEvents(calendarID string, page int, err error) *fakeAPI {
	if f.eventFail[calendarID] == nil {
		f.eventFail[calendarID] = map[int]error{}
	}
	f.eventFail[calendarID][page] = err
	return f
}

func pageIndex(token string) int {
	if token == "" {
		return 0
	}
	n, _ := strconv.Atoi(token)
	return n
}

func (f *fakeAPI) ListCalendars(ctx context.Context, pageToken string) (*gcal.CalendarList, error) {
	idx := pageIndex(pageToken)
	if err, ok := f.calendarFail[idx]; ok {
		return nil, err
	}
	if idx >= len(f.calendarPages) {
		return &gcal.CalendarList{}, nil
	}
	return f.calendarPages[idx], nil
}

func (f *fakeAPI) ListEvents(ctx context.Context, calendarID string, window calendar.Window, pageToken string) (*gcal.Events, error) {
	f.mu.Lock()
	f.eventCalls = append(f.eventCalls, calendarID)
	f.mu.Unlock()

	idx := pageIndex(pageToken)
	if err, ok := f.eventFail[calendarID][idx]; ok {
		return nil, err
	}
	pages := f.eventPages[calendarID]
	if idx >= len(pages) {
		return &gcal.Events{}, nil
	}
	return pages[idx], nil
}

// factory records every access token it is asked to bind.
type factory struct {
	api    *fakeAPI
	tokens []string
	err    error
}

func (f *factory) New(ctx context.Context, accessToken string) (calendar.API, error) {
	f.tokens = append(f.tokens, accessToken)
	if f.err != nil {
		return nil, f.err
	}
	return f.api, nil
}

func event(id, summary string) *gcal.Event {
	return &gcal.Event{
		Id:      id,
		Summary: summary,
		Start:   &gcal.EventDateTime{DateTime: "2026-03-01T10:00:00Z"},
		End:     &gcal.EventDateTime{DateTime: "2026-03-01T11:00:00Z"},
	}
}

func eventIDs(events []calendar.Event) []string {
	ids := make([]string, 0, len(events))
	for _, e := range events {
		ids = append(ids, e.ExternalEventID)
	}
	return ids
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "calendar.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&calendar.StoredEvent{},
		&calendar.EventAuthor{},
		&calendar.SyncState{},
	))
	return db
}

var errBoom = errors.New("boom")
