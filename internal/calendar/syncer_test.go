package calendar_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gcal "google.golang.org/api/calendar/v3"

	"github.com/hivel/calendar-service/internal/calendar"
	"github.com/hivel/calendar-service/internal/config"
	"github.com/hivel/calendar-service/internal/credential"
	"github.com/hivel/calendar-service/internal/oauth"
	"github.com/hivel/calendar-service/internal/provider"
)

type stubTokens struct {
	token string
	err   error
	calls int
}

func (s *stubTokens) GetValidAccessToken(ctx context.Context, orgID string) (string, error) {
	s.calls++
	return s.token, s.err
}

type stubRefresher struct {
	calls int
	tok   *oauth.Token
}

func (s *stubRefresher) Refresh(ctx context.Context, refreshToken string) (*oauth.Token, error) {
	s.calls++
	return s.tok, nil
}

func TestSyncNotIntegrated(t *testing.T) {
	db := newTestDB(t)
	f := &factory{api: newFakeAPI()}
	tokens := &stubTokens{err: credential.ErrNotIntegrated}
	syncer := calendar.NewSyncer(tokens, calendar.NewService(f.New),
		calendar.NewEventRepository(db), calendar.NewSyncStateRepository(db))

	_, err := syncer.Sync(context.Background(), "42", testWindow, false)

	assert.ErrorIs(t, err, credential.ErrNotIntegrated)
	assert.Empty(t, f.tokens, "no provider client should be built")

	state, err := calendar.NewSyncStateRepository(db).Get(context.Background(), "42")
	require.NoError(t, err)
	assert.Nil(t, state)
}

func TestSyncInvalidWindow(t *testing.T) {
	tokens := &stubTokens{token: "t"}
	syncer := calendar.NewSyncer(tokens, calendar.NewService((&factory{api: newFakeAPI()}).New), nil, nil)

	_, err := syncer.Sync(context.Background(), "42", calendar.Window{Start: testWindow.End, End: testWindow.Start}, false)
	assert.ErrorIs(t, err, calendar.ErrInvalidWindow)
	assert.Zero(t, tokens.calls)
}

func TestSyncRevokedGrantRecordsError(t *testing.T) {
	db := newTestDB(t)
	states := calendar.NewSyncStateRepository(db)
	syncer := calendar.NewSyncer(&stubTokens{err: provider.ErrInvalidGrant},
		calendar.NewService((&factory{api: newFakeAPI()}).New), nil, states)

	_, err := syncer.Sync(context.Background(), "42", testWindow, false)
	assert.ErrorIs(t, err, provider.ErrInvalidGrant)

	state, err := states.Get(context.Background(), "42")
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, calendar.SyncStatusError, state.Status)
}

func TestSyncPersistsAndRecordsState(t *testing.T) {
	db := newTestDB(t)
	api := newFakeAPI().
		withCalendars([]string{"alice@example.com"}).
		withEvents("alice@example.com", []*gcal.Event{event("e1", "Standup"), event("e2", "")})
	events := calendar.NewEventRepository(db)
	states := calendar.NewSyncStateRepository(db)
	syncer := calendar.NewSyncer(&stubTokens{token: "t"}, calendar.NewService((&factory{api: api}).New), events, states)

	result, err := syncer.Sync(context.Background(), "42", testWindow, true)
	require.NoError(t, err)

	assert.Equal(t, "42", result.OrgID)
	assert.Equal(t, 2, result.Count)
	assert.True(t, result.Persisted)
	assert.Equal(t, 2, result.Saved)
	assert.Equal(t, "2026-02-01T00:00:00Z", result.StartDate)

	stored, err := syncer.StoredEvents(context.Background(), "42")
	require.NoError(t, err)
	assert.Len(t, stored, 2)

	other, err := syncer.StoredEvents(context.Background(), "7")
	require.NoError(t, err)
	assert.NotNil(t, other)
	assert.Empty(t, other)

	state, err := states.Get(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, calendar.SyncStatusIdle, state.Status)
	assert.Equal(t, 2, state.LastEventCount)
}

func TestSyncWithoutPersistWritesNoEvents(t *testing.T) {
	db := newTestDB(t)
	api := newFakeAPI().
		withCalendars([]string{"primary"}).
		withEvents("primary", []*gcal.Event{event("e1", "Standup")})
	events := calendar.NewEventRepository(db)
	syncer := calendar.NewSyncer(&stubTokens{token: "t"}, calendar.NewService((&factory{api: api}).New), events, nil)

	result, err := syncer.Sync(context.Background(), "42", testWindow, false)
	require.NoError(t, err)
	assert.False(t, result.Persisted)

	stored, err := events.ListByOrganization(context.Background(), "42")
	require.NoError(t, err)
	assert.Empty(t, stored)
}

// An organization whose access token expires in two minutes gets exactly one
// refresh, and the calendar API sees the refreshed token.
func TestSyncRefreshesNearlyExpiredCredential(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.AutoMigrate(&credential.IntegrationCredential{}))
	cipher, err := config.NewCipher("01234567890123456789012345678901")
	require.NoError(t, err)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	repo := credential.NewRepository(db, cipher)
	require.NoError(t, repo.Save(context.Background(), &credential.Credential{
		OrganizationID: "7",
		AccessToken:    "stale",
		RefreshToken:   "refresh-7",
		IssuedAt:       now.Add(-58 * time.Minute),
		TTLMinutes:     60,
	}))

	refresher := &stubRefresher{tok: &oauth.Token{AccessToken: "fresh", Expiry: now.Add(time.Hour)}}
	manager := credential.NewTokenManager(repo, refresher, credential.WithClock(func() time.Time { return now }))

	api := newFakeAPI().
		withCalendars([]string{"primary"}).
		withEvents("primary", []*gcal.Event{event("e1", "Review")})
	f := &factory{api: api}
	syncer := calendar.NewSyncer(manager, calendar.NewService(f.New), nil, nil)

	result, err := syncer.Sync(context.Background(), "7", testWindow, false)
	require.NoError(t, err)

	assert.Equal(t, 1, refresher.calls)
	assert.Equal(t, []string{"fresh"}, f.tokens)
	assert.Equal(t, []string{"e1"}, eventIDs(result.Events))

	cred, err := repo.Find(context.Background(), "7")
	require.NoError(t, err)
	assert.WithinDuration(t, now.Add(time.Hour), cred.ExpiresAt(), time.Minute)
}

func TestCalendars(t *testing.T) {
	t.Run("ReturnsIDs", func(t *testing.T) {
		api := newFakeAPI().withCalendars([]string{"a", "b"})
		syncer := calendar.NewSyncer(&stubTokens{token: "t"}, calendar.NewService((&factory{api: api}).New), nil, nil)

		ids, err := syncer.Calendars(context.Background(), "42")
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, ids)
	})

	t.Run("EmptyIsNotNil", func(t *testing.T) {
		syncer := calendar.NewSyncer(&stubTokens{token: "t"}, calendar.NewService((&factory{api: newFakeAPI()}).New), nil, nil)

		ids, err := syncer.Calendars(context.Background(), "42")
		require.NoError(t, err)
		assert.NotNil(t, ids)
		assert.Empty(t, ids)
	})

	t.Run("NotIntegrated", func(t *testing.T) {
		syncer := calendar.NewSyncer(&stubTokens{err: credential.ErrNotIntegrated}, calendar.NewService((&factory{api: newFakeAPI()}).New), nil, nil)

		_, err := syncer.Calendars(context.Background(), "42")
		assert.ErrorIs(t, err, credential.ErrNotIntegrated)
	})
}

func TestStoredEventsWithoutRepository(t *testing.T) {
	syncer := calendar.NewSyncer(&stubTokens{token: "t"}, calendar.NewService((&factory{api: newFakeAPI()}).New), nil, nil)

	stored, err := syncer.StoredEvents(context.Background(), "42")
	require.NoError(t, err)
	assert.NotNil(t, stored)
	assert.Empty(t, stored)
}
