package calendar_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/hivel/calendar-service/internal/calendar"
	"github.com/hivel/calendar-service/internal/provider"
)

func fastPolicy() provider.Policy {
	return provider.Policy{MaxAttempts: 3, Initial: time.Millisecond, Max: time.Millisecond, Multiplier: 1}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func newGoogleFactory(srv *httptest.Server) calendar.APIFactory {
	limiter := calendar.NewRateLimiter(calendar.RateLimitConfig{RequestsPerSecond: 1000, BurstSize: 100})
	return calendar.NewGoogleAPIFactory(limiter, fastPolicy(), 50,
		option.WithEndpoint(srv.URL+"/calendar/v3/"),
		option.WithHTTPClient(srv.Client()),
	)
}

func TestGoogleAPIListEvents(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/calendar/v3/calendars/primary/events", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "startTime", q.Get("orderBy"))
		assert.Equal(t, "true", q.Get("singleEvents"))
		assert.Equal(t, "UTC", q.Get("timeZone"))
		assert.Equal(t, "50", q.Get("maxResults"))
		assert.Equal(t, "2026-02-01T00:00:00Z", q.Get("timeMin"))
		assert.Equal(t, "2026-03-01T23:59:59Z", q.Get("timeMax"))

		switch atomic.AddInt32(&calls, 1) {
		case 1:
			assert.Empty(t, q.Get("pageToken"))
			writeJSON(w, map[string]interface{}{
				"items":         []map[string]interface{}{{"id": "e1", "summary": "One"}},
				"nextPageToken": "page-2",
			})
		default:
			assert.Equal(t, "page-2", q.Get("pageToken"))
			writeJSON(w, map[string]interface{}{
				"items": []map[string]interface{}{{"id": "e2"}},
			})
		}
	}))
	defer srv.Close()

	svc := calendar.NewService(newGoogleFactory(srv))
	events, err := svc.FetchEvents(context.Background(), "token", "primary", testWindow)
	require.NoError(t, err)

	assert.Equal(t, []string{"e1", "e2"}, eventIDs(events))
	assert.Equal(t, "No Title", events[1].Title)
}

func TestGoogleAPIRetriesTransientErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/calendar/v3/users/me/calendarList", r.URL.Path)
		if atomic.AddInt32(&calls, 1) == 1 {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"error":{"code":503,"message":"backend error"}}`))
			return
		}
		writeJSON(w, map[string]interface{}{
			"items": []map[string]interface{}{{"id": "primary"}, {"id": "team@example.com"}},
		})
	}))
	defer srv.Close()

	svc := calendar.NewService(newGoogleFactory(srv))
	ids, err := svc.ListAccessibleCalendars(context.Background(), "token")
	require.NoError(t, err)
	assert.Equal(t, []string{"primary", "team@example.com"}, ids)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestGoogleAPIUnauthorizedNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"code":401,"message":"invalid credentials"}}`))
	}))
	defer srv.Close()

	svc := calendar.NewService(newGoogleFactory(srv))
	_, err := svc.FetchData(context.Background(), "42", "token", testWindow)
	assert.ErrorIs(t, err, provider.ErrUnauthorized)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestRateLimiterObserveRetryAfter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"code":429,"message":"rate limited"}}`))
	}))
	defer srv.Close()

	limiter := calendar.NewRateLimiter(calendar.RateLimitConfig{RequestsPerSecond: 1000, BurstSize: 100})
	single := provider.Policy{MaxAttempts: 1}
	factory := calendar.NewGoogleAPIFactory(limiter, single, 10,
		option.WithEndpoint(srv.URL+"/calendar/v3/"),
		option.WithHTTPClient(srv.Client()),
	)

	api, err := factory(context.Background(), "token")
	require.NoError(t, err)
	_, err = api.ListCalendars(context.Background(), "")
	assert.ErrorIs(t, err, provider.ErrProviderUnavailable)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, limiter.Wait(ctx), context.DeadlineExceeded)
}

func TestRateLimiterCapsRetryAfter(t *testing.T) {
	limiter := calendar.NewRateLimiter(calendar.RateLimitConfig{
		RequestsPerSecond: 1000,
		BurstSize:         100,
		MaxPause:          20 * time.Millisecond,
	})
	limiter.Observe(&googleapi.Error{
		Code:   http.StatusTooManyRequests,
		Header: http.Header{"Retry-After": []string{"3600"}},
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	start := time.Now()
	require.NoError(t, limiter.Wait(ctx))
	assert.GreaterOrEqual(t, time.Since(start), 15*time.Millisecond)
}
