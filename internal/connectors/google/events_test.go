package google

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nendocal/calsync/internal/core/domain"
	"github.com/nendocal/calsync/internal/core/ports/driven"
)

func TestFetchEvents_WindowedPagination(t *testing.T) {
	var requests []map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/calendars/cal1/events", r.URL.Path)
		q := r.URL.Query()
		requests = append(requests, map[string]string{
			"timeMin":      q.Get("timeMin"),
			"timeMax":      q.Get("timeMax"),
			"orderBy":      q.Get("orderBy"),
			"singleEvents": q.Get("singleEvents"),
			"showDeleted":  q.Get("showDeleted"),
			"pageToken":    q.Get("pageToken"),
			"syncToken":    q.Get("syncToken"),
		})

		w.Header().Set("Content-Type", "application/json")
		if q.Get("pageToken") == "" {
			w.Write([]byte(`{
				"items": [
					{"id": "e1", "summary": "Opening ceremony", "status": "confirmed",
					 "start": {"date": "2024-04-08"}, "end": {"date": "2024-04-09"}},
					{"id": "e2", "status": "cancelled"}
				],
				"nextPageToken": "page-2"
			}`))
			return
		}
		w.Write([]byte(`{
			"items": [
				{"id": "e3", "summary": "Staff meeting", "status": "confirmed",
				 "start": {"dateTime": "2024-04-10T09:00:00+09:00", "timeZone": "Asia/Tokyo"},
				 "end": {"dateTime": "2024-04-10T10:00:00+09:00", "timeZone": "Asia/Tokyo"}}
			],
			"nextSyncToken": "sync-token-1"
		}`))
	}))
	defer server.Close()

	provider := NewProvider(Config{APIEndpoint: server.URL + "/"})

	window := domain.TimeRange{
		Start: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 2, 28, 23, 59, 59, 0, time.UTC),
	}
	result, err := provider.FetchEvents(context.Background(), driven.EventFetchRequest{
		AccessToken: "access-1",
		CalendarID:  "cal1",
		Window:      window,
	})
	require.NoError(t, err)
	require.Len(t, requests, 2)

	first := requests[0]
	assert.Equal(t, "2024-01-01T00:00:00Z", first["timeMin"])
	assert.Equal(t, "updated", first["orderBy"])
	assert.Equal(t, "true", first["singleEvents"])
	assert.Equal(t, "true", first["showDeleted"])
	assert.Empty(t, first["syncToken"])
	assert.Equal(t, "page-2", requests[1]["pageToken"])

	require.Len(t, result.Events, 2)
	assert.Equal(t, "cal1__e1", result.Events[0].UID)
	assert.Equal(t, "cal1__e3", result.Events[1].UID)
	assert.Equal(t, []string{"e2"}, result.CancelledIDs)
	assert.Equal(t, "sync-token-1", result.NextSyncToken)
	assert.False(t, result.ResetRequired)
}

func TestFetchEvents_SyncTokenOmitsWindow(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "sync-token-1", q.Get("syncToken"))
		// A token-driven request must not constrain or order the range.
		assert.Empty(t, q.Get("timeMin"))
		assert.Empty(t, q.Get("timeMax"))
		assert.Empty(t, q.Get("orderBy"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"items": [], "nextSyncToken": "sync-token-2"}`))
	}))
	defer server.Close()

	provider := NewProvider(Config{APIEndpoint: server.URL + "/"})

	result, err := provider.FetchEvents(context.Background(), driven.EventFetchRequest{
		AccessToken: "access-1",
		CalendarID:  "cal1",
		SyncToken:   "sync-token-1",
		Window: domain.TimeRange{
			Start: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			End:   time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC),
		},
	})
	require.NoError(t, err)
	assert.Empty(t, result.Events)
	assert.Equal(t, "sync-token-2", result.NextSyncToken)
}

func TestFetchEvents_ExpiredSyncToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusGone)
		w.Write([]byte(`{"error": {"code": 410, "message": "Sync token is no longer valid, a full sync is required."}}`))
	}))
	defer server.Close()

	provider := NewProvider(Config{APIEndpoint: server.URL + "/"})

	result, err := provider.FetchEvents(context.Background(), driven.EventFetchRequest{
		AccessToken: "access-1",
		CalendarID:  "cal1",
		SyncToken:   "stale-token",
	})
	require.NoError(t, err, "an expired token is a signal, not a failure")
	assert.True(t, result.ResetRequired)
	assert.Empty(t, result.Events)
	assert.Empty(t, result.NextSyncToken)
}

func TestFetchEvents_WindowedGoneIsAFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusGone)
		w.Write([]byte(`{"error": {"code": 410, "message": "Gone"}}`))
	}))
	defer server.Close()

	provider := NewProvider(Config{APIEndpoint: server.URL + "/"})

	// No sync token to invalidate: treating this as a reset would make
	// the caller reconcile against an empty fetch and drop every stored
	// event for the calendar.
	_, err := provider.FetchEvents(context.Background(), driven.EventFetchRequest{
		AccessToken: "access-1",
		CalendarID:  "cal1",
		Window: domain.TimeRange{
			Start: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			End:   time.Date(2025, 2, 28, 23, 59, 59, 0, time.UTC),
		},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrProviderRequest)
}

func TestFetchEvents_RetriesAfterRateLimit(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		if calls == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error": {"code": 429, "message": "Rate Limit Exceeded"}}`))
			return
		}
		w.Write([]byte(`{
			"items": [
				{"id": "e1", "summary": "Standup", "status": "confirmed",
				 "start": {"date": "2024-04-08"}, "end": {"date": "2024-04-09"}}
			],
			"nextSyncToken": "sync-token-3"
		}`))
	}))
	defer server.Close()

	provider := NewProvider(Config{APIEndpoint: server.URL + "/"})

	result, err := provider.FetchEvents(context.Background(), driven.EventFetchRequest{
		AccessToken: "access-1",
		CalendarID:  "cal1",
		SyncToken:   "sync-token-2",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	require.Len(t, result.Events, 1)
	assert.Equal(t, "sync-token-3", result.NextSyncToken)
}

func TestFetchEvents_Unauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error": {"code": 401, "message": "Invalid Credentials"}}`))
	}))
	defer server.Close()

	provider := NewProvider(Config{APIEndpoint: server.URL + "/"})

	_, err := provider.FetchEvents(context.Background(), driven.EventFetchRequest{
		AccessToken: "stale",
		CalendarID:  "cal1",
		SyncToken:   "sync-token-1",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrReauthRequired)
}

func TestFetchEvents_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	provider := NewProvider(Config{APIEndpoint: server.URL + "/"})

	_, err := provider.FetchEvents(context.Background(), driven.EventFetchRequest{
		AccessToken: "access-1",
		CalendarID:  "cal1",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrProviderRequest)
}
