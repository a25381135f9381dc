package firerest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/nendocal/calsync/internal/core/domain"
	"github.com/nendocal/calsync/internal/core/ports/driven"
)

func newTestStore(t *testing.T, handler http.Handler) *Store {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewStore(Config{
		ProjectID:   "test-project",
		BaseURL:     server.URL,
		TokenSource: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "user-token"}),
	})
}

func TestStore_LoadIntegration(t *testing.T) {
	store := newTestStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t,
			"/projects/test-project/databases/(default)/documents/integrations/u1",
			r.URL.Path)
		assert.Equal(t, "Bearer user-token", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"name": "projects/test-project/databases/(default)/documents/integrations/u1",
			"fields": {
				"userId": {"stringValue": "u1"},
				"refreshToken": {"stringValue": "rt1"},
				"expiresAt": {"timestampValue": "2024-06-15T11:00:00Z"},
				"lastSyncStatus": {"stringValue": "idle"},
				"syncTokens": {"mapValue": {"fields": {"cal1": {"stringValue": "token-1"}}}},
				"calendarList": {"arrayValue": {"values": [
					{"mapValue": {"fields": {
						"id": {"stringValue": "cal1"},
						"selected": {"booleanValue": true}
					}}}
				]}}
			}
		}`))
	}))

	record, err := store.LoadIntegration(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", record.UserID)
	assert.Equal(t, "rt1", record.RefreshToken)
	assert.Equal(t, "token-1", record.SyncTokens["cal1"])
	require.Len(t, record.CalendarList, 1)
	assert.True(t, record.CalendarList[0].Selected)
}

func TestStore_LoadIntegration_NotFound(t *testing.T) {
	store := newTestStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	_, err := store.LoadIntegration(context.Background(), "ghost")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_EnsureIntegration_ConflictIsSuccess(t *testing.T) {
	store := newTestStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "false", r.URL.Query().Get("currentDocument.exists"))
		w.WriteHeader(http.StatusConflict)
	}))

	assert.NoError(t, store.EnsureIntegration(context.Background(), "u1"))
}

func TestStore_UpsertEvents_ChunksAndEncodes(t *testing.T) {
	var batches []int
	var firstDoc *document
	store := newTestStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t,
			"/projects/test-project/databases/(default)/documents:batchWrite",
			r.URL.Path)

		var req batchWriteRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		batches = append(batches, len(req.Writes))
		if firstDoc == nil && len(req.Writes) > 0 {
			firstDoc = req.Writes[0].Update
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status": []}`))
	}))

	events := make([]domain.EventRecord, driven.EventBatchLimit+1)
	for i := range events {
		events[i] = domain.EventRecord{
			UID:            fmt.Sprintf("cal1__e%d", i),
			CalendarID:     "cal1",
			EventID:        fmt.Sprintf("e%d", i),
			FiscalYearKeys: []int{2024},
		}
	}

	require.NoError(t, store.UpsertEvents(context.Background(), "u1", events))
	assert.Equal(t, []int{driven.EventBatchLimit, 1}, batches)

	require.NotNil(t, firstDoc)
	assert.Equal(t,
		"projects/test-project/databases/(default)/documents/integrations/u1/events/cal1__e0",
		firstDoc.Name)
	assert.Equal(t, String("cal1"), firstDoc.Fields["calendarId"])
	assert.Equal(t, Ints([]int{2024}), firstDoc.Fields["fiscalYearKeys"])
}

func TestStore_BatchWrite_SurfacesWriteErrors(t *testing.T) {
	store := newTestStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status": [{"code": 7, "message": "permission denied"}]}`))
	}))

	err := store.RemoveEvents(context.Background(), "u1", []string{"cal1__e1"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrStorageWrite)
}

func TestStore_ListEventUIDsByCalendar(t *testing.T) {
	store := newTestStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		base := "projects/test-project/databases/(default)/documents/integrations/u1/events/"
		if r.URL.Query().Get("pageToken") == "" {
			fmt.Fprintf(w, `{
				"documents": [{"name": "%scal1__e1"}, {"name": "%scal2__e1"}],
				"nextPageToken": "page-2"
			}`, base, base)
			return
		}
		fmt.Fprintf(w, `{"documents": [{"name": "%scal1__e2"}]}`, base)
	}))

	uids, err := store.ListEventUIDsByCalendar(context.Background(), "u1", "cal1")
	require.NoError(t, err)
	assert.Equal(t, []string{"cal1__e1", "cal1__e2"}, uids)
}

func TestStore_UpdateIntegration_LoadsThenPatches(t *testing.T) {
	var patched *document
	store := newTestStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.Method {
		case http.MethodGet:
			w.Write([]byte(`{"fields": {
				"userId": {"stringValue": "u1"},
				"refreshToken": {"stringValue": "rt1"}
			}}`))
		case http.MethodPatch:
			assert.Equal(t, "true", r.URL.Query().Get("currentDocument.exists"))
			var doc document
			require.NoError(t, json.NewDecoder(r.Body).Decode(&doc))
			patched = &doc
			w.Write([]byte(`{}`))
		}
	}))

	err := store.UpdateIntegration(context.Background(), "u1", domain.IntegrationPatch{
		AccessToken: domain.Ptr("at-new"),
	})
	require.NoError(t, err)

	require.NotNil(t, patched)
	assert.Equal(t, String("at-new"), patched.Fields["accessToken"])
	assert.Equal(t, String("rt1"), patched.Fields["refreshToken"], "untouched fields survive the patch")
}
