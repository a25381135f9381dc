package firestore

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
	firestore "google.golang.org/api/firestore/v1"
	"google.golang.org/api/option"

	"github.com/nendocal/calsync/internal/core/domain"
	"github.com/nendocal/calsync/internal/core/ports/driven"
)

func newTestStore(t *testing.T, handler http.Handler) *Store {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	svc, err := firestore.NewService(context.Background(),
		option.WithEndpoint(server.URL+"/"),
		option.WithTokenSource(oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "test"})),
	)
	require.NoError(t, err)

	return NewStore(svc, "test-project")
}

func TestStore_LoadIntegration_NotFound(t *testing.T) {
	store := newTestStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error": {"code": 404, "message": "not found"}}`))
	}))

	_, err := store.LoadIntegration(context.Background(), "ghost")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_LoadIntegration(t *testing.T) {
	store := newTestStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t,
			"/v1/projects/test-project/databases/(default)/documents/integrations/u1",
			r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"name": "projects/test-project/databases/(default)/documents/integrations/u1",
			"fields": {
				"userId": {"stringValue": "u1"},
				"refreshToken": {"stringValue": "rt1"},
				"lastSyncStatus": {"stringValue": "idle"},
				"syncTokens": {"mapValue": {"fields": {"cal1": {"stringValue": "token-1"}}}}
			}
		}`))
	}))

	record, err := store.LoadIntegration(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", record.UserID)
	assert.Equal(t, "rt1", record.RefreshToken)
	assert.Equal(t, "token-1", record.SyncTokens["cal1"])
	assert.Equal(t, domain.SyncStatusIdle, record.LastSyncStatus)
}

func TestStore_UpsertEvents_ChunksBatchWrites(t *testing.T) {
	var batches []int
	store := newTestStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/projects/test-project/databases/(default)/documents:batchWrite", r.URL.Path)

		var req firestore.BatchWriteRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		batches = append(batches, len(req.Writes))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status": []}`))
	}))

	events := make([]domain.EventRecord, driven.EventBatchLimit+5)
	for i := range events {
		events[i] = domain.EventRecord{
			UID:        fmt.Sprintf("cal1__e%d", i),
			CalendarID: "cal1",
			EventID:    fmt.Sprintf("e%d", i),
		}
	}

	require.NoError(t, store.UpsertEvents(context.Background(), "u1", events))
	assert.Equal(t, []int{driven.EventBatchLimit, 5}, batches)
}

func TestStore_RemoveEvents_SendsDeletes(t *testing.T) {
	var deletes []string
	store := newTestStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req firestore.BatchWriteRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		for _, write := range req.Writes {
			deletes = append(deletes, write.Delete)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status": []}`))
	}))

	require.NoError(t, store.RemoveEvents(context.Background(), "u1", []string{"cal1__e1"}))
	assert.Equal(t, []string{
		"projects/test-project/databases/(default)/documents/integrations/u1/events/cal1__e1",
	}, deletes)
}

func TestStore_BatchWrite_SurfacesWriteErrors(t *testing.T) {
	store := newTestStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status": [{"code": 7, "message": "permission denied"}]}`))
	}))

	err := store.UpsertEvents(context.Background(), "u1", []domain.EventRecord{
		{UID: "cal1__e1", CalendarID: "cal1"},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrStorageWrite)
	assert.Contains(t, err.Error(), "permission denied")
}

func TestStore_ListEventUIDsByCalendar_FiltersByPrefix(t *testing.T) {
	store := newTestStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		base := "projects/test-project/databases/(default)/documents/integrations/u1/events/"
		if r.URL.Query().Get("pageToken") == "" {
			fmt.Fprintf(w, `{
				"documents": [
					{"name": "%scal1__e1"},
					{"name": "%scal2__e1"}
				],
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
