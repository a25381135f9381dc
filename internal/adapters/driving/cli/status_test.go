package cli

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nendocal/calsync/internal/core/domain"
)

func TestStatusCmd_NotConnected(t *testing.T) {
	setupStoreTest(t)

	out, err := execute(t, "status")

	require.NoError(t, err)
	assert.Contains(t, out, "not connected")
}

func TestStatusCmd_ShowsRecordState(t *testing.T) {
	store := setupStoreTest(t)
	ctx := context.Background()
	require.NoError(t, store.EnsureIntegration(ctx, "default"))

	syncedAt := time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)
	require.NoError(t, store.UpdateIntegration(ctx, "default", domain.IntegrationPatch{
		LastSyncedAt:   &syncedAt,
		LastSyncStatus: domain.Ptr(domain.SyncStatusIdle),
		CalendarList: []domain.CalendarListEntry{
			{ID: "cal1", Selected: true},
			{ID: "cal2", Selected: false},
		},
	}))

	out, err := execute(t, "status")

	require.NoError(t, err)
	assert.Contains(t, out, "Status:        idle")
	assert.Contains(t, out, "2024-06-01 09:30:00 UTC")
	assert.Contains(t, out, "Calendars:     2 known, 1 selected")
}

func TestStatusCmd_ShowsLastError(t *testing.T) {
	store := setupStoreTest(t)
	ctx := context.Background()
	require.NoError(t, store.EnsureIntegration(ctx, "default"))
	require.NoError(t, store.UpdateIntegration(ctx, "default", domain.IntegrationPatch{
		LastSyncStatus: domain.Ptr(domain.SyncStatusError),
		LastSyncError:  domain.Ptr("provider request failed"),
	}))

	out, err := execute(t, "status")

	require.NoError(t, err)
	assert.Contains(t, out, "Status:        error")
	assert.Contains(t, out, "Last error:    provider request failed")
}

func TestStatusCmd_NeverSynced(t *testing.T) {
	store := setupStoreTest(t)
	require.NoError(t, store.EnsureIntegration(context.Background(), "default"))

	out, err := execute(t, "status")

	require.NoError(t, err)
	assert.Contains(t, out, "Last synced:   never")
}

func TestStatusCmd_ReportsRunningSync(t *testing.T) {
	store := setupStoreTest(t)
	require.NoError(t, store.EnsureIntegration(context.Background(), "default"))

	mock := &mockSyncService{running: true}
	cleanup := setupSyncTest(mock)
	defer cleanup()

	out, err := execute(t, "status")

	require.NoError(t, err)
	assert.Contains(t, out, "A sync is running right now.")
}
