package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/nendocal/calsync/internal/core/domain"
	"github.com/nendocal/calsync/internal/core/ports/driven"
	"github.com/nendocal/calsync/internal/core/ports/driving"
	"github.com/nendocal/calsync/internal/logger"
)

// staleSyncCutoff bounds how long a persisted "syncing" status blocks
// other workers. A record stuck past the cutoff belongs to a crashed
// run and is taken over.
const staleSyncCutoff = 30 * time.Minute

// Ensure SyncOrchestrator implements the interface.
var _ driving.SyncService = (*SyncOrchestrator)(nil)

// SyncOrchestrator coordinates calendar synchronisation for a user:
// token refresh, calendar-list merge, per-calendar event fetch, and
// batched persistence.
type SyncOrchestrator struct {
	store    driven.SyncStore
	provider driven.CalendarProvider

	// In-process single-flight per user. This map serialises runs
	// within one process; the persisted lastSyncStatus covers workers
	// in other processes, subject to staleSyncCutoff.
	mu     sync.Mutex
	active map[string]bool

	now func() time.Time
}

// NewSyncOrchestrator creates a new sync orchestrator.
func NewSyncOrchestrator(store driven.SyncStore, provider driven.CalendarProvider) *SyncOrchestrator {
	return &SyncOrchestrator{
		store:    store,
		provider: provider,
		active:   make(map[string]bool),
		now:      time.Now,
	}
}

// Sync runs one full sync pass for the user.
//
// The refreshed access token and every calendar completed before a
// failure are persisted even when the run as a whole fails; the next
// run resumes from each calendar's last stored cursor. Whatever the
// exit path, lastSyncStatus is left at idle or error, never syncing.
func (o *SyncOrchestrator) Sync(ctx context.Context, userID string, opts driving.SyncOptions) (*domain.SyncSummary, error) {
	if err := o.acquire(userID); err != nil {
		return nil, err
	}
	defer o.release(userID)

	record, err := o.store.LoadIntegration(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: no integration for user %s", domain.ErrReauthRequired, userID)
		}
		return nil, fmt.Errorf("load integration: %w", err)
	}
	if record.RefreshToken == "" {
		return nil, fmt.Errorf("%w: missing refresh token", domain.ErrReauthRequired)
	}

	// The persisted status is the advisory lock across processes
	// sharing a backend; the in-process map only covers this one.
	if record.LastSyncStatus == domain.SyncStatusSyncing && o.now().Sub(record.UpdatedAt) < staleSyncCutoff {
		return nil, fmt.Errorf("%w: user %s is marked syncing", domain.ErrSyncInProgress, userID)
	}

	if err := o.setStatus(ctx, userID, domain.SyncStatusSyncing, ""); err != nil {
		return nil, fmt.Errorf("mark syncing: %w", err)
	}

	summary, runErr := o.run(ctx, userID, record, opts)
	if runErr != nil {
		if statusErr := o.setStatus(ctx, userID, domain.SyncStatusError, runErr.Error()); statusErr != nil {
			logger.Warn("persist error status for %s: %v", userID, statusErr)
		}
		return nil, runErr
	}

	syncErr := ""
	if failed := summary.FailedCalendarIDs(); len(failed) > 0 {
		syncErr = fmt.Sprintf("partial failure: %s", strings.Join(failed, ", "))
	}
	if err := o.setStatus(ctx, userID, domain.SyncStatusIdle, syncErr); err != nil {
		return nil, fmt.Errorf("mark idle: %w", err)
	}
	return summary, nil
}

// Status reports whether a run is currently in flight in-process.
func (o *SyncOrchestrator) Status(_ context.Context, userID string) (*driving.SyncStatus, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return &driving.SyncStatus{
		UserID:  userID,
		Running: o.active[userID],
	}, nil
}

func (o *SyncOrchestrator) acquire(userID string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.active[userID] {
		return fmt.Errorf("%w: user %s", domain.ErrSyncInProgress, userID)
	}
	o.active[userID] = true
	return nil
}

func (o *SyncOrchestrator) release(userID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.active, userID)
}

func (o *SyncOrchestrator) setStatus(ctx context.Context, userID string, status domain.SyncStatus, syncErr string) error {
	return o.store.UpdateIntegration(ctx, userID, domain.IntegrationPatch{
		LastSyncStatus: domain.Ptr(status),
		LastSyncError:  domain.Ptr(syncErr),
	})
}

// run executes the sync pass proper. The caller owns status bookkeeping.
func (o *SyncOrchestrator) run(ctx context.Context, userID string, record *domain.IntegrationRecord, opts driving.SyncOptions) (*domain.SyncSummary, error) {
	now := o.now()
	summary := &domain.SyncSummary{}

	// Refresh the access token up front and persist it immediately, so
	// a failure in any later step does not lose it.
	if record.NeedsTokenRefresh(now) {
		grant, err := o.provider.RefreshToken(ctx, record.RefreshToken)
		if err != nil {
			return nil, err
		}
		patch := domain.IntegrationPatch{
			AccessToken: domain.Ptr(grant.AccessToken),
			ExpiresAt:   domain.Ptr(grant.ExpiresAt),
		}
		if grant.RefreshToken != "" {
			patch.RefreshToken = domain.Ptr(grant.RefreshToken)
		}
		if grant.TokenType != "" {
			patch.TokenType = domain.Ptr(grant.TokenType)
		}
		if grant.Scope != "" {
			patch.Scope = domain.Ptr(grant.Scope)
		}
		if err := o.store.UpdateIntegration(ctx, userID, patch); err != nil {
			return nil, fmt.Errorf("%w: persist refreshed token: %w", domain.ErrStorageWrite, err)
		}
		patch.Apply(record, now)
		summary.AccessToken = grant.AccessToken
		summary.ExpiresAt = grant.ExpiresAt
		logger.Debug("refreshed access token for %s", userID)
	}

	window := domain.ResolveTimeRange(now, opts.Window)

	latest, err := o.provider.ListCalendars(ctx, record.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("list calendars: %w", err)
	}
	merged := domain.MergeCalendarSelection(record.CalendarList, latest)

	// Drop cursors for calendars no longer selected; a re-selected
	// calendar starts over with a windowed fetch.
	tokens := make(map[string]string)
	selected := make([]string, 0, len(merged))
	for _, entry := range merged {
		if !entry.Selected {
			continue
		}
		selected = append(selected, entry.ID)
		if cursor, ok := record.SyncTokens[entry.ID]; ok {
			tokens[entry.ID] = cursor
		}
	}

	if len(selected) == 0 {
		// Persist the merged list anyway so the caller can present it
		// for re-selection.
		patch := domain.IntegrationPatch{
			CalendarList: merged,
			SyncTokens:   map[string]string{},
		}
		if err := o.store.UpdateIntegration(ctx, userID, patch); err != nil {
			return nil, fmt.Errorf("%w: persist calendar list: %w", domain.ErrStorageWrite, err)
		}
		return nil, domain.ErrNoCalendarsSelected
	}

	logger.Info("syncing %d calendars for %s", len(selected), userID)

	for _, calendarID := range selected {
		result := o.syncCalendar(ctx, userID, record.AccessToken, calendarID, tokens, window, opts.ForceFullSync, summary)
		summary.Results = append(summary.Results, result)
		if result.Err != nil {
			logger.Warn("calendar %s failed: %v", calendarID, result.Err)
			continue
		}
		summary.SyncedCalendarIDs = append(summary.SyncedCalendarIDs, calendarID)
	}

	// One broken calendar does not abort the run; only a run where
	// nothing synced is a failure.
	if len(summary.SyncedCalendarIDs) == 0 {
		return nil, fmt.Errorf("all calendars failed: %w", summary.Results[0].Err)
	}

	if len(summary.UpsertedEvents) > 0 {
		if err := o.store.UpsertEvents(ctx, userID, summary.UpsertedEvents); err != nil {
			return nil, fmt.Errorf("%w: upsert events: %w", domain.ErrStorageWrite, err)
		}
	}
	if len(summary.RemovedUIDs) > 0 {
		if err := o.store.RemoveEvents(ctx, userID, summary.RemovedUIDs); err != nil {
			return nil, fmt.Errorf("%w: remove events: %w", domain.ErrStorageWrite, err)
		}
	}

	summary.SyncTokens = tokens
	patch := domain.IntegrationPatch{
		CalendarList: merged,
		SyncTokens:   tokens,
		LastSyncedAt: domain.Ptr(now),
	}
	if err := o.store.UpdateIntegration(ctx, userID, patch); err != nil {
		return nil, fmt.Errorf("%w: persist sync state: %w", domain.ErrStorageWrite, err)
	}

	logger.Info("sync complete for %s: %d upserted, %d removed", userID, len(summary.UpsertedEvents), len(summary.RemovedUIDs))
	return summary, nil
}

// syncCalendar processes one calendar and folds its outcome into the
// summary. On failure nothing is accumulated and the calendar's stored
// cursor is left untouched, so the next run retries from the same spot.
func (o *SyncOrchestrator) syncCalendar(
	ctx context.Context,
	userID, accessToken, calendarID string,
	tokens map[string]string,
	window domain.TimeRange,
	forceFull bool,
	summary *domain.SyncSummary,
) domain.CalendarSyncResult {
	result := domain.CalendarSyncResult{CalendarID: calendarID}

	syncToken := ""
	if !forceFull {
		syncToken = tokens[calendarID]
	}

	fetch, err := o.provider.FetchEvents(ctx, driven.EventFetchRequest{
		AccessToken: accessToken,
		CalendarID:  calendarID,
		SyncToken:   syncToken,
		Window:      window,
	})
	if err != nil {
		result.Err = err
		return result
	}

	var upserts []domain.EventRecord
	var removals []string

	if fetch.ResetRequired {
		// The incremental delete stream is lost with the cursor, so
		// removals come from diffing stored UIDs against the fresh
		// windowed fetch.
		result.Reset = true
		delete(tokens, calendarID)

		fetch, err = o.provider.FetchEvents(ctx, driven.EventFetchRequest{
			AccessToken: accessToken,
			CalendarID:  calendarID,
			Window:      window,
		})
		if err != nil {
			result.Err = err
			return result
		}

		known, err := o.store.ListEventUIDsByCalendar(ctx, userID, calendarID)
		if err != nil {
			result.Err = fmt.Errorf("list stored events: %w", err)
			return result
		}
		observed := make(map[string]bool, len(fetch.Events))
		for _, ev := range fetch.Events {
			observed[ev.UID] = true
		}
		for _, uid := range known {
			if !observed[uid] {
				removals = append(removals, uid)
			}
		}
		upserts = fetch.Events
	} else {
		upserts = fetch.Events
		for _, id := range fetch.CancelledIDs {
			removals = append(removals, domain.EventUID(calendarID, id))
		}
	}

	if fetch.NextSyncToken != "" {
		tokens[calendarID] = fetch.NextSyncToken
	}

	summary.UpsertedEvents = append(summary.UpsertedEvents, upserts...)
	summary.RemovedUIDs = append(summary.RemovedUIDs, removals...)
	result.Upserted = len(upserts)
	result.Removed = len(removals)
	return result
}
