package domain

import "time"

// CalendarSyncResult is the outcome of processing one calendar within a
// sync run. One broken calendar does not abort the run; its failure is
// recorded here and the remaining calendars still sync.
type CalendarSyncResult struct {
	// CalendarID identifies the calendar.
	CalendarID string

	// Reset is true when the calendar's sync token was invalidated and
	// the calendar was re-fetched with the time window.
	Reset bool

	// Upserted and Removed count the event records written and deleted.
	Upserted int
	Removed  int

	// Err is the failure for this calendar, nil on success.
	Err error
}

// SyncSummary is the caller-facing result of a sync run. It carries the
// refreshed token so a caller holding a stale in-memory copy can update
// it without re-reading storage.
type SyncSummary struct {
	// SyncedCalendarIDs lists calendars that completed successfully.
	SyncedCalendarIDs []string

	// Results holds the per-calendar outcomes in processing order.
	Results []CalendarSyncResult

	// SyncTokens is the new cursor map persisted with the run.
	SyncTokens map[string]string

	// UpsertedEvents and RemovedUIDs are the records written and the
	// event UIDs deleted across all calendars.
	UpsertedEvents []EventRecord
	RemovedUIDs    []string

	// AccessToken and ExpiresAt reflect a token refresh performed during
	// the run; zero values mean the stored token was still valid.
	AccessToken string
	ExpiresAt   time.Time
}

// FailedCalendarIDs lists calendars whose processing failed.
func (s *SyncSummary) FailedCalendarIDs() []string {
	var ids []string
	for _, res := range s.Results {
		if res.Err != nil {
			ids = append(ids, res.CalendarID)
		}
	}
	return ids
}
