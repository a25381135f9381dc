package domain

import "time"

// SyncStatus describes the last known state of a user's sync run.
type SyncStatus string

const (
	// SyncStatusIdle means no sync is running and the last run succeeded.
	SyncStatusIdle SyncStatus = "idle"

	// SyncStatusSyncing means a sync run is currently in flight.
	// This flag is advisory only; the store does not enforce it atomically.
	SyncStatusSyncing SyncStatus = "syncing"

	// SyncStatusError means the last run failed. LastSyncError holds details.
	SyncStatusError SyncStatus = "error"
)

// CalendarListEntry is one calendar visible to the user at the provider.
// Selected is the only field carried forward across syncs; everything else
// is overwritten with the latest provider values on every list refresh.
type CalendarListEntry struct {
	// ID is the provider's calendar identifier.
	ID string

	// Summary is the calendar's display name.
	Summary string

	// Primary marks the user's primary calendar.
	Primary bool

	// AccessRole is the user's role on this calendar (reader, writer, owner).
	AccessRole string

	// BackgroundColor and ForegroundColor are the provider's display colours.
	BackgroundColor string
	ForegroundColor string

	// Selected marks whether events from this calendar are synced.
	Selected bool
}

// IntegrationRecord holds a user's provider integration state.
// There is exactly one record per connected user. Only the sync
// orchestrator and the connect/disconnect flows write it.
type IntegrationRecord struct {
	// UserID identifies the owning user.
	UserID string

	// AccessToken is the short-lived bearer token for provider calls.
	AccessToken string

	// RefreshToken is the long-lived token used to mint access tokens.
	// Empty means the user must go through the authorization flow.
	RefreshToken string

	// TokenType is the token scheme, normally "Bearer".
	TokenType string

	// Scope is the granted OAuth scope string.
	Scope string

	// ExpiresAt is when AccessToken stops being valid.
	ExpiresAt time.Time

	// SyncTokens maps calendar ID to its incremental sync cursor.
	// A missing entry means the next sync for that calendar must be a
	// full, time-windowed fetch.
	SyncTokens map[string]string

	// CalendarList is the merged calendar list from the last sync.
	CalendarList []CalendarListEntry

	// LastSyncedAt is when the last successful run finished.
	LastSyncedAt time.Time

	// LastSyncStatus holds SyncStatusSyncing only while a run is in
	// flight; every run exit leaves it idle or error.
	LastSyncStatus SyncStatus

	// LastSyncError holds the failure message when LastSyncStatus is error.
	LastSyncError string

	// UpdatedAt is when this record was last written.
	UpdatedAt time.Time
}

// TokenExpiryLeeway is subtracted from the access token expiry when
// deciding whether a refresh is needed before calling the provider.
const TokenExpiryLeeway = 60 * time.Second

// NeedsTokenRefresh reports whether the access token is absent or will
// expire within the leeway window.
func (r *IntegrationRecord) NeedsTokenRefresh(now time.Time) bool {
	if r.AccessToken == "" {
		return true
	}
	return !r.ExpiresAt.After(now.Add(TokenExpiryLeeway))
}

// SelectedCalendarIDs returns the IDs of all selected calendars,
// preserving list order.
func (r *IntegrationRecord) SelectedCalendarIDs() []string {
	var ids []string
	for _, entry := range r.CalendarList {
		if entry.Selected {
			ids = append(ids, entry.ID)
		}
	}
	return ids
}

// MergeCalendarSelection reconciles a freshly fetched calendar list with
// the previously stored one. For every entry in latest, the Selected flag
// is carried over from previous when an entry with the same ID exists;
// all other fields always take the latest provider values. Entries no
// longer returned by the provider are dropped. The result preserves the
// order of latest.
//
// This keeps a routine list refresh from silently re-enabling calendars
// the user had deliberately deselected.
func MergeCalendarSelection(previous, latest []CalendarListEntry) []CalendarListEntry {
	prevSelected := make(map[string]bool, len(previous))
	for _, entry := range previous {
		prevSelected[entry.ID] = entry.Selected
	}

	merged := make([]CalendarListEntry, len(latest))
	for i, entry := range latest {
		if selected, ok := prevSelected[entry.ID]; ok {
			entry.Selected = selected
		}
		merged[i] = entry
	}
	return merged
}

// IntegrationPatch is a partial update to an IntegrationRecord.
// Nil fields are left unchanged. Map and slice fields are replaced
// wholesale when non-nil, never merged element-wise.
type IntegrationPatch struct {
	AccessToken    *string
	RefreshToken   *string
	TokenType      *string
	Scope          *string
	ExpiresAt      *time.Time
	SyncTokens     map[string]string
	CalendarList   []CalendarListEntry
	LastSyncedAt   *time.Time
	LastSyncStatus *SyncStatus
	LastSyncError  *string
}

// Apply writes the patch onto the record and bumps UpdatedAt.
func (p IntegrationPatch) Apply(r *IntegrationRecord, now time.Time) {
	if p.AccessToken != nil {
		r.AccessToken = *p.AccessToken
	}
	if p.RefreshToken != nil {
		r.RefreshToken = *p.RefreshToken
	}
	if p.TokenType != nil {
		r.TokenType = *p.TokenType
	}
	if p.Scope != nil {
		r.Scope = *p.Scope
	}
	if p.ExpiresAt != nil {
		r.ExpiresAt = *p.ExpiresAt
	}
	if p.SyncTokens != nil {
		r.SyncTokens = p.SyncTokens
	}
	if p.CalendarList != nil {
		r.CalendarList = p.CalendarList
	}
	if p.LastSyncedAt != nil {
		r.LastSyncedAt = *p.LastSyncedAt
	}
	if p.LastSyncStatus != nil {
		r.LastSyncStatus = *p.LastSyncStatus
	}
	if p.LastSyncError != nil {
		r.LastSyncError = *p.LastSyncError
	}
	r.UpdatedAt = now
}

// Ptr returns a pointer to v, for building IntegrationPatch values.
func Ptr[T any](v T) *T {
	return &v
}
