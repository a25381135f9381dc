package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrReauthRequired indicates the refresh token is missing or
	// invalid. The user must go through the authorization flow again;
	// retrying never helps.
	ErrReauthRequired = errors.New("reauthorization required")

	// ErrTokenRefreshFailed indicates the provider's token endpoint
	// rejected the refresh token. Treated identically to
	// ErrReauthRequired and never retried.
	ErrTokenRefreshFailed = errors.New("token refresh failed")

	// ErrNoCalendarsSelected indicates the merged calendar selection is
	// empty. Fatal but user-actionable: state is still persisted so the
	// calendar list can be shown for re-selection.
	ErrNoCalendarsSelected = errors.New("no calendars selected")

	// ErrProviderRequest indicates a non-2xx response from the
	// provider's list or events endpoints.
	ErrProviderRequest = errors.New("provider request failed")

	// ErrStorageWrite indicates a batch write failure from a SyncStore
	// backend. Writes are keyed by eventUid, so replay is safe.
	ErrStorageWrite = errors.New("storage write failed")

	// ErrSyncInProgress indicates a sync run is already in flight for
	// this user.
	ErrSyncInProgress = errors.New("sync already in progress")

	// ErrStateMismatch indicates the OAuth callback state did not match
	// any pending authorization request.
	ErrStateMismatch = errors.New("authorization state mismatch")
)
