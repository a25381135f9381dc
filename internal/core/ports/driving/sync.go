package driving

import (
	"context"

	"github.com/nendocal/calsync/internal/core/domain"
)

// SyncOptions tunes a single sync run.
type SyncOptions struct {
	// ForceFullSync ignores stored sync tokens and fetches every
	// selected calendar with the time window.
	ForceFullSync bool

	// Window overrides the default sync window when non-nil.
	Window *domain.TimeRange
}

// SyncService coordinates calendar synchronisation for a user.
type SyncService interface {
	// Sync runs one full sync pass for the user and returns the
	// caller-facing summary. At most one run per user is in flight at a
	// time; a second caller gets domain.ErrSyncInProgress.
	Sync(ctx context.Context, userID string, opts SyncOptions) (*domain.SyncSummary, error)

	// Status reports whether a run is currently in flight in-process.
	Status(ctx context.Context, userID string) (*SyncStatus, error)
}

// SyncStatus represents the current state of a user's sync.
type SyncStatus struct {
	// UserID identifies the user.
	UserID string

	// Running indicates if a sync is currently in progress.
	Running bool
}
