package driven

import (
	"context"

	"github.com/nendocal/calsync/internal/core/domain"
)

// EventBatchLimit is the maximum number of event documents written or
// deleted per storage batch. Every backend chunks at this ceiling and
// commits each chunk before starting the next.
const EventBatchLimit = 400

// SyncStore persists per-user integration state and event records.
//
// UpsertEvents and RemoveEvents are idempotent: the operation key is
// always the eventUid, never an auto-generated id, so replaying the same
// batch converges to the same stored state.
type SyncStore interface {
	// LoadIntegration retrieves a user's integration record.
	// Returns domain.ErrNotFound when the user has never connected.
	LoadIntegration(ctx context.Context, userID string) (*domain.IntegrationRecord, error)

	// EnsureIntegration creates an empty integration record if none
	// exists. Creating twice is a no-op, never an error.
	EnsureIntegration(ctx context.Context, userID string) error

	// UpdateIntegration applies a partial update to the record.
	UpdateIntegration(ctx context.Context, userID string, patch domain.IntegrationPatch) error

	// DeleteIntegration removes the record entirely. Dependent event
	// records must be purged first by the caller.
	DeleteIntegration(ctx context.Context, userID string) error

	// UpsertEvents writes event records keyed by their UID, in chunks of
	// at most EventBatchLimit.
	UpsertEvents(ctx context.Context, userID string, events []domain.EventRecord) error

	// RemoveEvents deletes event records by UID, in chunks of at most
	// EventBatchLimit. Missing UIDs are ignored.
	RemoveEvents(ctx context.Context, userID string, uids []string) error

	// ListEventUIDsByCalendar returns the UIDs of all stored events for
	// one calendar, used for full-reconciliation diffs after a sync
	// token reset.
	ListEventUIDsByCalendar(ctx context.Context, userID, calendarID string) ([]string, error)
}
