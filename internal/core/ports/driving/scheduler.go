package driving

import "context"

// Scheduler runs periodic background syncs for connected users.
type Scheduler interface {
	// Start begins the auto-sync loop.
	// Blocks until context is cancelled or an error occurs.
	Start(ctx context.Context) error

	// Stop gracefully stops the loop and waits for in-flight runs.
	Stop() error
}
