package services

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/nendocal/calsync/internal/core/domain"
	"github.com/nendocal/calsync/internal/core/ports/driving"
	"github.com/nendocal/calsync/internal/logger"
)

// DefaultSyncInterval is how often the scheduler triggers a sync when
// the configuration does not say otherwise.
const DefaultSyncInterval = 15 * time.Minute

// Ensure Scheduler implements the interface.
var _ driving.Scheduler = (*Scheduler)(nil)

// SchedulerConfig tunes the background sync loop.
type SchedulerConfig struct {
	// Interval between sync passes. Zero means DefaultSyncInterval.
	Interval time.Duration

	// UserIDs lists the users to sync each pass.
	UserIDs []string

	// Jitter delays the first pass by a random fraction of the
	// interval, so several daemons starting together do not hit the
	// provider at once. Disabled when false.
	Jitter bool
}

// Scheduler triggers periodic background syncs for connected users.
// Overlap protection comes from the sync service's own single-flight
// guard; a pass that finds a run still in flight simply skips it.
type Scheduler struct {
	config SchedulerConfig
	sync   driving.SyncService

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewScheduler creates a scheduler.
func NewScheduler(config SchedulerConfig, syncService driving.SyncService) *Scheduler {
	if config.Interval <= 0 {
		config.Interval = DefaultSyncInterval
	}
	return &Scheduler{
		config: config,
		sync:   syncService,
	}
}

// Start begins the auto-sync loop. Blocks until the context is
// cancelled or Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.mu.Unlock()

	if s.config.Jitter {
		delay := time.Duration(rand.Int63n(int64(s.config.Interval)))
		logger.Debug("scheduler: initial jitter %s", delay)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		case <-s.stopCh:
			return nil
		}
	}

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	s.runPass(ctx)
	for {
		select {
		case <-ticker.C:
			s.runPass(ctx)
		case <-ctx.Done():
			return ctx.Err()
		case <-s.stopCh:
			return nil
		}
	}
}

// Stop gracefully stops the loop and waits for in-flight runs.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	s.wg.Wait()
	return nil
}

// runPass syncs every configured user once, sequentially.
func (s *Scheduler) runPass(ctx context.Context) {
	s.wg.Add(1)
	defer s.wg.Done()

	for _, userID := range s.config.UserIDs {
		if ctx.Err() != nil {
			return
		}
		_, err := s.sync.Sync(ctx, userID, driving.SyncOptions{})
		switch {
		case err == nil:
			logger.Debug("scheduler: synced %s", userID)
		case errors.Is(err, domain.ErrSyncInProgress):
			logger.Debug("scheduler: %s already syncing, skipped", userID)
		case errors.Is(err, domain.ErrReauthRequired):
			logger.Warn("scheduler: %s needs reauthorization", userID)
		default:
			logger.Warn("scheduler: sync failed for %s: %v", userID, err)
		}
	}
}
