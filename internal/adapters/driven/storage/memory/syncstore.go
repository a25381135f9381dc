// Package memory provides in-memory implementations of driven port
// interfaces for testing.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/nendocal/calsync/internal/core/domain"
	"github.com/nendocal/calsync/internal/core/ports/driven"
)

// Ensure SyncStore implements the interface.
var _ driven.SyncStore = (*SyncStore)(nil)

// SyncStore is an in-memory implementation of driven.SyncStore.
type SyncStore struct {
	mu           sync.RWMutex
	integrations map[string]domain.IntegrationRecord
	events       map[string]map[string]domain.EventRecord // userID -> UID -> record

	now func() time.Time
}

// NewSyncStore creates a new in-memory sync store.
func NewSyncStore() *SyncStore {
	return &SyncStore{
		integrations: make(map[string]domain.IntegrationRecord),
		events:       make(map[string]map[string]domain.EventRecord),
		now:          time.Now,
	}
}

// LoadIntegration retrieves a user's integration record.
func (s *SyncStore) LoadIntegration(_ context.Context, userID string) (*domain.IntegrationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.integrations[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &record, nil
}

// EnsureIntegration creates an empty record if none exists.
func (s *SyncStore) EnsureIntegration(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.integrations[userID]; ok {
		return nil
	}
	s.integrations[userID] = domain.IntegrationRecord{
		UserID:    userID,
		UpdatedAt: s.now(),
	}
	return nil
}

// UpdateIntegration applies a partial update to the record.
func (s *SyncStore) UpdateIntegration(_ context.Context, userID string, patch domain.IntegrationPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.integrations[userID]
	if !ok {
		return domain.ErrNotFound
	}
	patch.Apply(&record, s.now())
	s.integrations[userID] = record
	return nil
}

// DeleteIntegration removes the record entirely.
func (s *SyncStore) DeleteIntegration(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.integrations, userID)
	return nil
}

// UpsertEvents writes event records keyed by their UID.
func (s *SyncStore) UpsertEvents(_ context.Context, userID string, events []domain.EventRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	byUID, ok := s.events[userID]
	if !ok {
		byUID = make(map[string]domain.EventRecord)
		s.events[userID] = byUID
	}
	for _, ev := range events {
		byUID[ev.UID] = ev
	}
	return nil
}

// RemoveEvents deletes event records by UID. Missing UIDs are ignored.
func (s *SyncStore) RemoveEvents(_ context.Context, userID string, uids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	byUID, ok := s.events[userID]
	if !ok {
		return nil
	}
	for _, uid := range uids {
		delete(byUID, uid)
	}
	return nil
}

// ListEventUIDsByCalendar returns the UIDs of all stored events for one calendar.
func (s *SyncStore) ListEventUIDsByCalendar(_ context.Context, userID, calendarID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var uids []string
	for uid, ev := range s.events[userID] {
		if ev.CalendarID == calendarID {
			uids = append(uids, uid)
		}
	}
	return uids, nil
}

// Events returns a copy of all stored events for a user, for assertions.
func (s *SyncStore) Events(userID string) map[string]domain.EventRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]domain.EventRecord, len(s.events[userID]))
	for uid, ev := range s.events[userID] {
		out[uid] = ev
	}
	return out
}
