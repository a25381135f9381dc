package firestore

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	firestore "google.golang.org/api/firestore/v1"
	"google.golang.org/api/googleapi"

	"github.com/nendocal/calsync/internal/core/domain"
	"github.com/nendocal/calsync/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.SyncStore = (*Store)(nil)

// integrationsCollection and eventsCollection name the document tree:
// {base}/integrations/{userID}/events/{uid}.
const (
	integrationsCollection = "integrations"
	eventsCollection       = "events"
)

// listPageSize bounds one page of the events listing.
const listPageSize = 300

// Store is a Firestore-backed SyncStore for privileged server-side use.
type Store struct {
	svc *firestore.Service

	// database is "projects/{project}/databases/(default)".
	database string

	now func() time.Time
}

// NewStore creates a Firestore store for the given project. The service
// must be built by the caller with server credentials.
func NewStore(svc *firestore.Service, projectID string) *Store {
	return &Store{
		svc:      svc,
		database: fmt.Sprintf("projects/%s/databases/(default)", projectID),
		now:      time.Now,
	}
}

func (s *Store) integrationName(userID string) string {
	return fmt.Sprintf("%s/documents/%s/%s", s.database, integrationsCollection, userID)
}

func (s *Store) eventName(userID, uid string) string {
	return fmt.Sprintf("%s/%s/%s", s.integrationName(userID), eventsCollection, uid)
}

// LoadIntegration retrieves a user's integration record.
func (s *Store) LoadIntegration(ctx context.Context, userID string) (*domain.IntegrationRecord, error) {
	doc, err := s.svc.Projects.Databases.Documents.Get(s.integrationName(userID)).Context(ctx).Do()
	if err != nil {
		if isStatus(err, http.StatusNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get integration: %w", err)
	}
	record, err := decodeIntegration(doc.Fields)
	if err != nil {
		return nil, fmt.Errorf("decode integration: %w", err)
	}
	return record, nil
}

// EnsureIntegration creates an empty record if none exists.
func (s *Store) EnsureIntegration(ctx context.Context, userID string) error {
	record := &domain.IntegrationRecord{
		UserID:    userID,
		UpdatedAt: s.now().UTC(),
	}
	doc := &firestore.Document{Fields: integrationFields(record)}

	_, err := s.svc.Projects.Databases.Documents.
		Patch(s.integrationName(userID), doc).
		CurrentDocumentExists(false).
		Context(ctx).Do()
	if err != nil {
		// Already created is success for ensure.
		if isStatus(err, http.StatusConflict) {
			return nil
		}
		return fmt.Errorf("%w: ensure integration: %w", domain.ErrStorageWrite, err)
	}
	return nil
}

// UpdateIntegration applies a partial update to the record.
func (s *Store) UpdateIntegration(ctx context.Context, userID string, patch domain.IntegrationPatch) error {
	record, err := s.LoadIntegration(ctx, userID)
	if err != nil {
		return err
	}
	patch.Apply(record, s.now().UTC())

	doc := &firestore.Document{Fields: integrationFields(record)}
	_, err = s.svc.Projects.Databases.Documents.
		Patch(s.integrationName(userID), doc).
		CurrentDocumentExists(true).
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("%w: update integration: %w", domain.ErrStorageWrite, err)
	}
	return nil
}

// DeleteIntegration removes the record entirely. Event documents are
// the caller's responsibility; Firestore does not cascade deletes to
// subcollections.
func (s *Store) DeleteIntegration(ctx context.Context, userID string) error {
	_, err := s.svc.Projects.Databases.Documents.
		Delete(s.integrationName(userID)).
		Context(ctx).Do()
	if err != nil && !isStatus(err, http.StatusNotFound) {
		return fmt.Errorf("%w: delete integration: %w", domain.ErrStorageWrite, err)
	}
	return nil
}

// UpsertEvents writes event documents keyed by their UID through
// :batchWrite, in chunks of at most driven.EventBatchLimit.
func (s *Store) UpsertEvents(ctx context.Context, userID string, events []domain.EventRecord) error {
	writes := make([]*firestore.Write, len(events))
	for i := range events {
		writes[i] = &firestore.Write{
			Update: &firestore.Document{
				Name:   s.eventName(userID, events[i].UID),
				Fields: eventFields(&events[i]),
			},
		}
	}
	return s.batchWrite(ctx, writes)
}

// RemoveEvents deletes event documents by UID. Missing UIDs are ignored;
// a Firestore delete of an absent document succeeds.
func (s *Store) RemoveEvents(ctx context.Context, userID string, uids []string) error {
	writes := make([]*firestore.Write, len(uids))
	for i, uid := range uids {
		writes[i] = &firestore.Write{Delete: s.eventName(userID, uid)}
	}
	return s.batchWrite(ctx, writes)
}

// batchWrite commits writes in chunks, failing on the first write-level
// error reported by the response status list.
func (s *Store) batchWrite(ctx context.Context, writes []*firestore.Write) error {
	for start := 0; start < len(writes); start += driven.EventBatchLimit {
		end := start + driven.EventBatchLimit
		if end > len(writes) {
			end = len(writes)
		}

		resp, err := s.svc.Projects.Databases.Documents.
			BatchWrite(s.database, &firestore.BatchWriteRequest{Writes: writes[start:end]}).
			Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("%w: batch write: %w", domain.ErrStorageWrite, err)
		}
		for i, status := range resp.Status {
			if status != nil && status.Code != 0 {
				return fmt.Errorf("%w: write %d: %s", domain.ErrStorageWrite, start+i, status.Message)
			}
		}
	}
	return nil
}

// ListEventUIDsByCalendar returns the UIDs of all stored events for one
// calendar. The UID's calendarId prefix makes a structured query
// unnecessary; a paginated listing is filtered by prefix.
func (s *Store) ListEventUIDsByCalendar(ctx context.Context, userID, calendarID string) ([]string, error) {
	prefix := calendarID + domain.EventUIDSeparator

	var uids []string
	pageToken := ""
	for {
		call := s.svc.Projects.Databases.Documents.
			List(s.integrationName(userID), eventsCollection).
			PageSize(listPageSize).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		resp, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("list events: %w", err)
		}

		for _, doc := range resp.Documents {
			uid := doc.Name[strings.LastIndex(doc.Name, "/")+1:]
			if strings.HasPrefix(uid, prefix) {
				uids = append(uids, uid)
			}
		}

		if resp.NextPageToken == "" {
			return uids, nil
		}
		pageToken = resp.NextPageToken
	}
}

// isStatus reports whether err is a googleapi error with the given code.
func isStatus(err error, code int) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == code
}
