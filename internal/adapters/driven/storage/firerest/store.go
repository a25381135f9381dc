package firerest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/nendocal/calsync/internal/core/domain"
	"github.com/nendocal/calsync/internal/core/ports/driven"
)

// defaultBaseURL is the Firestore REST endpoint.
const defaultBaseURL = "https://firestore.googleapis.com/v1"

// defaultHTTPTimeout bounds each storage request.
const defaultHTTPTimeout = 30 * time.Second

// listPageSize bounds one page of the events listing.
const listPageSize = 300

// Ensure Store implements the interface.
var _ driven.SyncStore = (*Store)(nil)

// Config holds the REST store settings.
type Config struct {
	// ProjectID is the Firestore project.
	ProjectID string

	// TokenSource supplies the bearer token sent with every request,
	// typically the end user's own OAuth token.
	TokenSource oauth2.TokenSource

	// BaseURL overrides the API endpoint (tests only). No trailing slash.
	BaseURL string

	// HTTPTimeout bounds each request. Zero means the default.
	HTTPTimeout time.Duration
}

// Store is a SyncStore speaking the Firestore REST protocol directly.
type Store struct {
	baseURL     string
	database    string
	tokenSource oauth2.TokenSource
	httpClient  *http.Client

	now func() time.Time
}

// NewStore creates a REST-backed sync store.
func NewStore(cfg Config) *Store {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.HTTPTimeout
	if timeout == 0 {
		timeout = defaultHTTPTimeout
	}
	return &Store{
		baseURL:     baseURL,
		database:    fmt.Sprintf("projects/%s/databases/(default)", cfg.ProjectID),
		tokenSource: cfg.TokenSource,
		httpClient:  &http.Client{Timeout: timeout},
		now:         time.Now,
	}
}

// document is the wire form of a Firestore document.
type document struct {
	Name   string           `json:"name,omitempty"`
	Fields map[string]Value `json:"fields"`
}

func (s *Store) integrationName(userID string) string {
	return fmt.Sprintf("%s/documents/integrations/%s", s.database, userID)
}

func (s *Store) eventName(userID, uid string) string {
	return fmt.Sprintf("%s/events/%s", s.integrationName(userID), uid)
}

// LoadIntegration retrieves a user's integration record.
func (s *Store) LoadIntegration(ctx context.Context, userID string) (*domain.IntegrationRecord, error) {
	var doc document
	err := s.do(ctx, http.MethodGet, s.baseURL+"/"+s.integrationName(userID), nil, &doc)
	if err != nil {
		if errors.Is(err, errNotFoundStatus) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get integration: %w", err)
	}
	return decodeIntegration(doc.Fields), nil
}

// EnsureIntegration creates an empty record if none exists.
func (s *Store) EnsureIntegration(ctx context.Context, userID string) error {
	// currentDocument.exists=false makes the patch create-only.
	reqURL := s.baseURL + "/" + s.integrationName(userID) + "?currentDocument.exists=false"
	doc := document{Fields: integrationFields(&domain.IntegrationRecord{
		UserID:    userID,
		UpdatedAt: s.now().UTC(),
	})}

	err := s.do(ctx, http.MethodPatch, reqURL, doc, nil)
	if err != nil {
		if errors.Is(err, errConflictStatus) {
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

	reqURL := s.baseURL + "/" + s.integrationName(userID) + "?currentDocument.exists=true"
	doc := document{Fields: integrationFields(record)}
	if err := s.do(ctx, http.MethodPatch, reqURL, doc, nil); err != nil {
		return fmt.Errorf("%w: update integration: %w", domain.ErrStorageWrite, err)
	}
	return nil
}

// DeleteIntegration removes the record entirely.
func (s *Store) DeleteIntegration(ctx context.Context, userID string) error {
	err := s.do(ctx, http.MethodDelete, s.baseURL+"/"+s.integrationName(userID), nil, nil)
	if err != nil && !errors.Is(err, errNotFoundStatus) {
		return fmt.Errorf("%w: delete integration: %w", domain.ErrStorageWrite, err)
	}
	return nil
}

// batchWriteRequest and batchWriteResponse are the :batchWrite wire
// shapes, reduced to the parts this store uses.
type batchWriteRequest struct {
	Writes []batchWrite `json:"writes"`
}

type batchWrite struct {
	Update *document `json:"update,omitempty"`
	Delete string    `json:"delete,omitempty"`
}

type batchWriteResponse struct {
	Status []struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"status"`
}

// UpsertEvents writes event documents keyed by their UID through
// :batchWrite, in chunks of at most driven.EventBatchLimit.
func (s *Store) UpsertEvents(ctx context.Context, userID string, events []domain.EventRecord) error {
	writes := make([]batchWrite, len(events))
	for i := range events {
		writes[i] = batchWrite{
			Update: &document{
				Name:   s.eventName(userID, events[i].UID),
				Fields: eventFields(&events[i]),
			},
		}
	}
	return s.batchWrite(ctx, writes)
}

// RemoveEvents deletes event documents by UID. Missing UIDs are ignored.
func (s *Store) RemoveEvents(ctx context.Context, userID string, uids []string) error {
	writes := make([]batchWrite, len(uids))
	for i, uid := range uids {
		writes[i] = batchWrite{Delete: s.eventName(userID, uid)}
	}
	return s.batchWrite(ctx, writes)
}

func (s *Store) batchWrite(ctx context.Context, writes []batchWrite) error {
	reqURL := s.baseURL + "/" + s.database + "/documents:batchWrite"
	for start := 0; start < len(writes); start += driven.EventBatchLimit {
		end := start + driven.EventBatchLimit
		if end > len(writes) {
			end = len(writes)
		}

		var resp batchWriteResponse
		if err := s.do(ctx, http.MethodPost, reqURL, batchWriteRequest{Writes: writes[start:end]}, &resp); err != nil {
			return fmt.Errorf("%w: batch write: %w", domain.ErrStorageWrite, err)
		}
		for i, status := range resp.Status {
			if status.Code != 0 {
				return fmt.Errorf("%w: write %d: %s", domain.ErrStorageWrite, start+i, status.Message)
			}
		}
	}
	return nil
}

// ListEventUIDsByCalendar returns the UIDs of all stored events for one
// calendar, paging through the events subcollection and filtering by
// the UID's calendarId prefix.
func (s *Store) ListEventUIDsByCalendar(ctx context.Context, userID, calendarID string) ([]string, error) {
	prefix := calendarID + domain.EventUIDSeparator
	listURL := s.baseURL + "/" + s.integrationName(userID) + "/events"

	var uids []string
	pageToken := ""
	for {
		query := url.Values{}
		query.Set("pageSize", fmt.Sprint(listPageSize))
		if pageToken != "" {
			query.Set("pageToken", pageToken)
		}

		var resp struct {
			Documents     []document `json:"documents"`
			NextPageToken string     `json:"nextPageToken"`
		}
		if err := s.do(ctx, http.MethodGet, listURL+"?"+query.Encode(), nil, &resp); err != nil {
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

// Sentinel statuses surfaced by do for callers that branch on them.
var (
	errNotFoundStatus = errors.New("status 404")
	errConflictStatus = errors.New("status 409")
)

// do runs one authenticated request, encoding body and decoding the
// response when out is non-nil.
func (s *Store) do(ctx context.Context, method, reqURL string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	token, err := s.tokenSource.Token()
	if err != nil {
		return fmt.Errorf("get token: %w", err)
	}
	token.SetAuthHeader(req)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return errNotFoundStatus
	case resp.StatusCode == http.StatusConflict:
		return errConflictStatus
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
