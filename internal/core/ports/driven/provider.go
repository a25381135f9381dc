package driven

import (
	"context"
	"time"

	"github.com/nendocal/calsync/internal/core/domain"
)

// TokenGrant is the outcome of a token endpoint call.
type TokenGrant struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	Scope        string
	ExpiresAt    time.Time
}

// EventFetchRequest describes one fetch of a single calendar's events.
// When SyncToken is set the request is token-driven and Window is
// ignored; incremental sync tokens are range-less by provider contract.
type EventFetchRequest struct {
	AccessToken string
	CalendarID  string
	SyncToken   string
	Window      domain.TimeRange
}

// EventFetchResult is the accumulated outcome of a paginated fetch.
type EventFetchResult struct {
	// Events holds the mapped, non-cancelled records.
	Events []domain.EventRecord

	// CancelledIDs holds the provider event IDs seen with a cancelled
	// status. Cancelled items never appear in Events.
	CancelledIDs []string

	// NextSyncToken is the cursor for the next incremental fetch.
	NextSyncToken string

	// ResetRequired is true when the provider invalidated the supplied
	// sync token (HTTP 410). Partial accumulation is discarded and the
	// caller must re-fetch with a time window.
	ResetRequired bool
}

// CalendarProvider is the external calendar API boundary.
type CalendarProvider interface {
	// RefreshToken exchanges a refresh token for a fresh access token.
	// A rejection means the user must re-consent; it is never retried.
	RefreshToken(ctx context.Context, refreshToken string) (*TokenGrant, error)

	// ExchangeCode exchanges an authorization code (with its PKCE code
	// verifier) for the initial token grant.
	ExchangeCode(ctx context.Context, code, codeVerifier, redirectURI string) (*TokenGrant, error)

	// ListCalendars fetches every calendar the user can at least read.
	ListCalendars(ctx context.Context, accessToken string) ([]domain.CalendarListEntry, error)

	// FetchEvents runs one paginated fetch for a single calendar,
	// accumulating across pages until exhausted.
	FetchEvents(ctx context.Context, req EventFetchRequest) (*EventFetchResult, error)
}
