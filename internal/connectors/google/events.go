package google

import (
	"context"
	"fmt"
	"time"

	"github.com/nendocal/calsync/internal/core/domain"
	"github.com/nendocal/calsync/internal/core/ports/driven"
)

// maxResultsPerPage is the provider's maximum events page size.
const maxResultsPerPage = 2500

// FetchEvents runs one paginated fetch for a single calendar.
//
// A token-driven request carries no time window or ordering parameter;
// incremental sync tokens are range-less by provider contract. A
// windowed request orders by last-updated time within the bounds.
// Recurring events are always expanded into instances, and deleted
// events are included so cancellations can be observed.
//
// When the provider answers 410 Gone on a token-driven request the
// supplied sync token is dead: any partial accumulation is discarded
// and ResetRequired is returned so the caller re-fetches with the time
// window and reconciles. A 410 on a windowed request has no token to
// invalidate and is a plain provider failure.
func (p *Provider) FetchEvents(ctx context.Context, req driven.EventFetchRequest) (*driven.EventFetchResult, error) {
	svc, err := p.calendarService(ctx, req.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("create calendar service: %w", err)
	}

	result := &driven.EventFetchResult{}

	pageToken := ""
	for {
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		call := svc.Events.List(req.CalendarID).
			SingleEvents(true).
			ShowDeleted(true).
			MaxResults(maxResultsPerPage)

		if req.SyncToken != "" {
			call = call.SyncToken(req.SyncToken)
		} else {
			call = call.OrderBy("updated").
				TimeMin(req.Window.Start.Format(time.RFC3339)).
				TimeMax(req.Window.End.Format(time.RFC3339))
		}
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		page, err := call.Context(ctx).Do()
		if IsRateLimited(err) {
			p.limiter.RecordRateLimitError(RetryAfterSeconds(err))
			if werr := p.limiter.Wait(ctx); werr != nil {
				return nil, werr
			}
			page, err = call.Context(ctx).Do()
		}
		if err != nil {
			if IsSyncTokenExpired(err) && req.SyncToken != "" {
				return &driven.EventFetchResult{ResetRequired: true}, nil
			}
			if IsUnauthorized(err) {
				return nil, fmt.Errorf("%w: list events for %s: %w", domain.ErrReauthRequired, req.CalendarID, WrapError(err))
			}
			return nil, fmt.Errorf("%w: list events for %s: %w", domain.ErrProviderRequest, req.CalendarID, WrapError(err))
		}

		for _, item := range page.Items {
			if item.Status == "cancelled" {
				if item.Id != "" {
					result.CancelledIDs = append(result.CancelledIDs, item.Id)
				}
				continue
			}
			result.Events = append(result.Events, MapEvent(req.CalendarID, item))
		}

		// NextSyncToken only appears on the final page.
		if page.NextSyncToken != "" {
			result.NextSyncToken = page.NextSyncToken
		}
		if page.NextPageToken == "" {
			return result, nil
		}
		pageToken = page.NextPageToken
	}
}
