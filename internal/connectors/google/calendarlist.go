package google

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"google.golang.org/api/googleapi"

	"github.com/nendocal/calsync/internal/core/domain"
)

// calendarListItem mirrors the calendarList wire item. Selected is a
// pointer because the provider omits the field for calendars that are
// selected by default; only an explicit false means deselected.
type calendarListItem struct {
	ID              string `json:"id"`
	Summary         string `json:"summary"`
	Primary         bool   `json:"primary"`
	AccessRole      string `json:"accessRole"`
	BackgroundColor string `json:"backgroundColor"`
	ForegroundColor string `json:"foregroundColor"`
	Selected        *bool  `json:"selected"`
}

type calendarListResponse struct {
	Items         []calendarListItem `json:"items"`
	NextPageToken string             `json:"nextPageToken"`
}

// ListCalendars fetches every calendar the user can at least read,
// paginating until exhausted. Items without an id are skipped.
func (p *Provider) ListCalendars(ctx context.Context, accessToken string) ([]domain.CalendarListEntry, error) {
	var entries []domain.CalendarListEntry

	pageToken := ""
	for {
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		page, err := p.fetchCalendarListPage(ctx, accessToken, pageToken)
		if IsRateLimited(err) {
			p.limiter.RecordRateLimitError(RetryAfterSeconds(err))
			if werr := p.limiter.Wait(ctx); werr != nil {
				return nil, werr
			}
			page, err = p.fetchCalendarListPage(ctx, accessToken, pageToken)
		}
		if err != nil {
			if IsUnauthorized(err) {
				return nil, fmt.Errorf("%w: calendar list rejected the access token", domain.ErrReauthRequired)
			}
			return nil, err
		}

		for _, item := range page.Items {
			if item.ID == "" {
				continue
			}
			entries = append(entries, domain.CalendarListEntry{
				ID:              item.ID,
				Summary:         item.Summary,
				Primary:         item.Primary,
				AccessRole:      item.AccessRole,
				BackgroundColor: item.BackgroundColor,
				ForegroundColor: item.ForegroundColor,
				Selected:        item.Selected == nil || *item.Selected,
			})
		}

		if page.NextPageToken == "" {
			return entries, nil
		}
		pageToken = page.NextPageToken
	}
}

func (p *Provider) fetchCalendarListPage(ctx context.Context, accessToken, pageToken string) (*calendarListResponse, error) {
	query := url.Values{}
	query.Set("minAccessRole", "reader")
	if pageToken != "" {
		query.Set("pageToken", pageToken)
	}

	listURL := p.apiEndpoint + "users/me/calendarList?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, listURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: list calendars: %w", domain.ErrProviderRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		apiErr := &googleapi.Error{Code: resp.StatusCode, Header: resp.Header}
		return nil, fmt.Errorf("%w: calendar list: %w", domain.ErrProviderRequest, apiErr)
	}

	var page calendarListResponse
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("%w: decode calendar list: %w", domain.ErrProviderRequest, err)
	}
	return &page, nil
}
