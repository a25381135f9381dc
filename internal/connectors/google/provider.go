package google

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/nendocal/calsync/internal/core/ports/driven"
)

// Default endpoints, overridable for tests.
const (
	defaultTokenURL    = "https://oauth2.googleapis.com/token"
	defaultAPIEndpoint = "https://www.googleapis.com/calendar/v3/"
)

// defaultHTTPTimeout bounds every provider call. The sync core itself
// enforces no run-level timeout; this keeps a single hung request from
// stalling a run indefinitely.
const defaultHTTPTimeout = 30 * time.Second

// Ensure Provider implements the port.
var _ driven.CalendarProvider = (*Provider)(nil)

// Config holds the provider client configuration.
type Config struct {
	// ClientID and ClientSecret identify the OAuth application.
	ClientID     string
	ClientSecret string

	// TokenURL overrides the token endpoint (tests only).
	TokenURL string

	// APIEndpoint overrides the Calendar API base URL (tests only).
	// Must end with a slash.
	APIEndpoint string

	// HTTPTimeout bounds each HTTP request. Zero means the default.
	HTTPTimeout time.Duration

	// RateLimit tunes client-side request pacing. Zero means the default.
	RateLimit RateLimitConfig
}

// Provider implements driven.CalendarProvider against the Google
// Calendar API.
type Provider struct {
	clientID     string
	clientSecret string
	tokenURL     string
	apiEndpoint  string
	httpClient   *http.Client
	limiter      *RateLimiter
	now          func() time.Time
}

// NewProvider creates a Google Calendar provider.
func NewProvider(cfg Config) *Provider {
	tokenURL := cfg.TokenURL
	if tokenURL == "" {
		tokenURL = defaultTokenURL
	}
	endpoint := cfg.APIEndpoint
	if endpoint == "" {
		endpoint = defaultAPIEndpoint
	}
	timeout := cfg.HTTPTimeout
	if timeout == 0 {
		timeout = defaultHTTPTimeout
	}

	return &Provider{
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		tokenURL:     tokenURL,
		apiEndpoint:  endpoint,
		httpClient:   &http.Client{Timeout: timeout},
		limiter:      NewRateLimiter(cfg.RateLimit),
		now:          time.Now,
	}
}

// calendarService builds a Calendar API client authenticated with the
// given access token.
func (p *Provider) calendarService(ctx context.Context, accessToken string) (*calendar.Service, error) {
	ts := oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: accessToken,
		TokenType:   "Bearer",
	})

	opts := []option.ClientOption{option.WithTokenSource(ts)}
	if p.apiEndpoint != defaultAPIEndpoint {
		opts = append(opts, option.WithEndpoint(p.apiEndpoint))
	}
	return calendar.NewService(ctx, opts...)
}
