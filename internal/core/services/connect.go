package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/nendocal/calsync/internal/core/domain"
	"github.com/nendocal/calsync/internal/core/ports/driven"
	"github.com/nendocal/calsync/internal/core/ports/driving"
	"github.com/nendocal/calsync/internal/logger"
)

// defaultAuthEndpoint is the provider's consent page.
const defaultAuthEndpoint = "https://accounts.google.com/o/oauth2/v2/auth"

// defaultScopes grants read access to calendars and events.
var defaultScopes = []string{
	"https://www.googleapis.com/auth/calendar.readonly",
	"https://www.googleapis.com/auth/calendar.events.readonly",
}

// pendingAuthTTL bounds how long an unconsumed authorization attempt
// stays valid.
const pendingAuthTTL = 10 * time.Minute

// Ensure ConnectService implements the interface.
var _ driving.ConnectService = (*ConnectService)(nil)

// ConnectConfig holds the OAuth application settings for the connect flow.
type ConnectConfig struct {
	// ClientID identifies the OAuth application.
	ClientID string

	// AuthEndpoint overrides the consent URL (tests only).
	AuthEndpoint string

	// Scopes overrides the requested OAuth scopes.
	Scopes []string
}

// pendingAuth is one unconsumed authorization attempt, keyed by state.
type pendingAuth struct {
	userID       string
	codeVerifier string
	redirectURI  string
	createdAt    time.Time
}

// ConnectService manages the provider integration lifecycle: starting
// the PKCE authorization flow, completing it from the callback, and
// tearing the integration down.
type ConnectService struct {
	store    driven.SyncStore
	provider driven.CalendarProvider

	authEndpoint string
	clientID     string
	scopes       []string

	mu      sync.Mutex
	pending map[string]pendingAuth

	now func() time.Time
}

// NewConnectService creates a new connect service.
func NewConnectService(store driven.SyncStore, provider driven.CalendarProvider, cfg ConnectConfig) *ConnectService {
	endpoint := cfg.AuthEndpoint
	if endpoint == "" {
		endpoint = defaultAuthEndpoint
	}
	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = defaultScopes
	}
	return &ConnectService{
		store:        store,
		provider:     provider,
		authEndpoint: endpoint,
		clientID:     cfg.ClientID,
		scopes:       scopes,
		pending:      make(map[string]pendingAuth),
		now:          time.Now,
	}
}

// BeginAuth generates a PKCE verifier/challenge pair and a state token,
// remembers the pairing, and returns the consent URL for the user.
func (s *ConnectService) BeginAuth(_ context.Context, userID, redirectURI string) (*driving.AuthRequest, error) {
	verifier, err := generateCodeVerifier()
	if err != nil {
		return nil, fmt.Errorf("generate code verifier: %w", err)
	}
	state, err := generateState()
	if err != nil {
		return nil, fmt.Errorf("generate state: %w", err)
	}

	query := url.Values{}
	query.Set("client_id", s.clientID)
	query.Set("redirect_uri", redirectURI)
	query.Set("response_type", "code")
	query.Set("scope", strings.Join(s.scopes, " "))
	query.Set("state", state)
	query.Set("code_challenge", generateCodeChallenge(verifier))
	query.Set("code_challenge_method", "S256")
	// Required for the provider to issue a refresh token.
	query.Set("access_type", "offline")
	query.Set("prompt", "consent")

	s.mu.Lock()
	s.expireLocked()
	s.pending[state] = pendingAuth{
		userID:       userID,
		codeVerifier: verifier,
		redirectURI:  redirectURI,
		createdAt:    s.now(),
	}
	s.mu.Unlock()

	return &driving.AuthRequest{
		AuthURL:     s.authEndpoint + "?" + query.Encode(),
		State:       state,
		RedirectURI: redirectURI,
	}, nil
}

// CompleteAuth validates the callback state, exchanges the code, and
// persists the tokens on the user's integration record. The pairing is
// consumed whether or not the exchange succeeds; a replayed callback
// always fails.
func (s *ConnectService) CompleteAuth(ctx context.Context, userID, state, code string) error {
	s.mu.Lock()
	attempt, ok := s.pending[state]
	if ok {
		delete(s.pending, state)
	}
	s.mu.Unlock()

	if !ok || attempt.userID != userID {
		return fmt.Errorf("%w: unknown or mismatched state", domain.ErrStateMismatch)
	}
	if s.now().Sub(attempt.createdAt) > pendingAuthTTL {
		return fmt.Errorf("%w: authorization attempt expired", domain.ErrStateMismatch)
	}

	grant, err := s.provider.ExchangeCode(ctx, code, attempt.codeVerifier, attempt.redirectURI)
	if err != nil {
		return err
	}

	if err := s.store.EnsureIntegration(ctx, userID); err != nil {
		return fmt.Errorf("%w: ensure integration: %w", domain.ErrStorageWrite, err)
	}

	patch := domain.IntegrationPatch{
		AccessToken: domain.Ptr(grant.AccessToken),
		ExpiresAt:   domain.Ptr(grant.ExpiresAt),
	}
	if grant.RefreshToken != "" {
		patch.RefreshToken = domain.Ptr(grant.RefreshToken)
	}
	if grant.TokenType != "" {
		patch.TokenType = domain.Ptr(grant.TokenType)
	}
	if grant.Scope != "" {
		patch.Scope = domain.Ptr(grant.Scope)
	}
	if err := s.store.UpdateIntegration(ctx, userID, patch); err != nil {
		return fmt.Errorf("%w: store tokens: %w", domain.ErrStorageWrite, err)
	}

	logger.Info("connected integration for %s", userID)
	return nil
}

// Disconnect purges all stored event records for the user and then
// deletes the integration record.
func (s *ConnectService) Disconnect(ctx context.Context, userID string) error {
	record, err := s.store.LoadIntegration(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("load integration: %w", err)
	}

	for _, entry := range record.CalendarList {
		uids, err := s.store.ListEventUIDsByCalendar(ctx, userID, entry.ID)
		if err != nil {
			return fmt.Errorf("list events for %s: %w", entry.ID, err)
		}
		if len(uids) == 0 {
			continue
		}
		if err := s.store.RemoveEvents(ctx, userID, uids); err != nil {
			return fmt.Errorf("%w: purge events for %s: %w", domain.ErrStorageWrite, entry.ID, err)
		}
	}

	if err := s.store.DeleteIntegration(ctx, userID); err != nil {
		return fmt.Errorf("%w: delete integration: %w", domain.ErrStorageWrite, err)
	}

	logger.Info("disconnected integration for %s", userID)
	return nil
}

// expireLocked drops pairings older than the TTL. Caller holds s.mu.
func (s *ConnectService) expireLocked() {
	cutoff := s.now().Add(-pendingAuthTTL)
	for state, attempt := range s.pending {
		if attempt.createdAt.Before(cutoff) {
			delete(s.pending, state)
		}
	}
}
