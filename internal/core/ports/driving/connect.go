package driving

import "context"

// AuthRequest is a pending authorization attempt. The state/verifier
// pairing is held until the provider redirects back, preventing a
// forged or mismatched callback from completing the flow.
type AuthRequest struct {
	// AuthURL is the provider consent URL the user must visit.
	AuthURL string

	// State is the CSRF token carried through the redirect.
	State string

	// RedirectURI is the callback the provider will redirect to.
	RedirectURI string
}

// ConnectService manages the provider integration lifecycle.
type ConnectService interface {
	// BeginAuth generates a PKCE verifier/challenge pair and a state
	// token, remembers the pairing, and returns the consent URL.
	BeginAuth(ctx context.Context, userID, redirectURI string) (*AuthRequest, error)

	// CompleteAuth validates the callback state against the stored
	// pairing, exchanges the authorization code, and persists the
	// resulting tokens on the user's integration record.
	CompleteAuth(ctx context.Context, userID, state, code string) error

	// Disconnect purges all stored event records for the user and then
	// deletes the integration record.
	Disconnect(ctx context.Context, userID string) error
}
