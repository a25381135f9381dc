package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nendocal/calsync/internal/adapters/driving/oauth"
)

// connectTimeout bounds how long we wait for the browser callback.
const connectTimeout = 5 * time.Minute

var connectNoBrowser bool

var connectCmd = &cobra.Command{
	Use:   "connect",
	Short: "Connect a Google account",
	Long: `Starts the OAuth authorization flow for the user.

A local callback server is started, the browser is opened on the
provider's consent page, and the resulting tokens are stored. Re-running
connect for an already connected user replaces the stored tokens.`,
	RunE: runConnect,
}

var disconnectCmd = &cobra.Command{
	Use:   "disconnect",
	Short: "Disconnect the account and purge stored events",
	RunE:  runDisconnect,
}

func init() {
	connectCmd.Flags().BoolVar(&connectNoBrowser, "no-browser", false, "print the consent URL instead of opening a browser")
	rootCmd.AddCommand(connectCmd)
	rootCmd.AddCommand(disconnectCmd)
}

func runConnect(cmd *cobra.Command, _ []string) error {
	if connectService == nil {
		return errors.New("connect service not configured")
	}

	ctx := context.Background()
	userID := currentUserID()

	// The state is only known after BeginAuth, but the callback server
	// must be listening before the browser opens. Start on a random
	// port with a placeholder and set the real state afterwards.
	server := oauth.NewCallbackServer(0, "")
	if err := server.Start(); err != nil {
		return fmt.Errorf("start callback server: %w", err)
	}
	defer func() { _ = server.Stop() }()

	req, err := connectService.BeginAuth(ctx, userID, server.RedirectURI())
	if err != nil {
		return fmt.Errorf("begin authorization: %w", err)
	}
	server.SetExpectedState(req.State)

	if connectNoBrowser {
		cmd.Printf("Visit this URL to authorize calsync:\n\n  %s\n\n", req.AuthURL)
	} else {
		cmd.Println("Opening browser for authorization...")
		if err := oauth.OpenBrowser(req.AuthURL); err != nil {
			cmd.Printf("Could not open browser. Visit this URL:\n\n  %s\n\n", req.AuthURL)
		}
	}

	cmd.Println("Waiting for authorization...")
	code, err := server.WaitForCode(connectTimeout)
	if err != nil {
		return fmt.Errorf("authorization did not complete: %w", err)
	}

	if err := connectService.CompleteAuth(ctx, userID, req.State, code); err != nil {
		return fmt.Errorf("complete authorization: %w", err)
	}

	cmd.Printf("Account connected for user %s.\n", userID)
	cmd.Println("Run 'calsync sync' to pull events.")
	return nil
}

func runDisconnect(cmd *cobra.Command, _ []string) error {
	if connectService == nil {
		return errors.New("connect service not configured")
	}

	userID := currentUserID()
	if err := connectService.Disconnect(context.Background(), userID); err != nil {
		return fmt.Errorf("disconnect failed: %w", err)
	}

	cmd.Printf("Account disconnected for user %s. Stored events removed.\n", userID)
	return nil
}
