package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nendocal/calsync/internal/core/domain"
	"github.com/nendocal/calsync/internal/core/ports/driving"
)

var (
	syncFull bool
	syncFrom string
	syncTo   string
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync calendar events into local storage",
	Long: `Runs one sync pass for the user.

The first run fetches every selected calendar over the sync window;
later runs are incremental using stored sync tokens. Use --full to
discard the tokens and re-fetch the window.`,
	RunE: runSync,
}

func init() {
	syncCmd.Flags().BoolVar(&syncFull, "full", false, "ignore stored sync tokens and re-fetch the window")
	syncCmd.Flags().StringVar(&syncFrom, "from", "", "window start (RFC 3339, overrides the default window)")
	syncCmd.Flags().StringVar(&syncTo, "to", "", "window end (RFC 3339, overrides the default window)")
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, _ []string) error {
	if syncService == nil {
		return errors.New("sync service not configured")
	}

	opts := driving.SyncOptions{ForceFullSync: syncFull}
	window, err := parseWindowFlags(syncFrom, syncTo)
	if err != nil {
		return err
	}
	opts.Window = window

	userID := currentUserID()
	cmd.Printf("Syncing calendars for %s...\n", userID)

	summary, err := syncService.Sync(context.Background(), userID, opts)
	switch {
	case errors.Is(err, domain.ErrSyncInProgress):
		return errors.New("a sync is already running for this user")
	case errors.Is(err, domain.ErrReauthRequired):
		return errors.New("authorization required: run 'calsync connect'")
	case errors.Is(err, domain.ErrNoCalendarsSelected):
		cmd.Println("No calendars selected. Use 'calsync calendars select <id>' to choose some.")
		return nil
	case err != nil:
		return fmt.Errorf("sync failed: %w", err)
	}

	printSummary(cmd, summary)
	return nil
}

func parseWindowFlags(from, to string) (*domain.TimeRange, error) {
	if from == "" && to == "" {
		return nil, nil
	}
	if from == "" || to == "" {
		return nil, errors.New("--from and --to must be given together")
	}

	start, err := time.Parse(time.RFC3339, from)
	if err != nil {
		return nil, fmt.Errorf("invalid --from: %w", err)
	}
	end, err := time.Parse(time.RFC3339, to)
	if err != nil {
		return nil, fmt.Errorf("invalid --to: %w", err)
	}
	if !end.After(start) {
		return nil, errors.New("--to must be after --from")
	}

	return &domain.TimeRange{Start: start, End: end}, nil
}

func printSummary(cmd *cobra.Command, summary *domain.SyncSummary) {
	for _, res := range summary.Results {
		switch {
		case res.Err != nil:
			cmd.Printf("  %s: failed: %v\n", res.CalendarID, res.Err)
		case res.Reset:
			cmd.Printf("  %s: re-synced (%d events, %d removed)\n", res.CalendarID, res.Upserted, res.Removed)
		default:
			cmd.Printf("  %s: %d events, %d removed\n", res.CalendarID, res.Upserted, res.Removed)
		}
	}

	if failed := summary.FailedCalendarIDs(); len(failed) > 0 {
		cmd.Printf("Done with failures: %d calendars synced, %d failed.\n",
			len(summary.SyncedCalendarIDs), len(failed))
		return
	}
	cmd.Printf("Done: %d calendars synced.\n", len(summary.SyncedCalendarIDs))
}
