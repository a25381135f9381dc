package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nendocal/calsync/internal/core/domain"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the integration state for the user",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	if syncStore == nil {
		return errors.New("sync store not configured")
	}

	ctx := context.Background()
	userID := currentUserID()

	record, err := syncStore.LoadIntegration(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		cmd.Printf("User %s is not connected. Run 'calsync connect'.\n", userID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("load integration: %w", err)
	}

	cmd.Printf("User:          %s\n", userID)
	cmd.Printf("Status:        %s\n", record.LastSyncStatus)
	if record.LastSyncError != "" {
		cmd.Printf("Last error:    %s\n", record.LastSyncError)
	}
	if record.LastSyncedAt.IsZero() {
		cmd.Println("Last synced:   never")
	} else {
		cmd.Printf("Last synced:   %s\n", record.LastSyncedAt.Format("2006-01-02 15:04:05 MST"))
	}

	selected := 0
	for _, entry := range record.CalendarList {
		if entry.Selected {
			selected++
		}
	}
	cmd.Printf("Calendars:     %d known, %d selected\n", len(record.CalendarList), selected)

	if syncService != nil {
		st, err := syncService.Status(ctx, userID)
		if err == nil && st != nil && st.Running {
			cmd.Println("A sync is running right now.")
		}
	}

	return nil
}
