package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nendocal/calsync/internal/core/domain"
)

var calendarsCmd = &cobra.Command{
	Use:   "calendars",
	Short: "List and select calendars to sync",
	Long: `Shows the calendars known for the user and which are selected.

The list is refreshed on every sync; newly discovered calendars start
selected. Use the select/deselect subcommands to change what is synced.`,
	RunE: runCalendarsList,
}

var calendarsSelectCmd = &cobra.Command{
	Use:   "select [calendar-id]",
	Short: "Include a calendar in sync runs",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setCalendarSelected(cmd, args[0], true)
	},
}

var calendarsDeselectCmd = &cobra.Command{
	Use:   "deselect [calendar-id]",
	Short: "Exclude a calendar from sync runs",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setCalendarSelected(cmd, args[0], false)
	},
}

func init() {
	calendarsCmd.AddCommand(calendarsSelectCmd)
	calendarsCmd.AddCommand(calendarsDeselectCmd)
	rootCmd.AddCommand(calendarsCmd)
}

func runCalendarsList(cmd *cobra.Command, _ []string) error {
	if syncStore == nil {
		return errors.New("sync store not configured")
	}

	record, err := syncStore.LoadIntegration(context.Background(), currentUserID())
	if errors.Is(err, domain.ErrNotFound) {
		cmd.Println("Not connected. Run 'calsync connect'.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("load integration: %w", err)
	}

	if len(record.CalendarList) == 0 {
		cmd.Println("No calendars known yet. Run 'calsync sync' first.")
		return nil
	}

	for _, entry := range record.CalendarList {
		marker := " "
		if entry.Selected {
			marker = "*"
		}
		label := entry.Summary
		if entry.Primary {
			label += " (primary)"
		}
		cmd.Printf("[%s] %s  %s\n", marker, entry.ID, label)
	}
	cmd.Println("\n* = selected for sync")
	return nil
}

func setCalendarSelected(cmd *cobra.Command, calendarID string, selected bool) error {
	if syncStore == nil {
		return errors.New("sync store not configured")
	}

	ctx := context.Background()
	userID := currentUserID()

	record, err := syncStore.LoadIntegration(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return errors.New("not connected: run 'calsync connect'")
	}
	if err != nil {
		return fmt.Errorf("load integration: %w", err)
	}

	found := false
	list := make([]domain.CalendarListEntry, len(record.CalendarList))
	copy(list, record.CalendarList)
	for i := range list {
		if list[i].ID == calendarID {
			list[i].Selected = selected
			found = true
		}
	}
	if !found {
		return fmt.Errorf("unknown calendar %q: run 'calsync sync' to refresh the list", calendarID)
	}

	patch := domain.IntegrationPatch{CalendarList: list}
	if err := syncStore.UpdateIntegration(ctx, userID, patch); err != nil {
		return fmt.Errorf("update selection: %w", err)
	}

	if selected {
		cmd.Printf("Calendar %s selected.\n", calendarID)
	} else {
		cmd.Printf("Calendar %s deselected.\n", calendarID)
	}
	return nil
}
