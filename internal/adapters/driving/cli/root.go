// Package cli implements the calsync command-line interface using
// cobra. Commands reach the core through the driving ports; services
// are injected once at startup via SetServices.
package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/nendocal/calsync/internal/core/ports/driven"
	"github.com/nendocal/calsync/internal/core/ports/driving"
	"github.com/nendocal/calsync/internal/logger"
)

// version is set at build time via ldflags.
var version = "dev"

// Injected services. Nil until SetServices is called; commands guard
// against missing services so tests can exercise subsets.
var (
	syncService    driving.SyncService
	connectService driving.ConnectService
	syncStore      driven.SyncStore
	configStore    driven.ConfigStore

	// newScheduler builds the auto-sync loop for the daemon command.
	newScheduler func(interval time.Duration, userIDs []string) driving.Scheduler
)

// Flags shared across commands.
var (
	verboseFlag bool
	userFlag    string
)

var rootCmd = &cobra.Command{
	Use:   "calsync",
	Short: "Sync third-party calendars into local storage",
	Long: `calsync keeps a local mirror of a user's Google calendars.

Connect an account once with 'calsync connect', then run 'calsync sync'
to pull events (incrementally after the first run), or 'calsync daemon'
to keep syncing on an interval.`,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		if verboseFlag {
			logger.SetVerbose(true)
		}
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&userFlag, "user", "", "user id to operate on (default from config)")
}

// Services bundles everything the CLI needs from the composition root.
type Services struct {
	Sync         driving.SyncService
	Connect      driving.ConnectService
	Store        driven.SyncStore
	Config       driven.ConfigStore
	NewScheduler func(interval time.Duration, userIDs []string) driving.Scheduler
}

// SetServices wires the injected services. Call before Execute.
func SetServices(s Services) {
	syncService = s.Sync
	connectService = s.Connect
	syncStore = s.Store
	configStore = s.Config
	newScheduler = s.NewScheduler
}

// SetVersion overrides the reported version string.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// currentUserID resolves the user id for a command: the --user flag
// wins, then the configured default, then "default".
func currentUserID() string {
	if userFlag != "" {
		return userFlag
	}
	if configStore != nil {
		if id := configStore.GetString("user.id"); id != "" {
			return id
		}
	}
	return "default"
}
