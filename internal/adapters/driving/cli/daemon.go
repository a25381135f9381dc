package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/nendocal/calsync/internal/logger"
)

var daemonInterval time.Duration

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run periodic background syncs",
	Long: `Keeps syncing connected users on an interval until interrupted.

The user list comes from the sync.users config key (falling back to the
current user) and the interval from --interval or sync.interval_minutes.
Edits to the config file are picked up without restarting: the scheduler
is rebuilt with the new settings.`,
	RunE: runDaemon,
}

func init() {
	daemonCmd.Flags().DurationVar(&daemonInterval, "interval", 0, "sync interval (default from config, then 15m)")
	rootCmd.AddCommand(daemonCmd)
}

func runDaemon(cmd *cobra.Command, _ []string) error {
	if newScheduler == nil {
		return errors.New("scheduler not configured")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reload := make(chan struct{}, 1)
	if configStore != nil {
		watcher, err := watchConfig(configStore.Path(), reload)
		if err != nil {
			logger.Warn("daemon: config watch unavailable: %v", err)
		} else {
			defer func() { _ = watcher.Close() }()
		}
	}

	cmd.Println("calsync daemon started. Press Ctrl+C to stop.")

	for {
		interval, users := daemonSettings()
		cmd.Printf("Syncing %d user(s) every %s.\n", len(users), interval)

		sched := newScheduler(interval, users)

		runCtx, cancel := context.WithCancel(ctx)
		done := make(chan error, 1)
		go func() { done <- sched.Start(runCtx) }()

		select {
		case <-ctx.Done():
			cancel()
			<-done
			cmd.Println("daemon stopped.")
			return nil
		case <-reload:
			cancel()
			<-done
			if err := configStore.Load(); err != nil {
				logger.Warn("daemon: config reload failed: %v", err)
			} else {
				cmd.Println("Config changed, restarting scheduler.")
			}
		case err := <-done:
			cancel()
			if err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		}
	}
}

// daemonSettings resolves the interval and user list, flag first, then
// config, then defaults.
func daemonSettings() (time.Duration, []string) {
	interval := daemonInterval
	if interval == 0 && configStore != nil {
		if minutes := configStore.GetInt("sync.interval_minutes"); minutes > 0 {
			interval = time.Duration(minutes) * time.Minute
		}
	}
	if interval == 0 {
		interval = 15 * time.Minute
	}

	var users []string
	if configStore != nil {
		users = configStore.GetStringSlice("sync.users")
	}
	if len(users) == 0 {
		users = []string{currentUserID()}
	}

	return interval, users
}

// watchConfig signals on reload when the config file is written.
// Editors often replace the file, so the parent directory is watched
// and events are filtered by name.
func watchConfig(path string, reload chan<- struct{}) (*fsnotify.Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		_ = watcher.Close()
		return nil, err
	}

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != filepath.Clean(path) {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				select {
				case reload <- struct{}{}:
				default:
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("daemon: config watch error: %v", err)
			}
		}
	}()

	return watcher, nil
}
