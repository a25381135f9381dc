// calsync mirrors a user's Google calendars into local storage.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"golang.org/x/oauth2"
	firestoreapi "google.golang.org/api/firestore/v1"
	"google.golang.org/api/option"

	"github.com/nendocal/calsync/internal/adapters/driven/config/file"
	"github.com/nendocal/calsync/internal/adapters/driven/storage/firerest"
	"github.com/nendocal/calsync/internal/adapters/driven/storage/firestore"
	"github.com/nendocal/calsync/internal/adapters/driven/storage/sqlite"
	"github.com/nendocal/calsync/internal/adapters/driving/cli"
	"github.com/nendocal/calsync/internal/connectors/google"
	"github.com/nendocal/calsync/internal/core/ports/driven"
	"github.com/nendocal/calsync/internal/core/ports/driving"
	"github.com/nendocal/calsync/internal/core/services"
)

// version is stamped via ldflags at release time.
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "calsync: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configStore, err := file.NewConfigStore("")
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	store, err := buildSyncStore(configStore)
	if err != nil {
		return err
	}

	provider := google.NewProvider(google.Config{
		ClientID:     configStore.GetString("google.client_id"),
		ClientSecret: configStore.GetString("google.client_secret"),
	})

	syncService := services.NewSyncOrchestrator(store, provider)
	connectService := services.NewConnectService(store, provider, services.ConnectConfig{
		ClientID: configStore.GetString("google.client_id"),
	})

	cli.SetVersion(version)
	cli.SetServices(cli.Services{
		Sync:    syncService,
		Connect: connectService,
		Store:   store,
		Config:  configStore,
		NewScheduler: func(interval time.Duration, userIDs []string) driving.Scheduler {
			return services.NewScheduler(services.SchedulerConfig{
				Interval: interval,
				UserIDs:  userIDs,
				Jitter:   true,
			}, syncService)
		},
	})

	return cli.Execute()
}

// buildSyncStore picks the storage backend from config. The default is
// the local sqlite database; firestore and firerest back the same data
// with server and end-user credentials respectively.
func buildSyncStore(cfg driven.ConfigStore) (driven.SyncStore, error) {
	switch backend := cfg.GetString("storage.backend"); backend {
	case "", "sqlite":
		store, err := sqlite.NewStore(cfg.GetString("storage.dir"))
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return store, nil

	case "firestore":
		projectID := cfg.GetString("firestore.project_id")
		if projectID == "" {
			return nil, fmt.Errorf("storage.backend firestore requires firestore.project_id")
		}
		var opts []option.ClientOption
		if creds := cfg.GetString("firestore.credentials_file"); creds != "" {
			opts = append(opts, option.WithCredentialsFile(creds))
		}
		svc, err := firestoreapi.NewService(context.Background(), opts...)
		if err != nil {
			return nil, fmt.Errorf("create firestore client: %w", err)
		}
		return firestore.NewStore(svc, projectID), nil

	case "firerest":
		projectID := cfg.GetString("firestore.project_id")
		token := cfg.GetString("firestore.token")
		if projectID == "" || token == "" {
			return nil, fmt.Errorf("storage.backend firerest requires firestore.project_id and firestore.token")
		}
		return firerest.NewStore(firerest.Config{
			ProjectID:   projectID,
			TokenSource: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}),
		}), nil

	default:
		return nil, fmt.Errorf("unknown storage.backend %q", backend)
	}
}
