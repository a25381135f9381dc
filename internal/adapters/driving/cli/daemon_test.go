package cli

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nendocal/calsync/internal/adapters/driven/config/file"
)

func setupConfigTest(t *testing.T) *file.ConfigStore {
	t.Helper()
	store, err := file.NewConfigStore(t.TempDir())
	require.NoError(t, err)
	oldConfig := configStore
	configStore = store
	t.Cleanup(func() { configStore = oldConfig })
	return store
}

func TestDaemonSettings_Defaults(t *testing.T) {
	setupConfigTest(t)

	interval, users := daemonSettings()

	assert.Equal(t, 15*time.Minute, interval)
	assert.Equal(t, []string{"default"}, users)
}

func TestDaemonSettings_FromConfig(t *testing.T) {
	store := setupConfigTest(t)
	require.NoError(t, store.Set("sync.interval_minutes", 5))
	require.NoError(t, store.Set("sync.users", []string{"alice", "bob"}))

	interval, users := daemonSettings()

	assert.Equal(t, 5*time.Minute, interval)
	assert.Equal(t, []string{"alice", "bob"}, users)
}

func TestDaemonSettings_FlagWinsOverConfig(t *testing.T) {
	store := setupConfigTest(t)
	require.NoError(t, store.Set("sync.interval_minutes", 5))

	daemonInterval = 30 * time.Second
	defer func() { daemonInterval = 0 }()

	interval, _ := daemonSettings()

	assert.Equal(t, 30*time.Second, interval)
}

func TestDaemonCmd_SchedulerNotConfigured(t *testing.T) {
	oldFactory := newScheduler
	newScheduler = nil
	defer func() { newScheduler = oldFactory }()

	_, err := execute(t, "daemon")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "not configured")
}

func TestWatchConfig_SignalsOnWrite(t *testing.T) {
	store := setupConfigTest(t)

	reload := make(chan struct{}, 1)
	watcher, err := watchConfig(store.Path(), reload)
	require.NoError(t, err)
	defer watcher.Close()

	require.NoError(t, store.Set("sync.interval_minutes", 10))

	select {
	case <-reload:
	case <-time.After(2 * time.Second):
		t.Fatal("expected a reload signal after config write")
	}
}

func TestWatchConfig_IgnoresOtherFiles(t *testing.T) {
	store := setupConfigTest(t)

	reload := make(chan struct{}, 1)
	watcher, err := watchConfig(store.Path(), reload)
	require.NoError(t, err)
	defer watcher.Close()

	sibling := filepath.Join(filepath.Dir(store.Path()), "notes.txt")
	require.NoError(t, os.WriteFile(sibling, []byte("unrelated"), 0600))

	select {
	case <-reload:
		t.Fatal("unexpected reload signal for unrelated file")
	case <-time.After(200 * time.Millisecond):
	}
}
