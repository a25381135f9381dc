package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *ConfigStore {
	t.Helper()
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func TestConfigStore_SetAndGet(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Set("google.client_id", "abc123"))

	val, ok := store.Get("google.client_id")
	assert.True(t, ok)
	assert.Equal(t, "abc123", val)
}

func TestConfigStore_GetMissingKey(t *testing.T) {
	store := newTestStore(t)

	_, ok := store.Get("nonexistent")
	assert.False(t, ok)
	assert.Equal(t, "", store.GetString("nonexistent"))
	assert.Equal(t, 0, store.GetInt("nonexistent"))
	assert.False(t, store.GetBool("nonexistent"))
	assert.Nil(t, store.GetStringSlice("nonexistent"))
}

func TestConfigStore_TypedGetters(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Set("sync.interval_minutes", 15))
	require.NoError(t, store.Set("sync.verbose", true))
	require.NoError(t, store.Set("storage.backend", "sqlite"))

	assert.Equal(t, 15, store.GetInt("sync.interval_minutes"))
	assert.True(t, store.GetBool("sync.verbose"))
	assert.Equal(t, "sqlite", store.GetString("storage.backend"))
}

func TestConfigStore_TypeMismatchReturnsZero(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Set("key", "not a number"))

	assert.Equal(t, 0, store.GetInt("key"))
	assert.False(t, store.GetBool("key"))
	assert.Nil(t, store.GetStringSlice("key"))
}

func TestConfigStore_GetStringSlice(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Set("sync.users", []string{"alice", "bob"}))

	assert.Equal(t, []string{"alice", "bob"}, store.GetStringSlice("sync.users"))
}

func TestConfigStore_PersistsAcrossInstances(t *testing.T) {
	dir := t.TempDir()

	store1, err := NewConfigStore(dir)
	require.NoError(t, err)
	require.NoError(t, store1.Set("google.client_id", "persisted"))
	require.NoError(t, store1.Set("sync.users", []string{"alice"}))

	store2, err := NewConfigStore(dir)
	require.NoError(t, err)
	assert.Equal(t, "persisted", store2.GetString("google.client_id"))
	assert.Equal(t, []string{"alice"}, store2.GetStringSlice("sync.users"))
}

func TestConfigStore_LoadFlattensNestedTables(t *testing.T) {
	dir := t.TempDir()

	content := `[google]
client_id = "from-file"

[sync]
interval_minutes = 30
users = ["alice", "bob"]
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0600))

	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	assert.Equal(t, "from-file", store.GetString("google.client_id"))
	assert.Equal(t, 30, store.GetInt("sync.interval_minutes"))
	assert.Equal(t, []string{"alice", "bob"}, store.GetStringSlice("sync.users"))
}

func TestConfigStore_MissingFileIsNotAnError(t *testing.T) {
	store := newTestStore(t)

	_, ok := store.Get("anything")
	assert.False(t, ok)
}

func TestConfigStore_FilePermissions(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Set("secret", "value"))

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestConfigStore_Path(t *testing.T) {
	dir := t.TempDir()
	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "config.toml"), store.Path())
}
